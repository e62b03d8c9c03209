package render

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/muesli/reflow/ansi"
	"github.com/muesli/reflow/truncate"

	"dayview/internal/grid"
	"dayview/internal/layout"
	"dayview/internal/model"
)

// DefaultRowMinutes is the time covered by one terminal row.
const DefaultRowMinutes = 15

const labelWidth = 6

// TermOptions control the terminal grid.
type TermOptions struct {
	Grid grid.Grid

	// LayoutWidth is the pixel width the records were computed for;
	// Columns is the number of character cells it maps onto.
	LayoutWidth float64
	Columns     int

	// RowMinutes defaults to DefaultRowMinutes.
	RowMinutes int

	Format24h bool
	Color     bool

	Day time.Time
	Now time.Time

	// Cursor and the selection are row indexes relative to the window
	// start; negative values disable them. SelBottom is exclusive.
	Cursor    int
	SelTop    int
	SelBottom int
}

// Rows returns how many rows Terminal draws for opts.
func (o TermOptions) Rows() int {
	return o.Grid.Window().Minutes() / o.rowMinutes()
}

func (o TermOptions) rowMinutes() int {
	if o.RowMinutes <= 0 {
		return DefaultRowMinutes
	}
	return o.RowMinutes
}

type block struct {
	x0, x1 int
	r0, r1 int
	lines  []string
	style  lipgloss.Style
}

// Terminal draws records as a character grid, one row per RowMinutes,
// preceded by a marker column and the hour captions.
func Terminal(events []model.Event, records []layout.Record, opts TermOptions) (string, error) {
	if len(events) != len(records) {
		return "", fmt.Errorf("render: %d events but %d records", len(events), len(records))
	}
	if opts.Columns <= 0 || opts.LayoutWidth <= 0 {
		return "", fmt.Errorf("render: terminal needs positive columns and layout width")
	}

	g := opts.Grid
	rowMin := float64(opts.rowMinutes())
	rows := opts.Rows()

	blocks := make([]block, 0, len(records))
	for i, r := range records {
		b := block{
			x0: int(math.Round(r.Left / opts.LayoutWidth * float64(opts.Columns))),
			x1: int(math.Round(r.Right() / opts.LayoutWidth * float64(opts.Columns))),
			r0: int(math.Floor(g.Minutes(r.Top) / rowMin)),
			r1: int(math.Ceil(g.Minutes(r.Top+r.Height) / rowMin)),
		}
		if b.x1 <= b.x0 {
			b.x1 = b.x0 + 1
		}
		if b.r1 <= b.r0 {
			b.r1 = b.r0 + 1
		}
		ev := events[i]
		b.lines = []string{ev.DisplayTitle()}
		if ev.Summary != "" {
			b.lines = append(b.lines, ev.Summary)
		}
		b.lines = append(b.lines, TimeRange(ev.Start, ev.End, opts.Format24h))
		b.style = blockStyle(ev.BlockColor())
		blocks = append(blocks, b)
	}

	// Later-starting blocks paint over earlier ones where rounding makes
	// them collide.
	order := make([]int, len(blocks))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return records[order[a]].Top < records[order[b]].Top
	})

	nowRow := -1
	if !opts.Now.IsZero() && sameDay(opts.Now, opts.Day) {
		if y, ok := g.NowY(opts.Now); ok {
			nowRow = int(g.Minutes(y) / rowMin)
		}
	}
	nowStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(NowColor))

	var sb strings.Builder
	owner := make([]int, opts.Columns)
	for row := 0; row < rows; row++ {
		for x := range owner {
			owner[x] = -1
		}
		for _, bi := range order {
			b := blocks[bi]
			if row < b.r0 || row >= b.r1 {
				continue
			}
			for x := b.x0; x < b.x1 && x < opts.Columns; x++ {
				owner[x] = bi
			}
		}

		sb.WriteString(marker(row, opts))
		sb.WriteString(rowLabel(row, opts))

		minute := row * opts.rowMinutes()
		fill := " "
		if row == nowRow {
			fill = "━"
		} else if minute%60 == 0 && row > 0 {
			fill = "─"
		}

		for x := 0; x < opts.Columns; {
			o := owner[x]
			end := x + 1
			for end < opts.Columns && owner[end] == o {
				end++
			}
			n := end - x
			if o < 0 {
				seg := strings.Repeat(fill, n)
				if row == nowRow && opts.Color {
					seg = nowStyle.Render(seg)
				}
				sb.WriteString(seg)
				x = end
				continue
			}
			b := blocks[o]
			text := ""
			if x == b.x0 {
				if li := row - b.r0; li < len(b.lines) {
					text = b.lines[li]
				}
			}
			sb.WriteString(cell(text, n, b.style, opts.Color))
			x = end
		}
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

// cell fits text into n columns. Without color a bar marks the block edge.
func cell(text string, n int, style lipgloss.Style, color bool) string {
	prefix := ""
	if !color {
		prefix = "│"
		n--
	}
	if n <= 0 {
		return prefix
	}
	text = truncate.String(text, uint(n))
	if pad := n - ansi.PrintableRuneWidth(text); pad > 0 {
		text += strings.Repeat(" ", pad)
	}
	if !color {
		return prefix + text
	}
	return style.Render(text)
}

func marker(row int, opts TermOptions) string {
	switch {
	case row == opts.Cursor:
		return ">"
	case opts.SelTop >= 0 && row >= opts.SelTop && row < opts.SelBottom:
		return "┃"
	default:
		return " "
	}
}

func rowLabel(row int, opts TermOptions) string {
	minute := row * opts.rowMinutes()
	if minute%60 != 0 {
		return strings.Repeat(" ", labelWidth)
	}
	h := opts.Grid.Window().StartHour + minute/60
	return fmt.Sprintf("%-*s", labelWidth, grid.HourText(h, opts.Format24h))
}

// blockStyle paints a block in its color with readable text on top.
func blockStyle(hex string) lipgloss.Style {
	c, err := colorful.Hex(hex)
	if err != nil {
		hex = model.DefaultColor
		c, _ = colorful.Hex(hex)
	}
	fg := TextColor
	if l, _, _ := c.Lab(); l < 0.55 {
		fg = "#FFFFFF"
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(hex)).
		Foreground(lipgloss.Color(fg))
}
