// Package tui is an interactive terminal day view built on bubbletea.
package tui

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"dayview/internal/grid"
	"dayview/internal/layout"
	appLog "dayview/internal/log"
	"dayview/internal/model"
	"dayview/internal/render"
	"dayview/internal/selection"
)

// LoadFunc returns the events of one day.
type LoadFunc func(ctx context.Context, day time.Time) ([]model.Event, error)

// Options configure a Model.
type Options struct {
	Params    layout.Params
	Format24h bool
	Color     bool
	Load      LoadFunc

	// Now defaults to time.Now.
	Now func() time.Time
}

type Styles struct {
	Header  lipgloss.Style
	Help    lipgloss.Style
	Message lipgloss.Style
	Error   lipgloss.Style
}

func DefaultStyles() Styles {
	return Styles{
		Header: lipgloss.NewStyle().
			Foreground(lipgloss.Color(render.TextColor)).
			Bold(true),
		Help: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Message: lipgloss.NewStyle().
			Foreground(lipgloss.Color(render.NowColor)),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// Model is the bubbletea model of the day view.
type Model struct {
	opts   Options
	grid   grid.Grid
	styles Styles

	day     time.Time
	now     time.Time
	events  []model.Event
	records []layout.Record
	err     error

	sel      *selection.Selection
	dragFrom int

	cursor int
	offset int
	width  int
	height int

	message string
}

const (
	labelColumns = 7
	chromeRows   = 3
)

// New creates a Model showing the day containing now.
func New(opts Options) *Model {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	now := opts.Now()
	m := &Model{
		opts:   opts,
		grid:   opts.Params.Grid(),
		styles: DefaultStyles(),
		now:    now,
		width:  80,
		height: 24,
	}
	m.setDay(model.Day(now))
	return m
}

// Message types
type tickMsg time.Time

type eventsLoadedMsg struct {
	day    time.Time
	events []model.Event
	err    error
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.loadCmd(), tickCmd())
}

func tickCmd() tea.Cmd {
	return tea.Tick(time.Minute, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) loadCmd() tea.Cmd {
	day := m.day
	load := m.opts.Load
	return func() tea.Msg {
		if load == nil {
			return eventsLoadedMsg{day: day, events: []model.Event{}}
		}
		events, err := load(context.Background(), day)
		return eventsLoadedMsg{day: day, events: events, err: err}
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.keepCursorVisible()
		return m, nil

	case tickMsg:
		m.now = m.opts.Now()
		return m, tickCmd()

	case eventsLoadedMsg:
		if !msg.day.Equal(m.day) {
			// A stale response for a day we already navigated away from.
			return m, nil
		}
		m.applyEvents(msg.events, msg.err)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit

	case "h", "left":
		m.setDay(m.day.AddDate(0, 0, -1))
		return m, m.loadCmd()

	case "l", "right":
		m.setDay(m.day.AddDate(0, 0, 1))
		return m, m.loadCmd()

	case "t":
		m.setDay(model.Day(m.opts.Now()))
		return m, m.loadCmd()

	case "k", "up":
		m.moveCursor(-1)

	case "j", "down":
		m.moveCursor(1)

	case " ", "space":
		m.tapCursor()

	case "enter":
		if err := m.sel.Release(); err != nil {
			m.message = "nothing selected"
		}

	case "esc":
		m.sel.Cancel()
		m.message = ""
	}
	return m, nil
}

func (m *Model) setDay(day time.Time) {
	m.day = day
	m.events = nil
	m.records = nil
	m.err = nil
	m.message = ""
	m.sel = selection.New(m.grid, day, m.onSelect)
}

func (m *Model) applyEvents(events []model.Event, loadErr error) {
	if loadErr != nil {
		appLog.Error("tui: load failed", loadErr, "day", m.day.Format("2006-01-02"))
		m.err = loadErr
	}
	records, err := layout.Compute(events, m.opts.Params)
	if err != nil {
		m.err = err
		m.events, m.records = nil, nil
		return
	}
	m.events, m.records = events, records

	scroll := m.grid.InitialScroll(layout.Tops(records))
	m.offset = int(m.grid.Minutes(scroll)) / render.DefaultRowMinutes
	m.cursor = m.offset
	m.keepCursorVisible()
}

func (m *Model) onSelect(start, end time.Time) {
	m.message = fmt.Sprintf("selected %s - %s", start.Format("15:04"), end.Format("15:04"))
}

func (m *Model) rows() int {
	return m.grid.Window().Minutes() / render.DefaultRowMinutes
}

func (m *Model) visibleRows() int {
	v := m.height - chromeRows
	if v < 1 {
		return 1
	}
	return v
}

func (m *Model) moveCursor(delta int) {
	m.cursor += delta
	if m.cursor < 0 {
		m.cursor = 0
	}
	if last := m.rows() - 1; m.cursor > last {
		m.cursor = last
	}
	m.keepCursorVisible()

	if m.sel.State() == selection.Selecting {
		dy := m.grid.Y((m.cursor - m.dragFrom) * render.DefaultRowMinutes)
		_ = m.sel.Move(dy)
	}
}

// tapCursor taps the hour under the cursor, then keeps the bottom handle
// grabbed so cursor movement extends the range in quarter hours.
func (m *Model) tapCursor() {
	y := m.grid.Y(m.cursor * render.DefaultRowMinutes)
	if m.sel.Tap(y) == selection.Idle {
		m.message = ""
		return
	}
	if err := m.sel.Grab(selection.Bottom); err != nil {
		return
	}
	_, bottom, _ := m.sel.Quarters()
	m.dragFrom = bottom - m.grid.Window().StartHour*4 - 1
	m.cursor = m.dragFrom
	m.keepCursorVisible()
}

func (m *Model) keepCursorVisible() {
	visible := m.visibleRows()
	if m.cursor < m.offset {
		m.offset = m.cursor
	}
	if m.cursor >= m.offset+visible {
		m.offset = m.cursor - visible + 1
	}
	if maxOffset := m.rows() - visible; m.offset > maxOffset {
		m.offset = int(math.Max(0, float64(maxOffset)))
	}
}

func (m *Model) View() string {
	var b strings.Builder
	b.WriteString(m.styles.Header.Render(fmt.Sprintf("‹ %s ›", m.day.Format("Mon 02 Jan 2006"))))
	b.WriteString("\n")

	columns := m.width - labelColumns
	if columns < 10 {
		columns = 10
	}
	selTop, selBottom := -1, -1
	if top, bottom, ok := m.sel.Quarters(); ok {
		base := m.grid.Window().StartHour * 4
		selTop, selBottom = top-base, bottom-base
	}

	body, err := render.Terminal(m.events, m.records, render.TermOptions{
		Grid:        m.grid,
		LayoutWidth: m.opts.Params.Width,
		Columns:     columns,
		Format24h:   m.opts.Format24h,
		Color:       m.opts.Color,
		Day:         m.day,
		Now:         m.now,
		Cursor:      m.cursor,
		SelTop:      selTop,
		SelBottom:   selBottom,
	})
	if err != nil {
		b.WriteString(m.styles.Error.Render(err.Error()))
		b.WriteString("\n")
	} else {
		lines := strings.Split(strings.TrimSuffix(body, "\n"), "\n")
		end := m.offset + m.visibleRows()
		if end > len(lines) {
			end = len(lines)
		}
		b.WriteString(strings.Join(lines[m.offset:end], "\n"))
		b.WriteString("\n")
	}

	switch {
	case m.err != nil:
		b.WriteString(m.styles.Error.Render(m.err.Error()))
	case m.message != "":
		b.WriteString(m.styles.Message.Render(m.message))
	default:
		b.WriteString(m.styles.Help.Render("h/l day  j/k move  space select  enter commit  esc cancel  q quit"))
	}
	return b.String()
}

// Day is the day on screen.
func (m *Model) Day() time.Time {
	return m.day
}

// Run starts the interactive program and blocks until it exits.
func Run(opts Options) error {
	_, err := tea.NewProgram(New(opts), tea.WithAltScreen()).Run()
	return err
}
