package render

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"time"

	"dayview/internal/grid"
	"dayview/internal/layout"
	"dayview/internal/model"
)

// SVGOptions control SVG output.
type SVGOptions struct {
	Grid grid.Grid

	// Width is the full canvas width; LeftMargin is reserved for the hour
	// labels and blocks are shifted right by it.
	Width      float64
	LeftMargin float64

	Format24h bool

	// Day is the date being drawn; Now is drawn as an indicator line when
	// it falls on Day inside the window. A zero Now disables it.
	Day time.Time
	Now time.Time
}

// SVG writes the day grid with one rectangle per record. events and
// records are zipped by index.
func SVG(w io.Writer, events []model.Event, records []layout.Record, opts SVGOptions) error {
	if len(events) != len(records) {
		return fmt.Errorf("render: %d events but %d records", len(events), len(records))
	}

	g := opts.Grid
	height := g.Height() + 10
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, `<?xml version="1.0" encoding="UTF-8"?>
<svg width="%s" height="%s" viewBox="0 0 %s %s" xmlns="http://www.w3.org/2000/svg" data-ready="true">
`, num(opts.Width), num(height), num(opts.Width), num(height))
	fmt.Fprintf(bw, `<rect x="0" y="0" width="%s" height="%s" fill="#ffffff"/>
`, num(opts.Width), num(height))

	// Hour and half-hour rules.
	for _, l := range g.Lines() {
		dash := ""
		if l.Half {
			dash = ` stroke-dasharray="4 4"`
		}
		fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="#E6E8F0" stroke-width="1"%s/>
`, num(opts.LeftMargin), num(l.Y), num(opts.Width), num(l.Y), dash)
	}

	// Hour captions, right-aligned against the margin.
	for _, l := range g.Labels(opts.Format24h) {
		if l.Text == "" {
			continue
		}
		fmt.Fprintf(bw, `<text x="%s" y="%s" text-anchor="end" font-family="sans-serif" font-size="10" fill="#AAAAAA">%s</text>
`, num(opts.LeftMargin-8), num(l.Y+4), escapeXML(l.Text))
	}

	fmt.Fprintf(bw, `<g transform="translate(%s,0)">
`, num(opts.LeftMargin))
	for i, r := range records {
		writeBlock(bw, events[i], r, opts.Format24h)
	}
	bw.WriteString("</g>\n")

	if !opts.Now.IsZero() && sameDay(opts.Now, opts.Day) {
		if y, ok := g.NowY(opts.Now); ok {
			fmt.Fprintf(bw, `<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="%s" stroke-width="1"/>
<circle cx="%s" cy="%s" r="4" fill="%s"/>
`, num(opts.LeftMargin), num(y), num(opts.Width), num(y), NowColor, num(opts.LeftMargin), num(y), NowColor)
		}
	}

	bw.WriteString("</svg>\n")
	return bw.Flush()
}

func writeBlock(w *bufio.Writer, ev model.Event, r layout.Record, format24h bool) {
	fmt.Fprintf(w, `<g class="event" data-index="%d">
<rect x="%s" y="%s" width="%s" height="%s" rx="3" fill="%s" stroke="#ffffff" stroke-width="1"/>
`, r.SourceIndex, num(r.Left), num(r.Top), num(r.Width), num(r.Height), escapeXML(ev.BlockColor()))

	x := num(r.Left + 4)
	lines := TextLines(r.Height)
	y := r.Top + 15
	fmt.Fprintf(w, `<text x="%s" y="%s" font-family="sans-serif" font-size="12" font-weight="600" fill="%s">%s</text>
`, x, num(y), TextColor, escapeXML(ev.DisplayTitle()))
	if lines > 1 && ev.Summary != "" {
		y += TextLineHeight
		fmt.Fprintf(w, `<text x="%s" y="%s" font-family="sans-serif" font-size="12" fill="%s">%s</text>
`, x, num(y), TextColor, escapeXML(ev.Summary))
	}
	if lines > 2 {
		y += TextLineHeight
		fmt.Fprintf(w, `<text x="%s" y="%s" font-family="sans-serif" font-size="10" font-weight="bold" fill="%s">%s</text>
`, x, num(y), TextColor, escapeXML(TimeRange(ev.Start, ev.End, format24h)))
	}
	w.WriteString("</g>\n")
}

// num prints a coordinate with at most two decimals and no trailing zeros.
func num(v float64) string {
	s := fmt.Sprintf("%.2f", v)
	s = strings.TrimRight(s, "0")
	s = strings.TrimSuffix(s, ".")
	if s == "-0" {
		return "0"
	}
	return s
}

func escapeXML(s string) string {
	r := strings.NewReplacer(
		"&", "&amp;",
		"<", "&lt;",
		">", "&gt;",
		`"`, "&quot;",
		"'", "&apos;",
	)
	return r.Replace(s)
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
