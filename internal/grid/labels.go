package grid

import "fmt"

// Label is an hour caption drawn beside the grid.
type Label struct {
	Hour int
	Y    float64
	Text string
}

// Line is a horizontal rule; Half marks the dashed half-hour rules.
type Line struct {
	Y    float64
	Half bool
}

// Labels returns one caption per hour boundary, StartHour..EndHour. The
// first boundary is left blank so it does not collide with the top edge.
func (g Grid) Labels(format24h bool) []Label {
	w := g.window
	out := make([]Label, 0, w.Hours()+1)
	for h := w.StartHour; h <= w.EndHour; h++ {
		text := ""
		if h != w.StartHour {
			text = HourText(h, format24h)
		}
		out = append(out, Label{
			Hour: h,
			Y:    g.Y((h - w.StartHour) * 60),
			Text: text,
		})
	}
	return out
}

// HourText formats an hour boundary. Hour 24 reads "23:59" / "12 AM".
func HourText(h int, format24h bool) string {
	if format24h {
		if h == 24 {
			return "23:59"
		}
		return fmt.Sprintf("%02d:00", h)
	}
	switch {
	case h == 0 || h == 24:
		return "12 AM"
	case h < 12:
		return fmt.Sprintf("%02d AM", h)
	case h == 12:
		return "12 PM"
	default:
		return fmt.Sprintf("%d PM", h-12)
	}
}

// QuarterText formats a quarter-hour slot index (4 per hour, counted from
// midnight) as HH:MM.
func QuarterText(q int) string {
	return fmt.Sprintf("%02d:%02d", q/4, (q%4)*15)
}

// Lines returns the hour rules (except the top edge) and the half-hour
// rules, top to bottom.
func (g Grid) Lines() []Line {
	hours := g.window.Hours()
	out := make([]Line, 0, 2*hours)
	for i := 0; i <= hours; i++ {
		if i > 0 {
			out = append(out, Line{Y: g.Y(i * 60)})
		}
		if i < hours {
			out = append(out, Line{Y: g.Y(i*60 + 30), Half: true})
		}
	}
	return out
}
