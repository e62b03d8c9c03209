// Package grid maps time-of-day onto the vertical pixel extent of the day
// view and back.
//
// A Grid is a value type with no hidden state; every method is a pure
// function of the window, the scale and its arguments.
package grid

import (
	"fmt"
	"math"
	"time"
)

// DefaultHourHeight is the vertical scale used when no total height is given.
const DefaultHourHeight = 100.0

// Window is the visible range of hours, [StartHour, EndHour).
type Window struct {
	StartHour int `yaml:"start_hour" json:"start_hour"`
	EndHour   int `yaml:"end_hour" json:"end_hour"`
}

// FullDay is the 0–24 window.
var FullDay = Window{StartHour: 0, EndHour: 24}

// Normalize clamps the window into 0 <= start < end <= 24.
func (w Window) Normalize() Window {
	if w.StartHour < 0 {
		w.StartHour = 0
	}
	if w.StartHour > 23 {
		w.StartHour = 23
	}
	if w.EndHour > 24 {
		w.EndHour = 24
	}
	if w.EndHour <= w.StartHour {
		w.EndHour = w.StartHour + 1
	}
	return w
}

// Hours is the number of visible hours.
func (w Window) Hours() int {
	return w.EndHour - w.StartHour
}

// Minutes is the number of visible minutes.
func (w Window) Minutes() int {
	return w.Hours() * 60
}

func (w Window) String() string {
	return fmt.Sprintf("%02d-%02d", w.StartHour, w.EndHour)
}

// Grid is a linear time → pixel scale over a Window.
type Grid struct {
	window        Window
	pixelsPerHour float64
}

// New builds a Grid spreading w over totalHeight pixels. A non-positive
// totalHeight uses DefaultHourHeight per hour.
func New(w Window, totalHeight float64) Grid {
	w = w.Normalize()
	pph := DefaultHourHeight
	if totalHeight > 0 {
		pph = totalHeight / float64(w.Hours())
	}
	return Grid{window: w, pixelsPerHour: pph}
}

// WithHourHeight builds a Grid with an explicit per-hour scale.
func WithHourHeight(w Window, hourHeight float64) Grid {
	w = w.Normalize()
	return New(w, hourHeight*float64(w.Hours()))
}

func (g Grid) Window() Window {
	return g.window
}

func (g Grid) PixelsPerHour() float64 {
	return g.pixelsPerHour
}

// Height is the full pixel height of the grid.
func (g Grid) Height() float64 {
	return g.pixelsPerHour * float64(g.window.Hours())
}

// Y maps minutes since the window start to a pixel offset.
func (g Grid) Y(minutes int) float64 {
	return float64(minutes) * g.pixelsPerHour / 60
}

// Minutes is the inverse of Y: pixel offset → minutes since the window start.
func (g Grid) Minutes(y float64) float64 {
	return y * 60 / g.pixelsPerHour
}

// Clock converts a pixel offset into a wall-clock time on day, truncated to
// the minute and clamped to the window.
func (g Grid) Clock(day time.Time, y float64) time.Time {
	m := int(math.Floor(g.Minutes(y)))
	if m < 0 {
		m = 0
	}
	if m > g.window.Minutes() {
		m = g.window.Minutes()
	}
	midnight := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	return midnight.Add(time.Duration(g.window.StartHour*60+m) * time.Minute)
}

// HourAt returns the index (0 = first visible hour) of the hour slot
// containing y. Out-of-range offsets snap to the first or last slot.
func (g Grid) HourAt(y float64) int {
	i := int(math.Floor(y / g.pixelsPerHour))
	if i < 0 {
		return 0
	}
	if last := g.window.Hours() - 1; i > last {
		return last
	}
	return i
}

// NowY returns the offset of the "now" indicator. ok is false when now is
// outside the visible window.
func (g Grid) NowY(now time.Time) (y float64, ok bool) {
	m := now.Hour()*60 + now.Minute() - g.window.StartHour*60
	if m < 0 || m > g.window.Minutes() {
		return 0, false
	}
	return g.Y(m), true
}

// InitialScroll is the scroll offset that puts the earliest block one hour
// below the top of the viewport.
func (g Grid) InitialScroll(tops []float64) float64 {
	if len(tops) == 0 {
		return 0
	}
	top := tops[0]
	for _, t := range tops[1:] {
		top = math.Min(top, t)
	}
	if pos := top - g.pixelsPerHour; pos > 0 {
		return pos
	}
	return 0
}
