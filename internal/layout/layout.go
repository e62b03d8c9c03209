// Package layout turns a day's events into non-overlapping rectangles.
//
// Events are grouped into overlap clusters, assigned the lowest free column
// within their cluster, and widened to the right over columns holding no
// overlapping event. Vertical placement comes from a grid.Grid. The package
// holds no state between calls; Compute is safe for concurrent use.
package layout

import (
	"dayview/internal/grid"
	"dayview/internal/model"
)

// DefaultMinEventHeight keeps very short events tappable.
const DefaultMinEventHeight = 25.0

// Params are the explicit view parameters of one layout pass.
type Params struct {
	// StartHour and EndHour bound the visible window. Leaving both zero
	// selects the whole day.
	StartHour int
	EndHour   int

	// Width is the horizontal space available to event blocks, i.e. the
	// viewport width minus the hour-label margin.
	Width float64

	// MinEventHeight floors block height. Zero disables the floor.
	MinEventHeight float64

	// HourHeight is pixels per hour; zero means grid.DefaultHourHeight.
	HourHeight float64
}

// Window returns the normalized visible window.
func (p Params) Window() grid.Window {
	if p.StartHour == 0 && p.EndHour == 0 {
		return grid.FullDay
	}
	return grid.Window{StartHour: p.StartHour, EndHour: p.EndHour}.Normalize()
}

// Grid returns the coordinate mapper for these parameters.
func (p Params) Grid() grid.Grid {
	if p.HourHeight <= 0 {
		return grid.New(p.Window(), 0)
	}
	return grid.WithHourHeight(p.Window(), p.HourHeight)
}

// Compute lays out events and returns one Record per event in input order.
// A malformed event fails the whole pass with an *InvalidEventError.
func Compute(events []model.Event, p Params) ([]Record, error) {
	normalized, err := Normalize(events, p.Window())
	if err != nil {
		return nil, err
	}
	minHeight := p.MinEventHeight
	if minHeight < 0 {
		minHeight = 0
	}
	return Pack(normalized, p.Grid(), p.Width, minHeight), nil
}

// Tops collects the Top of every record.
func Tops(records []Record) []float64 {
	out := make([]float64, len(records))
	for i, r := range records {
		out[i] = r.Top
	}
	return out
}
