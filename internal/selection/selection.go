// Package selection tracks a time range picked on the blank space of the
// day grid: a tap selects an hour, the top and bottom handles are dragged in
// quarter-hour steps, and the range is reported once the pointer is released.
package selection

import (
	"errors"
	"math"
	"time"

	"dayview/internal/grid"
)

// State of a Selection.
type State int

const (
	Idle State = iota
	Selecting
	Committed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Selecting:
		return "selecting"
	case Committed:
		return "committed"
	default:
		return "unknown"
	}
}

// Edge names a drag handle.
type Edge int

const (
	Top Edge = iota
	Bottom
)

// QuarterMinutes is the snapping step of a selection.
const QuarterMinutes = 15

// ErrNotSelecting is returned by drag operations when nothing is selected.
var ErrNotSelecting = errors.New("selection: no hour selected")

// Selection is a small state machine: idle → selecting → committed. It is
// not safe for concurrent use; it is driven by one input loop.
type Selection struct {
	grid     grid.Grid
	day      time.Time
	onSelect func(start, end time.Time)

	state State
	slot  int // tapped hour slot, -1 when idle

	// top / bottom are quarter indexes relative to the window start.
	top, bottom int

	dragging bool
	edge     Edge
	anchor   int // value of the dragged edge when the drag began
}

// New creates an idle selection on day. onSelect may be nil.
func New(g grid.Grid, day time.Time, onSelect func(start, end time.Time)) *Selection {
	return &Selection{grid: g, day: day, onSelect: onSelect, slot: -1}
}

func (s *Selection) State() State {
	return s.state
}

// Slot returns the selected hour slot, or -1.
func (s *Selection) Slot() int {
	return s.slot
}

// Tap handles a tap on blank grid space at offset y. Tapping the selected
// hour again clears the selection; any other hour starts a new one.
func (s *Selection) Tap(y float64) State {
	idx := s.grid.HourAt(y)
	if s.state != Idle && idx == s.slot {
		s.Cancel()
		return s.state
	}
	s.slot = idx
	s.top = 4 * idx
	s.bottom = 4 * (idx + 1)
	s.dragging = false
	s.state = Selecting
	return s.state
}

// Cancel returns to Idle.
func (s *Selection) Cancel() {
	s.state = Idle
	s.slot = -1
	s.top, s.bottom = 0, 0
	s.dragging = false
}

// Grab starts dragging one handle.
func (s *Selection) Grab(e Edge) error {
	if s.state == Idle {
		return ErrNotSelecting
	}
	s.state = Selecting
	s.dragging = true
	s.edge = e
	if e == Top {
		s.anchor = s.top
	} else {
		s.anchor = s.bottom
	}
	return nil
}

// Move applies the cumulative pointer offset dy (pixels since Grab). The
// dragged edge snaps to quarter hours and never crosses the other edge or
// leaves the window.
func (s *Selection) Move(dy float64) error {
	if !s.dragging {
		return ErrNotSelecting
	}
	steps := int(math.Round(s.grid.Minutes(dy) / QuarterMinutes))
	q := s.anchor + steps
	maxQ := s.grid.Window().Minutes() / QuarterMinutes

	if s.edge == Top {
		if q < 0 {
			q = 0
		}
		if q > s.bottom-1 {
			q = s.bottom - 1
		}
		s.top = q
		return nil
	}
	if q > maxQ {
		q = maxQ
	}
	if q < s.top+1 {
		q = s.top + 1
	}
	s.bottom = q
	return nil
}

// Release ends a drag, commits the range and reports it to the callback.
func (s *Selection) Release() error {
	if s.state == Idle {
		return ErrNotSelecting
	}
	s.dragging = false
	s.state = Committed
	if s.onSelect != nil {
		start, end, _ := s.Range()
		s.onSelect(start, end)
	}
	return nil
}

// Range returns the selected wall-clock range on the selection's day.
func (s *Selection) Range() (start, end time.Time, ok bool) {
	if s.state == Idle {
		return time.Time{}, time.Time{}, false
	}
	return s.clock(s.top), s.clock(s.bottom), true
}

// Quarters returns the selection edges as quarter indexes counted from
// midnight, matching grid.QuarterText.
func (s *Selection) Quarters() (top, bottom int, ok bool) {
	if s.state == Idle {
		return -1, -1, false
	}
	base := s.grid.Window().StartHour * 4
	return base + s.top, base + s.bottom, true
}

// Bounds returns the pixel extent of the selection box.
func (s *Selection) Bounds() (y, height float64) {
	y = s.grid.Y(s.top * QuarterMinutes)
	return y, s.grid.Y(s.bottom*QuarterMinutes) - y
}

func (s *Selection) clock(q int) time.Time {
	return s.grid.Clock(s.day, s.grid.Y(q*QuarterMinutes))
}
