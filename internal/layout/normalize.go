package layout

import (
	"errors"
	"fmt"
	"time"

	"dayview/internal/grid"
	"dayview/internal/model"
)

// ErrInvalidEvent is the sentinel wrapped by every InvalidEventError.
var ErrInvalidEvent = errors.New("layout: invalid event")

// InvalidEventError reports an event whose end is not after its start.
type InvalidEventError struct {
	Index int // position in the input list
	Start time.Time
	End   time.Time
}

func (e *InvalidEventError) Error() string {
	return fmt.Sprintf("layout: event %d ends at %s, not after its start %s",
		e.Index, e.End.Format(time.RFC3339), e.Start.Format(time.RFC3339))
}

func (e *InvalidEventError) Unwrap() error {
	return ErrInvalidEvent
}

// NormalizedEvent is an event reduced to what the packer needs.
type NormalizedEvent struct {
	// StartMinutes / EndMinutes are relative to the window start and
	// clamped to [0, window minutes]. They drive vertical placement.
	StartMinutes int
	EndMinutes   int

	// StartKey / EndKey are unclamped seconds since midnight of the start
	// day. They drive ordering and overlap, so events hidden outside the
	// window still never share a rectangle with an overlapping neighbour.
	StartKey int
	EndKey   int

	SourceIndex int
}

// Overlaps reports whether two events share any instant.
func (n NormalizedEvent) Overlaps(o NormalizedEvent) bool {
	return n.StartKey < o.EndKey && o.StartKey < n.EndKey
}

// Normalize converts events into window-relative minutes, preserving input
// order. The first event with End <= Start aborts the whole pass.
func Normalize(events []model.Event, w grid.Window) ([]NormalizedEvent, error) {
	w = w.Normalize()
	out := make([]NormalizedEvent, 0, len(events))
	for i, ev := range events {
		if !ev.End.After(ev.Start) {
			return nil, &InvalidEventError{Index: i, Start: ev.Start, End: ev.End}
		}

		startKey := secondOfDay(ev.Start)
		endKey := secondOfDay(ev.End) + daysBetween(ev.Start, ev.End)*secondsPerDay
		if endKey <= startKey {
			// Sub-second events, and ends inside an hour repeated by a DST
			// fall-back, still need a non-empty interval.
			endKey = startKey + 1
		}

		out = append(out, NormalizedEvent{
			StartMinutes: clampMinutes(startKey/60, w),
			EndMinutes:   clampMinutes(endKey/60, w),
			StartKey:     startKey,
			EndKey:       endKey,
			SourceIndex:  i,
		})
	}
	return out, nil
}

const secondsPerDay = 24 * 60 * 60

// secondOfDay reads the wall clock; no timezone conversion is applied.
func secondOfDay(t time.Time) int {
	return t.Hour()*3600 + t.Minute()*60 + t.Second()
}

// daysBetween counts calendar days from the date of a to the date of b, as
// read on each wall clock. DST shifts do not change the count.
func daysBetween(a, b time.Time) int {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	from := time.Date(ay, am, ad, 0, 0, 0, 0, time.UTC)
	to := time.Date(by, bm, bd, 0, 0, 0, 0, time.UTC)
	return int(to.Sub(from) / (secondsPerDay * time.Second))
}

func clampMinutes(minuteOfDay int, w grid.Window) int {
	m := minuteOfDay - w.StartHour*60
	if m < 0 {
		return 0
	}
	if m > w.Minutes() {
		return w.Minutes()
	}
	return m
}
