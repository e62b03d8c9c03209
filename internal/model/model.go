package model

import "time"

// DefaultColor is the block background used when an event carries no color.
const DefaultColor = "#FCF3F7"

// Event is a single timed entry placed on the day view.
//
// Start and End are taken as wall-clock instants; no timezone conversion is
// applied anywhere downstream. Layout requires Start < End.
type Event struct {
	SourceID string `yaml:"source_id,omitempty" json:"source_id,omitempty"` // source ID (config sources[].id)
	UID      string `yaml:"uid,omitempty" json:"uid,omitempty"`             // iCalendar UID, if any

	Title    string `yaml:"title" json:"title"`
	Summary  string `yaml:"summary,omitempty" json:"summary,omitempty"`
	Location string `yaml:"location,omitempty" json:"location,omitempty"`

	// Color is a CSS hex color ("#RRGGBB"). Empty means DefaultColor.
	Color string `yaml:"color,omitempty" json:"color,omitempty"`

	Start time.Time `yaml:"start" json:"start"`
	End   time.Time `yaml:"end" json:"end"`
}

// BlockColor returns the event color or DefaultColor.
func (e Event) BlockColor() string {
	if e.Color == "" {
		return DefaultColor
	}
	return e.Color
}

// DisplayTitle returns the title shown on the block.
func (e Event) DisplayTitle() string {
	if e.Title == "" {
		return "Event"
	}
	return e.Title
}

// Day returns local midnight of the day the event starts on.
func Day(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}
