// Package render draws a computed day layout: as SVG for browsers and the
// capture pipeline, or as a character grid for terminals.
package render

import (
	"math"
	"time"
)

// TextLineHeight is the pixel height budgeted per line of block text.
const TextLineHeight = 17

// NowColor marks the current time.
const NowColor = "#DD6390"

// TextColor is used for block text on light backgrounds.
const TextColor = "#615B73"

// TextLines is how many text lines fit in a block of the given height:
// 1 shows the title, 2+ adds the summary, 3+ adds the time range.
func TextLines(height float64) int {
	return int(math.Floor(height / TextLineHeight))
}

// TimeRange formats "09:00 - 10:30" or "09:00 AM - 10:30 AM".
func TimeRange(start, end time.Time, format24h bool) string {
	layout := "15:04"
	if !format24h {
		layout = "03:04 PM"
	}
	return start.Format(layout) + " - " + end.Format(layout)
}
