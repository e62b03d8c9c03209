package layout

import (
	"sort"

	"dayview/internal/grid"
)

// Record is the screen rectangle computed for one event.
type Record struct {
	Top    float64 `json:"top"`
	Height float64 `json:"height"`
	Left   float64 `json:"left"`
	Width  float64 `json:"width"`

	Column       int `json:"column"`
	TotalColumns int `json:"total_columns"`
	// Cluster numbers overlap groups in start order, from 0.
	Cluster     int `json:"cluster"`
	SourceIndex int `json:"source_index"`
}

// Right is the exclusive right edge of the rectangle.
func (r Record) Right() float64 {
	return r.Left + r.Width
}

// Pack places normalized events on g. The result has one Record per input
// element, in input order. Pack never fails on normalized input.
func Pack(events []NormalizedEvent, g grid.Grid, width, minHeight float64) []Record {
	out := make([]Record, len(events))
	if len(events) == 0 {
		return out
	}

	// Sweep order: start ascending, ties by source index.
	order := make([]int, len(events))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ea, eb := events[order[a]], events[order[b]]
		if ea.StartKey != eb.StartKey {
			return ea.StartKey < eb.StartKey
		}
		return ea.SourceIndex < eb.SourceIndex
	})

	p := packer{events: events, out: out, grid: g, width: width, minHeight: minHeight}

	var (
		cluster   []int
		watermark int
		clusterID int
	)
	for _, pos := range order {
		ev := events[pos]
		if len(cluster) > 0 && ev.StartKey >= watermark {
			p.place(cluster, clusterID)
			clusterID++
			cluster = cluster[:0]
		}
		if len(cluster) == 0 || ev.EndKey > watermark {
			watermark = ev.EndKey
		}
		cluster = append(cluster, pos)
	}
	p.place(cluster, clusterID)

	return out
}

type packer struct {
	events    []NormalizedEvent
	out       []Record
	grid      grid.Grid
	width     float64
	minHeight float64
}

// place assigns columns and geometry to one cluster. members are positions
// into p.events, already in sweep order.
func (p *packer) place(members []int, clusterID int) {
	var (
		columns [][]int // positions per column
		lastEnd []int   // end key of the last event placed in each column
	)
	column := make(map[int]int, len(members))

	for _, pos := range members {
		ev := p.events[pos]
		c := -1
		for i, end := range lastEnd {
			if end <= ev.StartKey {
				c = i
				break
			}
		}
		if c < 0 {
			c = len(columns)
			columns = append(columns, nil)
			lastEnd = append(lastEnd, 0)
		}
		columns[c] = append(columns[c], pos)
		lastEnd[c] = ev.EndKey
		column[pos] = c
	}

	total := len(columns)
	for _, pos := range members {
		ev := p.events[pos]
		c := column[pos]

		span := 1
		for k := c + 1; k < total && !p.anyOverlap(columns[k], ev); k++ {
			span++
		}

		top := p.grid.Y(ev.StartMinutes)
		height := p.grid.Y(ev.EndMinutes) - top
		if height < p.minHeight {
			height = p.minHeight
		}

		p.out[pos] = Record{
			Top:          top,
			Height:       height,
			Left:         float64(c) / float64(total) * p.width,
			Width:        float64(span) / float64(total) * p.width,
			Column:       c,
			TotalColumns: total,
			Cluster:      clusterID,
			SourceIndex:  ev.SourceIndex,
		}
	}
}

func (p *packer) anyOverlap(column []int, ev NormalizedEvent) bool {
	for _, pos := range column {
		if p.events[pos].Overlaps(ev) {
			return true
		}
	}
	return false
}
