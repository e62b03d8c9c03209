package source

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	appLog "dayview/internal/log"
	"dayview/internal/model"
)

// Accepted wall-clock layouts for YAML and CSV files. Zoneless values are
// read in time.Local.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

// ErrUnsupportedFile is returned for file extensions without a reader.
var ErrUnsupportedFile = errors.New("source: unsupported file type")

// fileEvent is the on-disk shape of a YAML event.
type fileEvent struct {
	Title    string `yaml:"title"`
	Summary  string `yaml:"summary"`
	Location string `yaml:"location"`
	Color    string `yaml:"color"`
	Start    string `yaml:"start"`
	End      string `yaml:"end"`
}

type fileEvents struct {
	Events []fileEvent `yaml:"events"`
}

// LoadFile reads events from a local .ics, .yaml/.yml or .csv file.
func LoadFile(src Source) ([]model.Event, error) {
	data, err := os.ReadFile(src.Path)
	if err != nil {
		return nil, fmt.Errorf("source: read %s: %w", src.Path, err)
	}

	switch strings.ToLower(filepath.Ext(src.Path)) {
	case ".ics", ".ical":
		return ParseICS(src, data)
	case ".yaml", ".yml":
		return ParseYAML(src, data)
	case ".csv":
		return ParseCSV(src, strings.NewReader(string(data)))
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFile, src.Path)
	}
}

// ParseYAML reads an `events:` list. Entries with unreadable times are
// logged and skipped.
func ParseYAML(src Source, data []byte) ([]model.Event, error) {
	var doc fileEvents
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("source: parse YAML %s: %w", src.ID, err)
	}

	events := make([]model.Event, 0, len(doc.Events))
	for i, fe := range doc.Events {
		ev, err := fe.toEvent(src)
		if err != nil {
			appLog.Error("yaml event skipped", err, "id", src.ID, "index", i)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func (fe fileEvent) toEvent(src Source) (model.Event, error) {
	start, err := parseTime(fe.Start)
	if err != nil {
		return model.Event{}, fmt.Errorf("start: %w", err)
	}
	end, err := parseTime(fe.End)
	if err != nil {
		return model.Event{}, fmt.Errorf("end: %w", err)
	}
	color := fe.Color
	if src.Color != "" {
		color = src.Color
	}
	return model.Event{
		SourceID: src.ID,
		Title:    fe.Title,
		Summary:  fe.Summary,
		Location: fe.Location,
		Color:    color,
		Start:    start,
		End:      end,
	}, nil
}

// ParseCSV reads a headed CSV with (case-insensitive) columns start, end,
// title and optional summary, location, color. Rows with unreadable times
// are logged and skipped.
func ParseCSV(src Source, r io.Reader) ([]model.Event, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("source: read CSV header %s: %w", src.ID, err)
	}
	columns := make(map[string]int, len(header))
	for i, name := range header {
		columns[strings.ToLower(strings.TrimSpace(name))] = i
	}
	for _, required := range []string{"start", "end", "title"} {
		if _, ok := columns[required]; !ok {
			return nil, fmt.Errorf("source: CSV %s: missing %q column", src.ID, required)
		}
	}

	field := func(record []string, name string) string {
		i, ok := columns[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	events := make([]model.Event, 0)
	for line := 2; ; line++ {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("source: CSV %s line %d: %w", src.ID, line, err)
		}
		fe := fileEvent{
			Title:    field(record, "title"),
			Summary:  field(record, "summary"),
			Location: field(record, "location"),
			Color:    field(record, "color"),
			Start:    field(record, "start"),
			End:      field(record, "end"),
		}
		ev, err := fe.toEvent(src)
		if err != nil {
			appLog.Error("csv row skipped", err, "id", src.ID, "line", line)
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

func parseTime(v string) (time.Time, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return time.Time{}, errors.New("empty time value")
	}
	for _, layout := range timeLayouts {
		if t, err := time.ParseInLocation(layout, v, time.Local); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized time %q", v)
}
