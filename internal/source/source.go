// Package source loads the events of a day from ICS feeds and local files.
package source

import (
	"context"
	"errors"
	"sort"
	"time"

	"dayview/internal/config"
	appLog "dayview/internal/log"
	"dayview/internal/model"
)

// Source is a single event source: a remote ICS URL or a local file.
type Source struct {
	ID    string
	URL   string
	Path  string
	Color string
}

// FromConfig converts configured sources, dropping entries with neither a
// URL nor a path.
func FromConfig(cfgs []config.SourceConfig) []Source {
	out := make([]Source, 0, len(cfgs))
	for _, c := range cfgs {
		if c.URL == "" && c.Path == "" {
			appLog.Warn("source has neither url nor path; ignored", "id", c.ID)
			continue
		}
		out = append(out, Source{ID: c.ID, URL: c.URL, Path: c.Path, Color: c.Color})
	}
	return out
}

// Loader reads events from any kind of Source.
type Loader struct {
	fetcher *Fetcher
}

// NewLoader creates a Loader whose ICS HTTP cache lives under cacheDir.
func NewLoader(cacheDir string) *Loader {
	return &Loader{fetcher: NewFetcher(cacheDir)}
}

// Load reads one source.
func (l *Loader) Load(ctx context.Context, src Source) ([]model.Event, error) {
	if src.URL == "" {
		return LoadFile(src)
	}
	res, err := l.fetcher.FetchOne(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseICS(src, res.Body)
}

// LoadAll reads every source, concatenating events in source order. Failed
// sources are logged and reported in the error slice; the others still
// contribute.
func (l *Loader) LoadAll(ctx context.Context, srcs []Source) ([]model.Event, []error) {
	events := make([]model.Event, 0)
	errs := make([]error, 0)
	for _, src := range srcs {
		evs, err := l.Load(ctx, src)
		if err != nil {
			appLog.Error("source load failed", err, "id", src.ID)
			errs = append(errs, err)
			continue
		}
		events = append(events, evs...)
	}
	return events, errs
}

// OnDay keeps the events that start on the calendar date of day, ordered
// by start time. Ties keep their load order.
func OnDay(events []model.Event, day time.Time) []model.Event {
	y, m, d := day.Date()
	out := make([]model.Event, 0)
	for _, ev := range events {
		ey, em, ed := ev.Start.Date()
		if ey == y && em == m && ed == d {
			out = append(out, ev)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// JoinErrors combines per-source errors; each stays reachable through
// errors.Is and errors.As.
func JoinErrors(errs []error) error {
	return errors.Join(errs...)
}
