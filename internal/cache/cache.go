// Package cache memoizes layout results on disk, keyed by day, the event
// set and the view parameters.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/peterbourgon/diskv/v3"

	"dayview/internal/layout"
	appLog "dayview/internal/log"
	"dayview/internal/model"
)

const dayLayout = "20060102"

// Cache stores []layout.Record as JSON under <base>/<yyyymmdd>/<hash>.
type Cache struct {
	d *diskv.Diskv
}

// New opens (or creates on first write) a cache rooted at basePath.
func New(basePath string) *Cache {
	return &Cache{d: diskv.New(diskv.Options{
		BasePath:          basePath,
		AdvancedTransform: keyToPathTransform,
		InverseTransform:  pathToKeyTransform,
		CacheSizeMax:      1024 * 1024, // 1MB
	})}
}

// Key identifies one layout pass. Any change to an event's identity or
// times, or to the parameters, yields a different key.
func Key(day time.Time, events []model.Event, p layout.Params) string {
	h := sha256.New()
	fmt.Fprintf(h, "%d|%d|%g|%g|%g\n", p.StartHour, p.EndHour, p.Width, p.MinEventHeight, p.HourHeight)
	for _, ev := range events {
		fmt.Fprintf(h, "%q|%q|%q|%s|%s\n",
			ev.UID, ev.Title, ev.Color,
			ev.Start.Format(time.RFC3339Nano), ev.End.Format(time.RFC3339Nano))
	}
	return fmt.Sprintf("%s-%x", day.Format(dayLayout), h.Sum(nil)[:16])
}

// Layout returns the cached records for this pass, computing and storing
// them on a miss. hit reports whether the disk copy was used. Layout
// errors are returned as-is and never cached.
func (c *Cache) Layout(day time.Time, events []model.Event, p layout.Params) (records []layout.Record, hit bool, err error) {
	key := Key(day, events, p)

	if val, err := c.d.Read(key); err == nil {
		if err := json.Unmarshal(val, &records); err == nil && len(records) == len(events) {
			return records, true, nil
		}
		appLog.Warn("discarding corrupt layout cache entry", "key", key)
		_ = c.d.Erase(key)
	}

	records, err = layout.Compute(events, p)
	if err != nil {
		return nil, false, err
	}
	val, err := json.Marshal(records)
	if err != nil {
		return nil, false, fmt.Errorf("cache: encode layout: %w", err)
	}
	if err := c.d.Write(key, val); err != nil {
		// The result is still good; only memoization failed.
		appLog.Error("layout cache write failed", err, "key", key)
	}
	return records, false, nil
}

// Prune erases entries for days before the given day and returns how many
// were removed.
func (c *Cache) Prune(ctx context.Context, before time.Time) int {
	cutoff := before.Format(dayLayout)
	stale := make([]string, 0)
	for key := range c.d.Keys(ctx.Done()) {
		pk := keyToPathTransform(key)
		if len(pk.Path) > 0 && pk.Path[0] < cutoff {
			stale = append(stale, key)
		}
	}
	removed := 0
	for _, key := range stale {
		if err := c.d.Erase(key); err != nil {
			appLog.Error("layout cache prune failed", err, "key", key)
			continue
		}
		removed++
	}
	return removed
}

func keyToPathTransform(s string) *diskv.PathKey {
	parts := strings.Split(s, "-")
	return &diskv.PathKey{
		Path:     parts[:len(parts)-1],
		FileName: parts[len(parts)-1],
	}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}
