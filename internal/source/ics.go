package source

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	appLog "dayview/internal/log"
	"dayview/internal/model"
)

// ParseICS parses a single ICS payload into timed events.
//
//   - Times keep the location the library resolves from TZID/UTC markers;
//     no conversion to a display zone is made.
//   - All-day events are skipped: they have no slot on the time grid.
//   - Recurring events contribute their base instance only.
//   - A malformed VEVENT is logged and skipped; the rest still parse.
func ParseICS(src Source, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("source: empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID)
		return nil, fmt.Errorf("source: parse ICS %s: %w", src.ID, err)
	}

	events := make([]model.Event, 0)
	skipped := 0
	for _, comp := range cal.Events() {
		ev, ok, perr := parseVEvent(src, comp)
		if perr != nil {
			appLog.Error("ics vevent parse failed", perr, "id", src.ID)
			skipped++
			continue
		}
		if !ok {
			skipped++
			continue
		}
		events = append(events, ev)
	}

	appLog.Debug("ics parse completed", "id", src.ID, "event_count", len(events), "skipped", skipped)
	return events, nil
}

// parseVEvent converts one VEVENT. ok is false for events that are valid
// but have no place on a day grid.
func parseVEvent(src Source, ve *ical.VEvent) (model.Event, bool, error) {
	out := model.Event{SourceID: src.ID, Color: src.Color}

	if p := ve.GetProperty(ical.ComponentPropertyUniqueId); p != nil {
		out.UID = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Summary = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil {
		out.Location = p.Value
	}
	if out.Color == "" {
		if p := ve.GetProperty("COLOR"); p != nil {
			out.Color = normalizeColor(p.Value)
		}
	}

	dtStart := ve.GetProperty(ical.ComponentPropertyDtStart)
	if dtStart == nil {
		return out, false, fmt.Errorf("missing DTSTART (uid %q)", out.UID)
	}
	if isAllDay(dtStart) {
		appLog.Debug("ics skipping all-day event", "id", src.ID, "uid", out.UID)
		return out, false, nil
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, false, fmt.Errorf("DTSTART (uid %q): %w", out.UID, err)
	}
	end, err := ve.GetEndAt()
	if errors.Is(err, ical.ErrorPropertyNotFound) {
		if p := ve.GetProperty(ical.ComponentPropertyDuration); p != nil {
			end, err = addDuration(start, p.Value)
		}
	}
	if err != nil {
		return out, false, fmt.Errorf("DTEND (uid %q): %w", out.UID, err)
	}
	out.Start = start
	out.End = end

	if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil {
		appLog.Debug("ics recurring event; using base instance only", "id", src.ID, "uid", out.UID)
	}

	return out, true, nil
}

// addDuration applies an RFC 5545 DURATION value such as "PT1H30M",
// "P1DT2H" or "-PT15M" to start. Days and weeks advance the wall clock;
// hours, minutes and seconds are exact.
func addDuration(start time.Time, v string) (time.Time, error) {
	s := strings.ToUpper(strings.TrimSpace(v))
	sign := 1
	switch {
	case strings.HasPrefix(s, "-"):
		sign, s = -1, s[1:]
	case strings.HasPrefix(s, "+"):
		s = s[1:]
	}
	if !strings.HasPrefix(s, "P") || len(s) < 3 {
		return time.Time{}, fmt.Errorf("bad DURATION %q", v)
	}
	s = s[1:]

	days := 0
	var exact time.Duration
	inTime := false
	n, digits := 0, 0
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
			n = n*10 + int(r-'0')
			digits++
			continue
		case r == 'T' && !inTime && digits == 0:
			inTime = true
			continue
		}
		if digits == 0 {
			return time.Time{}, fmt.Errorf("bad DURATION %q", v)
		}
		switch {
		case r == 'W' && !inTime:
			days += 7 * n
		case r == 'D' && !inTime:
			days += n
		case r == 'H' && inTime:
			exact += time.Duration(n) * time.Hour
		case r == 'M' && inTime:
			exact += time.Duration(n) * time.Minute
		case r == 'S' && inTime:
			exact += time.Duration(n) * time.Second
		default:
			return time.Time{}, fmt.Errorf("bad DURATION %q", v)
		}
		n, digits = 0, 0
	}
	if digits != 0 {
		return time.Time{}, fmt.Errorf("bad DURATION %q", v)
	}
	return start.AddDate(0, 0, sign*days).Add(time.Duration(sign) * exact), nil
}

// isAllDay reports VALUE=DATE or a date-only DTSTART.
func isAllDay(p *ical.IANAProperty) bool {
	if vs, ok := p.ICalParameters["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
		return true
	}
	return !strings.Contains(p.Value, "T")
}

// normalizeColor accepts "#rrggbb" or "rrggbb"; CSS names pass through.
func normalizeColor(v string) string {
	v = strings.TrimSpace(v)
	if len(v) == 6 && isHex(v) {
		return "#" + v
	}
	return v
}

func isHex(s string) bool {
	for _, r := range s {
		if !strings.ContainsRune("0123456789abcdefABCDEF", r) {
			return false
		}
	}
	return true
}
