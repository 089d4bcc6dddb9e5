package service

import (
	"errors"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	ics "github.com/arran4/golang-ical"
)

// ── ICS parser ──────────────────────────────────────────────
//
// Reads VEVENTs of an RFC 5545 document as plain time ranges.
// Recurrence rules are not expanded; only the first occurrence is used.
// ─────────────────────────────────────────────────────────────

// calendarEvent one VEVENT; Err is set when its times cannot be read
type calendarEvent struct {
	UID     string
	Summary string
	Start   time.Time
	End     time.Time
	Err     error
}

func parseCalendarEvents(r io.Reader, loc *time.Location) ([]calendarEvent, error) {
	cal, err := ics.ParseCalendar(r)
	if err != nil {
		return nil, fmt.Errorf("parse calendar: %w", err)
	}

	vevents := cal.Events()
	events := make([]calendarEvent, 0, len(vevents))
	for i, comp := range vevents {
		evt := parseVEvent(comp, loc)
		if evt.UID == "" {
			evt.UID = "event-" + strconv.Itoa(i+1)
		}
		events = append(events, evt)
	}
	return events, nil
}

func parseVEvent(comp *ics.VEvent, loc *time.Location) calendarEvent {
	evt := calendarEvent{}
	if uid := comp.GetProperty(ics.ComponentPropertyUniqueId); uid != nil {
		evt.UID = strings.TrimSpace(uid.Value)
	}
	if summary := comp.GetProperty(ics.ComponentPropertySummary); summary != nil {
		evt.Summary = strings.TrimSpace(summary.Value)
	}

	start, allDay, err := parseICSDateTime(comp, ics.ComponentPropertyDtStart, loc)
	if err != nil {
		evt.Err = err
		return evt
	}
	evt.Start = start

	end, _, err := parseICSDateTime(comp, ics.ComponentPropertyDtEnd, loc)
	switch {
	case err == nil:
		evt.End = end
	case comp.GetProperty(ics.ComponentPropertyDuration) != nil:
		d, derr := parseICSDuration(comp.GetProperty(ics.ComponentPropertyDuration).Value)
		if derr != nil {
			evt.Err = derr
			return evt
		}
		evt.End = start.Add(d)
	case allDay:
		evt.End = start.AddDate(0, 0, 1)
	default:
		evt.Err = err
	}
	return evt
}

// parseICSDateTime reads a DATE-TIME (UTC, floating or TZID) or DATE value.
// Floating values are read in loc. allDay reports a DATE value.
func parseICSDateTime(comp *ics.VEvent, propName ics.ComponentProperty, loc *time.Location) (time.Time, bool, error) {
	prop := comp.GetProperty(propName)
	if prop == nil {
		return time.Time{}, false, fmt.Errorf("missing %s", propName)
	}
	val := strings.TrimSpace(prop.Value)

	tzLoc := loc
	for k, v := range prop.ICalParameters {
		if strings.EqualFold(k, "TZID") && len(v) > 0 {
			if l, err := time.LoadLocation(v[0]); err == nil {
				tzLoc = l
			}
		}
	}

	if t, err := time.Parse("20060102T150405Z", val); err == nil {
		return t.UTC(), false, nil
	}
	if t, err := time.ParseInLocation("20060102T150405", val, tzLoc); err == nil {
		return t, false, nil
	}
	if t, err := time.ParseInLocation("20060102", val, tzLoc); err == nil {
		return t, true, nil
	}
	return time.Time{}, false, fmt.Errorf("cannot read %s value %q", propName, val)
}

var icsDurationPattern = regexp.MustCompile(`^P(?:(\d+)W)?(?:(\d+)D)?(?:T(?:(\d+)H)?(?:(\d+)M)?(?:(\d+)S)?)?$`)

var errBadDuration = errors.New("cannot read DURATION value")

// parseICSDuration positive RFC 5545 durations such as PT1H30M or P1D
func parseICSDuration(val string) (time.Duration, error) {
	val = strings.TrimPrefix(strings.TrimSpace(val), "+")
	m := icsDurationPattern.FindStringSubmatch(val)
	if m == nil || val == "P" || val == "PT" {
		return 0, fmt.Errorf("%w %q", errBadDuration, val)
	}
	units := []time.Duration{7 * 24 * time.Hour, 24 * time.Hour, time.Hour, time.Minute, time.Second}
	var d time.Duration
	for i, unit := range units {
		if m[i+1] == "" {
			continue
		}
		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, fmt.Errorf("%w %q", errBadDuration, val)
		}
		d += time.Duration(n) * unit
	}
	return d, nil
}
