package calendar

import (
	"errors"
	"strings"
	"time"
)

// ErrFeedUnparseable indicates the feed text contained nothing that could
// be read as a busy range. Individual bad entries are skipped, not fatal;
// this error means the whole feed was unusable.
var ErrFeedUnparseable = errors.New("calendar: feed unparseable")

// parseFeed extracts busy intervals from the external feed. Two formats are
// accepted: the iCal subset exported by rental platforms (VEVENT blocks
// with DTSTART/DTEND as dates or date-times) and plain "start,end" CSV
// lines. Time-of-day is dropped; the property rents in whole-night units.
func parseFeed(text string) ([]BusyInterval, int, error) {
	var intervals []BusyInterval
	skipped := 0
	sawCalendar := false

	var eventStart, eventEnd time.Time
	inEvent := false

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		switch {
		case strings.EqualFold(trimmed, "BEGIN:VCALENDAR"):
			sawCalendar = true
		case strings.EqualFold(trimmed, "BEGIN:VEVENT"):
			inEvent = true
			eventStart, eventEnd = time.Time{}, time.Time{}
		case strings.EqualFold(trimmed, "END:VEVENT"):
			if inEvent {
				if iv, ok := makeInterval(eventStart, eventEnd); ok {
					intervals = append(intervals, iv)
				} else {
					skipped++
				}
			}
			inEvent = false
		case inEvent && hasProperty(trimmed, "DTSTART"):
			eventStart = parsePropertyDate(trimmed)
		case inEvent && hasProperty(trimmed, "DTEND"):
			eventEnd = parsePropertyDate(trimmed)
		case !inEvent && strings.Count(trimmed, ",") == 1 && !strings.Contains(trimmed, ":"):
			if iv, ok := parseCSVRange(trimmed); ok {
				intervals = append(intervals, iv)
			} else {
				skipped++
			}
		}
	}

	if len(intervals) == 0 && !sawCalendar {
		return nil, skipped, ErrFeedUnparseable
	}
	return intervals, skipped, nil
}

// hasProperty matches an iCal property name with optional parameters,
// e.g. "DTSTART;VALUE=DATE:20251220" or "DTSTART:20251220T140000Z".
func hasProperty(line, name string) bool {
	upper := strings.ToUpper(line)
	return strings.HasPrefix(upper, name+":") || strings.HasPrefix(upper, name+";")
}

// parsePropertyDate extracts the date from an iCal date property. Returns
// the zero time when the value cannot be read.
func parsePropertyDate(line string) time.Time {
	idx := strings.Index(line, ":")
	if idx < 0 {
		return time.Time{}
	}
	value := strings.TrimSpace(line[idx+1:])

	for _, layout := range []string{
		"20060102",
		"20060102T150405Z",
		"20060102T150405",
		"2006-01-02",
	} {
		if t, err := time.Parse(layout, value); err == nil {
			return DateOnly(t)
		}
	}
	return time.Time{}
}

func parseCSVRange(line string) (BusyInterval, bool) {
	parts := strings.SplitN(line, ",", 2)
	start, err := ParseDate(strings.TrimSpace(parts[0]))
	if err != nil {
		return BusyInterval{}, false
	}
	end, err := ParseDate(strings.TrimSpace(parts[1]))
	if err != nil {
		return BusyInterval{}, false
	}
	return makeInterval(start, end)
}

func makeInterval(start, end time.Time) (BusyInterval, bool) {
	if start.IsZero() || end.IsZero() || !start.Before(end) {
		return BusyInterval{}, false
	}
	return BusyInterval{Start: DateOnly(start), End: DateOnly(end)}, true
}
