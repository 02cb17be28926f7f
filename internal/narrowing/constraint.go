// Package narrowing reduces a long list of bookable start dates to a
// small, choosable set from a stated preference ("Fridays only", "first
// half of the month", "around the 18th").
package narrowing

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Kind tags the constraint variant.
type Kind int

const (
	KindWeekday Kind = iota + 1
	KindWeekdayClass
	KindWeekendClass
	KindDayRange
	KindAroundDay
	KindNthWeekday
	KindLastWeekday
	KindExactDate
)

// Constraint is a pure value describing one narrowing preference.
type Constraint struct {
	Kind Kind

	// KindWeekday, KindNthWeekday, KindLastWeekday, and optionally
	// KindAroundDay.
	Weekday    time.Weekday
	HasWeekday bool

	// KindDayRange: 1-indexed day-of-month bounds, inclusive.
	Lo, Hi int

	// KindAroundDay.
	Day int

	// KindNthWeekday: 1-based week bucket.
	N int

	// KindExactDate.
	Date time.Time
}

var weekdayNames = map[string]time.Weekday{
	"sunday": time.Sunday, "sun": time.Sunday,
	"monday": time.Monday, "mon": time.Monday,
	"tuesday": time.Tuesday, "tue": time.Tuesday, "tues": time.Tuesday,
	"wednesday": time.Wednesday, "wed": time.Wednesday,
	"thursday": time.Thursday, "thu": time.Thursday, "thur": time.Thursday, "thurs": time.Thursday,
	"friday": time.Friday, "fri": time.Friday,
	"saturday": time.Saturday, "sat": time.Saturday,
}

var ordinalWords = map[string]int{
	"first": 1, "1st": 1,
	"second": 2, "2nd": 2,
	"third": 3, "3rd": 3,
	"fourth": 4, "4th": 4,
}

var (
	isoDateRE  = regexp.MustCompile(`\b(\d{4})-(\d{2})-(\d{2})\b`)
	aroundRE   = regexp.MustCompile(`\b(?:around|about|near|close to)\s+(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\b`)
	rangeRE    = regexp.MustCompile(`\b(?:between\s+|from\s+)?(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\s*(?:-|–|to|and|until)\s*(?:the\s+)?(\d{1,2})(?:st|nd|rd|th)?\b`)
	bareDayRE  = regexp.MustCompile(`\b(?:on\s+)?the\s+(\d{1,2})(?:st|nd|rd|th)\b`)
	weekdayRE  = regexp.MustCompile(`\b(sunday|sun|monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat)s?\b`)
	nthRE      = regexp.MustCompile(`\b(first|1st|second|2nd|third|3rd|fourth|4th|last)\s+(sunday|sun|monday|mon|tuesday|tues|tue|wednesday|wed|thursday|thurs|thur|thu|friday|fri|saturday|sat)\b`)
)

// Parse recognizes a narrowing phrase. ok=false means the text is not a
// supported constraint; the caller decides whether that is an escape cue
// or a prompt to list supported phrasings.
func Parse(text string) (Constraint, bool) {
	msg := strings.ToLower(strings.TrimSpace(text))
	if msg == "" {
		return Constraint{}, false
	}

	// Explicit ISO date beats everything.
	if m := isoDateRE.FindStringSubmatch(msg); m != nil {
		if d, err := time.Parse("2006-01-02", m[0]); err == nil {
			return Constraint{Kind: KindExactDate, Date: d}, true
		}
	}

	// "second friday" / "last friday".
	if m := nthRE.FindStringSubmatch(msg); m != nil {
		wd := weekdayNames[m[2]]
		if m[1] == "last" {
			return Constraint{Kind: KindLastWeekday, Weekday: wd, HasWeekday: true}, true
		}
		return Constraint{Kind: KindNthWeekday, N: ordinalWords[m[1]], Weekday: wd, HasWeekday: true}, true
	}

	// "around the 18th", optionally with a weekday ("a friday around the 18th").
	if m := aroundRE.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		c := Constraint{Kind: KindAroundDay, Day: day}
		if w := weekdayRE.FindStringSubmatch(msg); w != nil {
			c.Weekday = weekdayNames[w[1]]
			c.HasWeekday = true
		}
		return c, true
	}

	// Named month sections.
	switch {
	case strings.Contains(msg, "first half"):
		return Constraint{Kind: KindDayRange, Lo: 1, Hi: 15}, true
	case strings.Contains(msg, "second half") || strings.Contains(msg, "last half"):
		return Constraint{Kind: KindDayRange, Lo: 16, Hi: 31}, true
	case strings.Contains(msg, "middle") || (strings.Contains(msg, "mid") && !strings.Contains(msg, "midweek")):
		return Constraint{Kind: KindDayRange, Lo: 10, Hi: 20}, true
	case strings.Contains(msg, "early") || strings.Contains(msg, "beginning") || strings.Contains(msg, "start of"):
		return Constraint{Kind: KindDayRange, Lo: 1, Hi: 10}, true
	case strings.Contains(msg, "late") || strings.Contains(msg, "end of"):
		return Constraint{Kind: KindDayRange, Lo: 21, Hi: 31}, true
	}

	// Explicit day range "between the 12th and the 18th", "12-18".
	if m := rangeRE.FindStringSubmatch(msg); m != nil {
		lo, _ := strconv.Atoi(m[1])
		hi, _ := strconv.Atoi(m[2])
		if lo >= 1 && hi <= 31 && lo <= hi {
			return Constraint{Kind: KindDayRange, Lo: lo, Hi: hi}, true
		}
	}

	// Weekday classes. "weekend" follows the property's Friday-changeover
	// convention, not Sat/Sun.
	if strings.Contains(msg, "weekend") {
		return Constraint{Kind: KindWeekendClass}, true
	}
	if strings.Contains(msg, "weekday") || strings.Contains(msg, "during the week") || strings.Contains(msg, "midweek") {
		return Constraint{Kind: KindWeekdayClass}, true
	}

	// Specific weekday.
	if m := weekdayRE.FindStringSubmatch(msg); m != nil {
		return Constraint{Kind: KindWeekday, Weekday: weekdayNames[m[1]], HasWeekday: true}, true
	}

	// Bare ordinal day "the 18th".
	if m := bareDayRE.FindStringSubmatch(msg); m != nil {
		day, _ := strconv.Atoi(m[1])
		if day >= 1 && day <= 31 {
			return Constraint{Kind: KindDayRange, Lo: day, Hi: day}, true
		}
	}

	return Constraint{}, false
}

// SupportedPhrasings lists example constraints for the "nothing matched"
// reply; the conversation layer shows these instead of a dead end.
func SupportedPhrasings() []string {
	return []string{
		"a specific weekday (\"Fridays only\")",
		"weekdays or weekends",
		"a part of the month (\"early\", \"first half\", \"end of the month\")",
		"a day range (\"between the 12th and the 18th\")",
		"around a day (\"around the 18th\")",
		"an ordinal weekday (\"the second Friday\", \"the last Saturday\")",
		"an exact date (\"2026-08-14\")",
	}
}
