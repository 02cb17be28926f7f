package narrowing

import (
	"time"

	"github.com/duneview/booking-assistant/internal/availability"
)

// Apply filters candidates by the constraint. It is a pure function: no
// I/O, no hidden state, input order preserved, same inputs always the same
// output.
func Apply(candidates []availability.Candidate, c Constraint) []availability.Candidate {
	if c.Kind == KindLastWeekday {
		return lastWeekday(candidates, c.Weekday)
	}

	out := make([]availability.Candidate, 0, len(candidates))
	for _, cand := range candidates {
		if matches(cand.StartDate, c) {
			out = append(out, cand)
		}
	}
	return out
}

func matches(d time.Time, c Constraint) bool {
	day := d.Day()
	switch c.Kind {
	case KindWeekday:
		return d.Weekday() == c.Weekday
	case KindWeekdayClass:
		// Monday through Thursday.
		return d.Weekday() >= time.Monday && d.Weekday() <= time.Thursday
	case KindWeekendClass:
		// Friday-start changeover convention, not Sat/Sun.
		return d.Weekday() == time.Friday
	case KindDayRange:
		return day >= c.Lo && day <= c.Hi
	case KindAroundDay:
		if abs(day-c.Day) > 3 {
			return false
		}
		return !c.HasWeekday || d.Weekday() == c.Weekday
	case KindNthWeekday:
		// Nth 7-day bucket of the month: days 1-7 are bucket 1, and so on.
		return d.Weekday() == c.Weekday && (day-1)/7 == c.N-1
	case KindExactDate:
		y1, m1, d1 := d.Date()
		y2, m2, d2 := c.Date.Date()
		return y1 == y2 && m1 == m2 && d1 == d2
	default:
		return false
	}
}

// lastWeekday keeps only the maximal date among candidates falling on the
// weekday.
func lastWeekday(candidates []availability.Candidate, wd time.Weekday) []availability.Candidate {
	best := -1
	for i, cand := range candidates {
		if cand.StartDate.Weekday() != wd {
			continue
		}
		if best < 0 || cand.StartDate.After(candidates[best].StartDate) {
			best = i
		}
	}
	if best < 0 {
		return []availability.Candidate{}
	}
	return []availability.Candidate{candidates[best]}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
