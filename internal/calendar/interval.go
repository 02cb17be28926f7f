package calendar

import (
	"time"
)

// BusyInterval is a calendar-blocked date range, half-open [Start, End).
// Both bounds are calendar dates (midnight UTC); Start < End always holds
// for intervals produced by the feed parser.
type BusyInterval struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// Overlaps reports whether the stay [start, end) overlaps this interval.
// Adjacent ranges do not overlap: a checkout day equal to a check-in day
// is free.
func (b BusyInterval) Overlaps(start, end time.Time) bool {
	return start.Before(b.End) && end.After(b.Start)
}

// Snapshot is an immutable view of the busy calendar. A refresh builds a
// new Snapshot and publishes it atomically; readers never observe a
// partially updated interval list.
type Snapshot struct {
	Intervals     []BusyInterval
	LastRefreshed time.Time
}

// Stats summarizes one refresh.
type Stats struct {
	Intervals int `json:"intervals"`
	Skipped   int `json:"skipped"`
}

// DateOnly truncates t to its calendar date in UTC.
func DateOnly(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// ParseDate parses an ISO calendar date (2006-01-02).
func ParseDate(s string) (time.Time, error) {
	return time.Parse("2006-01-02", s)
}
