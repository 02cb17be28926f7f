package calendar

import (
	"iter"
	"sort"
	"sync/atomic"
	"time"

	"github.com/duneview/booking-assistant/pkg/logging"
)

const (
	// maxHorizonDays bounds forward scans regardless of what the caller asks for.
	maxHorizonDays = 120

	maxNights = 30
)

// Store holds the current busy-interval snapshot and answers overlap
// queries against it. The snapshot is replaced wholesale on every refresh;
// readers always see either the old or the new snapshot, never a mix.
type Store struct {
	snapshot atomic.Pointer[Snapshot]
	logger   *logging.Logger
}

// NewStore creates a cold Store with an empty snapshot. A cold store
// reports every date as free; callers that need to distinguish "free"
// from "never refreshed" check Ready.
func NewStore(logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	s := &Store{logger: logger}
	s.snapshot.Store(&Snapshot{})
	return s
}

// Refresh parses the feed text and atomically publishes a new snapshot.
// Individually unparseable entries are skipped and counted in Stats; a
// wholly unusable feed returns ErrFeedUnparseable and leaves the prior
// snapshot in place.
func (s *Store) Refresh(feedText string) (Stats, error) {
	intervals, skipped, err := parseFeed(feedText)
	if err != nil {
		return Stats{Skipped: skipped}, err
	}

	sort.Slice(intervals, func(i, j int) bool {
		return intervals[i].Start.Before(intervals[j].Start)
	})

	s.snapshot.Store(&Snapshot{
		Intervals:     intervals,
		LastRefreshed: time.Now().UTC(),
	})

	stats := Stats{Intervals: len(intervals), Skipped: skipped}
	s.logger.Info("calendar snapshot published",
		"intervals", stats.Intervals,
		"skipped", stats.Skipped,
	)
	return stats, nil
}

// RefreshBestEffort refreshes the snapshot, logging instead of returning
// parse failures. The last-known-good snapshot stays authoritative on error.
func (s *Store) RefreshBestEffort(feedText string) Stats {
	stats, err := s.Refresh(feedText)
	if err != nil {
		s.logger.Warn("calendar refresh failed, retaining previous snapshot",
			"error", err,
			"skipped", stats.Skipped,
		)
	}
	return stats
}

// Ready reports whether at least one refresh has succeeded.
func (s *Store) Ready() bool {
	return !s.snapshot.Load().LastRefreshed.IsZero()
}

// Current returns the published snapshot.
func (s *Store) Current() *Snapshot {
	return s.snapshot.Load()
}

// IsFree reports whether a stay of the given nights starting on start
// overlaps no busy interval. The test is half-open on both sides, so a
// stay checking in on another guest's checkout day is free.
func (s *Store) IsFree(start time.Time, nights int) bool {
	if nights < 1 {
		nights = 1
	}
	day := DateOnly(start)
	end := day.AddDate(0, 0, nights)

	for _, b := range s.snapshot.Load().Intervals {
		if b.Overlaps(day, end) {
			return false
		}
		// Intervals are sorted by start; once one begins at or after the
		// stay's end, no later interval can overlap.
		if !b.Start.Before(end) {
			break
		}
	}
	return true
}

// SuggestNearby yields, in chronological order, every start date within
// horizonDays of start (inclusive of start itself) for which a stay of the
// given nights is calendar-free. The sequence is lazy and restartable;
// callers may stop after any prefix.
func (s *Store) SuggestNearby(start time.Time, nights, horizonDays int) iter.Seq[time.Time] {
	if horizonDays < 1 {
		horizonDays = 1
	}
	if horizonDays > maxHorizonDays {
		horizonDays = maxHorizonDays
	}
	first := DateOnly(start)

	return func(yield func(time.Time) bool) {
		for i := 0; i < horizonDays; i++ {
			day := first.AddDate(0, 0, i)
			if s.IsFree(day, nights) && !yield(day) {
				return
			}
		}
	}
}

// CandidatesInMonth yields calendar-free start dates within the given
// month, capped at cap results to bound scan cost.
func (s *Store) CandidatesInMonth(year int, month time.Month, nights, cap int) iter.Seq[time.Time] {
	if cap < 1 {
		cap = 1
	}
	return func(yield func(time.Time) bool) {
		day := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
		count := 0
		for day.Month() == month && count < cap {
			if s.IsFree(day, nights) {
				if !yield(day) {
					return
				}
				count++
			}
			day = day.AddDate(0, 0, 1)
		}
	}
}
