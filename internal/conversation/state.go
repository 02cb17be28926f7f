// Package conversation tracks per-session narrowing state across turns:
// which month and stay length the guest is exploring, and whether they are
// still narrowing or ready to pick a date.
package conversation

import (
	"time"
)

// Phase labels the non-idle states of the narrowing machine. Idle is
// represented by the absence of stored state.
type Phase string

const (
	PhaseNarrowing Phase = "narrowing"
	PhaseDatePick  Phase = "date_pick"
)

// State is the pending narrowing context for one session. It is deleted
// when the guest picks a concrete date, declines, or the classifier decides
// a message is unrelated to narrowing.
type State struct {
	Phase  Phase      `json:"phase"`
	Year   int        `json:"year"`
	Month  time.Month `json:"month"`
	Nights int        `json:"nights"`
}

// NextMonth advances the month context, rolling the year at December.
func (s *State) NextMonth() {
	if s.Month == time.December {
		s.Month = time.January
		s.Year++
		return
	}
	s.Month++
}

// PreviousMonth rewinds the month context, rolling the year at January.
func (s *State) PreviousMonth() {
	if s.Month == time.January {
		s.Month = time.December
		s.Year--
		return
	}
	s.Month--
}
