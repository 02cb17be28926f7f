package conversation

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/duneview/booking-assistant/internal/availability"
	"github.com/duneview/booking-assistant/internal/narrowing"
	"github.com/duneview/booking-assistant/internal/observability/metrics"
	"github.com/duneview/booking-assistant/pkg/logging"
)

const (
	defaultNarrowingThreshold = 6
	defaultMonthCandidateCap  = 31
	defaultAlternativesLimit  = 5
	defaultStayNights         = 7
)

// AvailabilityService is the slice of the availability engine the machine
// needs. Tests swap in a stub.
type AvailabilityService interface {
	CheckExact(ctx context.Context, start time.Time, nights int) availability.Decision
	AlternativesNear(ctx context.Context, start time.Time, nights, limit int) []availability.Candidate
	CandidatesForMonth(ctx context.Context, year int, month time.Month, nights, cap int) []availability.Candidate
}

// ReplyKind tells the caller whether a turn closed the search or is
// waiting on the guest.
type ReplyKind string

const (
	// ReplyAnswer is a terminal turn: the question was answered (or the
	// search dropped) and no session state remains.
	ReplyAnswer ReplyKind = "answer"
	// ReplyNeedMoreInput means session state was stored and the machine
	// expects another guest message to finish the search.
	ReplyNeedMoreInput ReplyKind = "need-more-input"
)

// Reply is one assistant turn.
type Reply struct {
	Kind ReplyKind `json:"kind"`
	Text string    `json:"text"`
	// Handoff means the guest asked about something outside date search and
	// the session was reset; the caller routes them to a human or a general
	// assistant.
	Handoff bool `json:"handoff,omitempty"`
	// Candidates carries the dates behind the text, when the turn produced
	// a list, so API clients can render them structurally.
	Candidates []availability.Candidate `json:"candidates,omitempty"`
}

// sessionLock is a refcounted per-session mutex. The refcount lets the
// machine drop the map entry once the last turn for a session finishes,
// so the lock table does not grow with every session ever seen.
type sessionLock struct {
	mu   sync.Mutex
	refs int
}

// Machine advances a guest conversation one message at a time. Turns for
// the same session key are serialized; distinct sessions run concurrently.
type Machine struct {
	states     StateStore
	avail      AvailabilityService
	classifier Classifier
	metrics    *metrics.ConversationMetrics
	logger     *logging.Logger

	threshold     int
	monthCap      int
	altLimit      int
	defaultNights int

	locksMu sync.Mutex
	locks   map[string]*sessionLock
}

// MachineOption customizes a Machine.
type MachineOption func(*Machine)

// WithNarrowingThreshold sets how many candidates a month may have before
// the machine asks the guest to narrow instead of listing them.
func WithNarrowingThreshold(n int) MachineOption {
	return func(m *Machine) {
		if n > 0 {
			m.threshold = n
		}
	}
}

// WithMonthCandidateCap bounds how many start dates a month query collects.
func WithMonthCandidateCap(n int) MachineOption {
	return func(m *Machine) {
		if n > 0 {
			m.monthCap = n
		}
	}
}

// WithDefaultNights sets the stay length assumed when the guest never
// states one.
func WithDefaultNights(n int) MachineOption {
	return func(m *Machine) {
		if n > 0 {
			m.defaultNights = n
		}
	}
}

// WithConversationMetrics attaches turn counters.
func WithConversationMetrics(cm *metrics.ConversationMetrics) MachineOption {
	return func(m *Machine) { m.metrics = cm }
}

// WithMachineLogger overrides the default logger.
func WithMachineLogger(logger *logging.Logger) MachineOption {
	return func(m *Machine) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// NewMachine wires the state machine.
func NewMachine(states StateStore, avail AvailabilityService, classifier Classifier, opts ...MachineOption) *Machine {
	if states == nil || avail == nil || classifier == nil {
		panic("conversation: NewMachine requires states, availability, and classifier")
	}
	m := &Machine{
		states:        states,
		avail:         avail,
		classifier:    classifier,
		logger:        logging.Default(),
		threshold:     defaultNarrowingThreshold,
		monthCap:      defaultMonthCandidateCap,
		altLimit:      defaultAlternativesLimit,
		defaultNights: defaultStayNights,
		locks:         make(map[string]*sessionLock),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Advance processes one guest message and returns the assistant's reply.
// The turn is atomic per session: state is read, the transition applied,
// and the new state stored under a per-session lock.
func (m *Machine) Advance(ctx context.Context, sessionKey, message string) (Reply, error) {
	if sessionKey == "" {
		return Reply{}, fmt.Errorf("conversation: session key is required")
	}

	lock := m.acquire(sessionKey)
	defer m.release(sessionKey, lock)

	st, err := m.states.Get(ctx, sessionKey)
	if err != nil {
		return Reply{}, fmt.Errorf("conversation: load state for %s: %w", sessionKey, err)
	}

	if st == nil {
		m.metrics.ObserveTurn("idle")
		return m.advanceIdle(ctx, sessionKey, message)
	}
	m.metrics.ObserveTurn(string(st.Phase))
	return m.advanceActive(ctx, sessionKey, st, message)
}

func (m *Machine) acquire(key string) *sessionLock {
	m.locksMu.Lock()
	lock := m.locks[key]
	if lock == nil {
		lock = &sessionLock{}
		m.locks[key] = lock
	}
	lock.refs++
	m.locksMu.Unlock()

	lock.mu.Lock()
	return lock
}

func (m *Machine) release(key string, lock *sessionLock) {
	lock.mu.Unlock()

	m.locksMu.Lock()
	lock.refs--
	if lock.refs == 0 {
		delete(m.locks, key)
	}
	m.locksMu.Unlock()
}

func (m *Machine) advanceIdle(ctx context.Context, key, message string) (Reply, error) {
	intent := m.classifier.Classify(ctx, message)
	switch intent.Kind {
	case IntentCancel:
		return Reply{Kind: ReplyAnswer, Text: "No problem. Tell me a date or a month whenever you're ready."}, nil
	case IntentDate:
		return m.answerExact(ctx, intent.Date, m.nightsOr(intent.Nights, 0))
	case IntentMonth:
		return m.answerMonth(ctx, key, intent.Year, intent.Month, m.nightsOr(intent.Nights, 0))
	default:
		return Reply{Kind: ReplyAnswer, Text: "I can check availability and prices for the house. Try a month (\"anything in August?\") or a date (\"2026-08-14 for 7 nights\")."}, nil
	}
}

func (m *Machine) advanceActive(ctx context.Context, key string, st *State, message string) (Reply, error) {
	msg := strings.ToLower(strings.TrimSpace(message))

	if isNextMonth(msg) || isPreviousMonth(msg) {
		if isNextMonth(msg) {
			st.NextMonth()
		} else {
			st.PreviousMonth()
		}
		// "early next month" pages and carries the section constraint to
		// the new month in one turn.
		if c, ok := narrowing.Parse(message); ok && c.Kind != narrowing.KindExactDate {
			return m.applyConstraint(ctx, key, st, c)
		}
		return m.answerMonth(ctx, key, st.Year, st.Month, st.Nights)
	}

	if c, ok := narrowing.Parse(message); ok {
		if c.Kind == narrowing.KindExactDate {
			if err := m.states.Delete(ctx, key); err != nil {
				return Reply{}, fmt.Errorf("conversation: clear state for %s: %w", key, err)
			}
			return m.answerExact(ctx, c.Date, st.Nights)
		}
		return m.applyConstraint(ctx, key, st, c)
	}

	intent := m.classifier.Classify(ctx, message)
	switch intent.Kind {
	case IntentCancel:
		if err := m.states.Delete(ctx, key); err != nil {
			return Reply{}, fmt.Errorf("conversation: clear state for %s: %w", key, err)
		}
		return Reply{Kind: ReplyAnswer, Text: "Okay, I've cleared that search. Ask me again anytime."}, nil
	case IntentDate:
		if err := m.states.Delete(ctx, key); err != nil {
			return Reply{}, fmt.Errorf("conversation: clear state for %s: %w", key, err)
		}
		return m.answerExact(ctx, intent.Date, m.nightsOr(intent.Nights, st.Nights))
	case IntentMonth:
		return m.answerMonth(ctx, key, intent.Year, intent.Month, m.nightsOr(intent.Nights, st.Nights))
	case IntentNarrowish:
		return Reply{
			Kind: ReplyNeedMoreInput,
			Text: "I didn't catch that preference. You can narrow by " + phrasingsLine() + ".",
		}, nil
	default:
		// Escape hatch: a message with no date content leaves the flow
		// instead of trapping the guest in a narrowing loop.
		if err := m.states.Delete(ctx, key); err != nil {
			return Reply{}, fmt.Errorf("conversation: clear state for %s: %w", key, err)
		}
		return Reply{
			Kind:    ReplyAnswer,
			Text:    "Let me connect you with someone who can help with that. Your date search is cleared; ask me again anytime.",
			Handoff: true,
		}, nil
	}
}

func (m *Machine) answerExact(ctx context.Context, start time.Time, nights int) (Reply, error) {
	d := m.avail.CheckExact(ctx, start, nights)

	if d.Available {
		text := fmt.Sprintf("Check-in %s for %d nights is available at %s.",
			formatDate(start), nights, FormatPrice(d.Quote.TotalMinorUnits, d.Quote.Currency))
		return Reply{Kind: ReplyAnswer, Text: text}, nil
	}

	if d.Err != nil {
		m.logger.Warn("exact check could not be priced", "start", start.Format("2006-01-02"), "error", d.Err)
		return Reply{Kind: ReplyAnswer, Text: "I can't confirm pricing right now. Please try again in a few minutes."}, nil
	}

	alts := m.avail.AlternativesNear(ctx, start, nights, m.altLimit)
	var b strings.Builder
	if d.Reason == availability.ReasonOverlapsBooking {
		fmt.Fprintf(&b, "Sorry, %s for %d nights clashes with an existing booking.", formatDate(start), nights)
	} else {
		fmt.Fprintf(&b, "A %d-night stay starting %s isn't offered.", nights, formatDate(start))
	}
	if len(alts) > 0 {
		b.WriteString(" Nearby options:\n")
		b.WriteString(FormatCandidates(alts))
	} else {
		b.WriteString(" I couldn't find nearby alternatives either.")
	}
	return Reply{Kind: ReplyAnswer, Text: b.String(), Candidates: alts}, nil
}

func (m *Machine) answerMonth(ctx context.Context, key string, year int, month time.Month, nights int) (Reply, error) {
	nights = m.nightsOr(nights, 0)
	candidates := m.avail.CandidatesForMonth(ctx, year, month, nights, m.monthCap)

	st := &State{Year: year, Month: month, Nights: nights}

	if len(candidates) == 0 {
		st.Phase = PhaseNarrowing
		if err := m.states.Put(ctx, key, st); err != nil {
			return Reply{}, fmt.Errorf("conversation: save state for %s: %w", key, err)
		}
		text := fmt.Sprintf("I don't see any available %d-night stays in %s. Say \"next month\" or \"previous month\" to look around it.",
			nights, formatMonth(year, month))
		return Reply{Kind: ReplyNeedMoreInput, Text: text}, nil
	}

	if len(candidates) > m.threshold {
		st.Phase = PhaseNarrowing
		if err := m.states.Put(ctx, key, st); err != nil {
			return Reply{}, fmt.Errorf("conversation: save state for %s: %w", key, err)
		}
		text := fmt.Sprintf("%s has %d possible check-in dates for %d nights. Could you narrow it down? For example: %s.",
			formatMonth(year, month), len(candidates), nights, phrasingsLine())
		return Reply{Kind: ReplyNeedMoreInput, Text: text}, nil
	}

	st.Phase = PhaseDatePick
	if err := m.states.Put(ctx, key, st); err != nil {
		return Reply{}, fmt.Errorf("conversation: save state for %s: %w", key, err)
	}
	text := FormatCandidates(candidates) + "Pick a date, or say \"next month\"."
	return Reply{Kind: ReplyNeedMoreInput, Text: text, Candidates: candidates}, nil
}

func (m *Machine) applyConstraint(ctx context.Context, key string, st *State, c narrowing.Constraint) (Reply, error) {
	candidates := m.avail.CandidatesForMonth(ctx, st.Year, st.Month, st.Nights, m.monthCap)
	filtered := narrowing.Apply(candidates, c)

	if len(filtered) == 0 {
		// Never dead-end: keep the session alive and show the nearest
		// real options instead.
		st.Phase = PhaseNarrowing
		if err := m.states.Put(ctx, key, st); err != nil {
			return Reply{}, fmt.Errorf("conversation: save state for %s: %w", key, err)
		}
		nearest := candidates
		if len(nearest) > m.altLimit {
			nearest = nearest[:m.altLimit]
		}
		var b strings.Builder
		b.WriteString("None of the available dates match that.")
		if len(nearest) > 0 {
			b.WriteString(" The closest options are:\n")
			b.WriteString(FormatCandidates(nearest))
		}
		b.WriteString("You can also narrow by " + phrasingsLine() + ".")
		return Reply{Kind: ReplyNeedMoreInput, Text: b.String(), Candidates: nearest}, nil
	}

	// Still too many to choose from: stay in narrowing and ask for a
	// tighter preference.
	if len(filtered) > m.threshold {
		st.Phase = PhaseNarrowing
		if err := m.states.Put(ctx, key, st); err != nil {
			return Reply{}, fmt.Errorf("conversation: save state for %s: %w", key, err)
		}
		text := fmt.Sprintf("That still leaves %d check-in dates in %s. Could you narrow it further? For example: %s.",
			len(filtered), formatMonth(st.Year, st.Month), phrasingsLine())
		return Reply{Kind: ReplyNeedMoreInput, Text: text}, nil
	}

	st.Phase = PhaseDatePick
	if err := m.states.Put(ctx, key, st); err != nil {
		return Reply{}, fmt.Errorf("conversation: save state for %s: %w", key, err)
	}
	text := FormatCandidates(filtered) + "Pick a date, or say \"next month\"."
	return Reply{Kind: ReplyNeedMoreInput, Text: text, Candidates: filtered}, nil
}

func (m *Machine) nightsOr(requested, fallback int) int {
	if requested > 0 {
		return requested
	}
	if fallback > 0 {
		return fallback
	}
	return m.defaultNights
}

func isNextMonth(msg string) bool {
	return msg == "next" || msg == "later" ||
		strings.Contains(msg, "next month") || strings.Contains(msg, "following month") ||
		strings.Contains(msg, "month after")
}

func isPreviousMonth(msg string) bool {
	return msg == "previous" || msg == "earlier" ||
		strings.Contains(msg, "previous month") || strings.Contains(msg, "earlier month") ||
		strings.Contains(msg, "month before")
}

func phrasingsLine() string {
	return strings.Join(narrowing.SupportedPhrasings(), "; ")
}
