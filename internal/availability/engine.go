// Package availability reconciles the busy calendar with the pricing
// oracle: a start date is bookable only when it is calendar-free AND the
// oracle prices the exact stay length.
package availability

import (
	"context"
	"iter"
	"time"

	"github.com/duneview/booking-assistant/internal/pricing"
	"github.com/duneview/booking-assistant/pkg/logging"
)

const (
	// Reasons surfaced to the conversation layer for unavailable stays.
	ReasonOverlapsBooking = "overlaps booking"
	ReasonUnpriced        = "not a valid/priced stay length"

	defaultMaxConcurrency = 20
	maxConcurrencyCeiling = 30
	defaultProbeLimit     = 24
	defaultPerCallTimeout = 2 * time.Second

	minNights = 1
	maxNights = 30
)

// CalendarSource is the calendar-store surface the engine consumes.
type CalendarSource interface {
	IsFree(start time.Time, nights int) bool
	SuggestNearby(start time.Time, nights, horizonDays int) iter.Seq[time.Time]
	CandidatesInMonth(year int, month time.Month, nights, cap int) iter.Seq[time.Time]
}

// Candidate is a start date that is both calendar-free and priced for the
// requested length. Ephemeral: recomputed per query, never persisted.
type Candidate struct {
	StartDate time.Time     `json:"start_date"`
	Nights    int           `json:"nights"`
	Price     pricing.Quote `json:"price"`
}

// Decision is the outcome of an exact-date availability check. Err is
// non-nil when the oracle was unreachable, internally distinct from a
// valid "no rate" outcome even though both render as unavailable.
type Decision struct {
	Available bool
	Reason    string
	Quote     pricing.Quote
	Err       error
}

// Engine combines a CalendarSource with a pricing Oracle.
type Engine struct {
	calendar       CalendarSource
	oracle         pricing.Oracle
	logger         *logging.Logger
	maxConcurrency int
	probeLimit     int
	perCallTimeout time.Duration
	horizonDays    int
}

// Option configures an Engine.
type Option func(*Engine)

// WithMaxConcurrency bounds in-flight oracle calls during batch pricing.
// Values above the ceiling are clamped to protect the oracle.
func WithMaxConcurrency(n int) Option {
	return func(e *Engine) {
		if n < 1 {
			n = 1
		}
		if n > maxConcurrencyCeiling {
			n = maxConcurrencyCeiling
		}
		e.maxConcurrency = n
	}
}

// WithProbeLimit bounds how many calendar-free dates get priced per
// alternatives query.
func WithProbeLimit(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.probeLimit = n
		}
	}
}

// WithPerCallTimeout sets the per-candidate pricing timeout. A timed-out
// candidate is treated as unpriced, never as a batch failure.
func WithPerCallTimeout(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.perCallTimeout = d
		}
	}
}

// WithHorizonDays sets how far AlternativesNear scans forward.
func WithHorizonDays(n int) Option {
	return func(e *Engine) {
		if n > 0 {
			e.horizonDays = n
		}
	}
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// New creates an availability engine.
func New(cal CalendarSource, oracle pricing.Oracle, opts ...Option) *Engine {
	e := &Engine{
		calendar:       cal,
		oracle:         oracle,
		logger:         logging.Default(),
		maxConcurrency: defaultMaxConcurrency,
		probeLimit:     defaultProbeLimit,
		perCallTimeout: defaultPerCallTimeout,
		horizonDays:    90,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// CheckExact decides whether a specific stay is bookable. A calendar
// conflict wins over pricing: the oracle is not consulted for busy dates.
func (e *Engine) CheckExact(ctx context.Context, start time.Time, nights int) Decision {
	nights = clampNights(nights)

	if !e.calendar.IsFree(start, nights) {
		return Decision{Reason: ReasonOverlapsBooking}
	}

	quote, err := e.quoteOne(ctx, start, nights)
	if err != nil {
		e.logger.Warn("oracle unreachable during exact check",
			"start", start.Format("2006-01-02"),
			"nights", nights,
			"error", err,
		)
		return Decision{Reason: ReasonUnpriced, Err: err}
	}
	if !quote.Priced || quote.TotalMinorUnits <= 0 {
		return Decision{Reason: ReasonUnpriced, Quote: quote}
	}
	return Decision{Available: true, Quote: quote}
}

// AlternativesNear returns up to limit bookable candidates scanning forward
// from start, in chronological order.
func (e *Engine) AlternativesNear(ctx context.Context, start time.Time, nights, limit int) []Candidate {
	nights = clampNights(nights)
	if limit < 1 {
		limit = 1
	}

	dates := take(e.calendar.SuggestNearby(start, nights, e.horizonDays), e.probeLimit)
	return truncate(e.priceAll(ctx, dates, nights), limit)
}

// CandidatesForMonth returns the bookable start dates within a month, in
// chronological order, capped at cap. Zero candidates is a valid result.
func (e *Engine) CandidatesForMonth(ctx context.Context, year int, month time.Month, nights, cap int) []Candidate {
	nights = clampNights(nights)
	if cap < 1 {
		cap = 1
	}

	dates := take(e.calendar.CandidatesInMonth(year, month, nights, cap), cap)
	return truncate(e.priceAll(ctx, dates, nights), cap)
}

// priceAll prices the dates with bounded concurrency. Results keep the
// input's chronological order regardless of oracle completion order; the
// output slot for each date is fixed before any call is issued. Unpriced,
// zero-total, timed-out, and failed candidates are dropped.
func (e *Engine) priceAll(ctx context.Context, dates []time.Time, nights int) []Candidate {
	if len(dates) == 0 {
		return nil
	}

	quotes := make([]pricing.Quote, len(dates))
	sem := make(chan struct{}, e.maxConcurrency)
	done := make(chan int, len(dates))

	for i, d := range dates {
		go func(i int, d time.Time) {
			sem <- struct{}{}
			defer func() { <-sem }()
			q, err := e.quoteOne(ctx, d, nights)
			if err != nil {
				e.logger.Debug("candidate dropped, oracle error",
					"start", d.Format("2006-01-02"),
					"error", err,
				)
				q = pricing.Quote{}
			}
			quotes[i] = q
			done <- i
		}(i, d)
	}
	for range dates {
		<-done
	}

	out := make([]Candidate, 0, len(dates))
	for i, d := range dates {
		if quotes[i].Priced && quotes[i].TotalMinorUnits > 0 {
			out = append(out, Candidate{StartDate: d, Nights: nights, Price: quotes[i]})
		}
	}
	return out
}

func (e *Engine) quoteOne(ctx context.Context, start time.Time, nights int) (pricing.Quote, error) {
	ctx, cancel := context.WithTimeout(ctx, e.perCallTimeout)
	defer cancel()
	return e.oracle.Quote(ctx, start, nights)
}

func clampNights(nights int) int {
	if nights < minNights {
		return minNights
	}
	if nights > maxNights {
		return maxNights
	}
	return nights
}

func take(seq iter.Seq[time.Time], n int) []time.Time {
	var out []time.Time
	for d := range seq {
		out = append(out, d)
		if len(out) >= n {
			break
		}
	}
	return out
}

func truncate(cands []Candidate, n int) []Candidate {
	if len(cands) > n {
		return cands[:n]
	}
	return cands
}
