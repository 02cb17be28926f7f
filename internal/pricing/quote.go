// Package pricing adapts the external nightly-pricing oracle. The oracle is
// the sole source of truth for which stays are priceable; this package only
// normalizes its rate rows into quotes.
package pricing

import (
	"context"
	"errors"
	"time"
)

// Quote is the normalized result of one oracle query. Priced=false is a
// valid business outcome (no rate for that exact start/length), distinct
// from a transport failure which surfaces as an error.
type Quote struct {
	Priced          bool   `json:"priced"`
	TotalMinorUnits int64  `json:"total_minor_units"`
	Currency        string `json:"currency"`
	Nights          int    `json:"nights"`
}

// ErrOracleUnreachable wraps transport and decode failures talking to the
// pricing service. Callers that batch-price absorb it per candidate.
var ErrOracleUnreachable = errors.New("pricing: oracle unreachable")

// Oracle prices a stay of the given length starting on start. Implementations
// must be safe for concurrent use; batch candidate pricing issues calls in
// parallel.
type Oracle interface {
	Quote(ctx context.Context, start time.Time, nights int) (Quote, error)
}
