package pricing

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func mustDate(t *testing.T, s string) time.Time {
	t.Helper()
	d, err := time.Parse("2006-01-02", s)
	require.NoError(t, err)
	return d
}

// newOracleServer serves a fixed rate table for every start date and counts
// the requests it receives.
func newOracleServer(t *testing.T, calls *atomic.Int64, body string) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls != nil {
			calls.Add(1)
		}
		require.Equal(t, "/rates", r.URL.Path)
		require.NotEmpty(t, r.URL.Query().Get("start"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(body))
	}))
}

const rateTable = `{
	"currency": "EUR",
	"rates": [
		{"days": 5, "cost": 50000, "discount": 0},
		{"days": 7, "cost": 70000, "discount": 5000}
	]
}`

func TestQuoteExactLengthOnly(t *testing.T) {
	srv := newOracleServer(t, nil, rateTable)
	defer srv.Close()

	client := NewClient(srv.URL)
	start := mustDate(t, "2026-08-07")

	t.Run("exact match applies discount", func(t *testing.T) {
		q, err := client.Quote(context.Background(), start, 7)
		require.NoError(t, err)
		assert.True(t, q.Priced)
		assert.Equal(t, int64(65000), q.TotalMinorUnits)
		assert.Equal(t, "EUR", q.Currency)
	})

	t.Run("no interpolation between lengths", func(t *testing.T) {
		q, err := client.Quote(context.Background(), start, 6)
		require.NoError(t, err)
		assert.False(t, q.Priced, "6 nights has no exact row and must not be priced from the 5- or 7-night rows")
	})

	t.Run("negative totals clamp to zero", func(t *testing.T) {
		over := newOracleServer(t, nil, `{"currency":"EUR","rates":[{"days":3,"cost":100,"discount":900}]}`)
		defer over.Close()
		q, err := NewClient(over.URL).Quote(context.Background(), start, 3)
		require.NoError(t, err)
		assert.True(t, q.Priced)
		assert.Equal(t, int64(0), q.TotalMinorUnits)
	})
}

func TestQuoteCaching(t *testing.T) {
	var calls atomic.Int64
	srv := newOracleServer(t, &calls, rateTable)
	defer srv.Close()

	client := NewClient(srv.URL, WithCacheTTL(time.Minute))
	start := mustDate(t, "2026-08-07")

	_, err := client.Quote(context.Background(), start, 7)
	require.NoError(t, err)
	_, err = client.Quote(context.Background(), start, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(1), calls.Load(), "second quote should be served from cache")

	// Different length is a different cache key.
	_, err = client.Quote(context.Background(), start, 5)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestQuoteCacheExpiry(t *testing.T) {
	var calls atomic.Int64
	srv := newOracleServer(t, &calls, rateTable)
	defer srv.Close()

	client := NewClient(srv.URL, WithCacheTTL(time.Minute))
	start := mustDate(t, "2026-08-07")

	_, err := client.Quote(context.Background(), start, 7)
	require.NoError(t, err)

	// Advance the cache clock past the TTL.
	base := time.Now()
	client.cache.now = func() time.Time { return base.Add(2 * time.Minute) }

	_, err = client.Quote(context.Background(), start, 7)
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load(), "expired entry must be refetched")
}

func TestQuoteUnreachableOracle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL).Quote(context.Background(), mustDate(t, "2026-08-07"), 7)
	require.ErrorIs(t, err, ErrOracleUnreachable)

	// A dead endpoint is also unreachable, not unpriced.
	srv.Close()
	_, err = NewClient(srv.URL).Quote(context.Background(), mustDate(t, "2026-08-08"), 7)
	require.ErrorIs(t, err, ErrOracleUnreachable)
}

func TestQuoteTimeout(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(200 * time.Millisecond):
		}
		_, _ = w.Write([]byte(rateTable))
	}))
	defer slow.Close()

	client := NewClient(slow.URL, WithHTTPClient(&http.Client{Timeout: 20 * time.Millisecond}))
	_, err := client.Quote(context.Background(), mustDate(t, "2026-08-07"), 7)
	require.ErrorIs(t, err, ErrOracleUnreachable)
}

func TestQuoteMalformedResponse(t *testing.T) {
	srv := newOracleServer(t, nil, `{"currency": "EUR", "rates": [`)
	defer srv.Close()

	_, err := NewClient(srv.URL).Quote(context.Background(), mustDate(t, "2026-08-07"), 7)
	require.ErrorIs(t, err, ErrOracleUnreachable)
}
