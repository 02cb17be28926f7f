package pricing

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/duneview/booking-assistant/internal/observability/metrics"
	"github.com/duneview/booking-assistant/pkg/logging"
)

const defaultTimeout = 2 * time.Second

// rateRow is one row of the oracle's rate table for a start date.
type rateRow struct {
	Days     int   `json:"days"`
	Cost     int64 `json:"cost"`
	Discount int64 `json:"discount"`
}

type rateResponse struct {
	Currency string    `json:"currency"`
	Rates    []rateRow `json:"rates"`
}

// Client queries the pricing oracle over HTTP and caches successful
// responses for a short TTL to absorb bursts of narrowing queries.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	cache      *quoteCache
	logger     *logging.Logger
	metrics    *metrics.PricingMetrics
}

// ClientOption is a functional option for configuring the Client.
type ClientOption func(*Client)

// WithHTTPClient sets a custom HTTP client (also controls the per-call timeout).
func WithHTTPClient(client *http.Client) ClientOption {
	return func(c *Client) { c.httpClient = client }
}

// WithLogger sets a custom logger.
func WithLogger(logger *logging.Logger) ClientOption {
	return func(c *Client) { c.logger = logger }
}

// WithCacheTTL overrides the quote cache TTL.
func WithCacheTTL(ttl time.Duration) ClientOption {
	return func(c *Client) { c.cache = newQuoteCache(ttl) }
}

// WithMetrics attaches pricing metrics.
func WithMetrics(m *metrics.PricingMetrics) ClientOption {
	return func(c *Client) { c.metrics = m }
}

// WithAPIKey sends the oracle's API key on every request.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) { c.apiKey = key }
}

// NewClient creates a pricing oracle client.
func NewClient(baseURL string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: defaultTimeout},
		cache:      newQuoteCache(defaultCacheTTL),
		logger:     logging.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Quote issues one oracle query for the stay and selects the rate row whose
// length exactly equals nights. No exact-length row means Priced=false with
// a nil error; only a malformed or unreachable service returns an error.
func (c *Client) Quote(ctx context.Context, start time.Time, nights int) (Quote, error) {
	key := cacheKey(start, nights)
	if q, ok := c.cache.get(key); ok {
		c.metrics.ObserveCache("hit")
		return q, nil
	}
	c.metrics.ObserveCache("miss")

	began := time.Now()
	resp, err := c.fetchRates(ctx, start, nights)
	if err != nil {
		c.metrics.ObserveOracle("error", time.Since(began).Seconds())
		return Quote{}, err
	}

	quote := selectExactLength(resp, nights)
	outcome := "unpriced"
	if quote.Priced {
		outcome = "priced"
	}
	c.metrics.ObserveOracle(outcome, time.Since(began).Seconds())

	c.cache.put(key, quote)
	return quote, nil
}

func (c *Client) fetchRates(ctx context.Context, start time.Time, nights int) (*rateResponse, error) {
	q := url.Values{}
	q.Set("start", start.Format("2006-01-02"))
	q.Set("nights", strconv.Itoa(nights))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/rates?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pricing: create request: %w", err)
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrOracleUnreachable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", ErrOracleUnreachable, resp.StatusCode)
	}

	var rates rateResponse
	if err := json.NewDecoder(resp.Body).Decode(&rates); err != nil {
		return nil, fmt.Errorf("%w: decode response: %v", ErrOracleUnreachable, err)
	}
	return &rates, nil
}

// selectExactLength applies the exact-length policy: accept only the row
// whose length equals the requested nights. Rate tables are not a smooth
// function of stay length, so no interpolation across lengths.
func selectExactLength(resp *rateResponse, nights int) Quote {
	for _, row := range resp.Rates {
		if row.Days != nights {
			continue
		}
		total := row.Cost - row.Discount
		if total < 0 {
			total = 0
		}
		return Quote{
			Priced:          true,
			TotalMinorUnits: total,
			Currency:        resp.Currency,
			Nights:          nights,
		}
	}
	return Quote{Nights: nights}
}

func cacheKey(start time.Time, nights int) string {
	return start.Format("2006-01-02") + "/" + strconv.Itoa(nights)
}
