package metrics

import "github.com/prometheus/client_golang/prometheus"

// PricingMetrics exposes counters/histograms for pricing-oracle traffic.
type PricingMetrics struct {
	oracleTotal  *prometheus.CounterVec
	cacheTotal   *prometheus.CounterVec
	quoteLatency prometheus.Histogram
}

func NewPricingMetrics(reg prometheus.Registerer) *PricingMetrics {
	m := &PricingMetrics{
		oracleTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "pricing",
			Name:      "oracle_requests_total",
			Help:      "Total pricing oracle queries by outcome",
		}, []string{"outcome"}),
		cacheTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "pricing",
			Name:      "quote_cache_total",
			Help:      "Quote cache lookups by result",
		}, []string{"result"}),
		quoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "booking",
			Subsystem: "pricing",
			Name:      "oracle_latency_seconds",
			Help:      "Latency of pricing oracle queries",
			Buckets:   prometheus.DefBuckets,
		}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.oracleTotal, m.cacheTotal, m.quoteLatency)
	return m
}

// ObserveOracle records one oracle query. Outcome is one of
// "priced", "unpriced", "error".
func (m *PricingMetrics) ObserveOracle(outcome string, seconds float64) {
	if m == nil {
		return
	}
	m.oracleTotal.WithLabelValues(outcome).Inc()
	m.quoteLatency.Observe(seconds)
}

// ObserveCache records a quote cache lookup. Result is "hit" or "miss".
func (m *PricingMetrics) ObserveCache(result string) {
	if m == nil {
		return
	}
	m.cacheTotal.WithLabelValues(result).Inc()
}

// ConversationMetrics counts narrowing-session activity.
type ConversationMetrics struct {
	turnsTotal *prometheus.CounterVec
}

func NewConversationMetrics(reg prometheus.Registerer) *ConversationMetrics {
	m := &ConversationMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "booking",
			Subsystem: "conversation",
			Name:      "turns_total",
			Help:      "Conversation turns by resulting state",
		}, []string{"state"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal)
	return m
}

// ObserveTurn records one state-machine turn landing in the given state.
func (m *ConversationMetrics) ObserveTurn(state string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state).Inc()
}
