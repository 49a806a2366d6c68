package metrics

import "github.com/prometheus/client_golang/prometheus"

// Cache outcomes used as the "cache" label.
const (
	CacheHit      = "hit"
	CacheMiss     = "miss"
	CacheDisabled = "disabled"
)

// AnalyticsMetrics counts dashboard aggregate queries.
type AnalyticsMetrics struct {
	queries *prometheus.CounterVec
}

func NewAnalyticsMetrics(reg prometheus.Registerer) *AnalyticsMetrics {
	if reg == nil {
		return &AnalyticsMetrics{}
	}
	queries := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_queries_total",
		Help: "Dashboard aggregate queries by query and cache outcome.",
	}, []string{"query", "cache"})
	reg.MustRegister(queries)
	return &AnalyticsMetrics{queries: queries}
}

// IncQuery counts one aggregate evaluation.
func (m *AnalyticsMetrics) IncQuery(query, cache string) {
	if m == nil || m.queries == nil {
		return
	}
	m.queries.WithLabelValues(normalizeLabel(query), normalizeLabel(cache)).Inc()
}
