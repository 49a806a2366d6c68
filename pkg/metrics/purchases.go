package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
)

// PurchaseMetrics tracks the cashier write path.
type PurchaseMetrics struct {
	created  *prometheus.CounterVec
	amount   prometheus.Histogram
	failures *prometheus.CounterVec
}

// NewPurchaseMetrics registers purchase metrics on reg. A nil registerer
// yields a no-op recorder.
func NewPurchaseMetrics(reg prometheus.Registerer) *PurchaseMetrics {
	if reg == nil {
		return &PurchaseMetrics{}
	}
	created := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchases_created_total",
		Help: "Purchases committed to the ledger.",
	}, []string{"new_customer"})
	amount := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "purchase_amount",
		Help:    "Purchase totals in store currency.",
		Buckets: []float64{1, 5, 10, 25, 50, 100, 250, 500},
	})
	failures := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "purchase_failures_total",
		Help: "Rejected or failed purchase attempts.",
	}, []string{"reason"})
	reg.MustRegister(created, amount, failures)
	return &PurchaseMetrics{created: created, amount: amount, failures: failures}
}

// ObserveCreated records a committed purchase.
func (m *PurchaseMetrics) ObserveCreated(newCustomer bool, total float64) {
	if m == nil || m.created == nil {
		return
	}
	m.created.WithLabelValues(strconv.FormatBool(newCustomer)).Inc()
	m.amount.Observe(total)
}

// IncFailure counts a purchase that did not commit.
func (m *PurchaseMetrics) IncFailure(reason string) {
	if m == nil || m.failures == nil {
		return
	}
	m.failures.WithLabelValues(normalizeLabel(reason)).Inc()
}
