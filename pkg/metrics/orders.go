package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Submission outcomes recorded by OrderMetrics.
const (
	OutcomeCommitted         = "committed"
	OutcomeInvalid           = "invalid"
	OutcomeUnknownCustomer   = "unknown_customer"
	OutcomeDuplicateCustomer = "duplicate_customer"
	OutcomeCustomerFailed    = "customer_failed"
	OutcomeOrderFailed       = "order_failed"
)

// OrderMetrics records order submission outcomes and latency.
type OrderMetrics struct {
	submissions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lines       prometheus.Histogram
}

// NewOrderMetrics registers the order intake metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	submissions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_submissions_total",
		Help: "Order submissions by outcome.",
	}, []string{"outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_submission_duration_seconds",
		Help:    "Time spent validating and persisting an order submission.",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})
	lines := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "order_lines_per_order",
		Help:    "Number of lines on committed orders.",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})
	reg.MustRegister(submissions, duration, lines)
	return &OrderMetrics{
		submissions: submissions,
		duration:    duration,
		lines:       lines,
	}
}

// ObserveSubmission counts one submission and its duration under outcome.
func (m *OrderMetrics) ObserveSubmission(outcome string, duration time.Duration) {
	if m == nil || m.submissions == nil {
		return
	}
	label := normalizeLabel(outcome)
	m.submissions.WithLabelValues(label).Inc()
	m.duration.WithLabelValues(label).Observe(duration.Seconds())
}

// ObserveLines records the line count of a committed order.
func (m *OrderMetrics) ObserveLines(count int) {
	if m == nil || m.lines == nil {
		return
	}
	m.lines.Observe(float64(count))
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
