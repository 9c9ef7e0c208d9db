package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewOrderMetrics(reg)
	m.ObserveSubmission(OutcomeCommitted, 250*time.Millisecond)
	m.ObserveSubmission(OutcomeCommitted, 50*time.Millisecond)
	m.ObserveSubmission(OutcomeInvalid, time.Millisecond)
	m.ObserveSubmission("", time.Millisecond)
	m.ObserveLines(3)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "order_submissions_total", "outcome", OutcomeCommitted)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	got, err = fetchCounterValue(mfs, "order_submissions_total", "outcome", "unknown")
	require.NoError(t, err)
	assert.Equal(t, 1.0, got)

	sum, err := fetchHistogramSum(mfs, "order_submission_duration_seconds", "outcome", OutcomeCommitted)
	require.NoError(t, err)
	assert.InDelta(t, 0.3, sum, 0.0001)

	lines := findMetricFamily(mfs, "order_lines_per_order")
	require.NotNil(t, lines)
	assert.Equal(t, 3.0, lines.GetMetric()[0].GetHistogram().GetSampleSum())
}

func TestCatalogMetrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewCatalogMetrics(reg)
	m.Inc(CatalogMiss)
	m.Inc(CatalogHit)
	m.Inc(CatalogHit)
	m.SetEntries(12)

	mfs, err := reg.Gather()
	require.NoError(t, err)

	got, err := fetchCounterValue(mfs, "catalog_cache_events_total", "event", CatalogHit)
	require.NoError(t, err)
	assert.Equal(t, 2.0, got)

	gauge := findMetricFamily(mfs, "catalog_cache_entries")
	require.NotNil(t, gauge)
	assert.Equal(t, 12.0, gauge.GetMetric()[0].GetGauge().GetValue())
}

func TestNilMetricsAreSafe(t *testing.T) {
	var orders *OrderMetrics
	orders.ObserveSubmission(OutcomeCommitted, time.Second)
	orders.ObserveLines(1)
	NewOrderMetrics(nil).ObserveSubmission(OutcomeInvalid, time.Second)

	var catalog *CatalogMetrics
	catalog.Inc(CatalogHit)
	catalog.SetEntries(1)
	NewCatalogMetrics(nil).Inc(CatalogMiss)
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetCounter().GetValue(), nil
		}
	}
	return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
