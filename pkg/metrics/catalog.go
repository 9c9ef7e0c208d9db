package metrics

import "github.com/prometheus/client_golang/prometheus"

const (
	CatalogHit        = "hit"
	CatalogMiss       = "miss"
	CatalogRefresh    = "refresh"
	CatalogInvalidate = "invalidate"
	CatalogError      = "error"
)

// CatalogMetrics counts product catalog cache events.
type CatalogMetrics struct {
	events  *prometheus.CounterVec
	entries prometheus.Gauge
}

// NewCatalogMetrics registers the catalog cache metrics on the provided registerer.
func NewCatalogMetrics(reg prometheus.Registerer) *CatalogMetrics {
	if reg == nil {
		return &CatalogMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_cache_events_total",
		Help: "Product catalog cache events by kind.",
	}, []string{"event"})
	entries := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_cache_entries",
		Help: "Products held by the last catalog refresh.",
	})
	reg.MustRegister(events, entries)
	return &CatalogMetrics{events: events, entries: entries}
}

func (m *CatalogMetrics) Inc(event string) {
	if m == nil || m.events == nil {
		return
	}
	m.events.WithLabelValues(normalizeLabel(event)).Inc()
}

func (m *CatalogMetrics) SetEntries(n int) {
	if m == nil || m.entries == nil {
		return
	}
	m.entries.Set(float64(n))
}
