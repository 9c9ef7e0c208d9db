package products

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/metrics"
)

type stubSource struct {
	calls int
	rows  []models.Product
	err   error
}

func (s *stubSource) List(context.Context) ([]models.Product, error) {
	s.calls++
	return s.rows, s.err
}

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func sampleRows() []models.Product {
	return []models.Product{
		{ID: 1, Code: "P-1", Reference: "Chorizo", UnitWeightGrams: decimal.NewFromInt(250), FormulationGroup: "F1", CategoryLine: "Carnicos"},
		{ID: 2, Code: "P-2", Reference: "Salchicha", UnitWeightGrams: decimal.RequireFromString("125.5")},
	}
}

func TestCatalogFillsLazilyAndExpires(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 5, 8, 0, 0, 0, time.UTC)}
	source := &stubSource{rows: sampleRows()}
	catalog, err := NewCatalog(CatalogParams{
		Source: source,
		Store:  NewMemoryCatalogStore(clock.Now),
		TTL:    time.Minute,
	})
	require.NoError(t, err)
	ctx := context.Background()

	assert.Zero(t, source.calls)
	entries, err := catalog.Entries(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, 1, source.calls)

	_, err = catalog.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, source.calls)

	clock.now = clock.now.Add(time.Minute)
	_, err = catalog.Entries(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, source.calls)
}

func TestCatalogInvalidateForcesReload(t *testing.T) {
	source := &stubSource{rows: sampleRows()}
	catalog, err := NewCatalog(CatalogParams{Source: source})
	require.NoError(t, err)
	ctx := context.Background()

	_, err = catalog.Entries(ctx)
	require.NoError(t, err)

	source.rows = source.rows[:1]
	require.NoError(t, catalog.Invalidate(ctx))
	entries, err := catalog.Entries(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
	assert.Equal(t, 2, source.calls)
}

func TestCatalogLookup(t *testing.T) {
	catalog, err := NewCatalog(CatalogParams{Source: &stubSource{rows: sampleRows()}})
	require.NoError(t, err)
	ctx := context.Background()

	entry, err := catalog.Lookup(ctx, 2)
	require.NoError(t, err)
	require.NotNil(t, entry)
	assert.Equal(t, "Salchicha", entry.Reference)
	assert.True(t, entry.UnitWeightGrams.Equal(decimal.RequireFromString("125.5")))

	entry, err = catalog.Lookup(ctx, 99)
	require.NoError(t, err)
	assert.Nil(t, entry)
}

func TestCatalogSourceErrorPropagates(t *testing.T) {
	catalog, err := NewCatalog(CatalogParams{Source: &stubSource{err: errors.New("db down")}})
	require.NoError(t, err)
	_, err = catalog.Entries(context.Background())
	require.Error(t, err)
}

func TestCatalogCountsCacheEvents(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewCatalogMetrics(reg)
	catalog, err := NewCatalog(CatalogParams{Source: &stubSource{rows: sampleRows()}, Metrics: m})
	require.NoError(t, err)
	ctx := context.Background()

	_, _ = catalog.Entries(ctx)
	_, _ = catalog.Entries(ctx)
	_ = catalog.Invalidate(ctx)

	families, err := reg.Gather()
	require.NoError(t, err)
	counts := map[string]float64{}
	var entries float64
	for _, family := range families {
		switch family.GetName() {
		case "catalog_cache_events_total":
			for _, metric := range family.GetMetric() {
				counts[metric.GetLabel()[0].GetValue()] = metric.GetCounter().GetValue()
			}
		case "catalog_cache_entries":
			entries = family.GetMetric()[0].GetGauge().GetValue()
		}
	}
	assert.Equal(t, float64(1), counts[metrics.CatalogMiss])
	assert.Equal(t, float64(1), counts[metrics.CatalogHit])
	assert.Equal(t, float64(1), counts[metrics.CatalogRefresh])
	assert.Equal(t, float64(1), counts[metrics.CatalogInvalidate])
	assert.Equal(t, float64(2), entries)
}

type memoryKV struct {
	values map[string]string
	ttls   map[string]time.Duration
	getErr error
}

func newMemoryKV() *memoryKV {
	return &memoryKV{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (m *memoryKV) Get(_ context.Context, key string) (string, error) {
	if m.getErr != nil {
		return "", m.getErr
	}
	value, ok := m.values[key]
	if !ok {
		return "", redis.Nil
	}
	return value, nil
}

func (m *memoryKV) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	m.values[key] = value.(string)
	m.ttls[key] = ttl
	return nil
}

func (m *memoryKV) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(m.values, key)
	}
	return nil
}

func TestRedisCatalogStoreRoundTrip(t *testing.T) {
	kv := newMemoryKV()
	store := NewRedisCatalogStore(kv, "fc:cache:catalog:products")
	ctx := context.Background()

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	entries := []CatalogEntry{entryFromModel(sampleRows()[0])}
	require.NoError(t, store.Save(ctx, entries, 5*time.Minute))
	assert.Equal(t, 5*time.Minute, kv.ttls["fc:cache:catalog:products"])

	loaded, ok, err := store.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Len(t, loaded, 1)
	assert.Equal(t, "P-1", loaded[0].Code)
	assert.True(t, loaded[0].UnitWeightGrams.Equal(decimal.NewFromInt(250)))

	require.NoError(t, store.Clear(ctx))
	_, ok, err = store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestCatalogFallsBackWhenStoreFails(t *testing.T) {
	kv := newMemoryKV()
	kv.getErr = errors.New("connection refused")
	source := &stubSource{rows: sampleRows()}
	catalog, err := NewCatalog(CatalogParams{Source: source, Store: NewRedisCatalogStore(kv, "catalog")})
	require.NoError(t, err)

	entries, err := catalog.Entries(context.Background())
	require.NoError(t, err)
	assert.Len(t, entries, 2)
	assert.Equal(t, 1, source.calls)
}
