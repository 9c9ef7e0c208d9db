package products

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/florezcook/orders-backend/pkg/db/models"
	"github.com/florezcook/orders-backend/pkg/logger"
	"github.com/florezcook/orders-backend/pkg/metrics"
	pkgredis "github.com/florezcook/orders-backend/pkg/redis"
)

// DefaultCatalogTTL bounds how stale the cached catalog may get when no
// product mutation invalidates it first.
const DefaultCatalogTTL = 5 * time.Minute

// CatalogEntry is the lightweight product record served to order forms.
type CatalogEntry struct {
	ID               uint64          `json:"id"`
	Code             string          `json:"code"`
	Reference        string          `json:"reference"`
	UnitWeightGrams  decimal.Decimal `json:"unit_weight_grams"`
	FormulationGroup string          `json:"formulation_group"`
	CategoryLine     string          `json:"category_line"`
}

func entryFromModel(p models.Product) CatalogEntry {
	return CatalogEntry{
		ID:               p.ID,
		Code:             p.Code,
		Reference:        p.Reference,
		UnitWeightGrams:  p.UnitWeightGrams,
		FormulationGroup: p.FormulationGroup,
		CategoryLine:     p.CategoryLine,
	}
}

// CatalogStore holds the cached snapshot. Load reports ok=false when there is
// no snapshot or it has expired.
type CatalogStore interface {
	Load(ctx context.Context) ([]CatalogEntry, bool, error)
	Save(ctx context.Context, entries []CatalogEntry, ttl time.Duration) error
	Clear(ctx context.Context) error
}

type catalogSource interface {
	List(ctx context.Context) ([]models.Product, error)
}

// Catalog is a read-through cache of the product list. It fills lazily on
// first read after expiry or invalidation and is always replaced whole.
// Concurrent refreshes may race; the last one to save wins.
type Catalog struct {
	source  catalogSource
	store   CatalogStore
	ttl     time.Duration
	metrics *metrics.CatalogMetrics
	logg    *logger.Logger
}

// CatalogParams wires a Catalog.
type CatalogParams struct {
	Source  catalogSource
	Store   CatalogStore
	TTL     time.Duration
	Metrics *metrics.CatalogMetrics
	Logger  *logger.Logger
}

func NewCatalog(p CatalogParams) (*Catalog, error) {
	if p.Source == nil {
		return nil, fmt.Errorf("catalog source required")
	}
	if p.Store == nil {
		p.Store = NewMemoryCatalogStore(nil)
	}
	if p.TTL <= 0 {
		p.TTL = DefaultCatalogTTL
	}
	if p.Logger == nil {
		p.Logger = logger.Nop()
	}
	return &Catalog{
		source:  p.Source,
		store:   p.Store,
		ttl:     p.TTL,
		metrics: p.Metrics,
		logg:    p.Logger,
	}, nil
}

// Entries returns the cached catalog, reloading it from the database when
// the snapshot is missing or expired.
func (c *Catalog) Entries(ctx context.Context) ([]CatalogEntry, error) {
	entries, ok, err := c.store.Load(ctx)
	if err != nil {
		// a broken cache backend degrades to direct reads
		c.metrics.Inc(metrics.CatalogError)
		c.logg.WarnErr(ctx, "catalog.cache_load_failed", err)
	} else if ok {
		c.metrics.Inc(metrics.CatalogHit)
		return entries, nil
	} else {
		c.metrics.Inc(metrics.CatalogMiss)
	}
	return c.refresh(ctx)
}

func (c *Catalog) refresh(ctx context.Context) ([]CatalogEntry, error) {
	rows, err := c.source.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("load catalog: %w", err)
	}
	entries := make([]CatalogEntry, 0, len(rows))
	for _, row := range rows {
		entries = append(entries, entryFromModel(row))
	}
	if err := c.store.Save(ctx, entries, c.ttl); err != nil {
		c.metrics.Inc(metrics.CatalogError)
		c.logg.WarnErr(ctx, "catalog.cache_save_failed", err)
	}
	c.metrics.Inc(metrics.CatalogRefresh)
	c.metrics.SetEntries(len(entries))
	return entries, nil
}

// Lookup returns the catalog entry for id, or nil when the product is unknown.
func (c *Catalog) Lookup(ctx context.Context, id uint64) (*CatalogEntry, error) {
	entries, err := c.Entries(ctx)
	if err != nil {
		return nil, err
	}
	for i := range entries {
		if entries[i].ID == id {
			entry := entries[i]
			return &entry, nil
		}
	}
	return nil, nil
}

// Invalidate drops the cached snapshot so the next read reloads it.
func (c *Catalog) Invalidate(ctx context.Context) error {
	c.metrics.Inc(metrics.CatalogInvalidate)
	if err := c.store.Clear(ctx); err != nil {
		return fmt.Errorf("invalidate catalog: %w", err)
	}
	return nil
}

type memoryCatalogStore struct {
	mu      sync.RWMutex
	entries []CatalogEntry
	expires time.Time
	now     func() time.Time
}

// NewMemoryCatalogStore keeps the snapshot in process memory. now may be nil.
func NewMemoryCatalogStore(now func() time.Time) CatalogStore {
	if now == nil {
		now = time.Now
	}
	return &memoryCatalogStore{now: now}
}

func (m *memoryCatalogStore) Load(context.Context) ([]CatalogEntry, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.entries == nil || !m.now().Before(m.expires) {
		return nil, false, nil
	}
	out := make([]CatalogEntry, len(m.entries))
	copy(out, m.entries)
	return out, true, nil
}

func (m *memoryCatalogStore) Save(_ context.Context, entries []CatalogEntry, ttl time.Duration) error {
	snapshot := make([]CatalogEntry, len(entries))
	copy(snapshot, entries)
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = snapshot
	m.expires = m.now().Add(ttl)
	return nil
}

func (m *memoryCatalogStore) Clear(context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = nil
	m.expires = time.Time{}
	return nil
}

type kvStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value any, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
}

type redisCatalogStore struct {
	kv  kvStore
	key string
}

// NewRedisCatalogStore shares the snapshot across API instances through
// Redis, using the key expiry as the TTL.
func NewRedisCatalogStore(kv kvStore, key string) CatalogStore {
	return &redisCatalogStore{kv: kv, key: key}
}

func (r *redisCatalogStore) Load(ctx context.Context) ([]CatalogEntry, bool, error) {
	raw, err := r.kv.Get(ctx, r.key)
	if err != nil {
		if pkgredis.IsNil(err) {
			return nil, false, nil
		}
		return nil, false, err
	}
	var entries []CatalogEntry
	if err := json.Unmarshal([]byte(raw), &entries); err != nil {
		return nil, false, fmt.Errorf("decode cached catalog: %w", err)
	}
	return entries, true, nil
}

func (r *redisCatalogStore) Save(ctx context.Context, entries []CatalogEntry, ttl time.Duration) error {
	if entries == nil {
		entries = []CatalogEntry{}
	}
	payload, err := json.Marshal(entries)
	if err != nil {
		return fmt.Errorf("encode catalog: %w", err)
	}
	return r.kv.Set(ctx, r.key, string(payload), ttl)
}

func (r *redisCatalogStore) Clear(ctx context.Context) error {
	return r.kv.Del(ctx, r.key)
}
