package store

import (
	"context"
	"sync"
	"time"

	"github.com/2beens/teamcondition/internal/condition/records"

	log "github.com/sirupsen/logrus"
)

const DefaultCacheTTL = 5 * time.Minute

// SnapshotCache stores the last fetched snapshot per tenant. Freshness is
// decided by CachedStore from Snapshot.FetchedAt, not by the cache.
type SnapshotCache interface {
	Get(ctx context.Context, tenant string) (*records.Snapshot, bool, error)
	Set(ctx context.Context, snap *records.Snapshot) error
	Delete(ctx context.Context, tenant string) error
}

// CachedStore serves snapshots from a SnapshotCache while they are younger
// than the ttl and refetches from the wrapped store otherwise.
type CachedStore struct {
	store    RecordStore
	cache    SnapshotCache
	ttl      time.Duration
	observer FetchObserver
	now      func() time.Time

	// serializes refetches so concurrent misses hit the store once
	fetchMu sync.Mutex
}

type CachedStoreOption func(*CachedStore)

func WithObserver(o FetchObserver) CachedStoreOption {
	return func(c *CachedStore) {
		c.observer = o
	}
}

func WithClock(now func() time.Time) CachedStoreOption {
	return func(c *CachedStore) {
		c.now = now
	}
}

func NewCachedStore(store RecordStore, cache SnapshotCache, ttl time.Duration, opts ...CachedStoreOption) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	c := &CachedStore{
		store: store,
		cache: cache,
		ttl:   ttl,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *CachedStore) Source() string {
	return c.store.Source()
}

func (c *CachedStore) TTL() time.Duration {
	return c.ttl
}

func (c *CachedStore) FetchAll(ctx context.Context, tenant string) (*records.Snapshot, error) {
	if snap, ok := c.lookup(ctx, tenant, true); ok {
		return snap, nil
	}

	c.fetchMu.Lock()
	defer c.fetchMu.Unlock()

	// another caller may have refreshed the entry while we waited
	if snap, ok := c.lookup(ctx, tenant, false); ok {
		return snap, nil
	}

	start := c.now()
	snap, err := c.store.FetchAll(ctx, tenant)
	if c.observer != nil {
		c.observer.ObserveFetch(c.store.Source(), c.now().Sub(start), err)
	}
	if err != nil {
		return nil, err
	}

	snap.FetchedAt = c.now()
	if err := c.cache.Set(ctx, snap); err != nil {
		log.Warnf("snapshot cache: store tenant [%s]: %s", tenant, err)
	}
	return snap, nil
}

func (c *CachedStore) lookup(ctx context.Context, tenant string, observe bool) (*records.Snapshot, bool) {
	result := "miss"
	defer func() {
		if observe && c.observer != nil {
			c.observer.ObserveCache(result)
		}
	}()

	snap, found, err := c.cache.Get(ctx, tenant)
	if err != nil {
		log.Warnf("snapshot cache: get tenant [%s]: %s", tenant, err)
		return nil, false
	}
	if !found || snap == nil {
		return nil, false
	}
	if c.now().Sub(snap.FetchedAt) >= c.ttl {
		result = "expired"
		return nil, false
	}

	result = "hit"
	return snap, true
}

// Invalidate drops the cached snapshot so the next FetchAll reads the store.
func (c *CachedStore) Invalidate(ctx context.Context, tenant string) error {
	return c.cache.Delete(ctx, tenant)
}

// MemorySnapshotCache keeps snapshots in process memory.
type MemorySnapshotCache struct {
	mu        sync.RWMutex
	snapshots map[string]*records.Snapshot
}

func NewMemorySnapshotCache() *MemorySnapshotCache {
	return &MemorySnapshotCache{
		snapshots: make(map[string]*records.Snapshot),
	}
}

func (m *MemorySnapshotCache) Get(_ context.Context, tenant string) (*records.Snapshot, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	snap, ok := m.snapshots[tenant]
	return snap, ok, nil
}

func (m *MemorySnapshotCache) Set(_ context.Context, snap *records.Snapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshots[snap.Tenant] = snap
	return nil
}

func (m *MemorySnapshotCache) Delete(_ context.Context, tenant string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.snapshots, tenant)
	return nil
}
