package cache

import (
	"context"
	"courier-tracking-service/internal/domain"
	"sync"
	"time"
)

// MemoryRouteCache is a process-local RouteCacheStore.
// Expired entries are dropped on the next lookup of the same key.
// The store is safe for concurrent use.
type MemoryRouteCache struct {
	mu      sync.RWMutex
	entries map[string]domain.CachedRoute
	now     func() time.Time
}

func NewMemoryRouteCache(now func() time.Time) *MemoryRouteCache {
	if now == nil {
		now = time.Now
	}
	return &MemoryRouteCache{
		entries: make(map[string]domain.CachedRoute),
		now:     now,
	}
}

func (m *MemoryRouteCache) Get(_ context.Context, key string) (*domain.CachedRoute, bool, error) {
	m.mu.RLock()
	entry, ok := m.entries[key]
	m.mu.RUnlock()

	if !ok {
		return nil, false, nil
	}

	if !m.now().Before(entry.ExpiresAt) {
		m.mu.Lock()
		// Re-check: a concurrent Put may have refreshed the key.
		if cur, ok := m.entries[key]; ok && !m.now().Before(cur.ExpiresAt) {
			delete(m.entries, key)
		}
		m.mu.Unlock()
		return nil, false, nil
	}

	return &entry, true, nil
}

func (m *MemoryRouteCache) Put(_ context.Context, key string, entry domain.CachedRoute) error {
	m.mu.Lock()
	m.entries[key] = entry
	m.mu.Unlock()
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryRouteCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
