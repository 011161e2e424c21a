package keywords

import (
	"sync"
	"time"
)

// CacheStore holds aggregated corpora between recomputations. The store is
// injected so single-instance deployments can use the in-process map while
// horizontally scaled deployments plug in a shared backend.
type CacheStore interface {
	// Get returns the cached corpus and its expiry, or ok=false on miss.
	Get(key string) (c *Corpus, expiresAt time.Time, ok bool)
	Set(key string, c *Corpus, expiresAt time.Time)
	Delete(key string)
	Clear()
}

// MemoryCache is the in-process CacheStore. Safe for concurrent use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	corpus    *Corpus
	expiresAt time.Time
}

// NewMemoryCache creates an empty in-process cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Get(key string) (*Corpus, time.Time, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	e, ok := m.entries[key]
	if !ok {
		return nil, time.Time{}, false
	}
	return e.corpus, e.expiresAt, true
}

func (m *MemoryCache) Set(key string, c *Corpus, expiresAt time.Time) {
	m.mu.Lock()
	m.entries[key] = memoryEntry{corpus: c, expiresAt: expiresAt}
	m.mu.Unlock()
}

func (m *MemoryCache) Delete(key string) {
	m.mu.Lock()
	delete(m.entries, key)
	m.mu.Unlock()
}

func (m *MemoryCache) Clear() {
	m.mu.Lock()
	m.entries = make(map[string]memoryEntry)
	m.mu.Unlock()
}
