package cache

import (
	"container/list"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// DefaultMaxEntries bounds the number of cached responses.
const DefaultMaxEntries = 256

// Common cache errors.
var (
	ErrCacheNotFound   = errors.New("cache entry not found")
	ErrCacheExpired    = errors.New("cache entry expired")
	ErrInvalidCacheKey = errors.New("cache key cannot be empty")
	ErrCacheDisabled   = errors.New("cache is disabled")
	ErrInvalidCapacity = errors.New("cache max entries must be >= 1")
)

// Stats counts cache traffic since the store was created or cleared.
type Stats struct {
	Hits      uint64
	Misses    uint64
	Expired   uint64
	Evictions uint64
}

// MemoryStore is an in-memory cache with per-entry TTL and LRU eviction.
// Thread-safe for concurrent access.
type MemoryStore struct {
	enabled    bool
	ttl        time.Duration
	maxEntries int

	// entries indexes elements of order by key; order front is most recent.
	entries map[string]*list.Element
	order   *list.List

	now   func() time.Time
	stats Stats

	mu sync.Mutex
}

// NewMemoryStore creates an in-memory cache store.
func NewMemoryStore(enabled bool, ttl time.Duration, maxEntries int) (*MemoryStore, error) {
	if !enabled {
		return &MemoryStore{enabled: false, now: time.Now}, nil
	}

	if maxEntries < 1 {
		return nil, ErrInvalidCapacity
	}

	return &MemoryStore{
		enabled:    true,
		ttl:        ttl,
		maxEntries: maxEntries,
		entries:    make(map[string]*list.Element),
		order:      list.New(),
		now:        time.Now,
	}, nil
}

// Get retrieves a fresh cache entry by key.
// Returns ErrCacheNotFound if the entry doesn't exist.
// Returns ErrCacheExpired if the entry is stale; the entry is evicted.
func (s *MemoryStore) Get(key string) (*CacheEntry, error) {
	if !s.enabled {
		return nil, ErrCacheDisabled
	}

	if key == "" {
		return nil, ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	elem, ok := s.entries[key]
	if !ok {
		s.stats.Misses++
		return nil, ErrCacheNotFound
	}

	entry, _ := elem.Value.(*CacheEntry)
	if entry.IsExpiredAt(s.now()) {
		s.removeElement(elem)
		s.stats.Expired++
		return nil, ErrCacheExpired
	}

	s.order.MoveToFront(elem)
	s.stats.Hits++

	cp := *entry
	return &cp, nil
}

// SetWithTTL stores data under key, overwriting any existing entry, and
// evicts the least recently used entries beyond capacity.
func (s *MemoryStore) SetWithTTL(key string, data json.RawMessage, ttl time.Duration) error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	if key == "" {
		return ErrInvalidCacheKey
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entry := NewCacheEntry(key, data, ttl, s.now())

	if elem, ok := s.entries[key]; ok {
		elem.Value = entry
		s.order.MoveToFront(elem)
		return nil
	}

	s.entries[key] = s.order.PushFront(entry)
	for s.order.Len() > s.maxEntries {
		s.removeElement(s.order.Back())
		s.stats.Evictions++
	}

	return nil
}

// Clear removes all cache entries and resets statistics.
func (s *MemoryStore) Clear() error {
	if !s.enabled {
		return ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries = make(map[string]*list.Element)
	s.order.Init()
	s.stats = Stats{}
	return nil
}

// Size returns the total payload size of the cache in bytes.
func (s *MemoryStore) Size() (int64, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var total int64
	for elem := s.order.Front(); elem != nil; elem = elem.Next() {
		entry, _ := elem.Value.(*CacheEntry)
		total += int64(len(entry.Data))
	}
	return total, nil
}

// Count returns the number of cache entries (including expired ones).
func (s *MemoryStore) Count() (int, error) {
	if !s.enabled {
		return 0, ErrCacheDisabled
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.order.Len(), nil
}

// Stats returns a copy of the traffic counters.
func (s *MemoryStore) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// IsEnabled returns true if caching is enabled.
func (s *MemoryStore) IsEnabled() bool {
	return s.enabled
}

// GetTTL returns the default TTL.
func (s *MemoryStore) GetTTL() time.Duration {
	return s.ttl
}

// GetMaxEntries returns the LRU capacity.
func (s *MemoryStore) GetMaxEntries() int {
	return s.maxEntries
}

// removeElement must be called with mu held.
func (s *MemoryStore) removeElement(elem *list.Element) {
	entry, _ := s.order.Remove(elem).(*CacheEntry)
	delete(s.entries, entry.Key)
}
