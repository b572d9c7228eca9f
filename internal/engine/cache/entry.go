package cache

import (
	"encoding/json"
	"time"
)

// CacheEntry represents a single cached value with TTL metadata.
//
//nolint:revive // CacheEntry is the canonical name for this exported type.
type CacheEntry struct {
	// Key is the cache key (SHA256 hash of request parameters).
	Key string

	// Data is the cached value, JSON encoded.
	Data json.RawMessage

	// CreatedAt is when the entry was stored.
	CreatedAt time.Time

	// ExpiresAt is when the entry stops being fresh.
	ExpiresAt time.Time

	// TTL is the freshness window the entry was stored with.
	TTL time.Duration
}

// NewCacheEntry creates an entry created at now and fresh for ttl.
func NewCacheEntry(key string, data json.RawMessage, ttl time.Duration, now time.Time) *CacheEntry {
	return &CacheEntry{
		Key:       key,
		Data:      data,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
		TTL:       ttl,
	}
}

// IsExpiredAt reports whether the entry is stale at the given instant.
func (e *CacheEntry) IsExpiredAt(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// Age returns the duration since the entry was created.
func (e *CacheEntry) Age() time.Duration {
	return time.Since(e.CreatedAt)
}

// Decode unmarshals the cached value into v.
func (e *CacheEntry) Decode(v any) error {
	return json.Unmarshal(e.Data, v)
}
