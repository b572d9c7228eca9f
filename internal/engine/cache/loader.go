package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/rshade/multiverse/internal/logging"
)

// Store is the subset of MemoryStore the loader needs.
type Store interface {
	Get(key string) (*CacheEntry, error)
	SetWithTTL(key string, data json.RawMessage, ttl time.Duration) error
	IsEnabled() bool
}

// FetchFunc produces a value on a cache miss. cacheable=false keeps the value
// out of the cache (used for partial results).
type FetchFunc[T any] func(ctx context.Context) (value T, cacheable bool, err error)

// Loader is a read-through cache in front of a Store. Concurrent loads of the
// same key share one FetchFunc call, which runs without the callers'
// cancellation so one caller leaving does not fail the rest.
type Loader struct {
	store Store
	group singleflight.Group
}

// NewLoader wraps store. A nil store behaves like a disabled cache.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// flightResult is what one shared fetch hands to every waiter.
type flightResult struct {
	data      json.RawMessage
	cacheable bool
}

// Load returns the cached value for key when fresh, otherwise calls fetch,
// stores the result for ttl and returns it. hit reports a cache hit. Errors
// are never cached. Each caller decodes its own copy of the value.
func Load[T any](ctx context.Context, l *Loader, key string, ttl time.Duration, fetch FetchFunc[T]) (T, bool, error) {
	var zero T
	log := logging.FromContext(ctx)

	enabled := l.store != nil && l.store.IsEnabled()
	if enabled {
		entry, err := l.store.Get(key)
		switch {
		case err == nil:
			var v T
			if decodeErr := entry.Decode(&v); decodeErr == nil {
				log.Debug().Ctx(ctx).
					Str("component", "cache").
					Str("operation", "load").
					Str("key", shortKey(key)).
					Dur("age", entry.Age()).
					Msg("cache hit")
				return v, true, nil
			}
		case errors.Is(err, ErrCacheExpired):
			log.Debug().Ctx(ctx).
				Str("component", "cache").
				Str("operation", "load").
				Str("key", shortKey(key)).
				Msg("cache entry stale, refetching")
		}
	}

	if err := ctx.Err(); err != nil {
		return zero, false, err
	}

	// The shared fetch outlives any one caller: a canceled waiter returns
	// early while the others still get the value.
	flightCtx := context.WithoutCancel(ctx)
	ch := l.group.DoChan(key, func() (interface{}, error) {
		v, cacheable, fetchErr := fetch(flightCtx)
		if fetchErr != nil {
			return nil, fetchErr
		}
		data, marshalErr := json.Marshal(v)
		if marshalErr != nil {
			return nil, fmt.Errorf("failed to encode cache value: %w", marshalErr)
		}
		if enabled && cacheable {
			if setErr := l.store.SetWithTTL(key, data, ttl); setErr != nil {
				log.Warn().Ctx(flightCtx).
					Str("component", "cache").
					Str("operation", "store").
					Err(setErr).
					Msg("failed to store cache entry")
			}
		}
		return flightResult{data: data, cacheable: cacheable}, nil
	})

	var flight singleflight.Result
	select {
	case <-ctx.Done():
		return zero, false, ctx.Err()
	case flight = <-ch:
	}
	if flight.Err != nil {
		return zero, false, flight.Err
	}
	raw, shared := flight.Val, flight.Shared

	res, _ := raw.(flightResult)
	var v T
	if decodeErr := json.Unmarshal(res.data, &v); decodeErr != nil {
		return zero, false, fmt.Errorf("failed to decode cache value: %w", decodeErr)
	}

	log.Debug().Ctx(ctx).
		Str("component", "cache").
		Str("operation", "load").
		Str("key", shortKey(key)).
		Bool("shared", shared).
		Bool("cached", enabled && res.cacheable).
		Msg("cache miss")
	return v, false, nil
}

// shortKey trims a SHA256 key for log lines.
func shortKey(key string) string {
	const keyPrefixLen = 12
	if len(key) > keyPrefixLen {
		return key[:keyPrefixLen]
	}
	return key
}
