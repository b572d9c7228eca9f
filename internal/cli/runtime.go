package cli

import (
	"context"
	"fmt"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/config"
	"github.com/rshade/multiverse/internal/engine"
	"github.com/rshade/multiverse/internal/engine/cache"
	"github.com/rshade/multiverse/internal/engine/crawl"
	"github.com/rshade/multiverse/internal/logging"
)

// newClient builds the catalog client from the global configuration.
func newClient(ctx context.Context) (*catalog.Client, error) {
	cfg := config.GetGlobalConfig()
	client, err := catalog.NewClient(cfg.API.BaseURL,
		catalog.WithTimeout(cfg.API.Timeout),
		catalog.WithRetries(cfg.API.Retries),
		catalog.WithRetryWait(cfg.API.RetryWaitMin, cfg.API.RetryWaitMax),
		catalog.WithLookupRetries(cfg.API.LookupRetries),
		catalog.WithLookupBackoff(cfg.API.LookupBackoff),
		catalog.WithLogger(*logging.FromContext(ctx)),
	)
	if err != nil {
		return nil, fmt.Errorf("creating catalog client: %w", err)
	}
	return client, nil
}

// aggregatorOptions configures the aggregator a command builds.
type aggregatorOptions struct {
	mode       engine.Mode
	pageSize   int
	onProgress crawl.ProgressCallback
}

// newAggregator wires the client, the response cache and the browse settings
// from the global configuration. done logs the cache summary and should be
// deferred by the caller.
func newAggregator(ctx context.Context, opts aggregatorOptions) (*engine.Aggregator, func(), error) {
	cfg := config.GetGlobalConfig()

	client, err := newClient(ctx)
	if err != nil {
		return nil, nil, err
	}

	store, err := cache.NewMemoryStore(cfg.Cache.Enabled, cfg.Cache.TTL, cfg.Cache.MaxEntries)
	if err != nil {
		return nil, nil, fmt.Errorf("creating cache: %w", err)
	}

	pageSize := opts.pageSize
	if pageSize <= 0 {
		pageSize = cfg.Browse.PageSize
	}

	aggOpts := []engine.AggregatorOption{
		engine.WithMode(opts.mode),
		engine.WithPageSize(pageSize),
		engine.WithCache(store, cfg.Cache.TTL, cfg.Cache.LookupTTL),
	}
	if opts.onProgress != nil {
		aggOpts = append(aggOpts, engine.WithProgressCallback(opts.onProgress))
	}

	log := logging.FromContext(ctx)
	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "new_aggregator").
		Str("base_url", client.BaseURL()).
		Str("mode", string(opts.mode)).
		Int("page_size", pageSize).
		Bool("cache_enabled", cfg.Cache.Enabled).
		Msg("aggregator configured")

	done := func() { logCacheSummary(ctx, store) }
	return engine.NewAggregator(client, aggOpts...), done, nil
}

// logCacheSummary reports what the response cache held and served during the
// command.
func logCacheSummary(ctx context.Context, store *cache.MemoryStore) {
	if !store.IsEnabled() {
		return
	}
	count, err := store.Count()
	if err != nil {
		return
	}
	size, err := store.Size()
	if err != nil {
		return
	}
	stats := store.Stats()

	log := logging.FromContext(ctx)
	log.Debug().Ctx(ctx).
		Str("component", "cli").
		Str("operation", "cache_summary").
		Str("ttl", cache.FormatDuration(store.GetTTL())).
		Int("entries", count).
		Int("max_entries", store.GetMaxEntries()).
		Int64("bytes", size).
		Uint64("hits", stats.Hits).
		Uint64("misses", stats.Misses).
		Uint64("expired", stats.Expired).
		Uint64("evictions", stats.Evictions).
		Msg("cache summary")
}
