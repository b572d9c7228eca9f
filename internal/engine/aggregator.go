package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rshade/multiverse/internal/catalog"
	"github.com/rshade/multiverse/internal/engine/cache"
	"github.com/rshade/multiverse/internal/engine/crawl"
	"github.com/rshade/multiverse/internal/logging"
)

// Mode selects how the aggregator pages through results.
type Mode string

// Aggregation modes.
const (
	// ModeServer fetches one server page per displayed page.
	ModeServer Mode = "server"

	// ModeAll crawls every page, then filters, sorts and pages locally.
	ModeAll Mode = "all"
)

// Cache operation names.
const (
	opCharacters    = "characters"
	opAllCharacters = "characters_all"
	opLocations     = "locations"
	opEpisodes      = "episodes"
)

// Aggregator errors.
var (
	ErrInvalidMode = errors.New("browse mode must be server or all")

	// ErrPartialResults wraps the reason a crawl stopped early.
	ErrPartialResults = errors.New("results are incomplete")
)

// ParseMode parses a browse mode. Empty means ModeServer.
func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case "", ModeServer:
		return ModeServer, nil
	case ModeAll:
		return ModeAll, nil
	default:
		return "", fmt.Errorf("%w: got %q", ErrInvalidMode, s)
	}
}

// Source is the remote catalog as seen by the aggregator.
type Source interface {
	FetchCharacters(ctx context.Context, q catalog.Query, page int) (catalog.CharacterPage, error)
	FetchAllCharacters(ctx context.Context, q catalog.Query, onProgress crawl.ProgressCallback) crawl.Result[catalog.Character]
	FetchLocations(ctx context.Context) crawl.Result[catalog.Location]
	FetchEpisodes(ctx context.Context) crawl.Result[catalog.Episode]
}

// View is one displayable page of characters.
type View struct {
	Characters []catalog.Character
	TotalCount int
	TotalPages int
	Page       int
	PageSize   int

	// Partial is set when the crawl behind the view stopped early.
	Partial      bool
	PagesFetched int
	PagesTotal   int

	// FetchErr is why a partial view is partial. Nil otherwise.
	FetchErr error

	// Cached reports that the view was served from the cache.
	Cached bool
}

// Lookups holds the option lists for the origin, location and episode filters.
type Lookups struct {
	Origins   []string
	Locations []string
	Episodes  []catalog.Episode

	// Partial is set when any list could not be fully loaded.
	Partial bool
}

// crawlSnapshot is the cacheable form of a crawl result.
type crawlSnapshot[T any] struct {
	Items        []T    `json:"items"`
	Complete     bool   `json:"complete"`
	PagesFetched int    `json:"pages_fetched"`
	PagesTotal   int    `json:"pages_total"`
	ErrMessage   string `json:"err,omitempty"`
}

func snapshotOf[T any](r crawl.Result[T]) crawlSnapshot[T] {
	s := crawlSnapshot[T]{
		Items:        r.Items,
		Complete:     r.Complete,
		PagesFetched: r.PagesFetched,
		PagesTotal:   r.PagesTotal,
	}
	if r.Err != nil {
		s.ErrMessage = r.Err.Error()
	}
	return s
}

func (s crawlSnapshot[T]) err() error {
	if s.Complete {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrPartialResults, s.ErrMessage)
}

// Aggregator turns filter state and a page number into a View.
type Aggregator struct {
	source     Source
	store      cache.Store
	loader     *cache.Loader
	mode       Mode
	pageSize   int
	listingTTL time.Duration
	lookupTTL  time.Duration
	onProgress crawl.ProgressCallback
}

// AggregatorOption configures an Aggregator.
type AggregatorOption func(*Aggregator)

// WithMode sets the aggregation mode.
func WithMode(mode Mode) AggregatorOption {
	return func(a *Aggregator) {
		a.mode = mode
	}
}

// WithCache puts a read-through cache in front of the source.
func WithCache(store cache.Store, listingTTL, lookupTTL time.Duration) AggregatorOption {
	return func(a *Aggregator) {
		a.store = store
		a.loader = cache.NewLoader(store)
		a.listingTTL = listingTTL
		a.lookupTTL = lookupTTL
	}
}

// WithPageSize sets the client-side page size used in ModeAll.
func WithPageSize(n int) AggregatorOption {
	return func(a *Aggregator) {
		if n > 0 {
			a.pageSize = n
		}
	}
}

// WithProgressCallback observes ModeAll crawls.
func WithProgressCallback(cb crawl.ProgressCallback) AggregatorOption {
	return func(a *Aggregator) {
		a.onProgress = cb
	}
}

// NewAggregator creates an aggregator over source. Without WithCache every
// load goes to the source.
func NewAggregator(source Source, opts ...AggregatorOption) *Aggregator {
	a := &Aggregator{
		source:     source,
		loader:     cache.NewLoader(nil),
		mode:       ModeServer,
		pageSize:   DefaultPageSize,
		listingTTL: cache.DefaultTTL,
		lookupTTL:  cache.DefaultLookupTTL,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// cacheClearer is implemented by stores that can drop every entry.
type cacheClearer interface {
	Clear() error
}

// ClearCache drops every cached listing and lookup so the next load goes to
// the source. It is a no-op without a cache or with a disabled one.
func (a *Aggregator) ClearCache() error {
	clearer, ok := a.store.(cacheClearer)
	if !ok || !a.store.IsEnabled() {
		return nil
	}
	if err := clearer.Clear(); err != nil {
		return fmt.Errorf("clearing cache: %w", err)
	}
	return nil
}

// Mode returns the aggregation mode.
func (a *Aggregator) Mode() Mode {
	return a.mode
}

// Load produces the view for filters at page. A fetch failure returns an
// error wrapping catalog.ErrFetchFailure; a crawl that stopped after at least
// one page returns a partial view and no error.
func (a *Aggregator) Load(ctx context.Context, filters FilterState, page int) (View, error) {
	filters = filters.Normalize()
	if page < 1 {
		page = 1
	}

	log := logging.FromContext(ctx)
	log.Debug().Ctx(ctx).
		Str("component", "engine").
		Str("operation", "load").
		Str("mode", string(a.mode)).
		Int("page", page).
		Bool("client_filters", filters.HasClientFilters()).
		Str("sort", string(filters.SortBy)).
		Msg("loading characters")

	if a.mode == ModeAll {
		return a.loadAll(ctx, filters, page)
	}
	return a.loadServerPage(ctx, filters, page)
}

func (a *Aggregator) loadServerPage(ctx context.Context, filters FilterState, page int) (View, error) {
	key, err := filters.CacheKey(opCharacters, page)
	if err != nil {
		return View{}, err
	}

	data, hit, err := cache.Load(ctx, a.loader, key, a.listingTTL,
		func(ctx context.Context) (catalog.CharacterPage, bool, error) {
			p, fetchErr := a.source.FetchCharacters(ctx, filters.Query(), page)
			return p, true, fetchErr
		})
	if err != nil {
		return View{Page: page, PageSize: DefaultPageSize}, err
	}

	characters := SortCharacters(ApplyClientFilters(data.Results, filters), filters.SortBy)

	total := data.Info.Count
	if filters.HasClientFilters() {
		total = len(characters)
	}

	return View{
		Characters: characters,
		TotalCount: total,
		TotalPages: data.Info.Pages,
		Page:       page,
		PageSize:   DefaultPageSize,
		Cached:     hit,
	}, nil
}

func (a *Aggregator) loadAll(ctx context.Context, filters FilterState, page int) (View, error) {
	key, err := filters.CacheKey(opAllCharacters, 0)
	if err != nil {
		return View{}, err
	}

	snap, hit, err := cache.Load(ctx, a.loader, key, a.listingTTL,
		func(ctx context.Context) (crawlSnapshot[catalog.Character], bool, error) {
			result := a.source.FetchAllCharacters(ctx, filters.Query(), a.onProgress)
			if result.Partial() && result.PagesFetched == 0 {
				return crawlSnapshot[catalog.Character]{}, false, result.Err
			}
			return snapshotOf(result), result.Complete, nil
		})
	if err != nil {
		return View{Page: page, PageSize: a.pageSize}, err
	}

	if !snap.Complete {
		logging.FromContext(ctx).Warn().Ctx(ctx).
			Str("component", "engine").
			Str("operation", "load_all").
			Int("pages_fetched", snap.PagesFetched).
			Int("pages_total", snap.PagesTotal).
			Str("reason", snap.ErrMessage).
			Msg("showing partial results")
	}

	processed := SortCharacters(ApplyClientFilters(snap.Items, filters), filters.SortBy)

	return View{
		Characters:   Paginate(processed, page, a.pageSize),
		TotalCount:   len(processed),
		TotalPages:   TotalPages(len(processed), a.pageSize),
		Page:         page,
		PageSize:     a.pageSize,
		Partial:      !snap.Complete,
		PagesFetched: snap.PagesFetched,
		PagesTotal:   snap.PagesTotal,
		FetchErr:     snap.err(),
		Cached:       hit,
	}, nil
}

// Lookups loads the filter option lists concurrently. Lists fail open: a
// list that cannot be fully loaded contributes whatever it has and sets
// Partial. The only error returned is context cancellation.
func (a *Aggregator) Lookups(ctx context.Context) (Lookups, error) {
	var (
		locations crawlSnapshot[catalog.Location]
		episodes  crawlSnapshot[catalog.Episode]
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		locations = loadLookup(gctx, a, opLocations, a.source.FetchLocations)
		return gctx.Err()
	})
	g.Go(func() error {
		episodes = loadLookup(gctx, a, opEpisodes, a.source.FetchEpisodes)
		return gctx.Err()
	})
	if err := g.Wait(); err != nil {
		return Lookups{}, err
	}

	names := locationNames(locations.Items)
	return Lookups{
		Origins:   names,
		Locations: names,
		Episodes:  episodes.Items,
		Partial:   !locations.Complete || !episodes.Complete,
	}, nil
}

func loadLookup[T any](
	ctx context.Context,
	a *Aggregator,
	operation string,
	fetch func(context.Context) crawl.Result[T],
) crawlSnapshot[T] {
	log := logging.FromContext(ctx)

	key, err := cache.GenerateKey(cache.KeyParams{Operation: operation})
	if err != nil {
		return crawlSnapshot[T]{Items: []T{}}
	}

	snap, _, err := cache.Load(ctx, a.loader, key, a.lookupTTL,
		func(ctx context.Context) (crawlSnapshot[T], bool, error) {
			result := fetch(ctx)
			return snapshotOf(result), result.Complete, nil
		})
	if err != nil {
		log.Warn().Ctx(ctx).
			Str("component", "engine").
			Str("operation", operation).
			Err(err).
			Msg("lookup list unavailable")
		return crawlSnapshot[T]{Items: []T{}}
	}
	if snap.Items == nil {
		snap.Items = []T{}
	}
	return snap
}

// locationNames returns location names in server order without duplicates.
func locationNames(locations []catalog.Location) []string {
	seen := make(map[string]struct{}, len(locations))
	names := make([]string, 0, len(locations))
	for _, l := range locations {
		if _, dup := seen[l.Name]; dup || l.Name == "" {
			continue
		}
		seen[l.Name] = struct{}{}
		names = append(names, l.Name)
	}
	return names
}
