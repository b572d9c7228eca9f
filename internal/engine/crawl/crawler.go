package crawl

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Crawl limits.
const (
	// DefaultMaxAttempts fetches each page once.
	DefaultMaxAttempts = 1

	// MaxAttemptsLimit caps the per-page attempts a caller may configure.
	MaxAttemptsLimit = 10

	// DefaultMaxPages stops runaway crawls of misbehaving servers.
	DefaultMaxPages = 1000
)

// Common crawl errors.
var (
	ErrNilPageFunc    = errors.New("crawl page function cannot be nil")
	ErrEmptyStartURL  = errors.New("crawl start URL cannot be empty")
	ErrInvalidAttempt = fmt.Errorf("max attempts must be between 1 and %d", MaxAttemptsLimit)
	ErrLoop           = errors.New("next link points at a page already fetched")
	ErrPageLimit      = errors.New("crawl page limit reached")
)

// PageInfo is the pagination metadata returned with each page.
type PageInfo struct {
	// Next is the URL of the following page, empty on the last page.
	Next string

	// Pages is the total page count advertised by the server.
	Pages int

	// Count is the total item count advertised by the server.
	Count int
}

// PageFunc fetches one page at the given URL.
type PageFunc[T any] func(ctx context.Context, url string) ([]T, PageInfo, error)

// ProgressCallback is invoked after every accumulated page.
type ProgressCallback func(progress *Progress)

// Result is the outcome of a crawl. Items holds every page fetched before the
// crawl stopped, in server order.
type Result[T any] struct {
	Items []T

	// Complete is true only when the last page had no next link.
	Complete bool

	// Err is why an incomplete crawl stopped. Nil when Complete.
	Err error

	// PagesFetched and PagesTotal describe coverage for partial results.
	PagesFetched int
	PagesTotal   int
}

// Partial reports whether the crawl stopped before the last page.
func (r Result[T]) Partial() bool {
	return !r.Complete
}

// Crawler follows next links until the listing is exhausted.
type Crawler[T any] struct {
	fetch       PageFunc[T]
	maxAttempts int
	maxPages    int
	backoff     time.Duration
	onProgress  ProgressCallback
}

// NewCrawler creates a crawler that fetches each page once.
func NewCrawler[T any](fetch PageFunc[T]) (*Crawler[T], error) {
	if fetch == nil {
		return nil, ErrNilPageFunc
	}
	return &Crawler[T]{
		fetch:       fetch,
		maxAttempts: DefaultMaxAttempts,
		maxPages:    DefaultMaxPages,
	}, nil
}

// WithMaxAttempts sets how many times a failing page is tried before the
// crawl gives up and returns what it has.
func (c *Crawler[T]) WithMaxAttempts(attempts int) (*Crawler[T], error) {
	if attempts < 1 || attempts > MaxAttemptsLimit {
		return nil, fmt.Errorf("%w: got %d", ErrInvalidAttempt, attempts)
	}
	c.maxAttempts = attempts
	return c, nil
}

// WithBackoff sets the pause between attempts of the same page.
func (c *Crawler[T]) WithBackoff(d time.Duration) *Crawler[T] {
	c.backoff = d
	return c
}

// WithProgressCallback sets a callback invoked after each page.
func (c *Crawler[T]) WithProgressCallback(callback ProgressCallback) *Crawler[T] {
	c.onProgress = callback
	return c
}

// Run crawls from startURL. It never returns items out of order and never
// drops a page silently: any stop before the last page yields Complete=false.
func (c *Crawler[T]) Run(ctx context.Context, startURL string) Result[T] {
	if startURL == "" {
		return Result[T]{Err: ErrEmptyStartURL}
	}

	progress := NewProgress()
	seen := make(map[string]struct{})
	var items []T
	next := startURL

	for next != "" {
		if _, dup := seen[next]; dup {
			return c.partial(items, progress, fmt.Errorf("%w: %s", ErrLoop, next))
		}
		if len(seen) >= c.maxPages {
			return c.partial(items, progress, fmt.Errorf("%w: %d", ErrPageLimit, c.maxPages))
		}
		seen[next] = struct{}{}

		page, info, err := c.fetchWithAttempts(ctx, next, progress)
		if err != nil {
			return c.partial(items, progress, err)
		}

		items = append(items, page...)
		progress.AddPage(len(page), info)
		if c.onProgress != nil {
			c.onProgress(progress)
		}
		next = info.Next
	}

	snap := progress.Snapshot()
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:        items,
		Complete:     true,
		PagesFetched: snap.FetchedPages,
		PagesTotal:   snap.TotalPages,
	}
}

func (c *Crawler[T]) fetchWithAttempts(ctx context.Context, url string, progress *Progress) ([]T, PageInfo, error) {
	var lastErr error
	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return nil, PageInfo{}, err
		}

		page, info, err := c.fetch(ctx, url)
		if err == nil {
			return page, info, nil
		}
		lastErr = err

		if attempt == c.maxAttempts || errors.Is(err, context.Canceled) {
			break
		}
		progress.AddRetry()
		if waitErr := sleep(ctx, c.backoff); waitErr != nil {
			return nil, PageInfo{}, waitErr
		}
	}
	return nil, PageInfo{}, fmt.Errorf("page %s failed after %d attempt(s): %w", url, c.maxAttempts, lastErr)
}

func (c *Crawler[T]) partial(items []T, progress *Progress, err error) Result[T] {
	snap := progress.Snapshot()
	if items == nil {
		items = []T{}
	}
	return Result[T]{
		Items:        items,
		Complete:     false,
		Err:          err,
		PagesFetched: snap.FetchedPages,
		PagesTotal:   snap.TotalPages,
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
