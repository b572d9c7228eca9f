package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/rs/zerolog"

	"github.com/rshade/multiverse/internal/engine/crawl"
	"github.com/rshade/multiverse/internal/logging"
)

// Client defaults.
const (
	// DefaultBaseURL is the public Rick and Morty API.
	DefaultBaseURL = "https://rickandmortyapi.com/api"

	// DefaultTimeout bounds one HTTP request.
	DefaultTimeout = 30 * time.Second

	// DefaultLookupRetries is how many extra attempts a lookup page gets.
	DefaultLookupRetries = 2

	// DefaultLookupBackoff is the pause between attempts of a lookup page.
	DefaultLookupBackoff = 250 * time.Millisecond

	// DefaultRetryWaitMin and DefaultRetryWaitMax bound the pause between
	// transport retries.
	DefaultRetryWaitMin = time.Second
	DefaultRetryWaitMax = 30 * time.Second

	// maxErrorBody caps how much of an error response is read for logging.
	maxErrorBody = 512
)

// Catalog resources.
const (
	resourceCharacter = "character"
	resourceLocation  = "location"
	resourceEpisode   = "episode"
)

// Client talks to the catalog REST API.
type Client struct {
	baseURL       string
	http          *retryablehttp.Client
	lookupRetries int
	lookupBackoff time.Duration
}

// Option configures a Client.
type Option func(*Client)

// WithRetries sets the transport-level retry count for 5xx, 429 and
// connection errors. Zero (the default) disables retries.
func WithRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.http.RetryMax = n
		}
	}
}

// WithRetryWait bounds the pause between transport retries. Values of
// zero or less keep the current bound.
func WithRetryWait(minWait, maxWait time.Duration) Option {
	return func(c *Client) {
		if minWait > 0 {
			c.http.RetryWaitMin = minWait
		}
		if maxWait > 0 {
			c.http.RetryWaitMax = maxWait
		}
	}
}

// WithTimeout sets the per-request timeout. Zero means no client timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.http.HTTPClient.Timeout = d
		}
	}
}

// WithLookupRetries sets how many extra attempts a failing lookup page gets
// before the lookup list fails open.
func WithLookupRetries(n int) Option {
	return func(c *Client) {
		if n >= 0 {
			c.lookupRetries = n
		}
	}
}

// WithLookupBackoff sets the pause between attempts of a lookup page.
func WithLookupBackoff(d time.Duration) Option {
	return func(c *Client) {
		if d >= 0 {
			c.lookupBackoff = d
		}
	}
}

// WithLogger routes the retry client's own log lines through l.
func WithLogger(l zerolog.Logger) Option {
	return func(c *Client) {
		c.http.Logger = retryLogger{log: l.With().Str("component", "catalog").Logger()}
	}
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("%w: %q", ErrInvalidBaseURL, baseURL)
	}

	rc := retryablehttp.NewClient()
	rc.RetryMax = 0
	rc.RetryWaitMin = DefaultRetryWaitMin
	rc.RetryWaitMax = DefaultRetryWaitMax
	rc.HTTPClient = &http.Client{Timeout: DefaultTimeout}
	rc.Logger = retryLogger{log: zerolog.Nop()}
	// Hand the final response back instead of a "giving up" error so the
	// status code can be classified.
	rc.ErrorHandler = retryablehttp.PassthroughErrorHandler

	c := &Client{
		baseURL:       strings.TrimRight(parsed.String(), "/"),
		http:          rc,
		lookupRetries: DefaultLookupRetries,
		lookupBackoff: DefaultLookupBackoff,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// BaseURL returns the normalised API root.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// CharactersURL returns the listing URL for q at page.
func (c *Client) CharactersURL(q Query, page int) string {
	return c.endpoint(resourceCharacter, q.Values(page))
}

func (c *Client) endpoint(resource string, v url.Values) string {
	u := c.baseURL + "/" + resource
	if len(v) > 0 {
		u += "?" + v.Encode()
	}
	return u
}

// FetchCharacters fetches one page of the character listing. A 404 (no
// character matches) yields an empty page and no error.
func (c *Client) FetchCharacters(ctx context.Context, q Query, page int) (CharacterPage, error) {
	return getPage[Character](ctx, c, "fetch_page", c.CharactersURL(q, page), true)
}

// FetchAllCharacters follows next links from page 1 and concatenates every
// page. The result is partial when a page fails; Items then holds what was
// fetched before the failure.
func (c *Client) FetchAllCharacters(
	ctx context.Context,
	q Query,
	onProgress crawl.ProgressCallback,
) crawl.Result[Character] {
	start := c.CharactersURL(q, 1)
	crawler, err := crawl.NewCrawler(pageFunc[Character](c, "fetch_all_pages", start))
	if err != nil {
		return crawl.Result[Character]{Items: []Character{}, Err: err}
	}
	crawler.WithProgressCallback(onProgress)
	return crawler.Run(ctx, start)
}

// FetchLocations accumulates the full location list. Each page is tried up
// to lookupRetries+1 times; on exhaustion the partial list is returned with
// Complete=false.
func (c *Client) FetchLocations(ctx context.Context) crawl.Result[Location] {
	return lookup[Location](ctx, c, resourceLocation)
}

// FetchEpisodes accumulates the full episode list with the same retry
// policy as FetchLocations.
func (c *Client) FetchEpisodes(ctx context.Context) crawl.Result[Episode] {
	return lookup[Episode](ctx, c, resourceEpisode)
}

func lookup[T any](ctx context.Context, c *Client, resource string) crawl.Result[T] {
	log := logging.FromContext(ctx)

	start := c.endpoint(resource, nil)
	crawler, err := crawl.NewCrawler(pageFunc[T](c, "fetch_"+resource+"s", start))
	if err != nil {
		return crawl.Result[T]{Items: []T{}, Err: err}
	}
	attempts := min(c.lookupRetries+1, crawl.MaxAttemptsLimit)
	if _, err = crawler.WithMaxAttempts(attempts); err != nil {
		return crawl.Result[T]{Items: []T{}, Err: err}
	}
	crawler.WithBackoff(c.lookupBackoff)

	result := crawler.Run(ctx, start)
	if result.Partial() {
		log.Warn().Ctx(ctx).
			Str("component", "catalog").
			Str("operation", "lookup").
			Str("resource", resource).
			Int("pages_fetched", result.PagesFetched).
			Int("pages_total", result.PagesTotal).
			Err(result.Err).
			Msg("lookup list incomplete, continuing with partial options")
	}
	return result
}

// pageFunc fetches crawl pages. A 404 means "no matches" only on startURL;
// on a page reached through a next link it is a page failure.
func pageFunc[T any](c *Client, operation, startURL string) crawl.PageFunc[T] {
	return func(ctx context.Context, pageURL string) ([]T, crawl.PageInfo, error) {
		page, err := getPage[T](ctx, c, operation, pageURL, pageURL == startURL)
		if err != nil {
			return nil, crawl.PageInfo{}, err
		}
		return page.Results, crawl.PageInfo{
			Next:  page.Info.Next,
			Pages: page.Info.Pages,
			Count: page.Info.Count,
		}, nil
	}
}

// getPage performs one GET and decodes a listing envelope. When
// notFoundIsEmpty is set a 404 decodes to an empty page.
func getPage[T any](ctx context.Context, c *Client, operation, pageURL string, notFoundIsEmpty bool) (Page[T], error) {
	log := logging.FromContext(ctx)
	start := time.Now()

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return Page[T]{}, fmt.Errorf("%w: building request: %w", ErrFetchFailure, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		log.Debug().Ctx(ctx).
			Str("component", "catalog").
			Str("operation", operation).
			Str("url", pageURL).
			Err(err).
			Msg("request failed")
		if ctxErr := ctx.Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			return Page[T]{}, ctxErr
		}
		return Page[T]{}, fmt.Errorf("%w: GET %s: %w", ErrFetchFailure, pageURL, err)
	}
	defer resp.Body.Close()

	event := log.Debug().Ctx(ctx).
		Str("component", "catalog").
		Str("operation", operation).
		Str("url", pageURL).
		Int("status", resp.StatusCode).
		Dur("duration_ms", time.Since(start))

	switch {
	case resp.StatusCode == http.StatusNotFound && notFoundIsEmpty:
		event.Msg("no matches")
		return Page[T]{Results: []T{}}, nil
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		event.Str("body", string(body)).Msg("unexpected status")
		return Page[T]{}, &StatusError{Code: resp.StatusCode, URL: pageURL}
	}

	var page Page[T]
	if decodeErr := json.NewDecoder(resp.Body).Decode(&page); decodeErr != nil {
		event.Err(decodeErr).Msg("decode failed")
		return Page[T]{}, fmt.Errorf("%w: decoding %s: %w", ErrFetchFailure, pageURL, decodeErr)
	}
	if page.Results == nil {
		page.Results = []T{}
	}

	event.Int("results", len(page.Results)).Msg("page fetched")
	return page, nil
}

// retryLogger adapts zerolog to retryablehttp.LeveledLogger.
type retryLogger struct {
	log zerolog.Logger
}

func (l retryLogger) Error(msg string, keysAndValues ...interface{}) {
	l.log.Error().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Info().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Debug(msg string, keysAndValues ...interface{}) {
	l.log.Debug().Fields(keysAndValues).Msg(msg)
}

func (l retryLogger) Warn(msg string, keysAndValues ...interface{}) {
	l.log.Warn().Fields(keysAndValues).Msg(msg)
}

var _ retryablehttp.LeveledLogger = retryLogger{}
