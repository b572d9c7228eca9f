// Package crawl follows the next-page links of a paginated listing and
// accumulates every page into one collection.
//
// A crawl terminates when:
//   - the server stops advertising a next link (the result is complete)
//   - a page keeps failing after its configured attempts (the result is partial)
//   - the context is cancelled (the result is partial)
//   - a next link points back at a page already fetched (the result is partial)
//
// Partial results are never silent: Result.Complete is false and Result.Err
// records why the crawl stopped, so callers can flag incomplete data instead
// of presenting it as the full listing.
package crawl
