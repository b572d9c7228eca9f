// Package engine aggregates catalog results for display.
//
// A displayed page is always
//
//	Paginate(SortCharacters(ApplyClientFilters(fetch(filters)), sort), page)
//
// for the state committed in a Controller. The Aggregator performs the fetch
// through a read-through cache, either one server page at a time (ModeServer)
// or by crawling every page first (ModeAll). Filters the remote API cannot
// express (origin, location, episode) are applied client-side.
package engine
