package engine

import "sync"

// Request is one committed (filters, page) pair. Generation increases with
// every commit, so a result can be matched to the commit that asked for it.
type Request struct {
	Filters    FilterState
	Page       int
	Generation uint64
}

// Controller owns the filter and page state. Every change is a commit; only
// the result of the latest commit is accepted.
type Controller struct {
	filters    FilterState
	page       int
	totalPages int
	generation uint64
	loading    bool

	mu sync.Mutex
}

// NewController starts at page 1 with the given filters.
func NewController(initial FilterState) *Controller {
	return NewControllerAt(initial, 1)
}

// NewControllerAt starts at page with the given filters. The page is not
// clamped until the first view reports the page count.
func NewControllerAt(initial FilterState, page int) *Controller {
	if page < 1 {
		page = 1
	}
	return &Controller{
		filters:    initial.Normalize(),
		page:       page,
		generation: 1,
		loading:    true,
	}
}

// Current returns the committed request.
func (c *Controller) Current() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.request()
}

// Filters returns the committed filters.
func (c *Controller) Filters() FilterState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters
}

// Page returns the committed page.
func (c *Controller) Page() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.page
}

// TotalPages returns the page count of the last accepted view.
func (c *Controller) TotalPages() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.totalPages
}

// Loading reports whether the committed request has no accepted result yet.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// ApplyFilters merges patch into the filters and resets to page 1.
func (c *Controller) ApplyFilters(patch FilterPatch) Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = c.filters.Merge(patch)
	c.page = 1
	return c.commit()
}

// ResetFilters restores the default filters and page 1.
func (c *Controller) ResetFilters() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = DefaultFilterState()
	c.page = 1
	return c.commit()
}

// SetPage moves to page n clamped to [1, TotalPages]. changed is false when
// the clamped page is already committed.
func (c *Controller) SetPage(n int) (Request, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	n = ClampPage(n, c.totalPages)
	if n == c.page {
		return c.request(), false
	}
	c.page = n
	return c.commit(), true
}

// Reload recommits the current state, e.g. after a failed fetch.
func (c *Controller) Reload() Request {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.commit()
}

// Accept reports whether a result for req may be displayed: req must be the
// latest commit. An accepted view updates the known page count and ends the
// loading state. A failed request (view == nil) only ends loading.
func (c *Controller) Accept(req Request, view *View) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if req.Generation != c.generation {
		return false
	}
	c.loading = false
	if view != nil {
		c.totalPages = view.TotalPages
	}
	return true
}

// commit must be called with mu held.
func (c *Controller) commit() Request {
	c.generation++
	c.loading = true
	return c.request()
}

// request must be called with mu held.
func (c *Controller) request() Request {
	return Request{Filters: c.filters, Page: c.page, Generation: c.generation}
}
