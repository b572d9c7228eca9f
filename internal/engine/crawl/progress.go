package crawl

import (
	"sync"
	"time"
)

// percentMultiplier is used to convert a ratio to percentage (0-100).
const percentMultiplier = 100

// Progress tracks how far a crawl has got. The total page count is unknown
// until the first page arrives. Safe for concurrent readers.
type Progress struct {
	// TotalPages is the page count advertised by the server (0 until known).
	TotalPages int

	// FetchedPages is the number of pages accumulated so far.
	FetchedPages int

	// TotalItems is the item count advertised by the server (0 until known).
	TotalItems int

	// FetchedItems is the number of items accumulated so far.
	FetchedItems int

	// Retries is the number of failed page attempts that were retried.
	Retries int

	// StartTime is when the crawl started.
	StartTime time.Time

	// LastUpdateTime is when progress was last updated.
	LastUpdateTime time.Time

	mu sync.RWMutex
}

// NewProgress creates a progress tracker for a crawl starting now.
func NewProgress() *Progress {
	now := time.Now()
	return &Progress{
		StartTime:      now,
		LastUpdateTime: now,
	}
}

// AddPage records one accumulated page along with the server's totals.
func (p *Progress) AddPage(items int, info PageInfo) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.FetchedPages++
	p.FetchedItems += items
	if info.Pages > 0 {
		p.TotalPages = info.Pages
	}
	if info.Count > 0 {
		p.TotalItems = info.Count
	}
	p.LastUpdateTime = time.Now()
}

// AddRetry records a failed attempt that will be retried.
func (p *Progress) AddRetry() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.Retries++
	p.LastUpdateTime = time.Now()
}

// EstimatedTimeRemaining extrapolates from the average time per page.
// Returns 0 until the total is known and at least one page has arrived.
func (p *Progress) EstimatedTimeRemaining() time.Duration {
	p.mu.RLock()
	defer p.mu.RUnlock()

	if p.FetchedPages == 0 || p.TotalPages == 0 {
		return 0
	}

	elapsed := time.Since(p.StartTime)
	perPage := elapsed / time.Duration(p.FetchedPages)
	remaining := p.TotalPages - p.FetchedPages
	if remaining < 0 {
		remaining = 0
	}
	return perPage * time.Duration(remaining)
}

// Snapshot returns a copy of the current progress state.
func (p *Progress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		TotalPages:      p.TotalPages,
		FetchedPages:    p.FetchedPages,
		TotalItems:      p.TotalItems,
		FetchedItems:    p.FetchedItems,
		Retries:         p.Retries,
		StartTime:       p.StartTime,
		LastUpdateTime:  p.LastUpdateTime,
		PercentComplete: p.percentCompleteUnsafe(),
		ElapsedTime:     time.Since(p.StartTime),
	}
}

// ProgressSnapshot is an immutable snapshot of progress state.
type ProgressSnapshot struct {
	TotalPages      int
	FetchedPages    int
	TotalItems      int
	FetchedItems    int
	Retries         int
	StartTime       time.Time
	LastUpdateTime  time.Time
	PercentComplete float64
	ElapsedTime     time.Duration
}

// percentCompleteUnsafe must be called with the lock held.
func (p *Progress) percentCompleteUnsafe() float64 {
	if p.TotalPages == 0 {
		return 0
	}
	pct := (float64(p.FetchedPages) / float64(p.TotalPages)) * percentMultiplier
	if pct > percentMultiplier {
		return percentMultiplier
	}
	return pct
}
