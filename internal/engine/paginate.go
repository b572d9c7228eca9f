package engine

// DefaultPageSize is the client-side page size, matching the remote API.
const DefaultPageSize = 20

// Ellipsis marks a gap in the list returned by VisiblePages.
const Ellipsis = 0

// pageWindow is how many pages either side of the current one stay visible.
const pageWindow = 2

// Paginate returns items [(page-1)*size, page*size) clipped to the slice
// bounds, as a new slice. Out-of-range pages yield an empty slice.
func Paginate[T any](items []T, page, pageSize int) []T {
	if page < 1 || pageSize < 1 {
		return []T{}
	}
	start := (page - 1) * pageSize
	if start >= len(items) {
		return []T{}
	}
	end := min(start+pageSize, len(items))

	out := make([]T, end-start)
	copy(out, items[start:end])
	return out
}

// TotalPages returns the number of pages needed for count items.
func TotalPages(count, pageSize int) int {
	if count <= 0 || pageSize < 1 {
		return 0
	}
	return (count + pageSize - 1) / pageSize
}

// ClampPage bounds page to [1, totalPages]. With no pages it returns 1.
func ClampPage(page, totalPages int) int {
	if totalPages < 1 || page < 1 {
		return 1
	}
	return min(page, totalPages)
}

// VisiblePages returns the page buttons to show: always the first and last
// page, the current page with two neighbours either side, and Ellipsis where
// pages are skipped. It returns nil when there is at most one page.
func VisiblePages(current, total int) []int {
	if total <= 1 {
		return nil
	}

	pages := []int{1}
	if current-pageWindow > 2 {
		pages = append(pages, Ellipsis)
	}
	for i := max(2, current-pageWindow); i <= min(total-1, current+pageWindow); i++ {
		pages = append(pages, i)
	}
	if current+pageWindow < total-1 {
		pages = append(pages, Ellipsis)
	}
	return append(pages, total)
}
