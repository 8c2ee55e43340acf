// Package pagination computes the page controls shown under a list.
package pagination

// WindowSize is the number of page buttons shown at most
const WindowSize = 5

// Window is the set of page controls around the current page
type Window struct {
	Current          int   `json:"current"`
	TotalPages       int   `json:"totalPages"`
	Pages            []int `json:"pages"`
	ShowFirst        bool  `json:"showFirst"`
	LeadingEllipsis  bool  `json:"leadingEllipsis"`
	TrailingEllipsis bool  `json:"trailingEllipsis"`
	ShowLast         bool  `json:"showLast"`
}

// Clamp keeps page within [1, totalPages]
func Clamp(page, totalPages int) int {
	if totalPages < 1 {
		totalPages = 1
	}
	if page < 1 {
		return 1
	}
	if page > totalPages {
		return totalPages
	}
	return page
}

// Compute returns the window for current out of totalPages. current is clamped
// first, so the result never names a page outside [1, totalPages].
func Compute(current, totalPages int) Window {
	if totalPages < 1 {
		totalPages = 1
	}
	current = Clamp(current, totalPages)

	w := Window{Current: current, TotalPages: totalPages}

	if totalPages <= WindowSize {
		w.Pages = pageRange(1, totalPages)
		return w
	}

	start := max(1, current-2)
	end := min(totalPages, start+WindowSize-1)
	start = max(1, end-WindowSize+1)

	w.Pages = pageRange(start, end)
	w.ShowFirst = start > 1
	w.LeadingEllipsis = start > 2
	w.ShowLast = end < totalPages
	w.TrailingEllipsis = end < totalPages-1
	return w
}

// HasPrev reports whether a previous page exists
func (w Window) HasPrev() bool {
	return w.Current > 1
}

// HasNext reports whether a next page exists
func (w Window) HasNext() bool {
	return w.Current < w.TotalPages
}

func pageRange(from, to int) []int {
	pages := make([]int, 0, to-from+1)
	for p := from; p <= to; p++ {
		pages = append(pages, p)
	}
	return pages
}
