package browse

import "math"

// maxPageButtons bounds the rendered pagination strip, ellipsis slots
// included.
const maxPageButtons = 7

// PageButton is one slot in the pagination strip. Ellipsis slots stand for a
// skipped range and carry no page number.
type PageButton struct {
	Page     int
	Current  bool
	Ellipsis bool
}

// PageCount derives the number of pages for a result set.
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// CurrentPage derives the 1-based page index from the window offset.
func CurrentPage(offset, limit int) int {
	if limit <= 0 {
		return 1
	}
	return offset/limit + 1
}

// PageWindow renders the bounded pagination strip centered on the current
// page. The first and last pages are always directly reachable; skipped
// ranges collapse into ellipsis slots. A single page yields no controls at
// all.
func PageWindow(current, totalPages int) []PageButton {
	if totalPages <= 1 {
		return nil
	}
	if current < 1 {
		current = 1
	}
	if current > totalPages {
		current = totalPages
	}

	if totalPages <= maxPageButtons {
		buttons := make([]PageButton, 0, totalPages)
		for page := 1; page <= totalPages; page++ {
			buttons = append(buttons, PageButton{Page: page, Current: page == current})
		}
		return buttons
	}

	// Three-wide core around the current page, shifted off the edges so the
	// strip never exceeds maxPageButtons slots.
	start := current - 1
	end := current + 1
	if start < 2 {
		start = 2
		end = start + 2
	}
	if end > totalPages-1 {
		end = totalPages - 1
		start = end - 2
	}

	buttons := []PageButton{{Page: 1, Current: current == 1}}
	if start > 2 {
		buttons = append(buttons, PageButton{Ellipsis: true})
	}
	for page := start; page <= end; page++ {
		buttons = append(buttons, PageButton{Page: page, Current: page == current})
	}
	if end < totalPages-1 {
		buttons = append(buttons, PageButton{Ellipsis: true})
	}
	buttons = append(buttons, PageButton{Page: totalPages, Current: current == totalPages})
	return buttons
}
