package pagination

// pageWindow is how many pages are shown on each side of the current page.
const pageWindow = 2

// PageItem is one entry of a page-number strip. Ellipsis items have Page 0.
type PageItem struct {
	Page     int  `json:"page,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
	Current  bool `json:"current,omitempty"`
}

// VisiblePages builds the page-number strip for the current page.
//
// Example for current=6, total=12: 1 … 4 5 [6] 7 8 … 12
func VisiblePages(current, total int) []PageItem {
	if total <= 0 {
		return nil
	}
	current = clamp(current, 1, total)

	page := func(n int) PageItem {
		return PageItem{Page: n, Current: n == current}
	}

	if total == 1 {
		return []PageItem{page(1)}
	}

	items := []PageItem{page(1)}
	if current-pageWindow > 2 {
		items = append(items, PageItem{Ellipsis: true})
	}

	for i := max(2, current-pageWindow); i <= min(total-1, current+pageWindow); i++ {
		items = append(items, page(i))
	}

	if current+pageWindow < total-1 {
		items = append(items, PageItem{Ellipsis: true})
	}
	items = append(items, page(total))

	return items
}
