package presenter

// Page controls show every page up to this count.
const fullWindowPages = 5

// PageLink is one entry of the page control. Ellipsis entries have no page.
type PageLink struct {
	Page     int  `json:"page,omitempty"`
	Current  bool `json:"current,omitempty"`
	Ellipsis bool `json:"ellipsis,omitempty"`
}

// Paging describes the slice of rows on screen.
type Paging struct {
	Page      int        `json:"page"`
	PageSize  int        `json:"pageSize"`
	PageCount int        `json:"pageCount"`
	Total     int        `json:"total"`
	Links     []PageLink `json:"links"`
}

// paginate clamps the requested page and returns the [start, end) bounds.
func paginate(total, page, size int) (Paging, int, int) {
	if size <= 0 {
		size = DefaultTablePageSize
	}
	pageCount := (total + size - 1) / size
	if pageCount < 1 {
		pageCount = 1
	}
	if page < 1 {
		page = 1
	}
	if page > pageCount {
		page = pageCount
	}
	start := (page - 1) * size
	end := start + size
	if end > total {
		end = total
	}
	return Paging{
		Page:      page,
		PageSize:  size,
		PageCount: pageCount,
		Total:     total,
		Links:     PageWindow(page, pageCount),
	}, start, end
}

// PageWindow lists the page control entries: every page when there are at
// most five, otherwise the first page, the current page with its neighbours
// and the last page, with ellipses over the gaps.
func PageWindow(current, pageCount int) []PageLink {
	if pageCount < 1 {
		return nil
	}
	link := func(p int) PageLink { return PageLink{Page: p, Current: p == current} }

	if pageCount <= fullWindowPages {
		out := make([]PageLink, 0, pageCount)
		for p := 1; p <= pageCount; p++ {
			out = append(out, link(p))
		}
		return out
	}

	out := []PageLink{link(1)}
	from, to := current-1, current+1
	if from < 2 {
		from = 2
	}
	if to > pageCount-1 {
		to = pageCount - 1
	}
	if from > 2 {
		out = append(out, PageLink{Ellipsis: true})
	}
	for p := from; p <= to; p++ {
		out = append(out, link(p))
	}
	if to < pageCount-1 {
		out = append(out, PageLink{Ellipsis: true})
	}
	return append(out, link(pageCount))
}
