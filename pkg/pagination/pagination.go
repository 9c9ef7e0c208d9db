package pagination

import "math"

const (
	// DefaultPerPage is the standard page size when none is provided.
	DefaultPerPage = 20
	// MaxPerPage caps how many rows any page can request.
	MaxPerPage = 200
)

// Params holds page-number pagination inputs from controllers or services.
type Params struct {
	Page    int
	PerPage int
}

// Normalize clamps page to >= 1 and per-page to [1, MaxPerPage], using
// fallback when per-page is unset.
func (p Params) Normalize(fallback int) Params {
	if fallback <= 0 {
		fallback = DefaultPerPage
	}
	if p.Page < 1 {
		p.Page = 1
	}
	if p.PerPage <= 0 {
		p.PerPage = fallback
	}
	if p.PerPage > MaxPerPage {
		p.PerPage = MaxPerPage
	}
	return p
}

// Offset returns the row offset for the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.PerPage
}

// Page describes a resolved page of a result set.
type Page struct {
	Page    int   `json:"page"`
	PerPage int   `json:"per_page"`
	Total   int64 `json:"total"`
	Pages   int   `json:"pages"`
	HasPrev bool  `json:"has_prev"`
	HasNext bool  `json:"has_next"`
	Window  []int `json:"window"`
}

// NewPage computes page counts and the navigation window for total rows.
func NewPage(p Params, total int64) Page {
	pages := 0
	if p.PerPage > 0 && total > 0 {
		pages = int(math.Ceil(float64(total) / float64(p.PerPage)))
	}
	return Page{
		Page:    p.Page,
		PerPage: p.PerPage,
		Total:   total,
		Pages:   pages,
		HasPrev: p.Page > 1,
		HasNext: p.Page < pages,
		Window:  Window(p.Page, pages),
	}
}

const (
	leftEdge     = 2
	leftCurrent  = 2
	rightCurrent = 3
	rightEdge    = 2
)

// Window lists the page numbers to render around current, with 0 marking a
// gap. The first and last two pages are always included, as are the two pages
// before current and the two after it.
func Window(current, pages int) []int {
	window := []int{}
	last := 0
	for num := 1; num <= pages; num++ {
		if num <= leftEdge ||
			(num >= current-leftCurrent && num < current+rightCurrent) ||
			num > pages-rightEdge {
			if last+1 != num {
				window = append(window, 0)
			}
			window = append(window, num)
			last = num
		}
	}
	return window
}
