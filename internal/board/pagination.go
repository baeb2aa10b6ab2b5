package board

import (
	"strconv"

	"taskboard/internal/model"
)

// maxVisiblePages is the page count up to which every number is listed.
const maxVisiblePages = 5

// PageLink is one entry in a pager: a page number or an ellipsis gap.
type PageLink struct {
	Page     int
	Ellipsis bool
}

func (l PageLink) String() string {
	if l.Ellipsis {
		return "..."
	}
	return strconv.Itoa(l.Page)
}

// PageNumbers lists the page links to display for current out of total.
// The first and last pages are always present; gaps collapse to one ellipsis.
func PageNumbers(current, total int) []PageLink {
	var out []PageLink
	add := func(from, to int) {
		for i := from; i <= to; i++ {
			out = append(out, PageLink{Page: i})
		}
	}
	gap := func() { out = append(out, PageLink{Ellipsis: true}) }

	switch {
	case total <= maxVisiblePages:
		add(1, total)
	case current <= 3:
		add(1, 4)
		gap()
		add(total, total)
	case current >= total-2:
		add(1, 1)
		gap()
		add(total-3, total)
	default:
		add(1, 1)
		gap()
		add(current-1, current+1)
		gap()
		add(total, total)
	}
	return out
}

// Pager owns the search term and per-column page state. Changing the search
// resets every column to page 1.
type Pager struct {
	search string
	pages  Pages
	opts   Options
}

func NewPager(opts Options) *Pager {
	return &Pager{pages: Pages{}, opts: opts}
}

func (p *Pager) Search() string { return p.search }

// SetSearch updates the term and reports whether it changed.
func (p *Pager) SetSearch(term string) bool {
	if term == p.search {
		return false
	}
	p.search = term
	p.pages = Pages{}
	return true
}

func (p *Pager) Page(c model.Column) int {
	if n := p.pages[c]; n > 0 {
		return n
	}
	return 1
}

func (p *Pager) SetPage(c model.Column, page int) {
	if page < 1 {
		page = 1
	}
	p.pages[c] = page
}

// Step moves c's page by delta within the bounds of v.
func (p *Pager) Step(v View, c model.Column, delta int) bool {
	cv, ok := v.Column(c)
	if !ok {
		return false
	}
	next := ClampPage(cv.Page+delta, cv.TotalPages)
	if next == cv.Page {
		return false
	}
	p.pages[c] = next
	return true
}

// Derive builds the view and stores the clamped pages back.
func (p *Pager) Derive(tasks []model.Task) View {
	v := Derive(tasks, p.search, p.pages, p.opts)
	for _, cv := range v.Columns {
		p.pages[cv.Config.Key] = cv.Page
	}
	return v
}
