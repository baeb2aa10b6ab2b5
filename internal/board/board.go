// Package board derives the paginated four-column view from a flat task list.
package board

import (
	"strings"

	"taskboard/internal/model"
)

const DefaultPageSize = 5

type Options struct {
	PageSize int
	// AlwaysShowPagination keeps the pager visible on single-page columns.
	AlwaysShowPagination bool
}

func (o Options) pageSize() int {
	if o.PageSize <= 0 {
		return DefaultPageSize
	}
	return o.PageSize
}

// Pages holds the current page per column. Missing entries mean page 1.
type Pages map[model.Column]int

type ColumnView struct {
	Config model.ColumnConfig
	// Tasks is the current page of the filtered column.
	Tasks []model.Task
	// Total is the filtered count across all pages.
	Total          int
	Page           int
	TotalPages     int
	Links          []PageLink
	ShowPagination bool
	HasPrev        bool
	HasNext        bool
}

type View struct {
	Search  string
	Columns []ColumnView
	// Hidden counts tasks whose column is not one of the board's columns.
	Hidden int
}

// Column returns the view of c.
func (v View) Column(c model.Column) (ColumnView, bool) {
	for _, cv := range v.Columns {
		if cv.Config.Key == c {
			return cv, true
		}
	}
	return ColumnView{}, false
}

// Partition groups tasks by column, preserving input order within each column.
// Tasks with an unknown column are counted in hidden and appear nowhere.
func Partition(tasks []model.Task) (by map[model.Column][]model.Task, hidden int) {
	by = make(map[model.Column][]model.Task, len(model.Columns()))
	for _, t := range tasks {
		if !t.Column.Valid() {
			hidden++
			continue
		}
		by[t.Column] = append(by[t.Column], t)
	}
	return by, hidden
}

// Matches reports whether t's title or description contains term, ignoring case.
// An empty term matches everything.
func Matches(t model.Task, term string) bool {
	if term == "" {
		return true
	}
	term = strings.ToLower(term)
	return strings.Contains(strings.ToLower(t.Title), term) ||
		strings.Contains(strings.ToLower(t.Description), term)
}

func Filter(tasks []model.Task, term string) []model.Task {
	if term == "" {
		return tasks
	}
	var out []model.Task
	for _, t := range tasks {
		if Matches(t, term) {
			out = append(out, t)
		}
	}
	return out
}

// TotalPages is ceil(count/size).
func TotalPages(count, size int) int {
	if size <= 0 {
		size = DefaultPageSize
	}
	if count <= 0 {
		return 0
	}
	return (count + size - 1) / size
}

// ClampPage forces page into [1, max(1,total)].
func ClampPage(page, total int) int {
	if page < 1 {
		return 1
	}
	if total < 1 {
		return 1
	}
	if page > total {
		return total
	}
	return page
}

// Derive builds the board view. Filtering runs per column after partitioning;
// out-of-range pages are clamped.
func Derive(tasks []model.Task, search string, pages Pages, opts Options) View {
	size := opts.pageSize()
	by, hidden := Partition(tasks)

	v := View{Search: search, Hidden: hidden}
	for _, cfg := range model.Columns() {
		filtered := Filter(by[cfg.Key], search)
		total := TotalPages(len(filtered), size)
		page := ClampPage(pages[cfg.Key], total)

		start := (page - 1) * size
		end := start + size
		if start > len(filtered) {
			start = len(filtered)
		}
		if end > len(filtered) {
			end = len(filtered)
		}

		v.Columns = append(v.Columns, ColumnView{
			Config:         cfg,
			Tasks:          filtered[start:end:end],
			Total:          len(filtered),
			Page:           page,
			TotalPages:     total,
			Links:          PageNumbers(page, total),
			ShowPagination: total > 1 || opts.AlwaysShowPagination,
			HasPrev:        page > 1,
			HasNext:        page < total,
		})
	}
	return v
}
