package tui

import (
	"fmt"
	"strconv"
	"strings"

	"taskboard/internal/board"
	"taskboard/internal/dnd"
	"taskboard/internal/model"

	"github.com/charmbracelet/lipgloss"
	xansi "github.com/charmbracelet/x/ansi"
)

const (
	cardHeight = 5
	columnGap  = 1
	minColumnW = 16

	editLabel   = "edit"
	deleteLabel = "delete"
)

type hitKind int

const (
	hitColumn hitKind = iota
	hitCard
	hitEdit
	hitDelete
	hitPage
	hitBanner
)

// hitRegion is a clickable screen rectangle recorded while rendering.
type hitRegion struct {
	kind   hitKind
	x, y   int
	w, h   int
	column model.Column
	task   model.ID
	page   int
}

func (r hitRegion) contains(x, y int) bool {
	return x >= r.x && x < r.x+r.w && y >= r.y && y < r.y+r.h
}

// dndHit describes the region to the drag sensors. Buttons and page links are
// controls and never start a drag.
func (r hitRegion) dndHit() dnd.Hit {
	switch r.kind {
	case hitCard:
		return dnd.Hit{Target: dnd.TaskTarget(r.task)}
	case hitEdit, hitDelete:
		return dnd.Hit{Target: dnd.TaskTarget(r.task), OnControl: true}
	case hitPage:
		return dnd.Hit{Target: dnd.ColumnTarget(r.column), OnControl: true}
	case hitColumn:
		return dnd.Hit{Target: dnd.ColumnTarget(r.column)}
	}
	return dnd.Hit{}
}

// hitAt returns the innermost region at (x, y). Regions are recorded outermost
// first, so the last match wins.
func hitAt(regions []hitRegion, x, y int) (hitRegion, bool) {
	for i := len(regions) - 1; i >= 0; i-- {
		if regions[i].contains(x, y) {
			return regions[i], true
		}
	}
	return hitRegion{}, false
}

type cardState struct {
	focused bool
	lifted  bool
	target  bool
}

func columnWidth(width, n int) int {
	if n <= 0 {
		return width
	}
	w := (width - columnGap*(n-1)) / n
	if w < minColumnW {
		w = minColumnW
	}
	return w
}

// renderBoard draws the columns side by side starting at screen row top.
func (m appModel) renderBoard(width, height, top int) (string, []hitRegion) {
	cols := m.view.Columns
	if len(cols) == 0 {
		return normalizePane("", width, height), nil
	}
	colW := columnWidth(width, len(cols))

	st := m.drag.State()
	dragging := st.Phase == dnd.Dragging
	var overCol model.Column
	if dragging {
		overCol, _ = dnd.ResolveColumn(st.Over, m.tasks)
	}

	var regions []hitRegion
	rendered := make([]string, 0, len(cols))
	for ci, cv := range cols {
		x := ci * (colW + columnGap)
		key := cv.Config.Key
		hovered := dragging && overCol == key
		regions = append(regions, hitRegion{kind: hitColumn, x: x, y: top, w: colW, h: height, column: key})

		lines := []string{renderColumnHeader(cv, colW, hovered, ci == m.focusCol), ""}
		if len(cv.Tasks) == 0 {
			empty := "No tasks found"
			if hovered {
				empty = "Drop here"
			}
			lines = append(lines, styleMuted().Render(empty))
		}
		for ti, t := range cv.Tasks {
			y := top + len(lines)
			cs := cardState{
				focused: !dragging && ci == m.focusCol && ti == m.focusRow,
				lifted:  dragging && t.ID == st.Active,
				target:  dragging && st.Over.Kind == dnd.TargetTask && st.Over.Task == t.ID && t.ID != st.Active,
			}
			lines = append(lines, strings.Split(renderCard(t, colW, cs), "\n")...)
			regions = append(regions, hitRegion{kind: hitCard, x: x, y: y, w: colW, h: cardHeight, column: key, task: t.ID})
			regions = append(regions, cardButtons(x, y, colW, key, t.ID)...)
		}
		if cv.ShowPagination {
			lines = append(lines, "")
			pl, pr := renderPagination(cv, x, top+len(lines))
			lines = append(lines, pl)
			regions = append(regions, pr...)
		}
		rendered = append(rendered, normalizePane(strings.Join(lines, "\n"), colW, height))
	}

	out := rendered[0]
	gap := strings.Repeat(" ", columnGap)
	for _, r := range rendered[1:] {
		out = lipgloss.JoinHorizontal(lipgloss.Top, out, gap, r)
	}
	return normalizePane(out, width, height), regions
}

func renderColumnHeader(cv board.ColumnView, w int, hovered, focused bool) string {
	st := lipgloss.NewStyle().Bold(true).Foreground(columnColor(cv.Config.Key))
	if focused {
		st = st.Underline(true)
	}
	if hovered {
		st = st.Foreground(colorAccentFg).Background(colorDropBorder)
	}
	return st.Render(fitWidth(fmt.Sprintf("%s (%d)", cv.Config.Title, cv.Total), w))
}

func renderCard(t model.Task, w int, cs cardState) string {
	iw := max(1, w-4)

	title := strings.TrimSpace(t.Title)
	if title == "" {
		title = "(untitled)"
	}
	if cs.lifted {
		title = glyphHandle() + " " + title
	}
	desc := strings.TrimSpace(t.Description)
	if i := strings.IndexByte(desc, '\n'); i >= 0 {
		desc = desc[:i]
	}

	actions := styleButton(false).Padding(0, 1).Render(editLabel) + " " +
		styleButton(false).Padding(0, 1).Render(deleteLabel)

	body := normalizePane(strings.Join([]string{
		lipgloss.NewStyle().Bold(true).Render(xansi.Truncate(title, iw, glyphEllipsis())),
		styleMuted().Render(xansi.Truncate(desc, iw, glyphEllipsis())),
		actions,
	}, "\n"), iw, cardHeight-2)

	border := colorCardBorder
	switch {
	case cs.lifted:
		border = colorAccent
	case cs.target:
		border = colorDropBorder
	case cs.focused:
		border = colorSelectedBorder
	}
	box := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Padding(0, 1).
		Width(w - 2)
	if cs.lifted {
		box = box.Faint(true)
	}
	return box.Render(body)
}

// cardButtons locates the edit and delete buttons on a card's action row.
func cardButtons(x, y, w int, col model.Column, id model.ID) []hitRegion {
	inner := x + 2
	right := x + w - 2
	editW := len(editLabel) + 2
	deleteW := len(deleteLabel) + 2

	var out []hitRegion
	if inner+editW <= right {
		out = append(out, hitRegion{kind: hitEdit, x: inner, y: y + 3, w: editW, h: 1, column: col, task: id})
	}
	if dx := inner + editW + 1; dx+deleteW <= right {
		out = append(out, hitRegion{kind: hitDelete, x: dx, y: y + 3, w: deleteW, h: 1, column: col, task: id})
	}
	return out
}

// renderPagination draws Previous, the page numbers with ellipses and Next.
func renderPagination(cv board.ColumnView, x, y int) (string, []hitRegion) {
	var parts []string
	var regions []hitRegion
	cx := x
	add := func(s string, page int) {
		sw := xansi.StringWidth(s)
		if page > 0 {
			regions = append(regions, hitRegion{kind: hitPage, x: cx, y: y, w: sw, h: 1, column: cv.Config.Key, page: page})
		}
		parts = append(parts, s)
		cx += sw + 1
	}
	link := lipgloss.NewStyle().Foreground(colorAccent)

	if cv.HasPrev {
		add(link.Render(glyphPrev()), cv.Page-1)
	} else {
		add(styleMuted().Render(glyphPrev()), 0)
	}
	for _, l := range cv.Links {
		switch {
		case l.Ellipsis:
			add(styleMuted().Render(glyphEllipsis()), 0)
		case l.Page == cv.Page:
			add(link.Bold(true).Underline(true).Render(strconv.Itoa(l.Page)), l.Page)
		default:
			add(strconv.Itoa(l.Page), l.Page)
		}
	}
	if cv.HasNext {
		add(link.Render(glyphNext()), cv.Page+1)
	} else {
		add(styleMuted().Render(glyphNext()), 0)
	}
	return strings.Join(parts, " "), regions
}

// renderGhost is the lifted card that follows the pointer during a drag.
func renderGhost(t model.Task) string {
	title := xansi.Truncate(strings.TrimSpace(t.Title), 24, glyphEllipsis())
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Padding(0, 1).
		Render(glyphHandle() + " " + title)
}
