package tui

import (
	"strings"

	xansi "github.com/charmbracelet/x/ansi"
)

// normalizePane forces s to exactly width columns (ANSI-aware) and, when height > 0,
// exactly height lines. Columns joined side by side stay aligned that way.
func normalizePane(s string, width, height int) string {
	if width < 0 {
		width = 0
	}
	lines := strings.Split(s, "\n")
	if height > 0 {
		if len(lines) > height {
			lines = lines[:height]
		}
		for len(lines) < height {
			lines = append(lines, "")
		}
	}
	for i, ln := range lines {
		lines[i] = fitWidth(ln, width)
	}
	return strings.Join(lines, "\n")
}

// fitWidth truncates with an ellipsis or pads ln to width cells.
func fitWidth(ln string, width int) string {
	if width <= 0 {
		return ""
	}
	w := xansi.StringWidth(ln)
	if w > width {
		ln = xansi.Truncate(ln, width, glyphEllipsis())
		w = xansi.StringWidth(ln)
	}
	if w < width {
		ln += strings.Repeat(" ", width-w)
	}
	return ln
}

// overlayAt draws fg over base with its top-left cell at (x, y). Lines of fg that
// fall outside base are dropped.
func overlayAt(base, fg string, x, y int) string {
	if x < 0 {
		x = 0
	}
	baseLines := strings.Split(base, "\n")
	for i, fl := range strings.Split(fg, "\n") {
		row := y + i
		if row < 0 || row >= len(baseLines) {
			continue
		}
		bl := baseLines[row]
		bw := xansi.StringWidth(bl)
		if bw < x {
			bl += strings.Repeat(" ", x-bw)
			bw = x
		}
		fw := xansi.StringWidth(fl)
		right := ""
		if x+fw < bw {
			right = xansi.Cut(bl, x+fw, bw)
		}
		// Reset styles so the overlay does not bleed into the rest of the line.
		baseLines[row] = xansi.Cut(bl, 0, x) + "\x1b[0m" + fl + "\x1b[0m" + right
	}
	return strings.Join(baseLines, "\n")
}

// overlayCenter places fg in the middle of a width x height screen.
func overlayCenter(base, fg string, width, height int) string {
	fw, fh := 0, 0
	for _, ln := range strings.Split(fg, "\n") {
		fw = max(fw, xansi.StringWidth(ln))
		fh++
	}
	return overlayAt(base, fg, max(0, (width-fw)/2), max(0, (height-fh)/2))
}
