package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

const modalMaxWidth = 64

// modalWidth is the outer width of a modal on a screen width cells wide.
func modalWidth(width int) int {
	w := width - 4
	if w > modalMaxWidth {
		w = modalMaxWidth
	}
	if w < 24 {
		w = 24
	}
	return w
}

// modalBodyWidth is the content width inside the modal's border and padding.
func modalBodyWidth(width int) int {
	return modalWidth(width) - 4
}

func renderModalBox(width int, title, content string) string {
	bodyW := modalBodyWidth(width)
	head := lipgloss.NewStyle().Bold(true).Foreground(colorSurfaceFg).Render(title)

	lines := []string{normalizePane(head, bodyW, 0), ""}
	for _, ln := range strings.Split(content, "\n") {
		lines = append(lines, normalizePane(ln, bodyW, 0))
	}

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(colorAccent).
		Background(colorModalBg).
		Padding(0, 1).
		Render(strings.Join(lines, "\n"))
}
