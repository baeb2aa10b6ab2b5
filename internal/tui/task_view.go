package tui

import (
	"strings"

	"taskboard/internal/model"

	"github.com/charmbracelet/lipgloss"
)

// renderTaskView shows one task with its description rendered as markdown.
func renderTaskView(t model.Task, width, height int) string {
	bodyW := modalBodyWidth(width)

	meta := lipgloss.NewStyle().Foreground(columnColor(t.Column)).Render(t.Column.Title()) +
		styleMuted().Render("  #"+t.ID.String())

	desc := renderMarkdown(t.Description, bodyW)
	if desc == "" {
		desc = styleMuted().Render("(no description)")
	}

	// Leave room for the border, title, meta and help lines.
	maxDesc := max(1, height-10)
	descLines := strings.Split(desc, "\n")
	if len(descLines) > maxDesc {
		descLines = append(descLines[:maxDesc-1], styleMuted().Render(glyphEllipsis()))
	}

	content := strings.Join([]string{
		meta,
		"",
		strings.Join(descLines, "\n"),
		"",
		styleMuted().Render("e: edit   esc/v: close"),
	}, "\n")
	return renderModalBox(width, t.Title, content)
}
