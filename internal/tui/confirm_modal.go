package tui

import (
	"fmt"
	"strings"

	"taskboard/internal/model"

	"github.com/charmbracelet/lipgloss"
)

type confirmModalFocus int

const (
	confirmFocusConfirm confirmModalFocus = iota
	confirmFocusCancel
)

// deleteConfirm blocks the board until the user answers.
type deleteConfirm struct {
	task  model.Task
	focus confirmModalFocus
}

func newDeleteConfirm(t model.Task) *deleteConfirm {
	// Cancel is the safe default.
	return &deleteConfirm{task: t, focus: confirmFocusCancel}
}

func (c *deleteConfirm) toggle() {
	if c.focus == confirmFocusConfirm {
		c.focus = confirmFocusCancel
	} else {
		c.focus = confirmFocusConfirm
	}
}

func (c *deleteConfirm) view(width int) string {
	body := fmt.Sprintf("Are you sure you want to delete %q?", c.task.Title)
	return renderConfirmModal(width, "Delete task", body, "Delete", "Cancel", c.focus)
}

func renderConfirmModal(width int, title, body, confirmLabel, cancelLabel string, focus confirmModalFocus) string {
	btn := func(label string, active bool) string {
		return styleButton(active).Padding(0, 1).Render(label)
	}
	controls := lipgloss.JoinHorizontal(lipgloss.Top,
		btn(confirmLabel, focus == confirmFocusConfirm),
		" ",
		btn(cancelLabel, focus == confirmFocusCancel),
	)

	bodyW := modalBodyWidth(width)
	help := styleMuted().Render("y: yes   n/esc: no   tab: focus   enter: select")

	content := strings.Join([]string{
		lipgloss.NewStyle().Width(bodyW).Render(body),
		"",
		controls,
		"",
		help,
	}, "\n")
	return renderModalBox(width, title, content)
}
