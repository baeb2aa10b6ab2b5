package tui

import (
	"errors"
	"strings"

	"taskboard/internal/model"

	"github.com/charmbracelet/bubbles/textarea"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

type formField int

const (
	fieldTitle formField = iota
	fieldDescription
	fieldColumn
	formFieldCount
)

// taskForm creates a task, or edits one when editing has an id.
type taskForm struct {
	editing model.Task
	title   textinput.Model
	desc    textarea.Model
	column  int
	focus   formField
	// submitted is set until the save result arrives.
	submitted bool
	// err is the local validation message.
	err string
}

// formStatus is the save state the form renders, derived from the cache mutations.
type formStatus struct {
	saving bool
	err    string
}

func newTaskForm(t model.Task, width int) *taskForm {
	bodyW := modalBodyWidth(width)

	ti := textinput.New()
	ti.Placeholder = "Task title"
	ti.Prompt = ""
	ti.CharLimit = 200
	ti.Width = bodyW - 3
	ti.SetValue(t.Title)
	ti.Focus()

	ta := textarea.New()
	ta.Placeholder = "Description (markdown)"
	ta.ShowLineNumbers = false
	ta.SetWidth(bodyW)
	ta.SetHeight(5)
	ta.SetValue(t.Description)
	ta.Blur()

	col := model.ColumnIndex(t.Column)
	if col < 0 {
		col = 0
	}
	return &taskForm{editing: t, title: ti, desc: ta, column: col}
}

func (f *taskForm) isEdit() bool { return !f.editing.ID.IsZero() }

func (f *taskForm) input() model.TaskInput {
	return model.TaskInput{
		Title:       f.title.Value(),
		Description: f.desc.Value(),
		Column:      model.Columns()[f.column].Key,
	}.Normalize()
}

// submit validates locally. A blank title never leaves the form.
func (f *taskForm) submit() (model.TaskInput, bool) {
	in := f.input()
	if err := in.Validate(); err != nil {
		var verr *model.ValidationError
		if errors.As(err, &verr) && verr.Field == "title" {
			f.err = "Title is required"
		} else {
			f.err = err.Error()
		}
		f.setFocus(fieldTitle)
		return in, false
	}
	f.err = ""
	f.submitted = true
	f.title.Blur()
	f.desc.Blur()
	return in, true
}

func (f *taskForm) setFocus(field formField) tea.Cmd {
	f.focus = field
	f.title.Blur()
	f.desc.Blur()
	switch field {
	case fieldTitle:
		return f.title.Focus()
	case fieldDescription:
		return f.desc.Focus()
	}
	return nil
}

func (f *taskForm) cycle(delta int) tea.Cmd {
	next := (int(f.focus) + delta + int(formFieldCount)) % int(formFieldCount)
	return f.setFocus(formField(next))
}

// update handles editing keys. Submit and cancel are handled by the caller.
func (f *taskForm) update(msg tea.KeyMsg) tea.Cmd {
	if f.submitted {
		return nil
	}
	switch msg.String() {
	case "tab":
		return f.cycle(1)
	case "shift+tab":
		return f.cycle(-1)
	}

	var cmd tea.Cmd
	switch f.focus {
	case fieldTitle:
		f.title, cmd = f.title.Update(msg)
		if strings.TrimSpace(f.title.Value()) != "" {
			f.err = ""
		}
	case fieldDescription:
		f.desc, cmd = f.desc.Update(msg)
	case fieldColumn:
		n := len(model.Columns())
		switch msg.String() {
		case "left", "h", "up", "k":
			f.column = (f.column - 1 + n) % n
		case "right", "l", "down", "j", " ":
			f.column = (f.column + 1) % n
		}
	}
	return cmd
}

func (f *taskForm) view(width int, st formStatus) string {
	bodyW := modalBodyWidth(width)
	label := func(s string, field formField) string {
		style := lipgloss.NewStyle().Bold(true)
		if f.focus == field && !st.saving {
			style = style.Foreground(colorAccent)
		}
		return style.Render(s)
	}

	var cols []string
	for i, c := range model.Columns() {
		active := i == f.column
		st := styleButton(active && f.focus == fieldColumn)
		text := c.Title
		if active {
			text = "[" + text + "]"
		}
		cols = append(cols, st.Render(text))
	}

	lines := []string{
		label("Title", fieldTitle),
		renderInputLine(bodyW, f.title.View()),
	}
	if msg := f.err; msg != "" || st.err != "" {
		if msg == "" {
			msg = st.err
		}
		lines = append(lines, lipgloss.NewStyle().Foreground(colorErrorFg).Render(msg))
	}
	lines = append(lines,
		"",
		label("Description", fieldDescription),
		f.desc.View(),
		"",
		label("Column", fieldColumn),
		strings.Join(cols, " "),
		"",
	)
	if st.saving {
		lines = append(lines, styleMuted().Render("Saving..."))
	} else {
		lines = append(lines, styleMuted().Render("tab: next field   ctrl+s: save   esc: cancel"))
	}

	title := "New task"
	if f.isEdit() {
		title = "Edit task"
	}
	return renderModalBox(width, title, strings.Join(lines, "\n"))
}
