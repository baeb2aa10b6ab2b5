package model

import (
	"fmt"
	"strings"
)

type Column string

const (
	ColumnBacklog    Column = "backlog"
	ColumnInProgress Column = "in-progress"
	ColumnReview     Column = "review"
	ColumnDone       Column = "done"
)

// ColumnConfig pairs a column key with its display title.
type ColumnConfig struct {
	Key   Column `json:"id"`
	Title string `json:"title"`
}

var columns = [...]ColumnConfig{
	{Key: ColumnBacklog, Title: "Backlog"},
	{Key: ColumnInProgress, Title: "In Progress"},
	{Key: ColumnReview, Title: "Review"},
	{Key: ColumnDone, Title: "Done"},
}

// Columns returns the fixed board columns in display order.
func Columns() []ColumnConfig {
	out := make([]ColumnConfig, len(columns))
	copy(out, columns[:])
	return out
}

// ColumnIndex returns the board position of c, or -1 for an unknown key.
func ColumnIndex(c Column) int {
	for i, cfg := range columns {
		if cfg.Key == c {
			return i
		}
	}
	return -1
}

func (c Column) Valid() bool { return ColumnIndex(c) >= 0 }

// Title returns the display title, or the raw key for unknown columns.
func (c Column) Title() string {
	if i := ColumnIndex(c); i >= 0 {
		return columns[i].Title
	}
	return string(c)
}

func ParseColumn(s string) (Column, error) {
	c := Column(strings.ToLower(strings.TrimSpace(s)))
	if !c.Valid() {
		return "", &ValidationError{Field: "column", Reason: fmt.Sprintf("unknown column %q (want backlog|in-progress|review|done)", s)}
	}
	return c, nil
}

type Task struct {
	ID          ID     `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	Column      Column `json:"column"`
}

// TaskInput is a Task without its server-assigned identifier.
type TaskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Column      Column `json:"column"`
}

// Input strips the identifier.
func (t Task) Input() TaskInput {
	return TaskInput{Title: t.Title, Description: t.Description, Column: t.Column}
}

// WithInput returns a copy of t carrying in's fields and t's identifier.
func (t Task) WithInput(in TaskInput) Task {
	return Task{ID: t.ID, Title: in.Title, Description: in.Description, Column: in.Column}
}

// Normalize trims title and description. An empty column defaults to backlog.
func (in TaskInput) Normalize() TaskInput {
	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	if strings.TrimSpace(string(in.Column)) == "" {
		in.Column = ColumnBacklog
	}
	return in
}

func (in TaskInput) Validate() error {
	if strings.TrimSpace(in.Title) == "" {
		return ErrEmptyTitle
	}
	if !in.Column.Valid() {
		return &ValidationError{Field: "column", Reason: fmt.Sprintf("unknown column %q", in.Column)}
	}
	return nil
}

// FindTask returns the task with the given id.
func FindTask(tasks []Task, id ID) (Task, bool) {
	for _, t := range tasks {
		if t.ID == id {
			return t, true
		}
	}
	return Task{}, false
}
