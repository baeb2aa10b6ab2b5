package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"

	"taskboard/internal/board"
	"taskboard/internal/model"

	"github.com/charmbracelet/x/ansi"
	"github.com/spf13/cobra"
)

// maxCellWidth bounds free-text cells in table output.
const maxCellWidth = 48

type columnPage struct {
	Column     model.Column `json:"column"`
	Title      string       `json:"title"`
	Page       int          `json:"page"`
	TotalPages int          `json:"totalPages"`
	Total      int          `json:"total"`
	Tasks      []model.Task `json:"tasks"`
}

type boardOutput struct {
	Data  []columnPage   `json:"data"`
	Meta  map[string]any `json:"meta"`
	Hints []string       `json:"_hints,omitempty"`
}

func (boardOutput) Header() []string { return []string{"ID", "COLUMN", "TITLE", "DESCRIPTION"} }

func (o boardOutput) Rows() [][]string {
	var rows [][]string
	for _, cp := range o.Data {
		label := cp.Title
		if cp.TotalPages > 1 {
			label = fmt.Sprintf("%s (%d/%d)", cp.Title, cp.Page, cp.TotalPages)
		}
		for _, t := range cp.Tasks {
			rows = append(rows, []string{t.ID.String(), label, cell(t.Title), cell(t.Description)})
		}
	}
	return rows
}

type taskOutput struct {
	Data  model.Task     `json:"data"`
	Meta  map[string]any `json:"meta,omitempty"`
	Hints []string       `json:"_hints,omitempty"`
}

func (taskOutput) Header() []string { return []string{"FIELD", "VALUE"} }

func (o taskOutput) Rows() [][]string {
	return [][]string{
		{"id", o.Data.ID.String()},
		{"title", o.Data.Title},
		{"description", cell(o.Data.Description)},
		{"column", string(o.Data.Column)},
	}
}

func cell(s string) string {
	s = strings.Join(strings.Fields(s), " ")
	return ansi.Truncate(s, maxCellWidth, "…")
}

func newTasksCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "tasks",
		Aliases: []string{"task"},
		Short:   "Task commands",
	}

	cmd.AddCommand(newTasksListCmd(app))
	cmd.AddCommand(newTasksShowCmd(app))
	cmd.AddCommand(newTasksAddCmd(app))
	cmd.AddCommand(newTasksEditCmd(app))
	cmd.AddCommand(newTasksMoveCmd(app))
	cmd.AddCommand(newTasksRmCmd(app))

	return cmd
}

func newTasksListCmd(app *App) *cobra.Command {
	var search string
	var column string
	var page int
	var all bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List tasks by column (filtered and paginated like the board)",
		RunE: func(cmd *cobra.Command, args []string) error {
			var only model.Column
			if strings.TrimSpace(column) != "" {
				c, err := model.ParseColumn(column)
				if err != nil {
					return writeErr(cmd, err)
				}
				only = c
			}

			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			tasks, err := c.List(cmd.Context())
			if err != nil {
				return writeErr(cmd, apiErr(model.ID{}, err))
			}

			opts := board.Options{PageSize: app.cfg.Board.PageSize}
			if all {
				opts.PageSize = len(tasks) + 1
			}
			pages := board.Pages{}
			for _, cfg := range model.Columns() {
				pages[cfg.Key] = page
			}
			view := board.Derive(tasks, search, pages, opts)

			out := boardOutput{Data: []columnPage{}}
			shown := 0
			for _, cv := range view.Columns {
				if only != "" && cv.Config.Key != only {
					continue
				}
				ts := cv.Tasks
				if ts == nil {
					ts = []model.Task{}
				}
				shown += len(ts)
				out.Data = append(out.Data, columnPage{
					Column:     cv.Config.Key,
					Title:      cv.Config.Title,
					Page:       cv.Page,
					TotalPages: cv.TotalPages,
					Total:      cv.Total,
					Tasks:      ts,
				})
			}
			out.Meta = map[string]any{
				"count":  shown,
				"total":  len(tasks),
				"hidden": view.Hidden,
				"search": search,
			}
			for _, cp := range out.Data {
				if cp.Page < cp.TotalPages {
					out.Hints = append(out.Hints, fmt.Sprintf("taskboard tasks list --column %s --page %d", cp.Column, cp.Page+1))
				}
			}
			return writeOut(cmd, app, out)
		},
	}

	cmd.Flags().StringVar(&search, "search", "", "Case-insensitive filter on title and description")
	cmd.Flags().StringVar(&column, "column", "", "Only this column (backlog|in-progress|review|done)")
	cmd.Flags().IntVar(&page, "page", 1, "Page number within each column")
	cmd.Flags().BoolVar(&all, "all", false, "Disable pagination")
	cmd.Flags().Int("page-size", 0, "Tasks per column page (default from config)")
	return cmd
}

func newTasksShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show <id>",
		Short: "Show one task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			t, err := getTask(cmd.Context(), app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, taskOutput{Data: t})
		},
	}
}

func newTasksAddCmd(app *App) *cobra.Command {
	var title string
	var description string
	var column string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Create a task",
		RunE: func(cmd *cobra.Command, args []string) error {
			in := model.TaskInput{Title: title, Description: description, Column: model.Column(strings.ToLower(strings.TrimSpace(column)))}.Normalize()
			if err := in.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := c.Create(cmd.Context(), in)
			if err != nil {
				return writeErr(cmd, apiErr(model.ID{}, err))
			}
			return writeOut(cmd, app, taskOutput{
				Data:  t,
				Hints: []string{"taskboard tasks move " + t.ID.String() + " in-progress"},
			})
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "Task title (required)")
	cmd.Flags().StringVar(&description, "description", "", "Task description (markdown)")
	cmd.Flags().StringVar(&column, "column", string(model.ColumnBacklog), "Column (backlog|in-progress|review|done)")
	_ = cmd.MarkFlagRequired("title")
	return cmd
}

func newTasksEditCmd(app *App) *cobra.Command {
	var title string
	var description string
	var column string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Edit a task's title, description or column",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			flags := cmd.Flags()
			if !flags.Changed("title") && !flags.Changed("description") && !flags.Changed("column") {
				return writeErr(cmd, fmt.Errorf("nothing to change: pass --title, --description or --column"))
			}
			t, err := getTask(cmd.Context(), app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}

			in := t.Input()
			if flags.Changed("title") {
				in.Title = title
			}
			if flags.Changed("description") {
				in.Description = description
			}
			if flags.Changed("column") {
				col, err := model.ParseColumn(column)
				if err != nil {
					return writeErr(cmd, err)
				}
				in.Column = col
			}
			in = in.Normalize()
			if err := in.Validate(); err != nil {
				return writeErr(cmd, err)
			}
			return updateTask(cmd, app, t.WithInput(in))
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "New title")
	cmd.Flags().StringVar(&description, "description", "", "New description (markdown)")
	cmd.Flags().StringVar(&column, "column", "", "New column")
	return cmd
}

func newTasksMoveCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "move <id> <column>",
		Short: "Move a task to another column",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			col, err := model.ParseColumn(args[1])
			if err != nil {
				return writeErr(cmd, err)
			}
			t, err := getTask(cmd.Context(), app, args[0])
			if err != nil {
				return writeErr(cmd, err)
			}
			if t.Column == col {
				return writeOut(cmd, app, taskOutput{Data: t, Meta: map[string]any{"changed": false}})
			}
			// Only the column changes; title and description are sent back as read.
			t.Column = col
			return updateTask(cmd, app, t)
		},
	}
}

func newTasksRmCmd(app *App) *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:     "rm <id>",
		Aliases: []string{"delete"},
		Short:   "Delete a task",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id := model.ParseID(args[0])
			if id.IsZero() {
				return writeErr(cmd, errNotFound("task", args[0]))
			}
			if !yes {
				ok, err := confirm(cmd.InOrStdin(), cmd.ErrOrStderr(), fmt.Sprintf("Are you sure you want to delete task %s?", id))
				if err != nil {
					return writeErr(cmd, err)
				}
				if !ok {
					return writeErr(cmd, abortedError{action: "delete"})
				}
			}
			c, err := app.client()
			if err != nil {
				return writeErr(cmd, err)
			}
			if err := c.Delete(cmd.Context(), id); err != nil {
				return writeErr(cmd, apiErr(id, err))
			}
			return writeOut(cmd, app, map[string]any{"data": map[string]any{"id": id, "deleted": true}})
		},
	}

	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Do not ask for confirmation")
	return cmd
}

func getTask(ctx context.Context, app *App, raw string) (model.Task, error) {
	id := model.ParseID(raw)
	if id.IsZero() {
		return model.Task{}, errNotFound("task", raw)
	}
	c, err := app.client()
	if err != nil {
		return model.Task{}, err
	}
	t, err := c.Get(ctx, id)
	if err != nil {
		return model.Task{}, apiErr(id, err)
	}
	return t, nil
}

func updateTask(cmd *cobra.Command, app *App, t model.Task) error {
	c, err := app.client()
	if err != nil {
		return writeErr(cmd, err)
	}
	out, err := c.Update(cmd.Context(), t)
	if err != nil {
		return writeErr(cmd, apiErr(t.ID, err))
	}
	return writeOut(cmd, app, taskOutput{Data: out, Meta: map[string]any{"changed": true}})
}

// confirm asks a yes/no question on w and reads the answer from r. Anything but
// y/yes is a no.
func confirm(r io.Reader, w io.Writer, question string) (bool, error) {
	fmt.Fprintf(w, "%s [y/N] ", question)
	line, err := bufio.NewReader(r).ReadString('\n')
	if err != nil && line == "" {
		if err == io.EOF {
			return false, nil
		}
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}
