package tui

import (
	"context"
	"time"

	"taskboard/internal/model"
	"taskboard/internal/querycache"

	tea "github.com/charmbracelet/bubbletea"
)

// tasksLoadedMsg carries a list read. gen is the cache generation the read
// belongs to; older generations are discarded.
type tasksLoadedMsg struct {
	tasks []model.Task
	gen   uint64
	err   error
}

type saveOp int

const (
	opCreate saveOp = iota
	opUpdate
	opMove
)

type taskSavedMsg struct {
	op   saveOp
	task model.Task
	err  error
}

type taskDeletedMsg struct {
	id  model.ID
	err error
}

type clearMinibufferMsg struct{ seq int }

type refreshTickMsg struct{}

func fetchTasks(c *querycache.Cache) tea.Cmd {
	return func() tea.Msg {
		tasks, gen, err := c.Tasks(context.Background())
		return tasksLoadedMsg{tasks: tasks, gen: gen, err: err}
	}
}

func createTask(c *querycache.Cache, in model.TaskInput) tea.Cmd {
	return func() tea.Msg {
		t, err := c.Create.Do(context.Background(), in)
		return taskSavedMsg{op: opCreate, task: t, err: err}
	}
}

func updateTask(c *querycache.Cache, op saveOp, t model.Task) tea.Cmd {
	return func() tea.Msg {
		out, err := c.Update.Do(context.Background(), t)
		if err != nil {
			out = t
		}
		return taskSavedMsg{op: op, task: out, err: err}
	}
}

func deleteTask(c *querycache.Cache, id model.ID) tea.Cmd {
	return func() tea.Msg {
		_, err := c.Delete.Do(context.Background(), id)
		return taskDeletedMsg{id: id, err: err}
	}
}

func tickRefresh(d time.Duration) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg { return refreshTickMsg{} })
}
