package dnd

import (
	"taskboard/internal/board"
	"taskboard/internal/model"
)

// Result is what the controller did with one input.
type Result struct {
	Consumed bool
	Event    *Event
	// Update is the task to persist after a cross-column drop.
	Update *model.Task
}

// Controller feeds input through its sensors and reduces the resulting events.
// It is not safe for concurrent use; the UI loop owns it.
type Controller struct {
	state   State
	sensors []Sensor
}

func NewController(sensors ...Sensor) *Controller {
	return &Controller{sensors: sensors}
}

func (c *Controller) State() State { return c.state }

func (c *Controller) Dragging() bool { return c.state.Phase == Dragging }

// Feed offers in to every sensor in order; the first event wins.
func (c *Controller) Feed(in Input, tasks []model.Task) Result {
	var res Result
	for _, s := range c.sensors {
		out := s.Translate(in, c.state)
		res.Consumed = res.Consumed || out.Consumed
		if out.Event == nil {
			continue
		}
		res.Event = out.Event
		c.state, res.Update = Reduce(c.state, *out.Event, tasks)
		break
	}
	return res
}

// Cancel drops any drag in progress without an update.
func (c *Controller) Cancel() {
	c.state, _ = Reduce(c.state, Event{Kind: EventCancel}, nil)
}

// ViewNavigator walks the visible cards of a derived board: left and right jump
// between column areas, up and down between cards of one column.
type ViewNavigator struct {
	View board.View
}

func (n *ViewNavigator) Neighbor(from Target, d Direction) (Target, bool) {
	cols := n.View.Columns
	if len(cols) == 0 {
		return Target{}, false
	}
	ci, pi := n.locate(from)
	if ci < 0 {
		return ColumnTarget(cols[0].Config.Key), true
	}
	tasks := cols[ci].Tasks

	switch d {
	case Left:
		if ci == 0 {
			return Target{}, false
		}
		return ColumnTarget(cols[ci-1].Config.Key), true
	case Right:
		if ci >= len(cols)-1 {
			return Target{}, false
		}
		return ColumnTarget(cols[ci+1].Config.Key), true
	case Up:
		switch {
		case pi > 0:
			return TaskTarget(tasks[pi-1].ID), true
		case pi == 0:
			return ColumnTarget(cols[ci].Config.Key), true
		}
	case Down:
		if pi+1 < len(tasks) {
			return TaskTarget(tasks[pi+1].ID), true
		}
	}
	return Target{}, false
}

// locate returns the column index and card index of t; the card index is -1 for
// a column target.
func (n *ViewNavigator) locate(t Target) (int, int) {
	for ci, cv := range n.View.Columns {
		switch t.Kind {
		case TargetColumn:
			if cv.Config.Key == t.Column {
				return ci, -1
			}
		case TargetTask:
			for pi, task := range cv.Tasks {
				if task.ID == t.Task {
					return ci, pi
				}
			}
		}
	}
	return -1, -1
}
