// Package dnd implements drag-and-drop of task cards between board columns.
//
// Sensors turn raw terminal input into Start/Move/Drop/Cancel events; Reduce folds
// those events into a State and, on a drop that changes a task's column, yields the
// updated task to persist.
package dnd

import "taskboard/internal/model"

type Phase int

const (
	Idle Phase = iota
	Dragging
)

func (p Phase) String() string {
	if p == Dragging {
		return "dragging"
	}
	return "idle"
}

type TargetKind int

const (
	TargetNone TargetKind = iota
	TargetColumn
	TargetTask
)

// Target is a drop target: a column area or another card.
type Target struct {
	Kind   TargetKind
	Column model.Column
	Task   model.ID
}

func ColumnTarget(c model.Column) Target { return Target{Kind: TargetColumn, Column: c} }
func TaskTarget(id model.ID) Target      { return Target{Kind: TargetTask, Task: id} }

// Source names the sensor that started a drag.
type Source int

const (
	SourceNone Source = iota
	SourcePointer
	SourceKeyboard
)

type State struct {
	Phase  Phase
	Source Source
	Active model.ID
	Over   Target
	// X and Y are the last pointer cell while a pointer drag is active.
	X, Y int
}

type EventKind int

const (
	EventStart EventKind = iota
	EventMove
	EventDrop
	EventCancel
)

type Event struct {
	Kind   EventKind
	Source Source
	Task   model.ID
	Over   Target
	X, Y   int
}

// ResolveColumn maps a drop target to a column. A task target inherits the
// column of that task.
func ResolveColumn(t Target, tasks []model.Task) (model.Column, bool) {
	switch t.Kind {
	case TargetColumn:
		if t.Column.Valid() {
			return t.Column, true
		}
	case TargetTask:
		if task, ok := model.FindTask(tasks, t.Task); ok && task.Column.Valid() {
			return task.Column, true
		}
	}
	return "", false
}

// Reduce applies ev to s. The returned task is non-nil only for a drop that moves
// the active task to a different column; it differs from the stored task in Column
// alone.
func Reduce(s State, ev Event, tasks []model.Task) (State, *model.Task) {
	switch ev.Kind {
	case EventStart:
		if s.Phase == Dragging {
			return s, nil
		}
		if _, ok := model.FindTask(tasks, ev.Task); !ok {
			return s, nil
		}
		return State{Phase: Dragging, Source: ev.Source, Active: ev.Task, Over: ev.Over, X: ev.X, Y: ev.Y}, nil

	case EventMove:
		if s.Phase != Dragging {
			return s, nil
		}
		s.Over = ev.Over
		s.X, s.Y = ev.X, ev.Y
		return s, nil

	case EventDrop:
		if s.Phase != Dragging {
			return s, nil
		}
		over := ev.Over
		if over.Kind == TargetNone {
			over = s.Over
		}
		active := s.Active
		idle := State{}

		task, ok := model.FindTask(tasks, active)
		if !ok {
			return idle, nil
		}
		col, ok := ResolveColumn(over, tasks)
		if !ok || col == task.Column {
			return idle, nil
		}
		task.Column = col
		return idle, &task

	case EventCancel:
		return State{}, nil
	}
	return s, nil
}
