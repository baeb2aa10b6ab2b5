// Package store persists tasks for the development server.
package store

import (
	"context"
	"errors"

	"taskboard/internal/model"
)

// ErrNotFound is returned when no task has the requested id.
var ErrNotFound = errors.New("task not found")

// TaskStore is generic CRUD over the task collection. Ids are assigned by the store.
type TaskStore interface {
	List(ctx context.Context) ([]model.Task, error)
	Get(ctx context.Context, id int64) (model.Task, error)
	Create(ctx context.Context, in model.TaskInput) (model.Task, error)
	Replace(ctx context.Context, id int64, in model.TaskInput) (model.Task, error)
	Delete(ctx context.Context, id int64) error
}
