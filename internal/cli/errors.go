package cli

import (
	"errors"
	"fmt"

	"taskboard/internal/model"
	"taskboard/internal/taskapi"
)

type notFoundError struct {
	kind string
	id   string
}

func (e notFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.kind, e.id)
}

func errNotFound(kind, id string) error {
	return notFoundError{kind: kind, id: id}
}

type abortedError struct {
	action string
}

func (e abortedError) Error() string {
	return e.action + " aborted"
}

// apiErr rewrites repository errors for terminal output.
func apiErr(id model.ID, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, taskapi.ErrNotFound):
		return errNotFound("task", id.String())
	case taskapi.IsNetwork(err):
		return fmt.Errorf("%w (is the task server running? try `taskboard serve` or `taskboard doctor`)", err)
	default:
		return err
	}
}
