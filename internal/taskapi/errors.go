package taskapi

import (
	"errors"
	"fmt"
	"net/http"

	"taskboard/internal/model"
)

// ErrNotFound matches any StatusError carrying a 404 (errors.Is).
var ErrNotFound = errors.New("task not found")

// NetworkError is a transport-level failure: the server was never reached or the
// connection broke before a response arrived.
type NetworkError struct {
	Op  string
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// StatusError is a non-2xx response.
type StatusError struct {
	Op         string
	URL        string
	TaskID     model.ID
	StatusCode int
	Status     string
	Body       string
}

func (e *StatusError) Error() string {
	if e.StatusCode == http.StatusNotFound && !e.TaskID.IsZero() {
		if e.Op == opUpdate {
			return fmt.Sprintf("task with id %s not found. The task may have been deleted or the server may need to be restarted", e.TaskID)
		}
		return fmt.Sprintf("task with id %s not found", e.TaskID)
	}
	status := e.Status
	if status == "" {
		status = fmt.Sprintf("%d %s", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%s failed: %s", e.Op, status)
}

func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// IsNetwork reports whether err is a transport-level failure.
func IsNetwork(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}
