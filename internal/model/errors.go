package model

import "fmt"

// ValidationError is a client-side rejection; it is never sent to the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

var ErrEmptyTitle = &ValidationError{Field: "title", Reason: "title is required"}
