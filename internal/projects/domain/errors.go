package domain

import (
	"errors"
	"fmt"

	"github.com/planhaus/portal-backend/internal/lifecycle"
)

var (
	ErrNotFound = errors.New("project not found")
	// ErrInvalidTransition means the lifecycle table does not permit the move.
	ErrInvalidTransition = errors.New("status transition not allowed")
	// ErrStatusConflict means the stored status changed between read and write.
	ErrStatusConflict = errors.New("project status changed concurrently")
	ErrInvalidInput   = errors.New("invalid input")
	ErrForbidden      = errors.New("forbidden")
	ErrFileNotFound   = errors.New("file not found")
)

// TransitionError reports a rejected status change together with the status
// the project held when it was rejected. It unwraps to ErrInvalidTransition
// or ErrStatusConflict.
type TransitionError struct {
	Current   lifecycle.Status
	Requested lifecycle.Status
	Err       error
}

func (e *TransitionError) Error() string {
	return fmt.Sprintf("%s -> %s: %v", e.Current, e.Requested, e.Err)
}

func (e *TransitionError) Unwrap() error { return e.Err }
