package store

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"

	"github.com/Joseda-hg/lazytodo/internal/model"
)

var (
	ErrValidation  = errors.New("validation failed")
	ErrNotFound    = errors.New("task not found")
	ErrPersistence = errors.New("persistence failed")
)

type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

type NotFoundError struct {
	ID model.TaskID
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("task %s not found", e.ID)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// PersistenceError reports a failed load or save. When Op is "save" the
// in-memory mutation has already been applied and is kept.
type PersistenceError struct {
	Op  string
	Err error

	stack *goerrors.Error
}

func newPersistenceError(op string, err error) *PersistenceError {
	return &PersistenceError{Op: op, Err: err, stack: goerrors.Wrap(err, 2)}
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s tasks: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func (e *PersistenceError) Is(target error) bool {
	return target == ErrPersistence
}

// Stack returns the call stack captured where the failure was observed.
func (e *PersistenceError) Stack() string {
	if e.stack == nil {
		return ""
	}
	return string(e.stack.Stack())
}
