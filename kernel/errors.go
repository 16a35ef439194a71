package kernel

import (
	"errors"
	"fmt"
)

// ErrResourceExhausted is matched (errors.Is) by every task creation
// failure caused by a missing resource.
var ErrResourceExhausted = errors.New("resource exhausted")

var (
	// ErrPoolExhausted means all MaxTasks records are in use.
	ErrPoolExhausted = &createError{msg: "task pool exhausted"}

	// ErrPriorityUnavailable means the priority is not below MaxPriorities.
	ErrPriorityUnavailable = &createError{msg: "priority unavailable"}

	// ErrStackUnavailable means the port could not prepare a context on
	// the requested stack.
	ErrStackUnavailable = &createError{msg: "stack unavailable"}
)

// ErrNotInitialized is returned by CreateTask before Init.
var ErrNotInitialized = errors.New("scheduler not initialized")

type createError struct {
	msg string
}

func (e *createError) Error() string { return e.msg }

func (e *createError) Is(target error) bool {
	return target == ErrResourceExhausted
}

func priorityError(p uint8) error {
	return fmt.Errorf("%w: %d (max %d)", ErrPriorityUnavailable, p, MaxPriorities-1)
}
