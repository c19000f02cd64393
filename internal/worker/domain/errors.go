package domain

import "errors"

var (
	// ErrTaskNotFound is returned when a task cannot be found in the database.
	// The task may have been removed between enqueue and dispatch; the
	// dispatcher treats this as a no-op, not a failure.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotPending is returned when claiming a task that has already
	// left PENDING. Status transitions are monotonic; a second delivery of
	// the same id must not re-run or regress the task.
	ErrTaskNotPending = errors.New("task is not in PENDING status")
)
