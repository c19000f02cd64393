package domain

import (
	"errors"
)

const (
	TaskStatusPending    = "PENDING"
	TaskStatusInProgress = "IN_PROGRESS"
	TaskStatusCompleted  = "COMPLETED"
	TaskStatusError      = "ERROR"
)

// ActiveTaskLimitMessage is the fixed message returned when a user hits the
// active task cap.
const ActiveTaskLimitMessage = "You can't have more than %d active tasks at the same time"

var (
	ErrTaskNotFound = errors.New("task not found")
	ErrUserExists   = errors.New("user already exists")
	ErrUserNotFound = errors.New("user not found")
)

// StatusLabels maps task statuses to their human-readable labels.
var StatusLabels = map[string]string{
	TaskStatusPending:    "Scheduled",
	TaskStatusInProgress: "In progress",
	TaskStatusCompleted:  "Completed",
	TaskStatusError:      "Error",
}

// ValidStatus reports whether s is a known task status.
func ValidStatus(s string) bool {
	_, ok := StatusLabels[s]
	return ok
}
