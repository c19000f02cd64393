package admission

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/cuongbtq/task-service/internal/taskdef"
)

var (
	// ErrActiveTaskLimit is returned when the user already has the maximum
	// number of active (PENDING or IN_PROGRESS) tasks.
	ErrActiveTaskLimit = errors.New("active task limit exceeded")

	// ErrUnknownTaskType is returned for a task type with no registry entry.
	// The enum is closed at the API boundary, so hitting this means a
	// misconfigured registry; it is surfaced, never swallowed.
	ErrUnknownTaskType = errors.New("unknown task type")

	// ErrInvalidInputJSON is returned when input_data is not a JSON object.
	ErrInvalidInputJSON = errors.New("input_data must be a valid JSON object")
)

// ActiveTaskCounter counts a user's active tasks.
type ActiveTaskCounter interface {
	CountActiveTasks(ctx context.Context, userID string) (int, error)
}

// Controller gates task creation: it validates the raw input against the
// type's schema and enforces the per-user active task cap. The count check
// and the subsequent insert are deliberately not one transaction; the cap is
// a soft limit under concurrent submissions.
type Controller struct {
	registry *taskdef.Registry
	counter  ActiveTaskCounter
	limit    int
}

// NewController creates an admission controller with the given active task limit.
func NewController(registry *taskdef.Registry, counter ActiveTaskCounter, limit int) *Controller {
	return &Controller{
		registry: registry,
		counter:  counter,
		limit:    limit,
	}
}

// Limit returns the configured active task cap.
func (c *Controller) Limit() int {
	return c.limit
}

// Admit validates a submission and returns the canonical input object to
// persist. It has no side effects beyond the active count read.
func (c *Controller) Admit(ctx context.Context, userID, taskType, rawInput string) (map[string]any, error) {
	def, ok := c.registry.Get(taskType)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTaskType, taskType)
	}

	var raw map[string]any
	if err := json.Unmarshal([]byte(rawInput), &raw); err != nil {
		return nil, ErrInvalidInputJSON
	}

	input, err := def.Validate(raw)
	if err != nil {
		return nil, err
	}

	active, err := c.counter.CountActiveTasks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to count active tasks: %w", err)
	}

	if active >= c.limit {
		return nil, ErrActiveTaskLimit
	}

	return input, nil
}
