package taskdef

import (
	"context"
	"fmt"
)

// Task type constants
const (
	TaskTypeSum       = "sum"
	TaskTypeCountdown = "countdown"
)

// ValidationError describes a rejected input field
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Definition binds a task type tag to its input validator and executor.
// Validate returns the canonical input object that gets persisted; Run is a
// pure function of that input and never touches storage.
type Definition struct {
	Type     string
	Label    string
	Validate func(raw map[string]any) (map[string]any, error)
	Run      func(ctx context.Context, input map[string]any) (map[string]any, error)
}

// Registry maps task type tags to their definitions. Built once at startup
// and injected read-only into admission and the worker processor.
type Registry struct {
	defs map[string]Definition
}

// NewRegistry builds the registry with all supported task types.
func NewRegistry() *Registry {
	defs := map[string]Definition{
		TaskTypeSum: {
			Type:     TaskTypeSum,
			Label:    "Sum of two numbers",
			Validate: validateSumInput,
			Run:      runSum,
		},
		TaskTypeCountdown: {
			Type:     TaskTypeCountdown,
			Label:    "Countdown",
			Validate: validateCountdownInput,
			Run:      runCountdown,
		},
	}
	return &Registry{defs: defs}
}

// Get looks up the definition for a task type tag.
func (r *Registry) Get(taskType string) (Definition, bool) {
	def, ok := r.defs[taskType]
	return def, ok
}

// Types returns the registered task type tags.
func (r *Registry) Types() []string {
	types := make([]string, 0, len(r.defs))
	for t := range r.defs {
		types = append(types, t)
	}
	return types
}
