package admission

import (
	"context"
	"errors"
	"testing"

	"github.com/cuongbtq/task-service/internal/taskdef"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubCounter struct {
	count int
	err   error
}

func (s *stubCounter) CountActiveTasks(_ context.Context, _ string) (int, error) {
	return s.count, s.err
}

func TestController_Admit(t *testing.T) {
	registry := taskdef.NewRegistry()

	tests := []struct {
		name     string
		active   int
		taskType string
		rawInput string
		wantErr  error
		want     map[string]any
	}{
		{
			name:     "valid sum task",
			active:   0,
			taskType: taskdef.TaskTypeSum,
			rawInput: `{"num1": 5, "num2": 7}`,
			want:     map[string]any{"num1": float64(5), "num2": float64(7)},
		},
		{
			name:     "valid countdown task",
			active:   4,
			taskType: taskdef.TaskTypeCountdown,
			rawInput: `{"seconds": 10}`,
			want:     map[string]any{"seconds": float64(10)},
		},
		{
			name:     "limit reached",
			active:   5,
			taskType: taskdef.TaskTypeSum,
			rawInput: `{"num1": 1, "num2": 2}`,
			wantErr:  ErrActiveTaskLimit,
		},
		{
			name:     "limit exceeded",
			active:   7,
			taskType: taskdef.TaskTypeSum,
			rawInput: `{"num1": 1, "num2": 2}`,
			wantErr:  ErrActiveTaskLimit,
		},
		{
			name:     "unknown task type",
			active:   0,
			taskType: "transcode",
			rawInput: `{}`,
			wantErr:  ErrUnknownTaskType,
		},
		{
			name:     "malformed input JSON",
			active:   0,
			taskType: taskdef.TaskTypeSum,
			rawInput: `{"num1": 5,`,
			wantErr:  ErrInvalidInputJSON,
		},
		{
			name:     "input JSON is not an object",
			active:   0,
			taskType: taskdef.TaskTypeSum,
			rawInput: `[1, 2]`,
			wantErr:  ErrInvalidInputJSON,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			controller := NewController(registry, &stubCounter{count: tt.active}, 5)

			input, err := controller.Admit(context.Background(), "user-1", tt.taskType, tt.rawInput)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, input)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, input)
			}
		})
	}
}

func TestController_AdmitValidationNamesField(t *testing.T) {
	registry := taskdef.NewRegistry()
	controller := NewController(registry, &stubCounter{}, 5)

	_, err := controller.Admit(context.Background(), "user-1", taskdef.TaskTypeSum, `{"num1": 5}`)

	require.Error(t, err)
	var vErr *taskdef.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "num2", vErr.Field)
}

func TestController_AdmitValidatesBeforeCounting(t *testing.T) {
	// A validation failure must be reported even when the counter is broken:
	// the count read only happens for schema-valid submissions.
	registry := taskdef.NewRegistry()
	controller := NewController(registry, &stubCounter{err: errors.New("db down")}, 5)

	_, err := controller.Admit(context.Background(), "user-1", taskdef.TaskTypeSum, `{"num1": 5}`)

	var vErr *taskdef.ValidationError
	require.ErrorAs(t, err, &vErr)
}
