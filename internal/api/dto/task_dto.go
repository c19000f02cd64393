package dto

import (
	"encoding/json"
	"time"

	"github.com/cuongbtq/task-service/internal/api/domain"
	"github.com/cuongbtq/task-service/internal/api/model"
	"github.com/cuongbtq/task-service/internal/taskdef"
)

// CreateTaskRequest carries a task submission. InputData is a JSON-encoded
// string and gets decoded server-side before validation.
type CreateTaskRequest struct {
	TaskType  string `json:"task_type" binding:"required"`
	InputData string `json:"input_data" binding:"required"`
}

type ListTasksRequest struct {
	Status string `form:"status"`
}

type TaskDTO struct {
	TaskID          string         `json:"id"`
	User            string         `json:"user"`
	TaskType        string         `json:"task_type"`
	TaskTypeDisplay string         `json:"task_type_display"`
	InputData       map[string]any `json:"input_data"`
	Status          string         `json:"status"`
	StatusDisplay   string         `json:"status_display"`
	Result          map[string]any `json:"result"`
	CreatedAt       string         `json:"created_at"`
}

// NewTaskDTO converts a task row into its API representation, decoding the
// stored input/result JSON objects.
func NewTaskDTO(task *model.Task, username string, registry *taskdef.Registry) TaskDTO {
	typeDisplay := task.TaskType
	if def, ok := registry.Get(task.TaskType); ok {
		typeDisplay = def.Label
	}

	var input map[string]any
	_ = json.Unmarshal([]byte(task.InputData), &input)

	var result map[string]any
	if task.Result.Valid {
		_ = json.Unmarshal([]byte(task.Result.String), &result)
	}

	return TaskDTO{
		TaskID:          task.TaskID,
		User:            username,
		TaskType:        task.TaskType,
		TaskTypeDisplay: typeDisplay,
		InputData:       input,
		Status:          task.Status,
		StatusDisplay:   domain.StatusLabels[task.Status],
		Result:          result,
		CreatedAt:       task.CreatedAt.Format(time.RFC3339),
	}
}
