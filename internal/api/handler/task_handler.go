package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/cuongbtq/task-service/internal/api/admission"
	"github.com/cuongbtq/task-service/internal/api/domain"
	"github.com/cuongbtq/task-service/internal/api/dto"
	"github.com/cuongbtq/task-service/internal/api/model"
	"github.com/cuongbtq/task-service/internal/taskdef"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CreateTask handles POST /api/v1/tasks
// Validates the submission, persists the task as PENDING and enqueues it.
func (h *TaskHandler) CreateTask(c *gin.Context) {
	userID := c.GetString(ContextUserID)
	username := c.GetString(ContextUsername)

	var req dto.CreateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Error("Invalid request body", slog.String("error", err.Error()))
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request body",
		})
		return
	}

	input, err := h.admission.Admit(c.Request.Context(), userID, req.TaskType, req.InputData)
	if err != nil {
		h.rejectCreate(c, err)
		return
	}

	inputJSON, err := json.Marshal(input)
	if err != nil {
		h.logger.Error("Failed to encode task input", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create task",
		})
		return
	}

	now := time.Now()
	task := model.Task{
		TaskID:    uuid.New().String(),
		UserID:    userID,
		TaskType:  req.TaskType,
		InputData: string(inputJSON),
		Status:    domain.TaskStatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := h.storage.CreateTask(c.Request.Context(), &task); err != nil {
		h.logger.Error("Failed to create task", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create task",
		})
		return
	}

	// Fire-and-forget hand-off. A failed publish leaves the task PENDING;
	// the submitter gets its 201 either way and polls for progress.
	if err := h.publisher.PublishTask(c.Request.Context(), task.TaskID); err != nil {
		h.logger.Error("Failed to enqueue task",
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()),
		)
	}

	c.JSON(http.StatusCreated, dto.NewTaskDTO(&task, username, h.registry))
}

// rejectCreate maps admission failures onto HTTP responses.
func (h *TaskHandler) rejectCreate(c *gin.Context, err error) {
	var vErr *taskdef.ValidationError

	switch {
	case errors.Is(err, admission.ErrActiveTaskLimit):
		c.JSON(http.StatusForbidden, gin.H{
			"error": fmt.Sprintf(domain.ActiveTaskLimitMessage, h.admission.Limit()),
		})

	case errors.As(err, &vErr):
		c.JSON(http.StatusBadRequest, gin.H{
			"errors": gin.H{vErr.Field: vErr.Message},
		})

	case errors.Is(err, admission.ErrInvalidInputJSON),
		errors.Is(err, admission.ErrUnknownTaskType):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})

	default:
		h.logger.Error("Admission check failed", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to create task",
		})
	}
}

// GetTask handles GET /api/v1/tasks/:task_id
// A task owned by someone else is reported exactly like a missing one.
func (h *TaskHandler) GetTask(c *gin.Context) {
	userID := c.GetString(ContextUserID)
	username := c.GetString(ContextUsername)
	taskID := c.Param("task_id")

	if _, err := uuid.Parse(taskID); err != nil {
		c.JSON(http.StatusNotFound, gin.H{
			"error": domain.ErrTaskNotFound.Error(),
		})
		return
	}

	task, err := h.storage.GetTaskByOwner(c.Request.Context(), taskID, userID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			c.JSON(http.StatusNotFound, gin.H{
				"error": domain.ErrTaskNotFound.Error(),
			})
			return
		}
		h.logger.Error("Failed to get task",
			slog.String("task_id", taskID),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to get task",
		})
		return
	}

	c.JSON(http.StatusOK, dto.NewTaskDTO(task, username, h.registry))
}

// ListTasks handles GET /api/v1/tasks
// Lists the caller's tasks, newest first, optionally filtered by status.
func (h *TaskHandler) ListTasks(c *gin.Context) {
	userID := c.GetString(ContextUserID)
	username := c.GetString(ContextUsername)

	var req dto.ListTasksRequest
	if err := c.ShouldBindQuery(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid query parameters",
		})
		return
	}

	if req.Status != "" && !domain.ValidStatus(req.Status) {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": fmt.Sprintf("unknown status %q", req.Status),
		})
		return
	}

	tasks, err := h.storage.ListTasks(c.Request.Context(), userID, req.Status)
	if err != nil {
		h.logger.Error("Failed to list tasks", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Failed to list tasks",
		})
		return
	}

	response := make([]dto.TaskDTO, len(tasks))
	for i := range tasks {
		response[i] = dto.NewTaskDTO(&tasks[i], username, h.registry)
	}

	c.JSON(http.StatusOK, response)
}
