package handler

import (
	"context"
	"log/slog"

	"github.com/cuongbtq/task-service/internal/api/admission"
	"github.com/cuongbtq/task-service/internal/api/storage"
	"github.com/cuongbtq/task-service/internal/auth"
	"github.com/cuongbtq/task-service/internal/taskdef"
)

// TaskPublisher enqueues an accepted task id for asynchronous execution.
type TaskPublisher interface {
	PublishTask(ctx context.Context, taskID string) error
}

// Dependencies holds all dependencies needed by handlers
type Dependencies struct {
	Logger    *slog.Logger
	Storage   *storage.Storage
	Registry  *taskdef.Registry
	Admission *admission.Controller
	Publisher TaskPublisher
	Tokens    *auth.TokenManager
}

// TaskHandler handles task-related HTTP requests
type TaskHandler struct {
	logger    *slog.Logger
	storage   *storage.Storage
	registry  *taskdef.Registry
	admission *admission.Controller
	publisher TaskPublisher
}

// NewTaskHandler creates a new TaskHandler instance
func NewTaskHandler(deps *Dependencies) *TaskHandler {
	return &TaskHandler{
		logger:    deps.Logger,
		storage:   deps.Storage,
		registry:  deps.Registry,
		admission: deps.Admission,
		publisher: deps.Publisher,
	}
}

// AuthHandler handles registration and token HTTP requests
type AuthHandler struct {
	logger  *slog.Logger
	storage *storage.Storage
	tokens  *auth.TokenManager
}

// NewAuthHandler creates a new AuthHandler instance
func NewAuthHandler(deps *Dependencies) *AuthHandler {
	return &AuthHandler{
		logger:  deps.Logger,
		storage: deps.Storage,
		tokens:  deps.Tokens,
	}
}
