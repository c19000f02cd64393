package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/task-service/internal/taskdef"
	"github.com/cuongbtq/task-service/internal/worker/domain"
)

// processTask runs one task end to end: claim, execute, persist outcome.
//
// The returned error covers infrastructure failures only. Executor failures
// of any kind are converted into a terminal ERROR state on the task record
// and never bubble out of the dispatch path.
func (w *Worker) processTask(ctx context.Context, msg *domain.TaskMessage) error {
	w.logger.Info("Processing task",
		slog.String("task_id", msg.TaskID),
		slog.String("worker_id", w.workerID),
	)

	task, err := w.storage.ClaimTask(ctx, msg.TaskID)
	if err != nil {
		if errors.Is(err, domain.ErrTaskNotFound) {
			// Removed between enqueue and dispatch; nothing to do.
			w.logger.Warn("Task no longer exists, skipping",
				slog.String("task_id", msg.TaskID),
			)
			return nil
		}
		if errors.Is(err, domain.ErrTaskNotPending) {
			w.logger.Warn("Task already dispatched, skipping",
				slog.String("task_id", msg.TaskID),
				slog.String("error", err.Error()),
			)
			return nil
		}
		return fmt.Errorf("failed to claim task: %w", err)
	}

	def, ok := w.registry.Get(task.TaskType)
	if !ok {
		// The type enum is closed at the API boundary, so this means the
		// registry and the database disagree. Recorded on the task, loudly.
		w.logger.Error("No executor registered for task type",
			slog.String("task_id", task.TaskID),
			slog.String("task_type", task.TaskType),
		)
		return w.storage.FinishTask(ctx, task.TaskID, domain.TaskStatusError, map[string]any{
			"error": fmt.Sprintf("no executor registered for task type %q", task.TaskType),
		})
	}

	var input map[string]any
	if err := json.Unmarshal([]byte(task.InputData), &input); err != nil {
		w.logger.Error("Failed to parse task input",
			slog.String("task_id", task.TaskID),
			slog.String("error", err.Error()),
		)
		return w.storage.FinishTask(ctx, task.TaskID, domain.TaskStatusError, map[string]any{
			"error": fmt.Sprintf("invalid input data: %s", err.Error()),
		})
	}

	result, err := w.runExecutor(ctx, def, input)
	if err != nil {
		w.logger.Error("Task execution failed",
			slog.String("task_id", task.TaskID),
			slog.String("task_type", task.TaskType),
			slog.String("error", err.Error()),
		)
		return w.storage.FinishTask(ctx, task.TaskID, domain.TaskStatusError, map[string]any{
			"error": err.Error(),
		})
	}

	w.logger.Info("Task completed",
		slog.String("task_id", task.TaskID),
		slog.String("task_type", task.TaskType),
	)

	return w.storage.FinishTask(ctx, task.TaskID, domain.TaskStatusCompleted, result)
}

// runExecutor invokes the executor behind a recover boundary so a panicking
// executor becomes an ERROR outcome instead of taking down the worker.
func (w *Worker) runExecutor(ctx context.Context, def taskdef.Definition, input map[string]any) (result map[string]any, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("executor panicked: %v", r)
		}
	}()

	return def.Run(ctx, input)
}
