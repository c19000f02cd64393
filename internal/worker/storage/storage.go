package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cuongbtq/task-service/internal/worker/domain"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the worker. Every status
// mutation is a single guarded UPDATE, so a task can never move backwards
// through the state machine even if the same message is delivered twice.
type Storage struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewStorage creates a new Storage instance
func NewStorage(db *sqlx.DB, logger *slog.Logger) *Storage {
	return &Storage{
		db:     db,
		logger: logger,
	}
}

// ClaimTask transitions a task PENDING → IN_PROGRESS and returns it. The
// status guard makes the claim atomic: a task that is missing or has already
// left PENDING is reported via sentinel errors, not claimed again.
func (s *Storage) ClaimTask(ctx context.Context, taskID string) (*domain.Task, error) {
	query := s.db.Rebind(`
		UPDATE tasks
		SET status = ?, updated_at = ?
		WHERE task_id = ? AND status = ?
		RETURNING task_id, task_type, input_data
	`)

	var task domain.Task
	err := s.db.QueryRowContext(ctx, query,
		domain.TaskStatusInProgress,
		time.Now(),
		taskID,
		domain.TaskStatusPending,
	).Scan(
		&task.TaskID,
		&task.TaskType,
		&task.InputData,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, s.classifyClaimFailure(ctx, taskID)
		}
		return nil, fmt.Errorf("failed to claim task: %w", err)
	}

	task.Status = domain.TaskStatusInProgress

	s.logger.Info("Task claimed",
		slog.String("task_id", taskID),
		slog.String("task_type", task.TaskType),
	)

	return &task, nil
}

// classifyClaimFailure distinguishes a missing task from one that already
// left PENDING, so the processor can log the right thing.
func (s *Storage) classifyClaimFailure(ctx context.Context, taskID string) error {
	query := s.db.Rebind(`SELECT status FROM tasks WHERE task_id = ?`)

	var status string
	err := s.db.GetContext(ctx, &status, query, taskID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrTaskNotFound
		}
		return fmt.Errorf("failed to inspect task %s: %w", taskID, err)
	}

	return fmt.Errorf("%w: status is %s", domain.ErrTaskNotPending, status)
}

// FinishTask records a terminal outcome: status, result and updated_at in one
// atomic update, guarded on IN_PROGRESS so terminal states are written
// exactly once and never overwritten.
func (s *Storage) FinishTask(ctx context.Context, taskID, status string, result map[string]any) error {
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("failed to marshal result: %w", err)
	}

	query := s.db.Rebind(`
		UPDATE tasks
		SET status = ?, result = ?, updated_at = ?
		WHERE task_id = ? AND status = ?
	`)

	res, err := s.db.ExecContext(ctx, query,
		status,
		string(resultJSON),
		time.Now(),
		taskID,
		domain.TaskStatusInProgress,
	)
	if err != nil {
		return fmt.Errorf("failed to finish task: %w", err)
	}

	rowsAffected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected == 0 {
		s.logger.Warn("Finish update matched no rows (task not in progress)",
			slog.String("task_id", taskID),
			slog.String("status", status),
		)
		return nil
	}

	s.logger.Info("Task finished",
		slog.String("task_id", taskID),
		slog.String("status", status),
	)

	return nil
}
