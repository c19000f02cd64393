package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/cuongbtq/task-service/internal/api/domain"
	"github.com/cuongbtq/task-service/internal/api/model"
	"github.com/jmoiron/sqlx"
)

// Storage handles all database operations for the API service. Queries are
// written with ? placeholders and rebound for the active driver, so the same
// code runs against PostgreSQL in production and SQLite in tests.
type Storage struct {
	db *sqlx.DB
}

func NewStorage(db *sqlx.DB) *Storage {
	return &Storage{db: db}
}

func (s *Storage) CreateTask(ctx context.Context, task *model.Task) error {
	query := s.db.Rebind(`
		INSERT INTO tasks (
			task_id, user_id, task_type, input_data,
			status, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(
		ctx,
		query,
		task.TaskID,
		task.UserID,
		task.TaskType,
		task.InputData,
		task.Status,
		task.CreatedAt,
		task.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// GetTaskByOwner fetches a task scoped to its owner. A task belonging to a
// different user is indistinguishable from a missing one: both return
// domain.ErrTaskNotFound.
func (s *Storage) GetTaskByOwner(ctx context.Context, taskID, userID string) (*model.Task, error) {
	query := s.db.Rebind(`
		SELECT task_id, user_id, task_type, input_data, status, result, created_at, updated_at
		FROM tasks
		WHERE task_id = ? AND user_id = ?
	`)

	var task model.Task
	err := s.db.GetContext(ctx, &task, query, taskID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to get task: %w", err)
	}

	return &task, nil
}

// ListTasks returns the user's tasks, newest first, optionally filtered by status.
func (s *Storage) ListTasks(ctx context.Context, userID, status string) ([]model.Task, error) {
	query := `
		SELECT task_id, user_id, task_type, input_data, status, result, created_at, updated_at
		FROM tasks
		WHERE user_id = ?
	`
	args := []any{userID}

	if status != "" {
		query += " AND status = ?"
		args = append(args, status)
	}

	query += " ORDER BY created_at DESC, task_id DESC"

	var tasks []model.Task
	err := s.db.SelectContext(ctx, &tasks, s.db.Rebind(query), args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}

	return tasks, nil
}

// CountActiveTasks counts the user's tasks in PENDING or IN_PROGRESS status.
func (s *Storage) CountActiveTasks(ctx context.Context, userID string) (int, error) {
	query := s.db.Rebind(`
		SELECT COUNT(*)
		FROM tasks
		WHERE user_id = ? AND status IN (?, ?)
	`)

	var count int
	err := s.db.GetContext(ctx, &count, query, userID, domain.TaskStatusPending, domain.TaskStatusInProgress)
	if err != nil {
		return 0, fmt.Errorf("failed to count active tasks: %w", err)
	}

	return count, nil
}

func (s *Storage) CreateUser(ctx context.Context, user *model.User) error {
	query := s.db.Rebind(`
		INSERT INTO users (user_id, username, email, password_hash, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`)

	_, err := s.db.ExecContext(
		ctx,
		query,
		user.UserID,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	return nil
}

func (s *Storage) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	query := s.db.Rebind(`
		SELECT user_id, username, email, password_hash, created_at, updated_at
		FROM users
		WHERE email = ?
	`)

	var user model.User
	err := s.db.GetContext(ctx, &user, query, email)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return &user, nil
}
