package storage

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cuongbtq/task-service/internal/testutil"
	"github.com/cuongbtq/task-service/internal/worker/domain"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) (*Storage, *sqlx.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewStorage(db, logger), db
}

func insertTask(t *testing.T, db *sqlx.DB, status string) string {
	t.Helper()
	taskID := uuid.New().String()
	now := time.Now()
	query := db.Rebind(`
		INSERT INTO tasks (task_id, user_id, task_type, input_data, status, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := db.Exec(query, taskID, uuid.New().String(), "sum", `{"num1":5,"num2":7}`, status, now, now)
	require.NoError(t, err)
	return taskID
}

func taskStatus(t *testing.T, db *sqlx.DB, taskID string) string {
	t.Helper()
	var status string
	require.NoError(t, db.Get(&status, db.Rebind(`SELECT status FROM tasks WHERE task_id = ?`), taskID))
	return status
}

func TestClaimTask(t *testing.T) {
	s, db := newTestStorage(t)
	ctx := context.Background()

	taskID := insertTask(t, db, domain.TaskStatusPending)

	task, err := s.ClaimTask(ctx, taskID)
	require.NoError(t, err)
	assert.Equal(t, taskID, task.TaskID)
	assert.Equal(t, "sum", task.TaskType)
	assert.Equal(t, `{"num1":5,"num2":7}`, task.InputData)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Equal(t, domain.TaskStatusInProgress, taskStatus(t, db, taskID))
}

func TestClaimTask_MissingTask(t *testing.T) {
	s, _ := newTestStorage(t)

	_, err := s.ClaimTask(context.Background(), uuid.New().String())
	assert.ErrorIs(t, err, domain.ErrTaskNotFound)
}

func TestClaimTask_AlreadyClaimed(t *testing.T) {
	s, db := newTestStorage(t)
	ctx := context.Background()

	taskID := insertTask(t, db, domain.TaskStatusPending)

	_, err := s.ClaimTask(ctx, taskID)
	require.NoError(t, err)

	// Redelivered message: the second claim must fail, not reset the task
	_, err = s.ClaimTask(ctx, taskID)
	assert.ErrorIs(t, err, domain.ErrTaskNotPending)
	assert.Equal(t, domain.TaskStatusInProgress, taskStatus(t, db, taskID))
}

func TestClaimTask_TerminalTask(t *testing.T) {
	s, db := newTestStorage(t)

	taskID := insertTask(t, db, domain.TaskStatusCompleted)

	_, err := s.ClaimTask(context.Background(), taskID)
	assert.ErrorIs(t, err, domain.ErrTaskNotPending)
	assert.Equal(t, domain.TaskStatusCompleted, taskStatus(t, db, taskID))
}

func TestFinishTask(t *testing.T) {
	s, db := newTestStorage(t)
	ctx := context.Background()

	taskID := insertTask(t, db, domain.TaskStatusPending)
	_, err := s.ClaimTask(ctx, taskID)
	require.NoError(t, err)

	require.NoError(t, s.FinishTask(ctx, taskID, domain.TaskStatusCompleted, map[string]any{"sum": float64(12)}))

	var result string
	require.NoError(t, db.Get(&result, db.Rebind(`SELECT result FROM tasks WHERE task_id = ?`), taskID))
	assert.JSONEq(t, `{"sum":12}`, result)
	assert.Equal(t, domain.TaskStatusCompleted, taskStatus(t, db, taskID))
}

func TestFinishTask_TerminalStateIsFinal(t *testing.T) {
	s, db := newTestStorage(t)
	ctx := context.Background()

	taskID := insertTask(t, db, domain.TaskStatusPending)
	_, err := s.ClaimTask(ctx, taskID)
	require.NoError(t, err)

	require.NoError(t, s.FinishTask(ctx, taskID, domain.TaskStatusError, map[string]any{"error": "boom"}))

	// A second finish is a no-op: the guard only matches IN_PROGRESS rows
	require.NoError(t, s.FinishTask(ctx, taskID, domain.TaskStatusCompleted, map[string]any{"sum": float64(12)}))

	var result string
	require.NoError(t, db.Get(&result, db.Rebind(`SELECT result FROM tasks WHERE task_id = ?`), taskID))
	assert.JSONEq(t, `{"error":"boom"}`, result)
	assert.Equal(t, domain.TaskStatusError, taskStatus(t, db, taskID))
}

func TestFinishTask_PendingTaskUntouched(t *testing.T) {
	s, db := newTestStorage(t)

	taskID := insertTask(t, db, domain.TaskStatusPending)

	require.NoError(t, s.FinishTask(context.Background(), taskID, domain.TaskStatusCompleted, nil))
	assert.Equal(t, domain.TaskStatusPending, taskStatus(t, db, taskID))
}
