package model

import (
	"database/sql"
	"time"
)

type Task struct {
	TaskID    string         `db:"task_id"`
	UserID    string         `db:"user_id"`
	TaskType  string         `db:"task_type"`
	InputData string         `db:"input_data"`
	Status    string         `db:"status"`
	Result    sql.NullString `db:"result"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

type User struct {
	UserID       string    `db:"user_id"`
	Username     string    `db:"username"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}
