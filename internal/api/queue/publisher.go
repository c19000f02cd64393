package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/task-service/shared/rabbitmq"
)

// TaskMessage is the payload published for every accepted task. The worker
// loads everything else from the database.
type TaskMessage struct {
	TaskID string `json:"task_id"`
}

// Publisher hands accepted task ids to the queue. Delivery is fire-and-forget
// from the submitter's point of view; the HTTP request never waits for
// execution.
type Publisher struct {
	client *rabbitmq.Client
	logger *slog.Logger
}

func NewPublisher(client *rabbitmq.Client, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: client,
		logger: logger,
	}
}

// PublishTask publishes the task id to the task queue.
func (p *Publisher) PublishTask(ctx context.Context, taskID string) error {
	body, err := json.Marshal(TaskMessage{TaskID: taskID})
	if err != nil {
		return fmt.Errorf("failed to marshal task message: %w", err)
	}

	if err := p.client.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish task %s: %w", taskID, err)
	}

	p.logger.Debug("Task enqueued",
		slog.String("task_id", taskID),
	)

	return nil
}
