package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cuongbtq/task-service/internal/worker/domain"
	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
)

// setupConsumer configures QoS on the RabbitMQ channel and starts consuming.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Prefetch bounds the unacknowledged messages per consumer so a batch of
	// long countdowns doesn't pile up behind busy slots.
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// startMessageDispatcher reads deliveries and hands valid task ids to the
// worker pool. Malformed messages are dropped (NACK without requeue); a
// message that cannot even name a task has nowhere useful to go.
func (w *Worker) startMessageDispatcher(ctx context.Context, deliveries <-chan amqp.Delivery) {
	w.logger.Info("Message dispatcher started",
		slog.String("worker_id", w.workerID),
	)

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var msg struct {
				TaskID string `json:"task_id"`
			}

			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				w.logger.Error("Failed to parse message JSON",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				w.nack(delivery, false)
				continue
			}

			if _, err := uuid.Parse(msg.TaskID); err != nil {
				w.logger.Error("Invalid task_id in message",
					slog.String("task_id", msg.TaskID),
					slog.String("error", err.Error()),
				)
				w.nack(delivery, false)
				continue
			}

			taskMsg := &domain.TaskMessage{
				TaskID:      msg.TaskID,
				DeliveryTag: delivery.DeliveryTag,
			}

			select {
			case w.tasksChan <- taskMsg:
				w.logger.Debug("Task dispatched to worker pool",
					slog.String("task_id", msg.TaskID),
				)
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching task")
				// Requeue so another worker process can pick it up
				w.nack(delivery, true)
				return
			}
		}
	}
}

func (w *Worker) nack(delivery amqp.Delivery, requeue bool) {
	if err := delivery.Nack(false, requeue); err != nil {
		w.logger.Error("Failed to NACK message",
			slog.String("error", err.Error()),
		)
	}
}
