package worker

import (
	"context"
	"fmt"
	"log/slog"
)

// spawnWorkerPool spawns N worker goroutines based on concurrency configuration
func (w *Worker) spawnWorkerPool(ctx context.Context) {
	w.logger.Info("Spawning worker pool",
		slog.Int("concurrency", w.concurrency),
		slog.String("worker_id", w.workerID),
	)

	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.workerLoop(ctx, i)
	}
}

// workerLoop is the main processing loop for each worker goroutine. Every
// delivery ends acknowledged: executor failures are recorded on the task
// itself, so there is nothing to redeliver.
func (w *Worker) workerLoop(ctx context.Context, workerNum int) {
	defer w.wg.Done()

	workerName := fmt.Sprintf("%s-%d", w.workerID, workerNum)
	w.logger.Info("Worker goroutine started",
		slog.String("worker_name", workerName),
	)

	for {
		select {
		case <-w.stopChan:
			w.logger.Info("Worker goroutine stopping - stopChan closed",
				slog.String("worker_name", workerName),
			)
			return

		case <-ctx.Done():
			w.logger.Info("Worker goroutine stopping - context canceled",
				slog.String("worker_name", workerName),
			)
			return

		case msg, ok := <-w.tasksChan:
			if !ok {
				w.logger.Info("Worker goroutine stopping - tasksChan closed",
					slog.String("worker_name", workerName),
				)
				return
			}

			err := w.processTask(ctx, msg)

			channel := w.rabbitClient.GetChannel()
			if channel == nil {
				w.logger.Error("Failed to get RabbitMQ channel for ACK",
					slog.String("worker_name", workerName),
					slog.String("task_id", msg.TaskID),
				)
				continue
			}

			if err != nil {
				// Infrastructure failure before/after execution (the db was
				// unreachable, say). Single-attempt delivery: drop without
				// requeue and leave the record for inspection.
				w.logger.Error("Task processing failed",
					slog.String("worker_name", workerName),
					slog.String("task_id", msg.TaskID),
					slog.String("error", err.Error()),
				)
				if nackErr := channel.Nack(msg.DeliveryTag, false, false); nackErr != nil {
					w.logger.Error("Failed to NACK message",
						slog.String("task_id", msg.TaskID),
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if ackErr := channel.Ack(msg.DeliveryTag, false); ackErr != nil {
				w.logger.Error("Failed to ACK message",
					slog.String("task_id", msg.TaskID),
					slog.String("error", ackErr.Error()),
				)
			}
		}
	}
}
