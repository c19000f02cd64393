package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/cuongbtq/task-service/internal/taskdef"
	"github.com/cuongbtq/task-service/internal/worker/domain"
	"github.com/cuongbtq/task-service/internal/worker/storage"
	"github.com/cuongbtq/task-service/shared/rabbitmq"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Config holds worker configuration
type Config struct {
	Logger        *slog.Logger
	DB            *sqlx.DB
	RabbitClient  *rabbitmq.Client
	Registry      *taskdef.Registry
	Concurrency   int
	PrefetchCount int
}

// Worker consumes task ids from the queue and runs them through the
// registered executors on a pool of goroutines. One slow task (a long
// countdown, say) occupies one slot; it never blocks the other slots or the
// API service.
type Worker struct {
	logger        *slog.Logger
	storage       *storage.Storage
	rabbitClient  *rabbitmq.Client
	registry      *taskdef.Registry
	concurrency   int
	prefetchCount int
	workerID      string
	tasksChan     chan *domain.TaskMessage
	wg            sync.WaitGroup
	stopChan      chan struct{}
}

// NewWorker creates a new worker instance
func NewWorker(cfg *Config) *Worker {
	return &Worker{
		logger:        cfg.Logger,
		storage:       storage.NewStorage(cfg.DB, cfg.Logger),
		rabbitClient:  cfg.RabbitClient,
		registry:      cfg.Registry,
		concurrency:   cfg.Concurrency,
		prefetchCount: cfg.PrefetchCount,
		workerID:      fmt.Sprintf("worker-%s", uuid.New().String()[:8]),
		tasksChan:     make(chan *domain.TaskMessage),
		stopChan:      make(chan struct{}),
	}
}

// Start begins consuming and processing tasks. It blocks until ctx is
// canceled.
func (w *Worker) Start(ctx context.Context) error {
	w.logger.Info("Starting worker",
		slog.String("worker_id", w.workerID),
		slog.Int("concurrency", w.concurrency),
	)

	deliveries, err := w.setupConsumer()
	if err != nil {
		return fmt.Errorf("failed to set up consumer: %w", err)
	}

	w.spawnWorkerPool(ctx)

	go w.startMessageDispatcher(ctx, deliveries)

	<-ctx.Done()
	w.logger.Info("Worker context canceled, stopping...")

	return nil
}

// Stop gracefully stops the worker, draining in-flight tasks.
func (w *Worker) Stop() {
	w.logger.Info("Stopping worker...")
	close(w.stopChan)
	w.wg.Wait()
	w.logger.Info("Worker stopped")
}
