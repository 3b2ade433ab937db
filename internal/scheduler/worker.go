package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"

	"agencydesk_backend/internal/notification"
	"agencydesk_backend/platform/config"
	"agencydesk_backend/platform/logger"
)

// Worker consumes queued notification tasks and delivers them through the
// direct dispatcher. Delivery errors propagate to asynq so the task retries.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	log    *logger.Logger
}

// NewWorker builds the queue worker. Only call it when Redis is configured.
func NewWorker(cfg config.SchedulerConfig, direct *notification.DirectDispatcher, log *logger.Logger) (*Worker, error) {
	redisOpt, err := notification.RedisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(notification.TaskTypeDispatch, func(ctx context.Context, task *asynq.Task) error {
		var req notification.Request
		if err := json.Unmarshal(task.Payload(), &req); err != nil {
			// An unreadable payload never becomes readable; skip retries.
			return fmt.Errorf("decode notification task: %w: %w", err, asynq.SkipRetry)
		}
		return direct.Deliver(ctx, req)
	})

	return &Worker{server: server, mux: mux, log: log}, nil
}

// Run serves tasks until the context is canceled, then drains in-flight
// handlers.
func (w *Worker) Run(ctx context.Context) error {
	if err := w.server.Start(w.mux); err != nil {
		return fmt.Errorf("start notification worker: %w", err)
	}
	w.log.Info("notification worker started")

	<-ctx.Done()
	w.server.Shutdown()
	w.log.Info("notification worker stopped")
	return ctx.Err()
}
