package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"agencydesk_backend/internal/email"
	"agencydesk_backend/platform/config"
	"agencydesk_backend/platform/logger"
)

// TaskTypeDispatch is the asynq task type carrying a notification Request.
const TaskTypeDispatch = "notification:dispatch"

const (
	taskMaxRetry = 5
	taskTimeout  = 30 * time.Second
)

// RedisClientOpt builds the asynq Redis connection options from the
// configured Redis URL.
func RedisClientOpt(cfg config.SchedulerConfig) (asynq.RedisClientOpt, error) {
	opt, err := redis.ParseURL(cfg.GetRedisURL())
	if err != nil {
		return asynq.RedisClientOpt{}, fmt.Errorf("parse redis url: %w", err)
	}

	clientOpt := asynq.RedisClientOpt{
		Addr:      opt.Addr,
		Username:  opt.Username,
		Password:  opt.Password,
		DB:        opt.DB,
		TLSConfig: opt.TLSConfig,
	}
	if cfg.GetRedisTLSInsecure() && clientOpt.TLSConfig != nil {
		clientOpt.TLSConfig.InsecureSkipVerify = true
	}

	return clientOpt, nil
}

// QueueDispatcher hands notifications to the asynq queue; the scheduler
// worker delivers them with retries.
type QueueDispatcher struct {
	client *asynq.Client
	queue  string
	log    *logger.Logger
}

var _ Dispatcher = (*QueueDispatcher)(nil)

// NewQueueDispatcher creates a queue-backed dispatcher.
func NewQueueDispatcher(cfg config.SchedulerConfig, log *logger.Logger) (*QueueDispatcher, error) {
	clientOpt, err := RedisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	return &QueueDispatcher{
		client: asynq.NewClient(clientOpt),
		queue:  cfg.GetAsynqQueueName(),
		log:    log,
	}, nil
}

// Send enqueues the notification. Sent means accepted by the queue; actual
// delivery happens in the worker.
func (q *QueueDispatcher) Send(ctx context.Context, req Request) Result {
	payload, err := json.Marshal(req)
	if err != nil {
		q.log.Error("notification payload encoding failed", "kind", string(req.Kind), "error", err.Error())
		return Result{Err: err}
	}

	task := asynq.NewTask(TaskTypeDispatch, payload,
		asynq.Queue(q.queue),
		asynq.MaxRetry(taskMaxRetry),
		asynq.Timeout(taskTimeout),
	)
	if _, err := q.client.EnqueueContext(ctx, task); err != nil {
		q.log.Error("notification enqueue failed",
			"kind", string(req.Kind), "recipient", req.Recipient, "error", err.Error())
		return Result{Err: err}
	}

	return Result{Sent: true}
}

// Close releases the queue connection.
func (q *QueueDispatcher) Close() error {
	return q.client.Close()
}

// NewDispatcher selects the dispatch strategy: queue-backed when Redis is
// configured, direct email otherwise.
func NewDispatcher(cfg config.SchedulerConfig, sender email.Sender, log *logger.Logger) (Dispatcher, error) {
	if cfg.GetRedisURL() == "" {
		log.Info("redis not configured, notifications dispatch directly")
		return NewDirectDispatcher(sender, log), nil
	}
	return NewQueueDispatcher(cfg, log)
}
