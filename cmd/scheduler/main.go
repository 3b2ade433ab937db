package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"agencydesk_backend/internal/email"
	"agencydesk_backend/internal/leads/escalation"
	leadrepo "agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/notification"
	"agencydesk_backend/internal/scheduler"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/internal/users"
	"agencydesk_backend/platform/config"
	"agencydesk_backend/platform/db"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	log := logger.New(cfg.Env)
	log.Info("starting scheduler", "env", cfg.Env, "tick", cfg.SchedulerTick.String())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var pool *pgxpool.Pool
	if err := withRetry(ctx, log, "database connection", 5, 2*time.Second, func() error {
		p, err := db.NewPool(ctx, cfg)
		if err != nil {
			return err
		}
		pool = p
		return nil
	}); err != nil {
		log.Error("failed to connect to database", "error", err)
		panic("failed to connect to database: " + err.Error())
	}
	defer pool.Close()

	eventBus := events.NewInMemoryBus(log)

	sender, err := email.NewSender(cfg, log)
	if err != nil {
		log.Error("failed to initialize email sender", "error", err)
		panic("failed to initialize email sender: " + err.Error())
	}

	dispatcher, err := notification.NewDispatcher(cfg, sender, log)
	if err != nil {
		log.Error("failed to initialize notification dispatcher", "error", err)
		panic("failed to initialize notification dispatcher: " + err.Error())
	}
	if closer, ok := dispatcher.(interface{ Close() error }); ok {
		defer func() { _ = closer.Close() }()
	}

	settingsService := settings.NewService(settings.NewRepository(pool), log)
	directory := users.NewModule(pool).Directory()
	leadsRepo := leadrepo.NewRepository(pool)

	// Escalation raises the same domain events as the API, so the handlers
	// that turn them into emails must be subscribed here too.
	notification.NewModule(eventBus, dispatcher, settingsService, cfg.AppBaseURL, log)

	sweeper := escalation.NewService(leadsRepo, leadsRepo, leadsRepo, directory, eventBus, log)
	jobs := scheduler.NewJobs(leadsRepo, directory, sweeper, dispatcher, cfg.AppBaseURL, log)

	markers, closeMarkers := newMarkerStore(cfg, log)
	if closeMarkers != nil {
		defer closeMarkers()
	}

	service := scheduler.NewService(cfg, settingsService, markers, jobs, log)

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return service.Run(groupCtx)
	})

	if cfg.RedisURL != "" {
		direct := notification.NewDirectDispatcher(sender, log)
		worker, err := scheduler.NewWorker(cfg, direct, log)
		if err != nil {
			log.Error("failed to initialize notification worker", "error", err)
			panic("failed to initialize notification worker: " + err.Error())
		}
		group.Go(func() error {
			return worker.Run(groupCtx)
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("scheduler error", "error", err)
		panic("scheduler error: " + err.Error())
	}
	log.Info("scheduler stopped")
}

// newMarkerStore picks Redis-backed job markers when Redis is configured, so
// the once-per-period guarantee survives restarts.
func newMarkerStore(cfg *config.Config, log *logger.Logger) (scheduler.MarkerStore, func()) {
	if cfg.RedisURL == "" {
		log.Warn("REDIS_URL not configured; job markers are in-memory only")
		return scheduler.NewInMemoryMarkerStore(), nil
	}

	opt, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		log.Error("invalid REDIS_URL, falling back to in-memory job markers", "error", err.Error())
		return scheduler.NewInMemoryMarkerStore(), nil
	}
	if cfg.RedisTLSInsecure && opt.TLSConfig != nil {
		opt.TLSConfig.InsecureSkipVerify = true
	}

	rdb := redis.NewClient(opt)
	return scheduler.NewRedisMarkerStore(rdb), func() { _ = rdb.Close() }
}

func withRetry(ctx context.Context, log *logger.Logger, name string, attempts int, baseDelay time.Duration, fn func() error) error {
	if attempts < 1 {
		return fmt.Errorf("%s: invalid retry attempts", name)
	}

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err := fn(); err == nil {
			return nil
		} else {
			lastErr = err
			log.Warn("retryable operation failed", "operation", name, "attempt", attempt, "error", err)
		}

		if attempt < attempts {
			delay := time.Duration(attempt*attempt) * baseDelay
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}
	}

	return fmt.Errorf("%s: %w", name, lastErr)
}
