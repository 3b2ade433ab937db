// Package scheduler runs the periodic automation jobs: digests, reminders,
// the escalation sweep and the weekly report. Jobs fire inside a short window
// after their configured run time and at most once per period; last-run
// markers make the guarantee survive restarts when Redis is available.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

// MarkerStore remembers the last period each job ran for.
type MarkerStore interface {
	LastRun(ctx context.Context, job string) (string, error)
	MarkRun(ctx context.Context, job, period string) error
}

// InMemoryMarkerStore keeps markers in the process. Used when Redis is not
// configured; a restart during the run window can repeat a job once.
type InMemoryMarkerStore struct {
	mu      sync.Mutex
	periods map[string]string
}

var _ MarkerStore = (*InMemoryMarkerStore)(nil)

// NewInMemoryMarkerStore creates an empty in-process marker store.
func NewInMemoryMarkerStore() *InMemoryMarkerStore {
	return &InMemoryMarkerStore{periods: make(map[string]string)}
}

// LastRun returns the last recorded period for the job, or "" for never.
func (s *InMemoryMarkerStore) LastRun(ctx context.Context, job string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.periods[job], nil
}

// MarkRun records that the job ran for the given period.
func (s *InMemoryMarkerStore) MarkRun(ctx context.Context, job, period string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.periods[job] = period
	return nil
}

const markerKeyPrefix = "scheduler:last_run:"

// RedisMarkerStore persists markers in Redis so job runs stay at most once
// per period across scheduler restarts.
type RedisMarkerStore struct {
	rdb *redis.Client
}

var _ MarkerStore = (*RedisMarkerStore)(nil)

// NewRedisMarkerStore creates a Redis-backed marker store.
func NewRedisMarkerStore(rdb *redis.Client) *RedisMarkerStore {
	return &RedisMarkerStore{rdb: rdb}
}

// LastRun returns the last recorded period for the job, or "" for never.
func (s *RedisMarkerStore) LastRun(ctx context.Context, job string) (string, error) {
	value, err := s.rdb.Get(ctx, markerKeyPrefix+job).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("read job marker %s: %w", job, err)
	}
	return value, nil
}

// MarkRun records that the job ran for the given period. Markers never
// expire; they are tiny and overwritten every period.
func (s *RedisMarkerStore) MarkRun(ctx context.Context, job, period string) error {
	if err := s.rdb.Set(ctx, markerKeyPrefix+job, period, 0).Err(); err != nil {
		return fmt.Errorf("write job marker %s: %w", job, err)
	}
	return nil
}
