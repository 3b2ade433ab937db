package repository

import (
	"context"
	"time"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/duplicate"
)

// Consumer-driven interfaces. Each collaborator depends only on the slice of
// the repository it actually uses, which keeps fakes small in tests.

// Reader covers lead lookups and listings.
type Reader interface {
	GetByID(ctx context.Context, id uuid.UUID) (Lead, error)
	List(ctx context.Context, params ListParams) ([]Lead, error)
	Count(ctx context.Context, params ListParams) (int, error)
}

// Writer covers lead mutations.
type Writer interface {
	Create(ctx context.Context, lead Lead) (Lead, error)
	Update(ctx context.Context, lead Lead) (Lead, error)
	UpdateAssignment(ctx context.Context, id uuid.UUID, assignee *uuid.UUID) error
	LinkClientAccount(ctx context.Context, leadID, clientID uuid.UUID) (bool, error)
}

// ActivityStore covers the lead timeline.
type ActivityStore interface {
	AddActivity(ctx context.Context, activity Activity) (Activity, error)
	ListActivities(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error)
}

// DuplicateFinder covers duplicate candidate lookups.
type DuplicateFinder interface {
	FindDuplicates(ctx context.Context, criteria duplicate.Criteria, excludeID uuid.UUID, limit int) ([]Lead, error)
}

// SweepSource feeds the escalation sweep.
type SweepSource interface {
	ListInactive(ctx context.Context, cutoff time.Time) ([]Lead, error)
}

// DigestSource feeds the scheduled digest jobs.
type DigestSource interface {
	ListCold(ctx context.Context, cutoff time.Time) ([]Lead, error)
	ListOverdue(ctx context.Context, now time.Time) ([]Lead, error)
	ListStaleProposals(ctx context.Context, cutoff time.Time) ([]Lead, error)
}

// MetricsSource feeds the pipeline metrics endpoint and the weekly report.
type MetricsSource interface {
	CountByStatus(ctx context.Context) (map[string]int, error)
	StatsSince(ctx context.Context, since time.Time) (PeriodStats, error)
}

// Store is the full repository surface.
type Store interface {
	Reader
	Writer
	ActivityStore
	DuplicateFinder
	SweepSource
	DigestSource
	MetricsSource
}

var _ Store = (*Repository)(nil)
