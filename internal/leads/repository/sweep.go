package repository

import (
	"context"
	"fmt"
	"time"

	"agencydesk_backend/internal/leads/domain"
)

// Queries backing the scheduled jobs and the pipeline metrics. They all
// exclude terminal leads: a closed deal needs no reminders.

const openStatusesFilter = `status NOT IN ('` + domain.StatusWon + `', '` + domain.StatusLost + `')`

const listInactiveQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE ` + openStatusesFilter + `
	  AND assigned_to IS NOT NULL
	  AND updated_at < $1
	ORDER BY updated_at, id`

// ListInactive returns open leads with an owner untouched since the cutoff,
// for the escalation sweep. Unassigned leads are never escalated: there is
// nobody to take the lead away from.
func (r *Repository) ListInactive(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	return r.sweep(ctx, listInactiveQuery, cutoff)
}

const listColdQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE ` + openStatusesFilter + `
	  AND COALESCE(last_contact_at, created_at) < $1
	ORDER BY COALESCE(last_contact_at, created_at), id`

// ListCold returns open leads without contact since the cutoff. A lead never
// contacted counts from its creation time.
func (r *Repository) ListCold(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	return r.sweep(ctx, listColdQuery, cutoff)
}

const listOverdueQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE ` + openStatusesFilter + `
	  AND next_action_at IS NOT NULL
	  AND next_action_at < $1
	ORDER BY next_action_at, id`

// ListOverdue returns open leads whose planned next action slipped past now.
func (r *Repository) ListOverdue(ctx context.Context, now time.Time) ([]Lead, error) {
	return r.sweep(ctx, listOverdueQuery, now)
}

const listStaleProposalsQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE status = '` + domain.StatusProposal + `'
	  AND status_changed_at < $1
	ORDER BY status_changed_at, id`

// ListStaleProposals returns leads sitting in PROPOSAL since before the
// cutoff, for the proposal reminder job.
func (r *Repository) ListStaleProposals(ctx context.Context, cutoff time.Time) ([]Lead, error) {
	return r.sweep(ctx, listStaleProposalsQuery, cutoff)
}

func (r *Repository) sweep(ctx context.Context, query string, cutoff time.Time) ([]Lead, error) {
	rows, err := r.pool.Query(ctx, query, cutoff)
	if err != nil {
		return nil, fmt.Errorf("sweep leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

const countByStatusQuery = `
	SELECT status, count(*)
	FROM leads
	GROUP BY status`

// CountByStatus returns the pipeline breakdown.
func (r *Repository) CountByStatus(ctx context.Context) (map[string]int, error) {
	rows, err := r.pool.Query(ctx, countByStatusQuery)
	if err != nil {
		return nil, fmt.Errorf("count by status: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var (
			status string
			count  int
		)
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scan status count: %w", err)
		}
		counts[status] = count
	}
	return counts, rows.Err()
}

// PeriodStats summarizes pipeline movement since a point in time.
type PeriodStats struct {
	Created      int     `json:"created"`
	Won          int     `json:"won"`
	Lost         int     `json:"lost"`
	AverageScore float64 `json:"averageScore"`
}

const periodStatsQuery = `
	SELECT
		count(*) FILTER (WHERE created_at >= $1),
		count(*) FILTER (WHERE status = '` + domain.StatusWon + `' AND status_changed_at >= $1),
		count(*) FILTER (WHERE status = '` + domain.StatusLost + `' AND status_changed_at >= $1),
		COALESCE(avg(score) FILTER (WHERE ` + openStatusesFilter + `), 0)
	FROM leads`

// StatsSince computes creation and close counts since the given time, plus
// the average score of the open pipeline.
func (r *Repository) StatsSince(ctx context.Context, since time.Time) (PeriodStats, error) {
	var stats PeriodStats
	err := r.pool.QueryRow(ctx, periodStatsQuery, since).
		Scan(&stats.Created, &stats.Won, &stats.Lost, &stats.AverageScore)
	if err != nil {
		return PeriodStats{}, fmt.Errorf("stats since: %w", err)
	}
	return stats, nil
}
