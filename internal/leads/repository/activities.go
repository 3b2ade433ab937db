package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Activity actions recorded on the lead timeline.
const (
	ActionCreated       = "CREATED"
	ActionStatusChanged = "STATUS_CHANGED"
	ActionAutoQualified = "AUTO_QUALIFIED"
	ActionAssigned      = "ASSIGNED"
	ActionReassigned    = "REASSIGNED"
	ActionEscalated     = "ESCALATED"
	ActionConverted     = "CONVERTED"
)

// Activity is one entry on a lead's timeline. Details carries action-specific
// context, for example the previous and new status of a transition.
type Activity struct {
	ID        uuid.UUID         `json:"id"`
	LeadID    uuid.UUID         `json:"leadId"`
	ActorID   *uuid.UUID        `json:"actorId,omitempty"`
	Action    string            `json:"action"`
	Details   map[string]string `json:"details,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

const addActivityQuery = `
	INSERT INTO lead_activities (id, lead_id, actor_id, action, details)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at`

// AddActivity appends an entry to the lead timeline.
func (r *Repository) AddActivity(ctx context.Context, activity Activity) (Activity, error) {
	if activity.ID == uuid.Nil {
		activity.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, addActivityQuery,
		activity.ID, activity.LeadID, activity.ActorID, activity.Action, activity.Details,
	).Scan(&activity.CreatedAt)
	if err != nil {
		return Activity{}, fmt.Errorf("add activity: %w", err)
	}
	return activity, nil
}

const listActivitiesQuery = `
	SELECT id, lead_id, actor_id, action, details, created_at
	FROM lead_activities
	WHERE lead_id = $1
	ORDER BY created_at DESC, id
	LIMIT $2`

// ListActivities returns a lead's timeline, most recent first.
func (r *Repository) ListActivities(ctx context.Context, leadID uuid.UUID, limit int) ([]Activity, error) {
	rows, err := r.pool.Query(ctx, listActivitiesQuery, leadID, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list activities: %w", err)
	}
	defer rows.Close()

	activities := make([]Activity, 0)
	for rows.Next() {
		var a Activity
		if err := rows.Scan(&a.ID, &a.LeadID, &a.ActorID, &a.Action, &a.Details, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		activities = append(activities, a)
	}
	return activities, rows.Err()
}
