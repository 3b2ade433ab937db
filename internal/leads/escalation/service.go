// Package escalation sweeps the pipeline for leads nobody touched and
// notifies or reassigns according to the configured escalation mode.
package escalation

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainevents "agencydesk_backend/internal/events"
	"agencydesk_backend/internal/leads/assignment"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/internal/users"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

// assignmentWriter is the repository slice needed to move a lead.
type assignmentWriter interface {
	UpdateAssignment(ctx context.Context, id uuid.UUID, assignee *uuid.UUID) error
}

// Service runs the escalation sweep.
type Service struct {
	source     repository.SweepSource
	writer     assignmentWriter
	activities repository.ActivityStore
	users      users.Directory
	alloc      *assignment.Allocator
	bus        events.Bus
	log        *logger.Logger
}

// NewService creates the escalation service. It owns its round-robin cursor:
// reassignment rotation is independent from creation rotation.
func NewService(
	source repository.SweepSource,
	writer assignmentWriter,
	activities repository.ActivityStore,
	directory users.Directory,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		source:     source,
		writer:     writer,
		activities: activities,
		users:      directory,
		alloc:      assignment.NewAllocator(),
		bus:        bus,
		log:        log,
	}
}

// Result summarizes one sweep pass.
type Result struct {
	Scanned   int `json:"scanned"`
	Escalated int `json:"escalated"`
}

// Sweep flags every open, owned lead untouched for longer than the
// configured threshold. A failure on one lead is logged and the sweep
// continues; the lead comes back on the next pass.
func (s *Service) Sweep(ctx context.Context, conf settings.Settings, now time.Time) (Result, error) {
	cutoff := now.AddDate(0, 0, -conf.EscalationThresholdDays)
	stale, err := s.source.ListInactive(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("list inactive leads: %w", err)
	}

	result := Result{}
	manager := s.resolveManager(ctx, conf)

	for _, lead := range stale {
		// Only owned leads qualify; the source filters on assignment but a
		// lead without an owner must never be escalated to nobody.
		if lead.AssignedTo == nil {
			continue
		}
		result.Scanned++
		if err := s.escalate(ctx, lead, conf, manager, now); err != nil {
			s.log.Error("lead escalation failed", "lead_id", lead.ID.String(), "error", err.Error())
			continue
		}
		result.Escalated++
	}

	return result, nil
}

func (s *Service) resolveManager(ctx context.Context, conf settings.Settings) *users.User {
	if conf.EscalationManagerID == nil {
		return nil
	}
	manager, err := s.users.GetByID(ctx, *conf.EscalationManagerID)
	if err != nil {
		s.log.Warn("configured escalation manager not found",
			"manager_id", conf.EscalationManagerID.String(), "error", err.Error())
		return nil
	}
	return &manager
}

func (s *Service) escalate(ctx context.Context, lead repository.Lead, conf settings.Settings, manager *users.User, now time.Time) error {
	daysInactive := int(now.Sub(lead.UpdatedAt).Hours() / 24)
	notify := conf.EscalationMode == settings.EscalationNotifyManager || conf.EscalationMode == settings.EscalationBoth
	reassign := conf.EscalationMode == settings.EscalationReassign || conf.EscalationMode == settings.EscalationBoth

	assigneeName := s.assigneeName(ctx, lead.AssignedTo)

	reassigned := false
	if reassign {
		moved, err := s.reassign(ctx, lead, conf)
		if err != nil {
			return err
		}
		reassigned = moved
	}

	if conf.ActivityLogEnabled {
		details := map[string]string{
			"daysInactive": fmt.Sprintf("%d", daysInactive),
			"mode":         conf.EscalationMode,
		}
		if _, err := s.activities.AddActivity(ctx, repository.Activity{
			LeadID:  lead.ID,
			Action:  repository.ActionEscalated,
			Details: details,
		}); err != nil {
			s.log.Error("escalation activity log failed", "lead_id", lead.ID.String(), "error", err.Error())
		}
	}

	managerEmail := ""
	if notify {
		if manager != nil {
			managerEmail = manager.Email
		} else {
			s.log.Warn("escalation wants a manager notification but none is configured",
				"lead_id", lead.ID.String())
		}
	}

	// Synchronous publish: the sweep runs inside a scheduled job, and a
	// handler failure should be visible in the job log, not swallowed.
	if err := s.bus.PublishSync(ctx, domainevents.LeadEscalated{
		BaseEvent:    events.NewBaseEvent(),
		LeadID:       lead.ID,
		Company:      lead.Company,
		AssigneeName: assigneeName,
		DaysInactive: daysInactive,
		ManagerEmail: managerEmail,
		Reassigned:   reassigned,
	}); err != nil {
		s.log.Error("escalation event handling failed", "lead_id", lead.ID.String(), "error", err.Error())
	}

	return nil
}

// reassign rotates the lead to the next eligible assignee, skipping the
// current one so a reassignment always changes hands when the pool allows.
func (s *Service) reassign(ctx context.Context, lead repository.Lead, conf settings.Settings) (bool, error) {
	eligible, err := s.users.ListEligibleAssignees(ctx)
	if err != nil {
		return false, fmt.Errorf("load assignee pool: %w", err)
	}
	pool := make([]assignment.Assignee, len(eligible))
	for i, user := range eligible {
		pool[i] = assignment.Assignee{ID: user.ID, Name: user.Name, Email: user.Email}
	}

	var picked *assignment.Assignee
	for attempt := 0; attempt < len(pool); attempt++ {
		candidate := s.alloc.Next(pool)
		if candidate == nil {
			break
		}
		if candidate.ID != *lead.AssignedTo {
			picked = candidate
			break
		}
	}
	if picked == nil {
		return false, nil
	}

	if err := s.writer.UpdateAssignment(ctx, lead.ID, &picked.ID); err != nil {
		return false, fmt.Errorf("reassign lead: %w", err)
	}

	if conf.ActivityLogEnabled {
		if _, err := s.activities.AddActivity(ctx, repository.Activity{
			LeadID:  lead.ID,
			Action:  repository.ActionReassigned,
			Details: map[string]string{"assigneeId": picked.ID.String()},
		}); err != nil {
			s.log.Error("reassignment activity log failed", "lead_id", lead.ID.String(), "error", err.Error())
		}
	}

	if conf.AssignmentEmailEnabled {
		if err := s.bus.PublishSync(ctx, domainevents.LeadAssigned{
			BaseEvent:     events.NewBaseEvent(),
			LeadID:        lead.ID,
			Company:       lead.Company,
			ContactName:   lead.ContactName,
			AssigneeID:    picked.ID,
			AssigneeName:  picked.Name,
			AssigneeEmail: picked.Email,
		}); err != nil {
			s.log.Error("reassignment event handling failed", "lead_id", lead.ID.String(), "error", err.Error())
		}
	}

	return true, nil
}

func (s *Service) assigneeName(ctx context.Context, assigneeID *uuid.UUID) string {
	if assigneeID == nil {
		return ""
	}
	user, err := s.users.GetByID(ctx, *assigneeID)
	if err != nil {
		return ""
	}
	return user.Name
}
