// Package automation applies the lead lifecycle rules: round-robin
// assignment, auto-qualification, status-entry timestamps, scoring and the
// won-lead conversion trigger. Creation and update run through one rule
// pass, a creation being a transition from no previous state.
package automation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/assignment"
	"agencydesk_backend/internal/leads/domain"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/leads/scoring"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/internal/users"
)

// Engine computes the automation outcome of a lead mutation.
type Engine struct {
	alloc *assignment.Allocator
	users users.Directory
	now   func() time.Time
}

// NewEngine creates the automation engine. The allocator is owned by the
// engine so all creations share one round-robin cursor.
func NewEngine(directory users.Directory) *Engine {
	return &Engine{
		alloc: assignment.NewAllocator(),
		users: directory,
		now:   time.Now,
	}
}

// ApplyOnCreate runs the rule pass for a new lead. The draft is the lead as
// the caller submitted it; the returned lead is what must be persisted.
func (e *Engine) ApplyOnCreate(ctx context.Context, draft repository.Lead, s settings.Settings) (repository.Lead, []Effect, error) {
	return e.apply(ctx, nil, draft, false, s)
}

// ApplyOnTransition runs the rule pass for an update. statusExplicit tells
// the engine whether the caller set the status deliberately; auto-qualify
// never overrides an explicit choice.
func (e *Engine) ApplyOnTransition(ctx context.Context, current, updated repository.Lead, statusExplicit bool, s settings.Settings) (repository.Lead, []Effect, error) {
	return e.apply(ctx, &current, updated, statusExplicit, s)
}

func (e *Engine) apply(ctx context.Context, prev *repository.Lead, lead repository.Lead, statusExplicit bool, s settings.Settings) (repository.Lead, []Effect, error) {
	now := e.now()
	creating := prev == nil
	effects := make([]Effect, 0, 4)

	var (
		prevStatus   string
		prevAssignee *uuid.UUID
	)
	if prev != nil {
		prevStatus = prev.Status
		prevAssignee = prev.AssignedTo
	}

	if creating {
		if lead.Status == "" {
			lead.Status = domain.StatusLead
		}
		if lead.Priority == "" {
			lead.Priority = domain.PriorityNormal
		}
	}

	if creating && lead.AssignedTo == nil && s.RoundRobinEnabled {
		if err := e.assignRoundRobin(ctx, &lead); err != nil {
			return repository.Lead{}, nil, err
		}
	}

	autoQualified := e.autoQualify(&lead, creating, statusExplicit, s)

	statusChanged := creating || lead.Status != prevStatus
	if statusChanged {
		lead.StatusChangedAt = now
	}

	if s.StatusRulesEnabled && statusChanged {
		applyStatusEntryRules(&lead, now, s)
	}

	if s.ScoringEnabled {
		score, err := scoring.Score(scoring.Input{
			Budget:       lead.Budget,
			Source:       lead.Source,
			Priority:     lead.Priority,
			ContactEmail: lead.ContactEmail,
			ContactPhone: lead.ContactPhone,
		}, s.ScoringWeights)
		if err != nil {
			return repository.Lead{}, nil, fmt.Errorf("score lead: %w", err)
		}
		lead.Score = &score
	}

	// Conversion fires when the lead lands on WON and was never linked to a
	// client account. Re-entering WON on a linked lead requests nothing.
	if lead.Status == domain.StatusWon && lead.ClientAccountID == nil {
		effects = append(effects, ConvertToClient{})
	}

	if s.ActivityLogEnabled {
		effects = append(effects, activityEffects(lead, prevStatus, creating, statusChanged, autoQualified)...)
	}

	if assigneeChanged(prevAssignee, lead.AssignedTo) {
		if s.ActivityLogEnabled {
			effects = append(effects, LogActivity{
				Action:  repository.ActionAssigned,
				Details: map[string]string{"assigneeId": lead.AssignedTo.String()},
			})
		}
		if s.AssignmentEmailEnabled {
			effects = append(effects, NotifyAssignment{AssigneeID: *lead.AssignedTo})
		}
	}

	return lead, effects, nil
}

func (e *Engine) assignRoundRobin(ctx context.Context, lead *repository.Lead) error {
	eligible, err := e.users.ListEligibleAssignees(ctx)
	if err != nil {
		return fmt.Errorf("load assignee pool: %w", err)
	}

	pool := make([]assignment.Assignee, len(eligible))
	for i, user := range eligible {
		pool[i] = assignment.Assignee{ID: user.ID, Name: user.Name, Email: user.Email}
	}

	if picked := e.alloc.Next(pool); picked != nil {
		id := picked.ID
		lead.AssignedTo = &id
	}
	return nil
}

// autoQualify advances a fresh LEAD to QUALIFIED when it carries both a
// budget and a source. An explicitly chosen status wins over the rule.
func (e *Engine) autoQualify(lead *repository.Lead, creating, statusExplicit bool, s settings.Settings) bool {
	if !s.AutoQualifyEnabled {
		return false
	}
	if lead.Status != domain.StatusLead {
		return false
	}
	if !creating && statusExplicit {
		return false
	}
	if lead.Budget <= 0 || strings.TrimSpace(lead.Source) == "" {
		return false
	}

	lead.Status = domain.StatusQualified
	return true
}

// applyStatusEntryRules stamps the follow-up timestamps a status entry
// implies. Timestamps already set are kept, so re-entering a status never
// moves a date the team relies on.
func applyStatusEntryRules(lead *repository.Lead, now time.Time, s settings.Settings) {
	if domain.IsTerminalStatus(lead.Status) {
		if s.ClearNextActionOnClose {
			lead.NextActionAt = nil
		}
		return
	}

	switch lead.Status {
	case domain.StatusContacted:
		if lead.LastContactAt == nil {
			lead.LastContactAt = &now
		}
	case domain.StatusDemo:
		if lead.NextActionAt == nil {
			next := now.AddDate(0, 0, s.DemoFollowUpDays)
			lead.NextActionAt = &next
		}
	case domain.StatusProposal:
		if lead.NextActionAt == nil {
			next := now.AddDate(0, 0, s.ProposalFollowUpDays)
			lead.NextActionAt = &next
		}
	}
}

func activityEffects(lead repository.Lead, prevStatus string, creating, statusChanged, autoQualified bool) []Effect {
	effects := make([]Effect, 0, 2)

	switch {
	case creating:
		effects = append(effects, LogActivity{
			Action:  repository.ActionCreated,
			Details: map[string]string{"status": lead.Status},
		})
	case statusChanged:
		effects = append(effects, LogActivity{
			Action:  repository.ActionStatusChanged,
			Details: map[string]string{"from": prevStatus, "to": lead.Status},
		})
	}

	if autoQualified {
		effects = append(effects, LogActivity{
			Action:  repository.ActionAutoQualified,
			Details: map[string]string{"to": domain.StatusQualified},
		})
	}

	return effects
}

func assigneeChanged(prev, current *uuid.UUID) bool {
	if current == nil {
		return false
	}
	return prev == nil || *prev != *current
}
