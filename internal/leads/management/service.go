// Package management orchestrates lead operations: validation, the
// automation rule pass, persistence and side effects.
package management

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	domainevents "agencydesk_backend/internal/events"
	"agencydesk_backend/internal/leads/automation"
	"agencydesk_backend/internal/leads/domain"
	"agencydesk_backend/internal/leads/duplicate"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
	"agencydesk_backend/platform/phone"
)

// SettingsSource provides the current automation settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Service is the lead application service.
type Service struct {
	repo     repository.Store
	engine   *automation.Engine
	executor *automation.Executor
	settings SettingsSource
	bus      events.Bus
	log      *logger.Logger
}

// NewService creates the lead management service.
func NewService(
	repo repository.Store,
	engine *automation.Engine,
	executor *automation.Executor,
	settingsSource SettingsSource,
	bus events.Bus,
	log *logger.Logger,
) *Service {
	return &Service{
		repo:     repo,
		engine:   engine,
		executor: executor,
		settings: settingsSource,
		bus:      bus,
		log:      log,
	}
}

// CreateInput carries a new lead as submitted by the caller.
type CreateInput struct {
	Company      string
	ContactName  string
	ContactEmail string
	ContactPhone string
	Status       string
	Priority     string
	Temperature  string
	Source       string
	Notes        string
	Budget       float64
	AssignedTo   *uuid.UUID
	NextActionAt *time.Time
}

// CreateResult is the created lead plus any duplicate candidates found
// before insertion. Duplicates warn, they do not block: sales decides.
type CreateResult struct {
	Lead       repository.Lead   `json:"lead"`
	Duplicates []repository.Lead `json:"duplicates,omitempty"`
}

// Create validates, runs the automation pass, persists the lead and
// executes the side effects.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID *uuid.UUID) (CreateResult, error) {
	if err := validateCreate(input); err != nil {
		return CreateResult{}, err
	}

	conf, err := s.settings.Get(ctx)
	if err != nil {
		return CreateResult{}, err
	}

	draft := repository.Lead{
		Company:      input.Company,
		ContactName:  input.ContactName,
		ContactEmail: input.ContactEmail,
		ContactPhone: phone.NormalizeE164(input.ContactPhone),
		Status:       input.Status,
		Priority:     input.Priority,
		Temperature:  input.Temperature,
		Source:       input.Source,
		Notes:        input.Notes,
		Budget:       input.Budget,
		AssignedTo:   input.AssignedTo,
		NextActionAt: input.NextActionAt,
		CreatedBy:    actorID,
	}

	duplicates, err := s.findDuplicates(ctx, conf, draft.ContactEmail, draft.Company, draft.ContactPhone, uuid.Nil)
	if err != nil {
		return CreateResult{}, err
	}

	finalized, effects, err := s.engine.ApplyOnCreate(ctx, draft, conf)
	if err != nil {
		return CreateResult{}, apperr.Wrap(apperr.KindInternal, "lead automation failed", err).WithOp("leads.Create")
	}

	created, err := s.repo.Create(ctx, finalized)
	if err != nil {
		return CreateResult{}, apperr.Wrap(apperr.KindInternal, "failed to create lead", err).WithOp("leads.Create")
	}

	s.executor.Execute(ctx, created, actorID, effects)
	s.bus.Publish(ctx, domainevents.LeadCreated{
		BaseEvent: events.NewBaseEvent(),
		LeadID:    created.ID,
		Company:   created.Company,
		Status:    created.Status,
		Score:     created.Score,
		Assigned:  created.AssignedTo != nil,
	})

	return CreateResult{Lead: created, Duplicates: duplicates}, nil
}

// UpdateInput carries a partial lead update. Nil fields keep their current
// value; the client account link is not updatable through this path.
type UpdateInput struct {
	Company      *string
	ContactName  *string
	ContactEmail *string
	ContactPhone *string
	Status       *string
	Priority     *string
	Temperature  *string
	Source       *string
	Notes        *string
	Budget       *float64
	AssignedTo   *uuid.UUID
	NextActionAt *time.Time
}

// Update applies the patch, runs the automation pass and persists the lead.
func (s *Service) Update(ctx context.Context, id uuid.UUID, input UpdateInput, actorID *uuid.UUID) (repository.Lead, error) {
	if err := validateUpdate(input); err != nil {
		return repository.Lead{}, err
	}

	current, err := s.getLead(ctx, id, "leads.Update")
	if err != nil {
		return repository.Lead{}, err
	}

	conf, err := s.settings.Get(ctx)
	if err != nil {
		return repository.Lead{}, err
	}

	updated := mergeUpdate(current, input)
	statusExplicit := input.Status != nil

	finalized, effects, err := s.engine.ApplyOnTransition(ctx, current, updated, statusExplicit, conf)
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "lead automation failed", err).WithOp("leads.Update")
	}

	saved, err := s.repo.Update(ctx, finalized)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp("leads.Update")
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to update lead", err).WithOp("leads.Update")
	}

	s.executor.Execute(ctx, saved, actorID, effects)
	return saved, nil
}

// ChangeStatus is the single-field transition used by the pipeline board.
func (s *Service) ChangeStatus(ctx context.Context, id uuid.UUID, status string, actorID *uuid.UUID) (repository.Lead, error) {
	return s.Update(ctx, id, UpdateInput{Status: &status}, actorID)
}

// Get loads one lead.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (repository.Lead, error) {
	return s.getLead(ctx, id, "leads.Get")
}

// ListResult pairs a page of leads with the total match count.
type ListResult struct {
	Leads []repository.Lead `json:"leads"`
	Total int               `json:"total"`
}

// List returns a filtered page of leads.
func (s *Service) List(ctx context.Context, params repository.ListParams) (ListResult, error) {
	leads, err := s.repo.List(ctx, params)
	if err != nil {
		return ListResult{}, apperr.Wrap(apperr.KindInternal, "failed to list leads", err).WithOp("leads.List")
	}
	total, err := s.repo.Count(ctx, params)
	if err != nil {
		return ListResult{}, apperr.Wrap(apperr.KindInternal, "failed to count leads", err).WithOp("leads.List")
	}
	return ListResult{Leads: leads, Total: total}, nil
}

// Activities returns a lead's timeline.
func (s *Service) Activities(ctx context.Context, id uuid.UUID, limit int) ([]repository.Activity, error) {
	if _, err := s.getLead(ctx, id, "leads.Activities"); err != nil {
		return nil, err
	}

	activities, err := s.repo.ListActivities(ctx, id, limit)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "failed to list activities", err).WithOp("leads.Activities")
	}
	return activities, nil
}

// DuplicateQuery is a duplicate check request.
type DuplicateQuery struct {
	Email     string
	Company   string
	Phone     string
	ExcludeID uuid.UUID
}

// CheckDuplicates looks for leads matching the given identity signals, for
// the pre-save duplicate warning in the UI.
func (s *Service) CheckDuplicates(ctx context.Context, query DuplicateQuery) ([]repository.Lead, error) {
	conf, err := s.settings.Get(ctx)
	if err != nil {
		return nil, err
	}
	return s.findDuplicates(ctx, conf, query.Email, query.Company, query.Phone, query.ExcludeID)
}

// Metrics summarizes the pipeline for the dashboard.
type Metrics struct {
	ByStatus      map[string]int         `json:"byStatus"`
	LastSevenDays repository.PeriodStats `json:"lastSevenDays"`
}

// GetMetrics returns the pipeline breakdown and the last week's movement.
func (s *Service) GetMetrics(ctx context.Context) (Metrics, error) {
	byStatus, err := s.repo.CountByStatus(ctx)
	if err != nil {
		return Metrics{}, apperr.Wrap(apperr.KindInternal, "failed to load metrics", err).WithOp("leads.Metrics")
	}
	stats, err := s.repo.StatsSince(ctx, time.Now().AddDate(0, 0, -7))
	if err != nil {
		return Metrics{}, apperr.Wrap(apperr.KindInternal, "failed to load metrics", err).WithOp("leads.Metrics")
	}
	return Metrics{ByStatus: byStatus, LastSevenDays: stats}, nil
}

func (s *Service) findDuplicates(ctx context.Context, conf settings.Settings, email, company, phoneNumber string, excludeID uuid.UUID) ([]repository.Lead, error) {
	if !conf.DuplicateCheckEnabled {
		return nil, nil
	}

	matchEmail, matchCompany, matchPhone := conf.DuplicateFields()
	criteria := duplicate.BuildCriteria(email, company, phoneNumber, duplicate.Fields{
		Email:   matchEmail,
		Company: matchCompany,
		Phone:   matchPhone,
	})
	if criteria.Empty() {
		return nil, nil
	}

	matches, err := s.repo.FindDuplicates(ctx, criteria, excludeID, duplicate.MaxMatches)
	if err != nil {
		return nil, apperr.Wrap(apperr.KindInternal, "duplicate lookup failed", err).WithOp("leads.CheckDuplicates")
	}
	return matches, nil
}

func (s *Service) getLead(ctx context.Context, id uuid.UUID, op string) (repository.Lead, error) {
	lead, err := s.repo.GetByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return repository.Lead{}, apperr.NotFound("lead not found").WithOp(op)
	}
	if err != nil {
		return repository.Lead{}, apperr.Wrap(apperr.KindInternal, "failed to load lead", err).WithOp(op)
	}
	return lead, nil
}

func validateCreate(input CreateInput) error {
	if input.Company == "" {
		return apperr.Validation("company is required").WithOp("leads.Create")
	}
	if input.Status != "" && !domain.IsValidStatus(input.Status) {
		return invalidStatus(input.Status, "leads.Create")
	}
	if input.Priority != "" && !domain.IsValidPriority(input.Priority) {
		return invalidPriority(input.Priority, "leads.Create")
	}
	if input.Budget < 0 {
		return apperr.Validation("budget cannot be negative").WithOp("leads.Create")
	}
	return nil
}

func validateUpdate(input UpdateInput) error {
	if input.Status != nil && !domain.IsValidStatus(*input.Status) {
		return invalidStatus(*input.Status, "leads.Update")
	}
	if input.Priority != nil && !domain.IsValidPriority(*input.Priority) {
		return invalidPriority(*input.Priority, "leads.Update")
	}
	if input.Budget != nil && *input.Budget < 0 {
		return apperr.Validation("budget cannot be negative").WithOp("leads.Update")
	}
	if input.Company != nil && *input.Company == "" {
		return apperr.Validation("company cannot be emptied").WithOp("leads.Update")
	}
	return nil
}

func invalidStatus(status, op string) error {
	return apperr.Validation(fmt.Sprintf("unknown status %q", status)).WithOp(op)
}

func invalidPriority(priority, op string) error {
	return apperr.Validation(fmt.Sprintf("unknown priority %q", priority)).WithOp(op)
}

func mergeUpdate(current repository.Lead, input UpdateInput) repository.Lead {
	updated := current

	if input.Company != nil {
		updated.Company = *input.Company
	}
	if input.ContactName != nil {
		updated.ContactName = *input.ContactName
	}
	if input.ContactEmail != nil {
		updated.ContactEmail = *input.ContactEmail
	}
	if input.ContactPhone != nil {
		updated.ContactPhone = phone.NormalizeE164(*input.ContactPhone)
	}
	if input.Status != nil {
		updated.Status = *input.Status
	}
	if input.Priority != nil {
		updated.Priority = *input.Priority
	}
	if input.Temperature != nil {
		updated.Temperature = *input.Temperature
	}
	if input.Source != nil {
		updated.Source = *input.Source
	}
	if input.Notes != nil {
		updated.Notes = *input.Notes
	}
	if input.Budget != nil {
		updated.Budget = *input.Budget
	}
	if input.AssignedTo != nil {
		assignee := *input.AssignedTo
		updated.AssignedTo = &assignee
	}
	if input.NextActionAt != nil {
		next := *input.NextActionAt
		updated.NextActionAt = &next
	}

	return updated
}
