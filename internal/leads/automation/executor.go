package automation

import (
	"context"

	"github.com/google/uuid"

	"agencydesk_backend/internal/clients"
	domainevents "agencydesk_backend/internal/events"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/users"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

// Converter performs the client side of a won-lead conversion.
type Converter interface {
	EnsureAccount(ctx context.Context, in clients.AccountInput) (clients.ClientAccount, bool, error)
	OpenProject(ctx context.Context, clientID uuid.UUID, company string) (clients.Project, error)
}

// ClientLinker is the repository slice recording the write-once conversion
// link.
type ClientLinker interface {
	LinkClientAccount(ctx context.Context, leadID, clientID uuid.UUID) (bool, error)
}

// Executor performs the effects decided by the engine. Effects are best
// effort: each failure is logged and the rest still run, because the lead
// mutation is already committed when the executor starts.
type Executor struct {
	activities repository.ActivityStore
	linker     ClientLinker
	users      users.Directory
	converter  Converter
	bus        events.Bus
	log        *logger.Logger
}

// NewExecutor creates the effect executor.
func NewExecutor(activities repository.ActivityStore, linker ClientLinker, directory users.Directory, converter Converter, bus events.Bus, log *logger.Logger) *Executor {
	return &Executor{
		activities: activities,
		linker:     linker,
		users:      directory,
		converter:  converter,
		bus:        bus,
		log:        log,
	}
}

// Execute runs the effects for a persisted lead. actorID is the user who
// triggered the mutation, nil for system-triggered changes.
func (x *Executor) Execute(ctx context.Context, lead repository.Lead, actorID *uuid.UUID, effects []Effect) {
	for _, effect := range effects {
		switch typed := effect.(type) {
		case LogActivity:
			x.logActivity(ctx, lead.ID, actorID, typed.Action, typed.Details)
		case NotifyAssignment:
			x.notifyAssignment(ctx, lead, typed.AssigneeID)
		case ConvertToClient:
			x.convert(ctx, lead, actorID)
		default:
			x.log.Error("unknown automation effect", "lead_id", lead.ID.String())
		}
	}
}

func (x *Executor) logActivity(ctx context.Context, leadID uuid.UUID, actorID *uuid.UUID, action string, details map[string]string) {
	_, err := x.activities.AddActivity(ctx, repository.Activity{
		LeadID:  leadID,
		ActorID: actorID,
		Action:  action,
		Details: details,
	})
	if err != nil {
		x.log.Error("activity log failed", "lead_id", leadID.String(), "action", action, "error", err.Error())
	}
}

func (x *Executor) notifyAssignment(ctx context.Context, lead repository.Lead, assigneeID uuid.UUID) {
	assignee, err := x.users.GetByID(ctx, assigneeID)
	if err != nil {
		x.log.Error("assignee lookup failed", "lead_id", lead.ID.String(), "assignee_id", assigneeID.String(), "error", err.Error())
		return
	}

	x.bus.Publish(ctx, domainevents.LeadAssigned{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		Company:       lead.Company,
		ContactName:   lead.ContactName,
		AssigneeID:    assignee.ID,
		AssigneeName:  assignee.Name,
		AssigneeEmail: assignee.Email,
	})
}

func (x *Executor) convert(ctx context.Context, lead repository.Lead, actorID *uuid.UUID) {
	account, reused, err := x.converter.EnsureAccount(ctx, clients.AccountInput{
		Company:     lead.Company,
		ContactName: lead.ContactName,
		Email:       lead.ContactEmail,
		Phone:       lead.ContactPhone,
	})
	if err != nil {
		x.log.Error("lead conversion failed", "lead_id", lead.ID.String(), "error", err.Error())
		return
	}

	linked, err := x.linker.LinkClientAccount(ctx, lead.ID, account.ID)
	if err != nil {
		x.log.Error("client account link failed", "lead_id", lead.ID.String(), "client_id", account.ID.String(), "error", err.Error())
		return
	}
	if !linked {
		// Another transition already converted this lead.
		return
	}

	// The project is opened only by the call that performed the link, so
	// repeated WON transitions yield exactly one project.
	if _, err := x.converter.OpenProject(ctx, account.ID, lead.Company); err != nil {
		x.log.Error("project creation failed after conversion",
			"lead_id", lead.ID.String(), "client_id", account.ID.String(), "error", err.Error())
	}

	x.logActivity(ctx, lead.ID, actorID, repository.ActionConverted,
		map[string]string{"clientId": account.ID.String()})

	x.bus.Publish(ctx, domainevents.LeadConverted{
		BaseEvent:     events.NewBaseEvent(),
		LeadID:        lead.ID,
		ClientID:      account.ID,
		Company:       lead.Company,
		ReusedAccount: reused,
	})
}
