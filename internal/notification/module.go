package notification

import (
	"context"
	"fmt"

	"agencydesk_backend/internal/email"
	domainevents "agencydesk_backend/internal/events"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

// SettingsSource provides the current automation settings.
type SettingsSource interface {
	Get(ctx context.Context) (settings.Settings, error)
}

// Module subscribes to domain events and routes them to the dispatcher.
type Module struct {
	dispatcher Dispatcher
	settings   SettingsSource
	baseURL    string
	log        *logger.Logger
}

// NewModule wires the notification handlers onto the bus.
func NewModule(bus events.Bus, dispatcher Dispatcher, settingsSource SettingsSource, baseURL string, log *logger.Logger) *Module {
	m := &Module{
		dispatcher: dispatcher,
		settings:   settingsSource,
		baseURL:    baseURL,
		log:        log,
	}

	bus.Subscribe(domainevents.LeadAssignedName, events.HandlerFunc(m.onLeadAssigned))
	bus.Subscribe(domainevents.LeadEscalatedName, events.HandlerFunc(m.onLeadEscalated))
	bus.Subscribe(domainevents.LeadConvertedName, events.HandlerFunc(m.onLeadConverted))

	return m
}

// Dispatcher exposes the dispatcher for the scheduler jobs, which send their
// digests without going through the bus.
func (m *Module) Dispatcher() Dispatcher {
	return m.dispatcher
}

func (m *Module) onLeadAssigned(ctx context.Context, event events.Event) error {
	assigned, ok := event.(domainevents.LeadAssigned)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.EventName())
	}

	if assigned.AssigneeEmail == "" {
		m.log.Warn("assignee has no email, skipping assignment notification",
			"lead_id", assigned.LeadID.String())
		return nil
	}

	m.dispatcher.Send(ctx, Request{
		Kind:      KindLeadAssigned,
		Recipient: assigned.AssigneeEmail,
		Assignment: &email.AssignmentData{
			AssigneeName: assigned.AssigneeName,
			Company:      assigned.Company,
			ContactName:  assigned.ContactName,
			LeadURL:      m.leadURL(assigned.LeadID.String()),
		},
	})
	return nil
}

func (m *Module) onLeadEscalated(ctx context.Context, event events.Event) error {
	escalated, ok := event.(domainevents.LeadEscalated)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.EventName())
	}

	if escalated.ManagerEmail == "" {
		return nil
	}

	m.dispatcher.Send(ctx, Request{
		Kind:      KindEscalation,
		Recipient: escalated.ManagerEmail,
		Escalation: &email.EscalationData{
			Company:      escalated.Company,
			AssigneeName: escalated.AssigneeName,
			DaysInactive: escalated.DaysInactive,
			LeadURL:      m.leadURL(escalated.LeadID.String()),
		},
	})
	return nil
}

func (m *Module) onLeadConverted(ctx context.Context, event events.Event) error {
	converted, ok := event.(domainevents.LeadConverted)
	if !ok {
		return fmt.Errorf("unexpected event type for %s", event.EventName())
	}

	current, err := m.settings.Get(ctx)
	if err != nil {
		return fmt.Errorf("load settings for conversion notice: %w", err)
	}

	for _, recipient := range current.DigestRecipients {
		m.dispatcher.Send(ctx, Request{
			Kind:      KindLeadConverted,
			Recipient: recipient,
			Conversion: &email.ConversionData{
				Company:       converted.Company,
				ReusedAccount: converted.ReusedAccount,
			},
		})
	}
	return nil
}

func (m *Module) leadURL(id string) string {
	if m.baseURL == "" {
		return ""
	}
	return m.baseURL + "/leads/" + id
}
