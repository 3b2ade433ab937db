// Package events defines the domain events exchanged between the lead
// automation modules over the platform event bus.
package events

import (
	"github.com/google/uuid"

	"agencydesk_backend/platform/events"
)

// Event names.
const (
	LeadCreatedName   = "lead.created"
	LeadAssignedName  = "lead.assigned"
	LeadEscalatedName = "lead.escalated"
	LeadConvertedName = "lead.converted"
)

// LeadCreated fires after a lead is persisted, automation applied.
type LeadCreated struct {
	events.BaseEvent
	LeadID   uuid.UUID `json:"leadId"`
	Company  string    `json:"company"`
	Status   string    `json:"status"`
	Score    *int      `json:"score,omitempty"`
	Assigned bool      `json:"assigned"`
}

// EventName implements events.Event.
func (e LeadCreated) EventName() string { return LeadCreatedName }

// LeadAssigned fires when a lead lands on a different assignee, whether by
// round-robin, manual choice or escalation reassignment.
type LeadAssigned struct {
	events.BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	Company       string    `json:"company"`
	ContactName   string    `json:"contactName"`
	AssigneeID    uuid.UUID `json:"assigneeId"`
	AssigneeName  string    `json:"assigneeName"`
	AssigneeEmail string    `json:"assigneeEmail"`
}

// EventName implements events.Event.
func (e LeadAssigned) EventName() string { return LeadAssignedName }

// LeadEscalated fires when the inactivity sweep flags a lead.
type LeadEscalated struct {
	events.BaseEvent
	LeadID       uuid.UUID `json:"leadId"`
	Company      string    `json:"company"`
	AssigneeName string    `json:"assigneeName"`
	DaysInactive int       `json:"daysInactive"`
	ManagerEmail string    `json:"managerEmail"`
	Reassigned   bool      `json:"reassigned"`
}

// EventName implements events.Event.
func (e LeadEscalated) EventName() string { return LeadEscalatedName }

// LeadConverted fires after a won lead is linked to a client account.
type LeadConverted struct {
	events.BaseEvent
	LeadID        uuid.UUID `json:"leadId"`
	ClientID      uuid.UUID `json:"clientId"`
	Company       string    `json:"company"`
	ReusedAccount bool      `json:"reusedAccount"`
}

// EventName implements events.Event.
func (e LeadConverted) EventName() string { return LeadConvertedName }
