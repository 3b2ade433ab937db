// Package transport defines the HTTP request and response shapes of the
// leads API and their mapping to service inputs.
package transport

import (
	"time"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/management"
	"agencydesk_backend/platform/apperr"
)

// CreateLeadRequest is the POST /leads body.
type CreateLeadRequest struct {
	Company      string     `json:"company" binding:"required,min=1,max=200"`
	ContactName  string     `json:"contactName" binding:"omitempty,max=200"`
	ContactEmail string     `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone string     `json:"contactPhone" binding:"omitempty,max=30"`
	Status       string     `json:"status" binding:"omitempty,oneof=LEAD QUALIFIED CONTACTED DEMO PROPOSAL WON LOST"`
	Priority     string     `json:"priority" binding:"omitempty,oneof=BASSE NORMALE HAUTE URGENTE"`
	Temperature  string     `json:"temperature" binding:"omitempty,max=30"`
	Source       string     `json:"source" binding:"omitempty,max=100"`
	Notes        string     `json:"notes" binding:"omitempty,max=5000"`
	Budget       float64    `json:"budget" binding:"omitempty,min=0"`
	AssignedTo   *string    `json:"assignedTo"`
	NextActionAt *time.Time `json:"nextActionAt"`
}

// ToInput converts the request into the service input.
func (r CreateLeadRequest) ToInput() (management.CreateInput, error) {
	assignee, err := parseOptionalID(r.AssignedTo, "assignedTo")
	if err != nil {
		return management.CreateInput{}, err
	}

	return management.CreateInput{
		Company:      r.Company,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Status:       r.Status,
		Priority:     r.Priority,
		Temperature:  r.Temperature,
		Source:       r.Source,
		Notes:        r.Notes,
		Budget:       r.Budget,
		AssignedTo:   assignee,
		NextActionAt: r.NextActionAt,
	}, nil
}

// UpdateLeadRequest is the PATCH /leads/:id body. Absent fields keep their
// current value.
type UpdateLeadRequest struct {
	Company      *string    `json:"company" binding:"omitempty,min=1,max=200"`
	ContactName  *string    `json:"contactName" binding:"omitempty,max=200"`
	ContactEmail *string    `json:"contactEmail" binding:"omitempty,email"`
	ContactPhone *string    `json:"contactPhone" binding:"omitempty,max=30"`
	Status       *string    `json:"status" binding:"omitempty,oneof=LEAD QUALIFIED CONTACTED DEMO PROPOSAL WON LOST"`
	Priority     *string    `json:"priority" binding:"omitempty,oneof=BASSE NORMALE HAUTE URGENTE"`
	Temperature  *string    `json:"temperature" binding:"omitempty,max=30"`
	Source       *string    `json:"source" binding:"omitempty,max=100"`
	Notes        *string    `json:"notes" binding:"omitempty,max=5000"`
	Budget       *float64   `json:"budget" binding:"omitempty,min=0"`
	AssignedTo   *string    `json:"assignedTo"`
	NextActionAt *time.Time `json:"nextActionAt"`
}

// ToInput converts the request into the service input.
func (r UpdateLeadRequest) ToInput() (management.UpdateInput, error) {
	assignee, err := parseOptionalID(r.AssignedTo, "assignedTo")
	if err != nil {
		return management.UpdateInput{}, err
	}

	return management.UpdateInput{
		Company:      r.Company,
		ContactName:  r.ContactName,
		ContactEmail: r.ContactEmail,
		ContactPhone: r.ContactPhone,
		Status:       r.Status,
		Priority:     r.Priority,
		Temperature:  r.Temperature,
		Source:       r.Source,
		Notes:        r.Notes,
		Budget:       r.Budget,
		AssignedTo:   assignee,
		NextActionAt: r.NextActionAt,
	}, nil
}

// ChangeStatusRequest is the PATCH /leads/:id/status body.
type ChangeStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=LEAD QUALIFIED CONTACTED DEMO PROPOSAL WON LOST"`
}

// CheckDuplicatesRequest is the POST /leads/check-duplicates body.
type CheckDuplicatesRequest struct {
	ContactEmail string  `json:"contactEmail" binding:"omitempty,email"`
	Company      string  `json:"company" binding:"omitempty,max=200"`
	ContactPhone string  `json:"contactPhone" binding:"omitempty,max=30"`
	ExcludeID    *string `json:"excludeId"`
}

// ToQuery converts the request into the service query.
func (r CheckDuplicatesRequest) ToQuery() (management.DuplicateQuery, error) {
	excludeID := uuid.Nil
	if parsed, err := parseOptionalID(r.ExcludeID, "excludeId"); err != nil {
		return management.DuplicateQuery{}, err
	} else if parsed != nil {
		excludeID = *parsed
	}

	return management.DuplicateQuery{
		Email:     r.ContactEmail,
		Company:   r.Company,
		Phone:     r.ContactPhone,
		ExcludeID: excludeID,
	}, nil
}

func parseOptionalID(value *string, field string) (*uuid.UUID, error) {
	if value == nil || *value == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*value)
	if err != nil {
		return nil, apperr.Validation(field + " must be a valid UUID")
	}
	return &id, nil
}
