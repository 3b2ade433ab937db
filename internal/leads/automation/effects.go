package automation

import "github.com/google/uuid"

// Effect is a side effect requested by the automation engine. The engine
// only decides; the executor performs the effects after the lead mutation
// was persisted, so a failing effect can never roll back the lead.
type Effect interface {
	isEffect()
}

// LogActivity appends an entry to the lead timeline.
type LogActivity struct {
	Action  string
	Details map[string]string
}

func (LogActivity) isEffect() {}

// NotifyAssignment requests the assignment email for the lead's new owner.
type NotifyAssignment struct {
	AssigneeID uuid.UUID
}

func (NotifyAssignment) isEffect() {}

// ConvertToClient requests the won-lead conversion: ensure a client account,
// link it to the lead and open a project.
type ConvertToClient struct{}

func (ConvertToClient) isEffect() {}
