// Package domain provides core business rules for the leads bounded context.
package domain

// Lead funnel statuses, in pipeline order.
const (
	StatusLead      = "LEAD"
	StatusQualified = "QUALIFIED"
	StatusContacted = "CONTACTED"
	StatusDemo      = "DEMO"
	StatusProposal  = "PROPOSAL"
	StatusWon       = "WON"
	StatusLost      = "LOST"
)

// Lead priorities.
const (
	PriorityLow    = "BASSE"
	PriorityNormal = "NORMALE"
	PriorityHigh   = "HAUTE"
	PriorityUrgent = "URGENTE"
)

// PipelineOrder lists the funnel stages in progression order, for reports.
var PipelineOrder = []string{
	StatusLead,
	StatusQualified,
	StatusContacted,
	StatusDemo,
	StatusProposal,
	StatusWon,
	StatusLost,
}

var validStatuses = map[string]bool{
	StatusLead:      true,
	StatusQualified: true,
	StatusContacted: true,
	StatusDemo:      true,
	StatusProposal:  true,
	StatusWon:       true,
	StatusLost:      true,
}

// terminalStatuses are funnel stages where no further time-based automation
// applies. A WON lead is still eligible for client conversion.
var terminalStatuses = map[string]bool{
	StatusWon:  true,
	StatusLost: true,
}

var validPriorities = map[string]bool{
	PriorityLow:    true,
	PriorityNormal: true,
	PriorityHigh:   true,
	PriorityUrgent: true,
}

// IsValidStatus returns true if the status is part of the funnel.
func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// IsTerminalStatus returns true if the status closes the funnel.
func IsTerminalStatus(status string) bool {
	return terminalStatuses[status]
}

// IsValidPriority returns true for a known priority level.
func IsValidPriority(priority string) bool {
	return validPriorities[priority]
}
