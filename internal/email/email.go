// Package email renders and delivers the automation notification emails.
package email

import "context"

// The data structs carry JSON tags because notification requests embedding
// them travel through the task queue.

// AssignmentData fills the lead assignment email.
type AssignmentData struct {
	AssigneeName string `json:"assigneeName"`
	Company      string `json:"company"`
	ContactName  string `json:"contactName,omitempty"`
	LeadURL      string `json:"leadUrl,omitempty"`
}

// EscalationData fills the escalation email sent to a manager.
type EscalationData struct {
	Company      string `json:"company"`
	AssigneeName string `json:"assigneeName,omitempty"`
	DaysInactive int    `json:"daysInactive"`
	LeadURL      string `json:"leadUrl,omitempty"`
}

// DigestLine is one lead inside a digest email.
type DigestLine struct {
	Company string `json:"company"`
	Contact string `json:"contact,omitempty"`
	Detail  string `json:"detail,omitempty"`
	LeadURL string `json:"leadUrl,omitempty"`
}

// DigestData fills the cold-lead, overdue-action and proposal reminder
// digests. Heading and Intro distinguish the digest kind.
type DigestData struct {
	Heading string       `json:"heading"`
	Intro   string       `json:"intro"`
	Lines   []DigestLine `json:"lines"`
}

// WeeklyReportData fills the weekly pipeline report.
type WeeklyReportData struct {
	Created      int           `json:"created"`
	Won          int           `json:"won"`
	Lost         int           `json:"lost"`
	AverageScore float64       `json:"averageScore"`
	StatusCounts []StatusCount `json:"statusCounts"`
}

// StatusCount is one pipeline stage in the weekly report.
type StatusCount struct {
	Status string `json:"status"`
	Count  int    `json:"count"`
}

// ConversionData fills the conversion notice.
type ConversionData struct {
	Company       string `json:"company"`
	ReusedAccount bool   `json:"reusedAccount"`
}

// Sender delivers the automation emails. Implementations must be safe for
// concurrent use.
type Sender interface {
	SendLeadAssigned(ctx context.Context, to string, data AssignmentData) error
	SendEscalation(ctx context.Context, to string, data EscalationData) error
	SendDigest(ctx context.Context, to, subject string, data DigestData) error
	SendWeeklyReport(ctx context.Context, to string, data WeeklyReportData) error
	SendLeadConverted(ctx context.Context, to string, data ConversionData) error
}
