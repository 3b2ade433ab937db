// Package notification turns domain events and scheduler findings into
// outbound messages. Dispatch never propagates failures to the caller: a
// broken mailbox must not fail a lead mutation or a scheduled job.
package notification

import (
	"context"
	"fmt"

	"agencydesk_backend/internal/email"
	"agencydesk_backend/platform/logger"
)

// Kind identifies the notification being sent.
type Kind string

// Notification kinds.
const (
	KindLeadAssigned     Kind = "lead_assigned"
	KindEscalation       Kind = "escalation"
	KindColdLeadDigest   Kind = "cold_lead_digest"
	KindOverdueDigest    Kind = "overdue_digest"
	KindProposalReminder Kind = "proposal_reminder"
	KindWeeklyReport     Kind = "weekly_report"
	KindLeadConverted    Kind = "lead_converted"
)

// Request is one notification to deliver. Exactly one payload field matching
// the kind must be set. The struct is JSON-serializable so it can ride
// through the task queue.
type Request struct {
	Kind      Kind   `json:"kind"`
	Recipient string `json:"recipient"`

	Assignment   *email.AssignmentData   `json:"assignment,omitempty"`
	Escalation   *email.EscalationData   `json:"escalation,omitempty"`
	Digest       *email.DigestData       `json:"digest,omitempty"`
	WeeklyReport *email.WeeklyReportData `json:"weeklyReport,omitempty"`
	Conversion   *email.ConversionData   `json:"conversion,omitempty"`
}

// Result reports the dispatch outcome. Err is informational; callers log it
// at most.
type Result struct {
	Sent bool
	Err  error
}

// Dispatcher delivers notifications.
type Dispatcher interface {
	Send(ctx context.Context, req Request) Result
}

// DirectDispatcher renders and emails the notification in-process.
type DirectDispatcher struct {
	sender email.Sender
	log    *logger.Logger
}

var _ Dispatcher = (*DirectDispatcher)(nil)

// NewDirectDispatcher creates a dispatcher that sends through the given
// email sender.
func NewDirectDispatcher(sender email.Sender, log *logger.Logger) *DirectDispatcher {
	return &DirectDispatcher{sender: sender, log: log}
}

// Send delivers one notification. Failures are logged and reported in the
// Result, never returned as an error.
func (d *DirectDispatcher) Send(ctx context.Context, req Request) Result {
	err := d.deliver(ctx, req)
	if err != nil {
		d.log.Error("notification dispatch failed",
			"kind", string(req.Kind), "recipient", req.Recipient, "error", err.Error())
		return Result{Err: err}
	}
	return Result{Sent: true}
}

// Deliver sends the notification and returns the raw error. The queue worker
// uses it so failed deliveries are retried.
func (d *DirectDispatcher) Deliver(ctx context.Context, req Request) error {
	return d.deliver(ctx, req)
}

func (d *DirectDispatcher) deliver(ctx context.Context, req Request) error {
	if req.Recipient == "" {
		return fmt.Errorf("notification %s has no recipient", req.Kind)
	}

	switch req.Kind {
	case KindLeadAssigned:
		if req.Assignment == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendLeadAssigned(ctx, req.Recipient, *req.Assignment)

	case KindEscalation:
		if req.Escalation == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendEscalation(ctx, req.Recipient, *req.Escalation)

	case KindColdLeadDigest:
		if req.Digest == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendDigest(ctx, req.Recipient, email.SubjectColdLeads(len(req.Digest.Lines)), *req.Digest)

	case KindOverdueDigest:
		if req.Digest == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendDigest(ctx, req.Recipient, email.SubjectOverdueActions(len(req.Digest.Lines)), *req.Digest)

	case KindProposalReminder:
		if req.Digest == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendDigest(ctx, req.Recipient, email.SubjectProposalReminders(len(req.Digest.Lines)), *req.Digest)

	case KindWeeklyReport:
		if req.WeeklyReport == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendWeeklyReport(ctx, req.Recipient, *req.WeeklyReport)

	case KindLeadConverted:
		if req.Conversion == nil {
			return missingPayload(req.Kind)
		}
		return d.sender.SendLeadConverted(ctx, req.Recipient, *req.Conversion)

	default:
		return fmt.Errorf("unknown notification kind %q", req.Kind)
	}
}

func missingPayload(kind Kind) error {
	return fmt.Errorf("notification %s is missing its payload", kind)
}
