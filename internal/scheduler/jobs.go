package scheduler

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/multierr"

	"agencydesk_backend/internal/email"
	"agencydesk_backend/internal/leads/domain"
	"agencydesk_backend/internal/leads/escalation"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/notification"
	"agencydesk_backend/internal/settings"
	"agencydesk_backend/internal/users"
	"agencydesk_backend/platform/logger"
)

// leadSource is the repository slice the jobs read from.
type leadSource interface {
	repository.DigestSource
	repository.MetricsSource
}

// Jobs implements the scheduled job bodies. Digest jobs group leads per
// assignee; leads without a reachable assignee go to the configured digest
// recipients instead.
type Jobs struct {
	leads      leadSource
	directory  users.Directory
	sweeper    *escalation.Service
	dispatcher notification.Dispatcher
	baseURL    string
	log        *logger.Logger
}

// NewJobs wires the job bodies.
func NewJobs(
	leads leadSource,
	directory users.Directory,
	sweeper *escalation.Service,
	dispatcher notification.Dispatcher,
	baseURL string,
	log *logger.Logger,
) *Jobs {
	return &Jobs{
		leads:      leads,
		directory:  directory,
		sweeper:    sweeper,
		dispatcher: dispatcher,
		baseURL:    baseURL,
		log:        log,
	}
}

// ColdLeadDigest mails each assignee the open leads they have not contacted
// within the configured threshold.
func (j *Jobs) ColdLeadDigest(ctx context.Context, conf settings.Settings, now time.Time) error {
	cutoff := now.AddDate(0, 0, -conf.ColdLeadThresholdDays)
	leads, err := j.leads.ListCold(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list cold leads: %w", err)
	}

	return j.sendDigests(ctx, conf, notification.KindColdLeadDigest, leads, func(lead repository.Lead) email.DigestLine {
		lastContact := lead.CreatedAt
		if lead.LastContactAt != nil {
			lastContact = *lead.LastContactAt
		}
		days := int(now.Sub(lastContact).Hours() / 24)
		return email.DigestLine{
			Company: lead.Company,
			Contact: lead.ContactName,
			Detail:  fmt.Sprintf("Sans contact depuis %d jours", days),
			LeadURL: j.leadURL(lead),
		}
	}, email.DigestData{
		Heading: "Leads sans contact récent",
		Intro:   fmt.Sprintf("Ces leads n'ont eu aucun contact depuis plus de %d jours.", conf.ColdLeadThresholdDays),
	})
}

// OverdueActionDigest mails each assignee their leads whose planned next
// action date has slipped past.
func (j *Jobs) OverdueActionDigest(ctx context.Context, conf settings.Settings, now time.Time) error {
	leads, err := j.leads.ListOverdue(ctx, now)
	if err != nil {
		return fmt.Errorf("list overdue leads: %w", err)
	}

	return j.sendDigests(ctx, conf, notification.KindOverdueDigest, leads, func(lead repository.Lead) email.DigestLine {
		detail := "Action en retard"
		if lead.NextActionAt != nil {
			detail = "Action prévue le " + lead.NextActionAt.Format("02/01/2006")
		}
		return email.DigestLine{
			Company: lead.Company,
			Contact: lead.ContactName,
			Detail:  detail,
			LeadURL: j.leadURL(lead),
		}
	}, email.DigestData{
		Heading: "Actions en retard",
		Intro:   "Ces leads ont une action planifiée dont la date est dépassée.",
	})
}

// ProposalReminders mails each assignee their proposals left without an
// answer past the reminder threshold.
func (j *Jobs) ProposalReminders(ctx context.Context, conf settings.Settings, now time.Time) error {
	cutoff := now.AddDate(0, 0, -conf.ProposalReminderDays)
	leads, err := j.leads.ListStaleProposals(ctx, cutoff)
	if err != nil {
		return fmt.Errorf("list stale proposals: %w", err)
	}

	return j.sendDigests(ctx, conf, notification.KindProposalReminder, leads, func(lead repository.Lead) email.DigestLine {
		days := int(now.Sub(lead.StatusChangedAt).Hours() / 24)
		return email.DigestLine{
			Company: lead.Company,
			Contact: lead.ContactName,
			Detail:  fmt.Sprintf("Proposition envoyée il y a %d jours", days),
			LeadURL: j.leadURL(lead),
		}
	}, email.DigestData{
		Heading: "Propositions sans réponse",
		Intro:   fmt.Sprintf("Ces propositions sont sans réponse depuis plus de %d jours.", conf.ProposalReminderDays),
	})
}

// EscalationSweep runs the inactivity escalation pass.
func (j *Jobs) EscalationSweep(ctx context.Context, conf settings.Settings, now time.Time) error {
	result, err := j.sweeper.Sweep(ctx, conf, now)
	if err != nil {
		return err
	}
	j.log.Info("escalation sweep finished", "scanned", result.Scanned, "escalated", result.Escalated)
	return nil
}

// WeeklyReport mails the configured recipients a pipeline summary covering
// the last seven days.
func (j *Jobs) WeeklyReport(ctx context.Context, conf settings.Settings, now time.Time) error {
	if len(conf.DigestRecipients) == 0 {
		j.log.Warn("weekly report enabled but no digest recipients configured")
		return nil
	}

	stats, err := j.leads.StatsSince(ctx, now.AddDate(0, 0, -7))
	if err != nil {
		return fmt.Errorf("weekly stats: %w", err)
	}
	counts, err := j.leads.CountByStatus(ctx)
	if err != nil {
		return fmt.Errorf("pipeline counts: %w", err)
	}

	statusCounts := make([]email.StatusCount, 0, len(domain.PipelineOrder))
	for _, status := range domain.PipelineOrder {
		statusCounts = append(statusCounts, email.StatusCount{Status: status, Count: counts[status]})
	}

	report := email.WeeklyReportData{
		Created:      stats.Created,
		Won:          stats.Won,
		Lost:         stats.Lost,
		AverageScore: stats.AverageScore,
		StatusCounts: statusCounts,
	}

	var errs error
	for _, recipient := range conf.DigestRecipients {
		result := j.dispatcher.Send(ctx, notification.Request{
			Kind:         notification.KindWeeklyReport,
			Recipient:    recipient,
			WeeklyReport: &report,
		})
		errs = multierr.Append(errs, result.Err)
	}
	return errs
}

// sendDigests groups the leads per assignee email and dispatches one digest
// per recipient. A send failure is collected so the job retries next tick.
func (j *Jobs) sendDigests(
	ctx context.Context,
	conf settings.Settings,
	kind notification.Kind,
	leads []repository.Lead,
	line func(repository.Lead) email.DigestLine,
	base email.DigestData,
) error {
	if len(leads) == 0 {
		return nil
	}

	groups := make(map[string][]email.DigestLine)
	var unassigned []email.DigestLine
	for _, lead := range leads {
		entry := line(lead)
		recipient := j.assigneeEmail(ctx, lead)
		if recipient == "" {
			unassigned = append(unassigned, entry)
			continue
		}
		groups[recipient] = append(groups[recipient], entry)
	}

	if len(unassigned) > 0 {
		if len(conf.DigestRecipients) == 0 {
			j.log.Warn("digest has unassigned leads but no digest recipients configured",
				"kind", string(kind), "count", len(unassigned))
		}
		for _, recipient := range conf.DigestRecipients {
			groups[recipient] = append(groups[recipient], unassigned...)
		}
	}

	recipients := make([]string, 0, len(groups))
	for recipient := range groups {
		recipients = append(recipients, recipient)
	}
	sort.Strings(recipients)

	var errs error
	for _, recipient := range recipients {
		data := base
		data.Lines = groups[recipient]
		result := j.dispatcher.Send(ctx, notification.Request{
			Kind:      kind,
			Recipient: recipient,
			Digest:    &data,
		})
		errs = multierr.Append(errs, result.Err)
	}
	return errs
}

func (j *Jobs) assigneeEmail(ctx context.Context, lead repository.Lead) string {
	if lead.AssignedTo == nil {
		return ""
	}
	user, err := j.directory.GetByID(ctx, *lead.AssignedTo)
	if err != nil {
		j.log.Warn("digest assignee lookup failed",
			"lead_id", lead.ID.String(), "assignee_id", lead.AssignedTo.String(), "error", err.Error())
		return ""
	}
	return user.Email
}

func (j *Jobs) leadURL(lead repository.Lead) string {
	if j.baseURL == "" {
		return ""
	}
	return j.baseURL + "/leads/" + lead.ID.String()
}
