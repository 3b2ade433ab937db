package email

import (
	"context"
	"fmt"

	"github.com/wneessen/go-mail"

	"agencydesk_backend/platform/config"
	"agencydesk_backend/platform/logger"
)

// SMTPSender delivers emails over SMTP using go-mail.
type SMTPSender struct {
	client      *mail.Client
	fromName    string
	fromAddress string
	log         *logger.Logger
}

var _ Sender = (*SMTPSender)(nil)

// NewSender builds the email sender from configuration. When email is
// disabled (no SMTP host configured) it returns a NoopSender that only logs,
// so callers never need to branch.
func NewSender(cfg config.EmailConfig, log *logger.Logger) (Sender, error) {
	if !cfg.GetEmailEnabled() {
		log.Info("email sending disabled, using noop sender")
		return &NoopSender{log: log}, nil
	}

	options := []mail.Option{
		mail.WithPort(cfg.GetSMTPPort()),
		mail.WithTLSPortPolicy(mail.TLSOpportunistic),
	}
	if cfg.GetSMTPUsername() != "" {
		options = append(options,
			mail.WithSMTPAuth(mail.SMTPAuthPlain),
			mail.WithUsername(cfg.GetSMTPUsername()),
			mail.WithPassword(cfg.GetSMTPPassword()),
		)
	}

	client, err := mail.NewClient(cfg.GetSMTPHost(), options...)
	if err != nil {
		return nil, fmt.Errorf("create smtp client: %w", err)
	}

	return &SMTPSender{
		client:      client,
		fromName:    cfg.GetEmailFromName(),
		fromAddress: cfg.GetEmailFromAddress(),
		log:         log,
	}, nil
}

// SendLeadAssigned emails an assignee about their new lead.
func (s *SMTPSender) SendLeadAssigned(ctx context.Context, to string, data AssignmentData) error {
	return s.send(ctx, to, subjectLeadAssigned(data.Company), "lead_assigned.html", data)
}

// SendEscalation emails a manager about an inactive lead.
func (s *SMTPSender) SendEscalation(ctx context.Context, to string, data EscalationData) error {
	return s.send(ctx, to, subjectEscalation(data.Company), "escalation.html", data)
}

// SendDigest emails a grouped list of leads needing attention.
func (s *SMTPSender) SendDigest(ctx context.Context, to, subject string, data DigestData) error {
	return s.send(ctx, to, subject, "digest.html", data)
}

// SendWeeklyReport emails the weekly pipeline summary.
func (s *SMTPSender) SendWeeklyReport(ctx context.Context, to string, data WeeklyReportData) error {
	return s.send(ctx, to, subjectWeeklyReport(), "weekly_report.html", data)
}

// SendLeadConverted emails the conversion notice.
func (s *SMTPSender) SendLeadConverted(ctx context.Context, to string, data ConversionData) error {
	return s.send(ctx, to, subjectLeadConverted(data.Company), "lead_converted.html", data)
}

func (s *SMTPSender) send(ctx context.Context, to, subject, templateName string, data interface{}) error {
	body, err := render(templateName, data)
	if err != nil {
		return err
	}

	msg := mail.NewMsg()
	if err := msg.FromFormat(s.fromName, s.fromAddress); err != nil {
		return fmt.Errorf("set from address: %w", err)
	}
	if err := msg.To(to); err != nil {
		return fmt.Errorf("set recipient: %w", err)
	}
	msg.Subject(subject)
	msg.SetBodyString(mail.TypeTextHTML, body)

	if err := s.client.DialAndSendWithContext(ctx, msg); err != nil {
		return fmt.Errorf("send email: %w", err)
	}

	s.log.Info("email sent", "to", to, "subject", subject)
	return nil
}

// NoopSender logs instead of sending. Used in development and when SMTP is
// not configured.
type NoopSender struct {
	log *logger.Logger
}

var _ Sender = (*NoopSender)(nil)

func (n *NoopSender) SendLeadAssigned(ctx context.Context, to string, data AssignmentData) error {
	n.log.Info("email skipped (disabled)", "to", to, "kind", "lead_assigned", "company", data.Company)
	return nil
}

func (n *NoopSender) SendEscalation(ctx context.Context, to string, data EscalationData) error {
	n.log.Info("email skipped (disabled)", "to", to, "kind", "escalation", "company", data.Company)
	return nil
}

func (n *NoopSender) SendDigest(ctx context.Context, to, subject string, data DigestData) error {
	n.log.Info("email skipped (disabled)", "to", to, "kind", "digest", "leads", len(data.Lines))
	return nil
}

func (n *NoopSender) SendWeeklyReport(ctx context.Context, to string, data WeeklyReportData) error {
	n.log.Info("email skipped (disabled)", "to", to, "kind", "weekly_report")
	return nil
}

func (n *NoopSender) SendLeadConverted(ctx context.Context, to string, data ConversionData) error {
	n.log.Info("email skipped (disabled)", "to", to, "kind", "lead_converted", "company", data.Company)
	return nil
}
