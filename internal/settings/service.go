package settings

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/scoring"
	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/logger"
)

// Service exposes read and patch operations on the automation settings.
type Service struct {
	store Store
	log   *logger.Logger
}

// NewService creates the settings service.
func NewService(store Store, log *logger.Logger) *Service {
	return &Service{store: store, log: log}
}

// Get returns the saved settings, or Defaults when nothing was saved yet.
// The defaults are not written back; the row appears on the first update.
func (s *Service) Get(ctx context.Context) (Settings, error) {
	current, err := s.store.Get(ctx)
	if errors.Is(err, ErrNotFound) {
		return Defaults(), nil
	}
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "failed to load settings", err).WithOp("settings.Get")
	}
	return current, nil
}

// Patch carries a partial settings update. Nil fields keep their current
// value.
type Patch struct {
	RoundRobinEnabled      *bool
	AutoQualifyEnabled     *bool
	StatusRulesEnabled     *bool
	AssignmentEmailEnabled *bool
	ActivityLogEnabled     *bool
	ScoringEnabled         *bool

	DuplicateCheckEnabled *bool
	DuplicateMatchEmail   *bool
	DuplicateMatchCompany *bool
	DuplicateMatchPhone   *bool

	ColdLeadAlertEnabled      *bool
	OverdueActionAlertEnabled *bool
	EscalationEnabled         *bool
	ProposalReminderEnabled   *bool
	WeeklyReportEnabled       *bool

	ColdLeadThresholdDays   *int
	EscalationThresholdDays *int
	ProposalReminderDays    *int
	DemoFollowUpDays        *int
	ProposalFollowUpDays    *int

	ClearNextActionOnClose *bool

	DailyRunAt   *string
	WeeklyRunAt  *string
	WeeklyRunDay *int

	EscalationMode      *string
	EscalationManagerID *uuid.UUID

	ScoringWeights   scoring.Weights
	DigestRecipients []string
}

// Update merges the patch into the current settings, validates the result
// and persists it.
func (s *Service) Update(ctx context.Context, patch Patch) (Settings, error) {
	current, err := s.Get(ctx)
	if err != nil {
		return Settings{}, err
	}

	merged := apply(current, patch)
	if err := validate(merged); err != nil {
		return Settings{}, apperr.Validation(err.Error()).WithOp("settings.Update")
	}

	saved, err := s.store.Save(ctx, merged)
	if err != nil {
		return Settings{}, apperr.Wrap(apperr.KindInternal, "failed to save settings", err).WithOp("settings.Update")
	}

	s.log.Info("automation settings updated")
	return saved, nil
}

func apply(current Settings, patch Patch) Settings {
	setBool(&current.RoundRobinEnabled, patch.RoundRobinEnabled)
	setBool(&current.AutoQualifyEnabled, patch.AutoQualifyEnabled)
	setBool(&current.StatusRulesEnabled, patch.StatusRulesEnabled)
	setBool(&current.AssignmentEmailEnabled, patch.AssignmentEmailEnabled)
	setBool(&current.ActivityLogEnabled, patch.ActivityLogEnabled)
	setBool(&current.ScoringEnabled, patch.ScoringEnabled)

	setBool(&current.DuplicateCheckEnabled, patch.DuplicateCheckEnabled)
	setBool(&current.DuplicateMatchEmail, patch.DuplicateMatchEmail)
	setBool(&current.DuplicateMatchCompany, patch.DuplicateMatchCompany)
	setBool(&current.DuplicateMatchPhone, patch.DuplicateMatchPhone)

	setBool(&current.ColdLeadAlertEnabled, patch.ColdLeadAlertEnabled)
	setBool(&current.OverdueActionAlertEnabled, patch.OverdueActionAlertEnabled)
	setBool(&current.EscalationEnabled, patch.EscalationEnabled)
	setBool(&current.ProposalReminderEnabled, patch.ProposalReminderEnabled)
	setBool(&current.WeeklyReportEnabled, patch.WeeklyReportEnabled)

	setInt(&current.ColdLeadThresholdDays, patch.ColdLeadThresholdDays)
	setInt(&current.EscalationThresholdDays, patch.EscalationThresholdDays)
	setInt(&current.ProposalReminderDays, patch.ProposalReminderDays)
	setInt(&current.DemoFollowUpDays, patch.DemoFollowUpDays)
	setInt(&current.ProposalFollowUpDays, patch.ProposalFollowUpDays)

	setBool(&current.ClearNextActionOnClose, patch.ClearNextActionOnClose)

	setString(&current.DailyRunAt, patch.DailyRunAt)
	setString(&current.WeeklyRunAt, patch.WeeklyRunAt)
	setInt(&current.WeeklyRunDay, patch.WeeklyRunDay)

	setString(&current.EscalationMode, patch.EscalationMode)
	if patch.EscalationManagerID != nil {
		if *patch.EscalationManagerID == uuid.Nil {
			current.EscalationManagerID = nil
		} else {
			id := *patch.EscalationManagerID
			current.EscalationManagerID = &id
		}
	}

	if patch.ScoringWeights != nil {
		current.ScoringWeights = patch.ScoringWeights
	}
	if patch.DigestRecipients != nil {
		current.DigestRecipients = normalizeRecipients(patch.DigestRecipients)
	}

	return current
}

func validate(s Settings) error {
	days := map[string]int{
		"coldLeadThresholdDays":   s.ColdLeadThresholdDays,
		"escalationThresholdDays": s.EscalationThresholdDays,
		"proposalReminderDays":    s.ProposalReminderDays,
		"demoFollowUpDays":        s.DemoFollowUpDays,
		"proposalFollowUpDays":    s.ProposalFollowUpDays,
	}
	for name, value := range days {
		if value < 1 {
			return fmt.Errorf("%s must be at least 1", name)
		}
	}

	if _, _, err := ParseClock(s.DailyRunAt); err != nil {
		return fmt.Errorf("dailyRunAt: %w", err)
	}
	if _, _, err := ParseClock(s.WeeklyRunAt); err != nil {
		return fmt.Errorf("weeklyRunAt: %w", err)
	}
	if s.WeeklyRunDay < 0 || s.WeeklyRunDay > 6 {
		return errors.New("weeklyRunDay must be between 0 (Sunday) and 6 (Saturday)")
	}

	if !ValidEscalationMode(s.EscalationMode) {
		return fmt.Errorf("unknown escalation mode %q", s.EscalationMode)
	}

	if err := scoring.ValidateWeights(s.ScoringWeights); err != nil {
		return err
	}

	for _, recipient := range s.DigestRecipients {
		if !strings.Contains(recipient, "@") {
			return fmt.Errorf("invalid digest recipient %q", recipient)
		}
	}

	return nil
}

// ParseClock parses a "HH:MM" local time of day.
func ParseClock(value string) (hour, minute int, err error) {
	parts := strings.SplitN(value, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("invalid time of day %q, expected HH:MM", value)
	}

	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("invalid hour in %q", value)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("invalid minute in %q", value)
	}

	return hour, minute, nil
}

func normalizeRecipients(values []string) []string {
	out := make([]string, 0, len(values))
	for _, value := range values {
		trimmed := strings.ToLower(strings.TrimSpace(value))
		if trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func setBool(dst *bool, src *bool) {
	if src != nil {
		*dst = *src
	}
}

func setInt(dst *int, src *int) {
	if src != nil {
		*dst = *src
	}
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = *src
	}
}
