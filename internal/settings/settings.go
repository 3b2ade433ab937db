// Package settings manages the automation configuration singleton. Every
// automation behavior (round-robin, auto-qualification, scheduled digests,
// escalation) reads its toggles and thresholds from here.
package settings

import (
	"time"

	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/scoring"
)

// Escalation modes controlling what the inactivity sweep does with a stale
// lead.
const (
	EscalationNotifyManager = "NOTIFY_MANAGER"
	EscalationReassign      = "REASSIGN"
	EscalationBoth          = "BOTH"
)

// ValidEscalationMode reports whether mode is one of the supported values.
func ValidEscalationMode(mode string) bool {
	switch mode {
	case EscalationNotifyManager, EscalationReassign, EscalationBoth:
		return true
	}
	return false
}

// Settings is the automation configuration document. A single row holds it;
// reads fall back to Defaults when nothing was saved yet.
type Settings struct {
	RoundRobinEnabled      bool `json:"roundRobinEnabled"`
	AutoQualifyEnabled     bool `json:"autoQualifyEnabled"`
	StatusRulesEnabled     bool `json:"statusRulesEnabled"`
	AssignmentEmailEnabled bool `json:"assignmentEmailEnabled"`
	ActivityLogEnabled     bool `json:"activityLogEnabled"`
	ScoringEnabled         bool `json:"scoringEnabled"`

	DuplicateCheckEnabled bool `json:"duplicateCheckEnabled"`
	DuplicateMatchEmail   bool `json:"duplicateMatchEmail"`
	DuplicateMatchCompany bool `json:"duplicateMatchCompany"`
	DuplicateMatchPhone   bool `json:"duplicateMatchPhone"`

	ColdLeadAlertEnabled      bool `json:"coldLeadAlertEnabled"`
	OverdueActionAlertEnabled bool `json:"overdueActionAlertEnabled"`
	EscalationEnabled         bool `json:"escalationEnabled"`
	ProposalReminderEnabled   bool `json:"proposalReminderEnabled"`
	WeeklyReportEnabled       bool `json:"weeklyReportEnabled"`

	ColdLeadThresholdDays   int `json:"coldLeadThresholdDays"`
	EscalationThresholdDays int `json:"escalationThresholdDays"`
	ProposalReminderDays    int `json:"proposalReminderDays"`
	DemoFollowUpDays        int `json:"demoFollowUpDays"`
	ProposalFollowUpDays    int `json:"proposalFollowUpDays"`

	ClearNextActionOnClose bool `json:"clearNextActionOnClose"`

	// DailyRunAt and WeeklyRunAt are local times in "HH:MM" form. WeeklyRunDay
	// follows time.Weekday numbering (Sunday = 0).
	DailyRunAt   string `json:"dailyRunAt"`
	WeeklyRunAt  string `json:"weeklyRunAt"`
	WeeklyRunDay int    `json:"weeklyRunDay"`

	EscalationMode      string     `json:"escalationMode"`
	EscalationManagerID *uuid.UUID `json:"escalationManagerId,omitempty"`

	ScoringWeights   scoring.Weights `json:"scoringWeights,omitempty"`
	DigestRecipients []string        `json:"digestRecipients,omitempty"`

	UpdatedAt time.Time `json:"updatedAt"`
}

// Defaults returns the configuration used before anyone saved settings.
// Automation ships enabled; thresholds mirror the agency's usual cadence.
func Defaults() Settings {
	return Settings{
		RoundRobinEnabled:      true,
		AutoQualifyEnabled:     true,
		StatusRulesEnabled:     true,
		AssignmentEmailEnabled: true,
		ActivityLogEnabled:     true,
		ScoringEnabled:         true,

		DuplicateCheckEnabled: true,
		DuplicateMatchEmail:   true,
		DuplicateMatchCompany: true,
		DuplicateMatchPhone:   true,

		ColdLeadAlertEnabled:      true,
		OverdueActionAlertEnabled: true,
		EscalationEnabled:         true,
		ProposalReminderEnabled:   true,
		WeeklyReportEnabled:       true,

		ColdLeadThresholdDays:   7,
		EscalationThresholdDays: 3,
		ProposalReminderDays:    5,
		DemoFollowUpDays:        3,
		ProposalFollowUpDays:    7,

		ClearNextActionOnClose: true,

		DailyRunAt:   "08:00",
		WeeklyRunAt:  "09:00",
		WeeklyRunDay: int(time.Monday),

		EscalationMode: EscalationNotifyManager,
	}
}

// DuplicateFields translates the matching toggles for the duplicate matcher.
func (s Settings) DuplicateFields() (email, company, phone bool) {
	return s.DuplicateMatchEmail, s.DuplicateMatchCompany, s.DuplicateMatchPhone
}
