package settings

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/scoring"
	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/httpkit"
	"agencydesk_backend/platform/validator"
)

var apperrInvalidManagerID = apperr.Validation("escalationManagerId must be a valid UUID")

// Handler exposes the settings HTTP endpoints.
type Handler struct {
	service *Service
	val     *validator.Validator
}

// NewHandler creates the settings handler.
func NewHandler(service *Service, val *validator.Validator) *Handler {
	return &Handler{service: service, val: val}
}

// updateSettingsRequest mirrors Patch for JSON binding. Absent fields stay
// nil and keep their current value.
type updateSettingsRequest struct {
	RoundRobinEnabled      *bool `json:"roundRobinEnabled"`
	AutoQualifyEnabled     *bool `json:"autoQualifyEnabled"`
	StatusRulesEnabled     *bool `json:"statusRulesEnabled"`
	AssignmentEmailEnabled *bool `json:"assignmentEmailEnabled"`
	ActivityLogEnabled     *bool `json:"activityLogEnabled"`
	ScoringEnabled         *bool `json:"scoringEnabled"`

	DuplicateCheckEnabled *bool `json:"duplicateCheckEnabled"`
	DuplicateMatchEmail   *bool `json:"duplicateMatchEmail"`
	DuplicateMatchCompany *bool `json:"duplicateMatchCompany"`
	DuplicateMatchPhone   *bool `json:"duplicateMatchPhone"`

	ColdLeadAlertEnabled      *bool `json:"coldLeadAlertEnabled"`
	OverdueActionAlertEnabled *bool `json:"overdueActionAlertEnabled"`
	EscalationEnabled         *bool `json:"escalationEnabled"`
	ProposalReminderEnabled   *bool `json:"proposalReminderEnabled"`
	WeeklyReportEnabled       *bool `json:"weeklyReportEnabled"`

	ColdLeadThresholdDays   *int `json:"coldLeadThresholdDays" binding:"omitempty,min=1,max=365"`
	EscalationThresholdDays *int `json:"escalationThresholdDays" binding:"omitempty,min=1,max=365"`
	ProposalReminderDays    *int `json:"proposalReminderDays" binding:"omitempty,min=1,max=365"`
	DemoFollowUpDays        *int `json:"demoFollowUpDays" binding:"omitempty,min=1,max=365"`
	ProposalFollowUpDays    *int `json:"proposalFollowUpDays" binding:"omitempty,min=1,max=365"`

	ClearNextActionOnClose *bool `json:"clearNextActionOnClose"`

	DailyRunAt   *string `json:"dailyRunAt"`
	WeeklyRunAt  *string `json:"weeklyRunAt"`
	WeeklyRunDay *int    `json:"weeklyRunDay" binding:"omitempty,min=0,max=6"`

	EscalationMode      *string `json:"escalationMode" binding:"omitempty,oneof=NOTIFY_MANAGER REASSIGN BOTH"`
	EscalationManagerID *string `json:"escalationManagerId"`

	ScoringWeights   scoring.Weights `json:"scoringWeights"`
	DigestRecipients []string        `json:"digestRecipients" binding:"omitempty,dive,email"`
}

// Get handles GET /settings/automation.
func (h *Handler) Get(c *gin.Context) {
	current, err := h.service.Get(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, current)
}

// Update handles PATCH /settings/automation.
func (h *Handler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	patch, err := req.toPatch()
	if httpkit.HandleError(c, err) {
		return
	}

	saved, err := h.service.Update(c.Request.Context(), patch)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, saved)
}

func (r updateSettingsRequest) toPatch() (Patch, error) {
	patch := Patch{
		RoundRobinEnabled:      r.RoundRobinEnabled,
		AutoQualifyEnabled:     r.AutoQualifyEnabled,
		StatusRulesEnabled:     r.StatusRulesEnabled,
		AssignmentEmailEnabled: r.AssignmentEmailEnabled,
		ActivityLogEnabled:     r.ActivityLogEnabled,
		ScoringEnabled:         r.ScoringEnabled,

		DuplicateCheckEnabled: r.DuplicateCheckEnabled,
		DuplicateMatchEmail:   r.DuplicateMatchEmail,
		DuplicateMatchCompany: r.DuplicateMatchCompany,
		DuplicateMatchPhone:   r.DuplicateMatchPhone,

		ColdLeadAlertEnabled:      r.ColdLeadAlertEnabled,
		OverdueActionAlertEnabled: r.OverdueActionAlertEnabled,
		EscalationEnabled:         r.EscalationEnabled,
		ProposalReminderEnabled:   r.ProposalReminderEnabled,
		WeeklyReportEnabled:       r.WeeklyReportEnabled,

		ColdLeadThresholdDays:   r.ColdLeadThresholdDays,
		EscalationThresholdDays: r.EscalationThresholdDays,
		ProposalReminderDays:    r.ProposalReminderDays,
		DemoFollowUpDays:        r.DemoFollowUpDays,
		ProposalFollowUpDays:    r.ProposalFollowUpDays,

		ClearNextActionOnClose: r.ClearNextActionOnClose,

		DailyRunAt:   r.DailyRunAt,
		WeeklyRunAt:  r.WeeklyRunAt,
		WeeklyRunDay: r.WeeklyRunDay,

		EscalationMode: r.EscalationMode,

		ScoringWeights:   r.ScoringWeights,
		DigestRecipients: r.DigestRecipients,
	}

	if r.EscalationManagerID != nil {
		if *r.EscalationManagerID == "" {
			nilID := uuid.Nil
			patch.EscalationManagerID = &nilID
		} else {
			id, err := uuid.Parse(*r.EscalationManagerID)
			if err != nil {
				return Patch{}, apperrInvalidManagerID
			}
			patch.EscalationManagerID = &id
		}
	}

	return patch, nil
}
