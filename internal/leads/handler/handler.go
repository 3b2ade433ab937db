// Package handler exposes the leads HTTP endpoints.
package handler

import (
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agencydesk_backend/internal/leads/management"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/leads/transport"
	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/httpkit"
)

// Handler handles the leads routes.
type Handler struct {
	service *management.Service
}

// NewHandler creates the leads handler.
func NewHandler(service *management.Service) *Handler {
	return &Handler{service: service}
}

// Create handles POST /leads.
func (h *Handler) Create(c *gin.Context) {
	var req transport.CreateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	input, err := req.ToInput()
	if httpkit.HandleError(c, err) {
		return
	}

	result, err := h.service.Create(c.Request.Context(), input, actorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.Created(c, result)
}

// Update handles PATCH /leads/:id.
func (h *Handler) Update(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.UpdateLeadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	input, err := req.ToInput()
	if httpkit.HandleError(c, err) {
		return
	}

	lead, err := h.service.Update(c.Request.Context(), id, input, actorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// ChangeStatus handles PATCH /leads/:id/status.
func (h *Handler) ChangeStatus(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	var req transport.ChangeStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	lead, err := h.service.ChangeStatus(c.Request.Context(), id, req.Status, actorID(c))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// Get handles GET /leads/:id.
func (h *Handler) Get(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	lead, err := h.service.Get(c.Request.Context(), id)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, lead)
}

// List handles GET /leads.
func (h *Handler) List(c *gin.Context) {
	params := repository.ListParams{
		Status: c.Query("status"),
		Search: c.Query("search"),
		Limit:  intQuery(c, "limit", 50),
		Offset: intQuery(c, "offset", 0),
	}
	if raw := c.Query("assignedTo"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			httpkit.HandleError(c, apperr.Validation("assignedTo must be a valid UUID"))
			return
		}
		params.AssignedTo = &id
	}

	result, err := h.service.List(c.Request.Context(), params)
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, result)
}

// Activities handles GET /leads/:id/activities.
func (h *Handler) Activities(c *gin.Context) {
	id, ok := leadID(c)
	if !ok {
		return
	}

	activities, err := h.service.Activities(c.Request.Context(), id, intQuery(c, "limit", 50))
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, gin.H{"activities": activities})
}

// CheckDuplicates handles POST /leads/check-duplicates.
func (h *Handler) CheckDuplicates(c *gin.Context) {
	var req transport.CheckDuplicatesRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		httpkit.Error(c, 400, "invalid request body", err.Error())
		return
	}

	query, err := req.ToQuery()
	if httpkit.HandleError(c, err) {
		return
	}

	duplicates, err := h.service.CheckDuplicates(c.Request.Context(), query)
	if httpkit.HandleError(c, err) {
		return
	}
	if duplicates == nil {
		duplicates = []repository.Lead{}
	}
	httpkit.OK(c, gin.H{"duplicates": duplicates})
}

// Metrics handles GET /leads/metrics.
func (h *Handler) Metrics(c *gin.Context) {
	metrics, err := h.service.GetMetrics(c.Request.Context())
	if httpkit.HandleError(c, err) {
		return
	}
	httpkit.OK(c, metrics)
}

func leadID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid lead id"))
		return uuid.Nil, false
	}
	return id, true
}

func actorID(c *gin.Context) *uuid.UUID {
	if id, ok := httpkit.UserID(c); ok {
		return &id
	}
	return nil
}

func intQuery(c *gin.Context, name string, fallback int) int {
	raw := c.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
