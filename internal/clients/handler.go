package clients

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/httpkit"
)

// Handler exposes read endpoints for client accounts.
type Handler struct {
	service *Service
}

// NewHandler creates the clients handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /clients.
func (h *Handler) List(c *gin.Context) {
	accounts, err := h.service.ListAccounts(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list clients", err))
		return
	}
	httpkit.OK(c, gin.H{"clients": accounts})
}

// ListProjects handles GET /clients/:id/projects.
func (h *Handler) ListProjects(c *gin.Context) {
	clientID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		httpkit.HandleError(c, apperr.Validation("invalid client id"))
		return
	}

	projects, err := h.service.ListProjects(c.Request.Context(), clientID)
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list projects", err))
		return
	}
	httpkit.OK(c, gin.H{"projects": projects})
}
