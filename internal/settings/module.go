package settings

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencydesk_backend/platform/logger"
	"agencydesk_backend/platform/validator"
)

// Module bundles the settings feature: repository, service and HTTP handler.
type Module struct {
	service *Service
	handler *Handler
}

// NewModule wires the settings feature.
func NewModule(pool *pgxpool.Pool, val *validator.Validator, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, log)
	handler := NewHandler(service, val)

	return &Module{service: service, handler: handler}
}

// Name identifies the module in logs.
func (m *Module) Name() string {
	return "settings"
}

// Service exposes the settings service to other modules (automation engine,
// scheduler).
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the settings endpoints on an authenticated group.
func (m *Module) RegisterRoutes(group *gin.RouterGroup) {
	settings := group.Group("/settings")
	{
		settings.GET("/automation", m.handler.Get)
		settings.PATCH("/automation", m.handler.Update)
	}
}
