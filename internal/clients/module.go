package clients

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencydesk_backend/platform/logger"
)

// Module bundles the clients feature.
type Module struct {
	service *Service
	handler *Handler
}

// NewModule wires the clients feature.
func NewModule(pool *pgxpool.Pool, log *logger.Logger) *Module {
	repo := NewRepository(pool)
	service := NewService(repo, log)
	handler := NewHandler(service)

	return &Module{service: service, handler: handler}
}

// Name identifies the module in logs.
func (m *Module) Name() string {
	return "clients"
}

// Service exposes the conversion service to the leads module.
func (m *Module) Service() *Service {
	return m.service
}

// RegisterRoutes mounts the client endpoints on an authenticated group.
func (m *Module) RegisterRoutes(group *gin.RouterGroup) {
	clients := group.Group("/clients")
	{
		clients.GET("", m.handler.List)
		clients.GET("/:id/projects", m.handler.ListProjects)
	}
}
