// Package leads wires the lead management feature: repository, automation
// engine, effect executor, service and HTTP handler.
package leads

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencydesk_backend/internal/clients"
	"agencydesk_backend/internal/leads/automation"
	"agencydesk_backend/internal/leads/handler"
	"agencydesk_backend/internal/leads/management"
	"agencydesk_backend/internal/leads/repository"
	"agencydesk_backend/internal/users"
	"agencydesk_backend/platform/events"
	"agencydesk_backend/platform/logger"
)

// Module bundles the leads feature.
type Module struct {
	repo    *repository.Repository
	service *management.Service
	handler *handler.Handler
}

// NewModule wires the leads feature. The settings source and client
// conversion service come from their own modules.
func NewModule(
	pool *pgxpool.Pool,
	bus events.Bus,
	directory users.Directory,
	settingsSource management.SettingsSource,
	converter *clients.Service,
	log *logger.Logger,
) *Module {
	repo := repository.NewRepository(pool)
	engine := automation.NewEngine(directory)
	executor := automation.NewExecutor(repo, repo, directory, converter, bus, log)
	service := management.NewService(repo, engine, executor, settingsSource, bus, log)

	return &Module{
		repo:    repo,
		service: service,
		handler: handler.NewHandler(service),
	}
}

// Name identifies the module in logs.
func (m *Module) Name() string {
	return "leads"
}

// Repository exposes the lead store to the scheduler jobs.
func (m *Module) Repository() *repository.Repository {
	return m.repo
}

// RegisterRoutes mounts the leads endpoints on an authenticated group.
func (m *Module) RegisterRoutes(group *gin.RouterGroup) {
	leads := group.Group("/leads")
	{
		leads.POST("", m.handler.Create)
		leads.GET("", m.handler.List)
		leads.GET("/metrics", m.handler.Metrics)
		leads.POST("/check-duplicates", m.handler.CheckDuplicates)
		leads.GET("/:id", m.handler.Get)
		leads.PATCH("/:id", m.handler.Update)
		leads.PATCH("/:id/status", m.handler.ChangeStatus)
		leads.GET("/:id/activities", m.handler.Activities)
	}
}
