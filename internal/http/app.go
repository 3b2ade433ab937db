// Package http provides HTTP server infrastructure including the Module
// interface that all domain modules implement for route registration.
package http

import (
	"context"

	"github.com/gin-gonic/gin"

	"agencydesk_backend/platform/config"
	"agencydesk_backend/platform/logger"
)

// Module represents a bounded context that can register its HTTP routes.
type Module interface {
	// Name returns the module's identifier for logging purposes.
	Name() string
	// RegisterRoutes mounts the module's routes on the authenticated group.
	RegisterRoutes(group *gin.RouterGroup)
}

// RouterConfig combines the config interfaces the router needs.
type RouterConfig interface {
	config.HTTPConfig
	config.JWTConfig
}

// HealthChecker exposes minimal functionality for readiness checks.
type HealthChecker interface {
	Ping(ctx context.Context) error
}

// App holds the fully initialized application dependencies. The composition
// root in main.go populates it and hands it to the router.
type App struct {
	Config  RouterConfig
	Logger  *logger.Logger
	Health  HealthChecker
	Modules []Module
}
