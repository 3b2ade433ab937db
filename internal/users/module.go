package users

import (
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencydesk_backend/platform/apperr"
	"agencydesk_backend/platform/httpkit"
)

// Module bundles the users feature.
type Module struct {
	repo *Repository
}

// NewModule wires the users feature.
func NewModule(pool *pgxpool.Pool) *Module {
	return &Module{repo: NewRepository(pool)}
}

// Name identifies the module in logs.
func (m *Module) Name() string {
	return "users"
}

// Directory exposes the read interface to other modules.
func (m *Module) Directory() Directory {
	return m.repo
}

// RegisterRoutes mounts the user listing endpoints on an authenticated group.
func (m *Module) RegisterRoutes(group *gin.RouterGroup) {
	group.GET("/users/assignees", m.listAssignees)
	group.GET("/users/managers", m.listManagers)
}

func (m *Module) listAssignees(c *gin.Context) {
	assignees, err := m.repo.ListEligibleAssignees(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list assignees", err))
		return
	}
	httpkit.OK(c, gin.H{"users": assignees})
}

func (m *Module) listManagers(c *gin.Context) {
	managers, err := m.repo.ListManagers(c.Request.Context())
	if err != nil {
		httpkit.HandleError(c, apperr.Wrap(apperr.KindInternal, "failed to list managers", err))
		return
	}
	httpkit.OK(c, gin.H{"users": managers})
}
