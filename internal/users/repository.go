// Package users reads the user directory: eligible assignees for round-robin
// distribution and managers for escalation notifications.
package users

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a user does not exist.
var ErrNotFound = errors.New("user not found")

// User is a directory entry.
type User struct {
	ID               uuid.UUID `json:"id"`
	Name             string    `json:"name"`
	Email            string    `json:"email"`
	Role             string    `json:"role"`
	IsManager        bool      `json:"isManager"`
	EligibleAssignee bool      `json:"eligibleAssignee"`
	CreatedAt        time.Time `json:"createdAt"`
}

// Directory is the read interface other modules depend on.
type Directory interface {
	GetByID(ctx context.Context, id uuid.UUID) (User, error)
	ListEligibleAssignees(ctx context.Context) ([]User, error)
	ListManagers(ctx context.Context) ([]User, error)
}

// Repository reads users from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Directory = (*Repository)(nil)

// NewRepository creates a user repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const userColumns = `id, name, email, role, is_manager, is_eligible_assignee, created_at`

const getUserByIDQuery = `
	SELECT ` + userColumns + `
	FROM users
	WHERE id = $1`

// GetByID loads one user. Returns ErrNotFound when the id is unknown.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (User, error) {
	row := r.pool.QueryRow(ctx, getUserByIDQuery, id)

	user, err := scanUser(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, fmt.Errorf("get user by id: %w", err)
	}
	return user, nil
}

// ListEligibleAssignees returns users that can receive leads, in a stable
// order so the round-robin cursor walks them fairly.
const listEligibleAssigneesQuery = `
	SELECT ` + userColumns + `
	FROM users
	WHERE is_eligible_assignee = TRUE
	ORDER BY created_at, id`

func (r *Repository) ListEligibleAssignees(ctx context.Context) ([]User, error) {
	return r.list(ctx, listEligibleAssigneesQuery)
}

const listManagersQuery = `
	SELECT ` + userColumns + `
	FROM users
	WHERE is_manager = TRUE
	ORDER BY created_at, id`

// ListManagers returns users flagged as managers.
func (r *Repository) ListManagers(ctx context.Context) ([]User, error) {
	return r.list(ctx, listManagersQuery)
}

func (r *Repository) list(ctx context.Context, query string) ([]User, error) {
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	users := make([]User, 0)
	for rows.Next() {
		user, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, user)
	}
	return users, rows.Err()
}

func scanUser(row pgx.Row) (User, error) {
	var u User
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Role, &u.IsManager, &u.EligibleAssignee, &u.CreatedAt)
	return u, err
}
