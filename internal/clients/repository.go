// Package clients manages client accounts and their projects. Won leads
// convert into a client account plus an initial project.
package clients

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when a client account does not exist.
var ErrNotFound = errors.New("client account not found")

// ClientAccount is a converted customer.
type ClientAccount struct {
	ID          uuid.UUID `json:"id"`
	CompanyName string    `json:"companyName"`
	ContactName string    `json:"contactName"`
	Email       string    `json:"email"`
	Phone       string    `json:"phone,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Project is a piece of work for a client account.
type Project struct {
	ID        uuid.UUID `json:"id"`
	ClientID  uuid.UUID `json:"clientId"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"createdAt"`
}

// Project statuses.
const (
	ProjectStatusNew    = "NEW"
	ProjectStatusActive = "ACTIVE"
)

// Store abstracts client persistence for the conversion service.
type Store interface {
	FindByEmail(ctx context.Context, email string) (ClientAccount, error)
	Create(ctx context.Context, account ClientAccount) (ClientAccount, error)
	CreateProject(ctx context.Context, project Project) (Project, error)
	List(ctx context.Context) ([]ClientAccount, error)
	ListProjects(ctx context.Context, clientID uuid.UUID) ([]Project, error)
}

// Repository persists client accounts and projects in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a client repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const findClientByEmailQuery = `
	SELECT id, company_name, contact_name, email, phone, created_at
	FROM client_accounts
	WHERE lower(email) = $1`

// FindByEmail matches the account email case-insensitively. Returns
// ErrNotFound when no account carries the address.
func (r *Repository) FindByEmail(ctx context.Context, email string) (ClientAccount, error) {
	row := r.pool.QueryRow(ctx, findClientByEmailQuery, strings.ToLower(strings.TrimSpace(email)))

	account, err := scanClient(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return ClientAccount{}, ErrNotFound
	}
	if err != nil {
		return ClientAccount{}, fmt.Errorf("find client by email: %w", err)
	}
	return account, nil
}

const createClientQuery = `
	INSERT INTO client_accounts (id, company_name, contact_name, email, phone)
	VALUES ($1, $2, $3, $4, $5)
	RETURNING created_at`

// Create inserts a new client account.
func (r *Repository) Create(ctx context.Context, account ClientAccount) (ClientAccount, error) {
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, createClientQuery,
		account.ID, account.CompanyName, account.ContactName, account.Email, account.Phone,
	).Scan(&account.CreatedAt)
	if err != nil {
		return ClientAccount{}, fmt.Errorf("create client: %w", err)
	}
	return account, nil
}

const createProjectQuery = `
	INSERT INTO projects (id, client_id, name, status)
	VALUES ($1, $2, $3, $4)
	RETURNING created_at`

// CreateProject inserts a project for a client account.
func (r *Repository) CreateProject(ctx context.Context, project Project) (Project, error) {
	if project.ID == uuid.Nil {
		project.ID = uuid.New()
	}
	if project.Status == "" {
		project.Status = ProjectStatusNew
	}

	err := r.pool.QueryRow(ctx, createProjectQuery,
		project.ID, project.ClientID, project.Name, project.Status,
	).Scan(&project.CreatedAt)
	if err != nil {
		return Project{}, fmt.Errorf("create project: %w", err)
	}
	return project, nil
}

const listClientsQuery = `
	SELECT id, company_name, contact_name, email, phone, created_at
	FROM client_accounts
	ORDER BY created_at DESC, id`

// List returns all client accounts, most recent first.
func (r *Repository) List(ctx context.Context) ([]ClientAccount, error) {
	rows, err := r.pool.Query(ctx, listClientsQuery)
	if err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	defer rows.Close()

	accounts := make([]ClientAccount, 0)
	for rows.Next() {
		account, err := scanClient(rows)
		if err != nil {
			return nil, fmt.Errorf("scan client: %w", err)
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

const listProjectsQuery = `
	SELECT id, client_id, name, status, created_at
	FROM projects
	WHERE client_id = $1
	ORDER BY created_at DESC, id`

// ListProjects returns the projects of one client account.
func (r *Repository) ListProjects(ctx context.Context, clientID uuid.UUID) ([]Project, error) {
	rows, err := r.pool.Query(ctx, listProjectsQuery, clientID)
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	defer rows.Close()

	projects := make([]Project, 0)
	for rows.Next() {
		var p Project
		if err := rows.Scan(&p.ID, &p.ClientID, &p.Name, &p.Status, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan project: %w", err)
		}
		projects = append(projects, p)
	}
	return projects, rows.Err()
}

func scanClient(row pgx.Row) (ClientAccount, error) {
	var c ClientAccount
	err := row.Scan(&c.ID, &c.CompanyName, &c.ContactName, &c.Email, &c.Phone, &c.CreatedAt)
	return c, err
}
