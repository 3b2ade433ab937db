// Package repository persists leads and their activity trail in PostgreSQL.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"agencydesk_backend/platform/phone"
)

// ErrNotFound is returned when a lead does not exist.
var ErrNotFound = errors.New("lead not found")

// Lead is the stored representation of a prospect.
type Lead struct {
	ID           uuid.UUID `json:"id"`
	Company      string    `json:"company"`
	ContactName  string    `json:"contactName"`
	ContactEmail string    `json:"contactEmail,omitempty"`
	ContactPhone string    `json:"contactPhone,omitempty"`

	Status      string  `json:"status"`
	Priority    string  `json:"priority"`
	Temperature string  `json:"temperature,omitempty"`
	Source      string  `json:"source,omitempty"`
	Budget      float64 `json:"budget"`
	Score       *int    `json:"score,omitempty"`
	Notes       string  `json:"notes,omitempty"`

	NextActionAt    *time.Time `json:"nextActionAt,omitempty"`
	LastContactAt   *time.Time `json:"lastContactAt,omitempty"`
	StatusChangedAt time.Time  `json:"statusChangedAt"`

	AssignedTo      *uuid.UUID `json:"assignedTo,omitempty"`
	CreatedBy       *uuid.UUID `json:"createdBy,omitempty"`
	ClientAccountID *uuid.UUID `json:"clientAccountId,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Repository is the PostgreSQL-backed lead store.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a lead repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const leadColumns = `
	id, company, contact_name, contact_email, contact_phone,
	status, priority, temperature, source, budget, score, notes,
	next_action_at, last_contact_at, status_changed_at,
	assigned_to, created_by, client_account_id,
	created_at, updated_at`

const createLeadQuery = `
	INSERT INTO leads (
		id, company, contact_name, contact_email, contact_phone, contact_phone_key,
		status, priority, temperature, source, budget, score, notes,
		next_action_at, last_contact_at, status_changed_at,
		assigned_to, created_by
	)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	RETURNING created_at, updated_at`

// Create inserts a lead and returns it with the persisted timestamps. The
// phone match key used for duplicate lookups is derived here so it can never
// drift from the stored number.
func (r *Repository) Create(ctx context.Context, lead Lead) (Lead, error) {
	if lead.ID == uuid.Nil {
		lead.ID = uuid.New()
	}

	err := r.pool.QueryRow(ctx, createLeadQuery,
		lead.ID, lead.Company, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		phone.MatchKey(lead.ContactPhone),
		lead.Status, lead.Priority, lead.Temperature, lead.Source, lead.Budget, lead.Score, lead.Notes,
		lead.NextActionAt, lead.LastContactAt, lead.StatusChangedAt,
		lead.AssignedTo, lead.CreatedBy,
	).Scan(&lead.CreatedAt, &lead.UpdatedAt)
	if err != nil {
		return Lead{}, fmt.Errorf("create lead: %w", err)
	}
	return lead, nil
}

const getLeadByIDQuery = `
	SELECT ` + leadColumns + `
	FROM leads
	WHERE id = $1`

// GetByID loads one lead. Returns ErrNotFound when the id is unknown.
func (r *Repository) GetByID(ctx context.Context, id uuid.UUID) (Lead, error) {
	lead, err := scanLead(r.pool.QueryRow(ctx, getLeadByIDQuery, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("get lead by id: %w", err)
	}
	return lead, nil
}

const updateLeadQuery = `
	UPDATE leads
	SET company = $2, contact_name = $3, contact_email = $4, contact_phone = $5,
		contact_phone_key = $6,
		status = $7, priority = $8, temperature = $9, source = $10, budget = $11, score = $12,
		notes = $13,
		next_action_at = $14, last_contact_at = $15, status_changed_at = $16,
		assigned_to = $17, updated_at = now()
	WHERE id = $1
	RETURNING updated_at`

// Update saves the mutable lead fields. The client account link is excluded:
// it is write-once through LinkClientAccount.
func (r *Repository) Update(ctx context.Context, lead Lead) (Lead, error) {
	err := r.pool.QueryRow(ctx, updateLeadQuery,
		lead.ID, lead.Company, lead.ContactName, lead.ContactEmail, lead.ContactPhone,
		phone.MatchKey(lead.ContactPhone),
		lead.Status, lead.Priority, lead.Temperature, lead.Source, lead.Budget, lead.Score, lead.Notes,
		lead.NextActionAt, lead.LastContactAt, lead.StatusChangedAt,
		lead.AssignedTo,
	).Scan(&lead.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Lead{}, ErrNotFound
	}
	if err != nil {
		return Lead{}, fmt.Errorf("update lead: %w", err)
	}
	return lead, nil
}

const updateAssignmentQuery = `
	UPDATE leads
	SET assigned_to = $2, updated_at = now()
	WHERE id = $1`

// UpdateAssignment moves a lead to another assignee. Bumping updated_at
// resets the inactivity clock so a freshly reassigned lead is not swept
// again on the next escalation pass.
func (r *Repository) UpdateAssignment(ctx context.Context, id uuid.UUID, assignee *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, updateAssignmentQuery, id, assignee)
	if err != nil {
		return fmt.Errorf("update assignment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

const linkClientAccountQuery = `
	UPDATE leads
	SET client_account_id = $2, updated_at = now()
	WHERE id = $1 AND client_account_id IS NULL`

// LinkClientAccount sets the conversion link, once. Returns true when this
// call performed the link and false when the lead was already linked, which
// makes repeated WON transitions harmless.
func (r *Repository) LinkClientAccount(ctx context.Context, leadID, clientID uuid.UUID) (bool, error) {
	tag, err := r.pool.Exec(ctx, linkClientAccountQuery, leadID, clientID)
	if err != nil {
		return false, fmt.Errorf("link client account: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListParams filters and paginates lead listings.
type ListParams struct {
	Status     string
	AssignedTo *uuid.UUID
	Search     string
	Limit      int
	Offset     int
}

// List returns leads most recent first. Search matches company and contact
// name, case-insensitively.
func (r *Repository) List(ctx context.Context, params ListParams) ([]Lead, error) {
	where, args := buildListFilter(params)

	query := `SELECT ` + leadColumns + ` FROM leads` + where +
		fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
	args = append(args, normalizeLimit(params.Limit), params.Offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list leads: %w", err)
	}
	defer rows.Close()

	return collectLeads(rows)
}

// Count returns the number of leads matching the filter.
func (r *Repository) Count(ctx context.Context, params ListParams) (int, error) {
	where, args := buildListFilter(params)

	var count int
	if err := r.pool.QueryRow(ctx, "SELECT count(*) FROM leads"+where, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("count leads: %w", err)
	}
	return count, nil
}

func buildListFilter(params ListParams) (string, []any) {
	clauses := make([]string, 0, 3)
	args := make([]any, 0, 3)

	if params.Status != "" {
		args = append(args, params.Status)
		clauses = append(clauses, fmt.Sprintf("status = $%d", len(args)))
	}
	if params.AssignedTo != nil {
		args = append(args, *params.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to = $%d", len(args)))
	}
	if search := strings.TrimSpace(params.Search); search != "" {
		args = append(args, "%"+strings.ToLower(search)+"%")
		clauses = append(clauses, fmt.Sprintf("(lower(company) LIKE $%d OR lower(contact_name) LIKE $%d)", len(args), len(args)))
	}

	if len(clauses) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(clauses, " AND "), args
}

func normalizeLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 50
	}
	return limit
}

func collectLeads(rows pgx.Rows) ([]Lead, error) {
	leads := make([]Lead, 0)
	for rows.Next() {
		lead, err := scanLead(rows)
		if err != nil {
			return nil, fmt.Errorf("scan lead: %w", err)
		}
		leads = append(leads, lead)
	}
	return leads, rows.Err()
}

func scanLead(row pgx.Row) (Lead, error) {
	var l Lead
	err := row.Scan(
		&l.ID, &l.Company, &l.ContactName, &l.ContactEmail, &l.ContactPhone,
		&l.Status, &l.Priority, &l.Temperature, &l.Source, &l.Budget, &l.Score, &l.Notes,
		&l.NextActionAt, &l.LastContactAt, &l.StatusChangedAt,
		&l.AssignedTo, &l.CreatedBy, &l.ClientAccountID,
		&l.CreatedAt, &l.UpdatedAt,
	)
	return l, err
}
