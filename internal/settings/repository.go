package settings

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrNotFound is returned when no settings row was saved yet.
var ErrNotFound = errors.New("settings not found")

// singletonID pins the settings table to one row.
const singletonID = 1

// Store abstracts settings persistence for the service and the scheduler.
type Store interface {
	Get(ctx context.Context) (Settings, error)
	Save(ctx context.Context, s Settings) (Settings, error)
}

// Repository persists the settings document in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

var _ Store = (*Repository)(nil)

// NewRepository creates a settings repository backed by the given pool.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

const getSettingsQuery = `
	SELECT data, updated_at
	FROM automation_settings
	WHERE id = $1`

// Get loads the saved settings document. Returns ErrNotFound when nothing
// was saved yet.
func (r *Repository) Get(ctx context.Context) (Settings, error) {
	var (
		raw       []byte
		updatedAt time.Time
	)

	err := r.pool.QueryRow(ctx, getSettingsQuery, singletonID).Scan(&raw, &updatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return Settings{}, ErrNotFound
	}
	if err != nil {
		return Settings{}, fmt.Errorf("get settings: %w", err)
	}

	var s Settings
	if err := json.Unmarshal(raw, &s); err != nil {
		return Settings{}, fmt.Errorf("decode settings: %w", err)
	}
	s.UpdatedAt = updatedAt

	return s, nil
}

const saveSettingsQuery = `
	INSERT INTO automation_settings (id, data, updated_at)
	VALUES ($1, $2, now())
	ON CONFLICT (id) DO UPDATE
	SET data = EXCLUDED.data, updated_at = now()
	RETURNING updated_at`

// Save upserts the settings document and returns it with the persisted
// timestamp.
func (r *Repository) Save(ctx context.Context, s Settings) (Settings, error) {
	raw, err := json.Marshal(s)
	if err != nil {
		return Settings{}, fmt.Errorf("encode settings: %w", err)
	}

	var updatedAt time.Time
	if err := r.pool.QueryRow(ctx, saveSettingsQuery, singletonID, raw).Scan(&updatedAt); err != nil {
		return Settings{}, fmt.Errorf("save settings: %w", err)
	}
	s.UpdatedAt = updatedAt

	return s, nil
}
