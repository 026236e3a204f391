package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Hook binds a session event to a plugin action.
type Hook struct {
	ID         string          `json:"id"`
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config,omitempty"`
	Enabled    bool            `json:"enabled"`
	CreatedAt  time.Time       `json:"created_at"`
}

// HookRepository provides CRUD operations for hooks.
type HookRepository struct {
	db *sql.DB
}

// Hooks returns the hook repository for this store.
func (s *Store) Hooks() *HookRepository {
	return &HookRepository{db: s.db}
}

// Create inserts a new hook. An empty ID is filled in.
func (r *HookRepository) Create(ctx context.Context, h *Hook) error {
	if h.ID == "" {
		h.ID = uuid.NewString()
	}
	h.CreatedAt = time.Now().UTC()

	config := h.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO hooks (id, event, plugin_name, action_name, config, enabled, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		h.ID, h.Event, h.PluginName, h.ActionName, string(config), h.Enabled, h.CreatedAt,
	)
	return err
}

// GetByID retrieves a hook by its ID.
func (r *HookRepository) GetByID(ctx context.Context, id string) (*Hook, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks WHERE id = ?`,
		id,
	)
	h, err := scanHook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return h, nil
}

// ListByEvent returns the enabled hooks for event, oldest first.
func (r *HookRepository) ListByEvent(ctx context.Context, event string) ([]*Hook, error) {
	return r.query(ctx,
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks WHERE event = ? AND enabled = 1 ORDER BY created_at ASC`,
		event,
	)
}

// List retrieves all hooks, newest first.
func (r *HookRepository) List(ctx context.Context) ([]*Hook, error) {
	return r.query(ctx,
		`SELECT id, event, plugin_name, action_name, config, enabled, created_at
		 FROM hooks ORDER BY created_at DESC`,
	)
}

// Update updates an existing hook.
func (r *HookRepository) Update(ctx context.Context, h *Hook) error {
	config := h.Config
	if config == nil {
		config = json.RawMessage("{}")
	}

	result, err := r.db.ExecContext(ctx,
		`UPDATE hooks SET event = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ?
		 WHERE id = ?`,
		h.Event, h.PluginName, h.ActionName, string(config), h.Enabled, h.ID,
	)
	if err != nil {
		return err
	}
	return expectOne(result)
}

// Delete removes a hook by its ID.
func (r *HookRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM hooks WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

func (r *HookRepository) query(ctx context.Context, query string, args ...any) ([]*Hook, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	hooks := []*Hook{}
	for rows.Next() {
		h, err := scanHook(rows)
		if err != nil {
			return nil, err
		}
		hooks = append(hooks, h)
	}
	return hooks, rows.Err()
}

func scanHook(row scanner) (*Hook, error) {
	h := &Hook{}
	var config string
	var enabled int

	err := row.Scan(&h.ID, &h.Event, &h.PluginName, &h.ActionName, &config, &enabled, &h.CreatedAt)
	if err != nil {
		return nil, err
	}

	h.Config = json.RawMessage(config)
	h.Enabled = enabled != 0
	return h, nil
}

func expectOne(result sql.Result) error {
	n, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
