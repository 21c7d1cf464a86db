package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Action binds a gesture to a plugin action. Swipe directions bind
// through the pseudo-gestures "swipe_left", "swipe_right" and so on.
type Action struct {
	ID         string
	GestureID  string
	PluginName string
	ActionName string
	Config     json.RawMessage
	Enabled    bool
	CreatedAt  time.Time
}

const actionColumns = `id, gesture_id, plugin_name, action_name, config, enabled, created_at`

// ActionRepository stores gesture bindings.
type ActionRepository struct {
	db *sql.DB
}

// Actions returns the action repository for this store.
func (s *Store) Actions() *ActionRepository {
	return &ActionRepository{db: s.db}
}

func scanAction(row rowScanner) (*Action, error) {
	var (
		a      Action
		config string
	)
	if err := row.Scan(&a.ID, &a.GestureID, &a.PluginName, &a.ActionName, &config, &a.Enabled, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	a.Config = json.RawMessage(config)
	return &a, nil
}

func configOrEmpty(c json.RawMessage) string {
	if len(c) == 0 {
		return "{}"
	}
	return string(c)
}

// Create inserts a, assigning an ID when empty.
func (r *ActionRepository) Create(a *Action) error {
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.CreatedAt = time.Now()
	_, err := r.db.Exec(`INSERT INTO actions (`+actionColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.GestureID, a.PluginName, a.ActionName, configOrEmpty(a.Config), a.Enabled, a.CreatedAt)
	return err
}

// GetByID returns the action with id or ErrNotFound.
func (r *ActionRepository) GetByID(id string) (*Action, error) {
	return scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE id = ?`, id))
}

// GetByGestureID returns the binding for a gesture, or nil, nil when the
// gesture is unbound.
func (r *ActionRepository) GetByGestureID(gestureID string) (*Action, error) {
	a, err := scanAction(r.db.QueryRow(`SELECT `+actionColumns+` FROM actions WHERE gesture_id = ? LIMIT 1`, gestureID))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return a, err
}

// List returns every binding, newest first.
func (r *ActionRepository) List() ([]*Action, error) {
	rows, err := r.db.Query(`SELECT ` + actionColumns + ` FROM actions ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Action
	for rows.Next() {
		a, err := scanAction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// Update writes every mutable field of a.
func (r *ActionRepository) Update(a *Action) error {
	return expectOne(r.db.Exec(
		`UPDATE actions SET gesture_id = ?, plugin_name = ?, action_name = ?, config = ?, enabled = ? WHERE id = ?`,
		a.GestureID, a.PluginName, a.ActionName, configOrEmpty(a.Config), a.Enabled, a.ID))
}

// Delete removes a binding by ID.
func (r *ActionRepository) Delete(id string) error {
	return expectOne(r.db.Exec(`DELETE FROM actions WHERE id = ?`, id))
}
