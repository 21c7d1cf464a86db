package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a requested resource does not exist.
var ErrNotFound = errors.New("not found")

// GestureType is either static (a held pose) or dynamic (a motion path).
type GestureType string

const (
	GestureTypeStatic  GestureType = "static"
	GestureTypeDynamic GestureType = "dynamic"
)

// Gesture is a user-defined gesture. Samples counts the recorded training
// samples and is maintained by SampleRepository.
type Gesture struct {
	ID        string
	Name      string
	Type      GestureType
	Tolerance float64
	Samples   int
	CreatedAt time.Time
	UpdatedAt time.Time
}

const gestureColumns = `id, name, type, tolerance, samples, created_at, updated_at`

// GestureRepository stores gesture definitions and their templates.
type GestureRepository struct {
	db *sql.DB
}

// Gestures returns the gesture repository for this store.
func (s *Store) Gestures() *GestureRepository {
	return &GestureRepository{db: s.db}
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...any) error
}

func scanGesture(row rowScanner) (*Gesture, error) {
	var (
		g   Gesture
		typ string
	)
	if err := row.Scan(&g.ID, &g.Name, &typ, &g.Tolerance, &g.Samples, &g.CreatedAt, &g.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	g.Type = GestureType(typ)
	return &g, nil
}

// expectOne maps a write that touched no rows to ErrNotFound.
func expectOne(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// Create inserts g and stamps its timestamps.
func (r *GestureRepository) Create(g *Gesture) error {
	g.CreatedAt = time.Now()
	g.UpdatedAt = g.CreatedAt
	_, err := r.db.Exec(`INSERT INTO gestures (`+gestureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Type), g.Tolerance, g.Samples, g.CreatedAt, g.UpdatedAt)
	if err != nil {
		return fmt.Errorf("create gesture %q: %w", g.Name, err)
	}
	return nil
}

// Ensure inserts g unless a gesture with the same ID exists. Swipe
// pseudo-gestures are registered this way so bindings can reference them.
func (r *GestureRepository) Ensure(g *Gesture) error {
	now := time.Now()
	_, err := r.db.Exec(`INSERT OR IGNORE INTO gestures (`+gestureColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		g.ID, g.Name, string(g.Type), g.Tolerance, g.Samples, now, now)
	return err
}

// GetByID returns the gesture with id or ErrNotFound.
func (r *GestureRepository) GetByID(id string) (*Gesture, error) {
	return scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE id = ?`, id))
}

// GetByName returns the gesture called name or ErrNotFound.
func (r *GestureRepository) GetByName(name string) (*Gesture, error) {
	return scanGesture(r.db.QueryRow(`SELECT `+gestureColumns+` FROM gestures WHERE name = ?`, name))
}

// List returns every gesture, newest first.
func (r *GestureRepository) List() ([]*Gesture, error) {
	rows, err := r.db.Query(`SELECT ` + gestureColumns + ` FROM gestures ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Gesture
	for rows.Next() {
		g, err := scanGesture(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

// Update writes every mutable field of g.
func (r *GestureRepository) Update(g *Gesture) error {
	g.UpdatedAt = time.Now()
	return expectOne(r.db.Exec(
		`UPDATE gestures SET name = ?, type = ?, tolerance = ?, samples = ?, updated_at = ? WHERE id = ?`,
		g.Name, string(g.Type), g.Tolerance, g.Samples, g.UpdatedAt, g.ID))
}

// Delete removes a gesture. Its templates, samples and binding cascade.
func (r *GestureRepository) Delete(id string) error {
	return expectOne(r.db.Exec(`DELETE FROM gestures WHERE id = ?`, id))
}
