package store

import (
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
)

// Capture kinds.
const (
	CaptureArtwork = "artwork"
	CaptureMask    = "mask"
	CaptureOCR     = "ocr"
	CaptureFrame   = "frame"
)

// Capture records an image written to the data directory.
type Capture struct {
	ID        string    `json:"id"`
	Kind      string    `json:"kind"`
	Path      string    `json:"path"`
	Width     int       `json:"width"`
	Height    int       `json:"height"`
	CreatedAt time.Time `json:"created_at"`
}

// CaptureRepository records saved images.
type CaptureRepository struct {
	db *sql.DB
}

// Captures returns the capture repository for this store.
func (s *Store) Captures() *CaptureRepository {
	return &CaptureRepository{db: s.db}
}

// Create records c, assigning an ID when empty.
func (r *CaptureRepository) Create(c *Capture) error {
	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	c.CreatedAt = time.Now()

	_, err := r.db.Exec(
		`INSERT INTO captures (id, kind, path, width, height, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.Kind, c.Path, c.Width, c.Height, c.CreatedAt,
	)
	return err
}

// GetByID returns a capture or ErrNotFound.
func (r *CaptureRepository) GetByID(id string) (*Capture, error) {
	c := &Capture{}
	err := r.db.QueryRow(
		`SELECT id, kind, path, width, height, created_at FROM captures WHERE id = ?`, id,
	).Scan(&c.ID, &c.Kind, &c.Path, &c.Width, &c.Height, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return c, nil
}

// List returns captures of kind, newest first. An empty kind lists all.
func (r *CaptureRepository) List(kind string, limit int) ([]*Capture, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.db.Query(
		`SELECT id, kind, path, width, height, created_at FROM captures
		 WHERE (? = '' OR kind = ?) ORDER BY created_at DESC LIMIT ?`,
		kind, kind, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []*Capture
	for rows.Next() {
		c := &Capture{}
		if err := rows.Scan(&c.ID, &c.Kind, &c.Path, &c.Width, &c.Height, &c.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Delete removes a capture record. The file itself is left alone.
func (r *CaptureRepository) Delete(id string) error {
	return expectOne(r.db.Exec(`DELETE FROM captures WHERE id = ?`, id))
}
