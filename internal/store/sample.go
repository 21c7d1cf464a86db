package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// Sample is one recorded training sample of a gesture: a landmark set for
// static gestures or a fingertip path for dynamic ones.
type Sample struct {
	ID          int64           `json:"id"`
	GestureID   string          `json:"gesture_id"`
	SampleIndex int             `json:"sample_index"`
	Data        json.RawMessage `json:"data"`
	CreatedAt   time.Time       `json:"created_at"`
}

// SampleRepository stores training samples.
type SampleRepository struct {
	db *sql.DB
}

// Samples returns the sample repository for this store.
func (s *Store) Samples() *SampleRepository {
	return &SampleRepository{db: s.db}
}

// Create appends samples after any already recorded for the gesture and
// keeps the gesture's sample count in step, in one transaction.
func (r *SampleRepository) Create(gestureID string, samples []json.RawMessage) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var next int
	if err := tx.QueryRow(`SELECT COALESCE(MAX(sample_index) + 1, 0) FROM gesture_samples WHERE gesture_id = ?`,
		gestureID).Scan(&next); err != nil {
		return fmt.Errorf("next sample index: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT INTO gesture_samples (gesture_id, sample_index, data) VALUES (?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, data := range samples {
		if _, err := stmt.Exec(gestureID, next+i, string(data)); err != nil {
			return fmt.Errorf("insert sample %d: %w", next+i, err)
		}
	}

	if err := syncSampleCount(tx, gestureID); err != nil {
		return err
	}
	return tx.Commit()
}

// GetByGestureID returns the gesture's samples in recording order.
func (r *SampleRepository) GetByGestureID(gestureID string) ([]Sample, error) {
	rows, err := r.db.Query(`SELECT id, gesture_id, sample_index, data, created_at
		FROM gesture_samples WHERE gesture_id = ? ORDER BY sample_index`, gestureID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Sample
	for rows.Next() {
		var (
			s    Sample
			data string
		)
		if err := rows.Scan(&s.ID, &s.GestureID, &s.SampleIndex, &data, &s.CreatedAt); err != nil {
			return nil, err
		}
		s.Data = json.RawMessage(data)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteByGestureID drops every sample of the gesture and zeroes its count.
func (r *SampleRepository) DeleteByGestureID(gestureID string) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_samples WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}
	if err := syncSampleCount(tx, gestureID); err != nil {
		return err
	}
	return tx.Commit()
}

func syncSampleCount(tx *sql.Tx, gestureID string) error {
	_, err := tx.Exec(`UPDATE gestures
		SET samples = (SELECT COUNT(*) FROM gesture_samples WHERE gesture_id = ?), updated_at = ?
		WHERE id = ?`, gestureID, time.Now(), gestureID)
	if err != nil {
		return fmt.Errorf("update sample count: %w", err)
	}
	return nil
}
