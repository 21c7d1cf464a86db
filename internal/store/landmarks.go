package store

import "fmt"

// Landmark is one stored point of a static gesture template.
type Landmark struct {
	Index int
	X     float64
	Y     float64
	Z     float64
}

// PathPoint is one stored point of a dynamic gesture template.
type PathPoint struct {
	Sequence    int
	X           float64
	Y           float64
	TimestampMs int64
}

// SetLandmarks replaces the template landmarks of a gesture.
func (r *GestureRepository) SetLandmarks(gestureID string, landmarks []Landmark) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_landmarks WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO gesture_landmarks (gesture_id, landmark_index, x, y, z) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, l := range landmarks {
		if _, err := stmt.Exec(gestureID, i, l.X, l.Y, l.Z); err != nil {
			return fmt.Errorf("insert landmark %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetLandmarks returns the template landmarks of a gesture in index order.
func (r *GestureRepository) GetLandmarks(gestureID string) ([]Landmark, error) {
	rows, err := r.db.Query(
		`SELECT landmark_index, x, y, z FROM gesture_landmarks
		 WHERE gesture_id = ? ORDER BY landmark_index`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Landmark
	for rows.Next() {
		var l Landmark
		if err := rows.Scan(&l.Index, &l.X, &l.Y, &l.Z); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// SetPath replaces the template path of a gesture.
func (r *GestureRepository) SetPath(gestureID string, path []PathPoint) error {
	tx, err := r.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM gesture_paths WHERE gesture_id = ?`, gestureID); err != nil {
		return err
	}

	stmt, err := tx.Prepare(`INSERT INTO gesture_paths (gesture_id, sequence, x, y, timestamp_ms) VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for i, p := range path {
		if _, err := stmt.Exec(gestureID, i, p.X, p.Y, p.TimestampMs); err != nil {
			return fmt.Errorf("insert path point %d: %w", i, err)
		}
	}

	return tx.Commit()
}

// GetPath returns the template path of a gesture in sequence order.
func (r *GestureRepository) GetPath(gestureID string) ([]PathPoint, error) {
	rows, err := r.db.Query(
		`SELECT sequence, x, y, timestamp_ms FROM gesture_paths
		 WHERE gesture_id = ? ORDER BY sequence`,
		gestureID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PathPoint
	for rows.Next() {
		var p PathPoint
		if err := rows.Scan(&p.Sequence, &p.X, &p.Y, &p.TimestampMs); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
