package store

import (
	"database/sql"
	"errors"
	"strconv"
)

// Setting keys used by the server and tray.
const (
	SettingDetectionEnabled = "detection_enabled"
	SettingMotionThreshold  = "motion_threshold"
	SettingLastGesture      = "last_gesture"
)

// SettingsRepository is a key-value view over the settings table.
type SettingsRepository struct {
	db *sql.DB
}

// Settings returns the settings repository for this store.
func (s *Store) Settings() *SettingsRepository {
	return &SettingsRepository{db: s.db}
}

// Get returns the value for key or ErrNotFound.
func (r *SettingsRepository) Get(key string) (string, error) {
	var v string
	err := r.db.QueryRow(`SELECT value FROM settings WHERE key = ?`, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	return v, err
}

// GetDefault returns the value for key, or def when unset or unreadable.
func (r *SettingsRepository) GetDefault(key, def string) string {
	v, err := r.Get(key)
	if err != nil {
		return def
	}
	return v
}

// GetBool parses a stored boolean, falling back to def.
func (r *SettingsRepository) GetBool(key string, def bool) bool {
	b, err := strconv.ParseBool(r.GetDefault(key, ""))
	if err != nil {
		return def
	}
	return b
}

// GetFloat parses a stored float, falling back to def.
func (r *SettingsRepository) GetFloat(key string, def float64) float64 {
	f, err := strconv.ParseFloat(r.GetDefault(key, ""), 64)
	if err != nil {
		return def
	}
	return f
}

// Set stores value under key, replacing any previous value.
func (r *SettingsRepository) Set(key, value string) error {
	_, err := r.db.Exec(
		`INSERT INTO settings (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value,
	)
	return err
}

// All returns every stored setting.
func (r *SettingsRepository) All() (map[string]string, error) {
	rows, err := r.db.Query(`SELECT key, value FROM settings ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// Delete removes key. Missing keys are not an error.
func (r *SettingsRepository) Delete(key string) error {
	_, err := r.db.Exec(`DELETE FROM settings WHERE key = ?`, key)
	return err
}
