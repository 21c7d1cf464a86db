package store

import "fmt"

// migration is one schema step. Versions are applied in order and
// recorded in schema_migrations so each runs once.
type migration struct {
	version    int
	name       string
	statements []string
}

var migrations = []migration{
	{
		version: 1,
		name:    "gestures",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS gestures (
				id TEXT PRIMARY KEY,
				name TEXT NOT NULL UNIQUE,
				type TEXT NOT NULL CHECK(type IN ('static', 'dynamic')),
				tolerance REAL NOT NULL DEFAULT 0.15,
				samples INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS gesture_landmarks (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
				landmark_index INTEGER NOT NULL,
				x REAL NOT NULL,
				y REAL NOT NULL,
				z REAL NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS gesture_paths (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
				sequence INTEGER NOT NULL,
				x REAL NOT NULL,
				y REAL NOT NULL,
				timestamp_ms INTEGER NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS actions (
				id TEXT PRIMARY KEY,
				gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
				plugin_name TEXT NOT NULL,
				action_name TEXT NOT NULL,
				config TEXT NOT NULL DEFAULT '{}',
				enabled INTEGER NOT NULL DEFAULT 1,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS settings (
				key TEXT PRIMARY KEY,
				value TEXT NOT NULL
			)`,
			`CREATE TABLE IF NOT EXISTS gesture_samples (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				gesture_id TEXT NOT NULL REFERENCES gestures(id) ON DELETE CASCADE,
				sample_index INTEGER NOT NULL,
				data TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_gesture_landmarks_gesture_id ON gesture_landmarks(gesture_id)`,
			`CREATE INDEX IF NOT EXISTS idx_gesture_paths_gesture_id ON gesture_paths(gesture_id)`,
			`CREATE INDEX IF NOT EXISTS idx_actions_gesture_id ON actions(gesture_id)`,
			`CREATE INDEX IF NOT EXISTS idx_gesture_samples_gesture_id ON gesture_samples(gesture_id)`,
		},
	},
	{
		version: 2,
		name:    "captures",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS captures (
				id TEXT PRIMARY KEY,
				kind TEXT NOT NULL,
				path TEXT NOT NULL,
				width INTEGER NOT NULL DEFAULT 0,
				height INTEGER NOT NULL DEFAULT 0,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_captures_kind ON captures(kind)`,
		},
	},
	{
		version: 3,
		name:    "history",
		statements: []string{
			`CREATE TABLE IF NOT EXISTS chat_history (
				id TEXT PRIMARY KEY,
				question TEXT NOT NULL,
				answer TEXT NOT NULL,
				score REAL NOT NULL,
				matched TEXT NOT NULL DEFAULT '',
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE TABLE IF NOT EXISTS assistant_history (
				id TEXT PRIMARY KEY,
				heard TEXT NOT NULL,
				intent TEXT NOT NULL,
				result TEXT NOT NULL,
				created_at DATETIME DEFAULT CURRENT_TIMESTAMP
			)`,
		},
	},
}

// runMigrations applies pending migrations and returns how many ran.
func (s *Store) runMigrations() (int, error) {
	if _, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
	)`); err != nil {
		return 0, err
	}

	current, err := s.SchemaVersion()
	if err != nil {
		return 0, err
	}

	applied := 0
	for _, m := range migrations {
		if m.version <= current {
			continue
		}
		if err := s.apply(m); err != nil {
			return applied, fmt.Errorf("migration %d (%s): %w", m.version, m.name, err)
		}
		applied++
	}
	return applied, nil
}

func (s *Store) apply(m migration) error {
	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, stmt := range m.statements {
		if _, err := tx.Exec(stmt); err != nil {
			return err
		}
	}
	if _, err := tx.Exec(`INSERT INTO schema_migrations (version, name) VALUES (?, ?)`, m.version, m.name); err != nil {
		return err
	}
	return tx.Commit()
}

// SchemaVersion returns the highest applied migration version.
func (s *Store) SchemaVersion() (int, error) {
	var v int
	err := s.db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&v)
	return v, err
}
