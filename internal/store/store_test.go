package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestStore opens a store under a nested temp dir so parent directory
// creation is exercised too.
func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New(filepath.Join(t.TempDir(), "data", "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNew_CreatesDatabaseFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "drishti.db")
	_, err := os.Stat(path)
	require.True(t, os.IsNotExist(err))

	s, err := New(path)
	require.NoError(t, err)
	defer s.Close()

	assert.FileExists(t, path)
	assert.Equal(t, path, s.Path())
}

func TestNew_InMemory(t *testing.T) {
	s, err := New(":memory:")
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Gestures().Create(&Gesture{ID: "g", Name: "g", Type: GestureTypeStatic}))
	_, err = s.Gestures().GetByID("g")
	assert.NoError(t, err)
}

func TestNew_Schema(t *testing.T) {
	s := newTestStore(t)

	exists := func(kind, name string) bool {
		var got string
		err := s.DB().QueryRow(`SELECT name FROM sqlite_master WHERE type = ? AND name = ?`, kind, name).Scan(&got)
		return err == nil
	}
	for _, table := range []string{
		"gestures", "gesture_landmarks", "gesture_paths", "actions", "settings",
		"gesture_samples", "captures", "chat_history", "assistant_history", "schema_migrations",
	} {
		assert.True(t, exists("table", table), "table %s", table)
	}
	for _, idx := range []string{
		"idx_gesture_landmarks_gesture_id",
		"idx_gesture_paths_gesture_id",
		"idx_actions_gesture_id",
		"idx_gesture_samples_gesture_id",
	} {
		assert.True(t, exists("index", idx), "index %s", idx)
	}
}

func TestNew_Pragmas(t *testing.T) {
	s := newTestStore(t)

	var fk int
	require.NoError(t, s.DB().QueryRow("PRAGMA foreign_keys").Scan(&fk))
	assert.Equal(t, 1, fk)

	var busy int
	require.NoError(t, s.DB().QueryRow("PRAGMA busy_timeout").Scan(&busy))
	assert.Equal(t, 5000, busy)
}

func TestNew_DataDirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "blocker")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	_, err := New(filepath.Join(file, "drishti.db"))
	assert.ErrorContains(t, err, "failed to create data dir")
}

func TestStore_Close(t *testing.T) {
	s, err := New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)

	require.NoError(t, s.Close())
	_, err = s.DB().Exec("SELECT 1")
	assert.Error(t, err, "closed store rejects queries")
}
