package store

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createGesture(t *testing.T, s *Store, id string, typ GestureType) {
	t.Helper()
	require.NoError(t, s.Gestures().Create(&Gesture{ID: id, Name: id, Type: typ, Tolerance: 0.2}))
}

func TestMigrations_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := New(path)
	require.NoError(t, err)
	v, err := s.SchemaVersion()
	require.NoError(t, err)
	assert.Equal(t, len(migrations), v)
	require.NoError(t, s.Close())

	s, err = New(path)
	require.NoError(t, err)
	defer s.Close()

	applied, err := s.runMigrations()
	require.NoError(t, err)
	assert.Zero(t, applied)
}

func TestGestureRepository_Landmarks(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "fist", GestureTypeStatic)
	repo := s.Gestures()

	in := []Landmark{{X: 0, Y: 0, Z: 0}, {X: 0.1, Y: -0.2, Z: 0.3}, {X: 1, Y: 1, Z: 1}}
	require.NoError(t, repo.SetLandmarks("fist", in))

	out, err := repo.GetLandmarks("fist")
	require.NoError(t, err)
	require.Len(t, out, 3)
	for i, l := range out {
		assert.Equal(t, i, l.Index)
		assert.InDelta(t, in[i].Y, l.Y, 1e-12)
	}

	// Replacing keeps only the new set.
	require.NoError(t, repo.SetLandmarks("fist", in[:1]))
	out, err = repo.GetLandmarks("fist")
	require.NoError(t, err)
	assert.Len(t, out, 1)
}

func TestGestureRepository_Path(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "swipe", GestureTypeDynamic)
	repo := s.Gestures()

	in := []PathPoint{{X: 0.1, Y: 0.5, TimestampMs: 10}, {X: 0.5, Y: 0.5, TimestampMs: 20}}
	require.NoError(t, repo.SetPath("swipe", in))

	out, err := repo.GetPath("swipe")
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, int64(20), out[1].TimestampMs)
	assert.Equal(t, 1, out[1].Sequence)

	// Points go away with the gesture.
	require.NoError(t, repo.Delete("swipe"))
	out, err = repo.GetPath("swipe")
	require.NoError(t, err)
	assert.Empty(t, out)
}

func TestSettingsRepository(t *testing.T) {
	s := newTestStore(t)
	settings := s.Settings()

	_, err := settings.Get(SettingDetectionEnabled)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.True(t, settings.GetBool(SettingDetectionEnabled, true))

	require.NoError(t, settings.Set(SettingDetectionEnabled, "false"))
	require.NoError(t, settings.Set(SettingMotionThreshold, "2.5"))
	require.NoError(t, settings.Set(SettingMotionThreshold, "3.5"))

	assert.False(t, settings.GetBool(SettingDetectionEnabled, true))
	assert.InDelta(t, 3.5, settings.GetFloat(SettingMotionThreshold, 1), 1e-12)
	assert.Equal(t, "x", settings.GetDefault("missing", "x"))

	all, err := settings.All()
	require.NoError(t, err)
	assert.Len(t, all, 2)

	require.NoError(t, settings.Delete(SettingMotionThreshold))
	require.NoError(t, settings.Delete(SettingMotionThreshold))
	assert.InDelta(t, 1.0, settings.GetFloat(SettingMotionThreshold, 1), 1e-12)
}

func TestCaptureRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.Captures()

	art := &Capture{Kind: CaptureArtwork, Path: "/tmp/a.png", Width: 640, Height: 480}
	require.NoError(t, repo.Create(art))
	assert.NotEmpty(t, art.ID)
	require.NoError(t, repo.Create(&Capture{Kind: CaptureMask, Path: "/tmp/m.png"}))

	got, err := repo.GetByID(art.ID)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/a.png", got.Path)

	all, err := repo.List("", 0)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	masks, err := repo.List(CaptureMask, 10)
	require.NoError(t, err)
	require.Len(t, masks, 1)
	assert.Equal(t, CaptureMask, masks[0].Kind)

	require.NoError(t, repo.Delete(art.ID))
	assert.ErrorIs(t, repo.Delete(art.ID), ErrNotFound)
	_, err = repo.GetByID(art.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestChatHistoryRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.ChatHistory()

	for _, q := range []string{"one", "two", "three"} {
		require.NoError(t, repo.Append(&ChatEntry{Question: q, Answer: "a", Score: 0.9}))
	}

	recent, err := repo.Recent(2)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "two", recent[0].Question, "chronological order")
	assert.Equal(t, "three", recent[1].Question)

	require.NoError(t, repo.Clear())
	recent, err = repo.Recent(0)
	require.NoError(t, err)
	assert.Empty(t, recent)
}

func TestAssistantHistoryRepository(t *testing.T) {
	s := newTestStore(t)
	repo := s.AssistantHistory()

	require.NoError(t, repo.Append(&AssistantEntry{Heard: "what time is it", Intent: "time", Result: "time:09:15 AM"}))
	require.NoError(t, repo.Append(&AssistantEntry{Heard: "open github", Intent: "open", Result: "open:github"}))

	recent, err := repo.Recent(10)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.Equal(t, "open", recent[0].Intent, "newest first")
}

func TestActionRepository(t *testing.T) {
	s := newTestStore(t)
	createGesture(t, s, "swipe_left", GestureTypeDynamic)
	repo := s.Actions()

	none, err := repo.GetByGestureID("swipe_left")
	require.NoError(t, err)
	assert.Nil(t, none, "unbound gesture yields nil action")

	a := &Action{GestureID: "swipe_left", PluginName: "keyboard", ActionName: "press", Config: []byte(`{"key":"left"}`), Enabled: true}
	require.NoError(t, repo.Create(a))
	assert.NotEmpty(t, a.ID)

	got, err := repo.GetByGestureID("swipe_left")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.JSONEq(t, `{"key":"left"}`, string(got.Config))
	assert.True(t, got.Enabled)

	got.Enabled = false
	require.NoError(t, repo.Update(got))
	got, err = repo.GetByID(a.ID)
	require.NoError(t, err)
	assert.False(t, got.Enabled)

	list, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)

	require.NoError(t, repo.Delete(a.ID))
	assert.ErrorIs(t, repo.Delete(a.ID), ErrNotFound)
}

func TestGestures_EnsureIsIdempotent(t *testing.T) {
	s := newTestStore(t)
	repo := s.Gestures()

	g := &Gesture{ID: "swipe_up", Name: "swipe_up", Type: GestureTypeDynamic}
	require.NoError(t, repo.Ensure(g))
	require.NoError(t, repo.Ensure(g))

	list, err := repo.List()
	require.NoError(t, err)
	assert.Len(t, list, 1)
}
