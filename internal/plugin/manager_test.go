package plugin

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeManifest creates root/<dir>/plugin.json with raw contents.
func writeManifest(t *testing.T, root, dir, raw string) string {
	t.Helper()
	pdir := filepath.Join(root, dir)
	require.NoError(t, os.MkdirAll(pdir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(pdir, ManifestFile), []byte(raw), 0o644))
	return pdir
}

func manifestJSON(t *testing.T, m Manifest) string {
	t.Helper()
	b, err := json.Marshal(m)
	require.NoError(t, err)
	return string(b)
}

func TestManager_Discover(t *testing.T) {
	root := t.TempDir()
	kbDir := writeManifest(t, root, "keyboard", manifestJSON(t, Manifest{
		Name:        "keyboard",
		Version:     "1.1.0",
		Description: "keys",
		Executable:  "keyboard",
		Actions:     []string{"press", "shortcut"},
	}))
	writeManifest(t, root, "audio", manifestJSON(t, Manifest{
		Name:       "audio",
		Executable: "audio",
		Actions:    []string{"volume-up"},
	}))
	writeManifest(t, root, "broken", "{not json")
	writeManifest(t, root, "nameless", `{"executable": "x"}`)
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stray.txt"), []byte("x"), 0o644))

	m := NewManager(root)
	require.NoError(t, m.Discover())

	list := m.List()
	require.Len(t, list, 2)
	assert.Equal(t, "audio", list[0].Manifest.Name, "sorted by name")
	assert.Equal(t, "keyboard", list[1].Manifest.Name)

	kb, err := m.Get("keyboard")
	require.NoError(t, err)
	assert.Equal(t, kbDir, kb.Path)
	assert.Equal(t, filepath.Join(kbDir, "keyboard"), kb.Executable)
	assert.Equal(t, "1.1.0", kb.Manifest.Version)
	assert.Equal(t, root, m.PluginDir())
}

func TestManager_RediscoverReplaces(t *testing.T) {
	root := t.TempDir()
	dir := writeManifest(t, root, "one", `{"name": "one", "executable": "one"}`)

	m := NewManager(root)
	require.NoError(t, m.Discover())
	require.Len(t, m.List(), 1)

	require.NoError(t, os.RemoveAll(dir))
	require.NoError(t, m.Discover())
	assert.Empty(t, m.List())
}

func TestManager_MissingDir(t *testing.T) {
	m := NewManager(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, m.Discover())
	assert.Empty(t, m.List())
}

func TestManager_DirIsFile(t *testing.T) {
	file := filepath.Join(t.TempDir(), "plugins")
	require.NoError(t, os.WriteFile(file, nil, 0o644))
	assert.Error(t, NewManager(file).Discover())
}

func TestManager_GetAndSupports(t *testing.T) {
	root := t.TempDir()
	writeManifest(t, root, "keyboard", `{"name": "keyboard", "executable": "kb", "actions": ["press"]}`)
	m := NewManager(root)
	require.NoError(t, m.Discover())

	_, err := m.Get("mouse")
	assert.ErrorIs(t, err, ErrPluginNotFound)

	assert.True(t, m.Supports("keyboard", "press"))
	assert.False(t, m.Supports("keyboard", "shortcut"))
	assert.False(t, m.Supports("mouse", "press"))
}
