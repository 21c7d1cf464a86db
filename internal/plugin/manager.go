package plugin

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"sync"

	"go.uber.org/zap"
)

// ManifestFile is the manifest every plugin directory carries.
const ManifestFile = "plugin.json"

// ErrPluginNotFound is returned when a requested plugin cannot be found.
var ErrPluginNotFound = errors.New("plugin not found")

// Manager indexes the plugins found under one directory. It is safe for
// concurrent use; Discover replaces the index atomically.
type Manager struct {
	dir     string
	mu      sync.RWMutex
	plugins map[string]*Plugin
}

// NewManager creates a manager for dir. Nothing is read until Discover.
func NewManager(dir string) *Manager {
	return &Manager{dir: dir, plugins: map[string]*Plugin{}}
}

// Discover rescans the directory. Every subdirectory holding a valid
// manifest becomes a plugin; broken manifests are logged and skipped. A
// missing directory yields no plugins.
func (m *Manager) Discover() error {
	found := map[string]*Plugin{}

	entries, err := os.ReadDir(m.dir)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return fmt.Errorf("read plugin dir: %w", err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		p, err := load(filepath.Join(m.dir, entry.Name()))
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			zap.L().Warn("skipping plugin", zap.String("dir", entry.Name()), zap.Error(err))
			continue
		}
		found[p.Manifest.Name] = p
	}

	m.mu.Lock()
	m.plugins = found
	m.mu.Unlock()

	zap.L().Debug("plugins discovered", zap.String("dir", m.dir), zap.Int("count", len(found)))
	return nil
}

// load reads the manifest in dir.
func load(dir string) (*Plugin, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFile))
	if err != nil {
		return nil, err
	}
	var manifest Manifest
	if err := json.Unmarshal(data, &manifest); err != nil {
		return nil, fmt.Errorf("parse manifest: %w", err)
	}
	if manifest.Name == "" || manifest.Executable == "" {
		return nil, errors.New("manifest needs a name and an executable")
	}
	return &Plugin{
		Manifest:   manifest,
		Path:       dir,
		Executable: filepath.Join(dir, manifest.Executable),
	}, nil
}

// Get returns the plugin called name or ErrPluginNotFound.
func (m *Manager) Get(name string) (*Plugin, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if p, ok := m.plugins[name]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: %s", ErrPluginNotFound, name)
}

// List returns every discovered plugin sorted by name.
func (m *Manager) List() []*Plugin {
	m.mu.RLock()
	out := make([]*Plugin, 0, len(m.plugins))
	for _, p := range m.plugins {
		out = append(out, p)
	}
	m.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool { return out[i].Manifest.Name < out[j].Manifest.Name })
	return out
}

// Supports reports whether plugin name declares action.
func (m *Manager) Supports(name, action string) bool {
	p, err := m.Get(name)
	return err == nil && slices.Contains(p.Manifest.Actions, action)
}

// PluginDir returns the scanned directory.
func (m *Manager) PluginDir() string {
	return m.dir
}
