package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/ocr"
)

func TestCommands_UniqueAndComplete(t *testing.T) {
	seen := map[string]bool{}
	for _, c := range commands {
		assert.False(t, seen[c.name], "duplicate command %s", c.name)
		seen[c.name] = true
		assert.NotNil(t, c.run, c.name)
		assert.NotEmpty(t, c.usage, c.name)
	}

	for _, name := range []string{"hands", "swipe", "airbrush", "ocr", "chat", "serve"} {
		_, ok := lookup(name)
		assert.True(t, ok, name)
	}
	_, ok := lookup("nope")
	assert.False(t, ok)
}

func TestBrowseURL(t *testing.T) {
	assert.Equal(t, "http://localhost:8080", browseURL(":8080"))
	assert.Equal(t, "http://127.0.0.1:9000", browseURL("127.0.0.1:9000"))
}

func TestFindDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "file")
	require.NoError(t, os.WriteFile(file, nil, 0o644))

	assert.Equal(t, "", findDir("", filepath.Join(dir, "missing"), file))
	assert.Equal(t, dir, findDir(filepath.Join(dir, "missing"), dir))
}

func testEnv(t *testing.T) *env {
	cfg := config.Default()
	cfg.DataDir = t.TempDir()
	e := newEnv(cfg)
	t.Cleanup(e.Close)
	return e
}

func TestPluginDir(t *testing.T) {
	e := testEnv(t)
	e.cfg.Server.PluginDir = "/opt/drishti/plugins"
	assert.Equal(t, "/opt/drishti/plugins", pluginDir(e))
}

func TestEnv_StoreIsShared(t *testing.T) {
	e := testEnv(t)

	st, err := e.Store()
	require.NoError(t, err)
	again, err := e.Store()
	require.NoError(t, err)
	assert.Same(t, st, again)
	assert.FileExists(t, filepath.Join(e.cfg.DataDir, "drishti.db"))
}

func TestEnv_DetectorConfig(t *testing.T) {
	e := testEnv(t)
	e.cfg.Detector.MaxHands = 1
	e.cfg.Detector.ObjectronModel = "Shoe"
	e.cfg.Detector.MinConfidence = 0

	dc := e.detectorConfig(detector.SolutionObjectron)
	assert.Equal(t, detector.SolutionObjectron, dc.Solution)
	assert.Equal(t, 1, dc.MaxHands)
	assert.Equal(t, "Shoe", dc.ObjectronModel)
	assert.Equal(t, detector.DefaultConfig().MinConfidence, dc.MinConfidence)
}

func TestLoadConfig_MissingFile(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "none.yaml"))
	require.NoError(t, err)
	assert.Equal(t, config.Default().Server.Addr, cfg.Server.Addr)
}

func TestExecute_ClosesStoreOnError(t *testing.T) {
	e := testEnv(t)
	boom := errors.New("boom")

	var opened interface{ Ping() error }
	c := command{name: "fail", run: func(_ context.Context, e *env, _ []string) error {
		st, err := e.Store()
		require.NoError(t, err)
		opened = st.DB()
		return boom
	}}

	err := execute(context.Background(), c, e, nil)
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, e.store)
	require.NotNil(t, opened)
	assert.Error(t, opened.Ping(), "database is closed")

	assert.NotPanics(t, e.Close)
}

func TestWordLine_ConfidenceAsPercent(t *testing.T) {
	line := wordLine(ocr.Region{Text: "hello", Confidence: 0.93, Bounds: ocr.Bounds{X1: 1, Y1: 2, X2: 30, Y2: 12}})
	assert.Contains(t, line, " 93.0%")
	assert.Contains(t, line, "(1,2)-(30,12)")
}
