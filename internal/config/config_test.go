package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, 0.6, cfg.Swipe.Alpha)
	assert.Equal(t, 500*time.Millisecond, cfg.Swipe.Cooldown)
	assert.Equal(t, 64, cfg.Swipe.TrailLength)
	assert.Equal(t, 0.55, cfg.Chatbot.Threshold)
	assert.Len(t, cfg.Segment.Ranges["red"], 2)
	assert.Equal(t, "127.0.0.1:8080", cfg.Server.Addr, "listens on loopback only")
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Swipe, cfg.Swipe)
}

func TestLoad_OverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "drishti.yaml")
	doc := `
camera:
  device: 2
swipe:
  cooldown: 750ms
  threshold_x: 0.08
assistant:
  hotword: jarvis
chatbot:
  knowledge_base:
    - question: what is go
      answer: A programming language.
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 2, cfg.Camera.Device)
	assert.Equal(t, 640, cfg.Camera.Width, "untouched keys keep defaults")
	assert.Equal(t, 750*time.Millisecond, cfg.Swipe.Cooldown)
	assert.Equal(t, 0.08, cfg.Swipe.ThresholdX)
	assert.Equal(t, 0.05, cfg.Swipe.ThresholdY)
	assert.Equal(t, "jarvis", cfg.Assistant.Hotword)
	require.Len(t, cfg.Chatbot.KnowledgeBase, 1)
	assert.Equal(t, "what is go", cfg.Chatbot.KnowledgeBase[0].Question)
}

func TestDecode_RejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"alpha out of range", "swipe:\n  alpha: 1.5\n"},
		{"bad palette colour", "painter:\n  palette:\n    - name: x\n      color: nothex\n      min_x: 0\n      max_x: 10\n"},
		{"inverted palette band", "painter:\n  palette:\n    - name: x\n      color: \"#ffffff\"\n      min_x: 10\n      max_x: 5\n"},
		{"empty range list", "segment:\n  ranges:\n    teal: []\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Decode(strings.NewReader(tt.doc), Default())
			assert.Error(t, err)
		})
	}
}

func TestDecode_EmptyDocument(t *testing.T) {
	cfg := Default()
	require.NoError(t, Decode(strings.NewReader(""), cfg))
}

func TestColor_RGBA(t *testing.T) {
	got, err := Color("#ff00ff").RGBA()
	require.NoError(t, err)
	assert.Equal(t, color.RGBA{R: 255, G: 0, B: 255, A: 255}, got)

	_, err = Color("purple").RGBA()
	assert.Error(t, err)
}
