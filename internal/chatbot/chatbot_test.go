package chatbot

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/store"
)

func TestCosine(t *testing.T) {
	assert.InDelta(t, 1.0, Cosine([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	assert.InDelta(t, 0.0, Cosine([]float64{1, 0}, []float64{0, 1}), 1e-12)
	assert.InDelta(t, -1.0, Cosine([]float64{1, 0}, []float64{-3, 0}), 1e-12)
	assert.Zero(t, Cosine([]float64{0, 0}, []float64{1, 1}))
	assert.Zero(t, Cosine([]float64{1}, []float64{1, 1}))
	assert.Zero(t, Cosine(nil, nil))
}

func TestTokenize(t *testing.T) {
	assert.Equal(t, []string{"what", "is", "bert"}, Tokenize("What is BERT?"))
	assert.Empty(t, Tokenize("  ?! "))
}

func TestHashEmbedder(t *testing.T) {
	h := NewHashEmbedder(0)
	assert.Equal(t, DefaultDimensions, h.Dim)
	ctx := context.Background()

	a, err := h.Embed(ctx, "What is BERT?")
	require.NoError(t, err)
	b, err := h.Embed(ctx, "what is bert")
	require.NoError(t, err)
	assert.Len(t, a, DefaultDimensions)
	assert.InDelta(t, 1.0, Cosine(a, b), 1e-9)

	c, err := h.Embed(ctx, "tell me a joke please")
	require.NoError(t, err)
	d, err := h.Embed(ctx, "tell me a joke")
	require.NoError(t, err)
	assert.Greater(t, Cosine(c, d), 0.8)

	empty, err := h.Embed(ctx, "")
	require.NoError(t, err)
	assert.Zero(t, Cosine(empty, a))
}

func testConfig() config.ChatbotConfig {
	return config.ChatbotConfig{
		Threshold: 0.55,
		Fallback:  "fallback",
		KnowledgeBase: []config.QA{
			{Question: "what is your name", Answer: "I am a chatbot!"},
			{Question: "tell me a joke", Answer: "Too many bugs!"},
		},
	}
}

func TestBot_MockEmbedder(t *testing.T) {
	m := &MockEmbedder{
		Vectors: map[string][]float64{
			"what is your name":  {1, 0, 0},
			"tell me a joke":     {0, 1, 0},
			"who are you":        {0.9, 0.1, 0},
			"something halfway?": {1, 1, 0},
		},
		Default: []float64{0, 0, 1},
	}
	bot, err := New(context.Background(), m, testConfig(), nil)
	require.NoError(t, err)
	assert.Equal(t, 2, m.Calls())
	assert.Equal(t, []string{"what is your name", "tell me a joke"}, bot.Questions())

	reply, err := bot.Respond(context.Background(), "who are you")
	require.NoError(t, err)
	assert.Equal(t, "I am a chatbot!", reply.Answer)
	assert.Equal(t, "what is your name", reply.Matched)
	assert.False(t, reply.Fallback)

	// Cosine of about 0.707 to both entries clears 0.55.
	reply, err = bot.Respond(context.Background(), "something halfway?")
	require.NoError(t, err)
	assert.False(t, reply.Fallback)

	reply, err = bot.Respond(context.Background(), "unrelated")
	require.NoError(t, err)
	assert.Equal(t, "fallback", reply.Answer)
	assert.True(t, reply.Fallback)
	assert.Zero(t, reply.Score)
}

func TestBot_ThresholdIsExclusive(t *testing.T) {
	cfg := testConfig()
	cfg.Threshold = 1
	m := &MockEmbedder{Vectors: map[string][]float64{
		"what is your name": {1, 0},
		"tell me a joke":    {0, 1},
	}, Default: []float64{1, 0}}

	bot, err := New(context.Background(), m, cfg, nil)
	require.NoError(t, err)
	reply, err := bot.Respond(context.Background(), "what is your name")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
}

func TestBot_Errors(t *testing.T) {
	_, err := New(context.Background(), &MockEmbedder{}, config.ChatbotConfig{}, nil)
	assert.ErrorIs(t, err, ErrNoKnowledge)

	boom := errors.New("boom")
	_, err = New(context.Background(), &MockEmbedder{Err: boom}, testConfig(), nil)
	assert.ErrorIs(t, err, boom)

	bot, err := New(context.Background(), &MockEmbedder{Default: []float64{1}}, testConfig(), nil)
	require.NoError(t, err)
	_, err = bot.Respond(context.Background(), "   ")
	assert.ErrorIs(t, err, ErrEmptyQuestion)
}

func TestBot_HashEmbedderWithDefaults(t *testing.T) {
	bot, err := New(context.Background(), NewHashEmbedder(512), config.Default().Chatbot, nil)
	require.NoError(t, err)

	reply, err := bot.Respond(context.Background(), "What is BERT?")
	require.NoError(t, err)
	assert.Equal(t, "what is bert", reply.Matched)
	assert.Contains(t, reply.Answer, "Transformer")

	reply, err = bot.Respond(context.Background(), "zebra umbrella xylophone")
	require.NoError(t, err)
	assert.True(t, reply.Fallback)
	assert.Equal(t, DefaultFallback, reply.Answer)
}

func TestBot_History(t *testing.T) {
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	defer s.Close()

	bot, err := New(context.Background(), NewHashEmbedder(256), testConfig(), s.ChatHistory())
	require.NoError(t, err)

	_, err = bot.Respond(context.Background(), "tell me a joke")
	require.NoError(t, err)
	_, err = bot.Respond(context.Background(), "quantum chromodynamics")
	require.NoError(t, err)

	hist, err := bot.History(10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	assert.Equal(t, "tell me a joke", hist[0].Question)
	assert.Equal(t, "tell me a joke", hist[0].Matched)
	assert.Equal(t, "fallback", hist[1].Answer)
	assert.Empty(t, hist[1].Matched)

	require.NoError(t, bot.ClearHistory())
	hist, err = bot.History(10)
	require.NoError(t, err)
	assert.Empty(t, hist)
}

func TestServiceEmbedder(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("needs a POSIX shell")
	}
	script := filepath.Join(t.TempDir(), "embed.sh")
	body := `while read line; do
  case "$line" in
    *fail*) echo '{"error":"model failed"}' ;;
    *) echo '{"vector":[0.5,0.5,0]}' ;;
  esac
done
`
	require.NoError(t, os.WriteFile(script, []byte(body), 0o755))

	svc, err := NewServiceEmbedder("/bin/sh", script)
	require.NoError(t, err)
	defer svc.Close()

	v, err := svc.Embed(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5, 0.5, 0}, v)

	_, err = svc.Embed(context.Background(), "please fail")
	assert.ErrorContains(t, err, "model failed")

	// The helper survives an error reply.
	v, err = svc.Embed(context.Background(), "again")
	require.NoError(t, err)
	assert.Len(t, v, 3)
}

func TestNewEmbedder_FallsBackToHash(t *testing.T) {
	e := NewEmbedder("", "", 64)
	h, ok := e.(*HashEmbedder)
	require.True(t, ok)
	assert.Equal(t, 64, h.Dim)

	e = NewEmbedder("", "/missing/embed.py", 32)
	_, ok = e.(*HashEmbedder)
	assert.True(t, ok)

	_, err := NewServiceEmbedder("", "")
	assert.Error(t, err)
}
