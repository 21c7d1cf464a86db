package assistant

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/store"
)

type recordingOpener struct {
	mu   sync.Mutex
	urls []string
	err  error
}

func (o *recordingOpener) Open(_ context.Context, u string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.urls = append(o.urls, u)
	return o.err
}

func TestMatchCommand(t *testing.T) {
	tests := []struct {
		text    string
		intent  Intent
		payload string
	}{
		{"", IntentNone, ""},
		{"Alexa", IntentNone, ""},
		{"Alexa, play Despacito!", IntentPlay, "play despacito"},
		{"alexa search golang generics", IntentSearch, "search golang generics"},
		{"Python Wikipedia", IntentWikipedia, "python wikipedia"},
		{"what time is it?", IntentTime, "what time is it"},
		{"open GitHub", IntentOpen, "open github"},
		{"sing me a song", IntentNone, "sing me a song"},
		// The hotword only goes as a whole word.
		{"alexandra play jazz", IntentNone, "alexandra play jazz"},
		// Prefix intents are checked before keyword intents.
		{"search time zones", IntentSearch, "search time zones"},
		{"open time magazine", IntentTime, "open time magazine"},
	}
	for _, tt := range tests {
		t.Run(tt.text, func(t *testing.T) {
			intent, payload := MatchCommand(tt.text, "alexa")
			assert.Equal(t, tt.intent, intent)
			assert.Equal(t, tt.payload, payload)
		})
	}
}

func TestIntentString(t *testing.T) {
	assert.Equal(t, "none", IntentNone.String())
	assert.Equal(t, "play", IntentPlay.String())
}

func TestFirstSentences(t *testing.T) {
	text := "Go is a language. It was designed at Google! Is it fast? Yes."
	assert.Equal(t, "Go is a language. It was designed at Google!", FirstSentences(text, 2))
	assert.Equal(t, "Go is a language.", FirstSentences(text, 1))
	assert.Equal(t, text, FirstSentences(text, 10))
	assert.Equal(t, "Version 1.21 shipped.", FirstSentences("Version 1.21 shipped. Then more.", 1))
	assert.Equal(t, "", FirstSentences(text, 0))
}

func newCommands(t *testing.T, wiki *Wiki) (*Commands, *LogSpeaker, *recordingOpener) {
	t.Helper()
	sp := &LogSpeaker{}
	op := &recordingOpener{}
	return &Commands{
		Speaker: sp,
		Opener:  op,
		Wiki:    wiki,
		Now:     func() time.Time { return time.Date(2024, 1, 2, 15, 4, 0, 0, time.Local) },
	}, sp, op
}

func TestCommands(t *testing.T) {
	ctx := context.Background()

	t.Run("play", func(t *testing.T) {
		c, sp, op := newCommands(t, nil)
		assert.Equal(t, "playing:despacito", c.Play(ctx, "play despacito"))
		assert.Equal(t, []string{"https://www.youtube.com/results?search_query=despacito"}, op.urls)
		assert.Equal(t, []string{"Playing despacito on YouTube"}, sp.Spoken())

		assert.Equal(t, ResultNoQuery, c.Play(ctx, "play"))
	})

	t.Run("play failure", func(t *testing.T) {
		c, sp, op := newCommands(t, nil)
		op.err = fmt.Errorf("no browser")
		assert.Equal(t, "error:no browser", c.Play(ctx, "play jazz"))
		assert.Contains(t, sp.Spoken(), "Sorry, I couldn't play that.")
	})

	t.Run("search", func(t *testing.T) {
		c, sp, op := newCommands(t, nil)
		assert.Equal(t, "search:go generics", c.Search(ctx, "search go generics"))
		assert.Equal(t, []string{"https://www.google.com/search?q=go+generics"}, op.urls)
		assert.Equal(t, []string{"Here are the search results for go generics"}, sp.Spoken())

		assert.Equal(t, ResultNoQuery, c.Search(ctx, "search"))
	})

	t.Run("time", func(t *testing.T) {
		c, sp, _ := newCommands(t, nil)
		assert.Equal(t, "03:04 PM", c.Time(ctx, "what time is it"))
		assert.Equal(t, []string{"The current time is 03:04 PM"}, sp.Spoken())
	})

	t.Run("open", func(t *testing.T) {
		c, _, op := newCommands(t, nil)
		assert.Equal(t, "open:youtube", c.Open(ctx, "open youtube"))
		assert.Equal(t, "open:example.org", c.Open(ctx, "please open example.org"))
		assert.Equal(t, []string{"https://www.youtube.com", "https://example.org"}, op.urls)

		assert.Equal(t, ResultNoQuery, c.Open(ctx, "open"))
	})

	t.Run("unknown", func(t *testing.T) {
		c, sp, _ := newCommands(t, nil)
		assert.Equal(t, ResultNoAction, c.Run(ctx, IntentNone, "dance"))
		require.Len(t, sp.Spoken(), 1)
		assert.True(t, strings.HasPrefix(sp.Spoken()[0], "Sorry"))
	})
}

func wikiServer(t *testing.T, failures int32) (*httptest.Server, *atomic.Int32) {
	t.Helper()
	calls := new(atomic.Int32)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= failures {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		if !strings.EqualFold(r.URL.Path, "/Alan_Turing") {
			w.WriteHeader(http.StatusNotFound)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"title":"Alan Turing","extract":"Alan Turing was a mathematician. He was also a computer scientist. He was born in London."}`)
	}))
	t.Cleanup(srv.Close)
	return srv, calls
}

func TestWiki_Summary(t *testing.T) {
	srv, calls := wikiServer(t, 1)
	w := NewWiki(srv.URL+"/", 2, time.Second, time.Millisecond)

	got, err := w.Summary(context.Background(), "alan turing")
	require.NoError(t, err)
	assert.Equal(t, "Alan Turing was a mathematician. He was also a computer scientist.", got)
	assert.Equal(t, int32(2), calls.Load())

	_, err = w.Summary(context.Background(), "no such page")
	assert.ErrorIs(t, err, ErrTopicNotFound)
}

func TestCommands_Wikipedia(t *testing.T) {
	srv, _ := wikiServer(t, 0)
	c, sp, _ := newCommands(t, NewWiki(srv.URL, 1, time.Second, time.Millisecond))
	ctx := context.Background()

	assert.Equal(t, "Alan Turing was a mathematician.", c.Wikipedia(ctx, "alan turing wikipedia"))
	assert.Equal(t, []string{"Alan Turing was a mathematician."}, sp.Spoken())

	res := c.Wikipedia(ctx, "wikipedia unknown topic")
	assert.True(t, strings.HasPrefix(res, "error:"))

	assert.Equal(t, ResultNoQuery, c.Wikipedia(ctx, "wikipedia"))
}

func newTestAssistant(t *testing.T, input string) (*Assistant, *LogSpeaker, *recordingOpener, *store.Store) {
	t.Helper()
	s, err := store.New(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	sp := &LogSpeaker{}
	op := &recordingOpener{}
	a := New(config.AssistantConfig{Hotword: "alexa", RetryBackoff: time.Millisecond}, Options{
		Recognizer: NewLineRecognizer(strings.NewReader(input)),
		Speaker:    sp,
		Opener:     op,
		History:    s.AssistantHistory(),
	})
	return a, sp, op, s
}

func TestAssistant_Handle(t *testing.T) {
	a, _, op, s := newTestAssistant(t, "")

	out := a.Handle(context.Background(), "alexa open github")
	assert.Equal(t, IntentOpen, out.Intent)
	assert.Equal(t, "open:github", out.Result)
	assert.Equal(t, []string{"https://github.com"}, op.urls)

	hist, err := s.AssistantHistory().Recent(10)
	require.NoError(t, err)
	require.Len(t, hist, 1)
	assert.Equal(t, "alexa open github", hist[0].Heard)
	assert.Equal(t, "open", hist[0].Intent)
}

func TestAssistant_RunUntilEOF(t *testing.T) {
	a, sp, op, s := newTestAssistant(t, "alexa search cats\n\nalexa open youtube\n")

	require.NoError(t, a.Run(context.Background()))

	spoken := sp.Spoken()
	require.NotEmpty(t, spoken)
	assert.Contains(t, spoken[0], "Say 'alexa'")
	assert.Equal(t, []string{"https://www.google.com/search?q=cats", "https://www.youtube.com"}, op.urls)

	hist, err := s.AssistantHistory().Recent(10)
	require.NoError(t, err)
	require.Len(t, hist, 2)
	// Newest first.
	assert.Equal(t, "open:youtube", hist[0].Result)
}

func TestAssistant_RunStopsOnCancel(t *testing.T) {
	a, _, _, _ := newTestAssistant(t, "")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.NoError(t, a.Run(ctx))
}

func TestWorker_ListenOnce(t *testing.T) {
	a, _, _, _ := newTestAssistant(t, "alexa what time is it\n")
	w := NewWorker(a, time.Millisecond)

	require.NoError(t, w.Listen(false))
	require.Eventually(t, func() bool { return w.Status().State == StateIdle }, 2*time.Second, 5*time.Millisecond)

	st := w.Status()
	assert.Equal(t, StateIdle, st.State)
	require.NotNil(t, st.Last)
	assert.Equal(t, IntentTime, st.Last.Intent)
	assert.Equal(t, "Recognized: alexa what time is it", st.Message)
}

type blockingRecognizer struct{}

func (blockingRecognizer) Listen(ctx context.Context) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

func TestWorker_BusyAndStop(t *testing.T) {
	a := New(config.AssistantConfig{}, Options{
		Recognizer: blockingRecognizer{},
		Speaker:    &LogSpeaker{},
		Opener:     &recordingOpener{},
	})
	w := NewWorker(a, time.Millisecond)

	require.NoError(t, w.Listen(true))
	assert.ErrorIs(t, w.Listen(false), ErrBusy)
	assert.Equal(t, StateListening, w.Status().State)
	assert.True(t, w.Status().Continuous)

	w.Stop()
	st := w.Status()
	assert.Equal(t, StateIdle, st.State)
	assert.Equal(t, "Stopped.", st.Message)

	// Stopping an idle worker is a no-op.
	w.Stop()
}
