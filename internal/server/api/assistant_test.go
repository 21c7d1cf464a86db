package api

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ayusman/drishti/internal/assistant"
	"github.com/ayusman/drishti/internal/store"
)

type fakeCommands struct {
	got []string
}

func (f *fakeCommands) Handle(_ context.Context, text string) assistant.Outcome {
	f.got = append(f.got, text)
	return assistant.Outcome{Heard: text, Intent: assistant.IntentTime, Result: "10:30 AM", At: time.Now()}
}

type fakeListener struct {
	listening  bool
	continuous bool
	stops      int
}

func (f *fakeListener) Listen(continuous bool) error {
	if f.listening {
		return assistant.ErrBusy
	}
	f.listening, f.continuous = true, continuous
	return nil
}

func (f *fakeListener) Stop() {
	f.stops++
	f.listening = false
}

func (f *fakeListener) Status() assistant.Status {
	st := assistant.Status{State: assistant.StateIdle, Continuous: f.continuous}
	if f.listening {
		st.State = assistant.StateListening
	}
	return st
}

func TestAssistantHandler_Command(t *testing.T) {
	cmds := &fakeCommands{}
	h := NewAssistantHandler(cmds, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/assistant/command", commandRequest{Text: "alexa what time is it"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var out assistant.Outcome
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	assert.Equal(t, "10:30 AM", out.Result)
	assert.Equal(t, []string{"alexa what time is it"}, cmds.got)

	rec = doJSON(t, h, http.MethodPost, "/api/assistant/command", commandRequest{})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/assistant/command", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestAssistantHandler_ListenStop(t *testing.T) {
	l := &fakeListener{}
	h := NewAssistantHandler(&fakeCommands{}, l, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/assistant/listen?continuous=true", nil)
	require.Equal(t, http.StatusAccepted, rec.Code)
	var st assistant.Status
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, assistant.StateListening, st.State)
	assert.True(t, st.Continuous)

	rec = doJSON(t, h, http.MethodPost, "/api/assistant/listen", nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(t, h, http.MethodPost, "/api/assistant/stop", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, l.stops)

	rec = doJSON(t, h, http.MethodGet, "/api/assistant/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&st))
	assert.Equal(t, assistant.StateIdle, st.State)
}

func TestAssistantHandler_NoMicrophone(t *testing.T) {
	h := NewAssistantHandler(&fakeCommands{}, nil, nil)

	rec := doJSON(t, h, http.MethodPost, "/api/assistant/listen", nil)
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	rec = doJSON(t, h, http.MethodGet, "/api/assistant/status", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), assistant.StateIdle)

	rec = doJSON(t, h, http.MethodGet, "/api/assistant/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"history":[]`)
}

func TestAssistantHandler_History(t *testing.T) {
	s := newTestStore(t)
	repo := s.AssistantHistory()
	require.NoError(t, repo.Append(&store.AssistantEntry{Heard: "play jazz", Intent: "play", Result: "playing:jazz"}))
	require.NoError(t, repo.Append(&store.AssistantEntry{Heard: "what time", Intent: "time", Result: "10:30 AM"}))

	h := NewAssistantHandler(&fakeCommands{}, nil, repo)
	rec := doJSON(t, h, http.MethodGet, "/api/assistant/history", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var out assistantHistoryResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out))
	require.Len(t, out.History, 2)
	assert.Equal(t, "what time", out.History[0].Heard)

	rec = doJSON(t, h, http.MethodGet, "/api/assistant/unknown", nil)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	rec = doJSON(t, h, http.MethodGet, "/api/assistant/a/b", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
