package assistant

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrBusy is returned when a listen is requested while one is running.
var ErrBusy = errors.New("assistant: already listening")

// Worker states.
const (
	StateIdle      = "idle"
	StateListening = "listening"
)

// Status is a snapshot of the background worker.
type Status struct {
	State      string   `json:"state"`
	Continuous bool     `json:"continuous"`
	Last       *Outcome `json:"last,omitempty"`
	Message    string   `json:"message,omitempty"`
}

// Worker runs blocking listens in the background so an HTTP handler can
// start one and poll for the outcome.
type Worker struct {
	a     *Assistant
	pause time.Duration

	mu         sync.Mutex
	state      string
	continuous bool
	cancel     context.CancelFunc
	done       chan struct{}
	last       *Outcome
	message    string
}

// NewWorker creates a worker for a. pause separates continuous listens.
func NewWorker(a *Assistant, pause time.Duration) *Worker {
	if pause <= 0 {
		pause = time.Second
	}
	return &Worker{a: a, pause: pause, state: StateIdle}
}

// Status returns the current state and the last outcome.
func (w *Worker) Status() Status {
	w.mu.Lock()
	defer w.mu.Unlock()
	st := Status{State: w.state, Continuous: w.continuous, Message: w.message}
	if w.last != nil {
		last := *w.last
		st.Last = &last
	}
	return st
}

// Listen starts a background listen. With continuous set it keeps
// listening until Stop. Only one listen runs at a time.
func (w *Worker) Listen(continuous bool) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.state != StateIdle {
		return ErrBusy
	}

	ctx, cancel := context.WithCancel(context.Background())
	w.state = StateListening
	w.continuous = continuous
	w.cancel = cancel
	w.done = make(chan struct{})
	w.message = "Adjusting & listening..."

	go w.loop(ctx, continuous, w.done)
	return nil
}

// Stop ends a running listen and waits for the worker to go idle.
func (w *Worker) Stop() {
	w.mu.Lock()
	cancel, done := w.cancel, w.done
	w.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (w *Worker) loop(ctx context.Context, continuous bool, done chan struct{}) {
	defer func() {
		w.mu.Lock()
		w.state = StateIdle
		w.continuous = false
		w.cancel = nil
		w.mu.Unlock()
		close(done)
	}()

	for {
		out, err := w.a.ListenOnce(ctx)
		stop := false
		w.mu.Lock()
		switch {
		case err == nil:
			w.last = &out
			w.message = "Recognized: " + out.Heard
		case errors.Is(err, ErrNoSpeech):
			w.message = "No speech recognized (timeout or unclear)."
		case ctx.Err() != nil:
			w.message = "Stopped."
		default:
			w.message = "Listening stopped: " + err.Error()
			stop = true
			zap.L().Warn("background listen", zap.Error(err))
		}
		w.mu.Unlock()

		if stop || !continuous || ctx.Err() != nil {
			return
		}
		select {
		case <-ctx.Done():
			return
		case <-time.After(w.pause):
		}
	}
}
