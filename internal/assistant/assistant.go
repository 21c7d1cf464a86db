package assistant

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/store"
)

// Outcome is one handled utterance.
type Outcome struct {
	Heard  string    `json:"heard"`
	Intent Intent    `json:"intent"`
	Result string    `json:"result"`
	At     time.Time `json:"at"`
}

// Options supply the assistant's devices. Nil fields get defaults built
// from the config.
type Options struct {
	Recognizer Recognizer
	Speaker    Speaker
	Opener     Opener
	Wiki       *Wiki
	History    *store.AssistantHistoryRepository
	Now        func() time.Time
}

// Assistant ties a recogniser, the commands and a speaker together.
type Assistant struct {
	cfg      config.AssistantConfig
	rec      Recognizer
	speaker  Speaker
	commands *Commands
	history  *store.AssistantHistoryRepository
}

// New creates an assistant.
func New(cfg config.AssistantConfig, opts Options) *Assistant {
	if cfg.Hotword == "" {
		cfg.Hotword = "alexa"
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = 200 * time.Millisecond
	}
	if opts.Speaker == nil {
		opts.Speaker = NewSpeaker(cfg.Speaker, cfg.VoiceRate)
	}
	if opts.Opener == nil {
		opts.Opener = NewOpener(cfg.OpenCommand)
	}
	if opts.Wiki == nil {
		opts.Wiki = NewWiki(cfg.WikipediaURL, cfg.WikiSentences, cfg.RequestTimeout, cfg.RetryBackoff)
	}
	if opts.Recognizer == nil && len(cfg.Recognizer) > 0 {
		opts.Recognizer = &CommandRecognizer{Args: cfg.Recognizer, Timeout: cfg.ListenTimeout + cfg.PhraseLimit}
	}
	return &Assistant{
		cfg:     cfg,
		rec:     opts.Recognizer,
		speaker: opts.Speaker,
		commands: &Commands{
			Speaker: opts.Speaker,
			Opener:  opts.Opener,
			Wiki:    opts.Wiki,
			Now:     opts.Now,
		},
		history: opts.History,
	}
}

// Hotword returns the word stripped from every utterance.
func (a *Assistant) Hotword() string {
	return a.cfg.Hotword
}

// Handle matches text to an intent, runs it and records the outcome.
func (a *Assistant) Handle(ctx context.Context, text string) Outcome {
	intent, payload := MatchCommand(text, a.cfg.Hotword)
	out := Outcome{Heard: text, Intent: intent, At: time.Now()}
	out.Result = a.commands.Run(ctx, intent, payload)

	zap.L().Info("assistant command",
		zap.String("heard", text),
		zap.String("intent", intent.String()),
		zap.String("result", out.Result))

	if a.history != nil {
		entry := &store.AssistantEntry{Heard: text, Intent: intent.String(), Result: out.Result}
		if err := a.history.Append(entry); err != nil {
			zap.L().Warn("record assistant history", zap.Error(err))
		}
	}
	return out
}

// ListenOnce waits for one utterance and handles it. It returns
// ErrNoSpeech when nothing was heard.
func (a *Assistant) ListenOnce(ctx context.Context) (Outcome, error) {
	if a.rec == nil {
		return Outcome{}, errors.New("assistant: no recogniser configured")
	}
	text, err := a.rec.Listen(ctx)
	if err != nil {
		return Outcome{}, err
	}
	return a.Handle(ctx, text), nil
}

// Run greets the user and handles utterances until ctx is done or the
// recogniser reports io.EOF.
func (a *Assistant) Run(ctx context.Context) error {
	greeting := fmt.Sprintf("Hello, I am your assistant. Say '%s' followed by a command to begin.", a.cfg.Hotword)
	if err := a.speaker.Speak(ctx, greeting); err != nil {
		zap.L().Warn("speak greeting", zap.Error(err))
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil
		}
		zap.L().Debug("awaiting command", zap.String("hotword", a.cfg.Hotword))

		_, err := a.ListenOnce(ctx)
		switch {
		case err == nil:
		case errors.Is(err, io.EOF):
			return nil
		case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
			return nil
		default:
			if !errors.Is(err, ErrNoSpeech) {
				zap.L().Warn("listen", zap.Error(err))
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(a.cfg.RetryBackoff):
			}
		}
	}
}
