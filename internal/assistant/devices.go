package assistant

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

// ErrNoSpeech means the recogniser heard nothing usable before its timeout.
var ErrNoSpeech = errors.New("assistant: no speech recognised")

// Speaker says text out loud.
type Speaker interface {
	Speak(ctx context.Context, text string) error
}

// Opener opens a URL in the user's browser.
type Opener interface {
	Open(ctx context.Context, url string) error
}

// Recognizer returns the next utterance, lowercased. It returns
// ErrNoSpeech when nothing was heard and io.EOF when no more input will
// arrive.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// CommandSpeaker runs a text to speech program with the text as its last
// argument.
type CommandSpeaker struct {
	Args []string
}

// Speak runs the program and waits for it to finish.
func (s *CommandSpeaker) Speak(ctx context.Context, text string) error {
	if len(s.Args) == 0 {
		return errors.New("assistant: no speech command")
	}
	args := append(append([]string{}, s.Args[1:]...), text)
	cmd := exec.CommandContext(ctx, s.Args[0], args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("speak: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	return nil
}

// LogSpeaker logs instead of speaking and remembers what it said.
type LogSpeaker struct {
	mu     sync.Mutex
	spoken []string
}

// Speak logs text.
func (s *LogSpeaker) Speak(_ context.Context, text string) error {
	zap.L().Info("assistant says", zap.String("text", text))
	s.mu.Lock()
	s.spoken = append(s.spoken, text)
	s.mu.Unlock()
	return nil
}

// Spoken returns everything said so far.
func (s *LogSpeaker) Spoken() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.spoken...)
}

// NewSpeaker returns a CommandSpeaker for args, or for the platform's
// speech program at rate words per minute. Without one it falls back to a
// LogSpeaker.
func NewSpeaker(args []string, rate int) Speaker {
	if len(args) > 0 {
		return &CommandSpeaker{Args: args}
	}
	if rate <= 0 {
		rate = 150
	}
	r := strconv.Itoa(rate)
	switch runtime.GOOS {
	case "darwin":
		if p, err := exec.LookPath("say"); err == nil {
			return &CommandSpeaker{Args: []string{p, "-r", r}}
		}
	default:
		for _, name := range []string{"espeak-ng", "espeak"} {
			if p, err := exec.LookPath(name); err == nil {
				return &CommandSpeaker{Args: []string{p, "-s", r}}
			}
		}
	}
	zap.L().Warn("no speech program found, logging replies instead")
	return &LogSpeaker{}
}

// CommandOpener opens URLs with a desktop helper program.
type CommandOpener struct {
	Args []string
}

// NewOpener returns an opener for args, or for the platform's default
// URL handler.
func NewOpener(args []string) *CommandOpener {
	if len(args) > 0 {
		return &CommandOpener{Args: args}
	}
	switch runtime.GOOS {
	case "darwin":
		return &CommandOpener{Args: []string{"open"}}
	case "windows":
		return &CommandOpener{Args: []string{"rundll32", "url.dll,FileProtocolHandler"}}
	default:
		return &CommandOpener{Args: []string{"xdg-open"}}
	}
}

// Open starts the helper without waiting for the browser to exit.
func (o *CommandOpener) Open(_ context.Context, url string) error {
	args := append(append([]string{}, o.Args[1:]...), url)
	cmd := exec.Command(o.Args[0], args...)
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("open %s: %w", url, err)
	}
	go cmd.Wait()
	return nil
}

// LineRecognizer reads typed commands, one per line.
type LineRecognizer struct {
	mu      sync.Mutex
	scanner *bufio.Scanner
}

// NewLineRecognizer reads from r.
func NewLineRecognizer(r io.Reader) *LineRecognizer {
	return &LineRecognizer{scanner: bufio.NewScanner(r)}
}

// Listen returns the next non-empty line. Blank lines give ErrNoSpeech.
func (l *LineRecognizer) Listen(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.scanner.Scan() {
		if err := l.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	line := strings.ToLower(strings.TrimSpace(l.scanner.Text()))
	if line == "" {
		return "", ErrNoSpeech
	}
	return line, nil
}

// CommandRecognizer runs an external speech to text program that records
// one phrase and prints the transcript on stdout.
type CommandRecognizer struct {
	Args    []string
	Timeout time.Duration
}

// Listen runs the program once. A timeout or an empty transcript is
// ErrNoSpeech.
func (c *CommandRecognizer) Listen(ctx context.Context) (string, error) {
	if len(c.Args) == 0 {
		return "", errors.New("assistant: no recogniser command")
	}
	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	cmd := exec.CommandContext(ctx, c.Args[0], c.Args[1:]...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		zap.L().Info("listening timed out")
		return "", ErrNoSpeech
	}
	if err != nil {
		return "", fmt.Errorf("recogniser: %w: %s", err, strings.TrimSpace(stderr.String()))
	}

	text := strings.ToLower(strings.TrimSpace(stdout.String()))
	if text == "" {
		return "", ErrNoSpeech
	}
	zap.L().Info("recognised", zap.String("text", text))
	return text, nil
}
