// Package chatbot answers questions from a small knowledge base by
// embedding the question and returning the answer of the most similar
// known question.
package chatbot

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"strings"
	"sync"
	"unicode"

	"github.com/cespare/xxhash/v2"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

// DefaultDimensions is the HashEmbedder vector size.
const DefaultDimensions = 512

// Embedder maps text to a vector.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float64, error)
}

// Tokenize lowercases text and splits it into letter and digit runs.
func Tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// HashEmbedder embeds text with the hashing trick over unigrams and
// bigrams. Vectors are L2 normalised, so identical token sequences have a
// cosine of exactly 1.
type HashEmbedder struct {
	Dim int
}

// NewHashEmbedder creates an embedder with dim dimensions.
func NewHashEmbedder(dim int) *HashEmbedder {
	if dim <= 0 {
		dim = DefaultDimensions
	}
	return &HashEmbedder{Dim: dim}
}

// Embed never fails; an empty text yields the zero vector.
func (h *HashEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	vec := make([]float64, h.Dim)
	tokens := Tokenize(text)
	for i, tok := range tokens {
		h.add(vec, tok)
		if i > 0 {
			h.add(vec, tokens[i-1]+" "+tok)
		}
	}
	if n := floats.Norm(vec, 2); n > 0 {
		floats.Scale(1/n, vec)
	}
	return vec, nil
}

func (h *HashEmbedder) add(vec []float64, feature string) {
	sum := xxhash.Sum64String(feature)
	sign := 1.0
	if sum>>63 == 1 {
		sign = -1
	}
	vec[sum%uint64(h.Dim)] += sign
}

// MockEmbedder returns fixed vectors for known texts.
type MockEmbedder struct {
	Vectors map[string][]float64
	Default []float64
	Err     error

	mu    sync.Mutex
	calls int
}

// Embed looks text up in Vectors, falling back to Default.
func (m *MockEmbedder) Embed(_ context.Context, text string) ([]float64, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	if v, ok := m.Vectors[text]; ok {
		return v, nil
	}
	return m.Default, nil
}

// Calls returns how many times Embed ran.
func (m *MockEmbedder) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// ServiceEmbedder runs a sentence embedding helper (BERT, mean pooled over
// the last hidden layer) as a child process. Each request is one JSON line
// {"text": ...} on stdin, answered by one line {"vector": [...]} or
// {"error": "..."} on stdout. The helper starts on first use.
type ServiceEmbedder struct {
	python string
	script string

	mu     sync.Mutex
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout *bufio.Reader
}

// NewServiceEmbedder creates an embedder for the helper script. An empty
// python means python3.
func NewServiceEmbedder(python, script string) (*ServiceEmbedder, error) {
	if script == "" {
		return nil, errors.New("chatbot: no embedding script configured")
	}
	if _, err := os.Stat(script); err != nil {
		return nil, fmt.Errorf("chatbot: embedding script: %w", err)
	}
	if python == "" {
		python = "python3"
	}
	return &ServiceEmbedder{python: python, script: script}, nil
}

type embedRequest struct {
	Text string `json:"text"`
}

type embedResponse struct {
	Vector []float64 `json:"vector"`
	Error  string    `json:"error"`
}

// Embed sends text to the helper and waits for its vector.
func (s *ServiceEmbedder) Embed(ctx context.Context, text string) ([]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.ensureStarted(); err != nil {
		return nil, err
	}

	line, err := json.Marshal(embedRequest{Text: text})
	if err != nil {
		return nil, err
	}
	if _, err := s.stdin.Write(append(line, '\n')); err != nil {
		s.kill()
		return nil, fmt.Errorf("write request: %w", err)
	}

	reply, err := s.stdout.ReadBytes('\n')
	if err != nil {
		s.kill()
		return nil, fmt.Errorf("read response: %w", err)
	}

	var resp embedResponse
	if err := json.Unmarshal(reply, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if resp.Error != "" {
		return nil, fmt.Errorf("embedding service: %s", resp.Error)
	}
	return resp.Vector, nil
}

func (s *ServiceEmbedder) ensureStarted() error {
	if s.cmd != nil {
		return nil
	}
	cmd := exec.Command(s.python, s.script)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("create stdin pipe: %w", err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("create stdout pipe: %w", err)
	}
	cmd.Stderr = os.Stderr
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start embedding service: %w", err)
	}

	s.cmd = cmd
	s.stdin = stdin
	s.stdout = bufio.NewReader(stdout)
	zap.L().Info("embedding service started", zap.Int("pid", cmd.Process.Pid))
	return nil
}

// kill drops a helper that broke the protocol; the next call starts a new one.
func (s *ServiceEmbedder) kill() {
	if s.cmd != nil && s.cmd.Process != nil {
		_ = s.cmd.Process.Kill()
	}
	_ = s.stop()
}

func (s *ServiceEmbedder) stop() error {
	if s.cmd == nil {
		return nil
	}
	s.stdin.Close()
	err := s.cmd.Wait()
	s.cmd, s.stdin, s.stdout = nil, nil, nil
	return err
}

// Close stops the helper.
func (s *ServiceEmbedder) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stop()
}

// NewEmbedder returns a ServiceEmbedder when a helper script is configured
// and usable, and a HashEmbedder otherwise.
func NewEmbedder(python, script string, dim int) Embedder {
	if script != "" {
		svc, err := NewServiceEmbedder(python, script)
		if err == nil {
			return svc
		}
		zap.L().Warn("embedding service unavailable, using hashed embeddings", zap.Error(err))
	}
	return NewHashEmbedder(dim)
}
