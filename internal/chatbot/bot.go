package chatbot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/store"
)

// Defaults used when the config leaves them unset.
const (
	DefaultThreshold = 0.55
	DefaultFallback  = "I'm not sure I understand that. Try rephrasing!"
)

var (
	// ErrEmptyQuestion is returned for a blank question.
	ErrEmptyQuestion = errors.New("chatbot: empty question")
	// ErrNoKnowledge is returned when the knowledge base is empty.
	ErrNoKnowledge = errors.New("chatbot: empty knowledge base")
)

// Cosine returns the cosine similarity of a and b, or 0 when either is a
// zero vector or their lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	na, nb := floats.Norm(a, 2), floats.Norm(b, 2)
	if na == 0 || nb == 0 {
		return 0
	}
	return floats.Dot(a, b) / (na * nb)
}

// Reply is the bot's answer to one question.
type Reply struct {
	Answer   string  `json:"answer"`
	Score    float64 `json:"score"`
	Matched  string  `json:"matched,omitempty"`
	Fallback bool    `json:"fallback"`
}

// Bot matches questions against a knowledge base.
type Bot struct {
	embedder  Embedder
	kb        []config.QA
	vectors   [][]float64
	threshold float64
	fallback  string
	history   *store.ChatHistoryRepository
}

// New embeds every knowledge base question up front. history may be nil.
func New(ctx context.Context, embedder Embedder, cfg config.ChatbotConfig, history *store.ChatHistoryRepository) (*Bot, error) {
	if len(cfg.KnowledgeBase) == 0 {
		return nil, ErrNoKnowledge
	}
	if cfg.Threshold == 0 {
		cfg.Threshold = DefaultThreshold
	}
	if cfg.Fallback == "" {
		cfg.Fallback = DefaultFallback
	}

	start := time.Now()
	vectors := make([][]float64, len(cfg.KnowledgeBase))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, qa := range cfg.KnowledgeBase {
		i, qa := i, qa
		g.Go(func() error {
			v, err := embedder.Embed(gctx, qa.Question)
			if err != nil {
				return fmt.Errorf("embed %q: %w", qa.Question, err)
			}
			vectors[i] = v
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	zap.L().Info("knowledge base embedded",
		zap.Int("questions", len(cfg.KnowledgeBase)),
		zap.Duration("took", time.Since(start)))

	return &Bot{
		embedder:  embedder,
		kb:        cfg.KnowledgeBase,
		vectors:   vectors,
		threshold: cfg.Threshold,
		fallback:  cfg.Fallback,
		history:   history,
	}, nil
}

// Questions returns the known questions, usable as suggestions.
func (b *Bot) Questions() []string {
	out := make([]string, len(b.kb))
	for i, qa := range b.kb {
		out[i] = qa.Question
	}
	return out
}

// Respond answers question with the best matching entry when its
// similarity is above the threshold, and with the fallback text otherwise.
func (b *Bot) Respond(ctx context.Context, question string) (Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return Reply{}, ErrEmptyQuestion
	}

	v, err := b.embedder.Embed(ctx, question)
	if err != nil {
		return Reply{}, fmt.Errorf("embed question: %w", err)
	}

	best, score := -1, 0.0
	for i, kv := range b.vectors {
		if s := Cosine(v, kv); best < 0 || s > score {
			best, score = i, s
		}
	}

	reply := Reply{Score: score, Matched: b.kb[best].Question}
	if score > b.threshold {
		reply.Answer = b.kb[best].Answer
	} else {
		reply.Answer = b.fallback
		reply.Fallback = true
	}

	zap.L().Debug("chat reply",
		zap.String("question", question),
		zap.String("matched", reply.Matched),
		zap.Float64("score", score),
		zap.Bool("fallback", reply.Fallback))

	if b.history != nil {
		entry := &store.ChatEntry{Question: question, Answer: reply.Answer, Score: score}
		if !reply.Fallback {
			entry.Matched = reply.Matched
		}
		if err := b.history.Append(entry); err != nil {
			zap.L().Warn("record chat history", zap.Error(err))
		}
	}
	return reply, nil
}

// History returns up to limit past exchanges, oldest first.
func (b *Bot) History(limit int) ([]store.ChatEntry, error) {
	if b.history == nil {
		return nil, nil
	}
	return b.history.Recent(limit)
}

// ClearHistory forgets every past exchange.
func (b *Bot) ClearHistory() error {
	if b.history == nil {
		return nil
	}
	return b.history.Clear()
}
