package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/assistant"
	"github.com/ayusman/drishti/internal/chatbot"
	"github.com/ayusman/drishti/internal/store"
)

// runAssistant listens for hotword commands until interrupted. Without a
// configured recogniser, or with -type, commands are read from stdin.
func runAssistant(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("assistant", flag.ExitOnError)
	typed := fs.Bool("type", false, "read commands from stdin instead of the microphone")
	hotword := fs.String("hotword", e.cfg.Assistant.Hotword, "word that prefixes every command")
	fs.Parse(args)

	cfg := e.cfg.Assistant
	cfg.Hotword = *hotword

	opts := assistant.Options{}
	if *typed || len(cfg.Recognizer) == 0 {
		opts.Recognizer = assistant.NewLineRecognizer(os.Stdin)
		fmt.Fprintf(os.Stderr, "Type commands starting with %q, Ctrl-D to quit.\n", cfg.Hotword)
	}
	if st, err := e.Store(); err == nil {
		opts.History = st.AssistantHistory()
	} else {
		zap.L().Warn("assistant history disabled", zap.Error(err))
	}

	return assistant.New(cfg, opts).Run(ctx)
}

// newBot builds the chatbot with its embedder. The returned func releases
// the embedding helper.
func newBot(ctx context.Context, e *env, history *store.ChatHistoryRepository) (*chatbot.Bot, func(), error) {
	c := e.cfg.Chatbot
	emb := chatbot.NewEmbedder(e.cfg.Detector.Python, c.Script, c.Dimensions)
	release := func() {
		if closer, ok := emb.(io.Closer); ok {
			if err := closer.Close(); err != nil {
				zap.L().Warn("close embedder", zap.Error(err))
			}
		}
	}
	bot, err := chatbot.New(ctx, emb, c, history)
	if err != nil {
		release()
		return nil, nil, fmt.Errorf("chatbot: %w", err)
	}
	return bot, release, nil
}

// runChat answers questions typed on stdin, or the question given as
// arguments.
func runChat(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	showScore := fs.Bool("score", false, "print the similarity score of each answer")
	fs.Parse(args)

	var history *store.ChatHistoryRepository
	if st, err := e.Store(); err == nil {
		history = st.ChatHistory()
	} else {
		zap.L().Warn("chat history disabled", zap.Error(err))
	}

	bot, release, err := newBot(ctx, e, history)
	if err != nil {
		return err
	}
	defer release()

	answer := func(q string) error {
		reply, err := bot.Respond(ctx, q)
		if errors.Is(err, chatbot.ErrEmptyQuestion) {
			return nil
		}
		if err != nil {
			return err
		}
		if *showScore {
			fmt.Printf("Bot: %s (%.2f)\n", reply.Answer, reply.Score)
		} else {
			fmt.Printf("Bot: %s\n", reply.Answer)
		}
		return nil
	}

	if fs.NArg() > 0 {
		return answer(strings.Join(fs.Args(), " "))
	}

	fmt.Println("Chatbot ready. Type 'exit' to quit.")
	fmt.Println("Try: " + strings.Join(bot.Questions(), " | "))
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("You: ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		q := strings.TrimSpace(scanner.Text())
		if strings.EqualFold(q, "exit") || strings.EqualFold(q, "quit") {
			return nil
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := answer(q); err != nil {
			zap.L().Warn("chat", zap.Error(err))
		}
	}
}
