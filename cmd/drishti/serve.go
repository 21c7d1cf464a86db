package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ayusman/drishti/internal/app"
	"github.com/ayusman/drishti/internal/assistant"
	"github.com/ayusman/drishti/internal/detector"
	"github.com/ayusman/drishti/internal/gesture"
	"github.com/ayusman/drishti/internal/ocr"
	"github.com/ayusman/drishti/internal/server"
	"github.com/ayusman/drishti/internal/tray"
)

// listenPause separates continuous background listens.
const listenPause = time.Second

// findDir returns the first existing directory among the candidates made
// absolute, or "".
func findDir(candidates ...string) string {
	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

// pluginDir prefers the configured directory, then ./plugins, then the
// data directory.
func pluginDir(e *env) string {
	if d := e.cfg.Server.PluginDir; d != "" {
		return d
	}
	if d := findDir("plugins", "../plugins"); d != "" {
		return d
	}
	return e.cfg.Path("plugins")
}

func webDir(e *env) string {
	if d := e.cfg.Server.StaticDir; d != "" {
		return d
	}
	return findDir("web", "../web", "../../web", e.cfg.Path("web"))
}

// browseURL turns a listen address into a URL a browser can open.
func browseURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr
}

// runServe runs the gesture pipeline and the HTTP server until interrupted.
func runServe(ctx context.Context, e *env, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	src := sourceFlags(fs, e.cfg)
	addr := fs.String("addr", e.cfg.Server.Addr, "listen address")
	withTray := fs.Bool("tray", false, "show the system tray menu")
	noChat := fs.Bool("no-chat", false, "do not load the chatbot")
	fs.Parse(args)

	st, err := e.Store()
	if err != nil {
		return err
	}

	sw := e.cfg.Swipe
	a := app.New(app.Config{
		Store:           st,
		PluginDir:       pluginDir(e),
		Camera:          src.camera(e.cfg),
		DetectorConfig:  e.detectorConfig(detector.SolutionHands),
		MotionThresh:    e.cfg.Server.MotionThreshold,
		PluginTimeoutMs: e.cfg.Server.PluginTimeoutMs,
		Swipe: gesture.SwipeOptions{
			Alpha:      sw.Alpha,
			ThresholdX: sw.ThresholdX,
			ThresholdY: sw.ThresholdY,
			Cooldown:   sw.Cooldown,
		},
		SwipePlugin: sw.Plugin,
	})
	if err := a.DiscoverPlugins(); err != nil {
		zap.L().Warn("plugin discovery", zap.Error(err))
	}
	if err := a.LoadGestures(); err != nil {
		return fmt.Errorf("load gestures: %w", err)
	}

	cfg := server.Config{
		StaticDir:    webDir(e),
		Store:        st,
		Camera:       a.Camera(),
		Detector:     a.Detector(),
		Pipeline:     a,
		MaxUploadMB:  e.cfg.OCR.MaxUploadMB,
		MaxDimension: e.cfg.OCR.MaxDimension,
	}

	engine := ocr.NewEngine(e.cfg.OCR)
	if path, err := engine.Check(); err != nil {
		zap.L().Warn("ocr disabled", zap.Error(err))
	} else {
		zap.L().Info("ocr enabled", zap.String("tesseract", path))
		cfg.OCR = engine
	}

	if !*noChat {
		bot, release, err := newBot(ctx, e, st.ChatHistory())
		if err != nil {
			zap.L().Warn("chatbot disabled", zap.Error(err))
		} else {
			defer release()
			cfg.Chat = bot
		}
	}

	asst := assistant.New(e.cfg.Assistant, assistant.Options{History: st.AssistantHistory()})
	cfg.Assistant = asst
	if len(e.cfg.Assistant.Recognizer) > 0 {
		worker := assistant.NewWorker(asst, listenPause)
		defer worker.Stop()
		cfg.Listener = worker
	}

	if cfg.StaticDir != "" {
		zap.L().Info("serving web ui", zap.String("dir", cfg.StaticDir))
	}
	srv := server.New(cfg)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return a.Run(gctx) })
	g.Go(func() error { return srv.ListenAndServe(gctx, *addr) })

	if *withTray {
		runTray(gctx, e, a, *addr, cancel)
	}
	return g.Wait()
}

// runTray shows the tray menu on the calling goroutine until ctx ends or
// the user picks Quit.
func runTray(ctx context.Context, e *env, a *app.App, addr string, cancel context.CancelFunc) {
	t := tray.New(a.IsEnabled())
	t.OnToggle(a.SetEnabled)
	t.OnQuit(cancel)

	opener := assistant.NewOpener(e.cfg.Assistant.OpenCommand)
	url := browseURL(addr)
	t.OnOpen(func() {
		if err := opener.Open(ctx, url); err != nil {
			zap.L().Warn("open web ui", zap.Error(err))
		}
	})
	a.OnGesture(func(ev app.Event) { t.SetLastGesture(ev.Name) })

	go func() {
		<-ctx.Done()
		t.Quit()
	}()
	t.Run()
}
