// Command drishti runs the camera demos, the OCR, assistant and chatbot
// tools, and the gesture server.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/ayusman/drishti/internal/config"
	"github.com/ayusman/drishti/internal/logging"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, env *env, args []string) error
}

var commands = []command{
	{"hands", "hand landmarks with FPS", runHands},
	{"face", "face mesh landmarks", runFace},
	{"pose", "body pose landmarks", runPose},
	{"holistic", "pose, face and hands together", runHolistic},
	{"facedetect", "face boxes with scores (-haar for the cascade)", runFaceDetect},
	{"objectron", "3D object boxes (-model Cup|Shoe|Chair|Camera)", runObjectron},
	{"trail", "index fingertip motion trail", runTrail},
	{"swipe", "swipe to press arrow keys through the keyboard plugin", runSwipe},
	{"cursor", "tapering wrist trail", paintCommand("cursor")},
	{"facedraw", "fingertip trail inside detected faces", paintCommand("facedraw")},
	{"painter", "draw with the index finger", paintCommand("basic")},
	{"airbrush", "painter with a colour toolbar and eraser", paintCommand("airbrush")},
	{"pinch", "draw while pinching", paintCommand("pinch")},
	{"colors", "HSV colour segmentation (keys r g b a o h)", runColors},
	{"posecolor", "recolour dark pixels while a body is tracked", runPoseColor},
	{"face3d", "face mesh scaled by a transform matrix", runFace3D},
	{"faceswap", "paste a captured face over the tracked one", runFaceSwap},
	{"player", "play a video file (space pauses, n steps)", runPlayer},
	{"ocr", "extract text from an image or the camera", runOCR},
	{"assistant", "hotword voice assistant", runAssistant},
	{"chat", "embedding chatbot", runChat},
	{"serve", "gesture server with web UI", runServe},
}

func main() {
	configPath := flag.String("config", "", "YAML config file (default ~/.drishti/config.yaml)")
	logLevel := flag.String("log-level", "", "log level: debug, info, warn, error")
	logFormat := flag.String("log-format", "", "log format: console or json")
	flag.Usage = printUsage
	flag.Parse()

	if flag.NArg() < 1 {
		printUsage()
		os.Exit(2)
	}

	name := flag.Arg(0)
	cmd, ok := lookup(name)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", name)
		printUsage()
		os.Exit(2)
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drishti: %v\n", err)
		os.Exit(1)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if *logFormat != "" {
		cfg.Log.Format = *logFormat
	}

	logger, flush, err := logging.New(cfg.Log.Level, cfg.Log.Format)
	if err != nil {
		fmt.Fprintf(os.Stderr, "drishti: %v\n", err)
		os.Exit(1)
	}
	defer flush()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := execute(ctx, cmd, newEnv(cfg), flag.Args()[1:]); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("command failed", zap.String("command", name), zap.Error(err))
		flush()
		stop()
		os.Exit(1)
	}
}

// execute runs c and releases e before returning, so the store is closed
// even when the caller exits on error.
func execute(ctx context.Context, c command, e *env, args []string) error {
	defer e.Close()
	return c.run(ctx, e, args)
}

func lookup(name string) (command, bool) {
	for _, c := range commands {
		if c.name == name {
			return c, true
		}
	}
	return command{}, false
}

func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = config.Default().Path("config.yaml")
	}
	return config.Load(path)
}

func printUsage() {
	fmt.Fprintln(os.Stderr, "drishti - camera, OCR, assistant and gesture tools")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: drishti [-config file] [-log-level lvl] [-log-format fmt] <command> [options]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", c.name, c.usage)
	}
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Camera windows: ESC or q quits, c clears, s saves.")
}
