package plugin

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"go.uber.org/zap"
)

// waitDelay bounds how long output pipes are drained after a kill.
const waitDelay = time.Second

// ErrTimeout is returned when a plugin outlives the executor timeout.
var ErrTimeout = errors.New("plugin execution timeout")

// Executor runs plugin executables, one process per request.
type Executor struct {
	timeout time.Duration
}

// NewExecutor creates an executor that kills plugins after timeoutMs.
func NewExecutor(timeoutMs int) *Executor {
	return &Executor{timeout: time.Duration(timeoutMs) * time.Millisecond}
}

// Execute runs plugin with req under a background context.
func (e *Executor) Execute(plugin *Plugin, req *Request) (*Response, error) {
	return e.ExecuteContext(context.Background(), plugin, req)
}

// ExecuteContext writes req as JSON to the plugin's stdin and decodes its
// stdout as a Response. The executor timeout applies on top of parent.
func (e *Executor) ExecuteContext(parent context.Context, plugin *Plugin, req *Request) (*Response, error) {
	payload, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	ctx, cancel := context.WithTimeout(parent, e.timeout)
	defer cancel()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, plugin.Executable)
	cmd.Dir = plugin.Path
	cmd.Stdin = bytes.NewReader(payload)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	cmd.WaitDelay = waitDelay

	start := time.Now()
	err = cmd.Run()
	log := zap.L().With(
		zap.String("plugin", plugin.Manifest.Name),
		zap.String("action", req.Action),
		zap.Duration("took", time.Since(start)))

	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		log.Warn("plugin timed out")
		return nil, fmt.Errorf("%w after %s", ErrTimeout, e.timeout)
	}
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("plugin execution failed: %w: %s", err, msg)
		}
		return nil, fmt.Errorf("plugin execution failed: %w", err)
	}

	var resp Response
	if err := json.Unmarshal(stdout.Bytes(), &resp); err != nil {
		return nil, fmt.Errorf("parse plugin response %q: %w", stdout.String(), err)
	}
	log.Debug("plugin executed", zap.Bool("success", resp.Success))
	return &resp, nil
}
