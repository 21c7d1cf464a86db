// Package main is the system control plugin: volume, brightness and media
// keys. macOS goes through AppleScript; Linux through pactl, brightnessctl
// and playerctl.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Request represents the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params"`
}

// Response represents the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// command is one argv.
type command []string

// darwinCommands drive System Events. Key codes 144/145 are brightness,
// 98/100/101 the previous/play-pause/next media keys.
var darwinCommands = map[string]command{
	"volume-up":        osa(`set volume output volume ((output volume of (get volume settings)) + 10)`),
	"volume-down":      osa(`set volume output volume ((output volume of (get volume settings)) - 10)`),
	"volume-mute":      osa(`set volume output muted (not (output muted of (get volume settings)))`),
	"brightness-up":    osa(`tell application "System Events" to key code 144`),
	"brightness-down":  osa(`tell application "System Events" to key code 145`),
	"media-play-pause": osa(`tell application "System Events" to key code 100`),
	"media-next":       osa(`tell application "System Events" to key code 101`),
	"media-prev":       osa(`tell application "System Events" to key code 98`),
}

var linuxCommands = map[string]command{
	"volume-up":        {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "+10%"},
	"volume-down":      {"pactl", "set-sink-volume", "@DEFAULT_SINK@", "-10%"},
	"volume-mute":      {"pactl", "set-sink-mute", "@DEFAULT_SINK@", "toggle"},
	"brightness-up":    {"brightnessctl", "set", "+10%"},
	"brightness-down":  {"brightnessctl", "set", "10%-"},
	"media-play-pause": {"playerctl", "play-pause"},
	"media-next":       {"playerctl", "next"},
	"media-prev":       {"playerctl", "previous"},
}

func osa(script string) command {
	return command{"osascript", "-e", script}
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	cmd, err := lookup(runtime.GOOS, req.Action)
	if err == nil {
		err = run(cmd)
		if err != nil {
			err = fmt.Errorf("action %s failed: %w", req.Action, err)
		}
	}
	writeResponse(err)
}

// lookup returns the command for action on goos.
func lookup(goos, action string) (command, error) {
	var table map[string]command
	switch goos {
	case "darwin":
		table = darwinCommands
	case "linux":
		table = linuxCommands
	default:
		return nil, fmt.Errorf("unsupported platform %s", goos)
	}
	cmd, ok := table[action]
	if !ok {
		return nil, fmt.Errorf("unknown action: %s", action)
	}
	return cmd, nil
}

func run(cmd command) error {
	output, err := exec.Command(cmd[0], cmd[1:]...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}
