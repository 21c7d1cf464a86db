// Package main is the keyboard plugin. It presses named keys (the swipe
// arrows among them) and sends keystrokes or shortcuts. macOS uses
// AppleScript; Linux uses xdotool.
package main

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
	"unicode"
	"unicode/utf8"
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

// KeyParams names a key and optional modifiers.
type KeyParams struct {
	Key       string   `json:"key"`
	Modifiers []string `json:"modifiers"` // command, option, control, shift
}

// namedKey maps a key name to its macOS key code and xdotool keysym.
type namedKey struct {
	macCode int
	xdo     string
}

var namedKeys = map[string]namedKey{
	"left":     {123, "Left"},
	"right":    {124, "Right"},
	"down":     {125, "Down"},
	"up":       {126, "Up"},
	"space":    {49, "space"},
	"enter":    {36, "Return"},
	"return":   {36, "Return"},
	"escape":   {53, "Escape"},
	"pageup":   {116, "Prior"},
	"pagedown": {121, "Next"},
}

var appleModifiers = map[string]string{
	"command": "command down",
	"cmd":     "command down",
	"option":  "option down",
	"alt":     "option down",
	"control": "control down",
	"ctrl":    "control down",
	"shift":   "shift down",
}

var xdoModifiers = map[string]string{
	"command": "super",
	"cmd":     "super",
	"option":  "alt",
	"alt":     "alt",
	"control": "ctrl",
	"ctrl":    "ctrl",
	"shift":   "shift",
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeResponse(fmt.Errorf("failed to decode request: %w", err))
		return
	}

	p, err := params(req)
	if err != nil {
		writeResponse(err)
		return
	}

	switch req.Action {
	case "press", "keystroke", "shortcut":
		err = send(p)
	default:
		err = fmt.Errorf("unknown action: %s", req.Action)
	}
	if err != nil {
		err = fmt.Errorf("action %s failed: %w", req.Action, err)
	}
	writeResponse(err)
}

// params reads KeyParams from the request params, falling back to the
// binding config. Swipe gestures without either press the swipe direction.
func params(req Request) (KeyParams, error) {
	var p KeyParams
	for _, raw := range []json.RawMessage{req.Params, req.Config} {
		if len(raw) == 0 || string(raw) == "null" {
			continue
		}
		if err := json.Unmarshal(raw, &p); err != nil {
			return p, fmt.Errorf("failed to parse params: %w", err)
		}
		if p.Key != "" {
			return p, nil
		}
	}
	if dir, ok := strings.CutPrefix(req.Gesture, "swipe_"); ok {
		p.Key = dir
	}
	if p.Key == "" {
		return p, fmt.Errorf("key is required")
	}
	if err := checkKey(p.Key); err != nil {
		return p, err
	}
	return p, nil
}

// checkKey accepts a namedKeys entry or a single printable character other
// than a quote or backslash.
func checkKey(key string) error {
	if _, ok := namedKeys[strings.ToLower(key)]; ok {
		return nil
	}
	r, size := utf8.DecodeRuneInString(key)
	if size != len(key) || r == utf8.RuneError || !unicode.IsPrint(r) || r == '"' || r == '\\' {
		return fmt.Errorf("unsupported key %q", key)
	}
	return nil
}

func send(p KeyParams) error {
	switch runtime.GOOS {
	case "darwin":
		return run("osascript", "-e", appleScript(p))
	case "linux":
		return run("xdotool", "key", xdoChord(p))
	default:
		return fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

var appleEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// appleScript builds the System Events command for p.
func appleScript(p KeyParams) string {
	var mods []string
	for _, m := range p.Modifiers {
		if am, ok := appleModifiers[strings.ToLower(m)]; ok {
			mods = append(mods, am)
		}
	}

	stroke := fmt.Sprintf(`keystroke "%s"`, appleEscaper.Replace(p.Key))
	if k, ok := namedKeys[strings.ToLower(p.Key)]; ok {
		stroke = fmt.Sprintf("key code %d", k.macCode)
	}

	if len(mods) == 0 {
		return fmt.Sprintf(`tell application "System Events" to %s`, stroke)
	}
	return fmt.Sprintf(`tell application "System Events" to %s using {%s}`, stroke, strings.Join(mods, ", "))
}

// xdoChord builds an xdotool key chord such as "ctrl+shift+Left".
func xdoChord(p KeyParams) string {
	var parts []string
	for _, m := range p.Modifiers {
		if xm, ok := xdoModifiers[strings.ToLower(m)]; ok {
			parts = append(parts, xm)
		}
	}
	key := p.Key
	if k, ok := namedKeys[strings.ToLower(p.Key)]; ok {
		key = k.xdo
	}
	return strings.Join(append(parts, key), "+")
}

func writeResponse(err error) {
	resp := Response{Success: err == nil}
	if err != nil {
		resp.Error = err.Error()
	}
	json.NewEncoder(os.Stdout).Encode(resp)
}

func run(name string, args ...string) error {
	output, err := exec.Command(name, args...).CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}
