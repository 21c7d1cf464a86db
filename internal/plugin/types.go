// Package plugin discovers external action plugins and runs them. A plugin
// is a directory holding a plugin.json manifest and an executable that
// reads one JSON Request on stdin and writes one JSON Response on stdout.
package plugin

import "encoding/json"

// Manifest is the contents of plugin.json.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Request asks a plugin to run Action for Gesture. Config is the stored
// binding config; Params carries per-call arguments.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is what a plugin prints. A plugin that ran but could not act
// reports Success false with an Error rather than a non-zero exit.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string // plugin directory, used as the working directory
	Executable string // absolute or root-relative path to the binary
}
