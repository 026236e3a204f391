// Package plugin discovers and runs external side-effect plugins. A plugin
// is a directory holding a plugin.json manifest and an executable that reads
// one Request as JSON on stdin and answers one Response on stdout.
package plugin

import "encoding/json"

// ManifestFile is the manifest file name inside a plugin directory.
const ManifestFile = "plugin.json"

// Manifest describes a plugin's metadata and capabilities. Manifests may
// contain comments and trailing commas.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	Events       []string        `json:"events,omitempty"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// HasAction reports whether the manifest declares action.
func (m Manifest) HasAction(action string) bool {
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Request is sent to a plugin for one action.
type Request struct {
	Action  string          `json:"action"`
	Event   string          `json:"event"`
	Subject string          `json:"subject,omitempty"`
	Text    string          `json:"text,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is what a plugin writes back.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin with its manifest and location.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
