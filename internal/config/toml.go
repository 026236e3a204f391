package config

import (
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

// FileConfig represents the TOML configuration file. Every field is
// optional; nil means "use the default".
type FileConfig struct {
	Camera    CameraConfig             `toml:"camera"`
	Detector  DetectorConfig           `toml:"detector"`
	Monitor   MonitorConfig            `toml:"monitor"`
	Airwriter AirwriterConfig          `toml:"airwriter"`
	Server    ServerConfig             `toml:"server"`
	Plugins   PluginsConfig            `toml:"plugins"`
	Log       LogConfig                `toml:"log"`
	Subjects  map[string]SubjectConfig `toml:"subjects"`
}

// CameraConfig maps camera settings.
type CameraConfig struct {
	Device *int `toml:"device"`
	Width  *int `toml:"width"`
	Height *int `toml:"height"`
	FPS    *int `toml:"fps"`
}

// DetectorConfig maps face and hand detector settings.
type DetectorConfig struct {
	FaceModel      *string  `toml:"face-model"`
	FaceScore      *float64 `toml:"face-score"`
	HandScript     *string  `toml:"hand-script"`
	Python         *string  `toml:"python"`
	HandConfidence *float64 `toml:"hand-confidence"`
}

// MonitorConfig maps presence monitor settings.
type MonitorConfig struct {
	Subject *string `toml:"subject"`
	Phrases *string `toml:"phrases"`
}

// AirwriterConfig maps air-writing settings.
type AirwriterConfig struct {
	OutputDir *string `toml:"output-dir"`
	Width     *int    `toml:"width"`
	Height    *int    `toml:"height"`
	Mirror    *bool   `toml:"mirror"`
	Motion    *bool   `toml:"motion-gate"`
}

// ServerConfig maps HTTP server settings.
type ServerConfig struct {
	Addr      *string `toml:"addr"`
	StaticDir *string `toml:"static-dir"`
	DBPath    *string `toml:"db"`
}

// PluginsConfig maps plugin settings.
type PluginsConfig struct {
	Dir       *string `toml:"dir"`
	TimeoutMs *int    `toml:"timeout-ms"`
	Defaults  *bool   `toml:"default-hooks"`
}

// LogConfig maps logging settings.
type LogConfig struct {
	Level *string `toml:"level"`
}

// SubjectConfig overrides or adds one subject preset.
type SubjectConfig struct {
	DurationMins *int `toml:"duration-mins"`
	WarningSecs  *int `toml:"warning-secs"`
	AlarmSecs    *int `toml:"alarm-secs"`
}

// LoadConfig reads a TOML config from the given path. Missing file is not an error.
func LoadConfig(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, fmt.Errorf("config path is empty")
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, nil
		}
		return FileConfig{}, fmt.Errorf("failed to stat config: %w", err)
	}
	var cfg FileConfig
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return FileConfig{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return FileConfig{}, fmt.Errorf("unknown config key %q", undecoded[0].String())
	}
	return cfg, nil
}

// DefaultTemplate returns the commented config written by `focusguard config`.
func DefaultTemplate() string {
	return `# FocusGuard configuration. Uncomment to override a default.

[camera]
# device = 0
# width = 640
# height = 480
# fps = 10

[detector]
# face-model = "~/.local/share/focusguard/models/face_detection_yunet_2023mar.onnx"
# face-score = 0.5
# hand-script = "/path/to/hand_service.py"
# python = "python3"
# hand-confidence = 0.7

[monitor]
# subject = "Self Study"
# phrases = "standard"   # or "playful"

[airwriter]
# output-dir = "~/.local/share/focusguard/drawings"
# width = 1280
# height = 720
# mirror = true
# motion-gate = true

[server]
# addr = "127.0.0.1:3000"
# static-dir = ""
# db = "~/.local/share/focusguard/focusguard.db"

[plugins]
# dir = "~/.local/share/focusguard/plugins"
# timeout-ms = 5000
# default-hooks = true

[log]
# level = "info"

# Override a preset or add a subject:
# [subjects.Biology]
# duration-mins = 90
# warning-secs = 10
# alarm-secs = 30
`
}
