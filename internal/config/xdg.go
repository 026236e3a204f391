// Package config loads the TOML configuration file and resolves it against
// built-in defaults.
package config

import (
	"os"
	"path/filepath"
)

// AppName is the directory name used under the XDG roots.
const AppName = "focusguard"

// XDGConfigHome returns the XDG config home or a default fallback.
func XDGConfigHome() string {
	if v := os.Getenv("XDG_CONFIG_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".config")
}

// XDGDataHome returns the XDG data home or a default fallback.
func XDGDataHome() string {
	if v := os.Getenv("XDG_DATA_HOME"); v != "" {
		return v
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return "."
	}
	return filepath.Join(home, ".local", "share")
}

// DefaultConfigPath returns the default TOML config path.
func DefaultConfigPath() string {
	return filepath.Join(XDGConfigHome(), AppName, "config.toml")
}

// DefaultDBPath returns the default path for the SQLite database.
func DefaultDBPath() string {
	return filepath.Join(XDGDataHome(), AppName, "focusguard.db")
}

// DefaultPluginDir returns the default plugin directory.
func DefaultPluginDir() string {
	return filepath.Join(XDGDataHome(), AppName, "plugins")
}

// DefaultDrawingsDir returns where saved air-writing images go.
func DefaultDrawingsDir() string {
	return filepath.Join(XDGDataHome(), AppName, "drawings")
}

// DefaultFaceModelPath returns the default YuNet model location.
func DefaultFaceModelPath() string {
	return filepath.Join(XDGDataHome(), AppName, "models", "face_detection_yunet_2023mar.onnx")
}
