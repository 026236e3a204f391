package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ayusman/focusguard/internal/airwriter"
	"github.com/ayusman/focusguard/internal/capture"
	"github.com/ayusman/focusguard/internal/detector"
	"github.com/ayusman/focusguard/internal/session"
)

// Settings is the fully resolved configuration.
type Settings struct {
	Camera capture.Config
	Hand   detector.Config
	Face   detector.FaceConfig

	Subject     string
	PhrasesName string
	Phrases     session.Phrases
	Subjects    *session.Subjects

	Airwriter  airwriter.Config
	MotionGate bool

	Addr      string
	StaticDir string
	DBPath    string

	PluginDir     string
	PluginTimeout time.Duration
	DefaultHooks  bool

	LogLevel string
}

// Default returns the built-in settings.
func Default() Settings {
	face := detector.DefaultFaceConfig()
	face.ModelPath = DefaultFaceModelPath()

	aw := airwriter.DefaultConfig()
	aw.OutputDir = DefaultDrawingsDir()

	return Settings{
		Camera:        capture.DefaultConfig(),
		Hand:          detector.DefaultConfig(),
		Face:          face,
		Subject:       session.DefaultSubject,
		PhrasesName:   "standard",
		Phrases:       session.StandardPhrases(),
		Subjects:      session.DefaultSubjects(),
		Airwriter:     aw,
		MotionGate:    true,
		Addr:          "127.0.0.1:3000",
		DBPath:        DefaultDBPath(),
		PluginDir:     DefaultPluginDir(),
		PluginTimeout: 5 * time.Second,
		DefaultHooks:  true,
		LogLevel:      "info",
	}
}

// Load reads path and resolves it against the defaults.
func Load(path string) (Settings, error) {
	fc, err := LoadConfig(path)
	if err != nil {
		return Settings{}, err
	}
	return Resolve(fc)
}

// Resolve applies fc on top of Default and validates the result.
func Resolve(fc FileConfig) (Settings, error) {
	s := Default()

	setInt(&s.Camera.Device, fc.Camera.Device)
	setInt(&s.Camera.Width, fc.Camera.Width)
	setInt(&s.Camera.Height, fc.Camera.Height)
	setInt(&s.Camera.FPS, fc.Camera.FPS)
	if s.Camera.Width <= 0 || s.Camera.Height <= 0 || s.Camera.FPS <= 0 {
		return Settings{}, fmt.Errorf("camera: width, height and fps must be positive")
	}
	s.Face.InputWidth, s.Face.InputHeight = s.Camera.Width, s.Camera.Height

	setPath(&s.Face.ModelPath, fc.Detector.FaceModel)
	setFloat(&s.Face.ScoreThreshold, fc.Detector.FaceScore)
	setPath(&s.Hand.ServiceScript, fc.Detector.HandScript)
	setString(&s.Hand.Python, fc.Detector.Python)
	setFloat(&s.Hand.MinConfidence, fc.Detector.HandConfidence)
	if !unit(s.Face.ScoreThreshold) || !unit(s.Hand.MinConfidence) {
		return Settings{}, fmt.Errorf("detector: thresholds must be within [0, 1]")
	}

	setString(&s.Subject, fc.Monitor.Subject)
	if fc.Monitor.Phrases != nil {
		p, ok := session.PhrasesByName(*fc.Monitor.Phrases)
		if !ok {
			return Settings{}, fmt.Errorf("monitor: unknown phrases preset %q (have %s)",
				*fc.Monitor.Phrases, strings.Join(session.PhrasePresetNames(), ", "))
		}
		s.PhrasesName, s.Phrases = *fc.Monitor.Phrases, p
	}

	subjects, err := session.NewSubjects(SubjectOverrides(fc.Subjects))
	if err != nil {
		return Settings{}, fmt.Errorf("subjects: %w", err)
	}
	s.Subjects = subjects

	setPath(&s.Airwriter.OutputDir, fc.Airwriter.OutputDir)
	setInt(&s.Airwriter.Width, fc.Airwriter.Width)
	setInt(&s.Airwriter.Height, fc.Airwriter.Height)
	setBool(&s.Airwriter.Mirror, fc.Airwriter.Mirror)
	setBool(&s.MotionGate, fc.Airwriter.Motion)
	if s.Airwriter.Width <= 0 || s.Airwriter.Height <= 0 {
		return Settings{}, fmt.Errorf("airwriter: canvas size must be positive")
	}

	setString(&s.Addr, fc.Server.Addr)
	setPath(&s.StaticDir, fc.Server.StaticDir)
	setPath(&s.DBPath, fc.Server.DBPath)

	setPath(&s.PluginDir, fc.Plugins.Dir)
	if fc.Plugins.TimeoutMs != nil {
		if *fc.Plugins.TimeoutMs <= 0 {
			return Settings{}, fmt.Errorf("plugins: timeout-ms must be positive")
		}
		s.PluginTimeout = time.Duration(*fc.Plugins.TimeoutMs) * time.Millisecond
	}
	setBool(&s.DefaultHooks, fc.Plugins.Defaults)

	setString(&s.LogLevel, fc.Log.Level)

	return s, nil
}

// SubjectOverrides converts [subjects.*] tables to session configs. Fields
// left out keep the value of the preset with the same name, or of the
// default subject for new names.
func SubjectOverrides(in map[string]SubjectConfig) map[string]session.SubjectConfig {
	if len(in) == 0 {
		return nil
	}
	presets := session.Presets()
	out := make(map[string]session.SubjectConfig, len(in))
	for name, sc := range in {
		base, ok := presets[name]
		if !ok {
			base = presets[session.DefaultSubject]
		}
		base.Name = name
		if sc.DurationMins != nil {
			base.DurationTarget = time.Duration(*sc.DurationMins) * time.Minute
		}
		if sc.WarningSecs != nil {
			base.WarningDelay = time.Duration(*sc.WarningSecs) * time.Second
		}
		if sc.AlarmSecs != nil {
			base.AlarmDelay = time.Duration(*sc.AlarmSecs) * time.Second
		}
		out[name] = base
	}
	return out
}

func setInt(target, value *int) {
	if value != nil {
		*target = *value
	}
}

func setFloat(target, value *float64) {
	if value != nil {
		*target = *value
	}
}

func setBool(target, value *bool) {
	if value != nil {
		*target = *value
	}
}

func setString(target, value *string) {
	if value != nil {
		*target = *value
	}
}

func setPath(target, value *string) {
	if value != nil {
		*target = ExpandHome(*value)
	}
}

func unit(v float64) bool {
	return v >= 0 && v <= 1
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
