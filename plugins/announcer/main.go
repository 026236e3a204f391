//go:build !windows

// Package main is the announcer plugin. It speaks text, posts desktop
// notifications and loops an alarm sound until told to stop.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"syscall"
)

// Request is the input from the plugin executor.
type Request struct {
	Action  string          `json:"action"`
	Event   string          `json:"event"`
	Subject string          `json:"subject,omitempty"`
	Text    string          `json:"text,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// Response is the output to the plugin executor.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// config is the per-hook configuration.
type config struct {
	Title string `json:"title"`
	Voice string `json:"voice"`
	Sound string `json:"sound"`
}

type actionHandler func(req Request, cfg config) error

var actionHandlers = map[string]actionHandler{
	"speak":       speak,
	"notify":      notify,
	"alarm-start": alarmStart,
	"alarm-stop":  alarmStop,
}

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	handler, ok := actionHandlers[req.Action]
	if !ok {
		writeErrorResponse(fmt.Sprintf("unknown action: %s", req.Action))
		return
	}

	cfg := config{Title: "FocusGuard"}
	if len(req.Config) > 0 {
		if err := json.Unmarshal(req.Config, &cfg); err != nil {
			writeErrorResponse(fmt.Sprintf("invalid config: %v", err))
			return
		}
	}

	if err := handler(req, cfg); err != nil {
		writeErrorResponse(fmt.Sprintf("action %s failed: %v", req.Action, err))
		return
	}
	writeSuccessResponse()
}

func writeErrorResponse(errMsg string) {
	json.NewEncoder(os.Stdout).Encode(Response{Success: false, Error: errMsg})
}

func writeSuccessResponse() {
	json.NewEncoder(os.Stdout).Encode(Response{Success: true})
}

func run(name string, args ...string) error {
	cmd := exec.Command(name, args...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("%w: %s", err, strings.TrimSpace(string(output)))
	}
	return nil
}

func speak(req Request, cfg config) error {
	if req.Text == "" {
		return nil
	}
	switch runtime.GOOS {
	case "darwin":
		args := []string{req.Text}
		if cfg.Voice != "" {
			args = append([]string{"-v", cfg.Voice}, args...)
		}
		return run("say", args...)
	default:
		if path, err := exec.LookPath("spd-say"); err == nil {
			return run(path, "--wait", req.Text)
		}
		return run("espeak", req.Text)
	}
}

func notify(req Request, cfg config) error {
	body := req.Text
	if body == "" {
		body = req.Event
	}
	switch runtime.GOOS {
	case "darwin":
		script := fmt.Sprintf("display notification %s with title %s", strconv.Quote(body), strconv.Quote(cfg.Title))
		return run("osascript", "-e", script)
	default:
		return run("notify-send", cfg.Title, body)
	}
}

// pidFile records the background alarm loop so alarm-stop can find it.
func pidFile() string {
	return filepath.Join(os.TempDir(), "focusguard-alarm.pid")
}

func alarmStart(_ Request, cfg config) error {
	if _, err := os.Stat(pidFile()); err == nil {
		return nil
	}

	var loop string
	switch runtime.GOOS {
	case "darwin":
		sound := cfg.Sound
		if sound == "" {
			sound = "/System/Library/Sounds/Sosumi.aiff"
		}
		loop = "while true; do afplay " + strconv.Quote(sound) + "; done"
	default:
		sound := cfg.Sound
		if sound == "" {
			sound = "/usr/share/sounds/freedesktop/stereo/alarm-clock-elapsed.oga"
		}
		loop = "while true; do paplay " + strconv.Quote(sound) + " || sleep 1; done"
	}

	cmd := exec.Command("sh", "-c", loop)
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	if err := cmd.Start(); err != nil {
		return err
	}
	return os.WriteFile(pidFile(), []byte(strconv.Itoa(cmd.Process.Pid)), 0o644)
}

func alarmStop(Request, config) error {
	data, err := os.ReadFile(pidFile())
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}
	defer os.Remove(pidFile())

	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return fmt.Errorf("corrupt pid file: %w", err)
	}
	// Negative pid signals the whole process group, player included.
	if err := syscall.Kill(-pid, syscall.SIGTERM); err != nil && !errors.Is(err, syscall.ESRCH) {
		return err
	}
	return nil
}
