package plugin

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

// scriptPlugin writes a shell-script plugin into a temp dir.
func scriptPlugin(t *testing.T, script string, actions ...string) *Plugin {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("skipping test on Windows")
	}

	dir := t.TempDir()
	path := filepath.Join(dir, "test-plugin.sh")
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"+script), 0755); err != nil {
		t.Fatalf("failed to write script: %v", err)
	}
	if len(actions) == 0 {
		actions = []string{"speak"}
	}
	return &Plugin{
		Manifest: Manifest{
			Name:       "test-plugin",
			Version:    "1.0.0",
			Executable: "test-plugin.sh",
			Actions:    actions,
		},
		Path:       dir,
		Executable: path,
	}
}

func TestExecutor_Execute(t *testing.T) {
	plugin := scriptPlugin(t, `echo '{"success":true,"data":{"message":"hello world"}}'
`)

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action: "speak",
		Event:  "warning",
		Text:   "come back",
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if !response.Success {
		t.Errorf("expected success=true, got false")
	}

	var data map[string]any
	if err := json.Unmarshal(response.Data, &data); err != nil {
		t.Fatalf("failed to unmarshal response data: %v", err)
	}
	if data["message"] != "hello world" {
		t.Errorf("expected message 'hello world', got %v", data["message"])
	}
}

func TestExecutor_Execute_ReadsStdin(t *testing.T) {
	// Echo the request back as data so the test can inspect it.
	plugin := scriptPlugin(t, `input=$(cat)
printf '{"success":true,"data":%s}' "$input"
`)

	executor := NewExecutor(5 * time.Second)
	response, err := executor.Execute(context.Background(), plugin, &Request{
		Action:  "speak",
		Event:   "alarm",
		Subject: "Maths",
		Text:    "too long",
		Config:  json.RawMessage(`{"voice":"Alex"}`),
	})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}

	var echoed Request
	if err := json.Unmarshal(response.Data, &echoed); err != nil {
		t.Fatalf("failed to unmarshal echoed request: %v", err)
	}
	if echoed.Event != "alarm" || echoed.Subject != "Maths" || echoed.Text != "too long" {
		t.Errorf("echoed request = %+v", echoed)
	}
	if string(echoed.Config) != `{"voice":"Alex"}` {
		t.Errorf("echoed config = %s", echoed.Config)
	}
}

func TestExecutor_UnknownAction(t *testing.T) {
	plugin := scriptPlugin(t, `echo '{"success":true}'`)

	_, err := NewExecutor(time.Second).Execute(context.Background(), plugin, &Request{Action: "dance"})
	if !errors.Is(err, ErrUnknownAction) {
		t.Errorf("err = %v, want ErrUnknownAction", err)
	}
}

func TestExecutor_Timeout(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping timeout test in short mode")
	}
	plugin := scriptPlugin(t, `sleep 5
echo '{"success":true}'
`)

	start := time.Now()
	_, err := NewExecutor(100*time.Millisecond).Execute(context.Background(), plugin, &Request{Action: "speak"})
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if !strings.Contains(err.Error(), "timeout") {
		t.Errorf("expected timeout error, got: %v", err)
	}
	if elapsed := time.Since(start); elapsed > 4*time.Second {
		t.Errorf("Execute took %v, timeout not enforced", elapsed)
	}
}

func TestExecutor_ParentContextCancelled(t *testing.T) {
	plugin := scriptPlugin(t, `sleep 5`)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewExecutor(5*time.Second).Execute(ctx, plugin, &Request{Action: "speak"}); err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestExecutor_Execute_ErrorResponse(t *testing.T) {
	plugin := scriptPlugin(t, `echo '{"success":false,"error":"no speaker"}'`)

	response, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "speak"})
	if err != nil {
		t.Fatalf("Execute() failed: %v", err)
	}
	if response.Success {
		t.Error("expected success=false")
	}
	if response.Error != "no speaker" {
		t.Errorf("Error = %q, want 'no speaker'", response.Error)
	}
}

func TestExecutor_Execute_InvalidJSON(t *testing.T) {
	plugin := scriptPlugin(t, `echo 'not json'`)

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "speak"})
	if err == nil {
		t.Fatal("expected error for invalid JSON")
	}
	if !strings.Contains(err.Error(), "failed to parse plugin response") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestExecutor_Execute_NonZeroExit(t *testing.T) {
	plugin := scriptPlugin(t, `echo 'boom' >&2
exit 3
`)

	_, err := NewExecutor(5*time.Second).Execute(context.Background(), plugin, &Request{Action: "speak"})
	if err == nil {
		t.Fatal("expected error for non-zero exit")
	}
	if !strings.Contains(err.Error(), "boom") {
		t.Errorf("error should include stderr, got: %v", err)
	}
}

func TestNewExecutor(t *testing.T) {
	if got := NewExecutor(3 * time.Second).Timeout(); got != 3*time.Second {
		t.Errorf("Timeout() = %v, want 3s", got)
	}
}
