package e2e

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/focusguard/internal/app"
	"github.com/ayusman/focusguard/internal/effects"
	"github.com/ayusman/focusguard/internal/plugin"
	"github.com/ayusman/focusguard/internal/server"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// installAnnouncer writes a stand-in announcer that appends every request
// it receives to requests.log in its own directory.
func installAnnouncer(t *testing.T, pluginDir string) string {
	t.Helper()
	dir := filepath.Join(pluginDir, "announcer")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	manifest := `{
		// Test double for the bundled announcer.
		"name": "announcer",
		"version": "0.0.1",
		"executable": "announcer.sh",
		"actions": ["speak", "notify", "alarm-start", "alarm-stop"]
	}`
	if err := os.WriteFile(filepath.Join(dir, plugin.ManifestFile), []byte(manifest), 0o644); err != nil {
		t.Fatal(err)
	}
	script := "#!/bin/sh\ncat >> requests.log\necho >> requests.log\necho '{\"success\":true}'\n"
	if err := os.WriteFile(filepath.Join(dir, "announcer.sh"), []byte(script), 0o755); err != nil {
		t.Fatal(err)
	}
	return filepath.Join(dir, "requests.log")
}

func readRequests(t *testing.T, path string) []plugin.Request {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("no plugin requests logged: %v", err)
	}
	defer f.Close()

	var reqs []plugin.Request
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		var r plugin.Request
		if err := json.Unmarshal([]byte(line), &r); err != nil {
			t.Fatalf("bad request line %q: %v", line, err)
		}
		reqs = append(reqs, r)
	}
	return reqs
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func TestE2E_MonitoredSession(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("plugin test double is a shell script")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	pluginDir := filepath.Join(tmpDir, "plugins")
	requestLog := installAnnouncer(t, pluginDir)
	mgr := plugin.NewManager(pluginDir)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	dispatcher := effects.NewDispatcher(s.Hooks(), mgr, plugin.NewExecutor(5*time.Second), effects.DefaultBindings())
	dispatcher.Start(context.Background())

	hub := server.NewHub()
	ts := httptest.NewServer(server.New(server.Config{Store: s, Plugins: mgr, Hub: hub}))
	defer ts.Close()
	client := ts.Client()

	start := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)
	clk := &clock{now: start}
	subject := session.DefaultSubjects().Lookup("SQL")
	monitor := app.NewMonitor(app.MonitorConfig{
		Subject:   subject,
		Sink:      dispatcher.Sink(subject.Name),
		Recorder:  s,
		Settings:  s.Settings(),
		Effects:   dispatcher,
		Publisher: hub,
		Now:       clk.Now,
	}, nil, nil)
	hub.SetControl(monitor)

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(ts.URL, "http")+"/api/live", nil)
	if err != nil {
		t.Fatalf("dial live feed: %v", err)
	}
	defer conn.Close()
	waitFor(t, func() bool { return hub.Clients() == 1 })

	t.Run("Health", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/health")
		if err != nil {
			t.Fatalf("GET /api/health error = %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusOK)
		}
	})

	t.Run("PauseFromLiveFeed", func(t *testing.T) {
		conn.WriteJSON(map[string]string{"type": "pause"})
		waitFor(t, monitor.Paused)
		conn.WriteJSON(map[string]string{"type": "resume"})
		waitFor(t, func() bool { return !monitor.Paused() })
	})

	t.Run("AwayLongEnoughForAlarm", func(t *testing.T) {
		steps := []struct {
			at      time.Duration
			present bool
		}{
			{5 * time.Minute, true},
			{5*time.Minute + time.Second, false},
			{5*time.Minute + 20*time.Second, false},
			{5*time.Minute + 50*time.Second, false},
			{6 * time.Minute, true},
			{20 * time.Minute, true},
		}
		for _, st := range steps {
			clk.Set(start.Add(st.at))
			if err := monitor.Ingest(st.present, clk.Now()); err != nil {
				t.Fatalf("Ingest() error = %v", err)
			}
		}
	})

	var rec *session.Record
	t.Run("FinishSavesAndCelebrates", func(t *testing.T) {
		rec, err = monitor.Finish(context.Background())
		if err != nil {
			t.Fatalf("Finish() error = %v", err)
		}
		if rec.ID == "" || rec.AbsencesCount != 1 || !rec.Celebrate() {
			t.Fatalf("record = %+v", rec)
		}
	})

	dispatcher.Close()

	t.Run("PluginReceivedEffects", func(t *testing.T) {
		var actions []string
		for _, r := range readRequests(t, requestLog) {
			actions = append(actions, r.Event+"/"+r.Action)
			if r.Subject != "SQL" {
				t.Errorf("request subject = %q", r.Subject)
			}
		}
		want := []string{
			"warning/speak",
			"alarm_start/alarm-start",
			"alarm/speak",
			"alarm_stop/alarm-stop",
			"recovered/speak",
			"celebrate/notify",
		}
		if strings.Join(actions, ",") != strings.Join(want, ",") {
			t.Errorf("plugin actions = %v, want %v", actions, want)
		}
	})

	t.Run("SessionVisibleOverAPI", func(t *testing.T) {
		resp, err := client.Get(ts.URL + "/api/sessions")
		if err != nil {
			t.Fatalf("GET /api/sessions error = %v", err)
		}
		defer resp.Body.Close()
		var listed struct {
			Sessions []session.Record `json:"sessions"`
		}
		json.NewDecoder(resp.Body).Decode(&listed)
		if len(listed.Sessions) != 1 || listed.Sessions[0].ID != rec.ID {
			t.Fatalf("sessions = %+v", listed.Sessions)
		}
		if listed.Sessions[0].Grade != session.GradeExcellent {
			t.Errorf("grade = %q", listed.Sessions[0].Grade)
		}

		resp, err = client.Get(ts.URL + "/api/stats")
		if err != nil {
			t.Fatalf("GET /api/stats error = %v", err)
		}
		defer resp.Body.Close()
		var stats store.Stats
		json.NewDecoder(resp.Body).Decode(&stats)
		if stats.Sessions != 1 || stats.Hearts != 10 {
			t.Errorf("stats = %+v", stats)
		}
	})

	t.Run("LiveFeedSawTheSession", func(t *testing.T) {
		deadline := time.Now().Add(2 * time.Second)
		conn.SetReadDeadline(deadline)
		seen := map[string]bool{}
		for !seen[server.TypeSession] {
			var msg server.Message
			if err := conn.ReadJSON(&msg); err != nil {
				t.Fatalf("live feed ended before the session message: %v (seen %v)", err, seen)
			}
			seen[msg.Type] = true
		}
		for _, typ := range []string{server.TypeSnapshot, server.TypeTransition, server.TypePaused} {
			if !seen[typ] {
				t.Errorf("live feed never sent %q", typ)
			}
		}
	})
}

func TestE2E_StoredHookOverridesDefault(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping e2e test")
	}
	if runtime.GOOS == "windows" {
		t.Skip("plugin test double is a shell script")
	}

	tmpDir := t.TempDir()
	s, err := store.New(filepath.Join(tmpDir, "data.db"))
	if err != nil {
		t.Fatalf("store.New() error = %v", err)
	}
	defer s.Close()

	pluginDir := filepath.Join(tmpDir, "plugins")
	requestLog := installAnnouncer(t, pluginDir)
	mgr := plugin.NewManager(pluginDir)
	if err := mgr.Discover(); err != nil {
		t.Fatalf("Discover() error = %v", err)
	}

	dispatcher := effects.NewDispatcher(s.Hooks(), mgr, plugin.NewExecutor(5*time.Second), effects.DefaultBindings())
	dispatcher.Start(context.Background())

	ts := httptest.NewServer(server.New(server.Config{
		Store:   s,
		Plugins: mgr,
		OnSessionSaved: func(r *session.Record) {
			dispatcher.Emit(effects.Effect{Event: effects.EventSessionSaved, Subject: r.Subject})
		},
	}))
	defer ts.Close()
	client := ts.Client()

	post := func(path, body string) *http.Response {
		t.Helper()
		resp, err := client.Post(ts.URL+path, "application/json", strings.NewReader(body))
		if err != nil {
			t.Fatalf("POST %s error = %v", path, err)
		}
		resp.Body.Close()
		return resp
	}

	if resp := post("/api/hooks", `{"event":"session_saved","plugin_name":"announcer","action_name":"notify","config":{"title":"FocusGuard"}}`); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create hook status = %d", resp.StatusCode)
	}
	if resp := post("/api/hooks", `{"event":"session_saved","plugin_name":"announcer","action_name":"dance"}`); resp.StatusCode != http.StatusBadRequest {
		t.Errorf("undeclared action status = %d, want %d", resp.StatusCode, http.StatusBadRequest)
	}

	record := `{"subject":"Physics","start_time":"2026-03-14T09:00:00Z","end_time":"2026-03-14T09:30:00Z",` +
		`"duration_mins":30,"present_mins":27,"absent_mins":3,"focus_percentage":90}`
	if resp := post("/api/sessions", record); resp.StatusCode != http.StatusCreated {
		t.Fatalf("create session status = %d", resp.StatusCode)
	}

	dispatcher.Close()

	reqs := readRequests(t, requestLog)
	if len(reqs) != 1 {
		t.Fatalf("plugin requests = %+v, want exactly the stored hook", reqs)
	}
	got := reqs[0]
	if got.Event != "session_saved" || got.Action != "notify" || got.Subject != "Physics" {
		t.Errorf("request = %+v", got)
	}
	var cfg map[string]string
	if err := json.Unmarshal(got.Config, &cfg); err != nil || cfg["title"] != "FocusGuard" {
		t.Errorf("request config = %s", got.Config)
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(5 * time.Millisecond)
	}
}
