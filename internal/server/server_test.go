package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/ayusman/focusguard/internal/store"
)

func getHealth(t *testing.T, s *Server) map[string]any {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, "/api/health", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/json" {
		t.Errorf("expected Content-Type application/json, got %s", ct)
	}
	var response map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	return response
}

func TestServer_Health(t *testing.T) {
	t.Run("bare server is ok", func(t *testing.T) {
		response := getHealth(t, New(Config{}))
		if response["status"] != "ok" {
			t.Errorf("expected status 'ok', got %v", response["status"])
		}
		if _, exists := response["uptime"]; !exists {
			t.Error("expected 'uptime' field in response")
		}
		if _, exists := response["live_clients"]; exists {
			t.Error("live_clients reported without a hub")
		}
	})

	t.Run("reports live clients", func(t *testing.T) {
		response := getHealth(t, New(Config{Hub: NewHub()}))
		if response["live_clients"] != float64(0) {
			t.Errorf("live_clients = %v, want 0", response["live_clients"])
		}
	})

	t.Run("closed database is degraded", func(t *testing.T) {
		st, err := store.New(filepath.Join(t.TempDir(), "health.db"))
		if err != nil {
			t.Fatalf("store.New() error = %v", err)
		}
		st.Close()

		response := getHealth(t, New(Config{Store: st}))
		if response["status"] != "degraded" {
			t.Errorf("expected status 'degraded', got %v", response["status"])
		}
		if response["database"] == nil {
			t.Error("expected the database error in the response")
		}
	})

	t.Run("only allows GET method", func(t *testing.T) {
		s := New(Config{})
		for _, method := range []string{http.MethodPost, http.MethodPut, http.MethodDelete} {
			req := httptest.NewRequest(method, "/api/health", nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != http.StatusMethodNotAllowed {
				t.Errorf("method %s: expected status %d, got %d", method, http.StatusMethodNotAllowed, rec.Code)
			}
		}
	})
}

func TestServer_Dashboard(t *testing.T) {
	dir := t.TempDir()
	index := "<html><body>FocusGuard</body></html>"
	script := "fetch('/api/stats')"
	if err := os.WriteFile(filepath.Join(dir, "index.html"), []byte(index), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "dashboard.js"), []byte(script), 0o644); err != nil {
		t.Fatal(err)
	}

	s := New(Config{StaticDir: dir})
	tests := []struct {
		path string
		code int
		body string
	}{
		{"/", http.StatusOK, index},
		{"/dashboard.js", http.StatusOK, script},
		{"/missing.html", http.StatusNotFound, ""},
		{"/api/nonexistent", http.StatusNotFound, ""},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			rec := httptest.NewRecorder()
			s.ServeHTTP(rec, req)

			if rec.Code != tt.code {
				t.Errorf("expected status %d, got %d", tt.code, rec.Code)
			}
			if tt.body != "" && rec.Body.String() != tt.body {
				t.Errorf("expected body %q, got %q", tt.body, rec.Body.String())
			}
		})
	}
}

func TestServer_NoDashboard(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected status %d, got %d", http.StatusNotFound, rec.Code)
	}
}

func TestServer_Subjects(t *testing.T) {
	s := New(Config{})

	req := httptest.NewRequest(http.MethodGet, "/api/subjects", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected status %d, got %d", http.StatusOK, rec.Code)
	}

	var response struct {
		Subjects []struct {
			Name          string  `json:"name"`
			WarningDelayS float64 `json:"warning_delay_secs"`
			AlarmDelayS   float64 `json:"alarm_delay_secs"`
		} `json:"subjects"`
		Default string `json:"default"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Default != "Self Study" {
		t.Errorf("default = %q, want Self Study", response.Default)
	}
	if len(response.Subjects) != 5 {
		t.Fatalf("expected 5 subjects, got %d", len(response.Subjects))
	}
	for _, sub := range response.Subjects {
		if sub.Name == "SQL" && (sub.WarningDelayS != 15 || sub.AlarmDelayS != 45) {
			t.Errorf("SQL delays = %v/%v, want 15/45", sub.WarningDelayS, sub.AlarmDelayS)
		}
	}
}

func TestServer_StoreRoutesNeedStore(t *testing.T) {
	s := New(Config{})

	for _, path := range []string{"/api/sessions", "/api/stats", "/api/hooks", "/api/live", "/api/canvas"} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Errorf("%s: expected status %d without collaborators, got %d", path, http.StatusNotFound, rec.Code)
		}
	}
}

func TestNew(t *testing.T) {
	t.Run("creates server with config", func(t *testing.T) {
		cfg := Config{StaticDir: "/some/path"}
		s := New(cfg)

		if s == nil {
			t.Fatal("expected non-nil server")
		}

		if s.config.StaticDir != cfg.StaticDir {
			t.Errorf("expected StaticDir %s, got %s", cfg.StaticDir, s.config.StaticDir)
		}
	})

	t.Run("server implements http.Handler", func(t *testing.T) {
		s := New(Config{})
		var _ http.Handler = s
	})
}
