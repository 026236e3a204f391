// Package server provides the HTTP API, live websocket feed and dashboard
// file server.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/plugin"
	"github.com/ayusman/focusguard/internal/server/api"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// Config holds the server configuration. Routes are registered only for
// the collaborators that are set.
type Config struct {
	StaticDir string
	Store     *store.Store
	Subjects  *session.Subjects
	Plugins   *plugin.Manager
	Hub       *Hub
	Canvas    Canvas
	CanvasFPS int

	// OnSessionSaved, if set, is called for records posted to the API.
	OnSessionSaved func(r *session.Record)
}

// Server is the HTTP server for the application.
type Server struct {
	config Config
	mux    *http.ServeMux
	start  time.Time
	http   *http.Server
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	subjects := s.config.Subjects
	if subjects == nil {
		subjects = session.DefaultSubjects()
	}
	s.mux.Handle("/api/subjects", api.NewSubjectHandler(subjects))

	if s.config.Store != nil {
		sessions := api.NewSessionHandler(s.config.Store)
		sessions.OnSaved = s.config.OnSessionSaved
		s.mux.Handle("/api/sessions", sessions)
		s.mux.Handle("/api/sessions/", sessions)
		s.mux.Handle("/api/stats", api.NewStatsHandler(s.config.Store))

		var plugins api.PluginSource
		if s.config.Plugins != nil {
			plugins = s.config.Plugins
		}
		hooks := api.NewHookHandler(s.config.Store, plugins)
		s.mux.Handle("/api/hooks", hooks)
		s.mux.Handle("/api/hooks/", hooks)
	}

	if s.config.Plugins != nil {
		s.mux.Handle("/api/plugins", api.NewPluginHandler(s.config.Plugins))
	}

	if s.config.Hub != nil {
		s.mux.Handle("/api/live", s.config.Hub)
	}

	if s.config.Canvas != nil {
		canvas := NewCanvasHandler(s.config.Canvas, s.config.CanvasFPS)
		s.mux.Handle("/api/canvas", canvas)
		s.mux.Handle("/api/canvas/", canvas)
	}

	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	response := map[string]any{
		"status": "ok",
		"uptime": time.Since(s.start).Round(time.Second).String(),
	}
	if s.config.Store != nil {
		if err := s.config.Store.Ping(r.Context()); err != nil {
			response["status"] = "degraded"
			response["database"] = err.Error()
		}
	}
	if s.config.Hub != nil {
		response["live_clients"] = s.config.Hub.Clients()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	s.http = &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("http server listening", "addr", addr)
		errCh <- s.http.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.http.Shutdown(shutdownCtx)
	}
}
