package main

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"

	"github.com/ayusman/focusguard/internal/effects"
	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/plugin"
	"github.com/ayusman/focusguard/internal/server"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// runtimeEnv holds the collaborators shared by the long-running commands.
type runtimeEnv struct {
	store      *store.Store
	plugins    *plugin.Manager
	dispatcher *effects.Dispatcher
	hub        *server.Hub
}

func newRuntimeEnv(ctx context.Context) (*runtimeEnv, error) {
	st, err := store.New(settings.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open db: %w", err)
	}
	mgr, err := discoverPlugins()
	if err != nil {
		closeStore(st)
		return nil, err
	}

	var defaults map[effects.Event][]effects.Binding
	if settings.DefaultHooks {
		defaults = effects.DefaultBindings()
	}
	d := effects.NewDispatcher(st.Hooks(), mgr, plugin.NewExecutor(settings.PluginTimeout), defaults)
	d.OnResult = func(e effects.Effect, b effects.Binding, resp *plugin.Response, err error) {
		if err != nil {
			log.Warn("hook failed", "event", string(e.Event), "plugin", b.Plugin, "action", b.Action, "error", err)
			return
		}
		log.Debug("hook ran", "event", string(e.Event), "plugin", b.Plugin, "action", b.Action)
	}
	d.Start(ctx)

	return &runtimeEnv{store: st, plugins: mgr, dispatcher: d, hub: server.NewHub()}, nil
}

// Close drains pending effects and closes the database.
func (e *runtimeEnv) Close() {
	e.dispatcher.Close()
	if n := e.dispatcher.Dropped(); n > 0 {
		log.Warn("effects dropped", "count", n)
	}
	closeStore(e.store)
}

func (e *runtimeEnv) newServer(canvas server.Canvas) *server.Server {
	return server.New(server.Config{
		StaticDir:      staticDir(),
		Store:          e.store,
		Subjects:       settings.Subjects,
		Plugins:        e.plugins,
		Hub:            e.hub,
		Canvas:         canvas,
		OnSessionSaved: e.sessionSaved,
	})
}

// serve runs the HTTP server in the background until ctx is done.
func (e *runtimeEnv) serve(ctx context.Context, addr string, canvas server.Canvas) {
	srv := e.newServer(canvas)
	go func() {
		if err := srv.ListenAndServe(ctx, addr); err != nil {
			log.Error("http server failed", "error", err)
		}
	}()
}

// sessionSaved announces sessions posted by the dashboard.
func (e *runtimeEnv) sessionSaved(r *session.Record) {
	e.hub.Publish(server.TypeSession, r)
	e.dispatcher.Emit(effects.Effect{
		Event:   effects.EventSessionSaved,
		Subject: r.Subject,
		Text:    fmt.Sprintf("%s session saved: %.1f%% focus", r.Subject, r.FocusPercentage),
	})
}

func discoverPlugins() (*plugin.Manager, error) {
	mgr := plugin.NewManager(settings.PluginDir)
	if err := mgr.Discover(); err != nil {
		return nil, fmt.Errorf("failed to discover plugins: %w", err)
	}
	return mgr, nil
}

// staticDir returns the configured dashboard directory, or the first
// "web" directory found near the working directory or in the data home.
func staticDir() string {
	if settings.StaticDir != "" {
		return settings.StaticDir
	}
	candidates := []string{"web", "../web", "../../web", filepath.Join(filepath.Dir(settings.DBPath), "web")}
	for _, p := range candidates {
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func openBrowser(url string) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", "url", url, "error", err)
		return
	}
	go cmd.Wait()
}
