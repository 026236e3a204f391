package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/focusguard/internal/plugin"
	"github.com/ayusman/focusguard/internal/schema"
	"github.com/ayusman/focusguard/internal/store"
)

// PluginSource looks plugins up by name.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// HookHandler serves /api/hooks and /api/hooks/{id}.
type HookHandler struct {
	store   *store.Store
	plugins PluginSource
}

// NewHookHandler creates a HookHandler. When plugins is non-nil, new and
// updated hooks must name a discovered plugin and one of its actions.
func NewHookHandler(s *store.Store, plugins PluginSource) *HookHandler {
	return &HookHandler{store: s, plugins: plugins}
}

// ServeHTTP routes collection and item requests.
func (h *HookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/hooks")
	path = strings.TrimPrefix(path, "/")

	if path == "" {
		switch r.Method {
		case http.MethodGet:
			h.list(w, r)
		case http.MethodPost:
			h.create(w, r)
		default:
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		}
		return
	}

	id := path
	switch r.Method {
	case http.MethodGet:
		h.get(w, r, id)
	case http.MethodPut:
		h.update(w, r, id)
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type createHookRequest struct {
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type updateHookRequest struct {
	Event      string          `json:"event"`
	PluginName string          `json:"plugin_name"`
	ActionName string          `json:"action_name"`
	Config     json.RawMessage `json:"config"`
	Enabled    *bool           `json:"enabled"`
}

type listHooksResponse struct {
	Hooks []*store.Hook `json:"hooks"`
}

// checkPlugin returns a client-facing message when the binding is unusable.
func (h *HookHandler) checkPlugin(pluginName, action string) string {
	if h.plugins == nil {
		return ""
	}
	p, err := h.plugins.Get(pluginName)
	if err != nil {
		return "Plugin not found"
	}
	if !p.Manifest.HasAction(action) {
		return "Plugin does not declare action " + action
	}
	return ""
}

// list handles GET /api/hooks.
func (h *HookHandler) list(w http.ResponseWriter, r *http.Request) {
	hooks, err := h.store.Hooks().List(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list hooks")
		return
	}
	writeJSON(w, http.StatusOK, listHooksResponse{Hooks: hooks})
}

// get handles GET /api/hooks/{id}.
func (h *HookHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	hook, err := h.store.Hooks().GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get hook")
		return
	}
	writeJSON(w, http.StatusOK, hook)
}

// create handles POST /api/hooks.
func (h *HookHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if err := schema.Validate(schema.Hook, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var req createHookRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if msg := h.checkPlugin(req.PluginName, req.ActionName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	enabled := true
	if req.Enabled != nil {
		enabled = *req.Enabled
	}
	hook := &store.Hook{
		Event:      req.Event,
		PluginName: req.PluginName,
		ActionName: req.ActionName,
		Config:     req.Config,
		Enabled:    enabled,
	}
	if hook.Config == nil {
		hook.Config = json.RawMessage("{}")
	}

	if err := h.store.Hooks().Create(r.Context(), hook); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to create hook")
		return
	}
	writeJSON(w, http.StatusCreated, hook)
}

// update handles PUT /api/hooks/{id}. Omitted fields keep their values.
func (h *HookHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	hook, err := h.store.Hooks().GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get hook")
		return
	}

	var req updateHookRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}

	if req.Event != "" {
		hook.Event = req.Event
	}
	if req.PluginName != "" {
		hook.PluginName = req.PluginName
	}
	if req.ActionName != "" {
		hook.ActionName = req.ActionName
	}
	if req.Config != nil {
		hook.Config = req.Config
	}
	if req.Enabled != nil {
		hook.Enabled = *req.Enabled
	}

	// Re-validate the merged hook so updates cannot bypass the schema.
	merged, _ := json.Marshal(createHookRequest{
		Event:      hook.Event,
		PluginName: hook.PluginName,
		ActionName: hook.ActionName,
		Config:     hook.Config,
		Enabled:    &hook.Enabled,
	})
	if err := schema.Validate(schema.Hook, merged); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if msg := h.checkPlugin(hook.PluginName, hook.ActionName); msg != "" {
		writeError(w, http.StatusBadRequest, msg)
		return
	}

	if err := h.store.Hooks().Update(r.Context(), hook); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to update hook")
		return
	}
	writeJSON(w, http.StatusOK, hook)
}

// delete handles DELETE /api/hooks/{id}.
func (h *HookHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Hooks().Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Hook not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete hook")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
