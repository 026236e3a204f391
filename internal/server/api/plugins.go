package api

import (
	"net/http"

	"github.com/ayusman/focusguard/internal/plugin"
)

// PluginLister lists discovered plugins.
type PluginLister interface {
	List() []*plugin.Plugin
}

// PluginHandler serves GET /api/plugins.
type PluginHandler struct {
	plugins PluginLister
}

// NewPluginHandler creates a PluginHandler.
func NewPluginHandler(plugins PluginLister) *PluginHandler {
	return &PluginHandler{plugins: plugins}
}

type listPluginsResponse struct {
	Plugins []plugin.Manifest `json:"plugins"`
}

func (h *PluginHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	plugins := h.plugins.List()
	resp := listPluginsResponse{Plugins: make([]plugin.Manifest, 0, len(plugins))}
	for _, p := range plugins {
		resp.Plugins = append(resp.Plugins, p.Manifest)
	}
	writeJSON(w, http.StatusOK, resp)
}
