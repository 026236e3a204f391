package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/schema"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// SessionHandler serves /api/sessions and /api/sessions/{id}.
type SessionHandler struct {
	store *store.Store

	// OnSaved, if set, is called after a record is stored through the API.
	OnSaved func(r *session.Record)
}

// NewSessionHandler creates a SessionHandler over s.
func NewSessionHandler(s *store.Store) *SessionHandler {
	return &SessionHandler{store: s}
}

// ServeHTTP routes collection and item requests.
func (h *SessionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/sessions")
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
	case http.MethodDelete:
		h.delete(w, r, id)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

type listSessionsResponse struct {
	Sessions []*session.Record `json:"sessions"`
}

type createSessionResponse struct {
	ID string `json:"id"`
}

func listOptions(r *http.Request) (store.ListOptions, bool) {
	limit, ok := intParam(r, "limit", store.DefaultHistoryLimit)
	if !ok {
		return store.ListOptions{}, false
	}
	return store.ListOptions{Limit: limit, Subject: r.URL.Query().Get("subject")}, true
}

// list handles GET /api/sessions?limit=N&subject=S, newest first.
func (h *SessionHandler) list(w http.ResponseWriter, r *http.Request) {
	opts, ok := listOptions(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}

	records, err := h.store.Sessions().List(r.Context(), opts)
	if err != nil {
		log.Error("list sessions", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to list sessions")
		return
	}
	writeJSON(w, http.StatusOK, listSessionsResponse{Sessions: records})
}

// get handles GET /api/sessions/{id}.
func (h *SessionHandler) get(w http.ResponseWriter, r *http.Request, id string) {
	rec, err := h.store.Sessions().GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to get session")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

// create handles POST /api/sessions. The body is validated against the
// session schema; a missing grade is derived from the focus percentage.
func (h *SessionHandler) create(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, "Failed to read body")
		return
	}
	if err := schema.Validate(schema.Session, body); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	var rec session.Record
	if err := json.Unmarshal(body, &rec); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if rec.EndTime.Before(rec.StartTime) {
		writeError(w, http.StatusBadRequest, "end_time must not be before start_time")
		return
	}
	rec.ID = ""

	if err := h.store.Sessions().Create(r.Context(), &rec); err != nil {
		log.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "Failed to save session")
		return
	}
	if h.OnSaved != nil {
		h.OnSaved(&rec)
	}
	writeJSON(w, http.StatusCreated, createSessionResponse{ID: rec.ID})
}

// delete handles DELETE /api/sessions/{id}.
func (h *SessionHandler) delete(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.store.Sessions().Delete(r.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			writeError(w, http.StatusNotFound, "Session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StatsHandler serves GET /api/stats over the same window as the listing.
type StatsHandler struct {
	store *store.Store
}

// NewStatsHandler creates a StatsHandler over s.
func NewStatsHandler(s *store.Store) *StatsHandler {
	return &StatsHandler{store: s}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	opts, ok := listOptions(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "limit must be a non-negative integer")
		return
	}
	st, err := h.store.Sessions().Stats(r.Context(), opts)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to compute stats")
		return
	}
	writeJSON(w, http.StatusOK, st)
}
