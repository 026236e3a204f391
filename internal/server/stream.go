package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Canvas produces encoded images of the air-writing canvas.
type Canvas interface {
	EncodeJPEG() ([]byte, error)
	EncodePNG() ([]byte, error)
}

// CanvasEditor is implemented by canvases that accept edits over HTTP.
type CanvasEditor interface {
	Undo() error
	Redo() error
	Clear()
	Save(now time.Time) (string, error)
}

// CanvasHandler serves the canvas as a PNG snapshot at /api/canvas and as
// an MJPEG stream at /api/canvas/stream. When the canvas is a CanvasEditor,
// POST /api/canvas/{undo,redo,clear,save} edits it.
type CanvasHandler struct {
	canvas   Canvas
	interval time.Duration
}

// NewCanvasHandler creates a CanvasHandler streaming at about fps frames
// per second.
func NewCanvasHandler(canvas Canvas, fps int) *CanvasHandler {
	if fps <= 0 {
		fps = 10
	}
	return &CanvasHandler{canvas: canvas, interval: time.Second / time.Duration(fps)}
}

func (h *CanvasHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method == http.MethodPost {
		h.edit(w, r)
		return
	}
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	switch r.URL.Path {
	case "/api/canvas":
		h.snapshot(w)
	case "/api/canvas/stream":
		h.stream(w, r)
	default:
		http.NotFound(w, r)
	}
}

func (h *CanvasHandler) edit(w http.ResponseWriter, r *http.Request) {
	editor, ok := h.canvas.(CanvasEditor)
	if !ok || r.URL.Path == "/api/canvas" || r.URL.Path == "/api/canvas/stream" {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var err error
	response := map[string]string{}
	switch r.URL.Path {
	case "/api/canvas/undo":
		err = editor.Undo()
	case "/api/canvas/redo":
		err = editor.Redo()
	case "/api/canvas/clear":
		editor.Clear()
	case "/api/canvas/save":
		var path string
		if path, err = editor.Save(time.Now()); err == nil {
			response["saved"] = path
		}
	default:
		http.NotFound(w, r)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	if err != nil {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
		return
	}
	json.NewEncoder(w).Encode(response)
}

func (h *CanvasHandler) snapshot(w http.ResponseWriter) {
	img, err := h.canvas.EncodePNG()
	if err != nil {
		http.Error(w, "Failed to encode canvas", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(img)
}

func (h *CanvasHandler) stream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ticker := time.NewTicker(h.interval)
	defer ticker.Stop()

	for {
		img, err := h.canvas.EncodeJPEG()
		if err == nil {
			fmt.Fprintf(w, "--frame\r\n")
			fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
			fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", len(img))
			w.Write(img)
			fmt.Fprintf(w, "\r\n")
			if f, ok := w.(http.Flusher); ok {
				f.Flush()
			}
		}

		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
		}
	}
}
