package server

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeCanvas struct {
	err error
}

func (f fakeCanvas) EncodeJPEG() ([]byte, error) { return []byte{0xFF, 0xD8, 0xFF, 0xD9}, f.err }
func (f fakeCanvas) EncodePNG() ([]byte, error)  { return []byte("\x89PNG\r\n\x1a\n"), f.err }

func TestCanvasHandler_Snapshot(t *testing.T) {
	s := New(Config{Canvas: fakeCanvas{}})

	req := httptest.NewRequest(http.MethodGet, "/api/canvas", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/png" {
		t.Errorf("Content-Type = %q, want image/png", ct)
	}
	if !strings.HasPrefix(rec.Body.String(), "\x89PNG") {
		t.Error("body is not a PNG")
	}
}

func TestCanvasHandler_SnapshotError(t *testing.T) {
	s := New(Config{Canvas: fakeCanvas{err: errors.New("closed")}})

	req := httptest.NewRequest(http.MethodGet, "/api/canvas", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusInternalServerError)
	}
}

func TestCanvasHandler_Stream(t *testing.T) {
	s := New(Config{Canvas: fakeCanvas{}, CanvasFPS: 50})

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/canvas/stream", nil).WithContext(ctx)
	rec := httptest.NewRecorder()

	s.ServeHTTP(rec, req)

	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "multipart/x-mixed-replace") {
		t.Errorf("Content-Type = %q", ct)
	}
	if n := strings.Count(rec.Body.String(), "--frame"); n < 2 {
		t.Errorf("expected several frames, got %d", n)
	}
}

func TestCanvasHandler_MethodNotAllowed(t *testing.T) {
	s := New(Config{Canvas: fakeCanvas{}})

	req := httptest.NewRequest(http.MethodPost, "/api/canvas", nil)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusMethodNotAllowed)
	}
}

type fakeEditor struct {
	fakeCanvas
	undos, clears int
	undoErr       error
}

func (f *fakeEditor) Undo() error {
	f.undos++
	return f.undoErr
}
func (f *fakeEditor) Redo() error { return nil }
func (f *fakeEditor) Clear()      { f.clears++ }
func (f *fakeEditor) Save(now time.Time) (string, error) {
	return "/tmp/air-writing-1.png", nil
}

func TestCanvasHandler_Edits(t *testing.T) {
	ed := &fakeEditor{}
	s := New(Config{Canvas: ed})

	post := func(path string) *httptest.ResponseRecorder {
		rec := httptest.NewRecorder()
		s.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, path, nil))
		return rec
	}

	if rec := post("/api/canvas/undo"); rec.Code != http.StatusOK || ed.undos != 1 {
		t.Errorf("undo: status = %d, undos = %d", rec.Code, ed.undos)
	}
	if rec := post("/api/canvas/clear"); rec.Code != http.StatusOK || ed.clears != 1 {
		t.Errorf("clear: status = %d, clears = %d", rec.Code, ed.clears)
	}
	if rec := post("/api/canvas/save"); !strings.Contains(rec.Body.String(), "air-writing-1.png") {
		t.Errorf("save body = %s", rec.Body.String())
	}
	if rec := post("/api/canvas/paint"); rec.Code != http.StatusNotFound {
		t.Errorf("unknown edit status = %d, want 404", rec.Code)
	}

	ed.undoErr = errors.New("nothing to undo")
	if rec := post("/api/canvas/undo"); rec.Code != http.StatusConflict {
		t.Errorf("failed undo status = %d, want %d", rec.Code, http.StatusConflict)
	}
}
