package detector

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"strings"
	"testing"
)

func TestFromPoints(t *testing.T) {
	t.Run("accepts 21 points", func(t *testing.T) {
		points := make([]Point3D, NumLandmarks)
		for i := range points {
			points[i] = Point3D{X: float64(i) / 20, Y: 0.5}
		}
		h, err := FromPoints(points)
		if err != nil {
			t.Fatalf("FromPoints failed: %v", err)
		}
		if h.Points[PinkyTip].X != 1 {
			t.Errorf("expected pinky tip x 1, got %f", h.Points[PinkyTip].X)
		}
	})

	tests := []struct {
		name   string
		points []Point3D
	}{
		{"empty", nil},
		{"too few", make([]Point3D, 20)},
		{"too many", make([]Point3D, 22)},
		{"NaN", func() []Point3D {
			p := make([]Point3D, NumLandmarks)
			p[IndexTip].Y = math.NaN()
			return p
		}()},
		{"Inf", func() []Point3D {
			p := make([]Point3D, NumLandmarks)
			p[Wrist].X = math.Inf(1)
			return p
		}()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := FromPoints(tt.points); !errors.Is(err, ErrInvalidLandmarks) {
				t.Errorf("expected ErrInvalidLandmarks, got %v", err)
			}
		})
	}
}

func TestHandLandmarks_Mirrored(t *testing.T) {
	h := PointingLandmarks()
	m := h.Mirrored()

	if math.Abs(m.Points[IndexTip].X-(1-h.Points[IndexTip].X)) > 1e-9 {
		t.Errorf("expected mirrored x, got %f", m.Points[IndexTip].X)
	}
	if m.Points[IndexTip].Y != h.Points[IndexTip].Y {
		t.Error("mirroring must not change y")
	}
	if h.Points[IndexTip].X != 0.56 {
		t.Error("Mirrored modified the receiver")
	}
}

func TestDecodeHands(t *testing.T) {
	t.Run("valid reply", func(t *testing.T) {
		var sb strings.Builder
		sb.WriteString(`{"hands":[{"handedness":"Left","score":0.8,"points":[`)
		for i := 0; i < NumLandmarks; i++ {
			if i > 0 {
				sb.WriteString(",")
			}
			sb.WriteString(`{"x":0.5,"y":0.5,"z":0}`)
		}
		sb.WriteString("]}]}\n")

		hands, err := decodeHands([]byte(sb.String()))
		if err != nil {
			t.Fatalf("decodeHands failed: %v", err)
		}
		if len(hands) != 1 {
			t.Fatalf("expected 1 hand, got %d", len(hands))
		}
		if hands[0].Handedness != "Left" || hands[0].Score != 0.8 {
			t.Errorf("unexpected metadata %+v", hands[0])
		}
	})

	t.Run("no hands", func(t *testing.T) {
		hands, err := decodeHands([]byte(`{"hands":[]}`))
		if err != nil {
			t.Fatalf("decodeHands failed: %v", err)
		}
		if len(hands) != 0 {
			t.Errorf("expected no hands, got %d", len(hands))
		}
	})

	t.Run("short hand", func(t *testing.T) {
		_, err := decodeHands([]byte(`{"hands":[{"points":[{"x":0,"y":0,"z":0}]}]}`))
		if !errors.Is(err, ErrInvalidLandmarks) {
			t.Errorf("expected ErrInvalidLandmarks, got %v", err)
		}
	})

	t.Run("service error", func(t *testing.T) {
		if _, err := decodeHands([]byte(`{"error":"model load failed"}`)); err == nil {
			t.Error("expected error")
		}
	})
}

func TestWriteFrame(t *testing.T) {
	var buf bytes.Buffer
	if err := writeFrame(&buf, []byte("jpeg")); err != nil {
		t.Fatalf("writeFrame failed: %v", err)
	}
	out := buf.Bytes()
	if n := binary.BigEndian.Uint32(out[:4]); n != 4 {
		t.Errorf("expected length prefix 4, got %d", n)
	}
	if string(out[4:]) != "jpeg" {
		t.Errorf("unexpected payload %q", out[4:])
	}
}

func TestMockFaceDetector_Script(t *testing.T) {
	m := NewMockFaceDetector(true, false, true)
	want := []bool{true, false, true, true}
	for i, w := range want {
		faces, err := m.Detect(nil)
		if err != nil {
			t.Fatalf("Detect failed: %v", err)
		}
		if Present(faces) != w {
			t.Errorf("frame %d: expected present=%v", i, w)
		}
	}

	m.SetError(errors.New("camera unplugged"))
	if _, err := m.Detect(nil); err == nil {
		t.Error("expected configured error")
	}
}

func TestMockDetector(t *testing.T) {
	m := NewMockDetector()
	m.SetHands(OpenPalmLandmarks())
	hands, err := m.Detect(nil)
	if err != nil || len(hands) != 1 {
		t.Fatalf("expected one hand, got %d (%v)", len(hands), err)
	}
	if m.Calls() != 1 {
		t.Errorf("expected 1 call, got %d", m.Calls())
	}
}

func TestNewMediaPipeDetector_MissingScript(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ServiceScript = "/nonexistent/" + ServiceScriptName
	if _, err := NewMediaPipeDetector(cfg); err == nil {
		t.Error("expected error for missing script")
	}
}
