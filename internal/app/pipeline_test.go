package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ayusman/focusguard/internal/airwriter"
	"github.com/ayusman/focusguard/internal/capture"
	"github.com/ayusman/focusguard/internal/detector"
	"github.com/ayusman/focusguard/internal/gesture"
)

func newTestAirWriter(t *testing.T, cfg AirWriterConfig) (*AirWriter, *capture.MockCamera, *detector.MockDetector) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping test that needs OpenCV")
	}

	canvas, err := airwriter.NewController(airwriter.Config{
		Width:     320,
		Height:    240,
		OutputDir: t.TempDir(),
		Mirror:    true,
	})
	if err != nil {
		t.Fatalf("NewController() error = %v", err)
	}
	t.Cleanup(canvas.Close)

	cam := capture.NewBlankCamera(64, 48)
	if err := cam.Open(); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { cam.Close() })

	hands := detector.NewMockDetector()
	return NewAirWriter(cfg, cam, hands, canvas), cam, hands
}

func TestAirWriter_StepClassifiesFirstHand(t *testing.T) {
	pub := &fakePublisher{}
	clock := &fakeClock{now: t0}
	a, _, hands := newTestAirWriter(t, AirWriterConfig{Publisher: pub, Now: clock.Now})

	hands.SetHands(detector.PointingLandmarks(), detector.OpenPalmLandmarks())
	ev, err := a.Step()
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if ev.Kind != gesture.KindDraw || ev.Cursor == nil {
		t.Errorf("event = %+v, want draw with a cursor", ev)
	}

	// Same command again is not republished.
	clock.Set(t0.Add(100 * time.Millisecond))
	a.Step()
	if n := len(pub.Of(TypeCommand)); n != 1 {
		t.Errorf("published commands = %d, want 1", n)
	}

	hands.SetHands()
	ev, _ = a.Step()
	if ev.Kind != gesture.KindNone {
		t.Errorf("no hand should give none, got %q", ev.Kind)
	}
	if n := len(pub.Of(TypeCommand)); n != 2 {
		t.Errorf("published commands = %d, want 2", n)
	}
}

func TestAirWriter_NoticesArePublished(t *testing.T) {
	pub := &fakePublisher{}
	clock := &fakeClock{now: t0}
	a, _, hands := newTestAirWriter(t, AirWriterConfig{Publisher: pub, Now: clock.Now})

	hands.SetHands(detector.PeaceLandmarks())
	if _, err := a.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	notices := pub.Of(TypeNotice)
	if len(notices) != 1 || notices[0] != "Color: Blue" {
		t.Errorf("notices = %v", notices)
	}
}

func TestAirWriter_DetectorError(t *testing.T) {
	a, _, hands := newTestAirWriter(t, AirWriterConfig{})
	hands.SetError(errors.New("service exited"))

	if _, err := a.Step(); err == nil {
		t.Error("expected detector error")
	}
}

func TestAirWriter_MotionGateSkipsStillFrames(t *testing.T) {
	clock := &fakeClock{now: t0}
	motion := capture.DefaultMotionConfig()
	a, _, hands := newTestAirWriter(t, AirWriterConfig{MotionGate: true, Motion: motion, Now: clock.Now})
	hands.SetHands(detector.PointingLandmarks())

	// The first frame always opens the gate.
	if _, err := a.Step(); err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if hands.Calls() != 1 || a.fps() != ActiveFPS {
		t.Fatalf("calls = %d fps = %d after first frame", hands.Calls(), a.fps())
	}

	// Identical frames keep it open only for the hold period.
	clock.Set(t0.Add(motion.Hold + time.Second))
	ev, err := a.Step()
	if err != nil {
		t.Fatalf("Step() error = %v", err)
	}
	if hands.Calls() != 1 {
		t.Errorf("detector called on a still frame")
	}
	if ev.Kind != gesture.KindNone || a.fps() != IdleFPS {
		t.Errorf("closed gate: kind = %q fps = %d", ev.Kind, a.fps())
	}
}

func TestAirWriter_Pause(t *testing.T) {
	a, _, _ := newTestAirWriter(t, AirWriterConfig{})

	a.SetPaused(true)
	if !a.Paused() {
		t.Error("should be paused")
	}
	a.SetPaused(false)
	if a.Paused() {
		t.Error("should be resumed")
	}
}

func TestAirWriter_Run(t *testing.T) {
	a, cam, hands := newTestAirWriter(t, AirWriterConfig{})
	hands.SetHands(detector.FistLandmarks())

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()
	if err := a.Run(ctx); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if hands.Calls() == 0 {
		t.Error("Run should process frames")
	}
	if cam.IsOpen() {
		t.Error("Run should close the camera")
	}
	if cam.FPS() != ActiveFPS {
		t.Errorf("fps = %d, want %d without a motion gate", cam.FPS(), ActiveFPS)
	}
}
