package app

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/focusguard/internal/airwriter"
	"github.com/ayusman/focusguard/internal/capture"
	"github.com/ayusman/focusguard/internal/detector"
	"github.com/ayusman/focusguard/internal/gesture"
	"github.com/ayusman/focusguard/internal/log"
)

// Air-writing frame rates.
const (
	// IdleFPS is the frame rate while the motion gate is closed.
	IdleFPS = 5
	// ActiveFPS is the frame rate while a hand may be moving.
	ActiveFPS = 15
)

// AirWriterConfig holds the collaborators of an AirWriter.
type AirWriterConfig struct {
	// MotionGate skips hand detection on still frames.
	MotionGate bool
	Motion     capture.MotionConfig

	Publisher Publisher

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// AirWriter runs the gesture drawing loop: camera, optional motion gate,
// hand detector, classifier, canvas controller.
type AirWriter struct {
	config AirWriterConfig
	camera capture.Camera
	hands  detector.HandDetector
	canvas *airwriter.Controller
	gate   *capture.MotionGate

	mu       sync.RWMutex
	paused   bool
	active   bool
	lastKind gesture.Kind
}

// NewAirWriter connects the pipeline stages. The controller stays owned by
// the caller.
func NewAirWriter(cfg AirWriterConfig, camera capture.Camera, hands detector.HandDetector, canvas *airwriter.Controller) *AirWriter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	a := &AirWriter{
		config:   cfg,
		camera:   camera,
		hands:    hands,
		canvas:   canvas,
		active:   true,
		lastKind: gesture.KindNone,
	}
	if cfg.MotionGate {
		a.gate = capture.NewMotionGate(cfg.Motion)
		a.active = false
	}
	if cfg.Publisher != nil {
		canvas.OnNotice = func(msg string) {
			cfg.Publisher.Publish(TypeNotice, msg)
		}
	}
	return a
}

// SetPaused stops or restarts frame processing. A pause breaks the current
// stroke.
func (a *AirWriter) SetPaused(paused bool) {
	a.mu.Lock()
	a.paused = paused
	a.mu.Unlock()

	if paused {
		if _, err := a.canvas.Apply(gesture.Command{Kind: gesture.KindPause}, a.config.Now()); err != nil {
			log.Warn("failed to break stroke", "error", err)
		}
	}
	log.Info("air writer pause changed", "paused", paused)
}

// Paused reports whether frame processing is paused.
func (a *AirWriter) Paused() bool {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.paused
}

// Canvas returns the drawing controller.
func (a *AirWriter) Canvas() *airwriter.Controller {
	return a.canvas
}

// Run processes frames until ctx is done. The camera runs at IdleFPS while
// the motion gate is closed and at ActiveFPS while it is open.
func (a *AirWriter) Run(ctx context.Context) error {
	if err := a.camera.Open(); err != nil {
		return fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := a.camera.Close(); err != nil {
			log.Warn("error closing camera", "error", err)
		}
		if a.gate != nil {
			a.gate.Close()
		}
	}()

	fps := a.fps()
	a.camera.SetFPS(fps)
	ticker := time.NewTicker(time.Second / time.Duration(fps))
	defer ticker.Stop()
	log.Info("air writer started", "fps", fps, "motion_gate", a.gate != nil)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if a.Paused() {
				continue
			}
			if _, err := a.Step(); err != nil {
				log.Debug("frame skipped", "error", err)
			}
			if next := a.fps(); next != fps {
				fps = next
				a.camera.SetFPS(fps)
				ticker.Reset(time.Second / time.Duration(fps))
				log.Debug("air writer frame rate changed", "fps", fps)
			}
		}
	}
}

func (a *AirWriter) fps() int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.active {
		return ActiveFPS
	}
	return IdleFPS
}

// Step processes one frame and returns what it did to the canvas. Frames
// with no hand break the current stroke.
func (a *AirWriter) Step() (airwriter.Event, error) {
	now := a.config.Now()
	frame, err := a.camera.ReadFrame()
	if err != nil {
		return airwriter.Event{}, fmt.Errorf("read frame: %w", err)
	}
	defer frame.Close()

	if a.gate != nil {
		open := a.gate.Open(frame, now)
		a.mu.Lock()
		a.active = open
		a.mu.Unlock()
		if !open {
			return a.apply(gesture.Command{Kind: gesture.KindNone}, now)
		}
	}

	hands, err := a.hands.Detect(frame)
	if err != nil {
		return airwriter.Event{}, fmt.Errorf("detect hands: %w", err)
	}
	cmd := gesture.Command{Kind: gesture.KindNone}
	if len(hands) > 0 {
		cmd = gesture.ClassifyHand(hands[0])
	}
	return a.apply(cmd, now)
}

// apply runs cmd on the canvas and publishes it when the command kind
// changes or it produced a notice.
func (a *AirWriter) apply(cmd gesture.Command, now time.Time) (airwriter.Event, error) {
	ev, err := a.canvas.Apply(cmd, now)
	if err != nil {
		return ev, fmt.Errorf("apply %s: %w", cmd.Kind, err)
	}

	a.mu.Lock()
	changed := cmd.Kind != a.lastKind
	a.lastKind = cmd.Kind
	a.mu.Unlock()

	if ev.Saved != "" {
		log.Info("drawing saved", "path", ev.Saved)
	}
	if a.config.Publisher != nil && (changed || ev.Saved != "") {
		a.config.Publisher.Publish(TypeCommand, ev)
	}
	return ev, nil
}
