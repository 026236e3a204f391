// Package app wires cameras, detectors and the session tracker into running
// pipelines.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ayusman/focusguard/internal/capture"
	"github.com/ayusman/focusguard/internal/detector"
	"github.com/ayusman/focusguard/internal/effects"
	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// SnapshotInterval is how often the live snapshot is published.
const SnapshotInterval = time.Second

// Live message types, matching the websocket hub.
const (
	TypeSnapshot   = "snapshot"
	TypeTransition = "transition"
	TypeCommand    = "command"
	TypeNotice     = "notice"
	TypeSession    = "session"
)

// Publisher receives live updates. *server.Hub implements it.
type Publisher interface {
	Publish(msgType string, data any)
}

// SettingsWriter stores small key/value preferences.
type SettingsWriter interface {
	Set(ctx context.Context, key, value string) error
}

// Emitter queues side effects. *effects.Dispatcher implements it.
type Emitter interface {
	Emit(e effects.Effect)
}

// MonitorConfig holds the collaborators of a Monitor. Only Subject is
// required.
type MonitorConfig struct {
	Subject session.SubjectConfig
	Phrases session.Phrases

	// Interval between samples. Defaults to one second.
	Interval time.Duration

	Sink      session.Sink
	Recorder  session.Recorder
	Settings  SettingsWriter
	Effects   Emitter
	Publisher Publisher

	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// Live is the JSON form of a session snapshot.
type Live struct {
	Subject         string        `json:"subject"`
	State           session.State `json:"state"`
	Label           string        `json:"label"`
	Paused          bool          `json:"paused"`
	AlarmActive     bool          `json:"alarm_active"`
	ElapsedAbsence  float64       `json:"elapsed_absence_secs"`
	SessionTime     float64       `json:"session_secs"`
	PresentTime     float64       `json:"present_secs"`
	AbsentTime      float64       `json:"absent_secs"`
	Absences        int           `json:"absences"`
	FocusPercentage float64       `json:"focus_percentage"`
}

// LiveFrom converts a snapshot for publishing.
func LiveFrom(s session.Snapshot) Live {
	return Live{
		Subject:         s.Subject,
		State:           s.State,
		Label:           s.State.Label(),
		Paused:          s.Paused,
		AlarmActive:     s.AlarmActive,
		ElapsedAbsence:  s.ElapsedAbsence.Seconds(),
		SessionTime:     s.SessionTime.Seconds(),
		PresentTime:     s.PresentTime.Seconds(),
		AbsentTime:      s.AbsentTime.Seconds(),
		Absences:        s.Absences,
		FocusPercentage: s.FocusPercentage,
	}
}

// Transition is published on every state change.
type Transition struct {
	From session.State `json:"from"`
	To   session.State `json:"to"`
}

// Monitor runs one presence session: it samples the camera, asks the face
// detector whether someone is there and feeds the answer to a tracker.
//
// The tracker is owned by the Monitor; every access goes through mu so the
// tray and HTTP handlers can pause and read snapshots while Run samples.
type Monitor struct {
	config  MonitorConfig
	camera  capture.Camera
	faces   detector.FaceDetector
	tracker *session.Tracker

	mu          sync.Mutex
	lastPublish time.Time
	record      *session.Record
}

// NewMonitor starts a session for cfg.Subject. The session clock starts now.
func NewMonitor(cfg MonitorConfig, camera capture.Camera, faces detector.FaceDetector) *Monitor {
	if cfg.Interval <= 0 {
		cfg.Interval = time.Second
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Phrases == nil {
		cfg.Phrases = session.StandardPhrases()
	}

	m := &Monitor{config: cfg, camera: camera, faces: faces}
	opts := []session.Option{session.WithPhrases(cfg.Phrases)}
	if cfg.Sink != nil {
		opts = append(opts, session.WithSink(cfg.Sink))
	}
	m.tracker = session.Start(cfg.Subject, cfg.Now(), opts...)
	m.tracker.OnTransition = m.onTransition
	return m
}

// Run samples until ctx is done, then finalizes and saves the session.
// The camera is opened and closed by Run.
func (m *Monitor) Run(ctx context.Context) (*session.Record, error) {
	if err := m.camera.Open(); err != nil {
		return nil, fmt.Errorf("failed to open camera: %w", err)
	}
	defer func() {
		if err := m.camera.Close(); err != nil {
			log.Warn("error closing camera", "error", err)
		}
	}()

	log.Info("monitor started", "subject", m.tracker.Subject().Name, "interval", m.config.Interval)
	m.rememberSubject(ctx)

	ticker := time.NewTicker(m.config.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			// The session context is gone; saving still needs one.
			return m.Finish(context.WithoutCancel(ctx))
		case <-ticker.C:
			if err := m.Step(); err != nil {
				if errors.Is(err, session.ErrFinalized) {
					return m.Finish(context.WithoutCancel(ctx))
				}
				log.Debug("sample skipped", "error", err)
			}
		}
	}
}

// Step takes one sample. Camera and detector errors skip the sample, so an
// unreadable frame never counts as an absence.
func (m *Monitor) Step() error {
	frame, err := m.camera.ReadFrame()
	if err != nil {
		return fmt.Errorf("read frame: %w", err)
	}
	faces, err := m.faces.Detect(frame)
	frame.Close()
	if err != nil {
		return fmt.Errorf("detect faces: %w", err)
	}
	return m.Ingest(detector.Present(faces), m.config.Now())
}

// Ingest feeds one presence result to the tracker and publishes the
// snapshot when it is due.
func (m *Monitor) Ingest(present bool, now time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.tracker.Ingest(present, now); err != nil {
		return err
	}
	if now.Sub(m.lastPublish) >= SnapshotInterval {
		m.publishLocked(now)
	}
	return nil
}

// SetPaused pauses or resumes accrual.
func (m *Monitor) SetPaused(paused bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.config.Now()
	if paused {
		m.tracker.Pause(now)
	} else {
		m.tracker.Resume(now)
	}
	log.Info("monitor pause changed", "paused", m.tracker.Paused())
	m.publishLocked(now)
}

// Paused reports whether the session is paused.
func (m *Monitor) Paused() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Paused()
}

// Snapshot returns the current session statistics.
func (m *Monitor) Snapshot() session.Snapshot {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.tracker.Snapshot(m.config.Now())
}

// Finish finalizes the session, saves it and announces the result. Calling
// Finish again returns the same record.
func (m *Monitor) Finish(ctx context.Context) (*session.Record, error) {
	m.mu.Lock()
	if m.tracker.Finalized() {
		rec := m.record
		m.mu.Unlock()
		return rec, nil
	}
	rec, err := m.tracker.Finalize(m.config.Now())
	if err != nil {
		m.mu.Unlock()
		return nil, err
	}
	m.record = rec
	m.mu.Unlock()

	log.Info("session finished",
		"subject", rec.Subject,
		"duration_mins", rec.DurationMins,
		"focus", rec.FocusPercentage,
		"grade", string(rec.Grade))

	if m.config.Recorder != nil {
		if err := m.config.Recorder.SaveRecord(ctx, rec); err != nil {
			return rec, fmt.Errorf("failed to save session: %w", err)
		}
	}
	m.announce(rec)
	return rec, nil
}

func (m *Monitor) announce(rec *session.Record) {
	if m.config.Publisher != nil {
		m.config.Publisher.Publish(TypeSession, rec)
	}
	if m.config.Effects == nil {
		return
	}
	params, err := json.Marshal(rec)
	if err != nil {
		log.Warn("session not encodable", "error", err)
	}
	m.config.Effects.Emit(effects.Effect{
		Event:   effects.EventSessionSaved,
		Subject: rec.Subject,
		Text:    fmt.Sprintf("%s session saved: %.1f%% focus", rec.Subject, rec.FocusPercentage),
		Params:  params,
	})
	if rec.Celebrate() {
		m.config.Effects.Emit(effects.Effect{
			Event:   effects.EventCelebrate,
			Subject: rec.Subject,
			Text:    fmt.Sprintf("Amazing! %.1f%% focus on %s", rec.FocusPercentage, rec.Subject),
			Params:  params,
		})
	}
}

func (m *Monitor) rememberSubject(ctx context.Context) {
	if m.config.Settings == nil {
		return
	}
	if err := m.config.Settings.Set(ctx, store.SettingLastSubject, m.tracker.Subject().Name); err != nil {
		log.Warn("failed to remember subject", "error", err)
	}
}

// onTransition runs inside tracker calls, with mu held.
func (m *Monitor) onTransition(from, to session.State) {
	log.Info("presence changed", "from", string(from), "to", string(to))
	if m.config.Publisher == nil {
		return
	}
	m.config.Publisher.Publish(TypeTransition, Transition{From: from, To: to})
	m.publishLocked(m.config.Now())
}

func (m *Monitor) publishLocked(now time.Time) {
	m.lastPublish = now
	if m.config.Publisher != nil {
		m.config.Publisher.Publish(TypeSnapshot, LiveFrom(m.tracker.Snapshot(now)))
	}
}
