package session

import (
	"errors"
	"time"
)

// ErrFinalized is returned when a finalized tracker is used again.
var ErrFinalized = errors.New("session already finalized")

// Tracker converts a stream of presence samples into timed state
// transitions and accumulated statistics for one session.
//
// A Tracker is not safe for concurrent use. It is owned by the goroutine
// that feeds it detection results.
type Tracker struct {
	subject SubjectConfig
	sink    Sink
	phrases Phrases

	startedAt  time.Time
	lastSample time.Time
	present    time.Duration
	absent     time.Duration
	absences   int

	inAbsence    bool
	absenceStart time.Time
	warningFired bool
	alarmActive  bool
	state        State

	paused    bool
	pausedAt  time.Time
	finalized bool

	// OnTransition, if set, is called after every state change.
	OnTransition func(from, to State)
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithSink routes speech and alarm side effects to s.
func WithSink(s Sink) Option {
	return func(t *Tracker) {
		if s != nil {
			t.sink = s
		}
	}
}

// WithPhrases sets the announcement table.
func WithPhrases(p Phrases) Option {
	return func(t *Tracker) {
		t.phrases = p
	}
}

// Start begins a new session for subject at now.
func Start(subject SubjectConfig, now time.Time, opts ...Option) *Tracker {
	t := &Tracker{
		subject:    subject,
		sink:       nopSink{},
		phrases:    StandardPhrases(),
		startedAt:  now,
		lastSample: now,
		state:      StateUnknown,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Ingest feeds one detection result taken at now.
//
// Time since the previous sample is credited to the present or absent bucket
// depending on present. A timestamp earlier than the previous sample credits
// nothing but still becomes the new reference. While paused, Ingest does
// nothing.
func (t *Tracker) Ingest(present bool, now time.Time) error {
	if t.finalized {
		return ErrFinalized
	}
	if t.paused {
		return nil
	}

	delta := max(0, now.Sub(t.lastSample))
	t.lastSample = now

	if present {
		t.ingestPresent(delta)
	} else {
		t.ingestAbsent(delta, now)
	}
	return nil
}

func (t *Tracker) ingestPresent(delta time.Duration) {
	t.present += delta
	if t.state == StatePresent {
		return
	}

	switch {
	case t.alarmActive:
		t.sink.StopAlarm()
		t.speak(PhraseRecoveredFromAlarm)
	case t.warningFired:
		t.speak(PhraseRecoveredFromWarning)
	}

	t.inAbsence = false
	t.absenceStart = time.Time{}
	t.warningFired = false
	t.alarmActive = false
	t.setState(StatePresent)
}

func (t *Tracker) ingestAbsent(delta time.Duration, now time.Time) {
	t.absent += delta
	if !t.inAbsence {
		t.inAbsence = true
		t.absenceStart = now
		t.absences++
	}

	elapsed := now.Sub(t.absenceStart)
	switch {
	case elapsed >= t.subject.AlarmDelay:
		if t.alarmActive {
			return
		}
		t.alarmActive = true
		t.setState(StateAbsent)
		t.sink.StartAlarm()
		t.speak(PhraseAlarm)
	case elapsed >= t.subject.WarningDelay:
		if t.warningFired {
			return
		}
		t.warningFired = true
		t.setState(StateWarning)
		t.speak(PhraseWarning)
	}
}

func (t *Tracker) speak(p Phrase) {
	if text := t.phrases.Text(p); text != "" {
		t.sink.Speak(p, text)
	}
}

func (t *Tracker) setState(s State) {
	if s == t.state {
		return
	}
	from := t.state
	t.state = s
	if t.OnTransition != nil {
		t.OnTransition(from, s)
	}
}

// Pause stops accrual until Resume is called.
func (t *Tracker) Pause(now time.Time) {
	if t.paused || t.finalized {
		return
	}
	t.paused = true
	t.pausedAt = now
}

// Resume restarts accrual at now. The paused interval is never credited to
// either bucket, and an open absence run is shifted by the paused duration.
func (t *Tracker) Resume(now time.Time) {
	if !t.paused {
		return
	}
	t.paused = false

	gap := now.Sub(t.pausedAt)
	if gap < 0 {
		gap = 0
	}
	if now.After(t.lastSample) {
		t.lastSample = now
	}
	if t.inAbsence {
		t.absenceStart = t.absenceStart.Add(gap)
	}
}

// Finalize ends the session and returns its record. The tracker cannot be
// used afterwards. An active alarm is stopped.
func (t *Tracker) Finalize(now time.Time) (*Record, error) {
	if t.finalized {
		return nil, ErrFinalized
	}
	t.finalized = true
	if t.alarmActive {
		t.sink.StopAlarm()
		t.alarmActive = false
	}

	focus := FocusPercentage(t.present, t.absent)
	return &Record{
		Subject:         t.subject.Name,
		StartTime:       t.startedAt,
		EndTime:         now,
		DurationMins:    int(roundHalfUp(t.lastSample.Sub(t.startedAt).Minutes())),
		PresentMins:     round1(t.present.Minutes()),
		AbsentMins:      round1(t.absent.Minutes()),
		FocusPercentage: round1(focus),
		AbsencesCount:   t.absences,
		Grade:           GradeFor(focus),
		focus:           focus,
	}, nil
}

// State returns the current presence state.
func (t *Tracker) State() State { return t.state }

// Subject returns the subject configuration of the session.
func (t *Tracker) Subject() SubjectConfig { return t.subject }

// Paused reports whether the tracker is paused.
func (t *Tracker) Paused() bool { return t.paused }

// Finalized reports whether Finalize has been called.
func (t *Tracker) Finalized() bool { return t.finalized }

// Snapshot is a point-in-time view of a running session, used for the HUD.
type Snapshot struct {
	Subject         string
	State           State
	Paused          bool
	AlarmActive     bool
	ElapsedAbsence  time.Duration
	SessionTime     time.Duration
	PresentTime     time.Duration
	AbsentTime      time.Duration
	Absences        int
	FocusPercentage float64
}

// Snapshot returns the current statistics. The live focus percentage is 100
// until any time has been tracked.
func (t *Tracker) Snapshot(now time.Time) Snapshot {
	s := Snapshot{
		Subject:         t.subject.Name,
		State:           t.state,
		Paused:          t.paused,
		AlarmActive:     t.alarmActive,
		SessionTime:     t.present + t.absent,
		PresentTime:     t.present,
		AbsentTime:      t.absent,
		Absences:        t.absences,
		FocusPercentage: 100,
	}
	if s.SessionTime > 0 {
		s.FocusPercentage = FocusPercentage(t.present, t.absent)
	}
	if t.inAbsence {
		ref := now
		if t.paused {
			ref = t.pausedAt
		}
		if elapsed := ref.Sub(t.absenceStart); elapsed > 0 {
			s.ElapsedAbsence = elapsed
		}
	}
	return s
}
