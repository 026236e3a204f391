package session

import (
	"context"
	"sort"
)

// Phrase identifies one of the fixed spoken announcements.
type Phrase string

const (
	PhraseWarning              Phrase = "warning"
	PhraseAlarm                Phrase = "alarm"
	PhraseRecoveredFromWarning Phrase = "recovered-from-warning"
	PhraseRecoveredFromAlarm   Phrase = "recovered-from-alarm"
)

// Phrases maps each announcement to the text that is spoken.
// A phrase with empty text is not spoken.
type Phrases map[Phrase]string

// Text returns the text for p, or "" if none is configured.
func (p Phrases) Text(phrase Phrase) string {
	if p == nil {
		return ""
	}
	return p[phrase]
}

// StandardPhrases returns the default, neutral announcement table.
func StandardPhrases() Phrases {
	return Phrases{
		PhraseWarning:              "Hey, are you still there? Please come back to your desk.",
		PhraseAlarm:                "You have been away too long. Time to get back to studying.",
		PhraseRecoveredFromWarning: "Welcome back.",
		PhraseRecoveredFromAlarm:   "Welcome back. Let's keep going.",
	}
}

// PlayfulPhrases returns the teasing announcement table. It never speaks on
// recovery from a warning.
func PlayfulPhrases() Phrases {
	return Phrases{
		PhraseWarning:            "Mumtaz will leave you if you stopped studying",
		PhraseAlarm:              "Mumtaz will leave you if you stopped studying",
		PhraseRecoveredFromAlarm: "Yeah I knew you love her",
	}
}

var phrasePresets = map[string]func() Phrases{
	"standard": StandardPhrases,
	"playful":  PlayfulPhrases,
}

// PhrasesByName returns the named phrase preset.
func PhrasesByName(name string) (Phrases, bool) {
	fn, ok := phrasePresets[name]
	if !ok {
		return nil, false
	}
	return fn(), true
}

// PhrasePresetNames lists the known phrase presets.
func PhrasePresetNames() []string {
	names := make([]string, 0, len(phrasePresets))
	for name := range phrasePresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sink receives the side effects of presence transitions.
// Implementations must not block; delivery is fire-and-forget.
type Sink interface {
	Speak(phrase Phrase, text string)
	StartAlarm()
	StopAlarm()
}

// Recorder persists finished sessions. It assigns r.ID on success.
type Recorder interface {
	SaveRecord(ctx context.Context, r *Record) error
}

type nopSink struct{}

func (nopSink) Speak(Phrase, string) {}
func (nopSink) StartAlarm()          {}
func (nopSink) StopAlarm()           {}
