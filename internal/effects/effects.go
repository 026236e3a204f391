// Package effects turns session side effects into plugin invocations.
// Each effect is an Event; hooks stored in the database bind events to
// plugin actions, and built-in defaults cover events with no hooks.
package effects

import (
	"context"
	"encoding/json"

	"github.com/ayusman/focusguard/internal/plugin"
	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// Event names a side effect that hooks can bind to.
type Event string

const (
	EventWarning      Event = "warning"
	EventAlarm        Event = "alarm"
	EventRecovered    Event = "recovered"
	EventAlarmStart   Event = "alarm_start"
	EventAlarmStop    Event = "alarm_stop"
	EventSessionSaved Event = "session_saved"
	EventCelebrate    Event = "celebrate"
)

// Events lists every event in a stable order.
func Events() []Event {
	return []Event{
		EventWarning, EventAlarm, EventRecovered,
		EventAlarmStart, EventAlarmStop,
		EventSessionSaved, EventCelebrate,
	}
}

// EventForPhrase maps a spoken phrase to the event it belongs to.
func EventForPhrase(p session.Phrase) Event {
	switch p {
	case session.PhraseWarning:
		return EventWarning
	case session.PhraseAlarm:
		return EventAlarm
	default:
		return EventRecovered
	}
}

// Effect is one queued event occurrence.
type Effect struct {
	Event   Event
	Subject string
	Text    string
	Params  json.RawMessage
}

// HookSource returns the enabled hooks for an event.
type HookSource interface {
	ListByEvent(ctx context.Context, event string) ([]*store.Hook, error)
}

// PluginSource looks plugins up by name.
type PluginSource interface {
	Get(name string) (*plugin.Plugin, error)
}

// Runner executes one plugin request.
type Runner interface {
	Execute(ctx context.Context, p *plugin.Plugin, req *plugin.Request) (*plugin.Response, error)
}

// Binding is a hook without storage metadata.
type Binding struct {
	Plugin string
	Action string
	Config json.RawMessage
}

// DefaultBindings routes every event to the bundled announcer plugin. They
// apply only to events that have no stored hooks.
func DefaultBindings() map[Event][]Binding {
	speak := []Binding{{Plugin: "announcer", Action: "speak"}}
	return map[Event][]Binding{
		EventWarning:    speak,
		EventAlarm:      speak,
		EventRecovered:  speak,
		EventAlarmStart: {{Plugin: "announcer", Action: "alarm-start"}},
		EventAlarmStop:  {{Plugin: "announcer", Action: "alarm-stop"}},
		EventCelebrate:  {{Plugin: "announcer", Action: "notify"}},
	}
}
