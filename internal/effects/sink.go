package effects

import (
	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/session"
)

// LogSink writes every side effect to the structured log.
type LogSink struct {
	Subject string
}

func (s LogSink) Speak(p session.Phrase, text string) {
	log.Info("announce", "subject", s.Subject, "phrase", string(p), "text", text)
}

func (s LogSink) StartAlarm() {
	log.Warn("alarm started", "subject", s.Subject)
}

func (s LogSink) StopAlarm() {
	log.Info("alarm stopped", "subject", s.Subject)
}

// Multi fans every side effect out to each sink in order.
func Multi(sinks ...session.Sink) session.Sink {
	return multiSink(sinks)
}

type multiSink []session.Sink

func (m multiSink) Speak(p session.Phrase, text string) {
	for _, s := range m {
		s.Speak(p, text)
	}
}

func (m multiSink) StartAlarm() {
	for _, s := range m {
		s.StartAlarm()
	}
}

func (m multiSink) StopAlarm() {
	for _, s := range m {
		s.StopAlarm()
	}
}
