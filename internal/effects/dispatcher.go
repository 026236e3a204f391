package effects

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ayusman/focusguard/internal/log"
	"github.com/ayusman/focusguard/internal/plugin"
	"github.com/ayusman/focusguard/internal/session"
)

// QueueSize bounds the number of pending effects.
const QueueSize = 32

// Dispatcher runs effects on a background goroutine. Emit never blocks; when
// the queue is full the effect is dropped and counted.
type Dispatcher struct {
	hooks    HookSource
	plugins  PluginSource
	runner   Runner
	defaults map[Event][]Binding

	mu      sync.RWMutex
	queue   chan Effect
	closed  bool
	wg      sync.WaitGroup
	once    sync.Once
	dropped atomic.Int64

	// OnResult, if set, is called after every plugin invocation.
	OnResult func(e Effect, b Binding, resp *plugin.Response, err error)
}

// NewDispatcher creates a Dispatcher. hooks may be nil, in which case only
// defaults are used. defaults may be nil to disable fallbacks.
func NewDispatcher(hooks HookSource, plugins PluginSource, runner Runner, defaults map[Event][]Binding) *Dispatcher {
	return &Dispatcher{
		hooks:    hooks,
		plugins:  plugins,
		runner:   runner,
		defaults: defaults,
		queue:    make(chan Effect, QueueSize),
	}
}

// Start launches the worker. It stops when ctx is done or Close is called.
func (d *Dispatcher) Start(ctx context.Context) {
	d.once.Do(func() {
		d.wg.Add(1)
		go d.run(ctx)
	})
}

// Close stops accepting effects and waits for queued ones to finish.
func (d *Dispatcher) Close() {
	d.mu.Lock()
	if d.closed {
		d.mu.Unlock()
		return
	}
	d.closed = true
	close(d.queue)
	d.mu.Unlock()

	d.wg.Wait()
}

// Dropped returns how many effects were discarded because the queue was full.
func (d *Dispatcher) Dropped() int64 {
	return d.dropped.Load()
}

// Emit queues e without blocking.
func (d *Dispatcher) Emit(e Effect) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if d.closed {
		return
	}
	select {
	case d.queue <- e:
	default:
		d.dropped.Add(1)
		log.Warn("effect dropped", "event", e.Event)
	}
}

func (d *Dispatcher) run(ctx context.Context) {
	defer d.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-d.queue:
			if !ok {
				return
			}
			d.handle(ctx, e)
		}
	}
}

func (d *Dispatcher) bindings(ctx context.Context, e Event) []Binding {
	if d.hooks != nil {
		hooks, err := d.hooks.ListByEvent(ctx, string(e))
		if err != nil {
			log.Warn("hook lookup failed", "event", e, "error", err)
		} else if len(hooks) > 0 {
			out := make([]Binding, len(hooks))
			for i, h := range hooks {
				out[i] = Binding{Plugin: h.PluginName, Action: h.ActionName, Config: h.Config}
			}
			return out
		}
	}
	return d.defaults[e]
}

func (d *Dispatcher) handle(ctx context.Context, e Effect) {
	for _, b := range d.bindings(ctx, e.Event) {
		p, err := d.plugins.Get(b.Plugin)
		if err != nil {
			log.Debug("hook plugin unavailable", "event", e.Event, "plugin", b.Plugin, "error", err)
			d.report(e, b, nil, err)
			continue
		}

		start := time.Now()
		resp, err := d.runner.Execute(ctx, p, &plugin.Request{
			Action:  b.Action,
			Event:   string(e.Event),
			Subject: e.Subject,
			Text:    e.Text,
			Config:  b.Config,
			Params:  e.Params,
		})
		switch {
		case err != nil:
			log.Warn("plugin failed", "plugin", b.Plugin, "action", b.Action, "error", err)
		case !resp.Success:
			log.Warn("plugin reported failure", "plugin", b.Plugin, "action", b.Action, "error", resp.Error)
		default:
			log.Debug("plugin ran", "plugin", b.Plugin, "action", b.Action, "took", time.Since(start))
		}
		d.report(e, b, resp, err)
	}
}

func (d *Dispatcher) report(e Effect, b Binding, resp *plugin.Response, err error) {
	if d.OnResult != nil {
		d.OnResult(e, b, resp, err)
	}
}

// Sink adapts the dispatcher to a session's side effects.
func (d *Dispatcher) Sink(subject string) session.Sink {
	return &pluginSink{d: d, subject: subject}
}

type pluginSink struct {
	d       *Dispatcher
	subject string
}

func (s *pluginSink) Speak(p session.Phrase, text string) {
	s.d.Emit(Effect{Event: EventForPhrase(p), Subject: s.subject, Text: text})
}

func (s *pluginSink) StartAlarm() {
	s.d.Emit(Effect{Event: EventAlarmStart, Subject: s.subject})
}

func (s *pluginSink) StopAlarm() {
	s.d.Emit(Effect{Event: EventAlarmStop, Subject: s.subject})
}
