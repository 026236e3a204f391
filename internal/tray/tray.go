// Package tray provides a system tray menu for a running FocusGuard session.
package tray

import (
	"sync"

	"github.com/getlantern/systray"
)

// Tray represents the system tray menu.
type Tray struct {
	title     string
	onPause   func(paused bool)
	onOpen    func()
	onQuit    func()
	onReady   func()
	paused    bool
	status    string
	mu        sync.RWMutex
	hasOpen   bool
	closeOnce sync.Once

	// Menu items stored for later updates
	menuPause  *systray.MenuItem
	menuStatus *systray.MenuItem
}

// New creates a tray with the given title. Monitoring starts unpaused.
func New(title string) *Tray {
	return &Tray{title: title, status: "Starting..."}
}

// OnPause sets the callback run when pause is toggled.
func (t *Tray) OnPause(fn func(paused bool)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onPause = fn
}

// OnOpen sets the callback for the "Open Dashboard" item. The item is only
// shown when a callback is set before Run.
func (t *Tray) OnOpen(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onOpen = fn
	t.hasOpen = fn != nil
}

// OnQuit sets the callback run when the user ends the session.
func (t *Tray) OnQuit(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onQuit = fn
}

// OnReady sets a callback run once the menu exists.
func (t *Tray) OnReady(fn func()) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.onReady = fn
}

// Run starts the tray. It blocks until Quit and must be called from the
// main goroutine.
func (t *Tray) Run() {
	systray.Run(t.ready, func() {})
}

// Quit removes the tray icon and makes Run return.
func (t *Tray) Quit() {
	t.closeOnce.Do(systray.Quit)
}

func (t *Tray) ready() {
	t.mu.Lock()
	systray.SetTitle(t.title)
	systray.SetTooltip(t.title)

	t.menuStatus = systray.AddMenuItem(t.status, "Current session status")
	t.menuStatus.Disable()
	systray.AddSeparator()

	t.menuPause = systray.AddMenuItem(pauseTitle(t.paused), "Pause or resume tracking")
	var menuOpen *systray.MenuItem
	if t.hasOpen {
		menuOpen = systray.AddMenuItem("Open Dashboard...", "Open the dashboard in a browser")
	}
	systray.AddSeparator()
	menuQuit := systray.AddMenuItem("End Session", "Save the session and quit")
	onReady := t.onReady
	t.mu.Unlock()

	var openCh <-chan struct{}
	if menuOpen != nil {
		openCh = menuOpen.ClickedCh
	}

	go func() {
		for {
			select {
			case <-t.menuPause.ClickedCh:
				t.Toggle()
			case <-openCh:
				t.handleOpen()
			case <-menuQuit.ClickedCh:
				t.handleQuit()
				return
			}
		}
	}()

	if onReady != nil {
		onReady()
	}
}

// Toggle flips the paused state and notifies the pause callback.
func (t *Tray) Toggle() {
	t.SetPaused(!t.Paused())
	t.mu.RLock()
	callback, paused := t.onPause, t.paused
	t.mu.RUnlock()

	// Call the callback outside the lock to prevent deadlocks
	if callback != nil {
		callback(paused)
	}
}

// SetPaused updates the menu without calling the pause callback, for
// pauses requested elsewhere.
func (t *Tray) SetPaused(paused bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.paused = paused
	if t.menuPause != nil {
		t.menuPause.SetTitle(pauseTitle(paused))
	}
}

// Paused returns the current paused state.
func (t *Tray) Paused() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.paused
}

// SetStatus updates the status line and the tray title.
func (t *Tray) SetStatus(status string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.status = status
	if t.menuStatus != nil {
		t.menuStatus.SetTitle(status)
		systray.SetTitle(t.title + " · " + status)
	}
}

// Status returns the current status line.
func (t *Tray) Status() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

func (t *Tray) handleOpen() {
	t.mu.RLock()
	callback := t.onOpen
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
}

func (t *Tray) handleQuit() {
	t.mu.RLock()
	callback := t.onQuit
	t.mu.RUnlock()

	if callback != nil {
		callback()
	}
	t.Quit()
}

func pauseTitle(paused bool) string {
	if paused {
		return "▶ Resume"
	}
	return "⏸ Pause"
}
