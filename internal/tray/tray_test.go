package tray

import "testing"

func TestTray_Toggle(t *testing.T) {
	tr := New("FocusGuard")

	var calls []bool
	tr.OnPause(func(paused bool) { calls = append(calls, paused) })

	tr.Toggle()
	tr.Toggle()

	if len(calls) != 2 || !calls[0] || calls[1] {
		t.Errorf("calls = %v, want [true false]", calls)
	}
	if tr.Paused() {
		t.Error("two toggles should leave the tray running")
	}
}

func TestTray_SetPausedDoesNotCallBack(t *testing.T) {
	tr := New("FocusGuard")
	called := false
	tr.OnPause(func(bool) { called = true })

	tr.SetPaused(true)
	if !tr.Paused() || called {
		t.Errorf("paused = %v, called = %v", tr.Paused(), called)
	}
}

func TestTray_Status(t *testing.T) {
	tr := New("FocusGuard")
	if tr.Status() == "" {
		t.Error("new tray should have a status")
	}
	tr.SetStatus("Present · 82%")
	if got := tr.Status(); got != "Present · 82%" {
		t.Errorf("Status() = %q", got)
	}
}

func TestPauseTitle(t *testing.T) {
	if pauseTitle(true) == pauseTitle(false) {
		t.Error("titles should differ by state")
	}
}
