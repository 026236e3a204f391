package gesture

import "time"

// Cooldowns for commands that would otherwise repeat every frame.
const (
	ColorCooldown = 1000 * time.Millisecond
	SaveCooldown  = 2000 * time.Millisecond
)

// Cooldown returns the cooldown for kind, or 0 for commands that are never
// debounced.
func Cooldown(kind Kind) time.Duration {
	switch kind {
	case KindSelectColor:
		return ColorCooldown
	case KindSave:
		return SaveCooldown
	default:
		return 0
	}
}

// Debouncer rate-limits repeat-triggering commands. It remembers when each
// kind last fired for the life of the drawing session.
//
// A Debouncer is not safe for concurrent use.
type Debouncer struct {
	last map[Kind]time.Time
}

// NewDebouncer returns an empty Debouncer.
func NewDebouncer() *Debouncer {
	return &Debouncer{last: make(map[Kind]time.Time)}
}

// ShouldFire reports whether kind may fire at now. It fires when kind has
// never fired or more than cooldown has passed since it last did, and then
// records now.
func (d *Debouncer) ShouldFire(kind Kind, now time.Time, cooldown time.Duration) bool {
	if last, ok := d.last[kind]; ok && now.Sub(last) <= cooldown {
		return false
	}
	d.last[kind] = now
	return true
}

// Allow applies the standard cooldown for cmd. Commands without a cooldown
// always pass and are not recorded.
func (d *Debouncer) Allow(cmd Command, now time.Time) bool {
	cooldown := Cooldown(cmd.Kind)
	if cooldown == 0 {
		return true
	}
	return d.ShouldFire(cmd.Kind, now, cooldown)
}

// Reset forgets every recorded firing.
func (d *Debouncer) Reset() {
	clear(d.last)
}
