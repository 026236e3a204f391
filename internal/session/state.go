// Package session tracks user presence over a study session, fires warning and
// alarm side effects, and grades the finished session.
package session

// State is the presence state of the tracked user.
type State string

const (
	// StateUnknown is the state before any sample has been ingested.
	StateUnknown State = "unknown"
	// StatePresent means the last sample saw the user.
	StatePresent State = "present"
	// StateWarning means the user has been away longer than the warning delay.
	StateWarning State = "warning"
	// StateAbsent means the user has been away longer than the alarm delay.
	StateAbsent State = "absent"
)

// Label returns the HUD text for the state.
func (s State) Label() string {
	switch s {
	case StatePresent:
		return "PRESENT"
	case StateWarning:
		return "WARNING"
	case StateAbsent:
		return "ABSENT"
	default:
		return "DETECTING..."
	}
}
