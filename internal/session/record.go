package session

import (
	"math"
	"time"
)

// Grade is the letter-free rating of a finished session.
type Grade string

const (
	GradeExcellent Grade = "excellent"
	GradeGreat     Grade = "great"
	GradeGood      Grade = "good"
	GradeNeedsWork Grade = "needs_work"
)

// Grade thresholds, inclusive lower bounds on the focus percentage.
const (
	ExcellentThreshold = 90.0
	GreatThreshold     = 75.0
	GoodThreshold      = 60.0

	// CelebrateThreshold is the focus percentage worth a celebration.
	CelebrateThreshold = 80.0
)

// GradeFor maps a focus percentage to a grade.
func GradeFor(focus float64) Grade {
	switch {
	case focus >= ExcellentThreshold:
		return GradeExcellent
	case focus >= GreatThreshold:
		return GradeGreat
	case focus >= GoodThreshold:
		return GradeGood
	default:
		return GradeNeedsWork
	}
}

// Label returns the display text of the grade.
func (g Grade) Label() string {
	switch g {
	case GradeExcellent:
		return "🏆 EXCELLENT"
	case GradeGreat:
		return "⭐ GREAT"
	case GradeGood:
		return "👍 GOOD"
	default:
		return "💪 NEEDS WORK"
	}
}

// Valid reports whether g is one of the known grades.
func (g Grade) Valid() bool {
	switch g {
	case GradeExcellent, GradeGreat, GradeGood, GradeNeedsWork:
		return true
	}
	return false
}

// Record is the immutable summary of a finished session.
type Record struct {
	ID              string    `json:"id,omitempty"`
	Subject         string    `json:"subject"`
	StartTime       time.Time `json:"start_time"`
	EndTime         time.Time `json:"end_time"`
	DurationMins    int       `json:"duration_mins"`
	PresentMins     float64   `json:"present_mins"`
	AbsentMins      float64   `json:"absent_mins"`
	FocusPercentage float64   `json:"focus_percentage"`
	AbsencesCount   int       `json:"absences_count"`
	Grade           Grade     `json:"grade"`

	// focus is the unrounded percentage of a freshly finalized session.
	focus float64
}

// Celebrate reports whether the session earned a celebration. Records from
// Finalize decide on the unrounded percentage, others on FocusPercentage.
func (r *Record) Celebrate() bool {
	focus := r.FocusPercentage
	if r.focus != 0 {
		focus = r.focus
	}
	return focus >= CelebrateThreshold
}

// FocusPercentage returns present/(present+absent)*100, or 0 when nothing
// has been tracked.
func FocusPercentage(present, absent time.Duration) float64 {
	total := present + absent
	if total <= 0 {
		return 0
	}
	return float64(present) / float64(total) * 100
}

func round1(v float64) float64 {
	return roundHalfUp(v*10) / 10
}

// roundHalfUp rounds halves towards +Inf.
func roundHalfUp(v float64) float64 {
	return math.Floor(v + 0.5)
}
