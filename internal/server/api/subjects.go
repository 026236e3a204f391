package api

import (
	"net/http"

	"github.com/ayusman/focusguard/internal/session"
)

// SubjectHandler serves GET /api/subjects.
type SubjectHandler struct {
	subjects *session.Subjects
}

// NewSubjectHandler creates a SubjectHandler over subjects.
func NewSubjectHandler(subjects *session.Subjects) *SubjectHandler {
	return &SubjectHandler{subjects: subjects}
}

type subjectResponse struct {
	Name          string  `json:"name"`
	DurationMins  float64 `json:"duration_mins"`
	WarningDelayS float64 `json:"warning_delay_secs"`
	AlarmDelayS   float64 `json:"alarm_delay_secs"`
}

type listSubjectsResponse struct {
	Subjects []subjectResponse `json:"subjects"`
	Default  string            `json:"default"`
}

func (h *SubjectHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	configs := h.subjects.List()
	resp := listSubjectsResponse{
		Subjects: make([]subjectResponse, 0, len(configs)),
		Default:  session.DefaultSubject,
	}
	for _, c := range configs {
		resp.Subjects = append(resp.Subjects, subjectResponse{
			Name:          c.Name,
			DurationMins:  c.DurationTarget.Minutes(),
			WarningDelayS: c.WarningDelay.Seconds(),
			AlarmDelayS:   c.AlarmDelay.Seconds(),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}
