// Package report renders sessions, history and stats for the terminal.
package report

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-runewidth"

	"github.com/ayusman/focusguard/internal/session"
	"github.com/ayusman/focusguard/internal/store"
)

// BarWidth is the number of cells in the level progress bar.
const BarWidth = 20

// SubjectWidth is the widest subject name shown in tables.
const SubjectWidth = 18

// MaxHearts is the number of hearts shown for 100% average focus.
const MaxHearts = 10

var (
	titleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#C89A3A")).Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardStyle  = lipgloss.NewStyle().
			Padding(0, 1).
			Border(lipgloss.RoundedBorder(), true).
			BorderForeground(lipgloss.Color("#4A4A4A"))
	cardTitleStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#8C8C8C"))
	cardValueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#F0F0F0")).Bold(true)
	barFullStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#52C41A"))
	barEmptyStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#4A4A4A"))
	heartStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF4D4F"))
	celebrateStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FADB14")).Bold(true)
	headerStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#C0C0C0")).Bold(true).Padding(0, 1)
	cellStyle      = lipgloss.NewStyle().Padding(0, 1)
)

var gradeColors = map[session.Grade]lipgloss.Color{
	session.GradeExcellent: lipgloss.Color("#52C41A"),
	session.GradeGreat:     lipgloss.Color("#1890FF"),
	session.GradeGood:      lipgloss.Color("#FAAD14"),
	session.GradeNeedsWork: lipgloss.Color("#FF4D4F"),
}

// GradeBadge renders a grade label in its color.
func GradeBadge(g session.Grade) string {
	c, ok := gradeColors[g]
	if !ok {
		c = gradeColors[session.GradeNeedsWork]
	}
	return lipgloss.NewStyle().Foreground(c).Bold(true).Render(g.Label())
}

// Record renders the summary shown when a session ends.
func Record(r *session.Record) string {
	cards := []string{
		metricCard("Duration", fmt.Sprintf("%d min", r.DurationMins)),
		metricCard("Present", fmt.Sprintf("%.1f min", r.PresentMins)),
		metricCard("Absent", fmt.Sprintf("%.1f min", r.AbsentMins)),
		metricCard("Focus", fmt.Sprintf("%.1f%%", r.FocusPercentage)),
		metricCard("Absences", fmt.Sprintf("%d", r.AbsencesCount)),
	}
	lines := []string{
		titleStyle.Render(r.Subject) + "  " + GradeBadge(r.Grade),
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
	}
	if r.Celebrate() {
		lines = append(lines, Celebration(r))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

// Celebration returns the line printed for a high-focus session.
func Celebration(r *session.Record) string {
	return celebrateStyle.Render(fmt.Sprintf("🎉 %.1f%% focus on %s. Keep it up!", r.FocusPercentage, r.Subject))
}

func metricCard(label, value string) string {
	content := fmt.Sprintf("%s\n%s", cardTitleStyle.Render(label), cardValueStyle.Render(value))
	return cardStyle.Render(content)
}

// History renders records as a table, newest first as given.
func History(records []*session.Record) string {
	if len(records) == 0 {
		return mutedStyle.Render("No sessions yet.")
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(barEmptyStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("Date", "Subject", "Duration", "Focus", "Absences", "Grade")
	for _, r := range records {
		t.Row(
			r.StartTime.Local().Format("2006-01-02 15:04"),
			Truncate(r.Subject),
			fmt.Sprintf("%d min", r.DurationMins),
			fmt.Sprintf("%.1f%%", r.FocusPercentage),
			fmt.Sprintf("%d", r.AbsencesCount),
			r.Grade.Label(),
		)
	}
	return t.Render()
}

// Stats renders the dashboard summary: level, progress and hearts.
func Stats(st store.Stats) string {
	cards := []string{
		metricCard("Sessions", fmt.Sprintf("%d", st.Sessions)),
		metricCard("Focus time", formatMinutes(st.TotalFocusMins)),
		metricCard("Avg focus", fmt.Sprintf("%.1f%%", st.AverageFocus)),
	}
	level := fmt.Sprintf("%s %s %s",
		titleStyle.Render(fmt.Sprintf("Level %d", st.Level)),
		Bar(st.LevelProgress, BarWidth),
		mutedStyle.Render(fmt.Sprintf("%.0f%%", st.LevelProgress)))
	return lipgloss.JoinVertical(lipgloss.Left,
		lipgloss.JoinHorizontal(lipgloss.Top, cards...),
		level,
		Hearts(st.Hearts),
	)
}

// Truncate shortens a subject name to SubjectWidth terminal cells.
func Truncate(name string) string {
	return runewidth.Truncate(name, SubjectWidth, "…")
}

// Bar renders a progress bar of width cells for pct in [0, 100].
func Bar(pct float64, width int) string {
	full := int(pct / 100 * float64(width))
	full = max(0, min(full, width))
	return barFullStyle.Render(strings.Repeat("█", full)) +
		barEmptyStyle.Render(strings.Repeat("░", width-full))
}

// Hearts renders n filled hearts out of MaxHearts.
func Hearts(n int) string {
	n = max(0, min(n, MaxHearts))
	return heartStyle.Render(strings.Repeat("♥", n)) +
		barEmptyStyle.Render(strings.Repeat("♡", MaxHearts-n))
}

// Subjects renders the subject presets, marking the default.
func Subjects(list []session.SubjectConfig, current string) string {
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(barEmptyStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		}).
		Headers("", "Subject", "Target", "Warning", "Alarm")
	for _, c := range list {
		mark := ""
		if c.Name == current {
			mark = "*"
		}
		t.Row(mark, Truncate(c.Name), formatMinutes(c.DurationTarget.Minutes()), c.WarningDelay.String(), c.AlarmDelay.String())
	}
	return t.Render()
}

// Status renders a one-line live status for the monitor.
func Status(s session.Snapshot) string {
	state := s.State.Label()
	if s.Paused {
		state = "Paused"
	}
	parts := []string{
		titleStyle.Render(s.Subject),
		state,
		"session " + formatClock(s.SessionTime),
		fmt.Sprintf("focus %.1f%%", s.FocusPercentage),
		fmt.Sprintf("absences %d", s.Absences),
	}
	if s.ElapsedAbsence > 0 {
		parts = append(parts, "away "+formatClock(s.ElapsedAbsence))
	}
	return strings.Join(parts, mutedStyle.Render(" | "))
}

func formatMinutes(mins float64) string {
	if mins < 60 {
		return fmt.Sprintf("%.0f min", mins)
	}
	return fmt.Sprintf("%dh %02dm", int(mins)/60, int(mins)%60)
}

func formatClock(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d / time.Hour)
	m := int(d%time.Hour) / int(time.Minute)
	s := int(d%time.Minute) / int(time.Second)
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
