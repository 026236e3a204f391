package store

import (
	"context"
	"database/sql"
	"errors"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/ayusman/focusguard/internal/session"
)

// DefaultHistoryLimit is the number of sessions returned when no limit is
// given.
const DefaultHistoryLimit = 50

// SessionRepository stores finished session records.
type SessionRepository struct {
	db *sql.DB
}

// Sessions returns the session repository for this store.
func (s *Store) Sessions() *SessionRepository {
	return &SessionRepository{db: s.db}
}

const sessionColumns = `id, subject, start_time, end_time, duration_mins, present_mins,
	absent_mins, focus_percentage, absences_count, grade`

// Create inserts r and assigns it a fresh ID.
func (r *SessionRepository) Create(ctx context.Context, rec *session.Record) error {
	if !rec.Grade.Valid() {
		rec.Grade = session.GradeFor(rec.FocusPercentage)
	}
	id := uuid.NewString()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO sessions (`+sessionColumns+`, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, rec.Subject, rec.StartTime.UTC(), rec.EndTime.UTC(), rec.DurationMins,
		rec.PresentMins, rec.AbsentMins, rec.FocusPercentage, rec.AbsencesCount,
		string(rec.Grade), time.Now().UTC(),
	)
	if err != nil {
		return err
	}
	rec.ID = id
	return nil
}

// GetByID retrieves a session by its ID.
func (r *SessionRepository) GetByID(ctx context.Context, id string) (*session.Record, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+sessionColumns+` FROM sessions WHERE id = ?`, id)

	rec, err := scanSession(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// ListOptions filters a session listing.
type ListOptions struct {
	// Limit caps the result; zero or negative means DefaultHistoryLimit.
	Limit int
	// Subject, if set, restricts the listing to one subject.
	Subject string
}

// List returns sessions most recently saved first.
func (r *SessionRepository) List(ctx context.Context, opts ListOptions) ([]*session.Record, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	query := `SELECT ` + sessionColumns + ` FROM sessions`
	args := []any{}
	if opts.Subject != "" {
		query += ` WHERE subject = ?`
		args = append(args, opts.Subject)
	}
	query += ` ORDER BY created_at DESC, rowid DESC LIMIT ?`
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := []*session.Record{}
	for rows.Next() {
		rec, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a session by its ID.
func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return err
	}
	return expectOne(result)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSession(row scanner) (*session.Record, error) {
	rec := &session.Record{}
	var grade string
	err := row.Scan(&rec.ID, &rec.Subject, &rec.StartTime, &rec.EndTime, &rec.DurationMins,
		&rec.PresentMins, &rec.AbsentMins, &rec.FocusPercentage, &rec.AbsencesCount, &grade)
	if err != nil {
		return nil, err
	}
	rec.Grade = session.Grade(grade)
	return rec, nil
}

// Stats summarizes a window of session history.
type Stats struct {
	Sessions       int     `json:"sessions"`
	TotalFocusMins float64 `json:"total_focus_mins"`
	AverageFocus   float64 `json:"average_focus"`
	// Level grows by one for every hour of present time.
	Level int `json:"level"`
	// LevelProgress is the percentage of the way to the next level.
	LevelProgress float64 `json:"level_progress"`
	// Hearts is the average focus on a 0-10 scale, rounded up.
	Hearts int `json:"hearts"`
}

// Summarize computes Stats over records.
func Summarize(records []*session.Record) Stats {
	var st Stats
	var focusSum float64
	for _, rec := range records {
		st.Sessions++
		st.TotalFocusMins += rec.PresentMins
		focusSum += rec.FocusPercentage
	}
	if st.Sessions > 0 {
		st.AverageFocus = focusSum / float64(st.Sessions)
	}
	st.Level = int(math.Floor(st.TotalFocusMins/60)) + 1
	st.LevelProgress = math.Mod(st.TotalFocusMins, 60) / 60 * 100
	st.Hearts = int(math.Ceil(st.AverageFocus / 10))
	return st
}

// Stats summarizes the most recent sessions, using the same window as List.
func (r *SessionRepository) Stats(ctx context.Context, opts ListOptions) (Stats, error) {
	records, err := r.List(ctx, opts)
	if err != nil {
		return Stats{}, err
	}
	return Summarize(records), nil
}
