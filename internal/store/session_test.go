package store

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/ayusman/focusguard/internal/session"
)

var base = time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

func sampleRecord(subject string, start time.Time, present, absent float64) *session.Record {
	focus := session.FocusPercentage(
		time.Duration(present*float64(time.Minute)),
		time.Duration(absent*float64(time.Minute)),
	)
	return &session.Record{
		Subject:         subject,
		StartTime:       start,
		EndTime:         start.Add(time.Duration(present+absent) * time.Minute),
		DurationMins:    int(present + absent),
		PresentMins:     present,
		AbsentMins:      absent,
		FocusPercentage: focus,
		AbsencesCount:   1,
		Grade:           session.GradeFor(focus),
	}
}

func TestSessionRepository_CreateAndGet(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	rec := sampleRecord("Maths", base, 45, 15)
	if err := repo.Create(ctx, rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("Create should assign an ID")
	}

	got, err := repo.GetByID(ctx, rec.ID)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if got.Subject != "Maths" {
		t.Errorf("Subject = %q, want Maths", got.Subject)
	}
	if got.PresentMins != 45 || got.AbsentMins != 15 {
		t.Errorf("minutes = %v/%v, want 45/15", got.PresentMins, got.AbsentMins)
	}
	if got.FocusPercentage != 75 {
		t.Errorf("FocusPercentage = %v, want 75", got.FocusPercentage)
	}
	if got.Grade != session.GradeGreat {
		t.Errorf("Grade = %q, want great", got.Grade)
	}
	if !got.StartTime.Equal(base) {
		t.Errorf("StartTime = %v, want %v", got.StartTime, base)
	}
}

func TestSessionRepository_SaveRecordImplementsRecorder(t *testing.T) {
	s := newTestStore(t)
	var rec session.Recorder = s

	r := sampleRecord("Physics", base, 30, 0)
	if err := rec.SaveRecord(context.Background(), r); err != nil {
		t.Fatalf("SaveRecord: %v", err)
	}
	if r.ID == "" {
		t.Error("SaveRecord should assign an ID")
	}
}

func TestSessionRepository_CreateFillsMissingGrade(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	r := sampleRecord("Maths", base, 50, 50)
	r.Grade = ""
	if err := s.Sessions().Create(ctx, r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if r.Grade != session.GradeNeedsWork {
		t.Errorf("Grade = %q, want needs_work", r.Grade)
	}
}

func TestSessionRepository_GetMissing(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Sessions().GetByID(context.Background(), "nope")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestSessionRepository_ListNewestFirst(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	for i, subject := range []string{"Maths", "Physics", "Maths"} {
		r := sampleRecord(subject, base.Add(time.Duration(i)*time.Hour), 40, 20)
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	all, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("len = %d, want 3", len(all))
	}
	for i := 1; i < len(all); i++ {
		if all[i].StartTime.After(all[i-1].StartTime) {
			t.Errorf("records not in reverse save order at %d", i)
		}
	}

	maths, err := repo.List(ctx, ListOptions{Subject: "Maths"})
	if err != nil {
		t.Fatalf("List subject: %v", err)
	}
	if len(maths) != 2 {
		t.Errorf("maths len = %d, want 2", len(maths))
	}

	limited, err := repo.List(ctx, ListOptions{Limit: 1})
	if err != nil {
		t.Fatalf("List limit: %v", err)
	}
	if len(limited) != 1 || !limited[0].StartTime.Equal(base.Add(2*time.Hour)) {
		t.Errorf("limited = %+v, want the newest record", limited)
	}
}

func TestSessionRepository_ListInSaveOrder(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	today := sampleRecord("Maths", base, 40, 20)
	backdated := sampleRecord("Physics", base.Add(-48*time.Hour), 40, 20)
	for _, r := range []*session.Record{today, backdated} {
		if err := repo.Create(ctx, r); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	got, err := repo.List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != 2 || got[0].ID != backdated.ID || got[1].ID != today.ID {
		t.Errorf("order = %v, want the back-dated record first since it was saved last", subjects(got))
	}
}

func subjects(records []*session.Record) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = r.Subject
	}
	return out
}

func TestSessionRepository_ListEmpty(t *testing.T) {
	s := newTestStore(t)

	got, err := s.Sessions().List(context.Background(), ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Errorf("List = %v, want empty non-nil slice", got)
	}
}

func TestSessionRepository_ListDefaultLimit(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping bulk insert in short mode")
	}
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < DefaultHistoryLimit+5; i++ {
		if err := s.Sessions().Create(ctx, sampleRecord("Maths", base.Add(time.Duration(i)*time.Minute), 1, 0)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	got, err := s.Sessions().List(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(got) != DefaultHistoryLimit {
		t.Errorf("len = %d, want %d", len(got), DefaultHistoryLimit)
	}
}

func TestSessionRepository_Delete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()
	repo := s.Sessions()

	r := sampleRecord("Maths", base, 10, 0)
	if err := repo.Create(ctx, r); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := repo.Delete(ctx, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := repo.GetByID(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("GetByID after delete: %v, want ErrNotFound", err)
	}
	if err := repo.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Errorf("second Delete: %v, want ErrNotFound", err)
	}
}

func TestSummarize(t *testing.T) {
	records := []*session.Record{
		{PresentMins: 50, FocusPercentage: 80},
		{PresentMins: 40, FocusPercentage: 61},
	}
	st := Summarize(records)

	if st.Sessions != 2 {
		t.Errorf("Sessions = %d, want 2", st.Sessions)
	}
	if st.TotalFocusMins != 90 {
		t.Errorf("TotalFocusMins = %v, want 90", st.TotalFocusMins)
	}
	if math.Abs(st.AverageFocus-70.5) > 1e-9 {
		t.Errorf("AverageFocus = %v, want 70.5", st.AverageFocus)
	}
	if st.Level != 2 {
		t.Errorf("Level = %d, want 2", st.Level)
	}
	if math.Abs(st.LevelProgress-50) > 1e-9 {
		t.Errorf("LevelProgress = %v, want 50", st.LevelProgress)
	}
	if st.Hearts != 8 {
		t.Errorf("Hearts = %d, want 8", st.Hearts)
	}
}

func TestSummarize_Empty(t *testing.T) {
	st := Summarize(nil)
	if st.Level != 1 || st.Sessions != 0 || st.AverageFocus != 0 || st.Hearts != 0 {
		t.Errorf("Summarize(nil) = %+v", st)
	}
}

func TestSessionRepository_Stats(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		if err := s.Sessions().Create(ctx, sampleRecord("Maths", base.Add(time.Duration(i)*time.Hour), 30, 10)); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}
	st, err := s.Sessions().Stats(ctx, ListOptions{})
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if st.Sessions != 3 || st.TotalFocusMins != 90 || st.Level != 2 {
		t.Errorf("Stats = %+v", st)
	}
}
