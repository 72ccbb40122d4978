package crud_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"judolog/internal/apperr"
	"judolog/internal/crud"
	"judolog/internal/models"
	"judolog/internal/testutil"
)

var sessionTable = crud.Table{
	Name:    "training_sessions",
	Columns: []string{"local_date", "type", "duration_minutes", "intensity", "notes"},
	OrderBy: "local_date DESC, id DESC",
}

func TestSQLStoreLifecycle(t *testing.T) {
	conn := testutil.DB(t)
	ctx := context.Background()
	userID := testutil.SeedUser(t, conn)
	other := testutil.SeedUser(t, conn)

	hooks := crud.Hooks[models.TrainingSession]{
		BeforeSave: func(s *models.TrainingSession) error { s.Notes = strings.ToUpper(s.Notes); return nil },
		AfterLoad:  func(s *models.TrainingSession) error { s.Notes = strings.ToLower(s.Notes); return nil },
	}
	store := crud.NewSQLStore[models.TrainingSession, *models.TrainingSession](conn, sessionTable, hooks)

	s := models.TrainingSession{LocalDate: models.NewDate(2024, 3, 15), Type: "randori", DurationMinutes: 90, Notes: "tired"}
	if err := store.Create(ctx, userID, &s); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if s.ID == 0 || s.UserID != userID || s.CreatedAt.IsZero() {
		t.Fatalf("created row not returned: %+v", s)
	}
	if s.Notes != "tired" {
		t.Fatalf("notes after hooks: got=%q", s.Notes)
	}

	var raw string
	if err := conn.Get(&raw, `SELECT notes FROM training_sessions WHERE id=$1`, s.ID); err != nil {
		t.Fatalf("raw select: %v", err)
	}
	if raw != "TIRED" {
		t.Fatalf("BeforeSave not applied: got=%q", raw)
	}

	s.DurationMinutes = 60
	if err := store.Update(ctx, userID, s.ID, &s); err != nil {
		t.Fatalf("Update: %v", err)
	}
	got, err := store.Get(ctx, userID, s.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.DurationMinutes != 60 || got.LocalDate.String() != "2024-03-15" {
		t.Fatalf("Get: got=%+v", got)
	}

	if _, err := store.Get(ctx, other, s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Get other user: want ErrNotFound got=%v", err)
	}
	if err := store.Delete(ctx, other, s.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("Delete other user: want ErrNotFound got=%v", err)
	}

	list, err := store.List(ctx, userID)
	if err != nil || len(list) != 1 {
		t.Fatalf("List: len=%d err=%v", len(list), err)
	}
	if err := store.Delete(ctx, userID, s.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
}

func TestSQLStoreCascadeDeletesExercises(t *testing.T) {
	conn := testutil.DB(t)
	ctx := context.Background()
	userID := testutil.SeedUser(t, conn)

	sessions := crud.NewSQLStore[models.TrainingSession, *models.TrainingSession](conn, sessionTable, crud.Hooks[models.TrainingSession]{})
	exercises := crud.NewSQLStore[models.Exercise, *models.Exercise](conn, crud.Table{
		Name:    "exercises",
		Columns: []string{"session_id", "name", "sets", "reps", "duration_minutes", "notes"},
	}, crud.Hooks[models.Exercise]{})

	s := models.TrainingSession{LocalDate: models.NewDate(2024, 3, 15), Type: "uchikomi", DurationMinutes: 30}
	if err := sessions.Create(ctx, userID, &s); err != nil {
		t.Fatalf("Create session: %v", err)
	}
	e := models.Exercise{SessionID: s.ID, Name: "uchikomi seoi nage", Sets: 5, Reps: 20}
	if err := exercises.Create(ctx, userID, &e); err != nil {
		t.Fatalf("Create exercise: %v", err)
	}
	if err := sessions.Delete(ctx, userID, s.ID); err != nil {
		t.Fatalf("Delete session: %v", err)
	}
	if _, err := exercises.Get(ctx, userID, e.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("exercise should cascade: got=%v", err)
	}

	bad := models.Exercise{SessionID: s.ID, Name: "orphan"}
	if err := exercises.Create(ctx, userID, &bad); !apperr.IsValidation(err) {
		t.Fatalf("missing session: want ValidationError got=%v", err)
	}
}
