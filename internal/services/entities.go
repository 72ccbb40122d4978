package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"judolog/internal/apperr"
	"judolog/internal/cache"
	"judolog/internal/crud"
	"judolog/internal/models"
)

const (
	EntitySessions      = "sessions"
	EntityExercises     = "exercises"
	EntityTechniques    = "techniques"
	EntityTacticalNotes = "tactical-notes"
	EntityClubs         = "clubs"
)

var (
	sessionsTable = crud.Table{
		Name:    "training_sessions",
		Columns: []string{"local_date", "type", "duration_minutes", "intensity", "notes"},
		OrderBy: "local_date DESC, id DESC",
	}
	exercisesTable = crud.Table{
		Name:    "exercises",
		Columns: []string{"session_id", "name", "sets", "reps", "duration_minutes", "notes"},
		OrderBy: "session_id DESC, id",
	}
	techniquesTable = crud.Table{
		Name:    "techniques",
		Columns: []string{"name", "category", "description", "key_points", "video_url", "image_url"},
		OrderBy: "name, id",
	}
	tacticalNotesTable = crud.Table{
		Name:    "tactical_notes",
		Columns: []string{"title", "category", "opponent", "content", "media_url"},
		OrderBy: "updated_at DESC, id DESC",
	}
	clubsTable = crud.Table{
		Name:    "clubs",
		Columns: []string{"name", "city", "description"},
		OrderBy: "name, id",
	}
)

// Entities holds the CRUD service for every user-owned entity.
type Entities struct {
	Sessions      *crud.Service[models.TrainingSession, *models.TrainingSession]
	Exercises     *crud.Service[models.Exercise, *models.Exercise]
	Techniques    *crud.Service[models.Technique, *models.Technique]
	TacticalNotes *crud.Service[models.TacticalNote, *models.TacticalNote]
	Clubs         *crud.Service[models.Club, *models.Club]
}

func NewEntities(db *sqlx.DB, enc *EncryptionService, c cache.Cache, ttl time.Duration, log *zap.Logger) *Entities {
	sessionStore := crud.NewSQLStore[models.TrainingSession, *models.TrainingSession](db, sessionsTable, crud.Hooks[models.TrainingSession]{
		BeforeSave: enc.EncryptSession,
		AfterLoad:  enc.DecryptSession,
	})
	exerciseStore := crud.NewSQLStore[models.Exercise, *models.Exercise](db, exercisesTable, crud.Hooks[models.Exercise]{
		Check: func(ctx context.Context, userID int, e *models.Exercise) error {
			return checkSessionOwner(ctx, db, userID, e.SessionID)
		},
	})
	techniqueStore := crud.NewSQLStore[models.Technique, *models.Technique](db, techniquesTable, crud.Hooks[models.Technique]{})
	noteStore := crud.NewSQLStore[models.TacticalNote, *models.TacticalNote](db, tacticalNotesTable, crud.Hooks[models.TacticalNote]{
		BeforeSave: enc.EncryptNote,
		AfterLoad:  enc.DecryptNote,
	})
	clubStore := crud.NewSQLStore[models.Club, *models.Club](db, clubsTable, crud.Hooks[models.Club]{})

	return &Entities{
		Sessions: crud.NewService[models.TrainingSession, *models.TrainingSession](
			EntitySessions, sessionStore, c, log, crud.WithTTL(ttl), crud.WithDependents(EntityExercises)),
		Exercises: crud.NewService[models.Exercise, *models.Exercise](
			EntityExercises, exerciseStore, c, log, crud.WithTTL(ttl)),
		Techniques: crud.NewService[models.Technique, *models.Technique](
			EntityTechniques, techniqueStore, c, log, crud.WithTTL(ttl)),
		TacticalNotes: crud.NewService[models.TacticalNote, *models.TacticalNote](
			EntityTacticalNotes, noteStore, c, log, crud.WithTTL(ttl)),
		Clubs: crud.NewService[models.Club, *models.Club](
			EntityClubs, clubStore, c, log, crud.WithTTL(ttl)),
	}
}

func checkSessionOwner(ctx context.Context, db *sqlx.DB, userID, sessionID int) error {
	var ok bool
	if err := db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM training_sessions WHERE id=$1 AND user_id=$2)`, sessionID, userID); err != nil {
		return fmt.Errorf("check session owner: %w", err)
	}
	if !ok {
		return apperr.Invalid("session_id", "no such session")
	}
	return nil
}
