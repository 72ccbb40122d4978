package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"judolog/internal/models"
	"judolog/internal/services"
)

// maxImportSessions bounds one import request.
const maxImportSessions = 1000

// SessionInvalidator drops cached per-user lists after a bulk write.
type SessionInvalidator interface {
	Invalidate(ctx context.Context, userID int)
}

type MigrateHandler struct {
	db       *sqlx.DB
	encSvc   *services.EncryptionService
	sessions SessionInvalidator
	log      *zap.Logger
}

func NewMigrateHandler(db *sqlx.DB, encSvc *services.EncryptionService, sessions SessionInvalidator, log *zap.Logger) *MigrateHandler {
	return &MigrateHandler{db: db, encSvc: encSvc, sessions: sessions, log: log}
}

type MigrateRequest struct {
	Sessions []models.TrainingSession `json:"sessions"`
	Profile  *profileUpdate           `json:"profile"`
}

// MigrateData godoc
// @Summary Import offline data
// @Description Imports sessions recorded offline, plus optional profile fields, for the authenticated user. Either everything is saved or nothing is.
// @Tags migrate
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param data body MigrateRequest true "Sessions and profile"
// @Success 201 {object} map[string]interface{} "Data migrated successfully"
// @Failure 400 {string} string "Bad request"
// @Failure 500 {string} string "Internal server error"
// @Router /migrate [post]
func (h *MigrateHandler) MigrateData(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req MigrateRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if len(req.Sessions) == 0 && req.Profile == nil {
		http.Error(w, "no sessions or profile data provided", http.StatusBadRequest)
		return
	}
	if len(req.Sessions) > maxImportSessions {
		http.Error(w, fmt.Sprintf("at most %d sessions per import", maxImportSessions), http.StatusBadRequest)
		return
	}
	for i := range req.Sessions {
		if err := req.Sessions[i].Validate(); err != nil {
			http.Error(w, fmt.Sprintf("session %d: %v", i, err), http.StatusBadRequest)
			return
		}
	}

	ctx := r.Context()
	tx, err := h.db.BeginTxx(ctx, nil)
	if err != nil {
		http.Error(w, "could not start transaction", http.StatusInternalServerError)
		return
	}
	defer tx.Rollback()

	if req.Profile != nil {
		if sets, args := req.Profile.assignments(); len(sets) > 0 {
			args = append(args, userID)
			query := "UPDATE users SET " + strings.Join(sets, ", ") + fmt.Sprintf(" WHERE id=$%d", len(args))
			if _, err := tx.ExecContext(ctx, query, args...); err != nil {
				if isForeignKeyViolation(err) {
					http.Error(w, "club_id: no such club", http.StatusBadRequest)
					return
				}
				h.log.Error("import profile", zap.Int("user_id", userID), zap.Error(err))
				http.Error(w, "could not update user profile", http.StatusInternalServerError)
				return
			}
		}
	}

	if len(req.Sessions) > 0 {
		stmt, err := tx.PreparexContext(ctx, `
			INSERT INTO training_sessions (user_id, local_date, type, duration_minutes, intensity, notes)
			VALUES ($1, $2, $3, $4, $5, $6)`)
		if err != nil {
			http.Error(w, "could not prepare statement", http.StatusInternalServerError)
			return
		}
		defer stmt.Close()

		for i := range req.Sessions {
			s := req.Sessions[i]
			if err := h.encSvc.EncryptSession(&s); err != nil {
				h.log.Error("encrypt session", zap.Error(err))
				http.Error(w, "could not encrypt notes", http.StatusInternalServerError)
				return
			}
			if _, err := stmt.ExecContext(ctx, userID, s.LocalDate, s.Type, s.DurationMinutes, s.Intensity, s.Notes); err != nil {
				h.log.Error("import session", zap.Int("user_id", userID), zap.Int("index", i), zap.Error(err))
				http.Error(w, "could not save session", http.StatusInternalServerError)
				return
			}
		}
	}

	if err := tx.Commit(); err != nil {
		http.Error(w, "could not commit transaction", http.StatusInternalServerError)
		return
	}
	if len(req.Sessions) > 0 {
		h.sessions.Invalidate(ctx, userID)
	}
	h.log.Info("data imported", zap.Int("user_id", userID), zap.Int("sessions", len(req.Sessions)))

	writeJSON(w, http.StatusCreated, map[string]any{
		"message":  "Data migrated successfully",
		"imported": len(req.Sessions),
	})
}
