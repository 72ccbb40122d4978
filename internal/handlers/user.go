package handlers

import (
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"judolog/internal/models"
	"judolog/internal/roles"
	"judolog/internal/services"
)

type UserHandler struct {
	db     *sqlx.DB
	encSvc *services.EncryptionService
	roles  *roles.Store
	log    *zap.Logger
}

func NewUserHandler(db *sqlx.DB, encSvc *services.EncryptionService, rs *roles.Store, log *zap.Logger) *UserHandler {
	return &UserHandler{db: db, encSvc: encSvc, roles: rs, log: log}
}

// GetMe returns the current user's profile
func (h *UserHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var u models.User
	err := h.db.GetContext(r.Context(), &u, `
		SELECT id, email, email_blind_index, password_hash, created_at, first_name, last_name, belt_rank, club_id
		FROM users WHERE id=$1`, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			http.Error(w, "not found", http.StatusNotFound)
			return
		}
		writeError(w, r, h.log, err)
		return
	}
	if err := h.encSvc.DecryptUser(&u); err != nil {
		h.log.Error("decrypt user", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not decrypt user data", http.StatusInternalServerError)
		return
	}
	rs, err := h.roles.Roles(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, ToUserDTO(u, rs))
}

type profileUpdate struct {
	FirstName *string `json:"first_name"`
	LastName  *string `json:"last_name"`
	BeltRank  *string `json:"belt_rank"`
	ClubID    *int    `json:"club_id"`
}

// assignments builds the SET clause for the provided fields. A club_id of 0 clears the club.
func (p profileUpdate) assignments() ([]string, []any) {
	var sets []string
	var args []any
	add := func(col string, v any) {
		args = append(args, v)
		sets = append(sets, fmt.Sprintf("%s=$%d", col, len(args)))
	}
	if p.FirstName != nil {
		add("first_name", strings.TrimSpace(*p.FirstName))
	}
	if p.LastName != nil {
		add("last_name", strings.TrimSpace(*p.LastName))
	}
	if p.BeltRank != nil {
		add("belt_rank", strings.TrimSpace(*p.BeltRank))
	}
	if p.ClubID != nil {
		if *p.ClubID == 0 {
			sets = append(sets, "club_id=NULL")
		} else {
			add("club_id", *p.ClubID)
		}
	}
	return sets, args
}

// UpdateMe updates provided fields on the current user's profile
func (h *UserHandler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var body profileUpdate
	if !decodeBody(w, r, &body) {
		return
	}
	sets, args := body.assignments()
	if len(sets) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	args = append(args, userID)
	query := "UPDATE users SET " + strings.Join(sets, ", ") + fmt.Sprintf(" WHERE id=$%d", len(args))
	if _, err := h.db.ExecContext(r.Context(), query, args...); err != nil {
		if body.ClubID != nil && isForeignKeyViolation(err) {
			http.Error(w, "club_id: no such club", http.StatusBadRequest)
			return
		}
		h.log.Error("update profile", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not update", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
