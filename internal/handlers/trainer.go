package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"judolog/internal/activity"
	"judolog/internal/models"
	"judolog/internal/notification"
	"judolog/internal/roles"
)

type SessionLister interface {
	List(ctx context.Context, userID int) ([]models.TrainingSession, error)
}

type TrainerHandler struct {
	db            *sqlx.DB
	roles         *roles.Store
	sessions      SessionLister
	notifications *notification.Store
	log           *zap.Logger
	now           func() time.Time
}

func NewTrainerHandler(db *sqlx.DB, rs *roles.Store, sessions SessionLister, notifications *notification.Store, log *zap.Logger) *TrainerHandler {
	return &TrainerHandler{db: db, roles: rs, sessions: sessions, notifications: notifications, log: log, now: time.Now}
}

type athleteView struct {
	roles.AssignedAthlete
	WeeklyCount    int             `json:"weekly_sessions_count"`
	ActivityStatus activity.Status `json:"activity_status"`
}

// Athletes lists the trainer's athletes with their activity status as of local_date.
func (h *TrainerHandler) Athletes(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	ref, ok := referenceDate(w, r, h.now)
	if !ok {
		return
	}
	athletes, err := h.roles.Athletes(r.Context(), trainerID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	ids := make([]int, len(athletes))
	for i, a := range athletes {
		ids[i] = a.ID
	}
	byAthlete, err := h.windowDates(r.Context(), ids, ref)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	out := make([]athleteView, len(athletes))
	for i, a := range athletes {
		res := activity.ClassifyTimes(byAthlete[a.ID], ref)
		out[i] = athleteView{AssignedAthlete: a, WeeklyCount: res.WeeklyCount, ActivityStatus: res.Status}
	}
	writeJSON(w, http.StatusOK, out)
}

// windowDates loads the session dates in the classifier window for all ids in one query.
func (h *TrainerHandler) windowDates(ctx context.Context, ids []int, ref time.Time) (map[int][]time.Time, error) {
	out := make(map[int][]time.Time, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	from := ref.AddDate(0, 0, -(activity.WindowDays - 1))
	query, args, err := sqlx.In(`
		SELECT user_id, local_date FROM training_sessions
		WHERE user_id IN (?) AND local_date BETWEEN ? AND ?`, ids, from, ref)
	if err != nil {
		return nil, fmt.Errorf("build window query: %w", err)
	}
	var rows []struct {
		UserID    int       `db:"user_id"`
		LocalDate time.Time `db:"local_date"`
	}
	if err := h.db.SelectContext(ctx, &rows, h.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("window dates: %w", err)
	}
	for _, row := range rows {
		out[row.UserID] = append(out[row.UserID], activity.Day(row.LocalDate, time.UTC))
	}
	return out, nil
}

type assignRequest struct {
	AthleteID int `json:"athlete_id"`
}

func (h *TrainerHandler) Assign(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	var req assignRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.AthleteID <= 0 {
		http.Error(w, "athlete_id required", http.StatusBadRequest)
		return
	}
	if err := h.roles.AssignAthlete(r.Context(), trainerID, req.AthleteID); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	// The assignment stands even if the athlete is not told about it.
	if _, err := h.notifications.Create(r.Context(), req.AthleteID, notification.KindAssignment,
		"New trainer", "A trainer can now follow your training sessions."); err != nil {
		h.log.Warn("assignment notification", zap.Int("athlete_id", req.AthleteID), zap.Error(err))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TrainerHandler) Unassign(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}
	if err := h.roles.UnassignAthlete(r.Context(), trainerID, athleteID); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// AthleteSessions lists an assigned athlete's sessions.
func (h *TrainerHandler) AthleteSessions(w http.ResponseWriter, r *http.Request) {
	trainerID, ok := currentUser(w, r)
	if !ok {
		return
	}
	athleteID, ok := pathID(w, r, "athleteID")
	if !ok {
		return
	}
	coaches, err := h.roles.Coaches(r.Context(), trainerID, athleteID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	if !coaches {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	out, err := h.sessions.List(r.Context(), athleteID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
