package handlers

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"judolog/internal/achievement"
)

type AchievementHandler struct {
	svc *achievement.Service
	log *zap.Logger
	now func() time.Time
}

func NewAchievementHandler(svc *achievement.Service, log *zap.Logger) *AchievementHandler {
	return &AchievementHandler{svc: svc, log: log, now: time.Now}
}

// List returns the active catalog with the user's progress toward each badge.
func (h *AchievementHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	ref, ok := referenceDate(w, r, h.now)
	if !ok {
		return
	}
	out, err := h.svc.Status(r.Context(), userID, ref)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *AchievementHandler) Earned(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	out, err := h.svc.Earned(r.Context(), userID)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Evaluate awards any count or streak badge the user now qualifies for.
func (h *AchievementHandler) Evaluate(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	ref, ok := referenceDate(w, r, h.now)
	if !ok {
		return
	}
	awarded, err := h.svc.Evaluate(r.Context(), userID, ref, nil)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"awarded": awarded})
}

func (h *AchievementHandler) MarkNotified(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	if err := h.svc.MarkNotified(r.Context(), userID, id); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
