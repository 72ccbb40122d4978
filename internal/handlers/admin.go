package handlers

import (
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"judolog/internal/achievement"
	"judolog/internal/roles"
)

// AdminHandler serves /admin routes; callers are gated by RequireRole(admin).
type AdminHandler struct {
	db           *sqlx.DB
	roles        *roles.Store
	achievements *achievement.Service
	log          *zap.Logger
	now          func() time.Time
}

func NewAdminHandler(db *sqlx.DB, rs *roles.Store, achievements *achievement.Service, log *zap.Logger) *AdminHandler {
	return &AdminHandler{db: db, roles: rs, achievements: achievements, log: log, now: time.Now}
}

type adminOverview struct {
	TotalUsers          int `db:"total_users" json:"total_users"`
	TotalSessions       int `db:"total_sessions" json:"total_sessions"`
	ActiveUsersThisWeek int `db:"active_users_this_week" json:"active_users_this_week"`
	SessionsThisWeek    int `db:"sessions_this_week" json:"sessions_this_week"`
	SessionsThisMonth   int `db:"sessions_this_month" json:"sessions_this_month"`
	BadgesAwarded       int `db:"badges_awarded" json:"badges_awarded"`
}

// Overview godoc
// @Summary Get admin overview
// @Description Returns platform-wide usage counts (admin only)
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} adminOverview
// @Failure 403 {string} string "Forbidden"
// @Failure 500 {string} string "Internal server error"
// @Router /admin/overview [get]
func (h *AdminHandler) Overview(w http.ResponseWriter, r *http.Request) {
	var out adminOverview
	err := h.db.GetContext(r.Context(), &out, `
		SELECT
			(SELECT COUNT(*) FROM users) AS total_users,
			(SELECT COUNT(*) FROM training_sessions) AS total_sessions,
			(SELECT COUNT(DISTINCT user_id) FROM training_sessions
				WHERE local_date > CURRENT_DATE - 7 AND local_date <= CURRENT_DATE) AS active_users_this_week,
			(SELECT COUNT(*) FROM training_sessions
				WHERE local_date > CURRENT_DATE - 7 AND local_date <= CURRENT_DATE) AS sessions_this_week,
			(SELECT COUNT(*) FROM training_sessions
				WHERE date_trunc('month', local_date) = date_trunc('month', CURRENT_DATE)) AS sessions_this_month,
			(SELECT COUNT(*) FROM user_achievements) AS badges_awarded`)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// Badges lists the whole catalog including disabled badges.
func (h *AdminHandler) Badges(w http.ResponseWriter, r *http.Request) {
	out, err := h.achievements.Catalog(r.Context(), false)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// CreateBadge adds a catalog entry; badges are active unless is_active is false.
func (h *AdminHandler) CreateBadge(w http.ResponseWriter, r *http.Request) {
	b := achievement.Badge{IsActive: true}
	if !decodeBody(w, r, &b) {
		return
	}
	if err := h.achievements.CreateBadge(r.Context(), &b); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

// UpdateBadge replaces a badge; set is_active=false to retire it.
func (h *AdminHandler) UpdateBadge(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var b achievement.Badge
	if !decodeBody(w, r, &b) {
		return
	}
	if err := h.achievements.UpdateBadge(r.Context(), id, &b); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, b)
}

type roleRequest struct {
	UserID int    `json:"user_id"`
	Role   string `json:"role"`
}

func (h *AdminHandler) decodeRole(w http.ResponseWriter, r *http.Request) (int, roles.Role, bool) {
	var req roleRequest
	if !decodeBody(w, r, &req) {
		return 0, "", false
	}
	if req.UserID <= 0 {
		http.Error(w, "user_id required", http.StatusBadRequest)
		return 0, "", false
	}
	role, err := roles.Parse(req.Role)
	if err != nil {
		writeError(w, r, h.log, err)
		return 0, "", false
	}
	return req.UserID, role, true
}

func (h *AdminHandler) AssignRole(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.decodeRole(w, r)
	if !ok {
		return
	}
	if err := h.roles.Assign(r.Context(), userID, role); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.log.Info("role assigned", zap.Int("user_id", userID), zap.String("role", string(role)))
	w.WriteHeader(http.StatusNoContent)
}

func (h *AdminHandler) RevokeRole(w http.ResponseWriter, r *http.Request) {
	userID, role, ok := h.decodeRole(w, r)
	if !ok {
		return
	}
	if err := h.roles.Revoke(r.Context(), userID, role); err != nil {
		writeError(w, r, h.log, err)
		return
	}
	h.log.Info("role revoked", zap.Int("user_id", userID), zap.String("role", string(role)))
	w.WriteHeader(http.StatusNoContent)
}

type evaluateRequest struct {
	Milestones []int `json:"milestones"`
}

// EvaluateUser re-evaluates a user's badges. Milestone and achievement badges
// are only awarded when listed in "milestones".
func (h *AdminHandler) EvaluateUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := pathID(w, r, "id")
	if !ok {
		return
	}
	var req evaluateRequest
	if r.ContentLength != 0 && !decodeBody(w, r, &req) {
		return
	}
	ref, ok := referenceDate(w, r, h.now)
	if !ok {
		return
	}
	awarded, err := h.achievements.Evaluate(r.Context(), userID, ref, achievement.SignalSet(req.Milestones...))
	if isForeignKeyViolation(err) {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"awarded": awarded})
}
