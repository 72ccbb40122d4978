package handlers

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"judolog/internal/activity"
	"judolog/internal/models"
)

type DashboardHandler struct {
	db  *sqlx.DB
	log *zap.Logger
	now func() time.Time
}

func NewDashboardHandler(db *sqlx.DB, log *zap.Logger) *DashboardHandler {
	return &DashboardHandler{db: db, log: log, now: time.Now}
}

type trendPoint struct {
	LocalDate string `json:"local_date"`
	Minutes   int    `json:"minutes"`
	Sessions  int    `json:"sessions"`
}

type dashboardAggregates struct {
	MinutesThisWeek   int `db:"minutes_this_week"`
	MinutesThisMonth  int `db:"minutes_this_month"`
	TotalSessions     int `db:"total_sessions"`
	SessionsThisYear  int `db:"sessions_this_year"`
	TechniquesLearned int `db:"techniques_learned"`
}

type dashboardResponse struct {
	ReferenceDate     string          `json:"reference_date"`
	HasTodayEntry     bool            `json:"has_today_entry"`
	WeeklyCount       int             `json:"weekly_sessions_count"`
	ActivityStatus    activity.Status `json:"activity_status"`
	CurrentStreakDays int             `json:"current_streak_days"`
	MinutesThisWeek   int             `json:"minutes_this_week"`
	MinutesThisMonth  int             `json:"minutes_this_month"`
	TotalSessions     int             `json:"total_sessions"`
	SessionsThisYear  int             `json:"sessions_this_year"`
	TechniquesLearned int             `json:"techniques_learned"`
	Last7DaysTrend    []trendPoint    `json:"last7_days_trend"`
}

type activityResponse struct {
	ReferenceDate     string          `json:"reference_date"`
	WeeklyCount       int             `json:"weekly_sessions_count"`
	Status            activity.Status `json:"status"`
	CurrentStreakDays int             `json:"current_streak_days"`
}

// Get aggregates and useful metrics to power the dashboard.
// Accepts optional query param: local_date=YYYY-MM-DD to use as the user's "today".
func (h *DashboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	ref, ok := referenceDate(w, r, h.now)
	if !ok {
		return
	}

	var (
		agg   dashboardAggregates
		dates []time.Time
		trend []trendPoint
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		return h.db.GetContext(ctx, &agg, `
			SELECT
				COALESCE(SUM(duration_minutes) FILTER (WHERE local_date > $2::date - 7 AND local_date <= $2), 0) AS minutes_this_week,
				COALESCE(SUM(duration_minutes) FILTER (WHERE date_trunc('month', local_date) = date_trunc('month', $2::date) AND local_date <= $2), 0) AS minutes_this_month,
				COUNT(*) FILTER (WHERE local_date <= $2) AS total_sessions,
				COUNT(*) FILTER (WHERE date_trunc('year', local_date) = date_trunc('year', $2::date) AND local_date <= $2) AS sessions_this_year,
				(SELECT COUNT(*) FROM techniques WHERE user_id = $1) AS techniques_learned
			FROM training_sessions
			WHERE user_id = $1`, userID, ref)
	})
	g.Go(func() error {
		var err error
		dates, err = sessionDates(ctx, h.db, userID, ref)
		return err
	})
	g.Go(func() error {
		var err error
		trend, err = h.trend(ctx, userID, ref)
		return err
	})
	if err := g.Wait(); err != nil {
		h.log.Error("dashboard", zap.Int("user_id", userID), zap.Error(err))
		http.Error(w, "could not load dashboard", http.StatusInternalServerError)
		return
	}

	res := activity.ClassifyTimes(dates, ref)
	writeJSON(w, http.StatusOK, dashboardResponse{
		ReferenceDate:     ref.Format(models.DateLayout),
		HasTodayEntry:     len(dates) > 0 && dates[0].Equal(ref),
		WeeklyCount:       res.WeeklyCount,
		ActivityStatus:    res.Status,
		CurrentStreakDays: activity.CurrentStreak(dates, ref),
		MinutesThisWeek:   agg.MinutesThisWeek,
		MinutesThisMonth:  agg.MinutesThisMonth,
		TotalSessions:     agg.TotalSessions,
		SessionsThisYear:  agg.SessionsThisYear,
		TechniquesLearned: agg.TechniquesLearned,
		Last7DaysTrend:    trend,
	})
}

// Activity classifies the user's last seven days ending at local_date.
func (h *DashboardHandler) Activity(w http.ResponseWriter, r *http.Request) {
	userID, ok := currentUser(w, r)
	if !ok {
		return
	}
	ref, ok := referenceDate(w, r, h.now)
	if !ok {
		return
	}
	dates, err := sessionDates(r.Context(), h.db, userID, ref)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, activityFor(dates, ref))
}

type classifyRequest struct {
	Dates         []string `json:"dates"`
	ReferenceDate string   `json:"reference_date"`
}

// Classify runs the classifier over client-supplied dates, e.g. an offline log
// not yet synced.
func (h *DashboardHandler) Classify(w http.ResponseWriter, r *http.Request) {
	var req classifyRequest
	if !decodeBody(w, r, &req) {
		return
	}
	ref := h.now().UTC()
	if req.ReferenceDate != "" {
		d, err := activity.ParseDate(req.ReferenceDate, time.UTC)
		if err != nil {
			writeError(w, r, h.log, err)
			return
		}
		ref = d
	}
	ref = activity.Day(ref, time.UTC)
	res, err := activity.Classify(req.Dates, ref)
	if err != nil {
		writeError(w, r, h.log, err)
		return
	}
	writeJSON(w, http.StatusOK, activityResponse{
		ReferenceDate: ref.Format(models.DateLayout),
		WeeklyCount:   res.WeeklyCount,
		Status:        res.Status,
	})
}

func activityFor(dates []time.Time, ref time.Time) activityResponse {
	res := activity.ClassifyTimes(dates, ref)
	return activityResponse{
		ReferenceDate:     ref.Format(models.DateLayout),
		WeeklyCount:       res.WeeklyCount,
		Status:            res.Status,
		CurrentStreakDays: activity.CurrentStreak(dates, ref),
	}
}

// sessionDates returns one entry per session up to ref, newest first.
func sessionDates(ctx context.Context, q sqlx.QueryerContext, userID int, ref time.Time) ([]time.Time, error) {
	var dates []time.Time
	if err := sqlx.SelectContext(ctx, q, &dates,
		`SELECT local_date FROM training_sessions WHERE user_id=$1 AND local_date <= $2 ORDER BY local_date DESC`,
		userID, ref); err != nil {
		return nil, fmt.Errorf("session dates: %w", err)
	}
	for i, d := range dates {
		dates[i] = activity.Day(d, time.UTC)
	}
	return dates, nil
}

func (h *DashboardHandler) trend(ctx context.Context, userID int, ref time.Time) ([]trendPoint, error) {
	rows, err := h.db.QueryxContext(ctx, `
		SELECT d::date AS local_date, COALESCE(SUM(s.duration_minutes), 0) AS minutes, COUNT(s.id) AS sessions
		FROM generate_series($2::date - INTERVAL '6 days', $2::date, INTERVAL '1 day') AS d
		LEFT JOIN training_sessions s ON s.user_id=$1 AND s.local_date = d::date
		GROUP BY d
		ORDER BY d`, userID, ref)
	if err != nil {
		return nil, fmt.Errorf("trend: %w", err)
	}
	defer rows.Close()
	trend := make([]trendPoint, 0, activity.WindowDays)
	for rows.Next() {
		var d time.Time
		var p trendPoint
		if err := rows.Scan(&d, &p.Minutes, &p.Sessions); err != nil {
			return nil, fmt.Errorf("trend: %w", err)
		}
		p.LocalDate = d.Format(models.DateLayout)
		trend = append(trend, p)
	}
	return trend, rows.Err()
}
