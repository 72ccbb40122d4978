package achievement

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"judolog/internal/activity"
	"judolog/internal/apperr"
	"judolog/internal/notification"
)

const badgeColumns = `id, name, description, icon, category, criteria_type, criteria_value, is_active, created_at`

type Service struct {
	db   *sqlx.DB
	eval *Evaluator
	log  *zap.Logger
}

func NewService(db *sqlx.DB, log *zap.Logger) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	return &Service{db: db, eval: NewEvaluator(log), log: log}
}

// BadgeStatus is a catalog entry as seen by one user.
type BadgeStatus struct {
	Badge
	Earned     bool       `json:"earned"`
	EarnedAt   *time.Time `json:"earned_at,omitempty"`
	Progress   float64    `json:"progress"`
	IsNotified bool       `json:"is_notified"`
}

func (s *Service) Catalog(ctx context.Context, activeOnly bool) ([]Badge, error) {
	query := `SELECT ` + badgeColumns + ` FROM achievement_badges`
	if activeOnly {
		query += ` WHERE is_active`
	}
	query += ` ORDER BY id`
	out := []Badge{}
	if err := s.db.SelectContext(ctx, &out, query); err != nil {
		return nil, fmt.Errorf("list badges: %w", err)
	}
	return out, nil
}

func (s *Service) CreateBadge(ctx context.Context, b *Badge) error {
	if err := b.Validate(); err != nil {
		return err
	}
	err := s.db.GetContext(ctx, b, `
		INSERT INTO achievement_badges (name, description, icon, category, criteria_type, criteria_value, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING `+badgeColumns,
		b.Name, b.Description, b.Icon, b.Category, b.CriteriaType, b.CriteriaValue, b.IsActive)
	if err != nil {
		return fmt.Errorf("create badge: %w", err)
	}
	return nil
}

// UpdateBadge replaces a badge definition; setting IsActive=false disables it.
func (s *Service) UpdateBadge(ctx context.Context, id int, b *Badge) error {
	if err := b.Validate(); err != nil {
		return err
	}
	err := s.db.GetContext(ctx, b, `
		UPDATE achievement_badges
		SET name=$1, description=$2, icon=$3, category=$4, criteria_type=$5, criteria_value=$6, is_active=$7
		WHERE id=$8
		RETURNING `+badgeColumns,
		b.Name, b.Description, b.Icon, b.Category, b.CriteriaType, b.CriteriaValue, b.IsActive, id)
	if errors.Is(err, sql.ErrNoRows) {
		return apperr.ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("update badge: %w", err)
	}
	return nil
}

func (s *Service) Earned(ctx context.Context, userID int) ([]UserAchievement, error) {
	out := []UserAchievement{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT id, user_id, badge_id, earned_at, progress, level, is_notified
		FROM user_achievements WHERE user_id=$1 ORDER BY earned_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list user achievements: %w", err)
	}
	return out, nil
}

// Metrics aggregates the user's persisted activity per category. Weight and
// nutrition are not tracked and stay zero.
func (s *Service) Metrics(ctx context.Context, userID int, ref time.Time) (Metrics, error) {
	var sessionDays []time.Time
	if err := s.db.SelectContext(ctx, &sessionDays,
		`SELECT local_date FROM training_sessions WHERE user_id=$1 AND local_date <= $2`, userID, ref.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("load session dates: %w", err)
	}
	var techniqueTimes []time.Time
	if err := s.db.SelectContext(ctx, &techniqueTimes,
		`SELECT created_at FROM techniques WHERE user_id=$1 AND created_at < $2`, userID, dayAfter(ref)); err != nil {
		return nil, fmt.Errorf("load technique dates: %w", err)
	}
	return BuildMetrics(sessionDays, techniqueTimes, ref), nil
}

// BuildMetrics derives the category aggregates from raw dates.
func BuildMetrics(sessionDays, techniqueTimes []time.Time, ref time.Time) Metrics {
	// DATE columns come back as UTC midnight; read them as calendar days in ref's zone.
	days := make([]time.Time, len(sessionDays))
	distinct := make(map[time.Time]struct{}, len(sessionDays))
	for i, d := range sessionDays {
		y, m, dd := d.UTC().Date()
		days[i] = time.Date(y, m, dd, 0, 0, 0, 0, ref.Location())
		distinct[days[i]] = struct{}{}
	}
	end := dayAfter(ref)
	learned := make([]time.Time, 0, len(techniqueTimes))
	for _, t := range techniqueTimes {
		if t.Before(end) {
			learned = append(learned, t)
		}
	}
	streak := activity.CurrentStreak(days, ref)
	return Metrics{
		CategoryTraining:    {Count: len(days), CurrentStreak: streak},
		CategoryTechnique:   {Count: len(learned), CurrentStreak: activity.CurrentStreak(learned, ref)},
		CategoryConsistency: {Count: len(distinct), CurrentStreak: streak},
		CategoryWeight:      {},
		CategoryNutrition:   {},
	}
}

// dayAfter is midnight following ref's calendar day in ref's zone.
func dayAfter(ref time.Time) time.Time {
	return activity.Day(ref, ref.Location()).AddDate(0, 0, 1)
}

func (s *Service) Status(ctx context.Context, userID int, ref time.Time) ([]BadgeStatus, error) {
	catalog, err := s.Catalog(ctx, true)
	if err != nil {
		return nil, err
	}
	earned, err := s.Earned(ctx, userID)
	if err != nil {
		return nil, err
	}
	metrics, err := s.Metrics(ctx, userID, ref)
	if err != nil {
		return nil, err
	}
	byBadge := make(map[int]UserAchievement, len(earned))
	for _, ua := range earned {
		byBadge[ua.BadgeID] = ua
	}
	out := make([]BadgeStatus, 0, len(catalog))
	for _, b := range catalog {
		st := BadgeStatus{Badge: b, Progress: Progress(metrics[b.Category], b)}
		if ua, ok := byBadge[b.ID]; ok {
			at := ua.EarnedAt
			st.Earned, st.EarnedAt, st.Progress, st.IsNotified = true, &at, 1, ua.IsNotified
		}
		out = append(out, st)
	}
	return out, nil
}

// Evaluate awards every newly earned badge. Each award creates exactly one
// user_achievements row and one notification, even under concurrent calls.
func (s *Service) Evaluate(ctx context.Context, userID int, ref time.Time, signal Signal) ([]UserAchievement, error) {
	catalog, err := s.Catalog(ctx, true)
	if err != nil {
		return nil, err
	}
	earnedRows, err := s.Earned(ctx, userID)
	if err != nil {
		return nil, err
	}
	earned := make(map[int]bool, len(earnedRows))
	for _, ua := range earnedRows {
		earned[ua.BadgeID] = true
	}
	metrics, err := s.Metrics(ctx, userID, ref)
	if err != nil {
		return nil, err
	}

	ids := s.eval.Evaluate(metrics, catalog, earned, signal)
	if len(ids) == 0 {
		return []UserAchievement{}, nil
	}
	badges := make(map[int]Badge, len(catalog))
	for _, b := range catalog {
		badges[b.ID] = b
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	awarded := make([]UserAchievement, 0, len(ids))
	for _, id := range ids {
		var ua UserAchievement
		err := tx.GetContext(ctx, &ua, `
			INSERT INTO user_achievements (user_id, badge_id, progress, level)
			VALUES ($1, $2, 1, 1)
			ON CONFLICT (user_id, badge_id) DO NOTHING
			RETURNING id, user_id, badge_id, earned_at, progress, level, is_notified`, userID, id)
		if errors.Is(err, sql.ErrNoRows) {
			// Awarded by a concurrent evaluation.
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("award badge %d: %w", id, err)
		}
		b := badges[id]
		if _, err := notification.Create(ctx, tx, userID, notification.KindAchievement,
			"Achievement unlocked: "+b.Name, b.Description); err != nil {
			return nil, err
		}
		awarded = append(awarded, ua)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	if len(awarded) > 0 {
		s.log.Info("achievements awarded", zap.Int("user_id", userID), zap.Int("count", len(awarded)))
	}
	return awarded, nil
}

// MarkNotified records that the client displayed the unlock. Repeated calls are no-ops.
func (s *Service) MarkNotified(ctx context.Context, userID, achievementID int) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE user_achievements SET is_notified = true
		WHERE id=$1 AND user_id=$2 AND is_notified = false`, achievementID, userID)
	if err != nil {
		return fmt.Errorf("mark notified: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}
	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		`SELECT EXISTS (SELECT 1 FROM user_achievements WHERE id=$1 AND user_id=$2)`, achievementID, userID); err != nil {
		return fmt.Errorf("check achievement: %w", err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return nil
}
