package achievement

import (
	"time"

	"judolog/internal/apperr"
)

type Category string

const (
	CategoryTraining    Category = "training"
	CategoryTechnique   Category = "technique"
	CategoryConsistency Category = "consistency"
	CategoryWeight      Category = "weight"
	CategoryNutrition   Category = "nutrition"
)

type CriteriaType string

const (
	CriteriaCount       CriteriaType = "count"
	CriteriaStreak      CriteriaType = "streak"
	CriteriaMilestone   CriteriaType = "milestone"
	CriteriaAchievement CriteriaType = "achievement"
)

func (c Category) Valid() bool {
	switch c {
	case CategoryTraining, CategoryTechnique, CategoryConsistency, CategoryWeight, CategoryNutrition:
		return true
	}
	return false
}

func (c CriteriaType) Valid() bool {
	switch c {
	case CriteriaCount, CriteriaStreak, CriteriaMilestone, CriteriaAchievement:
		return true
	}
	return false
}

// Badge is an admin-defined catalog entry. Badges are soft-disabled via IsActive, never deleted.
type Badge struct {
	ID            int          `db:"id" json:"id"`
	Name          string       `db:"name" json:"name"`
	Description   string       `db:"description" json:"description"`
	Icon          string       `db:"icon" json:"icon"`
	Category      Category     `db:"category" json:"category"`
	CriteriaType  CriteriaType `db:"criteria_type" json:"criteria_type"`
	CriteriaValue float64      `db:"criteria_value" json:"criteria_value"`
	IsActive      bool         `db:"is_active" json:"is_active"`
	CreatedAt     time.Time    `db:"created_at" json:"created_at"`
}

// Validate is applied on admin writes. Evaluation itself tolerates unknown criteria types.
func (b *Badge) Validate() error {
	if b.Name == "" {
		return apperr.Invalid("name", "required")
	}
	if !b.Category.Valid() {
		return apperr.Invalid("category", "unknown category "+string(b.Category))
	}
	if !b.CriteriaType.Valid() {
		return apperr.Invalid("criteria_type", "unknown criteria type "+string(b.CriteriaType))
	}
	if b.CriteriaValue < 0 {
		return apperr.Invalid("criteria_value", "must not be negative")
	}
	return nil
}

type UserAchievement struct {
	ID         int       `db:"id" json:"id"`
	UserID     int       `db:"user_id" json:"user_id"`
	BadgeID    int       `db:"badge_id" json:"badge_id"`
	EarnedAt   time.Time `db:"earned_at" json:"earned_at"`
	Progress   float64   `db:"progress" json:"progress"`
	Level      int       `db:"level" json:"level"`
	IsNotified bool      `db:"is_notified" json:"is_notified"`
}

// Metric is a per-category aggregate for one user.
type Metric struct {
	Count         int `json:"count"`
	CurrentStreak int `json:"current_streak"`
}

type Metrics map[Category]Metric
