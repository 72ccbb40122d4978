package roles

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"judolog/internal/apperr"
)

type Role string

const (
	Athlete Role = "athlete"
	Trainer Role = "trainer"
	Admin   Role = "admin"
)

func Parse(s string) (Role, error) {
	switch r := Role(s); r {
	case Athlete, Trainer, Admin:
		return r, nil
	}
	return "", apperr.Invalid("role", "must be athlete, trainer or admin")
}

// Store is the single source of truth for role assignment.
type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

func (s *Store) Roles(ctx context.Context, userID int) ([]Role, error) {
	out := []Role{}
	if err := s.db.SelectContext(ctx, &out, `SELECT role FROM user_roles WHERE user_id=$1 ORDER BY role`, userID); err != nil {
		return nil, fmt.Errorf("list roles: %w", err)
	}
	return out, nil
}

// HasRole is true when the user holds role or is an admin.
func (s *Store) HasRole(ctx context.Context, userID int, role Role) (bool, error) {
	var ok bool
	err := s.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id=$1 AND (role=$2 OR role='admin'))`, userID, string(role))
	if err != nil {
		return false, fmt.Errorf("check role: %w", err)
	}
	return ok, nil
}

// Assign runs through q so signup can grant the default role in its transaction.
func Assign(ctx context.Context, q sqlx.ExecerContext, userID int, role Role) error {
	_, err := q.ExecContext(ctx,
		`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT (user_id, role) DO NOTHING`, userID, string(role))
	if err != nil {
		return fmt.Errorf("assign role: %w", err)
	}
	return nil
}

func (s *Store) Assign(ctx context.Context, userID int, role Role) error {
	var exists bool
	if err := s.db.GetContext(ctx, &exists, `SELECT EXISTS (SELECT 1 FROM users WHERE id=$1)`, userID); err != nil {
		return fmt.Errorf("check user: %w", err)
	}
	if !exists {
		return apperr.ErrNotFound
	}
	return Assign(ctx, s.db, userID, role)
}

func (s *Store) Revoke(ctx context.Context, userID int, role Role) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM user_roles WHERE user_id=$1 AND role=$2`, userID, string(role))
	if err != nil {
		return fmt.Errorf("revoke role: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

type AssignedAthlete struct {
	ID         int       `db:"id" json:"id"`
	FirstName  *string   `db:"first_name" json:"first_name,omitempty"`
	LastName   *string   `db:"last_name" json:"last_name,omitempty"`
	BeltRank   *string   `db:"belt_rank" json:"belt_rank,omitempty"`
	AssignedAt time.Time `db:"assigned_at" json:"assigned_at"`
}

// AssignAthlete links athleteID to trainerID. The athlete needs the athlete role.
func (s *Store) AssignAthlete(ctx context.Context, trainerID, athleteID int) error {
	if trainerID == athleteID {
		return apperr.Invalid("athlete_id", "trainer cannot be assigned to themselves")
	}
	var isAthlete bool
	if err := s.db.GetContext(ctx, &isAthlete,
		`SELECT EXISTS (SELECT 1 FROM user_roles WHERE user_id=$1 AND role='athlete')`, athleteID); err != nil {
		return fmt.Errorf("check athlete: %w", err)
	}
	if !isAthlete {
		return apperr.ErrNotFound
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO trainer_athletes (trainer_id, athlete_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, trainerID, athleteID)
	if err != nil {
		return fmt.Errorf("assign athlete: %w", err)
	}
	return nil
}

func (s *Store) UnassignAthlete(ctx context.Context, trainerID, athleteID int) error {
	res, err := s.db.ExecContext(ctx,
		`DELETE FROM trainer_athletes WHERE trainer_id=$1 AND athlete_id=$2`, trainerID, athleteID)
	if err != nil {
		return fmt.Errorf("unassign athlete: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) Athletes(ctx context.Context, trainerID int) ([]AssignedAthlete, error) {
	out := []AssignedAthlete{}
	err := s.db.SelectContext(ctx, &out, `
		SELECT u.id, u.first_name, u.last_name, u.belt_rank, ta.created_at AS assigned_at
		FROM trainer_athletes ta
		JOIN users u ON u.id = ta.athlete_id
		WHERE ta.trainer_id = $1
		ORDER BY u.last_name NULLS LAST, u.id`, trainerID)
	if err != nil {
		return nil, fmt.Errorf("list athletes: %w", err)
	}
	return out, nil
}

// Coaches reports whether trainerID is assigned to athleteID.
func (s *Store) Coaches(ctx context.Context, trainerID, athleteID int) (bool, error) {
	var ok bool
	err := s.db.GetContext(ctx, &ok,
		`SELECT EXISTS (SELECT 1 FROM trainer_athletes WHERE trainer_id=$1 AND athlete_id=$2)`, trainerID, athleteID)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return false, fmt.Errorf("check assignment: %w", err)
	}
	return ok, nil
}
