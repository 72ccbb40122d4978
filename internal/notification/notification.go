package notification

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"judolog/internal/apperr"
)

const (
	KindAchievement = "achievement"
	KindAssignment  = "assignment"
)

type Notification struct {
	ID        int        `db:"id" json:"id"`
	UserID    int        `db:"user_id" json:"user_id"`
	Kind      string     `db:"kind" json:"kind"`
	Title     string     `db:"title" json:"title"`
	Body      string     `db:"body" json:"body"`
	ReadAt    *time.Time `db:"read_at" json:"read_at,omitempty"`
	CreatedAt time.Time  `db:"created_at" json:"created_at"`
}

type Store struct {
	db *sqlx.DB
}

func NewStore(db *sqlx.DB) *Store { return &Store{db: db} }

// Create inserts through q so callers can make it part of their transaction.
func Create(ctx context.Context, q sqlx.ExtContext, userID int, kind, title, body string) (int, error) {
	var id int
	err := sqlx.GetContext(ctx, q, &id,
		`INSERT INTO notifications (user_id, kind, title, body) VALUES ($1, $2, $3, $4) RETURNING id`,
		userID, kind, title, body)
	if err != nil {
		return 0, fmt.Errorf("insert notification: %w", err)
	}
	return id, nil
}

func (s *Store) Create(ctx context.Context, userID int, kind, title, body string) (int, error) {
	return Create(ctx, s.db, userID, kind, title, body)
}

func (s *Store) List(ctx context.Context, userID int, unreadOnly bool) ([]Notification, error) {
	query := `SELECT id, user_id, kind, title, body, read_at, created_at FROM notifications WHERE user_id=$1`
	if unreadOnly {
		query += ` AND read_at IS NULL`
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT 100`
	out := []Notification{}
	if err := s.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	return out, nil
}

func (s *Store) UnreadCount(ctx context.Context, userID int) (int, error) {
	var n int
	if err := s.db.GetContext(ctx, &n, `SELECT COUNT(*) FROM notifications WHERE user_id=$1 AND read_at IS NULL`, userID); err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// MarkRead keeps the first read timestamp on repeated calls.
func (s *Store) MarkRead(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read_at = COALESCE(read_at, NOW()) WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM notifications WHERE id=$1 AND user_id=$2`, id, userID)
	if err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}
