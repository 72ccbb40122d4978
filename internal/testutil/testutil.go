package testutil

import (
	"context"
	"os"
	"sync"
	"testing"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"

	"judolog/internal/db"
)

var (
	dbOnce sync.Once
	conn   *sqlx.DB
	dbErr  error
)

// DB returns a migrated database from TEST_POSTGRES_DSN, skipping the test when unset.
func DB(tb testing.TB) *sqlx.DB {
	tb.Helper()
	dsn := os.Getenv("TEST_POSTGRES_DSN")
	if dsn == "" {
		tb.Skip("set TEST_POSTGRES_DSN to run database tests")
	}
	dbOnce.Do(func() {
		conn, dbErr = sqlx.Open("pgx", dsn)
		if dbErr != nil {
			return
		}
		dbErr = db.RunMigrations(context.Background(), conn)
	})
	if dbErr != nil {
		tb.Fatalf("test db: %v", dbErr)
	}
	return conn
}

// SeedUser inserts a user with a unique email and returns its id.
func SeedUser(tb testing.TB, conn *sqlx.DB) int {
	tb.Helper()
	email := uuid.NewString() + "@test.local"
	var id int
	err := conn.QueryRowx(`INSERT INTO users (email, email_blind_index, password_hash) VALUES ($1, $1, 'x') RETURNING id`, email).Scan(&id)
	if err != nil {
		tb.Fatalf("seed user: %v", err)
	}
	tb.Cleanup(func() {
		_, _ = conn.Exec(`DELETE FROM users WHERE id=$1`, id)
	})
	return id
}

func SeedRole(tb testing.TB, conn *sqlx.DB, userID int, role string) {
	tb.Helper()
	if _, err := conn.Exec(`INSERT INTO user_roles (user_id, role) VALUES ($1, $2) ON CONFLICT DO NOTHING`, userID, role); err != nil {
		tb.Fatalf("seed role: %v", err)
	}
}
