package crud

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jmoiron/sqlx"

	"judolog/internal/apperr"
)

// Record is the pointer side of a user-owned entity.
type Record[T any] interface {
	*T
	SetID(id int)
	SetOwner(userID int)
	Validate() error
}

// Store persists one entity type. Every call is scoped to the owning user.
type Store[T any] interface {
	List(ctx context.Context, userID int) ([]T, error)
	Get(ctx context.Context, userID, id int) (T, error)
	// Create and Update refresh v from the stored row.
	Create(ctx context.Context, userID int, v *T) error
	Update(ctx context.Context, userID, id int, v *T) error
	Delete(ctx context.Context, userID, id int) error
}

// SealedLister is implemented by stores whose loaded rows differ from what is
// stored. ListSealed returns rows as stored and Open turns one into its loaded form.
type SealedLister[T any] interface {
	ListSealed(ctx context.Context, userID int) ([]T, error)
	Open(v *T) error
}

// Table describes a user-owned table. Columns lists the writable columns;
// id, user_id, created_at and updated_at are implied.
type Table struct {
	Name    string
	Columns []string
	OrderBy string
}

func (t Table) selectList() string {
	return "id, user_id, created_at, updated_at, " + strings.Join(t.Columns, ", ")
}

// Hooks run around persistence. BeforeSave sees a copy, so callers keep their plaintext.
type Hooks[T any] struct {
	BeforeSave func(v *T) error
	AfterLoad  func(v *T) error
	// Check runs before writes for ownership rules that span tables.
	Check func(ctx context.Context, userID int, v *T) error
}

type SQLStore[T any, P Record[T]] struct {
	db    *sqlx.DB
	table Table
	hooks Hooks[T]
}

func NewSQLStore[T any, P Record[T]](db *sqlx.DB, table Table, hooks Hooks[T]) *SQLStore[T, P] {
	if table.OrderBy == "" {
		table.OrderBy = "id DESC"
	}
	return &SQLStore[T, P]{db: db, table: table, hooks: hooks}
}

func (s *SQLStore[T, P]) List(ctx context.Context, userID int) ([]T, error) {
	out, err := s.ListSealed(ctx, userID)
	if err != nil {
		return nil, err
	}
	for i := range out {
		if err := s.afterLoad(&out[i]); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// ListSealed lists rows without running AfterLoad.
func (s *SQLStore[T, P]) ListSealed(ctx context.Context, userID int) ([]T, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE user_id=$1 ORDER BY %s LIMIT 500",
		s.table.selectList(), s.table.Name, s.table.OrderBy)
	out := []T{}
	if err := s.db.SelectContext(ctx, &out, query, userID); err != nil {
		return nil, fmt.Errorf("list %s: %w", s.table.Name, err)
	}
	return out, nil
}

// Open runs AfterLoad on a row returned by ListSealed.
func (s *SQLStore[T, P]) Open(v *T) error { return s.afterLoad(v) }

func (s *SQLStore[T, P]) Get(ctx context.Context, userID, id int) (T, error) {
	var v T
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id=$1 AND user_id=$2", s.table.selectList(), s.table.Name)
	if err := s.db.GetContext(ctx, &v, query, id, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return v, apperr.ErrNotFound
		}
		return v, fmt.Errorf("get %s: %w", s.table.Name, err)
	}
	return v, s.afterLoad(&v)
}

func (s *SQLStore[T, P]) Create(ctx context.Context, userID int, v *T) error {
	P(v).SetOwner(userID)
	row, err := s.prepare(ctx, userID, v)
	if err != nil {
		return err
	}
	cols := append([]string{"user_id"}, s.table.Columns...)
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (:%s) RETURNING %s",
		s.table.Name, strings.Join(cols, ", "), strings.Join(cols, ", :"), s.table.selectList())
	return s.writeReturning(ctx, query, row, v)
}

func (s *SQLStore[T, P]) Update(ctx context.Context, userID, id int, v *T) error {
	P(v).SetOwner(userID)
	P(v).SetID(id)
	row, err := s.prepare(ctx, userID, v)
	if err != nil {
		return err
	}
	sets := make([]string, len(s.table.Columns))
	for i, c := range s.table.Columns {
		sets[i] = c + "=:" + c
	}
	query := fmt.Sprintf("UPDATE %s SET %s, updated_at=NOW() WHERE id=:id AND user_id=:user_id RETURNING %s",
		s.table.Name, strings.Join(sets, ", "), s.table.selectList())
	return s.writeReturning(ctx, query, row, v)
}

func (s *SQLStore[T, P]) Delete(ctx context.Context, userID, id int) error {
	res, err := s.db.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE id=$1 AND user_id=$2", s.table.Name), id, userID)
	if err != nil {
		return fmt.Errorf("delete %s: %w", s.table.Name, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return apperr.ErrNotFound
	}
	return nil
}

// prepare returns the copy that is actually written.
func (s *SQLStore[T, P]) prepare(ctx context.Context, userID int, v *T) (*T, error) {
	if s.hooks.Check != nil {
		if err := s.hooks.Check(ctx, userID, v); err != nil {
			return nil, err
		}
	}
	row := *v
	if s.hooks.BeforeSave != nil {
		if err := s.hooks.BeforeSave(&row); err != nil {
			return nil, fmt.Errorf("prepare %s: %w", s.table.Name, err)
		}
	}
	return &row, nil
}

func (s *SQLStore[T, P]) writeReturning(ctx context.Context, query string, row, dst *T) error {
	rows, err := sqlx.NamedQueryContext(ctx, s.db, query, row)
	if err != nil {
		return mapWriteError(s.table.Name, err)
	}
	defer rows.Close()
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return mapWriteError(s.table.Name, err)
		}
		return apperr.ErrNotFound
	}
	if err := rows.StructScan(dst); err != nil {
		return fmt.Errorf("scan %s: %w", s.table.Name, err)
	}
	return s.afterLoad(dst)
}

func (s *SQLStore[T, P]) afterLoad(v *T) error {
	if s.hooks.AfterLoad == nil {
		return nil
	}
	if err := s.hooks.AfterLoad(v); err != nil {
		return fmt.Errorf("load %s: %w", s.table.Name, err)
	}
	return nil
}

func mapWriteError(table string, err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case "23505":
			return fmt.Errorf("write %s: %w", table, apperr.ErrConflict)
		case "23503":
			return apperr.Invalid("reference", "referenced record does not exist")
		case "23514":
			return apperr.Invalid(table, "violates constraint "+pgErr.ConstraintName)
		}
	}
	return fmt.Errorf("write %s: %w", table, err)
}
