// Package postgres implements the blog stores on Postgres through a pgx pool.
package postgres

import (
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"blog/backend/internal/store"
)

// Postgres error codes the store translates.
const (
	codeUniqueViolation     = "23505"
	codeForeignKeyViolation = "23503"
)

// Store is backed by a single pgx pool.
type Store struct {
	DB *pgxpool.Pool
}

// New wraps pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{DB: pool}
}

// mapErr translates driver errors into store sentinels, leaving others untouched.
// A foreign key violation means the referenced row is gone, so it reads as not found.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return store.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case codeUniqueViolation:
			return store.ErrConflict
		case codeForeignKeyViolation:
			return store.ErrNotFound
		}
	}
	return err
}

// affected turns a zero-row write into store.ErrNotFound.
func affected(tag pgconn.CommandTag, err error) error {
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return store.ErrNotFound
	}
	return nil
}
