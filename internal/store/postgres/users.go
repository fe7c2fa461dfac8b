package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"blog/backend/internal/model"
)

const selectUser = `SELECT id, name, password_hash, is_author, created_at FROM users `

func scanUser(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.Name, &u.PasswordHash, &u.IsAuthor, &u.CreatedAt); err != nil {
		return nil, mapErr(err)
	}
	return &u, nil
}

// InsertUser returns store.ErrConflict when the name is taken.
func (s *Store) InsertUser(ctx context.Context, u *model.User) error {
	const q = `
	INSERT INTO users (id, name, password_hash, is_author, created_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	_, err := s.DB.Exec(ctx, q, u.ID, u.Name, u.PasswordHash, u.IsAuthor, u.CreatedAt)
	return mapErr(err)
}

func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return scanUser(s.DB.QueryRow(ctx, selectUser+`WHERE id = $1`, id))
}

func (s *Store) GetUserByName(ctx context.Context, name string) (*model.User, error) {
	return scanUser(s.DB.QueryRow(ctx, selectUser+`WHERE name = $1`, name))
}

// DeleteUser removes a user; posts, comments and sessions cascade. It returns the
// posts of other authors that lost comments, whose counts now need reconciling.
func (s *Store) DeleteUser(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	var postIDs []uuid.UUID
	err := pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		const q = `
		SELECT DISTINCT c.post_id
		FROM comments c
		JOIN posts p ON p.id = c.post_id
		WHERE c.commenter_id = $1 AND p.author_id <> $1;
		`
		rows, err := tx.Query(ctx, q, id)
		if err != nil {
			return fmt.Errorf("query commented posts: %w", err)
		}
		postIDs, err = pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
		if err != nil {
			return fmt.Errorf("scan: %w", err)
		}
		return affected(tx.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
	})
	if err != nil {
		return nil, err
	}
	return postIDs, nil
}

func (s *Store) InsertSession(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error {
	const q = `INSERT INTO sessions (token_hash, user_id, expires_at) VALUES ($1, $2, $3)`
	_, err := s.DB.Exec(ctx, q, tokenHash, userID, expiresAt)
	return mapErr(err)
}

// GetSessionUser returns the owner of an unexpired session.
func (s *Store) GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (*model.User, error) {
	const q = `
	SELECT u.id, u.name, u.password_hash, u.is_author, u.created_at
	FROM sessions s
	JOIN users u ON u.id = s.user_id
	WHERE s.token_hash = $1 AND s.expires_at > $2;
	`
	return scanUser(s.DB.QueryRow(ctx, q, tokenHash, now))
}

func (s *Store) DeleteSession(ctx context.Context, tokenHash string) error {
	_, err := s.DB.Exec(ctx, `DELETE FROM sessions WHERE token_hash = $1`, tokenHash)
	return err
}
