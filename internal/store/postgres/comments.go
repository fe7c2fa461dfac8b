package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"blog/backend/internal/model"
	"blog/backend/internal/store"
)

const selectComment = `
	SELECT c.id, c.post_id, c.commenter_id, c.text, c.created_at, u.name
	FROM comments c
	JOIN users u ON u.id = c.commenter_id
	`

func scanComment(row pgx.Row) (*model.Comment, error) {
	var c model.Comment
	var name string
	if err := row.Scan(&c.ID, &c.PostID, &c.CommenterID, &c.Text, &c.CreatedAt, &name); err != nil {
		return nil, err
	}
	c.Commenter = &model.UserRef{ID: c.CommenterID, Name: name}
	return &c, nil
}

// ListComments returns the comments of a post, oldest first.
func (s *Store) ListComments(ctx context.Context, postID uuid.UUID) ([]model.Comment, error) {
	rows, err := s.DB.Query(ctx, selectComment+`WHERE c.post_id = $1 ORDER BY c.created_at;`, postID)
	if err != nil {
		return nil, fmt.Errorf("query comments: %w", err)
	}
	defer rows.Close()

	res := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		res = append(res, *c)
	}
	return res, rows.Err()
}

func (s *Store) GetComment(ctx context.Context, id uuid.UUID) (*model.Comment, error) {
	c, err := scanComment(s.DB.QueryRow(ctx, selectComment+`WHERE c.id = $1;`, id))
	if err != nil {
		return nil, mapErr(err)
	}
	return c, nil
}

// InsertComment returns store.ErrNotFound if the post was deleted in the meantime.
func (s *Store) InsertComment(ctx context.Context, c *model.Comment) error {
	const q = `
	INSERT INTO comments (id, post_id, commenter_id, text, created_at)
	VALUES ($1, $2, $3, $4, $5);
	`
	_, err := s.DB.Exec(ctx, q, c.ID, c.PostID, c.CommenterID, c.Text, c.CreatedAt)
	return mapErr(err)
}

func (s *Store) UpdateCommentText(ctx context.Context, id uuid.UUID, text string) error {
	return affected(s.DB.Exec(ctx, `UPDATE comments SET text = $2 WHERE id = $1`, id, text))
}

func (s *Store) DeleteComment(ctx context.Context, id uuid.UUID) error {
	return affected(s.DB.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id))
}

// WithPostLock runs fn in a transaction holding the post row FOR NO KEY UPDATE.
// The lock does not conflict with the KEY SHARE lock comment inserts take for
// their foreign key check, so comment writes never wait on a reconcile; two
// reconciles of one post do wait on each other. Under READ COMMITTED each
// statement run after the lock sees every comment committed before it.
func (s *Store) WithPostLock(ctx context.Context, postID uuid.UUID, fn func(context.Context, store.CounterTx) error) error {
	return pgx.BeginFunc(ctx, s.DB, func(tx pgx.Tx) error {
		var id uuid.UUID
		err := tx.QueryRow(ctx, `SELECT id FROM posts WHERE id = $1 FOR NO KEY UPDATE`, postID).Scan(&id)
		if err != nil {
			return mapErr(err)
		}
		return fn(ctx, &counterTx{tx: tx, postID: postID})
	})
}

type counterTx struct {
	tx     pgx.Tx
	postID uuid.UUID
}

func (c *counterTx) CountComments(ctx context.Context) (int, error) {
	var n int
	err := c.tx.QueryRow(ctx, `SELECT count(*) FROM comments WHERE post_id = $1`, c.postID).Scan(&n)
	return n, err
}

// SetTotalComments writes the count column and nothing else.
func (c *counterTx) SetTotalComments(ctx context.Context, n int) error {
	return affected(c.tx.Exec(ctx, `UPDATE posts SET total_comments = $2 WHERE id = $1`, c.postID, n))
}
