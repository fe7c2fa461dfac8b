package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"blog/backend/internal/model"
)

// ListPosts returns post summaries ordered by publication time, newest first, then
// unpublished drafts by creation time.
func (s *Store) ListPosts(ctx context.Context, publishedOnly bool) ([]model.PostSummary, error) {
	const q = `
	SELECT p.id, COALESCE(p.content->0->>'title', ''), p.is_published, p.published_at,
	       p.total_comments, p.created_at, u.id, u.name
	FROM posts p
	JOIN users u ON u.id = p.author_id
	WHERE NOT $1::boolean OR p.is_published
	ORDER BY p.published_at DESC NULLS LAST, p.created_at DESC;
	`
	rows, err := s.DB.Query(ctx, q, publishedOnly)
	if err != nil {
		return nil, fmt.Errorf("query posts: %w", err)
	}
	defer rows.Close()

	res := []model.PostSummary{}
	for rows.Next() {
		var p model.PostSummary
		var author model.UserRef
		if err := rows.Scan(&p.ID, &p.Title, &p.IsPublished, &p.PublishedAt,
			&p.TotalComments, &p.CreatedAt, &author.ID, &author.Name); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		p.Author = &author
		res = append(res, p)
	}
	return res, rows.Err()
}

// GetPost loads a post with its author's name joined in.
func (s *Store) GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error) {
	const q = `
	SELECT p.id, p.author_id, p.content, p.is_published, p.published_at,
	       p.total_comments, p.created_at, u.name
	FROM posts p
	JOIN users u ON u.id = p.author_id
	WHERE p.id = $1;
	`
	var p model.Post
	var authorName string
	err := s.DB.QueryRow(ctx, q, id).Scan(&p.ID, &p.AuthorID, &p.Content, &p.IsPublished,
		&p.PublishedAt, &p.TotalComments, &p.CreatedAt, &authorName)
	if err != nil {
		return nil, mapErr(err)
	}
	p.Author = &model.UserRef{ID: p.AuthorID, Name: authorName}
	return &p, nil
}

func (s *Store) PostExists(ctx context.Context, id uuid.UUID) (bool, error) {
	var ok bool
	if err := s.DB.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM posts WHERE id = $1)`, id).Scan(&ok); err != nil {
		return false, fmt.Errorf("check post: %w", err)
	}
	return ok, nil
}

func (s *Store) InsertPost(ctx context.Context, p *model.Post) error {
	const q = `
	INSERT INTO posts (id, author_id, content, is_published, published_at, total_comments, created_at)
	VALUES ($1, $2, $3, $4, $5, $6, $7);
	`
	_, err := s.DB.Exec(ctx, q, p.ID, p.AuthorID, p.Content, p.IsPublished, p.PublishedAt, p.TotalComments, p.CreatedAt)
	return mapErr(err)
}

// UpdatePostContent replaces the content column only.
func (s *Store) UpdatePostContent(ctx context.Context, id uuid.UUID, content []model.ContentBlock) error {
	return affected(s.DB.Exec(ctx, `UPDATE posts SET content = $2 WHERE id = $1`, id, content))
}

// UpdatePostPublication writes the publish flag. published_at keeps its first value.
func (s *Store) UpdatePostPublication(ctx context.Context, id uuid.UUID, isPublished bool, publishedAt *time.Time) error {
	const q = `
	UPDATE posts
	SET is_published = $2, published_at = COALESCE(published_at, $3)
	WHERE id = $1;
	`
	return affected(s.DB.Exec(ctx, q, id, isPublished, publishedAt))
}

// DeletePost removes a post; its comments go with it through ON DELETE CASCADE.
func (s *Store) DeletePost(ctx context.Context, id uuid.UUID) error {
	return affected(s.DB.Exec(ctx, `DELETE FROM posts WHERE id = $1`, id))
}

func (s *Store) GetUserRef(ctx context.Context, id uuid.UUID) (*model.UserRef, error) {
	var ref model.UserRef
	if err := s.DB.QueryRow(ctx, `SELECT id, name FROM users WHERE id = $1`, id).Scan(&ref.ID, &ref.Name); err != nil {
		return nil, mapErr(err)
	}
	return &ref, nil
}
