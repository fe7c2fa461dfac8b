// Package model contains domain models shared by the store, core and HTTP layers.
package model

import (
	"time"

	"github.com/google/uuid"
)

// Post represents a multi-block article as stored in the database.
// Field types align with the posts table: UUID -> uuid.UUID, JSONB -> []ContentBlock,
// TIMESTAMPTZ -> time.Time.
type Post struct {
	ID       uuid.UUID `json:"id"`
	AuthorID uuid.UUID `json:"author_id"`
	// Author is populated from the users table on reads; nil when not joined.
	Author        *UserRef       `json:"author,omitempty"`
	Content       []ContentBlock `json:"content"`
	IsPublished   bool           `json:"is_published"`
	PublishedAt   *time.Time     `json:"published_at,omitempty"`
	TotalComments int            `json:"total_comments"`
	CreatedAt     time.Time      `json:"created_at"`
}

// ContentBlock is one titled text section of a post.
type ContentBlock struct {
	HeaderImage *HeaderImage `json:"header_image,omitempty"`
	Title       string       `json:"title"`
	Body        string       `json:"body"`
}

// HeaderImage is either an uploaded binary image or a link to one.
type HeaderImage struct {
	Data        []byte `json:"data,omitempty"`
	ContentType string `json:"content_type,omitempty"`
	URL         string `json:"url,omitempty"`
}

// PostSummary is the list view of a post.
type PostSummary struct {
	ID            uuid.UUID  `json:"id"`
	Title         string     `json:"title"`
	Author        *UserRef   `json:"author,omitempty"`
	IsPublished   bool       `json:"is_published"`
	PublishedAt   *time.Time `json:"published_at,omitempty"`
	TotalComments int        `json:"total_comments"`
	CreatedAt     time.Time  `json:"created_at"`
}

// Title returns the title of the first block, or "" for a post without content.
func (p *Post) Title() string {
	if len(p.Content) == 0 {
		return ""
	}
	return p.Content[0].Title
}

// Summary projects the post onto its list view.
func (p *Post) Summary() PostSummary {
	return PostSummary{
		ID:            p.ID,
		Title:         p.Title(),
		Author:        p.Author,
		IsPublished:   p.IsPublished,
		PublishedAt:   p.PublishedAt,
		TotalComments: p.TotalComments,
		CreatedAt:     p.CreatedAt,
	}
}
