// Package memstore is an in-memory implementation of every store the core consumes.
// It mirrors the Postgres schema's constraints (unique user names, cascading
// deletes, foreign keys) and backs unit tests and local development.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"blog/backend/internal/model"
	"blog/backend/internal/store"
)

// Store keeps users, posts, comments and sessions in maps guarded by one RWMutex.
// Values are copied on the way in and out so callers never share memory with it.
type Store struct {
	mu       sync.RWMutex
	users    map[uuid.UUID]model.User
	posts    map[uuid.UUID]model.Post
	comments map[uuid.UUID]model.Comment
	sessions map[string]session

	lockMu    sync.Mutex
	postLocks map[uuid.UUID]*sync.Mutex
}

type session struct {
	userID    uuid.UUID
	expiresAt time.Time
}

// New returns an empty Store.
func New() *Store {
	return &Store{
		users:     make(map[uuid.UUID]model.User),
		posts:     make(map[uuid.UUID]model.Post),
		comments:  make(map[uuid.UUID]model.Comment),
		sessions:  make(map[string]session),
		postLocks: make(map[uuid.UUID]*sync.Mutex),
	}
}

func (s *Store) userRef(id uuid.UUID) *model.UserRef {
	u, ok := s.users[id]
	if !ok {
		return nil
	}
	return u.Ref()
}

func copyPost(p model.Post) model.Post {
	p.Content = append([]model.ContentBlock(nil), p.Content...)
	if p.PublishedAt != nil {
		t := *p.PublishedAt
		p.PublishedAt = &t
	}
	return p
}

// ListPosts returns post summaries, newest publication first, drafts last.
func (s *Store) ListPosts(_ context.Context, publishedOnly bool) ([]model.PostSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var posts []model.Post
	for _, p := range s.posts {
		if publishedOnly && !p.IsPublished {
			continue
		}
		p = copyPost(p)
		p.Author = s.userRef(p.AuthorID)
		posts = append(posts, p)
	}
	sort.Slice(posts, func(i, j int) bool {
		a, b := posts[i].PublishedAt, posts[j].PublishedAt
		switch {
		case a != nil && b != nil && !a.Equal(*b):
			return a.After(*b)
		case a != nil && b == nil:
			return true
		case a == nil && b != nil:
			return false
		}
		return posts[i].CreatedAt.After(posts[j].CreatedAt)
	})
	out := make([]model.PostSummary, 0, len(posts))
	for i := range posts {
		out = append(out, posts[i].Summary())
	}
	return out, nil
}

// GetPost returns a post with its author populated.
func (s *Store) GetPost(_ context.Context, id uuid.UUID) (*model.Post, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	p, ok := s.posts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	p = copyPost(p)
	p.Author = s.userRef(p.AuthorID)
	return &p, nil
}

func (s *Store) PostExists(_ context.Context, id uuid.UUID) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.posts[id]
	return ok, nil
}

func (s *Store) InsertPost(_ context.Context, p *model.Post) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[p.AuthorID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.posts[p.ID]; ok {
		return store.ErrConflict
	}
	cp := copyPost(*p)
	cp.Author = nil
	s.posts[p.ID] = cp
	return nil
}

func (s *Store) UpdatePostContent(_ context.Context, id uuid.UUID, content []model.ContentBlock) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.Content = append([]model.ContentBlock(nil), content...)
	s.posts[id] = p
	return nil
}

// UpdatePostPublication writes the publish flag; an existing PublishedAt is never replaced.
func (s *Store) UpdatePostPublication(_ context.Context, id uuid.UUID, isPublished bool, publishedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.posts[id]
	if !ok {
		return store.ErrNotFound
	}
	p.IsPublished = isPublished
	if p.PublishedAt == nil && publishedAt != nil {
		t := *publishedAt
		p.PublishedAt = &t
	}
	s.posts[id] = p
	return nil
}

// DeletePost removes a post and its comments.
func (s *Store) DeletePost(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[id]; !ok {
		return store.ErrNotFound
	}
	s.deletePostLocked(id)
	return nil
}

func (s *Store) deletePostLocked(id uuid.UUID) {
	delete(s.posts, id)
	s.lockMu.Lock()
	delete(s.postLocks, id)
	s.lockMu.Unlock()
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
}

func (s *Store) GetUserRef(_ context.Context, id uuid.UUID) (*model.UserRef, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ref := s.userRef(id)
	if ref == nil {
		return nil, store.ErrNotFound
	}
	return ref, nil
}
