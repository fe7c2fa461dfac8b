package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"blog/backend/internal/model"
	"blog/backend/internal/store"
)

// ListComments returns the comments of a post, oldest first, commenters populated.
func (s *Store) ListComments(_ context.Context, postID uuid.UUID) ([]model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []model.Comment{}
	for _, c := range s.comments {
		if c.PostID == postID {
			c.Commenter = s.userRef(c.CommenterID)
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *Store) GetComment(_ context.Context, id uuid.UUID) (*model.Comment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.comments[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	c.Commenter = s.userRef(c.CommenterID)
	return &c, nil
}

// InsertComment fails with store.ErrNotFound when the post or commenter is gone.
func (s *Store) InsertComment(_ context.Context, c *model.Comment) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.posts[c.PostID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.users[c.CommenterID]; !ok {
		return store.ErrNotFound
	}
	if _, ok := s.comments[c.ID]; ok {
		return store.ErrConflict
	}
	cp := *c
	cp.Commenter = nil
	s.comments[c.ID] = cp
	return nil
}

func (s *Store) UpdateCommentText(_ context.Context, id uuid.UUID, text string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.comments[id]
	if !ok {
		return store.ErrNotFound
	}
	c.Text = text
	s.comments[id] = c
	return nil
}

func (s *Store) DeleteComment(_ context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.comments[id]; !ok {
		return store.ErrNotFound
	}
	delete(s.comments, id)
	return nil
}

// postLock returns the mutex serialising reconciles of one post.
func (s *Store) postLock(id uuid.UUID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	l, ok := s.postLocks[id]
	if !ok {
		l = &sync.Mutex{}
		s.postLocks[id] = l
	}
	return l
}

// WithPostLock runs fn while holding the post's reconcile lock.
func (s *Store) WithPostLock(ctx context.Context, postID uuid.UUID, fn func(context.Context, store.CounterTx) error) error {
	l := s.postLock(postID)
	l.Lock()
	defer l.Unlock()

	if ok, _ := s.PostExists(ctx, postID); !ok {
		s.lockMu.Lock()
		delete(s.postLocks, postID)
		s.lockMu.Unlock()
		return store.ErrNotFound
	}
	return fn(ctx, counterTx{s: s, postID: postID})
}

type counterTx struct {
	s      *Store
	postID uuid.UUID
}

func (tx counterTx) CountComments(context.Context) (int, error) {
	tx.s.mu.RLock()
	defer tx.s.mu.RUnlock()
	n := 0
	for _, c := range tx.s.comments {
		if c.PostID == tx.postID {
			n++
		}
	}
	return n, nil
}

func (tx counterTx) SetTotalComments(_ context.Context, n int) error {
	tx.s.mu.Lock()
	defer tx.s.mu.Unlock()
	p, ok := tx.s.posts[tx.postID]
	if !ok {
		return store.ErrNotFound
	}
	p.TotalComments = n
	tx.s.posts[tx.postID] = p
	return nil
}
