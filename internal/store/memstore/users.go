package memstore

import (
	"context"
	"time"

	"github.com/google/uuid"

	"blog/backend/internal/model"
	"blog/backend/internal/store"
)

// InsertUser fails with store.ErrConflict when the name is taken.
func (s *Store) InsertUser(_ context.Context, u *model.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Name == u.Name || existing.ID == u.ID {
			return store.ErrConflict
		}
	}
	s.users[u.ID] = *u
	return nil
}

func (s *Store) GetUser(_ context.Context, id uuid.UUID) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) GetUserByName(_ context.Context, name string) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Name == name {
			return &u, nil
		}
	}
	return nil, store.ErrNotFound
}

// DeleteUser removes a user with their posts, comments and sessions. It returns
// the surviving posts that lost comments, whose counts now need reconciling.
func (s *Store) DeleteUser(_ context.Context, id uuid.UUID) ([]uuid.UUID, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[id]; !ok {
		return nil, store.ErrNotFound
	}

	for pid, p := range s.posts {
		if p.AuthorID == id {
			s.deletePostLocked(pid)
		}
	}
	seen := make(map[uuid.UUID]bool)
	var affected []uuid.UUID
	for cid, c := range s.comments {
		if c.CommenterID != id {
			continue
		}
		delete(s.comments, cid)
		if !seen[c.PostID] {
			seen[c.PostID] = true
			affected = append(affected, c.PostID)
		}
	}
	for token, sess := range s.sessions {
		if sess.userID == id {
			delete(s.sessions, token)
		}
	}
	delete(s.users, id)
	return affected, nil
}

func (s *Store) InsertSession(_ context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[userID]; !ok {
		return store.ErrNotFound
	}
	s.sessions[tokenHash] = session{userID: userID, expiresAt: expiresAt}
	return nil
}

// GetSessionUser returns the owner of an unexpired session.
func (s *Store) GetSessionUser(_ context.Context, tokenHash string, now time.Time) (*model.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[tokenHash]
	if !ok || !now.Before(sess.expiresAt) {
		return nil, store.ErrNotFound
	}
	u, ok := s.users[sess.userID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &u, nil
}

func (s *Store) DeleteSession(_ context.Context, tokenHash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, tokenHash)
	return nil
}
