package memstore

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/backend/internal/model"
	"blog/backend/internal/store"
)

func addUser(t *testing.T, s *Store, name string) uuid.UUID {
	t.Helper()
	u := &model.User{ID: uuid.New(), Name: name, IsAuthor: true}
	require.NoError(t, s.InsertUser(context.Background(), u))
	return u.ID
}

func addPost(t *testing.T, s *Store, author uuid.UUID, created time.Time, published *time.Time) uuid.UUID {
	t.Helper()
	p := &model.Post{
		ID:          uuid.New(),
		AuthorID:    author,
		Content:     []model.ContentBlock{{Title: "Title", Body: "0123456789"}},
		IsPublished: published != nil,
		PublishedAt: published,
		CreatedAt:   created,
	}
	require.NoError(t, s.InsertPost(context.Background(), p))
	return p.ID
}

func TestListPostsOrder(t *testing.T) {
	s := New()
	author := addUser(t, s, "author")
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	pubEarly, pubLate := base.Add(time.Hour), base.Add(2*time.Hour)

	oldDraft := addPost(t, s, author, base, nil)
	newDraft := addPost(t, s, author, base.Add(3*time.Hour), nil)
	early := addPost(t, s, author, base, &pubEarly)
	late := addPost(t, s, author, base, &pubLate)

	all, err := s.ListPosts(context.Background(), false)
	require.NoError(t, err)
	var ids []uuid.UUID
	for _, p := range all {
		ids = append(ids, p.ID)
	}
	assert.Equal(t, []uuid.UUID{late, early, newDraft, oldDraft}, ids)
	assert.Equal(t, "author", all[0].Author.Name)

	pub, err := s.ListPosts(context.Background(), true)
	require.NoError(t, err)
	assert.Len(t, pub, 2)
}

func TestPublicationKeepsFirstStamp(t *testing.T) {
	ctx := context.Background()
	s := New()
	id := addPost(t, s, addUser(t, s, "author"), time.Now(), nil)

	first := time.Now()
	require.NoError(t, s.UpdatePostPublication(ctx, id, true, &first))
	later := first.Add(time.Hour)
	require.NoError(t, s.UpdatePostPublication(ctx, id, true, &later))

	p, err := s.GetPost(ctx, id)
	require.NoError(t, err)
	assert.True(t, first.Equal(*p.PublishedAt))
	assert.ErrorIs(t, s.UpdatePostPublication(ctx, uuid.New(), true, &first), store.ErrNotFound)
}

func TestDeleteUserCascades(t *testing.T) {
	ctx := context.Background()
	s := New()
	author := addUser(t, s, "author")
	reader := addUser(t, s, "reader")
	kept := addPost(t, s, author, time.Now(), nil)
	gone := addPost(t, s, reader, time.Now(), nil)

	for _, postID := range []uuid.UUID{kept, kept, gone} {
		require.NoError(t, s.InsertComment(ctx, &model.Comment{ID: uuid.New(), PostID: postID, CommenterID: reader, Text: "x"}))
	}
	require.NoError(t, s.InsertSession(ctx, "token", reader, time.Now().Add(time.Hour)))

	affected, err := s.DeleteUser(ctx, reader)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{kept}, affected)

	comments, err := s.ListComments(ctx, kept)
	require.NoError(t, err)
	assert.Empty(t, comments)
	_, err = s.GetPost(ctx, gone)
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = s.GetSessionUser(ctx, "token", time.Now())
	assert.ErrorIs(t, err, store.ErrNotFound)

	err = s.InsertComment(ctx, &model.Comment{ID: uuid.New(), PostID: gone, CommenterID: author, Text: "x"})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestDeletePostDropsReconcileLock(t *testing.T) {
	ctx := context.Background()
	s := New()
	author := addUser(t, s, "author")
	id := addPost(t, s, author, time.Now(), nil)
	other := addPost(t, s, author, time.Now(), nil)

	noop := func(context.Context, store.CounterTx) error { return nil }
	require.NoError(t, s.WithPostLock(ctx, id, noop))
	require.NoError(t, s.WithPostLock(ctx, other, noop))
	require.Len(t, s.postLocks, 2)

	require.NoError(t, s.DeletePost(ctx, id))
	assert.Len(t, s.postLocks, 1)
	assert.ErrorIs(t, s.WithPostLock(ctx, id, noop), store.ErrNotFound)
	assert.Len(t, s.postLocks, 1)
	_, err := s.DeleteUser(ctx, author)
	require.NoError(t, err)
	assert.Empty(t, s.postLocks)
}
