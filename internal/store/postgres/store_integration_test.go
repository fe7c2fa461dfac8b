//go:build integration

package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/backend/internal/config"
	"blog/backend/internal/db"
	"blog/backend/internal/model"
	"blog/backend/internal/reconcile"
	"blog/backend/internal/store"
	"blog/backend/internal/store/postgres"
)

func newStore(t *testing.T) *postgres.Store {
	t.Helper()
	dsn := os.Getenv("BLOG_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("BLOG_TEST_DATABASE_URL not set")
	}
	require.NoError(t, db.MigrateUp(dsn, nil))

	cfg := config.DefaultConfig().Database
	cfg.URL = dsn
	pool, err := db.NewPool(context.Background(), cfg)
	require.NoError(t, err)
	t.Cleanup(pool.Close)
	return postgres.New(pool)
}

func newUser(t *testing.T, s *postgres.Store, isAuthor bool) *model.User {
	t.Helper()
	u := &model.User{
		ID:           uuid.New(),
		Name:         "user-" + uuid.NewString()[:12],
		PasswordHash: "hash",
		IsAuthor:     isAuthor,
		CreatedAt:    time.Now().UTC(),
	}
	require.NoError(t, s.InsertUser(context.Background(), u))
	t.Cleanup(func() { _, _ = s.DeleteUser(context.Background(), u.ID) })
	return u
}

func newPost(t *testing.T, s *postgres.Store, author uuid.UUID) *model.Post {
	t.Helper()
	p := &model.Post{
		ID:        uuid.New(),
		AuthorID:  author,
		Content:   []model.ContentBlock{{Title: "Integration", Body: "Stored in Postgres."}},
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, s.InsertPost(context.Background(), p))
	return p
}

func TestUsersAndSessions(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	u := newUser(t, s, false)

	dup := *u
	dup.ID = uuid.New()
	assert.ErrorIs(t, s.InsertUser(ctx, &dup), store.ErrConflict)

	got, err := s.GetUserByName(ctx, u.Name)
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	now := time.Now().UTC()
	require.NoError(t, s.InsertSession(ctx, "hash-"+u.ID.String(), u.ID, now.Add(time.Hour)))
	got, err = s.GetSessionUser(ctx, "hash-"+u.ID.String(), now)
	require.NoError(t, err)
	assert.Equal(t, u.Name, got.Name)
	_, err = s.GetSessionUser(ctx, "hash-"+u.ID.String(), now.Add(2*time.Hour))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestPostWritesTouchTheirColumns(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	author := newUser(t, s, true)
	p := newPost(t, s, author.ID)

	first := time.Now().UTC().Truncate(time.Microsecond)
	require.NoError(t, s.UpdatePostPublication(ctx, p.ID, true, &first))
	later := first.Add(time.Hour)
	require.NoError(t, s.UpdatePostPublication(ctx, p.ID, false, &later))
	require.NoError(t, s.UpdatePostContent(ctx, p.ID, []model.ContentBlock{{Title: "Replaced", Body: "New content body."}}))

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.False(t, got.IsPublished)
	require.NotNil(t, got.PublishedAt)
	assert.True(t, first.Equal(*got.PublishedAt))
	assert.Equal(t, "Replaced", got.Title())
	assert.Equal(t, author.Name, got.Author.Name)

	assert.ErrorIs(t, s.UpdatePostContent(ctx, uuid.New(), got.Content), store.ErrNotFound)
}

func TestCommentOnDeletedPost(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	author := newUser(t, s, true)
	p := newPost(t, s, author.ID)
	require.NoError(t, s.DeletePost(ctx, p.ID))

	err := s.InsertComment(ctx, &model.Comment{
		ID: uuid.New(), PostID: p.ID, CommenterID: author.ID, Text: "late", CreatedAt: time.Now(),
	})
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestConcurrentReconcile(t *testing.T) {
	const creates, deletes = 40, 10
	ctx := context.Background()
	s := newStore(t)
	author := newUser(t, s, true)
	p := newPost(t, s, author.ID)
	rec := reconcile.New(s, nil, nil)

	var doomed []uuid.UUID
	for i := 0; i < deletes; i++ {
		c := &model.Comment{ID: uuid.New(), PostID: p.ID, CommenterID: author.ID, Text: "x", CreatedAt: time.Now()}
		require.NoError(t, s.InsertComment(ctx, c))
		doomed = append(doomed, c.ID)
	}

	var wg sync.WaitGroup
	for i := 0; i < creates-deletes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &model.Comment{ID: uuid.New(), PostID: p.ID, CommenterID: author.ID, Text: "y", CreatedAt: time.Now()}
			if err := s.InsertComment(ctx, c); err != nil {
				t.Error(err)
				return
			}
			if _, err := rec.Reconcile(ctx, p.ID); err != nil {
				t.Error(err)
			}
		}()
	}
	for _, id := range doomed {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := s.DeleteComment(ctx, id); err != nil {
				t.Error(err)
				return
			}
			if _, err := rec.Reconcile(ctx, p.ID); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()

	got, err := s.GetPost(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, creates-deletes, got.TotalComments)
}

func TestDeleteUserReportsCommentedPosts(t *testing.T) {
	ctx := context.Background()
	s := newStore(t)
	author := newUser(t, s, true)
	reader := newUser(t, s, false)
	p := newPost(t, s, author.ID)
	require.NoError(t, s.InsertComment(ctx, &model.Comment{
		ID: uuid.New(), PostID: p.ID, CommenterID: reader.ID, Text: "bye", CreatedAt: time.Now(),
	}))

	ids, err := s.DeleteUser(ctx, reader.ID)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{p.ID}, ids)

	comments, err := s.ListComments(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
