package reconcile_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/backend/internal/metrics"
	"blog/backend/internal/model"
	"blog/backend/internal/reconcile"
	"blog/backend/internal/store"
	"blog/backend/internal/store/memstore"
)

func seed(t *testing.T, s *memstore.Store) (userID, postID uuid.UUID) {
	t.Helper()
	ctx := context.Background()
	u := &model.User{ID: uuid.New(), Name: "ada", IsAuthor: true, CreatedAt: time.Now()}
	require.NoError(t, s.InsertUser(ctx, u))
	p := &model.Post{
		ID:        uuid.New(),
		AuthorID:  u.ID,
		Content:   []model.ContentBlock{{Title: "Hello", Body: "0123456789"}},
		CreatedAt: time.Now(),
	}
	require.NoError(t, s.InsertPost(ctx, p))
	return u.ID, p.ID
}

func addComment(t *testing.T, s *memstore.Store, userID, postID uuid.UUID) uuid.UUID {
	t.Helper()
	c := &model.Comment{ID: uuid.New(), PostID: postID, CommenterID: userID, Text: "hi", CreatedAt: time.Now()}
	require.NoError(t, s.InsertComment(context.Background(), c))
	return c.ID
}

func TestReconcileCountsLiveComments(t *testing.T) {
	ctx := context.Background()
	s := memstore.New()
	userID, postID := seed(t, s)
	for i := 0; i < 3; i++ {
		addComment(t, s, userID, postID)
	}

	r := reconcile.New(s, nil, nil)
	n, err := r.Reconcile(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	p, err := s.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, 3, p.TotalComments)
}

func TestReconcileConcurrentCreatesAndDeletes(t *testing.T) {
	const creates, deletes = 40, 15
	ctx := context.Background()
	s := memstore.New()
	userID, postID := seed(t, s)
	r := reconcile.New(s, nil, nil)

	// Comments to delete exist up front so the deletes can race the creates.
	doomed := make([]uuid.UUID, deletes)
	for i := range doomed {
		doomed[i] = addComment(t, s, userID, postID)
	}

	var wg sync.WaitGroup
	for i := 0; i < creates-deletes; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c := &model.Comment{ID: uuid.New(), PostID: postID, CommenterID: userID, Text: "x", CreatedAt: time.Now()}
			if err := s.InsertComment(ctx, c); err != nil {
				t.Error(err)
				return
			}
			if _, err := r.Reconcile(ctx, postID); err != nil {
				t.Error(err)
			}
		}()
	}
	for _, id := range doomed {
		wg.Add(1)
		go func(id uuid.UUID) {
			defer wg.Done()
			if err := s.DeleteComment(ctx, id); err != nil {
				t.Error(err)
				return
			}
			if _, err := r.Reconcile(ctx, postID); err != nil {
				t.Error(err)
			}
		}(id)
	}
	wg.Wait()

	p, err := s.GetPost(ctx, postID)
	require.NoError(t, err)
	assert.Equal(t, creates-deletes, p.TotalComments)
}

func TestReconcileMissingPost(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	r := reconcile.New(memstore.New(), nil, m)

	n, err := r.Reconcile(context.Background(), uuid.New())
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.Equal(t, 1, testutil.CollectAndCount(reg, "blog_comment_reconciles_total"))
}

type failingTx struct{}

func (failingTx) CountComments(context.Context) (int, error) { return 2, nil }
func (failingTx) SetTotalComments(context.Context, int) error {
	return errors.New("connection reset")
}

type failingStore struct{}

func (failingStore) WithPostLock(ctx context.Context, _ uuid.UUID, fn func(context.Context, store.CounterTx) error) error {
	return fn(ctx, failingTx{})
}

func TestReconcilePersistFailure(t *testing.T) {
	r := reconcile.New(failingStore{}, nil, nil)
	_, err := r.Reconcile(context.Background(), uuid.New())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "set total comments")
	assert.Contains(t, err.Error(), "connection reset")
}
