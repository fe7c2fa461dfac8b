package blog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/backend/internal/blog"
	"blog/backend/internal/content"
	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
	"blog/backend/internal/store/memstore"
)

func (f *fixture) total(t *testing.T, postID uuid.UUID) int {
	t.Helper()
	p, err := f.store.GetPost(context.Background(), postID)
	require.NoError(t, err)
	return p.TotalComments
}

func TestCreateComment(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.published(t)

	res, err := f.svc.CreateComment(ctx, p.ID.String(), f.reader, "  Great read <script>alert(1)</script> ")
	require.NoError(t, err)
	assert.Equal(t, "Great read", res.Comment.Text)
	require.NotNil(t, res.Comment.Commenter)
	assert.Equal(t, "reader", res.Comment.Commenter.Name)
	assert.Equal(t, 1, res.TotalComments)
	assert.Empty(t, res.Warnings)
	assert.Equal(t, 1, f.total(t, p.ID))

	comments, err := f.svc.ListComments(ctx, p.ID.String(), nil)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, res.Comment.ID, comments[0].ID)
}

func TestCreateCommentGates(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	draft := f.draft(t)
	pub := f.published(t)

	_, err := f.svc.CreateComment(ctx, pub.ID.String(), nil, "hello")
	assert.ErrorIs(t, err, blog.ErrForbidden)
	_, err = f.svc.CreateComment(ctx, draft.ID.String(), f.reader, "hello")
	assert.ErrorIs(t, err, blog.ErrUnauthorized)
	_, err = f.svc.CreateComment(ctx, uuid.NewString(), f.reader, "hello")
	assert.ErrorIs(t, err, blog.ErrNotFound)
	_, err = f.svc.CreateComment(ctx, pub.ID.String(), f.reader, "   ")
	assert.True(t, outcome.IsValidation(err))
	// Nothing is left once the markup is stripped.
	_, err = f.svc.CreateComment(ctx, pub.ID.String(), f.reader, "<b> </b>")
	assert.True(t, outcome.IsValidation(err))

	_, err = f.svc.ListComments(ctx, draft.ID.String(), f.reader)
	assert.ErrorIs(t, err, blog.ErrUnauthorized)
	_, err = f.svc.ListComments(ctx, draft.ID.String(), nil)
	assert.ErrorIs(t, err, blog.ErrForbidden)

	assert.Zero(t, f.total(t, pub.ID))
}

func TestCommentOwnership(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.published(t)
	res, err := f.svc.CreateComment(ctx, p.ID.String(), f.reader, "mine")
	require.NoError(t, err)
	id := res.Comment.ID.String()

	// Owning the post does not grant access to someone else's comment.
	for _, caller := range []*model.Identity{f.author, f.other} {
		_, err = f.svc.EditComment(ctx, id, caller, "theirs")
		assert.ErrorIs(t, err, blog.ErrUnauthorized)
		_, err = f.svc.DeleteComment(ctx, id, caller)
		assert.ErrorIs(t, err, blog.ErrUnauthorized)
	}
	_, err = f.svc.EditComment(ctx, id, nil, "theirs")
	assert.ErrorIs(t, err, blog.ErrForbidden)
	_, err = f.svc.DeleteComment(ctx, id, nil)
	assert.ErrorIs(t, err, blog.ErrForbidden)
	_, err = f.svc.EditComment(ctx, "bogus", f.reader, "x")
	assert.ErrorIs(t, err, blog.ErrNotFound)

	edited, err := f.svc.EditComment(ctx, id, f.reader, "still mine")
	require.NoError(t, err)
	assert.Equal(t, "still mine", edited.Text)

	del, err := f.svc.DeleteComment(ctx, id, f.reader)
	require.NoError(t, err)
	assert.Zero(t, del.TotalComments)
	assert.Zero(t, f.total(t, p.ID))
}

func TestCommentCountsConverge(t *testing.T) {
	const creates, deletes = 30, 12
	ctx := context.Background()
	f := newFixture(t)
	p := f.published(t)

	ids := make(chan uuid.UUID, creates)
	var wg sync.WaitGroup
	for i := 0; i < creates; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := f.svc.CreateComment(ctx, p.ID.String(), f.reader, "comment")
			if err != nil {
				t.Error(err)
				return
			}
			ids <- res.Comment.ID
		}()
	}

	var dwg sync.WaitGroup
	for i := 0; i < deletes; i++ {
		dwg.Add(1)
		go func() {
			defer dwg.Done()
			id := <-ids
			if _, err := f.svc.DeleteComment(ctx, id.String(), f.reader); err != nil {
				t.Error(err)
			}
		}()
	}
	wg.Wait()
	dwg.Wait()

	assert.Equal(t, creates-deletes, f.total(t, p.ID))
}

func TestTwoCreatesOneDelete(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.published(t)

	results := make([]*blog.CommentResult, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			res, err := f.svc.CreateComment(ctx, p.ID.String(), f.reader, "hello")
			if err != nil {
				t.Error(err)
				return
			}
			results[i] = res
		}(i)
	}
	wg.Wait()
	require.NotNil(t, results[0])

	_, err := f.svc.DeleteComment(ctx, results[0].Comment.ID.String(), f.reader)
	require.NoError(t, err)
	assert.Equal(t, 1, f.total(t, p.ID))
}

type brokenReconciler struct{}

func (brokenReconciler) Reconcile(context.Context, uuid.UUID) (int, error) {
	return 0, errors.New("reconcile: connection refused")
}

func TestReconcileFailureIsWarning(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.published(t)
	svc := blog.NewService(f.store, brokenReconciler{})

	res, err := svc.CreateComment(ctx, p.ID.String(), f.reader, "still saved")
	require.NoError(t, err)
	require.NotEmpty(t, res.Warnings)

	comments, err := svc.ListComments(ctx, p.ID.String(), f.reader)
	require.NoError(t, err)
	assert.Len(t, comments, 1)

	res, err = svc.DeleteComment(ctx, res.Comment.ID.String(), f.reader)
	require.NoError(t, err)
	assert.NotEmpty(t, res.Warnings)
}

// refStore fails to populate user references.
type refStore struct {
	*memstore.Store
}

func (refStore) GetUserRef(context.Context, uuid.UUID) (*model.UserRef, error) {
	return nil, errors.New("read timeout")
}

func TestFailedCreatesLeaveNothingBehind(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	p := f.published(t)
	svc := blog.NewService(refStore{f.store}, brokenReconciler{})

	_, err := svc.CreatePost(ctx, f.author, input(content.RawBlock{Title: "Orphan", Body: "0123456789"}))
	require.Error(t, err)
	assert.NotErrorIs(t, err, blog.ErrNotFound)
	posts, err := f.svc.ListPosts(ctx, f.author)
	require.NoError(t, err)
	assert.Len(t, posts, 1)

	_, err = svc.CreateComment(ctx, p.ID.String(), f.reader, "orphan")
	require.Error(t, err)
	comments, err := f.svc.ListComments(ctx, p.ID.String(), f.reader)
	require.NoError(t, err)
	assert.Empty(t, comments)
}
