package publish

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

func TestParseIntent(t *testing.T) {
	for in, want := range map[string]Intent{
		"publish":   IntentPublish,
		"yes":       IntentPublish,
		"unpublish": IntentUnpublish,
		"no":        IntentUnpublish,
	} {
		got, err := ParseIntent(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	for _, in := range []string{"", "Publish", "true", "maybe"} {
		_, err := ParseIntent(in)
		assert.True(t, outcome.IsValidation(err), in)
	}
}

func TestApplyStampsOnFirstPublish(t *testing.T) {
	first := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	clock := first
	m := NewMachine(func() time.Time { return clock })
	ctx := context.Background()
	post := &model.Post{}

	res, err := m.Apply(ctx, post, IntentPublish)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.True(t, res.IsPublished)
	require.NotNil(t, res.PublishedAt)
	assert.Equal(t, first, *res.PublishedAt)
	assert.False(t, post.IsPublished, "Apply must not mutate its input")

	post.IsPublished, post.PublishedAt = res.IsPublished, res.PublishedAt
	clock = first.Add(48 * time.Hour)

	res, err = m.Apply(ctx, post, IntentUnpublish)
	require.NoError(t, err)
	assert.True(t, res.Changed)
	assert.False(t, res.IsPublished)
	require.NotNil(t, res.PublishedAt, "unpublish keeps the first stamp")
	assert.Equal(t, first, *res.PublishedAt)

	post.IsPublished, post.PublishedAt = res.IsPublished, res.PublishedAt
	res, err = m.Apply(ctx, post, IntentPublish)
	require.NoError(t, err)
	assert.True(t, res.IsPublished)
	assert.Equal(t, first, *res.PublishedAt, "republish keeps the first stamp")
}

func TestApplySameStateIsNoop(t *testing.T) {
	m := NewMachine(nil)
	ctx := context.Background()
	stamp := time.Now().Add(-time.Hour)

	res, err := m.Apply(ctx, &model.Post{IsPublished: true, PublishedAt: &stamp}, IntentPublish)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.True(t, res.IsPublished)
	assert.Equal(t, stamp, *res.PublishedAt)

	res, err = m.Apply(ctx, &model.Post{}, IntentUnpublish)
	require.NoError(t, err)
	assert.False(t, res.Changed)
	assert.False(t, res.IsPublished)
	assert.Nil(t, res.PublishedAt)
}

func TestApplyUnknownIntent(t *testing.T) {
	_, err := NewMachine(nil).Apply(context.Background(), &model.Post{}, Intent("archive"))
	assert.True(t, outcome.IsValidation(err))
}
