package access

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

var (
	author = &model.Identity{UserID: uuid.New(), Name: "author", IsAuthor: true}
	reader = &model.Identity{UserID: uuid.New(), Name: "reader"}
)

func TestCanView(t *testing.T) {
	draft := &model.Post{ID: uuid.New(), AuthorID: author.UserID}
	published := &model.Post{ID: uuid.New(), AuthorID: author.UserID, IsPublished: true}

	tests := []struct {
		name   string
		post   *model.Post
		caller *model.Identity
		want   Decision
	}{
		{"missing post", nil, author, NotFound},
		{"missing post anonymous", nil, nil, NotFound},
		{"published anonymous", published, nil, Allow},
		{"published reader", published, reader, Allow},
		{"published author", published, author, Allow},
		{"draft author", draft, author, Allow},
		{"draft other author", draft, &model.Identity{UserID: uuid.New(), IsAuthor: true}, Allow},
		{"draft reader", draft, reader, Unauthorized},
		{"draft anonymous", draft, nil, Forbidden},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CanView(tt.post, tt.caller))
		})
	}
}

func TestCanCreate(t *testing.T) {
	assert.Equal(t, Allow, CanCreate(author))
	assert.Equal(t, Unauthorized, CanCreate(reader))
	assert.Equal(t, Forbidden, CanCreate(nil))
}

func TestCanMutate(t *testing.T) {
	owner := &model.Identity{UserID: uuid.New()}
	otherAuthor := &model.Identity{UserID: uuid.New(), IsAuthor: true}

	assert.Equal(t, Allow, CanMutate(owner, owner.UserID))
	assert.Equal(t, Unauthorized, CanMutate(otherAuthor, owner.UserID), "role must not override ownership")
	assert.Equal(t, Unauthorized, CanMutate(reader, owner.UserID))
	assert.Equal(t, Forbidden, CanMutate(nil, owner.UserID))
}

func TestDecisionErr(t *testing.T) {
	assert.NoError(t, Allow.Err())
	assert.ErrorIs(t, NotFound.Err(), outcome.ErrNotFound)
	assert.ErrorIs(t, Unauthorized.Err(), outcome.ErrUnauthorized)
	assert.ErrorIs(t, Forbidden.Err(), outcome.ErrForbidden)
	assert.Equal(t, "forbidden", Forbidden.String())
}
