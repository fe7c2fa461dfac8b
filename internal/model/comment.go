package model

import (
	"time"

	"github.com/google/uuid"
)

// Comment is a reader's note on a post. It references, but never owns, its post and commenter.
type Comment struct {
	ID          uuid.UUID `json:"id"`
	PostID      uuid.UUID `json:"post_id"`
	CommenterID uuid.UUID `json:"commenter_id"`
	Commenter   *UserRef  `json:"commenter,omitempty"`
	Text        string    `json:"text"`
	CreatedAt   time.Time `json:"created_at"`
}
