package model

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account. IsAuthor is fixed at creation.
type User struct {
	ID           uuid.UUID `json:"id"`
	Name         string    `json:"name"`
	PasswordHash string    `json:"-"`
	IsAuthor     bool      `json:"is_author"`
	CreatedAt    time.Time `json:"created_at"`
}

// UserRef is the populated subset of a user embedded in posts and comments.
type UserRef struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// Ref returns the populated view of u.
func (u *User) Ref() *UserRef {
	return &UserRef{ID: u.ID, Name: u.Name}
}

// Identity is the resolved caller of one operation.
// A nil *Identity is an anonymous caller.
type Identity struct {
	UserID   uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	IsAuthor bool      `json:"is_author"`
}

// Authenticated reports whether the caller is signed in.
func (id *Identity) Authenticated() bool {
	return id != nil
}

// Identity returns the caller identity carried by u.
func (u *User) Identity() *Identity {
	return &Identity{UserID: u.ID, Name: u.Name, IsAuthor: u.IsAuthor}
}
