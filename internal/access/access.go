// Package access holds the two authorization gates every operation composes:
// the visibility gate for reads and the authorship gate for writes.
//
// Denials follow one rule: an anonymous caller gets Forbidden, an authenticated
// caller without permission gets Unauthorized.
package access

import (
	"github.com/google/uuid"

	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

// Decision is the result of a gate.
type Decision int

const (
	Allow Decision = iota
	NotFound
	Unauthorized
	Forbidden
)

func (d Decision) String() string {
	switch d {
	case Allow:
		return "allow"
	case NotFound:
		return "not_found"
	case Unauthorized:
		return "unauthorized"
	case Forbidden:
		return "forbidden"
	default:
		return "unknown"
	}
}

// Err maps a denial onto its outcome sentinel. Allow maps to nil.
func (d Decision) Err() error {
	switch d {
	case Allow:
		return nil
	case NotFound:
		return outcome.ErrNotFound
	case Unauthorized:
		return outcome.ErrUnauthorized
	default:
		return outcome.ErrForbidden
	}
}

// deny picks the denial kind from the caller's authentication state.
func deny(caller *model.Identity) Decision {
	if caller.Authenticated() {
		return Unauthorized
	}
	return Forbidden
}

// CanView decides whether caller may read post and its comments.
// A nil post is one that does not exist.
func CanView(post *model.Post, caller *model.Identity) Decision {
	if post == nil {
		return NotFound
	}
	if post.IsPublished {
		return Allow
	}
	if caller.Authenticated() && caller.IsAuthor {
		return Allow
	}
	return deny(caller)
}

// Authenticated requires a signed-in caller.
func Authenticated(caller *model.Identity) Decision {
	if caller.Authenticated() {
		return Allow
	}
	return Forbidden
}

// CanCreate is the role-only check for creating posts.
func CanCreate(caller *model.Identity) Decision {
	if caller.Authenticated() && caller.IsAuthor {
		return Allow
	}
	return deny(caller)
}

// CanMutate decides whether caller may edit or delete a resource owned by owner.
// Only identity counts; being an author does not grant access to someone else's resource.
func CanMutate(caller *model.Identity, owner uuid.UUID) Decision {
	if caller.Authenticated() && caller.UserID == owner {
		return Allow
	}
	return deny(caller)
}
