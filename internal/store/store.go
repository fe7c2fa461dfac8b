// Package store holds what the storage backends share: sentinel errors and the
// locked counter view used by the comment count reconciler.
package store

import (
	"context"
	"errors"
)

var (
	// ErrNotFound is returned when a row does not exist, including when a write
	// references a row that was deleted concurrently.
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned on unique constraint violations.
	ErrConflict = errors.New("record conflicts with an existing one")
)

// CounterTx is a post row held locked for the duration of a reconcile.
// Only the comment count column may be written through it.
type CounterTx interface {
	CountComments(ctx context.Context) (int, error)
	SetTotalComments(ctx context.Context, n int) error
}
