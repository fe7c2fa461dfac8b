// Package reconcile keeps a post's denormalized comment count equal to the number
// of comments that reference it.
//
// The count is always recomputed from the comments themselves and written back to
// the count column alone. Concurrent reconciles of one post are serialised on the
// post row, so whichever finishes last has counted after every earlier commit.
package reconcile

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"blog/backend/internal/metrics"
	"blog/backend/internal/store"
)

// Store locks one post row and hands out its counter view.
// WithPostLock returns store.ErrNotFound when the post does not exist.
type Store interface {
	WithPostLock(ctx context.Context, postID uuid.UUID, fn func(ctx context.Context, tx store.CounterTx) error) error
}

// Reconciler recounts comments of a post on demand.
type Reconciler struct {
	store   Store
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// New creates a Reconciler. logger and m may be nil.
func New(s Store, logger *slog.Logger, m *metrics.Metrics) *Reconciler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reconciler{store: s, logger: logger, metrics: m}
}

// Reconcile recounts the comments of postID, persists the count and returns it.
// It must run after the comment write that triggered it has committed.
// A post that no longer exists has nothing to reconcile and yields 0 without error.
func (r *Reconciler) Reconcile(ctx context.Context, postID uuid.UUID) (int, error) {
	start := time.Now()
	var count int
	err := r.store.WithPostLock(ctx, postID, func(ctx context.Context, tx store.CounterTx) error {
		n, err := tx.CountComments(ctx)
		if err != nil {
			return fmt.Errorf("count comments: %w", err)
		}
		if err := tx.SetTotalComments(ctx, n); err != nil {
			return fmt.Errorf("set total comments: %w", err)
		}
		count = n
		return nil
	})
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.metrics.ObserveReconcile("gone", time.Since(start))
		r.logger.Debug("Reconcile skipped, post gone", "post_id", postID)
		return 0, nil
	case err != nil:
		r.metrics.ObserveReconcile("error", time.Since(start))
		r.logger.Warn("Reconcile failed", "post_id", postID, "error", err)
		return 0, fmt.Errorf("reconcile post %s: %w", postID, err)
	}
	r.metrics.ObserveReconcile("ok", time.Since(start))
	r.logger.Debug("Reconciled comment count", "post_id", postID, "total_comments", count)
	return count, nil
}
