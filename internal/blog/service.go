// Package blog implements the post and comment operations of the blog.
//
// Every operation takes the caller's identity explicitly, runs it through the
// access gates, and only then touches content, comments or publication state.
// Results are either values or one of the outcome sentinels.
package blog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"blog/backend/internal/access"
	"blog/backend/internal/metrics"
	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
	"blog/backend/internal/publish"
	"blog/backend/internal/store"
)

// Outcomes returned by the operations.
var (
	ErrNotFound     = outcome.ErrNotFound
	ErrUnauthorized = outcome.ErrUnauthorized
	ErrForbidden    = outcome.ErrForbidden
	ErrConflict     = outcome.ErrConflict
)

// Store is the document storage the service reads and writes.
// Lookups return store.ErrNotFound for missing rows. Writes touch only the
// columns they name.
type Store interface {
	ListPosts(ctx context.Context, publishedOnly bool) ([]model.PostSummary, error)
	GetPost(ctx context.Context, id uuid.UUID) (*model.Post, error)
	PostExists(ctx context.Context, id uuid.UUID) (bool, error)
	InsertPost(ctx context.Context, p *model.Post) error
	UpdatePostContent(ctx context.Context, id uuid.UUID, content []model.ContentBlock) error
	UpdatePostPublication(ctx context.Context, id uuid.UUID, isPublished bool, publishedAt *time.Time) error
	DeletePost(ctx context.Context, id uuid.UUID) error
	GetUserRef(ctx context.Context, id uuid.UUID) (*model.UserRef, error)

	ListComments(ctx context.Context, postID uuid.UUID) ([]model.Comment, error)
	GetComment(ctx context.Context, id uuid.UUID) (*model.Comment, error)
	InsertComment(ctx context.Context, c *model.Comment) error
	UpdateCommentText(ctx context.Context, id uuid.UUID, text string) error
	DeleteComment(ctx context.Context, id uuid.UUID) error
}

// Reconciler recounts a post's comments after a comment write.
type Reconciler interface {
	Reconcile(ctx context.Context, postID uuid.UUID) (int, error)
}

// Service runs blog operations against a Store.
type Service struct {
	store      Store
	reconciler Reconciler
	machine    *publish.Machine
	logger     *slog.Logger
	metrics    *metrics.Metrics
	now        func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the service logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

// WithMetrics sets the metrics sink for gate decisions.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a Service.
func NewService(st Store, rec Reconciler, opts ...Option) *Service {
	s := &Service{
		store:      st,
		reconciler: rec,
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.machine = publish.NewMachine(s.now)
	return s
}

// gate records a decision and turns it into the operation's error.
func (s *Service) gate(name string, d access.Decision) error {
	s.metrics.ObserveGate(name, d.String())
	return d.Err()
}

// parseID treats a malformed id like a missing resource.
func parseID(raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, outcome.ErrNotFound
	}
	return id, nil
}

// storeErr maps store sentinels to outcomes and wraps anything else.
func storeErr(op string, err error) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return outcome.ErrNotFound
	case errors.Is(err, store.ErrConflict):
		return outcome.ErrConflict
	}
	return fmt.Errorf("%s: %w", op, err)
}
