// Package auth registers users, signs them in and out, and resolves session
// tokens into the caller identity the blog operations take.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"golang.org/x/sync/errgroup"

	"blog/backend/internal/access"
	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
	"blog/backend/internal/store"
)

const (
	MinNameLen     = 3
	MinPasswordLen = 5

	// reconcileLimit bounds the recounts run in parallel after a user is deleted.
	reconcileLimit = 8
)

// Store persists users and their sessions. Sessions are keyed by the hash of
// their token; the token itself is never stored.
type Store interface {
	InsertUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uuid.UUID) (*model.User, error)
	GetUserByName(ctx context.Context, name string) (*model.User, error)
	DeleteUser(ctx context.Context, id uuid.UUID) ([]uuid.UUID, error)
	InsertSession(ctx context.Context, tokenHash string, userID uuid.UUID, expiresAt time.Time) error
	GetSessionUser(ctx context.Context, tokenHash string, now time.Time) (*model.User, error)
	DeleteSession(ctx context.Context, tokenHash string) error
}

// Reconciler recounts a post's comments.
type Reconciler interface {
	Reconcile(ctx context.Context, postID uuid.UUID) (int, error)
}

// Session is a signed-in caller and the token that identifies them.
type Session struct {
	Token     string          `json:"token"`
	ExpiresAt time.Time       `json:"expires_at"`
	Identity  *model.Identity `json:"user"`
}

// Deleted reports a removed account.
type Deleted struct {
	User     *model.User `json:"user"`
	Warnings []string    `json:"warnings,omitempty"`
}

// Service implements account operations.
type Service struct {
	store      Store
	reconciler Reconciler
	logger     *slog.Logger
	now        func() time.Time
	cost       int
	ttl        time.Duration
}

// Option configures a Service.
type Option func(*Service)

func WithLogger(l *slog.Logger) Option {
	return func(s *Service) { s.logger = l }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithBcryptCost sets the password hashing cost. Tests use bcrypt.MinCost.
func WithBcryptCost(cost int) Option {
	return func(s *Service) { s.cost = cost }
}

// WithSessionTTL sets how long a session token stays valid.
func WithSessionTTL(ttl time.Duration) Option {
	return func(s *Service) { s.ttl = ttl }
}

// NewService creates a Service.
func NewService(st Store, rec Reconciler, opts ...Option) *Service {
	s := &Service{
		store:      st,
		reconciler: rec,
		logger:     slog.Default(),
		now:        time.Now,
		cost:       bcrypt.DefaultCost,
		ttl:        30 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func hashToken(token uuid.UUID) string {
	sum := sha256.Sum256(token[:])
	return hex.EncodeToString(sum[:])
}

func credentialErrors(name, password string) []outcome.FieldError {
	var errs []outcome.FieldError
	if utf8.RuneCountInString(name) < MinNameLen {
		errs = append(errs, outcome.FieldError{
			Field:   "username",
			Message: fmt.Sprintf("Username should have at least %d characters.", MinNameLen),
			Entry:   name,
		})
	}
	if utf8.RuneCountInString(strings.TrimSpace(password)) < MinPasswordLen {
		errs = append(errs, outcome.FieldError{
			Field:   "password",
			Message: fmt.Sprintf("Password should have at least %d characters.", MinPasswordLen),
		})
	}
	return errs
}

// SignUp registers a reader account.
func (s *Service) SignUp(ctx context.Context, name, password, confirmation string) (*model.User, error) {
	name = strings.TrimSpace(name)
	errs := credentialErrors(name, password)
	if confirmation != password {
		errs = append(errs, outcome.FieldError{
			Field:   "passwordConfirmation",
			Message: "Password and confirm password does not match.",
		})
	}
	if err := outcome.Invalid(errs...); err != nil {
		return nil, err
	}
	return s.create(ctx, name, password, false)
}

// CreateUser provisions an account directly, including authors.
func (s *Service) CreateUser(ctx context.Context, name, password string, isAuthor bool) (*model.User, error) {
	name = strings.TrimSpace(name)
	if err := outcome.Invalid(credentialErrors(name, password)...); err != nil {
		return nil, err
	}
	return s.create(ctx, name, password, isAuthor)
}

func (s *Service) create(ctx context.Context, name, password string, isAuthor bool) (*model.User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	u := &model.User{
		ID:           uuid.New(),
		Name:         name,
		PasswordHash: string(hash),
		IsAuthor:     isAuthor,
		CreatedAt:    s.now().UTC(),
	}
	if err := s.store.InsertUser(ctx, u); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, outcome.ErrConflict
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}
	s.logger.Info("User created", "user_id", u.ID, "name", u.Name, "is_author", isAuthor)
	return u, nil
}

// Login checks credentials and opens a session.
func (s *Service) Login(ctx context.Context, name, password string) (*Session, error) {
	name = strings.TrimSpace(name)
	if err := outcome.Invalid(credentialErrors(name, password)...); err != nil {
		return nil, err
	}
	u, err := s.store.GetUserByName(ctx, name)
	if errors.Is(err, store.ErrNotFound) {
		return nil, outcome.Invalid(outcome.FieldError{Field: "username", Message: "Username not registered.", Entry: name})
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return nil, outcome.Invalid(outcome.FieldError{Field: "password", Message: "Incorrect password."})
	}

	token := uuid.New()
	expiresAt := s.now().UTC().Add(s.ttl)
	if err := s.store.InsertSession(ctx, hashToken(token), u.ID, expiresAt); err != nil {
		return nil, fmt.Errorf("insert session: %w", err)
	}
	s.logger.Info("User logged in", "user_id", u.ID)
	return &Session{Token: token.String(), ExpiresAt: expiresAt, Identity: u.Identity()}, nil
}

// Logout ends the session of token. Unknown tokens are ignored.
func (s *Service) Logout(ctx context.Context, token string) error {
	id, err := uuid.Parse(token)
	if err != nil {
		return nil
	}
	if err := s.store.DeleteSession(ctx, hashToken(id)); err != nil && !errors.Is(err, store.ErrNotFound) {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// Resolve returns the identity behind token, or nil for an anonymous caller.
func (s *Service) Resolve(ctx context.Context, token string) (*model.Identity, error) {
	if token == "" {
		return nil, nil
	}
	id, err := uuid.Parse(token)
	if err != nil {
		return nil, nil
	}
	u, err := s.store.GetSessionUser(ctx, hashToken(id), s.now())
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve session: %w", err)
	}
	return u.Identity(), nil
}

// Me returns the caller's own account.
func (s *Service) Me(ctx context.Context, caller *model.Identity) (*model.User, error) {
	if err := access.Authenticated(caller).Err(); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, caller.UserID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, outcome.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

// DeleteUser removes the caller's own account with its posts, comments and
// sessions, then recounts the comments of posts the user had commented on.
func (s *Service) DeleteUser(ctx context.Context, userID string, caller *model.Identity) (*Deleted, error) {
	id, err := uuid.Parse(userID)
	if err != nil {
		return nil, outcome.ErrNotFound
	}
	if err := access.CanMutate(caller, id).Err(); err != nil {
		return nil, err
	}
	u, err := s.store.GetUser(ctx, id)
	var affected []uuid.UUID
	if err == nil {
		affected, err = s.store.DeleteUser(ctx, id)
	}
	if errors.Is(err, store.ErrNotFound) {
		return nil, outcome.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("delete user: %w", err)
	}
	s.logger.Info("User deleted", "user_id", id, "affected_posts", len(affected))

	res := &Deleted{User: u}
	if n := s.reconcileAll(ctx, affected); n > 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("comment count could not be updated on %d posts", n))
	}
	return res, nil
}

// reconcileAll recounts every post in ids and returns how many failed.
func (s *Service) reconcileAll(ctx context.Context, ids []uuid.UUID) int {
	var (
		mu     sync.Mutex
		failed int
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(reconcileLimit)
	for _, postID := range ids {
		g.Go(func() error {
			if _, err := s.reconciler.Reconcile(gctx, postID); err != nil {
				s.logger.Warn("Comment count not updated", "post_id", postID, "error", err)
				mu.Lock()
				failed++
				mu.Unlock()
			}
			return nil
		})
	}
	_ = g.Wait()
	return failed
}
