// Package publish is the Draft/Published state machine of a post.
//
// The first transition into Published stamps PublishedAt; nothing ever clears it,
// so it marks when the post was first published.
package publish

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/looplab/fsm"

	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

const (
	StateDraft     = "draft"
	StatePublished = "published"
)

// Intent is the requested transition.
type Intent string

const (
	IntentPublish   Intent = "publish"
	IntentUnpublish Intent = "unpublish"
)

// ParseIntent accepts "publish"/"unpublish" and the legacy "yes"/"no" form values.
// Anything else is a validation failure.
func ParseIntent(s string) (Intent, error) {
	switch s {
	case "publish", "yes":
		return IntentPublish, nil
	case "unpublish", "no":
		return IntentUnpublish, nil
	}
	return "", outcome.Invalid(outcome.FieldError{
		Field:   "publish",
		Message: `Publish should have a "publish" or "unpublish" value.`,
		Entry:   s,
	})
}

// Result is the publication state after a transition.
type Result struct {
	IsPublished bool
	PublishedAt *time.Time
	// Changed is false when the post was already in the requested state.
	Changed bool
}

// Machine applies intents to posts.
type Machine struct {
	now func() time.Time
}

// NewMachine creates a Machine stamping with now; nil uses time.Now.
func NewMachine(now func() time.Time) *Machine {
	if now == nil {
		now = time.Now
	}
	return &Machine{now: now}
}

// State returns the machine state a post is in.
func State(p *model.Post) string {
	if p.IsPublished {
		return StatePublished
	}
	return StateDraft
}

// Apply runs intent against the current state of p. p itself is not modified.
func (m *Machine) Apply(ctx context.Context, p *model.Post, intent Intent) (Result, error) {
	res := Result{IsPublished: p.IsPublished, PublishedAt: p.PublishedAt}

	sm := fsm.NewFSM(
		State(p),
		fsm.Events{
			{Name: string(IntentPublish), Src: []string{StateDraft, StatePublished}, Dst: StatePublished},
			{Name: string(IntentUnpublish), Src: []string{StateDraft, StatePublished}, Dst: StateDraft},
		},
		fsm.Callbacks{
			"enter_" + StatePublished: func(_ context.Context, _ *fsm.Event) {
				res.IsPublished = true
				if res.PublishedAt == nil {
					stamp := m.now().UTC()
					res.PublishedAt = &stamp
				}
			},
			"enter_" + StateDraft: func(_ context.Context, _ *fsm.Event) {
				res.IsPublished = false
			},
		},
	)

	err := sm.Event(ctx, string(intent))
	var noTransition fsm.NoTransitionError
	switch {
	case err == nil:
		res.Changed = true
	case errors.As(err, &noTransition):
		// Already in the requested state.
	default:
		var unknown fsm.UnknownEventError
		if errors.As(err, &unknown) {
			_, perr := ParseIntent(string(intent))
			return Result{}, perr
		}
		return Result{}, fmt.Errorf("apply %s: %w", intent, err)
	}
	return res, nil
}
