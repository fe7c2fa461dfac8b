package blog

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"blog/backend/internal/access"
	"blog/backend/internal/content"
	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

// CommentResult is the outcome of a comment write. TotalComments is the count the
// reconcile persisted; when it could not be persisted, Warnings says so and the
// comment write itself still stands.
type CommentResult struct {
	Comment       *model.Comment `json:"comment"`
	TotalComments int            `json:"total_comments"`
	Warnings      []string       `json:"warnings,omitempty"`
}

func commentText(text string) (string, error) {
	text = strings.TrimSpace(content.Sanitize(text))
	if text == "" {
		return "", outcome.Invalid(outcome.FieldError{Field: "comment", Message: "Comment should not be empty."})
	}
	return text, nil
}

// reconcile runs the reconciler and downgrades its failure to a warning.
func (s *Service) reconcile(ctx context.Context, postID uuid.UUID, res *CommentResult) {
	n, err := s.reconciler.Reconcile(ctx, postID)
	if err != nil {
		s.logger.Warn("Comment count not updated", "post_id", postID, "error", err)
		res.Warnings = append(res.Warnings, "comment count could not be updated")
		return
	}
	res.TotalComments = n
}

// ListComments returns the comments of a post the caller may see.
func (s *Service) ListComments(ctx context.Context, postID string, caller *model.Identity) ([]model.Comment, error) {
	post, err := s.loadVisible(ctx, postID, caller)
	if err != nil {
		return nil, err
	}
	comments, err := s.store.ListComments(ctx, post.ID)
	if err != nil {
		return nil, storeErr("list comments", err)
	}
	return comments, nil
}

// CreateComment adds the caller's comment to a post they may see.
func (s *Service) CreateComment(ctx context.Context, postID string, caller *model.Identity, text string) (*CommentResult, error) {
	if err := s.gate("authorship", access.Authenticated(caller)); err != nil {
		return nil, err
	}
	post, err := s.loadVisible(ctx, postID, caller)
	if err != nil {
		return nil, err
	}
	text, err = commentText(text)
	if err != nil {
		return nil, err
	}

	// The post may have been deleted since the gate check.
	exists, err := s.store.PostExists(ctx, post.ID)
	if err != nil {
		return nil, storeErr("check post", err)
	}
	if !exists {
		return nil, outcome.ErrNotFound
	}

	c := &model.Comment{
		ID:          uuid.New(),
		PostID:      post.ID,
		CommenterID: caller.UserID,
		Text:        text,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.InsertComment(ctx, c); err != nil {
		return nil, storeErr("insert comment", err)
	}
	commenter, err := s.store.GetUserRef(ctx, c.CommenterID)
	if err != nil {
		if derr := s.store.DeleteComment(ctx, c.ID); derr != nil {
			s.logger.Error("Failed to remove partial comment", "comment_id", c.ID, "error", derr)
		}
		return nil, storeErr("populate commenter", err)
	}
	c.Commenter = commenter

	res := &CommentResult{Comment: c}
	s.reconcile(ctx, post.ID, res)
	s.logger.Info("Comment created", "comment_id", c.ID, "post_id", post.ID)
	return res, nil
}

// loadOwnComment requires a signed-in caller who wrote the comment.
func (s *Service) loadOwnComment(ctx context.Context, commentID string, caller *model.Identity) (*model.Comment, error) {
	if err := s.gate("authorship", access.Authenticated(caller)); err != nil {
		return nil, err
	}
	id, err := parseID(commentID)
	if err != nil {
		return nil, err
	}
	c, err := s.store.GetComment(ctx, id)
	if err != nil {
		return nil, storeErr("get comment", err)
	}
	if err := s.gate("authorship", access.CanMutate(caller, c.CommenterID)); err != nil {
		return nil, err
	}
	return c, nil
}

// EditComment replaces the text of the caller's comment.
func (s *Service) EditComment(ctx context.Context, commentID string, caller *model.Identity, text string) (*model.Comment, error) {
	c, err := s.loadOwnComment(ctx, commentID, caller)
	if err != nil {
		return nil, err
	}
	text, err = commentText(text)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdateCommentText(ctx, c.ID, text); err != nil {
		return nil, storeErr("update comment", err)
	}
	c.Text = text
	return c, nil
}

// DeleteComment removes the caller's comment.
func (s *Service) DeleteComment(ctx context.Context, commentID string, caller *model.Identity) (*CommentResult, error) {
	c, err := s.loadOwnComment(ctx, commentID, caller)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeleteComment(ctx, c.ID); err != nil {
		return nil, storeErr("delete comment", err)
	}
	res := &CommentResult{Comment: c}
	s.reconcile(ctx, c.PostID, res)
	s.logger.Info("Comment deleted", "comment_id", c.ID, "post_id", c.PostID)
	return res, nil
}
