package blog

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"blog/backend/internal/access"
	"blog/backend/internal/content"
	"blog/backend/internal/model"
	"blog/backend/internal/publish"
)

// PostInput carries the submitted blocks and header image uploads of a post.
type PostInput struct {
	Blocks  []content.RawBlock
	Uploads content.Uploads
}

// ListPosts returns every post to authors and only published posts to anyone else.
func (s *Service) ListPosts(ctx context.Context, caller *model.Identity) ([]model.PostSummary, error) {
	publishedOnly := !(caller.Authenticated() && caller.IsAuthor)
	posts, err := s.store.ListPosts(ctx, publishedOnly)
	if err != nil {
		return nil, storeErr("list posts", err)
	}
	return posts, nil
}

// loadPost fetches a post by raw id.
func (s *Service) loadPost(ctx context.Context, rawID string) (*model.Post, error) {
	id, err := parseID(rawID)
	if err != nil {
		return nil, err
	}
	post, err := s.store.GetPost(ctx, id)
	if err != nil {
		return nil, storeErr("get post", err)
	}
	return post, nil
}

// loadVisible fetches a post and applies the visibility gate to it.
func (s *Service) loadVisible(ctx context.Context, rawID string, caller *model.Identity) (*model.Post, error) {
	post, err := s.loadPost(ctx, rawID)
	if errors.Is(err, ErrNotFound) {
		return nil, s.gate("visibility", access.CanView(nil, caller))
	}
	if err != nil {
		return nil, err
	}
	if err := s.gate("visibility", access.CanView(post, caller)); err != nil {
		return nil, err
	}
	return post, nil
}

// loadOwned checks the caller may author posts, then loads the post and requires
// the caller to own it.
func (s *Service) loadOwned(ctx context.Context, rawID string, caller *model.Identity) (*model.Post, error) {
	if err := s.gate("authorship", access.CanCreate(caller)); err != nil {
		return nil, err
	}
	post, err := s.loadPost(ctx, rawID)
	if err != nil {
		return nil, err
	}
	if err := s.gate("authorship", access.CanMutate(caller, post.AuthorID)); err != nil {
		return nil, err
	}
	return post, nil
}

// GetPost returns a post the caller may see.
func (s *Service) GetPost(ctx context.Context, postID string, caller *model.Identity) (*model.Post, error) {
	return s.loadVisible(ctx, postID, caller)
}

// CreatePost stores a new draft authored by the caller.
func (s *Service) CreatePost(ctx context.Context, caller *model.Identity, in PostInput) (*model.Post, error) {
	if err := s.gate("authorship", access.CanCreate(caller)); err != nil {
		return nil, err
	}
	blocks, err := content.Prepare(in.Blocks, in.Uploads)
	if err != nil {
		return nil, err
	}

	post := &model.Post{
		ID:        uuid.New(),
		AuthorID:  caller.UserID,
		Content:   blocks,
		CreatedAt: s.now().UTC(),
	}
	if err := s.store.InsertPost(ctx, post); err != nil {
		return nil, storeErr("insert post", err)
	}

	author, err := s.store.GetUserRef(ctx, post.AuthorID)
	if err != nil {
		// Do not leave a post behind for a create that reports failure.
		if derr := s.store.DeletePost(ctx, post.ID); derr != nil {
			s.logger.Error("Failed to remove partial post", "post_id", post.ID, "error", derr)
		}
		return nil, storeErr("populate author", err)
	}
	post.Author = author
	s.logger.Info("Post created", "post_id", post.ID, "author_id", post.AuthorID, "blocks", len(blocks))
	return post, nil
}

// UpdatePost replaces the whole content of a post the caller owns.
func (s *Service) UpdatePost(ctx context.Context, postID string, caller *model.Identity, in PostInput) (*model.Post, error) {
	post, err := s.loadOwned(ctx, postID, caller)
	if err != nil {
		return nil, err
	}
	blocks, err := content.Prepare(in.Blocks, in.Uploads)
	if err != nil {
		return nil, err
	}
	if err := s.store.UpdatePostContent(ctx, post.ID, blocks); err != nil {
		return nil, storeErr("update post", err)
	}
	updated, err := s.store.GetPost(ctx, post.ID)
	if err != nil {
		return nil, storeErr("reload post", err)
	}
	s.logger.Info("Post updated", "post_id", post.ID, "blocks", len(blocks))
	return updated, nil
}

// DeletePost removes a post the caller owns and returns it as it was.
func (s *Service) DeletePost(ctx context.Context, postID string, caller *model.Identity) (*model.Post, error) {
	post, err := s.loadOwned(ctx, postID, caller)
	if err != nil {
		return nil, err
	}
	if err := s.store.DeletePost(ctx, post.ID); err != nil {
		return nil, storeErr("delete post", err)
	}
	s.logger.Info("Post deleted", "post_id", post.ID)
	return post, nil
}

// PublishPost moves a post the caller owns between Draft and Published.
func (s *Service) PublishPost(ctx context.Context, postID string, caller *model.Identity, intent string) (*model.Post, error) {
	post, err := s.loadOwned(ctx, postID, caller)
	if err != nil {
		return nil, err
	}
	in, err := publish.ParseIntent(intent)
	if err != nil {
		return nil, err
	}
	res, err := s.machine.Apply(ctx, post, in)
	if err != nil {
		return nil, err
	}
	if !res.Changed {
		return post, nil
	}
	if err := s.store.UpdatePostPublication(ctx, post.ID, res.IsPublished, res.PublishedAt); err != nil {
		return nil, storeErr("update publication", err)
	}
	updated, err := s.store.GetPost(ctx, post.ID)
	if err != nil {
		return nil, storeErr("reload post", err)
	}
	s.logger.Info("Post publication changed", "post_id", post.ID, "state", publish.State(updated))
	return updated, nil
}
