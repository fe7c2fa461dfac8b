package httpapi

import (
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
)

type deletedPost struct {
	Message string `json:"message"`
	PostID  string `json:"post_id"`
}

func (s *Server) listPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := s.blog.ListPosts(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (s *Server) getPost(w http.ResponseWriter, r *http.Request) {
	post, err := s.blog.GetPost(r.Context(), mux.Vars(r)["postId"], IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) createPost(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	in, err := s.postInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	post, err := s.blog.CreatePost(r.Context(), IdentityFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, post)
}

func (s *Server) updatePost(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	in, err := s.postInput(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	post, err := s.blog.UpdatePost(r.Context(), mux.Vars(r)["postId"], IdentityFrom(r.Context()), in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}

func (s *Server) deletePost(w http.ResponseWriter, r *http.Request) {
	post, err := s.blog.DeletePost(r.Context(), mux.Vars(r)["postId"], IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, deletedPost{
		Message: fmt.Sprintf("Deleted %q", post.Title()),
		PostID:  post.ID.String(),
	})
}

func (s *Server) publishPost(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	vals, err := s.fields(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	post, err := s.blog.PublishPost(r.Context(), mux.Vars(r)["postId"], IdentityFrom(r.Context()), vals.Get("publish"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, post)
}
