package httpapi

import (
	"net/http"

	"github.com/gorilla/mux"
)

func (s *Server) listComments(w http.ResponseWriter, r *http.Request) {
	comments, err := s.blog.ListComments(r.Context(), mux.Vars(r)["postId"], IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (s *Server) createComment(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	vals, err := s.fields(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	res, err := s.blog.CreateComment(r.Context(), mux.Vars(r)["postId"], IdentityFrom(r.Context()), vals.Get("comment"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, res)
}

func (s *Server) editComment(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	vals, err := s.fields(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	c, err := s.blog.EditComment(r.Context(), mux.Vars(r)["commentId"], IdentityFrom(r.Context()), vals.Get("comment"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) deleteComment(w http.ResponseWriter, r *http.Request) {
	res, err := s.blog.DeleteComment(r.Context(), mux.Vars(r)["commentId"], IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}
