package httpapi

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"blog/backend/internal/auth"
	"blog/backend/internal/model"
	"blog/backend/internal/outcome"
)

type createdUser struct {
	Message string      `json:"message"`
	User    *model.User `json:"user"`
}

type loggedIn struct {
	Message string `json:"message"`
	*auth.Session
}

func (s *Server) setSessionCookie(w http.ResponseWriter, value string, expires time.Time) {
	c := &http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
	}
	if value == "" {
		c.MaxAge = -1
	}
	http.SetCookie(w, c)
}

func (s *Server) signUp(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	vals, err := s.fields(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	u, err := s.auth.SignUp(r.Context(), vals.Get("username"), vals.Get("password"), vals.Get("passwordConfirmation"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdUser{Message: "User created.", User: u})
}

func (s *Server) me(w http.ResponseWriter, r *http.Request) {
	u, err := s.auth.Me(r.Context(), IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, u)
}

// userInfo only ever reveals the caller's own account.
func (s *Server) userInfo(w http.ResponseWriter, r *http.Request) {
	caller := IdentityFrom(r.Context())
	if caller != nil && caller.UserID.String() != mux.Vars(r)["userId"] {
		s.writeError(w, r, outcome.ErrUnauthorized)
		return
	}
	s.me(w, r)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request) {
	res, err := s.auth.DeleteUser(r.Context(), mux.Vars(r)["userId"], IdentityFrom(r.Context()))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, "", time.Time{})
	writeJSON(w, http.StatusOK, messageBody{
		Message:  fmt.Sprintf("Deleted account %s", res.User.Name),
		Warnings: res.Warnings,
	})
}

func (s *Server) login(w http.ResponseWriter, r *http.Request) {
	defer removeForm(r)
	vals, err := s.fields(w, r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	sess, err := s.auth.Login(r.Context(), vals.Get("username"), vals.Get("password"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, sess.Token, sess.ExpiresAt)
	writeJSON(w, http.StatusOK, loggedIn{
		Message: fmt.Sprintf("User %s Logged in", sess.Identity.Name),
		Session: sess,
	})
}

func (s *Server) logout(w http.ResponseWriter, r *http.Request) {
	caller := IdentityFrom(r.Context())
	if caller == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if err := s.auth.Logout(r.Context(), s.token(r)); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.setSessionCookie(w, "", time.Time{})
	writeJSON(w, http.StatusOK, messageBody{Message: fmt.Sprintf("%s logged out.", caller.Name)})
}
