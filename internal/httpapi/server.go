// Package httpapi exposes the blog and account operations over HTTP.
//
// Handlers only translate: they decode the request, pass the caller identity
// resolved by the middleware to the core explicitly, and map the outcome onto a
// status code.
package httpapi

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"blog/backend/internal/auth"
	"blog/backend/internal/blog"
	"blog/backend/internal/metrics"
)

// Config holds the transport settings.
type Config struct {
	CookieName     string
	CookieSecure   bool
	MaxUploadBytes int64
}

// Server routes requests to the blog and auth services.
type Server struct {
	blog     *blog.Service
	auth     *auth.Service
	cfg      Config
	logger   *slog.Logger
	metrics  *metrics.Metrics
	gatherer prometheus.Gatherer
}

// Option configures a Server.
type Option func(*Server)

func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// WithMetrics records request metrics into m and serves gatherer on /metrics.
func WithMetrics(m *metrics.Metrics, gatherer prometheus.Gatherer) Option {
	return func(s *Server) {
		s.metrics = m
		s.gatherer = gatherer
	}
}

// New creates a Server.
func New(b *blog.Service, a *auth.Service, cfg Config, opts ...Option) *Server {
	if cfg.CookieName == "" {
		cfg.CookieName = "blog_session"
	}
	if cfg.MaxUploadBytes <= 0 {
		cfg.MaxUploadBytes = 16 << 20
	}
	s := &Server{blog: b, auth: a, cfg: cfg, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Handler builds the route table.
func (s *Server) Handler() http.Handler {
	r := mux.NewRouter()
	r.Use(s.observe, s.identify)

	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	}).Methods("GET")
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{})).Methods("GET")
	}

	r.HandleFunc("/posts", s.listPosts).Methods("GET")
	r.HandleFunc("/posts", s.createPost).Methods("POST")
	r.HandleFunc("/posts/{postId}", s.getPost).Methods("GET")
	r.HandleFunc("/posts/{postId}", s.updatePost).Methods("PUT")
	r.HandleFunc("/posts/{postId}", s.deletePost).Methods("DELETE")
	r.HandleFunc("/posts/{postId}/publish", s.publishPost).Methods("PUT")
	r.HandleFunc("/posts/{postId}/comments", s.listComments).Methods("GET")
	r.HandleFunc("/posts/{postId}/comments", s.createComment).Methods("POST")
	r.HandleFunc("/comments/{commentId}", s.editComment).Methods("PUT")
	r.HandleFunc("/comments/{commentId}", s.deleteComment).Methods("DELETE")

	r.HandleFunc("/users", s.signUp).Methods("POST")
	r.HandleFunc("/users/{userId}", s.userInfo).Methods("GET")
	r.HandleFunc("/users/{userId}", s.deleteUser).Methods("DELETE")
	r.HandleFunc("/session", s.me).Methods("GET")
	r.HandleFunc("/session", s.login).Methods("POST")
	r.HandleFunc("/session", s.logout).Methods("DELETE")

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Route not found."})
	})
	return r
}
