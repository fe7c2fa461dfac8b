package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"blog/backend/internal/auth"
	"blog/backend/internal/blog"
	"blog/backend/internal/db"
	"blog/backend/internal/httpapi"
	"blog/backend/internal/metrics"
	"blog/backend/internal/reconcile"
	"blog/backend/internal/store/postgres"
)

const shutdownTimeout = 10 * time.Second

var serveMigrate bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API",
	RunE:  serve,
}

func init() {
	serveCmd.Flags().BoolVar(&serveMigrate, "migrate", false, "apply pending migrations before serving")
	rootCmd.AddCommand(serveCmd)
}

func serve(cmd *cobra.Command, args []string) error {
	cfg, logger, closeLog, err := setup()
	if err != nil {
		return err
	}
	defer closeLog()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if serveMigrate {
		if err := db.MigrateUp(cfg.Database.URL, logger); err != nil {
			return err
		}
	}

	pool, err := db.NewPool(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer pool.Close()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.New(reg)

	st := postgres.New(pool)
	rec := reconcile.New(st, logger.With("component", "reconcile"), m)
	blogSvc := blog.NewService(st, rec, blog.WithLogger(logger.With("component", "blog")), blog.WithMetrics(m))
	authSvc := auth.NewService(st, rec,
		auth.WithLogger(logger.With("component", "auth")),
		auth.WithSessionTTL(cfg.Session.TTL),
	)
	api := httpapi.New(blogSvc, authSvc, httpapi.Config{
		CookieName:     cfg.Session.CookieName,
		CookieSecure:   cfg.Session.Secure,
		MaxUploadBytes: cfg.HTTP.MaxUploadBytes,
	}, httpapi.WithLogger(logger.With("component", "http")), httpapi.WithMetrics(m, reg))

	srv := &http.Server{
		Addr:         cfg.HTTP.Addr,
		Handler:      api.Handler(),
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("Listening", "addr", cfg.HTTP.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
