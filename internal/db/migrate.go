package db

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// migrateURL points golang-migrate's pgx v5 driver at dsn.
func migrateURL(dsn string) string {
	for _, prefix := range []string{"postgresql://", "postgres://"} {
		if strings.HasPrefix(dsn, prefix) {
			return "pgx5://" + strings.TrimPrefix(dsn, prefix)
		}
	}
	return dsn
}

func newMigrate(dsn string) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("open migrations: %w", err)
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, migrateURL(dsn))
	if err != nil {
		return nil, fmt.Errorf("create migration instance: %w", err)
	}
	return m, nil
}

// MigrateUp applies every pending migration. A nil logger uses slog.Default().
func MigrateUp(dsn string, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			logger.Info("Migration state is up to date")
			return nil
		}
		return fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("Ran migrations successfully")
	return nil
}

// MigrateDown rolls back steps migrations; steps <= 0 rolls back all of them.
func MigrateDown(dsn string, steps int, logger *slog.Logger) error {
	if logger == nil {
		logger = slog.Default()
	}
	m, err := newMigrate(dsn)
	if err != nil {
		return err
	}
	defer m.Close()

	if steps > 0 {
		err = m.Steps(-steps)
	} else {
		err = m.Down()
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run down migrations: %w", err)
	}
	logger.Info("Rolled back migrations", "steps", steps)
	return nil
}
