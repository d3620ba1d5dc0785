package migration

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source"
	"github.com/golang-migrate/migrate/v4/source/iofs"

	"backoffice/internal/logger"
)

//go:embed migrations/*.sql
var fs embed.FS

// Source returns the embedded migration files as a golang-migrate source.
func Source() (source.Driver, error) {
	src, err := iofs.New(fs, "migrations")
	if err != nil {
		return nil, fmt.Errorf("migration source: %w", err)
	}
	return src, nil
}

// newMigrate pins one pooled connection for the run; closing the returned
// instance releases that connection but leaves db open.
func newMigrate(ctx context.Context, db *sql.DB) (*migrate.Migrate, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("migration conn: %w", err)
	}
	driver, err := postgres.WithConnection(ctx, conn, &postgres.Config{})
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("migration driver: %w", err)
	}
	src, err := Source()
	if err != nil {
		_ = driver.Close()
		return nil, err
	}
	m, err := migrate.NewWithInstance("iofs", src, "postgres", driver)
	if err != nil {
		_ = driver.Close()
		return nil, fmt.Errorf("migrate instance: %w", err)
	}
	return m, nil
}

// Up applies every pending migration. The caller keeps ownership of db.
func Up(ctx context.Context, db *sql.DB, log *logger.Logger, dbHost string) error {
	start := time.Now()
	log = log.With("component", "database", "db_host", dbHost)
	log.Info("db_migration_start", "status", "in_progress")

	m, err := newMigrate(ctx, db)
	if err != nil {
		log.Error("db_migration_failed", "status", "error", "error_message", err.Error())
		return err
	}
	defer m.Close()

	if err := m.Up(); err != nil {
		if errors.Is(err, migrate.ErrNoChange) {
			log.Info("db_migration_skip", "status", "success", "msg", "schema up to date",
				"duration_ms", time.Since(start).Milliseconds())
			return nil
		}
		log.Error("db_migration_failed", "status", "error", "error_message", err.Error(),
			"duration_ms", time.Since(start).Milliseconds())
		return fmt.Errorf("migration up: %w", err)
	}

	version, dirty, _ := m.Version()
	log.Info("db_migration_success", "status", "success", "version", version, "dirty", dirty,
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}

// Down rolls back the given number of steps.
func Down(ctx context.Context, db *sql.DB, log *logger.Logger, steps int) error {
	if steps <= 0 {
		return fmt.Errorf("steps must be positive")
	}
	m, err := newMigrate(ctx, db)
	if err != nil {
		return err
	}
	defer m.Close()

	if err := m.Steps(-steps); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migration down: %w", err)
	}
	log.Info("db_migration_down", "component", "database", "steps", steps)
	return nil
}

// Version reports the applied schema version.
func Version(ctx context.Context, db *sql.DB) (uint, bool, error) {
	m, err := newMigrate(ctx, db)
	if err != nil {
		return 0, false, err
	}
	defer m.Close()

	v, dirty, err := m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, nil
	}
	return v, dirty, err
}
