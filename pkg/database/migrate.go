package database

import (
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Migrator thin wrapper over golang-migrate bound to the embedded migrations
type Migrator struct {
	m      *migrate.Migrate
	logger *zap.Logger
}

// NewMigrator prepares a migrator for the given connection
func NewMigrator(db *sql.DB, logger *zap.Logger) (*Migrator, error) {
	source, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, fmt.Errorf("load migrations: %w", err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return nil, fmt.Errorf("create migrate driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, "postgres", driver)
	if err != nil {
		return nil, fmt.Errorf("init migrate: %w", err)
	}

	return &Migrator{m: m, logger: logger}, nil
}

// Up applies every pending migration
func (g *Migrator) Up() error {
	if err := g.m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate up: %w", err)
	}
	g.logVersion()
	return nil
}

// Down rolls back a single migration
func (g *Migrator) Down() error {
	if err := g.m.Steps(-1); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrate down: %w", err)
	}
	g.logVersion()
	return nil
}

// Version current schema version; ok=false when nothing was applied yet
func (g *Migrator) Version() (version uint, dirty bool, ok bool, err error) {
	version, dirty, err = g.m.Version()
	if errors.Is(err, migrate.ErrNilVersion) {
		return 0, false, false, nil
	}
	if err != nil {
		return 0, false, false, err
	}
	return version, dirty, true, nil
}

func (g *Migrator) logVersion() {
	version, dirty, ok, err := g.Version()
	switch {
	case err != nil:
		g.logger.Warn("read migration version failed", zap.Error(err))
	case !ok:
		g.logger.Info("database has no migrations applied")
	case dirty:
		g.logger.Warn("database migration is dirty", zap.Uint("version", version))
	default:
		g.logger.Info("database migrated", zap.Uint("version", version))
	}
}

// RunMigrations applies all pending migrations
func RunMigrations(db *sql.DB, logger *zap.Logger) error {
	m, err := NewMigrator(db, logger)
	if err != nil {
		return err
	}
	return m.Up()
}
