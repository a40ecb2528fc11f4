// Package migrate applies versioned schema migrations inside transactions.
package migrate

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/go-kit/kit/log"
)

// Migration represents a single database migration
type Migration struct {
	Version int
	Name    string
	Up      string
	Down    string
}

// DB represents either a database connection or transaction
type DB interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// Provider defines how migrations are loaded and how the applied version is
// tracked.
type Provider interface {
	Migrations() ([]Migration, error)
	CreateMigrationTable(ctx context.Context, db DB) error
	CurrentVersion(ctx context.Context, db DB) (int, error)
	SetVersion(ctx context.Context, db DB, version int) error
}

// Migrator handles the execution of migrations
type Migrator struct {
	db       *sql.DB
	provider Provider
	logger   log.Logger
}

// NewMigrator creates a new migrator instance
func NewMigrator(db *sql.DB, provider Provider, logger log.Logger) *Migrator {
	return &Migrator{
		db:       db,
		provider: provider,
		logger:   logger,
	}
}

// Up runs all pending migrations up to the latest version.
func (m *Migrator) Up(ctx context.Context) error {
	if err := m.provider.CreateMigrationTable(ctx, m.db); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}

	current, err := m.provider.CurrentVersion(ctx, m.db)
	if err != nil {
		return fmt.Errorf("failed to get current version: %w", err)
	}

	migrations, err := m.provider.Migrations()
	if err != nil {
		return fmt.Errorf("failed to get migrations: %w", err)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})

	for _, migration := range migrations {
		if migration.Version <= current {
			continue
		}
		if err := m.apply(ctx, migration); err != nil {
			return fmt.Errorf("failed to apply migration %d: %w", migration.Version, err)
		}
	}
	return nil
}

// Version returns the highest applied migration version.
func (m *Migrator) Version(ctx context.Context) (int, error) {
	if err := m.provider.CreateMigrationTable(ctx, m.db); err != nil {
		return 0, fmt.Errorf("failed to create migration table: %w", err)
	}
	return m.provider.CurrentVersion(ctx, m.db)
}

func (m *Migrator) apply(ctx context.Context, migration Migration) error {
	if migration.Up == "" {
		return fmt.Errorf("migration %d has no up SQL", migration.Version)
	}

	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, migration.Up); err != nil {
		return fmt.Errorf("failed to execute migration SQL: %w", err)
	}
	if err := m.provider.SetVersion(ctx, tx, migration.Version); err != nil {
		return fmt.Errorf("failed to update migration version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit migration transaction: %w", err)
	}

	m.logger.Log("msg", "applied migration", "version", migration.Version, "name", migration.Name, "at", time.Now().Format(time.RFC3339))
	return nil
}
