package migrate

import (
	"context"
	"fmt"
	"io/fs"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// Dialect selects the SQL flavour of the version bookkeeping.
type Dialect string

const (
	SQLite   Dialect = "sqlite"
	Postgres Dialect = "postgres"
)

var (
	upRegex   = regexp.MustCompile(`^(\d+)_(.+)\.up\.sql$`)
	downRegex = regexp.MustCompile(`^(\d+)_(.+)\.down\.sql$`)
)

// FSProvider loads migrations from a file system, usually an embedded one.
// Files are named 001_migration_name.up.sql and 001_migration_name.down.sql.
type FSProvider struct {
	fsys           fs.FS
	dir            string
	migrationTable string
	dialect        Dialect
}

// NewFSProvider creates a migration provider reading dir of fsys.
func NewFSProvider(fsys fs.FS, dir string, migrationTable string, dialect Dialect) *FSProvider {
	if migrationTable == "" {
		migrationTable = "schema_migrations"
	}
	return &FSProvider{
		fsys:           fsys,
		dir:            dir,
		migrationTable: migrationTable,
		dialect:        dialect,
	}
}

// Migrations loads all migrations sorted by version.
func (p *FSProvider) Migrations() ([]Migration, error) {
	entries, err := fs.ReadDir(p.fsys, p.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read migration directory %s: %w", p.dir, err)
	}

	byVersion := make(map[int]*Migration)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		filename := e.Name()

		matches := upRegex.FindStringSubmatch(filename)
		up := matches != nil
		if !up {
			if matches = downRegex.FindStringSubmatch(filename); matches == nil {
				continue
			}
		}

		version, err := strconv.Atoi(matches[1])
		if err != nil {
			return nil, fmt.Errorf("invalid version number in file %s: %w", filename, err)
		}
		content, err := fs.ReadFile(p.fsys, p.dir+"/"+filename)
		if err != nil {
			return nil, fmt.Errorf("failed to read migration file %s: %w", filename, err)
		}

		if byVersion[version] == nil {
			byVersion[version] = &Migration{
				Version: version,
				Name:    strings.ReplaceAll(matches[2], "_", " "),
			}
		}
		if up {
			byVersion[version].Up = string(content)
		} else {
			byVersion[version].Down = string(content)
		}
	}

	migrations := make([]Migration, 0, len(byVersion))
	for _, m := range byVersion {
		migrations = append(migrations, *m)
	}
	sort.Slice(migrations, func(i, j int) bool {
		return migrations[i].Version < migrations[j].Version
	})
	return migrations, nil
}

// CreateMigrationTable creates the migration tracking table
func (p *FSProvider) CreateMigrationTable(ctx context.Context, db DB) error {
	column := "DATETIME"
	if p.dialect == Postgres {
		column = "TIMESTAMP"
	}
	query := fmt.Sprintf(`
		CREATE TABLE IF NOT EXISTS %s (
			version INTEGER PRIMARY KEY,
			applied_at %s DEFAULT CURRENT_TIMESTAMP
		)
	`, p.migrationTable, column)

	if _, err := db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create migration table: %w", err)
	}
	return nil
}

// CurrentVersion returns the highest applied migration version
func (p *FSProvider) CurrentVersion(ctx context.Context, db DB) (int, error) {
	query := fmt.Sprintf("SELECT COALESCE(MAX(version), 0) FROM %s", p.migrationTable)

	var version int
	if err := db.QueryRowContext(ctx, query).Scan(&version); err != nil {
		return 0, fmt.Errorf("failed to get current version: %w", err)
	}
	return version, nil
}

// SetVersion records version as applied.
func (p *FSProvider) SetVersion(ctx context.Context, db DB, version int) error {
	var query string
	if p.dialect == Postgres {
		query = fmt.Sprintf(`
			INSERT INTO %s (version, applied_at)
			VALUES ($1, CURRENT_TIMESTAMP)
			ON CONFLICT (version) DO UPDATE SET applied_at = CURRENT_TIMESTAMP
		`, p.migrationTable)
	} else {
		query = fmt.Sprintf(`
			INSERT OR REPLACE INTO %s (version, applied_at)
			VALUES (?, CURRENT_TIMESTAMP)
		`, p.migrationTable)
	}

	if _, err := db.ExecContext(ctx, query, version); err != nil {
		return fmt.Errorf("failed to set version %d: %w", version, err)
	}
	return nil
}
