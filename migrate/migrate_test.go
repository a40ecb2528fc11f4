package migrate

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/go-kit/kit/log"
	_ "modernc.org/sqlite"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"migrations/001_create_things.up.sql":   {Data: []byte("CREATE TABLE things (id INTEGER PRIMARY KEY);")},
		"migrations/001_create_things.down.sql": {Data: []byte("DROP TABLE things;")},
		"migrations/002_add_name.up.sql":        {Data: []byte("ALTER TABLE things ADD COLUMN name TEXT;")},
		"migrations/README.md":                  {Data: []byte("ignored")},
	}
}

func TestFSProviderMigrations(t *testing.T) {
	p := NewFSProvider(testFS(), "migrations", "", SQLite)
	migrations, err := p.Migrations()
	if err != nil {
		t.Fatalf("Migrations returned error: %v", err)
	}
	if len(migrations) != 2 {
		t.Fatalf("got %d migrations, want 2", len(migrations))
	}
	if migrations[0].Version != 1 || migrations[0].Name != "create things" || migrations[0].Down == "" {
		t.Fatalf("unexpected first migration: %+v", migrations[0])
	}
	if migrations[1].Version != 2 || migrations[1].Down != "" {
		t.Fatalf("unexpected second migration: %+v", migrations[1])
	}
}

func TestMigratorUpIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "m.sqlite"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()

	m := NewMigrator(db, NewFSProvider(testFS(), "migrations", "", SQLite), log.NewNopLogger())
	for i := 0; i < 2; i++ {
		if err := m.Up(ctx); err != nil {
			t.Fatalf("Up #%d returned error: %v", i+1, err)
		}
	}
	v, err := m.Version(ctx)
	if err != nil {
		t.Fatalf("Version returned error: %v", err)
	}
	if v != 2 {
		t.Fatalf("version = %d, want 2", v)
	}
	if _, err := db.Exec("INSERT INTO things (id, name) VALUES (1, 'x')"); err != nil {
		t.Fatalf("schema not migrated: %v", err)
	}
}
