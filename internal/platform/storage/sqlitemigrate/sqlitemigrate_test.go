package sqlitemigrate

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"
	"testing/fstest"

	_ "modernc.org/sqlite"
)

func TestApplyRecordsAndSkips(t *testing.T) {
	db := openDB(t)
	migrations := fstest.MapFS{
		"001_items.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE items(id TEXT PRIMARY KEY);\n-- +migrate Down\nDROP TABLE items;")},
		"002_more.sql":  {Data: []byte("CREATE TABLE more(id INTEGER PRIMARY KEY);")},
		"README.md":     {Data: []byte("ignored")},
	}

	applied, err := Apply(context.Background(), db, migrations, "")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 2 || applied[0] != "001_items.sql" || applied[1] != "002_more.sql" {
		t.Fatalf("applied = %v", applied)
	}
	if !tableExists(t, db, "items") || !tableExists(t, db, "more") {
		t.Fatal("expected migrated tables")
	}

	applied, err = Apply(context.Background(), db, migrations, ".")
	if err != nil {
		t.Fatalf("re-apply: %v", err)
	}
	if len(applied) != 0 {
		t.Fatalf("expected nothing applied on replay, got %v", applied)
	}
}

func TestApplyDoesNotRecordFailedMigration(t *testing.T) {
	db := openDB(t)

	bad := fstest.MapFS{"001_bad.sql": {Data: []byte("-- +migrate Up\nCREAT table things(id INT);")}}
	if _, err := Apply(context.Background(), db, bad, ""); err == nil {
		t.Fatal("expected bad migration to fail")
	}
	if n := countMigrations(t, db); n != 0 {
		t.Fatalf("expected no recorded migrations, got %d", n)
	}

	good := fstest.MapFS{"001_bad.sql": {Data: []byte("-- +migrate Up\nCREATE TABLE things(id INTEGER PRIMARY KEY);")}}
	if _, err := Apply(context.Background(), db, good, ""); err != nil {
		t.Fatalf("apply fixed migration: %v", err)
	}
	if n := countMigrations(t, db); n != 1 {
		t.Fatalf("expected fixed migration recorded, got %d", n)
	}
}

func TestApplyDetectsEditedMigration(t *testing.T) {
	db := openDB(t)

	first := fstest.MapFS{"events/001.sql": {Data: []byte("CREATE TABLE a(id INTEGER);")}}
	applied, err := Apply(context.Background(), db, first, "events")
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if len(applied) != 1 || applied[0] != "events/001.sql" {
		t.Fatalf("applied = %v", applied)
	}

	edited := fstest.MapFS{"events/001.sql": {Data: []byte("CREATE TABLE a(id INTEGER, name TEXT);")}}
	_, err = Apply(context.Background(), db, edited, "events")
	if !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("expected checksum mismatch, got %v", err)
	}
}

func TestExtractUp(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{in: "SELECT 1;", want: "SELECT 1;"},
		{in: "-- +migrate Up\nSELECT 1;", want: "\nSELECT 1;"},
		{in: "-- +migrate Up\nSELECT 1;\n-- +migrate Down\nSELECT 2;", want: "\nSELECT 1;\n"},
	}
	for _, tc := range tests {
		if got := ExtractUp(tc.in); got != tc.want {
			t.Errorf("ExtractUp(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func openDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", filepath.Join(t.TempDir(), "migrate.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func countMigrations(t *testing.T, db *sql.DB) int {
	t.Helper()
	var n int
	if err := db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	return n
}

func tableExists(t *testing.T, db *sql.DB, name string) bool {
	t.Helper()
	var found string
	err := db.QueryRow("SELECT name FROM sqlite_master WHERE type='table' AND name = ?", name).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return false
	}
	if err != nil {
		t.Fatalf("check table: %v", err)
	}
	return found == name
}
