package migrate

import (
	"context"
	"database/sql"
	"testing"
	"testing/fstest"

	_ "github.com/mattn/go-sqlite3"
)

func openMemDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	// One connection so every statement sees the same in-memory database.
	db.SetMaxOpenConns(1)
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("close db: %v", err)
		}
	})
	return db
}

func TestRun_createsForecastsTable(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	if err := Run(ctx, db); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	var name string
	err := db.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name='forecasts'`).Scan(&name)
	if err != nil {
		t.Fatalf("forecasts table missing: %v", err)
	}

	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Errorf("applied migrations = %d; want 1", n)
	}
}

func TestRun_idempotent(t *testing.T) {
	db := openMemDB(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		if err := Run(ctx, db); err != nil {
			t.Fatalf("Run() #%d = %v", i+1, err)
		}
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 1 {
		t.Errorf("applied migrations after two runs = %d; want 1", n)
	}
}

func TestRun_ordersAndSkipsUnrelatedFiles(t *testing.T) {
	db := openMemDB(t)
	fsys := fstest.MapFS{
		"sql/0002_second.sql": {Data: []byte(`INSERT INTO t (v) VALUES ('second');`)},
		"sql/0001_first.sql":  {Data: []byte(`CREATE TABLE t (v TEXT);`)},
		"sql/README.md":       {Data: []byte(`not a migration`)},
	}

	if err := run(context.Background(), db, fsys); err != nil {
		t.Fatalf("run() = %v", err)
	}
	var v string
	if err := db.QueryRow(`SELECT v FROM t`).Scan(&v); err != nil {
		t.Fatalf("select: %v", err)
	}
	if v != "second" {
		t.Errorf("v = %q; want second", v)
	}
}

func TestRun_failedMigrationNotRecorded(t *testing.T) {
	db := openMemDB(t)
	fsys := fstest.MapFS{
		"sql/0001_broken.sql": {Data: []byte(`CREATE TABLE (`)},
	}

	if err := run(context.Background(), db, fsys); err == nil {
		t.Fatal("run() = nil; want error for broken migration")
	}
	var n int
	if err := db.QueryRow(`SELECT COUNT(*) FROM schema_migrations`).Scan(&n); err != nil {
		t.Fatalf("count migrations: %v", err)
	}
	if n != 0 {
		t.Errorf("applied migrations = %d; want 0", n)
	}
}
