package repo

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/paper-digest/internal/domain"
)

func TestOpenSQLite_ErrorOnBadPath(t *testing.T) {
	base := t.TempDir()
	bad := filepath.Join(base, "does-not-exist", "app.db")

	db, err := OpenSQLite(bad)
	if err == nil || db != nil {
		t.Fatalf("expected error opening %q, got db=%v err=%v", bad, db, err)
	}

	// Be tolerant across platforms/drivers:
	// - Windows: *os.PathError
	// - SQLite:  "unable to open database file" / "out of memory (14)"
	// - Unix:    "no such file or directory"
	lower := strings.ToLower(err.Error())
	if !(os.IsNotExist(err) ||
		strings.Contains(lower, "unable to open database file") ||
		strings.Contains(lower, "no such file or directory") ||
		strings.Contains(lower, "out of memory")) {
		t.Fatalf("unexpected error opening %q: %v", bad, err)
	}
}

func TestOpenSQLite_SetsPragmas_Pool_AndAutoMigrate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.db")

	db, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("db.DB(): %v", err)
	}
	t.Cleanup(func() { _ = sqlDB.Close() })

	var journalMode string
	if err := db.Raw("PRAGMA journal_mode;").Row().Scan(&journalMode); err != nil {
		t.Fatalf("PRAGMA journal_mode: %v", err)
	}
	if strings.ToLower(journalMode) != "wal" {
		t.Fatalf("expected journal_mode=wal, got %q", journalMode)
	}
	if stats := sqlDB.Stats(); stats.MaxOpenConnections != 10 {
		t.Fatalf("expected MaxOpenConnections=10, got %d", stats.MaxOpenConnections)
	}

	// AutoMigrate is idempotent: running it twice must succeed.
	for i := 0; i < 2; i++ {
		if err := AutoMigrate(context.Background(), db); err != nil {
			t.Fatalf("AutoMigrate run %d: %v", i+1, err)
		}
	}
	m := db.Migrator()
	for _, tbl := range []any{&domain.Paper{}, &domain.PaperSummary{}} {
		if !m.HasTable(tbl) {
			t.Fatalf("expected table for %T to exist", tbl)
		}
	}

	// Quick insert round-trip to prove schema is usable.
	now := time.Now().UTC()
	if err := db.Create(&domain.Paper{ID: "p1", Title: "t", PublishedAt: now}).Error; err != nil {
		t.Fatalf("insert paper: %v", err)
	}
	var got domain.Paper
	if err := db.First(&got, "id = ?", "p1").Error; err != nil || got.Title != "t" {
		t.Fatalf("readback paper failed: err=%v got=%+v", err, got)
	}
}

func TestOpen_DriverSelection(t *testing.T) {
	if _, err := Open("mysql", "x"); err == nil || !strings.Contains(err.Error(), "unsupported db driver") {
		t.Fatalf("expected unsupported driver error, got %v", err)
	}

	path := filepath.Join(t.TempDir(), "open.db")
	db, err := Open(DriverSQLite, path)
	if err != nil {
		t.Fatalf("Open(sqlite): %v", err)
	}
	sqlDB, _ := db.DB()
	t.Cleanup(func() { _ = sqlDB.Close() })
	if err := InitPapers(context.Background(), db); err != nil {
		t.Fatalf("InitPapers on traced db: %v", err)
	}
}

func TestInitSummaries_CreatesTable(t *testing.T) {
	db := newRepoDB(t)
	if err := InitPapers(context.Background(), db); err != nil {
		t.Fatalf("InitPapers: %v", err)
	}
	if err := InitSummaries(context.Background(), db); err != nil {
		t.Fatalf("InitSummaries: %v", err)
	}
	if !db.Migrator().HasTable("paper_summaries") {
		t.Fatalf("paper_summaries missing")
	}
}

// Compile-time guard to ensure signature stability.
var _ func(string) (*gorm.DB, error) = OpenSQLite
