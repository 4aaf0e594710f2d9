package domain

import (
	"fmt"
	"testing"
	"time"

	sqlite "github.com/glebarez/sqlite" // pure-Go SQLite (no CGO)
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newDomainDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:domain_models_%s?mode=memory&cache=shared", uuid.NewString())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	// Enforce FKs so cascades actually execute.
	db.Exec("PRAGMA foreign_keys=ON;")
	return db
}

func TestTableNames(t *testing.T) {
	if (Paper{}).TableName() != "papers" {
		t.Fatalf("Paper.TableName() = %q; want %q", (Paper{}).TableName(), "papers")
	}
	if (PaperSummary{}).TableName() != "paper_summaries" {
		t.Fatalf("PaperSummary.TableName() = %q; want %q", (PaperSummary{}).TableName(), "paper_summaries")
	}
}

func TestMigrations_ColumnsIndexes_AndCascade(t *testing.T) {
	db := newDomainDB(t)

	if err := db.AutoMigrate(&Paper{}, &PaperSummary{}); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	m := db.Migrator()

	for _, col := range []string{"upvotes", "media_urls", "paper_published_at", "published_at", "submitted_by"} {
		if !m.HasColumn(&Paper{}, col) {
			t.Fatalf("expected papers.%s column", col)
		}
	}
	for _, col := range []string{"summary_en", "summary_ru"} {
		if !m.HasColumn(&PaperSummary{}, col) {
			t.Fatalf("expected paper_summaries.%s column", col)
		}
	}
	if !m.HasIndex(&Paper{}, "idx_papers_published_at") {
		t.Fatalf("expected index idx_papers_published_at on papers")
	}

	now := time.Now().UTC()
	p := &Paper{ID: "2401.00001", Title: "T", PublishedAt: now}
	if err := db.Create(p).Error; err != nil {
		t.Fatalf("insert paper: %v", err)
	}
	ps := NewPaperSummary(p.ID, map[Language]string{EN: "e", RU: "r"})
	if err := db.Create(&ps).Error; err != nil {
		t.Fatalf("insert summary: %v", err)
	}

	// Deleting the paper cascades to its summary.
	if err := db.Delete(&Paper{}, "id = ?", p.ID).Error; err != nil {
		t.Fatalf("delete paper: %v", err)
	}
	var n int64
	db.Model(&PaperSummary{}).Where("paper_id = ?", p.ID).Count(&n)
	if n != 0 {
		t.Fatalf("expected summary to cascade-delete, found %d", n)
	}
}

func TestNewPaperSummary_TextAndMap(t *testing.T) {
	ps := NewPaperSummary("p1", map[Language]string{EN: "hello"})
	if ps.PaperID != "p1" {
		t.Fatalf("PaperID = %q", ps.PaperID)
	}
	if got := ps.Text(EN); got == nil || *got != "hello" {
		t.Fatalf("Text(EN) = %v", got)
	}
	if got := ps.Text(RU); got != nil {
		t.Fatalf("Text(RU) should be nil, got %q", *got)
	}
	if got := ps.Text(Language("de")); got != nil {
		t.Fatalf("Text(de) should be nil")
	}
	m := ps.Map()
	if len(m) != 1 || m[EN] != "hello" {
		t.Fatalf("Map() = %#v", m)
	}
}

func TestParseLanguage(t *testing.T) {
	cases := []struct {
		in   string
		want Language
		ok   bool
	}{
		{"en", EN, true},
		{" EN ", EN, true},
		{"english", EN, true},
		{"ru", RU, true},
		{"Russian", RU, true},
		{"de", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := ParseLanguage(tc.in)
			if tc.ok && (err != nil || got != tc.want) {
				t.Fatalf("ParseLanguage(%q) = %q, %v; want %q", tc.in, got, err, tc.want)
			}
			if !tc.ok && err != ErrUnsupportedLanguage {
				t.Fatalf("ParseLanguage(%q) err = %v; want ErrUnsupportedLanguage", tc.in, err)
			}
		})
	}
}

func TestLanguage_ValidNameString(t *testing.T) {
	if !EN.Valid() || !RU.Valid() || Language("xx").Valid() {
		t.Fatalf("Valid() mismatch")
	}
	if EN.Name() != "english" || RU.Name() != "russian" {
		t.Fatalf("Name() mismatch: %q %q", EN.Name(), RU.Name())
	}
	if EN.String() != "en" {
		t.Fatalf("String() = %q", EN.String())
	}
	if langs := SupportedLanguages(); len(langs) != 2 || langs[0] != EN || langs[1] != RU {
		t.Fatalf("SupportedLanguages() = %v", langs)
	}
}
