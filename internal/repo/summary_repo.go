// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the
// PaperSummary model and the joined read views served by the API.
package repo

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/paper-digest/internal/domain"
)

// ErrEmptySummary is returned by UpsertSummary when no language text is given.
var ErrEmptySummary = errors.New("summary mapping is empty")

// PendingPaper is one entry of the backfill work queue: a stored paper that
// has no summary row yet.
type PendingPaper struct {
	ID       string
	Title    string
	URL      string
	Abstract string
}

// UpsertSummary writes the summary row of paperID in a single statement.
// Every language column is written, so languages absent from summaries are
// stored as NULL; an existing row is fully overwritten, never merged.
func UpsertSummary(ctx context.Context, db *gorm.DB, paperID string, summaries map[domain.Language]string) error {
	if len(summaries) == 0 {
		return ErrEmptySummary
	}
	for lang := range summaries {
		if !lang.Valid() {
			return fmt.Errorf("%w: %q", domain.ErrUnsupportedLanguage, lang)
		}
	}
	row := domain.NewPaperSummary(paperID, summaries)
	return db.WithContext(ctx).
		Omit(clause.Associations).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "paper_id"}},
			DoUpdates: clause.AssignmentColumns([]string{"summary_en", "summary_ru"}),
		}).
		Create(&row).Error
}

// GetSummary fetches the summary row of paperID, or ErrNotFound.
func GetSummary(ctx context.Context, db *gorm.DB, paperID string) (*domain.PaperSummary, error) {
	var ps domain.PaperSummary
	if err := db.WithContext(ctx).Where("paper_id = ?", paperID).First(&ps).Error; err != nil {
		return nil, err
	}
	return &ps, nil
}

// PapersWithoutSummary returns every paper that has no matching summary row
// (anti-join), newest first.
func PapersWithoutSummary(ctx context.Context, db *gorm.DB) ([]PendingPaper, error) {
	out := []PendingPaper{}
	err := db.WithContext(ctx).
		Table("papers AS p").
		Select("p.id AS id, p.title AS title, p.url AS url, p.abstract AS abstract").
		Joins("LEFT JOIN paper_summaries ps ON p.id = ps.paper_id").
		Where("ps.paper_id IS NULL").
		Order("p.published_at DESC, p.id ASC").
		Scan(&out).Error
	return out, err
}

// summaryColumn maps a language to its column in the joined projection.
// lang must already be validated.
func summaryColumn(lang domain.Language) string {
	return "ps.summary_" + string(lang)
}

// infoSelect builds the projection shared by PaperInfo and LatestPaperInfos.
func infoSelect(db *gorm.DB, lang domain.Language) *gorm.DB {
	return db.
		Table("papers AS p").
		Select("p.id AS id, p.title AS title, p.authors AS authors, p.url AS url, " +
			summaryColumn(lang) + " AS summary").
		Joins("LEFT JOIN paper_summaries ps ON p.id = ps.paper_id")
}

// PaperInfo returns the read view of one paper with its summary in lang.
// Summary is nil when the paper has no summary in that language.
func PaperInfo(ctx context.Context, db *gorm.DB, id string, lang domain.Language) (*domain.PaperInfo, error) {
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}
	var rows []domain.PaperInfo
	err := infoSelect(db.WithContext(ctx), lang).
		Where("p.id = ?", id).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, ErrNotFound
	}
	return &rows[0], nil
}

// LatestPaperInfos returns up to limit papers, newest published_at first,
// each with its summary in lang (nil when missing).
func LatestPaperInfos(ctx context.Context, db *gorm.DB, limit int, lang domain.Language) ([]domain.PaperInfo, error) {
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}
	out := []domain.PaperInfo{}
	q := infoSelect(db.WithContext(ctx), lang).Order("p.published_at DESC, p.id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Scan(&out).Error
	return out, err
}
