// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides repository functions for the Paper model.
//
// All functions are context-aware and accept a *gorm.DB handle, making them
// safe for use within transactions or connection-scoped operations.
// They follow the "thin repository" approach: no business logic, only
// persistence and query composition.
//
// Error semantics:
//   - When a paper is not found, functions return ErrNotFound
//     (an alias of gorm.ErrRecordNotFound).
//   - SavePapers never fails on a single bad record: the record is logged and
//     skipped, and only context cancellation aborts the batch.
//
// Recency:
//
//	published_at (the catalog listing time) is the only field used for
//	"latest" ordering, date filters and sync range computation.
//	paper_published_at is stored for display.
//
// Functions:
//
//   - LatestPublishedAt(ctx, db) -> *time.Time, error
//     Greatest published_at, or nil when the table is empty.
//
//   - SavePapers(ctx, db, papers) -> inserted int, error
//     Insert-or-ignore per record; duplicates are no-ops (first write wins).
//
//   - PapersByDate(ctx, db, day) / PapersByDateRange(ctx, db, start, end)
//     Papers listed on the given UTC day(s), newest first.
//
//   - GetPaper, CountPapers, RecentPapers
//     Point lookup, total count, newest-first slice (search corpus).
package repo

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/tbourn/paper-digest/internal/domain"
)

// ErrNotFound is returned when a requested record does not exist.
// It aliases gorm.ErrRecordNotFound for convenience and consistency
// across the service layer and handlers.
var ErrNotFound = gorm.ErrRecordNotFound

// LatestPublishedAt returns the greatest published_at across all papers, or
// nil when no paper is stored.
func LatestPublishedAt(ctx context.Context, db *gorm.DB) (*time.Time, error) {
	// Order+Limit instead of MAX(): SQLite returns MAX() of a datetime as TEXT.
	var rows []domain.Paper
	err := db.WithContext(ctx).
		Select("published_at").
		Order("published_at DESC").
		Limit(1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, nil
	}
	ts := rows[0].PublishedAt.UTC()
	return &ts, nil
}

// SavePapers inserts each paper unless a row with the same ID already exists.
// It returns how many rows were actually inserted. A failing record is logged
// and skipped; it does not abort the remaining records.
func SavePapers(ctx context.Context, db *gorm.DB, papers []domain.Paper) (int, error) {
	inserted := 0
	for i := range papers {
		if err := ctx.Err(); err != nil {
			return inserted, err
		}
		p := papers[i]
		p.PaperPublishedAt = p.PaperPublishedAt.UTC()
		p.PublishedAt = p.PublishedAt.UTC()

		res := db.WithContext(ctx).
			Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
			Create(&p)
		if res.Error != nil {
			log.Error().Err(res.Error).Str("paper_id", p.ID).Msg("save paper failed")
			continue
		}
		inserted += int(res.RowsAffected)
	}
	return inserted, nil
}

// GetPaper fetches a single paper by ID, or ErrNotFound.
func GetPaper(ctx context.Context, db *gorm.DB, id string) (*domain.Paper, error) {
	var p domain.Paper
	if err := db.WithContext(ctx).Where("id = ?", id).First(&p).Error; err != nil {
		return nil, err
	}
	return &p, nil
}

// CountPapers returns the number of stored papers.
func CountPapers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Model(&domain.Paper{}).Count(&total).Error
	return total, err
}

// PapersByDate returns papers whose published_at falls on the UTC calendar
// day of day, newest first.
func PapersByDate(ctx context.Context, db *gorm.DB, day time.Time) ([]domain.Paper, error) {
	return PapersByDateRange(ctx, db, day, day)
}

// PapersByDateRange returns papers whose published_at falls on any UTC day in
// [start, end] (inclusive), newest first. An inverted range yields no rows.
func PapersByDateRange(ctx context.Context, db *gorm.DB, start, end time.Time) ([]domain.Paper, error) {
	from := StartOfDay(start)
	to := StartOfDay(end).AddDate(0, 0, 1)
	out := []domain.Paper{}
	if !from.Before(to) {
		return out, nil
	}
	err := db.WithContext(ctx).
		Where("published_at >= ? AND published_at < ?", from, to).
		Order("published_at DESC, id ASC").
		Find(&out).Error
	return out, err
}

// RecentPapers returns up to limit papers, newest first.
func RecentPapers(ctx context.Context, db *gorm.DB, limit int) ([]domain.Paper, error) {
	var out []domain.Paper
	q := db.WithContext(ctx).Order("published_at DESC, id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	err := q.Find(&out).Error
	return out, err
}

// StartOfDay truncates t to midnight of its UTC calendar day.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// IsNotFound reports whether err means the record does not exist.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }
