// Package repo implements the data persistence layer for domain entities,
// backed by GORM. This file provides small aggregate queries used for
// conditional responses (weak ETags) in the HTTP layer.
package repo

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/tbourn/paper-digest/internal/domain"
)

// PapersStats returns the number of stored papers and the number of summary
// rows, plus the greatest published_at. maxPublishedAt is nil when the store
// is empty. Any of these changes whenever a sync or backfill writes rows.
func PapersStats(ctx context.Context, db *gorm.DB) (papers, summaries int64, maxPublishedAt *time.Time, err error) {
	if papers, err = CountPapers(ctx, db); err != nil {
		return 0, 0, nil, err
	}
	if err = db.WithContext(ctx).Model(&domain.PaperSummary{}).Count(&summaries).Error; err != nil {
		return 0, 0, nil, err
	}
	if papers == 0 {
		return 0, summaries, nil, nil
	}
	maxPublishedAt, err = LatestPublishedAt(ctx, db)
	if err != nil {
		return 0, 0, nil, err
	}
	return papers, summaries, maxPublishedAt, nil
}
