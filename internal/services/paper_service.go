// Package services – PaperService
//
// PaperService is the read API over the paper and summary stores. It never
// writes. Ordering everywhere is published_at descending.
//
// Search builds a similarity index over the most recent papers and reuses it
// until the store changes (detected via paper count and max published_at).
package services

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/repo"
	"github.com/tbourn/paper-digest/internal/search"
	"github.com/tbourn/paper-digest/internal/utils"
)

const (
	DefaultLatestLimit = 10
	MaxLatestLimit     = 100
	defaultSearchK     = 5
	maxSearchK         = 20
	defaultCorpusSize  = 500
)

// SearchHit is one search result with its similarity score.
type SearchHit struct {
	domain.PaperInfo
	Score float64 `json:"score"`
}

// PaperService serves paper lookups, listings and search.
type PaperService struct {
	DB *gorm.DB

	// CorpusSize is how many recent papers the search index covers.
	CorpusSize int

	idxMu  sync.Mutex
	idxKey string
	idx    search.Index
}

// NewPaperService returns a PaperService with the default search corpus.
func NewPaperService(db *gorm.DB) *PaperService {
	return &PaperService{DB: db, CorpusSize: defaultCorpusSize}
}

// Info returns one paper with its summary in lang (nil when missing).
func (s *PaperService) Info(ctx context.Context, id string, lang domain.Language) (*domain.PaperInfo, error) {
	tr := otel.Tracer("services/PaperService")
	ctx, span := tr.Start(ctx, "Info", trace.WithAttributes(
		attribute.String("paper.id", id),
		attribute.String("lang", string(lang)),
	))
	defer span.End()

	info, err := repo.PaperInfo(ctx, s.DB, strings.TrimSpace(id), lang)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	return info, nil
}

// Latest returns up to limit newest papers (default 10, capped at 100).
func (s *PaperService) Latest(ctx context.Context, limit int, lang domain.Language) ([]domain.PaperInfo, error) {
	tr := otel.Tracer("services/PaperService")
	ctx, span := tr.Start(ctx, "Latest", trace.WithAttributes(
		attribute.Int("limit", limit),
		attribute.String("lang", string(lang)),
	))
	defer span.End()

	return repo.LatestPaperInfos(ctx, s.DB, utils.ClampLimit(limit, DefaultLatestLimit, MaxLatestLimit), lang)
}

// ByDate returns full paper records published on the given YYYY-MM-DD day.
func (s *PaperService) ByDate(ctx context.Context, date string) ([]domain.Paper, error) {
	day, err := utils.ParseDate(date)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return repo.PapersByDate(ctx, s.DB, day)
}

// ByDateRange returns papers published in [start, end] (inclusive days). An
// inverted range yields an empty list.
func (s *PaperService) ByDateRange(ctx context.Context, start, end string) ([]domain.Paper, error) {
	from, err := utils.ParseDate(start)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, start)
	}
	to, err := utils.ParseDate(end)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrInvalidDate, end)
	}
	return repo.PapersByDateRange(ctx, s.DB, from, to)
}

// Summary returns the stored summaries of a paper.
func (s *PaperService) Summary(ctx context.Context, id string) (*domain.PaperSummary, error) {
	sum, err := repo.GetSummary(ctx, s.DB, id)
	if err == nil {
		return sum, nil
	}
	if !repo.IsNotFound(err) {
		return nil, err
	}
	if _, perr := repo.GetPaper(ctx, s.DB, id); perr != nil {
		if repo.IsNotFound(perr) {
			return nil, ErrPaperNotFound
		}
		return nil, perr
	}
	return nil, ErrSummaryNotFound
}

// Search ranks recent papers by token overlap with q and returns up to k
// hits with summaries in lang.
func (s *PaperService) Search(ctx context.Context, q string, k int, lang domain.Language) ([]SearchHit, error) {
	tr := otel.Tracer("services/PaperService")
	ctx, span := tr.Start(ctx, "Search", trace.WithAttributes(
		attribute.String("query", q),
		attribute.Int("k", k),
	))
	defer span.End()

	if strings.TrimSpace(q) == "" {
		return nil, ErrEmptyQuery
	}
	if !lang.Valid() {
		return nil, domain.ErrUnsupportedLanguage
	}
	idx, err := s.index(ctx)
	if err != nil {
		return nil, err
	}

	results := idx.TopK(q, utils.ClampLimit(k, defaultSearchK, maxSearchK))
	hits := make([]SearchHit, 0, len(results))
	for _, r := range results {
		info, err := repo.PaperInfo(ctx, s.DB, r.ID, lang)
		if err != nil {
			if repo.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		hits = append(hits, SearchHit{PaperInfo: *info, Score: r.Score})
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}

// index returns the cached index, rebuilding it when the store changed.
func (s *PaperService) index(ctx context.Context) (search.Index, error) {
	papers, _, maxAt, err := repo.PapersStats(ctx, s.DB)
	if err != nil {
		return nil, err
	}
	key := fmt.Sprintf("%d", papers)
	if maxAt != nil {
		key += "@" + maxAt.UTC().Format("20060102T150405.000000000")
	}

	s.idxMu.Lock()
	defer s.idxMu.Unlock()
	if s.idx != nil && s.idxKey == key {
		return s.idx, nil
	}

	size := s.CorpusSize
	if size <= 0 {
		size = defaultCorpusSize
	}
	recent, err := repo.RecentPapers(ctx, s.DB, size)
	if err != nil {
		return nil, err
	}
	docs := make([]search.Document, 0, len(recent))
	for _, p := range recent {
		docs = append(docs, search.Document{ID: p.ID, Text: p.Title + "\n" + p.Abstract})
	}
	s.idx = search.NewIndex(docs, search.WithStopwords(search.EnglishStopwords))
	s.idxKey = key
	return s.idx, nil
}
