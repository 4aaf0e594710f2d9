// Package services – SyncService
//
// SyncService is the orchestrator of the daily pipeline. One Run walks the
// state machine IDLE → DETERMINING_RANGE → FETCHING ⇄ PERSISTING →
// BACKFILLING → IDLE:
//
//   - Both tables are initialized on every run (idempotent migrations).
//   - The range is [today-LookbackDays, today] on an empty store, otherwise
//     [day after the latest published_at, today]. When the start is after
//     today no day is fetched.
//   - Days are processed in ascending order and each day's batch is persisted
//     before the next day is fetched, so an interrupted run resumes from the
//     latest persisted day.
//   - Backfill reads the papers-without-summary queue once, summarizes them
//     through a bounded worker group and persists results in completion
//     order from a single consumer. A failing paper is logged and counted;
//     it never stops the others.
//
// Only one Run executes at a time per SyncService; a concurrent caller gets
// ErrSyncInProgress.
package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/observability"
	"github.com/tbourn/paper-digest/internal/repo"
	"github.com/tbourn/paper-digest/internal/summarizer"
)

// Fetcher returns the normalized catalog listing for one UTC day. Failures
// are the fetcher's to log; they surface as an empty slice.
type Fetcher interface {
	FetchPapersForDate(ctx context.Context, day time.Time) []domain.Paper
}

// Summarizer produces all requested summaries for an abstract, or none.
type Summarizer interface {
	Summarize(ctx context.Context, abstract string, opts summarizer.Options) (map[domain.Language]string, error)
}

// AbstractResolver finds an abstract for a paper stored without one.
type AbstractResolver interface {
	ResolveAbstract(ctx context.Context, id, url string) (string, error)
}

// SyncState is the orchestrator's current phase.
type SyncState string

const (
	StateIdle             SyncState = "IDLE"
	StateDeterminingRange SyncState = "DETERMINING_RANGE"
	StateFetching         SyncState = "FETCHING"
	StatePersisting       SyncState = "PERSISTING"
	StateBackfilling      SyncState = "BACKFILLING"
)

const (
	defaultSyncConcurrency = 4
	defaultLookbackDays    = 7
)

// SyncReport summarizes one Run.
type SyncReport struct {
	Start      time.Time     `json:"start"`
	End        time.Time     `json:"end"`
	Days       int           `json:"days"`
	Fetched    int           `json:"fetched"`
	Inserted   int           `json:"inserted"`
	Pending    int           `json:"pending"`
	Summarized int           `json:"summarized"`
	Failed     int           `json:"failed"`
	UpToDate   bool          `json:"up_to_date"`
	Duration   time.Duration `json:"duration_ns"`
}

// BackfillReport counts the outcome of one backfill pass.
type BackfillReport struct {
	Pending    int `json:"pending"`
	Summarized int `json:"summarized"`
	Failed     int `json:"failed"`
}

// SyncService coordinates fetching, persisting and summarizing papers.
type SyncService struct {
	DB         *gorm.DB
	Fetcher    Fetcher
	Summarizer Summarizer
	// Resolver is optional; without it papers with an empty abstract fail
	// backfill with ErrNoAbstract.
	Resolver AbstractResolver

	// SummaryOptions are passed to every Summarize call.
	SummaryOptions summarizer.Options
	// Concurrency caps in-flight summarizations during backfill.
	Concurrency int
	// LookbackDays is the window fetched when the store is empty.
	LookbackDays int
	// Now is the clock; tests pin it.
	Now func() time.Time

	running atomic.Bool
	mu      sync.RWMutex
	state   SyncState
}

// NewSyncService wires a SyncService with default concurrency and lookback.
func NewSyncService(db *gorm.DB, f Fetcher, s Summarizer) *SyncService {
	return &SyncService{
		DB:           db,
		Fetcher:      f,
		Summarizer:   s,
		Concurrency:  defaultSyncConcurrency,
		LookbackDays: defaultLookbackDays,
		Now:          time.Now,
	}
}

// State returns the current phase; IDLE when no run is active.
func (s *SyncService) State() SyncState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state == "" {
		return StateIdle
	}
	return s.state
}

// Running reports whether a Run is in progress.
func (s *SyncService) Running() bool { return s.running.Load() }

func (s *SyncService) setState(st SyncState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

func (s *SyncService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Run performs one full sync. Per-day and per-paper failures are logged and
// counted. An error is returned only when the store itself fails or ctx is
// canceled.
func (s *SyncService) Run(ctx context.Context) (SyncReport, error) {
	if !s.running.CompareAndSwap(false, true) {
		observability.ObserveSync("skipped", 0)
		return SyncReport{}, ErrSyncInProgress
	}
	defer s.running.Store(false)
	defer s.setState(StateIdle)

	tr := otel.Tracer("services/SyncService")
	ctx, span := tr.Start(ctx, "Run")
	defer span.End()

	began := time.Now()
	report, err := s.run(ctx)
	report.Duration = time.Since(began)

	span.SetAttributes(
		attribute.Int("sync.days", report.Days),
		attribute.Int("sync.inserted", report.Inserted),
		attribute.Int("sync.summarized", report.Summarized),
		attribute.Int("sync.failed", report.Failed),
	)
	if err != nil {
		span.RecordError(err)
		observability.ObserveSync("error", report.Duration)
		log.Error().Err(err).Str("component", "sync").Msg("sync aborted")
		return report, err
	}
	observability.ObserveSync("ok", report.Duration)
	log.Info().Str("component", "sync").
		Str("start", report.Start.Format("2006-01-02")).
		Str("end", report.End.Format("2006-01-02")).
		Int("days", report.Days).
		Int("inserted", report.Inserted).
		Int("summarized", report.Summarized).
		Int("failed", report.Failed).
		Dur("took", report.Duration).
		Msg("sync finished")
	return report, nil
}

func (s *SyncService) run(ctx context.Context) (SyncReport, error) {
	var report SyncReport

	if err := repo.InitPapers(ctx, s.DB); err != nil {
		return report, fmt.Errorf("init papers: %w", err)
	}
	if err := repo.InitSummaries(ctx, s.DB); err != nil {
		return report, fmt.Errorf("init summaries: %w", err)
	}

	s.setState(StateDeterminingRange)
	start, end, ok, err := s.Range(ctx)
	if err != nil {
		return report, fmt.Errorf("determine range: %w", err)
	}
	report.Start, report.End = start, end
	report.UpToDate = !ok

	if ok {
		for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
			if err := ctx.Err(); err != nil {
				return report, err
			}
			fetched, inserted, err := s.syncDay(ctx, day)
			report.Days++
			report.Fetched += fetched
			report.Inserted += inserted
			if err != nil {
				return report, err
			}
		}
	}

	bf, err := s.Backfill(ctx)
	report.Pending, report.Summarized, report.Failed = bf.Pending, bf.Summarized, bf.Failed
	return report, err
}

// syncDay fetches one day and persists it before returning.
func (s *SyncService) syncDay(ctx context.Context, day time.Time) (fetched, inserted int, err error) {
	s.setState(StateFetching)
	papers := s.Fetcher.FetchPapersForDate(ctx, day)

	s.setState(StatePersisting)
	inserted, err = repo.SavePapers(ctx, s.DB, papers)
	observability.AddPapersInserted(inserted)
	log.Debug().Str("component", "sync").Str("date", day.Format("2006-01-02")).
		Int("fetched", len(papers)).Int("inserted", inserted).Msg("day persisted")
	return len(papers), inserted, err
}

// Range computes the inclusive UTC day range the next Run would fetch. ok is
// false when the store is already current.
func (s *SyncService) Range(ctx context.Context) (start, end time.Time, ok bool, err error) {
	today := repo.StartOfDay(s.now())
	last, err := repo.LatestPublishedAt(ctx, s.DB)
	if err != nil {
		return time.Time{}, time.Time{}, false, err
	}
	if last == nil {
		lookback := s.LookbackDays
		if lookback < 0 {
			lookback = 0
		}
		start = today.AddDate(0, 0, -lookback)
	} else {
		start = repo.StartOfDay(*last).AddDate(0, 0, 1)
	}
	return start, today, !start.After(today), nil
}

type backfillResult struct {
	paper     repo.PendingPaper
	summaries map[domain.Language]string
	err       error
}

// Backfill summarizes every stored paper that has no summary row.
func (s *SyncService) Backfill(ctx context.Context) (BackfillReport, error) {
	s.setState(StateBackfilling)

	tr := otel.Tracer("services/SyncService")
	ctx, span := tr.Start(ctx, "Backfill")
	defer span.End()

	queue, err := repo.PapersWithoutSummary(ctx, s.DB)
	if err != nil {
		return BackfillReport{}, fmt.Errorf("summary queue: %w", err)
	}
	report := BackfillReport{Pending: len(queue)}
	span.SetAttributes(attribute.Int("backfill.pending", len(queue)))
	if len(queue) == 0 {
		return report, nil
	}

	limit := s.Concurrency
	if limit <= 0 {
		limit = defaultSyncConcurrency
	}
	results := make(chan backfillResult)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	go func() {
		for _, p := range queue {
			if gctx.Err() != nil {
				break
			}
			g.Go(func() error {
				sums, err := s.summarizePaper(gctx, p.ID, p.URL, p.Abstract)
				select {
				case results <- backfillResult{paper: p, summaries: sums, err: err}:
				case <-gctx.Done():
				}
				return nil
			})
		}
		_ = g.Wait()
		close(results)
	}()

	// Completion order: whichever paper finishes first is persisted first.
	for r := range results {
		lg := log.With().Str("component", "backfill").Str("paper_id", r.paper.ID).Logger()
		if r.err != nil {
			report.Failed++
			observability.ObserveSummary(false)
			lg.Error().Err(r.err).Msg("summarize failed")
			continue
		}
		if err := repo.UpsertSummary(ctx, s.DB, r.paper.ID, r.summaries); err != nil {
			report.Failed++
			observability.ObserveSummary(false)
			lg.Error().Err(err).Msg("store summary failed")
			continue
		}
		report.Summarized++
		observability.ObserveSummary(true)
	}
	return report, ctx.Err()
}

// Resummarize regenerates and overwrites the summaries of one paper.
func (s *SyncService) Resummarize(ctx context.Context, paperID string) (*domain.PaperSummary, error) {
	tr := otel.Tracer("services/SyncService")
	ctx, span := tr.Start(ctx, "Resummarize", trace.WithAttributes(attribute.String("paper.id", paperID)))
	defer span.End()

	p, err := repo.GetPaper(ctx, s.DB, paperID)
	if err != nil {
		if repo.IsNotFound(err) {
			return nil, ErrPaperNotFound
		}
		return nil, err
	}
	sums, err := s.summarizePaper(ctx, p.ID, p.URL, p.Abstract)
	if err != nil {
		observability.ObserveSummary(false)
		return nil, err
	}
	if err := repo.UpsertSummary(ctx, s.DB, p.ID, sums); err != nil {
		return nil, err
	}
	observability.ObserveSummary(true)
	return repo.GetSummary(ctx, s.DB, p.ID)
}

func (s *SyncService) summarizePaper(ctx context.Context, id, url, abstract string) (map[domain.Language]string, error) {
	if abstract == "" && s.Resolver != nil {
		resolved, err := s.Resolver.ResolveAbstract(ctx, id, url)
		if err != nil {
			return nil, errors.Join(ErrNoAbstract, err)
		}
		abstract = resolved
	}
	if abstract == "" {
		return nil, ErrNoAbstract
	}
	return s.Summarizer.Summarize(ctx, abstract, s.SummaryOptions)
}
