// Package handlers provides the HTTP handlers of the paper digest API.
//
// Handlers are transport-thin: they parse and validate input, call the
// services through the interfaces below, and map results and errors onto
// JSON responses. Routes:
//
//	GET  /papers/latest          newest papers with summaries
//	GET  /papers/search          similarity search
//	GET  /papers                 papers by date or date range
//	GET  /papers/:id             one paper with its summary
//	GET  /papers/:id/summary     both stored summaries
//	POST /papers/:id/summary     regenerate summaries
//	POST /sync, GET /sync/state  run and inspect syncs
//	/browse/*                    per-user paging and language
package handlers

import (
	"context"

	"github.com/tbourn/paper-digest/internal/domain"
	"github.com/tbourn/paper-digest/internal/services"
)

// PaperReader is the read API over stored papers and summaries.
type PaperReader interface {
	Info(ctx context.Context, id string, lang domain.Language) (*domain.PaperInfo, error)
	Latest(ctx context.Context, limit int, lang domain.Language) ([]domain.PaperInfo, error)
	ByDate(ctx context.Context, date string) ([]domain.Paper, error)
	ByDateRange(ctx context.Context, start, end string) ([]domain.Paper, error)
	Summary(ctx context.Context, id string) (*domain.PaperSummary, error)
	Search(ctx context.Context, q string, k int, lang domain.Language) ([]services.SearchHit, error)
}

// Browser pages a user through the latest papers.
type Browser interface {
	StoredLanguage(ctx context.Context, userID string) (domain.Language, bool, error)
	SetLanguage(ctx context.Context, userID, code string) (domain.Language, error)
	Current(ctx context.Context, userID string) (*services.BrowseView, error)
	Next(ctx context.Context, userID string) (*services.BrowseView, error)
	Prev(ctx context.Context, userID string) (*services.BrowseView, error)
	Reset(ctx context.Context, userID string) error
}

// Syncer runs syncs and on-demand re-summarization.
type Syncer interface {
	Run(ctx context.Context) (services.SyncReport, error)
	State() services.SyncState
	Running() bool
	Resummarize(ctx context.Context, paperID string) (*domain.PaperSummary, error)
}

// Handlers groups the API endpoints.
type Handlers struct {
	papers PaperReader
	browse Browser
	sync   Syncer

	// bg bounds background syncs started by POST /sync; it is canceled on
	// shutdown.
	bg context.Context
}

// Option customizes Handlers.
type Option func(*Handlers)

// WithBackground sets the context background syncs run under.
func WithBackground(ctx context.Context) Option {
	return func(h *Handlers) { h.bg = ctx }
}

// New constructs Handlers bound to the given services.
func New(papers PaperReader, browse Browser, sync Syncer, opts ...Option) *Handlers {
	h := &Handlers{papers: papers, browse: browse, sync: sync, bg: context.Background()}
	for _, o := range opts {
		o(h)
	}
	return h
}
