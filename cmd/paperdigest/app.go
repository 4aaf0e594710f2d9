package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/tbourn/paper-digest/internal/catalog"
	"github.com/tbourn/paper-digest/internal/config"
	"github.com/tbourn/paper-digest/internal/llm"
	"github.com/tbourn/paper-digest/internal/repo"
	"github.com/tbourn/paper-digest/internal/services"
	"github.com/tbourn/paper-digest/internal/session"
	"github.com/tbourn/paper-digest/internal/summarizer"
)

// appFlags select optional dependencies.
type appFlags int

const (
	withLLM appFlags = 1 << iota
	withSessions
)

// app holds the wired services of one process.
type app struct {
	db       *gorm.DB
	papers   *services.PaperService
	browse   *services.BrowseService
	sync     *services.SyncService
	sessions session.Store

	closers []func() error
}

// newApp opens the store, migrates it and wires the services. Without
// withLLM the sync service can list and persist but not summarize.
func newApp(ctx context.Context, cfg config.Config, flags appFlags) (*app, error) {
	db, err := repo.Open(cfg.DB.Driver, cfg.DB.DSN())
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", cfg.DB.Driver, err)
	}
	a := &app{db: db}
	if sqlDB, err := db.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	if err := repo.AutoMigrate(ctx, db); err != nil {
		a.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	cat := catalog.New(
		catalog.WithBaseURL(cfg.Catalog.BaseURL),
		catalog.WithReaderURL(cfg.Catalog.ReaderURL),
		catalog.WithTimeout(cfg.Catalog.Timeout),
	)

	var sum services.Summarizer
	if flags&withLLM != 0 {
		client, err := llm.New(cfg.LLM.APIKey,
			llm.WithBaseURL(cfg.LLM.BaseURL),
			llm.WithModel(cfg.LLM.Model),
			llm.WithTemperature(cfg.LLM.Temperature),
			llm.WithMaxTokens(cfg.LLM.MaxTokens),
			llm.WithTimeout(cfg.LLM.Timeout),
			llm.WithRateLimit(cfg.LLM.RPS, 1),
		)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("llm: %w", err)
		}
		sum = summarizer.New(llm.NewRetrying(client))
	}

	a.papers = services.NewPaperService(db)
	a.sync = services.NewSyncService(db, cat, sum)
	a.sync.Resolver = cat
	a.sync.Concurrency = cfg.Sync.Concurrency
	a.sync.LookbackDays = cfg.Sync.LookbackDays

	if flags&withSessions != 0 {
		store, err := newSessionStore(ctx, cfg.Cache)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.sessions = store
		a.browse = services.NewBrowseService(a.papers, store)
	}
	return a, nil
}

// newSessionStore returns Redis when the cache is enabled, otherwise an
// in-process store.
func newSessionStore(ctx context.Context, c config.CacheConfig) (session.Store, error) {
	if !c.Enabled {
		return session.NewMemoryStore(c.SessionTTL), nil
	}
	store, err := session.NewRedisStore(ctx, session.RedisOptions{
		Addr:     c.Addr(),
		Password: c.Password,
		TTL:      c.SessionTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("session store: %w", err)
	}
	log.Info().Str("addr", c.Addr()).Msg("sessions in redis")
	return store, nil
}

// ready pings the database.
func (a *app) ready(ctx context.Context) error {
	sqlDB, err := a.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close releases the session store and the database.
func (a *app) Close() {
	if rs, ok := a.sessions.(*session.RedisStore); ok {
		if err := rs.Close(); err != nil {
			log.Warn().Err(err).Msg("close redis")
		}
	}
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i]())
	}
	if err := errors.Join(errs...); err != nil {
		log.Warn().Err(err).Msg("close database")
	}
}

// signalContext is canceled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
