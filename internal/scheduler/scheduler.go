// Package scheduler runs the paper sync on a cron schedule.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/tbourn/paper-digest/internal/services"
)

// Runner performs one sync.
type Runner interface {
	Run(ctx context.Context) (services.SyncReport, error)
}

// Scheduler triggers Runner on a cron spec. Overlapping ticks are skipped.
type Scheduler struct {
	cron   *cron.Cron
	runner Runner
	spec   string
	id     cron.EntryID

	ctx    context.Context
	cancel context.CancelFunc
}

// Option customizes a Scheduler.
type Option func(*options)

type options struct {
	loc *time.Location
}

// WithLocation evaluates the schedule in loc instead of UTC.
func WithLocation(loc *time.Location) Option {
	return func(o *options) { o.loc = loc }
}

// New parses spec (standard five-field cron or a descriptor such as
// "@every 1h") and binds it to r. Nothing runs until Start.
func New(spec string, r Runner, opts ...Option) (*Scheduler, error) {
	spec = strings.TrimSpace(spec)
	if spec == "" {
		return nil, errors.New("scheduler: empty schedule")
	}
	if r == nil {
		return nil, errors.New("scheduler: nil runner")
	}
	o := options{loc: time.UTC}
	for _, opt := range opts {
		opt(&o)
	}

	logger := cronLogger{l: log.With().Str("component", "scheduler").Logger()}
	c := cron.New(
		cron.WithLocation(o.loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	ctx, cancel := context.WithCancel(context.Background())
	s := &Scheduler{cron: c, runner: r, spec: spec, ctx: ctx, cancel: cancel}
	id, err := c.AddFunc(spec, s.tick)
	if err != nil {
		cancel()
		return nil, fmt.Errorf("scheduler: invalid schedule %q: %w", spec, err)
	}
	s.id = id
	return s, nil
}

func (s *Scheduler) tick() {
	report, err := s.runner.Run(s.ctx)
	switch {
	case errors.Is(err, services.ErrSyncInProgress):
		log.Info().Str("component", "scheduler").Msg("sync already running, tick skipped")
	case err != nil:
		log.Error().Err(err).Str("component", "scheduler").Msg("scheduled sync failed")
	default:
		log.Info().Str("component", "scheduler").
			Int("inserted", report.Inserted).
			Int("summarized", report.Summarized).
			Msg("scheduled sync done")
	}
}

// Start begins firing in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Info().Str("component", "scheduler").Str("schedule", s.spec).Time("next", s.Next()).Msg("scheduler started")
}

// Next returns the next activation time, or zero before Start.
func (s *Scheduler) Next() time.Time {
	return s.cron.Entry(s.id).Next
}

// Stop cancels a running sync and waits for it to return or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	done := s.cron.Stop()
	s.cancel()
	select {
	case <-done.Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// cronLogger adapts zerolog to cron.Logger.
type cronLogger struct{ l zerolog.Logger }

func (c cronLogger) Info(msg string, kv ...any) {
	c.l.Debug().Fields(kv).Msg(msg)
}

func (c cronLogger) Error(err error, msg string, kv ...any) {
	c.l.Error().Err(err).Fields(kv).Msg(msg)
}
