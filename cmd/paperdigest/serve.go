package main

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	httpapi "github.com/tbourn/paper-digest/internal/http"
	"github.com/tbourn/paper-digest/internal/http/handlers"
	"github.com/tbourn/paper-digest/internal/observability"
	"github.com/tbourn/paper-digest/internal/scheduler"
	"github.com/tbourn/paper-digest/internal/services"
	"github.com/tbourn/paper-digest/internal/sysutil"
)

const shutdownTimeout = 15 * time.Second

func serveCmd() *cobra.Command {
	var (
		noScheduler bool
		addr        string
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API and run the sync schedule",
		Long: `Starts the HTTP API. Unless --no-scheduler is set, syncs run on
SYNC_SCHEDULE and once at startup when SYNC_ON_START is true.
Handles SIGINT/SIGTERM for graceful shutdown.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()
			return serve(ctx, sysutil.FirstNonEmpty(addr, ":"+cfg.Port), !noScheduler)
		},
	}
	cmd.Flags().BoolVar(&noScheduler, "no-scheduler", false, "serve only; never sync in this process")
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default \":$PORT\")")
	return cmd
}

func serve(ctx context.Context, addr string, schedule bool) error {
	shutdownTracing, err := observability.SetupTracing(ctx, cfg.OTEL, version)
	if err != nil {
		return err
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(sctx); err != nil {
			log.Warn().Err(err).Msg("tracing shutdown")
		}
	}()

	a, err := newApp(ctx, cfg, withLLM|withSessions)
	if err != nil {
		return err
	}
	defer a.Close()

	// Background syncs outlive requests but stop on shutdown.
	bg, cancelBg := context.WithCancel(context.Background())
	defer cancelBg()

	gin.SetMode(cfg.GinMode)
	r := gin.New()
	h := handlers.New(a.papers, a.browse, a.sync, handlers.WithBackground(bg))
	httpapi.RegisterRoutes(r, h, cfg, a.ready)

	var sched *scheduler.Scheduler
	if schedule && cfg.Sync.Schedule != "" {
		sched, err = scheduler.New(cfg.Sync.Schedule, a.sync)
		if err != nil {
			return err
		}
		sched.Start()
	}
	if schedule && cfg.Sync.OnStart {
		go func() {
			if _, err := a.sync.Run(bg); err != nil && !errors.Is(err, services.ErrSyncInProgress) {
				log.Error().Err(err).Msg("startup sync failed")
			}
		}()
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadTimeout:       cfg.ReadTimeout,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		WriteTimeout:      cfg.WriteTimeout,
		IdleTimeout:       cfg.IdleTimeout,
		MaxHeaderBytes:    cfg.MaxHeaderBytes,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("addr", srv.Addr).Str("version", version).Msg("http server listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		if err != nil {
			return err
		}
	}

	sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(sctx); err != nil {
		log.Warn().Err(err).Msg("http shutdown")
	}
	cancelBg()
	if sched != nil {
		if err := sched.Stop(sctx); err != nil {
			log.Warn().Err(err).Msg("scheduler did not stop in time")
		}
	}
	log.Info().Msg("bye")
	return nil
}
