// Command paperdigest syncs daily HuggingFace papers, summarizes them in
// English and Russian, and serves them over HTTP.
//
// @title       Paper Digest API
// @version     1.0
// @description Daily HuggingFace papers with English and Russian summaries.
// @BasePath    /api/v1
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/tbourn/paper-digest/internal/config"
	"github.com/tbourn/paper-digest/internal/sysutil"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

var cfg config.Config

func main() {
	rootCmd := &cobra.Command{
		Use:           "paperdigest",
		Short:         "Daily paper digest with bilingual summaries",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// A missing .env is fine; the environment may already be set.
			_ = godotenv.Load()
			c, err := config.Load()
			if err != nil {
				return fmt.Errorf("config: %w", err)
			}
			cfg = c
			sysutil.SetupLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)
			return nil
		},
	}

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(syncCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(summarizeCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		log.Error().Err(err).Msg("paperdigest failed")
		os.Exit(1)
	}
}

func syncCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Run one sync and print its report",
		Long: `Fetches every missing day since the newest stored paper (or the
lookback window on an empty store), stores new papers and summarizes those
without summaries.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, withLLM)
			if err != nil {
				return err
			}
			defer a.Close()

			report, err := a.sync.Run(ctx)
			if err != nil {
				return err
			}
			return printJSON(report)
		},
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the papers and summaries tables",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, 0)
			if err != nil {
				return err
			}
			defer a.Close()
			log.Info().Str("driver", cfg.DB.Driver).Msg("schema up to date")
			return nil
		},
	}
}

func summarizeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "summarize <paper-id>",
		Short: "Regenerate the summaries of one paper",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signalContext()
			defer stop()

			a, err := newApp(ctx, cfg, withLLM)
			if err != nil {
				return err
			}
			defer a.Close()

			sum, err := a.sync.Resummarize(ctx, args[0])
			if err != nil {
				return err
			}
			return printJSON(sum)
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:               "version",
		Short:             "Print the build version",
		PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), version)
		},
	}
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
