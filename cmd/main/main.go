package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Houeta/yacht-watch/internal/config"
	"github.com/Houeta/yacht-watch/internal/metrics"
	"github.com/Houeta/yacht-watch/internal/parser"
	"github.com/Houeta/yacht-watch/internal/services/runner"
	"github.com/Houeta/yacht-watch/internal/snapshot"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
)

// Constants for different environment types.
const (
	envLocal = "local"
	envDev   = "development"
	envProd  = "production"
)

type flags struct {
	configFile string
	envFile    string
	date       string
	keepLocal  bool
}

// main is the entry point of the application.
func main() {
	// Interrupts cancel the run; partial artifacts are still cleaned up.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var f flags

	cmd := &cobra.Command{
		Use:   "yacht-watch",
		Short: "Track yacht listing changes",
		Long: "yacht-watch scrapes the current yacht inventory, compares it with the latest\n" +
			"archived snapshot, archives the results and emails a change report.",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), f)
		},
	}

	cmd.Flags().StringVar(&f.configFile, "config", "", "optional config file (yaml, toml or json)")
	cmd.Flags().StringVar(&f.envFile, "env-file", ".env", "dotenv file loaded before reading the environment")
	cmd.Flags().StringVar(&f.date, "date", "", "run date as MM_DD_YYYY (default today)")
	cmd.Flags().BoolVar(&f.keepLocal, "keep-local", false, "keep local artifacts after the run")

	return cmd
}

func run(ctx context.Context, f flags) error {
	started := time.Now()

	if err := config.LoadEnvFile(f.envFile); err != nil {
		return err
	}

	cfg, err := config.Load(f.configFile)
	if err != nil {
		return err
	}

	// Set up the logger based on the environment.
	logger := setupLogger(cfg.Env)

	var runDate time.Time
	if f.date != "" {
		if runDate, err = snapshot.ParseDate(f.date); err != nil {
			return err
		}
	}

	store, closeStore, err := buildStore(ctx, logger, cfg.Store)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to init snapshot store", "backend", cfg.Store.Backend, "error", err)
		return err
	}
	defer closeStore()

	notifier, err := buildNotifier(logger, cfg)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to init notifier", "notifier", cfg.Notifier, "error", err)
		return err
	}

	htmlParser := parser.NewParser(logger, parser.Options{
		URL:            cfg.Source.URL,
		UserAgent:      cfg.Source.UserAgent,
		Referer:        cfg.Source.Referer,
		AcceptLanguage: cfg.Source.AcceptLanguage,
		Timeout:        cfg.Source.Timeout,
		IDSegment:      cfg.Source.IDSegment,
	})

	runMetrics := metrics.NewRun()
	pipeline := runner.NewRunner(logger, htmlParser, store, notifier, afero.NewOsFs(), runMetrics, runner.Options{
		WorkDir:   cfg.WorkDir,
		From:      cfg.Mail.From,
		To:        cfg.Mail.To,
		Subject:   cfg.Mail.Subject,
		Workbook:  cfg.Workbook,
		KeepLocal: f.keepLocal,
		RunDate:   runDate,
	})

	logger.InfoContext(ctx, "Run started", "source", cfg.Source.URL, "store", cfg.Store.Backend)

	res, err := pipeline.Run(ctx)
	pushMetrics(ctx, logger, cfg.Metrics, runMetrics, started)
	if err != nil {
		logger.ErrorContext(ctx, "Run failed", "error", err)
		return fmt.Errorf("run failed: %w", err)
	}

	logger.InfoContext(
		ctx,
		"Run finished",
		"run_id", res.RunID,
		"archived", len(res.Archived),
		"archival_failures", len(res.ArchivalErrors),
		"notified", res.NotificationErr == nil,
		"duration", time.Since(started),
	)

	return nil
}

func pushMetrics(ctx context.Context, log *slog.Logger, cfg config.Metrics, m *metrics.Run, started time.Time) {
	if cfg.PushgatewayURL == "" {
		return
	}
	if err := m.Push(ctx, cfg.PushgatewayURL, cfg.Job, started); err != nil {
		log.WarnContext(ctx, "Failed to push metrics", "error", err)
	}
}

// setupLogger initializes and returns a logger based on the environment provided.
func setupLogger(env string) *slog.Logger {
	dropTime := func(_ []string, a slog.Attr) slog.Attr {
		if a.Key == slog.TimeKey {
			return slog.Attr{}
		}
		return a
	}

	switch env {
	case envLocal:
		return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level:     slog.LevelDebug,
			AddSource: true,
		}))
	case envDev:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case envProd:
		return slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level:       slog.LevelWarn,
			ReplaceAttr: dropTime,
		}))
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       slog.LevelError,
		ReplaceAttr: dropTime,
	}))
	log.Error(
		"The env parameter was not specified or was invalid. Logging will be minimal, by default.",
		slog.String("available_envs", "local, development, production"))

	return log
}
