package cmd

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/app"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/config"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/logging"
	"github.com/shahidirfan100/Simplyhired-Job-Scraper/internal/scrape"
)

func newScrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Runs one harvest against the configured search query",
		Long: `Seeds the task queue from the configured query, runs the worker
pool until the record target is met or the page budget is exhausted,
and exits once the queue drains.`,
		RunE: runScrapeCommand,
	}
	return cmd
}

func runScrapeCommand(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer a.Close()

	if err := a.Run(ctx); err != nil {
		if errors.Is(err, scrape.ErrNoSeeds) {
			return fmt.Errorf("nothing to scrape: %w", err)
		}
		if errors.Is(err, context.Canceled) {
			logger.Info("run interrupted", zap.String("run_id", a.RunID()))
			return nil
		}
		return fmt.Errorf("run scraper: %w", err)
	}
	return nil
}
