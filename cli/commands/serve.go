package commands

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/petal-labs/warehouse/collector"
	"github.com/petal-labs/warehouse/config"
)

func defaultServe(ctx context.Context, cfg config.CollectorConfig, logger *slog.Logger) error {
	return collector.Serve(ctx, cfg, logger)
}

func (a *App) newServeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the reference collector",
		Long: `Run the reference collector.

The collector accepts record batches from instrumented processes on
POST /v1/records and stores them in BadgerDB. Without --data-dir the
records are kept in memory only.`,
		Args: cobra.NoArgs,
		RunE: a.runServe,
	}

	cmd.Flags().StringVar(&a.serveAddr, "addr", "", "listen address (overrides collector.addr)")
	cmd.Flags().StringVar(&a.serveDataDir, "data-dir", "", "BadgerDB directory (overrides collector.data_dir)")
	return cmd
}

func (a *App) runServe(cmd *cobra.Command, args []string) error {
	cfg := a.cfg.Collector
	if a.serveAddr != "" {
		cfg.Addr = a.serveAddr
	}
	if a.serveDataDir != "" {
		cfg.DataDir = a.serveDataDir
	}
	if cfg.Addr == "" {
		cfg.Addr = config.DefaultCollectorAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("collector starting", "addr", cfg.Addr, "data_dir", cfg.DataDir, "auth", !cfg.APIKey.IsEmpty())
	err := a.serve(ctx, cfg, a.logger)
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, http.ErrServerClosed) {
		a.reportError(a.stderr, "server_error", err)
		return exitWithCode(ExitNetwork, err)
	}
	return nil
}
