// Command mddata downloads and caches scientific benchmark datasets.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/mdverse/mddata/internal/app"
	"github.com/mdverse/mddata/internal/config"
	"github.com/mdverse/mddata/internal/logger"
)

var argparser = &cobra.Command{
	Use:   "mddata SUBCOMMAND [flags]",
	Short: "Fetch, verify, and manage locally cached datasets",

	SilenceErrors: true, // main() reports the error after ExecuteContext returns
	SilenceUsage:  true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := argparser.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "%s: error: %v\n", argparser.CommandPath(), err)
		os.Exit(1)
	}
}

// boot loads config, initializes logging, and builds the app runtime. The
// returned shutdown func flushes logs and closes the ledger.
func boot(ctx context.Context) (*app.App, func(), error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}

	log, err := logger.Init(cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("init logger: %w", err)
	}

	a, err := app.New(ctx, cfg, log)
	if err != nil {
		logger.Close()
		return nil, nil, err
	}

	shutdown := func() {
		if err := a.Close(); err != nil {
			logger.ErrorObj("ledger close failed", "error", err)
		}
		logger.Close()
	}
	return a, shutdown, nil
}
