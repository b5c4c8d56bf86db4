package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"marquee/internal/dataset"
)

func newFetchCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "fetch",
		Short: "Download and extract the MovieLens dataset",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}

			signalCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer cancel()

			logger, err := newCommandLogger(cfg)
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			fetcher := dataset.NewFetcher(
				cfg.Dataset.DownloadURL,
				cfg.Paths.DataDir,
				time.Duration(cfg.Dataset.DownloadTimeoutSeconds)*time.Second,
				logger,
			)
			if fetcher.Present() && !force {
				fmt.Fprintln(cmd.OutOrStdout(), "Dataset already present (use --force to re-download)")
				return nil
			}
			if err := fetcher.Fetch(signalCtx, force); err != nil {
				return fmt.Errorf("fetch dataset: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Dataset extracted to %s\n", cfg.Paths.DataDir)
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Re-download even if the dataset is present")
	return cmd
}
