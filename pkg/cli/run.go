package cli

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/nicktill/salesagg/pkg/checkpoint"
	"github.com/nicktill/salesagg/pkg/config"
	"github.com/nicktill/salesagg/pkg/logging"
	"github.com/nicktill/salesagg/pkg/pipeline"
)

// NewRunCommand returns the `run` subcommand: one batch aggregation
// pass over every hour bucket under the input root.
func NewRunCommand() *cobra.Command {
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "aggregate all hour buckets and write one summary file per hour",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.InputRoot, "input", cfg.InputRoot, "root directory of hour-bucket log directories")
	flags.StringVar(&cfg.OutputRoot, "output", cfg.OutputRoot, "directory receiving <bucketId>.txt summaries")
	flags.IntVar(&cfg.BucketWorkers, "bucket-workers", cfg.BucketWorkers, "max buckets aggregated concurrently")
	flags.IntVar(&cfg.FileWorkers, "file-workers", cfg.FileWorkers, "max files aggregated concurrently within a bucket")
	flags.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "overall run deadline (0 = none)")
	flags.StringVar(&cfg.CheckpointPath, "checkpoint", cfg.CheckpointPath, "ledger path for skipping unchanged buckets (empty = off)")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "human-readable debug logging")

	return cmd
}

func runPipeline(ctx context.Context, cfg config.Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	log, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() // stderr sync failure is unactionable

	var ledger *checkpoint.Ledger
	if cfg.CheckpointPath != "" {
		ledger, err = checkpoint.Open(cfg.CheckpointPath)
		if err != nil {
			return err
		}
		defer ledger.Close()
	}

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	driver := pipeline.New(cfg, log, ledger)
	report, err := driver.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Println(report.String())
	if !report.OK() {
		return fmt.Errorf("%d of %d buckets failed", report.Failed, report.BucketsFound)
	}
	return nil
}
