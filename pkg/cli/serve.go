package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nicktill/salesagg/pkg/config"
	"github.com/nicktill/salesagg/pkg/logging"
	"github.com/nicktill/salesagg/pkg/server"
)

// NewServeCommand returns the `serve` subcommand: a read-only HTTP API
// over the summary directory for the sales dashboard.
func NewServeCommand() *cobra.Command {
	cfg := config.FromEnv()

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "serve aggregated summaries over HTTP for the dashboard",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), cfg)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&cfg.OutputRoot, "output", cfg.OutputRoot, "summary directory to serve")
	flags.StringVar(&cfg.ListenAddr, "addr", cfg.ListenAddr, "listen address")
	flags.BoolVar(&cfg.Debug, "debug", cfg.Debug, "human-readable debug logging")

	return cmd
}

func serve(ctx context.Context, cfg config.Config) error {
	log, err := logging.New(cfg.Debug)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer log.Sync() // stderr sync failure is unactionable

	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := server.New(cfg.OutputRoot, log)
	go srv.Hub().Run(ctx)
	go srv.Hub().Watch(ctx)

	httpServer := &http.Server{
		Addr:         cfg.ListenAddr,
		Handler:      srv.Router(),
		ReadTimeout:  config.ServerReadTimeout,
		WriteTimeout: config.ServerWriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("serving summaries",
			zap.String("addr", cfg.ListenAddr),
			zap.String("output", cfg.OutputRoot))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), config.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("shutdown: %w", err)
	}
	return nil
}
