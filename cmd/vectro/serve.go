package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/kailas-cloud/vectro/internal/metrics"
	chiTransport "github.com/kailas-cloud/vectro/internal/transport/chi"
	"github.com/kailas-cloud/vectro/internal/version"
)

func (c *cli) newServeCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve health, metrics, telemetry and state over HTTP",
		Long: `Serve a read-only HTTP surface:

  GET /health             component health (503 unless ok)
  GET /metrics            Prometheus metrics
  GET /telemetry[/{task}] archived task runs, ?last=N
  GET /state              pipeline phase and stored artifacts

Bearer tokens from auth.api_keys protect everything except /health and /metrics.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := c.load()
			if err != nil {
				return err
			}
			if port == 0 {
				port = a.cfg.HTTP.Port
			}
			return a.serve(cmd.Context(), port)
		},
	}
	cmd.Flags().IntVar(&port, "port", 0, "listen port (default from http.port)")
	return cmd
}

func (a *app) serve(ctx context.Context, port int) error {
	metrics.RegisterHTTPMetrics()

	server := chiTransport.NewServer(a.health(), a.telemetry, a.state, a.logger)
	addr := fmt.Sprintf(":%d", port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      server.Router(a.cfg.Auth.APIKeys),
		ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server",
			zap.String("addr", addr),
			zap.String("version", version.Version),
			zap.String("driver", a.driver.Name()),
		)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
		a.logger.Info("Received shutdown signal")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	a.logger.Info("Server stopped gracefully")
	return nil
}
