package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sprite-ai/bookrate/internal/api"
)

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start an HTTP server exposing the shelf and the rating flow.

Endpoints:
  GET  /health              Health check
  GET  /api/books           Current shelf
  POST /api/books/refresh   Reload the shelf from the contract
  POST /api/ratings         Rate a book: {"id": 2, "rating": 4}
  GET  /api/session         Signed-in account
  GET  /metrics             Prometheus metrics
  GET  /api/ws              WebSocket for live rating sessions`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringP("addr", "a", "", "address to listen on (default from config)")
	return cmd
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	addr, _ := cmd.Flags().GetString("addr")
	if addr == "" {
		addr = a.cfg.Addr
	}

	ctx := cmd.Context()
	if _, err := a.shelf.Refresh(ctx); err != nil {
		a.log.Warn("initial shelf load failed", zap.Error(err))
	}

	srv := api.New(addr, a.shelf, a.flow, a.wallet,
		api.WithLogger(a.log.Named("api")),
		api.WithMetrics(a.metrics),
	)

	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		a.log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}
