package cmd

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/moviefestival/forecaster/internal/handlers"
	"github.com/moviefestival/forecaster/internal/predict"
	"github.com/spf13/cobra"
)

func newServeCmd(opts *options) *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the prediction HTTP API",
		Long: `Starts an HTTP server answering POST /api/predictive_rating.

The request body is {"title", "genres", "principals": [{"name", "role"}], "releaseYear"}
and the response is {"title", "predictedRating", "status"}. Add ?explain=true to
include the per-genre and per-principal breakdown.`,
		Example: `  # Start server on the configured address (default :8888)
  forecaster serve

  # Serve a snapshot on a custom address
  forecaster serve --corpus-file corpus.parquet --addr :3000`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr != "" {
				opts.cfg.Server.Addr = addr
			}

			store, closeStore, err := opts.openCorpus(cmd.Context())
			if err != nil {
				return err
			}
			defer closeStore()

			handler := handlers.New(predict.NewEngine(store), opts.cfg.Timeout)

			server := &http.Server{
				Addr:              opts.cfg.Server.Addr,
				Handler:           handler.Router(opts.cfg.Server.RateLimit),
				ReadHeaderTimeout: 10 * time.Second,
			}

			// Start server in goroutine
			serverErr := make(chan error, 1)
			go func() {
				slog.Info("Forecaster API available", "addr", server.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					serverErr <- err
				}
			}()

			// Wait for context cancellation (Ctrl+C) or server error
			select {
			case <-cmd.Context().Done():
				slog.Info("Shutting down server...")
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := server.Shutdown(shutdownCtx); err != nil {
					slog.Error("Server shutdown failed", "err", err)
					return err
				}
				slog.Info("Server stopped")
				return nil
			case err := <-serverErr:
				return err
			}
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Address to listen on (overrides config)")

	return cmd
}
