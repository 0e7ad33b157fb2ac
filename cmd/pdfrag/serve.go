package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	chiTransport "github.com/kailas-cloud/pdfrag/internal/transport/chi"
	"github.com/kailas-cloud/pdfrag/internal/version"
)

func serveCmd() *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(envName, "")
			if err != nil {
				return err
			}
			defer a.close()

			if port <= 0 {
				port = a.cfg.HTTP.Port
			}

			a.logger.Info("Starting pdfrag API server",
				zap.String("version", version.Version),
				zap.String("commit", version.Commit),
				zap.String("env", a.env),
				zap.Int("http_port", port),
				zap.String("data_dir", a.cfg.Storage.DataDir),
				zap.String("upload_dir", a.uploadDir()),
			)

			server := chiTransport.NewServer(chiTransport.Config{
				UploadDir:       a.uploadDir(),
				MaxUploadBytes:  a.cfg.HTTP.MaxUploadBytes,
				DefaultEndpoint: a.cfg.Completion.DefaultEndpoint,
				DefaultModel:    a.cfg.Completion.DefaultModel,
			}, a.corpus, a.chat, a.pdf, a.ledger, a.health, a.logger)

			addr := fmt.Sprintf(":%d", port)
			srv := &http.Server{
				Addr:         addr,
				Handler:      server.Routes(),
				ReadTimeout:  time.Duration(a.cfg.HTTP.ReadTimeoutSec) * time.Second,
				WriteTimeout: time.Duration(a.cfg.HTTP.WriteTimeoutSec) * time.Second,
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			errCh := make(chan error, 1)
			go func() {
				a.logger.Info("Starting HTTP server", zap.String("addr", addr))
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
			}
			a.logger.Info("Received shutdown signal")

			shutdownCtx, cancel := context.WithTimeout(context.Background(),
				time.Duration(a.cfg.HTTP.ShutdownSec)*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.logger.Error("Error during shutdown", zap.Error(err))
			}
			a.logger.Info("Server stopped gracefully")
			return nil
		},
	}

	cmd.Flags().IntVarP(&port, "port", "p", 0, "listen port (default: http.port from config)")
	return cmd
}
