package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/aretw0/autofix"
	"github.com/aretw0/autofix/internal/presentation/tui"
	httpAdapter "github.com/aretw0/autofix/pkg/adapters/http"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP server",
	Long:  `Starts autofix as an HTTP service exposing the remediation API, health checks and Prometheus metrics.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()

		if addr, _ := cmd.Flags().GetString("addr"); addr != "" {
			a.cfg.Server.Addr = addr
		}

		handlerOpts := []httpAdapter.Option{
			httpAdapter.WithCORS(a.cfg.Server.CORS),
			httpAdapter.WithRequestValidation(a.cfg.Server.ValidateRequests),
			httpAdapter.WithLogger(a.logger.With("component", "http")),
		}
		if a.metrics != nil {
			handlerOpts = append(handlerOpts,
				httpAdapter.WithMetricsHandler(a.metrics.Handler()),
				httpAdapter.WithMetricsPath(a.cfg.Metrics.Path),
			)
		}

		srv := &http.Server{
			Addr:              a.cfg.Server.Addr,
			Handler:           httpAdapter.NewHandler(a.svc, handlerOpts...),
			ReadHeaderTimeout: 10 * time.Second,
		}

		if tui.IsTerminal() {
			tui.PrintBanner(cmd.ErrOrStderr())
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)

		go func() {
			a.logger.Info("Starting autofix server",
				"address", srv.Addr,
				"version", autofix.Version,
				"max_iterations", a.svc.MaxIterations(),
				"redis", a.cfg.Redis.Enabled,
				"metrics", a.metrics != nil,
			)
			serverErrors <- srv.ListenAndServe()
		}()

		// Channel to listen for interrupt or terminate signals.
		shutdown := make(chan os.Signal, 1)
		signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

		// Blocking main and waiting for shutdown.
		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case sig := <-shutdown:
			a.logger.Info("Start shutdown", "signal", sig.String())

			// Give outstanding requests a deadline for completion.
			timeout := a.cfg.Server.ShutdownTimeout
			ctx, cancel := context.WithTimeout(context.Background(), timeout)
			defer cancel()

			// Asking listener to shut down and shed load.
			if err := srv.Shutdown(ctx); err != nil {
				a.logger.Error("Graceful shutdown did not complete", "timeout", timeout, "err", err)
				if err := srv.Close(); err != nil {
					a.logger.Error("Error killing server", "err", err)
				}
			}
			a.logger.Info("autofix server stopped gracefully")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (overrides server.addr)")
}
