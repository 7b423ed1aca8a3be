package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/aretw0/arbor"
	"github.com/aretw0/arbor/internal/demo"
	"github.com/aretw0/arbor/internal/presentation/tui"
	httpAdapter "github.com/aretw0/arbor/pkg/adapters/http"
	"github.com/aretw0/arbor/pkg/bus"
	"github.com/aretw0/arbor/pkg/core"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the demo store over HTTP",
	Long: `Starts the demo action tree (counter and todos) and exposes its state,
actions and event stream as a JSON API with Server-Sent Events.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		e, err := setup(cmd)
		if err != nil {
			return err
		}
		defer e.close()

		addr, _ := cmd.Flags().GetString("addr")
		if addr == "" {
			addr = e.cfg.HTTP.Addr
		}

		ctx := NewSignalContext(context.Background())
		defer ctx.Cancel()

		opts := []arbor.Option{
			arbor.WithLogger(e.logger),
			arbor.WithContext(ctx),
			arbor.WithStorage(e.storage),
		}
		var serverOpts []httpAdapter.Option
		serverOpts = append(serverOpts, httpAdapter.WithLogger(e.logger))

		if e.cfg.Metrics.Enabled {
			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)
			opts = append(opts,
				arbor.WithBus(bus.New(bus.WithLogger(e.logger), bus.WithMetrics(bus.NewMetrics(reg)))),
				arbor.WithMetrics(core.NewMetrics(reg)),
			)
			serverOpts = append(serverOpts, httpAdapter.WithMetricsHandler(promhttp.HandlerFor(reg, promhttp.HandlerOpts{})))
		}

		store := arbor.CreateState(demo.Tree(nil), e.cfg.Namespace, opts...)
		defer store.Close()

		srv := httpAdapter.NewServer(store, serverOpts...)
		defer srv.Close()

		httpServer := &http.Server{
			Addr:              addr,
			Handler:           srv.Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		tui.PrintBanner(os.Stdout, strings.TrimSpace(arbor.Version))

		serverErrors := make(chan error, 1)
		go func() {
			e.logger.Info("HTTP server listening", "addr", addr, "namespace", store.Namespace())
			serverErrors <- httpServer.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			e.logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				e.logger.Warn("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := httpServer.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			e.logger.Info("Arbor server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (defaults to http.addr from config)")
}
