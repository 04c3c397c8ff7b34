package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"econstats/internal/handlers/api"
	"econstats/internal/jobs"
	"econstats/internal/metrics"
	"econstats/internal/server"
	"econstats/internal/tracing"
)

const shutdownTimeout = 10 * time.Second

func serveCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "Listen address (overrides SERVER_ADDR)")

	return cmd
}

func serve(addr string) error {
	cfg, ycfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	if addr != "" {
		cfg.ServerAddr = addr
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Setup(ctx, appName, Version, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("setup tracing: %w", err)
	}
	defer func() {
		sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer scancel()
		if err := shutdownTracing(sctx); err != nil {
			logger.Error("Failed to flush traces", "error", err)
		}
	}()

	a, err := buildApp(cfg, ycfg, logger)
	if err != nil {
		return err
	}
	metrics.Init(a.caches...)

	janitor := jobs.NewCacheJanitor(cfg.CacheSweepInterval, logger, a.sweepers...)
	go janitor.Start(ctx)

	srv := server.New(cfg)
	srv.RegisterRoutes(server.Handlers{
		Route:   api.NewRouteHandler(a.router),
		Search:  api.NewSearchHandler(a.search, logger),
		Catalog: api.NewCatalogHandler(a.registry, a.plans, a.series),
		Health:  api.NewHealthHandler(Version, cfg.Capabilities(), a.ready, a.caches...),
	})

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		logger.Info("Shutting down server", "signal", sig.String())
	}

	cancel()
	if err := srv.Shutdown(); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("Server exited")
	return nil
}
