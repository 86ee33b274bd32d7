// Command web serves the dashboard over HTTP, refreshing it on demand via
// the API and optionally on a fixed interval.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"twdash/internal/config"
	"twdash/internal/fetch"
	"twdash/internal/flow"
	"twdash/internal/infrastructure"
	"twdash/internal/services"
	transport "twdash/internal/transport/http"
	"twdash/internal/websocket"
	"twdash/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(contracts.GetVersionString())
		return
	}

	cfg, err := config.Load(*configFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	hub := websocket.NewHub(logger)

	var pages fetch.PageFetcher
	client := fetch.NewClient(cfg.Sources, logger)
	if cfg.Sources.UseBrowser {
		pages = fetch.NewBrowserFetcher(cfg.Sources.UserAgent, cfg.Sources.Timeout, logger)
	} else {
		pages = client
	}
	var flowFetcher flow.Fetcher = fetch.NewFlowFetcher(client, cfg.Sources.FlowURL)

	svc := services.NewDashboardService(cfg, pages, flowFetcher, hub, logger)
	srv := transport.NewServer(cfg.Server, svc, hub, cfg.Output, logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Warm the dashboard so the first page view has data.
	go refresh(ctx, svc, cfg.Output, logger)

	if cfg.Server.RefreshInterval > 0 {
		go refreshLoop(ctx, svc, cfg, logger)
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start()
	}()

	select {
	case err := <-errCh:
		if err != nil {
			logger.Error("server failed", slog.String("error", err.Error()))
			os.Exit(1)
		}
	case <-ctx.Done():
		logger.Info("shutdown signal received")
		if err := srv.Shutdown(context.Background()); err != nil {
			logger.Error("shutdown error", slog.String("error", err.Error()))
		}
	}
}

// refreshLoop reruns the pipeline on the configured interval until ctx ends.
func refreshLoop(ctx context.Context, svc *services.DashboardService, cfg *config.Config, logger *slog.Logger) {
	ticker := time.NewTicker(cfg.Server.RefreshInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			refresh(ctx, svc, cfg.Output, logger)
		}
	}
}

func refresh(ctx context.Context, svc *services.DashboardService, out config.OutputConfig, logger *slog.Logger) {
	runCtx := infrastructure.EnsureTraceID(ctx)
	result, err := svc.Run(runCtx, time.Now())
	if err != nil {
		logger.Error("scheduled run failed", slog.String("error", err.Error()))
		return
	}
	if err := svc.Export(result, out); err != nil {
		logger.Error("scheduled export failed", slog.String("error", err.Error()))
	}
}
