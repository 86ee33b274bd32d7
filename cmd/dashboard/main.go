// Command dashboard runs the reconciliation pipeline once and writes the
// resulting dashboard to disk.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"time"

	"twdash/internal/config"
	"twdash/internal/fetch"
	"twdash/internal/flow"
	"twdash/internal/infrastructure"
	"twdash/internal/services"
	"twdash/pkg/contracts"
)

func main() {
	configFile := flag.String("config", "", "path to YAML config file")
	dateStr := flag.String("date", "", "reference date (YYYY-MM-DD), defaults to today")
	outDir := flag.String("out", "", "output directory (overrides config)")
	openBrowser := flag.Bool("open", false, "open the dashboard in a browser when done")
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
	if *outDir != "" {
		cfg.Output.Dir = *outDir
	}
	if *openBrowser {
		cfg.Output.OpenBrowser = true
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer infrastructure.CloseLogFile()

	refDate := time.Now()
	if *dateStr != "" {
		refDate, err = time.Parse("2006-01-02", *dateStr)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: invalid -date %q, expected YYYY-MM-DD\n", *dateStr)
			os.Exit(1)
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = infrastructure.EnsureTraceID(ctx)

	var pages fetch.PageFetcher
	client := fetch.NewClient(cfg.Sources, logger)
	if cfg.Sources.UseBrowser {
		pages = fetch.NewBrowserFetcher(cfg.Sources.UserAgent, cfg.Sources.Timeout, logger)
	} else {
		pages = client
	}
	var flowFetcher flow.Fetcher = fetch.NewFlowFetcher(client, cfg.Sources.FlowURL)

	svc := services.NewDashboardService(cfg, pages, flowFetcher, nil, logger)

	result, err := svc.Run(ctx, refDate)
	if err != nil {
		logger.Error("run failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := svc.Export(result, cfg.Output); err != nil {
		logger.Error("export failed", slog.String("error", err.Error()))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	htmlPath := filepath.Join(cfg.Output.Dir, cfg.Output.HTMLFile)
	fmt.Printf("Dashboard written to %s (buying %d, selling %d, no flow data %d)\n",
		htmlPath, len(result.Buying), len(result.Selling), len(result.NoFlowData))

	if !result.DatesAligned() {
		fmt.Printf("Note: ranking date %s and flow date %s differ\n",
			result.FiveDayDate, result.FlowDate)
	}

	if cfg.Output.OpenBrowser {
		if err := openInBrowser(htmlPath); err != nil {
			logger.Warn("could not open browser", slog.String("error", err.Error()))
		}
	}
}

// openInBrowser launches the platform's default browser on path.
func openInBrowser(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}

	switch runtime.GOOS {
	case "windows":
		return exec.Command("rundll32", "url.dll,FileProtocolHandler", abs).Start()
	case "darwin":
		return exec.Command("open", abs).Start()
	default:
		return exec.Command("xdg-open", abs).Start()
	}
}
