// Package services orchestrates the end-to-end dashboard pipeline: fetch the
// two decliner ranking snapshots and the daily flow feed, extract and
// reconcile them, and hand the classified result to the exporters.
package services

import (
	"context"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"twdash/internal/config"
	"twdash/internal/errors"
	"twdash/internal/exporter"
	"twdash/internal/fetch"
	"twdash/internal/flow"
	"twdash/internal/infrastructure"
	"twdash/internal/ranking"
	"twdash/internal/reconcile"
	"twdash/pkg/contracts/domain"
)

// EventSink receives run lifecycle notifications. The websocket hub
// implements it; tests substitute a recorder.
type EventSink interface {
	BroadcastRunStarted(runID string)
	BroadcastRunComplete(runID string, buying, selling, noFlowData int)
	BroadcastRunFailed(runID, reason string)
}

// DashboardService runs the reconciliation pipeline and keeps the latest
// result for the web surface. At most one run is in flight at a time.
type DashboardService struct {
	cfg         *config.Config
	pages       fetch.PageFetcher
	flowFetcher flow.Fetcher

	extractor   *ranking.Extractor
	flowBuilder *flow.Builder
	reconciler  *reconcile.Reconciler

	events EventSink
	logger *slog.Logger

	mu      sync.RWMutex
	latest  *domain.ReconciliationResult
	running bool
}

// NewDashboardService wires the pipeline from its fetch dependencies.
// events may be nil when no run notifications are wanted.
func NewDashboardService(cfg *config.Config, pages fetch.PageFetcher, flowFetcher flow.Fetcher, events EventSink, logger *slog.Logger) *DashboardService {
	if logger == nil {
		logger = infrastructure.GetLogger()
	}
	logger = infrastructure.WithComponent(logger, "services.dashboard")

	return &DashboardService{
		cfg:         cfg,
		pages:       pages,
		flowFetcher: flowFetcher,
		extractor:   ranking.NewExtractor(logger),
		flowBuilder: flow.NewBuilder(logger),
		reconciler:  reconcile.NewReconciler(logger),
		events:      events,
		logger:      logger,
	}
}

// Latest returns the most recent run result, or false when no run has
// completed yet.
func (s *DashboardService) Latest() (domain.ReconciliationResult, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.latest == nil {
		return domain.ReconciliationResult{}, false
	}
	return *s.latest, true
}

// Running reports whether a run is currently in flight.
func (s *DashboardService) Running() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// Run executes one full pipeline pass anchored at refDate. The two ranking
// pages are fetched concurrently; the flow feed walks backwards from refDate
// until it finds a usable trading day. A primary ranking that yields no
// records fails the run; a missing secondary ranking or an exhausted flow
// walk degrades it instead.
func (s *DashboardService) Run(ctx context.Context, refDate time.Time) (domain.ReconciliationResult, error) {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return domain.ReconciliationResult{}, errors.ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()

	runID := uuid.New().String()
	start := time.Now()

	logger := s.logger.With(slog.String("run_id", runID))
	logger.InfoContext(ctx, "pipeline run started",
		slog.String("ref_date", refDate.Format("2006-01-02")))

	if s.events != nil {
		s.events.BroadcastRunStarted(runID)
	}

	result, err := s.run(ctx, logger, runID, refDate)
	runDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		runsTotal.WithLabelValues("failed").Inc()
		logger.ErrorContext(ctx, "pipeline run failed",
			slog.String("error", err.Error()),
			slog.Duration("duration", time.Since(start)))
		if s.events != nil {
			s.events.BroadcastRunFailed(runID, err.Error())
		}
		return domain.ReconciliationResult{}, err
	}

	s.mu.Lock()
	s.latest = &result
	s.mu.Unlock()

	runsTotal.WithLabelValues("completed").Inc()
	recordsByGroup.WithLabelValues("buying").Set(float64(len(result.Buying)))
	recordsByGroup.WithLabelValues("selling").Set(float64(len(result.Selling)))
	recordsByGroup.WithLabelValues("no_flow_data").Set(float64(len(result.NoFlowData)))
	flowLookbackDays.Set(float64(lookbackDays(refDate, result.FlowDate)))

	logger.InfoContext(ctx, "pipeline run completed",
		slog.Int("buying", len(result.Buying)),
		slog.Int("selling", len(result.Selling)),
		slog.Int("no_flow_data", len(result.NoFlowData)),
		slog.String("flow_date", result.FlowDate),
		slog.Duration("duration", time.Since(start)))

	if s.events != nil {
		s.events.BroadcastRunComplete(runID, len(result.Buying), len(result.Selling), len(result.NoFlowData))
	}

	return result, nil
}

func (s *DashboardService) run(ctx context.Context, logger *slog.Logger, runID string, refDate time.Time) (domain.ReconciliationResult, error) {
	var (
		primary, secondary      []domain.DeclinerRecord
		fiveDayDate, tenDayDate string
		flows                   map[string]domain.FlowRecord
		flowDate                string
	)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		markup, err := s.pages.FetchPage(gctx, s.cfg.Sources.FiveDayURL)
		if err != nil {
			return errors.NewNetworkError("fetch 5-day ranking", err).
				WithContext("horizon", domain.HorizonFiveDay)
		}
		primary, fiveDayDate = s.extractor.Extract(markup)
		return nil
	})

	g.Go(func() error {
		markup, err := s.pages.FetchPage(gctx, s.cfg.Sources.TenDayURL)
		if err != nil {
			// Secondary horizon is enrichment only
			logger.WarnContext(gctx, "10-day ranking unavailable",
				slog.String("horizon", string(domain.HorizonTenDay)),
				slog.String("error", err.Error()))
			return nil
		}
		secondary, tenDayDate = s.extractor.Extract(markup)
		return nil
	})

	g.Go(func() error {
		flows, flowDate = s.flowBuilder.Build(gctx, s.flowFetcher, refDate)
		return nil
	})

	if err := g.Wait(); err != nil {
		return domain.ReconciliationResult{}, err
	}

	if len(primary) == 0 {
		return domain.ReconciliationResult{}, errors.NewSourceError(
			"5-day ranking page yielded no records", nil)
	}

	if flowDate == "" {
		logger.WarnContext(ctx, "flow walk exhausted, all ranked records will lack flow data",
			slog.String("ref_date", refDate.Format("2006-01-02")))
	}

	result := s.reconciler.Reconcile(primary, secondary, flows, reconcile.Dates{
		FiveDay: fiveDayDate,
		TenDay:  tenDayDate,
		Flow:    flowDate,
	})
	result.RunID = runID

	return result, nil
}

// lookbackDays recovers how far back the flow walk landed from the MM/DD
// date it reports. Returns -1 when the walk was exhausted.
func lookbackDays(refDate time.Time, flowDate string) int {
	if flowDate == "" {
		return -1
	}
	for i := 0; i <= flow.DefaultMaxLookback; i++ {
		if refDate.AddDate(0, 0, -i).Format("01/02") == flowDate {
			return i
		}
	}
	return -1
}

// Export writes the result through every exporter the output config enables.
// The HTML dashboard is always written; CSV and Excel are opt-in.
func (s *DashboardService) Export(result domain.ReconciliationResult, out config.OutputConfig) error {
	htmlPath := filepath.Join(out.Dir, out.HTMLFile)
	if err := exporter.NewHTMLRenderer(s.logger).RenderToFile(result, htmlPath); err != nil {
		return errors.NewExportError("write dashboard", err)
	}

	if out.WriteCSV {
		if err := exporter.NewCSVWriter(s.logger).ExportResult(result, out.Dir); err != nil {
			return errors.NewExportError("write csv", err)
		}
	}

	if out.WriteExcel {
		xlsxPath := filepath.Join(out.Dir, "result.xlsx")
		if err := exporter.NewExcelWriter(s.logger).ExportResult(result, xlsxPath); err != nil {
			return errors.NewExportError("write excel", err)
		}
	}

	return nil
}
