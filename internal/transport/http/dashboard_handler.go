// Package http exposes the dashboard over a small JSON/HTML surface: the
// rendered dashboard page, the raw reconciliation result, a refresh trigger
// and the usual operational endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"twdash/internal/config"
	apierrors "twdash/internal/errors"
	"twdash/internal/exporter"
	"twdash/internal/websocket"
	"twdash/pkg/contracts"
	"twdash/pkg/contracts/domain"
)

// DashboardService is the slice of the pipeline service the handlers need.
type DashboardService interface {
	Latest() (domain.ReconciliationResult, bool)
	Running() bool
	Run(ctx context.Context, refDate time.Time) (domain.ReconciliationResult, error)
	Export(result domain.ReconciliationResult, out config.OutputConfig) error
}

// DashboardHandler serves the dashboard page and its API.
type DashboardHandler struct {
	service  DashboardService
	hub      *websocket.Hub
	renderer *exporter.HTMLRenderer
	output   config.OutputConfig
	logger   *slog.Logger
}

// NewDashboardHandler creates a dashboard handler.
func NewDashboardHandler(service DashboardService, hub *websocket.Hub, output config.OutputConfig, logger *slog.Logger) *DashboardHandler {
	return &DashboardHandler{
		service:  service,
		hub:      hub,
		renderer: exporter.NewHTMLRenderer(logger),
		output:   output,
		logger:   logger.With(slog.String("component", "dashboard_handler")),
	}
}

// Routes returns the API routes.
func (h *DashboardHandler) Routes() chi.Router {
	r := chi.NewRouter()
	r.Use(render.SetContentType(render.ContentTypeJSON))

	r.Get("/result", h.GetResult)
	r.Post("/refresh", h.Refresh)
	r.Get("/version", h.Version)

	return r
}

// Index handles GET / by rendering the latest result as the dashboard page.
func (h *DashboardHandler) Index(w http.ResponseWriter, r *http.Request) {
	result, ok := h.service.Latest()
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrResultNotFound)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := h.renderer.Render(w, result); err != nil {
		h.logger.ErrorContext(r.Context(), "dashboard render failed",
			slog.String("error", err.Error()))
	}
}

// GetResult handles GET /api/result.
func (h *DashboardHandler) GetResult(w http.ResponseWriter, r *http.Request) {
	result, ok := h.service.Latest()
	if !ok {
		apierrors.WriteError(w, r, apierrors.ErrResultNotFound)
		return
	}
	render.JSON(w, r, result)
}

// Refresh handles POST /api/refresh. The run executes in the background;
// clients watch the websocket feed or poll /api/result for the outcome.
// An optional date=YYYY-MM-DD query parameter anchors the run.
func (h *DashboardHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	refDate := time.Now()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := time.Parse("2006-01-02", raw)
		if err != nil {
			apierrors.WriteError(w, r, apierrors.NewValidationError(
				"date must be YYYY-MM-DD", map[string]string{"date": raw}))
			return
		}
		refDate = parsed
	}

	if h.service.Running() {
		apierrors.WriteError(w, r, apierrors.ErrRunInProgress)
		return
	}

	go h.runAndExport(refDate)

	render.Status(r, http.StatusAccepted)
	render.JSON(w, r, map[string]string{
		"status":   "accepted",
		"ref_date": refDate.Format("2006-01-02"),
	})
}

func (h *DashboardHandler) runAndExport(refDate time.Time) {
	ctx := context.Background()
	result, err := h.service.Run(ctx, refDate)
	if err != nil {
		h.logger.Error("background run failed", slog.String("error", err.Error()))
		return
	}
	if err := h.service.Export(result, h.output); err != nil {
		h.logger.Error("background export failed", slog.String("error", err.Error()))
	}
}

// Version handles GET /api/version.
func (h *DashboardHandler) Version(w http.ResponseWriter, r *http.Request) {
	render.JSON(w, r, contracts.GetVersionInfo())
}

// Health handles GET /healthz.
func (h *DashboardHandler) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]interface{}{
		"status":  "ok",
		"version": contracts.Version,
		"running": h.service.Running(),
	}
	if result, ok := h.service.Latest(); ok {
		status["last_run_id"] = result.RunID
		status["records"] = result.Total()
	}
	render.JSON(w, r, status)
}

// WebSocket handles GET /ws.
func (h *DashboardHandler) WebSocket(w http.ResponseWriter, r *http.Request) {
	if err := websocket.ServeWS(h.hub, w, r, h.logger); err != nil {
		h.logger.ErrorContext(r.Context(), "websocket upgrade failed",
			slog.String("error", err.Error()))
	}
}
