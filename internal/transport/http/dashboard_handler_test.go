package http

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"twdash/internal/config"
	"twdash/internal/websocket"
	"twdash/pkg/contracts/domain"
)

// fakeService implements DashboardService for handler tests.
type fakeService struct {
	mu      sync.Mutex
	latest  *domain.ReconciliationResult
	running bool

	runCalls    int
	exportCalls int
	runErr      error
}

func (f *fakeService) Latest() (domain.ReconciliationResult, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.latest == nil {
		return domain.ReconciliationResult{}, false
	}
	return *f.latest, true
}

func (f *fakeService) Running() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.running
}

func (f *fakeService) Run(_ context.Context, _ time.Time) (domain.ReconciliationResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runCalls++
	if f.runErr != nil {
		return domain.ReconciliationResult{}, f.runErr
	}
	return *f.latest, nil
}

func (f *fakeService) Export(_ domain.ReconciliationResult, _ config.OutputConfig) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.exportCalls++
	return nil
}

func (f *fakeService) calls() (runs, exports int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.runCalls, f.exportCalls
}

func sampleResult() *domain.ReconciliationResult {
	flowRec := domain.NewFlowRecord("2330", "台積電", 5000000, 1000000, 4000000)
	return &domain.ReconciliationResult{
		RunID: "run-abc",
		Buying: []domain.MergedRecord{{
			Rank:  1,
			Code:  "2330",
			Name:  "台積電",
			Close: decimal.RequireFromString("580.5"),
			Flow:  &flowRec,
		}},
		FiveDayDate: "02/05",
		TenDayDate:  "02/05",
		FlowDate:    "02/05",
	}
}

func testServer(svc DashboardService) *Server {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	cfg := config.ServerConfig{
		Port:         8080,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
	}
	return NewServer(cfg, svc, websocket.NewHub(logger), config.OutputConfig{Dir: "/tmp", HTMLFile: "dashboard.html"}, logger)
}

func TestGetResult(t *testing.T) {
	t.Run("returns latest result", func(t *testing.T) {
		srv := testServer(&fakeService{latest: sampleResult()})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		var result domain.ReconciliationResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "run-abc", result.RunID)
		require.Len(t, result.Buying, 1)
		assert.Equal(t, "2330", result.Buying[0].Code)
	})

	t.Run("404 before first run", func(t *testing.T) {
		srv := testServer(&fakeService{})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/result", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Contains(t, rec.Body.String(), "RESULT_NOT_FOUND")
	})
}

func TestIndex(t *testing.T) {
	t.Run("renders dashboard", func(t *testing.T) {
		srv := testServer(&fakeService{latest: sampleResult()})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Contains(t, rec.Header().Get("Content-Type"), "text/html")
		assert.Contains(t, rec.Body.String(), "台積電")
	})

	t.Run("404 before first run", func(t *testing.T) {
		srv := testServer(&fakeService{})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestRefresh(t *testing.T) {
	t.Run("accepts and runs in background", func(t *testing.T) {
		svc := &fakeService{latest: sampleResult()}
		srv := testServer(svc)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), "accepted")

		require.Eventually(t, func() bool {
			runs, exports := svc.calls()
			return runs == 1 && exports == 1
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("honors date parameter", func(t *testing.T) {
		svc := &fakeService{latest: sampleResult()}
		srv := testServer(svc)

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh?date=2026-02-05", nil))

		require.Equal(t, http.StatusAccepted, rec.Code)
		assert.Contains(t, rec.Body.String(), "2026-02-05")
	})

	t.Run("rejects malformed date", func(t *testing.T) {
		srv := testServer(&fakeService{})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh?date=05/02/2026", nil))

		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("409 while a run is in flight", func(t *testing.T) {
		srv := testServer(&fakeService{running: true})

		rec := httptest.NewRecorder()
		srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/refresh", nil))

		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Contains(t, rec.Body.String(), "RUN_IN_PROGRESS")
	})
}

func TestHealth(t *testing.T) {
	srv := testServer(&fakeService{latest: sampleResult()})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var status map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &status))
	assert.Equal(t, "ok", status["status"])
	assert.Equal(t, "run-abc", status["last_run_id"])
}

func TestVersion(t *testing.T) {
	srv := testServer(&fakeService{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/version", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "0.3.0")
}

func TestMetricsEndpoint(t *testing.T) {
	srv := testServer(&fakeService{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestRequestIDPropagated(t *testing.T) {
	srv := testServer(&fakeService{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}
