package web

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/state"
	"github.com/elys-network/lpstrategy/internal/strategy"
	"github.com/elys-network/lpstrategy/internal/types"
)

type stubStrategy struct {
	status strategy.Status
	err    error
}

func (s stubStrategy) Status(context.Context) (strategy.Status, error) { return s.status, s.err }

func (s stubStrategy) Parameters() types.StrategyParameters {
	return types.StrategyParameters{
		Slippage: types.SlippageConfig{MaxSlippageInBps: 100, MaxSlippageOutBps: 150},
		Dust:     types.DustThresholds{PositionDust: sdkmath.NewInt(10), RewardDust: sdkmath.NewInt(10)},
		Harvest:  types.HarvestState{MinProfit: sdkmath.NewInt(1000), MaxReportDelay: time.Hour},
	}
}

type stubReports struct {
	reports []types.HarvestReport
	err     error
}

func (s stubReports) RecentReports(_ context.Context, limit int) ([]types.HarvestReport, error) {
	if s.err != nil {
		return nil, s.err
	}
	if limit < len(s.reports) {
		return s.reports[:limit], nil
	}
	return s.reports, nil
}

func (s stubReports) ReportByID(_ context.Context, id int64) (types.HarvestReport, error) {
	for _, r := range s.reports {
		if r.ReportID == id {
			return r, nil
		}
	}
	return types.HarvestReport{}, state.ErrReportNotFound
}

func (s stubReports) Summary(context.Context) (types.ReportSummary, error) {
	sum := state.EmptySummary()
	for _, r := range s.reports {
		sum.TotalReports++
		sum.TotalProfit = sum.TotalProfit.Add(r.Result.Profit)
	}
	return sum, s.err
}

func okStatus() strategy.Status {
	return strategy.Status{
		Policy:          types.PolicyDebtDelta,
		Position:        types.StrategyPosition{Idle: sdkmath.NewInt(5), Staked: sdkmath.NewInt(1000)},
		TotalAssets:     sdkmath.NewInt(1005),
		DebtOutstanding: sdkmath.ZeroInt(),
		Debt:            types.DebtRecord{TotalDebt: sdkmath.NewInt(1000)},
		HarvestDue:      true,
		TriggerReason:   types.TriggerProfit,
	}
}

func report(id int64, profit int64) types.HarvestReport {
	return types.HarvestReport{
		ReportID:      id,
		HarvestNumber: int(id),
		Policy:        types.PolicyDebtDelta,
		Result:        types.ReturnResult{Profit: sdkmath.NewInt(profit), Loss: sdkmath.ZeroInt(), DebtPayment: sdkmath.ZeroInt()},
		Success:       true,
	}
}

func serve(t *testing.T, ws *WebServer, path string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	var body map[string]any
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	}
	return rec, body
}

func TestHealth(t *testing.T) {
	reports := stubReports{}

	ws := NewWebServer("", stubStrategy{status: okStatus()}, reports, func() error { return nil })
	rec, body := serve(t, ws, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OK", body["status"])
	assert.Equal(t, "healthy", body["database"])
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))

	ws = NewWebServer("", stubStrategy{status: okStatus()}, nil, nil)
	rec, body = serve(t, ws, "/api/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "not_configured", body["database"])

	ws = NewWebServer("", stubStrategy{status: okStatus()}, reports, func() error { return errors.New("down") })
	rec, body = serve(t, ws, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, "DEGRADED", body["status"])

	ws = NewWebServer("", stubStrategy{err: errors.New("rpc")}, nil, nil)
	rec, body = serve(t, ws, "/health")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Equal(t, false, body["strategy"].(map[string]any)["reachable"])
}

func TestStrategyAndParameters(t *testing.T) {
	ws := NewWebServer("", stubStrategy{status: okStatus()}, nil, nil)

	rec, body := serve(t, ws, "/api/strategy")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "1005", body["total_assets"])
	assert.Equal(t, "min_profit", body["trigger_reason"])
	assert.Equal(t, true, body["harvest_due"])

	rec, body = serve(t, ws, "/api/parameters")
	require.Equal(t, http.StatusOK, rec.Code)
	params := body["parameters"].(map[string]any)
	assert.Equal(t, float64(150), params["slippage"].(map[string]any)["max_slippage_out_bps"])

	ws = NewWebServer("", stubStrategy{err: errors.New("rpc")}, nil, nil)
	rec, _ = serve(t, ws, "/api/strategy")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestReports(t *testing.T) {
	reports := stubReports{reports: []types.HarvestReport{report(2, 50), report(1, 37)}}
	ws := NewWebServer("", stubStrategy{status: okStatus()}, reports, nil)

	rec, body := serve(t, ws, "/api/reports?limit=1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])
	assert.Equal(t, float64(1), body["limit"])

	_, body = serve(t, ws, "/api/reports?limit=500")
	assert.Equal(t, float64(20), body["limit"], "out of range limit falls back to default")

	rec, body = serve(t, ws, "/api/reports/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["report_id"])

	rec, body = serve(t, ws, "/api/reports/1")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "37", body["result"].(map[string]any)["profit"])

	rec, _ = serve(t, ws, "/api/reports/9")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, body = serve(t, ws, "/api/reports/summary")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["total_reports"])
	assert.Equal(t, "87", body["total_profit"])
}

func TestReports_Errors(t *testing.T) {
	ws := NewWebServer("", stubStrategy{status: okStatus()}, nil, nil)
	for _, path := range []string{"/api/reports", "/api/reports/latest", "/api/reports/1", "/api/reports/summary"} {
		rec, body := serve(t, ws, path)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code, path)
		assert.Equal(t, true, body["error"], path)
	}

	ws = NewWebServer("", stubStrategy{status: okStatus()}, stubReports{}, nil)
	rec, _ := serve(t, ws, "/api/reports/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	ws = NewWebServer("", stubStrategy{status: okStatus()}, stubReports{err: errors.New("db")}, nil)
	rec, _ = serve(t, ws, "/api/reports")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	rec, _ = serve(t, ws, "/api/reports/summary")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	rec, _ = serve(t, ws, "/api/reports/abc")
	assert.Equal(t, http.StatusNotFound, rec.Code, "non-numeric ids do not match the route")
}

func TestMetricsEndpoint(t *testing.T) {
	ws := NewWebServer("", stubStrategy{status: okStatus()}, nil, nil)
	rec := httptest.NewRecorder()
	ws.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "go_goroutines")
}

func TestWebLog_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	saved := logger.Logger
	logger.Logger = zerolog.New(&buf)
	t.Cleanup(func() { logger.Logger = saved })

	l := webLog()
	require.NotNil(t, l)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"web_server"`)
}
