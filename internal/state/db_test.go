package state

import (
	"bytes"
	"context"
	"os"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/types"
)

func TestDBConfig_DSN(t *testing.T) {
	cfg := DBConfig{Host: "localhost", Port: 5432, User: "u", Password: "p", DBName: "strategy", SSLMode: "disable"}
	assert.Equal(t, "host=localhost port=5432 user=u password=p dbname=strategy sslmode=disable", cfg.DSN())
}

func TestNotInitialized(t *testing.T) {
	saved := DB
	DB = nil
	t.Cleanup(func() { DB = saved })

	ctx := context.Background()
	s := NewStore("")
	assert.Equal(t, "default", s.ConfigName)

	_, err := s.NextHarvestNumber(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.SaveReport(ctx, types.HarvestReport{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.RecentReports(ctx, 5)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.ReportByID(ctx, 1)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.Summary(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, _, err = s.ActiveParameters(ctx)
	assert.ErrorIs(t, err, ErrNotInitialized)
	_, err = s.SaveParameters(ctx, types.StrategyParameters{})
	assert.ErrorIs(t, err, ErrNotInitialized)
	assert.ErrorIs(t, EnsureSchema(ctx), ErrNotInitialized)
	assert.ErrorIs(t, DropSchema(ctx), ErrNotInitialized)
	assert.ErrorIs(t, ResetHarvestNumber(ctx, 0), ErrNotInitialized)
	assert.ErrorIs(t, TestDBConnection(), ErrNotInitialized)
}

func TestEmptySummary(t *testing.T) {
	s := EmptySummary()
	assert.Zero(t, s.TotalReports)
	assert.Equal(t, "0", s.TotalProfit.String())
	assert.Nil(t, s.LastReportAt)
}

// openTestDB connects to the database named by STRATEGY_TEST_DB_DSN and recreates the schema.
func openTestDB(t *testing.T) {
	t.Helper()
	dsn := os.Getenv("STRATEGY_TEST_DB_DSN")
	if dsn == "" {
		t.Skip("STRATEGY_TEST_DB_DSN not set")
	}
	require.NoError(t, Open(dsn))
	ctx := context.Background()
	require.NoError(t, DropSchema(ctx))
	require.NoError(t, EnsureSchema(ctx))
	t.Cleanup(CloseDB)
}

func sampleReport(number int, profit int64, success bool) types.HarvestReport {
	stats := types.NewHarvestStats()
	stats.RewardsClaimed = sdkmath.NewInt(100)
	stats.SwapsExecuted = 2
	r := types.HarvestReport{
		HarvestNumber:      number,
		CycleID:            "cycle-1",
		Timestamp:          time.Now().UTC().Truncate(time.Millisecond),
		Policy:             types.PolicyDebtDelta,
		TriggerReason:      types.TriggerProfit,
		DebtOutstanding:    sdkmath.ZeroInt(),
		Result:             types.ReturnResult{Profit: sdkmath.NewInt(profit), Loss: sdkmath.ZeroInt(), DebtPayment: sdkmath.NewInt(5)},
		NewDebtOutstanding: sdkmath.ZeroInt(),
		PositionBefore:     types.StrategyPosition{Idle: sdkmath.ZeroInt(), Staked: sdkmath.NewInt(1000)},
		PositionAfter:      types.StrategyPosition{Idle: sdkmath.ZeroInt(), Staked: sdkmath.NewInt(1000 + profit)},
		Stats:              stats,
		Success:            success,
		Duration:           1500 * time.Millisecond,
	}
	if !success {
		r.ErrorMessage = "report failed"
	}
	return r
}

func TestReports_Postgres(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()
	s := NewStore("test")

	first, err := s.NextHarvestNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, first)

	id, err := s.SaveReport(ctx, sampleReport(first, 37, true))
	require.NoError(t, err)
	_, err = s.SaveReport(ctx, sampleReport(2, 500, false))
	require.NoError(t, err)

	got, err := s.ReportByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "37", got.Result.Profit.String())
	assert.Equal(t, "1037", got.PositionAfter.Staked.String())
	assert.Equal(t, 2, got.Stats.SwapsExecuted)
	assert.Equal(t, "100", got.Stats.RewardsClaimed.String())
	assert.Equal(t, types.TriggerProfit, got.TriggerReason)
	assert.Equal(t, 1500*time.Millisecond, got.Duration)

	_, err = s.ReportByID(ctx, id+100)
	assert.ErrorIs(t, err, ErrReportNotFound)

	recent, err := s.RecentReports(ctx, 0)
	require.NoError(t, err)
	require.Len(t, recent, 2)
	assert.False(t, recent[0].Success)
	assert.Equal(t, "report failed", recent[0].ErrorMessage)

	sum, err := s.Summary(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, sum.TotalReports)
	assert.Equal(t, 1, sum.FailedReports)
	assert.Equal(t, "37", sum.TotalProfit.String(), "failed reports are not counted")
	assert.Equal(t, "5", sum.TotalDebtPayment.String())
	require.NotNil(t, sum.LastReportAt)

	require.NoError(t, ResetHarvestNumber(ctx, 10))
	next, err := s.NextHarvestNumber(ctx)
	require.NoError(t, err)
	assert.Equal(t, 11, next)
}

func TestParameters_Postgres(t *testing.T) {
	openTestDB(t)
	ctx := context.Background()
	s := NewStore("test")

	_, _, err := s.ActiveParameters(ctx)
	assert.ErrorIs(t, err, ErrNoParameters)

	p := types.StrategyParameters{
		Slippage: types.SlippageConfig{MaxSlippageInBps: 50, MaxSlippageOutBps: 75},
		Dust:     types.DustThresholds{PositionDust: sdkmath.NewInt(10), RewardDust: sdkmath.NewInt(20)},
		Harvest:  types.HarvestState{MinProfit: sdkmath.NewInt(1000), MaxReportDelay: 6 * time.Hour},
		SkimBps:  250,
	}
	v1, err := s.SaveParameters(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 1, v1)

	p.Slippage.MaxSlippageOutBps = 120
	v2, err := s.SaveParameters(ctx, p)
	require.NoError(t, err)
	assert.Equal(t, 2, v2)

	got, version, err := s.ActiveParameters(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)
	assert.Equal(t, uint64(120), got.Slippage.MaxSlippageOutBps)
	assert.Equal(t, "20", got.Dust.RewardDust.String())
	assert.Equal(t, 6*time.Hour, got.Harvest.MaxReportDelay)
	assert.Equal(t, uint64(250), got.SkimBps)

	_, _, err = NewStore("other").ActiveParameters(ctx)
	assert.ErrorIs(t, err, ErrNoParameters)
}

func TestStoreLog_TagsComponent(t *testing.T) {
	var buf bytes.Buffer
	saved := logger.Logger
	logger.Logger = zerolog.New(&buf)
	t.Cleanup(func() { logger.Logger = saved })

	l := storeLog()
	require.NotNil(t, l)
	l.Info().Msg("hello")
	assert.Contains(t, buf.String(), `"component":"state_store"`)
}
