package config

import (
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/types"
)

const (
	strategyHex = "0x000000000000000000000000000000000000bEEF"
	govHex      = "0x00000000000000000000000000000000000000aa"
	otherHex    = "0x00000000000000000000000000000000000000bb"
)

func setRequired(t *testing.T) {
	t.Helper()
	t.Setenv("STRATEGY_MODE", ModeSimulation)
	t.Setenv("STRATEGY_ADDRESS", strategyHex)
}

func TestLoadConfig_Defaults(t *testing.T) {
	setRequired(t)
	require.NoError(t, LoadConfig())

	assert.Equal(t, ModeSimulation, StrategyMode)
	assert.Equal(t, "default", ConfigName)
	assert.Equal(t, common.HexToAddress(strategyHex), StrategyAddress)
	assert.Empty(t, Governance)
	assert.Equal(t, types.PolicyDebtDelta, HarvestPolicy)
	assert.Equal(t, types.TruncationPriority(""), TruncationPriority)
	assert.Equal(t, 10*time.Minute, KeeperInterval)
	assert.Equal(t, "8080", WebPort)
	assert.Equal(t, uint64(10_000), SimDebtRatioBps)
	assert.Equal(t, 18, WantToken.Decimals)
	assert.Empty(t, RouterRPCURL)
	assert.False(t, DBEnabled)
	assert.Nil(t, RewardRoute)
}

func TestLoadConfig_Overrides(t *testing.T) {
	setRequired(t)
	t.Setenv("GOVERNANCE_ADDRESSES", govHex+", "+otherHex)
	t.Setenv("HARVEST_POLICY", "balance_delta")
	t.Setenv("TRUNCATION_PRIORITY", "debt_payment_first")
	t.Setenv("KEEPER_INTERVAL", "30s")
	t.Setenv("ABANDON_REWARDS", "true")
	t.Setenv("WANT_DECIMALS", "6")
	t.Setenv("DB_NAME", "strategy")
	t.Setenv("DB_USER", "keeper")
	t.Setenv("DB_PORT", "6543")
	t.Setenv("ROUTER_RPC_URL", "http://localhost:8545")
	t.Setenv("ROUTER_ADDRESS", otherHex)
	t.Setenv("LIVE_REWARD_TOKEN", govHex)
	t.Setenv("LIVE_REFERENCE_TOKEN", otherHex)
	t.Setenv("REWARD_ROUTE", govHex+">"+otherHex+":stable")
	require.NoError(t, LoadConfig())

	assert.Equal(t, []common.Address{common.HexToAddress(govHex), common.HexToAddress(otherHex)}, Governance)
	assert.Equal(t, types.PolicyBalanceDelta, HarvestPolicy)
	assert.Equal(t, types.DebtPaymentFirst, TruncationPriority)
	assert.Equal(t, 30*time.Second, KeeperInterval)
	assert.True(t, AbandonRewards)
	assert.Equal(t, 6, WantToken.Decimals)
	assert.True(t, DBEnabled)
	assert.Equal(t, 6543, Database.Port)
	assert.Equal(t, "disable", Database.SSLMode)
	assert.Equal(t, common.HexToAddress(otherHex), RouterAddress)
	require.Len(t, RewardRoute, 1)
	assert.True(t, RewardRoute[0].Stable)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad strategy address", map[string]string{"STRATEGY_ADDRESS": "beef"}},
		{"bad governance", map[string]string{"GOVERNANCE_ADDRESSES": govHex + ",nope"}},
		{"unknown policy", map[string]string{"HARVEST_POLICY": "yolo"}},
		{"unknown truncation", map[string]string{"TRUNCATION_PRIORITY": "loss_first"}},
		{"bad interval", map[string]string{"KEEPER_INTERVAL": "soon"}},
		{"zero interval", map[string]string{"KEEPER_INTERVAL": "0s"}},
		{"bad bool", map[string]string{"ABANDON_REWARDS": "maybe"}},
		{"debt ratio above 100%", map[string]string{"SIM_DEBT_RATIO_BPS": "10001"}},
		{"decimals out of range", map[string]string{"WANT_DECIMALS": "19"}},
		{"router without address", map[string]string{"ROUTER_RPC_URL": "http://localhost:8545"}},
		{"db without user", map[string]string{"DB_NAME": "strategy"}},
		{"bad db port", map[string]string{"DB_PORT": "x"}},
		{"bad route", map[string]string{"ROUTE_A": govHex + "-" + otherHex}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setRequired(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			assert.Error(t, LoadConfig())
		})
	}

	t.Run("missing mode", func(t *testing.T) {
		t.Setenv("STRATEGY_ADDRESS", strategyHex)
		t.Setenv("STRATEGY_MODE", "")
		require.NoError(t, os.Unsetenv("STRATEGY_MODE"))
		assert.ErrorContains(t, LoadConfig(), "STRATEGY_MODE")
	})
}

func TestParseRoute(t *testing.T) {
	a, b, c := common.HexToAddress(govHex), common.HexToAddress(otherHex), common.HexToAddress(strategyHex)

	route, err := ParseRoute(govHex + ">" + otherHex + "," + otherHex + ">" + strategyHex + ":volatile")
	require.NoError(t, err)
	assert.Equal(t, types.Route{{From: a, To: b}, {From: b, To: c}}, route)

	route, err = ParseRoute(" " + govHex + " > " + otherHex + " : STABLE ")
	require.NoError(t, err)
	assert.Equal(t, types.Route{{From: a, To: b, Stable: true}}, route)

	for _, bad := range []string{
		govHex,
		govHex + ">" + otherHex + ":curve",
		govHex + ">0x12",
		govHex + ">" + otherHex + ",",
	} {
		_, err := ParseRoute(bad)
		assert.Error(t, err, bad)
	}
}

func TestDefaultStrategyParameters(t *testing.T) {
	p, err := DefaultStrategyParameters(18, 18, 6)
	require.NoError(t, err)
	assert.Equal(t, DefaultMaxSlippageInBps, p.Slippage.MaxSlippageInBps)
	assert.Equal(t, DefaultMaxSlippageOutBps, p.Slippage.MaxSlippageOutBps)
	assert.Equal(t, "1000000000000", p.Dust.PositionDust.String())
	assert.Equal(t, "10000000000000000", p.Dust.RewardDust.String())
	assert.Equal(t, "100000000", p.Harvest.MinProfit.String())
	assert.Equal(t, DefaultMaxReportDelay, p.Harvest.MaxReportDelay)
	assert.False(t, p.Harvest.ForceHarvest)

	_, err = DefaultStrategyParameters(19, 18, 6)
	assert.Error(t, err)
}
