package strategy

import (
	"context"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/simulations"
	"github.com/elys-network/lpstrategy/internal/types"
)

func TestNew_Defaults(t *testing.T) {
	f := newFixture(t)
	assert.Equal(t, types.PolicyDebtDelta, f.s.Policy())
	assert.Equal(t, types.DebtPaymentFirst, f.s.Truncation())
	assert.Equal(t, strategyAddr, f.s.Address())
	assert.Equal(t, simulations.WantToken, f.s.Want())
	assert.False(t, f.s.EmergencyExit())
	assert.False(t, f.s.AbandonRewards())

	bal := newFixture(t, withPolicy(types.PolicyBalanceDelta, ""))
	assert.Equal(t, types.ProfitFirst, bal.s.Truncation())
}

func TestNew_ConfigurationErrors(t *testing.T) {
	other := common.HexToAddress("0x0000000000000000000000000000000000009999")

	tests := []struct {
		name   string
		mutate func(*Config, *simulations.Market)
		is     error
	}{
		{
			name:   "staking token differs from want",
			mutate: func(_ *Config, m *simulations.Market) { m.SetStakingToken(other) },
		},
		{
			name: "reward route ends at the wrong token",
			mutate: func(c *Config, _ *simulations.Market) {
				c.RewardRoute = types.Route{{From: simulations.RewardToken, To: simulations.USDCToken}}
			},
			is: types.ErrRouteEndpoints,
		},
		{
			name: "reward route is discontinuous",
			mutate: func(c *Config, _ *simulations.Market) {
				c.RewardRoute = types.Route{
					{From: simulations.RewardToken, To: simulations.USDCToken},
					{From: simulations.WantToken, To: simulations.WETHToken},
				}
			},
			is: types.ErrRouteDiscontinuous,
		},
		{
			name: "token A route missing",
			mutate: func(c *Config, _ *simulations.Market) {
				c.RouteA = nil
			},
			is: types.ErrEmptyRoute,
		},
		{
			name: "route given for the intermediate leg",
			mutate: func(c *Config, _ *simulations.Market) {
				c.RouteB = types.Route{{From: simulations.WETHToken, To: simulations.WETHToken}}
			},
		},
		{
			name:   "skim without recipient",
			mutate: func(c *Config, _ *simulations.Market) { c.Params.SkimBps = 100; c.SkimRecipient = common.Address{} },
		},
		{
			name:   "slippage above 100%",
			mutate: func(c *Config, _ *simulations.Market) { c.Params.Slippage.MaxSlippageOutBps = 10_001 },
			is:     ErrInvalidParameter,
		},
		{
			name:   "unknown policy",
			mutate: func(c *Config, _ *simulations.Market) { c.Policy = "yolo" },
		},
		{
			name:   "missing swap deadline",
			mutate: func(c *Config, _ *simulations.Market) { c.SwapDeadline = 0 },
		},
		{
			name:   "missing collaborator",
			mutate: func(c *Config, _ *simulations.Market) { c.Router = nil },
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			m := simulations.NewMarket(strategyAddr, 10_000)
			cfg := baseConfig(m)
			tc.mutate(&cfg, m)
			_, err := New(context.Background(), cfg)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrConfiguration)
			if tc.is != nil {
				assert.ErrorIs(t, err, tc.is)
			}
		})
	}
}

func TestNew_IntermediateAsTokenA(t *testing.T) {
	f := newFixture(t, func(c *Config) {
		c.Intermediate = simulations.USDCToken
		c.RewardRoute = types.Route{{From: simulations.RewardToken, To: simulations.USDCToken}}
		c.RouteA = nil
		c.RouteB = types.Route{{From: simulations.USDCToken, To: simulations.WETHToken}}
	})
	f.m.Mint(simulations.RewardToken, strategyAddr, n(100))

	require.NoError(t, f.s.SellRewards(f.ctx))
	require.NoError(t, f.s.ConvertToPoolAssets(f.ctx))

	// 100 reward -> 100 USDC; 50 USDC stays, 50 USDC -> 25 WETH; LP = 25 + 12.5
	assertInt(t, 37, f.idle())
	assert.Equal(t, 2, f.m.Calls(simulations.OpSwap))
}

func TestStatus(t *testing.T) {
	f := newFixture(t)
	f.seed(100, 900, 1000)

	st, err := f.s.Status(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, strategyAddr, st.Address)
	assertInt(t, 1000, st.TotalAssets)
	assertInt(t, 1000, st.Debt.TotalDebt)
	assertInt(t, 0, st.DebtOutstanding)
	assert.False(t, st.HarvestDue)
	assert.Equal(t, types.TriggerNone, st.TriggerReason)
}
