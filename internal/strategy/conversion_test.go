package strategy

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/simulations"
)

func TestSellRewards_DustBoundary(t *testing.T) {
	f := newFixture(t)

	f.m.Mint(simulations.RewardToken, strategyAddr, n(9)) // rewardDust - 1
	require.NoError(t, f.s.SellRewards(f.ctx))
	assert.Equal(t, 0, f.m.Calls(simulations.OpSwap))

	f.m.Mint(simulations.RewardToken, strategyAddr, n(1)) // == rewardDust
	require.NoError(t, f.s.SellRewards(f.ctx))
	assert.Equal(t, 0, f.m.Calls(simulations.OpSwap), "strictly greater than dust is required")

	f.m.Mint(simulations.RewardToken, strategyAddr, n(1))
	require.NoError(t, f.s.SellRewards(f.ctx))
	assert.Equal(t, 1, f.m.Calls(simulations.OpSwap))
	assertInt(t, 0, f.m.Balance(simulations.RewardToken, strategyAddr))
	assertInt(t, 5, f.m.Balance(simulations.WETHToken, strategyAddr)) // 11 * 0.5
}

func TestConvertToPoolAssets_SplitAndCompose(t *testing.T) {
	f := newFixture(t)
	f.m.Mint(simulations.WETHToken, strategyAddr, n(51))

	require.NoError(t, f.s.ConvertToPoolAssets(f.ctx))

	// 25 WETH -> 50 USDC, the odd unit stays on the WETH side: 26 WETH
	assert.Equal(t, 1, f.m.Calls(simulations.OpSwap), "WETH leg needs no swap")
	assert.Equal(t, 1, f.m.Calls(simulations.OpAddLiquidity))
	assertInt(t, 38, f.idle()) // 50*0.5 + 26*0.5
	assertInt(t, 0, f.m.Balance(simulations.WETHToken, strategyAddr))
	assertInt(t, 0, f.m.Balance(simulations.USDCToken, strategyAddr))
}

func TestConvertToPoolAssets_NoOps(t *testing.T) {
	f := newFixture(t)

	require.NoError(t, f.s.ConvertToPoolAssets(f.ctx))
	assert.Equal(t, 0, f.m.Calls(simulations.OpSwap))

	// a single unit cannot be split: the USDC half is zero so no liquidity is added
	f.m.Mint(simulations.WETHToken, strategyAddr, n(1))
	require.NoError(t, f.s.ConvertToPoolAssets(f.ctx))
	assert.Equal(t, 0, f.m.Calls(simulations.OpSwap))
	assert.Equal(t, 0, f.m.Calls(simulations.OpAddLiquidity))
	assertInt(t, 1, f.m.Balance(simulations.WETHToken, strategyAddr))
}

func TestConvertToPoolAssets_FailureRollsBackSwaps(t *testing.T) {
	f := newFixture(t)
	f.m.Mint(simulations.WETHToken, strategyAddr, n(100))
	boom := errors.New("pool paused")
	f.m.FailNext(simulations.OpAddLiquidity, boom)

	err := f.s.ConvertToPoolAssets(f.ctx)
	assert.ErrorIs(t, err, boom)
	assertInt(t, 100, f.m.Balance(simulations.WETHToken, strategyAddr))
	assertInt(t, 0, f.m.Balance(simulations.USDCToken, strategyAddr))
	assertInt(t, 0, f.idle())
}

func TestHarvestRewards_Skim(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.Params.SkimBps = 1000 })
	f.seed(0, 1000, 1000)
	f.m.AccrueRewards(strategyAddr, n(100))

	res, err := f.s.PrepareReturn(f.ctx, n(0))
	require.NoError(t, err)

	// 10 skimmed; 90 -> 45 WETH; 22 -> 44 USDC; LP = 22 + 11.5
	assertInt(t, 10, f.m.Balance(simulations.RewardToken, skimAddr))
	assertInt(t, 33, f.idle())
	assertResult(t, 33, 0, 0, res)
}
