package strategy

import (
	"context"
	"testing"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/simulations"
	"github.com/elys-network/lpstrategy/internal/types"
)

var (
	strategyAddr = common.HexToAddress("0x000000000000000000000000000000000000beef")
	govAddr      = common.HexToAddress("0x00000000000000000000000000000000000000aa")
	strangerAddr = common.HexToAddress("0x00000000000000000000000000000000000000bb")
	skimAddr     = common.HexToAddress("0x00000000000000000000000000000000000005c1")
	successor    = common.HexToAddress("0x0000000000000000000000000000000000000de5")
)

func n(v int64) sdkmath.Int { return sdkmath.NewInt(v) }

func assertInt(t *testing.T, want int64, got sdkmath.Int, msgAndArgs ...any) {
	t.Helper()
	assert.Equal(t, sdkmath.NewInt(want).String(), got.String(), msgAndArgs...)
}

func assertResult(t *testing.T, profit, loss, debtPayment int64, r types.ReturnResult) {
	t.Helper()
	assertInt(t, profit, r.Profit, "profit")
	assertInt(t, loss, r.Loss, "loss")
	assertInt(t, debtPayment, r.DebtPayment, "debt payment")
}

func testParams() types.StrategyParameters {
	return types.StrategyParameters{
		Slippage: types.SlippageConfig{MaxSlippageInBps: 100, MaxSlippageOutBps: 100},
		Dust:     types.DustThresholds{PositionDust: n(10), RewardDust: n(10)},
		Harvest:  types.HarvestState{MinProfit: n(1000), MaxReportDelay: 24 * time.Hour},
	}
}

type fixture struct {
	ctx context.Context
	m   *simulations.Market
	s   *Strategy
}

func baseConfig(m *simulations.Market) Config {
	return Config{
		Address:       strategyAddr,
		Pool:          m.Pool,
		RewardToken:   m.Reward,
		Intermediate:  m.Intermediate,
		Reference:     m.Reference,
		RewardRoute:   m.RewardRoute,
		RouteA:        m.RouteA,
		RouteB:        m.RouteB,
		Params:        testParams(),
		SkimRecipient: skimAddr,
		SwapDeadline:  10 * time.Minute,
		Vault:         m.Vault(),
		Router:        m.Router(strategyAddr),
		Staking:       m.Staking(strategyAddr),
		Tokens:        m.Tokens(strategyAddr),
		Journal:       m.Chain,
		Clock:         m.Now,
	}
}

func newFixture(t *testing.T, opts ...func(*Config)) *fixture {
	t.Helper()
	m := simulations.NewMarket(strategyAddr, 10_000)
	cfg := baseConfig(m)
	for _, opt := range opts {
		opt(&cfg)
	}
	s, err := New(context.Background(), cfg)
	require.NoError(t, err)
	return &fixture{ctx: context.Background(), m: m, s: s}
}

func withPolicy(p types.HarvestPolicy, tr types.TruncationPriority) func(*Config) {
	return func(c *Config) {
		c.Policy = p
		c.Truncation = tr
	}
}

// seed sets the strategy's idle and staked want and the vault's recorded debt.
func (f *fixture) seed(idle, staked, debt int64) {
	if idle > 0 {
		f.m.Mint(f.m.Pool.Want, strategyAddr, n(idle))
	}
	if staked > 0 {
		f.m.SetStaked(strategyAddr, n(staked))
	}
	f.m.SetTotalDebt(strategyAddr, n(debt))
}

func (f *fixture) idle() sdkmath.Int   { return f.m.Balance(f.m.Pool.Want, strategyAddr) }
func (f *fixture) staked() sdkmath.Int { return f.m.Staked(strategyAddr) }

// ledger captures every balance the strategy can touch.
type ledger struct {
	idle, staked, pending, reward, usdc, weth string
}

func (f *fixture) ledger() ledger {
	return ledger{
		idle:    f.idle().String(),
		staked:  f.staked().String(),
		pending: f.m.Pending(strategyAddr).String(),
		reward:  f.m.Balance(simulations.RewardToken, strategyAddr).String(),
		usdc:    f.m.Balance(simulations.USDCToken, strategyAddr).String(),
		weth:    f.m.Balance(simulations.WETHToken, strategyAddr).String(),
	}
}

func (f *fixture) assertTotalAssetsConsistent(t *testing.T) {
	t.Helper()
	total, err := f.s.EstimatedTotalAssets(f.ctx)
	require.NoError(t, err)
	assert.Equal(t, f.idle().Add(f.staked()).String(), total.String())
}
