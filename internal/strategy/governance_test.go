package strategy

import (
	"errors"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/simulations"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

func withGovernance(c *Config) { c.Authorizer = chain.NewAddressSet(govAddr) }

func TestSetters_Apply(t *testing.T) {
	f := newFixture(t, withGovernance)

	require.NoError(t, f.s.SetSlippage(govAddr, types.SlippageConfig{MaxSlippageInBps: 50, MaxSlippageOutBps: 75}))
	require.NoError(t, f.s.SetDust(govAddr, types.DustThresholds{PositionDust: n(1), RewardDust: n(2)}))
	require.NoError(t, f.s.SetMinProfit(govAddr, n(5)))
	require.NoError(t, f.s.SetMaxReportDelay(govAddr, time.Hour))
	require.NoError(t, f.s.SetForceHarvest(govAddr, true))
	require.NoError(t, f.s.SetSkimBps(govAddr, 250))
	require.NoError(t, f.s.SetAbandonRewards(govAddr, true))

	p := f.s.Parameters()
	assert.Equal(t, uint64(50), p.Slippage.MaxSlippageInBps)
	assert.Equal(t, uint64(75), p.Slippage.MaxSlippageOutBps)
	assertInt(t, 1, p.Dust.PositionDust)
	assertInt(t, 2, p.Dust.RewardDust)
	assertInt(t, 5, p.Harvest.MinProfit)
	assert.Equal(t, time.Hour, p.Harvest.MaxReportDelay)
	assert.True(t, p.Harvest.ForceHarvest)
	assert.Equal(t, uint64(250), p.SkimBps)
	assert.True(t, f.s.AbandonRewards())

	next := testParams()
	require.NoError(t, f.s.SetParameters(govAddr, next))
	assert.Equal(t, uint64(0), f.s.Parameters().SkimBps)
}

func TestSetters_GuardFollowsSlippage(t *testing.T) {
	f := newFixture(t)
	f.seed(0, 1000, 1000)
	f.m.SetStakingHaircuts(0, 200)

	require.ErrorIs(t, f.s.WithdrawFromStaking(f.ctx, n(500)), ErrSlippageExceeded)
	require.NoError(t, f.s.SetSlippage(govAddr, types.SlippageConfig{MaxSlippageInBps: 100, MaxSlippageOutBps: 200}))
	require.NoError(t, f.s.WithdrawFromStaking(f.ctx, n(500)))
	assertInt(t, 490, f.idle())
}

func TestSetters_Unauthorized(t *testing.T) {
	f := newFixture(t, withGovernance)
	before := f.s.Parameters()

	calls := map[string]func(common.Address) error{
		"parameters":   func(c common.Address) error { return f.s.SetParameters(c, testParams()) },
		"slippage":     func(c common.Address) error { return f.s.SetSlippage(c, types.SlippageConfig{}) },
		"min profit":   func(c common.Address) error { return f.s.SetMinProfit(c, n(1)) },
		"force":        func(c common.Address) error { return f.s.SetForceHarvest(c, true) },
		"skim":         func(c common.Address) error { return f.s.SetSkimBps(c, 1) },
		"abandon":      func(c common.Address) error { return f.s.SetAbandonRewards(c, true) },
		"emergency":    func(c common.Address) error { return f.s.SetEmergencyExit(f.ctx, c) },
		"report delay": func(c common.Address) error { return f.s.SetMaxReportDelay(c, time.Minute) },
	}
	for name, call := range calls {
		t.Run(name, func(t *testing.T) {
			assert.ErrorIs(t, call(strangerAddr), ErrUnauthorized)
		})
	}
	assert.Equal(t, before, f.s.Parameters())
	assert.False(t, f.s.EmergencyExit())
	assert.False(t, f.s.AbandonRewards())
}

func TestSetters_Validation(t *testing.T) {
	f := newFixture(t)
	before := f.s.Parameters()

	tests := []struct {
		name string
		call func() error
	}{
		{"slippage in above 100%", func() error {
			return f.s.SetSlippage(govAddr, types.SlippageConfig{MaxSlippageInBps: 10_001})
		}},
		{"slippage out above 100%", func() error {
			return f.s.SetSlippage(govAddr, types.SlippageConfig{MaxSlippageOutBps: 10_001})
		}},
		{"skim above 100%", func() error { return f.s.SetSkimBps(govAddr, 10_001) }},
		{"negative dust", func() error {
			return f.s.SetDust(govAddr, types.DustThresholds{PositionDust: n(-1), RewardDust: n(0)})
		}},
		{"unset dust", func() error { return f.s.SetDust(govAddr, types.DustThresholds{}) }},
		{"negative min profit", func() error { return f.s.SetMinProfit(govAddr, n(-1)) }},
		{"negative delay", func() error { return f.s.SetMaxReportDelay(govAddr, -time.Second) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.call(), ErrInvalidParameter)
		})
	}
	assert.Equal(t, before, f.s.Parameters())

	err := f.s.SetSkimBps(govAddr, 10_001)
	assert.ErrorIs(t, err, utils.ErrBpsOutOfRange)
}

func TestSetSkimBps_RequiresRecipient(t *testing.T) {
	f := newFixture(t, func(c *Config) { c.SkimRecipient = common.Address{} })
	assert.ErrorIs(t, f.s.SetSkimBps(govAddr, 100), ErrInvalidParameter)
	assert.Equal(t, uint64(0), f.s.Parameters().SkimBps)
	require.NoError(t, f.s.SetSkimBps(govAddr, 0))
}

func TestSetEmergencyExit(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.s.SetEmergencyExit(f.ctx, govAddr))
	assert.True(t, f.s.EmergencyExit())

	stats, err := f.m.Stats(strategyAddr)
	require.NoError(t, err)
	assert.Equal(t, uint64(0), stats.DebtRatioBps)

	require.NoError(t, f.s.SetEmergencyExit(f.ctx, govAddr))
	assert.Equal(t, 1, f.m.Calls(simulations.OpRevoke), "already in emergency exit")
}

func TestSetEmergencyExit_RevokeFailureRollsBack(t *testing.T) {
	f := newFixture(t)
	boom := errors.New("vault paused")
	f.m.FailNext(simulations.OpRevoke, boom)

	assert.ErrorIs(t, f.s.SetEmergencyExit(f.ctx, govAddr), boom)
	assert.False(t, f.s.EmergencyExit())
}
