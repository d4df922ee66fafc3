package simulations

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// VaultView is the vault's strategy-facing API.
type VaultView struct {
	c *Chain
}

// Vault returns the vault.
func (c *Chain) Vault() *VaultView {
	return &VaultView{c: c}
}

// RegisterStrategy adds a strategy with the given debt ratio.
func (c *Chain) RegisterStrategy(strategy common.Address, debtRatioBps uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.strategies[strategy] = &strategyDebt{
		debtRatioBps: debtRatioBps,
		totalDebt:    sdkmath.ZeroInt(),
		lastReport:   c.now,
		totalGain:    sdkmath.ZeroInt(),
		totalLoss:    sdkmath.ZeroInt(),
	}
}

// Lend moves amount of the vault's idle want to strategy and books it as debt.
func (c *Chain) Lend(strategy common.Address, amount sdkmath.Int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.st.strategies[strategy]
	if !ok {
		return ErrUnknownStrategy
	}
	if err := c.transferLocked(c.cfg.Pool.Want, c.cfg.Vault, strategy, amount); err != nil {
		return err
	}
	d.totalDebt = d.totalDebt.Add(amount)
	return nil
}

// SetTotalDebt overwrites the recorded debt without moving tokens.
func (c *Chain) SetTotalDebt(strategy common.Address, amount sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.st.strategies[strategy]; ok {
		d.totalDebt = amount
	}
}

// SetDebtRatio changes the strategy's share of vault assets.
func (c *Chain) SetDebtRatio(strategy common.Address, bps uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.st.strategies[strategy]; ok {
		d.debtRatioBps = bps
	}
}

// SetLastReport overwrites the strategy's last report time.
func (c *Chain) SetLastReport(strategy common.Address, at time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if d, ok := c.st.strategies[strategy]; ok {
		d.lastReport = at
	}
}

// VaultStats is the vault's bookkeeping for one strategy.
type VaultStats struct {
	DebtRatioBps uint64
	TotalDebt    sdkmath.Int
	TotalGain    sdkmath.Int
	TotalLoss    sdkmath.Int
	LastReport   time.Time
	VaultIdle    sdkmath.Int
}

// Stats returns the vault's record of strategy.
func (c *Chain) Stats(strategy common.Address) (VaultStats, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	d, ok := c.st.strategies[strategy]
	if !ok {
		return VaultStats{}, ErrUnknownStrategy
	}
	return VaultStats{
		DebtRatioBps: d.debtRatioBps,
		TotalDebt:    d.totalDebt,
		TotalGain:    d.totalGain,
		TotalLoss:    d.totalLoss,
		LastReport:   d.lastReport,
		VaultIdle:    c.balanceLocked(c.cfg.Pool.Want, c.cfg.Vault),
	}, nil
}

func (c *Chain) debtLimitLocked(d *strategyDebt) sdkmath.Int {
	totalAssets := c.balanceLocked(c.cfg.Pool.Want, c.cfg.Vault)
	for _, s := range c.st.strategies {
		totalAssets = totalAssets.Add(s.totalDebt)
	}
	return utils.MulBps(totalAssets, d.debtRatioBps)
}

func (c *Chain) debtOutstandingLocked(d *strategyDebt) sdkmath.Int {
	return utils.SubFloorZero(d.totalDebt, c.debtLimitLocked(d))
}

func (c *Chain) creditAvailableLocked(d *strategyDebt) sdkmath.Int {
	room := utils.SubFloorZero(c.debtLimitLocked(d), d.totalDebt)
	return sdkmath.MinInt(room, c.balanceLocked(c.cfg.Pool.Want, c.cfg.Vault))
}

func (v *VaultView) StrategyDebtInfo(_ context.Context, strategy common.Address) (types.DebtRecord, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	if err := v.c.enter(OpDebtInfo); err != nil {
		return types.DebtRecord{}, err
	}
	d, ok := v.c.st.strategies[strategy]
	if !ok {
		return types.DebtRecord{}, ErrUnknownStrategy
	}
	return types.DebtRecord{TotalDebt: d.totalDebt, LastReport: d.lastReport}, nil
}

func (v *VaultView) DebtOutstanding(_ context.Context, strategy common.Address) (sdkmath.Int, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	if err := v.c.enter(OpDebtOutstanding); err != nil {
		return sdkmath.ZeroInt(), err
	}
	d, ok := v.c.st.strategies[strategy]
	if !ok {
		return sdkmath.ZeroInt(), ErrUnknownStrategy
	}
	return v.c.debtOutstandingLocked(d), nil
}

// Report books loss, takes profit + debtPayment from the strategy, issues any credit
// available and returns the new debt outstanding.
func (v *VaultView) Report(_ context.Context, strategy common.Address, profit, loss, debtPayment sdkmath.Int) (sdkmath.Int, error) {
	c := v.c
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.enter(OpReport); err != nil {
		return sdkmath.ZeroInt(), err
	}
	d, ok := c.st.strategies[strategy]
	if !ok {
		return sdkmath.ZeroInt(), ErrUnknownStrategy
	}
	if profit.IsNegative() || loss.IsNegative() || debtPayment.IsNegative() {
		return sdkmath.ZeroInt(), ErrNegativeAmount
	}
	want := c.cfg.Pool.Want
	if bal := c.balanceLocked(want, strategy); bal.LT(profit.Add(debtPayment)) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: strategy idle %s < profit %s + debt payment %s",
			ErrInsufficientBalance, bal, profit, debtPayment)
	}
	if loss.GT(d.totalDebt) {
		return sdkmath.ZeroInt(), fmt.Errorf("loss %s exceeds total debt %s", loss, d.totalDebt)
	}

	d.totalLoss = d.totalLoss.Add(loss)
	d.totalDebt = d.totalDebt.Sub(loss)
	d.totalGain = d.totalGain.Add(profit)

	debtPayment = sdkmath.MinInt(debtPayment, c.debtOutstandingLocked(d))
	d.totalDebt = d.totalDebt.Sub(debtPayment)

	if err := c.transferLocked(want, strategy, c.cfg.Vault, profit.Add(debtPayment)); err != nil {
		return sdkmath.ZeroInt(), err
	}

	credit := c.creditAvailableLocked(d)
	if credit.IsPositive() {
		if err := c.transferLocked(want, c.cfg.Vault, strategy, credit); err != nil {
			return sdkmath.ZeroInt(), err
		}
		d.totalDebt = d.totalDebt.Add(credit)
	}
	d.lastReport = c.now

	outstanding := c.debtOutstandingLocked(d)
	c.log.Info().
		Str("strategy", strategy.Hex()).
		Str("profit", profit.String()).
		Str("loss", loss.String()).
		Str("debt_payment", debtPayment.String()).
		Str("credit", credit.String()).
		Str("total_debt", d.totalDebt.String()).
		Str("debt_outstanding", outstanding.String()).
		Msg("Vault received report")
	return outstanding, nil
}

// RevokeStrategy sets the strategy's debt ratio to zero so the next report returns everything.
func (v *VaultView) RevokeStrategy(_ context.Context, strategy common.Address) error {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	if err := v.c.enter(OpRevoke); err != nil {
		return err
	}
	d, ok := v.c.st.strategies[strategy]
	if !ok {
		return ErrUnknownStrategy
	}
	d.debtRatioBps = 0
	return nil
}
