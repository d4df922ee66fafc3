package strategy

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// accountingPolicy decides when prepareReturn liquidates and how it measures profit.
type accountingPolicy interface {
	kind() types.HarvestPolicy
	prepareReturn(ctx context.Context, s *Strategy, totalDebt, debtOutstanding sdkmath.Int) (types.ReturnResult, error)
}

func newPolicy(p types.HarvestPolicy) accountingPolicy {
	if p == types.PolicyBalanceDelta {
		return balanceDeltaPolicy{}
	}
	return debtDeltaPolicy{}
}

// debtDeltaPolicy frees debtOutstanding before harvesting and measures profit against the
// vault's recorded debt.
type debtDeltaPolicy struct{}

func (debtDeltaPolicy) kind() types.HarvestPolicy { return types.PolicyDebtDelta }

func (debtDeltaPolicy) prepareReturn(ctx context.Context, s *Strategy, totalDebt, debtOutstanding sdkmath.Int) (types.ReturnResult, error) {
	if debtOutstanding.IsPositive() {
		if _, err := s.liquidatePosition(ctx, debtOutstanding); err != nil {
			return types.ZeroReturn(), err
		}
	}
	if err := s.harvestRewards(ctx); err != nil {
		return types.ZeroReturn(), err
	}

	pos, err := s.Position(ctx)
	if err != nil {
		return types.ZeroReturn(), err
	}
	if pos.TotalAssets().LT(totalDebt) {
		return lossResult(pos, totalDebt, debtOutstanding), nil
	}

	profit := pos.TotalAssets().Sub(totalDebt)
	if need := profit.Add(debtOutstanding); pos.Idle.LT(need) {
		if pos, err = s.freeForReturn(ctx, need); err != nil {
			return types.ZeroReturn(), err
		}
		if pos.TotalAssets().LT(totalDebt) {
			return lossResult(pos, totalDebt, debtOutstanding), nil
		}
		profit = sdkmath.MinInt(profit, pos.TotalAssets().Sub(totalDebt))
	}
	return truncate(profit, debtOutstanding, pos.Idle, s.trunc), nil
}

// balanceDeltaPolicy measures profit as the idle gained by harvesting and only liquidates
// when idle cannot cover what is owed.
type balanceDeltaPolicy struct{}

func (balanceDeltaPolicy) kind() types.HarvestPolicy { return types.PolicyBalanceDelta }

func (balanceDeltaPolicy) prepareReturn(ctx context.Context, s *Strategy, totalDebt, debtOutstanding sdkmath.Int) (types.ReturnResult, error) {
	idleBefore, err := s.IdleBalance(ctx)
	if err != nil {
		return types.ZeroReturn(), err
	}
	if err := s.harvestRewards(ctx); err != nil {
		return types.ZeroReturn(), err
	}

	pos, err := s.Position(ctx)
	if err != nil {
		return types.ZeroReturn(), err
	}
	profit := utils.SubFloorZero(pos.Idle, idleBefore)

	if pos.TotalAssets().LT(totalDebt) {
		if pos.Idle.LT(debtOutstanding) {
			if pos, err = s.freeForReturn(ctx, debtOutstanding); err != nil {
				return types.ZeroReturn(), err
			}
		}
		return lossResult(pos, totalDebt, debtOutstanding), nil
	}

	if need := profit.Add(debtOutstanding); pos.Idle.LT(need) {
		if pos, err = s.freeForReturn(ctx, need); err != nil {
			return types.ZeroReturn(), err
		}
		if pos.TotalAssets().LT(totalDebt) {
			return lossResult(pos, totalDebt, debtOutstanding), nil
		}
	}
	return truncate(profit, debtOutstanding, pos.Idle, s.trunc), nil
}

// freeForReturn liquidates toward need idle and re-reads the position.
func (s *Strategy) freeForReturn(ctx context.Context, need sdkmath.Int) (types.StrategyPosition, error) {
	if _, err := s.liquidatePosition(ctx, need); err != nil {
		return types.StrategyPosition{}, err
	}
	return s.Position(ctx)
}

func lossResult(pos types.StrategyPosition, totalDebt, debtOutstanding sdkmath.Int) types.ReturnResult {
	return types.ReturnResult{
		Profit:      sdkmath.ZeroInt(),
		Loss:        totalDebt.Sub(pos.TotalAssets()),
		DebtPayment: sdkmath.MinInt(pos.Idle, debtOutstanding),
	}
}

// truncate fits profit and debtPayment into idle, shrinking the lower-priority one first.
func truncate(profit, debtPayment, idle sdkmath.Int, priority types.TruncationPriority) types.ReturnResult {
	if priority == types.ProfitFirst {
		profit = sdkmath.MinInt(profit, idle)
		debtPayment = sdkmath.MinInt(debtPayment, idle.Sub(profit))
	} else {
		debtPayment = sdkmath.MinInt(debtPayment, idle)
		profit = sdkmath.MinInt(profit, idle.Sub(debtPayment))
	}
	return types.ReturnResult{Profit: profit, Loss: sdkmath.ZeroInt(), DebtPayment: debtPayment}
}

func checkReturn(r types.ReturnResult, idle sdkmath.Int) error {
	var errs []error
	if r.Profit.IsNegative() || r.Loss.IsNegative() || r.DebtPayment.IsNegative() {
		errs = append(errs, fmt.Errorf("negative amount: profit=%s loss=%s debt_payment=%s", r.Profit, r.Loss, r.DebtPayment))
	}
	if r.Profit.IsPositive() && r.Loss.IsPositive() {
		errs = append(errs, fmt.Errorf("both profit %s and loss %s", r.Profit, r.Loss))
	}
	if r.Profit.Add(r.DebtPayment).GT(idle) {
		errs = append(errs, fmt.Errorf("profit %s + debt payment %s exceeds idle %s", r.Profit, r.DebtPayment, idle))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrAccountingInvariant}, errs...)...)
}

// PrepareReturn harvests and computes what to report for debtOutstanding.
func (s *Strategy) PrepareReturn(ctx context.Context, debtOutstanding sdkmath.Int) (types.ReturnResult, error) {
	var result types.ReturnResult
	err := s.atomic(ctx, "prepare_return", func() error {
		var err error
		result, err = s.prepareReturn(ctx, debtOutstanding)
		return err
	})
	if err != nil {
		return types.ZeroReturn(), err
	}
	return result, nil
}

func (s *Strategy) prepareReturn(ctx context.Context, debtOutstanding sdkmath.Int) (types.ReturnResult, error) {
	if debtOutstanding.IsNil() || debtOutstanding.IsNegative() {
		return types.ZeroReturn(), fmt.Errorf("%w: debt outstanding %v", ErrInvalidParameter, debtOutstanding)
	}
	rec, err := s.vault.StrategyDebtInfo(ctx, s.cfg.Address)
	if err != nil {
		return types.ZeroReturn(), fmt.Errorf("failed to read debt record: %w", err)
	}

	result, err := s.policy.prepareReturn(ctx, s, rec.TotalDebt, debtOutstanding)
	if err != nil {
		return types.ZeroReturn(), err
	}
	idle, err := s.IdleBalance(ctx)
	if err != nil {
		return types.ZeroReturn(), err
	}
	if err := checkReturn(result, idle); err != nil {
		return types.ZeroReturn(), err
	}

	s.clearForceHarvest()
	l := logFor(ctx, s.log)
	l.Info().
		Str("policy", string(s.policy.kind())).
		Str("total_debt", rec.TotalDebt.String()).
		Str("debt_outstanding", debtOutstanding.String()).
		Str("profit", result.Profit.String()).
		Str("loss", result.Loss.String()).
		Str("debt_payment", result.DebtPayment.String()).
		Msg("Prepared return")
	return result, nil
}

func (s *Strategy) clearForceHarvest() {
	s.update(func(set *settings) { set.params.Harvest.ForceHarvest = false })
}

// AdjustPosition reinvests whatever harvesting yields and stakes idle beyond debtOutstanding.
// It does nothing in emergency exit.
func (s *Strategy) AdjustPosition(ctx context.Context, debtOutstanding sdkmath.Int) error {
	return s.atomic(ctx, "adjust_position", func() error {
		return s.adjustPosition(ctx, debtOutstanding)
	})
}

func (s *Strategy) adjustPosition(ctx context.Context, debtOutstanding sdkmath.Int) error {
	if s.current().emergencyExit {
		return nil
	}
	pending, err := s.staking.PendingRewards(ctx, s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to read pending rewards: %w", err)
	}
	if pending.IsPositive() {
		err = s.harvestRewards(ctx)
	} else {
		err = s.reinvestRewards(ctx)
	}
	if err != nil {
		return err
	}

	idle, err := s.IdleBalance(ctx)
	if err != nil {
		return err
	}
	return s.depositIntoStaking(ctx, utils.SubFloorZero(idle, debtOutstanding))
}
