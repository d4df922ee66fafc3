package strategy

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// LiquidatePosition frees up to amountNeeded of idle want. Whatever cannot be freed is loss.
func (s *Strategy) LiquidatePosition(ctx context.Context, amountNeeded sdkmath.Int) (types.LiquidationResult, error) {
	var res types.LiquidationResult
	err := s.atomic(ctx, "liquidate_position", func() error {
		var err error
		res, err = s.liquidatePosition(ctx, amountNeeded)
		return err
	})
	if err != nil {
		return types.LiquidationResult{Liquidated: sdkmath.ZeroInt(), Loss: sdkmath.ZeroInt()}, err
	}
	return res, nil
}

// LiquidateAllPositions withdraws the whole stake and returns the resulting idle balance.
func (s *Strategy) LiquidateAllPositions(ctx context.Context) (sdkmath.Int, error) {
	var freed sdkmath.Int
	err := s.atomic(ctx, "liquidate_all_positions", func() error {
		var err error
		freed, err = s.liquidateAllPositions(ctx)
		return err
	})
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return freed, nil
}

func (s *Strategy) liquidatePosition(ctx context.Context, amountNeeded sdkmath.Int) (types.LiquidationResult, error) {
	if amountNeeded.IsNil() || amountNeeded.IsNegative() {
		return types.LiquidationResult{}, fmt.Errorf("%w: amount needed %v", ErrInvalidParameter, amountNeeded)
	}
	idle, err := s.IdleBalance(ctx)
	if err != nil {
		return types.LiquidationResult{}, err
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return types.LiquidationResult{}, err
	}

	if amountNeeded.GT(idle.Add(staked)) {
		freed, err := s.liquidateAllPositions(ctx)
		if err != nil {
			return types.LiquidationResult{}, err
		}
		return liquidationResult(amountNeeded, freed), nil
	}

	if shortfall := utils.SubFloorZero(amountNeeded, idle); shortfall.IsPositive() {
		requested, err := s.withdrawFromStaking(ctx, shortfall)
		if err != nil {
			return types.LiquidationResult{}, err
		}
		if err := s.enforceExit(ctx, requested, idle); err != nil {
			return types.LiquidationResult{}, err
		}
		if idle, err = s.IdleBalance(ctx); err != nil {
			return types.LiquidationResult{}, err
		}
	}
	return liquidationResult(amountNeeded, idle), nil
}

func liquidationResult(amountNeeded, idle sdkmath.Int) types.LiquidationResult {
	liquidated := sdkmath.MinInt(amountNeeded, idle)
	return types.LiquidationResult{Liquidated: liquidated, Loss: amountNeeded.Sub(liquidated)}
}

func (s *Strategy) liquidateAllPositions(ctx context.Context) (sdkmath.Int, error) {
	totalBefore, err := s.EstimatedTotalAssets(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if _, err := s.withdrawFromStaking(ctx, staked); err != nil {
		return sdkmath.ZeroInt(), err
	}
	idleAfter, err := s.IdleBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.guard.EnforceOut(totalBefore, idleAfter); err != nil {
		return sdkmath.ZeroInt(), err
	}
	l := logFor(ctx, s.posLog)
	l.Info().Str("total_before", totalBefore.String()).Str("amount", idleAfter.String()).Msg("Liquidated all positions")
	return idleAfter, nil
}
