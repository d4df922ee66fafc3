package strategy

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// IdleBalance returns the want held by the strategy.
func (s *Strategy) IdleBalance(ctx context.Context) (sdkmath.Int, error) {
	bal, err := s.tokens.BalanceOf(ctx, s.cfg.Pool.Want, s.cfg.Address)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to read idle balance: %w", err)
	}
	return bal, nil
}

// StakedBalance returns the want the strategy has in the staking contract.
func (s *Strategy) StakedBalance(ctx context.Context) (sdkmath.Int, error) {
	bal, err := s.staking.StakedBalanceOf(ctx, s.cfg.Address)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to read staked balance: %w", err)
	}
	return bal, nil
}

// EstimatedTotalAssets returns idle + staked.
func (s *Strategy) EstimatedTotalAssets(ctx context.Context) (sdkmath.Int, error) {
	idle, err := s.IdleBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	return idle.Add(staked), nil
}

// Position reads idle, staked and pending rewards.
func (s *Strategy) Position(ctx context.Context) (types.StrategyPosition, error) {
	idle, err := s.IdleBalance(ctx)
	if err != nil {
		return types.StrategyPosition{}, err
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return types.StrategyPosition{}, err
	}
	pending, err := s.staking.PendingRewards(ctx, s.cfg.Address)
	if err != nil {
		return types.StrategyPosition{}, fmt.Errorf("failed to read pending rewards: %w", err)
	}
	return types.StrategyPosition{Idle: idle, Staked: staked, PendingRewards: pending}, nil
}

// DepositIdleIntoStaking stakes the whole idle balance when it is above position dust.
func (s *Strategy) DepositIdleIntoStaking(ctx context.Context) error {
	return s.atomic(ctx, "deposit_idle_into_staking", func() error {
		idle, err := s.IdleBalance(ctx)
		if err != nil {
			return err
		}
		return s.depositIntoStaking(ctx, idle)
	})
}

// WithdrawFromStaking withdraws min(amount, staked) and checks the idle gain against it.
func (s *Strategy) WithdrawFromStaking(ctx context.Context, amount sdkmath.Int) error {
	return s.atomic(ctx, "withdraw_from_staking", func() error {
		idleBefore, err := s.IdleBalance(ctx)
		if err != nil {
			return err
		}
		requested, err := s.withdrawFromStaking(ctx, amount)
		if err != nil {
			return err
		}
		return s.enforceExit(ctx, requested, idleBefore)
	})
}

// depositIntoStaking stakes amount unless it is at or below position dust, then runs the entry check.
func (s *Strategy) depositIntoStaking(ctx context.Context, amount sdkmath.Int) error {
	l := logFor(ctx, s.posLog)
	dust := s.current().params.Dust.PositionDust
	if amount.LTE(dust) {
		l.Debug().Str("amount", amount.String()).Str("dust", dust.String()).Msg("Deposit below position dust, skipping")
		return nil
	}

	before, err := s.StakedBalance(ctx)
	if err != nil {
		return err
	}
	if err := s.staking.Stake(ctx, amount); err != nil {
		return fmt.Errorf("stake %s failed: %w", amount, err)
	}
	after, err := s.StakedBalance(ctx)
	if err != nil {
		return err
	}
	if err := s.enforceSlippageIn(amount, before, after); err != nil {
		return err
	}
	l.Info().Str("amount", amount.String()).Str("staked", after.String()).Msg("Deposited into staking")
	return nil
}

// withdrawFromStaking requests min(amount, staked) and returns what was requested.
func (s *Strategy) withdrawFromStaking(ctx context.Context, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	requested := sdkmath.MinInt(amount, staked)
	if requested.IsZero() {
		return requested, nil
	}
	if err := s.staking.Unstake(ctx, requested); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("unstake %s failed: %w", requested, err)
	}
	l := logFor(ctx, s.posLog)
	l.Info().Str("amount", requested.String()).Str("asked", amount.String()).Msg("Withdrew from staking")
	return requested, nil
}

func (s *Strategy) enforceSlippageIn(amountIn, stakedBefore, stakedAfter sdkmath.Int) error {
	return s.guard.EnforceIn(amountIn, stakedBefore, stakedAfter)
}

// enforceExit compares intended against the idle gain since idleBefore.
func (s *Strategy) enforceExit(ctx context.Context, intended, idleBefore sdkmath.Int) error {
	idleAfter, err := s.IdleBalance(ctx)
	if err != nil {
		return err
	}
	return s.guard.EnforceOut(intended, utils.SubFloorZero(idleAfter, idleBefore))
}
