package strategy

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// PrepareMigration empties the stake ahead of moving the position to destination. Unless
// rewards are abandoned they are claimed and forwarded, and with ForwardIdleOnMigration the
// idle want is forwarded as well.
func (s *Strategy) PrepareMigration(ctx context.Context, destination common.Address) error {
	if destination == (common.Address{}) || destination == s.cfg.Address {
		return fmt.Errorf("%w: migration destination %s", ErrInvalidParameter, destination.Hex())
	}
	return s.atomic(ctx, "prepare_migration", func() error {
		l := logFor(ctx, s.log)
		abandon := s.current().abandonRewards
		if !abandon {
			if _, err := s.claimRewards(ctx); err != nil {
				return err
			}
		}

		if err := s.withdrawAllGuarded(ctx); err != nil {
			return err
		}

		if !abandon {
			rewards, err := s.balanceOf(ctx, s.cfg.RewardToken)
			if err != nil {
				return err
			}
			if rewards.IsPositive() {
				if err := s.tokens.Transfer(ctx, s.cfg.RewardToken, destination, rewards); err != nil {
					return fmt.Errorf("failed to forward rewards: %w", err)
				}
			}
		}

		if s.cfg.ForwardIdleOnMigration {
			idle, err := s.IdleBalance(ctx)
			if err != nil {
				return err
			}
			if idle.IsPositive() {
				if err := s.tokens.Transfer(ctx, s.cfg.Pool.Want, destination, idle); err != nil {
					return fmt.Errorf("failed to forward idle want: %w", err)
				}
			}
		}

		l.Info().
			Str("destination", destination.Hex()).
			Bool("abandon_rewards", abandon).
			Bool("forward_idle", s.cfg.ForwardIdleOnMigration).
			Msg("Prepared migration")
		return nil
	})
}

// withdrawAllGuarded unstakes everything and checks the idle gain against it.
func (s *Strategy) withdrawAllGuarded(ctx context.Context) error {
	idleBefore, err := s.IdleBalance(ctx)
	if err != nil {
		return err
	}
	staked, err := s.StakedBalance(ctx)
	if err != nil {
		return err
	}
	requested, err := s.withdrawFromStaking(ctx, staked)
	if err != nil {
		return err
	}
	return s.enforceExit(ctx, requested, idleBefore)
}

// EmergencyUnstake pulls the whole stake through the staking contract's emergency path.
// Rewards are forfeited and the slippage guard does not apply.
func (s *Strategy) EmergencyUnstake(ctx context.Context, caller common.Address) error {
	if err := s.authorize(caller, "emergency_unstake"); err != nil {
		return err
	}
	return s.atomic(ctx, "emergency_unstake", func() error {
		if err := s.staking.EmergencyUnstake(ctx); err != nil {
			return fmt.Errorf("emergency unstake failed: %w", err)
		}
		l := logFor(ctx, s.log)
		l.Warn().Msg("Emergency unstake executed")
		return nil
	})
}
