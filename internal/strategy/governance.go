package strategy

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/types"
)

// Privileged setters. Each one checks the caller and validates before changing anything.

func (s *Strategy) authorize(caller common.Address, action string) error {
	if !s.authorizer.Authorized(caller) {
		s.log.Warn().Str("caller", caller.Hex()).Str("action", action).Msg("Unauthorized call rejected")
		return fmt.Errorf("%w: %s cannot %s", ErrUnauthorized, caller.Hex(), action)
	}
	return nil
}

// setParams applies mutate to a copy of the parameters and installs it if it validates.
func (s *Strategy) setParams(caller common.Address, action string, mutate func(*types.StrategyParameters)) error {
	if err := s.authorize(caller, action); err != nil {
		return err
	}
	return s.atomic(context.Background(), action, func() error {
		next := s.current().params
		mutate(&next)
		if err := validateParameters(next); err != nil {
			return fmt.Errorf("%s: %w", action, err)
		}
		if next.SkimBps > 0 && s.cfg.SkimRecipient == (common.Address{}) {
			return fmt.Errorf("%w: %s: no skim recipient configured", ErrInvalidParameter, action)
		}
		s.update(func(set *settings) { set.params = next })
		s.log.Info().Str("caller", caller.Hex()).Str("action", action).Msg("Parameters updated")
		return nil
	})
}

// SetParameters replaces every parameter at once.
func (s *Strategy) SetParameters(caller common.Address, params types.StrategyParameters) error {
	return s.setParams(caller, "set_parameters", func(p *types.StrategyParameters) { *p = params })
}

func (s *Strategy) SetSlippage(caller common.Address, cfg types.SlippageConfig) error {
	return s.setParams(caller, "set_slippage", func(p *types.StrategyParameters) { p.Slippage = cfg })
}

func (s *Strategy) SetDust(caller common.Address, dust types.DustThresholds) error {
	return s.setParams(caller, "set_dust", func(p *types.StrategyParameters) { p.Dust = dust })
}

func (s *Strategy) SetMinProfit(caller common.Address, minProfit sdkmath.Int) error {
	return s.setParams(caller, "set_min_profit", func(p *types.StrategyParameters) { p.Harvest.MinProfit = minProfit })
}

func (s *Strategy) SetMaxReportDelay(caller common.Address, delay time.Duration) error {
	return s.setParams(caller, "set_max_report_delay", func(p *types.StrategyParameters) { p.Harvest.MaxReportDelay = delay })
}

func (s *Strategy) SetForceHarvest(caller common.Address, force bool) error {
	return s.setParams(caller, "set_force_harvest", func(p *types.StrategyParameters) { p.Harvest.ForceHarvest = force })
}

func (s *Strategy) SetSkimBps(caller common.Address, bps uint64) error {
	return s.setParams(caller, "set_skim_bps", func(p *types.StrategyParameters) { p.SkimBps = bps })
}

func (s *Strategy) SetAbandonRewards(caller common.Address, abandon bool) error {
	if err := s.authorize(caller, "set_abandon_rewards"); err != nil {
		return err
	}
	return s.atomic(context.Background(), "set_abandon_rewards", func() error {
		s.update(func(set *settings) { set.abandonRewards = abandon })
		return nil
	})
}

// SetEmergencyExit puts the strategy into emergency exit and revokes it in the vault, so the
// next harvest returns everything. It cannot be undone.
func (s *Strategy) SetEmergencyExit(ctx context.Context, caller common.Address) error {
	if err := s.authorize(caller, "set_emergency_exit"); err != nil {
		return err
	}
	return s.atomic(ctx, "set_emergency_exit", func() error {
		if s.current().emergencyExit {
			return nil
		}
		s.update(func(set *settings) { set.emergencyExit = true })
		if err := s.vault.RevokeStrategy(ctx, s.cfg.Address); err != nil {
			return fmt.Errorf("failed to revoke strategy: %w", err)
		}
		l := logFor(ctx, s.log)
		l.Warn().Str("caller", caller.Hex()).Msg("Emergency exit enabled")
		return nil
	})
}
