package strategy

import (
	"context"
	"fmt"

	"github.com/elys-network/lpstrategy/internal/types"
)

// HarvestTrigger reports whether a harvest is due. It changes no state.
//
// An inactive strategy (no debt and no assets) never triggers. Otherwise the force flag, an
// overdue report and rewards (pending plus held) worth more than MinProfit each trigger, checked
// in that order.
func (s *Strategy) HarvestTrigger(ctx context.Context) (bool, types.TriggerReason, error) {
	rec, err := s.vault.StrategyDebtInfo(ctx, s.cfg.Address)
	if err != nil {
		return false, types.TriggerNone, fmt.Errorf("failed to read debt record: %w", err)
	}
	total, err := s.EstimatedTotalAssets(ctx)
	if err != nil {
		return false, types.TriggerNone, err
	}
	if !rec.TotalDebt.IsPositive() && !total.IsPositive() {
		return false, types.TriggerInactive, nil
	}

	p := s.current().params.Harvest
	if p.ForceHarvest {
		return true, types.TriggerForced, nil
	}
	if s.now().Sub(rec.LastReport) > p.MaxReportDelay {
		return true, types.TriggerMaxReportDelay, nil
	}

	held, err := s.balanceOf(ctx, s.cfg.RewardToken)
	if err != nil {
		return false, types.TriggerNone, err
	}
	value, err := s.oracle.RewardValue(ctx, s.staking, s.cfg.Address, s.cfg.RewardToken, held)
	if err != nil {
		return false, types.TriggerNone, err
	}
	if value.GT(p.MinProfit) {
		return true, types.TriggerProfit, nil
	}
	return false, types.TriggerNone, nil
}
