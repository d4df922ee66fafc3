package strategy

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/types"
)

// Status is a read-only view of the strategy for the dashboard.
type Status struct {
	Address         common.Address           `json:"address"`
	Want            common.Address           `json:"want"`
	Policy          types.HarvestPolicy      `json:"policy"`
	Truncation      types.TruncationPriority `json:"truncation"`
	EmergencyExit   bool                     `json:"emergency_exit"`
	AbandonRewards  bool                     `json:"abandon_rewards"`
	Position        types.StrategyPosition   `json:"position"`
	TotalAssets     sdkmath.Int              `json:"total_assets"`
	Debt            types.DebtRecord         `json:"debt"`
	DebtOutstanding sdkmath.Int              `json:"debt_outstanding"`
	HarvestDue      bool                     `json:"harvest_due"`
	TriggerReason   types.TriggerReason      `json:"trigger_reason"`
}

// Status gathers position, vault record and trigger state.
func (s *Strategy) Status(ctx context.Context) (Status, error) {
	pos, err := s.Position(ctx)
	if err != nil {
		return Status{}, err
	}
	rec, err := s.vault.StrategyDebtInfo(ctx, s.cfg.Address)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read debt record: %w", err)
	}
	outstanding, err := s.vault.DebtOutstanding(ctx, s.cfg.Address)
	if err != nil {
		return Status{}, fmt.Errorf("failed to read debt outstanding: %w", err)
	}
	due, reason, err := s.HarvestTrigger(ctx)
	if err != nil {
		return Status{}, err
	}
	set := s.current()
	return Status{
		Address:         s.cfg.Address,
		Want:            s.cfg.Pool.Want,
		Policy:          s.policy.kind(),
		Truncation:      s.trunc,
		EmergencyExit:   set.emergencyExit,
		AbandonRewards:  set.abandonRewards,
		Position:        pos,
		TotalAssets:     pos.TotalAssets(),
		Debt:            rec,
		DebtOutstanding: outstanding,
		HarvestDue:      due,
		TriggerReason:   reason,
	}, nil
}
