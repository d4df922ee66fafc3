package strategy

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// Harvest runs one full cycle: settle with the vault, then reinvest what the vault leaves.
// In emergency exit everything is freed and nothing is reinvested.
func (s *Strategy) Harvest(ctx context.Context) (types.HarvestReport, error) {
	start := time.Now()
	report := types.HarvestReport{
		CycleID:            CycleID(ctx),
		Timestamp:          s.now(),
		Policy:             s.policy.kind(),
		EmergencyExit:      s.EmergencyExit(),
		DebtOutstanding:    sdkmath.ZeroInt(),
		Result:             types.ZeroReturn(),
		NewDebtOutstanding: sdkmath.ZeroInt(),
		PositionBefore:     types.ZeroPosition(),
		PositionAfter:      types.ZeroPosition(),
		Stats:              types.NewHarvestStats(),
	}

	err := s.atomic(ctx, "harvest", func() error {
		return s.harvest(ctx, &report)
	})

	report.Success = err == nil
	report.Duration = time.Since(start)
	if err != nil {
		report.ErrorMessage = err.Error()
	}
	return report, err
}

func (s *Strategy) harvest(ctx context.Context, report *types.HarvestReport) error {
	l := logFor(ctx, s.log)

	before, err := s.Position(ctx)
	if err != nil {
		return err
	}
	report.PositionBefore = before

	debtOutstanding, err := s.vault.DebtOutstanding(ctx, s.cfg.Address)
	if err != nil {
		return fmt.Errorf("failed to read debt outstanding: %w", err)
	}
	report.DebtOutstanding = debtOutstanding

	emergency := s.current().emergencyExit
	var result types.ReturnResult
	if emergency {
		if result, err = s.emergencyReturn(ctx, debtOutstanding); err != nil {
			return err
		}
	} else if result, err = s.prepareReturn(ctx, debtOutstanding); err != nil {
		return err
	}
	report.Result = result

	newDebtOutstanding, err := s.vault.Report(ctx, s.cfg.Address, result.Profit, result.Loss, result.DebtPayment)
	if err != nil {
		return fmt.Errorf("vault report failed: %w", err)
	}
	report.NewDebtOutstanding = newDebtOutstanding

	if !emergency {
		if err := s.adjustPosition(ctx, newDebtOutstanding); err != nil {
			return err
		}
	}

	after, err := s.Position(ctx)
	if err != nil {
		return err
	}
	report.PositionAfter = after
	report.Stats = s.stats

	l.Info().
		Bool("emergency_exit", emergency).
		Str("profit", result.Profit.String()).
		Str("loss", result.Loss.String()).
		Str("debt_payment", result.DebtPayment.String()).
		Str("new_debt_outstanding", newDebtOutstanding.String()).
		Str("total_assets", after.TotalAssets().String()).
		Msg("Harvest complete")
	return nil
}

// emergencyReturn frees everything and reports it against debtOutstanding.
func (s *Strategy) emergencyReturn(ctx context.Context, debtOutstanding sdkmath.Int) (types.ReturnResult, error) {
	freed, err := s.liquidateAllPositions(ctx)
	if err != nil {
		return types.ZeroReturn(), err
	}
	loss := utils.SubFloorZero(debtOutstanding, freed)
	result := types.ReturnResult{
		Profit:      utils.SubFloorZero(freed, debtOutstanding),
		Loss:        loss,
		DebtPayment: debtOutstanding.Sub(loss),
	}
	if err := checkReturn(result, freed); err != nil {
		return types.ZeroReturn(), err
	}
	s.clearForceHarvest()
	return result, nil
}

// Tend reinvests between harvests using the vault's current debt outstanding.
func (s *Strategy) Tend(ctx context.Context) error {
	return s.atomic(ctx, "tend", func() error {
		debtOutstanding, err := s.vault.DebtOutstanding(ctx, s.cfg.Address)
		if err != nil {
			return fmt.Errorf("failed to read debt outstanding: %w", err)
		}
		return s.adjustPosition(ctx, debtOutstanding)
	})
}
