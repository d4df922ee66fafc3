// ./internal/state/report_store.go
package state

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/elys-network/lpstrategy/internal/types"
)

// SaveHarvestReport saves a harvest report to the database.
func SaveHarvestReport(ctx context.Context, r types.HarvestReport) (int64, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	statsJSON, err := json.Marshal(r.Stats)
	if err != nil {
		return 0, fmt.Errorf("failed to marshal stats: %w", err)
	}

	query := `
		INSERT INTO harvest_reports (
			harvest_number, cycle_id, report_timestamp, policy, trigger_reason, emergency_exit,
			debt_outstanding, profit, loss, debt_payment, new_debt_outstanding,
			idle_before, staked_before, idle_after, staked_after,
			stats, success, error_message, duration_ms
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)
		RETURNING report_id;
	`

	var reportID int64
	err = DB.QueryRowContext(ctx, query,
		r.HarvestNumber, r.CycleID, r.Timestamp, string(r.Policy), string(r.TriggerReason), r.EmergencyExit,
		amountArg(r.DebtOutstanding), amountArg(r.Result.Profit), amountArg(r.Result.Loss),
		amountArg(r.Result.DebtPayment), amountArg(r.NewDebtOutstanding),
		amountArg(r.PositionBefore.Idle), amountArg(r.PositionBefore.Staked),
		amountArg(r.PositionAfter.Idle), amountArg(r.PositionAfter.Staked),
		statsJSON, r.Success, r.ErrorMessage, r.Duration.Milliseconds(),
	).Scan(&reportID)
	if err != nil {
		return 0, fmt.Errorf("failed to save harvest report: %w", err)
	}

	storeLog().Info().
		Int64("report_id", reportID).
		Int("harvest_number", r.HarvestNumber).
		Bool("success", r.Success).
		Msg("Harvest report saved to database")
	return reportID, nil
}
