package state

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/elys-network/lpstrategy/internal/types"
)

const reportColumns = `
	report_id, harvest_number, cycle_id, report_timestamp, policy, trigger_reason, emergency_exit,
	debt_outstanding, profit, loss, debt_payment, new_debt_outstanding,
	idle_before, staked_before, idle_after, staked_after,
	stats, success, error_message, duration_ms`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReport(row rowScanner) (types.HarvestReport, error) {
	var (
		r              types.HarvestReport
		policy, reason string
		statsJSON      []byte
		errorMessage   sql.NullString
		durationMs     int64
		amounts        amountColumns
	)
	amounts.add("debt_outstanding", &r.DebtOutstanding)
	amounts.add("profit", &r.Result.Profit)
	amounts.add("loss", &r.Result.Loss)
	amounts.add("debt_payment", &r.Result.DebtPayment)
	amounts.add("new_debt_outstanding", &r.NewDebtOutstanding)
	amounts.add("idle_before", &r.PositionBefore.Idle)
	amounts.add("staked_before", &r.PositionBefore.Staked)
	amounts.add("idle_after", &r.PositionAfter.Idle)
	amounts.add("staked_after", &r.PositionAfter.Staked)

	dest := []any{&r.ReportID, &r.HarvestNumber, &r.CycleID, &r.Timestamp, &policy, &reason, &r.EmergencyExit}
	dest = append(dest, amounts.scanArgs()...)
	dest = append(dest, &statsJSON, &r.Success, &errorMessage, &durationMs)
	if err := row.Scan(dest...); err != nil {
		return types.HarvestReport{}, err
	}
	if err := amounts.decode(); err != nil {
		return types.HarvestReport{}, err
	}

	r.Policy = types.HarvestPolicy(policy)
	r.TriggerReason = types.TriggerReason(reason)
	r.ErrorMessage = errorMessage.String
	r.Duration = time.Duration(durationMs) * time.Millisecond
	r.Stats = types.NewHarvestStats()
	if len(statsJSON) > 0 {
		if err := json.Unmarshal(statsJSON, &r.Stats); err != nil {
			return types.HarvestReport{}, fmt.Errorf("failed to unmarshal stats: %w", err)
		}
	}
	return r, nil
}

// GetRecentReports retrieves the most recent harvest reports, newest first.
func GetRecentReports(ctx context.Context, limit int) ([]types.HarvestReport, error) {
	if DB == nil {
		return nil, ErrNotInitialized
	}
	if limit <= 0 || limit > 100 {
		limit = 10 // Default limit
	}

	rows, err := DB.QueryContext(ctx, `SELECT `+reportColumns+`
		FROM harvest_reports
		ORDER BY report_timestamp DESC, report_id DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent reports: %w", err)
	}
	defer rows.Close()

	l := storeLog()
	reports := make([]types.HarvestReport, 0, limit)
	for rows.Next() {
		r, err := scanReport(rows)
		if err != nil {
			l.Error().Err(err).Msg("Failed to scan harvest report row")
			continue // Skip this row and continue with others
		}
		reports = append(reports, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error during row iteration: %w", err)
	}

	l.Debug().Int("count", len(reports)).Int("limit", limit).Msg("Retrieved recent reports")
	return reports, nil
}

// GetReportByID retrieves a specific report by its ID
func GetReportByID(ctx context.Context, reportID int64) (types.HarvestReport, error) {
	if DB == nil {
		return types.HarvestReport{}, ErrNotInitialized
	}

	row := DB.QueryRowContext(ctx, `SELECT `+reportColumns+` FROM harvest_reports WHERE report_id = $1`, reportID)
	r, err := scanReport(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.HarvestReport{}, fmt.Errorf("%w: id %d", ErrReportNotFound, reportID)
		}
		return types.HarvestReport{}, fmt.Errorf("failed to query report by ID: %w", err)
	}
	return r, nil
}

// GetReportSummary aggregates every report. Amount totals only count successful harvests,
// since a failed harvest was rolled back and reported nothing.
func GetReportSummary(ctx context.Context) (types.ReportSummary, error) {
	if DB == nil {
		return types.ReportSummary{}, ErrNotInitialized
	}

	query := `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE NOT success),
			COALESCE(SUM(profit) FILTER (WHERE success), 0)::TEXT,
			COALESCE(SUM(loss) FILTER (WHERE success), 0)::TEXT,
			COALESCE(SUM(debt_payment) FILTER (WHERE success), 0)::TEXT,
			MAX(report_timestamp) FILTER (WHERE success)
		FROM harvest_reports
	`

	var (
		s       types.ReportSummary
		amounts amountColumns
		last    sql.NullTime
	)
	amounts.add("total_profit", &s.TotalProfit)
	amounts.add("total_loss", &s.TotalLoss)
	amounts.add("total_debt_payment", &s.TotalDebtPayment)

	dest := append([]any{&s.TotalReports, &s.FailedReports}, amounts.scanArgs()...)
	dest = append(dest, &last)
	if err := DB.QueryRowContext(ctx, query).Scan(dest...); err != nil {
		return types.ReportSummary{}, fmt.Errorf("failed to get report summary: %w", err)
	}
	if err := amounts.decode(); err != nil {
		return types.ReportSummary{}, err
	}
	if last.Valid {
		t := last.Time
		s.LastReportAt = &t
	}
	return s, nil
}

// EmptySummary is the summary of no reports.
func EmptySummary() types.ReportSummary {
	return types.ReportSummary{
		TotalProfit:      sdkmath.ZeroInt(),
		TotalLoss:        sdkmath.ZeroInt(),
		TotalDebtPayment: sdkmath.ZeroInt(),
	}
}
