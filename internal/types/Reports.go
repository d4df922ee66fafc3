/*

This file contains the harvest report type, one per keeper harvest cycle.
Reports are persisted by the state package and served by the web dashboard.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// TriggerReason explains why harvestTrigger fired.
type TriggerReason string

const (
	TriggerNone           TriggerReason = "none"
	TriggerInactive       TriggerReason = "inactive"
	TriggerForced         TriggerReason = "force_harvest"
	TriggerMaxReportDelay TriggerReason = "max_report_delay"
	TriggerProfit         TriggerReason = "min_profit"
)

// HarvestReport is the full record of a single harvest call.
type HarvestReport struct {
	ReportID           int64            `json:"report_id,omitempty"` // assigned by the DB
	HarvestNumber      int              `json:"harvest_number"`
	CycleID            string           `json:"cycle_id"`
	Timestamp          time.Time        `json:"timestamp"`
	Policy             HarvestPolicy    `json:"policy"`
	TriggerReason      TriggerReason    `json:"trigger_reason"`
	EmergencyExit      bool             `json:"emergency_exit"`
	DebtOutstanding    sdkmath.Int      `json:"debt_outstanding"`
	Result             ReturnResult     `json:"result"`
	NewDebtOutstanding sdkmath.Int      `json:"new_debt_outstanding"`
	PositionBefore     StrategyPosition `json:"position_before"`
	PositionAfter      StrategyPosition `json:"position_after"`
	Stats              HarvestStats     `json:"stats"`
	Success            bool             `json:"success"`
	ErrorMessage       string           `json:"error_message,omitempty"`
	Duration           time.Duration    `json:"duration"`
}

// ReportSummary aggregates persisted reports.
type ReportSummary struct {
	TotalReports     int         `json:"total_reports"`
	FailedReports    int         `json:"failed_reports"`
	TotalProfit      sdkmath.Int `json:"total_profit"`
	TotalLoss        sdkmath.Int `json:"total_loss"`
	TotalDebtPayment sdkmath.Int `json:"total_debt_payment"`
	LastReportAt     *time.Time  `json:"last_report_at,omitempty"`
}
