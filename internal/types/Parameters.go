/*

This file contains the tunable parameters of the strategy: slippage bounds, dust thresholds,
harvest trigger thresholds and the accounting policy selection.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// MaxBps is 100% expressed in basis points.
const MaxBps uint64 = 10_000

// SlippageConfig bounds the shortfall accepted on staking deposits (in) and withdrawals (out).
type SlippageConfig struct {
	MaxSlippageInBps  uint64 `json:"max_slippage_in_bps"`  // tolerance for want -> staked
	MaxSlippageOutBps uint64 `json:"max_slippage_out_bps"` // tolerance for staked -> want
}

// DustThresholds are the balances at or below which an action is skipped.
type DustThresholds struct {
	PositionDust sdkmath.Int `json:"position_dust"` // in want units
	RewardDust   sdkmath.Int `json:"reward_dust"`   // in reward token units
}

// HarvestState drives the harvest trigger. LastReport lives in the vault's DebtRecord.
type HarvestState struct {
	ForceHarvest   bool          `json:"force_harvest"`    // one-shot, cleared by every harvest
	MinProfit      sdkmath.Int   `json:"min_profit"`       // in reference asset units
	MaxReportDelay time.Duration `json:"max_report_delay"` // harvest at least this often
}

// HarvestPolicy selects how prepareReturn measures profit and when it liquidates.
type HarvestPolicy string

const (
	// PolicyDebtDelta liquidates debtOutstanding upfront and measures profit as totalAssets - totalDebt.
	PolicyDebtDelta HarvestPolicy = "debt_delta"
	// PolicyBalanceDelta measures profit as the idle balance gained during the cycle and
	// liquidates only when idle cannot cover profit + debtOutstanding.
	PolicyBalanceDelta HarvestPolicy = "balance_delta"
)

// TruncationPriority decides which of profit or debtPayment is preserved when idle is short.
type TruncationPriority string

const (
	DebtPaymentFirst TruncationPriority = "debt_payment_first"
	ProfitFirst      TruncationPriority = "profit_first"
)

// DefaultTruncation returns the truncation priority each policy ships with.
func (p HarvestPolicy) DefaultTruncation() TruncationPriority {
	if p == PolicyBalanceDelta {
		return ProfitFirst
	}
	return DebtPaymentFirst
}

// Valid reports whether p is a known policy.
func (p HarvestPolicy) Valid() bool {
	return p == PolicyDebtDelta || p == PolicyBalanceDelta
}

// Valid reports whether t is a known truncation priority.
func (t TruncationPriority) Valid() bool {
	return t == DebtPaymentFirst || t == ProfitFirst
}

// StrategyParameters is the persisted, privileged-mutable configuration of a strategy.
type StrategyParameters struct {
	Slippage SlippageConfig `json:"slippage"`
	Dust     DustThresholds `json:"dust"`
	Harvest  HarvestState   `json:"harvest"`
	SkimBps  uint64         `json:"skim_bps"` // share of claimed rewards sent to the skim recipient
}
