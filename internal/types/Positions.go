/*

This file contains the position and accounting types the harvest engine works with.

*/

package types

import (
	"time"

	sdkmath "cosmossdk.io/math"
)

// StrategyPosition is a point-in-time read of everything the strategy owns.
// It is always rebuilt from balance queries and never cached between calls.
type StrategyPosition struct {
	Idle           sdkmath.Int `json:"idle"`            // want (LP) tokens held by the strategy
	Staked         sdkmath.Int `json:"staked"`          // want tokens deposited in the staking contract
	PendingRewards sdkmath.Int `json:"pending_rewards"` // reward tokens accrued but not claimed
}

// ZeroPosition returns an empty position.
func ZeroPosition() StrategyPosition {
	return StrategyPosition{Idle: sdkmath.ZeroInt(), Staked: sdkmath.ZeroInt(), PendingRewards: sdkmath.ZeroInt()}
}

// TotalAssets returns Idle + Staked.
func (p StrategyPosition) TotalAssets() sdkmath.Int {
	return p.Idle.Add(p.Staked)
}

// DebtRecord is the vault's view of this strategy. Read-only to the strategy.
type DebtRecord struct {
	TotalDebt  sdkmath.Int `json:"total_debt"`
	LastReport time.Time   `json:"last_report"`
}

// ReturnResult is what prepareReturn hands back to the vault.
type ReturnResult struct {
	Profit      sdkmath.Int `json:"profit"`
	Loss        sdkmath.Int `json:"loss"`
	DebtPayment sdkmath.Int `json:"debt_payment"`
}

// ZeroReturn returns a ReturnResult with all amounts initialised to zero.
func ZeroReturn() ReturnResult {
	return ReturnResult{
		Profit:      sdkmath.ZeroInt(),
		Loss:        sdkmath.ZeroInt(),
		DebtPayment: sdkmath.ZeroInt(),
	}
}

// LiquidationResult is returned by liquidatePosition.
type LiquidationResult struct {
	Liquidated sdkmath.Int `json:"liquidated"`
	Loss       sdkmath.Int `json:"loss"`
}

// HarvestStats records the token flow of the claim/skim/sell/compose steps of one call.
type HarvestStats struct {
	RewardsClaimed     sdkmath.Int `json:"rewards_claimed"`
	RewardsSkimmed     sdkmath.Int `json:"rewards_skimmed"`
	RewardsSold        sdkmath.Int `json:"rewards_sold"`
	IntermediateOut    sdkmath.Int `json:"intermediate_out"`
	LiquidityMinted    sdkmath.Int `json:"liquidity_minted"`
	SwapsExecuted      int         `json:"swaps_executed"`
	LiquidityAdditions int         `json:"liquidity_additions"`
}

// NewHarvestStats returns stats with every amount set to zero.
func NewHarvestStats() HarvestStats {
	return HarvestStats{
		RewardsClaimed:  sdkmath.ZeroInt(),
		RewardsSkimmed:  sdkmath.ZeroInt(),
		RewardsSold:     sdkmath.ZeroInt(),
		IntermediateOut: sdkmath.ZeroInt(),
		LiquidityMinted: sdkmath.ZeroInt(),
	}
}
