/*

This file contains the default parameters for the strategy.

They are used when no active parameters are found in the database, and saved as version 1.
Amounts are given in whole tokens and scaled by each token's decimals.

*/

package config

import (
	"fmt"
	"time"

	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

const (
	// DefaultMaxSlippageInBps bounds the shortfall accepted when staking want.
	DefaultMaxSlippageInBps uint64 = 50
	// Rationale: A healthy staking contract mints stake 1:1. Anything beyond 0.5% points
	// at a fee-on-transfer want or a misbehaving contract and should halt the deposit.

	// DefaultMaxSlippageOutBps bounds the shortfall accepted when withdrawing want.
	DefaultMaxSlippageOutBps uint64 = 100
	// Rationale: Withdrawals may carry an exit fee. 1% covers common fee schedules while
	// still catching a drained or paused contract.

	// DefaultPositionDust is the want balance below which staking is skipped.
	DefaultPositionDust = 0.000001
	// DefaultRewardDust is the reward balance below which selling is skipped.
	DefaultRewardDust = 0.01
	// Rationale: Swapping a dust reward balance costs more in gas than it returns.

	// DefaultMinProfit is the pending reward value, in the reference asset, that triggers a harvest.
	DefaultMinProfit = 100.0
	// Rationale: Harvesting gas is roughly fixed per call, so small harvests are not worth it.

	// DefaultMaxReportDelay forces a report at least this often.
	DefaultMaxReportDelay = 24 * time.Hour
	// Rationale: The vault needs regular reports to rebalance credit between strategies.

	// DefaultSkimBps is the share of claimed rewards sent to the skim recipient.
	DefaultSkimBps uint64 = 0
)

// DefaultStrategyParameters builds the baseline parameter set for the given token decimals.
func DefaultStrategyParameters(wantDecimals, rewardDecimals, referenceDecimals int) (types.StrategyParameters, error) {
	positionDust, err := utils.Float64ToSDKInt(DefaultPositionDust, wantDecimals)
	if err != nil {
		return types.StrategyParameters{}, fmt.Errorf("position dust: %w", err)
	}
	rewardDust, err := utils.Float64ToSDKInt(DefaultRewardDust, rewardDecimals)
	if err != nil {
		return types.StrategyParameters{}, fmt.Errorf("reward dust: %w", err)
	}
	minProfit, err := utils.Float64ToSDKInt(DefaultMinProfit, referenceDecimals)
	if err != nil {
		return types.StrategyParameters{}, fmt.Errorf("min profit: %w", err)
	}

	return types.StrategyParameters{
		Slippage: types.SlippageConfig{
			MaxSlippageInBps:  DefaultMaxSlippageInBps,
			MaxSlippageOutBps: DefaultMaxSlippageOutBps,
		},
		Dust: types.DustThresholds{
			PositionDust: positionDust,
			RewardDust:   rewardDust,
		},
		Harvest: types.HarvestState{
			MinProfit:      minProfit,
			MaxReportDelay: DefaultMaxReportDelay,
		},
		SkimBps: DefaultSkimBps,
	}, nil
}
