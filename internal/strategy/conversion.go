package strategy

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// Router-level minimum output. Loss protection happens in the slippage guard after the move.
var nominalMinOut = sdkmath.OneInt()

// SellRewards swaps the whole reward balance into the intermediate asset when it is above reward dust.
func (s *Strategy) SellRewards(ctx context.Context) error {
	return s.atomic(ctx, "sell_rewards", func() error {
		return s.sellRewards(ctx)
	})
}

// ConvertToPoolAssets splits the intermediate balance between the pool assets and adds liquidity.
func (s *Strategy) ConvertToPoolAssets(ctx context.Context) error {
	return s.atomic(ctx, "convert_to_pool_assets", func() error {
		return s.convertToPoolAssets(ctx)
	})
}

// harvestRewards claims, skims, sells and rebuilds LP.
func (s *Strategy) harvestRewards(ctx context.Context) error {
	claimed, err := s.claimRewards(ctx)
	if err != nil {
		return err
	}
	if err := s.skimRewards(ctx, claimed); err != nil {
		return err
	}
	return s.reinvestRewards(ctx)
}

// reinvestRewards sells held rewards and rebuilds LP from the intermediate balance.
func (s *Strategy) reinvestRewards(ctx context.Context) error {
	if err := s.sellRewards(ctx); err != nil {
		return err
	}
	return s.convertToPoolAssets(ctx)
}

// claimRewards claims from the staking contract and returns the reward balance gained.
func (s *Strategy) claimRewards(ctx context.Context) (sdkmath.Int, error) {
	before, err := s.balanceOf(ctx, s.cfg.RewardToken)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := s.staking.ClaimRewards(ctx); err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("claim rewards failed: %w", err)
	}
	after, err := s.balanceOf(ctx, s.cfg.RewardToken)
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	claimed := utils.SubFloorZero(after, before)
	s.stats.RewardsClaimed = s.stats.RewardsClaimed.Add(claimed)
	if claimed.IsPositive() {
		l := logFor(ctx, s.convLog)
		l.Info().Str("amount", claimed.String()).Msg("Claimed rewards")
	}
	return claimed, nil
}

// skimRewards sends SkimBps of the claimed rewards to the skim recipient.
func (s *Strategy) skimRewards(ctx context.Context, claimed sdkmath.Int) error {
	skim := utils.MulBps(claimed, s.current().params.SkimBps)
	if skim.IsZero() {
		return nil
	}
	if err := s.tokens.Transfer(ctx, s.cfg.RewardToken, s.cfg.SkimRecipient, skim); err != nil {
		return fmt.Errorf("reward skim transfer failed: %w", err)
	}
	s.stats.RewardsSkimmed = s.stats.RewardsSkimmed.Add(skim)
	l := logFor(ctx, s.convLog)
	l.Info().Str("amount", skim.String()).Str("recipient", s.cfg.SkimRecipient.Hex()).Msg("Skimmed rewards")
	return nil
}

func (s *Strategy) sellRewards(ctx context.Context) error {
	l := logFor(ctx, s.convLog)
	if s.cfg.RewardToken == s.cfg.Intermediate {
		return nil
	}
	bal, err := s.balanceOf(ctx, s.cfg.RewardToken)
	if err != nil {
		return err
	}
	dust := s.current().params.Dust.RewardDust
	if bal.LTE(dust) {
		l.Debug().Str("amount", bal.String()).Str("dust", dust.String()).Msg("Reward balance below dust, not selling")
		return nil
	}
	out, err := s.swap(ctx, bal, s.cfg.RewardRoute)
	if err != nil {
		return fmt.Errorf("sell rewards failed: %w", err)
	}
	s.stats.RewardsSold = s.stats.RewardsSold.Add(bal)
	s.stats.IntermediateOut = s.stats.IntermediateOut.Add(out)
	l.Info().Str("amount", bal.String()).Str("received", out.String()).Msg("Sold rewards")
	return nil
}

func (s *Strategy) convertToPoolAssets(ctx context.Context) error {
	l := logFor(ctx, s.convLog)
	bal, err := s.balanceOf(ctx, s.cfg.Intermediate)
	if err != nil {
		return err
	}
	if bal.IsZero() {
		return nil
	}

	half := bal.QuoRaw(2)
	legs := []struct {
		token  common.Address
		amount sdkmath.Int
		route  types.Route
	}{
		{s.cfg.Pool.TokenA, half, s.cfg.RouteA},
		{s.cfg.Pool.TokenB, bal.Sub(half), s.cfg.RouteB},
	}
	for _, leg := range legs {
		if leg.token == s.cfg.Intermediate || leg.amount.IsZero() {
			continue
		}
		if _, err := s.swap(ctx, leg.amount, leg.route); err != nil {
			return fmt.Errorf("swap into %s failed: %w", leg.token.Hex(), err)
		}
	}

	amountA, err := s.balanceOf(ctx, s.cfg.Pool.TokenA)
	if err != nil {
		return err
	}
	amountB, err := s.balanceOf(ctx, s.cfg.Pool.TokenB)
	if err != nil {
		return err
	}
	if amountA.IsZero() || amountB.IsZero() {
		l.Debug().Str("amount_a", amountA.String()).Str("amount_b", amountB.String()).Msg("One side is empty, not adding liquidity")
		return nil
	}

	minted, err := s.router.AddLiquidity(ctx, chain.AddLiquidityParams{
		TokenA:    s.cfg.Pool.TokenA,
		TokenB:    s.cfg.Pool.TokenB,
		Stable:    s.cfg.Pool.Stable,
		AmountA:   amountA,
		AmountB:   amountB,
		MinA:      nominalMinOut,
		MinB:      nominalMinOut,
		Recipient: s.cfg.Address,
		Deadline:  s.deadline(),
	})
	if err != nil {
		return fmt.Errorf("add liquidity failed: %w", err)
	}
	s.stats.LiquidityMinted = s.stats.LiquidityMinted.Add(minted)
	s.stats.LiquidityAdditions++
	l.Info().
		Str("amount_a", amountA.String()).
		Str("amount_b", amountB.String()).
		Str("minted", minted.String()).
		Msg("Added liquidity")
	return nil
}

func (s *Strategy) swap(ctx context.Context, amount sdkmath.Int, route types.Route) (sdkmath.Int, error) {
	out, err := s.router.SwapExact(ctx, amount, nominalMinOut, route, s.cfg.Address, s.deadline())
	if err != nil {
		return sdkmath.ZeroInt(), err
	}
	s.stats.SwapsExecuted++
	return out, nil
}

func (s *Strategy) balanceOf(ctx context.Context, token common.Address) (sdkmath.Int, error) {
	bal, err := s.tokens.BalanceOf(ctx, token, s.cfg.Address)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to read balance of %s: %w", token.Hex(), err)
	}
	return bal, nil
}
