/*
Package oracle values token amounts in a reference asset through the router's quote function.
It is used to decide whether pending rewards are worth a harvest.
*/
package oracle

import (
	"context"
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/logger"
)

var (
	ErrNoQuoter    = errors.New("oracle has no quoter")
	ErrQuoteFailed = errors.New("quote failed")
)

type Oracle struct {
	quoter    chain.Quoter
	reference common.Address
	log       zerolog.Logger
}

// New creates an oracle that values amounts in reference.
func New(quoter chain.Quoter, reference common.Address) (*Oracle, error) {
	if quoter == nil {
		return nil, ErrNoQuoter
	}
	return &Oracle{
		quoter:    quoter,
		reference: reference,
		log:       logger.GetForComponent("quote_oracle"),
	}, nil
}

// Reference returns the asset values are expressed in.
func (o *Oracle) Reference() common.Address {
	return o.reference
}

// Value returns amount of token expressed in the reference asset.
func (o *Oracle) Value(ctx context.Context, token common.Address, amount sdkmath.Int) (sdkmath.Int, error) {
	if amount.IsNil() || !amount.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	if token == o.reference {
		return amount, nil
	}
	out, err := o.quoter.QuoteOutput(ctx, amount, token, o.reference)
	if err != nil {
		return sdkmath.ZeroInt(), errors.Join(ErrQuoteFailed, fmt.Errorf("%s -> %s: %w", token.Hex(), o.reference.Hex(), err))
	}
	o.log.Debug().
		Str("token", token.Hex()).
		Str("amount", amount.String()).
		Str("value", out.String()).
		Msg("Quoted value")
	return out, nil
}

// RewardValue values the rewards account has accrued but not claimed together with the
// reward tokens it already holds.
func (o *Oracle) RewardValue(ctx context.Context, staking chain.Staking, account, rewardToken common.Address, held sdkmath.Int) (sdkmath.Int, error) {
	pending, err := staking.PendingRewards(ctx, account)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to read pending rewards: %w", err)
	}
	if !held.IsNil() {
		pending = pending.Add(held)
	}
	return o.Value(ctx, rewardToken, pending)
}
