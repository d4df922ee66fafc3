package simulations

import (
	"context"
	"fmt"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/types"
)

// RouterView is the AMM router as called by one account. Pools have unbounded depth:
// every hop pays amountIn * rate of the output token.
type RouterView struct {
	c       *Chain
	account common.Address
}

// Router returns the router bound to account.
func (c *Chain) Router(account common.Address) *RouterView {
	return &RouterView{c: c, account: account}
}

func (c *Chain) hopOutLocked(amount sdkmath.Int, from, to common.Address, stable bool) (sdkmath.Int, error) {
	rate, ok := c.rates[pairKey{from, to, stable}]
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s -> %s (stable=%t)", ErrNoPool, from.Hex(), to.Hex(), stable)
	}
	return sdkmath.LegacyNewDecFromInt(amount).Mul(rate).TruncateInt(), nil
}

// QuoteOutput returns the better of the volatile and stable direct pairs.
func (r *RouterView) QuoteOutput(_ context.Context, amountIn sdkmath.Int, from, to common.Address) (sdkmath.Int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.enter(OpQuote); err != nil {
		return sdkmath.ZeroInt(), err
	}
	best := sdkmath.ZeroInt()
	found := false
	for _, stable := range []bool{false, true} {
		out, err := r.c.hopOutLocked(amountIn, from, to, stable)
		if err != nil {
			continue
		}
		found = true
		best = sdkmath.MaxInt(best, out)
	}
	if !found {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %s -> %s", ErrNoPool, from.Hex(), to.Hex())
	}
	return best, nil
}

func (r *RouterView) SwapExact(_ context.Context, amountIn, minOut sdkmath.Int, route types.Route, recipient common.Address, deadline time.Time) (sdkmath.Int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.enter(OpSwap); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if len(route) == 0 {
		return sdkmath.ZeroInt(), types.ErrEmptyRoute
	}
	if r.c.now.After(deadline) {
		return sdkmath.ZeroInt(), ErrDeadlineExpired
	}

	amount := amountIn
	for _, hop := range route {
		out, err := r.c.hopOutLocked(amount, hop.From, hop.To, hop.Stable)
		if err != nil {
			return sdkmath.ZeroInt(), err
		}
		amount = out
	}
	if amount.LT(minOut) {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: got %s, min %s", ErrInsufficientOutput, amount, minOut)
	}

	if err := r.c.burnLocked(route.From(), r.account, amountIn); err != nil {
		return sdkmath.ZeroInt(), err
	}
	r.c.mintLocked(route.To(), recipient, amount)
	r.c.log.Debug().
		Str("from", route.From().Hex()).
		Str("to", route.To().Hex()).
		Str("amount_in", amountIn.String()).
		Str("amount_out", amount.String()).
		Msg("Swap executed")
	return amount, nil
}

func (r *RouterView) AddLiquidity(_ context.Context, p chain.AddLiquidityParams) (sdkmath.Int, error) {
	r.c.mu.Lock()
	defer r.c.mu.Unlock()
	if err := r.c.enter(OpAddLiquidity); err != nil {
		return sdkmath.ZeroInt(), err
	}
	pool := r.c.cfg.Pool
	sameOrder := p.TokenA == pool.TokenA && p.TokenB == pool.TokenB
	swapped := p.TokenA == pool.TokenB && p.TokenB == pool.TokenA
	if (!sameOrder && !swapped) || p.Stable != pool.Stable {
		return sdkmath.ZeroInt(), ErrWrongPool
	}
	if r.c.now.After(p.Deadline) {
		return sdkmath.ZeroInt(), ErrDeadlineExpired
	}
	if p.AmountA.LT(p.MinA) || p.AmountB.LT(p.MinB) {
		return sdkmath.ZeroInt(), ErrInsufficientOutput
	}

	liquidity := sdkmath.LegacyZeroDec()
	for _, leg := range []struct {
		token  common.Address
		amount sdkmath.Int
	}{{p.TokenA, p.AmountA}, {p.TokenB, p.AmountB}} {
		rate, ok := r.c.lpRates[leg.token]
		if !ok {
			return sdkmath.ZeroInt(), fmt.Errorf("%w: no LP rate for %s", ErrNoPool, leg.token.Hex())
		}
		liquidity = liquidity.Add(sdkmath.LegacyNewDecFromInt(leg.amount).Mul(rate))
	}

	if err := r.c.burnLocked(p.TokenA, r.account, p.AmountA); err != nil {
		return sdkmath.ZeroInt(), err
	}
	if err := r.c.burnLocked(p.TokenB, r.account, p.AmountB); err != nil {
		return sdkmath.ZeroInt(), err
	}
	minted := liquidity.TruncateInt()
	r.c.mintLocked(pool.Want, p.Recipient, minted)
	return minted, nil
}
