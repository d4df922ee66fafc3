package simulations

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

func (c *Chain) balanceLocked(token, account common.Address) sdkmath.Int {
	if accounts, ok := c.st.balances[token]; ok {
		if v, ok := accounts[account]; ok {
			return v
		}
	}
	return sdkmath.ZeroInt()
}

func (c *Chain) setBalanceLocked(token, account common.Address, amount sdkmath.Int) {
	accounts, ok := c.st.balances[token]
	if !ok {
		accounts = make(map[common.Address]sdkmath.Int)
		c.st.balances[token] = accounts
	}
	accounts[account] = amount
}

func (c *Chain) mintLocked(token, account common.Address, amount sdkmath.Int) {
	c.setBalanceLocked(token, account, c.balanceLocked(token, account).Add(amount))
}

func (c *Chain) burnLocked(token, account common.Address, amount sdkmath.Int) error {
	bal := c.balanceLocked(token, account)
	if bal.LT(amount) {
		return fmt.Errorf("%w: %s holds %s of %s, needs %s", ErrInsufficientBalance, account.Hex(), bal, token.Hex(), amount)
	}
	c.setBalanceLocked(token, account, bal.Sub(amount))
	return nil
}

func (c *Chain) transferLocked(token, from, to common.Address, amount sdkmath.Int) error {
	if amount.IsNegative() {
		return ErrNegativeAmount
	}
	if err := c.burnLocked(token, from, amount); err != nil {
		return err
	}
	c.mintLocked(token, to, amount)
	return nil
}

// Mint credits amount of token to account.
func (c *Chain) Mint(token, account common.Address, amount sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mintLocked(token, account, amount)
}

// Balance returns the balance of token held by account.
func (c *Chain) Balance(token, account common.Address) sdkmath.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.balanceLocked(token, account)
}

// TokenView is the token ledger as seen by one account.
type TokenView struct {
	c       *Chain
	account common.Address
}

// Tokens returns the ledger bound to account.
func (c *Chain) Tokens(account common.Address) *TokenView {
	return &TokenView{c: c, account: account}
}

func (v *TokenView) BalanceOf(_ context.Context, token, account common.Address) (sdkmath.Int, error) {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	if err := v.c.enter(OpBalanceOf); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return v.c.balanceLocked(token, account), nil
}

func (v *TokenView) Transfer(_ context.Context, token, to common.Address, amount sdkmath.Int) error {
	v.c.mu.Lock()
	defer v.c.mu.Unlock()
	if err := v.c.enter(OpTransfer); err != nil {
		return err
	}
	return v.c.transferLocked(token, v.account, to, amount)
}
