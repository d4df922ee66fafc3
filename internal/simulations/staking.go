package simulations

import (
	"context"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
)

// stakingAddress holds the want deposited by every staker.
var stakingAddress = common.HexToAddress("0x000000000000000000000000000000000005a4e0")

// StakingView is the staking contract as called by one account.
type StakingView struct {
	c       *Chain
	account common.Address
}

// Staking returns the staking contract bound to account.
func (c *Chain) Staking(account common.Address) *StakingView {
	return &StakingView{c: c, account: account}
}

func (c *Chain) stakedLocked(account common.Address) sdkmath.Int {
	if v, ok := c.st.staked[account]; ok {
		return v
	}
	return sdkmath.ZeroInt()
}

func (c *Chain) pendingLocked(account common.Address) sdkmath.Int {
	if v, ok := c.st.pending[account]; ok {
		return v
	}
	return sdkmath.ZeroInt()
}

// AccrueRewards adds amount to account's pending rewards.
func (c *Chain) AccrueRewards(account common.Address, amount sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.st.pending[account] = c.pendingLocked(account).Add(amount)
}

// SetStaked sets account's stake, minting the backing want to the staking contract.
func (c *Chain) SetStaked(account common.Address, amount sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.mintLocked(c.cfg.StakingToken, stakingAddress, amount)
	c.st.staked[account] = amount
}

// Staked returns account's stake without counting a call.
func (c *Chain) Staked(account common.Address) sdkmath.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stakedLocked(account)
}

// Pending returns account's pending rewards without counting a call.
func (c *Chain) Pending(account common.Address) sdkmath.Int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked(account)
}

func (s *StakingView) StakingToken(_ context.Context) (common.Address, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	return s.c.cfg.StakingToken, nil
}

// Stake takes amount of want and credits it minus the stake haircut.
func (s *StakingView) Stake(_ context.Context, amount sdkmath.Int) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.enter(OpStake); err != nil {
		return err
	}
	if err := s.c.transferLocked(s.c.cfg.StakingToken, s.account, stakingAddress, amount); err != nil {
		return err
	}
	s.c.st.staked[s.account] = s.c.stakedLocked(s.account).Add(haircut(amount, s.c.stakeHaircutBps))
	return nil
}

// Unstake debits amount of stake and pays it out minus the unstake haircut.
func (s *StakingView) Unstake(_ context.Context, amount sdkmath.Int) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.enter(OpUnstake); err != nil {
		return err
	}
	staked := s.c.stakedLocked(s.account)
	if staked.LT(amount) {
		return fmt.Errorf("%w: staked %s, requested %s", ErrInsufficientStake, staked, amount)
	}
	s.c.st.staked[s.account] = staked.Sub(amount)
	return s.c.payoutLocked(s.account, haircut(amount, s.c.unstakeHaircutBps))
}

func (c *Chain) payoutLocked(account common.Address, amount sdkmath.Int) error {
	// the contract may hold less than staked when stake was given via SetStaked with haircuts
	held := c.balanceLocked(c.cfg.StakingToken, stakingAddress)
	if held.LT(amount) {
		c.mintLocked(c.cfg.StakingToken, stakingAddress, amount.Sub(held))
	}
	return c.transferLocked(c.cfg.StakingToken, stakingAddress, account, amount)
}

func (s *StakingView) ClaimRewards(_ context.Context) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.enter(OpClaim); err != nil {
		return err
	}
	pending := s.c.pendingLocked(s.account)
	if pending.IsPositive() {
		s.c.mintLocked(s.c.cfg.RewardToken, s.account, pending)
	}
	s.c.st.pending[s.account] = sdkmath.ZeroInt()
	return nil
}

func (s *StakingView) StakedBalanceOf(_ context.Context, account common.Address) (sdkmath.Int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.enter(OpStakedBalance); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return s.c.stakedLocked(account), nil
}

func (s *StakingView) PendingRewards(_ context.Context, account common.Address) (sdkmath.Int, error) {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.enter(OpPendingRewards); err != nil {
		return sdkmath.ZeroInt(), err
	}
	return s.c.pendingLocked(account), nil
}

// EmergencyUnstake returns the whole stake without haircut and forfeits pending rewards.
func (s *StakingView) EmergencyUnstake(_ context.Context) error {
	s.c.mu.Lock()
	defer s.c.mu.Unlock()
	if err := s.c.enter(OpEmergencyUnstake); err != nil {
		return err
	}
	if !s.c.emergency {
		return ErrNotEmergency
	}
	staked := s.c.stakedLocked(s.account)
	s.c.st.staked[s.account] = sdkmath.ZeroInt()
	s.c.st.pending[s.account] = sdkmath.ZeroInt()
	return s.c.payoutLocked(s.account, staked)
}
