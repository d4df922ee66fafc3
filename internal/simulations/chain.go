/*
Package simulations provides an in-memory chain implementing every collaborator the
strategy talks to: token ledger, AMM router, staking contract and vault.

It is used by tests and by the strategy binary in simulation mode. State changes made
through the account-bound views can be rolled back with Snapshot/RevertToSnapshot,
which gives the strategy the same all-or-nothing behaviour a real transaction has.
*/
package simulations

import (
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInsufficientStake   = errors.New("insufficient staked balance")
	ErrNoPool              = errors.New("no pool for pair")
	ErrDeadlineExpired     = errors.New("deadline expired")
	ErrInsufficientOutput  = errors.New("insufficient output amount")
	ErrWrongPool           = errors.New("liquidity tokens do not match the pool")
	ErrNotEmergency        = errors.New("staking contract is not in emergency mode")
	ErrUnknownStrategy     = errors.New("strategy is not registered with the vault")
	ErrInvalidSnapshot     = errors.New("invalid snapshot id")
	ErrNegativeAmount      = errors.New("negative amount")
)

// Op names a collaborator call for fault injection and call counting.
type Op string

const (
	OpBalanceOf        Op = "balance_of"
	OpTransfer         Op = "transfer"
	OpQuote            Op = "quote"
	OpSwap             Op = "swap"
	OpAddLiquidity     Op = "add_liquidity"
	OpStake            Op = "stake"
	OpUnstake          Op = "unstake"
	OpClaim            Op = "claim_rewards"
	OpStakedBalance    Op = "staked_balance"
	OpPendingRewards   Op = "pending_rewards"
	OpEmergencyUnstake Op = "emergency_unstake"
	OpDebtInfo         Op = "strategy_debt_info"
	OpDebtOutstanding  Op = "debt_outstanding"
	OpReport           Op = "report"
	OpRevoke           Op = "revoke_strategy"
)

// Config describes the pool and contracts being simulated.
type Config struct {
	Pool         types.Pool
	RewardToken  common.Address
	StakingToken common.Address // defaults to Pool.Want
	Vault        common.Address // account holding the vault's idle want
	StartTime    time.Time
}

type pairKey struct {
	from, to common.Address
	stable   bool
}

type strategyDebt struct {
	debtRatioBps uint64
	totalDebt    sdkmath.Int
	lastReport   time.Time
	totalGain    sdkmath.Int
	totalLoss    sdkmath.Int
}

// state is the part of the chain covered by snapshots.
type state struct {
	balances   map[common.Address]map[common.Address]sdkmath.Int // token -> account -> amount
	staked     map[common.Address]sdkmath.Int
	pending    map[common.Address]sdkmath.Int
	strategies map[common.Address]*strategyDebt
}

func newState() *state {
	return &state{
		balances:   make(map[common.Address]map[common.Address]sdkmath.Int),
		staked:     make(map[common.Address]sdkmath.Int),
		pending:    make(map[common.Address]sdkmath.Int),
		strategies: make(map[common.Address]*strategyDebt),
	}
}

// copy deep-copies the state. sdkmath.Int is immutable so values are shared.
func (s *state) copy() *state {
	cp := newState()
	for token, accounts := range s.balances {
		m := make(map[common.Address]sdkmath.Int, len(accounts))
		for a, v := range accounts {
			m[a] = v
		}
		cp.balances[token] = m
	}
	for a, v := range s.staked {
		cp.staked[a] = v
	}
	for a, v := range s.pending {
		cp.pending[a] = v
	}
	for a, d := range s.strategies {
		dd := *d
		cp.strategies[a] = &dd
	}
	return cp
}

// Chain is the simulated environment. All views share its lock.
type Chain struct {
	mu  sync.Mutex
	cfg Config
	st  *state

	snapshots []*state

	// market configuration, not covered by snapshots
	rates             map[pairKey]sdkmath.LegacyDec
	lpRates           map[common.Address]sdkmath.LegacyDec
	stakeHaircutBps   uint64
	unstakeHaircutBps uint64
	rewardRate        sdkmath.Int // reward units per second across all stakers
	emergency         bool

	now      time.Time
	failures map[Op][]error
	calls    map[Op]int

	log zerolog.Logger
}

// NewChain creates an empty chain for cfg.
func NewChain(cfg Config) *Chain {
	if cfg.StakingToken == (common.Address{}) {
		cfg.StakingToken = cfg.Pool.Want
	}
	start := cfg.StartTime
	if start.IsZero() {
		start = time.Unix(1_700_000_000, 0).UTC()
	}
	return &Chain{
		cfg:        cfg,
		st:         newState(),
		rates:      make(map[pairKey]sdkmath.LegacyDec),
		lpRates:    make(map[common.Address]sdkmath.LegacyDec),
		rewardRate: sdkmath.ZeroInt(),
		now:        start,
		failures:   make(map[Op][]error),
		calls:      make(map[Op]int),
		log:        logger.GetForComponent("simulated_chain"),
	}
}

// --- Journal ---

// Snapshot records the current state and returns its id.
func (c *Chain) Snapshot() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshots = append(c.snapshots, c.st.copy())
	return len(c.snapshots) - 1
}

// RevertToSnapshot restores the state recorded by id and discards it and every later snapshot.
func (c *Chain) RevertToSnapshot(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.snapshots) {
		panic(fmt.Errorf("%w: %d (have %d)", ErrInvalidSnapshot, id, len(c.snapshots)))
	}
	c.st = c.snapshots[id]
	c.snapshots = c.snapshots[:id]
	c.log.Debug().Int("snapshot", id).Msg("Reverted state")
}

// DiscardSnapshot forgets the snapshot id and every later one, keeping the current state.
func (c *Chain) DiscardSnapshot(id int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id < 0 || id >= len(c.snapshots) {
		panic(fmt.Errorf("%w: %d (have %d)", ErrInvalidSnapshot, id, len(c.snapshots)))
	}
	c.snapshots = c.snapshots[:id]
}

// Snapshots returns how many snapshots are open.
func (c *Chain) Snapshots() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.snapshots)
}

// --- Clock ---

// Now returns the simulated block time.
func (c *Chain) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// SetTime moves the clock to t.
func (c *Chain) SetTime(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

// Advance moves the clock forward by d and accrues rewards at the configured rate.
func (c *Chain) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
	c.accrueLocked(d)
}

func (c *Chain) accrueLocked(d time.Duration) {
	seconds := int64(d / time.Second)
	if seconds <= 0 || !c.rewardRate.IsPositive() {
		return
	}
	total := sdkmath.ZeroInt()
	for _, v := range c.st.staked {
		total = total.Add(v)
	}
	if !total.IsPositive() {
		return
	}
	emitted := c.rewardRate.MulRaw(seconds)
	for account, v := range c.st.staked {
		if !v.IsPositive() {
			continue
		}
		share := emitted.Mul(v).Quo(total)
		c.st.pending[account] = c.pendingLocked(account).Add(share)
	}
}

// --- Fault injection and counters ---

// FailNext makes the next call of op fail with err before touching state.
func (c *Chain) FailNext(op Op, err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures[op] = append(c.failures[op], err)
}

// Calls returns how many times op was invoked, including failed calls.
func (c *Chain) Calls(op Op) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.calls[op]
}

// ResetCalls zeroes the call counters.
func (c *Chain) ResetCalls() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = make(map[Op]int)
}

// enter counts the call and pops an injected failure. Caller holds c.mu.
func (c *Chain) enter(op Op) error {
	c.calls[op]++
	if errs := c.failures[op]; len(errs) > 0 {
		err := errs[0]
		c.failures[op] = errs[1:]
		c.log.Debug().Str("op", string(op)).Err(err).Msg("Injected failure")
		return err
	}
	return nil
}

// --- Market configuration ---

// SetRate sets the swap rate for from -> to on the given curve. The rate includes fees.
func (c *Chain) SetRate(from, to common.Address, stable bool, rate sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rates[pairKey{from, to, stable}] = rate
}

// SetLPRate sets how many LP tokens one unit of token mints on liquidity composition.
func (c *Chain) SetLPRate(token common.Address, rate sdkmath.LegacyDec) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lpRates[token] = rate
}

// SetStakingHaircuts makes stake credit (and unstake pay out) that much less, in bps.
func (c *Chain) SetStakingHaircuts(stakeBps, unstakeBps uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stakeHaircutBps = stakeBps
	c.unstakeHaircutBps = unstakeBps
}

// SetRewardRate sets the emission used by Advance.
func (c *Chain) SetRewardRate(perSecond sdkmath.Int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.rewardRate = perSecond
}

// SetEmergency toggles the staking contract's emergency-withdraw mode.
func (c *Chain) SetEmergency(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.emergency = on
}

// SetStakingToken changes the token the staking contract reports it accepts.
func (c *Chain) SetStakingToken(token common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cfg.StakingToken = token
}

// Config returns the chain's configuration.
func (c *Chain) Config() Config {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.cfg
}

func haircut(amount sdkmath.Int, bps uint64) sdkmath.Int {
	return amount.Sub(utils.MulBps(amount, bps))
}
