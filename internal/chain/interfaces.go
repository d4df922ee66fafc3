package chain

import (
	"context"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/types"
)

// The interfaces below abstract the external contracts the strategy talks to, allowing
// for different implementations (simulation, live RPC, mocks in tests). Every
// state-changing call acts on behalf of the strategy's own account.

// Vault is the ledger that lends capital to the strategy and receives its reports.
type Vault interface {
	// StrategyDebtInfo returns the vault's debt record for the strategy.
	StrategyDebtInfo(ctx context.Context, strategy common.Address) (types.DebtRecord, error)

	// DebtOutstanding returns how much the vault wants back from the strategy right now.
	DebtOutstanding(ctx context.Context, strategy common.Address) (sdkmath.Int, error)

	// Report settles a harvest. The vault pulls profit + debtPayment from the strategy's idle
	// balance, books the loss, may issue new credit and returns the new debt outstanding.
	Report(ctx context.Context, strategy common.Address, profit, loss, debtPayment sdkmath.Int) (sdkmath.Int, error)

	// RevokeStrategy sets the strategy's debt ratio to zero.
	RevokeStrategy(ctx context.Context, strategy common.Address) error
}

// Quoter estimates swap output without executing it.
type Quoter interface {
	QuoteOutput(ctx context.Context, amountIn sdkmath.Int, from, to common.Address) (sdkmath.Int, error)
}

// AddLiquidityParams mirrors the router's addLiquidity arguments.
type AddLiquidityParams struct {
	TokenA    common.Address
	TokenB    common.Address
	Stable    bool
	AmountA   sdkmath.Int
	AmountB   sdkmath.Int
	MinA      sdkmath.Int
	MinB      sdkmath.Int
	Recipient common.Address
	Deadline  time.Time
}

// Router is the AMM router used for swaps and liquidity composition.
type Router interface {
	Quoter

	// SwapExact swaps amountIn along route and returns the amount received by recipient.
	SwapExact(ctx context.Context, amountIn, minOut sdkmath.Int, route types.Route, recipient common.Address, deadline time.Time) (sdkmath.Int, error)

	// AddLiquidity deposits both assets and returns the LP tokens minted to the recipient.
	AddLiquidity(ctx context.Context, params AddLiquidityParams) (sdkmath.Int, error)
}

// Staking is the reward-emitting contract that accepts want deposits.
type Staking interface {
	StakingToken(ctx context.Context) (common.Address, error)
	Stake(ctx context.Context, amount sdkmath.Int) error
	Unstake(ctx context.Context, amount sdkmath.Int) error
	ClaimRewards(ctx context.Context) error
	StakedBalanceOf(ctx context.Context, account common.Address) (sdkmath.Int, error)
	PendingRewards(ctx context.Context, account common.Address) (sdkmath.Int, error)

	// EmergencyUnstake returns the full stake without rewards. Only honoured when the
	// staking contract itself is in emergency mode.
	EmergencyUnstake(ctx context.Context) error
}

// Tokens are the ERC20 style balance and transfer primitives.
type Tokens interface {
	BalanceOf(ctx context.Context, token, account common.Address) (sdkmath.Int, error)
	Transfer(ctx context.Context, token, to common.Address, amount sdkmath.Int) error
}

// Journal is the unit of work around a state-mutating call. RevertToSnapshot undoes
// every collaborator state change made since the matching Snapshot; DiscardSnapshot
// keeps them and forgets the snapshot. Both also drop every later snapshot.
type Journal interface {
	Snapshot() int
	RevertToSnapshot(id int)
	DiscardSnapshot(id int)
}

// Authorizer decides whether a caller holds the privileged configuration role.
type Authorizer interface {
	Authorized(caller common.Address) bool
}
