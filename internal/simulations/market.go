package simulations

import (
	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/types"
)

var (
	_ chain.Vault   = (*VaultView)(nil)
	_ chain.Router  = (*RouterView)(nil)
	_ chain.Staking = (*StakingView)(nil)
	_ chain.Tokens  = (*TokenView)(nil)
	_ chain.Journal = (*Chain)(nil)
)

// Addresses of the default market.
var (
	WantToken    = common.HexToAddress("0x0000000000000000000000000000000000001001") // USDC/WETH LP
	USDCToken    = common.HexToAddress("0x0000000000000000000000000000000000001002")
	WETHToken    = common.HexToAddress("0x0000000000000000000000000000000000001003")
	RewardToken  = common.HexToAddress("0x0000000000000000000000000000000000001004")
	VaultAccount = common.HexToAddress("0x0000000000000000000000000000000000002001")
)

// Market is a ready-to-use chain with one volatile USDC/WETH pool whose LP is farmed for
// reward tokens. WETH is the intermediate asset, so the WETH leg of the split needs no swap.
type Market struct {
	*Chain
	Strategy     common.Address
	Pool         types.Pool
	Reward       common.Address
	Intermediate common.Address
	Reference    common.Address
	RewardRoute  types.Route
	RouteA       types.Route
	RouteB       types.Route
}

// NewMarket builds the default market with strategy registered at the given debt ratio.
//
//	reward -> WETH at 0.5, WETH -> USDC at 2, reward -> USDC at 1
//	1 USDC or 1 WETH mints 0.5 LP
func NewMarket(strategy common.Address, debtRatioBps uint64) *Market {
	pool := types.Pool{Want: WantToken, TokenA: USDCToken, TokenB: WETHToken, Stable: false}
	c := NewChain(Config{Pool: pool, RewardToken: RewardToken, Vault: VaultAccount})

	c.SetRate(RewardToken, WETHToken, false, sdkmath.LegacyNewDecWithPrec(5, 1))
	c.SetRate(WETHToken, USDCToken, false, sdkmath.LegacyNewDec(2))
	c.SetRate(USDCToken, WETHToken, false, sdkmath.LegacyNewDecWithPrec(5, 1))
	c.SetRate(RewardToken, USDCToken, false, sdkmath.LegacyOneDec())
	c.SetLPRate(USDCToken, sdkmath.LegacyNewDecWithPrec(5, 1))
	c.SetLPRate(WETHToken, sdkmath.LegacyNewDecWithPrec(5, 1))

	c.RegisterStrategy(strategy, debtRatioBps)

	return &Market{
		Chain:        c,
		Strategy:     strategy,
		Pool:         pool,
		Reward:       RewardToken,
		Intermediate: WETHToken,
		Reference:    USDCToken,
		RewardRoute:  types.Route{{From: RewardToken, To: WETHToken, Stable: false}},
		RouteA:       types.Route{{From: WETHToken, To: USDCToken, Stable: false}},
		RouteB:       nil,
	}
}

// Fund mints amount of want to the vault.
func (m *Market) Fund(amount sdkmath.Int) {
	m.Mint(m.Pool.Want, VaultAccount, amount)
}
