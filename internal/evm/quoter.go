/*
Package evm provides a live quote source backed by a Solidly-style router contract.
Only read calls are made; nothing here signs or sends transactions.
*/
package evm

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/logger"
)

const routerABI = `[
  {
    "inputs": [
      {"internalType": "uint256", "name": "amountIn", "type": "uint256"},
      {"internalType": "address", "name": "tokenIn", "type": "address"},
      {"internalType": "address", "name": "tokenOut", "type": "address"}
    ],
    "name": "getAmountOut",
    "outputs": [
      {"internalType": "uint256", "name": "amount", "type": "uint256"},
      {"internalType": "bool", "name": "stable", "type": "bool"}
    ],
    "stateMutability": "view",
    "type": "function"
  }
]`

const getAmountOutMethod = "getAmountOut"

var (
	ErrInvalidRouter   = errors.New("router address is not set")
	ErrUnexpectedReply = errors.New("unexpected router reply")
)

// ContractCaller is the read-only subset of ethclient.Client used by the quoter.
type ContractCaller interface {
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// Quoter implements chain.Quoter against router.getAmountOut.
type Quoter struct {
	caller ContractCaller
	router common.Address
	abi    abi.ABI
	client *ethclient.Client // set when the quoter owns the connection
	log    zerolog.Logger
}

// NewQuoter wraps an existing caller.
func NewQuoter(caller ContractCaller, router common.Address) (*Quoter, error) {
	if router == (common.Address{}) {
		return nil, ErrInvalidRouter
	}
	parsed, err := abi.JSON(strings.NewReader(routerABI))
	if err != nil {
		return nil, fmt.Errorf("failed to parse router ABI: %w", err)
	}
	return &Quoter{
		caller: caller,
		router: router,
		abi:    parsed,
		log:    logger.GetForComponent("evm_quoter"),
	}, nil
}

// Dial connects to rpcURL and returns a quoter owning the connection.
func Dial(ctx context.Context, rpcURL string, router common.Address) (*Quoter, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", rpcURL, err)
	}
	q, err := NewQuoter(client, router)
	if err != nil {
		client.Close()
		return nil, err
	}
	q.client = client
	q.log.Info().Str("router", router.Hex()).Msg("Connected to router RPC")
	return q, nil
}

// QuoteOutput returns the router's best-pair estimate for swapping amountIn of from into to.
func (q *Quoter) QuoteOutput(ctx context.Context, amountIn sdkmath.Int, from, to common.Address) (sdkmath.Int, error) {
	if amountIn.IsNil() || !amountIn.IsPositive() {
		return sdkmath.ZeroInt(), nil
	}
	data, err := q.abi.Pack(getAmountOutMethod, amountIn.BigInt(), from, to)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("failed to pack %s: %w", getAmountOutMethod, err)
	}

	router := q.router
	reply, err := q.caller.CallContract(ctx, ethereum.CallMsg{To: &router, Data: data}, nil)
	if err != nil {
		return sdkmath.ZeroInt(), fmt.Errorf("%s call failed: %w", getAmountOutMethod, err)
	}

	values, err := q.abi.Unpack(getAmountOutMethod, reply)
	if err != nil {
		return sdkmath.ZeroInt(), errors.Join(ErrUnexpectedReply, err)
	}
	if len(values) != 2 {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: %d values", ErrUnexpectedReply, len(values))
	}
	amount, ok := values[0].(*big.Int)
	if !ok {
		return sdkmath.ZeroInt(), fmt.Errorf("%w: amount is %T", ErrUnexpectedReply, values[0])
	}
	stable, _ := values[1].(bool)

	q.log.Debug().
		Str("from", from.Hex()).
		Str("to", to.Hex()).
		Str("amount_in", amountIn.String()).
		Str("amount_out", amount.String()).
		Bool("stable", stable).
		Msg("Router quote")
	return sdkmath.NewIntFromBigInt(amount), nil
}

// Close releases the RPC connection if the quoter dialed it.
func (q *Quoter) Close() {
	if q.client != nil {
		q.client.Close()
	}
}
