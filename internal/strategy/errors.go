package strategy

import (
	"errors"

	"github.com/elys-network/lpstrategy/internal/slippage"
)

var (
	ErrConfiguration       = errors.New("configuration error")
	ErrInvalidParameter    = errors.New("invalid parameter")
	ErrUnauthorized        = errors.New("caller is not authorized")
	ErrReentrantCall       = errors.New("reentrant call")
	ErrCallPanicked        = errors.New("call panicked")
	ErrAccountingInvariant = errors.New("accounting invariant violated")
	ErrSlippageExceeded    = slippage.ErrSlippageExceeded
)

// SlippageError is returned when a staking move is rejected by the slippage guard.
type SlippageError = slippage.SlippageError
