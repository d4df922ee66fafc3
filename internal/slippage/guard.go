/*
Package slippage validates realised staking deltas against the configured tolerance.

Both checks only count shortfalls: receiving more than intended always passes.
Checks run after the operation, and a failure aborts the enclosing call.
*/
package slippage

import (
	"errors"
	"fmt"

	sdkmath "cosmossdk.io/math"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/metrics"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

var ErrSlippageExceeded = errors.New("slippage exceeded")

// Direction of a checked move.
type Direction string

const (
	DirectionIn  Direction = "in"  // want -> staked
	DirectionOut Direction = "out" // staked -> want
)

// SlippageError describes a rejected move.
type SlippageError struct {
	Direction Direction
	Intended  sdkmath.Int
	Actual    sdkmath.Int
	Slipped   sdkmath.Int
	Allowed   sdkmath.Int
	MaxBps    uint64
}

func (e *SlippageError) Error() string {
	return fmt.Sprintf("%s: direction=%s intended=%s actual=%s slipped=%s allowed=%s (max %d bps)",
		ErrSlippageExceeded, e.Direction, e.Intended, e.Actual, e.Slipped, e.Allowed, e.MaxBps)
}

func (e *SlippageError) Is(target error) bool {
	return target == ErrSlippageExceeded
}

// Guard holds the current tolerances. The owner replaces Config when governance changes it.
type Guard struct {
	Config types.SlippageConfig
	log    zerolog.Logger
}

// NewGuard creates a guard for cfg.
func NewGuard(cfg types.SlippageConfig) *Guard {
	return &Guard{Config: cfg, log: logger.GetForComponent("slippage_guard")}
}

// EnforceIn checks a staking deposit of amountIn that moved the staked balance from
// stakedBefore to stakedAfter.
func (g *Guard) EnforceIn(amountIn, stakedBefore, stakedAfter sdkmath.Int) error {
	delta := stakedAfter.Sub(stakedBefore)
	if delta.IsNegative() {
		delta = sdkmath.ZeroInt()
	}
	return g.check(DirectionIn, amountIn, delta, g.Config.MaxSlippageInBps)
}

// EnforceOut checks a withdrawal that intended to yield intended and yielded actual.
func (g *Guard) EnforceOut(intended, actual sdkmath.Int) error {
	return g.check(DirectionOut, intended, actual, g.Config.MaxSlippageOutBps)
}

func (g *Guard) check(dir Direction, intended, actual sdkmath.Int, maxBps uint64) error {
	slipped := utils.SubFloorZero(intended, actual)
	if slipped.IsZero() {
		return nil
	}
	allowed := utils.MulBps(intended, maxBps)
	if slipped.LTE(allowed) {
		g.log.Debug().
			Str("direction", string(dir)).
			Str("slipped", slipped.String()).
			Str("allowed", allowed.String()).
			Msg("Slippage within tolerance")
		return nil
	}

	metrics.SlippageRejections.WithLabelValues(string(dir)).Inc()
	g.log.Warn().
		Str("direction", string(dir)).
		Str("intended", intended.String()).
		Str("actual", actual.String()).
		Str("slipped", slipped.String()).
		Str("allowed", allowed.String()).
		Msg("Slippage check failed")
	return &SlippageError{
		Direction: dir,
		Intended:  intended,
		Actual:    actual,
		Slipped:   slipped,
		Allowed:   allowed,
		MaxBps:    maxBps,
	}
}
