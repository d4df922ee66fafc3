/*

This file contains the pool and conversion route types the strategy is configured with.
Both are fixed for the lifetime of a strategy instance.

*/

package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

var (
	ErrEmptyRoute         = errors.New("route has no hops")
	ErrRouteDiscontinuous = errors.New("route hops are not contiguous")
	ErrRouteEndpoints     = errors.New("route does not connect the expected tokens")
)

// Pool describes the AMM pool whose LP token (the want) this strategy grows.
type Pool struct {
	Want   common.Address `json:"want"`    // LP token of the pool
	TokenA common.Address `json:"token_a"` // first constituent asset
	TokenB common.Address `json:"token_b"` // second constituent asset
	Stable bool           `json:"stable"`  // true for correlated (stable curve) pools
}

// Hop is a single swap through one pair.
type Hop struct {
	From   common.Address `json:"from"`
	To     common.Address `json:"to"`
	Stable bool           `json:"stable"`
}

// Route is an ordered sequence of hops converting Route[0].From into Route[len-1].To.
type Route []Hop

// From returns the input token of the route, or the zero address for an empty route.
func (r Route) From() common.Address {
	if len(r) == 0 {
		return common.Address{}
	}
	return r[0].From
}

// To returns the output token of the route, or the zero address for an empty route.
func (r Route) To() common.Address {
	if len(r) == 0 {
		return common.Address{}
	}
	return r[len(r)-1].To
}

// Validate checks that the route is non-empty, contiguous and connects from -> to.
func (r Route) Validate(from, to common.Address) error {
	if len(r) == 0 {
		return ErrEmptyRoute
	}
	for i := 1; i < len(r); i++ {
		if r[i-1].To != r[i].From {
			return fmt.Errorf("%w: hop %d ends at %s but hop %d starts at %s",
				ErrRouteDiscontinuous, i-1, r[i-1].To.Hex(), i, r[i].From.Hex())
		}
	}
	if r.From() != from || r.To() != to {
		return fmt.Errorf("%w: route %s->%s, expected %s->%s",
			ErrRouteEndpoints, r.From().Hex(), r.To().Hex(), from.Hex(), to.Hex())
	}
	return nil
}
