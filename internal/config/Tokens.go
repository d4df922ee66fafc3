package config

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"

	"github.com/elys-network/lpstrategy/internal/types"
)

// Token metadata and optional route overrides.
var (
	// WantToken and RewardToken describe the farmed LP and its emission token. The
	// address is left to the chain backend.
	WantToken   types.Token
	RewardToken types.Token
	// ReferenceToken is the asset harvest profitability is measured in.
	ReferenceToken types.Token

	// RewardRoute, RouteA and RouteB override the simulated market's routes when set.
	RewardRoute types.Route
	RouteA      types.Route
	RouteB      types.Route
)

func loadTokenConfig() error {
	var err error
	WantToken = types.Token{Symbol: getEnvOrDefault("WANT_SYMBOL", "LP")}
	if WantToken.Decimals, err = getDecimals("WANT_DECIMALS"); err != nil {
		return err
	}
	RewardToken = types.Token{Symbol: getEnvOrDefault("REWARD_SYMBOL", "REWARD")}
	if RewardToken.Decimals, err = getDecimals("REWARD_DECIMALS"); err != nil {
		return err
	}
	ReferenceToken = types.Token{Symbol: getEnvOrDefault("REFERENCE_SYMBOL", "USDC")}
	if ReferenceToken.Decimals, err = getDecimals("REFERENCE_DECIMALS"); err != nil {
		return err
	}
	if RewardRoute, err = getEnvAsRoute("REWARD_ROUTE"); err != nil {
		return err
	}
	if RouteA, err = getEnvAsRoute("ROUTE_A"); err != nil {
		return err
	}
	if RouteB, err = getEnvAsRoute("ROUTE_B"); err != nil {
		return err
	}
	return nil
}

func getDecimals(key string) (int, error) {
	valueStr := getEnvOrDefault(key, "18")
	value, err := strconv.Atoi(valueStr)
	if err != nil || value < 0 || value > 18 {
		return 0, errEnv(key, "an integer between 0 and 18", valueStr)
	}
	return value, nil
}

func getEnvAsRoute(key string) (types.Route, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return nil, nil
	}
	route, err := ParseRoute(valueStr)
	if err != nil {
		return nil, fmt.Errorf("environment variable %s: %w", key, err)
	}
	return route, nil
}

// ParseRoute parses hops written as 0xFrom>0xTo:stable|volatile, joined by commas.
// The pool type defaults to volatile.
func ParseRoute(s string) (types.Route, error) {
	var route types.Route
	for _, raw := range strings.Split(s, ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			return nil, errors.New("empty hop")
		}

		pair, kind, hasKind := strings.Cut(raw, ":")
		stable := false
		if hasKind {
			switch strings.ToLower(strings.TrimSpace(kind)) {
			case "stable":
				stable = true
			case "volatile":
			default:
				return nil, fmt.Errorf("hop %q: pool type must be stable or volatile", raw)
			}
		}

		from, to, ok := strings.Cut(pair, ">")
		if !ok {
			return nil, fmt.Errorf("hop %q: expected 0xFrom>0xTo", raw)
		}
		from, to = strings.TrimSpace(from), strings.TrimSpace(to)
		if !common.IsHexAddress(from) || !common.IsHexAddress(to) {
			return nil, fmt.Errorf("hop %q: invalid address", raw)
		}
		route = append(route, types.Hop{From: common.HexToAddress(from), To: common.HexToAddress(to), Stable: stable})
	}
	return route, nil
}

func errEnv(key, want, got string) error {
	return errors.New("environment variable " + key + " must be " + want + ", got: " + got)
}
