package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lpstrategy/internal/types"
)

// ModeSimulation runs the strategy against the in-memory chain. No other mode is accepted.
const ModeSimulation = "simulation"

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// StrategyMode selects the chain backend. Only "simulation" is supported.
	StrategyMode string
	// ConfigName keys the persisted strategy parameters.
	ConfigName string

	// StrategyAddress is the strategy's own account.
	StrategyAddress common.Address
	// Governance lists the accounts allowed to change parameters. Empty allows everyone.
	Governance []common.Address
	// SkimRecipient receives the reward skim when SkimBps is set.
	SkimRecipient common.Address

	// HarvestPolicy selects the accounting policy.
	HarvestPolicy types.HarvestPolicy
	// TruncationPriority overrides the policy's default truncation when set.
	TruncationPriority types.TruncationPriority
	// AbandonRewards makes migration skip claiming.
	AbandonRewards bool
	// ForwardIdleOnMigration forwards idle want to the successor on migration.
	ForwardIdleOnMigration bool
	// SwapDeadline is added to the current time for every swap and liquidity call.
	SwapDeadline time.Duration

	// KeeperInterval is how often the keeper evaluates the harvest trigger.
	KeeperInterval time.Duration
	// WebPort is the dashboard port.
	WebPort string

	// LogLevel and LogFile configure the global logger.
	LogLevel string
	LogFile  string

	// Simulation knobs.
	SimDebtRatioBps    uint64
	SimVaultFunding    float64 // in whole want tokens
	SimRewardRate      float64 // whole reward tokens per second
	SimTimeStep        time.Duration
	SimEntryHaircutBps uint64
	SimExitHaircutBps  uint64
)

// LoadConfig loads configuration from environment variables and sets the global config vars.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	StrategyMode, err = getEnv("STRATEGY_MODE")
	if err != nil {
		return err
	}
	ConfigName = getEnvOrDefault("STRATEGY_CONFIG_NAME", "default")

	StrategyAddress, err = getEnvAsAddress("STRATEGY_ADDRESS")
	if err != nil {
		return err
	}
	Governance, err = getEnvAsAddressList("GOVERNANCE_ADDRESSES")
	if err != nil {
		return err
	}
	SkimRecipient, err = getOptionalAddress("SKIM_RECIPIENT")
	if err != nil {
		return err
	}

	HarvestPolicy = types.HarvestPolicy(getEnvOrDefault("HARVEST_POLICY", string(types.PolicyDebtDelta)))
	if !HarvestPolicy.Valid() {
		return fmt.Errorf("environment variable HARVEST_POLICY must be %q or %q, got: %s",
			types.PolicyDebtDelta, types.PolicyBalanceDelta, HarvestPolicy)
	}
	TruncationPriority = types.TruncationPriority(getEnvOrDefault("TRUNCATION_PRIORITY", ""))
	if TruncationPriority != "" && !TruncationPriority.Valid() {
		return fmt.Errorf("environment variable TRUNCATION_PRIORITY must be %q or %q, got: %s",
			types.DebtPaymentFirst, types.ProfitFirst, TruncationPriority)
	}

	if AbandonRewards, err = getEnvAsBoolOrDefault("ABANDON_REWARDS", false); err != nil {
		return err
	}
	if ForwardIdleOnMigration, err = getEnvAsBoolOrDefault("FORWARD_IDLE_ON_MIGRATION", false); err != nil {
		return err
	}
	if SwapDeadline, err = getEnvAsDurationOrDefault("SWAP_DEADLINE", 10*time.Minute); err != nil {
		return err
	}
	if KeeperInterval, err = getEnvAsDurationOrDefault("KEEPER_INTERVAL", 10*time.Minute); err != nil {
		return err
	}
	WebPort = getEnvOrDefault("WEB_PORT", "8080")
	LogLevel = getEnvOrDefault("LOG_LEVEL", "info")
	LogFile = getEnvOrDefault("LOG_FILE", "")

	if err := loadSimulationConfig(); err != nil {
		return err
	}
	if err := loadEndpointConfig(); err != nil {
		return err
	}
	if err := loadTokenConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("StrategyMode", StrategyMode).
		Str("StrategyAddress", StrategyAddress.Hex()).
		Str("HarvestPolicy", string(HarvestPolicy)).
		Dur("KeeperInterval", KeeperInterval).
		Msg("Configuration loaded successfully.")

	return nil
}

func loadSimulationConfig() error {
	var err error
	if SimDebtRatioBps, err = getEnvAsUint64OrDefault("SIM_DEBT_RATIO_BPS", 10_000); err != nil {
		return err
	}
	if SimDebtRatioBps > types.MaxBps {
		return fmt.Errorf("environment variable SIM_DEBT_RATIO_BPS must be at most %d, got: %d", types.MaxBps, SimDebtRatioBps)
	}
	if SimVaultFunding, err = getEnvAsFloat64OrDefault("SIM_VAULT_FUNDING", 1_000); err != nil {
		return err
	}
	if SimRewardRate, err = getEnvAsFloat64OrDefault("SIM_REWARD_RATE", 0.001); err != nil {
		return err
	}
	if SimTimeStep, err = getEnvAsDurationOrDefault("SIM_TIME_STEP", time.Hour); err != nil {
		return err
	}
	if SimEntryHaircutBps, err = getEnvAsUint64OrDefault("SIM_ENTRY_HAIRCUT_BPS", 0); err != nil {
		return err
	}
	if SimExitHaircutBps, err = getEnvAsUint64OrDefault("SIM_EXIT_HAIRCUT_BPS", 0); err != nil {
		return err
	}
	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvOrDefault retrieves a string environment variable, or def when unset or empty.
func getEnvOrDefault(key, def string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return def
}

// getEnvAsUint64 retrieves an environment variable as a uint64. Returns error if not set or invalid.
func getEnvAsUint64(key string) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

func getEnvAsUint64OrDefault(key string, def uint64) (uint64, error) {
	if _, exists := os.LookupEnv(key); !exists {
		return def, nil
	}
	return getEnvAsUint64(key)
}

// getEnvAsFloat64 retrieves an environment variable as a float64. Returns error if not set or invalid.
func getEnvAsFloat64(key string) (float64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid float64, got: " + valueStr)
	}
	return value, nil
}

func getEnvAsFloat64OrDefault(key string, def float64) (float64, error) {
	if _, exists := os.LookupEnv(key); !exists {
		return def, nil
	}
	return getEnvAsFloat64(key)
}

func getEnvAsBoolOrDefault(key string, def bool) (bool, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return def, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a valid bool, got: " + valueStr)
	}
	return value, nil
}

func getEnvAsDurationOrDefault(key string, def time.Duration) (time.Duration, error) {
	valueStr, exists := os.LookupEnv(key)
	if !exists || valueStr == "" {
		return def, nil
	}
	value, err := time.ParseDuration(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid duration, got: " + valueStr)
	}
	if value <= 0 {
		return 0, errors.New("environment variable " + key + " must be positive, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsAddress retrieves a required hex address.
func getEnvAsAddress(key string) (common.Address, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return common.Address{}, err
	}
	return parseAddress(key, valueStr)
}

// getOptionalAddress returns the zero address when key is unset.
func getOptionalAddress(key string) (common.Address, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return common.Address{}, nil
	}
	return parseAddress(key, valueStr)
}

// getEnvAsAddressList parses a comma separated address list.
func getEnvAsAddressList(key string) ([]common.Address, error) {
	valueStr := getEnvOrDefault(key, "")
	if valueStr == "" {
		return nil, nil
	}
	var addrs []common.Address
	for _, part := range strings.Split(valueStr, ",") {
		addr, err := parseAddress(key, strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, addr)
	}
	return addrs, nil
}

func parseAddress(key, value string) (common.Address, error) {
	if !common.IsHexAddress(value) {
		return common.Address{}, errors.New("environment variable " + key + " must be a hex address, got: " + value)
	}
	return common.HexToAddress(value), nil
}
