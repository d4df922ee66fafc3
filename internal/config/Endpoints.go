package config

import (
	"strconv"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lpstrategy/internal/state"
)

// Endpoint configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// RouterRPCURL is the EVM JSON-RPC endpoint used for live quotes. Empty disables them.
	RouterRPCURL string
	// RouterAddress is the Solidly-style router queried for quotes.
	RouterAddress common.Address
	// LiveRewardToken and LiveReferenceToken are the on-chain tokens that live quotes are
	// taken for, standing in for the simulated reward and reference assets.
	LiveRewardToken    common.Address
	LiveReferenceToken common.Address

	// Database is the optional postgres connection. DBEnabled is false when DB_NAME is unset.
	Database  state.DBConfig
	DBEnabled bool
)

// loadEndpointConfig loads endpoint configuration from environment variables.
// This function is called by LoadConfig() in General.go.
func loadEndpointConfig() error {
	log.Info().Msg("Loading endpoint configuration from environment variables...")

	RouterRPCURL = getEnvOrDefault("ROUTER_RPC_URL", "")
	if RouterRPCURL != "" {
		var err error
		if RouterAddress, err = getEnvAsAddress("ROUTER_ADDRESS"); err != nil {
			return err
		}
		if LiveRewardToken, err = getEnvAsAddress("LIVE_REWARD_TOKEN"); err != nil {
			return err
		}
		if LiveReferenceToken, err = getEnvAsAddress("LIVE_REFERENCE_TOKEN"); err != nil {
			return err
		}
	}

	if err := loadDatabaseConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("RouterRPCURL", RouterRPCURL).
		Str("RouterAddress", RouterAddress.Hex()).
		Bool("DBEnabled", DBEnabled).
		Str("DBHost", Database.Host).
		Msg("Endpoint configuration loaded successfully.")

	return nil
}

func loadDatabaseConfig() error {
	Database = state.DBConfig{
		Host:     getEnvOrDefault("DB_HOST", "localhost"),
		Port:     5432,
		User:     getEnvOrDefault("DB_USER", ""),
		Password: getEnvOrDefault("DB_PASSWORD", ""),
		DBName:   getEnvOrDefault("DB_NAME", ""),
		SSLMode:  getEnvOrDefault("DB_SSLMODE", "disable"),
	}
	if portStr := getEnvOrDefault("DB_PORT", ""); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil || port <= 0 {
			return errEnv("DB_PORT", "a valid port", portStr)
		}
		Database.Port = port
	}
	DBEnabled = Database.DBName != ""
	if DBEnabled && Database.User == "" {
		return errEnv("DB_USER", "set when DB_NAME is set", "")
	}
	return nil
}
