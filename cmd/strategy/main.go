package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/config"
	"github.com/elys-network/lpstrategy/internal/evm"
	"github.com/elys-network/lpstrategy/internal/keeper"
	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/oracle"
	"github.com/elys-network/lpstrategy/internal/simulations"
	"github.com/elys-network/lpstrategy/internal/state"
	"github.com/elys-network/lpstrategy/internal/strategy"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
	"github.com/elys-network/lpstrategy/internal/web"
)

// main is the entry point for the strategy keeper.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	if err := logger.Initialize(config.LogLevel, config.LogFile); err != nil {
		log.Warn().Err(err).Msg("Continuing with console logging only")
	}
	log.Info().Msg("LP yield strategy starting...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- 2. Optional database (parameters and harvest reports) ---
	var (
		store    *state.Store
		sink     keeper.ReportSink
		reports  web.ReportReader
		dbHealth web.HealthChecker
	)
	if config.DBEnabled {
		if err := state.InitDB(config.Database); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize database")
		}
		defer state.CloseDB()
		if err := state.EnsureSchema(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to ensure database schema")
		}
		store = state.NewStore(config.ConfigName)
		sink, reports, dbHealth = store, store, state.TestDBConnection
	} else {
		log.Warn().Msg("DB_NAME not set, harvest reports will not be persisted")
	}

	params := loadParameters(ctx, store)

	// --- 3. Chain backend (with Safety Switch) ---
	if config.StrategyMode != config.ModeSimulation {
		log.Fatal().Str("mode", config.StrategyMode).
			Msg("STRATEGY_MODE is not set to 'simulation'. Halting, live transaction signing is not supported.")
	}
	market := newSimulatedMarket()

	cfg := strategy.Config{
		Address:                config.StrategyAddress,
		Pool:                   market.Pool,
		RewardToken:            market.Reward,
		Intermediate:           market.Intermediate,
		Reference:              market.Reference,
		RewardRoute:            market.RewardRoute,
		RouteA:                 market.RouteA,
		RouteB:                 market.RouteB,
		Policy:                 config.HarvestPolicy,
		Truncation:             config.TruncationPriority,
		Params:                 params,
		SkimRecipient:          config.SkimRecipient,
		AbandonRewards:         config.AbandonRewards,
		ForwardIdleOnMigration: config.ForwardIdleOnMigration,
		SwapDeadline:           config.SwapDeadline,
		Vault:                  market.Vault(),
		Router:                 market.Router(config.StrategyAddress),
		Staking:                market.Staking(config.StrategyAddress),
		Tokens:                 market.Tokens(config.StrategyAddress),
		Journal:                market.Chain,
		Clock:                  market.Now,
	}
	if len(config.RewardRoute) > 0 {
		cfg.RewardRoute = config.RewardRoute
	}
	if len(config.RouteA) > 0 {
		cfg.RouteA = config.RouteA
	}
	if len(config.RouteB) > 0 {
		cfg.RouteB = config.RouteB
	}
	if len(config.Governance) > 0 {
		cfg.Authorizer = chain.NewAddressSet(config.Governance...)
	}

	// --- 4. Optional live quotes for the harvest trigger ---
	if config.RouterRPCURL != "" {
		quoter, err := evm.Dial(ctx, config.RouterRPCURL, config.RouterAddress)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to router RPC")
		}
		defer quoter.Close()
		live := aliasQuoter{
			Quoter: quoter,
			aliases: map[common.Address]common.Address{
				market.Reward:    config.LiveRewardToken,
				market.Reference: config.LiveReferenceToken,
			},
		}
		if cfg.Oracle, err = oracle.New(live, market.Reference); err != nil {
			log.Fatal().Err(err).Msg("Failed to create quote oracle")
		}
		log.Info().Str("rpc", config.RouterRPCURL).Msg("Pending rewards valued with live router quotes")
	}

	strat, err := strategy.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create strategy")
	}
	log.Info().
		Str("address", strat.Address().Hex()).
		Str("policy", string(strat.Policy())).
		Str("truncation", string(strat.Truncation())).
		Msg("Strategy created successfully")

	// --- 5. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, strat, reports, dbHealth)
	go func() {
		log.Info().Str("port", config.WebPort).Str("url", "http://localhost:"+config.WebPort).Msg("Starting strategy dashboard")
		if err := webServer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 6. Keeper Loop ---
	k, err := keeper.New(keeper.Config{
		Strategy:       strat,
		Sink:           sink,
		WantDecimals:   config.WantToken.Decimals,
		RewardDecimals: config.RewardToken.Decimals,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create keeper")
	}

	go advanceSimulatedTime(ctx, market, config.KeeperInterval, config.SimTimeStep)

	log.Info().Str("interval", config.KeeperInterval.String()).Msg("Starting keeper main loop")
	k.RunLoop(ctx, config.KeeperInterval)
	log.Info().Int("cycles", k.Cycles()).Msg("Strategy keeper stopped")
}

// loadParameters returns the active persisted parameters, falling back to and saving the defaults.
func loadParameters(ctx context.Context, store *state.Store) types.StrategyParameters {
	defaults, err := config.DefaultStrategyParameters(
		config.WantToken.Decimals, config.RewardToken.Decimals, config.ReferenceToken.Decimals)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to build default strategy parameters")
	}
	if store == nil {
		return defaults
	}

	params, version, err := store.ActiveParameters(ctx)
	if err == nil {
		log.Info().Int("version", version).Msg("Strategy parameters loaded successfully.")
		return params
	}
	if !errors.Is(err, state.ErrNoParameters) {
		log.Warn().Err(err).Msg("Failed to load active strategy parameters, using defaults.")
		return defaults
	}

	log.Warn().Msg("No active strategy parameters found, using defaults and saving.")
	version, err = store.SaveParameters(ctx, defaults)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to save initial default strategy parameters.")
	}
	log.Info().Int("version", version).Msg("Default strategy parameters saved")
	return defaults
}

// newSimulatedMarket builds the in-memory market and lends the strategy its initial share.
func newSimulatedMarket() *simulations.Market {
	log.Warn().Msg("Initializing strategy in SIMULATION mode. No transactions leave this process.")

	market := simulations.NewMarket(config.StrategyAddress, config.SimDebtRatioBps)
	market.SetStakingHaircuts(config.SimEntryHaircutBps, config.SimExitHaircutBps)

	funding, err := utils.Float64ToSDKInt(config.SimVaultFunding, config.WantToken.Decimals)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SIM_VAULT_FUNDING")
	}
	rate, err := utils.Float64ToSDKInt(config.SimRewardRate, config.RewardToken.Decimals)
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid SIM_REWARD_RATE")
	}
	market.SetRewardRate(rate)
	market.Fund(funding)

	credit := utils.MulBps(funding, config.SimDebtRatioBps)
	if credit.IsPositive() {
		if err := market.Lend(config.StrategyAddress, credit); err != nil {
			log.Fatal().Err(err).Msg("Failed to lend initial credit to the strategy")
		}
	}

	log.Info().
		Str("vault_funding", funding.String()).
		Str("initial_credit", credit.String()).
		Str("reward_rate", rate.String()).
		Msg("Simulated market ready")
	return market
}

// advanceSimulatedTime moves the market clock forward by step on every interval.
func advanceSimulatedTime(ctx context.Context, market *simulations.Market, interval, step time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			market.Advance(step)
			log.Debug().Time("now", market.Now()).Msg("Advanced simulated clock")
		}
	}
}

// aliasQuoter prices simulated tokens with the on-chain tokens they stand in for.
type aliasQuoter struct {
	chain.Quoter
	aliases map[common.Address]common.Address
}

func (q aliasQuoter) QuoteOutput(ctx context.Context, amountIn sdkmath.Int, from, to common.Address) (sdkmath.Int, error) {
	if live, ok := q.aliases[from]; ok {
		from = live
	}
	if live, ok := q.aliases[to]; ok {
		to = live
	}
	return q.Quoter.QuoteOutput(ctx, amountIn, from, to)
}
