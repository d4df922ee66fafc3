/*
Package strategy implements the LP yield strategy: it stakes the vault's LP tokens, harvests
reward tokens, rebuilds LP from them and reports profit, loss and debt payment back to the vault.

Every state-mutating entry point runs as one unit of work: on any error the collaborators and
the strategy's own settings are restored to where they were before the call.
*/
package strategy

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/chain"
	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/oracle"
	"github.com/elys-network/lpstrategy/internal/slippage"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

// Config holds everything needed to build a Strategy.
type Config struct {
	Address      common.Address // the strategy's own account
	Pool         types.Pool
	RewardToken  common.Address
	Intermediate common.Address // asset rewards are sold into before the split
	Reference    common.Address // asset pending rewards are valued in
	RewardRoute  types.Route    // reward -> intermediate
	RouteA       types.Route    // intermediate -> Pool.TokenA, empty when they are the same
	RouteB       types.Route    // intermediate -> Pool.TokenB, empty when they are the same

	Policy     types.HarvestPolicy      // defaults to debt_delta
	Truncation types.TruncationPriority // defaults to the policy's own priority
	Params     types.StrategyParameters

	SkimRecipient          common.Address
	AbandonRewards         bool
	ForwardIdleOnMigration bool
	SwapDeadline           time.Duration

	Vault      chain.Vault
	Router     chain.Router
	Staking    chain.Staking
	Tokens     chain.Tokens
	Journal    chain.Journal    // defaults to chain.NopJournal
	Authorizer chain.Authorizer // defaults to chain.AllowAll
	Oracle     *oracle.Oracle   // defaults to an oracle over Router
	Clock      func() time.Time // defaults to time.Now
}

// settings is the mutable part of the strategy, restored when a call fails.
type settings struct {
	params         types.StrategyParameters
	emergencyExit  bool
	abandonRewards bool
}

type Strategy struct {
	cfg    Config
	policy accountingPolicy
	trunc  types.TruncationPriority

	vault      chain.Vault
	router     chain.Router
	staking    chain.Staking
	tokens     chain.Tokens
	journal    chain.Journal
	authorizer chain.Authorizer
	oracle     *oracle.Oracle
	guard      *slippage.Guard
	now        func() time.Time

	mu  sync.RWMutex
	set settings

	busy  atomic.Bool
	stats types.HarvestStats // token flow of the call in flight

	log     zerolog.Logger
	convLog zerolog.Logger
	posLog  zerolog.Logger
}

// New validates cfg against the staking contract and builds the strategy.
func New(ctx context.Context, cfg Config) (*Strategy, error) {
	if cfg.Policy == "" {
		cfg.Policy = types.PolicyDebtDelta
	}
	if cfg.Truncation == "" {
		cfg.Truncation = cfg.Policy.DefaultTruncation()
	}
	if cfg.Journal == nil {
		cfg.Journal = chain.NopJournal{}
	}
	if cfg.Authorizer == nil {
		cfg.Authorizer = chain.AllowAll{}
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	if err := validateConfig(cfg); err != nil {
		return nil, errors.Join(ErrConfiguration, err)
	}

	stakingToken, err := cfg.Staking.StakingToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to read staking token: %w", err)
	}
	if stakingToken != cfg.Pool.Want {
		return nil, errors.Join(ErrConfiguration,
			fmt.Errorf("staking contract accepts %s, pool want is %s", stakingToken.Hex(), cfg.Pool.Want.Hex()))
	}

	o := cfg.Oracle
	if o == nil {
		o, err = oracle.New(cfg.Router, cfg.Reference)
		if err != nil {
			return nil, errors.Join(ErrConfiguration, err)
		}
	}

	s := &Strategy{
		cfg:        cfg,
		policy:     newPolicy(cfg.Policy),
		trunc:      cfg.Truncation,
		vault:      cfg.Vault,
		router:     cfg.Router,
		staking:    cfg.Staking,
		tokens:     cfg.Tokens,
		journal:    cfg.Journal,
		authorizer: cfg.Authorizer,
		oracle:     o,
		guard:      slippage.NewGuard(cfg.Params.Slippage),
		now:        cfg.Clock,
		set: settings{
			params:         cfg.Params,
			abandonRewards: cfg.AbandonRewards,
		},
		stats:   types.NewHarvestStats(),
		log:     logger.GetForComponent("strategy_engine"),
		convLog: logger.GetForComponent("conversion_engine"),
		posLog:  logger.GetForComponent("position_manager"),
	}

	s.log.Info().
		Str("strategy", cfg.Address.Hex()).
		Str("want", cfg.Pool.Want.Hex()).
		Str("policy", string(cfg.Policy)).
		Str("truncation", string(cfg.Truncation)).
		Msg("Strategy initialized")
	return s, nil
}

func validateConfig(cfg Config) error {
	var errs []error
	zero := common.Address{}

	if cfg.Vault == nil || cfg.Router == nil || cfg.Staking == nil || cfg.Tokens == nil {
		errs = append(errs, errors.New("vault, router, staking and tokens collaborators are required"))
	}
	if cfg.Address == zero {
		errs = append(errs, errors.New("strategy address is required"))
	}
	if cfg.Pool.Want == zero || cfg.Pool.TokenA == zero || cfg.Pool.TokenB == zero {
		errs = append(errs, errors.New("pool want and both constituent tokens are required"))
	}
	if cfg.Pool.TokenA == cfg.Pool.TokenB {
		errs = append(errs, errors.New("pool constituents must differ"))
	}
	if cfg.RewardToken == zero || cfg.Intermediate == zero {
		errs = append(errs, errors.New("reward and intermediate tokens are required"))
	}
	if cfg.Oracle == nil && cfg.Reference == zero {
		errs = append(errs, errors.New("reference asset is required"))
	}
	if !cfg.Policy.Valid() {
		errs = append(errs, fmt.Errorf("unknown harvest policy %q", cfg.Policy))
	}
	if !cfg.Truncation.Valid() {
		errs = append(errs, fmt.Errorf("unknown truncation priority %q", cfg.Truncation))
	}
	if cfg.SwapDeadline <= 0 {
		errs = append(errs, errors.New("swap deadline must be positive"))
	}

	errs = append(errs,
		validateLeg("reward route", cfg.RewardRoute, cfg.RewardToken, cfg.Intermediate),
		validateLeg("token A route", cfg.RouteA, cfg.Intermediate, cfg.Pool.TokenA),
		validateLeg("token B route", cfg.RouteB, cfg.Intermediate, cfg.Pool.TokenB),
	)

	if err := validateParameters(cfg.Params); err != nil {
		errs = append(errs, err)
	}
	if cfg.Params.SkimBps > 0 && cfg.SkimRecipient == zero {
		errs = append(errs, errors.New("skim recipient is required when skim bps is set"))
	}
	return errors.Join(errs...)
}

// validateLeg checks the route for from -> to. No swap is needed when the tokens are equal.
func validateLeg(name string, route types.Route, from, to common.Address) error {
	if from == to {
		if len(route) != 0 {
			return fmt.Errorf("%s must be empty when %s is both input and output", name, from.Hex())
		}
		return nil
	}
	if err := route.Validate(from, to); err != nil {
		return fmt.Errorf("%s: %w", name, err)
	}
	return nil
}

func validateParameters(p types.StrategyParameters) error {
	var errs []error
	if err := utils.ValidateBps(p.Slippage.MaxSlippageInBps); err != nil {
		errs = append(errs, fmt.Errorf("max slippage in: %w", err))
	}
	if err := utils.ValidateBps(p.Slippage.MaxSlippageOutBps); err != nil {
		errs = append(errs, fmt.Errorf("max slippage out: %w", err))
	}
	if err := utils.ValidateBps(p.SkimBps); err != nil {
		errs = append(errs, fmt.Errorf("skim: %w", err))
	}
	if err := validateAmount("position dust", p.Dust.PositionDust); err != nil {
		errs = append(errs, err)
	}
	if err := validateAmount("reward dust", p.Dust.RewardDust); err != nil {
		errs = append(errs, err)
	}
	if err := validateAmount("min profit", p.Harvest.MinProfit); err != nil {
		errs = append(errs, err)
	}
	if p.Harvest.MaxReportDelay < 0 {
		errs = append(errs, errors.New("max report delay must not be negative"))
	}
	if len(errs) == 0 {
		return nil
	}
	return errors.Join(append([]error{ErrInvalidParameter}, errs...)...)
}

func validateAmount(name string, v sdkmath.Int) error {
	if v.IsNil() {
		return fmt.Errorf("%s is not set", name)
	}
	if v.IsNegative() {
		return fmt.Errorf("%s must not be negative: %s", name, v)
	}
	return nil
}

// Address returns the strategy's account.
func (s *Strategy) Address() common.Address { return s.cfg.Address }

// Want returns the LP token the strategy grows.
func (s *Strategy) Want() common.Address { return s.cfg.Pool.Want }

// Policy returns the configured harvest policy.
func (s *Strategy) Policy() types.HarvestPolicy { return s.policy.kind() }

// Truncation returns the configured truncation priority.
func (s *Strategy) Truncation() types.TruncationPriority { return s.trunc }

// Parameters returns a copy of the current parameters.
func (s *Strategy) Parameters() types.StrategyParameters {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.params
}

// EmergencyExit reports whether the strategy is winding down.
func (s *Strategy) EmergencyExit() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.emergencyExit
}

// AbandonRewards reports whether migration leaves rewards unclaimed.
func (s *Strategy) AbandonRewards() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set.abandonRewards
}

func (s *Strategy) current() settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.set
}

func (s *Strategy) deadline() time.Time {
	return s.now().Add(s.cfg.SwapDeadline)
}

type cycleKey struct{}

// WithCycleID tags ctx so logs and reports of calls made with it carry id.
func WithCycleID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, cycleKey{}, id)
}

// CycleID returns the id set by WithCycleID, or "".
func CycleID(ctx context.Context) string {
	id, _ := ctx.Value(cycleKey{}).(string)
	return id
}

// logFor adds the cycle id of ctx to l.
func logFor(ctx context.Context, l zerolog.Logger) zerolog.Logger {
	if id := CycleID(ctx); id != "" {
		return l.With().Str("cycle_id", id).Logger()
	}
	return l
}
