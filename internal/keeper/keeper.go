/*
Package keeper drives the strategy on a timer: each cycle evaluates the harvest trigger
and either harvests or tends, then records the outcome in the report sink and metrics.
*/
package keeper

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/logger"
	"github.com/elys-network/lpstrategy/internal/metrics"
	"github.com/elys-network/lpstrategy/internal/strategy"
	"github.com/elys-network/lpstrategy/internal/types"
	"github.com/elys-network/lpstrategy/internal/utils"
)

var ErrNoStrategy = errors.New("keeper needs a strategy")

// Engine is the part of the strategy the keeper drives.
type Engine interface {
	HarvestTrigger(ctx context.Context) (bool, types.TriggerReason, error)
	Harvest(ctx context.Context) (types.HarvestReport, error)
	Tend(ctx context.Context) error
	Position(ctx context.Context) (types.StrategyPosition, error)
}

var _ Engine = (*strategy.Strategy)(nil)

// ReportSink stores harvest reports. state.Store is the postgres implementation.
type ReportSink interface {
	NextHarvestNumber(ctx context.Context) (int, error)
	SaveReport(ctx context.Context, report types.HarvestReport) (int64, error)
}

// Action is what a cycle ended up doing.
type Action string

const (
	ActionHarvest Action = "harvest"
	ActionTend    Action = "tend"
	ActionSkip    Action = "skip"
)

// CycleResult summarises one RunCycle call.
type CycleResult struct {
	CycleID string
	Action  Action
	Reason  types.TriggerReason
	Report  *types.HarvestReport
	Err     error
}

// Config holds the keeper's dependencies.
type Config struct {
	Strategy       Engine
	Sink           ReportSink // optional; reports are only logged without one
	WantDecimals   int        // used to export want amounts as whole units
	RewardDecimals int
}

type Keeper struct {
	log            zerolog.Logger
	engine         Engine
	sink           ReportSink
	wantDecimals   int
	rewardDecimals int

	mu       sync.Mutex
	cycles   int
	harvests int // local fallback when the sink cannot number harvests
}

func New(cfg Config) (*Keeper, error) {
	if cfg.Strategy == nil {
		return nil, ErrNoStrategy
	}
	for _, d := range []int{cfg.WantDecimals, cfg.RewardDecimals} {
		if d < 0 || d > 18 {
			return nil, fmt.Errorf("token decimals must be between 0 and 18, got %d", d)
		}
	}
	k := &Keeper{
		log:            logger.GetForComponent("keeper"),
		engine:         cfg.Strategy,
		sink:           cfg.Sink,
		wantDecimals:   cfg.WantDecimals,
		rewardDecimals: cfg.RewardDecimals,
	}
	k.log.Info().Bool("persistent_reports", cfg.Sink != nil).Msg("Keeper created")
	return k, nil
}

// RunLoop runs a cycle immediately and then on every tick until ctx is cancelled.
func (k *Keeper) RunLoop(ctx context.Context, interval time.Duration) {
	k.log.Info().Dur("interval", interval).Msg("Starting keeper loop")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	k.RunCycle(ctx)
	for {
		select {
		case <-ctx.Done():
			k.log.Info().Msg("Keeper loop stopped due to context cancellation")
			return
		case <-ticker.C:
			k.RunCycle(ctx)
		}
	}
}

// Cycles returns how many cycles this keeper has run.
func (k *Keeper) Cycles() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.cycles
}

// RunCycle evaluates the trigger and harvests or tends. Failures are logged and returned
// in the result; they never stop the loop.
func (k *Keeper) RunCycle(ctx context.Context) CycleResult {
	k.mu.Lock()
	k.cycles++
	cycle := k.cycles
	k.mu.Unlock()

	cycleID := uuid.New().String()
	ctx = strategy.WithCycleID(ctx, cycleID)
	l := k.log.With().Str("cycle_id", cycleID).Int("cycle", cycle).Logger()
	res := CycleResult{CycleID: cycleID, Action: ActionSkip, Reason: types.TriggerNone}

	l.Info().Msg("--- Starting keeper cycle ---")
	start := time.Now()
	defer func() {
		k.recordPosition(ctx, l)
		l.Info().
			Str("action", string(res.Action)).
			Str("reason", string(res.Reason)).
			Dur("duration", time.Since(start)).
			Bool("ok", res.Err == nil).
			Msg("--- Keeper cycle complete ---")
	}()

	due, reason, err := k.engine.HarvestTrigger(ctx)
	if err != nil {
		metrics.TriggerEvaluations.WithLabelValues("error").Inc()
		l.Error().Err(err).Msg("Cycle aborted: harvest trigger evaluation failed")
		res.Err = err
		return res
	}
	metrics.TriggerEvaluations.WithLabelValues(string(reason)).Inc()
	res.Reason = reason

	switch {
	case due:
		res.Action = ActionHarvest
		report, err := k.harvest(ctx, l, reason)
		res.Report = &report
		res.Err = err
	case reason == types.TriggerInactive:
		l.Info().Msg("Strategy inactive, nothing to do")
	default:
		res.Action = ActionTend
		if err := k.engine.Tend(ctx); err != nil {
			metrics.TendsTotal.WithLabelValues("failure").Inc()
			l.Error().Err(err).Msg("Tend failed")
			res.Err = err
			return res
		}
		metrics.TendsTotal.WithLabelValues("success").Inc()
	}
	return res
}

func (k *Keeper) harvest(ctx context.Context, l zerolog.Logger, reason types.TriggerReason) (types.HarvestReport, error) {
	number := k.nextHarvestNumber(ctx, l)
	l.Info().Int("harvest_number", number).Str("reason", string(reason)).Msg("Harvest due")

	report, err := k.engine.Harvest(ctx)
	report.HarvestNumber = number
	report.TriggerReason = reason

	metrics.HarvestDuration.Observe(report.Duration.Seconds())
	if err != nil {
		metrics.HarvestsTotal.WithLabelValues("failure").Inc()
		l.Error().Err(err).Int("harvest_number", number).Msg("Harvest failed, state rolled back")
	} else {
		metrics.HarvestsTotal.WithLabelValues("success").Inc()
		k.recordAmounts(l, report)
		l.Info().
			Int("harvest_number", number).
			Str("profit", report.Result.Profit.String()).
			Str("loss", report.Result.Loss.String()).
			Str("debt_payment", report.Result.DebtPayment.String()).
			Msg("Harvest reported")
	}

	if k.sink != nil {
		id, saveErr := k.sink.SaveReport(ctx, report)
		if saveErr != nil {
			l.Error().Err(saveErr).Msg("Failed to save harvest report")
		} else {
			report.ReportID = id
		}
	}
	return report, err
}

func (k *Keeper) nextHarvestNumber(ctx context.Context, l zerolog.Logger) int {
	k.mu.Lock()
	defer k.mu.Unlock()
	if k.sink != nil {
		n, err := k.sink.NextHarvestNumber(ctx)
		if err == nil {
			k.harvests = n
			return n
		}
		l.Warn().Err(err).Msg("Failed to get harvest number from store, using local counter")
	}
	k.harvests++
	return k.harvests
}

func (k *Keeper) recordAmounts(l zerolog.Logger, r types.HarvestReport) {
	for kind, amount := range map[string]sdkmath.Int{
		"profit":       r.Result.Profit,
		"loss":         r.Result.Loss,
		"debt_payment": r.Result.DebtPayment,
	} {
		if v, ok := k.units(l, amount, k.wantDecimals); ok {
			metrics.ReportedAmount.WithLabelValues(kind).Add(v)
		}
	}
	for kind, amount := range map[string]sdkmath.Int{
		"claimed": r.Stats.RewardsClaimed,
		"skimmed": r.Stats.RewardsSkimmed,
		"sold":    r.Stats.RewardsSold,
	} {
		if v, ok := k.units(l, amount, k.rewardDecimals); ok {
			metrics.RewardFlow.WithLabelValues(kind).Add(v)
		}
	}
}

func (k *Keeper) recordPosition(ctx context.Context, l zerolog.Logger) {
	pos, err := k.engine.Position(ctx)
	if err != nil {
		l.Warn().Err(err).Msg("Failed to read position for metrics")
		return
	}
	for kind, amount := range map[string]sdkmath.Int{
		"idle":   pos.Idle,
		"staked": pos.Staked,
		"total":  pos.TotalAssets(),
	} {
		if v, ok := k.units(l, amount, k.wantDecimals); ok {
			metrics.Position.WithLabelValues(kind).Set(v)
		}
	}
}

// units converts a raw amount for export. Counters only take non-negative values.
func (k *Keeper) units(l zerolog.Logger, amount sdkmath.Int, decimals int) (float64, bool) {
	if amount.IsNil() || amount.IsNegative() {
		return 0, false
	}
	v, err := utils.SDKIntToFloat64(amount, decimals)
	if err != nil {
		l.Warn().Err(err).Str("amount", amount.String()).Msg("Failed to convert amount for metrics")
		return 0, false
	}
	return v, true
}
