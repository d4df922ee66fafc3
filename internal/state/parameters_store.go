// ./internal/state/parameters_store.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/elys-network/lpstrategy/internal/types"
)

// SaveStrategyParameters saves a new version of strategy parameters.
func SaveStrategyParameters(ctx context.Context, p types.StrategyParameters, configName string, version int, makeActive bool) (paramsID int64, err error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	tx, err := DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	if makeActive {
		_, err = tx.ExecContext(ctx,
			`UPDATE strategy_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
		INSERT INTO strategy_parameters (
			version, config_name, is_active, activated_at, created_at,
			max_slippage_in_bps, max_slippage_out_bps,
			position_dust, reward_dust,
			min_profit, max_report_delay_seconds, force_harvest,
			skim_bps
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING params_id;`

	now := time.Now()
	err = tx.QueryRowContext(ctx, stmt,
		version, configName, makeActive, now, now,
		p.Slippage.MaxSlippageInBps, p.Slippage.MaxSlippageOutBps,
		amountArg(p.Dust.PositionDust), amountArg(p.Dust.RewardDust),
		amountArg(p.Harvest.MinProfit), int64(p.Harvest.MaxReportDelay/time.Second), p.Harvest.ForceHarvest,
		p.SkimBps,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert strategy parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit transaction: %w", err)
	}

	storeLog().Info().
		Int("version", version).
		Str("config", configName).
		Int64("params_id", paramsID).
		Bool("active", makeActive).
		Msg("Saved strategy parameters")
	return paramsID, nil
}

// LoadActiveStrategyParameters loads the currently active parameters and their version.
func LoadActiveStrategyParameters(ctx context.Context, configName string) (types.StrategyParameters, int, error) {
	if DB == nil {
		return types.StrategyParameters{}, 0, ErrNotInitialized
	}

	query := `
		SELECT
			version,
			max_slippage_in_bps, max_slippage_out_bps,
			position_dust, reward_dust,
			min_profit, max_report_delay_seconds, force_harvest,
			skim_bps
		FROM strategy_parameters
		WHERE config_name = $1 AND is_active = TRUE
		ORDER BY activated_at DESC
		LIMIT 1;`

	var (
		p            types.StrategyParameters
		version      int
		delaySeconds int64
		amounts      amountColumns
	)
	amounts.add("position_dust", &p.Dust.PositionDust)
	amounts.add("reward_dust", &p.Dust.RewardDust)
	amounts.add("min_profit", &p.Harvest.MinProfit)
	args := amounts.scanArgs()

	err := DB.QueryRowContext(ctx, query, configName).Scan(
		&version,
		&p.Slippage.MaxSlippageInBps, &p.Slippage.MaxSlippageOutBps,
		args[0], args[1],
		args[2], &delaySeconds, &p.Harvest.ForceHarvest,
		&p.SkimBps,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return types.StrategyParameters{}, 0, fmt.Errorf("%w: config '%s'", ErrNoParameters, configName)
		}
		return types.StrategyParameters{}, 0, fmt.Errorf("failed to scan active strategy parameters for config '%s': %w", configName, err)
	}
	if err := amounts.decode(); err != nil {
		return types.StrategyParameters{}, 0, err
	}
	p.Harvest.MaxReportDelay = time.Duration(delaySeconds) * time.Second

	storeLog().Info().Str("config", configName).Int("version", version).Msg("Loaded active strategy parameters")
	return p, version, nil
}

// LatestParametersVersion returns the highest saved version for configName, or 0.
func LatestParametersVersion(ctx context.Context, configName string) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}
	var version int
	err := DB.QueryRowContext(ctx,
		`SELECT COALESCE(MAX(version), 0) FROM strategy_parameters WHERE config_name = $1;`, configName).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to get latest parameters version for config '%s': %w", configName, err)
	}
	return version, nil
}
