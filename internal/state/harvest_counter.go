/*

This file manages the persistent global harvest counter.
The counter is stored in the database to ensure continuity across restarts.

*/

package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetCurrentHarvestNumber retrieves the current harvest number from the database
func GetCurrentHarvestNumber(ctx context.Context) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	var current int
	err := DB.QueryRowContext(ctx, `SELECT current_harvest FROM harvest_counter WHERE id = 1;`).Scan(&current)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			storeLog().Warn().Msg("No harvest counter row found, initializing to 0")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to get current harvest number: %w", err)
	}
	return current, nil
}

// IncrementHarvestNumber increments the harvest counter and returns the new value
func IncrementHarvestNumber(ctx context.Context) (int, error) {
	if DB == nil {
		return 0, ErrNotInitialized
	}

	updateQuery := `
		UPDATE harvest_counter
		SET current_harvest = current_harvest + 1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1
		RETURNING current_harvest;`

	var next int
	if err := DB.QueryRowContext(ctx, updateQuery).Scan(&next); err != nil {
		return 0, fmt.Errorf("failed to increment harvest number: %w", err)
	}

	storeLog().Debug().Int("harvest_number", next).Msg("Incremented harvest counter")
	return next, nil
}

// ResetHarvestNumber resets the harvest counter to a specific value (for testing/maintenance)
func ResetHarvestNumber(ctx context.Context, n int) error {
	if DB == nil {
		return ErrNotInitialized
	}
	if n < 0 {
		return fmt.Errorf("harvest number cannot be negative: %d", n)
	}

	result, err := DB.ExecContext(ctx, `
		UPDATE harvest_counter
		SET current_harvest = $1,
		    updated_at = CURRENT_TIMESTAMP
		WHERE id = 1;`, n)
	if err != nil {
		return fmt.Errorf("failed to reset harvest number to %d: %w", n, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rows == 0 {
		return errors.New("no rows updated when resetting harvest number")
	}

	storeLog().Warn().Int("harvest_number", n).Msg("Reset harvest counter")
	return nil
}
