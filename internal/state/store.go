package state

import (
	"context"

	"github.com/elys-network/lpstrategy/internal/types"
)

// Store exposes the package level persistence functions as a value, so the keeper
// and the web server can depend on interfaces rather than on the global pool.
type Store struct {
	ConfigName string
}

// NewStore returns a Store for configName.
func NewStore(configName string) *Store {
	if configName == "" {
		configName = "default"
	}
	return &Store{ConfigName: configName}
}

func (s *Store) NextHarvestNumber(ctx context.Context) (int, error) {
	return IncrementHarvestNumber(ctx)
}

func (s *Store) SaveReport(ctx context.Context, r types.HarvestReport) (int64, error) {
	return SaveHarvestReport(ctx, r)
}

func (s *Store) RecentReports(ctx context.Context, limit int) ([]types.HarvestReport, error) {
	return GetRecentReports(ctx, limit)
}

func (s *Store) ReportByID(ctx context.Context, id int64) (types.HarvestReport, error) {
	return GetReportByID(ctx, id)
}

func (s *Store) Summary(ctx context.Context) (types.ReportSummary, error) {
	return GetReportSummary(ctx)
}

// ActiveParameters loads the active parameters for the store's config.
func (s *Store) ActiveParameters(ctx context.Context) (types.StrategyParameters, int, error) {
	return LoadActiveStrategyParameters(ctx, s.ConfigName)
}

// SaveParameters stores p as the next version and activates it.
func (s *Store) SaveParameters(ctx context.Context, p types.StrategyParameters) (int, error) {
	latest, err := LatestParametersVersion(ctx, s.ConfigName)
	if err != nil {
		return 0, err
	}
	version := latest + 1
	if _, err := SaveStrategyParameters(ctx, p, s.ConfigName, version, true); err != nil {
		return 0, err
	}
	return version, nil
}
