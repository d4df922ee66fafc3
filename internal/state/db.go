// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog"

	"github.com/elys-network/lpstrategy/internal/logger"
)

// DB is a global database connection pool.
var DB *sql.DB

var (
	ErrNotInitialized = errors.New("database not initialized")
	ErrReportNotFound = errors.New("harvest report not found")
	ErrNoParameters   = errors.New("no strategy parameters found")
)

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// DSN returns the lib/pq connection string for cfg.
func (cfg DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)
}

func storeLog() *zerolog.Logger {
	l := logger.GetForComponent("state_store")
	return &l
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	return Open(cfg.DSN())
}

// Open initializes the connection pool from a DSN.
func Open(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(25)
	db.SetConnMaxLifetime(5 * time.Minute)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	DB = db
	storeLog().Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		l := storeLog()
		l.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			l.Error().Err(err).Msg("Error closing database connection")
		}
		DB = nil
	}
}

const schemaSQL = `
	CREATE TABLE IF NOT EXISTS strategy_parameters (
		params_id SERIAL PRIMARY KEY,
		version INTEGER NOT NULL DEFAULT 1,
		config_name VARCHAR(255) NOT NULL DEFAULT 'default',
		is_active BOOLEAN NOT NULL DEFAULT FALSE,
		activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		max_slippage_in_bps INTEGER NOT NULL,
		max_slippage_out_bps INTEGER NOT NULL,
		position_dust NUMERIC(78, 0) NOT NULL,
		reward_dust NUMERIC(78, 0) NOT NULL,
		min_profit NUMERIC(78, 0) NOT NULL,
		max_report_delay_seconds BIGINT NOT NULL,
		force_harvest BOOLEAN NOT NULL DEFAULT FALSE,
		skim_bps INTEGER NOT NULL DEFAULT 0,
		CONSTRAINT uq_strategy_parameters_config_version UNIQUE (config_name, version)
	);
	CREATE INDEX IF NOT EXISTS idx_strategy_parameters_config_active ON strategy_parameters(config_name, is_active, activated_at DESC);

	CREATE TABLE IF NOT EXISTS harvest_reports (
		report_id SERIAL PRIMARY KEY,
		harvest_number INTEGER NOT NULL,
		cycle_id VARCHAR(64) NOT NULL DEFAULT '',
		report_timestamp TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		policy VARCHAR(32) NOT NULL,
		trigger_reason VARCHAR(32) NOT NULL,
		emergency_exit BOOLEAN NOT NULL DEFAULT FALSE,

		-- Settlement
		debt_outstanding NUMERIC(78, 0) NOT NULL,
		profit NUMERIC(78, 0) NOT NULL,
		loss NUMERIC(78, 0) NOT NULL,
		debt_payment NUMERIC(78, 0) NOT NULL,
		new_debt_outstanding NUMERIC(78, 0) NOT NULL,

		-- Position around the call
		idle_before NUMERIC(78, 0) NOT NULL,
		staked_before NUMERIC(78, 0) NOT NULL,
		idle_after NUMERIC(78, 0) NOT NULL,
		staked_after NUMERIC(78, 0) NOT NULL,

		stats JSONB,
		success BOOLEAN NOT NULL,
		error_message TEXT,
		duration_ms BIGINT NOT NULL DEFAULT 0
	);
	CREATE INDEX IF NOT EXISTS idx_harvest_reports_timestamp ON harvest_reports(report_timestamp DESC);
	CREATE INDEX IF NOT EXISTS idx_harvest_reports_number ON harvest_reports(harvest_number DESC);

	-- Harvest counter table for persistent global harvest numbering
	CREATE TABLE IF NOT EXISTS harvest_counter (
		id INTEGER PRIMARY KEY DEFAULT 1,
		current_harvest INTEGER NOT NULL DEFAULT 0,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
		CONSTRAINT single_row_check CHECK (id = 1)
	);

	INSERT INTO harvest_counter (id, current_harvest)
	VALUES (1, 0)
	ON CONFLICT (id) DO NOTHING;
`

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}
	if _, err := DB.ExecContext(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	storeLog().Info().Msg("Database schema ensured")
	return nil
}

// DropSchema removes every strategy table.
func DropSchema(ctx context.Context) error {
	if DB == nil {
		return ErrNotInitialized
	}
	dropSQL := `
		DROP TABLE IF EXISTS harvest_reports CASCADE;
		DROP TABLE IF EXISTS harvest_counter CASCADE;
		DROP TABLE IF EXISTS strategy_parameters CASCADE;
	`
	if _, err := DB.ExecContext(ctx, dropSQL); err != nil {
		return fmt.Errorf("failed to drop tables: %w", err)
	}
	storeLog().Warn().Msg("Dropped strategy tables")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return ErrNotInitialized
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := DB.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}
	return nil
}
