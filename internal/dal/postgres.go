package dal

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
)

// PostgresDAL implements LeagueDAL using PostgreSQL
type PostgresDAL struct {
	*sqlStore
}

// NewPostgresDAL creates a new PostgreSQL data access layer optimized for CloudNativePG
func NewPostgresDAL(connString string) (*PostgresDAL, error) {
	db, err := sql.Open("postgres", connString)
	if err != nil {
		return nil, err
	}

	// CloudNativePG default max_connections is 100
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	// Recycle connections to ride out failovers
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(1 * time.Minute)

	// Retry the first ping to ride out Kubernetes DNS propagation
	maxRetries := 5
	retryDelay := 5 * time.Second
	var lastErr error
	for i := 0; i < maxRetries; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
		lastErr = db.PingContext(ctx)
		cancel()

		if lastErr == nil {
			break
		}
		logger.Warn("Postgres ping failed", "attempt", i+1, "error", lastErr)
		if i < maxRetries-1 {
			time.Sleep(retryDelay)
		}
	}
	if lastErr != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres after %d retries: %w", maxRetries, lastErr)
	}

	dal := &PostgresDAL{sqlStore: &sqlStore{db: db, numbered: true}}
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return dal, nil
}

func (p *PostgresDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		ties INTEGER NOT NULL DEFAULT 0,
		points_for DOUBLE PRECISION NOT NULL DEFAULT 0,
		roster JSONB NOT NULL DEFAULT '[]'::jsonb,
		last_phase TEXT,
		last_phase_at BIGINT,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
	);

	CREATE TABLE IF NOT EXISTS picks (
		season INTEGER NOT NULL,
		round INTEGER NOT NULL,
		original_owner TEXT NOT NULL,
		slot INTEGER NOT NULL DEFAULT 0,
		current_owner TEXT NOT NULL,
		PRIMARY KEY (season, round, original_owner)
	);

	CREATE TABLE IF NOT EXISTS market_values (
		canonical_key TEXT PRIMARY KEY,
		player_id TEXT NOT NULL DEFAULT '',
		name TEXT NOT NULL,
		position TEXT NOT NULL DEFAULT '',
		team TEXT NOT NULL DEFAULT '',
		age DOUBLE PRECISION NOT NULL DEFAULT 0,
		value INTEGER NOT NULL,
		trend INTEGER NOT NULL DEFAULT 0,
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pick_market_values (
		pick_name TEXT PRIMARY KEY,
		value INTEGER NOT NULL,
		updated_at BIGINT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS market_meta (
		id INTEGER PRIMARY KEY,
		source TEXT NOT NULL,
		fetched_at BIGINT NOT NULL
	);

	ALTER TABLE market_values ADD COLUMN IF NOT EXISTS player_id TEXT NOT NULL DEFAULT '';

	-- CloudNativePG optimization: Add indexes for common query patterns
	CREATE INDEX IF NOT EXISTS idx_picks_current_owner ON picks(current_owner);
	CREATE INDEX IF NOT EXISTS idx_market_values_value ON market_values(value DESC);
	`

	if _, err := p.db.Exec(schema); err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return p.seed(ctx)
}
