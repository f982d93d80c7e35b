package dal

import (
	"context"
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3"
)

// SQLiteDAL implements LeagueDAL using SQLite
type SQLiteDAL struct {
	*sqlStore
}

// NewSQLiteDAL creates a new SQLite data access layer, seeding the demo
// league into an empty database
func NewSQLiteDAL(dbPath string) (*SQLiteDAL, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}
	// SQLite serializes writers; one connection avoids SQLITE_BUSY
	db.SetMaxOpenConns(1)

	dal := &SQLiteDAL{sqlStore: &sqlStore{db: db}}
	if err := dal.initSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return dal, nil
}

func (s *SQLiteDAL) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS teams (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		owner TEXT NOT NULL DEFAULT '',
		wins INTEGER NOT NULL DEFAULT 0,
		losses INTEGER NOT NULL DEFAULT 0,
		ties INTEGER NOT NULL DEFAULT 0,
		points_for REAL NOT NULL DEFAULT 0,
		roster TEXT NOT NULL DEFAULT '[]',
		last_phase TEXT,
		last_phase_at INTEGER
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
		age REAL NOT NULL DEFAULT 0,
		value INTEGER NOT NULL,
		trend INTEGER NOT NULL DEFAULT 0,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS pick_market_values (
		pick_name TEXT PRIMARY KEY,
		value INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS market_meta (
		id INTEGER PRIMARY KEY,
		source TEXT NOT NULL,
		fetched_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_picks_current_owner ON picks(current_owner);
	`

	if _, err := s.db.Exec(schema); err != nil {
		return err
	}
	// databases created before player ids were stored
	_, err := s.db.Exec(`ALTER TABLE market_values ADD COLUMN player_id TEXT NOT NULL DEFAULT ''`)
	if err != nil && !strings.Contains(err.Error(), "duplicate column") {
		return err
	}

	return s.seed(context.Background())
}
