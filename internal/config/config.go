// Package config reads service settings from the environment, optionally
// pre-loaded from a .env file, plus an optional YAML tuning document.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/phase"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/trades"
)

// ClickHouse holds the market warehouse connection settings
type ClickHouse struct {
	Addr     string
	DB       string
	User     string
	Password string
}

// Feeds holds the external feed endpoints and their client credentials
type Feeds struct {
	MarketURL      string
	MarketSeedFile string
	RosterURL      string
	TokenURL       string
	ClientID       string
	ClientSecret   string
}

// Tuning overrides engine thresholds. Fields left out of the YAML document
// keep their defaults.
type Tuning struct {
	Trades trades.Params     `yaml:"trades"`
	Phase  phase.ValuePolicy `yaml:"phase"`
}

// DefaultTuning returns the standard thresholds
func DefaultTuning() Tuning {
	return Tuning{
		Trades: trades.DefaultParams(),
		Phase:  phase.DefaultValuePolicy(),
	}
}

// Config is the complete service configuration
type Config struct {
	Port        string
	GRPCPort    string
	Environment string

	DBDriver    string
	SQLiteFile  string
	DatabaseURL string

	NATSURL     string
	NATSSubject string

	ClickHouse ClickHouse
	Feeds      Feeds

	SyncInterval  time.Duration
	CurrentSeason int
	PhasePolicy   string

	AuthentikBaseURL      string
	AuthentikClientID     string
	AuthentikClientSecret string
	AuthentikRedirectURL  string
	CommissionerGroup     string

	TuningFile string
	Tuning     Tuning
}

// Development reports whether the service runs against local stand-ins
func (c Config) Development() bool {
	return c.Environment == "" || c.Environment == "development"
}

// Load reads envFile if it exists, then the environment
func Load(envFile string) (Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil {
			if !errors.Is(err, fs.ErrNotExist) {
				return Config{}, fmt.Errorf("load %s: %w", envFile, err)
			}
			logger.Debug("No env file found, using process environment", "file", envFile)
		}
	}
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a variable lookup
func FromEnv(getenv func(string) string) (Config, error) {
	get := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	cfg := Config{
		Port:        get("PORT", "3000"),
		GRPCPort:    get("GRPC_PORT", "50051"),
		Environment: get("ENVIRONMENT", "development"),
		DBDriver:    get("DB_DRIVER", "memory"),
		SQLiteFile:  get("SQLITE_FILE", "dev.sqlite"),
		DatabaseURL: getenv("DATABASE_URL"),
		NATSURL:     get("NATS_URL", "nats://localhost:4222"),
		NATSSubject: get("NATS_SUBJECT", "dynasty.events"),
		ClickHouse: ClickHouse{
			Addr:     getenv("CLICKHOUSE_ADDR"),
			DB:       get("CLICKHOUSE_DB", "default"),
			User:     get("CLICKHOUSE_USER", "default"),
			Password: getenv("CLICKHOUSE_PASSWORD"),
		},
		Feeds: Feeds{
			MarketURL:      getenv("MARKET_FEED_URL"),
			MarketSeedFile: getenv("MARKET_SEED_FILE"),
			RosterURL:      getenv("ROSTER_FEED_URL"),
			TokenURL:       getenv("FEED_TOKEN_URL"),
			ClientID:       getenv("FEED_CLIENT_ID"),
			ClientSecret:   getenv("FEED_CLIENT_SECRET"),
		},
		PhasePolicy:       get("PHASE_POLICY", "value"),
		AuthentikBaseURL:      getenv("AUTHENTIK_BASE_URL"),
		AuthentikClientID:     getenv("AUTHENTIK_CLIENT_ID"),
		AuthentikClientSecret: getenv("AUTHENTIK_CLIENT_SECRET"),
		AuthentikRedirectURL:  get("AUTHENTIK_REDIRECT_URL", "http://localhost:3000/auth/callback"),
		CommissionerGroup:     get("COMMISSIONER_GROUP", "commissioners"),
		TuningFile:            getenv("TUNING_FILE"),
		Tuning:                DefaultTuning(),
	}

	var err error
	if cfg.SyncInterval, err = time.ParseDuration(get("SYNC_INTERVAL", "1h")); err != nil {
		return Config{}, fmt.Errorf("SYNC_INTERVAL: %w", err)
	}
	if cfg.SyncInterval <= 0 {
		return Config{}, fmt.Errorf("SYNC_INTERVAL must be positive, got %s", cfg.SyncInterval)
	}
	if cfg.CurrentSeason, err = strconv.Atoi(get("CURRENT_SEASON", "2026")); err != nil {
		return Config{}, fmt.Errorf("CURRENT_SEASON: %w", err)
	}

	switch cfg.DBDriver {
	case "memory", "sqlite":
	case "postgres":
		// development without a URL stands in with SQLite
		if cfg.DatabaseURL == "" && !cfg.Development() {
			return Config{}, errors.New("DATABASE_URL environment variable is required for postgres driver")
		}
	default:
		return Config{}, fmt.Errorf("unknown DB_DRIVER: %s (valid: memory, sqlite, postgres)", cfg.DBDriver)
	}

	if !cfg.Development() && (cfg.AuthentikBaseURL == "" || cfg.AuthentikClientID == "" || cfg.AuthentikClientSecret == "") {
		return Config{}, errors.New("AUTHENTIK_BASE_URL, AUTHENTIK_CLIENT_ID, and AUTHENTIK_CLIENT_SECRET environment variables are required outside development")
	}

	if _, err := phase.ByName(cfg.PhasePolicy); err != nil {
		return Config{}, err
	}

	if cfg.TuningFile != "" {
		if cfg.Tuning, err = LoadTuning(cfg.TuningFile); err != nil {
			return Config{}, err
		}
	}
	return cfg, nil
}

// LoadTuning reads a YAML tuning document over the defaults
func LoadTuning(path string) (Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Tuning{}, fmt.Errorf("read tuning file: %w", err)
	}
	t := DefaultTuning()
	if err := yaml.Unmarshal(data, &t); err != nil {
		return Tuning{}, fmt.Errorf("parse tuning file %s: %w", path, err)
	}
	if err := t.Validate(); err != nil {
		return Tuning{}, fmt.Errorf("tuning file %s: %w", path, err)
	}
	logger.Info("Loaded tuning overrides", "file", path)
	return t, nil
}

// Validate rejects thresholds the engine cannot work with
func (t Tuning) Validate() error {
	p := t.Trades
	switch {
	case p.MaxProposals < 1:
		return fmt.Errorf("trades.maxProposals must be at least 1, got %d", p.MaxProposals)
	case p.BuyLowerRatio <= 0 || p.BuyUpperRatio < p.BuyLowerRatio:
		return fmt.Errorf("trades buy band [%.2f, %.2f] is invalid", p.BuyLowerRatio, p.BuyUpperRatio)
	case p.SwapTolerance < 0 || p.SwapTolerance >= 1:
		return fmt.Errorf("trades.swapTolerance must be in [0, 1), got %.2f", p.SwapTolerance)
	case p.SellPremium < 1:
		return fmt.Errorf("trades.sellPremium must be at least 1, got %.2f", p.SellPremium)
	case p.SellFloorRatio <= 0 || p.SellFloorRatio > p.SellPremium:
		return fmt.Errorf("trades.sellFloorRatio must be in (0, sellPremium], got %.2f", p.SellFloorRatio)
	case t.Phase.HighPickCapital < 0:
		return fmt.Errorf("phase.highPickCapital must not be negative, got %d", t.Phase.HighPickCapital)
	}
	return nil
}
