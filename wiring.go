package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/clickhouse"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/config"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/metrics"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/mocks"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/phase"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

// closers runs cleanup in reverse order of registration
type closers []func()

func (c *closers) add(f func()) { *c = append(*c, f) }

func (c closers) close() {
	for i := len(c) - 1; i >= 0; i-- {
		c[i]()
	}
}

func openDAL(cfg config.Config) (dal.LeagueDAL, error) {
	switch cfg.DBDriver {
	case "sqlite":
		d, err := dal.NewSQLiteDAL(cfg.SQLiteFile)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite: %w", err)
		}
		logger.Info("Connected to SQLite database", "file", cfg.SQLiteFile)
		return d, nil
	case "postgres":
		if cfg.DatabaseURL == "" {
			// config only allows this in development
			logger.Warn("DATABASE_URL not set, standing in for Postgres with SQLite", "file", cfg.SQLiteFile)
			d, err := dal.NewSQLiteDAL(cfg.SQLiteFile)
			if err != nil {
				return nil, fmt.Errorf("failed to initialize SQLite stand-in: %w", err)
			}
			return d, nil
		}
		d, err := dal.NewPostgresDAL(cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres: %w", err)
		}
		logger.Info("Connected to Postgres database")
		return d, nil
	default:
		logger.Info("Using in-memory data store")
		return dal.NewMemoryDAL(), nil
	}
}

// openUpstream connects the event bus: embedded NATS in development, real
// NATS JetStream otherwise
func openUpstream(cfg config.Config) (pubsub.Bus, func(), error) {
	if cfg.Development() {
		logger.Info("Starting embedded NATS server for local development")
		embedded, err := pubsub.NewEmbeddedNATSPubSub(pubsub.EmbeddedNATSOptions{
			Subject: cfg.NATSSubject,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize embedded NATS: %w", err)
		}
		logger.Info("Embedded NATS server ready", "url", embedded.GetServerURL())
		return embedded, embedded.Close, nil
	}

	logger.Info("Using NATS JetStream", "url", cfg.NATSURL)
	n, err := pubsub.NewNATSPubSub(cfg.NATSURL, cfg.NATSSubject)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize NATS: %w", err)
	}
	return n, n.Close, nil
}

// openMarketFeed chains every configured market source, most authoritative
// first. Development falls back to the mock feed.
func openMarketFeed(cfg config.Config, cl *closers) (feeds.MarketFeed, error) {
	var chain []feeds.MarketFeed

	if cfg.ClickHouse.Addr != "" {
		ch, err := clickhouse.NewClient(cfg.ClickHouse.Addr, cfg.ClickHouse.DB, cfg.ClickHouse.User, cfg.ClickHouse.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize ClickHouse: %w", err)
		}
		cl.add(func() { ch.Close() })
		logger.Info("Connected to ClickHouse", "address", cfg.ClickHouse.Addr, "database", cfg.ClickHouse.DB)
		chain = append(chain, ch)
	}
	if cfg.Feeds.MarketURL != "" {
		chain = append(chain, feeds.NewHTTPMarketFeed(cfg.Feeds.MarketURL, httpFeedConfig(cfg)))
	}
	if cfg.Feeds.MarketSeedFile != "" {
		seed, err := feeds.LoadStaticMarketFeed(cfg.Feeds.MarketSeedFile)
		if err != nil {
			return nil, err
		}
		chain = append(chain, seed)
	}
	if len(chain) == 0 {
		if !cfg.Development() {
			return nil, errors.New("no market feed configured: set CLICKHOUSE_ADDR, MARKET_FEED_URL or MARKET_SEED_FILE")
		}
		mock := mocks.NewMockMarketFeed(0.03, time.Now().UnixNano())
		cl.add(func() { mock.Close() })
		chain = append(chain, mock)
	}

	feed := chain[len(chain)-1]
	for i := len(chain) - 2; i >= 0; i-- {
		feed = feeds.NewFallbackMarketFeed(chain[i], feed)
	}
	logger.Info("Market feed ready", "feed", feed.Name())
	return feed, nil
}

// openRosterFeed returns nil when no roster source is configured outside
// development; roster sync is then unavailable
func openRosterFeed(cfg config.Config) feeds.RosterFeed {
	switch {
	case cfg.Feeds.RosterURL != "":
		return feeds.NewHTTPRosterFeed(cfg.Feeds.RosterURL, httpFeedConfig(cfg))
	case cfg.Development():
		return mocks.NewMockRosterFeed()
	}
	logger.Warn("No roster feed configured, roster sync disabled")
	return nil
}

func httpFeedConfig(cfg config.Config) feeds.HTTPConfig {
	return feeds.HTTPConfig{
		TokenURL:     cfg.Feeds.TokenURL,
		ClientID:     cfg.Feeds.ClientID,
		ClientSecret: cfg.Feeds.ClientSecret,
	}
}

// newLeague assembles the league service from cfg
func newLeague(cfg config.Config, store dal.LeagueDAL, market feeds.MarketFeed, roster feeds.RosterFeed, bus pubsub.Bus, reg *metrics.Registry) (*league.Service, error) {
	report, err := phase.ByName(cfg.PhasePolicy)
	if err != nil {
		return nil, err
	}
	return league.New(store, market, roster, league.Options{
		CurrentSeason: cfg.CurrentSeason,
		Params:        cfg.Tuning.Trades,
		Phase:         cfg.Tuning.Phase,
		ReportPolicy:  report,
		Bus:           bus,
		Metrics:       reg,
	}), nil
}
