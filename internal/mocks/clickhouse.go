package mocks

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/ingest"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// MockMarketFeed serves the demo market values in place of ClickHouse for
// local development
type MockMarketFeed struct {
	mu       sync.Mutex
	rng      *rand.Rand
	variance float64
	base     models.MarketSnapshot
}

// NewMockMarketFeed creates a mock market feed. variance is the fraction
// (0.1 = ±10%) each player value drifts on every fetch; zero keeps values fixed.
func NewMockMarketFeed(variance float64, seed int64) *MockMarketFeed {
	logger.Info("Using MOCK market feed for local development", "variance", variance)

	return &MockMarketFeed{
		rng:      rand.New(rand.NewSource(seed)),
		variance: variance,
		base:     dal.DemoMarketSnapshot(),
	}
}

func (m *MockMarketFeed) Name() string { return "mock-market" }

// FetchMarket returns the demo snapshot with slight variation
func (m *MockMarketFeed) FetchMarket(ctx context.Context) (models.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.MarketSnapshot{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	snap := models.MarketSnapshot{
		Players:   make([]models.MarketValue, len(m.base.Players)),
		Picks:     append([]models.PickMarketValue(nil), m.base.Picks...),
		FetchedAt: time.Now().UTC(),
		Source:    m.Name(),
	}
	for i, mv := range m.base.Players {
		if span := int(float64(mv.Value) * m.variance); span > 0 {
			mv.Value += m.rng.Intn(2*span+1) - span
		}
		snap.Players[i] = mv
	}
	return snap, nil
}

// MockRosterFeed serves the demo league in place of the league host API
type MockRosterFeed struct {
	source dal.LeagueDAL
}

// NewMockRosterFeed creates a roster feed backed by the seeded demo league
func NewMockRosterFeed() *MockRosterFeed {
	logger.Info("Using MOCK roster feed for local development")
	return &MockRosterFeed{source: dal.NewMemoryDAL()}
}

func (m *MockRosterFeed) Name() string { return "mock-roster" }

func (m *MockRosterFeed) FetchLeague(ctx context.Context) (models.LeagueState, []ingest.Issue, error) {
	state, err := dal.Snapshot(ctx, m.source)
	return state, nil, err
}

// Close is a no-op for mock feeds
func (m *MockMarketFeed) Close() error {
	return nil
}
