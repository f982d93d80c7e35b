package mocks

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/valuation"
)

func TestMockMarketFeedStaysWithinVariance(t *testing.T) {
	base := dal.DemoMarketSnapshot()
	feed := NewMockMarketFeed(0.1, 7)

	snap, err := feed.FetchMarket(context.Background())
	require.NoError(t, err)
	require.Len(t, snap.Players, len(base.Players))
	assert.Equal(t, "mock-market", snap.Source)

	for i, mv := range snap.Players {
		want := base.Players[i].Value
		span := int(float64(want) * 0.1)
		assert.InDelta(t, want, mv.Value, float64(span), mv.Name)
	}

	_, err = valuation.NewCatalog(snap, valuation.Options{CurrentSeason: dal.DemoSeason})
	assert.NoError(t, err)
}

func TestMockMarketFeedFixedWithoutVariance(t *testing.T) {
	feed := NewMockMarketFeed(0, 1)
	a, err := feed.FetchMarket(context.Background())
	require.NoError(t, err)
	b, err := feed.FetchMarket(context.Background())
	require.NoError(t, err)
	assert.Equal(t, a.Players, b.Players)
}

func TestMockMarketFeedHonorsContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewMockMarketFeed(0, 1).FetchMarket(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockRosterFeed(t *testing.T) {
	state, issues, err := NewMockRosterFeed().FetchLeague(context.Background())
	require.NoError(t, err)
	assert.Empty(t, issues)
	assert.Len(t, state.Teams, 6)
	assert.NotEmpty(t, state.Picks)
}

func TestEventLogRecordsInOrder(t *testing.T) {
	l := NewEventLog()
	defer l.Close()

	ch := l.Subscribe()
	l.Publish(pubsub.CatalogRefreshed("v1", "demo", 10, 2))
	l.Publish(pubsub.LeagueSynced("r", 1, 2, 0))
	l.Publish(pubsub.LeagueSynced("r2", 1, 2, 0))

	assert.Equal(t, pubsub.EventCatalogRefreshed, (<-ch).Type)
	events := l.Events()
	require.Len(t, events, 3)
	assert.Equal(t, "r2", events[2].Payload["run_id"])
	assert.Equal(t, map[string]int{pubsub.EventCatalogRefreshed: 1, pubsub.EventLeagueSynced: 2}, l.Counts())

	events[0].Type = "mutated"
	assert.Equal(t, pubsub.EventCatalogRefreshed, l.Events()[0].Type)
}
