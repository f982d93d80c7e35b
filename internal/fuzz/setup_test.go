package fuzz

import (
	"context"
	"testing"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/league"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
)

func init() {
	// Initialize logger for tests
	logger.Init()
}

// loadedLeague returns a seeded league with the demo catalog in force
func loadedLeague(f *testing.F) (*league.Service, *pubsub.PubSub) {
	f.Helper()
	ps := pubsub.New()
	svc := league.New(dal.NewMemoryDAL(),
		feeds.NewStaticMarketFeed("demo", dal.DemoMarketSnapshot()), nil,
		league.Options{CurrentSeason: dal.DemoSeason, Bus: ps})
	if _, err := svc.Refresh(context.Background()); err != nil {
		f.Fatal(err)
	}
	return svc, ps
}
