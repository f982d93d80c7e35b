// Package feeds fetches market values and league rosters from external
// sources. Every feed either returns a complete result or an error; callers
// never see a partially fetched snapshot.
package feeds

import (
	"context"
	"errors"
	"fmt"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/ingest"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// ErrFeedUnavailable is returned when a feed cannot produce a result
var ErrFeedUnavailable = errors.New("feed unavailable")

// MarketFeed supplies the market value snapshot the catalog is built from
type MarketFeed interface {
	Name() string
	FetchMarket(ctx context.Context) (models.MarketSnapshot, error)
}

// RosterFeed supplies every team's roster and record plus the pick ledger
type RosterFeed interface {
	Name() string
	FetchLeague(ctx context.Context) (models.LeagueState, []ingest.Issue, error)
}

// FallbackMarketFeed tries primary and, on failure, returns the secondary
// result in full. The two results are never merged.
type FallbackMarketFeed struct {
	primary   MarketFeed
	secondary MarketFeed
}

// NewFallbackMarketFeed chains two market feeds
func NewFallbackMarketFeed(primary, secondary MarketFeed) *FallbackMarketFeed {
	return &FallbackMarketFeed{primary: primary, secondary: secondary}
}

func (f *FallbackMarketFeed) Name() string {
	return f.primary.Name() + "|" + f.secondary.Name()
}

func (f *FallbackMarketFeed) FetchMarket(ctx context.Context) (models.MarketSnapshot, error) {
	snap, err := f.primary.FetchMarket(ctx)
	if err == nil {
		return snap, nil
	}
	if ctx.Err() != nil {
		return models.MarketSnapshot{}, ctx.Err()
	}

	logger.Warn("Primary market feed failed, using fallback",
		"primary", f.primary.Name(),
		"fallback", f.secondary.Name(),
		"error", err)

	fallback, ferr := f.secondary.FetchMarket(ctx)
	if ferr != nil {
		return models.MarketSnapshot{}, fmt.Errorf("%w: primary: %v; fallback: %v", ErrFeedUnavailable, err, ferr)
	}
	return fallback, nil
}
