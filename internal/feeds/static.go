package feeds

import (
	"context"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// StaticMarketFeed serves a fixed snapshot, loaded from a YAML seed file or
// supplied directly. Used for local development and as a last-resort fallback.
type StaticMarketFeed struct {
	name string
	snap models.MarketSnapshot
}

// NewStaticMarketFeed serves snap unchanged on every fetch
func NewStaticMarketFeed(name string, snap models.MarketSnapshot) *StaticMarketFeed {
	return &StaticMarketFeed{name: name, snap: snap}
}

// LoadStaticMarketFeed reads a YAML document with players and picks lists
func LoadStaticMarketFeed(path string) (*StaticMarketFeed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read market seed: %w", err)
	}
	var snap models.MarketSnapshot
	if err := yaml.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parse market seed %s: %w", path, err)
	}
	if len(snap.Players) == 0 && len(snap.Picks) == 0 {
		return nil, fmt.Errorf("market seed %s is empty", path)
	}
	return NewStaticMarketFeed("static:"+path, snap), nil
}

func (f *StaticMarketFeed) Name() string { return f.name }

func (f *StaticMarketFeed) FetchMarket(ctx context.Context) (models.MarketSnapshot, error) {
	if err := ctx.Err(); err != nil {
		return models.MarketSnapshot{}, err
	}
	snap := models.MarketSnapshot{
		Players:   append([]models.MarketValue(nil), f.snap.Players...),
		Picks:     append([]models.PickMarketValue(nil), f.snap.Picks...),
		FetchedAt: time.Now().UTC(),
		Source:    f.name,
	}
	return snap, nil
}
