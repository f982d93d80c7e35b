package models

import (
	"fmt"
	"strings"
	"time"
)

// Position is a fantasy roster position
type Position string

const (
	PositionQB Position = "QB"
	PositionRB Position = "RB"
	PositionWR Position = "WR"
	PositionTE Position = "TE"
)

// Positions lists the valued positions in a fixed order
var Positions = []Position{PositionQB, PositionRB, PositionWR, PositionTE}

// ParsePosition maps an external position string onto a Position
func ParsePosition(s string) (Position, bool) {
	switch Position(strings.ToUpper(strings.TrimSpace(s))) {
	case PositionQB:
		return PositionQB, true
	case PositionRB:
		return PositionRB, true
	case PositionWR:
		return PositionWR, true
	case PositionTE:
		return PositionTE, true
	}
	return "", false
}

// Tier is a named value bucket
type Tier string

const (
	TierElite   Tier = "Elite"
	TierStar    Tier = "Star"
	TierStarter Tier = "Starter"
	TierFlex    Tier = "Flex"
	TierBench   Tier = "Bench"
	TierClogger Tier = "Clogger"
	TierUnknown Tier = "Unknown"
)

// Player is a rostered player asset
type Player struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Position Position `json:"position"`
	Team     string   `json:"team"`
	Age      float64  `json:"age,omitempty"`
	Value    int      `json:"value"`
	Tier     Tier     `json:"tier"`
}

// DraftPick is a future rookie draft pick. Slot is zero when unknown.
type DraftPick struct {
	Season        int    `json:"season"`
	Round         int    `json:"round"`
	Slot          int    `json:"slot,omitempty"`
	OriginalOwner string `json:"originalOwner"`
	CurrentOwner  string `json:"currentOwner"`
	Value         int    `json:"value"`
}

// Key is the natural key of a pick
func (p DraftPick) Key() string {
	return fmt.Sprintf("%d-%d-%s", p.Season, p.Round, p.OriginalOwner)
}

// Label renders the pick for humans, e.g. "2027 Round 1" or "2026 1.02"
func (p DraftPick) Label() string {
	if p.Slot > 0 {
		return fmt.Sprintf("%d %d.%02d", p.Season, p.Round, p.Slot)
	}
	return fmt.Sprintf("%d Round %d", p.Season, p.Round)
}

// AssetKind tags the Asset union
type AssetKind string

const (
	AssetPlayer AssetKind = "player"
	AssetPick   AssetKind = "pick"
)

// Asset is either a player or a draft pick. Exactly one of Player or Pick is set.
type Asset struct {
	Kind   AssetKind  `json:"kind"`
	Player *Player    `json:"player,omitempty"`
	Pick   *DraftPick `json:"pick,omitempty"`
}

// PlayerAsset wraps a player
func PlayerAsset(p Player) Asset {
	return Asset{Kind: AssetPlayer, Player: &p}
}

// PickAsset wraps a pick
func PickAsset(p DraftPick) Asset {
	return Asset{Kind: AssetPick, Pick: &p}
}

// Value returns the asset's resolved value
func (a Asset) Value() int {
	switch a.Kind {
	case AssetPlayer:
		if a.Player != nil {
			return a.Player.Value
		}
	case AssetPick:
		if a.Pick != nil {
			return a.Pick.Value
		}
	}
	return 0
}

// Name returns a display name for the asset
func (a Asset) Name() string {
	switch a.Kind {
	case AssetPlayer:
		if a.Player != nil {
			return a.Player.Name
		}
	case AssetPick:
		if a.Pick != nil {
			return a.Pick.Label()
		}
	}
	return ""
}

// ID returns a stable identifier for the asset
func (a Asset) ID() string {
	switch a.Kind {
	case AssetPlayer:
		if a.Player != nil {
			if a.Player.ID != "" {
				return "player:" + a.Player.ID
			}
			return "player:" + a.Player.Name
		}
	case AssetPick:
		if a.Pick != nil {
			return "pick:" + a.Pick.Key()
		}
	}
	return ""
}

// Record is a win/loss record
type Record struct {
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Ties      int     `json:"ties"`
	PointsFor float64 `json:"pointsFor"`
}

// WinPct returns the winning percentage, 0 when no games are played
func (r Record) WinPct() float64 {
	games := r.Wins + r.Losses + r.Ties
	if games == 0 {
		return 0
	}
	return (float64(r.Wins) + 0.5*float64(r.Ties)) / float64(games)
}

// Team represents a league team and its roster
type Team struct {
	ID     string   `json:"id"`
	Name   string   `json:"name"`
	Owner  string   `json:"owner"`
	Record Record   `json:"record"`
	Roster []Player `json:"roster"`

	// LastPhase is the phase computed on the last profile rebuild. It is a hint only.
	LastPhase   Phase     `json:"lastPhase,omitempty"`
	LastPhaseAt time.Time `json:"lastPhaseAt,omitempty"`
}

// MarketValue is one entry of the external market value feed
type MarketValue struct {
	// PlayerID is the feed's player id, matching roster entries
	PlayerID string  `json:"playerId,omitempty" yaml:"playerId,omitempty"`
	Name     string  `json:"name" yaml:"name"`
	Position string  `json:"position" yaml:"position"`
	Team     string  `json:"team" yaml:"team"`
	Age      float64 `json:"age" yaml:"age"`
	Value    int     `json:"value" yaml:"value"`
	Trend    int     `json:"trend" yaml:"trend"`
}

// PickMarketValue is a pick entry of the market value feed, e.g. {"2026 1.02", 6600}
type PickMarketValue struct {
	PickName string `json:"pickName" yaml:"pickName"`
	Value    int    `json:"value" yaml:"value"`
}

// MarketSnapshot is a complete market feed response
type MarketSnapshot struct {
	Players   []MarketValue     `json:"players" yaml:"players"`
	Picks     []PickMarketValue `json:"picks" yaml:"picks"`
	FetchedAt time.Time         `json:"fetchedAt" yaml:"-"`
	Source    string            `json:"source" yaml:"-"`
}

// LeagueState is a point-in-time snapshot of every team and the pick ledger
type LeagueState struct {
	Teams []Team      `json:"teams"`
	Picks []DraftPick `json:"picks"`
}

// PicksOwnedBy returns the picks currently owned by teamID
func (s *LeagueState) PicksOwnedBy(teamID string) []DraftPick {
	var out []DraftPick
	for _, p := range s.Picks {
		if p.CurrentOwner == teamID {
			out = append(out, p)
		}
	}
	return out
}
