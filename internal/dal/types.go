package dal

import (
	"context"
	"errors"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// ErrTeamNotFound is returned when a team id is unknown
var ErrTeamNotFound = errors.New("team not found")

// LeagueDAL defines the interface for data access layer
type LeagueDAL interface {
	ListTeams(ctx context.Context) ([]models.Team, error)
	GetTeam(ctx context.Context, id string) (*models.Team, error)
	UpsertTeam(ctx context.Context, team models.Team) error

	ListPicks(ctx context.Context) ([]models.DraftPick, error)
	// ReplacePicks swaps the whole pick ledger in one step
	ReplacePicks(ctx context.Context, picks []models.DraftPick) error

	// SavePhase records the last computed phase as a hint. It is never read
	// back as input to classification.
	SavePhase(ctx context.Context, teamID string, phase models.Phase, at time.Time) error

	// UpsertMarketValues stores the last good market snapshot keyed by
	// canonical player name and pick name. Entries absent from snap are removed.
	UpsertMarketValues(ctx context.Context, snap models.MarketSnapshot) error
	LoadMarketSnapshot(ctx context.Context) (models.MarketSnapshot, error)

	Close() error
}

// Snapshot reads every team and the pick ledger
func Snapshot(ctx context.Context, d LeagueDAL) (models.LeagueState, error) {
	teams, err := d.ListTeams(ctx)
	if err != nil {
		return models.LeagueState{}, err
	}
	picks, err := d.ListPicks(ctx)
	if err != nil {
		return models.LeagueState{}, err
	}
	return models.LeagueState{Teams: teams, Picks: picks}, nil
}
