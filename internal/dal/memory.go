package dal

import (
	"context"
	"sync"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// MemoryDAL implements LeagueDAL using in-memory storage
type MemoryDAL struct {
	mu     sync.RWMutex
	teams  []models.Team
	picks  []models.DraftPick
	market []marketRow
	pickMV []models.PickMarketValue
	meta   models.MarketSnapshot
}

// NewMemoryDAL creates a new in-memory data access layer seeded with the
// demo league
func NewMemoryDAL() *MemoryDAL {
	return &MemoryDAL{
		teams: getDefaultTeams(),
		picks: getDefaultPicks(),
	}
}

// NewEmptyMemoryDAL creates an in-memory data access layer with no teams
func NewEmptyMemoryDAL() *MemoryDAL {
	return &MemoryDAL{}
}

func (m *MemoryDAL) ListTeams(ctx context.Context) ([]models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	// Create copies to avoid race conditions
	out := make([]models.Team, len(m.teams))
	for i, t := range m.teams {
		out[i] = copyTeam(t)
	}
	return out, nil
}

func (m *MemoryDAL) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.teams {
		if t.ID == id {
			team := copyTeam(t)
			return &team, nil
		}
	}
	return nil, ErrTeamNotFound
}

func (m *MemoryDAL) UpsertTeam(ctx context.Context, team models.Team) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	team = copyTeam(team)
	for i := range m.teams {
		if m.teams[i].ID == team.ID {
			// phase hint survives a roster sync
			team.LastPhase = m.teams[i].LastPhase
			team.LastPhaseAt = m.teams[i].LastPhaseAt
			m.teams[i] = team
			return nil
		}
	}
	m.teams = append(m.teams, team)
	return nil
}

func (m *MemoryDAL) ListPicks(ctx context.Context) ([]models.DraftPick, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]models.DraftPick, len(m.picks))
	copy(out, m.picks)
	sortPicks(out)
	return out, nil
}

func (m *MemoryDAL) ReplacePicks(ctx context.Context, picks []models.DraftPick) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.picks = append([]models.DraftPick(nil), picks...)
	return nil
}

func (m *MemoryDAL) SavePhase(ctx context.Context, teamID string, phase models.Phase, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.teams {
		if m.teams[i].ID == teamID {
			m.teams[i].LastPhase = phase
			m.teams[i].LastPhaseAt = at.UTC()
			return nil
		}
	}
	return ErrTeamNotFound
}

func (m *MemoryDAL) UpsertMarketValues(ctx context.Context, snap models.MarketSnapshot) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.market = canonicalRows(snap.Players)
	m.pickMV = uniquePicks(snap.Picks)
	m.meta = models.MarketSnapshot{FetchedAt: fetchedAtOrNow(snap.FetchedAt), Source: snap.Source}
	return nil
}

func (m *MemoryDAL) LoadMarketSnapshot(ctx context.Context) (models.MarketSnapshot, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	snap := models.MarketSnapshot{
		Players:   make([]models.MarketValue, 0, len(m.market)),
		Picks:     append([]models.PickMarketValue(nil), m.pickMV...),
		FetchedAt: m.meta.FetchedAt,
		Source:    m.meta.Source,
	}
	for _, r := range m.market {
		snap.Players = append(snap.Players, r.MarketValue)
	}
	return snap, nil
}

func (m *MemoryDAL) Close() error { return nil }
