// Package profile aggregates a team's roster into a TeamProfile using live
// catalog values.
package profile

import (
	"sort"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/aging"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/valuation"
)

const (
	// DefaultAge stands in for a missing age and for the average of an
	// empty position
	DefaultAge = 25.0

	StrengthFactor = 1.2
	WeaknessFactor = 0.8
)

// Catalog is the subset of the value catalog the builder needs
type Catalog interface {
	ResolvePlayer(p models.Player) (valuation.Valuation, string)
	PickValue(season, round, slot int) int
}

type positionAccumulator struct {
	value    int
	adjusted int
	count    int
	ageSum   float64
}

// Build re-resolves every roster asset against the catalog and aggregates
// the result. Cached per-asset values on the input are ignored.
func Build(team models.Team, picks []models.DraftPick, catalog Catalog) models.TeamProfile {
	prof := models.TeamProfile{
		TeamID:     team.ID,
		TeamName:   team.Name,
		Record:     team.Record,
		Roster:     make([]models.Player, 0, len(team.Roster)),
		Picks:      make([]models.DraftPick, 0, len(picks)),
		ByPosition: make(map[models.Position]models.PositionSummary, len(models.Positions)),
		Strengths:  []models.Position{},
		Weaknesses: []models.Position{},
	}

	acc := make(map[models.Position]*positionAccumulator, len(models.Positions))
	for _, pos := range models.Positions {
		acc[pos] = &positionAccumulator{}
	}

	var ageSum float64
	var ageCount int
	for _, p := range team.Roster {
		v, name := catalog.ResolvePlayer(p)
		p.Name = name
		p.Value = v.Value
		p.Tier = v.Tier
		prof.Roster = append(prof.Roster, p)
		prof.TotalValue += p.Value
		if p.Tier == models.TierElite {
			prof.EliteCount++
		}

		adjusted := aging.Adjust(p.Position, p.Value, p.Age).AdjustedValue
		prof.AdjustedValue += adjusted

		a, ok := acc[p.Position]
		if !ok {
			continue
		}
		age := p.Age
		if age <= 0 {
			age = DefaultAge
		}
		a.value += p.Value
		a.adjusted += adjusted
		a.count++
		a.ageSum += age
		ageSum += age
		ageCount++
	}
	prof.AvgAge = average(ageSum, ageCount)

	for _, pk := range picks {
		pk.Value = catalog.PickValue(pk.Season, pk.Round, pk.Slot)
		prof.Picks = append(prof.Picks, pk)
		prof.PickValue += pk.Value
	}
	sort.SliceStable(prof.Picks, func(i, j int) bool { return prof.Picks[i].Value > prof.Picks[j].Value })
	sort.SliceStable(prof.Roster, func(i, j int) bool { return prof.Roster[i].Value > prof.Roster[j].Value })

	var positionTotal int
	for _, pos := range models.Positions {
		a := acc[pos]
		prof.ByPosition[pos] = models.PositionSummary{
			Value:         a.value,
			AdjustedValue: a.adjusted,
			Count:         a.count,
			AvgAge:        average(a.ageSum, a.count),
		}
		positionTotal += a.value
	}

	positionAverage := float64(positionTotal) / float64(len(models.Positions))
	for _, pos := range models.Positions {
		v := float64(acc[pos].value)
		switch {
		case v > StrengthFactor*positionAverage:
			prof.Strengths = append(prof.Strengths, pos)
		case v < WeaknessFactor*positionAverage:
			prof.Weaknesses = append(prof.Weaknesses, pos)
		}
	}
	return prof
}

func average(sum float64, n int) float64 {
	if n == 0 {
		return DefaultAge
	}
	return sum / float64(n)
}

// BuildAll builds a profile for every team in the league state
func BuildAll(state models.LeagueState, catalog Catalog) []models.TeamProfile {
	out := make([]models.TeamProfile, 0, len(state.Teams))
	for _, t := range state.Teams {
		out = append(out, Build(t, state.PicksOwnedBy(t.ID), catalog))
	}
	return out
}
