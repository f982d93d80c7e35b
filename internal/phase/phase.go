// Package phase classifies a team's competitive posture from its profile.
//
// Two policies exist. ValuePolicy is canonical and drives roadmaps and trade
// matching. RankPolicy is the simpler rank/record model kept under its own name
// for sync-time reporting.
package phase

import (
	"fmt"
	"math"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// Inputs carries league context beyond the profile itself
type Inputs struct {
	// LeagueTotals holds every team's player total, including this team's
	LeagueTotals []int
	// Record is optional
	Record *models.Record
	// PickCapital is the value of the team's owned picks
	PickCapital int
}

// Policy maps a profile onto a phase
type Policy interface {
	Name() string
	Classify(p models.TeamProfile, in Inputs) models.Phase
}

// ByName returns a policy by its configured name
func ByName(name string) (Policy, error) {
	switch name {
	case "", "value":
		return DefaultValuePolicy(), nil
	case "rank":
		return RankPolicy{}, nil
	default:
		return nil, fmt.Errorf("unknown phase policy: %q", name)
	}
}

// Rank returns the team's 1-based value rank. Teams tied on value all take
// the lowest rank of the tie.
func Rank(total int, totals []int) int {
	rank := 0
	for _, v := range totals {
		if v >= total {
			rank++
		}
	}
	if rank == 0 {
		return 1
	}
	return rank
}

// cutoff returns the last rank inside the top fraction q of n teams
func cutoff(n int, q float64) int {
	c := int(math.Floor(float64(n) * q))
	if c < 1 {
		return 1
	}
	return c
}

// ValuePolicy is the canonical four-phase model over value rank, elite
// assets, roster age and pick capital
type ValuePolicy struct {
	HighPickCapital int     `yaml:"highPickCapital"`
	ContendMaxAge   float64 `yaml:"contendMaxAge"`
	RetoolMaxAge    float64 `yaml:"retoolMaxAge"`
}

// DefaultValuePolicy returns the standard thresholds
func DefaultValuePolicy() ValuePolicy {
	return ValuePolicy{
		HighPickCapital: 20000,
		ContendMaxAge:   28,
		RetoolMaxAge:    27,
	}
}

func (ValuePolicy) Name() string { return "value" }

// Classify evaluates phases from most to least ambitious and returns the
// first that holds, so borderline teams land in the more conservative phase.
func (vp ValuePolicy) Classify(p models.TeamProfile, in Inputs) models.Phase {
	totals := in.LeagueTotals
	if len(totals) == 0 {
		totals = []int{p.TotalValue}
	}
	n := len(totals)
	rank := Rank(p.TotalValue, totals)
	hasElite := p.EliteCount > 0

	switch {
	case rank <= cutoff(n, 0.25) && hasElite && p.AvgAge < vp.ContendMaxAge:
		return models.PhaseContend
	case rank <= cutoff(n, 0.5) || (hasElite && p.AvgAge < vp.RetoolMaxAge):
		return models.PhaseRetool
	case rank <= cutoff(n, 0.75) || in.PickCapital >= vp.HighPickCapital:
		return models.PhaseRebuild
	default:
		return models.PhaseTank
	}
}

// RankPolicy is a three-phase model over value rank and record
type RankPolicy struct{}

func (RankPolicy) Name() string { return "rank" }

func (RankPolicy) Classify(p models.TeamProfile, in Inputs) models.Phase {
	totals := in.LeagueTotals
	if len(totals) == 0 {
		totals = []int{p.TotalValue}
	}
	n := len(totals)
	rank := Rank(p.TotalValue, totals)
	third := n / 3
	if third < 1 {
		third = 1
	}

	winPct := -1.0
	if in.Record != nil && in.Record.Wins+in.Record.Losses+in.Record.Ties > 0 {
		winPct = in.Record.WinPct()
	}

	switch {
	case rank <= third || winPct >= 0.65:
		return models.PhaseContend
	case rank > n-third && winPct < 0.5:
		return models.PhaseRebuild
	default:
		return models.PhaseRetool
	}
}

// ClassifyLeague sets Phase on every profile using league-wide context
func ClassifyLeague(profiles []models.TeamProfile, policy Policy) []models.TeamProfile {
	totals := make([]int, len(profiles))
	for i, p := range profiles {
		totals[i] = p.TotalValue
	}
	out := make([]models.TeamProfile, len(profiles))
	for i, p := range profiles {
		rec := p.Record
		p.Phase = policy.Classify(p, Inputs{
			LeagueTotals: totals,
			Record:       &rec,
			PickCapital:  p.PickValue,
		})
		out[i] = p
	}
	return out
}
