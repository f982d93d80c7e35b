// Package roadmap turns a team's phase, trade proposals and pick capital into
// a per-team action plan. All thresholds are counts or value floors; nothing
// here computes new values.
package roadmap

import (
	"fmt"
	"sort"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/aging"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/trades"
)

const (
	// MaxBuyCandidates caps the buy list
	MaxBuyCandidates = 10
	// MaxRecommendations caps the trade proposals carried into a roadmap
	MaxRecommendations = 5

	// HoldFutureFirsts and AddFutureFirsts are the future first-round pick
	// counts at which a rebuilding team stops accumulating
	HoldFutureFirsts = 6
	AddFutureFirsts  = 4
)

// buyFilter bounds the players worth targeting in a given phase
type buyFilter struct {
	maxAge   float64
	minValue int
}

var buyFilters = map[models.Phase]buyFilter{
	models.PhaseContend: {maxAge: 30, minValue: 4000},
	models.PhaseRetool:  {maxAge: 27, minValue: 3000},
	models.PhaseRebuild: {maxAge: 24, minValue: 1500},
	models.PhaseTank:    {maxAge: 24, minValue: 1500},
}

// Generator builds roadmaps. Sell candidates use the trade engine's age
// floors so both views agree on who is for sale.
type Generator struct {
	params trades.Params
}

// NewGenerator creates a generator sharing the engine's thresholds
func NewGenerator(params trades.Params) *Generator {
	return &Generator{params: params}
}

// Generate assembles the roadmap for prof in phase ph. others is the rest of
// the league and is scanned for buy candidates; prof itself is skipped if
// present.
func (g *Generator) Generate(prof models.TeamProfile, ph models.Phase, proposals []models.TradeProposal, capital models.PickCapital, others []models.TeamProfile) models.Roadmap {
	recs := proposals
	if len(recs) > MaxRecommendations {
		recs = recs[:MaxRecommendations]
	}
	if recs == nil {
		recs = []models.TradeProposal{}
	}

	return models.Roadmap{
		TeamID:               prof.TeamID,
		TeamName:             prof.TeamName,
		Phase:                ph,
		KeyActions:           keyActions(prof, ph, capital),
		SellCandidates:       g.sellCandidates(prof),
		BuyCandidates:        buyCandidates(prof, ph, others),
		TradeRecommendations: recs,
		DraftStrategy:        draftStrategy(prof, ph, capital),
		PickCapital:          capital,
	}
}

// SummarizePicks counts and totals a team's owned picks. Picks must already
// carry resolved values.
func SummarizePicks(picks []models.DraftPick, currentSeason int) models.PickCapital {
	var pc models.PickCapital
	for _, p := range picks {
		pc.TotalValue += p.Value
		pc.Count++
		if p.Round != 1 {
			continue
		}
		switch {
		case p.Season == currentSeason:
			pc.CurrentYearFirsts++
		case p.Season > currentSeason:
			pc.FutureFirsts++
		}
	}
	return pc
}

func (g *Generator) sellCandidates(prof models.TeamProfile) []models.SellCandidate {
	out := []models.SellCandidate{}
	for _, pl := range prof.Roster {
		if !g.params.IsSellCandidate(pl) {
			continue
		}
		adj := aging.Adjust(pl.Position, pl.Value, pl.Age)
		target := g.params.SellTarget(pl.Value)
		out = append(out, models.SellCandidate{
			Player:        pl,
			AdjustedValue: adj.AdjustedValue,
			CurvePhase:    string(adj.Phase),
			TargetReturn:  target,
			Note:          sellNote(pl, adj, target),
		})
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Player.Value > out[j].Player.Value
	})
	return out
}

func sellNote(pl models.Player, adj aging.Adjustment, target int) string {
	switch adj.Phase {
	case aging.Cliff:
		return fmt.Sprintf("Past the %s cliff; take the best offer near %d before the value is gone", pl.Position, target)
	case aging.Declining:
		return fmt.Sprintf("Declining %s; ask for %d in picks or young players", pl.Position, target)
	default:
		return fmt.Sprintf("At the %s sell age; ask for %d from a contender", pl.Position, target)
	}
}

func buyCandidates(prof models.TeamProfile, ph models.Phase, others []models.TeamProfile) []models.BuyCandidate {
	out := []models.BuyCandidate{}
	filter, ok := buyFilters[ph]
	if !ok || len(prof.Weaknesses) == 0 {
		return out
	}

	for _, other := range others {
		if other.TeamID == prof.TeamID {
			continue
		}
		for _, pl := range other.Roster {
			if !prof.IsWeakness(pl.Position) || pl.Value < filter.minValue {
				continue
			}
			if pl.Age <= 0 || pl.Age > filter.maxAge {
				continue
			}
			out = append(out, models.BuyCandidate{
				Player:   pl,
				TeamID:   other.TeamID,
				TeamName: other.TeamName,
				Reason:   fmt.Sprintf("Fills your %s need (age %.0f, value %d)", pl.Position, pl.Age, pl.Value),
			})
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Player.Value != out[j].Player.Value {
			return out[i].Player.Value > out[j].Player.Value
		}
		if out[i].TeamID != out[j].TeamID {
			return out[i].TeamID < out[j].TeamID
		}
		return out[i].Player.Name < out[j].Player.Name
	})
	if len(out) > MaxBuyCandidates {
		out = out[:MaxBuyCandidates]
	}
	return out
}

func keyActions(prof models.TeamProfile, ph models.Phase, capital models.PickCapital) []string {
	var actions []string
	switch ph {
	case models.PhaseContend:
		actions = []string{
			"Push chips in: convert future picks into proven starters",
			"Target weekly-lineup upgrades over depth",
			"Move aging depth before it loses value, but keep your core starters",
		}
	case models.PhaseRetool:
		actions = []string{
			"Sell veterans past their sell age while contenders will pay",
			"Buy young starters at weak positions rather than rookies",
			"Hold your elite assets; the window reopens within a season",
		}
	case models.PhaseRebuild:
		actions = []string{
			"Sell every veteran contenders will pay for",
			"Prioritize players 24 and younger",
		}
		actions = append(actions, pickAction(capital.FutureFirsts))
	default:
		actions = []string{
			"Sell anything over 26 with real value",
			"Maximize next year's draft position",
		}
		actions = append(actions, pickAction(capital.FutureFirsts))
	}

	for _, pos := range prof.Weaknesses {
		actions = append(actions, fmt.Sprintf("Address the %s weakness", pos))
	}
	return actions
}

func pickAction(futureFirsts int) string {
	switch {
	case futureFirsts >= HoldFutureFirsts:
		return fmt.Sprintf("Hold and dominate: %d future firsts is enough capital to control the draft", futureFirsts)
	case futureFirsts >= AddFutureFirsts:
		return fmt.Sprintf("Add 1-2 more future firsts if cheap (%d owned)", futureFirsts)
	default:
		return fmt.Sprintf("Accumulate future firsts (%d owned)", futureFirsts)
	}
}

func draftStrategy(prof models.TeamProfile, ph models.Phase, capital models.PickCapital) string {
	needQB := prof.IsWeakness(models.PositionQB)
	needRB := prof.IsWeakness(models.PositionRB)
	firsts := capital.CurrentYearFirsts

	switch ph {
	case models.PhaseContend, models.PhaseRetool:
		switch {
		case firsts == 0:
			return "No first this year. Use later picks on upside handcuffs and stash prospects"
		case needRB:
			return "Trade the first for a proven RB, or take the best rookie RB if none is available"
		case needQB:
			return "Use the first on a QB only if a starter is on the board; otherwise trade it for a veteran"
		default:
			return "Trade the first for a proven starter; rookies rarely help a contender this season"
		}
	default:
		switch {
		case firsts >= 2 && needQB:
			return "Multiple firsts: take the top QB with one and best player available with the rest"
		case firsts >= 2:
			return "Multiple firsts: take best player available and consider trading up for an elite prospect"
		case firsts == 1 && (needQB || needRB):
			return "Take the best player available at your weakest position with the first"
		case firsts == 1:
			return "Take the best player available with the first"
		default:
			return "No first this year. Acquire one from a contender by selling veterans"
		}
	}
}
