// Package trades proposes value-balanced trades between teams with
// complementary needs.
package trades

import (
	"fmt"
	"sort"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// Engine matches a team against the rest of the league. It holds no state
// beyond its parameters and is safe for concurrent use.
type Engine struct {
	params Params
}

// NewEngine creates an engine with the given parameters
func NewEngine(params Params) *Engine {
	return &Engine{params: params}
}

// Params returns the engine's parameters
func (e *Engine) Params() Params {
	return e.params
}

// FindTrades runs every strategy that applies to myMode against each other
// team and returns the merged, ranked proposals. myPicks must carry resolved
// values; when nil the profile's own picks are used. No match is not an error.
func (e *Engine) FindTrades(my models.TeamProfile, others []models.TeamProfile, myMode models.Phase, myPicks []models.DraftPick) []models.TradeProposal {
	if myPicks == nil {
		myPicks = my.Picks
	}

	var proposals []models.TradeProposal
	for _, other := range others {
		if other.TeamID == my.TeamID {
			continue
		}
		if myMode.Sells() {
			proposals = append(proposals, e.sellHigh(my, other)...)
		}
		if myMode.Buys() {
			proposals = append(proposals, e.buyLow(my, other, myPicks)...)
		}
		proposals = append(proposals, e.swaps(my, other)...)
	}

	ranked := e.rank(proposals)
	logger.Debug("Trade matching complete",
		"team_id", my.TeamID,
		"mode", myMode,
		"candidates", len(proposals),
		"proposals", len(ranked))
	return ranked
}

// sellHigh shops my aging veterans to teams weak at their position, asking
// for picks and young players in return
func (e *Engine) sellHigh(my, buyer models.TeamProfile) []models.TradeProposal {
	var out []models.TradeProposal
	var young []models.Player
	for _, pl := range buyer.Roster {
		if e.params.isYoung(pl) {
			young = append(young, pl)
		}
	}

	for _, pl := range my.Roster {
		if !e.params.IsSellCandidate(pl) || !buyer.IsWeakness(pl.Position) {
			continue
		}
		target := e.params.SellTarget(pl.Value)
		pkg := PicksFirstGreedy(buyer.Picks, young, target, 0)
		if len(pkg.Assets) == 0 || float64(pkg.TotalValue) < e.params.SellFloorRatio*float64(pl.Value) {
			continue
		}
		out = append(out, models.TradeProposal{
			TargetTeam:     buyer.TeamID,
			TargetTeamName: buyer.TeamName,
			Type:           models.TradeSell,
			YourSide:       models.Package{Assets: []models.Asset{models.PlayerAsset(pl)}, TotalValue: pl.Value},
			TheirSide:      pkg,
			Priority:       e.sellPriority(pl.Value, buyer.Phase),
			Rationale: fmt.Sprintf("%s (%s, age %.0f) is at or past the %s sell age; %s is weak at %s and can return %d against a %d ask",
				pl.Name, pl.Position, pl.Age, pl.Position, teamLabel(buyer), pl.Position, pkg.TotalValue, target),
		})
	}
	return out
}

// buyLow targets producers on another roster at my weak positions, paying
// with my picks first and then expendable veterans
func (e *Engine) buyLow(my, seller models.TeamProfile, myPicks []models.DraftPick) []models.TradeProposal {
	var expendable []models.Player
	for _, pl := range my.Roster {
		if e.params.isExpendable(pl, my) {
			expendable = append(expendable, pl)
		}
	}

	var out []models.TradeProposal
	for _, pl := range seller.Roster {
		if pl.Value < e.params.BuyMinValue || !my.IsWeakness(pl.Position) {
			continue
		}
		lower := e.params.BuyLowerRatio * float64(pl.Value)
		ceiling := floorInt(e.params.BuyUpperRatio * float64(pl.Value))
		pkg := PicksFirstGreedy(myPicks, withoutPlayer(expendable, pl), pl.Value, ceiling)
		if float64(pkg.TotalValue) < lower || pkg.TotalValue > ceiling {
			continue
		}
		out = append(out, models.TradeProposal{
			TargetTeam:     seller.TeamID,
			TargetTeamName: seller.TeamName,
			Type:           models.TradeBuy,
			YourSide:       pkg,
			TheirSide:      models.Package{Assets: []models.Asset{models.PlayerAsset(pl)}, TotalValue: pl.Value},
			Priority:       e.buyPriority(pl.Value, seller.Phase),
			Rationale: fmt.Sprintf("You are weak at %s; %s (age %.0f, %d) from %s fills it for %d",
				pl.Position, pl.Name, pl.Age, pl.Value, teamLabel(seller), pkg.TotalValue),
		})
	}
	return out
}

// swaps pairs my surplus position with theirs when each side is weak where
// the other is strong
func (e *Engine) swaps(my, other models.TeamProfile) []models.TradeProposal {
	var out []models.TradeProposal
	for _, give := range my.Strengths {
		if !other.IsWeakness(give) {
			continue
		}
		for _, get := range other.Strengths {
			if !my.IsWeakness(get) {
				continue
			}
			mine, ok := bestAt(my.Roster, give, e.params.SwapMinValue)
			if !ok {
				continue
			}
			theirs, ok := bestAt(other.Roster, get, e.params.SwapMinValue)
			if !ok {
				continue
			}
			p := models.TradeProposal{
				TargetTeam:     other.TeamID,
				TargetTeamName: other.TeamName,
				Type:           models.TradeSwap,
				YourSide:       models.Package{Assets: []models.Asset{models.PlayerAsset(mine)}, TotalValue: mine.Value},
				TheirSide:      models.Package{Assets: []models.Asset{models.PlayerAsset(theirs)}, TotalValue: theirs.Value},
				Priority:       e.swapPriority(mine.Value, theirs.Value),
				Rationale: fmt.Sprintf("You are deep at %s and thin at %s, %s is the reverse: %s (%d) for %s (%d)",
					give, get, teamLabel(other), mine.Name, mine.Value, theirs.Name, theirs.Value),
			}
			if e.params.WithinTolerance(p) {
				out = append(out, p)
			}
		}
	}
	return out
}

func (e *Engine) sellPriority(value int, buyer models.Phase) models.Priority {
	switch {
	case value >= 6000 && buyer == models.PhaseContend:
		return models.PriorityHigh
	case value >= 4000 || buyer == models.PhaseContend:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func (e *Engine) buyPriority(value int, seller models.Phase) models.Priority {
	selling := seller == models.PhaseTank || seller == models.PhaseRebuild
	switch {
	case value >= 6000 && selling:
		return models.PriorityHigh
	case value >= 5000 || selling:
		return models.PriorityMedium
	default:
		return models.PriorityLow
	}
}

func (e *Engine) swapPriority(a, b int) models.Priority {
	if a >= 5000 && b >= 5000 {
		return models.PriorityMedium
	}
	return models.PriorityLow
}

// rank drops anything outside tolerance, orders by priority then value
// differential, dedupes on (target team, primary asset given) and truncates
func (e *Engine) rank(in []models.TradeProposal) []models.TradeProposal {
	valid := make([]models.TradeProposal, 0, len(in))
	for _, p := range in {
		if e.params.WithinTolerance(p) {
			valid = append(valid, p)
		} else {
			logger.Warn("Dropping out-of-tolerance proposal", "type", p.Type, "target_team", p.TargetTeam)
		}
	}

	sort.SliceStable(valid, func(i, j int) bool {
		a, b := valid[i], valid[j]
		if a.Priority.Rank() != b.Priority.Rank() {
			return a.Priority.Rank() < b.Priority.Rank()
		}
		if a.Differential() != b.Differential() {
			return a.Differential() > b.Differential()
		}
		if a.TargetTeam != b.TargetTeam {
			return a.TargetTeam < b.TargetTeam
		}
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		return primaryID(a.YourSide) < primaryID(b.YourSide)
	})

	seen := make(map[string]bool, len(valid))
	out := make([]models.TradeProposal, 0, len(valid))
	for _, p := range valid {
		key := p.TargetTeam + "|" + primaryID(p.YourSide)
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, p)
		if e.params.MaxProposals > 0 && len(out) == e.params.MaxProposals {
			break
		}
	}
	return out
}

func primaryID(pkg models.Package) string {
	a, ok := pkg.Primary()
	if !ok {
		return ""
	}
	return a.ID()
}

func bestAt(roster []models.Player, pos models.Position, minValue int) (models.Player, bool) {
	var best models.Player
	found := false
	for _, pl := range roster {
		if pl.Position != pos || pl.Value < minValue {
			continue
		}
		if !found || pl.Value > best.Value || (pl.Value == best.Value && pl.Name < best.Name) {
			best = pl
			found = true
		}
	}
	return best, found
}

func withoutPlayer(players []models.Player, exclude models.Player) []models.Player {
	out := make([]models.Player, 0, len(players))
	for _, p := range players {
		if p.ID != "" && p.ID == exclude.ID {
			continue
		}
		out = append(out, p)
	}
	return out
}

func teamLabel(p models.TeamProfile) string {
	if p.TeamName != "" {
		return p.TeamName
	}
	return p.TeamID
}
