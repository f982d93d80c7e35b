package dal

import (
	"sort"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// ProjectSlots fills in the slot of every season pick whose slot is unknown,
// using reverse standings: the worst record picks first, ties go to the team
// with fewer points for, then by team id. Picks of teams not in teams are
// left alone. The input slice is not modified.
func ProjectSlots(teams []models.Team, picks []models.DraftPick, season int) []models.DraftPick {
	order := make([]models.Team, len(teams))
	copy(order, teams)
	sort.SliceStable(order, func(i, j int) bool {
		a, b := order[i].Record, order[j].Record
		if a.WinPct() != b.WinPct() {
			return a.WinPct() < b.WinPct()
		}
		if a.PointsFor != b.PointsFor {
			return a.PointsFor < b.PointsFor
		}
		return order[i].ID < order[j].ID
	})

	slotByTeam := make(map[string]int, len(order))
	for i, t := range order {
		slotByTeam[t.ID] = i + 1
	}

	out := make([]models.DraftPick, len(picks))
	copy(out, picks)
	for i := range out {
		if out[i].Season != season || out[i].Slot != 0 {
			continue
		}
		if slot, ok := slotByTeam[out[i].OriginalOwner]; ok {
			out[i].Slot = slot
		}
	}
	return out
}
