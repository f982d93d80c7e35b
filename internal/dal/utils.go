package dal

import (
	"sort"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/valuation"
)

// marketRow is one stored market entry with its canonical key
type marketRow struct {
	key string
	models.MarketValue
}

// canonicalRows keys snapshot players by canonical name. On a duplicate key
// the higher value wins, matching the catalog.
func canonicalRows(players []models.MarketValue) []marketRow {
	byKey := make(map[string]marketRow, len(players))
	for _, p := range players {
		key := valuation.NormalizeName(p.Name)
		if key == "" {
			continue
		}
		if cur, ok := byKey[key]; ok && cur.Value >= p.Value {
			continue
		}
		byKey[key] = marketRow{key: key, MarketValue: p}
	}
	rows := make([]marketRow, 0, len(byKey))
	for _, r := range byKey {
		rows = append(rows, r)
	}
	sort.Slice(rows, func(i, j int) bool { return rows[i].key < rows[j].key })
	return rows
}

func uniquePicks(picks []models.PickMarketValue) []models.PickMarketValue {
	byName := make(map[string]int, len(picks))
	for _, p := range picks {
		if cur, ok := byName[p.PickName]; ok && cur >= p.Value {
			continue
		}
		byName[p.PickName] = p.Value
	}
	out := make([]models.PickMarketValue, 0, len(byName))
	for name, v := range byName {
		out = append(out, models.PickMarketValue{PickName: name, Value: v})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].PickName < out[j].PickName })
	return out
}

func sortPicks(picks []models.DraftPick) {
	sort.SliceStable(picks, func(i, j int) bool {
		a, b := picks[i], picks[j]
		if a.Season != b.Season {
			return a.Season < b.Season
		}
		if a.Round != b.Round {
			return a.Round < b.Round
		}
		return a.OriginalOwner < b.OriginalOwner
	})
}

func fetchedAtOrNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t.UTC()
}

func copyTeam(t models.Team) models.Team {
	t.Roster = append([]models.Player(nil), t.Roster...)
	return t
}
