package trades

import (
	"math"
	"sort"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// PicksFirstGreedy builds one side of a trade. Picks are offered before
// players, each group in descending value order (ties by name), and assets
// are added until the package reaches target. When ceiling > 0 an asset that
// would push the package above ceiling is passed over. The result does not
// depend on the order of the input slices.
func PicksFirstGreedy(picks []models.DraftPick, players []models.Player, target, ceiling int) models.Package {
	candidates := make([]models.Asset, 0, len(picks)+len(players))
	candidates = append(candidates, sortedAssets(pickAssets(picks))...)
	candidates = append(candidates, sortedAssets(playerAssets(players))...)

	var pkg models.Package
	for _, a := range candidates {
		if pkg.TotalValue >= target {
			break
		}
		v := a.Value()
		if v <= 0 {
			continue
		}
		if ceiling > 0 && pkg.TotalValue+v > ceiling {
			continue
		}
		pkg.Assets = append(pkg.Assets, a)
		pkg.TotalValue += v
	}
	return pkg
}

func pickAssets(picks []models.DraftPick) []models.Asset {
	out := make([]models.Asset, 0, len(picks))
	for _, p := range picks {
		out = append(out, models.PickAsset(p))
	}
	return out
}

func playerAssets(players []models.Player) []models.Asset {
	out := make([]models.Asset, 0, len(players))
	for _, p := range players {
		out = append(out, models.PlayerAsset(p))
	}
	return out
}

func sortedAssets(assets []models.Asset) []models.Asset {
	sort.SliceStable(assets, func(i, j int) bool {
		if assets[i].Value() != assets[j].Value() {
			return assets[i].Value() > assets[j].Value()
		}
		return assets[i].ID() < assets[j].ID()
	})
	return assets
}

func ceilInt(f float64) int {
	return int(math.Ceil(f - 1e-9))
}

func floorInt(f float64) int {
	return int(math.Floor(f + 1e-9))
}
