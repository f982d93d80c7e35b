package valuation

import (
	"strings"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

var nameSuffixes = map[string]bool{
	"jr":  true,
	"sr":  true,
	"ii":  true,
	"iii": true,
	"iv":  true,
}

var namePunctuation = strings.NewReplacer(".", "", "'", "", "’", "", ",", "")

// NormalizeName maps a raw player name onto its canonical catalog key.
// "Kenneth Walker III" and "kenneth walker" both map to "kenneth walker".
func NormalizeName(raw string) string {
	fields := strings.Fields(strings.ToLower(namePunctuation.Replace(raw)))
	for len(fields) > 1 && nameSuffixes[fields[len(fields)-1]] {
		fields = fields[:len(fields)-1]
	}
	return strings.Join(fields, " ")
}

// Tier boundaries, highest first
var tierFloors = []struct {
	floor int
	tier  models.Tier
}{
	{9000, models.TierElite},
	{7000, models.TierStar},
	{5000, models.TierStarter},
	{3000, models.TierFlex},
	{1500, models.TierBench},
}

// TierFor returns the tier for a value. Every value maps to exactly one tier.
func TierFor(value int) models.Tier {
	for _, f := range tierFloors {
		if value >= f.floor {
			return f.tier
		}
	}
	return models.TierClogger
}
