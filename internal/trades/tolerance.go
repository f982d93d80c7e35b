package trades

import (
	"math"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// WithinTolerance checks a proposal against its strategy's value band:
//
//	sell: theirSide >= SellFloorRatio * yourSide
//	buy:  BuyLowerRatio * theirSide <= yourSide <= BuyUpperRatio * theirSide
//	swap: |yourSide - theirSide| <= SwapTolerance * min(yourSide, theirSide)
//
// Package totals must also equal the sum of their assets.
func (p Params) WithinTolerance(t models.TradeProposal) bool {
	if !consistent(t.YourSide) || !consistent(t.TheirSide) {
		return false
	}
	if len(t.YourSide.Assets) == 0 || len(t.TheirSide.Assets) == 0 {
		return false
	}
	mine := float64(t.YourSide.TotalValue)
	theirs := float64(t.TheirSide.TotalValue)

	switch t.Type {
	case models.TradeSell:
		return theirs >= p.SellFloorRatio*mine
	case models.TradeBuy:
		return mine >= p.BuyLowerRatio*theirs && mine <= p.BuyUpperRatio*theirs
	case models.TradeSwap:
		return math.Abs(mine-theirs) <= p.SwapTolerance*math.Min(mine, theirs)
	}
	return false
}

func consistent(pkg models.Package) bool {
	sum := 0
	for _, a := range pkg.Assets {
		sum += a.Value()
	}
	return sum == pkg.TotalValue
}
