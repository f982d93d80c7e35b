package trades

import "github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"

// Params holds every threshold the engine uses. Zero values are not
// meaningful; start from DefaultParams.
type Params struct {
	// SellAgeFloors is the age at which a player at a position becomes a sell-high candidate
	SellAgeFloors map[models.Position]float64 `yaml:"sellAgeFloors"`
	SellMinValue  int                         `yaml:"sellMinValue"`
	// SellPremium is the return targeted from a need-driven buyer
	SellPremium    float64 `yaml:"sellPremium"`
	SellFloorRatio float64 `yaml:"sellFloorRatio"`
	YoungMaxAge    float64 `yaml:"youngMaxAge"`

	BuyMinValue        int     `yaml:"buyMinValue"`
	BuyLowerRatio      float64 `yaml:"buyLowerRatio"`
	BuyUpperRatio      float64 `yaml:"buyUpperRatio"`
	ExpendableMinAge   float64 `yaml:"expendableMinAge"`
	ExpendableMaxValue int     `yaml:"expendableMaxValue"`

	SwapMinValue  int     `yaml:"swapMinValue"`
	SwapTolerance float64 `yaml:"swapTolerance"`

	MaxProposals int `yaml:"maxProposals"`
}

// DefaultParams returns the standard engine thresholds
func DefaultParams() Params {
	return Params{
		SellAgeFloors: map[models.Position]float64{
			models.PositionRB: 27,
			models.PositionWR: 29,
			models.PositionQB: 33,
			models.PositionTE: 31,
		},
		SellMinValue:   3000,
		SellPremium:    1.10,
		SellFloorRatio: 0.85,
		YoungMaxAge:    26,

		BuyMinValue:        4000,
		BuyLowerRatio:      0.9,
		BuyUpperRatio:      1.3,
		ExpendableMinAge:   26,
		ExpendableMaxValue: 7000,

		SwapMinValue:  2000,
		SwapTolerance: 0.3,

		MaxProposals: 15,
	}
}

// IsSellCandidate reports whether a player is old enough at his position and
// valuable enough to shop
func (p Params) IsSellCandidate(pl models.Player) bool {
	floor, ok := p.SellAgeFloors[pl.Position]
	if !ok || pl.Age <= 0 {
		return false
	}
	return pl.Age >= floor && pl.Value >= p.SellMinValue
}

// SellTarget is the return asked for a sell-high candidate
func (p Params) SellTarget(value int) int {
	return ceilInt(float64(value) * p.SellPremium)
}

func (p Params) isYoung(pl models.Player) bool {
	return pl.Age > 0 && pl.Age < p.YoungMaxAge
}

func (p Params) isExpendable(pl models.Player, my models.TeamProfile) bool {
	return pl.Age >= p.ExpendableMinAge &&
		pl.Value < p.ExpendableMaxValue &&
		!my.IsWeakness(pl.Position)
}
