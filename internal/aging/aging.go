// Package aging discounts player value by position-specific age curves.
//
// The catalog value already reflects market consensus; the curve is a second
// lens used for sell/buy decisions, never to rewrite catalog values.
package aging

import (
	"math"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// CurvePhase is where a player sits on his position's curve
type CurvePhase string

const (
	Ascending CurvePhase = "ascending"
	Peak      CurvePhase = "peak"
	Declining CurvePhase = "declining"
	Cliff     CurvePhase = "cliff"
)

// Curve holds the parameters for one position
type Curve struct {
	PeakStart   float64
	PeakEnd     float64
	YearlyDecay float64
	// CliffAge is zero when the position has no cliff
	CliffAge      float64
	CliffDiscount float64
}

// HasCliff reports whether the curve drops to a flat discount at CliffAge
func (c Curve) HasCliff() bool {
	return c.CliffAge > 0
}

// Curves maps positions to their parameters
var Curves = map[models.Position]Curve{
	models.PositionRB: {PeakStart: 24, PeakEnd: 27, YearlyDecay: 0.15, CliffAge: 29, CliffDiscount: 0.50},
	models.PositionWR: {PeakStart: 25, PeakEnd: 29, YearlyDecay: 0.08, CliffAge: 32, CliffDiscount: 0.35},
	models.PositionQB: {PeakStart: 27, PeakEnd: 34, YearlyDecay: 0.05},
	models.PositionTE: {PeakStart: 25, PeakEnd: 30, YearlyDecay: 0.07},
}

// Adjustment is the result of applying a curve
type Adjustment struct {
	AdjustedValue   int        `json:"adjustedValue"`
	DiscountPercent float64    `json:"discountPercent"`
	Phase           CurvePhase `json:"phase"`
}

// Adjust applies the position's curve to a value. Unknown positions and
// unknown ages (age <= 0) are returned undiscounted.
func Adjust(pos models.Position, value int, age float64) Adjustment {
	c, ok := Curves[pos]
	if !ok || age <= 0 {
		return Adjustment{AdjustedValue: value, Phase: Peak}
	}
	return c.Adjust(value, age)
}

// Adjust applies the curve. Young players are not discounted.
func (c Curve) Adjust(value int, age float64) Adjustment {
	var (
		phase    CurvePhase
		discount float64
	)
	switch {
	case age < c.PeakStart:
		phase = Ascending
	case age <= c.PeakEnd:
		phase = Peak
	case c.HasCliff() && age >= c.CliffAge:
		phase = Cliff
		discount = c.CliffDiscount
	default:
		phase = Declining
		discount = (age - c.PeakEnd) * c.YearlyDecay
	}
	discount = math.Min(math.Max(discount, 0), 1)

	return Adjustment{
		AdjustedValue:   int(math.Round(float64(value) * (1 - discount))),
		DiscountPercent: math.Round(discount*10000) / 100,
		Phase:           phase,
	}
}
