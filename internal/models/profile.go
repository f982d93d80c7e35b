package models

// PositionSummary aggregates one position group of a roster
type PositionSummary struct {
	Value         int     `json:"value"`
	AdjustedValue int     `json:"adjustedValue"`
	Count         int     `json:"count"`
	AvgAge        float64 `json:"avgAge"`
}

// TeamProfile is derived from a roster and the live catalog. It is never stored as truth.
type TeamProfile struct {
	TeamID        string                       `json:"teamId"`
	TeamName      string                       `json:"teamName"`
	Record        Record                       `json:"record"`
	Roster        []Player                     `json:"roster"`
	Picks         []DraftPick                  `json:"picks"`
	TotalValue    int                          `json:"totalValue"`
	AdjustedValue int                          `json:"adjustedValue"`
	PickValue     int                          `json:"pickValue"`
	AvgAge        float64                      `json:"avgAge"`
	ByPosition    map[Position]PositionSummary `json:"byPosition"`
	Strengths     []Position                   `json:"strengths"`
	Weaknesses    []Position                   `json:"weaknesses"`
	EliteCount    int                          `json:"eliteCount"`
	Phase         Phase                        `json:"phase,omitempty"`
}

// CombinedValue sums players and picks. Only used where explicitly requested.
func (p TeamProfile) CombinedValue() int {
	return p.TotalValue + p.PickValue
}

// IsStrength reports whether pos is one of the profile's strengths
func (p TeamProfile) IsStrength(pos Position) bool {
	return containsPosition(p.Strengths, pos)
}

// IsWeakness reports whether pos is one of the profile's weaknesses
func (p TeamProfile) IsWeakness(pos Position) bool {
	return containsPosition(p.Weaknesses, pos)
}

func containsPosition(list []Position, pos Position) bool {
	for _, p := range list {
		if p == pos {
			return true
		}
	}
	return false
}

// TradeType classifies a proposal
type TradeType string

const (
	TradeSell TradeType = "sell"
	TradeBuy  TradeType = "buy"
	TradeSwap TradeType = "swap"
)

// Priority ranks proposals
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Rank orders priorities, high=0
func (p Priority) Rank() int {
	switch p {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	}
	return 2
}

// Package is one side of a trade
type Package struct {
	Assets     []Asset `json:"assets"`
	TotalValue int     `json:"totalValue"`
}

// Primary returns the highest-value asset of the package
func (p Package) Primary() (Asset, bool) {
	if len(p.Assets) == 0 {
		return Asset{}, false
	}
	best := p.Assets[0]
	for _, a := range p.Assets[1:] {
		if a.Value() > best.Value() {
			best = a
		}
	}
	return best, true
}

// TradeProposal is a suggested trade. Proposals are recomputed per request and never stored.
type TradeProposal struct {
	TargetTeam     string    `json:"targetTeam"`
	TargetTeamName string    `json:"targetTeamName"`
	Type           TradeType `json:"type"`
	YourSide       Package   `json:"yourSide"`
	TheirSide      Package   `json:"theirSide"`
	Priority       Priority  `json:"priority"`
	Rationale      string    `json:"rationale"`
}

// Differential is |yourSide - theirSide|
func (t TradeProposal) Differential() int {
	d := t.YourSide.TotalValue - t.TheirSide.TotalValue
	if d < 0 {
		return -d
	}
	return d
}

// SellCandidate is a roster player worth shopping
type SellCandidate struct {
	Player        Player `json:"player"`
	AdjustedValue int    `json:"adjustedValue"`
	CurvePhase    string `json:"curvePhase"`
	TargetReturn  int    `json:"targetReturn"`
	Note          string `json:"note"`
}

// BuyCandidate is a player on another roster that fills a weakness
type BuyCandidate struct {
	Player   Player `json:"player"`
	TeamID   string `json:"teamId"`
	TeamName string `json:"teamName"`
	Reason   string `json:"reason"`
}

// PickCapital summarizes a team's owned picks
type PickCapital struct {
	TotalValue        int `json:"totalValue"`
	Count             int `json:"count"`
	CurrentYearFirsts int `json:"currentYearFirsts"`
	FutureFirsts      int `json:"futureFirsts"`
}

// Roadmap is a per-team action plan, recomputed per request
type Roadmap struct {
	TeamID               string          `json:"teamId"`
	TeamName             string          `json:"teamName"`
	Phase                Phase           `json:"phase"`
	KeyActions           []string        `json:"keyActions"`
	SellCandidates       []SellCandidate `json:"sellCandidates"`
	BuyCandidates        []BuyCandidate  `json:"buyCandidates"`
	TradeRecommendations []TradeProposal `json:"tradeRecommendations"`
	DraftStrategy        string          `json:"draftStrategy"`
	PickCapital          PickCapital     `json:"pickCapital"`
}
