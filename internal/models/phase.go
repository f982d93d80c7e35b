package models

import "strings"

// Phase is a team's competitive posture
type Phase string

const (
	PhaseTank    Phase = "tank"
	PhaseRebuild Phase = "rebuild"
	PhaseRetool  Phase = "retool"
	PhaseContend Phase = "contend"
)

// Phases lists every phase from least to most ambitious
var Phases = []Phase{PhaseTank, PhaseRebuild, PhaseRetool, PhaseContend}

// phaseAliases maps external vocabulary onto the closed Phase enum
var phaseAliases = map[string]Phase{
	"tank":       PhaseTank,
	"tanking":    PhaseTank,
	"rebuild":    PhaseRebuild,
	"rebuilding": PhaseRebuild,
	"retool":     PhaseRetool,
	"retooling":  PhaseRetool,
	"reload":     PhaseRetool,
	"contend":    PhaseContend,
	"contending": PhaseContend,
	"contender":  PhaseContend,
	"win-now":    PhaseContend,
	"win_now":    PhaseContend,
	"winnow":     PhaseContend,
	"compete":    PhaseContend,
	"competing":  PhaseContend,
}

// ParsePhase normalizes an external mode string
func ParsePhase(s string) (Phase, bool) {
	p, ok := phaseAliases[strings.ToLower(strings.TrimSpace(s))]
	return p, ok
}

// Ambition orders phases, tank=0 .. contend=3
func (p Phase) Ambition() int {
	for i, ph := range Phases {
		if ph == p {
			return i
		}
	}
	return -1
}

// Valid reports whether p is one of the known phases
func (p Phase) Valid() bool {
	return p.Ambition() >= 0
}

// Sells reports whether teams in this phase shop aging veterans
func (p Phase) Sells() bool {
	return p == PhaseTank || p == PhaseRetool
}

// Buys reports whether teams in this phase acquire producers
func (p Phase) Buys() bool {
	return p == PhaseContend || p == PhaseRetool
}
