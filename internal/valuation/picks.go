package valuation

import (
	"errors"
	"fmt"
	"math"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

const (
	// SlotsPerRound is the league size used by the default pick table
	SlotsPerRound = 12
	// MaxSlots is the largest supported league. Slots past SlotsPerRound
	// extend the round below its last explicit slot.
	MaxSlots = 32
	// Rounds is the number of rookie draft rounds valued
	Rounds = 4

	// FarYearOneDiscount applies to picks one season past the near-term draft
	FarYearOneDiscount = 0.20
	// FarYearTwoDiscount applies to picks two or more seasons out
	FarYearTwoDiscount = 0.35
)

// ErrPickTableNotMonotonic is returned when pick values do not strictly
// decrease by slot within a round and by round for the same slot.
var ErrPickTableNotMonotonic = errors.New("pick table is not strictly decreasing")

type seasonRound struct {
	season int
	round  int
}

// PickTable values rookie picks. Near-term picks with a known slot use the
// slotted table; everything else falls back to a per-round bucket, the
// market's price for an unqualified or mid pick of that round.
type PickTable struct {
	slotted      map[string]int
	rounds       map[int]int
	seasonRounds map[seasonRound]int
}

// DefaultPickTable returns the built-in near-term table, e.g. 1.02 = 6600
func DefaultPickTable() PickTable {
	t := PickTable{
		slotted:      make(map[string]int),
		rounds:       map[int]int{1: 6000, 2: 2200, 3: 950, 4: 430},
		seasonRounds: make(map[seasonRound]int),
	}
	first := []int{7000, 6600, 6200, 5800, 5400, 5000, 4700, 4400, 4100, 3800, 3500, 3200}
	for i, v := range first {
		t.slotted[slotKey(1, i+1)] = v
	}
	for s := 1; s <= SlotsPerRound; s++ {
		t.slotted[slotKey(2, s)] = 3000 - (s-1)*150
		t.slotted[slotKey(3, s)] = 1300 - (s-1)*60
		t.slotted[slotKey(4, s)] = 600 - (s-1)*30
	}
	return t
}

func slotKey(round, slot int) string {
	return fmt.Sprintf("%d.%02d", round, slot)
}

var (
	slottedPickRe = regexp.MustCompile(`^(?:(\d{4})\s+)?(?:pick\s+)?(\d)\.(\d{1,2})$`)
	roundPickRe   = regexp.MustCompile(`^(?:(\d{4})\s+)?(?:(?:early|mid|late)\s+)?(?:round\s+(\d)|(\d)(?:st|nd|rd|th))$`)
)

// apply merges feed pick entries into the table. Unparseable names are skipped
// and returned so the caller can log them.
func (t *PickTable) apply(entries []models.PickMarketValue, currentSeason int) []string {
	var skipped []string
	for _, e := range entries {
		name := strings.ToLower(strings.TrimSpace(e.PickName))
		if e.Value < 0 {
			skipped = append(skipped, e.PickName)
			continue
		}
		if m := slottedPickRe.FindStringSubmatch(name); m != nil {
			season := atoiOr(m[1], currentSeason)
			if season != currentSeason {
				skipped = append(skipped, e.PickName)
				continue
			}
			round, _ := strconv.Atoi(m[2])
			slot, _ := strconv.Atoi(m[3])
			if slot < 1 || slot > SlotsPerRound || round < 1 || round > Rounds {
				skipped = append(skipped, e.PickName)
				continue
			}
			t.slotted[slotKey(round, slot)] = e.Value
			continue
		}
		if m := roundPickRe.FindStringSubmatch(name); m != nil {
			// only mid or unqualified entries set the round bucket
			if strings.Contains(name, "early") || strings.Contains(name, "late") {
				continue
			}
			round := atoiOr(m[2], 0)
			if round == 0 {
				round = atoiOr(m[3], 0)
			}
			if round < 1 || round > Rounds {
				skipped = append(skipped, e.PickName)
				continue
			}
			season := atoiOr(m[1], 0)
			if season == 0 || season == currentSeason {
				t.rounds[round] = e.Value
			} else {
				t.seasonRounds[seasonRound{season, round}] = e.Value
			}
			continue
		}
		skipped = append(skipped, e.PickName)
	}
	return skipped
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

// validate checks strict monotonicity of the slotted table, including the
// extension up to MaxSlots, and of the round buckets
func (t PickTable) validate() error {
	for r := 1; r <= Rounds; r++ {
		for s := 1; s <= SlotsPerRound; s++ {
			if _, ok := t.slotted[slotKey(r, s)]; !ok {
				return fmt.Errorf("%w: missing %s", ErrPickTableNotMonotonic, slotKey(r, s))
			}
		}
	}
	for r := 1; r <= Rounds; r++ {
		for s := 1; s <= MaxSlots; s++ {
			v := t.slotValue(r, s)
			if v <= 0 {
				return fmt.Errorf("%w: %s=%d", ErrPickTableNotMonotonic, slotKey(r, s), v)
			}
			if s < MaxSlots {
				if next := t.slotValue(r, s+1); next >= v {
					return fmt.Errorf("%w: %s=%d <= %s=%d", ErrPickTableNotMonotonic, slotKey(r, s), v, slotKey(r, s+1), next)
				}
			}
			if r < Rounds {
				if below := t.slotValue(r+1, s); below >= v {
					return fmt.Errorf("%w: %s=%d <= %s=%d", ErrPickTableNotMonotonic, slotKey(r, s), v, slotKey(r+1, s), below)
				}
			}
		}
		if r < Rounds && t.rounds[r+1] >= t.rounds[r] {
			return fmt.Errorf("%w: round %d bucket", ErrPickTableNotMonotonic, r)
		}
	}
	return nil
}

// slotValue reads the slotted table. Slots past SlotsPerRound step down
// evenly from the round's last slot and stay above the next round's first.
func (t PickTable) slotValue(round, slot int) int {
	if slot <= SlotsPerRound {
		return t.slotted[slotKey(round, slot)]
	}
	last := t.slotted[slotKey(round, SlotsPerRound)]
	floor := 0
	if round < Rounds {
		floor = t.slotted[slotKey(round+1, 1)]
	}
	step := (last - floor) / (MaxSlots - SlotsPerRound + 1)
	if step < 1 {
		step = 1
	}
	return last - (slot-SlotsPerRound)*step
}

// value looks up a pick. slot <= 0 or past MaxSlots means unknown.
func (t PickTable) value(currentSeason, season, round, slot int) int {
	if round < 1 || round > Rounds || season < currentSeason {
		return 0
	}
	if season == currentSeason {
		if slot >= 1 && slot <= MaxSlots {
			return t.slotValue(round, slot)
		}
		return t.rounds[round]
	}
	if v, ok := t.seasonRounds[seasonRound{season, round}]; ok {
		return v
	}
	discount := FarYearTwoDiscount
	if season == currentSeason+1 {
		discount = FarYearOneDiscount
	}
	return int(math.Round(float64(t.rounds[round]) * (1 - discount)))
}

// entries lists the slotted table in order, for fingerprinting
func (t PickTable) entries() []string {
	out := make([]string, 0, len(t.slotted)+len(t.rounds)+len(t.seasonRounds))
	for k, v := range t.slotted {
		out = append(out, fmt.Sprintf("s%s=%d", k, v))
	}
	for k, v := range t.rounds {
		out = append(out, fmt.Sprintf("r%d=%d", k, v))
	}
	for k, v := range t.seasonRounds {
		out = append(out, fmt.Sprintf("y%d.%d=%d", k.season, k.round, v))
	}
	sort.Strings(out)
	return out
}
