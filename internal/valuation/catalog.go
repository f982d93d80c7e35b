package valuation

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// PlaceholderValue is returned for names the catalog does not know
const PlaceholderValue = 100

// ErrEmptySnapshot is returned when a market snapshot carries no player values
var ErrEmptySnapshot = errors.New("market snapshot has no player values")

// ValueRecord is the canonical catalog entry for one player
type ValueRecord struct {
	Key      string          `json:"key"`
	PlayerID string          `json:"playerId,omitempty"`
	Name     string          `json:"name"`
	Position models.Position `json:"position,omitempty"`
	Team     string          `json:"team,omitempty"`
	Age      float64         `json:"age,omitempty"`
	Value    int             `json:"value"`
	Trend    int             `json:"trend"`
	Tier     models.Tier     `json:"tier"`
}

// Valuation is the result of a player lookup
type Valuation struct {
	Value int         `json:"value"`
	Tier  models.Tier `json:"tier"`
	Found bool        `json:"found"`
}

// Options configures catalog construction
type Options struct {
	// CurrentSeason is the near-term rookie draft season
	CurrentSeason int
	// Version identifies the build, defaults to the snapshot fingerprint
	Version string
	BuiltAt time.Time
}

// Catalog is an immutable index of market values. Build a new one to refresh.
type Catalog struct {
	byKey         map[string]ValueRecord
	keyByName     map[string]string
	keyByID       map[string]string
	picks         PickTable
	currentSeason int
	version       string
	fingerprint   string
	builtAt       time.Time
}

// NewCatalog builds a catalog from a complete market snapshot. Entries with
// an empty name or a negative value are skipped. When two entries share a
// canonical key the higher value wins, so the result does not depend on feed order.
func NewCatalog(snap models.MarketSnapshot, opts Options) (*Catalog, error) {
	if len(snap.Players) == 0 {
		return nil, ErrEmptySnapshot
	}
	if opts.CurrentSeason == 0 {
		opts.CurrentSeason = time.Now().Year()
	}
	if opts.BuiltAt.IsZero() {
		opts.BuiltAt = time.Now()
	}

	c := &Catalog{
		byKey:         make(map[string]ValueRecord, len(snap.Players)),
		keyByName:     make(map[string]string, len(snap.Players)),
		keyByID:       make(map[string]string),
		picks:         DefaultPickTable(),
		currentSeason: opts.CurrentSeason,
		builtAt:       opts.BuiltAt,
	}

	skipped := 0
	for _, mv := range snap.Players {
		key := NormalizeName(mv.Name)
		if key == "" || mv.Value < 0 {
			skipped++
			continue
		}
		pos, _ := models.ParsePosition(mv.Position)
		rec := ValueRecord{
			Key:      key,
			PlayerID: mv.PlayerID,
			Name:     mv.Name,
			Position: pos,
			Team:     mv.Team,
			Age:      mv.Age,
			Value:    mv.Value,
			Trend:    mv.Trend,
			Tier:     TierFor(mv.Value),
		}
		if existing, ok := c.byKey[key]; !ok || rec.Value > existing.Value {
			c.byKey[key] = rec
		}
		c.keyByName[mv.Name] = key
		if mv.PlayerID != "" {
			c.keyByID[mv.PlayerID] = key
		}
	}
	if len(c.byKey) == 0 {
		return nil, ErrEmptySnapshot
	}

	if bad := c.picks.apply(snap.Picks, opts.CurrentSeason); len(bad) > 0 {
		logger.Warn("Skipped unrecognized pick entries", "count", len(bad), "examples", firstN(bad, 3))
	}
	if err := c.picks.validate(); err != nil {
		return nil, fmt.Errorf("invalid pick values: %w", err)
	}

	c.fingerprint = c.computeFingerprint()
	c.version = opts.Version
	if c.version == "" {
		c.version = c.fingerprint[:12]
	}

	if skipped > 0 {
		logger.Warn("Skipped invalid market entries", "count", skipped)
	}
	return c, nil
}

func firstN(s []string, n int) []string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

func (c *Catalog) computeFingerprint() string {
	keys := make([]string, 0, len(c.byKey))
	for k := range c.byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	h := sha256.New()
	fmt.Fprintf(h, "season=%d\n", c.currentSeason)
	for _, k := range keys {
		r := c.byKey[k]
		fmt.Fprintf(h, "%s|%s|%s|%s|%.1f|%d|%d\n", k, r.PlayerID, r.Position, r.Team, r.Age, r.Value, r.Trend)
	}
	for _, e := range c.picks.entries() {
		fmt.Fprintln(h, e)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// LookupPlayer resolves a name to its value: exact name first, then the
// normalized key. Unknown names return the placeholder value and Unknown tier.
func (c *Catalog) LookupPlayer(name string) Valuation {
	if rec, ok := c.Record(name); ok {
		return Valuation{Value: rec.Value, Tier: rec.Tier, Found: true}
	}
	return Valuation{Value: PlaceholderValue, Tier: models.TierUnknown}
}

// Record returns the canonical record for a name
func (c *Catalog) Record(name string) (ValueRecord, bool) {
	if c == nil {
		return ValueRecord{}, false
	}
	if key, ok := c.keyByName[name]; ok {
		return c.byKey[key], true
	}
	rec, ok := c.byKey[NormalizeName(name)]
	return rec, ok
}

// ResolvePlayer values a rostered player by name, then by feed player id.
// The returned name is the catalog's when the id matched, else p.Name.
func (c *Catalog) ResolvePlayer(p models.Player) (Valuation, string) {
	if rec, ok := c.Record(p.Name); ok {
		return Valuation{Value: rec.Value, Tier: rec.Tier, Found: true}, p.Name
	}
	if rec, ok := c.RecordByID(p.ID); ok {
		return Valuation{Value: rec.Value, Tier: rec.Tier, Found: true}, rec.Name
	}
	return Valuation{Value: PlaceholderValue, Tier: models.TierUnknown}, p.Name
}

// RecordByID returns the canonical record for a feed player id
func (c *Catalog) RecordByID(id string) (ValueRecord, bool) {
	if c == nil || id == "" {
		return ValueRecord{}, false
	}
	key, ok := c.keyByID[id]
	if !ok {
		return ValueRecord{}, false
	}
	return c.byKey[key], true
}

// PickValue values a pick. slot <= 0 means the slot is not yet known.
func (c *Catalog) PickValue(season, round, slot int) int {
	if c == nil {
		return DefaultPickTable().value(time.Now().Year(), season, round, slot)
	}
	return c.picks.value(c.currentSeason, season, round, slot)
}

// Records returns every canonical record sorted by value descending
func (c *Catalog) Records() []ValueRecord {
	out := make([]ValueRecord, 0, len(c.byKey))
	for _, r := range c.byKey {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Value != out[j].Value {
			return out[i].Value > out[j].Value
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// Len returns the number of canonical player records
func (c *Catalog) Len() int { return len(c.byKey) }

// Version identifies this build
func (c *Catalog) Version() string { return c.version }

// Fingerprint is a content hash; equal snapshots yield equal fingerprints
func (c *Catalog) Fingerprint() string { return c.fingerprint }

// BuiltAt is when the catalog was built
func (c *Catalog) BuiltAt() time.Time { return c.builtAt }

// CurrentSeason is the near-term draft season
func (c *Catalog) CurrentSeason() int { return c.currentSeason }
