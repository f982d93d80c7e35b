package valuation

import (
	"errors"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

func testSnapshot() models.MarketSnapshot {
	return models.MarketSnapshot{
		Players: []models.MarketValue{
			{Name: "Bijan Robinson", Position: "RB", Team: "ATL", Age: 23, Value: 9800},
			{Name: "Kenneth Walker III", Position: "RB", Team: "SEA", Age: 25, Value: 5200},
			{Name: "Marvin Harrison Jr.", Position: "WR", Team: "ARI", Age: 23, Value: 7100},
			{Name: "D'Andre Swift", Position: "RB", Team: "CHI", Age: 26, Value: 2600},
			{Name: "Travis Kelce", Position: "TE", Team: "KC", Age: 36, Value: 1400},
		},
	}
}

func TestNormalizeName(t *testing.T) {
	cases := map[string]string{
		"Kenneth Walker III":   "kenneth walker",
		"Marvin Harrison Jr.":  "marvin harrison",
		"  Odell  Beckham Jr ": "odell beckham",
		"D'Andre Swift":        "dandre swift",
		"A.J. Brown":           "aj brown",
		"Michael Pittman, Jr.": "michael pittman",
		"John Smith Jr. III":   "john smith",
		"IV":                   "iv",
		"":                     "",
	}
	for in, want := range cases {
		assert.Equal(t, want, NormalizeName(in), "NormalizeName(%q)", in)
	}
}

func TestNormalizeNameIdempotent(t *testing.T) {
	names := []string{"Kenneth Walker III", "A.J. Brown", "Marvin Harrison Jr.", "Jr Sr", "x", " Sr. ", "Patrick Mahomes II"}
	for _, n := range names {
		once := NormalizeName(n)
		assert.Equal(t, once, NormalizeName(once), "not idempotent for %q", n)
	}
}

func TestTierForBoundaries(t *testing.T) {
	cases := []struct {
		value int
		want  models.Tier
	}{
		{0, models.TierClogger},
		{1499, models.TierClogger},
		{1500, models.TierBench},
		{2999, models.TierBench},
		{3000, models.TierFlex},
		{5000, models.TierStarter},
		{6999, models.TierStarter},
		{7000, models.TierStar},
		{8999, models.TierStar},
		{9000, models.TierElite},
		{math.MaxInt32, models.TierElite},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, TierFor(tc.value), "value %d", tc.value)
	}
}

func TestTierForMonotonic(t *testing.T) {
	rank := map[models.Tier]int{
		models.TierClogger: 0, models.TierBench: 1, models.TierFlex: 2,
		models.TierStarter: 3, models.TierStar: 4, models.TierElite: 5,
	}
	prev := rank[TierFor(0)]
	for v := 1; v <= 12000; v++ {
		cur, ok := rank[TierFor(v)]
		require.True(t, ok, "value %d has no tier", v)
		require.GreaterOrEqual(t, cur, prev, "tier dropped at %d", v)
		prev = cur
	}
}

func TestLookupPlayer(t *testing.T) {
	c, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026})
	require.NoError(t, err)

	v := c.LookupPlayer("Bijan Robinson")
	assert.Equal(t, Valuation{Value: 9800, Tier: models.TierElite, Found: true}, v)

	// normalized fallback
	v = c.LookupPlayer("Kenneth Walker")
	assert.Equal(t, 5200, v.Value)
	assert.True(t, v.Found)

	v = c.LookupPlayer("marvin harrison")
	assert.Equal(t, models.TierStar, v.Tier)

	v = c.LookupPlayer("Dandre Swift")
	assert.Equal(t, 2600, v.Value)
}

func TestLookupUnknownIsPlaceholder(t *testing.T) {
	c, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026})
	require.NoError(t, err)

	v := c.LookupPlayer("Nobody McNobody")
	assert.Equal(t, PlaceholderValue, v.Value)
	assert.Equal(t, models.TierUnknown, v.Tier)
	assert.False(t, v.Found)
}

func TestDuplicateKeysKeepHigherValue(t *testing.T) {
	snap := testSnapshot()
	snap.Players = append(snap.Players, models.MarketValue{Name: "Kenneth Walker", Position: "RB", Value: 4000})
	c, err := NewCatalog(snap, Options{CurrentSeason: 2026})
	require.NoError(t, err)

	// both spellings resolve to the single authoritative record
	assert.Equal(t, 5200, c.LookupPlayer("Kenneth Walker").Value)
	assert.Equal(t, 5200, c.LookupPlayer("Kenneth Walker III").Value)

	// and feed order does not matter
	snap.Players[0], snap.Players[len(snap.Players)-1] = snap.Players[len(snap.Players)-1], snap.Players[0]
	c2, err := NewCatalog(snap, Options{CurrentSeason: 2026})
	require.NoError(t, err)
	assert.Equal(t, c.Fingerprint(), c2.Fingerprint())
}

func TestNewCatalogSkipsInvalidEntries(t *testing.T) {
	snap := testSnapshot()
	snap.Players = append(snap.Players,
		models.MarketValue{Name: "", Value: 5000},
		models.MarketValue{Name: "Negative Guy", Value: -1},
	)
	c, err := NewCatalog(snap, Options{CurrentSeason: 2026})
	require.NoError(t, err)
	assert.Equal(t, 5, c.Len())
	assert.False(t, c.LookupPlayer("Negative Guy").Found)
}

func TestNewCatalogEmpty(t *testing.T) {
	_, err := NewCatalog(models.MarketSnapshot{}, Options{})
	assert.True(t, errors.Is(err, ErrEmptySnapshot))

	_, err = NewCatalog(models.MarketSnapshot{Players: []models.MarketValue{{Name: "", Value: 1}}}, Options{})
	assert.True(t, errors.Is(err, ErrEmptySnapshot))
}

func TestFingerprintIdempotent(t *testing.T) {
	a, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026})
	require.NoError(t, err)
	b, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026})
	require.NoError(t, err)
	assert.Equal(t, a.Fingerprint(), b.Fingerprint())
	assert.Equal(t, a.Version(), b.Version())
}

func TestRecordsSorted(t *testing.T) {
	c, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026})
	require.NoError(t, err)
	recs := c.Records()
	require.Len(t, recs, 5)
	assert.Equal(t, "Bijan Robinson", recs[0].Name)
	for i := 1; i < len(recs); i++ {
		assert.GreaterOrEqual(t, recs[i-1].Value, recs[i].Value)
	}
}

func TestStoreSwap(t *testing.T) {
	s := NewStore()
	assert.Nil(t, s.Current())

	a, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026, Version: "a"})
	require.NoError(t, err)
	b, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026, Version: "b"})
	require.NoError(t, err)

	assert.Nil(t, s.Swap(a))
	assert.Equal(t, a, s.Swap(b))
	assert.Equal(t, "b", s.Current().Version())
}

func TestStoreConcurrentReaders(t *testing.T) {
	s := NewStore()
	a, err := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026, Version: "a"})
	require.NoError(t, err)
	s.Swap(a)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				c := s.Current()
				if c.LookupPlayer("Bijan Robinson").Value != 9800 {
					t.Error("reader observed a partial catalog")
					return
				}
			}
		}()
	}
	for i := 0; i < 50; i++ {
		next, _ := NewCatalog(testSnapshot(), Options{CurrentSeason: 2026})
		s.Swap(next)
	}
	wg.Wait()
}

func TestResolvePlayerFallsBackToPlayerID(t *testing.T) {
	c, err := NewCatalog(models.MarketSnapshot{Players: []models.MarketValue{
		{PlayerID: "4046", Name: "Josh Allen", Position: "QB", Value: 9400},
		{Name: "Bijan Robinson", Position: "RB", Value: 9800},
	}}, Options{CurrentSeason: 2026})
	require.NoError(t, err)

	v, name := c.ResolvePlayer(models.Player{ID: "4046", Name: "4046"})
	assert.True(t, v.Found)
	assert.Equal(t, 9400, v.Value)
	assert.Equal(t, "Josh Allen", name)

	v, name = c.ResolvePlayer(models.Player{ID: "other", Name: "Bijan Robinson"})
	assert.Equal(t, 9800, v.Value)
	assert.Equal(t, "Bijan Robinson", name)

	v, name = c.ResolvePlayer(models.Player{ID: "nope", Name: "nope"})
	assert.False(t, v.Found)
	assert.Equal(t, PlaceholderValue, v.Value)
	assert.Equal(t, "nope", name)

	rec, ok := c.RecordByID("4046")
	require.True(t, ok)
	assert.Equal(t, "josh allen", rec.Key)
	_, ok = c.RecordByID("")
	assert.False(t, ok)
}
