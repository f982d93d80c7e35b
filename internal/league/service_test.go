package league

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/ingest"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/metrics"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/roadmap"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/trades"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/valuation"
)

// switchFeed serves a snapshot or an error, switchable between calls
type switchFeed struct {
	mu    sync.Mutex
	snap  models.MarketSnapshot
	err   error
	calls int
}

func (f *switchFeed) Name() string { return "switch" }

func (f *switchFeed) FetchMarket(ctx context.Context) (models.MarketSnapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.snap, f.err
}

func (f *switchFeed) set(snap models.MarketSnapshot, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snap, f.err = snap, err
}

type stubRoster struct {
	state  models.LeagueState
	issues []ingest.Issue
	err    error
}

func (r stubRoster) Name() string { return "stub-roster" }

func (r stubRoster) FetchLeague(ctx context.Context) (models.LeagueState, []ingest.Issue, error) {
	return r.state, r.issues, r.err
}

func newService(t *testing.T, roster feeds.RosterFeed) (*Service, *switchFeed, *pubsub.PubSub, dal.LeagueDAL) {
	t.Helper()
	feed := &switchFeed{snap: dal.DemoMarketSnapshot()}
	bus := pubsub.New()
	d := dal.NewMemoryDAL()
	svc := New(d, feed, roster, Options{
		CurrentSeason: dal.DemoSeason,
		Bus:           bus,
		Metrics:       metrics.New(),
	})
	return svc, feed, bus, d
}

func refreshed(t *testing.T, svc *Service) {
	t.Helper()
	_, err := svc.Refresh(context.Background())
	require.NoError(t, err)
}

func nextEvent(t *testing.T, ch chan pubsub.Event) pubsub.Event {
	t.Helper()
	select {
	case e := <-ch:
		return e
	case <-time.After(time.Second):
		t.Fatal("timeout waiting for event")
	}
	return pubsub.Event{}
}

func TestQueriesBeforeRefresh(t *testing.T) {
	svc, _, _, _ := newService(t, nil)
	ctx := context.Background()

	_, err := svc.Profiles(ctx)
	assert.ErrorIs(t, err, ErrNoCatalog)
	_, _, err = svc.Trades(ctx, "1", "")
	assert.ErrorIs(t, err, ErrNoCatalog)
	_, err = svc.Roadmap(ctx, "1")
	assert.ErrorIs(t, err, ErrNoCatalog)
	_, err = svc.LookupValue("Josh Allen")
	assert.ErrorIs(t, err, ErrNoCatalog)
	_, err = svc.LookupPick(2026, 1, 1)
	assert.ErrorIs(t, err, ErrNoCatalog)
	assert.False(t, svc.Status().Ready)
}

func TestRefreshInstallsAndPersistsCatalog(t *testing.T) {
	svc, _, bus, d := newService(t, nil)
	ch := bus.Subscribe()

	cat, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, cat, svc.store.Current())

	e := nextEvent(t, ch)
	assert.Equal(t, pubsub.EventCatalogRefreshed, e.Type)
	assert.Equal(t, cat.Version(), e.Payload["version"])

	stored, err := d.LoadMarketSnapshot(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored.Players, cat.Len())

	st := svc.Status()
	assert.True(t, st.Ready)
	assert.Equal(t, cat.Version(), st.CatalogVersion)
}

func TestRefreshUnchangedKeepsCatalog(t *testing.T) {
	svc, _, bus, _ := newService(t, nil)
	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	ch := bus.Subscribe()
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	assert.Same(t, first, second)

	select {
	case e := <-ch:
		t.Fatalf("unexpected event %s", e.Type)
	default:
	}
}

func TestRefreshFailsClosed(t *testing.T) {
	svc, feed, bus, _ := newService(t, nil)
	good, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	ch := bus.Subscribe()
	feed.set(models.MarketSnapshot{}, feeds.ErrFeedUnavailable)
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, feeds.ErrFeedUnavailable)
	assert.Same(t, good, svc.store.Current())

	e := nextEvent(t, ch)
	assert.Equal(t, pubsub.EventRefreshFailed, e.Type)
	assert.Equal(t, good.Version(), e.Payload["version"])

	// an empty snapshot is a failure too, never an empty catalog
	feed.set(models.MarketSnapshot{Source: "empty"}, nil)
	_, err = svc.Refresh(context.Background())
	assert.ErrorIs(t, err, valuation.ErrEmptySnapshot)
	assert.Same(t, good, svc.store.Current())

	v, err := svc.LookupValue("Josh Allen")
	require.NoError(t, err)
	assert.Equal(t, 9400, v.Value)
}

func TestRestoreFromStoredSnapshot(t *testing.T) {
	svc, _, _, d := newService(t, nil)
	refreshed(t, svc)
	version := svc.Status().CatalogVersion

	down := &switchFeed{err: feeds.ErrFeedUnavailable}
	restarted := New(d, down, nil, Options{CurrentSeason: dal.DemoSeason})
	require.NoError(t, restarted.Restore(context.Background()))
	assert.Equal(t, version, restarted.Status().CatalogVersion)

	_, err := restarted.Refresh(context.Background())
	assert.Error(t, err)
	assert.True(t, restarted.Status().Ready)

	empty := New(dal.NewEmptyMemoryDAL(), down, nil, Options{})
	require.NoError(t, empty.Restore(context.Background()))
	assert.False(t, empty.Status().Ready)
}

func TestLookups(t *testing.T) {
	svc, _, _, _ := newService(t, nil)
	refreshed(t, svc)

	v, err := svc.LookupValue("Marvin Harrison Jr.")
	require.NoError(t, err)
	assert.True(t, v.Found)
	assert.Equal(t, 7000, v.Value)
	require.NotNil(t, v.Record)
	assert.Equal(t, models.PositionWR, v.Record.Position)

	v, err = svc.LookupValue("Nobody At All")
	require.NoError(t, err)
	assert.False(t, v.Found)
	assert.Equal(t, valuation.PlaceholderValue, v.Value)
	assert.Equal(t, models.TierUnknown, v.Tier)
	assert.Nil(t, v.Record)

	p, err := svc.LookupPick(2026, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, "2026 1.02", p.Label)
	assert.Positive(t, p.Value)

	far, err := svc.LookupPick(2028, 1, 0)
	require.NoError(t, err)
	near, err := svc.LookupPick(2026, 1, 0)
	require.NoError(t, err)
	assert.Less(t, far.Value, near.Value)

	_, err = svc.LookupPick(2026, 0, 1)
	assert.ErrorIs(t, err, ErrInvalidPick)
	_, err = svc.LookupPick(2026, 1, -1)
	assert.ErrorIs(t, err, ErrInvalidPick)
}

func TestProfilesStorePhaseHints(t *testing.T) {
	svc, _, _, d := newService(t, nil)
	refreshed(t, svc)
	ctx := context.Background()

	profiles, err := svc.Profiles(ctx)
	require.NoError(t, err)
	require.Len(t, profiles, 6)

	for _, p := range profiles {
		assert.True(t, p.Phase.Valid(), p.TeamID)
		team, err := d.GetTeam(ctx, p.TeamID)
		require.NoError(t, err)
		assert.Equal(t, p.Phase, team.LastPhase)
		assert.False(t, team.LastPhaseAt.IsZero())
	}

	one, err := svc.Profile(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "Gridiron Gurus", one.TeamName)
	assert.Greater(t, one.TotalValue, 0)

	_, err = svc.Profile(ctx, "99")
	assert.ErrorIs(t, err, dal.ErrTeamNotFound)
}

func TestTrades(t *testing.T) {
	svc, _, _, _ := newService(t, nil)
	refreshed(t, svc)
	ctx := context.Background()
	params := trades.DefaultParams()

	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		proposals, mode, err := svc.Trades(ctx, id, "")
		require.NoError(t, err)
		assert.True(t, mode.Valid())
		assert.LessOrEqual(t, len(proposals), params.MaxProposals)
		for _, p := range proposals {
			assert.NotEqual(t, id, p.TargetTeam)
			assert.True(t, params.WithinTolerance(p), "%s -> %s %s out of tolerance", id, p.TargetTeam, p.Type)
		}
	}

	_, mode, err := svc.Trades(ctx, "1", "Tanking")
	require.NoError(t, err)
	assert.Equal(t, models.PhaseTank, mode)

	_, _, err = svc.Trades(ctx, "1", "yolo")
	assert.ErrorIs(t, err, ErrInvalidMode)

	_, _, err = svc.Trades(ctx, "99", "")
	assert.ErrorIs(t, err, dal.ErrTeamNotFound)
}

func TestRoadmap(t *testing.T) {
	svc, _, _, _ := newService(t, nil)
	refreshed(t, svc)
	ctx := context.Background()

	prof, err := svc.Profile(ctx, "2")
	require.NoError(t, err)
	rm, err := svc.Roadmap(ctx, "2")
	require.NoError(t, err)

	assert.Equal(t, prof.Phase, rm.Phase)
	assert.Equal(t, "Rebuild Rangers", rm.TeamName)
	assert.LessOrEqual(t, len(rm.TradeRecommendations), roadmap.MaxRecommendations)
	assert.LessOrEqual(t, len(rm.BuyCandidates), roadmap.MaxBuyCandidates)
	assert.NotEmpty(t, rm.DraftStrategy)
	// team 2 owns its own 8 picks plus three acquired firsts
	assert.Equal(t, 11, rm.PickCapital.Count)
	assert.Equal(t, prof.PickValue, rm.PickCapital.TotalValue)
}

func TestSyncRosters(t *testing.T) {
	roster := stubRoster{
		state: models.LeagueState{
			Teams: []models.Team{
				{ID: "1", Name: "Gridiron Gurus", Record: models.Record{Wins: 9, Losses: 4}, Roster: []models.Player{
					{ID: "p1", Name: "Josh Allen", Position: models.PositionQB, Age: 30},
				}},
				{ID: "7", Name: "Expansion", Record: models.Record{Wins: 1, Losses: 12}},
			},
			Picks: []models.DraftPick{
				{Season: 2026, Round: 1, OriginalOwner: "1", CurrentOwner: "1"},
				{Season: 2026, Round: 1, OriginalOwner: "7", CurrentOwner: "1"},
			},
		},
		issues: []ingest.Issue{
			{Source: "teams/1/players", Index: 3, Reason: "missing name"},
			{Source: "picks", Index: 9, Reason: "invalid round 0"},
		},
	}
	svc, _, bus, d := newService(t, roster)
	refreshed(t, svc)
	ch := bus.Subscribe()
	ctx := context.Background()

	res, err := svc.SyncRosters(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, res.RunID)
	assert.Equal(t, 2, res.Teams)
	assert.Equal(t, 2, res.Picks)
	assert.Len(t, res.Issues, 2)

	e := nextEvent(t, ch)
	assert.Equal(t, pubsub.EventLeagueSynced, e.Type)
	assert.Equal(t, res.RunID, e.Payload["run_id"])

	team, err := d.GetTeam(ctx, "1")
	require.NoError(t, err)
	assert.Len(t, team.Roster, 1)
	assert.Equal(t, 9, team.Record.Wins)

	picks, err := d.ListPicks(ctx)
	require.NoError(t, err)
	require.Len(t, picks, 2)
	slots := map[string]int{}
	for _, p := range picks {
		slots[p.OriginalOwner] = p.Slot
	}
	assert.Equal(t, 1, slots["7"], "worst record picks first")
	assert.Equal(t, 2, slots["1"])
}

func TestSyncRostersBoundsSlotsByLeagueSize(t *testing.T) {
	roster := stubRoster{state: models.LeagueState{
		Teams: []models.Team{
			{ID: "a", Record: models.Record{Wins: 2, Losses: 11}},
			{ID: "b", Record: models.Record{Wins: 11, Losses: 2}},
		},
		Picks: []models.DraftPick{
			{Season: 2026, Round: 1, OriginalOwner: "a", CurrentOwner: "a"},
			{Season: 2026, Round: 1, Slot: 2, OriginalOwner: "b", CurrentOwner: "b"},
			{Season: 2026, Round: 2, Slot: 13, OriginalOwner: "b", CurrentOwner: "a"},
		},
	}}
	svc, _, _, _ := newService(t, roster)
	refreshed(t, svc)

	res, err := svc.SyncRosters(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Picks)
	require.Len(t, res.Issues, 1)
	assert.Contains(t, res.Issues[0].Reason, "past league size")

	_, err = svc.LookupPick(2026, 1, 2)
	assert.NoError(t, err)
	_, err = svc.LookupPick(2026, 1, 3)
	assert.ErrorIs(t, err, ErrInvalidPick)
}

func TestLookupPickBeforeSyncAllowsLargestLeague(t *testing.T) {
	svc, _, _, _ := newService(t, nil)
	refreshed(t, svc)

	p12, err := svc.LookupPick(2026, 1, 12)
	require.NoError(t, err)
	p14, err := svc.LookupPick(2026, 1, 14)
	require.NoError(t, err)
	assert.Less(t, p14.Value, p12.Value)

	_, err = svc.LookupPick(2026, 1, valuation.MaxSlots+1)
	assert.ErrorIs(t, err, ErrInvalidPick)
}

func TestProfilesResolvePlayerIDRosters(t *testing.T) {
	roster := stubRoster{state: models.LeagueState{
		Teams: []models.Team{{ID: "t1", Roster: []models.Player{
			{ID: "4046", Name: "4046", Position: models.PositionQB, Team: "BUF", Age: 29},
		}}},
	}}
	svc, feed, _, _ := newService(t, roster)
	snap := dal.DemoMarketSnapshot()
	for i := range snap.Players {
		if snap.Players[i].Name == "Josh Allen" {
			snap.Players[i].PlayerID = "4046"
		}
	}
	feed.set(snap, nil)
	refreshed(t, svc)
	ctx := context.Background()

	_, err := svc.SyncRosters(ctx)
	require.NoError(t, err)

	p, err := svc.Profile(ctx, "t1")
	require.NoError(t, err)
	require.Len(t, p.Roster, 1)
	assert.Equal(t, "Josh Allen", p.Roster[0].Name)
	assert.Equal(t, 9400, p.TotalValue)
}

func TestSyncRostersRefusesEmptyOrFailedFeed(t *testing.T) {
	ctx := context.Background()

	svc, _, _, d := newService(t, stubRoster{})
	_, err := svc.SyncRosters(ctx)
	assert.ErrorIs(t, err, ErrEmptyLeague)
	teams, _ := d.ListTeams(ctx)
	assert.Len(t, teams, 6)

	svc, _, _, _ = newService(t, stubRoster{err: feeds.ErrFeedUnavailable})
	_, err = svc.SyncRosters(ctx)
	assert.ErrorIs(t, err, feeds.ErrFeedUnavailable)

	svc, _, _, _ = newService(t, nil)
	_, err = svc.SyncRosters(ctx)
	assert.ErrorIs(t, err, ErrNoRosterFeed)
}

func TestRunStopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	svc, feed, bus, _ := newService(t, stubRoster{state: models.LeagueState{
		Teams: []models.Team{{ID: "1", Name: "Solo"}},
	}})
	ch := bus.Subscribe()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		svc.Run(ctx, 5*time.Millisecond)
		close(done)
	}()

	seen := map[string]bool{}
	for !seen[pubsub.EventCatalogRefreshed] || !seen[pubsub.EventLeagueSynced] {
		seen[nextEvent(t, ch).Type] = true
	}
	feed.set(models.MarketSnapshot{}, errors.New("flaky"))
	for nextEvent(t, ch).Type != pubsub.EventRefreshFailed {
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.Greater(t, feed.calls, 1)
	assert.True(t, svc.Status().Ready)
}
