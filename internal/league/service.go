// Package league ties the pieces together: it keeps the live value catalog
// fresh, syncs rosters into the DAL and answers profile, trade and roadmap
// queries against a consistent snapshot.
package league

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/dal"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/feeds"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/ingest"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/metrics"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/phase"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/profile"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/pubsub"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/roadmap"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/trades"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/valuation"
)

var (
	// ErrNoCatalog is returned by queries before the first successful refresh
	ErrNoCatalog = errors.New("value catalog not loaded")
	// ErrInvalidMode is returned for a mode override outside the phase vocabulary
	ErrInvalidMode = errors.New("invalid mode")
	// ErrInvalidPick is returned for a pick lookup with an impossible round or slot
	ErrInvalidPick = errors.New("invalid pick")
	// ErrNoRosterFeed is returned by SyncRosters when no roster feed is configured
	ErrNoRosterFeed = errors.New("no roster feed configured")
	// ErrEmptyLeague is returned when a roster feed returns no valid teams
	ErrEmptyLeague = errors.New("roster feed returned no teams")
)

// Options configures a Service. Zero values fall back to defaults.
type Options struct {
	CurrentSeason int
	Params        trades.Params
	Phase         phase.ValuePolicy
	// ReportPolicy classifies teams for the per-phase metrics after a sync
	ReportPolicy phase.Policy
	Bus          pubsub.Bus
	Metrics      *metrics.Registry
}

// Service answers league queries. Safe for concurrent use.
type Service struct {
	dal      dal.LeagueDAL
	market   feeds.MarketFeed
	roster   feeds.RosterFeed
	store    *valuation.Store
	policy   phase.ValuePolicy
	report   phase.Policy
	engine   *trades.Engine
	roadmaps *roadmap.Generator
	bus      pubsub.Bus
	metrics  *metrics.Registry
	season   int
	// teams is the league size last seen in the store, zero until known
	teams atomic.Int64

	refreshMu sync.Mutex
	syncMu    sync.Mutex
}

// New creates a Service. roster may be nil when rosters are managed elsewhere.
func New(d dal.LeagueDAL, market feeds.MarketFeed, roster feeds.RosterFeed, opts Options) *Service {
	if opts.CurrentSeason == 0 {
		opts.CurrentSeason = time.Now().Year()
	}
	if opts.Params.MaxProposals == 0 {
		opts.Params = trades.DefaultParams()
	}
	if opts.Phase == (phase.ValuePolicy{}) {
		opts.Phase = phase.DefaultValuePolicy()
	}
	if opts.ReportPolicy == nil {
		opts.ReportPolicy = opts.Phase
	}
	return &Service{
		dal:      d,
		market:   market,
		roster:   roster,
		store:    valuation.NewStore(),
		policy:   opts.Phase,
		report:   opts.ReportPolicy,
		engine:   trades.NewEngine(opts.Params),
		roadmaps: roadmap.NewGenerator(opts.Params),
		bus:      opts.Bus,
		metrics:  opts.Metrics,
		season:   opts.CurrentSeason,
	}
}

// CurrentSeason is the near-term rookie draft season
func (s *Service) CurrentSeason() int { return s.season }

func (s *Service) publish(e pubsub.Event) {
	if s.bus != nil {
		s.bus.Publish(e)
	}
}

func (s *Service) catalog() (*valuation.Catalog, error) {
	c := s.store.Current()
	if c == nil {
		return nil, ErrNoCatalog
	}
	return c, nil
}

// Status describes the live catalog
type Status struct {
	Ready          bool      `json:"ready"`
	CatalogVersion string    `json:"catalogVersion,omitempty"`
	Entries        int       `json:"entries"`
	BuiltAt        time.Time `json:"builtAt,omitempty"`
	MarketFeed     string    `json:"marketFeed"`
}

// Status reports whether a catalog is loaded
func (s *Service) Status() Status {
	st := Status{MarketFeed: s.market.Name()}
	if c := s.store.Current(); c != nil {
		st.Ready = true
		st.CatalogVersion = c.Version()
		st.Entries = c.Len()
		st.BuiltAt = c.BuiltAt()
	}
	return st
}

// Ping checks that the DAL answers
func (s *Service) Ping(ctx context.Context) error {
	_, err := s.dal.ListTeams(ctx)
	return err
}

// Restore rebuilds the catalog from the last snapshot stored in the DAL. It
// is a no-op when a catalog is already live or nothing was stored.
func (s *Service) Restore(ctx context.Context) error {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	if s.store.Current() != nil {
		return nil
	}
	snap, err := s.dal.LoadMarketSnapshot(ctx)
	if err != nil {
		return fmt.Errorf("load stored market snapshot: %w", err)
	}
	if len(snap.Players) == 0 {
		logger.Info("No stored market snapshot to restore")
		return nil
	}
	cat, err := valuation.NewCatalog(snap, valuation.Options{CurrentSeason: s.season, BuiltAt: snap.FetchedAt})
	if err != nil {
		return fmt.Errorf("rebuild catalog from stored snapshot: %w", err)
	}
	s.store.Swap(cat)
	s.metrics.SetCatalog(cat.Len(), cat.BuiltAt())
	logger.Info("Restored value catalog from stored snapshot",
		"catalog_version", cat.Version(),
		"entries", cat.Len(),
		"fetched_at", snap.FetchedAt)
	return nil
}

// Refresh fetches the market feed and installs a new catalog. On any error
// the live catalog is left untouched. A snapshot identical to the live one
// is not re-installed.
func (s *Service) Refresh(ctx context.Context) (*valuation.Catalog, error) {
	s.refreshMu.Lock()
	defer s.refreshMu.Unlock()

	started := time.Now()
	refreshID := uuid.NewString()
	log := logger.With("league").With("refresh_id", refreshID, "feed", s.market.Name())

	cat, snap, err := s.buildCatalog(ctx)
	if err != nil {
		current := s.store.Current()
		version := ""
		if current != nil {
			version = current.Version()
			s.metrics.ObserveRefresh(started, err, current.Len(), current.BuiltAt())
		} else {
			s.metrics.ObserveRefresh(started, err, 0, time.Time{})
		}
		log.Error("Catalog refresh failed, keeping last good catalog", "error", err, "catalog_version", version)
		s.publish(pubsub.RefreshFailed(version, err))
		return nil, err
	}

	if current := s.store.Current(); current != nil && current.Fingerprint() == cat.Fingerprint() {
		s.metrics.ObserveUnchanged(started)
		log.Debug("Market snapshot unchanged", "catalog_version", current.Version())
		return current, nil
	}

	s.store.Swap(cat)
	s.metrics.ObserveRefresh(started, nil, cat.Len(), cat.BuiltAt())

	if err := s.dal.UpsertMarketValues(ctx, snap); err != nil {
		// the new catalog is live; only restart recovery is affected
		log.Warn("Failed to persist market snapshot", "error", err)
	}

	log.Info("Catalog refreshed",
		"catalog_version", cat.Version(),
		"entries", cat.Len(),
		"duration_ms", time.Since(started).Milliseconds())
	s.publish(pubsub.CatalogRefreshed(cat.Version(), snap.Source, cat.Len(), len(snap.Picks)))
	return cat, nil
}

func (s *Service) buildCatalog(ctx context.Context) (*valuation.Catalog, models.MarketSnapshot, error) {
	snap, err := s.market.FetchMarket(ctx)
	if err != nil {
		return nil, snap, fmt.Errorf("fetch market: %w", err)
	}
	cat, err := valuation.NewCatalog(snap, valuation.Options{CurrentSeason: s.season})
	if err != nil {
		return nil, snap, fmt.Errorf("build catalog: %w", err)
	}
	return cat, snap, nil
}

// SyncResult summarizes one roster sync
type SyncResult struct {
	RunID  string         `json:"runId"`
	Teams  int            `json:"teams"`
	Picks  int            `json:"picks"`
	Issues []ingest.Issue `json:"issues"`
}

// SyncRosters pulls every roster and the pick ledger from the roster feed
// and stores them. Malformed entries are skipped and reported. Unknown
// near-term pick slots are projected from the standings.
func (s *Service) SyncRosters(ctx context.Context) (SyncResult, error) {
	if s.roster == nil {
		return SyncResult{}, ErrNoRosterFeed
	}
	s.syncMu.Lock()
	defer s.syncMu.Unlock()

	res := SyncResult{RunID: uuid.NewString(), Issues: []ingest.Issue{}}
	log := logger.With("league").With("run_id", res.RunID, "feed", s.roster.Name())

	state, issues, err := s.roster.FetchLeague(ctx)
	if err == nil && len(state.Teams) == 0 {
		err = ErrEmptyLeague
	}
	if err != nil {
		s.metrics.ObserveSync(err, 0, nil)
		log.Error("Roster sync failed", "error", err)
		return res, fmt.Errorf("sync rosters: %w", err)
	}
	res.Issues = append(res.Issues, issues...)
	state.Picks, issues = ingest.CheckSlots(state.Picks, len(state.Teams))
	res.Issues = append(res.Issues, issues...)

	for _, t := range state.Teams {
		if err := s.dal.UpsertTeam(ctx, t); err != nil {
			s.metrics.ObserveSync(err, 0, nil)
			return res, fmt.Errorf("store team %s: %w", t.ID, err)
		}
	}
	picks := dal.ProjectSlots(state.Teams, state.Picks, s.season)
	if err := s.dal.ReplacePicks(ctx, picks); err != nil {
		s.metrics.ObserveSync(err, 0, nil)
		return res, fmt.Errorf("store picks: %w", err)
	}

	res.Teams = len(state.Teams)
	res.Picks = len(picks)
	s.teams.Store(int64(res.Teams))
	s.metrics.ObserveSync(nil, res.Teams, skippedBySource(res.Issues))
	s.reportPhases(ctx)

	log.Info("Rosters synced", "teams", res.Teams, "picks", res.Picks, "skipped", len(res.Issues))
	s.publish(pubsub.LeagueSynced(res.RunID, res.Teams, res.Picks, len(res.Issues)))
	return res, nil
}

func skippedBySource(issues []ingest.Issue) map[string]int {
	out := make(map[string]int)
	for _, is := range issues {
		source := is.Source
		if strings.HasSuffix(source, "/players") {
			source = "players"
		}
		out[source]++
	}
	return out
}

// reportPhases updates the per-phase team counts under the report policy
func (s *Service) reportPhases(ctx context.Context) {
	cat := s.store.Current()
	if cat == nil || s.metrics == nil {
		return
	}
	state, err := dal.Snapshot(ctx, s.dal)
	if err != nil {
		logger.Warn("Skipping phase report", "error", err)
		return
	}
	counts := make(map[string]int)
	for _, p := range phase.ClassifyLeague(profile.BuildAll(state, cat), s.report) {
		counts[string(p.Phase)]++
	}
	s.metrics.SetPhases(counts)
}

// Profiles builds and classifies every team's profile from the current
// snapshot. Each team's phase is stored as a hint when it changed.
func (s *Service) Profiles(ctx context.Context) ([]models.TeamProfile, error) {
	cat, err := s.catalog()
	if err != nil {
		return nil, err
	}
	state, err := dal.Snapshot(ctx, s.dal)
	if err != nil {
		return nil, fmt.Errorf("load league: %w", err)
	}
	profiles := phase.ClassifyLeague(profile.BuildAll(state, cat), s.policy)
	s.teams.Store(int64(len(state.Teams)))

	now := time.Now().UTC()
	for i, p := range profiles {
		if state.Teams[i].LastPhase == p.Phase {
			continue
		}
		if err := s.dal.SavePhase(ctx, p.TeamID, p.Phase, now); err != nil {
			logger.Warn("Failed to store phase hint", "team_id", p.TeamID, "error", err)
		}
	}
	return profiles, nil
}

func (s *Service) split(ctx context.Context, teamID string) (models.TeamProfile, []models.TeamProfile, error) {
	profiles, err := s.Profiles(ctx)
	if err != nil {
		return models.TeamProfile{}, nil, err
	}
	for i, p := range profiles {
		if p.TeamID == teamID {
			others := make([]models.TeamProfile, 0, len(profiles)-1)
			others = append(others, profiles[:i]...)
			others = append(others, profiles[i+1:]...)
			return p, others, nil
		}
	}
	return models.TeamProfile{}, nil, fmt.Errorf("team %q: %w", teamID, dal.ErrTeamNotFound)
}

// Profile returns one team's classified profile
func (s *Service) Profile(ctx context.Context, teamID string) (models.TeamProfile, error) {
	p, _, err := s.split(ctx, teamID)
	return p, err
}

// Trades finds proposals for teamID. mode overrides the team's classified
// phase when set and accepts the external vocabulary ("tanking", "win-now").
func (s *Service) Trades(ctx context.Context, teamID, mode string) ([]models.TradeProposal, models.Phase, error) {
	var override models.Phase
	if mode != "" {
		p, ok := models.ParsePhase(mode)
		if !ok {
			return nil, "", fmt.Errorf("%w: %q", ErrInvalidMode, mode)
		}
		override = p
	}

	my, others, err := s.split(ctx, teamID)
	if err != nil {
		return nil, "", err
	}
	myMode := my.Phase
	if override != "" {
		myMode = override
	}
	return s.findTrades(my, others, myMode), myMode, nil
}

func (s *Service) findTrades(my models.TeamProfile, others []models.TeamProfile, mode models.Phase) []models.TradeProposal {
	started := time.Now()
	proposals := s.engine.FindTrades(my, others, mode, nil)

	byType := make(map[string]int)
	for _, p := range proposals {
		byType[string(p.Type)]++
	}
	s.metrics.ObserveTrades(string(mode), started, byType)
	return proposals
}

// Roadmap builds teamID's action plan for its classified phase
func (s *Service) Roadmap(ctx context.Context, teamID string) (models.Roadmap, error) {
	my, others, err := s.split(ctx, teamID)
	if err != nil {
		return models.Roadmap{}, err
	}
	proposals := s.findTrades(my, others, my.Phase)
	capital := roadmap.SummarizePicks(my.Picks, s.season)
	return s.roadmaps.Generate(my, my.Phase, proposals, capital, others), nil
}

// ValueLookup is the answer to a player value query
type ValueLookup struct {
	Query string `json:"query"`
	valuation.Valuation
	Record         *valuation.ValueRecord `json:"record,omitempty"`
	CatalogVersion string                 `json:"catalogVersion"`
}

// LookupValue resolves a player name. Unknown names get the placeholder value.
func (s *Service) LookupValue(name string) (ValueLookup, error) {
	cat, err := s.catalog()
	if err != nil {
		return ValueLookup{}, err
	}
	out := ValueLookup{
		Query:          name,
		Valuation:      cat.LookupPlayer(name),
		CatalogVersion: cat.Version(),
	}
	if rec, ok := cat.Record(name); ok {
		out.Record = &rec
	}
	return out, nil
}

// PickLookup is the answer to a pick value query
type PickLookup struct {
	Season int    `json:"season"`
	Round  int    `json:"round"`
	Slot   int    `json:"slot"`
	Label  string `json:"label"`
	Value  int    `json:"value"`
}

// LookupPick values a pick. slot 0 means the slot is not yet known. Slots
// past the league size are rejected.
func (s *Service) LookupPick(season, round, slot int) (PickLookup, error) {
	if round < 1 || slot < 0 || slot > s.maxSlot() || season < 2000 {
		return PickLookup{}, fmt.Errorf("%w: season %d round %d slot %d", ErrInvalidPick, season, round, slot)
	}
	cat, err := s.catalog()
	if err != nil {
		return PickLookup{}, err
	}
	p := models.DraftPick{Season: season, Round: round, Slot: slot}
	return PickLookup{
		Season: season,
		Round:  round,
		Slot:   slot,
		Label:  p.Label(),
		Value:  cat.PickValue(season, round, slot),
	}, nil
}

func (s *Service) maxSlot() int {
	if n := int(s.teams.Load()); n > 0 && n < valuation.MaxSlots {
		return n
	}
	return valuation.MaxSlots
}

// Run refreshes the catalog and syncs rosters once, then again every
// interval until ctx is cancelled. Failures are logged and retried on the
// next tick.
func (s *Service) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	logger.Info("League sync loop started", "interval", interval.String())
	for {
		s.tick(ctx)
		select {
		case <-ctx.Done():
			logger.Info("League sync loop stopped")
			return
		case <-ticker.C:
		}
	}
}

func (s *Service) tick(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	// errors are logged and published inside
	_, _ = s.Refresh(ctx)
	if s.roster != nil {
		_, _ = s.SyncRosters(ctx)
	}
}
