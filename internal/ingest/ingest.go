// Package ingest validates raw feed payloads at the boundary. Entries that
// fail the schema check are dropped and reported as Issues; one bad entry
// never aborts the rest of a roster, pick ledger or market snapshot.
package ingest

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/logger"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/valuation"
)

// Issue describes one skipped entry
type Issue struct {
	Source string `json:"source"`
	Index  int    `json:"index"`
	Reason string `json:"reason"`
}

func (i Issue) Error() string {
	return fmt.Sprintf("%s[%d]: %s", i.Source, i.Index, i.Reason)
}

type rosterEntry struct {
	PlayerID string   `json:"playerId"`
	Name     string   `json:"name"`
	Position string   `json:"position"`
	Team     string   `json:"team"`
	Age      *float64 `json:"age"`
}

type recordEntry struct {
	Wins      int     `json:"wins"`
	Losses    int     `json:"losses"`
	Ties      int     `json:"ties"`
	PointsFor float64 `json:"pointsFor"`
}

type teamEntry struct {
	ID      string            `json:"id"`
	Name    string            `json:"name"`
	Owner   string            `json:"owner"`
	Record  recordEntry       `json:"record"`
	Players []json.RawMessage `json:"players"`
}

type pickEntry struct {
	Season        int    `json:"season"`
	Round         int    `json:"round"`
	Slot          int    `json:"slot"`
	OriginalOwner string `json:"originalOwner"`
	CurrentOwner  string `json:"currentOwner"`
}

type marketEntry struct {
	PlayerID string  `json:"playerId"`
	Name     string  `json:"name"`
	Position string  `json:"position"`
	Team     string  `json:"team"`
	Age      float64 `json:"age"`
	Value    *int    `json:"value"`
	Trend    int     `json:"trend"`
}

type pickMarketEntry struct {
	PickName string `json:"pickName"`
	Value    *int   `json:"value"`
}

type marketPayload struct {
	Players []json.RawMessage `json:"players"`
	Picks   []json.RawMessage `json:"picks"`
}

// ParsePlayer checks a single roster entry. An entry needs a playerId or a
// name; with no name the id stands in until the catalog resolves it. A
// missing age is allowed and left as zero; the profile builder substitutes
// its default.
func ParsePlayer(raw json.RawMessage) (models.Player, error) {
	var e rosterEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return models.Player{}, fmt.Errorf("decode player: %w", err)
	}
	id := strings.TrimSpace(e.PlayerID)
	name := strings.TrimSpace(e.Name)
	if name == "" {
		name = id
	}
	if name == "" {
		return models.Player{}, fmt.Errorf("missing playerId and name")
	}
	pos, ok := models.ParsePosition(e.Position)
	if !ok {
		return models.Player{}, fmt.Errorf("unsupported position %q", e.Position)
	}
	p := models.Player{
		ID:       id,
		Name:     name,
		Position: pos,
		Team:     strings.TrimSpace(e.Team),
	}
	if e.Age != nil {
		if *e.Age < 0 || *e.Age > 60 {
			return models.Player{}, fmt.Errorf("implausible age %.1f", *e.Age)
		}
		p.Age = *e.Age
	}
	return p, nil
}

// ParseRoster keeps every valid player in raw
func ParseRoster(source string, raw []json.RawMessage) ([]models.Player, []Issue) {
	players := make([]models.Player, 0, len(raw))
	var issues []Issue
	for i, r := range raw {
		p, err := ParsePlayer(r)
		if err != nil {
			issues = append(issues, Issue{Source: source, Index: i, Reason: err.Error()})
			continue
		}
		players = append(players, p)
	}
	return players, issues
}

// ParseTeams decodes a roster feed document: a JSON array of teams, each with
// a record and a players array. Only an undecodable document is an error.
func ParseTeams(data []byte) ([]models.Team, []Issue, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode roster feed: %w", err)
	}

	teams := make([]models.Team, 0, len(raw))
	var issues []Issue
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		var e teamEntry
		if err := json.Unmarshal(r, &e); err != nil {
			issues = append(issues, Issue{Source: "teams", Index: i, Reason: err.Error()})
			continue
		}
		id := strings.TrimSpace(e.ID)
		if id == "" {
			issues = append(issues, Issue{Source: "teams", Index: i, Reason: "missing id"})
			continue
		}
		if seen[id] {
			issues = append(issues, Issue{Source: "teams", Index: i, Reason: fmt.Sprintf("duplicate team %q", id)})
			continue
		}
		seen[id] = true

		roster, rosterIssues := ParseRoster("teams/"+id+"/players", e.Players)
		issues = append(issues, rosterIssues...)
		teams = append(teams, models.Team{
			ID:    id,
			Name:  strings.TrimSpace(e.Name),
			Owner: strings.TrimSpace(e.Owner),
			Record: models.Record{
				Wins:      e.Record.Wins,
				Losses:    e.Record.Losses,
				Ties:      e.Record.Ties,
				PointsFor: e.Record.PointsFor,
			},
			Roster: roster,
		})
	}
	logIssues("roster feed", issues)
	return teams, issues, nil
}

// ParsePicks decodes a pick ledger: a JSON array of picks. A pick with no
// current owner belongs to its original owner.
func ParsePicks(data []byte) ([]models.DraftPick, []Issue, error) {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, nil, fmt.Errorf("decode pick ledger: %w", err)
	}

	picks := make([]models.DraftPick, 0, len(raw))
	var issues []Issue
	seen := make(map[string]bool, len(raw))
	for i, r := range raw {
		var e pickEntry
		if err := json.Unmarshal(r, &e); err != nil {
			issues = append(issues, Issue{Source: "picks", Index: i, Reason: err.Error()})
			continue
		}
		if reason := checkPick(e); reason != "" {
			issues = append(issues, Issue{Source: "picks", Index: i, Reason: reason})
			continue
		}
		p := models.DraftPick{
			Season:        e.Season,
			Round:         e.Round,
			Slot:          e.Slot,
			OriginalOwner: strings.TrimSpace(e.OriginalOwner),
			CurrentOwner:  strings.TrimSpace(e.CurrentOwner),
		}
		if p.CurrentOwner == "" {
			p.CurrentOwner = p.OriginalOwner
		}
		if seen[p.Key()] {
			issues = append(issues, Issue{Source: "picks", Index: i, Reason: fmt.Sprintf("duplicate pick %s", p.Key())})
			continue
		}
		seen[p.Key()] = true
		picks = append(picks, p)
	}
	logIssues("pick ledger", issues)
	return picks, issues, nil
}

func checkPick(e pickEntry) string {
	switch {
	case e.Season < 2000 || e.Season > 2100:
		return fmt.Sprintf("invalid season %d", e.Season)
	case e.Round < 1:
		return fmt.Sprintf("invalid round %d", e.Round)
	case e.Slot < 0 || e.Slot > valuation.MaxSlots:
		return fmt.Sprintf("invalid slot %d", e.Slot)
	case strings.TrimSpace(e.OriginalOwner) == "":
		return "missing originalOwner"
	}
	return ""
}

// CheckSlots drops picks whose slot is past the league size. Issue indexes
// refer to positions in picks.
func CheckSlots(picks []models.DraftPick, leagueSize int) ([]models.DraftPick, []Issue) {
	out := make([]models.DraftPick, 0, len(picks))
	var issues []Issue
	for i, p := range picks {
		if p.Slot > leagueSize {
			issues = append(issues, Issue{Source: "picks", Index: i, Reason: fmt.Sprintf("slot %d past league size %d", p.Slot, leagueSize)})
			continue
		}
		out = append(out, p)
	}
	return out, issues
}

// ParseMarket decodes a market value document with "players" and "picks"
// arrays. Entries without a name or value, or with a negative value, are
// dropped.
func ParseMarket(data []byte) (models.MarketSnapshot, []Issue, error) {
	var payload marketPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		return models.MarketSnapshot{}, nil, fmt.Errorf("decode market feed: %w", err)
	}

	snap := models.MarketSnapshot{
		Players: make([]models.MarketValue, 0, len(payload.Players)),
		Picks:   make([]models.PickMarketValue, 0, len(payload.Picks)),
	}
	var issues []Issue
	for i, r := range payload.Players {
		var e marketEntry
		if err := json.Unmarshal(r, &e); err != nil {
			issues = append(issues, Issue{Source: "players", Index: i, Reason: err.Error()})
			continue
		}
		switch {
		case strings.TrimSpace(e.Name) == "":
			issues = append(issues, Issue{Source: "players", Index: i, Reason: "missing name"})
			continue
		case e.Value == nil:
			issues = append(issues, Issue{Source: "players", Index: i, Reason: "missing value"})
			continue
		case *e.Value < 0:
			issues = append(issues, Issue{Source: "players", Index: i, Reason: fmt.Sprintf("negative value %d", *e.Value)})
			continue
		}
		snap.Players = append(snap.Players, models.MarketValue{
			PlayerID: strings.TrimSpace(e.PlayerID),
			Name:     strings.TrimSpace(e.Name),
			Position: strings.ToUpper(strings.TrimSpace(e.Position)),
			Team:     strings.TrimSpace(e.Team),
			Age:      e.Age,
			Value:    *e.Value,
			Trend:    e.Trend,
		})
	}
	for i, r := range payload.Picks {
		var e pickMarketEntry
		if err := json.Unmarshal(r, &e); err != nil {
			issues = append(issues, Issue{Source: "picks", Index: i, Reason: err.Error()})
			continue
		}
		if strings.TrimSpace(e.PickName) == "" || e.Value == nil || *e.Value < 0 {
			issues = append(issues, Issue{Source: "picks", Index: i, Reason: "missing pickName or value"})
			continue
		}
		snap.Picks = append(snap.Picks, models.PickMarketValue{PickName: strings.TrimSpace(e.PickName), Value: *e.Value})
	}
	logIssues("market feed", issues)
	return snap, issues, nil
}

func logIssues(feed string, issues []Issue) {
	if len(issues) == 0 {
		return
	}
	logger.Warn("Skipped malformed entries", "feed", feed, "count", len(issues), "first", issues[0].Error())
}
