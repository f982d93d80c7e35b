package dal

import "github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"

// DemoSeason is the draft season the demo league's pick ledger starts at
const DemoSeason = 2026

type seedPlayer struct {
	name  string
	pos   models.Position
	nfl   string
	age   float64
	value int
}

var demoRosters = map[string][]seedPlayer{
	"1": {
		{"Josh Allen", models.PositionQB, "BUF", 30, 9400},
		{"Bijan Robinson", models.PositionRB, "ATL", 24, 9800},
		{"Jahmyr Gibbs", models.PositionRB, "DET", 24, 9300},
		{"Ja'Marr Chase", models.PositionWR, "CIN", 26, 9900},
		{"Amon-Ra St. Brown", models.PositionWR, "DET", 27, 8300},
		{"Sam LaPorta", models.PositionTE, "DET", 25, 5200},
		{"Derrick Henry", models.PositionRB, "BAL", 32, 2200},
		{"Mike Evans", models.PositionWR, "TB", 33, 2600},
	},
	"2": {
		{"Bryce Young", models.PositionQB, "CAR", 25, 3000},
		{"Tyjae Spears", models.PositionRB, "TEN", 25, 2600},
		{"Rome Odunze", models.PositionWR, "CHI", 24, 5400},
		{"Xavier Worthy", models.PositionWR, "KC", 23, 4500},
		{"Brock Bowers", models.PositionTE, "LV", 23, 7600},
		{"Aaron Jones", models.PositionRB, "MIN", 31, 1500},
		{"Keenan Allen", models.PositionWR, "LAC", 34, 1200},
	},
	"3": {
		{"Lamar Jackson", models.PositionQB, "BAL", 29, 8800},
		{"Jonathan Taylor", models.PositionRB, "IND", 27, 6000},
		{"Saquon Barkley", models.PositionRB, "PHI", 29, 5600},
		{"CeeDee Lamb", models.PositionWR, "DAL", 27, 8900},
		{"Davante Adams", models.PositionWR, "LAR", 33, 2400},
		{"Travis Kelce", models.PositionTE, "KC", 36, 1800},
		{"Courtland Sutton", models.PositionWR, "DEN", 30, 2900},
	},
	"4": {
		{"Jalen Hurts", models.PositionQB, "PHI", 28, 7900},
		{"Breece Hall", models.PositionRB, "NYJ", 25, 7400},
		{"Justin Jefferson", models.PositionWR, "MIN", 27, 9600},
		{"Garrett Wilson", models.PositionWR, "NYJ", 26, 7200},
		{"Trey McBride", models.PositionTE, "ARI", 26, 6500},
		{"Joe Mixon", models.PositionRB, "HOU", 30, 1900},
	},
	"5": {
		{"C.J. Stroud", models.PositionQB, "HOU", 24, 7600},
		{"De'Von Achane", models.PositionRB, "MIA", 24, 8200},
		{"Puka Nacua", models.PositionWR, "LAR", 25, 8600},
		{"Drake London", models.PositionWR, "ATL", 25, 7800},
		{"Tee Higgins", models.PositionWR, "CIN", 27, 5600},
		{"Dalton Kincaid", models.PositionTE, "BUF", 26, 3600},
		{"Tony Pollard", models.PositionRB, "TEN", 29, 2000},
	},
	"6": {
		{"Patrick Mahomes", models.PositionQB, "KC", 31, 6500},
		{"Kyren Williams", models.PositionRB, "LAR", 26, 5400},
		{"James Cook", models.PositionRB, "BUF", 27, 5200},
		{"Malik Nabers", models.PositionWR, "NYG", 23, 9200},
		{"Marvin Harrison Jr.", models.PositionWR, "ARI", 24, 7000},
		{"George Kittle", models.PositionTE, "SF", 32, 2600},
		{"Stefon Diggs", models.PositionWR, "NE", 32, 1800},
	},
}

func getDefaultTeams() []models.Team {
	teams := []models.Team{
		{ID: "1", Name: "Gridiron Gurus", Owner: "Sarah", Record: models.Record{Wins: 10, Losses: 3, PointsFor: 1688.4}},
		{ID: "2", Name: "Rebuild Rangers", Owner: "Mike", Record: models.Record{Wins: 2, Losses: 11, PointsFor: 1201.9}},
		{ID: "3", Name: "Dynasty Dons", Owner: "Emma", Record: models.Record{Wins: 8, Losses: 5, PointsFor: 1560.2}},
		{ID: "4", Name: "Waiver Wolves", Owner: "Alex", Record: models.Record{Wins: 7, Losses: 6, PointsFor: 1502.7}},
		{ID: "5", Name: "Taxi Squad", Owner: "Jordan", Record: models.Record{Wins: 6, Losses: 7, PointsFor: 1477.0}},
		{ID: "6", Name: "Sunday Sharks", Owner: "Taylor", Record: models.Record{Wins: 5, Losses: 8, PointsFor: 1398.6}},
	}
	for i := range teams {
		for j, sp := range demoRosters[teams[i].ID] {
			teams[i].Roster = append(teams[i].Roster, models.Player{
				ID:       teams[i].ID + "-" + string(rune('a'+j)),
				Name:     sp.name,
				Position: sp.pos,
				Team:     sp.nfl,
				Age:      sp.age,
			})
		}
	}
	return teams
}

// getDefaultPicks gives every team its own first four rounds this season and
// first two rounds for the next two, then applies a few trades
func getDefaultPicks() []models.DraftPick {
	var picks []models.DraftPick
	for _, t := range getDefaultTeams() {
		for round := 1; round <= 4; round++ {
			picks = append(picks, models.DraftPick{Season: DemoSeason, Round: round, OriginalOwner: t.ID, CurrentOwner: t.ID})
		}
		for season := DemoSeason + 1; season <= DemoSeason+2; season++ {
			for round := 1; round <= 2; round++ {
				picks = append(picks, models.DraftPick{Season: season, Round: round, OriginalOwner: t.ID, CurrentOwner: t.ID})
			}
		}
	}

	traded := map[string]string{
		"2027-1-1": "2",
		"2028-1-3": "2",
		"2027-1-6": "2",
		"2026-2-4": "5",
	}
	for i := range picks {
		if owner, ok := traded[picks[i].Key()]; ok {
			picks[i].CurrentOwner = owner
		}
	}
	return picks
}

// DemoMarketSnapshot returns market values matching the demo league
func DemoMarketSnapshot() models.MarketSnapshot {
	var snap models.MarketSnapshot
	for _, id := range []string{"1", "2", "3", "4", "5", "6"} {
		for _, sp := range demoRosters[id] {
			name := sp.name
			if name == "Marvin Harrison Jr." {
				// the market lists him without the suffix
				name = "Marvin Harrison"
			}
			snap.Players = append(snap.Players, models.MarketValue{
				Name:     name,
				Position: string(sp.pos),
				Team:     sp.nfl,
				Age:      sp.age,
				Value:    sp.value,
			})
		}
	}
	snap.Source = "demo"
	return snap
}
