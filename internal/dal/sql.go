package dal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/ahennings5-ai/andrews-sandbox-sub000/internal/models"
)

// sqlStore holds the queries shared by the SQLite and Postgres DALs. Queries
// are written with ? placeholders and rebound for the driver.
type sqlStore struct {
	db       *sql.DB
	numbered bool
}

// rebind turns ? placeholders into $1, $2, ... for drivers that need them
func (s *sqlStore) rebind(query string) string {
	if !s.numbered {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *sqlStore) exec(ctx context.Context, q execer, query string, args ...any) error {
	_, err := q.ExecContext(ctx, s.rebind(query), args...)
	return err
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func (s *sqlStore) seed(ctx context.Context) error {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM teams").Scan(&count); err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, t := range getDefaultTeams() {
		if err := s.UpsertTeam(ctx, t); err != nil {
			return fmt.Errorf("seed team %s: %w", t.ID, err)
		}
	}
	return s.ReplacePicks(ctx, getDefaultPicks())
}

const teamColumns = `id, name, owner, wins, losses, ties, points_for, roster, last_phase, last_phase_at`

func scanTeam(row interface{ Scan(...any) error }) (models.Team, error) {
	var (
		t           models.Team
		roster      []byte
		lastPhase   sql.NullString
		lastPhaseAt sql.NullInt64
	)
	err := row.Scan(&t.ID, &t.Name, &t.Owner, &t.Record.Wins, &t.Record.Losses, &t.Record.Ties,
		&t.Record.PointsFor, &roster, &lastPhase, &lastPhaseAt)
	if err != nil {
		return models.Team{}, err
	}
	if len(roster) > 0 {
		if err := json.Unmarshal(roster, &t.Roster); err != nil {
			return models.Team{}, fmt.Errorf("decode roster of team %s: %w", t.ID, err)
		}
	}
	if t.Roster == nil {
		t.Roster = []models.Player{}
	}
	if lastPhase.Valid {
		t.LastPhase = models.Phase(lastPhase.String)
	}
	if lastPhaseAt.Valid && lastPhaseAt.Int64 > 0 {
		t.LastPhaseAt = time.UnixMilli(lastPhaseAt.Int64).UTC()
	}
	return t, nil
}

func (s *sqlStore) ListTeams(ctx context.Context) ([]models.Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+teamColumns+` FROM teams ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	teams := []models.Team{}
	for rows.Next() {
		t, err := scanTeam(rows)
		if err != nil {
			return nil, err
		}
		teams = append(teams, t)
	}
	return teams, rows.Err()
}

func (s *sqlStore) GetTeam(ctx context.Context, id string) (*models.Team, error) {
	row := s.db.QueryRowContext(ctx, s.rebind(`SELECT `+teamColumns+` FROM teams WHERE id = ?`), id)
	t, err := scanTeam(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *sqlStore) UpsertTeam(ctx context.Context, team models.Team) error {
	roster, err := json.Marshal(team.Roster)
	if err != nil {
		return fmt.Errorf("encode roster: %w", err)
	}
	return s.exec(ctx, s.db, `
		INSERT INTO teams (id, name, owner, wins, losses, ties, points_for, roster)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			name = excluded.name,
			owner = excluded.owner,
			wins = excluded.wins,
			losses = excluded.losses,
			ties = excluded.ties,
			points_for = excluded.points_for,
			roster = excluded.roster
	`, team.ID, team.Name, team.Owner, team.Record.Wins, team.Record.Losses, team.Record.Ties,
		team.Record.PointsFor, string(roster))
}

func (s *sqlStore) ListPicks(ctx context.Context) ([]models.DraftPick, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT season, round, slot, original_owner, current_owner
		FROM picks
		ORDER BY season, round, original_owner
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	picks := []models.DraftPick{}
	for rows.Next() {
		var p models.DraftPick
		if err := rows.Scan(&p.Season, &p.Round, &p.Slot, &p.OriginalOwner, &p.CurrentOwner); err != nil {
			return nil, err
		}
		picks = append(picks, p)
	}
	return picks, rows.Err()
}

func (s *sqlStore) ReplacePicks(ctx context.Context, picks []models.DraftPick) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := s.exec(ctx, tx, `DELETE FROM picks`); err != nil {
		return err
	}
	for _, p := range picks {
		err := s.exec(ctx, tx, `
			INSERT INTO picks (season, round, original_owner, slot, current_owner)
			VALUES (?, ?, ?, ?, ?)
		`, p.Season, p.Round, p.OriginalOwner, p.Slot, p.CurrentOwner)
		if err != nil {
			return fmt.Errorf("insert pick %s: %w", p.Key(), err)
		}
	}
	return tx.Commit()
}

func (s *sqlStore) SavePhase(ctx context.Context, teamID string, phase models.Phase, at time.Time) error {
	res, err := s.db.ExecContext(ctx, s.rebind(`UPDATE teams SET last_phase = ?, last_phase_at = ? WHERE id = ?`),
		string(phase), at.UnixMilli(), teamID)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTeamNotFound
	}
	return nil
}

func (s *sqlStore) UpsertMarketValues(ctx context.Context, snap models.MarketSnapshot) error {
	stamp := fetchedAtOrNow(snap.FetchedAt).UnixMilli()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	for _, r := range canonicalRows(snap.Players) {
		err := s.exec(ctx, tx, `
			INSERT INTO market_values (canonical_key, player_id, name, position, team, age, value, trend, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT (canonical_key) DO UPDATE SET
				player_id = excluded.player_id,
				name = excluded.name,
				position = excluded.position,
				team = excluded.team,
				age = excluded.age,
				value = excluded.value,
				trend = excluded.trend,
				updated_at = excluded.updated_at
		`, r.key, r.PlayerID, r.Name, r.Position, r.Team, r.Age, r.Value, r.Trend, stamp)
		if err != nil {
			return fmt.Errorf("upsert market value %q: %w", r.Name, err)
		}
	}
	for _, p := range uniquePicks(snap.Picks) {
		err := s.exec(ctx, tx, `
			INSERT INTO pick_market_values (pick_name, value, updated_at)
			VALUES (?, ?, ?)
			ON CONFLICT (pick_name) DO UPDATE SET
				value = excluded.value,
				updated_at = excluded.updated_at
		`, p.PickName, p.Value, stamp)
		if err != nil {
			return fmt.Errorf("upsert pick value %q: %w", p.PickName, err)
		}
	}

	// anything not stamped by this snapshot is stale
	if err := s.exec(ctx, tx, `DELETE FROM market_values WHERE updated_at <> ?`, stamp); err != nil {
		return err
	}
	if err := s.exec(ctx, tx, `DELETE FROM pick_market_values WHERE updated_at <> ?`, stamp); err != nil {
		return err
	}
	err = s.exec(ctx, tx, `
		INSERT INTO market_meta (id, source, fetched_at) VALUES (1, ?, ?)
		ON CONFLICT (id) DO UPDATE SET source = excluded.source, fetched_at = excluded.fetched_at
	`, snap.Source, stamp)
	if err != nil {
		return err
	}
	return tx.Commit()
}

func (s *sqlStore) LoadMarketSnapshot(ctx context.Context) (models.MarketSnapshot, error) {
	var snap models.MarketSnapshot
	var err error

	// each read finishes before the next starts; SQLite runs on one connection
	if snap.Players, err = s.loadPlayerValues(ctx); err != nil {
		return snap, err
	}
	if snap.Picks, err = s.loadPickValues(ctx); err != nil {
		return snap, err
	}

	var fetchedAt int64
	err = s.db.QueryRowContext(ctx, `SELECT source, fetched_at FROM market_meta WHERE id = 1`).Scan(&snap.Source, &fetchedAt)
	switch {
	case errors.Is(err, sql.ErrNoRows):
	case err != nil:
		return snap, err
	default:
		snap.FetchedAt = time.UnixMilli(fetchedAt).UTC()
	}
	return snap, nil
}

func (s *sqlStore) loadPlayerValues(ctx context.Context) ([]models.MarketValue, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT player_id, name, position, team, age, value, trend
		FROM market_values
		ORDER BY canonical_key
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.MarketValue{}
	for rows.Next() {
		var mv models.MarketValue
		if err := rows.Scan(&mv.PlayerID, &mv.Name, &mv.Position, &mv.Team, &mv.Age, &mv.Value, &mv.Trend); err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func (s *sqlStore) loadPickValues(ctx context.Context) ([]models.PickMarketValue, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT pick_name, value FROM pick_market_values ORDER BY pick_name`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []models.PickMarketValue{}
	for rows.Next() {
		var p models.PickMarketValue
		if err := rows.Scan(&p.PickName, &p.Value); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *sqlStore) Close() error {
	return s.db.Close()
}
