// internal/storage/sqlite.go
//
// SQLite-backed Store implementation.
// Schema lives in sql/*.sql migrations; this file only issues queries.
//
// Notes:
//   - Alternate names and guess distributions are stored as JSON text columns.
//   - The UNIQUE constraint on daily_answers(date) is the arbiter for
//     concurrent answer creation: an insert that conflicts is ignored and the
//     winning row re-read.

package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/KiraEzy/LeagueProWordleBackend/internal/catalog"
	"github.com/KiraEzy/LeagueProWordleBackend/internal/feedback"
)

// SQLite implements Store on a *sql.DB opened with the sqlite3 driver.
type SQLite struct {
	db *sql.DB
}

// NewSQLite wraps an already-opened (and migrated) database handle.
func NewSQLite(db *sql.DB) *SQLite {
	return &SQLite{db: db}
}

const playerColumns = `id, name, main_name, all_names, nationality, residency,
	birthdate, tournament_role, team, appearance, current_role, is_retired,
	current_team, current_team_region`

func scanPlayer(row interface{ Scan(...any) error }) (catalog.Player, error) {
	var (
		p         catalog.Player
		allNames  string
		birthdate sql.NullString
		team      sql.NullString
		region    sql.NullString
	)
	err := row.Scan(&p.ID, &p.Name, &p.MainName, &allNames, &p.Nationality,
		&p.Residency, &birthdate, &p.TournamentRole, &p.Team, &p.Appearance,
		&p.CurrentRole, &p.RetiredFlag, &team, &region)
	if err != nil {
		return catalog.Player{}, err
	}
	if allNames != "" {
		if err := json.Unmarshal([]byte(allNames), &p.AllNames); err != nil {
			return catalog.Player{}, fmt.Errorf("decode all_names for %s: %w", p.Name, err)
		}
	}
	if birthdate.Valid && birthdate.String != "" {
		if t, err := time.Parse("2006-01-02", birthdate.String); err == nil {
			p.Birthdate = &t
		}
	}
	if team.Valid {
		p.CurrentTeam = &team.String
	}
	if region.Valid {
		p.CurrentTeamRegion = &region.String
	}
	return p, nil
}

func (s *SQLite) PlayerByID(ctx context.Context, id int64) (catalog.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players WHERE id=?`, id)
	p, err := scanPlayer(row)
	if err == sql.ErrNoRows {
		return catalog.Player{}, ErrNotFound
	}
	return p, err
}

// PlayerByName resolves by canonical name, display name, or any alternate
// name. The catalog is small, so the fallback scan over all rows is fine.
func (s *SQLite) PlayerByName(ctx context.Context, name string) (catalog.Player, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+playerColumns+` FROM players
		 WHERE lower(name)=lower(?) OR lower(main_name)=lower(?)`, name, name)
	p, err := scanPlayer(row)
	if err == nil {
		return p, nil
	}
	if err != sql.ErrNoRows {
		return catalog.Player{}, err
	}
	players, err := s.ListPlayers(ctx)
	if err != nil {
		return catalog.Player{}, err
	}
	for _, p := range players {
		if p.MatchesName(name) {
			return p, nil
		}
	}
	return catalog.Player{}, ErrNotFound
}

func (s *SQLite) ListPlayers(ctx context.Context) ([]catalog.Player, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+playerColumns+` FROM players ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []catalog.Player
	for rows.Next() {
		p, err := scanPlayer(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *SQLite) CountPlayers(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(1) FROM players`).Scan(&n)
	return n, err
}

// SeedPlayers inserts the embedded catalog in one transaction. Existing names
// are left untouched so re-seeding is harmless.
func (s *SQLite) SeedPlayers(ctx context.Context, players []catalog.Player) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, p := range players {
		allNames, err := json.Marshal(p.AllNames)
		if err != nil {
			return err
		}
		var birthdate any
		if p.Birthdate != nil {
			birthdate = p.Birthdate.Format("2006-01-02")
		}
		_, err = tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO players
				(name, main_name, all_names, nationality, residency, birthdate,
				 tournament_role, team, appearance, current_role, is_retired,
				 current_team, current_team_region)
			VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`,
			p.Name, p.MainName, string(allNames), p.Nationality, p.Residency,
			birthdate, p.TournamentRole, p.Team, p.Appearance, p.CurrentRole,
			p.RetiredFlag, p.CurrentTeam, p.CurrentTeamRegion)
		if err != nil {
			return fmt.Errorf("seed player %s: %w", p.Name, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) DailyAnswer(ctx context.Context, date string) (int64, error) {
	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT player_id FROM daily_answers WHERE date=?`, date).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, ErrNotFound
	}
	return id, err
}

// CreateDailyAnswer inserts the proposed answer for the date. On a date
// collision the earlier row wins and its player id is returned.
func (s *SQLite) CreateDailyAnswer(ctx context.Context, date string, playerID int64) (int64, error) {
	if _, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO daily_answers (date, player_id) VALUES (?,?)`,
		date, playerID); err != nil {
		return 0, err
	}
	return s.DailyAnswer(ctx, date)
}

func (s *SQLite) InsertAttempt(ctx context.Context, rec *AttemptRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO attempts (identity, date, guess_player_id, attempt_number, correct)
		VALUES (?,?,?,?,?)`,
		rec.Identity, rec.Date, rec.GuessPlayerID, rec.AttemptNumber, rec.Correct)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	rec.ID, err = res.LastInsertId()
	if err != nil {
		return err
	}
	for _, fb := range rec.Feedback {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO attempt_feedback (attempt_id, attribute, is_correct, is_close, hint)
			VALUES (?,?,?,?,?)`,
			rec.ID, fb.Attribute, fb.Correct, fb.Close, fb.Hint); err != nil {
			return fmt.Errorf("insert feedback %s: %w", fb.Attribute, err)
		}
	}
	return tx.Commit()
}

func (s *SQLite) ListAttempts(ctx context.Context, identity, date string) ([]AttemptRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, guess_player_id, attempt_number, correct
		FROM attempts WHERE identity=? AND date=?
		ORDER BY attempt_number ASC`, identity, date)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AttemptRecord
	for rows.Next() {
		rec := AttemptRecord{Identity: identity, Date: date}
		if err := rows.Scan(&rec.ID, &rec.GuessPlayerID, &rec.AttemptNumber, &rec.Correct); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range out {
		fbs, err := s.listFeedback(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
		out[i].Feedback = fbs
	}
	return out, nil
}

func (s *SQLite) listFeedback(ctx context.Context, attemptID int64) ([]feedback.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT attribute, is_correct, is_close, hint
		FROM attempt_feedback WHERE attempt_id=? ORDER BY id ASC`, attemptID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []feedback.Feedback
	for rows.Next() {
		var fb feedback.Feedback
		if err := rows.Scan(&fb.Attribute, &fb.Correct, &fb.Close, &fb.Hint); err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

func (s *SQLite) Stats(ctx context.Context, identity string) (StatsRecord, error) {
	rec := StatsRecord{Identity: identity}
	var dist string
	err := s.db.QueryRowContext(ctx, `
		SELECT games_played, games_won, current_streak, max_streak, guess_distribution
		FROM player_stats WHERE identity=?`, identity).
		Scan(&rec.GamesPlayed, &rec.GamesWon, &rec.CurrentStreak, &rec.MaxStreak, &dist)
	if err == sql.ErrNoRows {
		return rec, ErrNotFound
	}
	if err != nil {
		return rec, err
	}
	rec.GuessDistribution, err = decodeDistribution(dist)
	return rec, err
}

func (s *SQLite) UpsertStats(ctx context.Context, rec StatsRecord) error {
	dist, err := encodeDistribution(rec.GuessDistribution)
	if err != nil {
		return err
	}
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO player_stats
			(identity, games_played, games_won, current_streak, max_streak, guess_distribution)
		VALUES (?,?,?,?,?,?)
		ON CONFLICT(identity) DO UPDATE SET
			games_played=excluded.games_played,
			games_won=excluded.games_won,
			current_streak=excluded.current_streak,
			max_streak=excluded.max_streak,
			guess_distribution=excluded.guess_distribution`,
		rec.Identity, rec.GamesPlayed, rec.GamesWon, rec.CurrentStreak,
		rec.MaxStreak, dist)
	return err
}

// The distribution column stores {"1":0,...,"6":0}-style JSON, matching the
// shape the API returns.
func encodeDistribution(d map[int]int) (string, error) {
	m := make(map[string]int, len(d))
	for k, v := range d {
		m[strconv.Itoa(k)] = v
	}
	b, err := json.Marshal(m)
	return string(b), err
}

func decodeDistribution(s string) (map[int]int, error) {
	if s == "" {
		return map[int]int{}, nil
	}
	var m map[string]int
	if err := json.Unmarshal([]byte(s), &m); err != nil {
		return nil, err
	}
	out := make(map[int]int, len(m))
	for k, v := range m {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("bad distribution key %q", k)
		}
		out[n] = v
	}
	return out, nil
}
