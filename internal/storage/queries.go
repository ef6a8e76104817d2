package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/pable/go-match-elo/internal/model"
)

const matchColumns = `match_id, competitor_a, competitor_b, name_a, name_b,
	tournament_level, surface, country_code, tournament_name, round,
	rating_a, rating_b, serve_rating_a, serve_rating_b, score,
	serve_a, serve_b`

// runTimeLayout is fixed width so started_at sorts chronologically as text.
const runTimeLayout = "2006-01-02T15:04:05.000000Z"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMatch(s rowScanner) (model.MatchRecord, error) {
	var m model.MatchRecord
	var ra, rb, sa, sb, xa, xb sql.NullFloat64
	err := s.Scan(&m.MatchID, &m.CompetitorA, &m.CompetitorB, &m.NameA, &m.NameB,
		&m.TournamentLevel, &m.Surface, &m.CountryCode, &m.TournamentName, &m.Round,
		&ra, &rb, &sa, &sb, &m.Score, &xa, &xb)
	if err != nil {
		return m, err
	}
	m.RatingA = nullable(ra)
	m.RatingB = nullable(rb)
	m.ServeRatingA = nullable(sa)
	m.ServeRatingB = nullable(sb)
	m.ServeA = nullable(xa)
	m.ServeB = nullable(xb)
	return m, nil
}

func nullable(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func nullArg(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func (db *DB) queryMatches(ctx context.Context, query string, args ...any) ([]model.MatchRecord, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.MatchRecord
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertMatches upserts match records in one transaction. Stored ratings are kept.
func (db *DB) InsertMatches(ctx context.Context, recs []model.MatchRecord) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, db.rebind(`
		INSERT INTO matches(`+matchColumns+`)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?)
		ON CONFLICT(match_id) DO UPDATE SET
			competitor_a = excluded.competitor_a,
			competitor_b = excluded.competitor_b,
			name_a = excluded.name_a,
			name_b = excluded.name_b,
			tournament_level = excluded.tournament_level,
			surface = excluded.surface,
			country_code = excluded.country_code,
			tournament_name = excluded.tournament_name,
			round = excluded.round,
			serve_rating_a = excluded.serve_rating_a,
			serve_rating_b = excluded.serve_rating_b,
			score = excluded.score,
			serve_a = excluded.serve_a,
			serve_b = excluded.serve_b`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	for _, m := range recs {
		_, err = stmt.ExecContext(ctx,
			m.MatchID, m.CompetitorA, m.CompetitorB, m.NameA, m.NameB,
			m.TournamentLevel, m.Surface, m.CountryCode, m.TournamentName, m.Round,
			nullArg(m.RatingA), nullArg(m.RatingB), nullArg(m.ServeRatingA), nullArg(m.ServeRatingB),
			m.Score, nullArg(m.ServeA), nullArg(m.ServeB),
		)
		if err != nil {
			return 0, fmt.Errorf("insert match %s: %w", m.MatchID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return len(recs), nil
}

// AllMatches returns the whole ledger ascending by match id.
func (db *DB) AllMatches(ctx context.Context) ([]model.MatchRecord, error) {
	return db.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches ORDER BY match_id`)
}

// MatchesFrom returns matches with match_id >= from, ascending.
func (db *DB) MatchesFrom(ctx context.Context, from string) ([]model.MatchRecord, error) {
	return db.queryMatches(ctx, `SELECT `+matchColumns+` FROM matches WHERE match_id >= ? ORDER BY match_id`, from)
}

// CompetitorMatches returns every match the competitor played, ascending by match id.
func (db *DB) CompetitorMatches(ctx context.Context, competitor string) ([]model.MatchRecord, error) {
	return db.queryMatches(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE competitor_a = ? OR competitor_b = ?
		ORDER BY match_id`, competitor, competitor)
}

// MatchesByPrefix returns up to limit matches whose id starts with prefix, most recent first.
func (db *DB) MatchesByPrefix(ctx context.Context, prefix string, limit int) ([]model.MatchRecord, error) {
	return db.queryMatches(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE match_id LIKE ?
		ORDER BY match_id DESC
		LIMIT ?`, prefix+"%", limit)
}

// GetMatch returns one match by id.
func (db *DB) GetMatch(ctx context.Context, matchID string) (*model.MatchRecord, error) {
	row := db.conn.QueryRowContext(ctx, db.rebind(`SELECT `+matchColumns+` FROM matches WHERE match_id = ?`), matchID)
	m, err := scanMatch(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("match %s: %w", matchID, ErrNotFound)
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateRatings writes rating_a/rating_b for each record in one transaction.
func (db *DB) UpdateRatings(ctx context.Context, recs []model.MatchRecord) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, db.rebind(`UPDATE matches SET rating_a = ?, rating_b = ? WHERE match_id = ?`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, m := range recs {
		res, err := stmt.ExecContext(ctx, nullArg(m.RatingA), nullArg(m.RatingB), m.MatchID)
		if err != nil {
			return 0, fmt.Errorf("update ratings for %s: %w", m.MatchID, err)
		}
		if c, _ := res.RowsAffected(); c > 0 {
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// UpdateServeAverages writes serve_rating_a/serve_rating_b for each record in one transaction.
func (db *DB) UpdateServeAverages(ctx context.Context, recs []model.MatchRecord) (int, error) {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, db.rebind(`UPDATE matches SET serve_rating_a = ?, serve_rating_b = ? WHERE match_id = ?`))
	if err != nil {
		return 0, err
	}
	defer stmt.Close()

	n := 0
	for _, m := range recs {
		res, err := stmt.ExecContext(ctx, nullArg(m.ServeRatingA), nullArg(m.ServeRatingB), m.MatchID)
		if err != nil {
			return 0, fmt.Errorf("update serve averages for %s: %w", m.MatchID, err)
		}
		if c, _ := res.RowsAffected(); c > 0 {
			n++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// ClearRatings nulls every stored rating and returns the number of rows touched.
func (db *DB) ClearRatings(ctx context.Context) (int64, error) {
	res, err := db.conn.ExecContext(ctx, `UPDATE matches SET rating_a = NULL, rating_b = NULL WHERE rating_a IS NOT NULL OR rating_b IS NOT NULL`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// UnratedCount returns the number of matches missing either rating.
func (db *DB) UnratedCount(ctx context.Context) (int, error) {
	var n int
	err := db.conn.QueryRowContext(ctx, `SELECT COUNT(1) FROM matches WHERE rating_a IS NULL OR rating_b IS NULL`).Scan(&n)
	return n, err
}

// RatingFrontier returns the earliest unrated and the latest rated match ids ("" when none).
// An incremental pass is only exact when earliestUnrated sorts after latestRated.
func (db *DB) RatingFrontier(ctx context.Context) (earliestUnrated, latestRated string, err error) {
	err = db.conn.QueryRowContext(ctx, `
		SELECT
			COALESCE((SELECT MIN(match_id) FROM matches WHERE rating_a IS NULL OR rating_b IS NULL), ''),
			COALESCE((SELECT MAX(match_id) FROM matches WHERE rating_a IS NOT NULL AND rating_b IS NOT NULL), '')`,
	).Scan(&earliestUnrated, &latestRated)
	return earliestUnrated, latestRated, err
}

// TopRatings returns each competitor's most recent rating, highest first.
func (db *DB) TopRatings(ctx context.Context, limit int) ([]model.CompetitorRating, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		WITH appearances AS (
			SELECT competitor_a AS competitor, name_a AS name, rating_a AS rating, match_id
			FROM matches WHERE rating_a IS NOT NULL
			UNION ALL
			SELECT competitor_b, name_b, rating_b, match_id
			FROM matches WHERE rating_b IS NOT NULL
		), ranked AS (
			SELECT competitor, name, rating, match_id,
				ROW_NUMBER() OVER (PARTITION BY competitor ORDER BY match_id DESC) AS rn,
				COUNT(*) OVER (PARTITION BY competitor) AS matches
			FROM appearances
		)
		SELECT competitor, name, rating, match_id, matches
		FROM ranked
		WHERE rn = 1
		ORDER BY rating DESC, competitor
		LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.CompetitorRating
	for rows.Next() {
		var c model.CompetitorRating
		if err := rows.Scan(&c.Competitor, &c.Name, &c.Rating, &c.LastMatch, &c.Matches); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// Overview returns aggregate ledger counts.
func (db *DB) Overview(ctx context.Context) (model.LedgerOverview, error) {
	var o model.LedgerOverview
	err := db.conn.QueryRowContext(ctx, `
		SELECT
			COUNT(1),
			COUNT(CASE WHEN rating_a IS NOT NULL AND rating_b IS NOT NULL THEN 1 END),
			COUNT(DISTINCT substr(match_id, 1, 13)),
			COALESCE(MIN(match_id), ''),
			COALESCE(MAX(match_id), '')
		FROM matches`,
	).Scan(&o.TotalMatches, &o.RatedMatches, &o.Tournaments, &o.EarliestMatch, &o.LatestMatch)
	if err != nil {
		return o, err
	}
	err = db.conn.QueryRowContext(ctx, `
		SELECT COUNT(1) FROM (
			SELECT competitor_a AS competitor FROM matches
			UNION
			SELECT competitor_b FROM matches
		) c`,
	).Scan(&o.Competitors)
	return o, err
}

// LevelCounts returns the number of matches per tournament level.
func (db *DB) LevelCounts(ctx context.Context) ([]model.LevelCount, error) {
	rows, err := db.conn.QueryContext(ctx, `
		SELECT tournament_level, COUNT(1) FROM matches
		GROUP BY tournament_level
		ORDER BY COUNT(1) DESC, tournament_level`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.LevelCount
	for rows.Next() {
		var l model.LevelCount
		if err := rows.Scan(&l.Level, &l.Matches); err != nil {
			return nil, err
		}
		out = append(out, l)
	}
	return out, rows.Err()
}

// RecordRun stores one rating pass.
func (db *DB) RecordRun(ctx context.Context, r model.RatingRun) error {
	_, err := db.conn.ExecContext(ctx, db.rebind(`
		INSERT INTO rating_runs(run_id, mode, started_at, finished_at, processed, skipped)
		VALUES (?, ?, ?, ?, ?, ?)`),
		r.RunID, r.Mode,
		r.StartedAt.UTC().Format(runTimeLayout), r.FinishedAt.UTC().Format(runTimeLayout),
		r.Processed, r.Skipped,
	)
	if err != nil {
		return fmt.Errorf("record run %s: %w", r.RunID, err)
	}
	return nil
}

// ListRuns returns up to limit rating runs, most recent first.
func (db *DB) ListRuns(ctx context.Context, limit int) ([]model.RatingRun, error) {
	rows, err := db.conn.QueryContext(ctx, db.rebind(`
		SELECT run_id, mode, started_at, finished_at, processed, skipped
		FROM rating_runs ORDER BY started_at DESC LIMIT ?`), limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.RatingRun
	for rows.Next() {
		var r model.RatingRun
		var started, finished string
		if err := rows.Scan(&r.RunID, &r.Mode, &started, &finished, &r.Processed, &r.Skipped); err != nil {
			return nil, err
		}
		if r.StartedAt, err = time.Parse(runTimeLayout, started); err != nil {
			return nil, fmt.Errorf("run %s started_at: %w", r.RunID, err)
		}
		if r.FinishedAt, err = time.Parse(runTimeLayout, finished); err != nil {
			return nil, fmt.Errorf("run %s finished_at: %w", r.RunID, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// QueryRaw runs an arbitrary query and returns column names and stringified rows.
func (db *DB) QueryRaw(query string) ([]string, [][]string, error) {
	rows, err := db.conn.Query(query)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, nil, err
	}

	var out [][]string
	for rows.Next() {
		vals := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range vals {
			ptrs[i] = &vals[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, nil, err
		}
		row := make([]string, len(cols))
		for i, v := range vals {
			switch x := v.(type) {
			case nil:
				row[i] = "NULL"
			case []byte:
				row[i] = string(x)
			case float64:
				row[i] = fmt.Sprintf("%.2f", x)
			default:
				row[i] = fmt.Sprint(x)
			}
		}
		out = append(out, row)
	}
	return cols, out, rows.Err()
}
