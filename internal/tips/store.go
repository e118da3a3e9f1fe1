package tips

import (
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jcalloway/tipwire/internal/telemetry"

	_ "modernc.org/sqlite"
)

const (
	maxStoreBytes int64   = 1 << 30
	evictPct      float64 = 0.10
)

// Outcome values for the tips table.
const (
	OutcomeOpen = "open"
	OutcomeWon  = "won"
	OutcomeLost = "lost"
	OutcomeVoid = "void"
)

// Tip is one persisted tip row.
type Tip struct {
	ID       int64
	MatchID  string
	League   string
	HomeTeam string
	AwayTeam string
	Market   string
	Line     float64
	Odds     float64
	Stake    float64
	PModel   float64
	PCalib   float64
	EdgePct  float64
	Elapsed  int

	// Score when the tip was placed, for learner training context.
	HomeGoals int
	AwayGoals int

	PlacedAt time.Time
	Outcome  string
	PnL      float64
}

// Store persists every published tip and its settlement to SQLite.
type Store struct {
	db         *sql.DB
	mu         sync.Mutex
	cachedSize int64
	tipRows    int64
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create tips dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA auto_vacuum = INCREMENTAL`,
		`CREATE TABLE IF NOT EXISTS tips (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			match_id  TEXT    NOT NULL,
			league    TEXT    NOT NULL,
			home_team TEXT    NOT NULL,
			away_team TEXT    NOT NULL,
			market    TEXT    NOT NULL,
			line      REAL    NOT NULL,
			odds      REAL    NOT NULL,
			stake     REAL    NOT NULL,
			p_model   REAL    NOT NULL,
			p_calib   REAL    NOT NULL,
			edge_pct  REAL    NOT NULL,
			elapsed   INTEGER NOT NULL,
			home_goals INTEGER NOT NULL DEFAULT 0,
			away_goals INTEGER NOT NULL DEFAULT 0,
			placed_at INTEGER NOT NULL,
			outcome   TEXT    NOT NULL DEFAULT 'open',
			pnl       REAL    NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_tips_match ON tips(match_id, outcome)`,
		`CREATE INDEX IF NOT EXISTS idx_tips_placed ON tips(placed_at)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init tips schema: %w", err)
		}
	}

	var size int64
	if err := db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size); err != nil {
		db.Close()
		return nil, fmt.Errorf("read db size: %w", err)
	}

	var rows int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM tips`).Scan(&rows); err != nil {
		db.Close()
		return nil, fmt.Errorf("read tip count: %w", err)
	}

	telemetry.Infof("tips store: opened %s  db_bytes=%d  rows=%d", path, size, rows)

	return &Store{db: db, cachedSize: size, tipRows: rows}, nil
}

// Insert persists a new open tip and returns its ID.
func (s *Store) Insert(t Tip) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`INSERT INTO tips (match_id, league, home_team, away_team, market, line, odds, stake,
		 p_model, p_calib, edge_pct, elapsed, home_goals, away_goals, placed_at, outcome, pnl)
		 VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,?,0)`,
		t.MatchID, t.League, t.HomeTeam, t.AwayTeam, t.Market, t.Line,
		round5(t.Odds), round5(t.Stake), round5(t.PModel), round5(t.PCalib), round5(t.EdgePct),
		t.Elapsed, t.HomeGoals, t.AwayGoals, t.PlacedAt.Unix(), OutcomeOpen,
	)
	if err != nil {
		return 0, fmt.Errorf("insert tip: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("insert tip id: %w", err)
	}

	s.tipRows++
	if s.tipRows%100 == 0 {
		s.refreshSize()
		if s.cachedSize > maxStoreBytes {
			s.evict()
		}
	}
	return id, nil
}

// OpenForMatch returns all unsettled tips for a match.
func (s *Store) OpenForMatch(matchID string) ([]Tip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, match_id, league, home_team, away_team, market, line, odds, stake,
		 p_model, p_calib, edge_pct, elapsed, home_goals, away_goals, placed_at
		 FROM tips WHERE match_id=? AND outcome=?`, matchID, OutcomeOpen)
	if err != nil {
		return nil, fmt.Errorf("open tips for %s: %w", matchID, err)
	}
	defer rows.Close()

	var out []Tip
	for rows.Next() {
		var t Tip
		var placed int64
		if err := rows.Scan(&t.ID, &t.MatchID, &t.League, &t.HomeTeam, &t.AwayTeam,
			&t.Market, &t.Line, &t.Odds, &t.Stake,
			&t.PModel, &t.PCalib, &t.EdgePct, &t.Elapsed,
			&t.HomeGoals, &t.AwayGoals, &placed); err != nil {
			return nil, err
		}
		t.Outcome = OutcomeOpen
		t.PlacedAt = time.Unix(placed, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// Settle records a tip's outcome and profit.
func (s *Store) Settle(id int64, outcome string, pnl float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(`UPDATE tips SET outcome=?, pnl=? WHERE id=?`, outcome, round5(pnl), id)
	if err != nil {
		return fmt.Errorf("settle tip %d: %w", id, err)
	}
	return nil
}

// DailyPnL sums settled profit for tips placed since midnight UTC.
func (s *Store) DailyPnL(now time.Time) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
	var pnl float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(pnl), 0) FROM tips WHERE placed_at >= ? AND outcome IN (?, ?)`,
		midnight, OutcomeWon, OutcomeLost).Scan(&pnl)
	if err != nil {
		return 0, fmt.Errorf("daily pnl: %w", err)
	}
	return pnl, nil
}

// DaySummary aggregates settled tips placed since midnight UTC.
type DaySummary struct {
	Tips   int
	Won    int
	Lost   int
	Staked float64
	PnL    float64
}

func (s *Store) SummarizeDay(now time.Time) (DaySummary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).Unix()
	var ds DaySummary
	err := s.db.QueryRow(
		`SELECT COUNT(*),
		        COALESCE(SUM(CASE WHEN outcome=? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(CASE WHEN outcome=? THEN 1 ELSE 0 END), 0),
		        COALESCE(SUM(stake), 0),
		        COALESCE(SUM(pnl), 0)
		 FROM tips WHERE placed_at >= ? AND outcome != ?`,
		OutcomeWon, OutcomeLost, midnight, OutcomeOpen).
		Scan(&ds.Tips, &ds.Won, &ds.Lost, &ds.Staked, &ds.PnL)
	if err != nil {
		return DaySummary{}, fmt.Errorf("day summary: %w", err)
	}
	return ds, nil
}

// Recent returns the latest n tips, newest first.
func (s *Store) Recent(n int) ([]Tip, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT id, match_id, league, home_team, away_team, market, line, odds, stake,
		 p_model, p_calib, edge_pct, elapsed, placed_at, outcome, pnl
		 FROM tips ORDER BY id DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Tip
	for rows.Next() {
		var t Tip
		var placed int64
		if err := rows.Scan(&t.ID, &t.MatchID, &t.League, &t.HomeTeam, &t.AwayTeam,
			&t.Market, &t.Line, &t.Odds, &t.Stake,
			&t.PModel, &t.PCalib, &t.EdgePct, &t.Elapsed, &placed, &t.Outcome, &t.PnL); err != nil {
			return nil, err
		}
		t.PlacedAt = time.Unix(placed, 0).UTC()
		out = append(out, t)
	}
	return out, rows.Err()
}

// refreshSize re-reads the database file size. Must hold s.mu.
func (s *Store) refreshSize() {
	var size int64
	if err := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest settled 10% of tips. Open tips are never
// evicted. Must hold s.mu.
func (s *Store) evict() {
	toDelete := int64(float64(s.tipRows) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.Exec(
		`DELETE FROM tips WHERE id IN (
			SELECT id FROM tips WHERE outcome != ? ORDER BY id ASC LIMIT ?
		)`, OutcomeOpen, toDelete,
	)
	if err != nil {
		telemetry.Warnf("tips store evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.tipRows -= deleted
	telemetry.Infof("tips store: evicted %d settled tips", deleted)
	s.db.Exec(`PRAGMA incremental_vacuum`)
	s.refreshSize()
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func round5(v float64) float64 {
	return math.Round(v*100000) / 100000
}
