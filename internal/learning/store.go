package learning

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
	maxStoreBytes  int64   = 1 << 30 // 1 GiB
	evictPct       float64 = 0.10    // evict oldest 10% of training rows
	vacuumInterval         = 10      // incremental vacuum every N evictions
)

// CalibrationState is the persisted Platt calibration row (id=1).
type CalibrationState struct {
	A        float64
	B        float64
	BrierEWM float64
	LR       float64
	Updated  time.Time
}

// TrainingRow captures the model/market context of one settled tip.
type TrainingRow struct {
	Ts       time.Time
	Line     float64
	Elapsed  int
	GoalsNow int
	Odds     float64
	PImplied float64
	PModel   float64
	Outcome  int // 1 if the over hit
}

// PlayerStats is the learned per-player row.
type PlayerStats struct {
	Matches    int
	TotalGoals float64
}

// H2HStats is the learned per-matchup row.
type H2HStats struct {
	Matches    int
	TotalGoals float64
	HomeWins   int
	AwayWins   int
	Draws      int
	AvgGoals   float64
}

// Store owns the learning SQLite database: calibration parameters,
// training examples, player goal rates, and head-to-head history.
// training_data is FIFO-capped; the learned tables stay small by nature.
type Store struct {
	db           *sql.DB
	mu           sync.Mutex
	cachedSize   int64
	trainingRows int64
	evictCounter int
}

func OpenStore(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create learning dir: %w", err)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	db.SetMaxOpenConns(1)

	for _, stmt := range []string{
		`PRAGMA auto_vacuum = INCREMENTAL`,
		`CREATE TABLE IF NOT EXISTS calibration (
			id      INTEGER PRIMARY KEY CHECK (id=1),
			a       REAL NOT NULL,
			b       REAL NOT NULL,
			brier   REAL NOT NULL,
			lr      REAL NOT NULL,
			updated INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS training_data (
			id        INTEGER PRIMARY KEY AUTOINCREMENT,
			ts        INTEGER NOT NULL,
			line      REAL    NOT NULL,
			elapsed   INTEGER NOT NULL,
			goals_now INTEGER NOT NULL,
			odds      REAL,
			p_implied REAL,
			p_model   REAL,
			outcome   INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_td_ts ON training_data(ts)`,
		`CREATE TABLE IF NOT EXISTS player_learning (
			name        TEXT PRIMARY KEY,
			matches     INTEGER NOT NULL,
			total_goals REAL    NOT NULL,
			updated     INTEGER NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS head_to_head (
			matchup     TEXT PRIMARY KEY,
			matches     INTEGER NOT NULL,
			total_goals REAL    NOT NULL,
			home_wins   INTEGER NOT NULL,
			away_wins   INTEGER NOT NULL,
			draws       INTEGER NOT NULL,
			avg_goals   REAL    NOT NULL,
			updated     INTEGER NOT NULL
		)`,
	} {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("init learning schema: %w", err)
		}
	}

	var size int64
	if err := db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size); err != nil {
		db.Close()
		return nil, fmt.Errorf("read db size: %w", err)
	}

	var rows int64
	if err := db.QueryRow(`SELECT COUNT(*) FROM training_data`).Scan(&rows); err != nil {
		db.Close()
		return nil, fmt.Errorf("read training count: %w", err)
	}

	telemetry.Infof("learning store: opened %s  db_bytes=%d  training_rows=%d", path, size, rows)

	return &Store{db: db, cachedSize: size, trainingRows: rows}, nil
}

// LoadCalibration returns the persisted calibration, or (zero, false)
// when the engine has never settled a tip.
func (s *Store) LoadCalibration() (CalibrationState, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var cs CalibrationState
	var updated int64
	err := s.db.QueryRow(`SELECT a, b, brier, lr, updated FROM calibration WHERE id=1`).
		Scan(&cs.A, &cs.B, &cs.BrierEWM, &cs.LR, &updated)
	if err == sql.ErrNoRows {
		return CalibrationState{}, false, nil
	}
	if err != nil {
		return CalibrationState{}, false, fmt.Errorf("load calibration: %w", err)
	}
	cs.Updated = time.Unix(updated, 0).UTC()
	return cs, true, nil
}

// SaveCalibration upserts the singleton calibration row.
func (s *Store) SaveCalibration(cs CalibrationState) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO calibration (id, a, b, brier, lr, updated) VALUES (1,?,?,?,?,?)`,
		round5(cs.A), round5(cs.B), round5(cs.BrierEWM), round5(cs.LR), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("save calibration: %w", err)
	}
	return nil
}

// InsertTraining appends a settled-tip training example and evicts the
// oldest slice when the file outgrows its budget.
func (s *Store) InsertTraining(row TrainingRow) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT INTO training_data (ts, line, elapsed, goals_now, odds, p_implied, p_model, outcome)
		 VALUES (?,?,?,?,?,?,?,?)`,
		row.Ts.Unix(), row.Line, row.Elapsed, row.GoalsNow,
		round5(row.Odds), round5(row.PImplied), round5(row.PModel), row.Outcome,
	)
	if err != nil {
		return fmt.Errorf("insert training row: %w", err)
	}

	s.trainingRows++
	if s.trainingRows%100 == 0 {
		s.refreshSize()
		if s.cachedSize > maxStoreBytes {
			s.evict()
		}
	}
	return nil
}

// Player returns the stats row for a player, zero-valued when unseen.
func (s *Store) Player(name string) (PlayerStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ps PlayerStats
	err := s.db.QueryRow(`SELECT matches, total_goals FROM player_learning WHERE name=?`, name).
		Scan(&ps.Matches, &ps.TotalGoals)
	if err == sql.ErrNoRows {
		return PlayerStats{}, nil
	}
	if err != nil {
		return PlayerStats{}, fmt.Errorf("player %q: %w", name, err)
	}
	return ps, nil
}

// SetPlayer upserts a player stats row.
func (s *Store) SetPlayer(name string, ps PlayerStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO player_learning (name, matches, total_goals, updated) VALUES (?,?,?,?)`,
		name, ps.Matches, round5(ps.TotalGoals), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set player %q: %w", name, err)
	}
	return nil
}

// H2H returns the matchup row, zero-valued when the pairing is unseen.
func (s *Store) H2H(matchup string) (H2HStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var hs H2HStats
	err := s.db.QueryRow(
		`SELECT matches, total_goals, home_wins, away_wins, draws, avg_goals
		 FROM head_to_head WHERE matchup=?`, matchup).
		Scan(&hs.Matches, &hs.TotalGoals, &hs.HomeWins, &hs.AwayWins, &hs.Draws, &hs.AvgGoals)
	if err == sql.ErrNoRows {
		return H2HStats{}, nil
	}
	if err != nil {
		return H2HStats{}, fmt.Errorf("h2h %q: %w", matchup, err)
	}
	return hs, nil
}

// SetH2H upserts a matchup row.
func (s *Store) SetH2H(matchup string, hs H2HStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO head_to_head
		 (matchup, matches, total_goals, home_wins, away_wins, draws, avg_goals, updated)
		 VALUES (?,?,?,?,?,?,?,?)`,
		matchup, hs.Matches, round5(hs.TotalGoals), hs.HomeWins, hs.AwayWins, hs.Draws,
		round5(hs.AvgGoals), time.Now().Unix(),
	)
	if err != nil {
		return fmt.Errorf("set h2h %q: %w", matchup, err)
	}
	return nil
}

// TopPlayers returns the n players with the most observed matches.
func (s *Store) TopPlayers(n int) ([]struct {
	Name  string
	Stats PlayerStats
}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rows, err := s.db.Query(
		`SELECT name, matches, total_goals FROM player_learning ORDER BY matches DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []struct {
		Name  string
		Stats PlayerStats
	}
	for rows.Next() {
		var e struct {
			Name  string
			Stats PlayerStats
		}
		if err := rows.Scan(&e.Name, &e.Stats.Matches, &e.Stats.TotalGoals); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// refreshSize re-reads the database file size from SQLite pragmas.
// Must be called with s.mu held.
func (s *Store) refreshSize() {
	var size int64
	if err := s.db.QueryRow(`SELECT COALESCE(page_count * page_size, 0) FROM pragma_page_count(), pragma_page_size()`).Scan(&size); err == nil {
		s.cachedSize = size
	}
}

// evict deletes the oldest 10% of training rows by count.
// Must be called with s.mu held.
func (s *Store) evict() {
	toDelete := int64(float64(s.trainingRows) * evictPct)
	if toDelete < 1 {
		toDelete = 1
	}

	res, err := s.db.Exec(
		`DELETE FROM training_data WHERE id IN (
			SELECT id FROM training_data ORDER BY id ASC LIMIT ?
		)`, toDelete,
	)
	if err != nil {
		telemetry.Warnf("learning store evict: %v", err)
		return
	}

	deleted, _ := res.RowsAffected()
	s.trainingRows -= deleted
	s.evictCounter++

	telemetry.Infof("learning store: evicted %d training rows (target %d)", deleted, toDelete)

	if s.evictCounter%vacuumInterval == 0 {
		s.db.Exec(`PRAGMA incremental_vacuum`)
	}

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
