package state

import (
	"fmt"
	"time"
)

// Match holds the live view of one e-soccer fixture. All mutation goes
// through the Store, which serializes access per match.
type Match struct {
	MatchID  string
	League   string
	HomeTeam string // raw feed label, e.g. "Barcelona (Kray)"
	AwayTeam string

	StartUTC  int64
	TotalSecs int // regulation length in seconds (480 for 8-min battle)

	Elapsed   int // seconds played
	HomeGoals int
	AwayGoals int
	Finished  bool

	// Latest decimal odds per market key ("over_2_5", "under_2_5", ...).
	Odds map[string]float64

	// Pregame baseline mu from the odds API, 0 when never matched.
	BaselineMu float64

	LastGoalAt time.Time

	// Score-drop confirmation state. A reported score below the current
	// one is held here until it persists for the confirm window.
	pendingHome int
	pendingAway int
	pendingAt   time.Time
}

func NewMatch(matchID, league, home, away string, totalSecs int) *Match {
	return &Match{
		MatchID:   matchID,
		League:    league,
		HomeTeam:  home,
		AwayTeam:  away,
		TotalSecs: totalSecs,
		Odds:      make(map[string]float64),
	}
}

func (m *Match) TotalGoals() int { return m.HomeGoals + m.AwayGoals }

func (m *Match) ElapsedFrac() float64 {
	if m.TotalSecs <= 0 {
		return 0
	}
	f := float64(m.Elapsed) / float64(m.TotalSecs)
	if f > 1 {
		return 1
	}
	return f
}

func (m *Match) Score() string { return fmt.Sprintf("%d-%d", m.HomeGoals, m.AwayGoals) }

func (m *Match) Title() string { return fmt.Sprintf("%s vs %s", m.HomeTeam, m.AwayTeam) }

// DropResult describes how ApplyScore handled a score decrease.
type DropResult string

const (
	DropNone      DropResult = ""          // not a decrease
	DropNew       DropResult = "new_drop"  // decrease first seen, held back
	DropPending   DropResult = "pending"   // decrease still inside confirm window
	DropConfirmed DropResult = "confirmed" // decrease persisted, now applied
)

// ApplyScore updates the score, holding back decreases (overturned goals)
// until they persist for confirmSec. Returns whether the stored score
// changed and the drop state.
func (m *Match) ApplyScore(home, away, elapsed, confirmSec int) (changed bool, drop DropResult) {
	if elapsed > m.Elapsed {
		m.Elapsed = elapsed
	}

	if home < m.HomeGoals || away < m.AwayGoals {
		now := time.Now()
		if m.pendingAt.IsZero() || home != m.pendingHome || away != m.pendingAway {
			m.pendingHome, m.pendingAway = home, away
			m.pendingAt = now
			return false, DropNew
		}
		if now.Sub(m.pendingAt) < time.Duration(confirmSec)*time.Second {
			return false, DropPending
		}
		m.HomeGoals, m.AwayGoals = home, away
		m.pendingAt = time.Time{}
		return true, DropConfirmed
	}

	m.pendingAt = time.Time{}
	if home == m.HomeGoals && away == m.AwayGoals {
		return false, DropNone
	}
	m.HomeGoals, m.AwayGoals = home, away
	m.LastGoalAt = time.Now()
	return true, DropNone
}

// ApplyOdds merges an odds snapshot into the match. Zero and sub-1.0
// prices are ignored; feeds emit those for suspended markets.
func (m *Match) ApplyOdds(odds map[string]float64, elapsed int) {
	if elapsed > m.Elapsed {
		m.Elapsed = elapsed
	}
	for k, v := range odds {
		if v > 1.0 {
			m.Odds[k] = v
		}
	}
}
