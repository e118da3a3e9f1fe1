package learning

import (
	"fmt"

	"github.com/jcalloway/tipwire/internal/namekey"
)

const (
	// Prior mean goals per match and its strength (equivalent sample size).
	playerPriorMean = 2.2
	playerPriorK    = 8.0
)

// PlayerModel learns per-player goal rates online with Laplace smoothing:
// a cold player reads as the prior, a seasoned one as their history.
type PlayerModel struct {
	store *Store
}

func NewPlayerModel(store *Store) *PlayerModel {
	return &PlayerModel{store: store}
}

// GoalRate returns the smoothed expected total-goals rate for a player:
// (observed + k·mu0) / (max(1, matches) + k).
func (m *PlayerModel) GoalRate(label string) (float64, error) {
	ps, err := m.store.Player(namekey.Player(label))
	if err != nil {
		return playerPriorMean, err
	}
	n := ps.Matches
	if n < 1 {
		n = 1
	}
	return (ps.TotalGoals + playerPriorK*playerPriorMean) / (float64(n) + playerPriorK), nil
}

// Factor returns the pairing's combined rate relative to baseline;
// 1.0 means the pairing scores like the average match.
func (m *PlayerModel) Factor(home, away string) float64 {
	hr, err := m.GoalRate(home)
	if err != nil {
		return 1.0
	}
	ar, err := m.GoalRate(away)
	if err != nil {
		return 1.0
	}
	return (hr + ar) / 2.0 / playerPriorMean
}

// UpdateFromMatch folds a finished match's total into both players.
func (m *PlayerModel) UpdateFromMatch(home, away string, totalGoals int) error {
	for _, label := range []string{home, away} {
		name := namekey.Player(label)
		ps, err := m.store.Player(name)
		if err != nil {
			return err
		}
		ps.Matches++
		ps.TotalGoals += float64(totalGoals)
		if err := m.store.SetPlayer(name, ps); err != nil {
			return fmt.Errorf("update player %q: %w", name, err)
		}
	}
	return nil
}
