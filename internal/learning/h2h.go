package learning

import (
	"fmt"

	"github.com/jcalloway/tipwire/internal/namekey"
)

const (
	h2hBaselineGoals = 2.2
	h2hSmoothAlpha   = 0.1
	h2hMinMatches    = 3
	h2hFullConfAt    = 10.0
)

// H2HModel tracks scoring history between specific pairings. Some
// pairings run hot or cold against each other in ways the per-player
// rates miss.
type H2HModel struct {
	store *Store
}

func NewH2HModel(store *Store) *H2HModel {
	return &H2HModel{store: store}
}

// Factor returns a goal-rate multiplier for the pairing. Below
// h2hMinMatches meetings it stays 1.0; beyond that it blends the
// matchup's smoothed average toward baseline by a confidence weight
// that saturates at ten meetings.
func (m *H2HModel) Factor(home, away string) float64 {
	hs, err := m.store.H2H(namekey.Matchup(home, away))
	if err != nil || hs.Matches < h2hMinMatches {
		return 1.0
	}
	confidence := float64(hs.Matches) / h2hFullConfAt
	if confidence > 1.0 {
		confidence = 1.0
	}
	return (1-confidence)*1.0 + confidence*(hs.AvgGoals/h2hBaselineGoals)
}

// UpdateFromMatch folds a finished match into the pairing's history.
func (m *H2HModel) UpdateFromMatch(home, away string, homeGoals, awayGoals int) error {
	key := namekey.Matchup(home, away)
	hs, err := m.store.H2H(key)
	if err != nil {
		return err
	}

	total := homeGoals + awayGoals

	if hs.Matches == 0 {
		hs.AvgGoals = float64(total)
	} else {
		hs.AvgGoals = (1-h2hSmoothAlpha)*hs.AvgGoals + h2hSmoothAlpha*float64(total)
	}

	hs.Matches++
	hs.TotalGoals += float64(total)
	switch {
	case homeGoals > awayGoals:
		hs.HomeWins++
	case awayGoals > homeGoals:
		hs.AwayWins++
	default:
		hs.Draws++
	}

	if err := m.store.SetH2H(key, hs); err != nil {
		return fmt.Errorf("update h2h %q: %w", key, err)
	}
	return nil
}

// Tendency renders a human-readable scoring tendency for reports.
func (m *H2HModel) Tendency(home, away string) string {
	hs, err := m.store.H2H(namekey.Matchup(home, away))
	if err != nil || hs.Matches < h2hMinMatches {
		return "no h2h history"
	}
	factor := m.Factor(home, away)
	switch {
	case factor > 1.2:
		return fmt.Sprintf("high-scoring (%.1f avg goals)", hs.AvgGoals)
	case factor < 0.8:
		return fmt.Sprintf("low-scoring (%.1f avg goals)", hs.AvgGoals)
	default:
		return fmt.Sprintf("typical scoring (%.1f avg goals)", hs.AvgGoals)
	}
}
