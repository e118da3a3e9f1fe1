package learning

import (
	"math"
	"testing"
)

func TestPlayerGoalRateColdStart(t *testing.T) {
	m := NewPlayerModel(openTestStore(t))

	rate, err := m.GoalRate("Barcelona (Kray)")
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	// Unseen player: (0 + 8·2.2) / (1 + 8) ≈ 1.956, pulled just under prior.
	want := (playerPriorK * playerPriorMean) / (1 + playerPriorK)
	if math.Abs(rate-want) > 1e-9 {
		t.Errorf("cold rate = %.4f, want %.4f", rate, want)
	}
}

func TestPlayerRateLearnsFromMatches(t *testing.T) {
	store := openTestStore(t)
	m := NewPlayerModel(store)

	// Kray plays in high-scoring matches.
	for i := 0; i < 20; i++ {
		if err := m.UpdateFromMatch("Barcelona (Kray)", "Arsenal (Boki)", 6); err != nil {
			t.Fatalf("update: %v", err)
		}
	}

	rate, err := m.GoalRate("Liverpool (Kray)") // different club, same handle
	if err != nil {
		t.Fatalf("rate: %v", err)
	}
	if rate <= playerPriorMean {
		t.Errorf("seasoned hot player rate = %.3f, want above prior %.1f", rate, playerPriorMean)
	}

	factor := m.Factor("Barcelona (Kray)", "Arsenal (Boki)")
	if factor <= 1.0 {
		t.Errorf("hot pairing factor = %.3f, want > 1", factor)
	}
}

func TestPlayerFactorNeutralWhenUnseen(t *testing.T) {
	m := NewPlayerModel(openTestStore(t))
	factor := m.Factor("A (x)", "B (y)")
	// Two cold players read as just under prior each, so the factor sits
	// a touch below 1.
	if factor < 0.85 || factor > 1.0 {
		t.Errorf("cold factor = %.3f, want near 1", factor)
	}
}

func TestH2HFactorNeedsHistory(t *testing.T) {
	store := openTestStore(t)
	m := NewH2HModel(store)

	if f := m.Factor("A (x)", "B (y)"); f != 1.0 {
		t.Errorf("no history factor = %v, want 1", f)
	}

	// Two meetings still below the minimum.
	m.UpdateFromMatch("A (x)", "B (y)", 4, 3)
	m.UpdateFromMatch("A (x)", "B (y)", 3, 2)
	if f := m.Factor("A (x)", "B (y)"); f != 1.0 {
		t.Errorf("below min meetings factor = %v, want 1", f)
	}

	m.UpdateFromMatch("B (y)", "A (x)", 2, 4) // reversed venue, same pairing
	if f := m.Factor("A (x)", "B (y)"); f <= 1.0 {
		t.Errorf("hot pairing factor = %v, want > 1", f)
	}
}

func TestH2HRecordsResults(t *testing.T) {
	store := openTestStore(t)
	m := NewH2HModel(store)

	m.UpdateFromMatch("A (x)", "B (y)", 2, 1)
	m.UpdateFromMatch("A (x)", "B (y)", 0, 3)
	m.UpdateFromMatch("A (x)", "B (y)", 1, 1)

	hs, err := store.H2H("x vs y")
	if err != nil {
		t.Fatalf("h2h: %v", err)
	}
	if hs.Matches != 3 || hs.HomeWins != 1 || hs.AwayWins != 1 || hs.Draws != 1 {
		t.Errorf("record = %+v", hs)
	}
	if hs.TotalGoals != 8 {
		t.Errorf("total goals = %v, want 8", hs.TotalGoals)
	}
}
