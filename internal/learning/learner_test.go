package learning

import (
	"math"
	"testing"

	"github.com/jcalloway/tipwire/internal/model"
)

func TestLearnerPersistsCalibrationAcrossRestart(t *testing.T) {
	store := openTestStore(t)

	l1, err := NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("new learner: %v", err)
	}

	for i := 0; i < 50; i++ {
		l1.OnSettlement(Settlement{Line: 2.5, Odds: 1.85, PModel: 0.8, Elapsed: 200, GoalsNow: 1, Won: i%2 == 0})
	}
	s1 := l1.Snapshot()
	if s1.A == 1.0 && s1.B == 0.0 {
		t.Fatal("settlements did not move calibration")
	}

	l2, err := NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("restart learner: %v", err)
	}
	// Parameters persist rounded to 5 decimals.
	s2 := l2.Snapshot()
	if math.Abs(s2.A-s1.A) > 1e-5 || math.Abs(s2.B-s1.B) > 1e-5 {
		t.Errorf("restart lost calibration: %+v vs %+v", s2, s1)
	}
	if s2.LR >= 0.05 {
		t.Errorf("restart reset learning rate: %v", s2.LR)
	}
}

func TestLearnerProbOverUsesCalibration(t *testing.T) {
	store := openTestStore(t)
	l, err := NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("new learner: %v", err)
	}

	snap := model.MatchSnapshot{
		MatchID: "m1", HomeTeam: "A (x)", AwayTeam: "B (y)",
		Elapsed: 120, TotalSecs: 480, GoalsNow: 1,
		Odds: map[string]float64{"over_2_5": 1.90, "under_2_5": 1.90},
	}

	raw, calib := l.ProbOver(snap, 2.5)
	if raw <= 0 || raw >= 1 || calib <= 0 || calib >= 1 {
		t.Errorf("probabilities out of range: raw=%v calib=%v", raw, calib)
	}
	// Fresh calibration is the identity.
	if math.Abs(raw-calib) > 1e-9 {
		t.Errorf("identity calibration changed p: raw=%v calib=%v", raw, calib)
	}
}

func TestLearnerMatchFinishFeedsRateLearners(t *testing.T) {
	store := openTestStore(t)
	l, err := NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("new learner: %v", err)
	}

	l.OnMatchFinished(FinishedMatch{
		HomeTeam: "Barcelona (Kray)", AwayTeam: "Arsenal (Boki)",
		HomeGoals: 4, AwayGoals: 2,
	}, "m1")

	ps, err := store.Player("kray")
	if err != nil || ps.Matches != 1 || ps.TotalGoals != 6 {
		t.Errorf("player row = %+v err=%v", ps, err)
	}
	hs, err := store.H2H("boki vs kray")
	if err != nil || hs.Matches != 1 {
		t.Errorf("h2h row = %+v err=%v", hs, err)
	}
}

func TestLearnerImportHistory(t *testing.T) {
	store := openTestStore(t)
	l, err := NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("new learner: %v", err)
	}

	n, err := l.ImportHistory([]FinishedMatch{
		{HomeTeam: "A (x)", AwayTeam: "B (y)", HomeGoals: 3, AwayGoals: 1},
		{HomeTeam: "", AwayTeam: "B (y)", HomeGoals: 1, AwayGoals: 1}, // skipped
		{HomeTeam: "A (x)", AwayTeam: "C (z)", HomeGoals: 2, AwayGoals: 2},
	})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if n != 2 {
		t.Errorf("imported = %d, want 2", n)
	}

	ps, _ := store.Player("x")
	if ps.Matches != 2 {
		t.Errorf("player x matches = %d, want 2", ps.Matches)
	}
}

func TestLearnerDynamicKellyReflectsBrier(t *testing.T) {
	store := openTestStore(t)
	l, err := NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("new learner: %v", err)
	}

	// Confidently wrong settlements push Brier over the poor threshold.
	for i := 0; i < 12; i++ {
		l.OnSettlement(Settlement{Line: 2.5, Odds: 1.85, PModel: 0.95, Won: false})
	}
	if got := l.DynamicKelly(); got != 0.15 {
		t.Errorf("poor-calibration kelly = %v, want 0.15", got)
	}
}
