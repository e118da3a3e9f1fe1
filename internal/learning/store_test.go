package learning

import (
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := OpenStore(filepath.Join(t.TempDir(), "learning.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestCalibrationRoundTrip(t *testing.T) {
	s := openTestStore(t)

	if _, ok, err := s.LoadCalibration(); err != nil || ok {
		t.Fatalf("fresh store: ok=%v err=%v, want no row", ok, err)
	}

	in := CalibrationState{A: 1.123, B: -0.045, BrierEWM: 0.19, LR: 0.042}
	if err := s.SaveCalibration(in); err != nil {
		t.Fatalf("save: %v", err)
	}

	out, ok, err := s.LoadCalibration()
	if err != nil || !ok {
		t.Fatalf("load: ok=%v err=%v", ok, err)
	}
	if out.A != 1.123 || out.B != -0.045 || out.BrierEWM != 0.19 || out.LR != 0.042 {
		t.Errorf("loaded %+v", out)
	}
	if out.Updated.IsZero() {
		t.Error("updated timestamp missing")
	}

	// Second save replaces the singleton row.
	in.A = 0.9
	if err := s.SaveCalibration(in); err != nil {
		t.Fatalf("resave: %v", err)
	}
	out, _, _ = s.LoadCalibration()
	if out.A != 0.9 {
		t.Errorf("resaved A = %v", out.A)
	}
}

func TestPlayerRoundTrip(t *testing.T) {
	s := openTestStore(t)

	ps, err := s.Player("kray")
	if err != nil || ps.Matches != 0 {
		t.Fatalf("unseen player: %+v err=%v", ps, err)
	}

	if err := s.SetPlayer("kray", PlayerStats{Matches: 5, TotalGoals: 14}); err != nil {
		t.Fatalf("set: %v", err)
	}
	ps, err = s.Player("kray")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if ps.Matches != 5 || ps.TotalGoals != 14 {
		t.Errorf("got %+v", ps)
	}
}

func TestH2HRoundTrip(t *testing.T) {
	s := openTestStore(t)

	in := H2HStats{Matches: 4, TotalGoals: 13, HomeWins: 2, AwayWins: 1, Draws: 1, AvgGoals: 3.25}
	if err := s.SetH2H("boki vs kray", in); err != nil {
		t.Fatalf("set: %v", err)
	}
	out, err := s.H2H("boki vs kray")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if out != in {
		t.Errorf("got %+v, want %+v", out, in)
	}
}

func TestInsertTrainingAndTopPlayers(t *testing.T) {
	s := openTestStore(t)

	err := s.InsertTraining(TrainingRow{
		Ts: time.Now(), Line: 2.5, Elapsed: 240, GoalsNow: 2,
		Odds: 1.85, PImplied: 0.54, PModel: 0.61, Outcome: 1,
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	for i, name := range []string{"kray", "boki", "dias"} {
		if err := s.SetPlayer(name, PlayerStats{Matches: i + 1, TotalGoals: float64(i)}); err != nil {
			t.Fatalf("set %s: %v", name, err)
		}
	}

	top, err := s.TopPlayers(2)
	if err != nil {
		t.Fatalf("top: %v", err)
	}
	if len(top) != 2 || top[0].Name != "dias" || top[1].Name != "boki" {
		t.Errorf("top players = %+v", top)
	}
}
