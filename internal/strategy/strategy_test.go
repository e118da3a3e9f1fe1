package strategy

import (
	"path/filepath"
	"testing"

	"github.com/jcalloway/tipwire/internal/config"
	"github.com/jcalloway/tipwire/internal/learning"
	"github.com/jcalloway/tipwire/internal/state"
)

func testLimits() config.StrategyLimits {
	return config.StrategyLimits{
		BankrollUnits:  100,
		KellyBase:      0.25,
		MinEdgePct:     2.0,
		MinOdds:        1.40,
		MaxOdds:        3.50,
		MaxStakePct:    0.05,
		MaxElapsedFrac: 0.90,
		Lines:          []float64{2.5, 3.5},
		Leagues: map[string]config.LeagueOverrides{
			"dead league": {Disabled: true},
		},
	}
}

func testLearner(t *testing.T) *learning.SelfLearner {
	t.Helper()
	store, err := learning.OpenStore(filepath.Join(t.TempDir(), "learning.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	l, err := learning.NewSelfLearner(store, 0.25)
	if err != nil {
		t.Fatalf("new learner: %v", err)
	}
	return l
}

// hotMatch builds a live match where the book badly underprices the
// over: two goals inside two minutes with a long over price.
func hotMatch() *state.Match {
	m := state.NewMatch("m1", "battle", "Barcelona (Kray)", "Arsenal (Boki)", 480)
	m.ApplyScore(1, 1, 110, 20)
	m.ApplyOdds(map[string]float64{
		"over_2_5": 2.20, "under_2_5": 1.65,
		"over_3_5": 3.40, "under_3_5": 1.30,
	}, 115)
	return m
}

func TestEvaluateEmitsPositiveEdgeTips(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	intents := strat.Evaluate(hotMatch())
	if len(intents) == 0 {
		t.Fatal("no intents from a hot match with long prices")
	}

	for _, in := range intents {
		if in.EdgePct < 2.0 {
			t.Errorf("%s: edge %.2f below threshold", in.Market, in.EdgePct)
		}
		if in.Stake <= 0 || in.Stake > 100*0.05 {
			t.Errorf("%s: stake %.3f outside (0, 5]", in.Market, in.Stake)
		}
		if in.PCalib <= 0 || in.PCalib >= 1 {
			t.Errorf("%s: p_calib %.3f", in.Market, in.PCalib)
		}
		if in.HomeGoals != 1 || in.AwayGoals != 1 {
			t.Errorf("%s: score context %d-%d", in.Market, in.HomeGoals, in.AwayGoals)
		}
	}
}

func TestEvaluateSkipsBeatenLines(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	m := hotMatch()
	m.ApplyScore(2, 1, 200, 20)
	for _, in := range strat.Evaluate(m) {
		if in.Line <= 3.0 {
			t.Errorf("tipped the beaten 2.5 line: %+v", in)
		}
	}
}

func TestEvaluateRespectsOddsBand(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	m := hotMatch()
	m.Odds = map[string]float64{"over_2_5": 5.00, "over_3_5": 1.10}
	if intents := strat.Evaluate(m); len(intents) != 0 {
		t.Errorf("intents outside odds band: %+v", intents)
	}
}

func TestEvaluateOnlyConfiguredLines(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	// Feed prices a quarter line and a high total neither of which is in
	// the configured lines; only over_2_5 may produce an intent.
	m := hotMatch()
	m.Odds = map[string]float64{
		"over_2_25": 2.05,
		"over_2_5":  2.20,
		"over_6_5":  9.00,
		"under_2_5": 1.65,
	}
	for _, in := range strat.Evaluate(m) {
		if in.Line != 2.5 {
			t.Errorf("tipped unconfigured line %.2f (%s)", in.Line, in.Market)
		}
	}
}

func TestEvaluateDisabledLeague(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	m := hotMatch()
	m.League = "dead league"
	if intents := strat.Evaluate(m); len(intents) != 0 {
		t.Errorf("intents from disabled league: %+v", intents)
	}
}

func TestEvaluateLateMatchCutoff(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	m := hotMatch()
	m.Elapsed = 460 // 96% elapsed, past the 90% cutoff
	if intents := strat.Evaluate(m); len(intents) != 0 {
		t.Errorf("intents past the late cutoff: %+v", intents)
	}
}

func TestEvaluateFinishedMatch(t *testing.T) {
	strat := NewTipStrategy(testLimits(), testLearner(t))

	m := hotMatch()
	m.Finished = true
	if intents := strat.Evaluate(m); len(intents) != 0 {
		t.Errorf("intents from finished match: %+v", intents)
	}
}
