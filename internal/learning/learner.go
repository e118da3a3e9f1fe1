package learning

import (
	"fmt"
	"sync"
	"time"

	"github.com/jcalloway/tipwire/internal/model"
	"github.com/jcalloway/tipwire/internal/odds"
	"github.com/jcalloway/tipwire/internal/telemetry"
)

// Settlement carries everything the learner needs from one resolved tip.
type Settlement struct {
	Line     float64
	Odds     float64
	PModel   float64
	Elapsed  int
	GoalsNow int
	Won      bool
}

// FinishedMatch carries a full-time result for the rate learners.
type FinishedMatch struct {
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int
}

// Stats is a snapshot of learner state for the inspect CLI and recaps.
type Stats struct {
	A               float64
	B               float64
	BrierEWM        float64
	LR              float64
	KellyMultiplier float64
	Quality         string
}

// SelfLearner ties the calibrator, goal model, and rate learners
// together behind one mutex. All engine paths (probability queries on
// odds ticks, settlement updates) go through here.
type SelfLearner struct {
	mu sync.Mutex

	store      *Store
	calibrator *model.Calibrator
	goalModel  *model.GoalModel
	players    *PlayerModel
	h2h        *H2HModel

	kellyBase float64
}

func NewSelfLearner(store *Store, kellyBase float64) (*SelfLearner, error) {
	l := &SelfLearner{
		store:      store,
		calibrator: model.NewCalibrator(),
		goalModel:  model.NewGoalModel(),
		players:    NewPlayerModel(store),
		h2h:        NewH2HModel(store),
		kellyBase:  kellyBase,
	}

	l.goalModel.PlayerFactor = l.players.Factor
	l.goalModel.H2HFactor = l.h2h.Factor

	cs, ok, err := store.LoadCalibration()
	if err != nil {
		return nil, err
	}
	if ok {
		l.calibrator.A = cs.A
		l.calibrator.B = cs.B
		l.calibrator.BrierEWM = cs.BrierEWM
		if cs.LR > 0 {
			l.calibrator.LR = cs.LR
		}
		telemetry.Infof("learner: restored calibration a=%.4f b=%.4f brier=%.4f", cs.A, cs.B, cs.BrierEWM)
	}
	return l, nil
}

// GoalModel exposes the underlying model for engine cleanup hooks.
func (l *SelfLearner) GoalModel() *model.GoalModel { return l.goalModel }

// ProbOver returns the raw and calibrated probability that the match
// finishes above line.
func (l *SelfLearner) ProbOver(snap model.MatchSnapshot, line float64) (raw, calibrated float64) {
	l.mu.Lock()
	defer l.mu.Unlock()
	raw = l.goalModel.ProbOver(snap, line)
	return raw, l.calibrator.Adjust(raw)
}

// DynamicKelly returns the current adaptive Kelly multiplier.
func (l *SelfLearner) DynamicKelly() float64 {
	l.mu.Lock()
	defer l.mu.Unlock()
	return model.AdaptiveKellyMultiplier(l.kellyBase, l.calibrator.BrierEWM)
}

// OnSettlement records the training example, steps the calibrator, and
// persists the new parameters. Store failures are logged, not fatal:
// the in-memory calibration still advances.
func (l *SelfLearner) OnSettlement(st Settlement) {
	l.mu.Lock()
	defer l.mu.Unlock()

	outcome := 0
	if st.Won {
		outcome = 1
	}

	row := TrainingRow{
		Ts:       time.Now(),
		Line:     st.Line,
		Elapsed:  st.Elapsed,
		GoalsNow: st.GoalsNow,
		Odds:     st.Odds,
		PImplied: odds.Implied(st.Odds),
		PModel:   st.PModel,
		Outcome:  outcome,
	}
	if err := l.store.InsertTraining(row); err != nil {
		telemetry.Warnf("learner: %v", err)
	}

	l.calibrator.Step(st.PModel, outcome)

	if err := l.store.SaveCalibration(CalibrationState{
		A:        l.calibrator.A,
		B:        l.calibrator.B,
		BrierEWM: l.calibrator.BrierEWM,
		LR:       l.calibrator.LR,
	}); err != nil {
		telemetry.Warnf("learner: %v", err)
	}
}

// OnMatchFinished feeds full-time results into the rate learners and
// releases the match's odds smoothers.
func (l *SelfLearner) OnMatchFinished(fm FinishedMatch, matchID string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	total := fm.HomeGoals + fm.AwayGoals
	if err := l.players.UpdateFromMatch(fm.HomeTeam, fm.AwayTeam, total); err != nil {
		telemetry.Warnf("learner: %v", err)
	}
	if err := l.h2h.UpdateFromMatch(fm.HomeTeam, fm.AwayTeam, fm.HomeGoals, fm.AwayGoals); err != nil {
		telemetry.Warnf("learner: %v", err)
	}
	l.goalModel.ForgetMatch(matchID)
}

// ImportHistory pre-trains the rate learners from historical results.
// Returns how many rows imported cleanly.
func (l *SelfLearner) ImportHistory(matches []FinishedMatch) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	imported := 0
	for _, fm := range matches {
		if fm.HomeTeam == "" || fm.AwayTeam == "" {
			continue
		}
		total := fm.HomeGoals + fm.AwayGoals
		if err := l.players.UpdateFromMatch(fm.HomeTeam, fm.AwayTeam, total); err != nil {
			return imported, fmt.Errorf("import history: %w", err)
		}
		if err := l.h2h.UpdateFromMatch(fm.HomeTeam, fm.AwayTeam, fm.HomeGoals, fm.AwayGoals); err != nil {
			return imported, fmt.Errorf("import history: %w", err)
		}
		imported++
	}
	telemetry.Infof("learner: imported %d historical matches", imported)
	return imported, nil
}

// Snapshot returns current learning stats.
func (l *SelfLearner) Snapshot() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return Stats{
		A:               l.calibrator.A,
		B:               l.calibrator.B,
		BrierEWM:        l.calibrator.BrierEWM,
		LR:              l.calibrator.LR,
		KellyMultiplier: model.AdaptiveKellyMultiplier(l.kellyBase, l.calibrator.BrierEWM),
		Quality:         l.calibrator.Quality(),
	}
}
