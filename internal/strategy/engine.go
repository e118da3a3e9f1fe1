package strategy

import (
	"context"
	"sync"
	"time"

	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/learning"
	"github.com/jcalloway/tipwire/internal/state"
	"github.com/jcalloway/tipwire/internal/telemetry"
)

// BaselineProvider supplies the pregame expected-total-goals figure
// for a fixture. Implemented by the odds API adapter.
type BaselineProvider interface {
	PregameTotalMu(ctx context.Context, home, away string) (float64, error)
}

// Engine bridges feed events to the tip strategy. It owns the live
// match store: score and odds mutations happen only on the feed
// goroutine that drives Publish, so Match fields need no extra locking.
type Engine struct {
	bus      *events.Bus
	matches  *state.Store
	learner  *learning.SelfLearner
	strategy *TipStrategy

	totalSecs  int
	confirmSec int

	baseline BaselineProvider
	fetched  sync.Map // matchID -> struct{}, baseline fetch launched
	mus      sync.Map // matchID -> float64
}

func NewEngine(bus *events.Bus, learner *learning.SelfLearner, strat *TipStrategy, totalSecs, confirmSec int) *Engine {
	return &Engine{
		bus:        bus,
		matches:    state.NewStore(),
		learner:    learner,
		strategy:   strat,
		totalSecs:  totalSecs,
		confirmSec: confirmSec,
	}
}

// SetBaselineProvider enables pregame baseline lookups. Optional.
func (e *Engine) SetBaselineProvider(p BaselineProvider) { e.baseline = p }

// Matches exposes the live store for the process summary.
func (e *Engine) Matches() *state.Store { return e.matches }

// Attach subscribes the engine to the feed events it consumes.
func (e *Engine) Attach() {
	e.bus.Subscribe(events.EventOddsTick, e.onOddsTick)
	e.bus.Subscribe(events.EventScoreChange, e.onScoreChange)
	e.bus.Subscribe(events.EventMatchFinish, e.onMatchFinish)
}

func (e *Engine) onOddsTick(ev events.Event) error {
	tick, ok := ev.Payload.(events.OddsTickEvent)
	if !ok {
		return nil
	}
	telemetry.Metrics.OddsTicks.Inc()

	m := e.matches.GetOrCreate(tick.MatchID, tick.League, tick.HomeTeam, tick.AwayTeam, e.totalSecs)
	if tick.StartUTC != 0 && m.StartUTC == 0 {
		m.StartUTC = tick.StartUTC
	}
	m.ApplyOdds(tick.Odds, tick.Elapsed)

	e.maybeFetchBaseline(m)
	if mu, ok := e.mus.Load(m.MatchID); ok && m.BaselineMu == 0 {
		m.BaselineMu = mu.(float64)
	}

	for _, intent := range e.strategy.Evaluate(m) {
		e.bus.Publish(events.Event{
			Type:      events.EventTipIntent,
			League:    intent.League,
			MatchID:   intent.MatchID,
			Timestamp: time.Now(),
			Payload:   intent,
		})
	}
	return nil
}

func (e *Engine) onScoreChange(ev events.Event) error {
	sc, ok := ev.Payload.(events.ScoreChangeEvent)
	if !ok {
		return nil
	}

	m := e.matches.GetOrCreate(sc.MatchID, sc.League, sc.HomeTeam, sc.AwayTeam, e.totalSecs)
	changed, drop := m.ApplyScore(sc.HomeGoals, sc.AwayGoals, sc.Elapsed, e.confirmSec)

	switch drop {
	case state.DropNew:
		telemetry.Warnf("score drop reported for %s (%s), holding %d-%d for confirmation",
			m.Title(), m.MatchID, sc.HomeGoals, sc.AwayGoals)
	case state.DropConfirmed:
		telemetry.Warnf("score drop confirmed for %s (%s), now %s, likely overturned goal",
			m.Title(), m.MatchID, m.Score())
	}

	if changed {
		telemetry.Metrics.ScoreChanges.Inc()
		telemetry.Infof("score %s: %s [%ds]", m.Title(), m.Score(), m.Elapsed)
	}
	return nil
}

func (e *Engine) onMatchFinish(ev events.Event) error {
	fin, ok := ev.Payload.(events.MatchFinishEvent)
	if !ok {
		return nil
	}

	if m, ok := e.matches.Get(fin.MatchID); ok {
		m.Finished = true
	}

	e.learner.OnMatchFinished(learning.FinishedMatch{
		HomeTeam:  fin.HomeTeam,
		AwayTeam:  fin.AwayTeam,
		HomeGoals: fin.HomeGoals,
		AwayGoals: fin.AwayGoals,
	}, fin.MatchID)

	e.matches.Remove(fin.MatchID)
	e.fetched.Delete(fin.MatchID)
	e.mus.Delete(fin.MatchID)

	telemetry.Infof("finished %s vs %s %d-%d (%s)",
		fin.HomeTeam, fin.AwayTeam, fin.HomeGoals, fin.AwayGoals, fin.MatchID)
	return nil
}

// maybeFetchBaseline launches one background lookup per match. The
// result lands in e.mus and is copied onto the match on a later tick,
// keeping all Match writes on the feed goroutine.
func (e *Engine) maybeFetchBaseline(m *state.Match) {
	if e.baseline == nil {
		return
	}
	if _, loaded := e.fetched.LoadOrStore(m.MatchID, struct{}{}); loaded {
		return
	}

	id, home, away := m.MatchID, m.HomeTeam, m.AwayTeam
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		mu, err := e.baseline.PregameTotalMu(ctx, home, away)
		if err != nil {
			telemetry.Debugf("baseline lookup %s: %v", id, err)
			return
		}
		if mu > 0 {
			e.mus.Store(id, mu)
		}
	}()
}
