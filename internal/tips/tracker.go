package tips

import (
	"time"

	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/learning"
	"github.com/jcalloway/tipwire/internal/telemetry"
)

// Tracker settles open tips at full time. An over wins when the final
// total strictly exceeds the line. Every settlement becomes a training
// example for the learner.
type Tracker struct {
	bus     *events.Bus
	store   *Store
	learner *learning.SelfLearner
}

func NewTracker(bus *events.Bus, store *Store, learner *learning.SelfLearner) *Tracker {
	return &Tracker{bus: bus, store: store, learner: learner}
}

// Attach subscribes the tracker to match-finish events.
func (t *Tracker) Attach() {
	t.bus.Subscribe(events.EventMatchFinish, t.onMatchFinish)
}

func (t *Tracker) onMatchFinish(ev events.Event) error {
	fin, ok := ev.Payload.(events.MatchFinishEvent)
	if !ok {
		return nil
	}

	open, err := t.store.OpenForMatch(fin.MatchID)
	if err != nil {
		telemetry.Metrics.SettleErrors.Inc()
		return err
	}
	if len(open) == 0 {
		return nil
	}

	finalTotal := fin.HomeGoals + fin.AwayGoals
	for _, tip := range open {
		won := float64(finalTotal) > tip.Line

		outcome := OutcomeLost
		pnl := -tip.Stake
		if won {
			outcome = OutcomeWon
			pnl = tip.Stake * (tip.Odds - 1.0)
		}

		if err := t.store.Settle(tip.ID, outcome, pnl); err != nil {
			telemetry.Metrics.SettleErrors.Inc()
			telemetry.Errorf("tracker: %v", err)
			continue
		}
		telemetry.Metrics.TipsSettled.Inc()
		telemetry.Metrics.OpenTips.Dec()

		t.learner.OnSettlement(learning.Settlement{
			Line:     tip.Line,
			Odds:     tip.Odds,
			PModel:   tip.PModel,
			Elapsed:  tip.Elapsed,
			GoalsNow: tip.HomeGoals + tip.AwayGoals,
			Won:      won,
		})

		daily, err := t.store.DailyPnL(time.Now().UTC())
		if err != nil {
			telemetry.Warnf("tracker: %v", err)
		}

		telemetry.Infof("settled tip #%d %s %s @%.2f -> %s (%+.2fu, day %+.2fu)",
			tip.ID, fin.MatchID, tip.Market, tip.Odds, outcome, pnl, daily)

		t.bus.Publish(events.Event{
			Type:      events.EventTipSettled,
			League:    tip.League,
			MatchID:   tip.MatchID,
			Timestamp: time.Now(),
			Payload: events.TipSettledEvent{
				TipID:    tip.ID,
				MatchID:  tip.MatchID,
				Market:   tip.Market,
				Won:      won,
				Stake:    tip.Stake,
				PnL:      pnl,
				DailyPnL: daily,
			},
		})
	}
	return nil
}
