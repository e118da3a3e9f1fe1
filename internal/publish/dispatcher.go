package publish

import (
	"context"
	"time"

	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/telemetry"
	"github.com/jcalloway/tipwire/internal/tips"
)

// Notifier delivers tips and recaps to an external channel.
type Notifier interface {
	Name() string
	SendTip(ctx context.Context, tip events.TipIntent) error
	SendSettlement(ctx context.Context, st events.TipSettledEvent) error
	SendDailySummary(ctx context.Context, day tips.DaySummary) error
}

// Dispatcher subscribes to TipIntent events, applies the lane checks,
// persists approved tips, and fans them out to the notifiers.
//
// Notifier delivery is async: the HTTP calls run on a short-lived
// goroutine so they never block the feed's event loop.
type Dispatcher struct {
	bus       *events.Bus
	lane      *Lane
	store     *tips.Store
	notifiers []Notifier
	timeout   time.Duration
}

func NewDispatcher(bus *events.Bus, lane *Lane, store *tips.Store, timeout time.Duration, notifiers ...Notifier) *Dispatcher {
	return &Dispatcher{
		bus:       bus,
		lane:      lane,
		store:     store,
		notifiers: notifiers,
		timeout:   timeout,
	}
}

// Attach subscribes the dispatcher to the tip lifecycle events.
func (d *Dispatcher) Attach() {
	d.bus.Subscribe(events.EventTipIntent, d.onTipIntent)
	d.bus.Subscribe(events.EventTipSettled, d.onTipSettled)
	d.bus.Subscribe(events.EventMatchFinish, d.onMatchFinish)
}

func (d *Dispatcher) onTipIntent(ev events.Event) error {
	intent, ok := ev.Payload.(events.TipIntent)
	if !ok {
		return nil
	}

	now := time.Now()
	if !d.lane.Allow(intent.MatchID, intent.Market, intent.HomeGoals, intent.AwayGoals, now) {
		telemetry.Metrics.TipsSuppressed.Inc()
		return nil
	}

	id, err := d.store.Insert(tips.Tip{
		MatchID:   intent.MatchID,
		League:    intent.League,
		HomeTeam:  intent.HomeTeam,
		AwayTeam:  intent.AwayTeam,
		Market:    intent.Market,
		Line:      intent.Line,
		Odds:      intent.Odds,
		Stake:     intent.Stake,
		PModel:    intent.PModel,
		PCalib:    intent.PCalib,
		EdgePct:   intent.EdgePct,
		Elapsed:   intent.Elapsed,
		HomeGoals: intent.HomeGoals,
		AwayGoals: intent.AwayGoals,
		PlacedAt:  now,
	})
	if err != nil {
		return err
	}

	d.lane.RecordPublish(intent.MatchID, intent.Market, intent.HomeGoals, intent.AwayGoals)
	telemetry.Metrics.TipsEmitted.Inc()
	telemetry.Metrics.OpenTips.Inc()

	telemetry.Infof("tip #%d %s vs %s %s @%.2f  edge=%.1f%%  stake=%.2fu",
		id, intent.HomeTeam, intent.AwayTeam, intent.Market, intent.Odds, intent.EdgePct, intent.Stake)

	go d.fanOut(func(ctx context.Context, n Notifier) error {
		return n.SendTip(ctx, intent)
	})
	return nil
}

func (d *Dispatcher) onTipSettled(ev events.Event) error {
	st, ok := ev.Payload.(events.TipSettledEvent)
	if !ok {
		return nil
	}

	d.lane.RecordPnL(time.Now(), st.PnL)

	go d.fanOut(func(ctx context.Context, n Notifier) error {
		return n.SendSettlement(ctx, st)
	})
	return nil
}

func (d *Dispatcher) onMatchFinish(ev events.Event) error {
	fin, ok := ev.Payload.(events.MatchFinishEvent)
	if !ok {
		return nil
	}
	d.lane.ForgetMatch(fin.MatchID)
	return nil
}

// SendDailySummary pushes the day's recap to every notifier.
func (d *Dispatcher) SendDailySummary(day tips.DaySummary) {
	d.fanOut(func(ctx context.Context, n Notifier) error {
		return n.SendDailySummary(ctx, day)
	})
}

func (d *Dispatcher) fanOut(send func(context.Context, Notifier) error) {
	for _, n := range d.notifiers {
		start := time.Now()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		err := send(ctx, n)
		cancel()
		telemetry.Metrics.NotifyLatency.Record(time.Since(start))
		if err != nil {
			telemetry.Metrics.NotifyErrors.Inc()
			telemetry.Errorf("notify %s: %v", n.Name(), err)
		}
	}
}
