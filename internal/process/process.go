package process

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jcalloway/tipwire/internal/adapters/inbound/oddsfeed"
	"github.com/jcalloway/tipwire/internal/adapters/outbound/discord"
	"github.com/jcalloway/tipwire/internal/adapters/outbound/oddsapi"
	"github.com/jcalloway/tipwire/internal/adapters/outbound/telegram"
	"github.com/jcalloway/tipwire/internal/config"
	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/learning"
	"github.com/jcalloway/tipwire/internal/publish"
	"github.com/jcalloway/tipwire/internal/strategy"
	"github.com/jcalloway/tipwire/internal/telemetry"
	"github.com/jcalloway/tipwire/internal/tips"
)

// Run boots the live tip engine: feed client, strategy engine, publish
// lanes, notifiers, and the settlement tracker. Blocks until SIGINT or
// SIGTERM.
func Run() {
	cfg := config.Load()
	telemetry.Init(telemetry.ParseLogLevel(cfg.LogLevel))

	telemetry.Infof("Starting tip engine")

	limits, err := config.LoadStrategyLimits(cfg.StrategyLimitsPath)
	if err != nil {
		telemetry.Errorf("Failed to load strategy limits: %v", err)
		os.Exit(1)
	}

	bus := events.NewBus()

	// ── Stores ─────────────────────────────────────────────────
	learningStore, err := learning.OpenStore(cfg.LearningDBPath)
	if err != nil {
		telemetry.Errorf("Learning store: %v", err)
		os.Exit(1)
	}
	defer learningStore.Close()

	tipStore, err := tips.OpenStore(cfg.TipsDBPath)
	if err != nil {
		telemetry.Errorf("Tips store: %v", err)
		os.Exit(1)
	}
	defer tipStore.Close()

	// ── Learner & strategy engine ──────────────────────────────
	learner, err := learning.NewSelfLearner(learningStore, limits.KellyBase)
	if err != nil {
		telemetry.Errorf("Learner: %v", err)
		os.Exit(1)
	}

	stats := learner.Snapshot()
	telemetry.Infof("Calibration: a=%.3f b=%.3f brier=%.3f (%s)  kelly=%.2f",
		stats.A, stats.B, stats.BrierEWM, stats.Quality, stats.KellyMultiplier)

	strat := strategy.NewTipStrategy(limits, learner)
	engine := strategy.NewEngine(bus, learner, strat, cfg.MatchTotalSecs, cfg.ScoreDropConfirmSec)

	oddsClient := oddsapi.NewClient(cfg.OddsAPIBaseURL, cfg.OddsAPIKey, cfg.OddsAPISport)
	if oddsClient.Enabled() {
		engine.SetBaselineProvider(oddsClient)
	} else {
		telemetry.Infof("Odds API disabled (no key), running without pregame baselines")
	}

	engine.Attach()

	// ── Publish lanes & notifiers ──────────────────────────────
	var notifiers []publish.Notifier
	if dn := discord.NewNotifier(cfg.DiscordWebhookURL); dn.Enabled() {
		notifiers = append(notifiers, dn)
	}
	if tn := telegram.NewNotifier(cfg.TelegramBotToken, cfg.TelegramChatID); tn.Enabled() {
		notifiers = append(notifiers, tn)
	}
	if len(notifiers) == 0 {
		telemetry.Warnf("No notifiers configured, tips will only be logged and stored")
	}

	lane := publish.NewLane(limits.NotifyThrottleMs, limits.DailyStopLossUnits)
	if pnl, err := tipStore.DailyPnL(time.Now().UTC()); err != nil {
		telemetry.Warnf("Could not reload today's P&L, stop-loss starts fresh: %v", err)
	} else if pnl != 0 {
		lane.SeedDailyPnL(time.Now().UTC(), pnl)
		telemetry.Infof("Resumed today's settled P&L at %+.2f units", pnl)
	}
	dispatcher := publish.NewDispatcher(bus, lane, tipStore, cfg.NotifyTimeout, notifiers...)
	dispatcher.Attach()

	// ── Settlement tracker ─────────────────────────────────────
	tracker := tips.NewTracker(bus, tipStore, learner)
	tracker.Attach()

	// ── Feed client & daily recap ──────────────────────────────
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	feed := oddsfeed.NewClient(cfg.FeedAddr, bus)
	go feed.ConnectWithRetry(ctx)
	telemetry.Infof("Listening for live matches via %s", cfg.FeedAddr)

	go dailyRecapLoop(ctx, cfg.DailyRecapHourUTC, tipStore, dispatcher)

	// ── Shutdown ───────────────────────────────────────────────
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	telemetry.Infof("Shutting down...")
	cancel()

	telemetry.Infof("Shutdown complete  ticks=%d  scores=%d  tips=%d  settled=%d  notify_errors=%d",
		telemetry.Metrics.OddsTicks.Value(),
		telemetry.Metrics.ScoreChanges.Value(),
		telemetry.Metrics.TipsEmitted.Value(),
		telemetry.Metrics.TipsSettled.Value(),
		telemetry.Metrics.NotifyErrors.Value(),
	)
}

// dailyRecapLoop sends the previous day's summary at the configured UTC hour.
func dailyRecapLoop(ctx context.Context, hourUTC int, store *tips.Store, dispatcher *publish.Dispatcher) {
	for {
		now := time.Now().UTC()
		next := time.Date(now.Year(), now.Month(), now.Day(), hourUTC, 0, 0, 0, time.UTC)
		if !next.After(now) {
			next = next.Add(24 * time.Hour)
		}

		select {
		case <-ctx.Done():
			return
		case <-time.After(next.Sub(now)):
		}

		day, err := store.SummarizeDay(time.Now().UTC().Add(-24 * time.Hour))
		if err != nil {
			telemetry.Warnf("daily recap: %v", err)
			continue
		}
		if day.Tips == 0 {
			continue
		}
		dispatcher.SendDailySummary(day)
	}
}
