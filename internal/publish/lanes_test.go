package publish

import (
	"testing"
	"time"
)

func TestIdempotencyPerScore(t *testing.T) {
	l := NewLane(0, 0)
	now := time.Now()

	if !l.Allow("m1", "over_2_5", 0, 0, now) {
		t.Fatal("fresh tip blocked")
	}
	l.RecordPublish("m1", "over_2_5", 0, 0)

	if l.Allow("m1", "over_2_5", 0, 0, now) {
		t.Error("duplicate tip allowed at same score")
	}
	if !l.Allow("m1", "over_2_5", 1, 0, now) {
		t.Error("tip blocked after a goal changed the score")
	}
	if !l.Allow("m1", "over_3_5", 0, 0, now) {
		t.Error("different market blocked")
	}
	if !l.Allow("m2", "over_2_5", 0, 0, now) {
		t.Error("different match blocked")
	}
}

func TestForgetMatchClearsDedup(t *testing.T) {
	l := NewLane(0, 0)
	now := time.Now()

	l.RecordPublish("m1", "over_2_5", 0, 0)
	l.RecordPublish("m2", "over_2_5", 0, 0)
	l.ForgetMatch("m1")

	if !l.Allow("m1", "over_2_5", 0, 0, now) {
		t.Error("forgotten match still deduped")
	}
	if l.Allow("m2", "over_2_5", 0, 0, now) {
		t.Error("other match lost its dedup state")
	}
}

func TestThrottleBlocksBurst(t *testing.T) {
	l := NewLane(60_000, 0)
	now := time.Now()

	if !l.Allow("m1", "over_2_5", 0, 0, now) {
		t.Fatal("first tip blocked")
	}
	l.RecordPublish("m1", "over_2_5", 0, 0)

	if l.Allow("m2", "over_2_5", 0, 0, now) {
		t.Error("tip allowed inside throttle interval")
	}
}

func TestStopLossHaltsDay(t *testing.T) {
	g := NewStopLossGuard(5.0)
	now := time.Now().UTC()

	if !g.Allow(now) {
		t.Fatal("fresh day blocked")
	}
	g.RecordPnL(now, -3.0)
	if !g.Allow(now) {
		t.Error("blocked before the limit")
	}
	g.RecordPnL(now, -2.5)
	if g.Allow(now) {
		t.Error("allowed past the stop loss")
	}

	// Next day resets.
	tomorrow := now.Add(24 * time.Hour)
	if !g.Allow(tomorrow) {
		t.Error("stop loss carried into the next day")
	}
}

func TestStopLossSurvivesRestart(t *testing.T) {
	now := time.Now().UTC()

	// A prior run settled -12u today and tripped the 10u limit. A new
	// lane seeded from the store must stay shut for the rest of the day.
	l := NewLane(0, 10.0)
	l.SeedDailyPnL(now, -12.0)

	if l.Allow("m1", "over_2_5", 0, 0, now) {
		t.Error("restarted lane allows tips despite today's settled losses")
	}
	if got := l.DailyPnL(now); got != -12.0 {
		t.Errorf("daily pnl after seed = %v, want -12", got)
	}

	// The seed belongs to today only.
	tomorrow := now.Add(24 * time.Hour)
	if !l.Allow("m1", "over_2_5", 0, 0, tomorrow) {
		t.Error("seeded loss carried into the next day")
	}
}

func TestStopLossDisabledAtZero(t *testing.T) {
	g := NewStopLossGuard(0)
	now := time.Now().UTC()
	g.RecordPnL(now, -1000)
	if !g.Allow(now) {
		t.Error("zero limit should disable the guard")
	}
}
