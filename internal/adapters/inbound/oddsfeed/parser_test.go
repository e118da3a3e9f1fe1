package oddsfeed

import (
	"testing"
	"time"

	"github.com/jcalloway/tipwire/internal/events"
)

func TestEnvelopeRoundTrip(t *testing.T) {
	in := events.Event{
		Type:      events.EventOddsTick,
		League:    "battle",
		MatchID:   "m1",
		Timestamp: time.Now().UTC().Truncate(time.Second),
		Payload: events.OddsTickEvent{
			MatchID: "m1", League: "battle",
			HomeTeam: "A (x)", AwayTeam: "B (y)",
			Elapsed: 120,
			Odds:    map[string]float64{"over_2_5": 1.85, "under_2_5": 1.95},
		},
	}

	data, err := MarshalEvent(in)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	out, err := UnmarshalEvent(data)
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if out.Type != events.EventOddsTick || out.MatchID != "m1" || out.League != "battle" {
		t.Errorf("envelope fields: %+v", out)
	}
	tick, ok := out.Payload.(events.OddsTickEvent)
	if !ok {
		t.Fatalf("payload type %T", out.Payload)
	}
	if tick.Elapsed != 120 || tick.Odds["over_2_5"] != 1.85 {
		t.Errorf("payload = %+v", tick)
	}
}

func TestUnmarshalScoreAndFinish(t *testing.T) {
	score, err := MarshalEvent(events.Event{
		Type: events.EventScoreChange, MatchID: "m2", Timestamp: time.Now(),
		Payload: events.ScoreChangeEvent{MatchID: "m2", HomeGoals: 2, AwayGoals: 1, Elapsed: 300},
	})
	if err != nil {
		t.Fatalf("marshal score: %v", err)
	}
	evt, err := UnmarshalEvent(score)
	if err != nil {
		t.Fatalf("unmarshal score: %v", err)
	}
	if sc := evt.Payload.(events.ScoreChangeEvent); sc.HomeGoals != 2 || sc.AwayGoals != 1 {
		t.Errorf("score payload = %+v", sc)
	}

	finish, err := MarshalEvent(events.Event{
		Type: events.EventMatchFinish, MatchID: "m2", Timestamp: time.Now(),
		Payload: events.MatchFinishEvent{MatchID: "m2", HomeGoals: 3, AwayGoals: 3},
	})
	if err != nil {
		t.Fatalf("marshal finish: %v", err)
	}
	evt, err = UnmarshalEvent(finish)
	if err != nil {
		t.Fatalf("unmarshal finish: %v", err)
	}
	if evt.Type != events.EventMatchFinish {
		t.Errorf("type = %s", evt.Type)
	}
}

func TestUnmarshalRejectsUnknownType(t *testing.T) {
	if _, err := UnmarshalEvent([]byte(`{"type":"heartbeat","payload":{}}`)); err == nil {
		t.Error("unknown message type accepted")
	}
	if _, err := UnmarshalEvent([]byte(`not json`)); err == nil {
		t.Error("garbage accepted")
	}
}

func TestMarshalRejectsInternalEvents(t *testing.T) {
	_, err := MarshalEvent(events.Event{Type: events.EventTipIntent, Payload: events.TipIntent{}})
	if err == nil {
		t.Error("tip intent should not cross the feed wire")
	}
}
