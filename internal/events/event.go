package events

import "time"

// Event is the envelope that flows through the event bus.
// Every domain event (odds tick, score change, tip intent, settlement)
// is wrapped in one.
type Event struct {
	Type      EventType
	League    string
	MatchID   string
	Timestamp time.Time
	Payload   any
}

type EventType string

const (
	// Feed events
	EventOddsTick    EventType = "odds_tick"
	EventScoreChange EventType = "score_change"
	EventMatchFinish EventType = "match_finish"
	// Internal tip lifecycle
	EventTipIntent  EventType = "tip_intent"
	EventTipSettled EventType = "tip_settled"
)
