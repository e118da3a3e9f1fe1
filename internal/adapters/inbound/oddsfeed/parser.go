package oddsfeed

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/jcalloway/tipwire/internal/events"
)

// Envelope is the wire format the odds feed sends over the WebSocket.
type Envelope struct {
	Type      string          `json:"type"` // "odds" | "score" | "finish"
	League    string          `json:"league,omitempty"`
	MatchID   string          `json:"match_id,omitempty"`
	Timestamp time.Time       `json:"ts"`
	Payload   json.RawMessage `json:"payload"`
}

// MarshalEvent serializes a bus event into a JSON-encoded Envelope.
// Used by the mock feed server; the live feed speaks the same format.
func MarshalEvent(evt events.Event) ([]byte, error) {
	payload, err := json.Marshal(evt.Payload)
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}

	var wireType string
	switch evt.Type {
	case events.EventOddsTick:
		wireType = "odds"
	case events.EventScoreChange:
		wireType = "score"
	case events.EventMatchFinish:
		wireType = "finish"
	default:
		return nil, fmt.Errorf("unsupported event type: %s", evt.Type)
	}

	return json.Marshal(Envelope{
		Type:      wireType,
		League:    evt.League,
		MatchID:   evt.MatchID,
		Timestamp: evt.Timestamp,
		Payload:   payload,
	})
}

// UnmarshalEvent deserializes a JSON Envelope into a typed bus event.
func UnmarshalEvent(data []byte) (events.Event, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return events.Event{}, fmt.Errorf("unmarshal envelope: %w", err)
	}

	evt := events.Event{
		League:    env.League,
		MatchID:   env.MatchID,
		Timestamp: env.Timestamp,
	}

	switch env.Type {
	case "odds":
		var ot events.OddsTickEvent
		if err := json.Unmarshal(env.Payload, &ot); err != nil {
			return evt, fmt.Errorf("unmarshal odds: %w", err)
		}
		evt.Type = events.EventOddsTick
		evt.Payload = ot
		if evt.MatchID == "" {
			evt.MatchID = ot.MatchID
		}
	case "score":
		var sc events.ScoreChangeEvent
		if err := json.Unmarshal(env.Payload, &sc); err != nil {
			return evt, fmt.Errorf("unmarshal score: %w", err)
		}
		evt.Type = events.EventScoreChange
		evt.Payload = sc
		if evt.MatchID == "" {
			evt.MatchID = sc.MatchID
		}
	case "finish":
		var fin events.MatchFinishEvent
		if err := json.Unmarshal(env.Payload, &fin); err != nil {
			return evt, fmt.Errorf("unmarshal finish: %w", err)
		}
		evt.Type = events.EventMatchFinish
		evt.Payload = fin
		if evt.MatchID == "" {
			evt.MatchID = fin.MatchID
		}
	default:
		return evt, fmt.Errorf("unknown message type: %q", env.Type)
	}

	return evt, nil
}
