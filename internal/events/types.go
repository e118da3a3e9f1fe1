package events

// OddsTickEvent is published for every live odds snapshot from the feed.
// Odds is keyed by market ("over_2_5", "under_2_5", ...) with decimal prices.
type OddsTickEvent struct {
	MatchID  string             `json:"match_id"`
	League   string             `json:"league"`
	HomeTeam string             `json:"home_team"`
	AwayTeam string             `json:"away_team"`
	Elapsed  int                `json:"elapsed"` // seconds of play
	Odds     map[string]float64 `json:"odds"`

	// Scheduled kick-off (Unix UTC seconds). Zero when the feed omits it.
	StartUTC int64 `json:"start_utc,omitempty"`
}

// ScoreChangeEvent is published when the feed reports a new score.
type ScoreChangeEvent struct {
	MatchID   string `json:"match_id"`
	League    string `json:"league"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
	Elapsed   int    `json:"elapsed"`
}

// MatchFinishEvent is published once per match at full time.
type MatchFinishEvent struct {
	MatchID   string `json:"match_id"`
	League    string `json:"league"`
	HomeTeam  string `json:"home_team"`
	AwayTeam  string `json:"away_team"`
	HomeGoals int    `json:"home_goals"`
	AwayGoals int    `json:"away_goals"`
}

// TipIntent is published by the strategy when a market clears the edge
// filter. The publish lanes subscribe and handle dedupe, throttle, the
// daily stop-loss gate, persistence, and notifier fan-out.
type TipIntent struct {
	MatchID  string  `json:"match_id"`
	League   string  `json:"league"`
	HomeTeam string  `json:"home_team"`
	AwayTeam string  `json:"away_team"`
	Market   string  `json:"market"` // "over_2_5"
	Line     float64 `json:"line"`
	Odds     float64 `json:"odds"`     // decimal price taken
	PModel   float64 `json:"p_model"`  // raw model probability
	PCalib   float64 `json:"p_calib"`  // after Platt adjustment
	EdgePct  float64 `json:"edge_pct"` // (p_calib*odds - 1) * 100
	Stake    float64 `json:"stake"`    // units
	Elapsed  int     `json:"elapsed"`

	// Context for idempotency: tips are deduped per (match, market, score).
	HomeGoals int `json:"home_goals"`
	AwayGoals int `json:"away_goals"`
}

// TipSettledEvent is published by the tracker after a tip resolves.
type TipSettledEvent struct {
	TipID    int64   `json:"tip_id"`
	MatchID  string  `json:"match_id"`
	Market   string  `json:"market"`
	Won      bool    `json:"won"`
	Stake    float64 `json:"stake"`
	PnL      float64 `json:"pnl"` // units, negative on loss
	DailyPnL float64 `json:"daily_pnl"`
}
