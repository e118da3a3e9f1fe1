package publish

import (
	"fmt"
	"sync"
	"time"
)

// IdempotencyGuard prevents duplicate tips for the same
// (match, market, score) tuple. A new goal opens a fresh key, so the
// same line can fire again at the new score.
type IdempotencyGuard struct {
	mu   sync.RWMutex
	seen map[string]bool
}

func NewIdempotencyGuard() *IdempotencyGuard {
	return &IdempotencyGuard{seen: make(map[string]bool)}
}

// Key builds the dedup key from match, market, and current score.
func (g *IdempotencyGuard) Key(matchID, market string, homeGoals, awayGoals int) string {
	return fmt.Sprintf("%s:%s:%d-%d", matchID, market, homeGoals, awayGoals)
}

func (g *IdempotencyGuard) HasSeen(key string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.seen[key]
}

func (g *IdempotencyGuard) Record(key string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.seen[key] = true
}

// ForgetMatch drops all dedup keys for a finished match.
func (g *IdempotencyGuard) ForgetMatch(matchID string) {
	prefix := matchID + ":"
	g.mu.Lock()
	defer g.mu.Unlock()
	for k := range g.seen {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(g.seen, k)
		}
	}
}

// Throttle enforces a minimum interval between published tips.
type Throttle struct {
	mu       sync.Mutex
	interval time.Duration
	lastSend time.Time
}

func NewThrottle(intervalMs int64) *Throttle {
	return &Throttle{interval: time.Duration(intervalMs) * time.Millisecond}
}

func (t *Throttle) Allow() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return time.Since(t.lastSend) >= t.interval
}

func (t *Throttle) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.lastSend = time.Now()
}

// StopLossGuard halts tip publishing for the rest of the UTC day once
// settled losses reach the configured limit. Zero limit disables it.
type StopLossGuard struct {
	mu         sync.Mutex
	limitUnits float64
	dailyPnL   float64
	day        time.Time // midnight UTC of the tracked day
}

func NewStopLossGuard(limitUnits float64) *StopLossGuard {
	return &StopLossGuard{limitUnits: limitUnits}
}

// Allow reports whether publishing is still permitted today.
func (s *StopLossGuard) Allow(now time.Time) bool {
	if s.limitUnits <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	return s.dailyPnL > -s.limitUnits
}

// RecordPnL folds a settlement into the running daily total.
func (s *StopLossGuard) RecordPnL(now time.Time, pnl float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	s.dailyPnL += pnl
}

// SeedDailyPnL primes the running total from already-settled tips, so a
// restart cannot reopen publishing after the limit tripped.
func (s *StopLossGuard) SeedDailyPnL(now time.Time, pnl float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	s.dailyPnL = pnl
}

func (s *StopLossGuard) DailyPnL(now time.Time) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rollover(now)
	return s.dailyPnL
}

// rollover resets the total at the UTC day boundary. Must hold s.mu.
func (s *StopLossGuard) rollover(now time.Time) {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	if !midnight.Equal(s.day) {
		s.day = midnight
		s.dailyPnL = 0
	}
}

// Lane bundles the dedup, throttle, and stop-loss checks for the tip
// publishing path.
type Lane struct {
	idempotent *IdempotencyGuard
	throttle   *Throttle
	stopLoss   *StopLossGuard
}

func NewLane(throttleMs int64, stopLossUnits float64) *Lane {
	return &Lane{
		idempotent: NewIdempotencyGuard(),
		throttle:   NewThrottle(throttleMs),
		stopLoss:   NewStopLossGuard(stopLossUnits),
	}
}

// Allow returns true when a tip for this match+market+score may publish.
func (l *Lane) Allow(matchID, market string, homeGoals, awayGoals int, now time.Time) bool {
	key := l.idempotent.Key(matchID, market, homeGoals, awayGoals)
	if l.idempotent.HasSeen(key) {
		return false
	}
	if !l.stopLoss.Allow(now) {
		return false
	}
	return l.throttle.Allow()
}

// RecordPublish marks the tip as sent.
func (l *Lane) RecordPublish(matchID, market string, homeGoals, awayGoals int) {
	l.idempotent.Record(l.idempotent.Key(matchID, market, homeGoals, awayGoals))
	l.throttle.Touch()
}

func (l *Lane) RecordPnL(now time.Time, pnl float64) { l.stopLoss.RecordPnL(now, pnl) }

// SeedDailyPnL restores today's settled total after a restart.
func (l *Lane) SeedDailyPnL(now time.Time, pnl float64) { l.stopLoss.SeedDailyPnL(now, pnl) }

func (l *Lane) DailyPnL(now time.Time) float64 { return l.stopLoss.DailyPnL(now) }

func (l *Lane) ForgetMatch(matchID string) { l.idempotent.ForgetMatch(matchID) }
