// feedmock simulates the live odds feed locally. It serves a WebSocket
// on the FEED_ADDR port and streams odds ticks, goals, and full-time
// messages for a rotating set of fake e-soccer matches, time-compressed
// so a full 8-minute match plays out in about 30 seconds.
//
// Usage:
//
//	go run cmd/feedmock/main.go
//	FEED_ADDR=127.0.0.1:8777 go run cmd/tipper/main.go
package main

import (
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/jcalloway/tipwire/internal/adapters/inbound/oddsfeed"
	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/model"
)

const (
	league     = "Esoccer Battle - 8 mins play"
	totalSecs  = 480
	tickEvery  = 500 * time.Millisecond // one tick = 8 simulated seconds
	secPerTick = 8
)

var players = []string{"Kray", "Boki", "Upcake", "Dias", "Panda", "Senior", "Mercury", "Lion"}
var clubs = []string{"Barcelona", "Real Madrid", "Liverpool", "Arsenal", "Bayern", "PSG", "Inter", "Milan"}

type hub struct {
	mu    sync.Mutex
	conns map[*websocket.Conn]struct{}
}

func (h *hub) add(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.conns[c] = struct{}{}
}

func (h *hub) remove(c *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.conns, c)
	c.Close()
}

func (h *hub) broadcast(evt events.Event) {
	data, err := oddsfeed.MarshalEvent(evt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "marshal: %v\n", err)
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.conns {
		c.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := c.WriteMessage(websocket.TextMessage, data); err != nil {
			delete(h.conns, c)
			c.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(_ *http.Request) bool { return true },
}

func main() {
	addr := os.Getenv("FEED_ADDR")
	if addr == "" {
		addr = "127.0.0.1:8777"
	}

	h := &hub{conns: make(map[*websocket.Conn]struct{})}

	http.HandleFunc("/ws", func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		fmt.Printf("client connected: %s\n", r.RemoteAddr)
		h.add(conn)
		go func() {
			defer h.remove(conn)
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					return
				}
			}
		}()
	})

	go runMatches(h)

	fmt.Printf("feedmock listening on ws://%s/ws\n", addr)
	if err := http.ListenAndServe(addr, nil); err != nil {
		fmt.Fprintf(os.Stderr, "listen: %v\n", err)
		os.Exit(1)
	}
}

func runMatches(h *hub) {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	matchNum := 0
	for {
		matchNum++
		simulateMatch(h, rng, matchNum)
		time.Sleep(2 * time.Second)
	}
}

// simulateMatch plays one fake match to full time, streaming odds and
// score messages. Goal arrival is Poisson with a mean near the real
// e-soccer scoring rate.
func simulateMatch(h *hub, rng *rand.Rand, num int) {
	hi, ai := rng.Intn(len(players)), rng.Intn(len(players))
	for ai == hi {
		ai = rng.Intn(len(players))
	}
	home := fmt.Sprintf("%s (%s)", clubs[rng.Intn(len(clubs))], players[hi])
	away := fmt.Sprintf("%s (%s)", clubs[rng.Intn(len(clubs))], players[ai])
	matchID := fmt.Sprintf("mock-%d-%d", time.Now().Unix(), num)

	fmt.Printf("match %s: %s vs %s\n", matchID, home, away)

	muTotal := 3.5 + rng.Float64()*2.5 // expected goals for this match
	goalPerSec := muTotal / float64(totalSecs)

	var homeGoals, awayGoals int
	for elapsed := 0; elapsed <= totalSecs; elapsed += secPerTick {
		// Goal?
		if rng.Float64() < goalPerSec*float64(secPerTick) {
			if rng.Float64() < 0.5 {
				homeGoals++
			} else {
				awayGoals++
			}
			h.broadcast(events.Event{
				Type: events.EventScoreChange, League: league, MatchID: matchID, Timestamp: time.Now(),
				Payload: events.ScoreChangeEvent{
					MatchID: matchID, League: league, HomeTeam: home, AwayTeam: away,
					HomeGoals: homeGoals, AwayGoals: awayGoals, Elapsed: elapsed,
				},
			})
		}

		h.broadcast(events.Event{
			Type: events.EventOddsTick, League: league, MatchID: matchID, Timestamp: time.Now(),
			Payload: events.OddsTickEvent{
				MatchID: matchID, League: league, HomeTeam: home, AwayTeam: away,
				Elapsed: elapsed,
				Odds:    mockOdds(rng, muTotal, elapsed, homeGoals+awayGoals),
			},
		})

		time.Sleep(tickEvery)
	}

	h.broadcast(events.Event{
		Type: events.EventMatchFinish, League: league, MatchID: matchID, Timestamp: time.Now(),
		Payload: events.MatchFinishEvent{
			MatchID: matchID, League: league, HomeTeam: home, AwayTeam: away,
			HomeGoals: homeGoals, AwayGoals: awayGoals,
		},
	})
	fmt.Printf("match %s finished %d-%d\n", matchID, homeGoals, awayGoals)
}

// mockOdds prices the over/under ladder from the true remaining rate
// plus bookmaker margin and noise.
func mockOdds(rng *rand.Rand, muTotal float64, elapsed, goalsNow int) map[string]float64 {
	remFrac := 1.0 - float64(elapsed)/float64(totalSecs)
	muRem := muTotal * remFrac

	out := make(map[string]float64)
	for _, line := range []float64{2.5, 3.5, 4.5} {
		needed := model.NeededGoalsForOver(line, goalsNow)
		if needed <= 0 {
			continue // market settled, book pulls it
		}
		pOver := model.PoissonSF(needed-1, muRem)
		pOver = math.Min(0.97, math.Max(0.03, pOver))

		// 6% book margin split across both sides, plus price noise.
		margin := 1.03
		noise := 1.0 + (rng.Float64()-0.5)*0.04
		out[model.OverKey(line)] = round2(1.0 / (pOver * margin) * noise)
		out[model.UnderKey(line)] = round2(1.0 / ((1.0 - pOver) * margin) / noise)
	}
	return out
}

func round2(v float64) float64 { return math.Round(v*100) / 100 }
