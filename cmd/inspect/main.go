// inspect dumps the learning and tips databases for a quick look at
// what the engine has learned and how recent tips performed.
//
// Usage:
//
//	go run cmd/inspect/main.go
//	go run cmd/inspect/main.go -n 25 -h2h "Barcelona (Kray),Arsenal (Boki)"
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/jcalloway/tipwire/internal/learning"
	"github.com/jcalloway/tipwire/internal/namekey"
	"github.com/jcalloway/tipwire/internal/tips"
)

func main() {
	learningDB := flag.String("learning-db", "data/esoccer_learning.db", "learning database path")
	tipsDB := flag.String("tips-db", "data/tips.db", "tips database path")
	n := flag.Int("n", 10, "number of recent tips / top players to display")
	h2h := flag.String("h2h", "", "show head-to-head for a pairing: \"Home Team,Away Team\"")
	flag.Parse()

	store, err := learning.OpenStore(*learningDB)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open learning db: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	printCalibration(store)
	fmt.Println()
	printTopPlayers(store, *n)

	if *h2h != "" {
		fmt.Println()
		printH2H(store, *h2h)
	}

	fmt.Println()
	printTips(*tipsDB, *n)
}

func printCalibration(store *learning.Store) {
	cs, ok, err := store.LoadCalibration()
	if err != nil {
		fmt.Fprintf(os.Stderr, "calibration: %v\n", err)
		return
	}
	if !ok {
		fmt.Println("Calibration: none yet (no settled tips)")
		return
	}
	fmt.Printf("Calibration: a=%.4f b=%.4f brier=%.4f lr=%.5f (updated %s)\n",
		cs.A, cs.B, cs.BrierEWM, cs.LR, cs.Updated.Format("2006-01-02 15:04 MST"))
}

func printTopPlayers(store *learning.Store, n int) {
	top, err := store.TopPlayers(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "top players: %v\n", err)
		return
	}
	if len(top) == 0 {
		fmt.Println("No players learned yet")
		return
	}

	fmt.Printf("Top %d players by matches seen:\n", len(top))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PLAYER\tMATCHES\tGOALS/MATCH")
	for _, p := range top {
		rate := 0.0
		if p.Stats.Matches > 0 {
			rate = p.Stats.TotalGoals / float64(p.Stats.Matches)
		}
		fmt.Fprintf(w, "%s\t%d\t%.2f\n", p.Name, p.Stats.Matches, rate)
	}
	w.Flush()
}

func printH2H(store *learning.Store, pairing string) {
	parts := strings.SplitN(pairing, ",", 2)
	if len(parts) != 2 {
		fmt.Fprintln(os.Stderr, `-h2h wants "Home Team,Away Team"`)
		return
	}

	key := namekey.Matchup(parts[0], parts[1])
	hs, err := store.H2H(key)
	if err != nil {
		fmt.Fprintf(os.Stderr, "h2h: %v\n", err)
		return
	}
	if hs.Matches == 0 {
		fmt.Printf("H2H %s: no history\n", key)
		return
	}

	model := learning.NewH2HModel(store)
	fmt.Printf("H2H %s: %d matches, avg %.2f goals, %d-%d-%d (H-D-A), %s\n",
		key, hs.Matches, hs.AvgGoals, hs.HomeWins, hs.Draws, hs.AwayWins,
		model.Tendency(parts[0], parts[1]))
}

func printTips(path string, n int) {
	store, err := tips.OpenStore(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open tips db: %v\n", err)
		return
	}
	defer store.Close()

	day, err := store.SummarizeDay(time.Now().UTC())
	if err == nil && day.Tips > 0 {
		fmt.Printf("Today: %d tips, %dW-%dL, staked %.2fu, P&L %+.2fu\n\n",
			day.Tips, day.Won, day.Lost, day.Staked, day.PnL)
	}

	recent, err := store.Recent(n)
	if err != nil {
		fmt.Fprintf(os.Stderr, "recent tips: %v\n", err)
		return
	}
	if len(recent) == 0 {
		fmt.Println("No tips yet")
		return
	}

	fmt.Printf("Last %d tips:\n", len(recent))
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tMATCH\tMARKET\tODDS\tEDGE\tSTAKE\tOUTCOME\tPNL\tPLACED")
	for _, t := range recent {
		fmt.Fprintf(w, "%d\t%s vs %s\t%s\t%.2f\t%+.1f%%\t%.2f\t%s\t%+.2f\t%s\n",
			t.ID, t.HomeTeam, t.AwayTeam, t.Market, t.Odds, t.EdgePct, t.Stake,
			t.Outcome, t.PnL, t.PlacedAt.Format("01-02 15:04"))
	}
	w.Flush()
}
