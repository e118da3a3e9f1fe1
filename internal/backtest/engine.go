package backtest

import (
	"fmt"
	"math"
	"strings"

	"github.com/jcalloway/tipwire/internal/model"
	"github.com/jcalloway/tipwire/internal/odds"
)

// Record is one historical match with closing over/under prices for a line.
type Record struct {
	League    string
	HomeTeam  string
	AwayTeam  string
	HomeGoals int
	AwayGoals int

	Line      float64
	OverOdds  float64
	UnderOdds float64
}

// Result summarizes one backtest run at a fixed edge threshold.
type Result struct {
	MinEdgePct float64

	Bets   int
	Wins   int
	Staked float64
	PnL    float64

	FinalBankroll float64
	MaxDrawdown   float64 // units, peak-to-trough
	Brier         float64 // mean over all evaluated matches

	// Reliability bins over all evaluated matches: [0-10%, ..., 90-100%].
	Buckets []CalBucket
}

// CalBucket compares the mean predicted over-probability in one 10%
// band against how often the over actually landed.
type CalBucket struct {
	Lo, Hi     float64
	Count      int
	MeanPred   float64
	ActualFreq float64
}

type bucketAccum struct {
	sumPred float64
	count   int
	wins    int
}

func (r Result) ROIPct() float64 {
	if r.Staked == 0 {
		return 0
	}
	return r.PnL / r.Staked * 100.0
}

// Engine replays historical matches chronologically, learning the
// calibration online the same way the live engine does. The goal prior
// tracks a per-league EWMA of observed totals so early-season fixtures
// lean on the league's scoring level.
type Engine struct {
	Bankroll   float64
	KellyBase  float64
	MinOdds    float64
	MaxOdds    float64
	MaxStake   float64 // fraction of bankroll per bet
	PriorBlend float64 // weight of the league prior vs market mu
}

func NewEngine(bankroll float64) *Engine {
	return &Engine{
		Bankroll:   bankroll,
		KellyBase:  0.25,
		MinOdds:    1.40,
		MaxOdds:    3.50,
		MaxStake:   0.05,
		PriorBlend: 0.30,
	}
}

// Run replays the records at one edge threshold.
func (e *Engine) Run(records []Record, minEdgePct float64) Result {
	cal := model.NewCalibrator()
	leaguePrior := make(map[string]*model.EWMA)

	res := Result{MinEdgePct: minEdgePct, FinalBankroll: e.Bankroll}
	bankroll := e.Bankroll
	peak := bankroll

	var brierSum float64
	var brierN int
	buckets := make([]bucketAccum, 10)

	for _, rec := range records {
		p, ok := e.probOver(rec, leaguePrior)
		if !ok {
			continue
		}

		pc := cal.Adjust(p)

		finalTotal := rec.HomeGoals + rec.AwayGoals
		outcome := 0
		if float64(finalTotal) > rec.Line {
			outcome = 1
		}

		brierSum += (pc - float64(outcome)) * (pc - float64(outcome))
		brierN++
		addToBucket(buckets, pc, outcome)

		// Bet decision at the threshold.
		if rec.OverOdds >= e.MinOdds && rec.OverOdds <= e.MaxOdds {
			if edge := odds.EdgePct(pc, rec.OverOdds); edge >= minEdgePct {
				mult := model.AdaptiveKellyMultiplier(e.KellyBase, cal.BrierEWM)
				stake := bankroll * model.KellyFraction(pc, rec.OverOdds) * mult
				stake = math.Min(stake, bankroll*e.MaxStake)
				if stake > 0 {
					res.Bets++
					res.Staked += stake
					if outcome == 1 {
						res.Wins++
						pnl := stake * (rec.OverOdds - 1.0)
						res.PnL += pnl
						bankroll += pnl
					} else {
						res.PnL -= stake
						bankroll -= stake
					}

					if bankroll > peak {
						peak = bankroll
					}
					if dd := peak - bankroll; dd > res.MaxDrawdown {
						res.MaxDrawdown = dd
					}
				}
			}
		}

		// Learn from every match, bet or not, like the live calibrator
		// learns from every settlement.
		cal.Step(p, outcome)

		e.updatePrior(leaguePrior, rec.League, finalTotal)
	}

	res.FinalBankroll = bankroll
	if brierN > 0 {
		res.Brier = brierSum / float64(brierN)
	}
	for i, b := range buckets {
		if b.count == 0 {
			continue
		}
		res.Buckets = append(res.Buckets, CalBucket{
			Lo:         float64(i) / 10.0,
			Hi:         float64(i+1) / 10.0,
			Count:      b.count,
			MeanPred:   b.sumPred / float64(b.count),
			ActualFreq: float64(b.wins) / float64(b.count),
		})
	}
	return res
}

func addToBucket(buckets []bucketAccum, pred float64, outcome int) {
	idx := int(pred * 10)
	if idx >= 10 {
		idx = 9
	}
	if idx < 0 {
		idx = 0
	}
	buckets[idx].sumPred += pred
	buckets[idx].count++
	if outcome == 1 {
		buckets[idx].wins++
	}
}

// Sweep runs the backtest across several edge thresholds.
func (e *Engine) Sweep(records []Record, thresholds []float64) []Result {
	out := make([]Result, 0, len(thresholds))
	for _, t := range thresholds {
		out = append(out, e.Run(records, t))
	}
	return out
}

// probOver estimates the pregame over probability by blending the
// league's scoring prior with the de-vigged market-implied rate.
func (e *Engine) probOver(rec Record, prior map[string]*model.EWMA) (float64, bool) {
	if rec.OverOdds <= 1.0 || rec.Line <= 0 {
		return 0, false
	}

	pOver := odds.Implied(rec.OverOdds)
	if rec.UnderOdds > 1.0 {
		pOver, _ = odds.RemoveVig2(rec.OverOdds, rec.UnderOdds)
	}

	needed := model.NeededGoalsForOver(rec.Line, 0)
	marketMu := model.InvertTailForMu(needed, pOver)

	mu := marketMu
	if ewma, ok := prior[rec.League]; ok && ewma.Primed() {
		mu = e.PriorBlend*ewma.Value() + (1-e.PriorBlend)*marketMu
	}

	return model.PoissonSF(needed-1, mu), true
}

func (e *Engine) updatePrior(prior map[string]*model.EWMA, league string, total int) {
	ewma, ok := prior[league]
	if !ok {
		ewma = model.NewEWMA(0.05)
		prior[league] = ewma
	}
	ewma.Update(float64(total))
}

// Format renders a result row for the CLI.
func (r Result) Format() string {
	hit := 0.0
	if r.Bets > 0 {
		hit = float64(r.Wins) / float64(r.Bets) * 100.0
	}
	return fmt.Sprintf("edge>=%4.1f%%  bets=%4d  hit=%5.1f%%  roi=%+6.2f%%  pnl=%+8.2fu  maxdd=%6.2fu  brier=%.4f",
		r.MinEdgePct, r.Bets, hit, r.ROIPct(), r.PnL, r.MaxDrawdown, r.Brier)
}

// FormatBuckets renders the reliability report: predicted vs actual
// over frequency per probability band.
func (r Result) FormatBuckets() string {
	var b strings.Builder
	fmt.Fprintf(&b, "  %-10s %6s %9s %8s %8s\n", "Bucket", "Count", "MeanPred", "ActFreq", "Error")
	for _, bk := range r.Buckets {
		fmt.Fprintf(&b, "  %3.0f-%3.0f%%  %6d  %8.3f %8.3f %+8.3f\n",
			bk.Lo*100, bk.Hi*100, bk.Count, bk.MeanPred, bk.ActualFreq, bk.MeanPred-bk.ActualFreq)
	}
	return b.String()
}
