package model

import (
	"math"
	"sync"
)

const (
	// Gamma prior over total regulation goals: mean alpha/beta ≈ 4.8,
	// fitted on 8-minute battle matches. 6.5 overshot badly in testing.
	priorAlpha = 3.0
	priorMean  = 4.8

	oddsSmoothAlpha = 0.35

	// Factor clamps keep a cold player/H2H table from distorting the prior.
	playerFactorMin = 0.5
	playerFactorMax = 1.5
	h2hFactorMin    = 0.6
	h2hFactorMax    = 1.4
)

// MatchSnapshot is the minimal live-state view the goal model needs.
// Odds maps market keys ("over_2_5") to decimal prices.
type MatchSnapshot struct {
	MatchID   string
	HomeTeam  string
	AwayTeam  string
	Elapsed   int
	TotalSecs int
	GoalsNow  int
	Odds      map[string]float64

	// Pregame expected total goals from the odds API, 0 when unknown.
	// Anchors the Gamma prior to this fixture instead of the league-wide mean.
	BaselineMu float64
}

func (s MatchSnapshot) elapsedFrac() float64 {
	if s.TotalSecs <= 0 {
		return 0
	}
	return math.Min(1.0, float64(s.Elapsed)/float64(s.TotalSecs))
}

// FactorFunc scales the prior goal rate for a specific pairing,
// 1.0 meaning no adjustment.
type FactorFunc func(home, away string) float64

// GoalModel estimates remaining-goal intensity by combining a
// Gamma-Poisson Bayesian prior with the market-implied rate extracted
// from live over/under prices.
type GoalModel struct {
	beta float64

	mu      sync.Mutex
	smooths map[string]*EWMA // per (match, market) odds smoother

	PlayerFactor FactorFunc
	H2HFactor    FactorFunc
}

func NewGoalModel() *GoalModel {
	return &GoalModel{
		beta:    priorAlpha / priorMean,
		smooths: make(map[string]*EWMA),
	}
}

// PriorMuRemaining is the Bayesian posterior expectation of goals still
// to come: the Gamma prior updated by goals so far and time elapsed,
// scaled to the remaining fraction of the match.
func (g *GoalModel) PriorMuRemaining(snap MatchSnapshot) float64 {
	fracElapsed := snap.elapsedFrac()

	beta := g.beta
	if snap.BaselineMu > 0 {
		beta = priorAlpha / snap.BaselineMu
	}

	alphaPost := priorAlpha + float64(snap.GoalsNow)
	betaPost := beta + math.Max(1e-6, fracElapsed)
	lambdaTotal := alphaPost / betaPost

	remFrac := math.Max(0.0, 1.0-fracElapsed)
	mu := math.Max(1e-6, lambdaTotal*remFrac)

	if g.PlayerFactor != nil {
		mu *= clamp(g.PlayerFactor(snap.HomeTeam, snap.AwayTeam), playerFactorMin, playerFactorMax)
	}
	if g.H2HFactor != nil {
		mu *= clamp(g.H2HFactor(snap.HomeTeam, snap.AwayTeam), h2hFactorMin, h2hFactorMax)
	}
	return mu
}

// MarketImpliedMu inverts the smoothed over price at the given line into
// the Poisson mean the market is pricing. De-margins against the paired
// under price when one is quoted. Returns (0, false) when the market has
// no usable over price.
func (g *GoalModel) MarketImpliedMu(snap MatchSnapshot, line float64) (float64, bool) {
	overKey := OverKey(line)
	raw, ok := snap.Odds[overKey]
	if !ok || raw <= 1.0 {
		return 0, false
	}

	smoothed := g.smooth(snap.MatchID, overKey, raw)
	pOver := 1.0 / math.Max(1.001, smoothed)

	if under, ok := snap.Odds[UnderKey(line)]; ok && under > 1.0 {
		pUnder := 1.0 / under
		if overround := pOver + pUnder; overround > 1.02 {
			pOver /= overround
		}
	}

	needed := NeededGoalsForOver(line, snap.GoalsNow)
	if needed <= 0 {
		// Line already beaten; any mu explains the price.
		return 10.0, true
	}

	mu := InvertTailForMu(needed, pOver)
	return clamp(mu, 1e-4, 12.0), true
}

// MuRemaining blends the prior and market-implied estimates. The market
// carries more weight as the match progresses, and a touch more when the
// over price is shortening (goals in the air).
func (g *GoalModel) MuRemaining(snap MatchSnapshot, line float64) float64 {
	prior := g.PriorMuRemaining(snap)

	market, ok := g.MarketImpliedMu(snap, line)
	if !ok {
		return prior
	}

	timeWeight := 0.35 + 0.6*snap.elapsedFrac()

	momentum := 0.2
	overKey := OverKey(line)
	if raw, ok := snap.Odds[overKey]; ok && raw > 1.0 {
		if g.smooth(snap.MatchID, overKey, raw) > raw {
			momentum = 0.1 // smoothed above raw: price drifting out, trust market less
		}
	}

	w := clamp(timeWeight+momentum, 0.2, 0.95)
	return w*market + (1-w)*prior
}

// ProbOver returns the probability that total goals end above line.
func (g *GoalModel) ProbOver(snap MatchSnapshot, line float64) float64 {
	needed := NeededGoalsForOver(line, snap.GoalsNow)
	if needed <= 0 {
		return 1.0
	}
	mu := g.MuRemaining(snap, math.Max(1.5, line))
	return PoissonSF(needed-1, mu)
}

// ForgetMatch drops the odds smoothers for a finished match.
func (g *GoalModel) ForgetMatch(matchID string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	prefix := matchID + "|"
	for k := range g.smooths {
		if len(k) > len(prefix) && k[:len(prefix)] == prefix {
			delete(g.smooths, k)
		}
	}
}

func (g *GoalModel) smooth(matchID, market string, odds float64) float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	key := matchID + "|" + market
	e, ok := g.smooths[key]
	if !ok {
		e = NewEWMA(oddsSmoothAlpha)
		g.smooths[key] = e
	}
	return e.Update(odds)
}
