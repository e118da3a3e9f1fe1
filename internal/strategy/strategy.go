package strategy

import (
	"math"
	"sort"
	"strings"

	"github.com/jcalloway/tipwire/internal/config"
	"github.com/jcalloway/tipwire/internal/events"
	"github.com/jcalloway/tipwire/internal/learning"
	"github.com/jcalloway/tipwire/internal/model"
	"github.com/jcalloway/tipwire/internal/odds"
	"github.com/jcalloway/tipwire/internal/state"
)

// TipStrategy scans a match's over markets for positive expected value
// and sizes qualifying bets with fractional Kelly.
type TipStrategy struct {
	limits  config.StrategyLimits
	learner *learning.SelfLearner
}

func NewTipStrategy(limits config.StrategyLimits, learner *learning.SelfLearner) *TipStrategy {
	return &TipStrategy{limits: limits, learner: learner}
}

// Evaluate checks every configured line against the match's current
// odds and returns the intents that clear the filters. Dedupe and
// throttling belong to the publish lanes, not here.
func (t *TipStrategy) Evaluate(m *state.Match) []events.TipIntent {
	if m.Finished || t.limits.LeagueDisabled(m.League) {
		return nil
	}
	if t.limits.MaxElapsedFrac > 0 && m.ElapsedFrac() > t.limits.MaxElapsedFrac {
		return nil
	}

	snap := model.MatchSnapshot{
		MatchID:    m.MatchID,
		HomeTeam:   m.HomeTeam,
		AwayTeam:   m.AwayTeam,
		Elapsed:    m.Elapsed,
		TotalSecs:  m.TotalSecs,
		GoalsNow:   m.TotalGoals(),
		Odds:       m.Odds,
		BaselineMu: m.BaselineMu,
	}

	minEdge := t.limits.MinEdgeFor(m.League)
	maxStake := t.limits.MaxStakeFor(m.League) * t.limits.BankrollUnits
	kellyMult := t.learner.DynamicKelly()

	var intents []events.TipIntent
	for _, line := range t.pricedLines(m.Odds) {
		if model.NeededGoalsForOver(line, snap.GoalsNow) <= 0 {
			continue // line already beaten, nothing to bet
		}

		key := model.OverKey(line)
		price, ok := m.Odds[key]
		if !ok || price < t.limits.MinOdds || price > t.limits.MaxOdds {
			continue
		}

		raw, calib := t.learner.ProbOver(snap, line)
		edge := odds.EdgePct(calib, price)
		if edge < minEdge {
			continue
		}

		stake := t.limits.BankrollUnits * model.KellyFraction(calib, price) * kellyMult
		stake = math.Min(stake, maxStake)
		if stake <= 0 {
			continue
		}

		intents = append(intents, events.TipIntent{
			MatchID:   m.MatchID,
			League:    m.League,
			HomeTeam:  m.HomeTeam,
			AwayTeam:  m.AwayTeam,
			Market:    key,
			Line:      line,
			Odds:      price,
			PModel:    raw,
			PCalib:    calib,
			EdgePct:   edge,
			Stake:     stake,
			Elapsed:   m.Elapsed,
			HomeGoals: m.HomeGoals,
			AwayGoals: m.AwayGoals,
		})
	}
	return intents
}

// pricedLines parses the match's over markets back into lines and keeps
// the configured ones, sorted. Feeds price extra lines (quarter lines,
// high totals) that the limits do not cover; those are skipped here.
func (t *TipStrategy) pricedLines(marketOdds map[string]float64) []float64 {
	configured := make(map[float64]bool, len(t.limits.Lines))
	for _, line := range t.limits.Lines {
		configured[line] = true
	}

	var lines []float64
	for key := range marketOdds {
		if !strings.HasPrefix(key, "over_") {
			continue
		}
		line, ok := model.LineFromKey(key)
		if !ok || !configured[line] {
			continue
		}
		lines = append(lines, line)
	}
	sort.Float64s(lines)
	return lines
}
