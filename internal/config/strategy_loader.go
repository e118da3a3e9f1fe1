package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type LeagueOverrides struct {
	MinEdgePct  *float64 `yaml:"min_edge_pct"`
	MaxStakePct *float64 `yaml:"max_stake_pct"`
	Disabled    bool     `yaml:"disabled"`
}

type StrategyLimits struct {
	BankrollUnits      float64   `yaml:"bankroll_units"`
	KellyBase          float64   `yaml:"kelly_base"`
	MinEdgePct         float64   `yaml:"min_edge_pct"`
	MinOdds            float64   `yaml:"min_odds"`
	MaxOdds            float64   `yaml:"max_odds"`
	MaxStakePct        float64   `yaml:"max_stake_pct"`
	MaxElapsedFrac     float64   `yaml:"max_elapsed_frac"`
	Lines              []float64 `yaml:"lines"`
	DailyStopLossUnits float64   `yaml:"daily_stop_loss_units"`
	NotifyThrottleMs   int64     `yaml:"notify_throttle_ms"`

	Leagues map[string]LeagueOverrides `yaml:"leagues"`
}

func LoadStrategyLimits(path string) (StrategyLimits, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return StrategyLimits{}, fmt.Errorf("read strategy limits: %w", err)
	}

	var limits StrategyLimits
	if err := yaml.Unmarshal(data, &limits); err != nil {
		return StrategyLimits{}, fmt.Errorf("parse strategy limits: %w", err)
	}

	if len(limits.Lines) == 0 {
		limits.Lines = []float64{2.5, 3.5, 4.5}
	}
	return limits, nil
}

// MinEdgeFor returns the effective minimum edge for a league, honoring overrides.
func (sl StrategyLimits) MinEdgeFor(league string) float64 {
	if lo, ok := sl.Leagues[league]; ok && lo.MinEdgePct != nil {
		return *lo.MinEdgePct
	}
	return sl.MinEdgePct
}

// MaxStakeFor returns the effective stake cap (fraction of bankroll) for a league.
func (sl StrategyLimits) MaxStakeFor(league string) float64 {
	if lo, ok := sl.Leagues[league]; ok && lo.MaxStakePct != nil {
		return *lo.MaxStakePct
	}
	return sl.MaxStakePct
}

func (sl StrategyLimits) LeagueDisabled(league string) bool {
	lo, ok := sl.Leagues[league]
	return ok && lo.Disabled
}
