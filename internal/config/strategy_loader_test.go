package config

import (
	"os"
	"path/filepath"
	"testing"
)

const testLimitsYAML = `
bankroll_units: 100
kelly_base: 0.25
min_edge_pct: 4.0
min_odds: 1.40
max_odds: 3.50
max_stake_pct: 0.05
max_elapsed_frac: 0.90
daily_stop_loss_units: 8.0
notify_throttle_ms: 1500
leagues:
  "Esoccer GT Leagues - 12 mins play":
    min_edge_pct: 6.0
  "Esoccer Adriatic League - 10 mins play":
    disabled: true
`

func writeLimits(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "limits.yaml")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

func TestLoadStrategyLimits(t *testing.T) {
	limits, err := LoadStrategyLimits(writeLimits(t, testLimitsYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if limits.BankrollUnits != 100 || limits.KellyBase != 0.25 {
		t.Errorf("base fields: %+v", limits)
	}
	// Lines default when omitted.
	if len(limits.Lines) != 3 || limits.Lines[0] != 2.5 {
		t.Errorf("default lines = %v", limits.Lines)
	}
}

func TestLeagueOverrides(t *testing.T) {
	limits, err := LoadStrategyLimits(writeLimits(t, testLimitsYAML))
	if err != nil {
		t.Fatalf("load: %v", err)
	}

	if got := limits.MinEdgeFor("Esoccer GT Leagues - 12 mins play"); got != 6.0 {
		t.Errorf("override min edge = %v, want 6", got)
	}
	if got := limits.MinEdgeFor("unknown league"); got != 4.0 {
		t.Errorf("default min edge = %v, want 4", got)
	}
	if got := limits.MaxStakeFor("Esoccer GT Leagues - 12 mins play"); got != 0.05 {
		t.Errorf("stake without override = %v, want 0.05", got)
	}
	if !limits.LeagueDisabled("Esoccer Adriatic League - 10 mins play") {
		t.Error("disabled league not flagged")
	}
	if limits.LeagueDisabled("unknown league") {
		t.Error("unknown league flagged as disabled")
	}
}

func TestLoadStrategyLimitsErrors(t *testing.T) {
	if _, err := LoadStrategyLimits(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("missing file did not error")
	}
	if _, err := LoadStrategyLimits(writeLimits(t, "{ not yaml")); err == nil {
		t.Error("bad yaml did not error")
	}
}
