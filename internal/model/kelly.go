package model

// KellyFraction returns the full-Kelly bankroll fraction for a bet at
// decimal odds with win probability p, floored at 0 (never bet a
// negative edge).
func KellyFraction(p, odds float64) float64 {
	b := odds - 1.0
	if b <= 0 {
		return 0
	}
	f := (p*b - (1 - p)) / b
	if f < 0 {
		return 0
	}
	return f
}

const (
	kellyMultMin = 0.1
	kellyMultMax = 0.5

	brierPoor = 0.24
	brierGood = 0.18
)

// AdaptiveKellyMultiplier scales a base safety multiplier by calibration
// quality: poor Brier shrinks stakes, good Brier loosens them.
func AdaptiveKellyMultiplier(base, brierEWM float64) float64 {
	mult := base
	switch {
	case brierEWM > brierPoor:
		mult = base * 0.6
	case brierEWM < brierGood:
		mult = base * 1.25
	}
	return clamp(mult, kellyMultMin, kellyMultMax)
}
