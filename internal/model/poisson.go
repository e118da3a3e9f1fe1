package model

import "math"

// PoissonPMF returns P(X = k) for a Poisson distribution with mean mu,
// computed in log space to stay stable for large k.
func PoissonPMF(k int, mu float64) float64 {
	if mu <= 0 {
		if k == 0 {
			return 1.0
		}
		return 0.0
	}
	logP := float64(k)*math.Log(mu) - mu - logFactorial(k)
	return math.Exp(logP)
}

// PoissonCDF returns P(X <= k).
func PoissonCDF(k int, mu float64) float64 {
	if k < 0 {
		return 0.0
	}
	sum := 0.0
	for i := 0; i <= k; i++ {
		sum += PoissonPMF(i, mu)
	}
	return math.Min(1.0, sum)
}

// PoissonSF returns the survival function P(X > k).
func PoissonSF(k int, mu float64) float64 {
	return math.Max(0.0, 1.0-PoissonCDF(k, mu))
}

const (
	invertMuLow  = 1e-6
	invertMuHigh = 20.0
	invertIters  = 40
)

// InvertTailForMu finds the mu where P(X >= needed) ≈ targetProb using
// bisection. The tail probability is monotonically increasing in mu, so
// 40 halvings over [1e-6, 20] pin mu well below odds precision.
func InvertTailForMu(needed int, targetProb float64) float64 {
	targetProb = clamp(targetProb, 1e-6, 1-1e-6)
	lo, hi := invertMuLow, invertMuHigh
	for i := 0; i < invertIters; i++ {
		mid := 0.5 * (lo + hi)
		if PoissonSF(needed-1, mid) > targetProb {
			hi = mid
		} else {
			lo = mid
		}
	}
	return 0.5 * (lo + hi)
}

// NeededGoalsForOver returns how many more goals make an over-line bet a
// winner: floor(line)+1 total goals for .5 lines.
func NeededGoalsForOver(line float64, goalsNow int) int {
	threshold := int(math.Floor(line)) + 1
	if n := threshold - goalsNow; n > 0 {
		return n
	}
	return 0
}

func logFactorial(n int) float64 {
	if n <= 1 {
		return 0
	}
	sum := 0.0
	for i := 2; i <= n; i++ {
		sum += math.Log(float64(i))
	}
	return sum
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
