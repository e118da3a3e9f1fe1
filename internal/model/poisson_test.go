package model

import (
	"math"
	"testing"
)

func TestPoissonPMFSumsToOne(t *testing.T) {
	for _, mu := range []float64{0.5, 2.0, 4.8, 10.0} {
		sum := 0.0
		for k := 0; k < 80; k++ {
			sum += PoissonPMF(k, mu)
		}
		if math.Abs(sum-1.0) > 1e-9 {
			t.Errorf("mu=%.1f: pmf sum = %.12f, want ~1", mu, sum)
		}
	}
}

func TestPoissonPMFZeroMean(t *testing.T) {
	if got := PoissonPMF(0, 0); got != 1.0 {
		t.Errorf("PMF(0, 0) = %v, want 1", got)
	}
	if got := PoissonPMF(3, 0); got != 0.0 {
		t.Errorf("PMF(3, 0) = %v, want 0", got)
	}
}

func TestPoissonSF(t *testing.T) {
	// P(X > 2) with mu=3 is 1 - e^-3(1 + 3 + 4.5) ≈ 0.5768.
	got := PoissonSF(2, 3.0)
	want := 1.0 - math.Exp(-3)*(1+3+4.5)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("SF(2, 3) = %.6f, want %.6f", got, want)
	}

	if got := PoissonSF(-1, 3.0); got != 1.0 {
		t.Errorf("SF(-1, 3) = %v, want 1", got)
	}
}

func TestInvertTailForMuRoundTrip(t *testing.T) {
	cases := []struct {
		needed int
		mu     float64
	}{
		{1, 0.8},
		{2, 1.5},
		{3, 4.0},
		{5, 6.2},
	}
	for _, tc := range cases {
		target := PoissonSF(tc.needed-1, tc.mu)
		got := InvertTailForMu(tc.needed, target)
		if math.Abs(got-tc.mu) > 1e-3 {
			t.Errorf("needed=%d mu=%.2f: inverted to %.5f", tc.needed, tc.mu, got)
		}
	}
}

func TestInvertTailForMuClampsTarget(t *testing.T) {
	// Degenerate targets must not panic or return NaN.
	for _, target := range []float64{-0.5, 0, 1, 2} {
		got := InvertTailForMu(3, target)
		if math.IsNaN(got) || got < invertMuLow || got > invertMuHigh {
			t.Errorf("target=%v: got %v", target, got)
		}
	}
}

func TestNeededGoalsForOver(t *testing.T) {
	cases := []struct {
		line     float64
		goalsNow int
		want     int
	}{
		{2.5, 0, 3},
		{2.5, 2, 1},
		{2.5, 3, 0},
		{2.5, 5, 0},
		{3.5, 1, 3},
		{4.5, 4, 1},
	}
	for _, tc := range cases {
		if got := NeededGoalsForOver(tc.line, tc.goalsNow); got != tc.want {
			t.Errorf("NeededGoalsForOver(%.1f, %d) = %d, want %d", tc.line, tc.goalsNow, got, tc.want)
		}
	}
}
