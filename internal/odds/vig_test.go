package odds

import (
	"math"
	"testing"
)

func TestImplied(t *testing.T) {
	if got := Implied(2.0); got != 0.5 {
		t.Errorf("Implied(2.0) = %v, want 0.5", got)
	}
	if got := Implied(1.0); got != 0 {
		t.Errorf("Implied(1.0) = %v, want 0", got)
	}
	if got := Implied(0); got != 0 {
		t.Errorf("Implied(0) = %v, want 0", got)
	}
}

func TestRemoveVig2(t *testing.T) {
	a, b := RemoveVig2(1.90, 1.90)
	if math.Abs(a-0.5) > 1e-9 || math.Abs(b-0.5) > 1e-9 {
		t.Errorf("RemoveVig2(1.90, 1.90) = %v, %v, want 0.5 each", a, b)
	}
	if math.Abs(a+b-1.0) > 1e-9 {
		t.Errorf("fair probabilities sum to %v", a+b)
	}

	a, b = RemoveVig2(1.50, 3.00)
	if math.Abs(a+b-1.0) > 1e-9 {
		t.Errorf("asymmetric market sums to %v", a+b)
	}
	if a <= b {
		t.Errorf("shorter price should carry more probability: %v vs %v", a, b)
	}
}

func TestRemoveVig3(t *testing.T) {
	h, d, a := RemoveVig3(2.50, 3.30, 3.00)
	if math.Abs(h+d+a-1.0) > 1e-9 {
		t.Errorf("three-way fair probabilities sum to %v", h+d+a)
	}
}

func TestOverround2(t *testing.T) {
	if got := Overround2(1.90, 1.90); math.Abs(got-1.0526315789) > 1e-6 {
		t.Errorf("Overround2(1.90, 1.90) = %v", got)
	}
}

func TestEdgePct(t *testing.T) {
	cases := []struct {
		p     float64
		price float64
		want  float64
	}{
		{0.55, 2.00, 10.0},
		{0.50, 2.00, 0.0},
		{0.40, 2.00, -20.0},
	}
	for _, tc := range cases {
		if got := EdgePct(tc.p, tc.price); math.Abs(got-tc.want) > 1e-9 {
			t.Errorf("EdgePct(%.2f, %.2f) = %v, want %v", tc.p, tc.price, got, tc.want)
		}
	}
}
