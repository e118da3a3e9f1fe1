package model

import (
	"math"
	"testing"
)

func TestCalibratorIdentityAtStart(t *testing.T) {
	c := NewCalibrator()
	for _, p := range []float64{0.1, 0.35, 0.5, 0.8} {
		if got := c.Adjust(p); math.Abs(got-p) > 1e-9 {
			t.Errorf("Adjust(%.2f) = %.6f, want identity", p, got)
		}
	}
}

func TestCalibratorStepCorrectsOverconfidence(t *testing.T) {
	c := NewCalibrator()

	// Model keeps saying 80% but the outcome only hits half the time.
	for i := 0; i < 400; i++ {
		c.Step(0.8, i%2)
	}

	if got := c.Adjust(0.8); got >= 0.75 {
		t.Errorf("after overconfident history, Adjust(0.8) = %.3f, want pulled down", got)
	}
}

func TestCalibratorLearningRateDecays(t *testing.T) {
	c := NewCalibrator()
	before := c.LR
	c.Step(0.6, 1)
	if c.LR >= before {
		t.Errorf("LR = %v after step, want < %v", c.LR, before)
	}
}

func TestCalibratorBrierTracksQuality(t *testing.T) {
	good := NewCalibrator()
	for i := 0; i < 200; i++ {
		good.Step(0.95, 1) // near-certain and right
	}
	if good.BrierEWM > 0.18 {
		t.Errorf("accurate history left brier at %.3f", good.BrierEWM)
	}
	if q := good.Quality(); q != "excellent" {
		t.Errorf("Quality() = %q, want excellent", q)
	}

	// Near-certain and wrong. The first steps land before the SGD can
	// react, so the EWM climbs into the warning band.
	bad := NewCalibrator()
	for i := 0; i < 10; i++ {
		bad.Step(0.95, 0)
	}
	if bad.BrierEWM < 0.24 {
		t.Errorf("wrong history left brier at %.3f", bad.BrierEWM)
	}
	if q := bad.Quality(); q != "learning" {
		t.Errorf("Quality() = %q, want learning", q)
	}

	// Brier tracks the adjusted probability, so once the calibrator has
	// fit the bias the score recovers even though the raw input stays bad.
	for i := 0; i < 70; i++ {
		bad.Step(0.95, 0)
	}
	if bad.BrierEWM > 0.18 {
		t.Errorf("brier stuck at %.3f after the calibrator adapted", bad.BrierEWM)
	}
}

func TestSigmoidLogitClamps(t *testing.T) {
	if got := sigmoid(1000); got != sigmoid(20) {
		t.Errorf("sigmoid should clamp at ±20, got %v", got)
	}
	if got := logit(0); math.IsInf(got, 0) || math.IsNaN(got) {
		t.Errorf("logit(0) = %v, want finite", got)
	}
}
