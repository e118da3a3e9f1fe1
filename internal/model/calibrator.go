package model

import "math"

const (
	defaultLearningRate = 0.05
	learningRateDecay   = 0.999
	brierEWMAlpha       = 0.05
	initialBrier        = 0.20
)

// Calibrator applies online Platt-style recalibration to model
// probabilities: z' = a·logit(p) + b, p' = sigmoid(z'). Parameters are
// nudged by one SGD step on the log loss each time a tip settles, and
// calibration quality is tracked as an exponentially weighted Brier score.
type Calibrator struct {
	A        float64
	B        float64
	LR       float64
	BrierEWM float64
}

// NewCalibrator returns the identity calibration (a=1, b=0).
func NewCalibrator() *Calibrator {
	return &Calibrator{A: 1.0, B: 0.0, LR: defaultLearningRate, BrierEWM: initialBrier}
}

// Adjust maps a raw model probability through the learned calibration.
func (c *Calibrator) Adjust(pModel float64) float64 {
	z := logit(pModel)
	return sigmoid(c.A*z + c.B)
}

// Step performs one SGD update against a settled outcome (1 = over hit).
// The learning rate decays geometrically so early results move the
// parameters more than the thousandth one.
func (c *Calibrator) Step(pModel float64, outcome int) {
	z := logit(pModel)
	pAdj := sigmoid(c.A*z + c.B)
	err := pAdj - float64(outcome)

	c.LR *= learningRateDecay
	c.A -= c.LR * err * z
	c.B -= c.LR * err

	brier := (pAdj - float64(outcome)) * (pAdj - float64(outcome))
	c.BrierEWM = (1-brierEWMAlpha)*c.BrierEWM + brierEWMAlpha*brier
}

// Quality buckets the Brier EWM into a coarse label for reports.
func (c *Calibrator) Quality() string {
	switch {
	case c.BrierEWM < 0.18:
		return "excellent"
	case c.BrierEWM < 0.24:
		return "good"
	default:
		return "learning"
	}
}

func sigmoid(x float64) float64 {
	return 1.0 / (1.0 + math.Exp(-clamp(x, -20.0, 20.0)))
}

func logit(p float64) float64 {
	p = clamp(p, 1e-6, 1-1e-6)
	return math.Log(p / (1 - p))
}
