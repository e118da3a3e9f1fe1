package model

// EWMA is an exponentially weighted moving average for smoothing noisy
// live odds. The first observation initializes the average.
type EWMA struct {
	alpha  float64
	value  float64
	primed bool
}

func NewEWMA(alpha float64) *EWMA {
	return &EWMA{alpha: alpha}
}

// Update folds x into the average and returns the new smoothed value.
func (e *EWMA) Update(x float64) float64 {
	if !e.primed {
		e.value = x
		e.primed = true
		return e.value
	}
	e.value = e.alpha*x + (1-e.alpha)*e.value
	return e.value
}

// Value returns the current smoothed value, or 0 before any update.
func (e *EWMA) Value() float64 { return e.value }

func (e *EWMA) Primed() bool { return e.primed }
