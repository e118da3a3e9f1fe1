package odds

// Implied converts a decimal price to its raw implied probability,
// overround included.
func Implied(price float64) float64 {
	if price <= 1.0 {
		return 0
	}
	return 1.0 / price
}

// RemoveVig2 converts two-way decimal odds to fair probabilities
// by stripping the bookmaker's overround.
func RemoveVig2(a, b float64) (float64, float64) {
	rawA := 1.0 / a
	rawB := 1.0 / b
	total := rawA + rawB
	return rawA / total, rawB / total
}

// RemoveVig3 converts three-way decimal odds to fair probabilities.
func RemoveVig3(a, b, c float64) (float64, float64, float64) {
	rawA := 1.0 / a
	rawB := 1.0 / b
	rawC := 1.0 / c
	total := rawA + rawB + rawC
	return rawA / total, rawB / total, rawC / total
}

// Overround returns the bookmaker margin in a two-way market:
// sum of raw implied probabilities, > 1 when the book holds an edge.
func Overround2(a, b float64) float64 {
	return 1.0/a + 1.0/b
}

// EdgePct is the expected-value percentage of backing a price with
// estimated win probability p: (p·odds − 1) × 100.
func EdgePct(p, price float64) float64 {
	return (p*price - 1.0) * 100.0
}
