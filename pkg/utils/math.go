package utils

import "math"

// Clamp limits v to the range [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// Round2 rounds v to two decimal places.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// WithinPercent reports whether a and b differ by at most pct percent of b.
// When b is zero, only an exact match qualifies.
func WithinPercent(a, b, pct float64) bool {
	if b == 0 {
		return a == 0
	}
	return math.Abs(a-b) <= math.Abs(b)*pct/100
}

// WithinAbs reports whether a and b differ by at most tol.
func WithinAbs(a, b, tol float64) bool {
	return math.Abs(a-b) <= tol
}
