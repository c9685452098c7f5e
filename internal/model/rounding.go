package model

import "math"

// RoundHalfUp rounds to the nearest integer with ties resolved away from
// zero: 2.5 becomes 3 and -2.5 becomes -3. This matches the model contract's
// rounding rather than banker's rounding.
func RoundHalfUp(v float64) int {
	return int(math.Round(v))
}
