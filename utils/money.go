package utils

import "math"

// RoundMinor rounds an amount to the currency minor unit (two decimals).
func RoundMinor(amount float64) float64 {
	return math.Round(amount*100) / 100
}

// EqualShare returns one participant's share of total split n ways, rounded
// to the minor unit. The rounding residual is deliberately not redistributed:
// every share is identical and the sum may undershoot total by up to
// (n-1) cents, which stays on the house total.
func EqualShare(total float64, n int) float64 {
	if n <= 0 {
		return 0
	}
	return RoundMinor(total / float64(n))
}
