package service

import "math"

// roundMoney rounds to two decimals.
func roundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
