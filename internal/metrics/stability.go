package metrics

import (
	"math"
)

// Stability measures how close the equity curve is to a straight line: the
// R-squared of an ordinary least-squares fit of the balance series against a
// time index. Returns NaN below two points and 1 for a constant series.
func Stability(balances []float64) float64 {
	n := len(balances)
	if n < 2 {
		return math.NaN()
	}

	constant := true

	for _, b := range balances[1:] {
		if b != balances[0] {
			constant = false

			break
		}
	}

	if constant {
		return 1.0
	}

	// Closed-form simple linear regression on x = 0..n-1.
	var sumX, sumY, sumXX, sumXY float64
	for i, y := range balances {
		x := float64(i)
		sumX += x
		sumY += y
		sumXX += x * x
		sumXY += x * y
	}

	fn := float64(n)
	slope := (fn*sumXY - sumX*sumY) / (fn*sumXX - sumX*sumX)
	intercept := (sumY - slope*sumX) / fn

	var ssRes, ssTot float64

	meanY := sumY / fn
	for i, y := range balances {
		fitted := intercept + slope*float64(i)
		ssRes += (y - fitted) * (y - fitted)
		ssTot += (y - meanY) * (y - meanY)
	}

	if ssTot == 0 {
		return 1.0
	}

	return 1 - ssRes/ssTot
}
