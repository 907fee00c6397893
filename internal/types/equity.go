package types

import (
	"time"
)

// EquityPoint is one calendar day of the equity curve.
type EquityPoint struct {
	// Date of this point, truncated to midnight UTC.
	Date time.Time `csv:"date" yaml:"date"`
	// Balance is the cumulative account balance at the end of the day.
	Balance float64 `csv:"balance" yaml:"balance"`
	// DailyReturn is the percentage change of Balance against the previous
	// day. The first point is always 0.
	DailyReturn float64 `csv:"daily_return" yaml:"daily_return"`
}

// EquityCurve is a day-indexed, contiguous cumulative balance series.
// There is exactly one point per calendar day between the first and last
// trade date of the ledger that produced it.
type EquityCurve []EquityPoint

// Balances returns the cumulative balance series.
func (c EquityCurve) Balances() []float64 {
	balances := make([]float64, len(c))
	for i, p := range c {
		balances[i] = p.Balance
	}

	return balances
}

// Returns returns the daily return series.
func (c EquityCurve) Returns() []float64 {
	returns := make([]float64, len(c))
	for i, p := range c {
		returns[i] = p.DailyReturn
	}

	return returns
}

// FinalBalance returns the balance of the last point, or 0 for an empty curve.
func (c EquityCurve) FinalBalance() float64 {
	if len(c) == 0 {
		return 0
	}

	return c[len(c)-1].Balance
}
