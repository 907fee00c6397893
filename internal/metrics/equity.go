package metrics

import (
	"time"

	"github.com/qmetrics-lab/qmetrics/internal/types"
)

// DateField selects which trade timestamp drives day bucketing.
type DateField string

const (
	DateFieldEntry DateField = "entry"
	DateFieldExit  DateField = "exit"
)

// of returns the selected timestamp of a trade.
func (f DateField) of(t types.Trade) time.Time {
	if f == DateFieldExit {
		return t.ExitTime
	}

	return t.EntryTime
}

// day truncates a timestamp to midnight UTC.
func day(ts time.Time) time.Time {
	y, m, d := ts.UTC().Date()

	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// BuildEquityCurve day-buckets net profit, accumulates it on top of the
// initial balance and resamples to a contiguous daily calendar, carrying the
// balance forward over non-trading days. The daily return of the first point
// is 0 by definition.
func BuildEquityCurve(ledger *types.TradeLedger, field DateField, initialBalance float64) types.EquityCurve {
	if ledger == nil || len(ledger.Trades) == 0 {
		return nil
	}

	profitByDay := make(map[time.Time]float64)

	first := day(field.of(ledger.Trades[0]))
	last := first

	for _, trade := range ledger.Trades {
		d := day(field.of(trade))
		profitByDay[d] += trade.NetProfit

		if d.Before(first) {
			first = d
		}

		if d.After(last) {
			last = d
		}
	}

	var curve types.EquityCurve

	balance := initialBalance
	prev := initialBalance

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if profit, ok := profitByDay[d]; ok {
			balance += profit
		}

		dailyReturn := 0.0
		if len(curve) > 0 && prev != 0 {
			dailyReturn = (balance - prev) / prev
		}

		curve = append(curve, types.EquityPoint{
			Date:        d,
			Balance:     balance,
			DailyReturn: dailyReturn,
		})
		prev = balance
	}

	return curve
}

// MaxDrawdown returns the largest peak-to-trough decline of a balance series
// in absolute terms.
func MaxDrawdown(balances []float64) float64 {
	maxDD := 0.0
	peak := 0.0

	for i, balance := range balances {
		if i == 0 || balance > peak {
			peak = balance
		}

		if dd := peak - balance; dd > maxDD {
			maxDD = dd
		}
	}

	return maxDD
}
