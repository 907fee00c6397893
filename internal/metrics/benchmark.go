package metrics

import (
	"sort"
	"time"

	"github.com/qmetrics-lab/qmetrics/internal/types"
)

// BenchmarkResult is the buy-and-hold comparison curve with its scalar
// returns. The curve's DailyReturn column holds the return since entry, not
// a day-over-day change.
type BenchmarkResult struct {
	Curve         types.EquityCurve
	ReturnDollar  float64
	ReturnPercent float64
}

// BuyAndHold prices a single position opened at the first trade's entry
// price and held through the ledger's date span. Days without a trade carry
// the last known entry price forward.
func BuyAndHold(ledger *types.TradeLedger, field DateField, initialBalance float64) BenchmarkResult {
	if ledger == nil || len(ledger.Trades) == 0 {
		return BenchmarkResult{Curve: nil, ReturnDollar: 0, ReturnPercent: 0}
	}

	sorted := sortedByField(ledger, field)
	buyPrice := sorted.Trades[0].EntryPrice

	// Last observed entry price per calendar day.
	priceByDay := make(map[time.Time]float64)

	first := day(field.of(sorted.Trades[0]))
	last := first

	for _, trade := range sorted.Trades {
		d := day(field.of(trade))
		priceByDay[d] = trade.EntryPrice

		if d.After(last) {
			last = d
		}
	}

	var curve types.EquityCurve

	price := buyPrice

	for d := first; !d.After(last); d = d.AddDate(0, 0, 1) {
		if p, ok := priceByDay[d]; ok {
			price = p
		}

		dailyReturn := 0.0
		if buyPrice != 0 {
			dailyReturn = (price - buyPrice) / buyPrice
		}

		curve = append(curve, types.EquityPoint{
			Date:        d,
			Balance:     (1 + dailyReturn) * initialBalance,
			DailyReturn: dailyReturn,
		})
	}

	finalBalance := curve.FinalBalance()
	returnDollar := finalBalance - initialBalance

	returnPercent := 0.0
	if initialBalance != 0 {
		returnPercent = returnDollar / initialBalance * 100
	}

	return BenchmarkResult{
		Curve:         curve,
		ReturnDollar:  returnDollar,
		ReturnPercent: returnPercent,
	}
}

// sortedByField returns a ledger copy sorted by the selected date field.
func sortedByField(ledger *types.TradeLedger, field DateField) *types.TradeLedger {
	if field == DateFieldEntry {
		return ledger.SortedByEntryTime()
	}

	sorted := &types.TradeLedger{Name: ledger.Name, Trades: make([]types.Trade, len(ledger.Trades))}
	copy(sorted.Trades, ledger.Trades)
	sort.SliceStable(sorted.Trades, func(i, j int) bool {
		return field.of(sorted.Trades[i]).Before(field.of(sorted.Trades[j]))
	})

	return sorted
}
