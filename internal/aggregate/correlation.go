package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/qmetrics-lab/qmetrics/internal/metrics"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// CorrelationMatrix is the pairwise Pearson correlation of strategy return
// series. Values[i][j] correlates Names[i] with Names[j].
type CorrelationMatrix struct {
	Names  []string
	Values [][]float64
}

// Correlation computes the correlation matrix across strategies. Each
// strategy's per-trade return series (percentage change of its cumulative
// gross-profit equity) is aligned on the union of all trade dates,
// forward-filled over gaps and zero-filled before its first trade. Requires
// at least two non-empty ledgers.
//
// Near-zero or negative coefficients indicate diversification between
// strategies; strongly positive ones indicate overlap.
func Correlation(ledgers []*types.TradeLedger, field metrics.DateField, initialBalance float64) (*CorrelationMatrix, error) {
	if len(ledgers) < 2 {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"correlation requires at least two strategies, got %d", len(ledgers))
	}

	type series struct {
		name    string
		returns map[time.Time]float64
	}

	union := make(map[time.Time]bool)
	all := make([]series, 0, len(ledgers))

	for _, ledger := range ledgers {
		if ledger == nil || ledger.Len() == 0 {
			return nil, errors.Newf(errors.ErrCodeInsufficientData, "ledger %s has no trades", ledgerName(ledger))
		}

		sorted := sortedTrades(ledger, field)
		returns := make(map[time.Time]float64, len(sorted))
		equity := initialBalance
		prev := initialBalance

		for i, trade := range sorted {
			equity += trade.GrossProfit

			r := 0.0
			if i > 0 && prev != 0 {
				r = (equity - prev) / prev
			}

			// Last value wins for duplicate timestamps.
			ts := tradeDate(trade, field)
			returns[ts] = r
			union[ts] = true
			prev = equity
		}

		all = append(all, series{name: ledger.Name, returns: returns})
	}

	dates := make([]time.Time, 0, len(union))
	for ts := range union {
		dates = append(dates, ts)
	}

	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	// Align every strategy on the union calendar: forward-fill gaps, then
	// zero-fill anything before the first observation.
	aligned := make([][]float64, len(all))

	for i, s := range all {
		row := make([]float64, len(dates))
		last := 0.0

		for j, ts := range dates {
			if r, ok := s.returns[ts]; ok {
				last = r
			}

			row[j] = last
		}

		aligned[i] = row
	}

	values := make([][]float64, len(all))
	names := make([]string, len(all))

	for i := range all {
		names[i] = all[i].name
		values[i] = make([]float64, len(all))

		for j := range all {
			values[i][j] = pearson(aligned[i], aligned[j])
		}
	}

	return &CorrelationMatrix{Names: names, Values: values}, nil
}

// pearson returns the correlation coefficient of two equal-length series,
// NaN when either series has zero variance.
func pearson(x, y []float64) float64 {
	n := float64(len(x))
	if n == 0 {
		return math.NaN()
	}

	var sumX, sumY float64
	for i := range x {
		sumX += x[i]
		sumY += y[i]
	}

	meanX := sumX / n
	meanY := sumY / n

	var cov, varX, varY float64

	for i := range x {
		dx := x[i] - meanX
		dy := y[i] - meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}

	if varX == 0 || varY == 0 {
		return math.NaN()
	}

	return cov / math.Sqrt(varX*varY)
}

func sortedTrades(ledger *types.TradeLedger, field metrics.DateField) []types.Trade {
	sorted := make([]types.Trade, len(ledger.Trades))
	copy(sorted, ledger.Trades)
	sort.SliceStable(sorted, func(i, j int) bool {
		return tradeDate(sorted[i], field).Before(tradeDate(sorted[j], field))
	})

	return sorted
}

func ledgerName(ledger *types.TradeLedger) string {
	if ledger == nil {
		return "<nil>"
	}

	return ledger.Name
}
