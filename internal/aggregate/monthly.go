package aggregate

import (
	"sort"
	"time"

	"github.com/qmetrics-lab/qmetrics/internal/metrics"
	"github.com/qmetrics-lab/qmetrics/internal/types"
)

// MonthLabel selects how month columns are titled.
type MonthLabel string

const (
	// MonthLabelShort titles columns "Jan".."Dec".
	MonthLabelShort MonthLabel = "short"
	// MonthLabelFull titles columns "January".."December".
	MonthLabelFull MonthLabel = "full"
)

// Mode selects the unit of the monthly table.
type Mode string

const (
	// ModeDollar reports absolute net profit.
	ModeDollar Mode = "dollar"
	// ModePercent reports net profit as a percentage of the initial balance.
	ModePercent Mode = "percent"
)

// Basis selects which profit column the pivot aggregates.
type Basis string

const (
	// BasisNet aggregates profit after commission.
	BasisNet Basis = "net"
	// BasisGross aggregates profit before commission.
	BasisGross Basis = "gross"
)

// MonthlyRow is one calendar year of the pivot: twelve month cells in fixed
// January..December order plus the year-to-date sum.
type MonthlyRow struct {
	Year   int
	Months [12]float64
	YTD    float64
}

// MonthlyTable is the year x month performance grid.
type MonthlyTable struct {
	Labels []string
	Rows   []MonthlyRow
	Mode   Mode
	Basis  Basis
}

// MonthlyPerformance groups the chosen profit column by (year, month) and
// pivots it into a year x month grid with a YTD column. Months without
// trades hold zero.
func MonthlyPerformance(ledger *types.TradeLedger, field metrics.DateField, initialBalance float64, label MonthLabel, mode Mode, basis Basis) MonthlyTable {
	type yearMonth struct {
		year  int
		month time.Month
	}

	profitByMonth := make(map[yearMonth]float64)
	years := make(map[int]bool)

	for _, trade := range ledger.Trades {
		ts := tradeDate(trade, field)
		key := yearMonth{year: ts.Year(), month: ts.Month()}

		profit := trade.NetProfit
		if basis == BasisGross {
			profit = trade.GrossProfit
		}

		profitByMonth[key] += profit
		years[key.year] = true
	}

	sortedYears := make([]int, 0, len(years))
	for year := range years {
		sortedYears = append(sortedYears, year)
	}

	sort.Ints(sortedYears)

	scale := 1.0
	if mode == ModePercent && initialBalance != 0 {
		scale = 100 / initialBalance
	}

	rows := make([]MonthlyRow, 0, len(sortedYears))

	for _, year := range sortedYears {
		row := MonthlyRow{Year: year}

		for m := time.January; m <= time.December; m++ {
			value := profitByMonth[yearMonth{year: year, month: m}] * scale
			row.Months[m-1] = value
			row.YTD += value
		}

		rows = append(rows, row)
	}

	return MonthlyTable{
		Labels: monthLabels(label),
		Rows:   rows,
		Mode:   mode,
		Basis:  basis,
	}
}

func monthLabels(label MonthLabel) []string {
	labels := make([]string, 12)

	for m := time.January; m <= time.December; m++ {
		name := m.String()
		if label == MonthLabelShort {
			name = name[:3]
		}

		labels[m-1] = name
	}

	return labels
}

func tradeDate(trade types.Trade, field metrics.DateField) time.Time {
	if field == metrics.DateFieldExit {
		return trade.ExitTime
	}

	return trade.EntryTime
}
