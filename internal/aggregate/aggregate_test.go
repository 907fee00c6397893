package aggregate

import (
	"math"
	"testing"
	"time"

	"github.com/qmetrics-lab/qmetrics/internal/metrics"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type AggregateTestSuite struct {
	suite.Suite
}

func TestAggregateSuite(t *testing.T) {
	suite.Run(t, new(AggregateTestSuite))
}

func tradeAt(entry time.Time, netProfit float64) types.Trade {
	return types.Trade{
		ID:          "t",
		Side:        types.SideLong,
		Size:        1,
		EntryTime:   entry,
		ExitTime:    entry.Add(time.Hour),
		GrossProfit: netProfit + 4,
		Commission:  4,
		NetProfit:   netProfit,
	}
}

func (suite *AggregateTestSuite) TestMonthlySparseYear() {
	ledger := &types.TradeLedger{
		Name: "sparse",
		Trades: []types.Trade{
			tradeAt(time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC), 150),
			tradeAt(time.Date(2025, 3, 20, 9, 0, 0, 0, time.UTC), -50),
			tradeAt(time.Date(2025, 11, 5, 9, 0, 0, 0, time.UTC), 80),
		},
	}

	table := MonthlyPerformance(ledger, metrics.DateFieldEntry, 10000, MonthLabelShort, ModeDollar, BasisNet)
	suite.Len(table.Labels, 12)
	suite.Equal("Jan", table.Labels[0])
	suite.Equal("Dec", table.Labels[11])
	suite.Require().Len(table.Rows, 1)

	row := table.Rows[0]
	suite.Equal(2025, row.Year)
	suite.InDelta(100.0, row.Months[time.March-1], 1e-9)
	suite.InDelta(80.0, row.Months[time.November-1], 1e-9)

	for m := time.January; m <= time.December; m++ {
		if m == time.March || m == time.November {
			continue
		}

		suite.Zero(row.Months[m-1], "month %s should be empty", m)
	}

	suite.InDelta(180.0, row.YTD, 1e-9)
}

func (suite *AggregateTestSuite) TestMonthlyPercentMode() {
	ledger := &types.TradeLedger{
		Name: "pct",
		Trades: []types.Trade{
			tradeAt(time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), 500),
		},
	}

	table := MonthlyPerformance(ledger, metrics.DateFieldEntry, 10000, MonthLabelFull, ModePercent, BasisNet)
	suite.Equal("June", table.Labels[time.June-1])
	suite.Require().Len(table.Rows, 1)
	suite.InDelta(5.0, table.Rows[0].Months[time.June-1], 1e-9)
	suite.InDelta(5.0, table.Rows[0].YTD, 1e-9)
}

func (suite *AggregateTestSuite) TestMonthlyMultipleYearsSorted() {
	ledger := &types.TradeLedger{
		Name: "years",
		Trades: []types.Trade{
			tradeAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10),
			tradeAt(time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC), 20),
			tradeAt(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), 30),
		},
	}

	table := MonthlyPerformance(ledger, metrics.DateFieldEntry, 10000, MonthLabelShort, ModeDollar, BasisNet)
	suite.Require().Len(table.Rows, 3)
	suite.Equal(2023, table.Rows[0].Year)
	suite.Equal(2024, table.Rows[1].Year)
	suite.Equal(2025, table.Rows[2].Year)
}

func (suite *AggregateTestSuite) TestMonthlyExitField() {
	entry := time.Date(2025, 1, 31, 23, 30, 0, 0, time.UTC)
	trade := tradeAt(entry, 100)
	trade.ExitTime = time.Date(2025, 2, 1, 0, 30, 0, 0, time.UTC)

	ledger := &types.TradeLedger{Name: "exit", Trades: []types.Trade{trade}}

	table := MonthlyPerformance(ledger, metrics.DateFieldExit, 10000, MonthLabelShort, ModeDollar, BasisNet)
	suite.InDelta(100.0, table.Rows[0].Months[time.February-1], 1e-9)
	suite.Zero(table.Rows[0].Months[time.January-1])
}

func (suite *AggregateTestSuite) TestMonthlyGrossBasis() {
	ledger := &types.TradeLedger{
		Name: "gross",
		Trades: []types.Trade{
			tradeAt(time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), 100),
			tradeAt(time.Date(2025, 4, 15, 0, 0, 0, 0, time.UTC), -20),
		},
	}

	net := MonthlyPerformance(ledger, metrics.DateFieldEntry, 10000, MonthLabelShort, ModeDollar, BasisNet)
	gross := MonthlyPerformance(ledger, metrics.DateFieldEntry, 10000, MonthLabelShort, ModeDollar, BasisGross)

	suite.InDelta(80.0, net.Rows[0].Months[time.April-1], 1e-9)
	// Each trade carries a commission of 4, so gross runs 8 ahead of net.
	suite.InDelta(88.0, gross.Rows[0].Months[time.April-1], 1e-9)
	suite.Equal(BasisNet, net.Basis)
	suite.Equal(BasisGross, gross.Basis)
}

func (suite *AggregateTestSuite) TestCombinePortfolioMergesAndSorts() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	alpha := &types.TradeLedger{Name: "alpha", Trades: []types.Trade{
		tradeAt(base, 100),
		tradeAt(base.AddDate(0, 0, 2), -40),
	}}
	beta := &types.TradeLedger{Name: "beta", Trades: []types.Trade{
		tradeAt(base.AddDate(0, 0, 1), 60),
	}}

	combined, err := CombinePortfolio([]*types.TradeLedger{alpha, beta}, nil)
	suite.Require().NoError(err)

	suite.Equal(PortfolioName, combined.Name)
	suite.Require().Len(combined.Trades, 3)

	for i := 1; i < len(combined.Trades); i++ {
		suite.False(combined.Trades[i].EntryTime.Before(combined.Trades[i-1].EntryTime))
	}

	suite.InDelta(60.0, combined.Trades[1].NetProfit, 1e-9)
}

func (suite *AggregateTestSuite) TestCombinePortfolioScaling() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	alpha := &types.TradeLedger{Name: "alpha", Trades: []types.Trade{tradeAt(base, 100)}}
	beta := &types.TradeLedger{Name: "beta", Trades: []types.Trade{tradeAt(base.AddDate(0, 0, 1), 50)}}

	combined, err := CombinePortfolio([]*types.TradeLedger{alpha, beta}, []float64{1, 2})
	suite.Require().NoError(err)
	suite.Require().Len(combined.Trades, 2)

	suite.InDelta(100.0, combined.Trades[0].NetProfit, 1e-9)
	suite.InDelta(100.0, combined.Trades[1].NetProfit, 1e-9)
	suite.InDelta(108.0, combined.Trades[1].GrossProfit, 1e-9)
	suite.InDelta(8.0, combined.Trades[1].Commission, 1e-9)

	// Scaling works on copies; the source ledger keeps its numbers.
	suite.InDelta(50.0, beta.Trades[0].NetProfit, 1e-9)
}

func (suite *AggregateTestSuite) TestCombinePortfolioRejectsBadInput() {
	_, err := CombinePortfolio(nil, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))

	alpha := &types.TradeLedger{Name: "alpha", Trades: []types.Trade{
		tradeAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10),
	}}

	_, err = CombinePortfolio([]*types.TradeLedger{alpha}, []float64{1, 2})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *AggregateTestSuite) TestCorrelationRequiresTwoLedgers() {
	ledger := &types.TradeLedger{Name: "solo", Trades: []types.Trade{
		tradeAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10),
	}}

	matrix, err := Correlation([]*types.TradeLedger{ledger}, metrics.DateFieldEntry, 10000)
	suite.Nil(matrix)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *AggregateTestSuite) TestCorrelationEmptyLedger() {
	full := &types.TradeLedger{Name: "full", Trades: []types.Trade{
		tradeAt(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), 10),
	}}
	empty := &types.TradeLedger{Name: "empty"}

	matrix, err := Correlation([]*types.TradeLedger{full, empty}, metrics.DateFieldEntry, 10000)
	suite.Nil(matrix)
	suite.True(errors.HasCode(err, errors.ErrCodeInsufficientData))
}

func (suite *AggregateTestSuite) TestCorrelationSelfAndMirror() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	trades := func(profits ...float64) []types.Trade {
		out := make([]types.Trade, len(profits))
		for i, p := range profits {
			t := tradeAt(base.AddDate(0, 0, i), p)
			t.GrossProfit = p
			out[i] = t
		}

		return out
	}

	alpha := &types.TradeLedger{Name: "alpha", Trades: trades(100, -50, 200, -75)}
	beta := &types.TradeLedger{Name: "beta", Trades: trades(100, -50, 200, -75)}
	inverse := &types.TradeLedger{Name: "inverse", Trades: trades(-100, 50, -200, 75)}

	matrix, err := Correlation([]*types.TradeLedger{alpha, beta, inverse}, metrics.DateFieldEntry, 10000)
	suite.Require().NoError(err)
	suite.Equal([]string{"alpha", "beta", "inverse"}, matrix.Names)

	suite.InDelta(1.0, matrix.Values[0][0], 1e-9)
	suite.InDelta(1.0, matrix.Values[0][1], 1e-9)
	suite.InDelta(matrix.Values[0][2], matrix.Values[2][0], 1e-9)
	suite.Less(matrix.Values[0][2], 0.0)
}

func (suite *AggregateTestSuite) TestCorrelationDisjointDatesAligned() {
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	early := &types.TradeLedger{Name: "early", Trades: []types.Trade{
		func() types.Trade { t := tradeAt(base, 10); t.GrossProfit = 10; return t }(),
		func() types.Trade { t := tradeAt(base.AddDate(0, 0, 1), -5); t.GrossProfit = -5; return t }(),
	}}
	late := &types.TradeLedger{Name: "late", Trades: []types.Trade{
		func() types.Trade { t := tradeAt(base.AddDate(0, 0, 2), 20); t.GrossProfit = 20; return t }(),
		func() types.Trade { t := tradeAt(base.AddDate(0, 0, 3), 30); t.GrossProfit = 30; return t }(),
	}}

	matrix, err := Correlation([]*types.TradeLedger{early, late}, metrics.DateFieldEntry, 10000)
	suite.Require().NoError(err)

	// Disjoint calendars still produce a finite 2x2 matrix after alignment.
	suite.Len(matrix.Values, 2)
	suite.Len(matrix.Values[0], 2)
	suite.InDelta(1.0, matrix.Values[0][0], 1e-9)
	suite.False(math.IsNaN(matrix.Values[0][1]))
}

func (suite *AggregateTestSuite) TestPearsonZeroVariance() {
	suite.True(math.IsNaN(pearson([]float64{1, 1, 1}, []float64{1, 2, 3})))
	suite.True(math.IsNaN(pearson(nil, nil)))
	suite.InDelta(1.0, pearson([]float64{1, 2, 3}, []float64{2, 4, 6}), 1e-12)
	suite.InDelta(-1.0, pearson([]float64{1, 2, 3}, []float64{6, 4, 2}), 1e-12)
}
