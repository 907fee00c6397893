package montecarlo

import (
	"math"
	"sort"
	"testing"
	"time"

	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type MonteCarloTestSuite struct {
	suite.Suite
}

func TestMonteCarloSuite(t *testing.T) {
	suite.Run(t, new(MonteCarloTestSuite))
}

// poolLedger builds a ledger whose gross profits are exactly the given pool.
func poolLedger(pool []float64) *types.TradeLedger {
	trades := make([]types.Trade, len(pool))
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	for i, profit := range pool {
		trades[i] = types.Trade{
			ID:          "t",
			Side:        types.SideLong,
			Size:        1,
			EntryTime:   base.AddDate(0, 0, i),
			ExitTime:    base.AddDate(0, 0, i),
			GrossProfit: profit,
			Commission:  1,
			NetProfit:   profit - 1,
		}
	}

	return &types.TradeLedger{Name: "pool", Trades: trades}
}

func (suite *MonteCarloTestSuite) TestWithReplacementDrawsFromPool() {
	pool := []float64{10, -5, 20}
	allowed := map[float64]bool{10: true, -5: true, 20: true}

	batch, err := Simulate(poolLedger(pool), Params{
		NumSimulations: 1000,
		Method:         MethodWithReplacement,
		Seed:           optional.Some[int64](42),
	})
	suite.NoError(err)
	suite.Equal(1000, batch.Rows())
	suite.Equal(3, batch.Cols())

	for _, row := range batch {
		for _, value := range row {
			suite.True(allowed[value], "sampled value %v not in pool", value)
		}
	}
}

func (suite *MonteCarloTestSuite) TestWithoutReplacementIsPermutation() {
	pool := []float64{10, -5, 20, 7}

	batch, err := Simulate(poolLedger(pool), Params{
		NumSimulations: 50,
		Method:         MethodWithoutReplacement,
		Seed:           optional.Some[int64](7),
	})
	suite.NoError(err)

	want := append([]float64(nil), pool...)
	sort.Float64s(want)

	for _, row := range batch {
		got := append([]float64(nil), row...)
		sort.Float64s(got)
		suite.Equal(want, got)
	}
}

func (suite *MonteCarloTestSuite) TestWithoutReplacementPoolExceeded() {
	batch, err := Simulate(poolLedger([]float64{1, 2, 3}), Params{
		NumSimulations: 10,
		NumTrades:      optional.Some(4),
		Method:         MethodWithoutReplacement,
	})
	suite.Nil(batch)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *MonteCarloTestSuite) TestWithReplacementMayExceedPool() {
	batch, err := Simulate(poolLedger([]float64{1, 2, 3}), Params{
		NumSimulations: 10,
		NumTrades:      optional.Some(9),
		Method:         MethodWithReplacement,
		Seed:           optional.Some[int64](1),
	})
	suite.NoError(err)
	suite.Equal(9, batch.Cols())
}

func (suite *MonteCarloTestSuite) TestUnknownMethod() {
	batch, err := Simulate(poolLedger([]float64{1, 2}), Params{
		NumSimulations: 10,
		Method:         Method("bogus"),
	})
	suite.Nil(batch)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (suite *MonteCarloTestSuite) TestEmptyLedger() {
	batch, err := Simulate(&types.TradeLedger{Name: "empty"}, Params{
		NumSimulations: 10,
		Method:         MethodWithReplacement,
	})
	suite.Nil(batch)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingField))

	batch, err = Simulate(nil, Params{NumSimulations: 10, Method: MethodWithReplacement})
	suite.Nil(batch)
	suite.True(errors.HasCode(err, errors.ErrCodeMissingField))
}

func (suite *MonteCarloTestSuite) TestSeedReproducibility() {
	params := Params{
		NumSimulations: 20,
		Method:         MethodWithReplacement,
		Seed:           optional.Some[int64](99),
	}

	first, err := Simulate(poolLedger([]float64{10, -5, 20, 7, -3}), params)
	suite.NoError(err)

	second, err := Simulate(poolLedger([]float64{10, -5, 20, 7, -3}), params)
	suite.NoError(err)
	suite.Equal(first, second)

	params.Seed = optional.Some[int64](100)
	third, err := Simulate(poolLedger([]float64{10, -5, 20, 7, -3}), params)
	suite.NoError(err)
	suite.NotEqual(first, third)
}

func (suite *MonteCarloTestSuite) TestCumulative() {
	batch := Batch{{10, -5, 20}}
	cumulative := batch.Cumulative(100)
	suite.Equal(Batch{{110, 105, 125}}, cumulative)
	suite.Equal([]float64{125}, cumulative.FinalValues())
}

func (suite *MonteCarloTestSuite) TestMaxDrawdowns() {
	cumulative := Batch{
		{100, 140, 80, 120},
		{100, 110, 120, 130},
	}

	drawdowns, err := MaxDrawdowns(cumulative, false)
	suite.NoError(err)
	suite.Equal([]float64{60, 0}, drawdowns)
}

func (suite *MonteCarloTestSuite) TestMaxDrawdownPercentageFlatSeries() {
	// A flat path must yield 0%, not NaN or Inf, even when the peak is 0.
	flat := Batch{{0, 0, 0, 0}}

	drawdowns, err := MaxDrawdowns(flat, true)
	suite.NoError(err)
	suite.Equal([]float64{0}, drawdowns)

	constant := Batch{{50, 50, 50}}
	drawdowns, err = MaxDrawdowns(constant, true)
	suite.NoError(err)
	suite.Equal([]float64{0}, drawdowns)
}

func (suite *MonteCarloTestSuite) TestMaxDrawdownsPercentage() {
	cumulative := Batch{{100, 200, 100}}

	drawdowns, err := MaxDrawdowns(cumulative, true)
	suite.NoError(err)
	suite.InDelta(50.0, drawdowns[0], 1e-12)
}

func (suite *MonteCarloTestSuite) TestInvalidShape() {
	_, err := MaxDrawdowns(Batch{}, false)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidShape))

	_, err = MaxDrawdowns(Batch{{1, 2}, {1}}, false)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidShape))

	_, err = LosingStreaks(Batch{})
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidShape))

	_, err = Summarize(Batch{{1, 2}, {3}}, 1000, nil)
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidShape))
}

func (suite *MonteCarloTestSuite) TestStreaks() {
	batch := Batch{
		{100, -50, -50, -50, 30, -10},
		{-10, 20, 30, 40, -5, -5},
	}

	losing, err := LosingStreaks(batch)
	suite.NoError(err)
	suite.Equal([]int{3, 2}, losing)

	winning, err := WinningStreaks(batch)
	suite.NoError(err)
	suite.Equal([]int{1, 3}, winning)
}

func (suite *MonteCarloTestSuite) TestStreaksZeroResets() {
	batch := Batch{{-10, 0, -10, -10}}

	losing, err := LosingStreaks(batch)
	suite.NoError(err)
	suite.Equal([]int{2}, losing)

	winning, err := WinningStreaks(batch)
	suite.NoError(err)
	suite.Equal([]int{0}, winning)
}

func (suite *MonteCarloTestSuite) TestPercentileLinearInterpolation() {
	values := []float64{1, 2, 3, 4}
	suite.InDelta(2.5, percentile(values, 50), 1e-12)
	suite.InDelta(1.0, percentile(values, 0), 1e-12)
	suite.InDelta(4.0, percentile(values, 100), 1e-12)
	suite.InDelta(3.25, percentile(values, 75), 1e-12)
	suite.True(math.IsNaN(percentile(nil, 50)))
}

func (suite *MonteCarloTestSuite) TestSummarize() {
	// Two paths ending at +100 and -50 over an initial balance of 1000.
	cumulative := Batch{
		{1050, 1100},
		{980, 950},
	}

	rows, err := Summarize(cumulative, 1000, []int{50, 100})
	suite.NoError(err)
	suite.Len(rows, 2)

	median := rows[0]
	suite.Equal(50, median.ConfidenceLevel)
	suite.InDelta(25.0, median.NetProfit, 1e-9) // midpoint of -50 and 100
	suite.InDelta(0.025, median.RExpectancy, 1e-9)

	top := rows[1]
	suite.Equal(100, top.ConfidenceLevel)
	suite.InDelta(100.0, top.NetProfit, 1e-9)
	suite.InDelta(30.0, top.MaxDrawdown, 1e-9) // path two falls from 980 to 950
}

func (suite *MonteCarloTestSuite) TestSummarizeZeroDrawdownRatio() {
	// Monotonically rising paths have zero drawdown: the ratio is +Inf.
	cumulative := Batch{{1010, 1020, 1030}}

	rows, err := Summarize(cumulative, 1000, []int{50})
	suite.NoError(err)
	suite.True(math.IsInf(rows[0].ReturnDrawdownRatio, 1))
}
