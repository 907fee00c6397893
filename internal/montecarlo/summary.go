package montecarlo

import (
	"math"
)

// DefaultConfidenceLevels are the percentiles reported by Summarize.
var DefaultConfidenceLevels = []int{50, 70, 80, 90, 95, 98, 100}

// SummaryRow is one confidence level of the simulation summary table.
type SummaryRow struct {
	// ConfidenceLevel in percent.
	ConfidenceLevel int `yaml:"confidence_level" json:"confidence_level"`
	// NetProfit is the percentile of final net profit across paths.
	NetProfit float64 `yaml:"net_profit" json:"net_profit"`
	// RExpectancy is NetProfit normalized by the initial balance.
	RExpectancy float64 `yaml:"r_expectancy" json:"r_expectancy"`
	// AnnualReturnPct approximates an annualized return in percent.
	AnnualReturnPct float64 `yaml:"annual_return_pct" json:"annual_return_pct"`
	// MaxDrawdown is the percentile of per-path maximum drawdown.
	MaxDrawdown float64 `yaml:"max_drawdown" json:"max_drawdown"`
	// ReturnDrawdownRatio is NetProfit divided by MaxDrawdown, +Inf when the
	// drawdown is zero.
	ReturnDrawdownRatio float64 `yaml:"return_drawdown_ratio" json:"return_drawdown_ratio"`
}

// Summarize builds the confidence-level table over a cumulative-profit
// matrix. Percentiles are linearly interpolated. A nil levels slice falls
// back to DefaultConfidenceLevels.
func Summarize(cumulative Batch, initialBalance float64, levels []int) ([]SummaryRow, error) {
	if err := validateShape(cumulative); err != nil {
		return nil, err
	}

	if levels == nil {
		levels = DefaultConfidenceLevels
	}

	maxDD, err := MaxDrawdowns(cumulative, false)
	if err != nil {
		return nil, err
	}

	finalProfits := make([]float64, len(cumulative))
	for i, final := range cumulative.FinalValues() {
		finalProfits[i] = final - initialBalance
	}

	rows := make([]SummaryRow, 0, len(levels))

	for _, level := range levels {
		netProfit := percentile(finalProfits, float64(level))
		drawdown := percentile(maxDD, float64(level))

		ratio := math.Inf(1)
		if drawdown != 0 {
			ratio = netProfit / drawdown
		}

		// The exponent uses the path count, mirroring the historical
		// behavior of this table.
		annualReturn := math.Pow((netProfit+initialBalance)/initialBalance, 1/float64(len(cumulative))) - 1

		rows = append(rows, SummaryRow{
			ConfidenceLevel:     level,
			NetProfit:           netProfit,
			RExpectancy:         netProfit / initialBalance,
			AnnualReturnPct:     annualReturn * 100,
			MaxDrawdown:         drawdown,
			ReturnDrawdownRatio: ratio,
		})
	}

	return rows, nil
}
