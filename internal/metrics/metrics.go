package metrics

import (
	"math"
	"strconv"

	"github.com/qmetrics-lab/qmetrics/internal/logger"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"go.uber.org/zap"
)

// DefaultRiskFreeRate is the annual risk-free rate assumed when none is
// configured.
const DefaultRiskFreeRate = 0.02

// tradingDaysPerYear annualizes daily return statistics.
const tradingDaysPerYear = 252

// Options configures a metrics computation.
type Options struct {
	// DateField selects the trade timestamp used for day bucketing.
	DateField DateField
	// InitialBalance is the starting account balance.
	InitialBalance float64
	// RiskFreeRate is the annual risk-free rate for Sharpe/Sortino.
	RiskFreeRate float64
	// IncludeBuyAndHold adds the buy-and-hold benchmark metrics.
	IncludeBuyAndHold bool
}

// DefaultOptions returns the historical defaults.
func DefaultOptions() Options {
	return Options{
		DateField:         DateFieldEntry,
		InitialBalance:    10000,
		RiskFreeRate:      DefaultRiskFreeRate,
		IncludeBuyAndHold: true,
	}
}

// Engine computes performance statistics from canonical ledgers.
type Engine struct {
	logger *logger.Logger
}

// NewEngine creates a metrics engine. A nil logger falls back to a no-op
// logger.
func NewEngine(log *logger.Logger) *Engine {
	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Engine{logger: log}
}

// Compute derives the full metric report and equity curve for a ledger.
// The boundary is failure-safe: internal errors are logged with the ledger
// name and reported as an absent result (nil, nil), never propagated, so a
// batch of independent ledgers can partially succeed.
func (e *Engine) Compute(ledger *types.TradeLedger, opts Options) (*types.MetricsReport, types.EquityCurve) {
	report, curve, err := e.compute(ledger, opts)
	if err != nil {
		e.logger.Error("metrics computation failed",
			zap.String("ledger", ledgerName(ledger)),
			zap.Error(err),
		)

		return nil, nil
	}

	return report, curve
}

func (e *Engine) compute(ledger *types.TradeLedger, opts Options) (*types.MetricsReport, types.EquityCurve, error) {
	if ledger == nil {
		return nil, nil, errors.New(errors.ErrCodeInvalidParameter, "ledger is nil")
	}

	if opts.DateField == "" {
		opts.DateField = DateFieldEntry
	}

	sorted := sortedByField(ledger, opts.DateField)
	profits := sorted.NetProfits()
	report := &types.MetricsReport{Strategy: ledger.Name}

	numberOfTrades := len(profits)

	var totalProfit float64

	winningTrades := 0

	var wins, losses []float64

	for _, p := range profits {
		totalProfit += p

		if p > 0 {
			winningTrades++

			wins = append(wins, p)
		} else if p < 0 {
			losses = append(losses, p)
		}
	}

	winningPercentage := 0.0
	if numberOfTrades > 0 {
		winningPercentage = float64(winningTrades) / float64(numberOfTrades) * 100
	}

	averageWin := mean(wins)
	averageLoss := mean(losses)

	riskRewardRatio := math.Inf(1)
	if averageWin != 0 {
		riskRewardRatio = math.Abs(averageLoss) / averageWin
	}

	totalNetProfitPct := 0.0
	if opts.InitialBalance != 0 {
		totalNetProfitPct = totalProfit / opts.InitialBalance * 100
	}

	curve := BuildEquityCurve(sorted, opts.DateField, opts.InitialBalance)
	balances := curve.Balances()
	returns := curve.Returns()

	expectedShortfall := worstMean(returns, int(0.05*float64(len(curve))))

	tradesStdDev := sampleStd(profits)
	expectancy := mean(profits)

	sqn := 0.0
	if tradesStdDev != 0 {
		sqn = expectancy / tradesStdDev * math.Sqrt(float64(numberOfTrades))
	}

	meanDailyReturn := mean(returns)
	stdDailyReturn := sampleStd(returns)
	dailyRiskFree := opts.RiskFreeRate / tradingDaysPerYear

	sharpeRatio := 0.0
	if stdDailyReturn != 0 {
		sharpeRatio = (meanDailyReturn - dailyRiskFree) / stdDailyReturn * math.Sqrt(tradingDaysPerYear)
	}

	var downside []float64

	for _, r := range returns {
		if r < dailyRiskFree {
			downside = append(downside, r)
		}
	}

	downsideDeviation := sampleStd(downside)

	sortinoRatio := 0.0
	if downsideDeviation != 0 {
		sortinoRatio = (meanDailyReturn - dailyRiskFree) / downsideDeviation * math.Sqrt(tradingDaysPerYear)
	}

	years := 1.0

	if numberOfTrades > 0 {
		startDate := opts.DateField.of(sorted.Trades[0])
		endDate := opts.DateField.of(sorted.Trades[numberOfTrades-1])

		if days := endDate.Sub(startDate).Hours() / 24; days > 0 {
			years = days / 365.25
		}
	}

	endingBalance := opts.InitialBalance + totalProfit

	cagr := 0.0
	if endingBalance > 0 && opts.InitialBalance > 0 && years > 0 {
		cagr = math.Pow(endingBalance/opts.InitialBalance, 1/years) - 1
	}

	annualVolatility := stdDailyReturn * math.Sqrt(tradingDaysPerYear)
	annualReturnDollar := totalProfit / years

	maxDrawdown := MaxDrawdown(balances)

	percentageDrawdown := 0.0
	if opts.InitialBalance != 0 {
		percentageDrawdown = maxDrawdown / opts.InitialBalance * 100
	}

	drawdownPeriod := MaxDrawdownPeriod(balances)

	if opts.IncludeBuyAndHold && numberOfTrades > 0 {
		benchmark := BuyAndHold(sorted, opts.DateField, opts.InitialBalance)
		report.Append("Buy and Hold Return ($)", formatCurrency(benchmark.ReturnDollar))
		report.Append("Buy and Hold Return (%)", formatPercent(benchmark.ReturnPercent))
	}

	report.Append("# of Trades", strconv.Itoa(numberOfTrades))
	report.Append("Win Rate (%)", formatPercent(winningPercentage))
	report.Append("Risk-Reward Ratio", formatFloat(riskRewardRatio, 2))
	report.Append("Total Net Profit ($)", formatCurrency(totalProfit))
	report.Append("Total Net Profit (%)", formatPercent(totalNetProfitPct))
	report.Append("Max Drawdown ($)", formatCurrency(maxDrawdown))
	report.Append("Max Drawdown (%)", formatPercent(percentageDrawdown))
	report.Append("Max Drawdown Period (days)", strconv.Itoa(drawdownPeriod))
	report.Append("Expected Shortfall (5%)", formatFloat(expectedShortfall, 4))
	report.Append("Strategy Quality Number", formatFloat(sqn, 2)+" ("+InterpretSQN(sqn)+")")
	report.Append("Sharpe Ratio", formatFloat(sharpeRatio, 2))
	report.Append("Sortino Ratio", formatFloat(sortinoRatio, 2))
	report.Append("CAGR", formatPercent(cagr*100))
	report.Append("Annualized Return ($)", formatCurrency(annualReturnDollar))
	report.Append("Volatility (Annualized)", formatPercent(annualVolatility))
	report.Append("Max Consecutive Losses", strconv.Itoa(MaxConsecutiveLosses(profits)))
	report.Append("Max Consecutive Wins", strconv.Itoa(MaxConsecutiveWins(profits)))
	report.Append("Stability (R^2)", formatFloat(Stability(balances), 2))

	e.logger.Debug("metrics computed",
		zap.String("ledger", ledger.Name),
		zap.Int("trades", numberOfTrades),
		zap.Int("days", len(curve)),
	)

	return report, curve, nil
}

func ledgerName(ledger *types.TradeLedger) string {
	if ledger == nil {
		return ""
	}

	return ledger.Name
}
