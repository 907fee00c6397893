package aggregate

import (
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// PortfolioName is the ledger name of a combined portfolio.
const PortfolioName = "portfolio"

// CombinePortfolio merges several strategies' ledgers into one portfolio
// ledger sorted by entry time. scaling holds one risk multiplier per ledger,
// applied to every money column of that ledger's trades; nil means every
// strategy enters at full size.
func CombinePortfolio(ledgers []*types.TradeLedger, scaling []float64) (*types.TradeLedger, error) {
	if len(ledgers) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidParameter, "portfolio needs at least one ledger")
	}

	if scaling != nil && len(scaling) != len(ledgers) {
		return nil, errors.Newf(errors.ErrCodeInvalidParameter,
			"got %d scaling factors for %d ledgers", len(scaling), len(ledgers))
	}

	total := 0
	for _, l := range ledgers {
		if l != nil {
			total += len(l.Trades)
		}
	}

	combined := make([]types.Trade, 0, total)

	for i, l := range ledgers {
		if l == nil {
			continue
		}

		factor := 1.0
		if scaling != nil {
			factor = scaling[i]
		}

		for _, trade := range l.Trades {
			trade.GrossProfit *= factor
			trade.Commission *= factor
			trade.NetProfit *= factor
			combined = append(combined, trade)
		}
	}

	merged := &types.TradeLedger{
		Name:   PortfolioName,
		Trades: combined,
	}

	return merged.SortedByEntryTime(), nil
}
