package types

import (
	"sort"
	"time"
)

// TradeSide identifies the direction of a trade.
type TradeSide string

const (
	SideLong        TradeSide = "long"
	SideShort       TradeSide = "short"
	SideUnspecified TradeSide = "unspecified"
)

// Trade is a single canonical ledger record. Instances are created once by
// the normalizer and never mutated afterwards; derived views (equity curves,
// simulations) copy what they need.
type Trade struct {
	// ID is the trade identifier. Unique within a ledger, not globally.
	ID string `csv:"trade_id" yaml:"trade_id"`
	// Side of the trade (long/short/unspecified).
	Side TradeSide `csv:"side" yaml:"side"`
	// Size is the traded quantity in lots. May be fractional.
	Size float64 `csv:"size" yaml:"size"`
	// EntryTime is when the position was opened.
	EntryTime time.Time `csv:"entry_time" yaml:"entry_time"`
	// ExitTime is when the position was closed.
	ExitTime time.Time `csv:"exit_time" yaml:"exit_time"`
	// EntryPrice is the fill price at entry.
	EntryPrice float64 `csv:"entry_price" yaml:"entry_price"`
	// ExitPrice is the fill price at exit.
	ExitPrice float64 `csv:"exit_price" yaml:"exit_price"`
	// GrossProfit is the signed profit before commission.
	GrossProfit float64 `csv:"gross_profit" yaml:"gross_profit"`
	// Commission charged for the round trip.
	Commission float64 `csv:"commission" yaml:"commission"`
	// NetProfit is GrossProfit minus Commission.
	NetProfit float64 `csv:"net_profit" yaml:"net_profit"`
}

// TradeLedger is an ordered sequence of canonical trades. Order is the
// original upload order until a caller sorts a copy by date.
type TradeLedger struct {
	// Name identifies the ledger in error messages and reports,
	// usually the source file name.
	Name string
	// Trades holds the canonical records.
	Trades []Trade
}

// Len returns the number of trades in the ledger.
func (l *TradeLedger) Len() int {
	return len(l.Trades)
}

// NetProfits returns the net profit of every trade in ledger order.
func (l *TradeLedger) NetProfits() []float64 {
	profits := make([]float64, len(l.Trades))
	for i, t := range l.Trades {
		profits[i] = t.NetProfit
	}

	return profits
}

// GrossProfits returns the gross (pre-commission) profit of every trade in
// ledger order.
func (l *TradeLedger) GrossProfits() []float64 {
	profits := make([]float64, len(l.Trades))
	for i, t := range l.Trades {
		profits[i] = t.GrossProfit
	}

	return profits
}

// SortedByEntryTime returns a copy of the ledger sorted by entry time.
// The receiver is left untouched.
func (l *TradeLedger) SortedByEntryTime() *TradeLedger {
	sorted := make([]Trade, len(l.Trades))
	copy(sorted, l.Trades)

	// Stable sort keeps upload order for same-day trades.
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].EntryTime.Before(sorted[j].EntryTime)
	})

	return &TradeLedger{
		Name:   l.Name,
		Trades: sorted,
	}
}
