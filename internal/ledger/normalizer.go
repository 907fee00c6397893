package ledger

import (
	"strings"

	"github.com/qmetrics-lab/qmetrics/internal/logger"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Policy carries the sizing and commission constants applied while pairing
// raw entry/exit rows. The defaults are a simplification for forex-style
// exports, not a universal truth; callers may override them via config.
type Policy struct {
	// ContractsPerLot converts a raw contract count to lots.
	ContractsPerLot float64 `yaml:"contracts_per_lot" json:"contractsPerLot" jsonschema:"title=Contracts Per Lot,description=Divisor converting raw contract counts to lots" validate:"gt=0"`
	// CommissionPerLot is the flat commission charged per lot.
	CommissionPerLot float64 `yaml:"commission_per_lot" json:"commissionPerLot" jsonschema:"title=Commission Per Lot,description=Flat commission charged per lot" validate:"gte=0"`
}

// DefaultPolicy returns the historical policy constants.
func DefaultPolicy() Policy {
	return Policy{
		ContractsPerLot:  100000,
		CommissionPerLot: 4.0,
	}
}

// Normalizer turns raw tabular exports into canonical trade ledgers.
type Normalizer struct {
	policy Policy
	rules  SchemaRules
	logger *logger.Logger
}

// NewNormalizer creates a Normalizer. A nil rules slice falls back to
// DefaultSchemaRules, a nil logger to a no-op logger.
func NewNormalizer(policy Policy, rules SchemaRules, log *logger.Logger) *Normalizer {
	if rules == nil {
		rules = DefaultSchemaRules()
	}

	if log == nil {
		log = logger.NewNopLogger()
	}

	return &Normalizer{
		policy: policy,
		rules:  rules,
		logger: log,
	}
}

// Normalize produces a canonical ledger from a raw table, or a structured
// error naming the offending column and source file. The input table is
// never mutated.
//
// Tables already carrying the full canonical column set take the
// pass-through path: date cells are coerced to timestamps and the rows are
// returned as-is. Otherwise entry and exit rows are paired on the trade
// identifier; trades without a matching counterpart are silently dropped.
// That inner-join loss is deliberate, long-standing behavior.
func (n *Normalizer) Normalize(table *RawTable, name string) (*types.TradeLedger, error) {
	if isCanonical(table) {
		return n.passThrough(table, name)
	}

	return n.pairEntriesAndExits(table, name)
}

// passThrough converts an already-canonical table row by row.
func (n *Normalizer) passThrough(table *RawTable, name string) (*types.TradeLedger, error) {
	sizeColumn := ColumnLots
	if !table.HasColumn(ColumnLots) {
		sizeColumn = ColumnContracts
	}

	trades := make([]types.Trade, 0, len(table.Rows))

	for i := range table.Rows {
		entryTime, err := ParseTimestamp(table.Cell(i, ColumnEntryDate))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", ColumnEntryDate, name)
		}

		exitTime, err := ParseTimestamp(table.Cell(i, ColumnExitDate))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", ColumnExitDate, name)
		}

		numeric := map[string]float64{}
		for _, col := range []string{sizeColumn, ColumnEntryPrice, ColumnExitPrice, ColumnProfit, ColumnTotalCommission} {
			value, err := parseNumber(table.Cell(i, col))
			if err != nil {
				return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", col, name)
			}

			numeric[col] = value
		}

		trades = append(trades, types.Trade{
			ID:          table.Cell(i, ColumnTradeID),
			Side:        sideFromType(table.Cell(i, ColumnType)),
			Size:        numeric[sizeColumn],
			EntryTime:   entryTime,
			ExitTime:    exitTime,
			EntryPrice:  numeric[ColumnEntryPrice],
			ExitPrice:   numeric[ColumnExitPrice],
			GrossProfit: numeric[ColumnProfit],
			Commission:  numeric[ColumnTotalCommission],
			NetProfit:   netProfit(numeric[ColumnProfit], numeric[ColumnTotalCommission]),
		})
	}

	n.logger.Debug("normalized canonical ledger",
		zap.String("file", name),
		zap.Int("trades", len(trades)),
	)

	return &types.TradeLedger{Name: name, Trades: trades}, nil
}

// pairEntriesAndExits joins raw entry and exit rows on the trade identifier.
func (n *Normalizer) pairEntriesAndExits(table *RawTable, name string) (*types.TradeLedger, error) {
	for _, col := range []string{ColumnType, ColumnTradeID, ColumnDateTime, ColumnContracts} {
		if !table.HasColumn(col) {
			return nil, errors.Newf(errors.ErrCodeMissingColumn, "column %q not found in file %s", col, name)
		}
	}

	priceColumn, ok := n.rules.Find(table.Columns, RolePrice)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeAmbiguousSchema, "no price column found in file %s", name)
	}

	profitColumn, ok := n.rules.Find(table.Columns, RoleProfit)
	if !ok {
		return nil, errors.Newf(errors.ErrCodeAmbiguousSchema, "no profit column found in file %s", name)
	}

	var entryRows, exitRows []int

	for i := range table.Rows {
		rowType := strings.ToLower(table.Cell(i, ColumnType))
		switch {
		case strings.Contains(rowType, "entry"):
			entryRows = append(entryRows, i)
		case strings.Contains(rowType, "exit"):
			exitRows = append(exitRows, i)
		}
	}

	if len(entryRows) == 0 || len(exitRows) == 0 {
		return nil, errors.Newf(errors.ErrCodeIncompleteTradePair,
			"file %s must contain both entry and exit rows, or be in canonical format", name)
	}

	// First exit row per trade identifier. Identifiers are unique within a
	// well-formed export, so later duplicates are ignored.
	exitByID := make(map[string]int, len(exitRows))
	for _, row := range exitRows {
		id := table.Cell(row, ColumnTradeID)
		if _, seen := exitByID[id]; !seen {
			exitByID[id] = row
		}
	}

	trades := make([]types.Trade, 0, len(entryRows))

	for _, entryRow := range entryRows {
		id := table.Cell(entryRow, ColumnTradeID)

		exitRow, matched := exitByID[id]
		if !matched {
			// Inner join semantics: unpaired entries are dropped.
			continue
		}

		entryTime, err := ParseTimestamp(table.Cell(entryRow, ColumnDateTime))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", ColumnDateTime, name)
		}

		exitTime, err := ParseTimestamp(table.Cell(exitRow, ColumnDateTime))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", ColumnDateTime, name)
		}

		contracts, err := parseNumber(table.Cell(entryRow, ColumnContracts))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", ColumnContracts, name)
		}

		entryPrice, err := parseNumber(table.Cell(entryRow, priceColumn))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", priceColumn, name)
		}

		exitPrice, err := parseNumber(table.Cell(exitRow, priceColumn))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", priceColumn, name)
		}

		grossProfit, err := parseNumber(table.Cell(exitRow, profitColumn))
		if err != nil {
			return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %q in file %s", profitColumn, name)
		}

		lots := contracts / n.policy.ContractsPerLot
		commission, _ := decimal.NewFromFloat(lots).Mul(decimal.NewFromFloat(n.policy.CommissionPerLot)).Float64()

		trades = append(trades, types.Trade{
			ID:          id,
			Side:        sideFromType(table.Cell(entryRow, ColumnType)),
			Size:        lots,
			EntryTime:   entryTime,
			ExitTime:    exitTime,
			EntryPrice:  entryPrice,
			ExitPrice:   exitPrice,
			GrossProfit: grossProfit,
			Commission:  commission,
			NetProfit:   netProfit(grossProfit, commission),
		})
	}

	n.logger.Debug("paired raw ledger",
		zap.String("file", name),
		zap.Int("entries", len(entryRows)),
		zap.Int("exits", len(exitRows)),
		zap.Int("paired", len(trades)),
	)

	return &types.TradeLedger{Name: name, Trades: trades}, nil
}

// netProfit computes gross minus commission with decimal arithmetic so the
// canonical invariant survives float formatting round trips.
func netProfit(gross, commission float64) float64 {
	net, _ := decimal.NewFromFloat(gross).Sub(decimal.NewFromFloat(commission)).Float64()

	return net
}

// sideFromType derives the trade side from a raw Type cell such as
// "Entry Long" or "Exit Short".
func sideFromType(rowType string) types.TradeSide {
	lowered := strings.ToLower(rowType)
	switch {
	case strings.Contains(lowered, "long"):
		return types.SideLong
	case strings.Contains(lowered, "short"):
		return types.SideShort
	default:
		return types.SideUnspecified
	}
}
