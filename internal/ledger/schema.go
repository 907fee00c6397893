package ledger

import (
	"strings"
)

// Canonical column names of a normalized ledger file.
const (
	ColumnTradeID         = "Trade #"
	ColumnType            = "Type"
	ColumnLots            = "lots"
	ColumnContracts       = "Contracts"
	ColumnEntryDate       = "Entry Date"
	ColumnExitDate        = "Exit Date"
	ColumnEntryPrice      = "Entry Price"
	ColumnExitPrice       = "Exit Price"
	ColumnProfit          = "Profit"
	ColumnTotalCommission = "Total Commission"
	ColumnNetProfit       = "Net Profit"
)

// Raw (pre-normalization) column names.
const (
	ColumnDateTime = "Date/Time"
)

// ColumnRule maps a column-name predicate to the canonical role the first
// matching column fills. Rules are evaluated in order against the raw header,
// so earlier rules win.
type ColumnRule struct {
	// Role is the canonical name the matched column is assigned to.
	Role string
	// Match reports whether a raw column name fills this role.
	Match func(column string) bool
}

// SchemaRules is an ordered rule table for discovering loosely-named columns
// in raw exports.
type SchemaRules []ColumnRule

// Find returns the first column among columns matched by the rule for the
// given role. The bool result is false when no rule or no column matches.
func (r SchemaRules) Find(columns []string, role string) (string, bool) {
	for _, rule := range r {
		if rule.Role != role {
			continue
		}

		for _, col := range columns {
			if rule.Match(col) {
				return col, true
			}
		}
	}

	return "", false
}

// Roles used by the default schema rules.
const (
	RolePrice  = "price"
	RoleProfit = "profit"
)

// DefaultSchemaRules reproduces the historical detection behavior: the price
// column is the first one whose name starts with "Price", the profit column
// is the first one whose name contains "Profit".
func DefaultSchemaRules() SchemaRules {
	return SchemaRules{
		{
			Role: RolePrice,
			Match: func(column string) bool {
				return strings.HasPrefix(column, "Price")
			},
		},
		{
			Role: RoleProfit,
			Match: func(column string) bool {
				return strings.Contains(column, "Profit")
			},
		},
	}
}

// canonicalColumns is the full column set of an already-normalized file.
// "lots" and "Contracts" are interchangeable size columns.
var canonicalColumns = []string{
	ColumnTradeID,
	ColumnType,
	ColumnEntryDate,
	ColumnExitDate,
	ColumnEntryPrice,
	ColumnExitPrice,
	ColumnProfit,
	ColumnTotalCommission,
	ColumnNetProfit,
}

// isCanonical reports whether the table already carries the full canonical
// column set.
func isCanonical(table *RawTable) bool {
	if !table.HasColumns(canonicalColumns...) {
		return false
	}

	return table.HasColumn(ColumnLots) || table.HasColumn(ColumnContracts)
}
