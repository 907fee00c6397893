package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/ledger"
)

// LedgerSource loads raw trade ledgers for normalization. Implementations
// return string cells only; typed coercion is the normalizer's job.
type LedgerSource interface {
	// Initialize points the source at a ledger export file.
	Initialize(path string) error
	// ReadTable reads the ledger, optionally restricted to rows whose
	// timestamp falls inside the given bounds (inclusive). Rows without a
	// recognizable timestamp column are always included.
	ReadTable(start optional.Option[time.Time], end optional.Option[time.Time]) (*ledger.RawTable, error)
	// Count returns the number of data rows the same bounds would yield.
	Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error)
	// Close releases any resources held by the source.
	Close() error
}

// timeColumn picks the column used for time-range filtering: the entry date
// of a canonical export, or the event timestamp of a paired export.
func timeColumn(columns []string) string {
	for _, candidate := range []string{ledger.ColumnEntryDate, ledger.ColumnDateTime} {
		for _, col := range columns {
			if col == candidate {
				return candidate
			}
		}
	}

	return ""
}
