package datasource

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/ledger"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// MemoryLedgerSource serves pre-built raw tables keyed by path. It exists for
// tests and for callers that already hold a parsed table in memory.
type MemoryLedgerSource struct {
	tables  map[string]*ledger.RawTable
	current *ledger.RawTable
	timeCol string
}

// NewMemoryLedgerSource builds a source over the given tables.
func NewMemoryLedgerSource(tables map[string]*ledger.RawTable) *MemoryLedgerSource {
	return &MemoryLedgerSource{tables: tables}
}

// Initialize implements LedgerSource.
func (m *MemoryLedgerSource) Initialize(path string) error {
	table, ok := m.tables[path]
	if !ok {
		return errors.Newf(errors.ErrCodeDataSourceUnavailable, "no table registered for %s", path)
	}

	m.current = table
	m.timeCol = timeColumn(table.Columns)

	return nil
}

// ReadTable implements LedgerSource.
func (m *MemoryLedgerSource) ReadTable(start optional.Option[time.Time], end optional.Option[time.Time]) (*ledger.RawTable, error) {
	if m.current == nil {
		return nil, errors.New(errors.ErrCodeDataSourceUnavailable, "source is not initialized")
	}

	table := &ledger.RawTable{Columns: m.current.Columns}

	for i, row := range m.current.Rows {
		if m.inRange(i, start, end) {
			table.Rows = append(table.Rows, row)
		}
	}

	if len(table.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "ledger has no rows in the requested range")
	}

	return table, nil
}

// Count implements LedgerSource.
func (m *MemoryLedgerSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	if m.current == nil {
		return 0, errors.New(errors.ErrCodeDataSourceUnavailable, "source is not initialized")
	}

	count := 0

	for i := range m.current.Rows {
		if m.inRange(i, start, end) {
			count++
		}
	}

	return count, nil
}

// Close implements LedgerSource.
func (m *MemoryLedgerSource) Close() error {
	m.current = nil

	return nil
}

func (m *MemoryLedgerSource) inRange(row int, start optional.Option[time.Time], end optional.Option[time.Time]) bool {
	if m.timeCol == "" || (start.IsNone() && end.IsNone()) {
		return true
	}

	ts, err := ledger.ParseTimestamp(m.current.Cell(row, m.timeCol))
	if err != nil {
		// Unparseable timestamps pass through; the normalizer reports them.
		return true
	}

	if start.IsSome() && ts.Before(start.Unwrap()) {
		return false
	}

	if end.IsSome() && ts.After(end.Unwrap()) {
		return false
	}

	return true
}
