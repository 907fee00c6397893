package datasource

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/squirrel"
	_ "github.com/marcboeker/go-duckdb"
	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/ledger"
	"github.com/qmetrics-lab/qmetrics/internal/logger"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"go.uber.org/zap"
)

const ledgerView = "trade_ledger"

// DuckDBLedgerSource reads ledger exports through DuckDB's CSV reader. Every
// cell is read as varchar so broker-specific formatting ("$1,234.56",
// parenthesized negatives) survives untouched until the normalizer coerces
// it.
type DuckDBLedgerSource struct {
	db      *sql.DB
	logger  *logger.Logger
	sq      squirrel.StatementBuilderType
	timeCol string
}

// NewDuckDBLedgerSource opens a DuckDB instance at the given database path.
// Use ":memory:" (or the empty string) for a throwaway in-process database.
func NewDuckDBLedgerSource(path string, l *logger.Logger) (*DuckDBLedgerSource, error) {
	if l == nil {
		l = logger.NewNopLogger()
	}

	db, err := sql.Open("duckdb", path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to open duckdb", err)
	}

	return &DuckDBLedgerSource{
		db:     db,
		logger: l,
		sq:     squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}, nil
}

// Initialize creates a view over the CSV export. all_varchar disables
// DuckDB's type sniffing so the raw text reaches the normalizer verbatim.
func (d *DuckDBLedgerSource) Initialize(path string) error {
	d.logger.Debug("initializing ledger view", zap.String("path", path))

	if _, err := d.db.Exec(fmt.Sprintf(`DROP VIEW IF EXISTS %s;`, ledgerView)); err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to drop existing view", err)
	}

	query := fmt.Sprintf(`
		CREATE VIEW %s AS
		SELECT * FROM read_csv(%s, all_varchar=true, header=true);
	`, ledgerView, quoteLiteral(path))

	if _, err := d.db.Exec(query); err != nil {
		return errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to read ledger %s", path)
	}

	columns, err := d.viewColumns()
	if err != nil {
		return err
	}

	d.timeCol = timeColumn(columns)

	return nil
}

// ReadTable implements LedgerSource.
func (d *DuckDBLedgerSource) ReadTable(start optional.Option[time.Time], end optional.Option[time.Time]) (*ledger.RawTable, error) {
	builder := d.boundedSelect("*", start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build ledger query", err)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to query ledger", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read ledger columns", err)
	}

	table := &ledger.RawTable{Columns: columns}

	for rows.Next() {
		cells := make([]sql.NullString, len(columns))
		scan := make([]interface{}, len(columns))

		for i := range cells {
			scan[i] = &cells[i]
		}

		if err := rows.Scan(scan...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan ledger row", err)
		}

		row := make([]string, len(columns))
		for i, cell := range cells {
			row[i] = cell.String
		}

		table.Rows = append(table.Rows, row)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to iterate ledger rows", err)
	}

	if len(table.Rows) == 0 {
		return nil, errors.New(errors.ErrCodeNoDataFound, "ledger has no rows in the requested range")
	}

	return table, nil
}

// Count implements LedgerSource.
func (d *DuckDBLedgerSource) Count(start optional.Option[time.Time], end optional.Option[time.Time]) (int, error) {
	builder := d.boundedSelect("COUNT(*)", start, end)

	query, args, err := builder.ToSql()
	if err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to build count query", err)
	}

	var count int
	if err := d.db.QueryRow(query, args...).Scan(&count); err != nil {
		return 0, errors.Wrap(errors.ErrCodeQueryFailed, "failed to count ledger rows", err)
	}

	return count, nil
}

// Close implements LedgerSource.
func (d *DuckDBLedgerSource) Close() error {
	return d.db.Close()
}

// boundedSelect builds a SELECT over the ledger view with optional time
// bounds on the detected timestamp column. Without such a column the bounds
// are ignored.
func (d *DuckDBLedgerSource) boundedSelect(what string, start optional.Option[time.Time], end optional.Option[time.Time]) squirrel.SelectBuilder {
	builder := d.sq.Select(what).From(ledgerView)

	if d.timeCol == "" {
		return builder
	}

	cast := fmt.Sprintf("try_cast(%q AS TIMESTAMP)", d.timeCol)

	if start.IsSome() {
		builder = builder.Where(squirrel.Expr(cast+" >= ?", start.Unwrap()))
	}

	if end.IsSome() {
		builder = builder.Where(squirrel.Expr(cast+" <= ?", end.Unwrap()))
	}

	return builder
}

// quoteLiteral renders s as a single-quoted SQL string literal. Embedded
// quotes are doubled, so file names like "it's.csv" stay intact.
func quoteLiteral(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}

func (d *DuckDBLedgerSource) viewColumns() ([]string, error) {
	rows, err := d.db.Query(fmt.Sprintf(`DESCRIBE %s;`, ledgerView))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to describe ledger view", err)
	}
	defer rows.Close()

	described, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to read describe columns", err)
	}

	var columns []string

	for rows.Next() {
		cells := make([]sql.NullString, len(described))
		scan := make([]interface{}, len(described))

		for i := range cells {
			scan[i] = &cells[i]
		}

		if err := rows.Scan(scan...); err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to scan describe row", err)
		}

		// DESCRIBE puts the column name first.
		columns = append(columns, cells[0].String)
	}

	return columns, rows.Err()
}
