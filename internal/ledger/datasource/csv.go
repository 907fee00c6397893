package datasource

import (
	"os"

	"github.com/gocarina/gocsv"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
)

// ReadCanonicalCSV loads an already-normalized ledger written by
// WriteCanonicalCSV. The file name becomes the ledger name.
func ReadCanonicalCSV(path string) (*types.TradeLedger, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(errors.ErrCodeDataSourceUnavailable, err, "failed to open %s", path)
	}
	defer file.Close()

	var trades []types.Trade
	if err := gocsv.UnmarshalFile(file, &trades); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeColumnParseFailed, err, "failed to parse %s", path)
	}

	return &types.TradeLedger{Name: path, Trades: trades}, nil
}

// WriteCanonicalCSV writes a normalized ledger as CSV so downstream runs can
// skip normalization.
func WriteCanonicalCSV(path string, ledger *types.TradeLedger) error {
	file, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create %s", path)
	}
	defer file.Close()

	if err := gocsv.MarshalFile(&ledger.Trades, file); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
