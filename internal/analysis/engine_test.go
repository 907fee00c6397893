package analysis

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/ledger"
	"github.com/qmetrics-lab/qmetrics/internal/ledger/datasource"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"github.com/stretchr/testify/suite"
)

type EngineTestSuite struct {
	suite.Suite
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineTestSuite))
}

// ledgerTable builds a paired export with one trade per (date, profit) pair.
func ledgerTable(rows ...[2]string) *ledger.RawTable {
	table := &ledger.RawTable{
		Columns: []string{
			ledger.ColumnTradeID,
			ledger.ColumnType,
			ledger.ColumnDateTime,
			ledger.ColumnContracts,
			"Price",
			"Profit",
		},
	}

	for i, row := range rows {
		id := string(rune('1' + i))
		table.Rows = append(table.Rows,
			[]string{id, "Entry long", row[0] + " 09:30:00", "100000", "1.10", ""},
			[]string{id, "Exit long", row[0] + " 15:00:00", "100000", "1.11", row[1]},
		)
	}

	return table
}

// newTestEngine wires an engine over in-memory tables. Files matching the
// table keys are created on disk so the glob in SetLedgerPath resolves.
func (suite *EngineTestSuite) newTestEngine(config string, tables map[string]*ledger.RawTable) (*Engine, string) {
	dir := suite.T().TempDir()

	registered := make(map[string]*ledger.RawTable, len(tables))

	for name, table := range tables {
		path := filepath.Join(dir, name)
		suite.Require().NoError(os.WriteFile(path, []byte("placeholder"), 0644))
		registered[path] = table
	}

	engine := NewEngine()
	suite.Require().NoError(engine.Initialize(config))
	engine.SetDataSource(datasource.NewMemoryLedgerSource(registered))
	engine.SetResultsFolder(filepath.Join(dir, "results"))
	suite.Require().NoError(engine.SetLedgerPath(filepath.Join(dir, "*.csv")))

	return engine, filepath.Join(dir, "results")
}

func (suite *EngineTestSuite) TestRunWritesResultFolders() {
	config := "simulation:\n  num_simulations: 50\n  seed: 7\n"

	engine, results := suite.newTestEngine(config, map[string]*ledger.RawTable{
		"alpha.csv": ledgerTable([2]string{"2025-01-02", "150"}, [2]string{"2025-01-03", "-40"}, [2]string{"2025-02-04", "90"}),
		"beta.csv":  ledgerTable([2]string{"2025-01-02", "-30"}, [2]string{"2025-01-05", "120"}),
	})

	var progress [][2]int

	callback := OnLedgerCallback(func(completed, total int) {
		progress = append(progress, [2]int{completed, total})
	})

	suite.Require().NoError(engine.Run(optional.Some(callback)))
	suite.Equal([][2]int{{1, 2}, {2, 2}}, progress)

	for _, name := range []string{"alpha", "beta"} {
		folder := filepath.Join(results, name)

		for _, file := range []string{"stats.yaml", "trades.csv", "equity.yaml", "simulation.yaml", "monthly.yaml"} {
			_, err := os.Stat(filepath.Join(folder, file))
			suite.NoError(err, "%s/%s should exist", name, file)
		}
	}

	_, err := os.Stat(filepath.Join(results, "correlation.yaml"))
	suite.NoError(err)

	// Two surviving ledgers also produce a combined-portfolio folder.
	for _, file := range []string{"stats.yaml", "trades.csv", "equity.yaml", "monthly.yaml"} {
		_, err := os.Stat(filepath.Join(results, "portfolio", file))
		suite.NoError(err, "portfolio/%s should exist", file)
	}
}

func (suite *EngineTestSuite) TestRunPartialFailure() {
	broken := &ledger.RawTable{
		Columns: []string{"Unrelated"},
		Rows:    [][]string{{"x"}},
	}

	engine, results := suite.newTestEngine("simulation:\n  num_simulations: 20\n", map[string]*ledger.RawTable{
		"good.csv": ledgerTable([2]string{"2025-01-02", "150"}, [2]string{"2025-01-03", "-40"}),
		"bad.csv":  broken,
	})

	suite.Require().NoError(engine.Run(optional.None[OnLedgerCallback]()))

	_, err := os.Stat(filepath.Join(results, "good", "stats.yaml"))
	suite.NoError(err)

	_, err = os.Stat(filepath.Join(results, "bad", "stats.yaml"))
	suite.True(os.IsNotExist(err))

	// A single surviving ledger produces no correlation matrix and no
	// combined portfolio.
	_, err = os.Stat(filepath.Join(results, "correlation.yaml"))
	suite.True(os.IsNotExist(err))

	_, err = os.Stat(filepath.Join(results, "portfolio"))
	suite.True(os.IsNotExist(err))
}

func (suite *EngineTestSuite) TestRunRecreatesResultsFolder() {
	engine, results := suite.newTestEngine("simulation:\n  num_simulations: 20\n", map[string]*ledger.RawTable{
		"alpha.csv": ledgerTable([2]string{"2025-01-02", "150"}, [2]string{"2025-01-03", "-40"}),
	})

	suite.Require().NoError(os.MkdirAll(results, 0755))
	stale := filepath.Join(results, "stale.yaml")
	suite.Require().NoError(os.WriteFile(stale, []byte("old"), 0644))

	suite.Require().NoError(engine.Run(optional.None[OnLedgerCallback]()))

	_, err := os.Stat(stale)
	suite.True(os.IsNotExist(err))
}

func (suite *EngineTestSuite) TestRunReportsBlockedResultsFolder() {
	engine, _ := suite.newTestEngine("", map[string]*ledger.RawTable{
		"alpha.csv": ledgerTable([2]string{"2025-01-02", "150"}),
	})

	// A regular file in the folder's path makes it impossible to clear.
	blocker := filepath.Join(suite.T().TempDir(), "blocker")
	suite.Require().NoError(os.WriteFile(blocker, []byte("x"), 0644))
	engine.SetResultsFolder(filepath.Join(blocker, "results"))

	err := engine.Run(optional.None[OnLedgerCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeReportWriteFailed))
}

func (suite *EngineTestSuite) TestPreRunChecks() {
	engine := NewEngine()

	err := engine.Run(optional.None[OnLedgerCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	suite.Require().NoError(engine.Initialize(""))

	err = engine.Run(optional.None[OnLedgerCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))

	engine.SetDataSource(datasource.NewMemoryLedgerSource(nil))

	err = engine.Run(optional.None[OnLedgerCallback]())
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}

func (suite *EngineTestSuite) TestInitializeRejectsBadConfig() {
	engine := NewEngine()
	err := engine.Initialize("initial_balance: -1")
	suite.True(errors.HasCode(err, errors.ErrCodeInvalidConfiguration))
}
