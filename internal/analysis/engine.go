package analysis

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/aggregate"
	"github.com/qmetrics-lab/qmetrics/internal/ledger"
	"github.com/qmetrics-lab/qmetrics/internal/ledger/datasource"
	"github.com/qmetrics-lab/qmetrics/internal/logger"
	"github.com/qmetrics-lab/qmetrics/internal/metrics"
	"github.com/qmetrics-lab/qmetrics/internal/montecarlo"
	"github.com/qmetrics-lab/qmetrics/internal/types"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// OnLedgerCallback reports progress after each ledger finishes.
type OnLedgerCallback func(completed int, total int)

// Engine orchestrates a full analysis run: it loads every ledger export,
// normalizes it, computes the metric report, runs the Monte Carlo simulation
// and the monthly pivot, and writes one result folder per ledger plus a
// cross-strategy correlation matrix and a combined-portfolio folder.
//
// Ledgers fail independently: a broken export is logged and skipped while
// the rest of the batch completes.
type Engine struct {
	config        AnalysisConfig
	ledgerPaths   []string
	resultsFolder string
	log           *logger.Logger
	source        datasource.LedgerSource
}

// NewEngine creates an uninitialized analysis engine.
func NewEngine() *Engine {
	return &Engine{
		config: DefaultConfig(),
	}
}

// Initialize parses and validates the YAML config and sets up logging.
func (e *Engine) Initialize(config string) error {
	parsed, err := ParseConfig(config)
	if err != nil {
		return err
	}

	e.config = parsed

	e.log, err = logger.NewLogger()
	if err != nil {
		return err
	}

	e.log.Debug("analysis engine initialized",
		zap.Float64("initial_balance", e.config.InitialBalance),
		zap.String("date_field", string(e.config.DateField)),
	)

	return nil
}

// SetLedgerPath registers the ledger exports to analyze. Glob patterns are
// expanded and converted to absolute paths.
func (e *Engine) SetLedgerPath(path string) error {
	files, err := filepath.Glob(path)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "bad ledger path pattern %s", path)
	}

	absolutePaths := make([]string, len(files))

	for i, file := range files {
		absPath, err := filepath.Abs(file)
		if err != nil {
			return errors.Wrapf(errors.ErrCodeInvalidParameter, err, "failed to resolve %s", file)
		}

		absolutePaths[i] = absPath
	}

	e.ledgerPaths = absolutePaths

	if e.log != nil {
		e.log.Debug("ledger paths set", zap.Strings("files", absolutePaths))
	}

	return nil
}

// SetResultsFolder sets the output directory. It is recreated on every run.
func (e *Engine) SetResultsFolder(folder string) {
	e.resultsFolder = folder
}

// SetDataSource sets the ledger source used to read exports.
func (e *Engine) SetDataSource(source datasource.LedgerSource) {
	e.source = source
}

// GetConfigSchema returns the JSON schema of the engine configuration.
func (e *Engine) GetConfigSchema() (string, error) {
	return e.config.GenerateSchemaJSON()
}

// Run executes the analysis over every registered ledger.
func (e *Engine) Run(onLedger optional.Option[OnLedgerCallback]) error {
	if err := e.preRunCheck(); err != nil {
		return err
	}

	if err := os.RemoveAll(e.resultsFolder); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to clear results folder %s", e.resultsFolder)
	}

	if err := os.MkdirAll(e.resultsFolder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create results folder %s", e.resultsFolder)
	}

	runID := uuid.New().String()
	normalizer := ledger.NewNormalizer(e.config.Ledger, nil, e.log)
	metricsEngine := metrics.NewEngine(e.log)

	var analyzed []*types.TradeLedger

	for i, path := range e.ledgerPaths {
		result, err := e.analyzeLedger(path, runID, normalizer, metricsEngine)
		if err != nil {
			// Partial failure: the remaining ledgers still run.
			e.log.Error("ledger analysis failed",
				zap.String("ledger", path),
				zap.Error(err),
			)
		} else {
			analyzed = append(analyzed, result)
		}

		if onLedger.IsSome() {
			onLedger.Unwrap()(i+1, len(e.ledgerPaths))
		}
	}

	if len(analyzed) >= 2 {
		if err := e.writeCorrelation(analyzed); err != nil {
			return err
		}

		if err := e.writePortfolio(analyzed, runID, metricsEngine); err != nil {
			return err
		}
	}

	e.log.Debug("analysis run finished",
		zap.String("run_id", runID),
		zap.Int("succeeded", len(analyzed)),
		zap.Int("total", len(e.ledgerPaths)),
	)

	return nil
}

func (e *Engine) preRunCheck() error {
	if e.log == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "engine is not initialized")
	}

	if e.source == nil {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no data source set")
	}

	if len(e.ledgerPaths) == 0 {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no ledger paths set")
	}

	if e.resultsFolder == "" {
		return errors.New(errors.ErrCodeInvalidConfiguration, "no results folder set")
	}

	return nil
}

// analyzeLedger runs the full pipeline for one export file and writes its
// result folder.
func (e *Engine) analyzeLedger(path, runID string, normalizer *ledger.Normalizer, metricsEngine *metrics.Engine) (*types.TradeLedger, error) {
	if err := e.source.Initialize(path); err != nil {
		return nil, err
	}

	table, err := e.source.ReadTable(e.config.StartTime.Option, e.config.EndTime.Option)
	if err != nil {
		return nil, err
	}

	name := filepath.Base(path)

	normalized, err := normalizer.Normalize(table, name)
	if err != nil {
		return nil, err
	}

	folder := filepath.Join(e.resultsFolder, strings.TrimSuffix(name, filepath.Ext(name)))
	if err := os.MkdirAll(folder, 0755); err != nil {
		return nil, errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create result folder %s", folder)
	}

	opts := metrics.Options{
		DateField:         e.config.DateField,
		InitialBalance:    e.config.InitialBalance,
		RiskFreeRate:      e.config.RiskFreeRate,
		IncludeBuyAndHold: e.config.IncludeBuyAndHold,
	}

	report, curve := metricsEngine.Compute(normalized, opts)
	if report == nil {
		return nil, errors.Newf(errors.ErrCodeInsufficientData, "no metrics produced for %s", name)
	}

	report.ID = runID
	report.Timestamp = time.Now()

	if err := types.WriteMetricsReports(filepath.Join(folder, "stats.yaml"), []types.MetricsReport{*report}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write stats", err)
	}

	if err := datasource.WriteCanonicalCSV(filepath.Join(folder, "trades.csv"), normalized); err != nil {
		return nil, err
	}

	if err := e.writeYAML(filepath.Join(folder, "equity.yaml"), curve); err != nil {
		return nil, err
	}

	if err := e.writeSimulation(folder, normalized); err != nil {
		return nil, err
	}

	monthly := aggregate.MonthlyPerformance(normalized, e.config.DateField, e.config.InitialBalance, e.config.Monthly.Label, e.config.Monthly.Mode, e.config.Monthly.Basis)
	if err := e.writeYAML(filepath.Join(folder, "monthly.yaml"), monthly); err != nil {
		return nil, err
	}

	return normalized, nil
}

func (e *Engine) writeSimulation(folder string, normalized *types.TradeLedger) error {
	batch, err := montecarlo.Simulate(normalized, montecarlo.Params{
		NumSimulations: e.config.Simulation.NumSimulations,
		NumTrades:      e.config.Simulation.NumTrades.Option,
		Method:         e.config.Simulation.Method,
		Seed:           e.config.Simulation.Seed.Option,
	})
	if err != nil {
		return err
	}

	cumulative := batch.Cumulative(e.config.InitialBalance)

	summary, err := montecarlo.Summarize(cumulative, e.config.InitialBalance, e.config.Simulation.ConfidenceLevels)
	if err != nil {
		return err
	}

	return e.writeYAML(filepath.Join(folder, "simulation.yaml"), summary)
}

func (e *Engine) writeCorrelation(analyzed []*types.TradeLedger) error {
	matrix, err := aggregate.Correlation(analyzed, e.config.DateField, e.config.InitialBalance)
	if err != nil {
		return err
	}

	return e.writeYAML(filepath.Join(e.resultsFolder, "correlation.yaml"), matrix)
}

// writePortfolio merges the surviving ledgers into one combined portfolio
// and writes its result folder. Strategies enter at full size; scaled
// portfolios go through aggregate.CombinePortfolio directly.
func (e *Engine) writePortfolio(analyzed []*types.TradeLedger, runID string, metricsEngine *metrics.Engine) error {
	combined, err := aggregate.CombinePortfolio(analyzed, nil)
	if err != nil {
		return err
	}

	folder := filepath.Join(e.resultsFolder, aggregate.PortfolioName)
	if err := os.MkdirAll(folder, 0755); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to create result folder %s", folder)
	}

	opts := metrics.Options{
		DateField:      e.config.DateField,
		InitialBalance: e.config.InitialBalance,
		RiskFreeRate:   e.config.RiskFreeRate,
		// Buy-and-hold is a single-instrument benchmark; it has no
		// meaning for a multi-strategy portfolio.
		IncludeBuyAndHold: false,
	}

	report, curve := metricsEngine.Compute(combined, opts)
	if report == nil {
		return errors.New(errors.ErrCodeInsufficientData, "no metrics produced for the combined portfolio")
	}

	report.ID = runID
	report.Timestamp = time.Now()

	if err := types.WriteMetricsReports(filepath.Join(folder, "stats.yaml"), []types.MetricsReport{*report}); err != nil {
		return errors.Wrap(errors.ErrCodeReportWriteFailed, "failed to write portfolio stats", err)
	}

	if err := datasource.WriteCanonicalCSV(filepath.Join(folder, "trades.csv"), combined); err != nil {
		return err
	}

	if err := e.writeYAML(filepath.Join(folder, "equity.yaml"), curve); err != nil {
		return err
	}

	monthly := aggregate.MonthlyPerformance(combined, e.config.DateField, e.config.InitialBalance, e.config.Monthly.Label, e.config.Monthly.Mode, e.config.Monthly.Basis)

	return e.writeYAML(filepath.Join(folder, "monthly.yaml"), monthly)
}

func (e *Engine) writeYAML(path string, value interface{}) error {
	data, err := yaml.Marshal(value)
	if err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to marshal %s", path)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.Wrapf(errors.ErrCodeReportWriteFailed, err, "failed to write %s", path)
	}

	return nil
}
