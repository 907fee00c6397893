package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/moznion/go-optional"
	"github.com/qmetrics-lab/qmetrics/internal/analysis"
	"github.com/qmetrics-lab/qmetrics/internal/ledger/datasource"
	"github.com/qmetrics-lab/qmetrics/internal/montecarlo"
	"github.com/schollz/progressbar/v3"
	"github.com/urfave/cli/v3"
	"gopkg.in/yaml.v3"
)

// analyzeAction runs the full pipeline over every ledger export matching the
// --ledger pattern and writes one result folder per export.
func analyzeAction(ctx context.Context, cmd *cli.Command) error {
	configContent := ""

	if configPath := cmd.String("config"); configPath != "" {
		content, err := os.ReadFile(configPath)
		if err != nil {
			return fmt.Errorf("failed to read config: %w", err)
		}

		configContent = string(content)
	}

	engine := analysis.NewEngine()
	if err := engine.Initialize(configContent); err != nil {
		return fmt.Errorf("failed to initialize analysis engine: %w", err)
	}

	source, err := datasource.NewDuckDBLedgerSource(cmd.String("db"), nil)
	if err != nil {
		return fmt.Errorf("failed to open data source: %w", err)
	}
	defer source.Close()

	engine.SetDataSource(source)
	engine.SetResultsFolder(cmd.String("output"))

	if err := engine.SetLedgerPath(cmd.String("ledger")); err != nil {
		return err
	}

	var bar *progressbar.ProgressBar

	callback := analysis.OnLedgerCallback(func(completed, total int) {
		if bar == nil {
			bar = progressbar.Default(int64(total))
		}

		_ = bar.Add(1)
	})

	if err := engine.Run(optional.Some(callback)); err != nil {
		return fmt.Errorf("analysis run failed: %w", err)
	}

	log.Printf("Results written to %s", cmd.String("output"))

	return nil
}

// simulateAction bootstraps a single canonical ledger and prints the
// confidence-level summary table as YAML.
func simulateAction(ctx context.Context, cmd *cli.Command) error {
	ledger, err := datasource.ReadCanonicalCSV(cmd.String("ledger"))
	if err != nil {
		return err
	}

	params := montecarlo.Params{
		NumSimulations: int(cmd.Int("simulations")),
		NumTrades:      optional.None[int](),
		Method:         montecarlo.Method(cmd.String("method")),
		Seed:           optional.None[int64](),
	}

	if cmd.IsSet("trades") {
		params.NumTrades = optional.Some(int(cmd.Int("trades")))
	}

	if cmd.IsSet("seed") {
		params.Seed = optional.Some(cmd.Int("seed"))
	}

	batch, err := montecarlo.Simulate(ledger, params)
	if err != nil {
		return err
	}

	balance := cmd.Float("balance")

	summary, err := montecarlo.Summarize(batch.Cumulative(balance), balance, nil)
	if err != nil {
		return err
	}

	out, err := yaml.Marshal(summary)
	if err != nil {
		return err
	}

	fmt.Print(string(out))

	return nil
}

// schemaAction prints the JSON schema of the analysis configuration.
func schemaAction(ctx context.Context, cmd *cli.Command) error {
	config := analysis.DefaultConfig()

	schema, err := config.GenerateSchemaJSON()
	if err != nil {
		return err
	}

	fmt.Println(schema)

	return nil
}

func main() {
	cmd := &cli.Command{
		Name:  "qmetrics",
		Usage: "Trading performance analytics over broker ledger exports",
		Commands: []*cli.Command{
			{
				Name:  "analyze",
				Usage: "Normalize ledger exports and write metric, simulation and monthly reports",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ledger",
						Aliases:  []string{"l"},
						Usage:    "Glob pattern matching ledger CSV exports",
						Required: true,
					},
					&cli.StringFlag{
						Name:    "config",
						Aliases: []string{"c"},
						Usage:   "Path to the analysis config YAML; defaults apply when omitted",
					},
					&cli.StringFlag{
						Name:    "output",
						Aliases: []string{"o"},
						Usage:   "Results folder, recreated on every run",
						Value:   "results",
					},
					&cli.StringFlag{
						Name:  "db",
						Usage: "DuckDB database path; empty for in-memory",
						Value: "",
					},
				},
				Action: analyzeAction,
			},
			{
				Name:  "simulate",
				Usage: "Run a Monte Carlo simulation over a canonical ledger CSV",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "ledger",
						Aliases:  []string{"l"},
						Usage:    "Canonical ledger CSV written by a previous analyze run",
						Required: true,
					},
					&cli.IntFlag{
						Name:    "simulations",
						Aliases: []string{"n"},
						Usage:   "Number of simulated trade sequences",
						Value:   1000,
					},
					&cli.IntFlag{
						Name:  "trades",
						Usage: "Trades per sequence; defaults to the ledger size",
					},
					&cli.StringFlag{
						Name:    "method",
						Aliases: []string{"m"},
						Usage: fmt.Sprintf("Sampling method (%s or %s)",
							montecarlo.MethodWithReplacement, montecarlo.MethodWithoutReplacement),
						Value: string(montecarlo.MethodWithReplacement),
					},
					&cli.IntFlag{
						Name:  "seed",
						Usage: "Fixed random seed for reproducible output",
					},
					&cli.FloatFlag{
						Name:    "balance",
						Aliases: []string{"b"},
						Usage:   "Initial account balance",
						Value:   10000,
					},
				},
				Action: simulateAction,
			},
			{
				Name:   "schema",
				Usage:  "Print the JSON schema of the analysis config",
				Action: schemaAction,
			},
		},
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}
