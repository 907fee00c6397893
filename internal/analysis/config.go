package analysis

import (
	"encoding/json"
	"reflect"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/invopop/jsonschema"
	"github.com/qmetrics-lab/qmetrics/internal/aggregate"
	"github.com/qmetrics-lab/qmetrics/internal/ledger"
	"github.com/qmetrics-lab/qmetrics/internal/metrics"
	"github.com/qmetrics-lab/qmetrics/internal/montecarlo"
	"github.com/qmetrics-lab/qmetrics/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SimulationConfig configures the Monte Carlo stage of a run.
type SimulationConfig struct {
	NumSimulations   int               `yaml:"num_simulations" json:"num_simulations" jsonschema:"title=Number of Simulations,description=How many simulated trade sequences to draw,minimum=1" validate:"gt=0"`
	NumTrades        Optional[int]     `yaml:"num_trades" json:"num_trades" jsonschema:"title=Trades per Simulation,description=Trades per simulated sequence; defaults to the ledger size"`
	Method           montecarlo.Method `yaml:"method" json:"method" jsonschema:"title=Sampling Method" validate:"oneof=with_replacement without_replacement"`
	Seed             Optional[int64]   `yaml:"seed" json:"seed" jsonschema:"title=Random Seed,description=Fixed seed for reproducible runs"`
	ConfidenceLevels []int             `yaml:"confidence_levels" json:"confidence_levels" jsonschema:"title=Confidence Levels,description=Percentiles reported in the summary table" validate:"omitempty,dive,gte=0,lte=100"`
}

// MonthlyConfig configures the monthly performance pivot.
type MonthlyConfig struct {
	Label aggregate.MonthLabel `yaml:"label" json:"label" jsonschema:"title=Month Label Style" validate:"oneof=short full"`
	Mode  aggregate.Mode       `yaml:"mode" json:"mode" jsonschema:"title=Unit" validate:"oneof=dollar percent"`
	Basis aggregate.Basis      `yaml:"basis" json:"basis" jsonschema:"title=Profit Basis,description=Aggregate net (after commission) or gross profit" validate:"oneof=net gross"`
}

// AnalysisConfig is the full configuration of an analysis run.
type AnalysisConfig struct {
	InitialBalance    float64             `yaml:"initial_balance" json:"initial_balance" jsonschema:"title=Initial Balance,description=Starting account balance in USD,minimum=0" validate:"gt=0"`
	RiskFreeRate      float64             `yaml:"risk_free_rate" json:"risk_free_rate" jsonschema:"title=Risk-Free Rate,description=Annual risk-free rate used by Sharpe and Sortino" validate:"gte=0,lt=1"`
	DateField         metrics.DateField   `yaml:"date_field" json:"date_field" jsonschema:"title=Date Field,description=Trade timestamp used for day bucketing" validate:"oneof=entry exit"`
	IncludeBuyAndHold bool                `yaml:"include_buy_and_hold" json:"include_buy_and_hold" jsonschema:"title=Include Buy and Hold,description=Add the buy-and-hold benchmark to every report"`
	Ledger            ledger.Policy       `yaml:"ledger" json:"ledger" jsonschema:"title=Ledger Policy"`
	StartTime         Optional[time.Time] `yaml:"start_time" json:"start_time" jsonschema:"title=Start Time,description=Optional lower bound on trade timestamps"`
	EndTime           Optional[time.Time] `yaml:"end_time" json:"end_time" jsonschema:"title=End Time,description=Optional upper bound on trade timestamps"`
	Simulation        SimulationConfig    `yaml:"simulation" json:"simulation" jsonschema:"title=Monte Carlo Simulation"`
	Monthly           MonthlyConfig       `yaml:"monthly" json:"monthly" jsonschema:"title=Monthly Performance"`
}

// DefaultConfig returns the configuration used when a field is omitted.
func DefaultConfig() AnalysisConfig {
	return AnalysisConfig{
		InitialBalance:    10000,
		RiskFreeRate:      metrics.DefaultRiskFreeRate,
		DateField:         metrics.DateFieldEntry,
		IncludeBuyAndHold: true,
		Ledger:            ledger.DefaultPolicy(),
		StartTime:         None[time.Time](),
		EndTime:           None[time.Time](),
		Simulation: SimulationConfig{
			NumSimulations:   1000,
			NumTrades:        None[int](),
			Method:           montecarlo.MethodWithReplacement,
			Seed:             None[int64](),
			ConfidenceLevels: montecarlo.DefaultConfidenceLevels,
		},
		Monthly: MonthlyConfig{
			Label: aggregate.MonthLabelShort,
			Mode:  aggregate.ModeDollar,
			Basis: aggregate.BasisNet,
		},
	}
}

// ParseConfig unmarshals YAML over the defaults and validates the result.
func ParseConfig(content string) (AnalysisConfig, error) {
	config := DefaultConfig()

	if err := yaml.Unmarshal([]byte(content), &config); err != nil {
		return config, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to parse config", err)
	}

	if err := validator.New().Struct(config); err != nil {
		return config, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid config", err)
	}

	return config, nil
}

// GenerateSchema generates a JSON schema for the AnalysisConfig.
func (c *AnalysisConfig) GenerateSchema() *jsonschema.Schema {
	reflector := jsonschema.Reflector{
		ExpandedStruct:            true,
		AllowAdditionalProperties: false,
		Mapper: func(t reflect.Type) *jsonschema.Schema {
			name := t.String()

			switch {
			case name == "analysis.Optional[time.Time]":
				return &jsonschema.Schema{Type: "string", Format: "date-time"}
			case strings.HasPrefix(name, "analysis.Optional[int"):
				return &jsonschema.Schema{Type: "integer"}
			case strings.HasSuffix(name, "montecarlo.Method"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{string(montecarlo.MethodWithReplacement), string(montecarlo.MethodWithoutReplacement)},
				}
			case strings.HasSuffix(name, "metrics.DateField"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{string(metrics.DateFieldEntry), string(metrics.DateFieldExit)},
				}
			case strings.HasSuffix(name, "aggregate.MonthLabel"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{string(aggregate.MonthLabelShort), string(aggregate.MonthLabelFull)},
				}
			case strings.HasSuffix(name, "aggregate.Mode"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{string(aggregate.ModeDollar), string(aggregate.ModePercent)},
				}
			case strings.HasSuffix(name, "aggregate.Basis"):
				return &jsonschema.Schema{
					Type: "string",
					Enum: []interface{}{string(aggregate.BasisNet), string(aggregate.BasisGross)},
				}
			}

			return nil
		},
	}

	schema := reflector.Reflect(c)
	schema.Title = "analysis-config"
	schema.Description = "Configuration schema for an analysis run"
	schema.Version = "http://json-schema.org/draft-07/schema#"

	return schema
}

// GenerateSchemaJSON generates an indented JSON schema string for the
// AnalysisConfig.
func (c *AnalysisConfig) GenerateSchemaJSON() (string, error) {
	schemaBytes, err := json.MarshalIndent(c.GenerateSchema(), "", "  ")
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to generate schema", err)
	}

	return string(schemaBytes), nil
}
