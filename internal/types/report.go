package types

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Metric is a single named metric with its display value. Values are kept as
// formatted strings ("$1,234.56", "42.00%") so a report renders the same way
// everywhere.
type Metric struct {
	Name  string `yaml:"name" json:"name"`
	Value string `yaml:"value" json:"value"`
}

// MetricsReport is the ordered metric listing produced by the metrics engine
// for one strategy ledger.
type MetricsReport struct {
	// ID is the unique identifier for the analysis run that produced this report.
	ID string `yaml:"id" json:"id"`
	// Timestamp is when the analysis run was executed.
	Timestamp time.Time `yaml:"timestamp" json:"timestamp"`
	// Strategy is the name of the analyzed ledger.
	Strategy string `yaml:"strategy" json:"strategy"`
	// Metrics holds the metrics in display order.
	Metrics []Metric `yaml:"metrics" json:"metrics"`
}

// Get returns the value of the named metric.
func (r *MetricsReport) Get(name string) (string, bool) {
	for _, m := range r.Metrics {
		if m.Name == name {
			return m.Value, true
		}
	}

	return "", false
}

// Append adds a metric to the end of the report.
func (r *MetricsReport) Append(name, value string) {
	r.Metrics = append(r.Metrics, Metric{Name: name, Value: value})
}

// WriteMetricsReports writes reports to a YAML file.
func WriteMetricsReports(path string, reports []MetricsReport) error {
	// Marshal the struct to YAML
	data, err := yaml.Marshal(reports)
	if err != nil {
		return fmt.Errorf("failed to marshal metrics reports to YAML: %w", err)
	}

	// Write the YAML data to the file
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write metrics reports to file: %w", err)
	}

	return nil
}
