// Package formatting renders launcher state for the console.
//
// The same data can be printed as a rounded table (the default), as JSON or as
// YAML, so the output of commands such as print-config and metrics can be
// read by people and by scripts alike.
package formatting

// OutputFormat represents the desired output format
type OutputFormat string

const (
	FormatTable OutputFormat = "table" // Rich table output
	FormatJSON  OutputFormat = "json"  // JSON output
	FormatYAML  OutputFormat = "yaml"  // YAML output
)

// ParseFormat maps a user supplied name to an OutputFormat. Empty selects the
// table format.
func ParseFormat(name string) (OutputFormat, bool) {
	switch OutputFormat(name) {
	case "", FormatTable:
		return FormatTable, true
	case FormatJSON:
		return FormatJSON, true
	case FormatYAML:
		return FormatYAML, true
	default:
		return "", false
	}
}

// Options configures the formatter behavior
type Options struct {
	Format OutputFormat
	Color  bool // Enable colored output
}

// ConfigEntry is one key of a configuration service.
type ConfigEntry struct {
	Service  string `json:"service" yaml:"service"`
	Key      string `json:"key" yaml:"key"`
	Value    string `json:"value" yaml:"value"`
	Default  string `json:"default" yaml:"default"`
	Argument string `json:"argument,omitempty" yaml:"argument,omitempty"`
}

// CommandEntry is one registered argument or command.
type CommandEntry struct {
	Name        string `json:"name" yaml:"name"`
	Kind        string `json:"kind" yaml:"kind"`
	Description string `json:"description" yaml:"description"`
	Startup     bool   `json:"startup" yaml:"startup"`
}

// MetricEntry is one gathered metric series.
type MetricEntry struct {
	Name   string  `json:"name" yaml:"name"`
	Labels string  `json:"labels,omitempty" yaml:"labels,omitempty"`
	Value  float64 `json:"value" yaml:"value"`
}

// Formatter renders launcher data.
type Formatter interface {
	FormatConfig(entries []ConfigEntry) string
	FormatCommands(entries []CommandEntry) string
	FormatMetrics(entries []MetricEntry) string

	// Configuration
	SetOptions(options Options)
	GetOptions() Options
}

// New creates the formatter for options.Format.
func New(options Options) Formatter {
	switch options.Format {
	case FormatJSON:
		return NewJSONFormatter(options)
	case FormatYAML:
		return NewYAMLFormatter(options)
	case FormatTable:
		fallthrough
	default:
		return NewTableFormatter(options)
	}
}
