package formatting

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// YAMLFormatter provides YAML output formatting
type YAMLFormatter struct {
	options Options
}

// NewYAMLFormatter creates a new YAML formatter
func NewYAMLFormatter(options Options) Formatter {
	return &YAMLFormatter{
		options: options,
	}
}

// FormatConfig formats configuration keys as YAML
func (f *YAMLFormatter) FormatConfig(entries []ConfigEntry) string {
	if len(entries) == 0 {
		return "keys: []\ncount: 0\n"
	}
	return f.marshal(map[string]interface{}{"keys": entries, "count": len(entries)})
}

// FormatCommands formats arguments and commands as YAML
func (f *YAMLFormatter) FormatCommands(entries []CommandEntry) string {
	if len(entries) == 0 {
		return "commands: []\ncount: 0\n"
	}
	return f.marshal(map[string]interface{}{"commands": entries, "count": len(entries)})
}

// FormatMetrics formats metric samples as YAML
func (f *YAMLFormatter) FormatMetrics(entries []MetricEntry) string {
	if len(entries) == 0 {
		return "metrics: []\ncount: 0\n"
	}
	return f.marshal(map[string]interface{}{"metrics": entries, "count": len(entries)})
}

// SetOptions updates the formatter options
func (f *YAMLFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *YAMLFormatter) GetOptions() Options {
	return f.options
}

// marshal converts data to YAML string
func (f *YAMLFormatter) marshal(data interface{}) string {
	yamlBytes, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Sprintf("error: \"Failed to format YAML: %v\"\n", err)
	}

	return string(yamlBytes)
}
