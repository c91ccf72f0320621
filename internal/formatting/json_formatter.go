package formatting

// JSONFormatter provides structured JSON output formatting
type JSONFormatter struct {
	options Options
}

// NewJSONFormatter creates a new JSON formatter
func NewJSONFormatter(options Options) Formatter {
	return &JSONFormatter{
		options: options,
	}
}

// FormatConfig formats configuration keys as a JSON array
func (f *JSONFormatter) FormatConfig(entries []ConfigEntry) string {
	if entries == nil {
		entries = []ConfigEntry{}
	}
	return PrettyJSON(entries) + "\n"
}

// FormatCommands formats arguments and commands as a JSON array
func (f *JSONFormatter) FormatCommands(entries []CommandEntry) string {
	if entries == nil {
		entries = []CommandEntry{}
	}
	return PrettyJSON(entries) + "\n"
}

// FormatMetrics formats metric samples as a JSON array
func (f *JSONFormatter) FormatMetrics(entries []MetricEntry) string {
	if entries == nil {
		entries = []MetricEntry{}
	}
	return PrettyJSON(entries) + "\n"
}

// SetOptions updates the formatter options
func (f *JSONFormatter) SetOptions(options Options) {
	f.options = options
}

// GetOptions returns the current formatter options
func (f *JSONFormatter) GetOptions() Options {
	return f.options
}
