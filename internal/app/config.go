package app

import (
	"io"
	"os"

	"golang.org/x/term"
)

// Config holds the application configuration
type Config struct {
	// Debug settings
	Debug bool

	// Args are the raw startup tokens, such as "-threadcount:8" or "-print-config".
	Args []string

	// WorkDir receives the configuration files and the live log.
	WorkDir string

	// Version of the running binary, used by self-update.
	Version string

	Stdin  io.ReadCloser
	Stdout io.Writer
	Stderr io.Writer

	// IsTerminal reports whether stdin is a terminal.
	IsTerminal func() bool
}

// NewConfig creates a new application configuration writing to the process
// standard streams.
func NewConfig(debug bool, args []string, workDir, version string) *Config {
	return &Config{
		Debug:   debug,
		Args:    args,
		WorkDir: workDir,
		Version: version,
		Stdin:   os.Stdin,
		Stdout:  os.Stdout,
		Stderr:  os.Stderr,
		IsTerminal: func() bool {
			return term.IsTerminal(int(os.Stdin.Fd()))
		},
	}
}

func (c *Config) withDefaults() {
	if c.WorkDir == "" {
		c.WorkDir = "."
	}
	if c.Stdout == nil {
		c.Stdout = os.Stdout
	}
	if c.Stderr == nil {
		c.Stderr = os.Stderr
	}
	if c.IsTerminal == nil {
		c.IsTerminal = func() bool { return false }
	}
}
