package cmd

import (
	"bytes"
	"testing"
)

func TestNewVersionCmd(t *testing.T) {
	versionCmd := newVersionCmd()

	if versionCmd.Use != "version" {
		t.Errorf("Expected Use to be 'version', got %s", versionCmd.Use)
	}
	if versionCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}
	if versionCmd.Run == nil {
		t.Error("Expected Run function to be set")
	}
}

func TestVersionCommandExecution(t *testing.T) {
	tests := []struct {
		name     string
		version  string
		expected string
	}{
		{"release", "1.2.3-test", "launchkit version 1.2.3-test\n"},
		{"empty", "", "launchkit version \n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			originalVersion := GetVersion()
			defer SetVersion(originalVersion)
			SetVersion(tt.version)

			versionCmd := newVersionCmd()
			var buf bytes.Buffer
			versionCmd.SetOut(&buf)
			versionCmd.Run(versionCmd, []string{})

			if buf.String() != tt.expected {
				t.Errorf("Expected output %q, got %q", tt.expected, buf.String())
			}
		})
	}
}
