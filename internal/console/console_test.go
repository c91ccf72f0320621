package console

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/commands"
)

func newTestRegistry(t *testing.T) (*commands.Registry, *[]string) {
	t.Helper()
	var calls []string
	r := commands.NewRegistry()
	require.NoError(t, r.RegisterArgument("threads", "Worker count", func(v string) error { return nil }))
	require.NoError(t, r.RegisterCommand("echo", "Echoes its value", func(v string) error {
		calls = append(calls, v)
		return nil
	}, true))
	require.NoError(t, r.RegisterCommand("fail", "Always fails", func(string) error {
		return errors.New("nope")
	}, false))
	return r, &calls
}

func newTestConsole(t *testing.T) (*Console, *bytes.Buffer, *[]string) {
	t.Helper()
	r, calls := newTestRegistry(t)
	var out bytes.Buffer
	c := New(r, Options{Stdout: &out, HistoryFile: filepath.Join(t.TempDir(), "history")})
	return c, &out, calls
}

func TestNew_Defaults(t *testing.T) {
	r, _ := newTestRegistry(t)
	c := New(r, Options{})
	assert.Equal(t, defaultPrompt, c.options.Prompt)
	assert.Equal(t, historyName, filepath.Base(c.options.HistoryFile))
	assert.NotNil(t, c.options.Stdout)
}

func TestExecute(t *testing.T) {
	c, out, calls := newTestConsole(t)

	assert.True(t, c.Execute("   "))
	assert.Empty(t, out.String())

	assert.True(t, c.Execute("echo hello world"))
	assert.Equal(t, []string{"hello world"}, *calls)
	assert.Contains(t, out.String(), "Command execution finished.")

	out.Reset()
	assert.True(t, c.Execute("fail"))
	assert.Contains(t, out.String(), "Exception was thrown while executing current command! nope.")

	out.Reset()
	assert.True(t, c.Execute("threads 4"))
	assert.Contains(t, out.String(), "Argument commands can only be executed on the startup!")

	out.Reset()
	assert.True(t, c.Execute("bogus"))
	assert.Contains(t, out.String(), "No specified command found!")
}

func TestExecute_Builtins(t *testing.T) {
	c, out, _ := newTestConsole(t)

	assert.True(t, c.Execute("help"))
	help := out.String()
	assert.Contains(t, help, "echo")
	assert.Contains(t, help, "Echoes its value")
	assert.Contains(t, help, "fail")
	assert.NotContains(t, help, "threads")

	assert.False(t, c.Execute("exit"))
	assert.False(t, c.Execute("QUIT"))
}

func TestCompleter(t *testing.T) {
	c, _, _ := newTestConsole(t)

	candidates, offset := c.completer().Do([]rune("ec"), 2)
	require.Len(t, candidates, 1)
	assert.Equal(t, 2, offset)
	assert.Equal(t, "ho ", string(candidates[0]))
}
