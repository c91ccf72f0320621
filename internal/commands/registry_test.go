package commands

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingObserver struct {
	counts map[Outcome]int
}

func (c *countingObserver) Decoded(outcome Outcome) {
	if c.counts == nil {
		c.counts = make(map[Outcome]int)
	}
	c.counts[outcome]++
}

func noop(string) error { return nil }

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"-ThreadCount", "threadcount"},
		{"threadcount", "threadcount"},
		{"--Mode", "-mode"},
		{"LOG-PATH", "log-path"},
		{"", ""},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.in))
		})
	}
}

func TestRegisterValidation(t *testing.T) {
	r := NewRegistry()

	assert.Error(t, r.RegisterArgument("has space", "", noop))
	assert.Error(t, r.RegisterArgument("nil-handler", "", nil))
	assert.Error(t, r.RegisterArgument("-", "", noop))
	assert.Error(t, r.RegisterCommand("print config", "", noop, true))
	assert.Error(t, r.RegisterCommand("", "", noop, true))

	require.NoError(t, r.RegisterArgument("-ThreadCount", "threads", noop))
	assert.Error(t, r.RegisterArgument("threadcount", "", noop), "duplicate after normalization")

	require.NoError(t, r.RegisterCommand("Print-Config", "prints", noop, true))
	assert.Error(t, r.RegisterCommand("print-config", "", noop, false))

	args := r.Arguments()
	require.Len(t, args, 1)
	assert.Equal(t, "threadcount", args[0].Name)
	assert.Equal(t, "threads", args[0].Description)

	cmds := r.Commands()
	require.Len(t, cmds, 1)
	assert.Equal(t, "print-config", cmds[0].Name)
	assert.True(t, cmds[0].Startup)
}

func TestCommandsSorted(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.RegisterCommand("zeta", "", noop, true))
	require.NoError(t, r.RegisterCommand("alpha", "", noop, false))
	require.NoError(t, r.RegisterCommand("mid", "", noop, true))

	var names []string
	for _, c := range r.Commands() {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"alpha", "mid", "zeta"}, names)
}

func TestScanArguments_CaseAndDashInsensitive(t *testing.T) {
	r := NewRegistry()
	var got []string
	require.NoError(t, r.RegisterArgument("threadcount", "", func(v string) error {
		got = append(got, v)
		return nil
	}))

	report := r.ScanArguments([]string{"-ThreadCount:4", "threadcount:8", "-THREADCOUNT", "-threadcount:a:b"})

	assert.Equal(t, []string{"4", "8", "", "a:b"}, got)
	require.Len(t, report.Results, 4)
	for _, res := range report.Results {
		assert.Equal(t, OutcomeApplied, res.Outcome)
	}
}

func TestScanArguments_FailureIsolation(t *testing.T) {
	r := NewRegistry()
	applied := map[string]string{}
	require.NoError(t, r.RegisterArgument("bad", "", func(string) error {
		return errors.New("rejected")
	}))
	require.NoError(t, r.RegisterArgument("panics", "", func(string) error {
		panic("boom")
	}))
	require.NoError(t, r.RegisterArgument("good", "", func(v string) error {
		applied["good"] = v
		return nil
	}))

	report := r.ScanArguments([]string{"-bad:1", "-panics", "-good:yes", "-unknown:3"})

	assert.Equal(t, "yes", applied["good"])
	require.Len(t, report.Results, 4)
	assert.Equal(t, OutcomeArgumentFailed, report.Results[0].Outcome)
	assert.EqualError(t, report.Results[0].Err, "rejected")
	assert.Equal(t, OutcomeArgumentFailed, report.Results[1].Outcome)
	assert.Contains(t, report.Results[1].Err.Error(), "boom")
	assert.Equal(t, OutcomeApplied, report.Results[2].Outcome)
	assert.Equal(t, OutcomeIgnored, report.Results[3].Outcome)
	assert.Len(t, report.Failed(), 2)
}

func TestDecodeArguments_CommandsRunAfterArguments(t *testing.T) {
	r := NewRegistry()
	threads := 16
	var seen []int
	var order []string

	require.NoError(t, r.RegisterArgument("threadcount", "", func(v string) error {
		threads = 4
		order = append(order, "threadcount")
		return nil
	}))
	require.NoError(t, r.RegisterCommand("print-config", "", func(v string) error {
		seen = append(seen, threads)
		order = append(order, "print-config:"+v)
		return nil
	}, true))
	require.NoError(t, r.RegisterCommand("log-path", "", func(v string) error {
		order = append(order, "log-path")
		return nil
	}, true))

	report := r.DecodeArguments([]string{"-print-config:full", "-log-path", "-threadcount:4"})

	assert.Equal(t, []int{4}, seen, "command must observe argument applied after it on the command line")
	assert.Equal(t, []string{"threadcount", "print-config:full", "log-path"}, order)
	assert.Empty(t, report.Pending)
	require.Len(t, report.Results, 5)
	assert.Equal(t, OutcomeQueued, report.Results[0].Outcome)
	assert.Equal(t, OutcomeExecuted, report.Results[3].Outcome)
	assert.Equal(t, "print-config", report.Results[3].Name)
	assert.Equal(t, "full", report.Results[3].Value)
}

func TestScanArguments_Blacklisted(t *testing.T) {
	r := NewRegistry()
	ran := false
	require.NoError(t, r.RegisterCommand("save-config", "", func(string) error {
		ran = true
		return nil
	}, false))

	report := r.DecodeArguments([]string{"-save-config"})
	assert.False(t, ran)
	require.Len(t, report.Results, 1)
	assert.Equal(t, OutcomeBlacklisted, report.Results[0].Outcome)

	res := r.Decode("save-config")
	assert.True(t, ran, "runtime-only commands remain invocable through Decode")
	assert.Equal(t, OutcomeExecuted, res.Outcome)
}

func TestScanThenRunPending(t *testing.T) {
	r := NewRegistry()
	ran := 0
	require.NoError(t, r.RegisterCommand("commands", "", func(string) error {
		ran++
		return nil
	}, true))

	report := r.ScanArguments([]string{"commands"})
	assert.Equal(t, 0, ran)
	require.Len(t, report.Pending, 1)
	assert.Equal(t, Invocation{Name: "commands"}, report.Pending[0])

	r.RunPending(report)
	assert.Equal(t, 1, ran)
	assert.Empty(t, report.Pending)

	r.RunPending(report)
	assert.Equal(t, 1, ran, "pending commands run once")
}

func TestDecode(t *testing.T) {
	r := NewRegistry()
	var value string
	require.NoError(t, r.RegisterCommand("set", "", func(v string) error {
		value = v
		return nil
	}, false))
	require.NoError(t, r.RegisterCommand("fail", "", func(string) error {
		return errors.New("nope")
	}, true))
	require.NoError(t, r.RegisterArgument("threadcount", "", noop))

	res := r.Decode("SET Thread-Count 8")
	assert.Equal(t, OutcomeExecuted, res.Outcome)
	assert.Equal(t, "Thread-Count 8", value)
	assert.Contains(t, res.Message, "Command execution finished.")

	res = r.Decode("fail")
	assert.Equal(t, OutcomeCommandFailed, res.Outcome)
	assert.Contains(t, res.Message, "nope")

	res = r.Decode("threadcount 4")
	assert.Equal(t, OutcomeArgumentOnly, res.Outcome)
	assert.Equal(t, "Argument commands can only be executed on the startup!", res.Message)

	res = r.Decode("missing")
	assert.Equal(t, OutcomeUnknownCommand, res.Outcome)
	assert.Equal(t, "No specified command found!", res.Message)
}

func TestObserver(t *testing.T) {
	r := NewRegistry()
	obs := &countingObserver{}
	r.SetObserver(obs)
	require.NoError(t, r.RegisterArgument("a", "", noop))
	require.NoError(t, r.RegisterCommand("c", "", noop, true))

	r.DecodeArguments([]string{"-a", "-c", "-x"})

	assert.Equal(t, 1, obs.counts[OutcomeApplied])
	assert.Equal(t, 1, obs.counts[OutcomeQueued])
	assert.Equal(t, 1, obs.counts[OutcomeIgnored])
	assert.Equal(t, 1, obs.counts[OutcomeExecuted])
}

func TestInvocationLine(t *testing.T) {
	assert.Equal(t, "print-config", Invocation{Name: "print-config"}.Line())
	assert.Equal(t, "set mode GUI", Invocation{Name: "set", Value: "mode GUI"}.Line())
}

func TestOutcomeString(t *testing.T) {
	assert.Equal(t, "applied", OutcomeApplied.String())
	assert.Equal(t, "unknown_command", OutcomeUnknownCommand.String())
	assert.Equal(t, "unknown", Outcome(99).String())
}
