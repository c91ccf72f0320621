package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"launchkit/internal/commands"
	"launchkit/internal/services"
)

type fakeStatus struct {
	state services.State
}

func (f *fakeStatus) Status() services.State { return f.state }

type recordingRegenerations struct {
	calls   int
	reasons []string
}

func (r *recordingRegenerations) Regenerated(service string, reasons []string) {
	r.calls++
	r.reasons = append(r.reasons, reasons...)
}

// newTestService builds a service with one key of every kind.
func newTestService(t *testing.T, path string) (*Service, *recordingRegenerations) {
	t.Helper()
	svc := NewService("Test Configuration", path, &fakeStatus{}, nil)
	obs := &recordingRegenerations{}
	svc.SetObserver(obs)

	keys := []KeySpec{
		{
			Name:        "Thread-Count",
			Default:     func() Value { return IntValue(16) },
			Parser:      IntRangeParser("Thread-Count", 1, 128),
			Verifier:    IntRange(1, 128),
			Argument:    "threadcount",
			Description: "Amount of threads used for downloads.",
		},
		{
			Name:        "Mode",
			Default:     func() Value { return StringValue("CLI") },
			Parser:      CanonicalOneOf("Mode", "CLI", "GUI"),
			Verifier:    OneOf("CLI", "GUI"),
			Argument:    "mode",
			Description: "Mode of the application.",
		},
		{
			Name:     "Experimental",
			Default:  func() Value { return BoolValue(false) },
			Argument: "experimental",
		},
		{
			Name:        "Ratio",
			Default:     func() Value { return FloatValue(0.5) },
			Description: "A float.",
		},
		{
			Name:    "Mirrors",
			Default: func() Value { return ListValue([]string{"a", "b"}) },
		},
	}
	for _, spec := range keys {
		require.NoError(t, svc.RegisterKey(MustKey(spec)))
	}
	return svc, obs
}

func startService(t *testing.T, svc *Service) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, svc.PreInit(ctx))
	require.NoError(t, svc.Init(ctx))
}

func readEntries(t *testing.T, path string) map[string]any {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entries, err := decodeEntries(data)
	require.NoError(t, err)
	out := make(map[string]any, len(entries))
	for _, e := range entries {
		out[e.Name] = e.Value
	}
	return out
}

func intValue(t *testing.T, svc *Service, name string) int {
	t.Helper()
	v, err := svc.Value(name)
	require.NoError(t, err)
	return v.AsInt()
}

func TestRegisterKey(t *testing.T) {
	status := &fakeStatus{}
	svc := NewService("Test", "", status, nil)
	key := MustKey(KeySpec{Name: "A", Default: func() Value { return IntValue(1) }})

	require.NoError(t, svc.RegisterKey(key))
	assert.Error(t, svc.RegisterKey(MustKey(KeySpec{Name: "A", Default: func() Value { return IntValue(2) }})))
	assert.Error(t, svc.RegisterKey(nil))

	status.state = services.StatePreInit
	err := svc.RegisterKey(MustKey(KeySpec{Name: "B", Default: func() Value { return IntValue(1) }}))
	assert.True(t, errors.Is(err, ErrRegistrationClosed))
	assert.Len(t, svc.Keys(), 1)
}

func TestPreInit_DefaultIsReevaluated(t *testing.T) {
	calls := 0
	svc := NewService("Test", "", &fakeStatus{}, nil)
	require.NoError(t, svc.RegisterKey(MustKey(KeySpec{Name: "Counter", Default: func() Value {
		calls++
		return IntValue(calls * 10)
	}})))

	ctx := context.Background()
	require.NoError(t, svc.PreInit(ctx))
	key, _ := svc.Key("Counter")
	assert.Equal(t, 20, key.Value().AsInt())

	require.NoError(t, svc.PreInit(ctx))
	assert.Equal(t, 30, key.Value().AsInt())
}

func TestPreInit_GeneratesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "test.yaml")
	svc, _ := newTestService(t, path)

	require.NoError(t, svc.PreInit(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)
	assert.Contains(t, content, "# Amount of threads used for downloads.")
	assert.Contains(t, content, "# Argument: -threadcount")
	assert.Contains(t, content, "Thread-Count: 16")
	assert.Contains(t, content, "Mode: CLI")
	assert.Contains(t, content, "Experimental: false")
}

func TestPreInit_KeepsExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("custom: true\n"), 0644))
	svc, _ := newTestService(t, path)

	require.NoError(t, svc.PreInit(context.Background()))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "custom: true\n", string(data))
}

func TestGenerateLoadGenerateIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, obs := newTestService(t, path)

	require.NoError(t, svc.PreInit(context.Background()))
	first, err := os.ReadFile(path)
	require.NoError(t, err)

	require.NoError(t, svc.Init(context.Background()))
	assert.Equal(t, 0, obs.calls, "a freshly generated file must load cleanly")

	require.NoError(t, svc.Save())
	second, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, string(first), string(second))
}

func TestInit_LoadsValidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	content := "Thread-Count: 8\nMode: gui\nExperimental: true\nRatio: 0.75\nMirrors: [x]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	svc, obs := newTestService(t, path)

	startService(t, svc)

	assert.Equal(t, 0, obs.calls)
	assert.Equal(t, 8, intValue(t, svc, "Thread-Count"))
	mode, _ := svc.Value("Mode")
	assert.Equal(t, "GUI", mode.AsString())
	exp, _ := svc.Value("Experimental")
	assert.True(t, exp.AsBool())
	ratio, _ := svc.Value("Ratio")
	assert.Equal(t, 0.75, ratio.AsFloat())
	mirrors, _ := svc.Value("Mirrors")
	assert.Equal(t, []string{"x"}, mirrors.AsList())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, content, string(data), "a valid file is not rewritten")
}

func TestInit_RegenerationTriggers(t *testing.T) {
	tests := []struct {
		name       string
		content    string
		wantReason string
		// expected Thread-Count after loading
		wantThreads int
	}{
		{
			name:        "missing key",
			content:     "Thread-Count: 8\nMode: GUI\nExperimental: true\nRatio: 0.5\n",
			wantReason:  ErrorTypeMissing,
			wantThreads: 8,
		},
		{
			name:        "value fails verification",
			content:     "Thread-Count: 500\nMode: GUI\nExperimental: true\nRatio: 0.5\nMirrors: [a, b]\n",
			wantReason:  ErrorTypeValidation,
			wantThreads: 16,
		},
		{
			name:        "value fails parsing",
			content:     "Thread-Count: 8\nMode: GUI\nExperimental: maybe\nRatio: 0.5\nMirrors: [a, b]\n",
			wantReason:  ErrorTypeParse,
			wantThreads: 8,
		},
		{
			name:        "unknown key",
			content:     "Thread-Count: 8\nMode: GUI\nExperimental: true\nRatio: 0.5\nMirrors: [a, b]\nLegacy: 1\n",
			wantReason:  ErrorTypeExtra,
			wantThreads: 8,
		},
		{
			name:        "duplicate key",
			content:     "Thread-Count: 8\nThread-Count: 9\nMode: GUI\nExperimental: true\nRatio: 0.5\nMirrors: [a, b]\n",
			wantReason:  ErrorTypeExtra,
			wantThreads: 8,
		},
		{
			name:        "malformed yaml",
			content:     "Thread-Count: [8\n",
			wantReason:  ErrorTypeSyntax,
			wantThreads: 16,
		},
		{
			name:        "not a mapping",
			content:     "- a\n- b\n",
			wantReason:  ErrorTypeSyntax,
			wantThreads: 16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "test.yaml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			svc, obs := newTestService(t, path)

			startService(t, svc)

			assert.Equal(t, 1, obs.calls)
			assert.Contains(t, obs.reasons, tt.wantReason)
			assert.Equal(t, tt.wantThreads, intValue(t, svc, "Thread-Count"))

			entries := readEntries(t, path)
			assert.Len(t, entries, 5, "regenerated file holds exactly the registered keys")
			assert.Equal(t, tt.wantThreads, entries["Thread-Count"])
			assert.NotContains(t, entries, "Legacy")
		})
	}
}

func TestInit_ValidValuesSurviveRegeneration(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Thread-Count: 500\nMode: GUI\n"), 0644))
	svc, _ := newTestService(t, path)

	startService(t, svc)

	entries := readEntries(t, path)
	assert.Equal(t, "GUI", entries["Mode"])
	assert.Equal(t, 16, entries["Thread-Count"])
	assert.Equal(t, false, entries["Experimental"])
}

func TestInit_FileDeletedAfterPreInit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, obs := newTestService(t, path)
	ctx := context.Background()

	require.NoError(t, svc.PreInit(ctx))
	require.NoError(t, os.Remove(path))
	require.NoError(t, svc.Init(ctx))

	assert.FileExists(t, path)
	assert.Contains(t, obs.reasons, ErrorTypeIO)
}

func TestInit_InMemory(t *testing.T) {
	svc, _ := newTestService(t, "")
	startService(t, svc)

	assert.True(t, svc.Initialized())
	assert.False(t, svc.HasFile())
	assert.Equal(t, 16, intValue(t, svc, "Thread-Count"))
	assert.NoError(t, svc.Save())
}

func TestValueAccess(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, _ := newTestService(t, path)

	_, err := svc.Value("Thread-Count")
	assert.True(t, errors.Is(err, ErrNotInitialized))
	assert.True(t, errors.Is(svc.SetValue("Thread-Count", IntValue(3)), ErrNotInitialized))

	startService(t, svc)

	_, err = svc.Value("Nope")
	assert.True(t, errors.Is(err, ErrUnknownKey))

	assert.True(t, errors.Is(svc.SetValue("Thread-Count", StringValue("3")), ErrKindMismatch))
	require.NoError(t, svc.SetValue("Thread-Count", IntValue(3)))
	assert.Equal(t, 3, intValue(t, svc, "Thread-Count"))

	require.NoError(t, svc.SetValue("Thread-Count", Null()))
	v, err := svc.Value("Thread-Count")
	require.NoError(t, err)
	assert.True(t, v.IsNull())
}

func TestSetValueFromRawAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, _ := newTestService(t, path)
	startService(t, svc)

	var keyErr KeyError
	err := svc.SetValueFromRaw("Thread-Count", "0")
	require.True(t, errors.As(err, &keyErr))
	assert.Equal(t, "Thread-Count", keyErr.Key)

	require.NoError(t, svc.SetValueFromRaw("Thread-Count", "64"))
	require.NoError(t, svc.Save())
	assert.Equal(t, 64, readEntries(t, path)["Thread-Count"])
}

func TestBindArguments_OverrideWithoutPersisting(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Thread-Count: 8\nMode: CLI\nExperimental: false\nRatio: 0.5\nMirrors: [a]\n"), 0644))
	svc, _ := newTestService(t, path)
	registry := commands.NewRegistry()
	require.NoError(t, svc.BindArguments(registry))

	ctx := context.Background()
	require.NoError(t, svc.PreInit(ctx))
	report := registry.ScanArguments([]string{"-ThreadCount:4", "-mode:GUI", "-experimental"})
	assert.Empty(t, report.Failed())
	require.NoError(t, svc.Init(ctx))

	assert.Equal(t, 4, intValue(t, svc, "Thread-Count"))
	mode, _ := svc.Value("Mode")
	assert.Equal(t, "GUI", mode.AsString())
	exp, _ := svc.Value("Experimental")
	assert.True(t, exp.AsBool())

	entries := readEntries(t, path)
	assert.Equal(t, 8, entries["Thread-Count"], "arguments are not written to the file")
	assert.Equal(t, "CLI", entries["Mode"])
}

func TestBindArguments_InvalidArgument(t *testing.T) {
	svc, _ := newTestService(t, "")
	registry := commands.NewRegistry()
	require.NoError(t, svc.BindArguments(registry))

	ctx := context.Background()
	require.NoError(t, svc.PreInit(ctx))
	report := registry.ScanArguments([]string{"-threadcount:500", "-mode:TUI"})
	require.NoError(t, svc.Init(ctx))

	assert.Len(t, report.Failed(), 2)
	assert.Equal(t, 16, intValue(t, svc, "Thread-Count"))
}

func TestBindArguments_AfterInitAppliesDirectly(t *testing.T) {
	svc, _ := newTestService(t, "")
	registry := commands.NewRegistry()
	require.NoError(t, svc.BindArguments(registry))
	startService(t, svc)

	report := registry.ScanArguments([]string{"-threadcount:12"})
	assert.Empty(t, report.Failed())
	assert.Equal(t, 12, intValue(t, svc, "Thread-Count"))
}

func TestBindArguments_Duplicate(t *testing.T) {
	svc, _ := newTestService(t, "")
	registry := commands.NewRegistry()
	require.NoError(t, registry.RegisterArgument("threadcount", "", func(string) error { return nil }))
	assert.Error(t, svc.BindArguments(registry))
}

func TestReload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, _ := newTestService(t, path)
	registry := commands.NewRegistry()
	require.NoError(t, svc.BindArguments(registry))
	ctx := context.Background()

	assert.True(t, errors.Is(svc.Reload(ctx), ErrNotInitialized))

	require.NoError(t, svc.PreInit(ctx))
	registry.ScanArguments([]string{"-mode:GUI"})
	require.NoError(t, svc.Init(ctx))

	require.NoError(t, os.WriteFile(path, []byte("Thread-Count: 32\nMode: CLI\nExperimental: false\nRatio: 0.5\nMirrors: [a, b]\n"), 0644))
	require.NoError(t, svc.Reload(ctx))

	assert.Equal(t, 32, intValue(t, svc, "Thread-Count"))
	mode, _ := svc.Value("Mode")
	assert.Equal(t, "GUI", mode.AsString(), "argument overrides survive a reload")
}

func TestSave_LeavesArgumentOverridesOutOfFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Thread-Count: 8\nMode: CLI\nExperimental: false\nRatio: 0.5\nMirrors: [a]\n"), 0644))
	svc, _ := newTestService(t, path)
	registry := commands.NewRegistry()
	require.NoError(t, svc.BindArguments(registry))

	ctx := context.Background()
	require.NoError(t, svc.PreInit(ctx))
	registry.ScanArguments([]string{"-threadcount:4"})
	require.NoError(t, svc.Init(ctx))
	registry.ScanArguments([]string{"-mode:GUI"})

	require.NoError(t, svc.SetValueFromRaw("Experimental", "true"))
	require.NoError(t, svc.Save())

	entries := readEntries(t, path)
	assert.Equal(t, 8, entries["Thread-Count"])
	assert.Equal(t, "CLI", entries["Mode"])
	assert.Equal(t, true, entries["Experimental"])

	assert.Equal(t, 4, intValue(t, svc, "Thread-Count"), "overrides stay in effect after saving")
	mode, _ := svc.Value("Mode")
	assert.Equal(t, "GUI", mode.AsString())
}

func TestSetValue_ReplacesOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, _ := newTestService(t, path)
	registry := commands.NewRegistry()
	require.NoError(t, svc.BindArguments(registry))

	ctx := context.Background()
	require.NoError(t, svc.PreInit(ctx))
	registry.ScanArguments([]string{"-threadcount:4"})
	require.NoError(t, svc.Init(ctx))

	require.NoError(t, svc.SetValue("Thread-Count", IntValue(24)))
	require.NoError(t, svc.Save())
	require.NoError(t, svc.Reload(ctx))

	assert.Equal(t, 24, intValue(t, svc, "Thread-Count"))
	assert.Equal(t, 24, readEntries(t, path)["Thread-Count"])
}

func TestReload_ConcurrentReadersSeeFileValues(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	require.NoError(t, os.WriteFile(path, []byte("Thread-Count: 32\nMode: GUI\nExperimental: false\nRatio: 0.5\nMirrors: [a]\n"), 0644))
	svc, _ := newTestService(t, path)
	startService(t, svc)
	ctx := context.Background()

	done := make(chan struct{})
	var wg sync.WaitGroup
	var stale atomic.Int64
	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case <-done:
				return
			default:
			}
			v, err := svc.Value("Thread-Count")
			if err != nil || v.AsInt() != 32 {
				stale.Add(1)
			}
			mode, err := svc.Value("Mode")
			if err != nil || mode.AsString() != "GUI" {
				stale.Add(1)
			}
		}
	}()

	for i := 0; i < 200; i++ {
		require.NoError(t, svc.Reload(ctx))
		if i%20 == 0 {
			require.NoError(t, svc.Save())
		}
	}
	close(done)
	wg.Wait()

	assert.Zero(t, stale.Load(), "a reader observed a value the file does not hold")
	assert.Equal(t, 32, readEntries(t, path)["Thread-Count"])
}

func TestSetAndSave(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, _ := newTestService(t, path)
	startService(t, svc)

	require.NoError(t, svc.SetAndSave("Thread-Count", "48"))
	assert.Equal(t, 48, intValue(t, svc, "Thread-Count"))
	assert.Equal(t, 48, readEntries(t, path)["Thread-Count"])

	var keyErr KeyError
	require.ErrorAs(t, svc.SetAndSave("Thread-Count", "0"), &keyErr)
	assert.Equal(t, ErrorTypeValidation, keyErr.ErrorType)
	assert.Equal(t, 48, readEntries(t, path)["Thread-Count"])

	memory, _ := newTestService(t, "")
	startService(t, memory)
	require.NoError(t, memory.SetAndSave("Mode", "gui"))
	mode, _ := memory.Value("Mode")
	assert.Equal(t, "GUI", mode.AsString())
}
