package config

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_ReloadsChangedFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.yaml")
	svc, _ := newTestService(t, path)
	startService(t, svc)

	var reloads atomic.Int32
	w := NewWatcher(20 * time.Millisecond)
	w.OnReload = func(service string, err error) {
		if err == nil && service == svc.Name() {
			reloads.Add(1)
		}
	}
	require.NoError(t, w.Add(svc))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Start(ctx))
	defer w.Stop()

	content := "Thread-Count: 99\nMode: CLI\nExperimental: false\nRatio: 0.5\nMirrors: [a, b]\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	assert.Eventually(t, func() bool {
		v, err := svc.Value("Thread-Count")
		return err == nil && v.AsInt() == 99
	}, 2*time.Second, 20*time.Millisecond)
	assert.GreaterOrEqual(t, reloads.Load(), int32(1))
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.yaml")
	svc, _ := newTestService(t, path)
	startService(t, svc)

	var reloads atomic.Int32
	w := NewWatcher(10 * time.Millisecond)
	w.OnReload = func(string, error) { reloads.Add(1) }
	require.NoError(t, w.Add(svc))
	require.NoError(t, w.Start(context.Background()))
	defer w.Stop()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "other.yaml"), []byte("a: 1\n"), 0644))
	time.Sleep(100 * time.Millisecond)
	assert.Equal(t, int32(0), reloads.Load())
}

func TestWatcher_InMemoryAndStop(t *testing.T) {
	svc, _ := newTestService(t, "")
	w := NewWatcher(0)
	assert.NoError(t, w.Add(svc))
	assert.Empty(t, w.files)

	assert.NoError(t, w.Stop(), "stopping a watcher that never started")
	require.NoError(t, w.Start(context.Background()))
	assert.NoError(t, w.Stop())
	assert.NoError(t, w.Stop())
}
