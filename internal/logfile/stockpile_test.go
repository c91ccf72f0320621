package logfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeArchives creates count archives one after another so their creation
// times ascend with their names.
func writeArchives(t *testing.T, dir string, count int) []string {
	t.Helper()
	base := time.Now().Add(-time.Hour)
	var names []string
	for i := 0; i < count; i++ {
		name := fmt.Sprintf("archive-%02d.log", i)
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(name), 0644))
		stamp := base.Add(time.Duration(i) * time.Minute)
		require.NoError(t, os.Chtimes(path, stamp, stamp))
		names = append(names, name)
		time.Sleep(10 * time.Millisecond)
	}
	return names
}

func TestListArchives(t *testing.T) {
	dir := t.TempDir()
	names := writeArchives(t, dir, 3)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), nil, 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), nil, 0644))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "old.log.d"), 0755))

	logs, err := listArchives(dir, FileName)
	require.NoError(t, err)
	require.Len(t, logs, 3)
	for i, l := range logs {
		assert.Equal(t, filepath.Join(dir, names[i]), l.path)
	}
}

func TestStockpile_DeletesOldest(t *testing.T) {
	dir := t.TempDir()
	names := writeArchives(t, dir, 5)

	e := newTestEngine(t, dir, Settings{Stockpile: true, Limit: 2})
	observer := &recordingObserver{}
	e.SetObserver(observer)
	require.NoError(t, e.PreInit(context.Background()))
	require.NoError(t, e.PostInit(context.Background()))

	assert.Equal(t, []string{names[3], names[4], FileName}, listNames(t, dir))
	assert.Equal(t, []int{3}, observer.deleted)

	content := readFile(t, filepath.Join(dir, FileName))
	assert.Contains(t, content, "Limit of stockpile has been reached (currently found 5 log files)!")
	for _, name := range names[:3] {
		assert.Contains(t, content, name+" has been deleted!")
	}
}

func TestStockpile_WithinLimit(t *testing.T) {
	dir := t.TempDir()
	names := writeArchives(t, dir, 2)

	e := newTestEngine(t, dir, Settings{Stockpile: true, Limit: 2})
	observer := &recordingObserver{}
	e.SetObserver(observer)
	require.NoError(t, e.PreInit(context.Background()))
	require.NoError(t, e.PostInit(context.Background()))

	assert.Equal(t, []string{names[0], names[1], FileName}, listNames(t, dir))
	assert.Empty(t, observer.deleted)
}

func TestStockpile_UnlimitedKeepsEverything(t *testing.T) {
	dir := t.TempDir()
	writeArchives(t, dir, 4)

	e := newTestEngine(t, dir, Settings{Stockpile: true, Limit: 0})
	require.NoError(t, e.PreInit(context.Background()))
	require.NoError(t, e.PostInit(context.Background()))

	assert.Len(t, listNames(t, dir), 5)
	assert.Contains(t, readFile(t, filepath.Join(dir, FileName)), "Stockpile limit is infinite!")
}

func TestStockpile_CountsTheFreshArchive(t *testing.T) {
	dir := t.TempDir()
	names := writeArchives(t, dir, 2)
	require.NoError(t, os.WriteFile(filepath.Join(dir, FileName), []byte("previous run\n"), 0644))

	e := newTestEngine(t, dir, Settings{Stockpile: true, Limit: 2})
	require.NoError(t, e.PreInit(context.Background()))
	require.NoError(t, e.PostInit(context.Background()))

	assert.Equal(t, []string{timestampName, names[1], FileName}, listNames(t, dir))
}
