package logfile

import (
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/pkg/errors"

	"launchkit/pkg/logging"
)

type archivedLog struct {
	path    string
	created time.Time
}

// listArchives returns the log files in dir other than the live file, oldest
// first. Ties are broken by name so archives of the same instant keep their
// timestamp order.
func listArchives(dir, live string) ([]archivedLog, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to list %s", dir)
	}

	var logs []archivedLog
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.Contains(name, Marker) || name == live {
			continue
		}
		path := filepath.Join(dir, name)
		created, err := creationTime(path)
		if err != nil {
			continue
		}
		logs = append(logs, archivedLog{path: path, created: created})
	}

	sort.SliceStable(logs, func(i, j int) bool {
		if !logs[i].created.Equal(logs[j].created) {
			return logs[i].created.Before(logs[j].created)
		}
		return logs[i].path < logs[j].path
	})
	return logs, nil
}

// enforceStockpileLocked deletes the oldest archives in dir until at most
// limit remain.
func (e *Engine) enforceStockpileLocked(dir string, limit int) error {
	logs, err := listArchives(dir, filepath.Base(e.path))
	if err != nil {
		return err
	}
	if len(logs) <= limit {
		return nil
	}

	e.emitLocked(logging.LevelInfo, "Limit of stockpile has been reached (currently found %d log files)! Deleting the oldest files...", len(logs))
	deleted := 0
	for len(logs) > limit {
		oldest := logs[0]
		logs = logs[1:]

		err := os.Remove(oldest.path)
		switch {
		case err == nil:
			deleted++
			e.emitLocked(logging.LevelInfo, "%s has been deleted!", oldest.path)
		case errors.Is(err, os.ErrNotExist):
			e.emitLocked(logging.LevelError, "%s was meant to be deleted, but it's missing! Something is not right...", oldest.path)
		default:
			e.emitLocked(logging.LevelError, "Failed to delete the log file %s: %v", oldest.path, err)
		}
	}

	if e.observer != nil && deleted > 0 {
		e.observer.StockpileDeleted(deleted)
	}
	return nil
}
