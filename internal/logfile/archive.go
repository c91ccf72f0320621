package logfile

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/pkg/errors"

	"launchkit/pkg/logging"
)

const (
	// archiveLayout gives archives lexicographically sortable names.
	archiveLayout = "2006-01-02_15-04-05.000"

	unknownName = "unknown"
)

// PostInit moves the live log into the configured directory, gives the
// previous run's log its final archive name and enforces the stockpile limit.
func (e *Engine) PostInit(ctx context.Context) error {
	var settings Settings
	if e.settings != nil {
		s, err := e.settings()
		if err != nil {
			return errors.Wrap(err, "failed to read logging settings")
		}
		settings = s
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateInitialized {
		return fmt.Errorf("logger is %s, POST_INIT needs an initialized log file", e.state)
	}

	logDir := settings.Directory
	if logDir == "" {
		logDir = filepath.Dir(e.path)
	}

	custom, err := differentDirs(logDir, filepath.Dir(e.path))
	if err != nil {
		return err
	}

	if custom {
		if err := e.relocateLocked(logDir, settings); err != nil {
			return err
		}
	} else {
		e.emitLocked(logging.LevelInfo, "No custom path for logs has been specified, using %q for logging!", logDir)
		archived := filepath.Join(logDir, ArchivedFileName)
		if exists(archived) {
			if err := e.disposeLocked(archived, logDir, settings); err != nil {
				return err
			}
		}
	}

	switch {
	case settings.Stockpile && settings.Limit > 0:
		e.emitLocked(logging.LevelInfo, "Stockpiling of the logs is enabled! Stockpile limit is %d", settings.Limit)
		if err := e.enforceStockpileLocked(logDir, settings.Limit); err != nil {
			return err
		}
	case settings.Stockpile:
		e.emitLocked(logging.LevelInfo, "Stockpiling of the logs is enabled! Stockpile limit is infinite!")
	}

	e.emitLocked(logging.LevelInfo, "Post-Initialization of Logger finished!")
	return nil
}

func differentDirs(a, b string) (bool, error) {
	absA, err := filepath.Abs(a)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve %s", a)
	}
	absB, err := filepath.Abs(b)
	if err != nil {
		return false, errors.Wrapf(err, "failed to resolve %s", b)
	}
	return absA != absB, nil
}

// relocateLocked handles a log directory different from the live file's.
func (e *Engine) relocateLocked(logDir string, settings Settings) error {
	if _, err := os.Stat(logDir); errors.Is(err, os.ErrNotExist) {
		e.emitLocked(logging.LevelInfo, "Custom path for logs has been specified, but it doesn't exist! Creating %q.", logDir)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return errors.Wrapf(err, "failed to create log directory %s", logDir)
		}
	} else {
		e.emitLocked(logging.LevelInfo, "Custom path for logs has been specified: %q.", logDir)
	}

	archivedInDest := filepath.Join(logDir, ArchivedFileName)
	liveInDest := filepath.Join(logDir, FileName)
	archivedLocal := filepath.Join(filepath.Dir(e.path), ArchivedFileName)

	// An intermediate archive in the destination means the last POST_INIT
	// did not finish.
	if exists(archivedInDest) {
		e.emitLocked(logging.LevelWarn, "Found old pre-full-archive log file in specified path! This might signal a crash in the last post-init phase of the logger!")
		name, err := placeFile(archivedInDest, logDir, unknownName, settings.Compress)
		if err != nil {
			return err
		}
		e.emitLocked(logging.LevelWarn, "The log file has been saved as %s for future inspection.", name)
	}

	if exists(archivedLocal) {
		if settings.Stockpile {
			e.emitLocked(logging.LevelInfo, "Found archived log in %q! Moving archived log to new location...", filepath.Dir(archivedLocal))
			if err := moveFile(archivedLocal, archivedInDest); err != nil {
				return errors.Wrapf(err, "failed to move %s", archivedLocal)
			}
			if err := e.disposeLocked(archivedInDest, logDir, settings); err != nil {
				return err
			}
		} else if err := e.disposeLocked(archivedLocal, logDir, settings); err != nil {
			return err
		}
	}

	// The live file of a previous run that used the same directory.
	if exists(liveInDest) {
		if settings.Stockpile {
			e.emitLocked(logging.LevelInfo, "Old log file found in the log directory! Archiving the log file...")
			if err := os.Rename(liveInDest, archivedInDest); err != nil {
				return errors.Wrapf(err, "failed to archive %s", liveInDest)
			}
			if err := e.disposeLocked(archivedInDest, logDir, settings); err != nil {
				return err
			}
		} else if err := e.disposeLocked(liveInDest, logDir, settings); err != nil {
			return err
		}
	}

	if !exists(e.path) {
		e.emitLocked(logging.LevelError, "The log file doesn't exist before even archiving! Something is horribly wrong...")
		return nil
	}

	e.emitLocked(logging.LevelInfo, "Moving currently active log file to new location...")
	if err := moveFile(e.path, liveInDest); err != nil {
		return errors.Wrapf(err, "failed to move live log to %s", liveInDest)
	}
	e.path = liveInDest
	e.emitLocked(logging.LevelInfo, "Moved currently active log to the new location: %q.", liveInDest)
	return nil
}

// disposeLocked archives path under a timestamp name in dir when stockpiling
// is enabled, and deletes it otherwise.
func (e *Engine) disposeLocked(path, dir string, settings Settings) error {
	if !exists(path) {
		return nil
	}
	if !settings.Stockpile {
		e.emitLocked(logging.LevelInfo, "Found old log file %q! However, stockpiling of the logs has been disabled. Deleting old log file...", filepath.Base(path))
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "failed to delete %s", path)
		}
		e.emitLocked(logging.LevelInfo, "Old log file has been deleted!")
		return nil
	}

	name, err := e.archiveLocked(path, dir, settings.Compress)
	if err != nil {
		return err
	}
	e.emitLocked(logging.LevelInfo, "Old log file has been archived as %s!", name)
	return nil
}

// archiveLocked gives path its final timestamp name in dir.
func (e *Engine) archiveLocked(path, dir string, compress bool) (string, error) {
	base := e.now().Format(archiveLayout)
	name, err := placeFile(path, dir, base, compress)
	if err != nil {
		return "", err
	}
	if e.observer != nil {
		e.observer.Archived(compress)
	}
	return name, nil
}

// placeFile moves path to dir as base+".log" (or ".log.gz" when compressing),
// appending a counter when that name is taken. It returns the new file name.
func placeFile(path, dir, base string, compress bool) (string, error) {
	ext := Marker
	if compress {
		ext += ".gz"
	}
	name := uniqueName(dir, base, ext)
	dest := filepath.Join(dir, name)

	if compress {
		if err := compressFile(path, dest); err != nil {
			return "", err
		}
		return name, nil
	}
	if err := moveFile(path, dest); err != nil {
		return "", errors.Wrapf(err, "failed to rename %s to %s", path, name)
	}
	return name, nil
}

func uniqueName(dir, base, ext string) string {
	name := base + ext
	for i := 1; exists(filepath.Join(dir, name)); i++ {
		name = fmt.Sprintf("%s-%d%s", base, i, ext)
	}
	return name
}

// compressFile gzips src into dest and removes src.
func compressFile(src, dest string) (err error) {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, "failed to open %s", src)
	}
	defer in.Close()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return errors.Wrapf(err, "failed to create %s", dest)
	}
	defer func() {
		if err != nil {
			out.Close()
			os.Remove(dest)
		}
	}()

	writer := gzip.NewWriter(out)
	writer.Name = strings.TrimSuffix(filepath.Base(dest), ".gz")
	if _, err = io.Copy(writer, in); err != nil {
		return errors.Wrapf(err, "failed to write compressed data to %s", dest)
	}
	if err = writer.Close(); err != nil {
		return errors.Wrap(err, "failed to close gzip writer")
	}
	if err = out.Close(); err != nil {
		return errors.Wrapf(err, "failed to close %s", dest)
	}

	in.Close()
	if err := os.Remove(src); err != nil {
		return errors.Wrapf(err, "failed to remove %s after compression", src)
	}
	return nil
}

// moveFile renames src to dest, copying across filesystems when needed.
func moveFile(src, dest string) error {
	err := os.Rename(src, dest)
	if err == nil {
		return nil
	}
	var linkErr *os.LinkError
	if !errors.As(err, &linkErr) || !errors.Is(linkErr.Err, syscall.EXDEV) {
		return err
	}

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}
	in.Close()
	return os.Remove(src)
}
