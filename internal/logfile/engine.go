package logfile

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/pkg/errors"

	"launchkit/internal/services"
	"launchkit/pkg/logging"
)

const (
	// ServiceName is the lifecycle name of the engine.
	ServiceName = "Logger Service"

	// FileName is the name of the live log file.
	FileName = "launchkit.log"

	// ArchivedFileName is the intermediate name of the previous run's log
	// until it gets its final timestamp name in POST_INIT.
	ArchivedFileName = "launchkit-archived.log"

	// Marker identifies log files in the log directory.
	Marker = ".log"

	subsystem = "Logger"
)

// State of the engine.
type State int

const (
	StateUninitialized State = iota
	StateInitialized
	StateCrashed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateInitialized:
		return "initialized"
	case StateCrashed:
		return "crashed"
	default:
		return "unknown"
	}
}

// Settings are read at the start of POST_INIT.
type Settings struct {
	// Directory receives the live log and the archives. Empty means the
	// directory the live log was created in.
	Directory string
	// Stockpile keeps archives of previous runs instead of deleting them.
	Stockpile bool
	// Compress gzips archives.
	Compress bool
	// Limit is the maximum number of archives kept. Zero or less is unbounded.
	Limit int
}

// SettingsFunc supplies Settings. It is called once per POST_INIT.
type SettingsFunc func() (Settings, error)

// Observer is notified of archive housekeeping.
type Observer interface {
	Archived(compressed bool)
	StockpileDeleted(count int)
	ContinuityBroken()
}

// Engine writes log entries to a live file it rotates across runs. It is both
// a lifecycle service (PRE_INIT, POST_INIT) and the logging sink. Entries
// written before PRE_INIT are buffered and flushed with their original
// timestamps once the file exists.
type Engine struct {
	*services.BaseService

	mu       sync.Mutex
	workDir  string
	path     string
	state    State
	buffer   []logging.LogEntry
	settings SettingsFunc
	observer Observer
	console  io.Writer
	now      func() time.Time
}

// New creates an engine that creates its live file in workDir.
func New(workDir string, settings SettingsFunc) *Engine {
	return &Engine{
		BaseService: services.NewBaseService(ServiceName, services.PhasePreInit, services.PhasePostInit),
		workDir:     workDir,
		path:        filepath.Join(workDir, FileName),
		settings:    settings,
		console:     os.Stdout,
		now:         time.Now,
	}
}

// SetObserver installs an observer for archive housekeeping.
func (e *Engine) SetObserver(observer Observer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.observer = observer
}

// SetConsole sets where entries go once the engine crashed. Defaults to stdout.
func (e *Engine) SetConsole(w io.Writer) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.console = w
}

// LogPath returns the absolute path of the live log file.
func (e *Engine) LogPath() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	abs, err := filepath.Abs(e.path)
	if err != nil {
		return e.path
	}
	return abs
}

// State returns the engine state.
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Initialized reports whether entries are no longer buffered.
func (e *Engine) Initialized() bool {
	return e.State() != StateUninitialized
}

// Write implements logging.Sink. A live file that vanished is re-created
// once; the error is only returned when that fails too.
func (e *Engine) Write(entry logging.LogEntry) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state == StateUninitialized {
		e.buffer = append(e.buffer, entry)
		return nil
	}
	return e.writeLocked(entry)
}

// emitLocked writes one of the engine's own messages.
func (e *Engine) emitLocked(level logging.LogLevel, format string, args ...interface{}) {
	entry := logging.LogEntry{
		Timestamp: e.now(),
		Level:     level,
		Subsystem: subsystem,
		Message:   fmt.Sprintf(format, args...),
	}
	if e.state == StateUninitialized {
		e.buffer = append(e.buffer, entry)
		return
	}
	if err := e.writeLocked(entry); err != nil {
		fmt.Fprintf(os.Stderr, "%s", formatEntry(entry))
	}
}

func (e *Engine) writeLocked(entry logging.LogEntry) error {
	text := formatEntry(entry)

	if e.state == StateCrashed {
		_, _ = io.WriteString(e.console, text)
		return nil
	}

	err := appendToFile(e.path, text)
	if err == nil {
		return nil
	}
	if exists(e.path) {
		return errors.Wrapf(err, "failed to write log file %s", e.path)
	}

	// The live file vanished. Re-create it and retry the entry once.
	if ierr := createFile(e.path); ierr != nil {
		e.state = StateCrashed
		_, _ = io.WriteString(e.console, text)
		return errors.Wrap(ierr, "log continuity broken: failed re-creating log file")
	}
	if e.observer != nil {
		e.observer.ContinuityBroken()
	}
	e.emitLocked(logging.LevelCritical, "LOG CONTINUITY BROKEN! Log file %q seems to have been deleted. Created another copy, but the rest of the log file has been lost.", e.path)
	e.emitLocked(logging.LevelError, "Catching last message...")

	if err := appendToFile(e.path, text); err != nil {
		return errors.Wrapf(err, "log continuity broken: failed writing to re-created log file %s", e.path)
	}
	return nil
}

// appendToFile opens path for every write and never creates it, so a
// deleted live file is noticed on the next entry.
func appendToFile(path, text string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(text); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func createFile(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	return f.Close()
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// PreInit archives the previous live file under ArchivedFileName, creates a
// fresh live file and flushes the buffered entries.
func (e *Engine) PreInit(ctx context.Context) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.initLocked()
}

func (e *Engine) initLocked() error {
	live := filepath.Join(e.workDir, FileName)
	e.path = live

	archivedNow := false
	if exists(live) {
		archived := filepath.Join(e.workDir, ArchivedFileName)
		if err := os.Rename(live, archived); err != nil {
			return errors.Wrapf(err, "failed to archive previous log file %s", live)
		}
		archivedNow = true
	}
	if err := createFile(live); err != nil {
		return errors.Wrapf(err, "failed to create log file %s", live)
	}

	e.state = StateInitialized
	if archivedNow {
		e.emitLocked(logging.LevelInfo, "Old Log file found! %q file has been archived for now.", live)
	}
	e.emitLocked(logging.LevelInfo, "%q file created.", live)
	e.emitLocked(logging.LevelInfo, "Logger Initialization completed.")
	e.flushLocked()
	return nil
}

func (e *Engine) flushLocked() {
	buffered := e.buffer
	e.buffer = nil
	for _, entry := range buffered {
		if err := e.writeLocked(entry); err != nil {
			fmt.Fprintf(os.Stderr, "%s", formatEntry(entry))
		}
	}
}

// CrashInit initializes the engine on the crash path. It retries the normal
// initialization, then falls back to an existing or bare live file, and
// finally to writing every entry to the console.
func (e *Engine) CrashInit() {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state != StateUninitialized {
		return
	}

	initErr := e.initLocked()
	if initErr == nil {
		e.emitLocked(logging.LevelWarn, "Logger was initialized with use of CRASH initialization!")
		return
	}

	e.path = filepath.Join(e.workDir, FileName)
	e.state = StateInitialized
	switch {
	case exists(e.path):
		e.emitLocked(logging.LevelWarn, "USING OLD LOG FILE DUE TO APPLICATION CRASH.")
	case createFile(e.path) == nil:
		e.emitLocked(logging.LevelWarn, "Successfully created new log file.")
	default:
		e.state = StateCrashed
		e.emitLocked(logging.LevelError, "Failed creating log file! Printing every message to the console.")
	}
	e.emitLocked(logging.LevelError, "Normal initialization failed: %v", initErr)
	e.flushLocked()
}
