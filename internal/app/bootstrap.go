package app

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"launchkit/internal/commands"
	"launchkit/internal/config"
	"launchkit/internal/logfile"
	"launchkit/internal/metrics"
	"launchkit/internal/services"
	"launchkit/internal/updater"
	"launchkit/pkg/logging"
)

const subsystem = "Launcher"

// GUI is the graphical front end. Without one, GUI mode continues headless.
type GUI interface {
	Run(ctx context.Context) error
}

// CrashError is returned by Run after the crash path ran.
type CrashError struct {
	Err       error
	LogPath   string
	SessionID string
}

func (e *CrashError) Error() string {
	return fmt.Sprintf("launchkit crashed (session %s): %v", e.SessionID, e.Err)
}

func (e *CrashError) Unwrap() error {
	return e.Err
}

// Application represents the launcher: its lifecycle services, the argument
// and command registry and the collaborators the commands use.
//
// The bootstrap order is fixed:
//
//  1. register every service
//  2. PRE_INIT
//  3. decode arguments, queuing startup commands
//  4. INIT
//  5. run the queued startup commands
//  6. POST_INIT
//  7. GUI or interactive console
//  8. EXIT
//
// Any failure runs the crash path instead: crash initialization of the log
// file, a message naming the log file and the session, then the CRASH phase.
type Application struct {
	config    *Config
	sessionID string

	orchestrator *services.Orchestrator
	registry     *commands.Registry
	tracker      *config.Tracker
	engine       *logfile.Engine
	recorder     *metrics.Recorder
	updater      *updater.Updater
	watcher      *config.Watcher
	gui          GUI

	mainConfig    *config.Service
	loggingConfig *config.Service
	sessionConfig *config.Service

	forceConsole bool
	forceGUI     bool

	report *commands.Report
}

// NewApplication creates the launcher and registers its services. Log
// entries are buffered from here on until the log file exists.
func NewApplication(cfg *Config) (*Application, error) {
	cfg.withDefaults()

	appLogLevel := logging.LevelInfo
	if cfg.Debug {
		appLogLevel = logging.LevelDebug
	}
	logging.InitForCLI(appLogLevel, cfg.Stdout)

	a := &Application{
		config:       cfg,
		sessionID:    uuid.New().String(),
		orchestrator: services.NewOrchestrator(),
		registry:     commands.NewRegistry(),
		tracker:      config.NewTracker(),
		recorder:     metrics.NewRecorder(),
		updater:      updater.New(),
		forceConsole: hasToken(cfg.Args, "forceconsole"),
		forceGUI:     hasToken(cfg.Args, "forcegui"),
	}

	a.engine = logfile.New(cfg.WorkDir, a.logSettings)
	a.engine.SetConsole(cfg.Stdout)
	a.engine.SetObserver(a.recorder)
	logging.SetSink(a.engine)

	a.orchestrator.SetObserver(a.recorder)
	a.registry.SetObserver(a.recorder)

	if err := a.registerServices(); err != nil {
		return nil, a.setupFailed(errors.Wrap(err, "failed to register services"))
	}
	if err := a.registerCommands(); err != nil {
		return nil, a.setupFailed(errors.Wrap(err, "failed to register commands"))
	}
	return a, nil
}

// setupFailed writes the buffered entries and err to the log file before any
// phase ran, and returns err.
func (a *Application) setupFailed(err error) error {
	a.engine.CrashInit()
	logging.Critical(subsystem, err, "Launcher setup failed!")
	fmt.Fprintf(a.config.Stderr, "launchkit failed to start: %v\nFor more details, check the log file at %s\n", err, a.engine.LogPath())
	return err
}

func (a *Application) registerServices() error {
	var err error
	if a.mainConfig, err = a.newMainConfig(a.orchestrator, a.tracker); err != nil {
		return err
	}
	if a.loggingConfig, err = a.newLoggingConfig(a.orchestrator, a.tracker); err != nil {
		return err
	}
	if a.sessionConfig, err = a.newSessionConfig(a.orchestrator, a.tracker); err != nil {
		return err
	}

	list := []services.Service{
		a.engine,
		a.mainConfig,
		a.loggingConfig,
		a.sessionConfig,
		config.NewConflictService(a.tracker),
		newLauncherService(a),
	}
	for _, svc := range list {
		if err := a.orchestrator.Register(svc); err != nil {
			return err
		}
	}

	for _, svc := range a.tracker.Services() {
		svc.SetObserver(a.recorder)
		if err := svc.BindArguments(a.registry); err != nil {
			return err
		}
	}
	return nil
}

// SessionID identifies this run in the log file and crash messages.
func (a *Application) SessionID() string {
	return a.sessionID
}

// SetGUI installs the graphical front end used in GUI mode.
func (a *Application) SetGUI(gui GUI) {
	a.gui = gui
}

// SetUpdater replaces the release updater used by self-update.
func (a *Application) SetUpdater(u *updater.Updater) {
	a.updater = u
}

// Report returns the outcome of startup decoding, or nil before it ran.
func (a *Application) Report() *commands.Report {
	return a.report
}

// Run drives the lifecycle to completion. The returned error is a
// *CrashError when the crash path ran.
func (a *Application) Run(ctx context.Context) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = a.crash(ctx, errors.Errorf("unexpected panic: %v", r))
		}
	}()

	if err := a.startup(ctx); err != nil {
		return a.crash(ctx, err)
	}
	if err := a.runMode(ctx); err != nil {
		return a.crash(ctx, err)
	}
	if err := a.orchestrator.RunPhase(ctx, services.PhaseExit); err != nil {
		return a.crash(ctx, err)
	}
	return nil
}

func (a *Application) startup(ctx context.Context) error {
	start := time.Now()
	logging.Info(subsystem, "Starting launchkit %s (session %s)", a.config.Version, a.sessionID)

	if err := a.orchestrator.RunPhase(ctx, services.PhasePreInit); err != nil {
		return err
	}

	a.report = a.registry.ScanArguments(a.config.Args)
	for _, failed := range a.report.Failed() {
		logging.Warn(subsystem, "Argument %q was skipped: %v", failed.Input, failed.Err)
	}

	if err := a.orchestrator.RunPhase(ctx, services.PhaseInit); err != nil {
		return err
	}

	a.registry.RunPending(a.report)

	if err := a.orchestrator.RunPhase(ctx, services.PhasePostInit); err != nil {
		return err
	}

	logging.Info(subsystem, "Startup finished in %.3fs.", time.Since(start).Seconds())
	return nil
}

// crash runs the crash path for cause and returns the CrashError for it.
func (a *Application) crash(ctx context.Context, cause error) error {
	a.engine.CrashInit()
	logging.Critical(subsystem, cause, "Application crashed!")

	logPath := a.engine.LogPath()
	fmt.Fprintf(a.config.Stderr, "launchkit crashed: %v\nFor more details, check the log file at %s (session %s)\n", cause, logPath, a.sessionID)

	if err := a.orchestrator.RunPhase(ctx, services.PhaseCrash); err != nil {
		logging.Error(subsystem, err, "CRASH phase failed")
	}
	return &CrashError{Err: cause, LogPath: logPath, SessionID: a.sessionID}
}

// logSettings feeds the logging configuration to the log file engine.
func (a *Application) logSettings() (logfile.Settings, error) {
	dir, err := a.loggingConfig.Value(KeyLogDirectory)
	if err != nil {
		return logfile.Settings{}, err
	}
	stockpile, err := a.loggingConfig.Value(KeyStockpileLogs)
	if err != nil {
		return logfile.Settings{}, err
	}
	compress, err := a.loggingConfig.Value(KeyCompressLogs)
	if err != nil {
		return logfile.Settings{}, err
	}
	limit, err := a.loggingConfig.Value(KeyStockpileLimit)
	if err != nil {
		return logfile.Settings{}, err
	}

	directory := dir.AsString()
	if directory != "" && !filepath.IsAbs(directory) {
		directory = filepath.Join(a.config.WorkDir, directory)
	}
	return logfile.Settings{
		Directory: directory,
		Stockpile: stockpile.AsBool(),
		Compress:  compress.AsBool(),
		Limit:     limit.AsInt(),
	}, nil
}

// hasToken reports whether args contain the argument name, with or without
// a value.
func hasToken(args []string, name string) bool {
	for _, arg := range args {
		if !strings.HasPrefix(arg, "-") {
			continue
		}
		token, _, _ := strings.Cut(arg, ":")
		if commands.Normalize(token) == name {
			return true
		}
	}
	return false
}

func (a *Application) out() io.Writer {
	return a.config.Stdout
}
