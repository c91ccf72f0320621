package app

import (
	"path/filepath"

	"launchkit/internal/config"
	"launchkit/internal/services"
)

// Configuration services and their files.
const (
	MainServiceName    = "Main Configuration"
	MainFileName       = "launchkit.yaml"
	LoggingServiceName = "Logging Configuration"
	LoggingFileName    = "logging.yaml"
	SessionServiceName = "Session"
)

// Keys of the main configuration.
const (
	KeyAppMode          = "App-Mode"
	KeyThreadCount      = "Thread-Count"
	KeyDownloadAttempts = "Download-Attempts"
	KeyHashVerification = "Hash-Verification"
	KeySizeVerification = "Size-Verification"
	KeyUpdater          = "Updater"
	KeyExperimental     = "Experimental"
)

// Keys of the logging configuration.
const (
	KeyLogDirectory   = "Log-Directory"
	KeyStockpileLogs  = "Stockpile-Logs"
	KeyCompressLogs   = "Compress-Logs"
	KeyStockpileLimit = "Stockpile-Limit"
)

// Keys of the in-memory session configuration.
const (
	KeyInteractive        = "Interactive"
	KeyBypassNetworkCheck = "Bypass-Network-Check"
)

// App modes.
const (
	ModeCLI = "CLI"
	ModeGUI = "GUI"
)

func constant(v config.Value) func() config.Value {
	return func() config.Value { return v }
}

// defaultMode picks the console when stdin is a terminal or -forceconsole
// was given, unless -forcegui was given.
func (a *Application) defaultMode() config.Value {
	if a.forceGUI {
		return config.StringValue(ModeGUI)
	}
	if a.forceConsole || a.config.IsTerminal() {
		return config.StringValue(ModeCLI)
	}
	return config.StringValue(ModeGUI)
}

func registerKeys(svc *config.Service, specs []config.KeySpec) error {
	for _, spec := range specs {
		key, err := config.NewKey(spec)
		if err != nil {
			return err
		}
		if err := svc.RegisterKey(key); err != nil {
			return err
		}
	}
	return nil
}

func (a *Application) newMainConfig(status services.StatusProvider, tracker *config.Tracker) (*config.Service, error) {
	svc := config.NewService(MainServiceName, filepath.Join(a.config.WorkDir, MainFileName), status, tracker)
	err := registerKeys(svc, []config.KeySpec{
		{
			Name:        KeyAppMode,
			Default:     a.defaultMode,
			Parser:      config.CanonicalOneOf(KeyAppMode, ModeCLI, ModeGUI),
			Verifier:    config.OneOf(ModeCLI, ModeGUI),
			Argument:    "mode",
			Description: "Mode the launcher runs in: CLI or GUI",
		},
		{
			Name:        KeyThreadCount,
			Default:     constant(config.IntValue(16)),
			Parser:      config.IntRangeParser(KeyThreadCount, 1, 128),
			Verifier:    config.IntRange(1, 128),
			Argument:    "threadcount",
			Description: "Number of worker threads used for downloads (1-128)",
		},
		{
			Name:        KeyDownloadAttempts,
			Default:     constant(config.IntValue(5)),
			Parser:      config.IntRangeParser(KeyDownloadAttempts, 1, 255),
			Verifier:    config.IntRange(1, 255),
			Argument:    "downloadattempts",
			Description: "Attempts per file before a download fails (1-255)",
		},
		{
			Name:        KeyHashVerification,
			Default:     constant(config.BoolValue(true)),
			Argument:    "hashverification",
			Description: "Verify checksums of downloaded files",
		},
		{
			Name:        KeySizeVerification,
			Default:     constant(config.BoolValue(true)),
			Argument:    "sizeverification",
			Description: "Verify sizes of downloaded files",
		},
		{
			Name:        KeyUpdater,
			Default:     constant(config.BoolValue(true)),
			Argument:    "updater",
			Description: "Look for launcher updates",
		},
		{
			Name:        KeyExperimental,
			Default:     constant(config.BoolValue(false)),
			Argument:    "experimental",
			Description: "Enable experimental features",
		},
	})
	return svc, err
}

func (a *Application) newLoggingConfig(status services.StatusProvider, tracker *config.Tracker) (*config.Service, error) {
	svc := config.NewService(LoggingServiceName, filepath.Join(a.config.WorkDir, LoggingFileName), status, tracker)
	err := registerKeys(svc, []config.KeySpec{
		{
			Name:        KeyLogDirectory,
			Default:     constant(config.StringValue("")),
			Argument:    "logspath",
			Description: "Directory for the log files. Empty keeps them in the working directory",
		},
		{
			Name:        KeyStockpileLogs,
			Default:     constant(config.BoolValue(true)),
			Argument:    "stockpilelogs",
			Description: "Keep the logs of previous runs",
		},
		{
			Name:        KeyCompressLogs,
			Default:     constant(config.BoolValue(true)),
			Argument:    "compresslogs",
			Description: "Compress the logs of previous runs",
		},
		{
			Name:        KeyStockpileLimit,
			Default:     constant(config.IntValue(10)),
			Argument:    "logstocksize",
			Description: "Maximum number of kept logs. Zero or less keeps all of them",
		},
	})
	return svc, err
}

func (a *Application) newSessionConfig(status services.StatusProvider, tracker *config.Tracker) (*config.Service, error) {
	svc := config.NewService(SessionServiceName, "", status, tracker)
	err := registerKeys(svc, []config.KeySpec{
		{
			Name:        KeyInteractive,
			Default:     constant(config.BoolValue(false)),
			Argument:    "interactive",
			Description: "Open the interactive console after startup",
		},
		{
			Name:        KeyBypassNetworkCheck,
			Default:     constant(config.BoolValue(false)),
			Argument:    "bypassnetworkcheck",
			Description: "Skip the network availability check",
		},
	})
	return svc, err
}
