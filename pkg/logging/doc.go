// Package logging provides the logging front end used by every launchkit
// component.
//
// Callers log through package-level functions tagged with a subsystem name:
//
//	logging.Info("Service Manager", "Registered service: %s", name)
//	logging.Warn("Config", "Missing key %s, regenerating", key)
//	logging.Error("Launcher", err, "Startup failed")
//
// # Output
//
// Two destinations receive entries:
//
//   - The console, through a log/slog text handler configured by InitForCLI.
//     Level filtering applies only here.
//   - A Sink installed with SetSink. The sink receives every entry regardless
//     of level. In the launcher the sink is the rotating log file engine from
//     internal/logfile, which buffers entries until its file exists.
//
// # Failure
//
// A sink returns an error only when it has exhausted its own fallbacks. The
// logging call then panics with that error so the entry point can run its
// crash path; losing the log silently is never an option.
//
// # Thread Safety
//
// The installed console logger and sink are guarded by a mutex, so logging is
// safe from any goroutine. Ordering guarantees of the file itself are the
// sink's responsibility.
package logging
