// Package app assembles the launcher.
//
// NewApplication wires every component together: the rotating log file
// (internal/logfile) as the logging sink, the three configuration services
// (Main Configuration in launchkit.yaml, Logging Configuration in
// logging.yaml and the in-memory Session), the conflict checker, the command
// registry with the built-in commands and the metrics recorder observing all
// of them.
//
// Run drives the lifecycle:
//
//	PRE_INIT   log file rotated, defaults evaluated, missing files generated
//	arguments  "-name:value" tokens decoded, startup commands queued
//	INIT       configuration files loaded, argument overrides applied
//	commands   queued startup commands executed
//	POST_INIT  logs relocated and stockpiled, conflicts checked
//	mode       GUI or interactive console
//	EXIT
//
// A failure anywhere switches to the crash path: the log file gets its crash
// initialization, the user is pointed at the log file and the session ID, and
// the CRASH phase gives every service a chance to clean up. Run then returns a
// *CrashError.
//
// # Commands
//
//	print-config [format]   every key with its value, default and argument
//	commands [format]       registered arguments and commands
//	log-path                path of the live log file
//	metrics [format]        counters of this session
//	set <key> <value>       console only, persists the owning file
//	save-config             console only, rewrites every file
//	self-update             console only, installs the latest release
//
// Formats are table (default), json and yaml.
package app
