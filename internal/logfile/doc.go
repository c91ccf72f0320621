// Package logfile implements the rotating log file behind the logging sink.
//
// The Engine is registered as the first lifecycle service. Before PRE_INIT it
// buffers every entry in memory. PRE_INIT renames the previous run's live
// file to launchkit-archived.log, creates a fresh launchkit.log in the
// working directory and flushes the buffer with the original timestamps.
//
// POST_INIT reads the logging Settings and finishes the rotation:
//
//   - a custom directory receives the live file and the previous archive
//   - archives get a timestamp name, gzipped when compression is on
//   - without stockpiling, old files are deleted instead of archived
//   - with a stockpile limit, the oldest archives are deleted
//
// The live file is opened for every entry and never implicitly created, so a
// file deleted at runtime is detected and re-created with a CRITICAL note
// that log continuity was broken. When even that fails the engine falls back
// to the console and the write returns an error.
//
// CrashInit is the initialization used on the crash path. It never fails:
// it degrades from a normal PRE_INIT to an existing or bare live file and
// finally to console output.
package logfile
