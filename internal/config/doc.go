// Package config provides typed, persisted configuration for launchkit services.
//
// Each subsystem owns a Service holding an ordered set of Keys. A Key has a
// name, a default supplier that is re-evaluated on every PRE_INIT, an optional
// parser and verifier, an optional command-line argument and a description.
// The kind of a key's value is fixed by its default and never changes.
//
// # Lifecycle
//
// Keys are registered before the lifecycle starts. During PRE_INIT every key is
// reset to its default and a missing configuration file is generated. During
// INIT the file is read and every key takes its file value. The file is
// regenerated from the values in effect when:
//   - a key is missing from the file
//   - a value fails the key's verifier
//   - a value cannot be parsed
//   - the file holds keys nobody registered
//
// Values can only be read once INIT finished.
//
// # File Format
//
// Configuration files are YAML. Every entry is preceded by the key's
// description and the argument that sets it:
//
//	# Main Configuration file
//
//	# Amount of threads used for downloads.
//	# Argument: -threadcount
//	Thread-Count: 16
//
// # Arguments
//
// BindArguments registers every key's argument with a commands.Registry.
// An argument decoded before INIT is applied after the file was loaded, so it
// wins over the file for the current run without being written to it.
//
// # Conflicts
//
// Every Service is added to a Tracker. The ConflictService checks the tracked
// services during POST_INIT: two services sharing a file or an argument is a
// fatal error, the same key name in two services only a warning.
//
// # Live Reload
//
// Watcher reloads file-backed services when their files change on disk.
package config
