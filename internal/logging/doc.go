// Package logging builds the slog loggers used across cuesheet.
//
// Console output is a single line per record: RFC3339 timestamp, level,
// optional "component:" prefix, message, then key=value attributes. JSON
// output uses the ts/level/msg keys. Outputs are "stdout", "stderr" or file
// paths; the TUI always logs to a file because it owns the terminal.
package logging
