// Package cli implements the line-oriented presenters of the spectator
// binary: a zerolog event log with a live spinner status, JSON lines, an
// end-of-run summary and shell completion scripts.
//
// Display* functions write to an io.Writer; Format* functions return a
// string without performing I/O.
package cli
