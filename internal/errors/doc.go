// Package apperrors defines the structured error types of the spectator
// pipeline and the CLI exit codes.
//
// Only ArgumentError ever reaches an embedding application; everything else on
// the GC path is best-effort and is logged or counted instead of returned.
// All wrapping types implement Unwrap so errors.Is and errors.As see through them.
package apperrors
