// Package logging provides the structured logging interface used across the
// GC observation pipeline. Components depend on Logger and never on a concrete
// backend, so the hot paths can run with a no-op logger.
package logging
