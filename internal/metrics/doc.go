// Package metrics exports GC events, pipeline counters and descriptor pressure
// as Prometheus metrics, and samples the runtime's own memory statistics for
// cross-checking observed collections.
package metrics
