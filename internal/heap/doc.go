// Package heap captures point-in-time heap statistics from a managed-heap host.
//
// A Snapshot is sized once from the host's heap-space count and can then be
// refilled any number of times without allocating, which makes Capture safe to
// call from GC hooks. Serialization into a Record happens later, off the GC path.
package heap
