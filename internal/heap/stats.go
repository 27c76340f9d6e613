package heap

// Stats holds the aggregate heap counters reported by the host.
type Stats struct {
	TotalHeapSize           uint64
	TotalHeapSizeExecutable uint64
	TotalPhysicalSize       uint64
	TotalAvailableSize      uint64
	UsedHeapSize            uint64
	HeapSizeLimit           uint64
	MallocedMemory          uint64 // valid only with Features.Malloced
	PeakMallocedMemory      uint64 // valid only with Features.Malloced
	NumNativeContexts       uint64 // valid only with Features.NativeContexts
	NumDetachedContexts     uint64 // valid only with Features.NativeContexts
}

// SpaceStats holds the counters of one named heap space.
type SpaceStats struct {
	Name          string
	Size          uint64
	UsedSize      uint64
	AvailableSize uint64
	PhysicalSize  uint64
}

// Features lists the optional counter families a host can report.
type Features struct {
	// Malloced covers MallocedMemory and PeakMallocedMemory.
	Malloced bool
	// NativeContexts covers NumNativeContexts and NumDetachedContexts.
	NativeContexts bool
}

// Reader is the part of a host a Snapshot reads from. Implementations must
// keep NumHeapSpaces and the order of spaces fixed for their whole lifetime,
// and must not allocate in ReadHeapStatistics or ReadHeapSpaceStatistics.
type Reader interface {
	// NumHeapSpaces returns the number of heap spaces.
	NumHeapSpaces() int
	// ReadHeapStatistics fills the aggregate counters.
	ReadHeapStatistics(s *Stats)
	// ReadHeapSpaceStatistics fills the counters of space index and reports
	// whether the read succeeded.
	ReadHeapSpaceStatistics(s *SpaceStats, index int) bool
	// HeapFeatures reports the optional counters this host provides.
	HeapFeatures() Features
	// HRTime returns a monotonic timestamp in nanoseconds. It is never zero.
	HRTime() uint64
}

// Gate reports whether observability work must stop.
type Gate interface {
	ShuttingDown() bool
}
