package heap

// Record is the serialized form of a Snapshot handed to GC consumers.
// Optional counters are nil when the host does not report them.
type Record struct {
	TotalHeapSize           uint64        `json:"totalHeapSize"`
	TotalHeapSizeExecutable uint64        `json:"totalHeapSizeExecutable"`
	TotalPhysicalSize       uint64        `json:"totalPhysicalSize"`
	TotalAvailableSize      uint64        `json:"totalAvailableSize"`
	UsedHeapSize            uint64        `json:"usedHeapSize"`
	HeapSizeLimit           uint64        `json:"heapSizeLimit"`
	MallocedMemory          *uint64       `json:"mallocedMemory,omitempty"`
	PeakMallocedMemory      *uint64       `json:"peakMallocedMemory,omitempty"`
	NumNativeContexts       *uint64       `json:"numNativeContexts,omitempty"`
	NumDetachedContexts     *uint64       `json:"numDetachedContexts,omitempty"`
	HeapSpaceStats          []SpaceRecord `json:"heapSpaceStats"`
}

// SpaceRecord is the serialized form of one heap space.
type SpaceRecord struct {
	SpaceName          string `json:"spaceName"`
	SpaceSize          uint64 `json:"spaceSize"`
	SpaceUsedSize      uint64 `json:"spaceUsedSize"`
	SpaceAvailableSize uint64 `json:"spaceAvailableSize"`
	PhysicalSpaceSize  uint64 `json:"physicalSpaceSize"`
}

// Record serializes the snapshot. It allocates and must not be called from a
// GC hook.
func (s *Snapshot) Record() Record {
	st := s.stats
	r := Record{
		TotalHeapSize:           st.TotalHeapSize,
		TotalHeapSizeExecutable: st.TotalHeapSizeExecutable,
		TotalPhysicalSize:       st.TotalPhysicalSize,
		TotalAvailableSize:      st.TotalAvailableSize,
		UsedHeapSize:            st.UsedHeapSize,
		HeapSizeLimit:           st.HeapSizeLimit,
		HeapSpaceStats:          make([]SpaceRecord, len(s.spaces)),
	}
	if s.features.Malloced {
		r.MallocedMemory = ptr(st.MallocedMemory)
		r.PeakMallocedMemory = ptr(st.PeakMallocedMemory)
	}
	if s.features.NativeContexts {
		r.NumNativeContexts = ptr(st.NumNativeContexts)
		r.NumDetachedContexts = ptr(st.NumDetachedContexts)
	}
	for i, sp := range s.spaces {
		r.HeapSpaceStats[i] = SpaceRecord{
			SpaceName:          sp.Name,
			SpaceSize:          sp.Size,
			SpaceUsedSize:      sp.UsedSize,
			SpaceAvailableSize: sp.AvailableSize,
			PhysicalSpaceSize:  sp.PhysicalSize,
		}
	}
	return r
}

func ptr(v uint64) *uint64 { return &v }
