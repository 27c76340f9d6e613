package heap

// Snapshot is a reusable capture of the host's aggregate and per-space heap
// statistics at one instant.
type Snapshot struct {
	reader   Reader
	gate     Gate
	features Features
	ts       uint64
	stats    Stats
	spaces   []SpaceStats
}

// Option configures a Snapshot.
type Option func(*Snapshot)

// WithGate makes Capture a no-op once g reports shutdown.
func WithGate(g Gate) Option {
	return func(s *Snapshot) { s.gate = g }
}

// NewSnapshot allocates an empty snapshot sized for r's heap spaces.
func NewSnapshot(r Reader, opts ...Option) *Snapshot {
	s := &Snapshot{
		reader:   r,
		features: r.HeapFeatures(),
		spaces:   make([]SpaceStats, r.NumHeapSpaces()),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Capture refreshes the snapshot from the host. The timestamp is taken right
// before the counters are read. It returns false if any per-space read failed
// (the snapshot stays usable with whatever was read) or if the gate is closed,
// in which case nothing is read.
func (s *Snapshot) Capture() bool {
	if s.gate != nil && s.gate.ShuttingDown() {
		return false
	}
	s.ts = s.reader.HRTime()
	s.reader.ReadHeapStatistics(&s.stats)
	ok := true
	for i := range s.spaces {
		if !s.reader.ReadHeapSpaceStatistics(&s.spaces[i], i) {
			ok = false
		}
	}
	return ok
}

// CopyFrom overwrites s with a value copy of src, duplicating the space array.
// It reuses s's storage when the space counts match.
func (s *Snapshot) CopyFrom(src *Snapshot) {
	s.reader = src.reader
	s.gate = src.gate
	s.features = src.features
	s.ts = src.ts
	s.stats = src.stats
	if len(s.spaces) != len(src.spaces) {
		s.spaces = make([]SpaceStats, len(src.spaces))
	}
	copy(s.spaces, src.spaces)
}

// Clone returns an independent copy of s.
func (s *Snapshot) Clone() *Snapshot {
	c := &Snapshot{}
	c.CopyFrom(s)
	return c
}

// Reset zeroes every counter and the timestamp, keeping the space layout.
func (s *Snapshot) Reset() {
	s.ts = 0
	s.stats = Stats{}
	clear(s.spaces)
}

// Timestamp returns the capture time in host nanoseconds, or zero if the
// snapshot was never filled.
func (s *Snapshot) Timestamp() uint64 { return s.ts }

// Captured reports whether the snapshot holds data.
func (s *Snapshot) Captured() bool { return s.ts != 0 }

// Stats returns the aggregate counters.
func (s *Snapshot) Stats() Stats { return s.stats }

// Features returns the optional counter families of the source host.
func (s *Snapshot) Features() Features { return s.features }

// NumSpaces returns the number of heap spaces.
func (s *Snapshot) NumSpaces() int { return len(s.spaces) }

// Space returns the counters of space i.
func (s *Snapshot) Space(i int) SpaceStats { return s.spaces[i] }
