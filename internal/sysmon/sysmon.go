// Package sysmon samples system-wide CPU and memory usage and the resource
// usage of the current process, for display next to GC events.
package sysmon

import (
	"os"
	"sync"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/process"
)

// Stats holds a single snapshot of resource usage.
type Stats struct {
	CPUPercent float64 // system-wide, 0.0 .. 100.0
	MemPercent float64 // system-wide, 0.0 .. 100.0
	ProcRSS    uint64  // resident set size of this process
	ProcFDs    int32   // open descriptors of this process as seen by the OS
}

// Sampler takes successive samples. CPU usage is the delta since the previous
// call, so the first sample reports 0.
type Sampler struct {
	once sync.Once
	proc *process.Process
}

// NewSampler returns a sampler for the current process.
func NewSampler() *Sampler {
	return &Sampler{}
}

// Sample collects a snapshot. Fields that cannot be read are left zero.
func (s *Sampler) Sample() Stats {
	var st Stats
	if pcts, err := cpu.Percent(0, false); err == nil && len(pcts) > 0 {
		st.CPUPercent = pcts[0]
	}
	if vm, err := mem.VirtualMemory(); err == nil && vm != nil {
		st.MemPercent = vm.UsedPercent
	}

	s.once.Do(func() {
		if p, err := process.NewProcess(int32(os.Getpid())); err == nil {
			s.proc = p
		}
	})
	if s.proc != nil {
		if mi, err := s.proc.MemoryInfo(); err == nil && mi != nil {
			st.ProcRSS = mi.RSS
		}
		if n, err := s.proc.NumFDs(); err == nil {
			st.ProcFDs = n
		}
	}
	return st
}

var defaultSampler = NewSampler()

// Sample collects a snapshot with the process-wide sampler.
func Sample() Stats {
	return defaultSampler.Sample()
}
