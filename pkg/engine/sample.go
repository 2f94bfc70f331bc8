package engine

import (
	"time"

	"github.com/ja7ad/procscope/pkg/system/host"
	"github.com/ja7ad/procscope/pkg/system/proc"
	"github.com/ja7ad/procscope/pkg/types"
)

// Probe is the OS-facing boundary the engine samples through. Implementations
// must be callable repeatedly without leaking OS handles; pkg/system/proc
// provides the Linux one, tests provide synthetic ones.
type Probe interface {
	ListPIDs() ([]proc.PID, error)
	ReadProcess(pid proc.PID) (proc.ProcStat, error)
	ReadCores() ([]proc.CoreTicks, error)
	ReadHost() (host.Stats, error)
	SendSignal(pid proc.PID, sig proc.Signal) error
}

// Sample is one immutable, timestamped reading of the whole process table
// plus per-core counters and host header stats. The engine keeps at most the
// current and the immediately previous Sample; older ones are garbage.
type Sample struct {
	At    time.Time
	Procs map[proc.PID]proc.ProcStat
	Cores []proc.CoreTicks
	Host  host.Stats
}

// Metrics are the per-interval rates derived from two consecutive Samples.
type Metrics struct {
	// CPUPercent is CPU use over the last interval; a multi-threaded process
	// saturating several cores legitimately exceeds 100 (bounded by
	// coreCount*100).
	CPUPercent float64
	// MemPercent is RSS against host total memory.
	MemPercent float64
	Memory     types.Bytes
	// CPUTime is the cumulative CPU time of the process, for the TIME column.
	CPUTime time.Duration
	// Unavailable marks a process whose counters could not be read
	// (permission denied); the numeric fields above are zero.
	Unavailable bool
}

// Snapshot is the published, internally consistent unit handed to readers:
// one Sample, its derived metrics, per-core utilization and the process
// forest. It is immutable; the sampling loop swaps a fresh one in atomically.
type Snapshot struct {
	Sample  *Sample
	Metrics map[proc.PID]Metrics
	Cores   []float64 // per-core utilization percent, [0,100]
	Forest  *Forest
}

// Status reports the engine's health toward readers. A degraded engine keeps
// ticking and retrying; the last good snapshot remains readable.
type Status struct {
	Degraded bool
	Reason   string
}
