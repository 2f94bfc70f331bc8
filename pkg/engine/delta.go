package engine

import (
	"time"

	"github.com/ja7ad/procscope/pkg/system/proc"
	"github.com/ja7ad/procscope/pkg/system/util"
)

// computeMetrics derives per-process rates from two consecutive samples.
// prev may be nil (first tick): every process then reports 0% CPU since
// there is no baseline to take a delta against.
//
// A process whose counter regressed, or whose start time changed, is a new
// OS entity that inherited a recycled PID; it is treated as first-seen.
func computeMetrics(prev, cur *Sample, clkTck int) map[proc.PID]Metrics {
	out := make(map[proc.PID]Metrics, len(cur.Procs))

	var elapsed float64
	if prev != nil {
		elapsed = cur.At.Sub(prev.At).Seconds()
	}
	maxPercent := float64(len(cur.Cores)) * 100
	if maxPercent == 0 {
		maxPercent = 100
	}

	for pid, ps := range cur.Procs {
		if ps.Denied {
			out[pid] = Metrics{Unavailable: true}
			continue
		}

		m := Metrics{
			Memory:  ps.RSS,
			CPUTime: time.Duration(float64(ps.CPUTicks) / float64(clkTck) * float64(time.Second)),
		}
		if total := cur.Host.MemTotal.Uint64(); total > 0 {
			m.MemPercent = util.Clamp(float64(ps.RSS.Uint64())/float64(total)*100, 0, 100)
		}

		if prev != nil && elapsed > 0 {
			if before, ok := prev.Procs[pid]; ok && sameProcess(before, ps) {
				delta := util.DeltaU64(ps.CPUTicks, before.CPUTicks)
				pct := util.SafeDiv(float64(delta), elapsed*float64(clkTck)) * 100
				m.CPUPercent = util.Clamp(pct, 0, maxPercent)
			}
		}
		out[pid] = m
	}
	return out
}

// sameProcess guards against PID reuse: identical PID with a different start
// time (or a regressed cumulative counter) is a different OS entity.
func sameProcess(before, after proc.ProcStat) bool {
	return before.StartTicks == after.StartTicks && before.CPUTicks <= after.CPUTicks
}

// computeCoreUtil derives per-core utilization percent from the idle-vs-total
// tick decomposition. Cores present only in one sample (CPU hotplug) report 0.
func computeCoreUtil(prev, cur *Sample) []float64 {
	out := make([]float64, len(cur.Cores))
	if prev == nil {
		return out
	}
	n := len(cur.Cores)
	if len(prev.Cores) < n {
		n = len(prev.Cores)
	}
	for i := 0; i < n; i++ {
		dActive := util.DeltaU64(cur.Cores[i].Active, prev.Cores[i].Active)
		dTotal := util.DeltaU64(cur.Cores[i].Total, prev.Cores[i].Total)
		out[i] = util.Clamp(util.SafeDiv(float64(dActive), float64(dTotal))*100, 0, 100)
	}
	return out
}
