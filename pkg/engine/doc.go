// Package engine turns raw, cumulative OS counters into a live, queryable
// view of the process table: per-interval CPU rates, per-core utilization,
// an incrementally maintained process forest, and a sorted/filtered display
// order, all republished on a fixed cadence.
//
// # Pipeline
//
// Each tick the loop samples the probe into an immutable Sample, derives
// Metrics against the previous Sample, rebuilds the forest, and swaps the
// resulting Snapshot into an atomic slot. Readers (CurrentView,
// CoreUtilization, HostStats, Status) always see either the old or the new
// complete Snapshot, never a mix, and never block on an in-progress sample.
// The engine retains at most two samples: the published one and, during a
// tick, its predecessor as the delta baseline.
//
// # Rates from counters
//
// cpuPercent = Δticks / (elapsed × clkTck) × 100, clamped to
// [0, coreCount×100]. A counter regression or a changed start time means the
// PID was recycled onto a new process, which reports 0 for its first tick,
// exactly like a newly appeared process. Core utilization uses the per-core
// idle-vs-total decomposition: ΔActive/ΔTotal, each core in [0,100].
//
// # Churn and failure
//
// A process missing from a sample is dropped from the forest the same tick
// (no grace period); one that cannot be read for permission reasons stays
// listed with metrics unavailable. Broad probe failure flips Status to
// degraded while the last good snapshot stays readable and every tick
// retries. Parent cycles from transient kernel races are broken by forcing
// an offender to root; nothing in normal churn is an error.
//
// # Input surface
//
// SetSortKey/SetSortDirection/SetFilter/ToggleTreeMode/ToggleExpand mutate
// the input-owned view state under a short mutex; they take effect on the
// next view recomputation and are never lost or reordered against each
// other. RequestKill is synchronous on the caller's goroutine.
//
// Package import path: github.com/ja7ad/procscope/pkg/engine
package engine
