// Package proc is the Linux OS probe for the sampling engine: it enumerates
// the live process table, reads per-process and per-core cumulative tick
// counters, and delivers signals. It is the only OS-facing boundary the
// engine depends on; everything above it works from immutable samples.
//
// # Contract
//
//   - ListPIDs() enumerates /proc by numeric directory name.
//   - ReadProcess(pid) parses /proc/<pid>/stat (comm, state, ppid,
//     utime+stime, starttime, vsize, rss) plus the owning user from
//     /proc/<pid>/status. A process that exits between enumeration and read
//     fails with ErrNotFound; this is expected churn, not an error condition,
//     and callers omit the process from the sample. A read the kernel refuses
//     fails with ErrPermissionDenied but still returns a minimal entry with
//     Denied set, so the process can be listed as present-but-unavailable.
//   - ReadCores() parses the cpuN lines of /proc/stat into per-core
//     active/total jiffy counters (active = user+nice+system+irq+softirq+steal,
//     total = active+idle+iowait). Counters are cumulative; utilization is a
//     delta between two reads.
//   - SendSignal(pid, sig) wraps kill(2); ESRCH maps to ErrNotFound and
//     EPERM/EACCES to ErrPermissionDenied. pid <= 0 is rejected outright to
//     avoid the process-group semantics of kill(2).
//   - ReadHost() collects the host header stats (memory, swap, load average,
//     uptime) best-effort via pkg/system/host.
//
// No OS handles are held between calls; every operation opens and closes its
// own files, so the probe can run for the lifetime of the monitor without
// leaking descriptors.
//
// # Identity and counters
//
// PIDs are reused by the kernel. Any state carried across samples must be
// keyed by (PID, StartTicks); a starttime mismatch means a different process
// now owns the number. CPUTicks (utime+stime) is monotonic per process
// entity. Normalize ticks to seconds with ClockTicks(), which sources
// sysconf(_SC_CLK_TCK) and honors a CLK_TCK env override for tests.
//
// # Permissions
//
// Everything here is read-only toward /proc except SendSignal. Unprivileged
// users can read other users' stat lines on stock kernels; hidepid mounts or
// LSM policy surface as ErrPermissionDenied per process and as a degraded
// engine status when they affect the whole table.
//
// Package import path: github.com/ja7ad/procscope/pkg/system/proc
package proc
