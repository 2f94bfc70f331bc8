package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/ja7ad/procscope/pkg/system/host"
	"github.com/ja7ad/procscope/pkg/system/proc"
	"github.com/ja7ad/procscope/pkg/system/util"
)

// Config tunes the sampling loop. Zero values fall back to defaults.
type Config struct {
	// Interval between samples. Default 2s.
	Interval time.Duration
	// ClockTicks is the host's jiffies-per-second rate, normally
	// proc.ClockTicks(). Default 100.
	ClockTicks int
	// EMAAlpha in (0,1) smooths per-core utilization across ticks; 0 (or 1)
	// disables smoothing.
	EMAAlpha float64
	// Logger for loop diagnostics. Default slog.Default().
	Logger *slog.Logger
}

// Engine is the sampling loop: it owns the last two samples, drives periodic
// re-sampling through the probe, and republishes a consistent snapshot for
// readers. The snapshot is an immutable value swapped atomically, so the
// render/input path never blocks on an in-progress sample and never observes
// a half-built one.
type Engine struct {
	probe    Probe
	interval time.Duration
	clkTck   int
	alpha    float64
	log      *slog.Logger

	snap   atomic.Pointer[Snapshot]
	status atomic.Pointer[Status]

	// mu guards the input-owned state: view configuration and collapse
	// flags. The sampling path only takes it briefly while pruning stale
	// collapse keys during publish.
	mu        sync.Mutex
	view      ViewState
	collapsed map[NodeKey]bool

	// emas are touched only by the sampling path.
	emas []*util.EMA
}

func New(probe Probe, cfg Config) *Engine {
	if cfg.Interval <= 0 {
		cfg.Interval = 2 * time.Second
	}
	if cfg.ClockTicks <= 0 {
		cfg.ClockTicks = 100
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	e := &Engine{
		probe:     probe,
		interval:  cfg.Interval,
		clkTck:    cfg.ClockTicks,
		alpha:     cfg.EMAAlpha,
		log:       cfg.Logger,
		collapsed: make(map[NodeKey]bool),
		view:      ViewState{Key: SortCPU, Dir: Desc},
	}
	e.status.Store(&Status{})
	return e
}

// Run ticks until ctx is cancelled. The first sample is taken immediately so
// readers have a snapshot before the first interval elapses. An in-flight
// tick always completes; cancellation is honored between ticks.
func (e *Engine) Run(ctx context.Context) error {
	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	e.Tick()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			e.Tick()
		}
	}
}

// Tick performs one Sampling+Publishing pass. On broad probe failure the
// engine goes degraded and keeps the previous snapshot readable; the next
// tick retries.
func (e *Engine) Tick() {
	cur, err := e.sample()
	if err != nil {
		e.status.Store(&Status{Degraded: true, Reason: err.Error()})
		e.log.Warn("sampling degraded", "err", err)
		return
	}

	var prev *Sample
	if old := e.snap.Load(); old != nil {
		prev = old.Sample
	}

	metrics := computeMetrics(prev, cur, e.clkTck)
	cores := computeCoreUtil(prev, cur)
	e.smooth(cores)
	forest := buildForest(cur)

	e.mu.Lock()
	carryCollapsed(e.collapsed, cur)
	e.mu.Unlock()

	e.snap.Store(&Snapshot{Sample: cur, Metrics: metrics, Cores: cores, Forest: forest})
	e.status.Store(&Status{})
}

func (e *Engine) sample() (*Sample, error) {
	pids, err := e.probe.ListPIDs()
	if err != nil {
		return nil, fmt.Errorf("enumerate processes: %w", err)
	}

	procs := make(map[proc.PID]proc.ProcStat, len(pids))
	for _, pid := range pids {
		ps, err := e.probe.ReadProcess(pid)
		switch {
		case err == nil:
			procs[pid] = ps
		case errors.Is(err, proc.ErrNotFound):
			// Exited between enumeration and read. Normal churn.
		case errors.Is(err, proc.ErrPermissionDenied):
			// Present but unreadable: keep it listed with metrics unavailable.
			ps.PID = pid
			ps.Denied = true
			procs[pid] = ps
		default:
			e.log.Debug("process read failed", "pid", int(pid), "err", err)
		}
	}
	if len(procs) == 0 {
		return nil, ErrNoProcesses
	}

	cores, err := e.probe.ReadCores()
	if err != nil {
		return nil, fmt.Errorf("read core counters: %w", err)
	}
	if len(cores) == 0 {
		return nil, ErrNoCores
	}

	hs, err := e.probe.ReadHost()
	if err != nil {
		// Header data is decorative; a partial reading never fails the tick.
		e.log.Debug("host stats incomplete", "err", err)
	}

	return &Sample{At: time.Now(), Procs: procs, Cores: cores, Host: hs}, nil
}

func (e *Engine) smooth(cores []float64) {
	if e.alpha <= 0 || e.alpha >= 1 {
		return
	}
	if len(e.emas) != len(cores) {
		e.emas = make([]*util.EMA, len(cores))
		for i := range e.emas {
			e.emas[i] = util.NewEMA(e.alpha)
		}
	}
	for i := range cores {
		cores[i] = e.emas[i].Next(cores[i])
	}
}

// CurrentView returns the ordered display rows for the published snapshot
// under the current view state. Safe to call concurrently with a running
// loop; it never blocks on sampling.
func (e *Engine) CurrentView() []Row {
	snap := e.snap.Load()

	e.mu.Lock()
	vs := e.view
	collapsed := make(map[NodeKey]bool, len(e.collapsed))
	for k, v := range e.collapsed {
		collapsed[k] = v
	}
	e.mu.Unlock()

	return buildRows(snap, vs, collapsed)
}

// CoreUtilization returns per-core utilization percentages for the published
// snapshot, one entry per detected core.
func (e *Engine) CoreUtilization() []float64 {
	snap := e.snap.Load()
	if snap == nil {
		return nil
	}
	out := make([]float64, len(snap.Cores))
	copy(out, snap.Cores)
	return out
}

// HostStats returns the host header reading of the published snapshot.
func (e *Engine) HostStats() host.Stats {
	if snap := e.snap.Load(); snap != nil {
		return snap.Sample.Host
	}
	return host.Stats{}
}

// Tasks returns the number of processes in the published snapshot.
func (e *Engine) Tasks() int {
	if snap := e.snap.Load(); snap != nil {
		return len(snap.Sample.Procs)
	}
	return 0
}

// Status reports engine health. Degraded means the probe is failing broadly;
// the last good snapshot (if any) remains readable while the loop retries.
func (e *Engine) Status() Status { return *e.status.Load() }

// View returns the current view state.
func (e *Engine) View() ViewState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.view
}

// SetSortKey selects the sort column. Re-selecting the active column inverts
// the direction; a new column starts at its conventional direction.
func (e *Engine) SetSortKey(k SortKey) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.view.Key == k {
		if e.view.Dir == Asc {
			e.view.Dir = Desc
		} else {
			e.view.Dir = Asc
		}
		return
	}
	e.view.Key = k
	e.view.Dir = k.DefaultDir()
}

func (e *Engine) SetSortDirection(d SortDir) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Dir = d
}

// SetFilter installs a case-insensitive substring filter over command names.
// Empty clears it.
func (e *Engine) SetFilter(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Filter = text
}

// ToggleTreeMode flips between flat and tree ordering, returning the new mode.
func (e *Engine) ToggleTreeMode() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.view.Tree = !e.view.Tree
	return e.view.Tree
}

// ToggleExpand flips the collapse flag of pid's subtree. The flag is keyed
// by (PID, start time) so it cannot leak onto a recycled PID. Reports
// whether pid was present in the published snapshot.
func (e *Engine) ToggleExpand(pid proc.PID) bool {
	snap := e.snap.Load()
	if snap == nil {
		return false
	}
	ps, ok := snap.Sample.Procs[pid]
	if !ok {
		return false
	}
	key := NodeKey{PID: pid, Start: ps.StartTicks}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.collapsed[key] {
		delete(e.collapsed, key)
	} else {
		e.collapsed[key] = true
	}
	return true
}

// RequestKill delivers sig to pid synchronously through the probe and
// surfaces the result to the caller. It runs on the caller's goroutine, never
// the tick path, so a slow kill(2) cannot stall the sampling timer. The next
// sample reflects the process's absence if it died.
func (e *Engine) RequestKill(pid proc.PID, sig proc.Signal) error {
	return e.probe.SendSignal(pid, sig)
}
