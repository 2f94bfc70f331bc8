// Package host collects point-in-time host-level stats (memory, swap, load
// average, uptime) for the monitor header. Collection is best-effort: a
// source that fails leaves its fields zero so a sampling tick is never
// aborted over header data.
package host

import (
	"errors"
	"time"

	gohost "github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/ja7ad/procscope/pkg/types"
)

// Stats is one host-level reading. Memory and swap are point-in-time sizes,
// not counters; no delta is ever taken over them.
type Stats struct {
	MemTotal     types.Bytes
	MemUsed      types.Bytes
	MemAvailable types.Bytes
	SwapTotal    types.Bytes
	SwapUsed     types.Bytes
	Load1        float64
	Load5        float64
	Load15       float64
	Uptime       time.Duration
}

// Collect reads all sources. The returned Stats is usable even when err is
// non-nil; err joins whichever sources failed.
func Collect() (Stats, error) {
	var s Stats
	var errs []error

	if vm, err := mem.VirtualMemory(); err != nil {
		errs = append(errs, err)
	} else {
		s.MemTotal = types.Bytes(vm.Total)
		s.MemUsed = types.Bytes(vm.Used)
		s.MemAvailable = types.Bytes(vm.Available)
	}

	if sw, err := mem.SwapMemory(); err != nil {
		errs = append(errs, err)
	} else {
		s.SwapTotal = types.Bytes(sw.Total)
		s.SwapUsed = types.Bytes(sw.Used)
	}

	if avg, err := load.Avg(); err != nil {
		errs = append(errs, err)
	} else {
		s.Load1, s.Load5, s.Load15 = avg.Load1, avg.Load5, avg.Load15
	}

	if up, err := gohost.Uptime(); err != nil {
		errs = append(errs, err)
	} else {
		s.Uptime = time.Duration(up) * time.Second
	}

	return s, errors.Join(errs...)
}
