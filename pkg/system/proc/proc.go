//go:build linux

package proc

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/tklauser/go-sysconf"

	"github.com/ja7ad/procscope/pkg/types"
)

// ClockTicks returns the number of jiffies (clock ticks) per second.
// It first checks the env var CLK_TCK (useful for testing), then asks
// sysconf(_SC_CLK_TCK), and finally falls back to 100 (common default).
func ClockTicks() int {
	v, _ := strconv.Atoi(os.Getenv("CLK_TCK"))
	if v > 0 {
		return v
	}
	if tck, err := sysconf.Sysconf(sysconf.SC_CLK_TCK); err == nil && tck > 0 {
		return int(tck)
	}
	return 100
}

// PageSize returns the system memory page size in bytes.
// Like ClockTicks, it first checks an env override (PAGE_SIZE)
// to ease testing, then falls back to os.Getpagesize().
func PageSize() int {
	if ps := os.Getenv("PAGE_SIZE"); ps != "" {
		if v, _ := strconv.Atoi(ps); v > 0 {
			return v
		}
	}
	return os.Getpagesize()
}

// Exists reports whether a given PID currently exists in /proc.
func Exists(pid PID) bool {
	_, err := os.Stat(fmt.Sprintf("/proc/%d", pid))
	return err == nil
}

// readProcStat parses /proc/<pid>/stat into a ProcStat (User left empty;
// see FS.ReadProcess for the uid lookup).
//
// Field order is fixed, but comm (2nd field) is in parens and may contain
// spaces. Everything before the closing ") " is stripped safely, so the
// numeric fields are indexed relative to field 3 (state).
func readProcStat(pid PID, pageSize int) (ProcStat, error) {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/stat", pid))
	if err != nil {
		return ProcStat{}, err
	}
	return parseStatLine(pid, string(b), pageSize)
}

func parseStatLine(pid PID, line string, pageSize int) (ProcStat, error) {
	line = strings.TrimSpace(line)
	if line == "" {
		return ProcStat{}, ErrNoStat
	}

	open := strings.IndexByte(line, '(')
	end := strings.LastIndex(line, ") ")
	if open < 0 || end < open {
		return ProcStat{}, ErrNoStat
	}
	comm := line[open+1 : end]
	fields := strings.Fields(line[end+2:])

	get := func(idx int) (uint64, error) {
		if idx >= len(fields) {
			return 0, ErrShortStat
		}
		return strconv.ParseUint(fields[idx], 10, 64)
	}

	// Indexes relative to fields slice (field 3 = fields[0]):
	// state (3rd) => fields[0]
	// ppid (4th) => fields[1]
	// utime (14th) => fields[11]
	// stime (15th) => fields[12]
	// starttime (22nd) => fields[19]
	// vsize (23rd) => fields[20]
	// rss pages (24th) => fields[21]
	if len(fields) < 22 {
		return ProcStat{}, ErrShortStat
	}
	ppid, err := get(1)
	if err != nil {
		return ProcStat{}, err
	}
	utime, _ := get(11)
	stime, _ := get(12)
	start, _ := get(19)
	vsize, _ := get(20)
	rssPages, _ := get(21)

	return ProcStat{
		PID:        pid,
		PPID:       PID(ppid),
		Comm:       comm,
		State:      fields[0],
		CPUTicks:   utime + stime,
		StartTicks: start,
		RSS:        types.Bytes(rssPages * uint64(pageSize)),
		Virtual:    types.Bytes(vsize),
	}, nil
}

// readUID extracts the real uid from /proc/<pid>/status.
func readUID(pid PID) (uint32, error) {
	b, err := os.ReadFile(fmt.Sprintf("/proc/%d/status", pid))
	if err != nil {
		return 0, err
	}
	for _, line := range strings.Split(string(b), "\n") {
		if !strings.HasPrefix(line, "Uid:") {
			continue
		}
		fs := strings.Fields(line)
		if len(fs) < 2 {
			break
		}
		uid, err := strconv.ParseUint(fs[1], 10, 32)
		if err != nil {
			break
		}
		return uint32(uid), nil
	}
	return 0, ErrNoStat
}

// readCoreTicks parses /proc/stat for the per-core cpuN lines. The aggregate
// "cpu" line is skipped; order follows the file, i.e. core index order.
func readCoreTicks() ([]CoreTicks, error) {
	b, err := os.ReadFile("/proc/stat")
	if err != nil {
		return nil, err
	}
	cores, err := parseCoreLines(string(b))
	if err != nil {
		return nil, err
	}
	return cores, nil
}

func parseCoreLines(content string) ([]CoreTicks, error) {
	var cores []CoreTicks
	for _, line := range strings.Split(content, "\n") {
		fs := strings.Fields(line)
		if len(fs) == 0 || !strings.HasPrefix(fs[0], "cpu") || fs[0] == "cpu" {
			continue
		}
		// Need 8 value fields (through softirq); older kernels emit fewer.
		if len(fs) < 9 {
			continue
		}
		vals := make([]uint64, 0, len(fs)-1)
		for _, s := range fs[1:] {
			v, _ := strconv.ParseUint(s, 10, 64)
			vals = append(vals, v)
		}
		active := vals[0] + vals[1] + vals[2] + vals[5] + vals[6] + vals[7]
		total := active + vals[3] + vals[4]
		cores = append(cores, CoreTicks{Active: active, Total: total})
	}
	if len(cores) == 0 {
		return nil, ErrNoCPU
	}
	return cores, nil
}
