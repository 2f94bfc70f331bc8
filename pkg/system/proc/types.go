package proc

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/ja7ad/procscope/pkg/types"
)

// PID identifies a live process. The kernel reuses PIDs after exit, so a PID
// alone is not a stable identity across samples; pair it with StartTicks.
type PID int

// ProcStat holds the raw per-process counters read in one sampling pass.
// CPUTicks and StartTicks are jiffy counts; CPUTicks is cumulative and
// monotonic for as long as the PID refers to the same process.
type ProcStat struct {
	PID        PID
	PPID       PID
	Comm       string
	State      string
	User       string
	CPUTicks   uint64 // utime + stime
	StartTicks uint64 // process start, jiffies since boot
	RSS        types.Bytes
	Virtual    types.Bytes

	// Denied marks a process that is visible in the table but whose counters
	// could not be read for permission reasons. Counter fields are zero.
	Denied bool
}

// CoreTicks holds cumulative jiffy counters for a single core, decomposed
// into active (user+nice+system+irq+softirq+steal) and total (active+idle+iowait).
type CoreTicks struct {
	Active uint64
	Total  uint64
}

// Signal identifies a POSIX signal by number.
type Signal int

const (
	SIGHUP  Signal = 1
	SIGINT  Signal = 2
	SIGKILL Signal = 9
	SIGTERM Signal = 15
	SIGTSTP Signal = 20
	SIGXCPU Signal = 24
)

var signalNames = map[Signal]string{
	SIGHUP:  "HUP",
	SIGINT:  "INT",
	SIGKILL: "KILL",
	SIGTERM: "TERM",
	SIGTSTP: "TSTP",
	SIGXCPU: "XCPU",
}

// Signals returns the curated signal set offered for interactive kills, in
// numeric order, matching the interactive kill menu.
func Signals() []Signal {
	return []Signal{SIGHUP, SIGINT, SIGKILL, SIGTERM, SIGTSTP, SIGXCPU}
}

func (s Signal) String() string {
	if name, ok := signalNames[s]; ok {
		return "SIG" + name
	}
	return fmt.Sprintf("SIG(%d)", int(s))
}

// ParseSignal accepts "TERM", "SIGTERM" or "15".
func ParseSignal(v string) (Signal, error) {
	if n, err := strconv.Atoi(v); err == nil {
		if n <= 0 {
			return 0, fmt.Errorf("%w: %q", ErrUnknownSignal, v)
		}
		return Signal(n), nil
	}
	name := strings.ToUpper(strings.TrimPrefix(strings.ToUpper(v), "SIG"))
	for sig, n := range signalNames {
		if n == name {
			return sig, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownSignal, v)
}
