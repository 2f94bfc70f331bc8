//go:build linux

package proc

import (
	"errors"
	"fmt"
	"os"
	"os/user"
	"strconv"
	"sync"

	"golang.org/x/sys/unix"

	"github.com/ja7ad/procscope/pkg/system/host"
)

// FS samples the live process table through /proc. It holds no OS handles
// between calls; every read opens and closes its own files, so it is safe to
// call repeatedly for the lifetime of the monitor.
type FS struct {
	pageSize int

	mu    sync.Mutex
	users map[uint32]string // uid -> name, grows slowly and is never evicted
}

func NewFS() *FS {
	return &FS{
		pageSize: PageSize(),
		users:    make(map[uint32]string),
	}
}

// ListPIDs enumerates the numeric entries of /proc.
func (fs *FS) ListPIDs() ([]PID, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, fmt.Errorf("list /proc: %w", err)
	}
	pids := make([]PID, 0, len(entries))
	for _, e := range entries {
		if !e.IsDir() {
			continue
		}
		n, err := strconv.Atoi(e.Name())
		if err != nil || n <= 0 {
			continue
		}
		pids = append(pids, PID(n))
	}
	return pids, nil
}

// ReadProcess reads one process's counters. A process that exited since
// enumeration yields ErrNotFound; a process the kernel hides yields
// ErrPermissionDenied together with a minimal Denied entry the caller may
// still list.
func (fs *FS) ReadProcess(pid PID) (ProcStat, error) {
	ps, err := readProcStat(pid, fs.pageSize)
	if err != nil {
		if cerr := classify(err); cerr != nil {
			err = cerr
		}
		if errors.Is(err, ErrPermissionDenied) {
			return ProcStat{PID: pid, User: "?", Denied: true}, fmt.Errorf("read pid %d: %w", pid, err)
		}
		return ProcStat{}, fmt.Errorf("read pid %d: %w", pid, err)
	}
	ps.User = fs.username(pid)
	return ps, nil
}

// ReadCores returns cumulative per-core tick counters from /proc/stat.
func (fs *FS) ReadCores() ([]CoreTicks, error) {
	return readCoreTicks()
}

// ReadHost returns the host header stats. Partial readings are returned
// alongside the error; the caller decides whether to log it.
func (fs *FS) ReadHost() (host.Stats, error) {
	return host.Collect()
}

// SendSignal delivers sig to pid. Errno is mapped onto the probe error
// taxonomy so callers can distinguish a vanished target from a refusal.
func (fs *FS) SendSignal(pid PID, sig Signal) error {
	if pid <= 0 {
		// kill(2) with pid <= 0 targets process groups; never do that here.
		return fmt.Errorf("%w: pid %d", ErrNotFound, pid)
	}
	if err := unix.Kill(int(pid), unix.Signal(sig)); err != nil {
		if cerr := classify(err); cerr != nil {
			return fmt.Errorf("signal %s to pid %d: %w", sig, pid, cerr)
		}
		return fmt.Errorf("signal %s to pid %d: %w", sig, pid, err)
	}
	return nil
}

func (fs *FS) username(pid PID) string {
	uid, err := readUID(pid)
	if err != nil {
		return "?"
	}

	fs.mu.Lock()
	name, ok := fs.users[uid]
	fs.mu.Unlock()
	if ok {
		return name
	}

	name = strconv.FormatUint(uint64(uid), 10)
	if u, err := user.LookupId(name); err == nil {
		name = u.Username
	}
	fs.mu.Lock()
	fs.users[uid] = name
	fs.mu.Unlock()
	return name
}

// classify maps OS errors onto the probe taxonomy. Returns nil for errors
// outside it.
func classify(err error) error {
	switch {
	case errors.Is(err, unix.ESRCH), errors.Is(err, os.ErrNotExist):
		return ErrNotFound
	case errors.Is(err, unix.EPERM), errors.Is(err, unix.EACCES), errors.Is(err, os.ErrPermission):
		return ErrPermissionDenied
	default:
		return nil
	}
}
