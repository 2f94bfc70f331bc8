package proc

import "errors"

var (
	// ErrNotFound indicates the PID no longer exists. Expected during normal
	// process churn (exit between enumeration and read); callers omit the
	// process from the sample rather than failing.
	ErrNotFound = errors.New("proc: process not found")

	// ErrPermissionDenied indicates the kernel refused access to a process
	// or refused signal delivery.
	ErrPermissionDenied = errors.New("proc: permission denied")

	// ErrNoStat indicates that /proc/<pid>/stat was empty or malformed.
	ErrNoStat = errors.New("proc: malformed or empty stat")

	// ErrShortStat indicates that /proc/<pid>/stat had fewer fields than expected.
	ErrShortStat = errors.New("proc: short stat")

	// ErrNoCPU indicates that /proc/stat had no per-core cpu lines.
	ErrNoCPU = errors.New("proc: no cpu lines")

	// ErrUnknownSignal indicates a signal name or number that could not be parsed.
	ErrUnknownSignal = errors.New("proc: unknown signal")
)
