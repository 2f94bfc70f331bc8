package engine

import "errors"

var (
	// ErrUnknownSortKey indicates a sort column name that could not be parsed.
	ErrUnknownSortKey = errors.New("engine: unknown sort key")

	// ErrNoCores indicates a sample without any per-core counters.
	ErrNoCores = errors.New("engine: no core counters")

	// ErrNoProcesses indicates a sampling pass in which not a single process
	// could be read; the engine degrades rather than publishing an empty table.
	ErrNoProcesses = errors.New("engine: no processes readable")
)
