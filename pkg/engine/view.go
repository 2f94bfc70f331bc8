package engine

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ja7ad/procscope/pkg/system/proc"
)

// SortKey selects the column the process list is ordered by.
type SortKey int

const (
	SortCPU SortKey = iota
	SortMemory
	SortPID
	SortName
	SortUser
	SortTime
)

// SortDir is the sort direction for the active key.
type SortDir int

const (
	Asc SortDir = iota
	Desc
)

// DefaultDir returns the conventional direction for a key: usage columns
// rank hot processes first, identity columns read naturally ascending.
func (k SortKey) DefaultDir() SortDir {
	switch k {
	case SortCPU, SortMemory, SortTime:
		return Desc
	default:
		return Asc
	}
}

func (k SortKey) String() string {
	switch k {
	case SortCPU:
		return "cpu"
	case SortMemory:
		return "mem"
	case SortPID:
		return "pid"
	case SortName:
		return "name"
	case SortUser:
		return "user"
	case SortTime:
		return "time"
	default:
		return "unknown"
	}
}

// ParseSortKey maps a column name to its key.
func ParseSortKey(v string) (SortKey, error) {
	switch strings.ToLower(v) {
	case "cpu":
		return SortCPU, nil
	case "mem", "memory":
		return SortMemory, nil
	case "pid":
		return SortPID, nil
	case "name", "command":
		return SortName, nil
	case "user":
		return SortUser, nil
	case "time":
		return SortTime, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownSortKey, v)
	}
}

// ViewState is the display configuration applied to a snapshot. It is owned
// by the input path; the view reads a copy per recomputation.
type ViewState struct {
	Key    SortKey
	Dir    SortDir
	Filter string
	Tree   bool
}

// Row is one display line: the process, its derived metrics and its tree
// depth (always 0 in flat mode).
type Row struct {
	Proc    proc.ProcStat
	Metrics Metrics
	Depth   int
}

// buildRows is a pure function of (snapshot, view state, collapse state):
// it filters, orders and flattens the current sample for display. Identical
// inputs always produce the identical sequence.
func buildRows(snap *Snapshot, vs ViewState, collapsed map[NodeKey]bool) []Row {
	if snap == nil || snap.Sample == nil {
		return nil
	}
	if vs.Tree {
		return treeRows(snap, vs, collapsed)
	}
	return flatRows(snap, vs)
}

func flatRows(snap *Snapshot, vs ViewState) []Row {
	rows := make([]Row, 0, len(snap.Sample.Procs))
	for _, ps := range snap.Sample.Procs {
		if !matches(ps, vs.Filter) {
			continue
		}
		rows = append(rows, Row{Proc: ps, Metrics: snap.Metrics[ps.PID]})
	}
	sortRows(rows, vs.Key, vs.Dir)
	return rows
}

// treeRows emits the forest depth-first with siblings ordered by the active
// sort. Filtering is ancestor-preserving: a matching node keeps its whole
// parent chain visible so tree context is never broken, while unmatched
// siblings disappear. Descendants of a collapsed node are hidden even when
// they match; the collapsed ancestor itself stays visible.
func treeRows(snap *Snapshot, vs ViewState, collapsed map[NodeKey]bool) []Row {
	f := snap.Forest
	if f == nil {
		return nil
	}

	visible := visibleSet(snap, vs.Filter)

	var out []Row
	var walk func(pid proc.PID, depth int)
	walk = func(pid proc.PID, depth int) {
		n := f.Node(pid)
		ps := snap.Sample.Procs[pid]
		if visible != nil && !visible[pid] {
			// An invisible node cannot have visible descendants: any visible
			// descendant would have made this node an ancestor of a match.
			return
		}
		out = append(out, Row{Proc: ps, Metrics: snap.Metrics[pid], Depth: depth})
		if collapsed[n.Key()] {
			return
		}
		for _, c := range orderSiblings(snap, n.Children, vs.Key, vs.Dir) {
			walk(c, depth+1)
		}
	}
	for _, r := range orderSiblings(snap, f.Roots(), vs.Key, vs.Dir) {
		walk(r, 0)
	}
	return out
}

// visibleSet returns the PIDs to display under a filter: every match plus
// all of its ancestors. A nil return means no filter (everything visible).
func visibleSet(snap *Snapshot, filter string) map[proc.PID]bool {
	if filter == "" {
		return nil
	}
	f := snap.Forest
	visible := make(map[proc.PID]bool)
	for pid, ps := range snap.Sample.Procs {
		if !matches(ps, filter) {
			continue
		}
		visible[pid] = true
		// Ancestor chains are bounded: the forest has no cycles.
		for n := f.Node(pid); n != nil && n.Parent != 0; {
			if visible[n.Parent] {
				break
			}
			visible[n.Parent] = true
			n = f.Node(n.Parent)
		}
	}
	return visible
}

func matches(ps proc.ProcStat, filter string) bool {
	if filter == "" {
		return true
	}
	return strings.Contains(strings.ToLower(ps.Comm), strings.ToLower(filter))
}

func orderSiblings(snap *Snapshot, pids []proc.PID, key SortKey, dir SortDir) []proc.PID {
	if len(pids) < 2 {
		return pids
	}
	out := make([]proc.PID, len(pids))
	copy(out, pids)
	sort.SliceStable(out, func(i, j int) bool {
		a := Row{Proc: snap.Sample.Procs[out[i]], Metrics: snap.Metrics[out[i]]}
		b := Row{Proc: snap.Sample.Procs[out[j]], Metrics: snap.Metrics[out[j]]}
		return lessRow(a, b, key, dir)
	})
	return out
}

func sortRows(rows []Row, key SortKey, dir SortDir) {
	sort.SliceStable(rows, func(i, j int) bool {
		return lessRow(rows[i], rows[j], key, dir)
	})
}

// lessRow orders by the active key and direction, with PID ascending as the
// deterministic tie-break regardless of direction.
func lessRow(a, b Row, key SortKey, dir SortDir) bool {
	c := compareRow(a, b, key)
	if dir == Desc {
		c = -c
	}
	if c != 0 {
		return c < 0
	}
	return a.Proc.PID < b.Proc.PID
}

func compareRow(a, b Row, key SortKey) int {
	switch key {
	case SortCPU:
		return compareFloat(a.Metrics.CPUPercent, b.Metrics.CPUPercent)
	case SortMemory:
		return compareUint(a.Metrics.Memory.Uint64(), b.Metrics.Memory.Uint64())
	case SortTime:
		return compareInt(int64(a.Metrics.CPUTime), int64(b.Metrics.CPUTime))
	case SortName:
		return strings.Compare(strings.ToLower(a.Proc.Comm), strings.ToLower(b.Proc.Comm))
	case SortUser:
		return strings.Compare(strings.ToLower(a.Proc.User), strings.ToLower(b.Proc.User))
	default: // SortPID
		return compareInt(int64(a.Proc.PID), int64(b.Proc.PID))
	}
}

func compareFloat(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
