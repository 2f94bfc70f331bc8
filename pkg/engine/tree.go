package engine

import (
	"sort"

	"github.com/ja7ad/procscope/pkg/system/proc"
)

// NodeKey is the stable identity of a process across samples. The start time
// invalidates state carried for a PID the kernel has since recycled.
type NodeKey struct {
	PID   proc.PID
	Start uint64
}

// Node is one process's position in the forest. It references its parent by
// PID only; the kernel's parent graph is not trustworthy enough during churn
// to hold pointers across it.
type Node struct {
	PID      proc.PID
	Start    uint64
	Parent   proc.PID // 0 when the node is a root
	Children []proc.PID
}

func (n *Node) Key() NodeKey { return NodeKey{PID: n.PID, Start: n.Start} }

// Forest is the parent/child structure of one Sample. It is rebuilt every
// tick; child ordering is left to the view's active sort at walk time.
type Forest struct {
	nodes map[proc.PID]*Node
	roots []proc.PID
}

func (f *Forest) Node(pid proc.PID) *Node { return f.nodes[pid] }

// Roots returns the root PIDs in ascending order.
func (f *Forest) Roots() []proc.PID { return f.roots }

func (f *Forest) Len() int { return len(f.nodes) }

// Depth returns the number of parent links above pid, walking at most
// Len() steps. Unknown PIDs report 0.
func (f *Forest) Depth(pid proc.PID) int {
	depth := 0
	for n := f.nodes[pid]; n != nil && n.Parent != 0 && depth < len(f.nodes); depth++ {
		n = f.nodes[n.Parent]
	}
	return depth
}

// buildForest constructs the process forest for one sample. A process whose
// parent is 0, itself, or absent from the sample becomes a root: the kernel
// may report a parent that already exited, and that is not an error. Cycles
// cannot survive construction (see breakCycles).
func buildForest(s *Sample) *Forest {
	f := &Forest{nodes: make(map[proc.PID]*Node, len(s.Procs))}

	for pid, ps := range s.Procs {
		f.nodes[pid] = &Node{PID: pid, Start: ps.StartTicks}
	}
	for pid, ps := range s.Procs {
		n := f.nodes[pid]
		parent, ok := f.nodes[ps.PPID]
		if ps.PPID == 0 || ps.PPID == pid || !ok {
			f.roots = append(f.roots, pid)
			continue
		}
		n.Parent = ps.PPID
		parent.Children = append(parent.Children, pid)
	}

	f.breakCycles()

	sort.Slice(f.roots, func(i, j int) bool { return f.roots[i] < f.roots[j] })
	for _, n := range f.nodes {
		sort.Slice(n.Children, func(i, j int) bool { return n.Children[i] < n.Children[j] })
	}
	return f
}

// breakCycles forces one member of every parent cycle to root. Cycles should
// not occur with coherent kernel data but can appear transiently when the
// table is read during heavy churn; the forest must stay walkable regardless.
func (f *Forest) breakCycles() {
	visited := make(map[proc.PID]bool, len(f.nodes))
	var walk func(pid proc.PID)
	walk = func(pid proc.PID) {
		if visited[pid] {
			return
		}
		visited[pid] = true
		for _, c := range f.nodes[pid].Children {
			walk(c)
		}
	}
	for _, r := range f.roots {
		walk(r)
	}

	for len(visited) < len(f.nodes) {
		// Everything unreachable from a root sits on (or under) a cycle.
		// Promote the smallest unvisited PID deterministically and rescan.
		var offender proc.PID = -1
		for pid := range f.nodes {
			if !visited[pid] && (offender == -1 || pid < offender) {
				offender = pid
			}
		}
		n := f.nodes[offender]
		if p := f.nodes[n.Parent]; p != nil {
			p.Children = removePID(p.Children, offender)
		}
		n.Parent = 0
		f.roots = append(f.roots, offender)
		walk(offender)
	}
}

func removePID(pids []proc.PID, pid proc.PID) []proc.PID {
	out := pids[:0]
	for _, p := range pids {
		if p != pid {
			out = append(out, p)
		}
	}
	return out
}

// carryCollapsed prunes collapse state whose (PID, start) identity is no
// longer present in the sample, so a recycled PID never inherits the old
// process's collapsed flag.
func carryCollapsed(collapsed map[NodeKey]bool, s *Sample) {
	for key := range collapsed {
		ps, ok := s.Procs[key.PID]
		if !ok || ps.StartTicks != key.Start {
			delete(collapsed, key)
		}
	}
}
