package engine

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ja7ad/procscope/pkg/system/proc"
	"github.com/ja7ad/procscope/pkg/types"
)

// mkSnapshot wires a sample through the real delta/tree pipeline so view
// tests exercise exactly what the engine publishes.
func mkSnapshot(prev, cur *Sample) *Snapshot {
	return &Snapshot{
		Sample:  cur,
		Metrics: computeMetrics(prev, cur, 100),
		Cores:   computeCoreUtil(prev, cur),
		Forest:  buildForest(cur),
	}
}

func viewSample() (*Sample, *Sample) {
	mk := func(at time.Time, busy, worker uint64) *Sample {
		init := pstat(1, 0, "systemd", 10, 1)
		sshd := pstat(100, 1, "sshd", 20, 2)
		busyP := pstat(200, 1, "chrome", busy, 3)
		workerP := pstat(201, 200, "chrome-worker", worker, 4)
		bash := pstat(300, 100, "bash", 5, 5)
		busyP.RSS = types.Bytes(500 << 20)
		workerP.RSS = types.Bytes(100 << 20)
		sshd.RSS = types.Bytes(10 << 20)
		s := mkSample(at, []proc.CoreTicks{{Active: 0, Total: 0}}, init, sshd, busyP, workerP, bash)
		return s
	}
	prev := mk(t0, 100, 100)
	cur := mk(t0.Add(time.Second), 180, 140) // chrome 80%, worker 40%
	return prev, cur
}

func pids(rows []Row) []proc.PID {
	out := make([]proc.PID, len(rows))
	for i, r := range rows {
		out[i] = r.Proc.PID
	}
	return out
}

func TestFlatRows_CPUDescendingWithPIDTieBreak(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	rows := buildRows(snap, ViewState{Key: SortCPU, Dir: Desc}, nil)
	require.Len(t, rows, 5)
	// chrome 80%, chrome-worker 40%, then three idle processes tied at 0
	// ordered by PID ascending.
	assert.Equal(t, []proc.PID{200, 201, 1, 100, 300}, pids(rows))
	for _, r := range rows {
		assert.Zero(t, r.Depth, "flat mode has no indentation")
	}
}

func TestFlatRows_StableAcrossInvocations(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)
	vs := ViewState{Key: SortMemory, Dir: Desc}

	first := pids(buildRows(snap, vs, nil))
	for i := 0; i < 5; i++ {
		assert.Equal(t, first, pids(buildRows(snap, vs, nil)), "iteration %d", i)
	}
}

func TestFlatRows_SortKeys(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	assert.Equal(t, []proc.PID{1, 100, 200, 201, 300},
		pids(buildRows(snap, ViewState{Key: SortPID, Dir: Asc}, nil)))

	// name ascending, case-insensitive: bash, chrome, chrome-worker, sshd, systemd
	assert.Equal(t, []proc.PID{300, 200, 201, 100, 1},
		pids(buildRows(snap, ViewState{Key: SortName, Dir: Asc}, nil)))

	// memory descending: chrome 500M, chrome-worker 100M, sshd 10M, then 0s by PID
	assert.Equal(t, []proc.PID{200, 201, 100, 1, 300},
		pids(buildRows(snap, ViewState{Key: SortMemory, Dir: Desc}, nil)))

	// time descending: cumulative ticks 180, 140, 20, 10, 5
	assert.Equal(t, []proc.PID{200, 201, 100, 1, 300},
		pids(buildRows(snap, ViewState{Key: SortTime, Dir: Desc}, nil)))
}

func TestFlatRows_FilterSubstringCaseInsensitive(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	rows := buildRows(snap, ViewState{Key: SortPID, Filter: "CHROME"}, nil)
	assert.Equal(t, []proc.PID{200, 201}, pids(rows))

	rows = buildRows(snap, ViewState{Key: SortPID, Filter: "no-such-proc"}, nil)
	assert.Empty(t, rows)
}

func TestTreeRows_DepthFollowsHierarchy(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	rows := buildRows(snap, ViewState{Key: SortPID, Dir: Asc, Tree: true}, nil)
	require.Len(t, rows, 5)

	depths := map[proc.PID]int{}
	for _, r := range rows {
		depths[r.Proc.PID] = r.Depth
	}
	assert.Equal(t, 0, depths[1])
	assert.Equal(t, 1, depths[100])
	assert.Equal(t, 2, depths[300])
	assert.Equal(t, 1, depths[200])
	assert.Equal(t, 2, depths[201])
}

func TestTreeRows_SiblingsFollowActiveSort(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	// CPU descending: among init's children, chrome (80%) outranks sshd (0%).
	rows := buildRows(snap, ViewState{Key: SortCPU, Dir: Desc, Tree: true}, nil)
	assert.Equal(t, []proc.PID{1, 200, 201, 100, 300}, pids(rows))
}

func TestTreeRows_FilterPreservesAncestors(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	// "bash" matches only pid300; its ancestors sshd and systemd must remain
	// visible, unmatched siblings (chrome subtree) must not.
	rows := buildRows(snap, ViewState{Key: SortPID, Tree: true, Filter: "bash"}, nil)
	assert.Equal(t, []proc.PID{1, 100, 300}, pids(rows))

	// Every ancestor of every listed match is itself listed.
	listed := map[proc.PID]bool{}
	for _, r := range rows {
		listed[r.Proc.PID] = true
	}
	for _, r := range rows {
		for n := snap.Forest.Node(r.Proc.PID); n != nil && n.Parent != 0; n = snap.Forest.Node(n.Parent) {
			assert.True(t, listed[n.Parent], "ancestor %d of %d missing", n.Parent, r.Proc.PID)
		}
	}
}

func TestTreeRows_CollapsedHidesDescendants(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	collapsed := map[NodeKey]bool{{PID: 200, Start: 3}: true}
	rows := buildRows(snap, ViewState{Key: SortPID, Tree: true}, collapsed)
	assert.Equal(t, []proc.PID{1, 100, 300, 200}, pids(rows))
}

func TestTreeRows_CollapsedAncestorHidesMatch(t *testing.T) {
	prev, cur := viewSample()
	snap := mkSnapshot(prev, cur)

	// "worker" matches only chrome-worker (201). With its parent chrome (200)
	// collapsed, the match stays hidden while the ancestor chain systemd ->
	// chrome remains visible, so expanding chrome reveals it again.
	vs := ViewState{Key: SortPID, Tree: true, Filter: "worker"}
	collapsed := map[NodeKey]bool{{PID: 200, Start: 3}: true}

	assert.Equal(t, []proc.PID{1, 200, 201}, pids(buildRows(snap, vs, nil)))
	assert.Equal(t, []proc.PID{1, 200}, pids(buildRows(snap, vs, collapsed)))
}

func TestBuildRows_VanishedProcessNeverListed(t *testing.T) {
	s1 := mkSample(t0, nil, pstat(1, 0, "init", 0, 1), pstat(5, 1, "gone", 0, 2))
	s2 := mkSample(t0.Add(time.Second), nil, pstat(1, 0, "init", 0, 1))
	snap := mkSnapshot(s1, s2)

	for _, tree := range []bool{false, true} {
		rows := buildRows(snap, ViewState{Key: SortPID, Tree: tree}, nil)
		assert.NotContains(t, pids(rows), proc.PID(5), "tree=%v", tree)
	}
}

func TestBuildRows_NilSnapshot(t *testing.T) {
	assert.Nil(t, buildRows(nil, ViewState{}, nil))
}

func TestParseSortKey(t *testing.T) {
	for in, want := range map[string]SortKey{
		"cpu": SortCPU, "MEM": SortMemory, "memory": SortMemory,
		"pid": SortPID, "name": SortName, "command": SortName,
		"user": SortUser, "time": SortTime,
	} {
		got, err := ParseSortKey(in)
		require.NoError(t, err, "input %q", in)
		assert.Equal(t, want, got, "input %q", in)
	}

	_, err := ParseSortKey("bogus")
	assert.ErrorIs(t, err, ErrUnknownSortKey)
}

func TestSortKeyDefaults(t *testing.T) {
	assert.Equal(t, Desc, SortCPU.DefaultDir())
	assert.Equal(t, Desc, SortMemory.DefaultDir())
	assert.Equal(t, Desc, SortTime.DefaultDir())
	assert.Equal(t, Asc, SortPID.DefaultDir())
	assert.Equal(t, Asc, SortName.DefaultDir())
	assert.Equal(t, Asc, SortUser.DefaultDir())
}
