package dedup

import (
	"testing"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/task"
	"github.com/stretchr/testify/require"
)

func TestLookupOrInsertDeduplicatesSameKey(t *testing.T) {
	r := NewRegistry()
	p := &project.Project{UniqueID: "app"}
	inputs := bundle.UniqueCompileInputs{Fingerprint: "abc"}

	first := &RunningCompilation{Project: p, Inputs: inputs, Result: task.NewFuture[*bundle.CompileProducts]()}
	got, owns := r.LookupOrInsert(inputs, first)
	require.True(t, owns)
	require.Same(t, first, got)

	second := &RunningCompilation{Project: p, Inputs: inputs, Result: task.NewFuture[*bundle.CompileProducts]()}
	got2, owns2 := r.LookupOrInsert(inputs, second)
	require.False(t, owns2)
	require.Same(t, first, got2)
	require.Equal(t, 1, r.RunningCount())
}

func TestRemoveIsCompareAndRemove(t *testing.T) {
	r := NewRegistry()
	inputs := bundle.UniqueCompileInputs{Fingerprint: "abc"}

	stale := &RunningCompilation{Inputs: inputs, Result: task.NewFuture[*bundle.CompileProducts]()}
	r.LookupOrInsert(inputs, stale)

	fresh := &RunningCompilation{Inputs: inputs, Result: task.NewFuture[*bundle.CompileProducts]()}

	// Removing the registered handle evicts it; once a newer registration
	// replaces it, removing the stale handle must not evict the newer one.
	r.Remove(inputs, stale)
	require.Equal(t, 0, r.RunningCount())

	r.LookupOrInsert(inputs, fresh)
	r.Remove(inputs, stale)
	require.Equal(t, 1, r.RunningCount())

	r.Remove(inputs, fresh)
	require.Equal(t, 0, r.RunningCount())
}

func TestGetOrInsertLastSuccessfulInsertsEmptySentinel(t *testing.T) {
	r := NewRegistry()
	p := &project.Project{UniqueID: "app"}

	got := r.GetOrInsertLastSuccessful(p)
	require.True(t, got.IsEmpty())

	recorded, ok := r.LastSuccessfulOf(p)
	require.True(t, ok)
	require.Same(t, got, recorded)
}

func TestSwapLastSuccessfulReturnsPrevious(t *testing.T) {
	r := NewRegistry()
	p := &project.Project{UniqueID: "app"}

	prev := r.SwapLastSuccessful(p, &bundle.LastSuccessfulResult{Project: p, ClassesDir: "/out/v1"})
	require.Nil(t, prev)

	prev2 := r.SwapLastSuccessful(p, &bundle.LastSuccessfulResult{Project: p, ClassesDir: "/out/v2"})
	require.NotNil(t, prev2)
	require.Equal(t, "/out/v1", prev2.ClassesDir)
}

func TestRefcountReachesZeroOnlyAfterEveryDecrement(t *testing.T) {
	r := NewRegistry()
	dir := "/out/app"

	r.IncrementClassesDirRefcount(dir)
	r.IncrementClassesDirRefcount(dir)
	require.Equal(t, 2, r.RefcountOf(dir))

	require.False(t, r.DecrementClassesDirRefcount(dir))
	require.Equal(t, 1, r.RefcountOf(dir))

	require.True(t, r.DecrementClassesDirRefcount(dir))
	require.Equal(t, 0, r.RefcountOf(dir))
}

func TestClearSuccessfulResultsLeavesRefcountsAndRunningUntouched(t *testing.T) {
	r := NewRegistry()
	p := &project.Project{UniqueID: "app"}
	r.SwapLastSuccessful(p, &bundle.LastSuccessfulResult{Project: p, ClassesDir: "/out/v1"})
	r.IncrementClassesDirRefcount("/out/v1")

	inputs := bundle.UniqueCompileInputs{Fingerprint: "abc"}
	r.LookupOrInsert(inputs, &RunningCompilation{Inputs: inputs, Result: task.NewFuture[*bundle.CompileProducts]()})

	r.ClearSuccessfulResults()

	_, ok := r.LastSuccessfulOf(p)
	require.False(t, ok)
	require.Equal(t, 1, r.RefcountOf("/out/v1"))
	require.Equal(t, 1, r.RunningCount())
}
