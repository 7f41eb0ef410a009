package sched

import (
	"sync"

	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/result"
	"github.com/bloop-build/compilesched/internal/task"
)

// memoTable is the per-request memoization table keyed by DAG node pointer
// (SPEC_FULL.md §4.5): an Aggregate/Parent that refers to the same sub-DAG
// (shared by reference, e.g. a diamond dependency) computes its subtree
// exactly once.
type memoTable struct {
	mu    sync.Mutex
	tasks map[*project.Dag[struct{}]]*task.Future[*result.Dag]
}

func newMemoTable() *memoTable {
	return &memoTable{tasks: make(map[*project.Dag[struct{}]]*task.Future[*result.Dag])}
}

// getOrCreate returns the existing future for node if present, otherwise
// installs and returns a fresh one together with created=true so the caller
// knows it must actually populate it.
func (m *memoTable) getOrCreate(node *project.Dag[struct{}]) (f *task.Future[*result.Dag], created bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.tasks[node]; ok {
		return existing, false
	}
	fresh := task.NewFuture[*result.Dag]()
	m.tasks[node] = fresh
	return fresh, true
}

// blockedBy inspects the already-computed children subtrees of a node about
// to be evaluated and returns the names of the direct children whose
// compilation failed, was blocked, or was cancelled — the children-first
// check that decides whether the current node must emit Blocked instead of
// attempting compilation (SPEC_FULL.md §4.5, I6). An Aggregate child
// contributes no name of its own; its failing descendants are reported
// instead.
func blockedBy(children []*result.Dag) (names []string, found bool) {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.IsAggregate() {
			sub, ok := blockedBy(c.Children())
			if ok {
				names = append(names, sub...)
			}
			continue
		}
		switch c.Value().Status {
		case result.StatusFailure, result.StatusBlocked, result.StatusCancelled:
			names = append(names, c.Project().Name)
		}
	}
	return dedupeStrings(names), len(names) > 0
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
