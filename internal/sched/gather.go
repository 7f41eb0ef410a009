package sched

import (
	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/result"
)

// gatherDependents walks every child subtree transitively (distinct by
// reference, via Dag.Walk) and builds the two maps a node's own compilation
// needs: dependentProducts for BundleSetup, and dependentResults — the
// per-upstream PreviousResult reachable under both its old read-only
// directory and its new classes directory, since a downstream may resolve
// either path (SPEC_FULL.md §4.5.1).
func gatherDependents(children []*result.Dag) (map[string]bundle.BundleProducts, map[string]ports.PreviousResult) {
	products := make(map[string]bundle.BundleProducts)
	results := make(map[string]ports.PreviousResult)

	for _, c := range children {
		if c == nil {
			continue
		}
		c.Walk(func(n *result.Dag) {
			p := n.Project()
			if p == nil {
				return
			}
			v := n.Value()
			if v.Status != result.StatusSuccess || v.Products == nil {
				return
			}

			products[p.UniqueID] = bundle.BundleProducts{Full: v.Products}

			prev := ports.PreviousResult{ClassesDir: v.Products.ClassesDir}
			results[v.Products.ClassesDir] = prev
			if v.PreviousClassesDir != "" {
				results[v.PreviousClassesDir] = prev
			}
		})
	}
	return products, results
}
