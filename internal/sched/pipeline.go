package sched

import (
	"github.com/bloop-build/compilesched/internal/oracle"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/result"
	"github.com/bloop-build/compilesched/internal/task"
)

// buildPipeliningOracle assembles a PipeliningOracle from a node's already
// evaluated children, per SPEC_FULL.md §4.5.2: upstream signatures are
// merged in DFS first-occurrence-wins order, and a fresh signature promise
// is handed to the compile function for this node to fulfil. The
// left-to-right fold of every upstream's Java signal is computed here, but
// the returned oracle has no field for it, so the compile function does not
// receive it.
func buildPipeliningOracle(children []*result.Dag) *oracle.Pipelining {
	merged := oracle.NewSignatures()
	macroSymbols := make(map[string][]string)
	signal := oracle.TransitiveJavaSignal{Signal: oracle.ContinueCompilation}
	var upstreamSuccesses []*project.Project

	collectFromUpstream(children, merged, macroSymbols, &signal)
	for _, c := range children {
		collectUpstreamSuccesses(c, &upstreamSuccesses)
	}

	return &oracle.Pipelining{
		UpstreamSignatures:       merged,
		DefinedMacroSymbols:      macroSymbols,
		SignaturesPromise:        task.NewFuture[*oracle.Signatures](),
		UpstreamPartialSuccesses: upstreamSuccesses,
	}
}

func collectFromUpstream(children []*result.Dag, merged *oracle.Signatures, macroSymbols map[string][]string, signal *oracle.TransitiveJavaSignal) {
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.IsAggregate() {
			collectFromUpstream(c.Children(), merged, macroSymbols, signal)
			continue
		}
		v := c.Value()
		if v.Signatures != nil {
			merged.Merge(v.Signatures)
		}
		if p := c.Project(); p != nil && len(v.MacroSymbols) > 0 {
			macroSymbols[p.UniqueID] = v.MacroSymbols
		}
		own := v.TransitiveSignal
		if own.Signal == 0 && v.Status != result.StatusSuccess {
			name := ""
			if p := c.Project(); p != nil {
				name = p.Name
			}
			own = oracle.TransitiveJavaSignal{Signal: oracle.FailFastCompilation, FailedProjects: []string{name}}
		}
		*signal = oracle.FoldJavaSignal(*signal, own)
	}
}

func collectUpstreamSuccesses(c *result.Dag, out *[]*project.Project) {
	if c == nil {
		return
	}
	c.Walk(func(n *result.Dag) {
		if n.Project() != nil && n.Value().Status == result.StatusSuccess {
			*out = append(*out, n.Project())
		}
	})
}
