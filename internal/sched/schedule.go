package sched

import (
	"context"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/oracle"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/project"
)

// scheduleCompilation selects the last-successful result to hand the
// compile function, applies its validity overrides, invokes compile, and
// returns the chosen last-successful value alongside the outcome so the
// caller can drive processResultAtomically (SPEC_FULL.md §4.5.4).
func scheduleCompilation(
	ctx context.Context,
	e *Engine,
	b bundle.CompileBundle,
	p *project.Project,
	compile ports.CompileFunc,
	oc oracle.Oracle,
	depResults map[string]ports.PreviousResult,
) (*bundle.CompileProducts, error, *bundle.LastSuccessfulResult) {
	chosen := e.registry.GetOrInsertLastSuccessful(p)

	if !chosen.IsEmpty() && !e.dirExists(chosen.ClassesDir) {
		chosen = bundle.EmptyLastSuccessful(p)
	}
	if b.LastSuccessful.IsEmpty() {
		chosen = bundle.EmptyLastSuccessful(p)
	}

	if !chosen.IsEmpty() {
		e.registry.IncrementClassesDirRefcount(chosen.ClassesDir)
	}

	effective := b.WithLastSuccessful(chosen)
	in := ports.CompileInputs{
		Project: p,
		Bundle:  effective,
		Previous: ports.PreviousResult{
			ClassesDir:       chosen.ClassesDir,
			PreviousAnalysis: chosen.PreviousAnalysis,
		},
		DependentResults: depResults,
	}
	switch v := oc.(type) {
	case oracle.Simple:
		in.SimpleOracle = v
	case *oracle.Pipelining:
		in.Pipeline = ports.PipelineInputs{Oracle: v}
	}

	products, err := compile(ctx, in)
	return products, err, chosen
}
