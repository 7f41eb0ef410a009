package ports

import (
	"context"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/oracle"
	"github.com/bloop-build/compilesched/internal/project"
)

// PreviousResult carries the prior attempt's artifact forward into a new
// compilation so incremental compilers can reuse it.
type PreviousResult struct {
	ClassesDir       string
	PreviousAnalysis interface{}
}

// PipelineInputs is populated only when the traversal runs in pipelined
// mode; it is the zero value otherwise.
type PipelineInputs struct {
	Oracle *oracle.Pipelining
}

// CompileInputs is everything a caller-supplied compile function receives
// for one project (SPEC_FULL.md §4.3, §6).
type CompileInputs struct {
	Project      *project.Project
	Bundle       bundle.CompileBundle
	Previous     PreviousResult
	Pipeline     PipelineInputs
	SimpleOracle oracle.Simple

	// DependentResults maps every transitively reachable upstream's
	// classes directory (both its superseded read-only path and its newly
	// produced path, when both exist) to the PreviousResult a downstream
	// compile function may reuse.
	DependentResults map[string]PreviousResult
}

// CompileFunc is the caller-supplied compilation contract. It must respect
// ctx cancellation and should report failures through its return value
// rather than panicking.
type CompileFunc func(ctx context.Context, in CompileInputs) (*bundle.CompileProducts, error)
