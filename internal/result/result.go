// Package result defines the output side of a traversal: the status each
// project ends in and the DAG of per-project outcomes the engine returns
// from Traverse (SPEC_FULL.md §3, §4.4).
package result

import (
	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/oracle"
	"github.com/bloop-build/compilesched/internal/project"
)

// Status is the terminal (or, for pipelined nodes, intermediate) outcome of
// one project's compilation attempt.
type Status int

const (
	// StatusSuccess means the compile function returned successfully.
	StatusSuccess Status = iota
	// StatusFailure means the compile function reported compiler
	// diagnostics it treats as fatal.
	StatusFailure
	// StatusBlocked means an upstream dependency did not reach at least
	// partial success, so this project was never attempted.
	StatusBlocked
	// StatusCancelled means the overall traversal was cancelled before this
	// project's compilation finished.
	StatusCancelled
	// StatusDeduplicated means an identical in-flight compilation for the
	// same UniqueCompileInputs was reused instead of starting a new one.
	StatusDeduplicated
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusFailure:
		return "failure"
	case StatusBlocked:
		return "blocked"
	case StatusCancelled:
		return "cancelled"
	case StatusDeduplicated:
		return "deduplicated"
	default:
		return "unknown"
	}
}

// PipelineHandles holds two flags for a pipelined node: whether its
// signatures were ready and whether its compilation was done. The engine
// does not set them; both stay false.
type PipelineHandles struct {
	SignaturesReady bool
	Done            bool
}

// PartialCompileResult is the value attached to every node of the output
// Dag. For ShapeAggregate nodes (project.Map's rewrite target) this is
// always the empty zero value; it is never read there (P4).
type PartialCompileResult struct {
	Project        *project.Project
	Status         Status
	Products       *bundle.CompileProducts
	BlockedByNames []string
	Err            error
	Pipeline       PipelineHandles

	// PreviousClassesDir is the read-only classes directory this attempt
	// used as its own input, when it differs from Products.ClassesDir. A
	// downstream's own cached PreviousResult may still point at this path
	// rather than the freshly produced one, so gatherDependents exposes
	// both (SPEC_FULL.md §4.5.1).
	PreviousClassesDir string

	// Signatures and TransitiveSignal are populated only during pipelined
	// traversal: Signatures is this project's own signature table (fulfilled
	// by the compile function's signature promise). TransitiveSignal is
	// ContinueCompilation on every successful pipelined result; upstream
	// outcomes are not folded into it.
	Signatures       *oracle.Signatures
	MacroSymbols     []string
	TransitiveSignal oracle.TransitiveJavaSignal
}

// Empty returns the zero-value result used for Aggregate nodes and as a
// placeholder before a project's own outcome is known.
func Empty() PartialCompileResult {
	return PartialCompileResult{}
}

// Dag is the output tree Traverse returns: same shape as the input project
// Dag, but each node carries a PartialCompileResult instead of nothing.
type Dag = project.Dag[PartialCompileResult]
