// Package bundle models the per-attempt snapshot BundleSetup produces
// (SPEC_FULL.md §4.2, §3) and the products a compilation hands to its
// dependents.
package bundle

import (
	"context"

	"github.com/bloop-build/compilesched/internal/eventmirror"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/task"
)

// UniqueCompileInputs is the deduplication key: a fingerprint of every
// semantically relevant input to a compilation (sources, classpath hashes,
// options). Equality and hashing must be stable across runs with the same
// logical inputs.
type UniqueCompileInputs struct {
	Fingerprint string
}

// Key returns the map key the DeduplicationRegistry indexes on.
func (u UniqueCompileInputs) Key() string { return u.Fingerprint }

// PartialProducts is what a pipelined upstream hands to a downstream before
// its own compilation has fully finished: the previous (read-only) classes
// dir, the in-progress (new) classes dir, and the macro symbols its
// pipelining oracle has collected so far.
type PartialProducts struct {
	ReadOnlyClassesDir string
	NewClassesDir      string
	MacroSymbols       []string
}

// CompileProducts is the full output of a completed compilation.
type CompileProducts struct {
	ClassesDir      string
	MacroSymbols    []string
	BackgroundTasks BackgroundTasks
}

// BackgroundTasks exposes the hook the engine uses to trigger background
// population of a client-specific classes directory after a successful
// compile (SPEC_FULL.md §4.5.3 step 4).
type BackgroundTasks struct {
	Trigger func(ctx context.Context, externalClassesDir string) *task.Future[struct{}]
}

// BundleProducts is what a child node's BundleSetup receives for one
// upstream dependency: either partial products (pipelining, upstream not
// yet finished) or full products (upstream complete).
type BundleProducts struct {
	Partial *PartialProducts
	Full    *CompileProducts
}

// LastSuccessfulResult is the most recent successful compilation artifact
// for one project: its on-disk classes directory, an opaque handle to the
// analysis that produced it, and a task that completes once the directory
// has actually been populated on disk.
type LastSuccessfulResult struct {
	Project            *project.Project
	ClassesDir         string
	PreviousAnalysis   interface{}
	PopulatingProducts *task.Future[struct{}]

	// empty marks the "no prior successful compilation" sentinel: its
	// ClassesDir is never read and never scheduled for deletion.
	empty bool
}

// EmptyLastSuccessful returns the sentinel last-successful value used when a
// project has never compiled successfully, or when its prior result can no
// longer be trusted (scheduleCompilation's validity overrides).
func EmptyLastSuccessful(p *project.Project) *LastSuccessfulResult {
	return &LastSuccessfulResult{
		Project:            p,
		PopulatingProducts: task.Resolved(struct{}{}, nil),
		empty:              true,
	}
}

// IsEmpty reports whether r is the empty sentinel (I4: its dir is never
// scheduled for deletion).
func (r *LastSuccessfulResult) IsEmpty() bool { return r == nil || r.empty }

// CompileBundle is the immutable snapshot BundleSetup produces for one
// compilation attempt.
type CompileBundle struct {
	Project        *project.Project
	UniqueInputs   UniqueCompileInputs
	Logger         ports.Logger
	Mirror         *eventmirror.Mirror
	LastSuccessful *LastSuccessfulResult
	Tracer         ports.Logger
	Cancel         context.CancelFunc
}

// WithLastSuccessful returns a shallow copy of b with a different
// last-successful handle, used by scheduleCompilation to apply its
// validity overrides without mutating the bundle BundleSetup produced.
func (b CompileBundle) WithLastSuccessful(r *LastSuccessfulResult) CompileBundle {
	b.LastSuccessful = r
	return b
}

// BundleInputs is what BundleSetup receives for one DAG node.
type BundleInputs struct {
	Project           *project.Project
	Dag               *project.Dag[struct{}]
	DependentProducts map[string]BundleProducts // keyed by upstream Project.UniqueID
}

// SetupFunc is the external BundleSetup collaborator (SPEC_FULL.md §4.2).
// It may fail; the engine converts a failure into a Leaf PartialFailure for
// the project rather than propagating it raw.
type SetupFunc func(ctx context.Context, in BundleInputs) (*CompileBundle, error)
