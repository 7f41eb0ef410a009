package sched

import (
	"context"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/dedup"
	"github.com/bloop-build/compilesched/internal/eventmirror"
	"github.com/bloop-build/compilesched/internal/oracle"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/result"
	"github.com/bloop-build/compilesched/internal/task"
	"github.com/bloop-build/compilesched/pkg/schederrors"
)

// setupAndDeduplicate is the core of the traversal engine (SPEC_FULL.md
// §4.5.3): it deduplicates against any already-running compilation for the
// same UniqueCompileInputs, or dispatches a fresh one and owns its
// lifecycle.
func setupAndDeduplicate(
	ctx context.Context,
	e *Engine,
	client ports.ClientInfo,
	b bundle.CompileBundle,
	p *project.Project,
	compile ports.CompileFunc,
	oc oracle.Oracle,
	depResults map[string]ports.PreviousResult,
	pipeline bool,
) result.PartialCompileResult {
	fresh := &dedup.RunningCompilation{
		Project: p,
		Inputs:  b.UniqueInputs,
		Result:  task.NewFuture[*bundle.CompileProducts](),
		Mirror:  b.Mirror,
		Cancel:  b.Cancel,
	}

	existing, owns := e.registry.LookupOrInsert(b.UniqueInputs, fresh)
	if owns {
		return e.dispatchOwned(ctx, client, b, p, compile, oc, depResults, fresh)
	}
	return e.attachDeduplicated(ctx, client, b, p, compile, oc, depResults, pipeline, existing)
}

// dispatchOwned runs scheduleCompilation for a compilation this call is the
// first to request, then enriches and unregisters it.
func (e *Engine) dispatchOwned(
	ctx context.Context,
	client ports.ClientInfo,
	b bundle.CompileBundle,
	p *project.Project,
	compile ports.CompileFunc,
	oc oracle.Oracle,
	depResults map[string]ports.PreviousResult,
	rc *dedup.RunningCompilation,
) result.PartialCompileResult {
	products, cerr, chosen := scheduleCompilation(ctx, e, b, p, compile, oc, depResults)
	rc.Result.Resolve(products, cerr)
	if b.Mirror != nil {
		// Closing signals every late subscriber's replay to drain and stop
		// rather than stall until the disconnect timeout.
		b.Mirror.Close()
	}

	e.processResultAtomically(ctx, client, p, chosen, products, cerr)
	if !rc.IsUnsubscribed() {
		e.registry.Remove(b.UniqueInputs, rc)
	}

	return buildPartialResult(p, products, cerr, oc, chosen)
}

// attachDeduplicated implements the deduplicated path: replay the owning
// compilation's event mirror to this client, racing replay completion
// against the shared result, with disconnect-and-redispatch on stall
// (SPEC_FULL.md §4.5.3 step 3).
func (e *Engine) attachDeduplicated(
	ctx context.Context,
	client ports.ClientInfo,
	b bundle.CompileBundle,
	p *project.Project,
	compile ports.CompileFunc,
	oc oracle.Oracle,
	depResults map[string]ports.PreviousResult,
	pipeline bool,
	existing *dedup.RunningCompilation,
) result.PartialCompileResult {
	cursor := existing.Mirror.NewCursor()

	type replayOutcome struct{ err error }
	replayDone := make(chan replayOutcome, 1)
	e.io.Go(ctx, func() {
		err := cursor.Replay(ctx, e.disconnectTimeout, func(evt eventmirror.Event) {
			if b.Mirror != nil {
				b.Mirror.Append(evt)
			}
		})
		replayDone <- replayOutcome{err: err}
	})

	type resultOutcome struct {
		products *bundle.CompileProducts
		err      error
	}
	resultDone := make(chan resultOutcome, 1)
	e.io.Go(ctx, func() {
		products, err := existing.Result.Wait(ctx)
		resultDone <- resultOutcome{products: products, err: err}
	})

	select {
	case rOut := <-resultDone:
		<-replayDone // wait for replay to also settle before delivering (3.a)
		return dedupedResult(p, rOut.products, rOut.err)

	case rep := <-replayDone:
		if rep.err == nil {
			rOut := <-resultDone
			return dedupedResult(p, rOut.products, rOut.err)
		}
		if rep.err == context.DeadlineExceeded {
			return e.handleDisconnect(ctx, client, b, p, compile, oc, depResults, pipeline, existing)
		}
		return result.PartialCompileResult{
			Project: p,
			Status:  result.StatusCancelled,
			Err:     schederrors.NewCancelledError(p.UniqueID),
		}
	}
}

// handleDisconnect implements SPEC_FULL.md §4.5.3 step 3d: a stalled
// subscriber unsubscribes, removes the registry entry via compare-and-
// remove, cancels the producer, and recursively re-enters
// setupAndDeduplicate so a fresh attempt can be dispatched.
func (e *Engine) handleDisconnect(
	ctx context.Context,
	client ports.ClientInfo,
	b bundle.CompileBundle,
	p *project.Project,
	compile ports.CompileFunc,
	oc oracle.Oracle,
	depResults map[string]ports.PreviousResult,
	pipeline bool,
	existing *dedup.RunningCompilation,
) result.PartialCompileResult {
	if existing.MarkUnsubscribed() {
		e.registry.Remove(b.UniqueInputs, existing)
		if existing.Cancel != nil {
			existing.Cancel()
		}
	}
	e.logger.Warn(ctx, "disconnected from deduplicated compilation after stall, re-dispatching",
		"project", p.UniqueID)
	return setupAndDeduplicate(ctx, e, client, b, p, compile, oc, depResults, pipeline)
}

func dedupedResult(p *project.Project, products *bundle.CompileProducts, err error) result.PartialCompileResult {
	if err != nil {
		if de, ok := err.(*schederrors.DeduplicationError); ok {
			return result.PartialCompileResult{Project: p, Status: result.StatusFailure, Err: de}
		}
		return result.PartialCompileResult{Project: p, Status: result.StatusFailure, Err: err}
	}
	return result.PartialCompileResult{
		Project:  p,
		Status:   result.StatusDeduplicated,
		Products: products,
	}
}

// buildPartialResult converts the owning client's raw compile outcome into
// a PartialCompileResult, attaching pipelining bookkeeping when present.
// chosen is the last-successful value this attempt read as its own input;
// when it names a different directory than the one just produced, it is
// surfaced as PreviousClassesDir so gatherDependents can key a downstream's
// PreviousResult lookup under either path (SPEC_FULL.md §4.5.1).
func buildPartialResult(p *project.Project, products *bundle.CompileProducts, err error, oc oracle.Oracle, chosen *bundle.LastSuccessfulResult) result.PartialCompileResult {
	if err != nil {
		return result.PartialCompileResult{Project: p, Status: result.StatusFailure, Err: err}
	}
	out := result.PartialCompileResult{
		Project:  p,
		Status:   result.StatusSuccess,
		Products: products,
	}
	if chosen != nil && !chosen.IsEmpty() && chosen.ClassesDir != products.ClassesDir {
		out.PreviousClassesDir = chosen.ClassesDir
	}
	if pl, ok := oc.(*oracle.Pipelining); ok {
		if sigs, done := pl.SignaturesPromise.Peek(); done {
			out.Signatures = sigs
		}
		// This project's own defined macro symbols, as reported by its
		// compile function — not pl's (upstream-derived) DefinedMacroSymbols
		// — so a downstream's buildPipeliningOracle can discover them via
		// collectFromUpstream's v.MacroSymbols read.
		out.MacroSymbols = products.MacroSymbols
		out.TransitiveSignal = oracle.TransitiveJavaSignal{Signal: oracle.ContinueCompilation}
	}
	return out
}
