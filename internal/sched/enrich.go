package sched

import (
	"context"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/task"
)

// processResultAtomically is ResultEnrichment & Cleanup (SPEC_FULL.md
// §4.5.5): on failure it releases the classes directory this attempt read,
// on success it atomically swaps in the new last-successful result and, if
// a superseded directory's refcount reaches zero, schedules its deletion on
// the I/O executor once both the old and new directories have finished
// populating.
func (e *Engine) processResultAtomically(
	ctx context.Context,
	client ports.ClientInfo,
	p *project.Project,
	chosen *bundle.LastSuccessfulResult,
	products *bundle.CompileProducts,
	err error,
) {
	if err != nil || products == nil {
		if !chosen.IsEmpty() {
			e.registry.DecrementClassesDirRefcount(chosen.ClassesDir)
		}
		return
	}

	var populating *task.Future[struct{}]
	if products.BackgroundTasks.Trigger != nil && client != nil {
		populating = products.BackgroundTasks.Trigger(ctx, client.UniqueClassesDirFor(p))
	} else {
		populating = task.Resolved(struct{}{}, nil)
	}

	newSuccessful := &bundle.LastSuccessfulResult{
		Project:            p,
		ClassesDir:         products.ClassesDir,
		PopulatingProducts: populating,
	}

	// The newly-installed current-successful directory holds a baseline
	// reference of its own (I3/I4): it must survive until some later run
	// supersedes it, independent of chosen's read-hold below.
	e.registry.IncrementClassesDirRefcount(newSuccessful.ClassesDir)

	old := e.registry.SwapLastSuccessful(p, newSuccessful)

	if !chosen.IsEmpty() {
		// Release this attempt's read-hold on the directory it used as
		// input, acquired by scheduleCompilation's IncrementClassesDirRefcount.
		e.registry.DecrementClassesDirRefcount(chosen.ClassesDir)
	}

	if old == nil || old.IsEmpty() || old.ClassesDir == newSuccessful.ClassesDir {
		return
	}
	if !e.registry.DecrementClassesDirRefcount(old.ClassesDir) {
		return
	}

	composite := task.Spawn(e.io, ctx, func(ctx context.Context) (struct{}, error) {
		old.PopulatingProducts.Wait(ctx)
		newSuccessful.PopulatingProducts.Wait(ctx)
		if err := e.deleteDir(ctx, old.ClassesDir); err != nil {
			e.logger.Warn(ctx, "failed to delete superseded classes directory", "dir", old.ClassesDir, "err", err)
		}
		return struct{}{}, nil
	})
	newSuccessful.PopulatingProducts = composite
}
