// Package sched implements the traversal engine (SPEC_FULL.md §4.5): the
// component that walks a project Dag, memoizes per-subtree work, gates
// parents on their children, and composes BundleSetup, the Oracle, the
// DeduplicationRegistry, and the caller's compile function into a Dag of
// PartialCompileResult.
package sched

import (
	"context"
	"os"
	"time"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/dedup"
	"github.com/bloop-build/compilesched/internal/ioexec"
	"github.com/bloop-build/compilesched/internal/oracle"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/result"
	"github.com/bloop-build/compilesched/internal/task"
	"github.com/bloop-build/compilesched/pkg/schederrors"
	"golang.org/x/sync/errgroup"
)

// EngineOption configures optional Engine collaborators.
type EngineOption func(*Engine)

// WithDirDeleter overrides how superseded classes directories are deleted.
// Defaults to logging the directory and removing it with os.RemoveAll.
func WithDirDeleter(d ports.DirDeleter) EngineOption {
	return func(e *Engine) { e.deleteDir = d }
}

// WithDirExists overrides how a classes directory's on-disk presence is
// checked. Defaults to os.Stat.
func WithDirExists(d ports.DirExists) EngineOption {
	return func(e *Engine) { e.dirExists = d }
}

// DefaultDisconnectTimeout is used when no override is configured (SPEC_FULL.md
// §10.4, resolving spec.md's Open Question).
const DefaultDisconnectTimeout = 60 * time.Second

// DisconnectTimeoutEnvVar overrides DefaultDisconnectTimeout when set to a
// value parseable by time.ParseDuration.
const DisconnectTimeoutEnvVar = "COMPILESCHED_DISCONNECT_TIMEOUT"

// Engine is the traversal engine: one Engine instance owns one
// DeduplicationRegistry and the two executors every compilation runs on.
type Engine struct {
	registry          *dedup.Registry
	compute           *ioexec.Pool
	io                *ioexec.Pool
	logger            ports.Logger
	disconnectTimeout time.Duration
	deleteDir         ports.DirDeleter
	dirExists         ports.DirExists
}

// NewEngine constructs an Engine. computeWorkers bounds the compute
// executor; pass 0 to default it to runtime.GOMAXPROCS(0).
func NewEngine(registry *dedup.Registry, logger ports.Logger, computeWorkers int, opts ...EngineOption) *Engine {
	if logger == nil {
		logger = ports.NoOpLogger{}
	}
	var compute *ioexec.Pool
	if computeWorkers > 0 {
		compute = ioexec.NewBounded(computeWorkers)
	} else {
		compute = ioexec.NewBounded(defaultComputeWorkers())
	}
	e := &Engine{
		registry:          registry,
		compute:           compute,
		io:                ioexec.NewUnbounded(),
		logger:            logger,
		disconnectTimeout: resolveDisconnectTimeout(logger),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.dirExists == nil {
		e.dirExists = defaultDirExists
	}
	if e.deleteDir == nil {
		e.deleteDir = e.defaultDeleteDir
	}
	return e
}

func defaultDirExists(dir string) bool {
	if dir == "" {
		return false
	}
	_, err := os.Stat(dir)
	return err == nil
}

func (e *Engine) defaultDeleteDir(ctx context.Context, dir string) error {
	e.logger.Info(ctx, "deleting superseded classes directory", "dir", dir)
	return os.RemoveAll(dir)
}

func resolveDisconnectTimeout(logger ports.Logger) time.Duration {
	raw := os.Getenv(DisconnectTimeoutEnvVar)
	if raw == "" {
		return DefaultDisconnectTimeout
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		logger.Warn(context.Background(), "invalid disconnect timeout override, falling back to default",
			"env_var", DisconnectTimeoutEnvVar, "value", raw, "default", DefaultDisconnectTimeout)
		return DefaultDisconnectTimeout
	}
	return d
}

// ClearSuccessfulResults is the test hook from spec.md §6: it drops the
// registry's last-successful map between test scenarios.
func (e *Engine) ClearSuccessfulResults() {
	e.registry.ClearSuccessfulResults()
}

// Traverse walks dag, deduplicating and compiling every node, and returns
// the corresponding result Dag. pipeline selects normal (strict) or
// pipelined traversal.
func (e *Engine) Traverse(
	ctx context.Context,
	dag *project.Dag[struct{}],
	client ports.ClientInfo,
	bundleSetup bundle.SetupFunc,
	compile ports.CompileFunc,
	pipeline bool,
) (*result.Dag, error) {
	if dag == nil {
		return nil, schederrors.NewGlobalError("traverse called with a nil dag", nil)
	}
	correlationID := ports.GenerateCorrelationID()
	ctx = ports.WithCorrelationID(ctx, correlationID)

	t := &traversal{
		engine:      e,
		memo:        newMemoTable(),
		client:      client,
		bundleSetup: bundleSetup,
		compile:     compile,
		pipeline:    pipeline,
	}

	fut := task.NewFuture[*result.Dag]()
	go t.populate(ctx, dag, fut)
	return fut.Wait(ctx)
}

// traversal carries the state shared by every node visited during one
// Traverse call.
type traversal struct {
	engine      *Engine
	memo        *memoTable
	client      ports.ClientInfo
	bundleSetup bundle.SetupFunc
	compile     ports.CompileFunc
	pipeline    bool
}

// populate computes node's result subtree and resolves fut with it. Traverse
// runs it on its own goroutine for the root node.
func (t *traversal) populate(ctx context.Context, node *project.Dag[struct{}], fut *task.Future[*result.Dag]) {
	res, err := t.evalNode(ctx, node)
	fut.Resolve(res, err)
}

// evalNode computes, or fetches the memoized computation of, node's result
// subtree.
func (t *traversal) evalNode(ctx context.Context, node *project.Dag[struct{}]) (*result.Dag, error) {
	fut, created := t.memo.getOrCreate(node)
	if !created {
		return fut.Wait(ctx)
	}

	children, err := t.evalChildren(ctx, node.Children())
	if err != nil {
		fut.Resolve(nil, err)
		return nil, err
	}

	var out *result.Dag
	if node.IsAggregate() {
		out = project.Parent(nil, result.Empty(), children)
	} else {
		value := t.evalProject(ctx, node, children)
		if len(node.Children()) == 0 {
			out = project.Leaf(node.Project(), value)
		} else {
			out = project.Parent(node.Project(), value, children)
		}
	}
	fut.Resolve(out, nil)
	return out, nil
}

// evalChildren computes every direct child's subtree concurrently using
// errgroup, preserving children's positional order in the result.
func (t *traversal) evalChildren(ctx context.Context, children []*project.Dag[struct{}]) ([]*result.Dag, error) {
	out := make([]*result.Dag, len(children))
	g, gctx := errgroup.WithContext(ctx)
	for i, c := range children {
		i, c := i, c
		g.Go(func() error {
			if err := t.engine.compute.Acquire(gctx); err != nil {
				return err
			}
			defer t.engine.compute.Release()

			sub, err := t.evalNode(gctx, c)
			if err != nil {
				return err
			}
			out[i] = sub
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// evalProject computes the PartialCompileResult for a single project node,
// given its already-computed children subtrees.
func (t *traversal) evalProject(ctx context.Context, node *project.Dag[struct{}], children []*result.Dag) result.PartialCompileResult {
	p := node.Project()

	if names, blocked := blockedBy(children); blocked {
		return result.PartialCompileResult{
			Project:        p,
			Status:         result.StatusBlocked,
			BlockedByNames: names,
			Err:            schederrors.NewBlockedError(p.UniqueID, names),
		}
	}

	depProducts, depResults := gatherDependents(children)

	in := bundle.BundleInputs{
		Project:           p,
		Dag:               node,
		DependentProducts: depProducts,
	}
	b, err := t.bundleSetup(ctx, in)
	if err != nil {
		return result.PartialCompileResult{
			Project: p,
			Status:  result.StatusFailure,
			Err:     schederrors.NewSetupFailedError(p.UniqueID, err),
		}
	}

	var oc oracle.Oracle
	if t.pipeline {
		oc = buildPipeliningOracle(children)
	} else {
		oc = oracle.Simple{}
	}

	return setupAndDeduplicate(ctx, t.engine, t.client, *b, p, t.compile, oc, depResults, t.pipeline)
}
