package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/config"
	"github.com/bloop-build/compilesched/internal/dedup"
	"github.com/bloop-build/compilesched/internal/eventmirror"
	logginginfra "github.com/bloop-build/compilesched/internal/infrastructure/logging"
	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/result"
	"github.com/bloop-build/compilesched/internal/sched"
	"github.com/bloop-build/compilesched/internal/task"
	"github.com/bloop-build/compilesched/pkg/schederrors"
)

type runOptions struct {
	ConfigPath string
	ClientID   string
	Pipeline   bool
}

func newRunCmd(root *rootFlags) *cobra.Command {
	opts := runOptions{}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Traverse a demo project DAG and report the outcome of every project",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTraversal(cmd, root, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.ConfigPath, "config", "c", "", "Path to a demo project DAG document")
	cmd.Flags().StringVar(&opts.ClientID, "client", "cli", "Client identity driving this traversal")
	cmd.Flags().BoolVar(&opts.Pipeline, "pipeline", false, "Force pipelined traversal regardless of the document's pipeline setting")
	_ = cmd.MarkFlagRequired("config")

	return cmd
}

func runTraversal(cmd *cobra.Command, root *rootFlags, opts runOptions) error {
	level := "info"
	if root.verbose {
		level = "debug"
	}
	logger, err := logginginfra.New(logginginfra.Options{Level: level, Component: "cli", Layer: "infrastructure"})
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}

	doc, err := config.ParseDocument(opts.ConfigPath)
	if err != nil {
		return err
	}
	dag, err := config.BuildDag(doc)
	if err != nil {
		return err
	}

	engine := sched.NewEngine(dedup.NewRegistry(), logger, doc.Settings.ComputeWorkers)

	specs := config.ProjectMap(doc.Projects)
	client := demoClient{id: opts.ClientID}
	setup, compile := demoCollaborators(specs, logger)

	pipeline := doc.Pipeline || opts.Pipeline

	out, err := engine.Traverse(cmd.Context(), dag, client, setup, compile, pipeline)
	if err != nil {
		return fmt.Errorf("traverse: %w", err)
	}

	printReport(cmd, out)
	return nil
}

// demoClient is the ports.ClientInfo a CLI invocation drives the traversal
// as; every run is its own client since nothing in this process persists
// between invocations.
type demoClient struct{ id string }

func (c demoClient) ID() string { return c.id }

func (c demoClient) UniqueClassesDirFor(p *project.Project) string {
	return fmt.Sprintf("/tmp/compilesched-demo/%s/%s", c.id, p.UniqueID)
}

// demoCollaborators builds the BundleSetup/CompileFunc pair the engine
// needs, driven entirely by the synthetic fields a ProjectSpec carries:
// Fingerprint controls deduplication, StallFor simulates slow compiles
// (scenario 4, spec.md §8), FailWith injects a compiler failure (scenario
// 2). Real Bloop wires these to sourcepath hashing and the javac/scalac
// invocation; this harness has neither, so the spec's synthetic fields
// stand in.
func demoCollaborators(specs map[string]config.ProjectSpec, logger ports.Logger) (bundle.SetupFunc, ports.CompileFunc) {
	setup := func(ctx context.Context, in bundle.BundleInputs) (*bundle.CompileBundle, error) {
		spec := specs[in.Project.UniqueID]
		fingerprint := spec.Fingerprint
		if fingerprint == "" {
			fingerprint = in.Project.UniqueID
		}
		return &bundle.CompileBundle{
			Project:      in.Project,
			UniqueInputs: bundle.UniqueCompileInputs{Fingerprint: fingerprint},
			Logger:       logger.With("project", in.Project.UniqueID),
			Mirror:       eventmirror.NewMirror(),
		}, nil
	}

	compile := func(ctx context.Context, in ports.CompileInputs) (*bundle.CompileProducts, error) {
		spec := specs[in.Project.UniqueID]

		if spec.StallFor != "" {
			if d, parseErr := time.ParseDuration(spec.StallFor); parseErr == nil {
				select {
				case <-time.After(d):
				case <-ctx.Done():
					return nil, ctx.Err()
				}
			}
		}

		if spec.FailWith != "" {
			return nil, schederrors.NewCompilerFailedError(in.Project.UniqueID, []string{spec.FailWith})
		}

		classesDir := fmt.Sprintf("/tmp/compilesched-demo/%s", in.Project.UniqueID)
		return &bundle.CompileProducts{
			ClassesDir:   classesDir,
			MacroSymbols: []string{in.Project.UniqueID + ".macro"},
			BackgroundTasks: bundle.BackgroundTasks{
				Trigger: func(ctx context.Context, externalClassesDir string) *task.Future[struct{}] {
					return task.Resolved(struct{}{}, nil)
				},
			},
		}, nil
	}

	return setup, compile
}

func printReport(cmd *cobra.Command, dag *result.Dag) {
	out := cmd.OutOrStdout()
	dag.Walk(func(n *result.Dag) {
		if n.IsAggregate() || n.Project() == nil {
			return
		}
		v := n.Value()
		fmt.Fprintf(out, "%-20s %-14s %s\n", v.Project.UniqueID, v.Status, summaryFor(v))
	})
}

func summaryFor(v result.PartialCompileResult) string {
	switch v.Status {
	case result.StatusSuccess, result.StatusDeduplicated:
		return v.Products.ClassesDir
	case result.StatusBlocked:
		return fmt.Sprintf("blocked by %v", v.BlockedByNames)
	default:
		if v.Err != nil {
			return v.Err.Error()
		}
		return ""
	}
}
