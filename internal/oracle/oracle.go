// Package oracle implements the two capabilities the engine hands to a
// compile function (SPEC_FULL.md §4.3): SimpleOracle for normal traversal,
// PipeliningOracle for pipelined traversal.
package oracle

import (
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/task"
)

// Oracle is the sealed interface implemented by Simple and Pipelining.
type Oracle interface {
	isOracle()
}

// Simple is an opaque capability used during non-pipelined compilation. It
// carries no data — its only role is to let a compile function tell, by
// type, whether it is running in normal or pipelined mode.
type Simple struct{}

func (Simple) isOracle() {}

// JavaSignal is the fold result of every upstream's finished-compilation
// outcome, used to decide whether a pipelined downstream should continue
// its Java compilation phase.
type JavaSignal int

const (
	// ContinueCompilation means every upstream's done promise completed
	// successfully so far.
	ContinueCompilation JavaSignal = iota
	// FailFastCompilation means at least one upstream's done promise failed
	// or was cancelled; the Java phase should abort.
	FailFastCompilation
)

// TransitiveJavaSignal is the per-node aggregate of upstream outcomes.
type TransitiveJavaSignal struct {
	Signal         JavaSignal
	FailedProjects []string
}

// FoldJavaSignal combines two signals left-to-right: Continue∘Continue =
// Continue; FailFast∘FailFast = FailFast with concatenated names; otherwise
// the FailFast side absorbs the Continue side.
func FoldJavaSignal(a, b TransitiveJavaSignal) TransitiveJavaSignal {
	if a.Signal == ContinueCompilation && b.Signal == ContinueCompilation {
		return TransitiveJavaSignal{Signal: ContinueCompilation}
	}
	failed := append(append([]string{}, a.FailedProjects...), b.FailedProjects...)
	return TransitiveJavaSignal{Signal: FailFastCompilation, FailedProjects: failed}
}

// Pipelining carries everything a pipelined compile function needs to
// unblock its own downstreams as early as possible.
type Pipelining struct {
	// UpstreamSignatures holds every transitive upstream signature, in DFS
	// first-occurrence-wins order (the classpath-shadowing analogue).
	UpstreamSignatures *Signatures

	// DefinedMacroSymbols maps each upstream project's UniqueID to the
	// macro symbols it defines.
	DefinedMacroSymbols map[string][]string

	// SignaturesPromise is the single-assignment cell this node's compile
	// function must fulfil with its own signatures as soon as they are
	// ready, so pipelined downstreams can proceed without waiting for
	// bytecode.
	SignaturesPromise *task.Future[*Signatures]

	// UpstreamPartialSuccesses lists the upstream projects this node
	// depends on that have (at least) partially succeeded.
	UpstreamPartialSuccesses []*project.Project
}

func (*Pipelining) isOracle() {}

// CollectDefinedMacroSymbols returns every macro symbol defined by any
// upstream, available once compilation of this node has completed.
func (p *Pipelining) CollectDefinedMacroSymbols() []string {
	var out []string
	for _, syms := range p.DefinedMacroSymbols {
		out = append(out, syms...)
	}
	return out
}
