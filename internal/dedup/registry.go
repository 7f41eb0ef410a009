// Package dedup implements the DeduplicationRegistry (SPEC_FULL.md §4.4,
// §6): in-flight compilation sharing by UniqueCompileInputs, last-successful
// result tracking per project, and classes-directory refcounting so a
// directory is only deleted once nothing references it.
//
// Lock ordering discipline: running -> lastSuccessful -> refcount. Any code
// path that needs more than one of these locks must acquire them in this
// order to preclude deadlock; no path ever needs to hold refcount while
// acquiring running or lastSuccessful.
package dedup

import (
	"context"
	"sync"

	"github.com/bloop-build/compilesched/internal/bundle"
	"github.com/bloop-build/compilesched/internal/eventmirror"
	"github.com/bloop-build/compilesched/internal/project"
	"github.com/bloop-build/compilesched/internal/task"
)

// RunningCompilation is the shared handle for one in-flight compilation,
// keyed by UniqueCompileInputs. Every caller that deduplicates onto it
// awaits the same Future and observes the same products or error.
type RunningCompilation struct {
	Project *project.Project
	Inputs  bundle.UniqueCompileInputs
	Result  *task.Future[*bundle.CompileProducts]

	// Mirror is the owning client's event mirror: late subscribers replay
	// from it.
	Mirror *eventmirror.Mirror

	// Cancel cancels the owning compilation's context, used when a stalled
	// subscriber disconnects and re-dispatches (SPEC_FULL.md §4.5.3 step 3d).
	Cancel context.CancelFunc

	// unsubscribed marks that a disconnecting subscriber has already
	// removed this entry from the registry, so the owning dispatch does not
	// attempt a second removal.
	unsubMu      sync.Mutex
	unsubscribed bool
}

// MarkUnsubscribed flips the unsubscribed flag and reports whether this
// call was the one that flipped it (compare-and-set semantics).
func (rc *RunningCompilation) MarkUnsubscribed() bool {
	rc.unsubMu.Lock()
	defer rc.unsubMu.Unlock()
	if rc.unsubscribed {
		return false
	}
	rc.unsubscribed = true
	return true
}

// IsUnsubscribed reports whether this compilation was already unregistered
// by a disconnecting subscriber.
func (rc *RunningCompilation) IsUnsubscribed() bool {
	rc.unsubMu.Lock()
	defer rc.unsubMu.Unlock()
	return rc.unsubscribed
}

// Registry is the DeduplicationRegistry: three independently-mutexed maps.
type Registry struct {
	runningMu sync.Mutex
	running   map[string]*RunningCompilation // keyed by UniqueCompileInputs.Key()

	lastMu sync.Mutex
	last   map[string]*bundle.LastSuccessfulResult // keyed by Project.UniqueID

	refcountMu sync.Mutex
	refcount   map[string]int // keyed by classes dir path
}

// NewRegistry returns an empty DeduplicationRegistry.
func NewRegistry() *Registry {
	return &Registry{
		running:  make(map[string]*RunningCompilation),
		last:     make(map[string]*bundle.LastSuccessfulResult),
		refcount: make(map[string]int),
	}
}

// LookupOrInsert returns the already-running compilation for inputs if one
// exists, or atomically inserts fresh as the new running compilation and
// returns (fresh, true). The bool result reports whether the caller's value
// was the one inserted (i.e. this caller owns starting the compilation).
func (r *Registry) LookupOrInsert(inputs bundle.UniqueCompileInputs, fresh *RunningCompilation) (*RunningCompilation, bool) {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()

	key := inputs.Key()
	if existing, ok := r.running[key]; ok {
		return existing, false
	}
	r.running[key] = fresh
	return fresh, true
}

// Remove performs a compare-and-remove: it deletes the running-compilation
// entry for inputs only if the currently registered value is still rc,
// preventing a stale removal from evicting a newer compilation that
// happened to reuse the same key after the first one finished.
func (r *Registry) Remove(inputs bundle.UniqueCompileInputs, rc *RunningCompilation) {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()

	key := inputs.Key()
	if r.running[key] == rc {
		delete(r.running, key)
	}
}

// GetOrInsertLastSuccessful returns the current last-successful result for
// p, inserting the empty sentinel if none is recorded yet.
func (r *Registry) GetOrInsertLastSuccessful(p *project.Project) *bundle.LastSuccessfulResult {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()

	if existing, ok := r.last[p.UniqueID]; ok {
		return existing
	}
	empty := bundle.EmptyLastSuccessful(p)
	r.last[p.UniqueID] = empty
	return empty
}

// SwapLastSuccessful installs next as p's last-successful result and
// returns whatever was previously recorded, so the caller can decide
// whether the old classes dir's refcount should be decremented.
func (r *Registry) SwapLastSuccessful(p *project.Project, next *bundle.LastSuccessfulResult) *bundle.LastSuccessfulResult {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()

	prev := r.last[p.UniqueID]
	r.last[p.UniqueID] = next
	return prev
}

// IncrementClassesDirRefcount records a new reference to dir.
func (r *Registry) IncrementClassesDirRefcount(dir string) {
	if dir == "" {
		return
	}
	r.refcountMu.Lock()
	defer r.refcountMu.Unlock()
	r.refcount[dir]++
}

// DecrementClassesDirRefcount drops one reference to dir and reports
// whether the count reached zero, meaning the caller may now delete it
// (I4: a directory is deleted only once its refcount hits zero, and only
// if it was never the empty sentinel's directory).
func (r *Registry) DecrementClassesDirRefcount(dir string) bool {
	if dir == "" {
		return false
	}
	r.refcountMu.Lock()
	defer r.refcountMu.Unlock()

	n, ok := r.refcount[dir]
	if !ok {
		return false
	}
	n--
	if n <= 0 {
		delete(r.refcount, dir)
		return true
	}
	r.refcount[dir] = n
	return false
}

// ClearSuccessfulResults discards every recorded last-successful result
// (test hook from spec.md §6). Running compilations and refcounts are left
// untouched.
func (r *Registry) ClearSuccessfulResults() {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	r.last = make(map[string]*bundle.LastSuccessfulResult)
}

// RefcountOf is a test-only accessor exposing the current refcount for dir.
func (r *Registry) RefcountOf(dir string) int {
	r.refcountMu.Lock()
	defer r.refcountMu.Unlock()
	return r.refcount[dir]
}

// LastSuccessfulOf is a test-only accessor exposing the raw recorded value
// for p, without inserting the empty sentinel as a side effect.
func (r *Registry) LastSuccessfulOf(p *project.Project) (*bundle.LastSuccessfulResult, bool) {
	r.lastMu.Lock()
	defer r.lastMu.Unlock()
	v, ok := r.last[p.UniqueID]
	return v, ok
}

// RunningCount is a test-only accessor exposing how many compilations are
// currently in flight.
func (r *Registry) RunningCount() int {
	r.runningMu.Lock()
	defer r.runningMu.Unlock()
	return len(r.running)
}
