// Package task implements the single-assignment, memoized futures the
// scheduler uses in place of the source's reactive task type (see
// SPEC_FULL.md §9, "Coroutine/async result composition").
package task

import (
	"context"
	"sync"
)

// Future is a value produced asynchronously exactly once. Resolve is
// idempotent — only the first call takes effect — so a Future naturally
// memoizes: every subsequent Wait observes the same (value, err) pair.
type Future[T any] struct {
	once sync.Once
	done chan struct{}
	val  T
	err  error
}

// NewFuture returns an unresolved future.
func NewFuture[T any]() *Future[T] {
	return &Future[T]{done: make(chan struct{})}
}

// Resolved returns a future that is already complete with val, err.
func Resolved[T any](val T, err error) *Future[T] {
	f := NewFuture[T]()
	f.Resolve(val, err)
	return f
}

// Resolve completes the future. Calls after the first are no-ops, matching
// the single-assignment-cell semantics the compiler uses for the signature
// and finished-compilation promises.
func (f *Future[T]) Resolve(val T, err error) {
	f.once.Do(func() {
		f.val, f.err = val, err
		close(f.done)
	})
}

// Done reports completion via a channel close, usable in select statements.
func (f *Future[T]) Done() <-chan struct{} {
	return f.done
}

// IsDone reports whether Resolve has already run, without blocking.
func (f *Future[T]) IsDone() bool {
	select {
	case <-f.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the future resolves or ctx is cancelled, whichever comes
// first. A ctx cancellation never resolves the future itself — it only
// unblocks this particular waiter.
func (f *Future[T]) Wait(ctx context.Context) (T, error) {
	select {
	case <-f.done:
		return f.val, f.err
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	}
}

// Peek returns the resolved value and a second return reporting completion,
// without blocking. Useful for tests and for the oracle's best-effort reads.
func (f *Future[T]) Peek() (T, bool) {
	select {
	case <-f.done:
		return f.val, true
	default:
		var zero T
		return zero, false
	}
}
