package task

import (
	"context"

	"github.com/bloop-build/compilesched/internal/ioexec"
)

// Spawn submits fn to pool and returns a Future that resolves with its
// result. If ctx is cancelled before pool has a free slot, the future
// resolves with ctx.Err() instead of ever running fn — callers racing a
// Spawn against ctx cancellation always observe termination either way.
func Spawn[T any](pool *ioexec.Pool, ctx context.Context, fn func(context.Context) (T, error)) *Future[T] {
	f := NewFuture[T]()
	ran := make(chan struct{})
	pool.Go(ctx, func() {
		close(ran)
		val, err := fn(ctx)
		f.Resolve(val, err)
	})
	go func() {
		select {
		case <-ran:
		case <-ctx.Done():
			var zero T
			f.Resolve(zero, ctx.Err())
		case <-f.Done():
		}
	}()
	return f
}
