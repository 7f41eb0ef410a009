package task

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestFutureResolveIsIdempotent(t *testing.T) {
	f := NewFuture[int]()
	f.Resolve(1, nil)
	f.Resolve(2, errors.New("ignored"))

	val, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, val)
}

func TestFutureWaitRespectsContextCancellation(t *testing.T) {
	f := NewFuture[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := f.Wait(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	require.False(t, f.IsDone())
}

func TestFutureConcurrentResolveRacesOnce(t *testing.T) {
	f := NewFuture[int]()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			f.Resolve(i, nil)
		}(i)
	}
	wg.Wait()

	val, done := f.Peek()
	require.True(t, done)
	require.GreaterOrEqual(t, val, 0)
}

func TestResolvedFuture(t *testing.T) {
	f := Resolved(42, nil)
	require.True(t, f.IsDone())
	val, err := f.Wait(context.Background())
	require.NoError(t, err)
	require.Equal(t, 42, val)
}
