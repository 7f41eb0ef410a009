package eventmirror

import (
	"context"
	"time"
)

// Cursor is a per-subscriber read position into a Mirror. A Cursor never
// owns the mirror's sink side — it can only read.
type Cursor struct {
	mirror *Mirror
	pos    int
}

// Next blocks until an event beyond the cursor's position is available, the
// mirror closes, or ctx is cancelled. The returned bool is false exactly
// when the mirror closed with nothing left to deliver.
func (c *Cursor) Next(ctx context.Context) (Event, bool, error) {
	for {
		events, waitCh, closed := c.mirror.snapshot()
		if c.pos < len(events) {
			evt := events[c.pos]
			c.pos++
			return evt, true, nil
		}
		if closed {
			return Event{}, false, nil
		}
		select {
		case <-waitCh:
			continue
		case <-ctx.Done():
			return Event{}, false, ctx.Err()
		}
	}
}

// Replay delivers every event from the cursor's current position to sink,
// in order, until the mirror closes or the replay stalls for longer than
// disconnectTimeout with no new event arriving. It returns nil on a clean
// close, ctx.Err() if the caller's context was cancelled, or
// context.DeadlineExceeded if the stall timeout fired — the sched package
// maps that into schederrors.DisconnectError.
//
// Property P3 (prefix-equal, no reordering, no duplication) holds because
// Replay only ever calls sink with events read via Next, in cursor order.
func (c *Cursor) Replay(ctx context.Context, disconnectTimeout time.Duration, sink func(Event)) error {
	for {
		stallCtx, cancel := context.WithTimeout(ctx, disconnectTimeout)
		evt, ok, err := c.Next(stallCtx)
		cancel()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return context.DeadlineExceeded
		}
		if !ok {
			return nil
		}
		sink(evt)
	}
}
