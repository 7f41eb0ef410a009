// Package eventmirror implements the event mirror from SPEC_FULL.md §5: a
// multicast, FIFO, replayable-from-start stream of reporter/logger actions.
// Every subscriber — including one that attaches after the producer has
// already emitted events — observes the exact same sequence in the exact
// same order (invariant I5 / property P3). This is the reporter/logger side
// of deduplication: the registry owns the Mirror; subscribers only ever hold
// a Cursor, never the sink.
package eventmirror

import "sync"

// Event is one reporter/logger action mirrored to subscribers. Kind
// identifies the action (start-compilation, end-compilation, diagnostic,
// ...); Payload carries whatever structured data the caller's reporter
// needs.
type Event struct {
	Kind    string
	Payload interface{}
}

const (
	KindStartCompilation = "start-compilation"
	KindEndCompilation   = "end-compilation"
	KindDiagnostic       = "diagnostic"
)

// Mirror is the append-only, broadcastable log of events produced by one
// compilation attempt.
type Mirror struct {
	mu     sync.Mutex
	events []Event
	closed bool
	waitCh chan struct{}
}

// NewMirror returns an empty, open mirror.
func NewMirror() *Mirror {
	return &Mirror{waitCh: make(chan struct{})}
}

// Append adds evt to the log and wakes every subscriber blocked in Next.
// A no-op once the mirror is closed.
func (m *Mirror) Append(evt Event) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.events = append(m.events, evt)
	close(m.waitCh)
	m.waitCh = make(chan struct{})
}

// Close marks the mirror as complete. Subsequent Append calls are no-ops;
// subscribers positioned at the end of the log stop blocking in Next and
// observe (Event{}, false, nil).
func (m *Mirror) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.closed = true
	close(m.waitCh)
}

func (m *Mirror) snapshot() ([]Event, chan struct{}, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.events, m.waitCh, m.closed
}

// NewCursor returns a subscriber positioned at the start of the log — the
// first Next call replays the earliest event ever appended.
func (m *Mirror) NewCursor() *Cursor {
	return &Cursor{mirror: m}
}

// Len reports how many events have been appended so far (test/debug use).
func (m *Mirror) Len() int {
	events, _, _ := m.snapshot()
	return len(events)
}
