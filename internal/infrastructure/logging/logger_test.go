package logging

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/bloop-build/compilesched/internal/ports"
	"github.com/stretchr/testify/require"
)

func TestLoggerWritesCorrelationID(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)

	ctx := ports.WithCorrelationID(context.Background(), "corr-1")
	logger.Info(ctx, "traversal started", "project", "app")

	out := buf.String()
	require.Contains(t, out, "traversal started")
	require.Contains(t, out, "corr-1")
	require.Contains(t, out, "app")
}

func TestLoggerWithAddsPersistentFields(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)

	scoped := logger.With("component", "engine")
	scoped.Warn(context.Background(), "stalled")

	require.Contains(t, buf.String(), "component=engine")
}

func TestLoggerRejectsUnknownLevel(t *testing.T) {
	_, err := New(Options{Level: "not-a-level"})
	require.Error(t, err)
}

func TestBufferedLoggerFlushesInOrder(t *testing.T) {
	var buf bytes.Buffer
	real, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)

	events := NewEventBuffer(0)
	pre := NewBufferedLogger(events)
	pre.Info(context.Background(), "first")
	pre.Warn(context.Background(), "second")

	events.Flush(real)

	out := buf.String()
	require.True(t, strings.Index(out, "first") < strings.Index(out, "second"))
}

func TestEventBufferDropsOldestPastLimit(t *testing.T) {
	events := NewEventBuffer(1)
	pre := NewBufferedLogger(events)
	pre.Info(context.Background(), "dropped")
	pre.Info(context.Background(), "kept")

	var buf bytes.Buffer
	real, err := New(Options{Writer: &buf, Level: "debug"})
	require.NoError(t, err)
	events.Flush(real)

	require.Contains(t, buf.String(), "kept")
	require.NotContains(t, buf.String(), "dropped")
}

var _ ports.Logger = (*Logger)(nil)
var _ ports.Logger = (*BufferedLogger)(nil)
