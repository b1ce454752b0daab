package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type countingMarker struct {
	calls atomic.Int32
	err   error
}

func (m *countingMarker) MarkOverdue(ctx context.Context, now time.Time) (int64, error) {
	m.calls.Add(1)
	return 1, m.err
}

func TestOverdueWorkerSweepsUntilCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	marker := &countingMarker{}

	done := StartOverdueWorker(ctx, 5*time.Millisecond, marker)
	require.Eventually(t, func() bool { return marker.calls.Load() >= 3 }, time.Second, time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop after cancel")
	}

	stopped := marker.calls.Load()
	time.Sleep(20 * time.Millisecond)
	require.Equal(t, stopped, marker.calls.Load())
}

func TestOverdueWorkerKeepsRunningAfterErrors(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	marker := &countingMarker{err: errors.New("db down")}

	StartOverdueWorker(ctx, 5*time.Millisecond, marker)
	require.Eventually(t, func() bool { return marker.calls.Load() >= 2 }, time.Second, time.Millisecond)
}
