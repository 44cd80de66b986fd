package worker

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPool_RunsAllTasks(t *testing.T) {
	p := NewPool(context.Background(), &Config{MaxWorkers: 4})

	var sum atomic.Int64
	for i := 1; i <= 100; i++ {
		v := int64(i)
		require.NoError(t, p.Submit(func(ctx context.Context) error {
			sum.Add(v)
			return nil
		}))
	}

	require.NoError(t, p.Wait())
	assert.Equal(t, int64(5050), sum.Load())

	stats := p.Stats()
	assert.Equal(t, 4, stats.MaxWorkers)
	assert.Equal(t, int64(100), stats.Submitted)
	assert.Equal(t, int64(100), stats.Completed)
	assert.Zero(t, stats.Pending)
}

func TestPool_FirstErrorCancels(t *testing.T) {
	p := NewPool(context.Background(), &Config{MaxWorkers: 1, QueueSize: 1})
	boom := errors.New("boom")

	require.NoError(t, p.Submit(func(ctx context.Context) error { return boom }))

	// the failing task cancels the pool context, so later submits are refused
	var err error
	for i := 0; i < 1000 && err == nil; i++ {
		err = p.Submit(func(ctx context.Context) error { return nil })
	}
	assert.ErrorIs(t, err, context.Canceled)

	assert.ErrorIs(t, p.Wait(), boom)
	assert.Equal(t, int64(1), p.Stats().Failed)
}

func TestPool_KeepsFirstError(t *testing.T) {
	p := NewPool(context.Background(), &Config{MaxWorkers: 1})
	first := errors.New("first")

	require.NoError(t, p.Submit(func(ctx context.Context) error { return first }))
	_ = p.Submit(func(ctx context.Context) error { return errors.New("second") })

	assert.ErrorIs(t, p.Wait(), first)
}

func TestPool_SubmitAfterWait(t *testing.T) {
	p := NewPool(context.Background(), nil)
	require.NoError(t, p.Wait())
	assert.ErrorIs(t, p.Submit(func(ctx context.Context) error { return nil }), ErrPoolStopped)
}

func TestPool_ParentCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	p := NewPool(ctx, &Config{MaxWorkers: 2})

	started := make(chan struct{})
	require.NoError(t, p.Submit(func(ctx context.Context) error {
		close(started)
		<-ctx.Done()
		return nil
	}))
	<-started
	cancel()

	assert.ErrorIs(t, p.Wait(), context.Canceled)
}

func TestPool_Backpressure(t *testing.T) {
	p := NewPool(context.Background(), &Config{MaxWorkers: 1, QueueSize: 2})

	release := make(chan struct{})
	block := func(ctx context.Context) error {
		<-release
		return nil
	}
	require.NoError(t, p.Submit(block))
	require.NoError(t, p.Submit(block))

	submitted := make(chan struct{})
	go func() {
		_ = p.Submit(block)
		close(submitted)
	}()

	select {
	case <-submitted:
		t.Fatal("Submit should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	<-submitted
	require.NoError(t, p.Wait())
	assert.Equal(t, int64(3), p.Stats().Completed)
}
