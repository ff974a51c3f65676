package storage

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
)

func TestSubmit_ReturnsValueAndError(t *testing.T) {
	pool := NewWorkerPool(2)
	defer pool.Close()

	v, err := Submit(context.Background(), pool, func() (int, error) { return 42, nil })
	require.NoError(t, err)
	assert.Equal(t, 42, v)

	sentinel := errs.Validation("test", nil)
	_, err = Submit(context.Background(), pool, func() (int, error) { return 0, sentinel })
	assert.Equal(t, sentinel, err)
}

// TestSubmit_CancelWhileQueued exercises the first select in Submit: ctx is
// already canceled, and the pool's single worker is occupied, so the job
// never reaches a worker and Submit must return KindCancelled without
// running fn.
func TestSubmit_CancelWhileQueued(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	occupied := make(chan struct{})
	release := make(chan struct{})
	go func() {
		_, _ = Submit(context.Background(), pool, func() (struct{}, error) {
			close(occupied)
			<-release
			return struct{}{}, nil
		})
	}()
	<-occupied // the single worker is now busy and won't drain the jobs channel

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ran := false
	_, err := Submit(ctx, pool, func() (struct{}, error) {
		ran = true
		return struct{}{}, nil
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindCancelled, errs.Of(err))
	assert.False(t, ran, "a job whose submission was canceled must never run")

	close(release)
}

// TestSubmit_CancelWhileRunning exercises the second select in Submit: the
// job has already been dequeued by a worker and is running when ctx is
// canceled, so Submit returns KindCancelled even though fn keeps executing
// in the background (cancellation here is best-effort, not a real abort).
func TestSubmit_CancelWhileRunning(t *testing.T) {
	pool := NewWorkerPool(1)
	defer pool.Close()

	started := make(chan struct{})
	release := make(chan struct{})
	ctx, cancel := context.WithCancel(context.Background())

	resultCh := make(chan error, 1)
	go func() {
		_, err := Submit(ctx, pool, func() (struct{}, error) {
			close(started)
			<-release
			return struct{}{}, nil
		})
		resultCh <- err
	}()

	<-started
	cancel()

	err := <-resultCh
	require.Error(t, err)
	assert.Equal(t, errs.KindCancelled, errs.Of(err))

	close(release)
}

func TestSubmit_AfterClose(t *testing.T) {
	pool := NewWorkerPool(1)
	pool.Close()

	_, err := Submit(context.Background(), pool, func() (struct{}, error) {
		return struct{}{}, nil
	})
	require.Error(t, err)
	assert.Equal(t, errs.KindClosed, errs.Of(err))
}
