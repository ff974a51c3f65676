package engine

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/config"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T) *Engine {
	t.Helper()
	tmpDir := t.TempDir()
	e, err := Open(config.Config{Path: tmpDir, FlushIntervalMS: -1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func TestOpen(t *testing.T) {
	t.Run("with defaults", func(t *testing.T) {
		tmpDir := t.TempDir()
		e, err := Open(config.Config{Path: tmpDir})
		require.NoError(t, err)
		require.NotNil(t, e)
		defer e.Close()

		assert.Equal(t, 100, e.cfg.CacheSizeMB)
		assert.Equal(t, 4, e.cfg.WorkerPoolSize)
	})

	t.Run("rejects missing path when not in-memory", func(t *testing.T) {
		_, err := Open(config.Config{})
		assert.Error(t, err)
	})

	t.Run("in-memory works without a path", func(t *testing.T) {
		e, err := Open(config.Config{InMemory: true, FlushIntervalMS: -1})
		require.NoError(t, err)
		defer e.Close()
	})
}

func TestClose(t *testing.T) {
	t.Run("idempotent", func(t *testing.T) {
		e := openTestEngine(t)
		require.NoError(t, e.Close())
		require.NoError(t, e.Close())
	})

	t.Run("operations fail after close", func(t *testing.T) {
		e := openTestEngine(t)
		require.NoError(t, e.Close())

		ctx := context.Background()
		_, err := e.CreateSession(ctx, ids.ZeroSessionID, nil)
		assert.Error(t, err)
	})
}

func TestFlushAndStats(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	_, err := e.CreateSession(ctx, ids.ZeroSessionID, nil)
	require.NoError(t, err)
	require.NoError(t, e.Flush(ctx))

	stats, err := e.Stats(ctx)
	require.NoError(t, err)
	assert.NotEmpty(t, stats)
}

func TestSubscribe(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	sub := e.Subscribe()
	defer sub.Close()

	_, err := e.CreateSession(ctx, ids.ZeroSessionID, nil)
	require.NoError(t, err)

	select {
	case ev := <-sub.C:
		assert.Equal(t, "SessionCreated", string(ev.Kind))
	default:
		t.Fatal("expected a SessionCreated event to be published")
	}
}
