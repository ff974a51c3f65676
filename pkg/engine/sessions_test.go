package engine

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateSession(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	t.Run("generates id when zero", func(t *testing.T) {
		s, err := e.CreateSession(ctx, ids.ZeroSessionID, map[string]string{"k": "v"})
		require.NoError(t, err)
		assert.False(t, s.ID.IsZero())
		assert.True(t, s.Active)
	})

	t.Run("rejects duplicate explicit id", func(t *testing.T) {
		id := ids.NewSessionID()
		_, err := e.CreateSession(ctx, id, nil)
		require.NoError(t, err)

		_, err = e.CreateSession(ctx, id, nil)
		require.Error(t, err)
		assert.Equal(t, errs.KindAlreadyExists, errs.Of(err))
	})
}

func TestGetSession(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		_, err := e.GetSession(ctx, ids.NewSessionID())
		require.Error(t, err)
		assert.Equal(t, errs.KindNotFound, errs.Of(err))
	})

	t.Run("round trip through cache", func(t *testing.T) {
		s, err := e.CreateSession(ctx, ids.ZeroSessionID, nil)
		require.NoError(t, err)

		got, err := e.GetSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, s.ID, got.ID)

		// Second fetch should be served from cache and still match.
		got2, err := e.GetSession(ctx, s.ID)
		require.NoError(t, err)
		assert.Equal(t, got.ID, got2.ID)
	})
}

func TestArchiveSession(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()

	s, err := e.CreateSession(ctx, ids.ZeroSessionID, nil)
	require.NoError(t, err)

	require.NoError(t, e.ArchiveSession(ctx, s.ID))

	got, err := e.GetSession(ctx, s.ID)
	require.NoError(t, err)
	assert.False(t, got.Active)

	t.Run("idempotent", func(t *testing.T) {
		require.NoError(t, e.ArchiveSession(ctx, s.ID))
	})

	t.Run("archived session refuses new prompts", func(t *testing.T) {
		_, err := e.AddPrompt(ctx, s.ID, "hello", graph.PromptMetadata{})
		require.Error(t, err)
		assert.Equal(t, errs.KindInvariantViolation, errs.Of(err))
	})
}
