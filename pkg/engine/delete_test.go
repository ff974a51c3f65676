package engine

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeleteNode(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	t.Run("refuses a node with incident edges", func(t *testing.T) {
		p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
		require.NoError(t, err)
		err = e.DeleteNode(ctx, p.ID)
		require.Error(t, err)
		assert.Equal(t, errs.KindInvariantViolation, errs.Of(err))
	})

	t.Run("refuses a freshly created node too, since every node gets a PartOf edge on creation", func(t *testing.T) {
		agent, err := e.CreateAgent(ctx, session, "solo", "test-model", 0.1, "")
		require.NoError(t, err)
		err = e.DeleteNode(ctx, agent.ID)
		require.Error(t, err)
		assert.Equal(t, errs.KindInvariantViolation, errs.Of(err))
	})
}

func TestDeleteSessionCascade(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
	require.NoError(t, err)
	_, err = e.AddResponse(ctx, p.ID, "a", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)

	require.NoError(t, e.DeleteSessionCascade(ctx, session))

	_, err = e.GetSession(ctx, session)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.Of(err))

	_, err = e.GetNode(ctx, p.ID)
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.Of(err))

	t.Run("refuses on unknown session", func(t *testing.T) {
		err := e.DeleteSessionCascade(ctx, session)
		require.Error(t, err)
		assert.Equal(t, errs.KindNotFound, errs.Of(err))
	})
}
