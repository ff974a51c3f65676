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

func newSessionForTest(t *testing.T, e *Engine) ids.SessionID {
	t.Helper()
	s, err := e.CreateSession(context.Background(), ids.ZeroSessionID, nil)
	require.NoError(t, err)
	return s.ID
}

func TestAddPrompt(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p1, err := e.AddPrompt(ctx, session, "first", graph.PromptMetadata{Model: "test-model"})
	require.NoError(t, err)
	assert.Equal(t, session, p1.SessionID)

	p2, err := e.AddPrompt(ctx, session, "second", graph.PromptMetadata{})
	require.NoError(t, err)

	t.Run("chain links via Follows", func(t *testing.T) {
		out, err := e.GetOutgoingEdges(ctx, p1.ID, nil)
		require.NoError(t, err)
		var sawFollows bool
		for _, edge := range out {
			if edge.Type == graph.EdgeTypeFollows {
				sawFollows = true
				assert.Equal(t, p2.ID, edge.To)
			}
		}
		assert.True(t, sawFollows, "expected a Follows edge from p1 to p2")
	})

	t.Run("every prompt gets a PartOf edge to its session", func(t *testing.T) {
		out, err := e.GetOutgoingEdges(ctx, p1.ID, nil)
		require.NoError(t, err)
		var sawPartOf bool
		for _, edge := range out {
			if edge.Type == graph.EdgeTypePartOf {
				sawPartOf = true
				assert.Equal(t, ids.SessionAsNode(session), edge.To)
			}
		}
		assert.True(t, sawPartOf)
	})
}

func TestAddResponse(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)
	p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
	require.NoError(t, err)

	usage := graph.TokenUsage{Prompt: 10, Completion: 5, Total: 15}
	r, err := e.AddResponse(ctx, p.ID, "a", usage, graph.ResponseMetadata{})
	require.NoError(t, err)
	assert.Equal(t, p.ID, r.PromptID)

	t.Run("rejects inconsistent token usage", func(t *testing.T) {
		_, err := e.AddResponse(ctx, p.ID, "a", graph.TokenUsage{Prompt: 1, Completion: 1, Total: 3}, graph.ResponseMetadata{})
		require.Error(t, err)
		assert.Equal(t, errs.KindValidation, errs.Of(err))
	})

	t.Run("rejects non-prompt parent", func(t *testing.T) {
		_, err := e.AddResponse(ctx, r.ID, "a", usage, graph.ResponseMetadata{})
		require.Error(t, err)
		assert.Equal(t, errs.KindInvalidNodeType, errs.Of(err))
	})
}

func TestAddToolInvocationAndStatus(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)
	p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
	require.NoError(t, err)

	tool, err := e.AddToolInvocation(ctx, p.ID, "search", map[string]any{"query": "x"})
	require.NoError(t, err)
	assert.Equal(t, graph.ToolStatusPending, tool.Status)

	t.Run("rejects invalid parent kind", func(t *testing.T) {
		_, err := e.AddToolInvocation(ctx, tool.ID, "nested", nil)
		require.Error(t, err)
		assert.Equal(t, errs.KindInvalidNodeType, errs.Of(err))
	})

	updated, err := e.UpdateToolStatus(ctx, tool.ID, graph.ToolStatusSuccess, map[string]any{"result": "ok"})
	require.NoError(t, err)
	assert.Equal(t, graph.ToolStatusSuccess, updated.Status)

	t.Run("rejects re-transition from terminal state", func(t *testing.T) {
		_, err := e.UpdateToolStatus(ctx, tool.ID, graph.ToolStatusFailure, nil)
		require.Error(t, err)
		assert.Equal(t, errs.KindInvalidTransition, errs.Of(err))
	})
}

func TestGetNodeAndBatchGetNodes(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)
	p1, err := e.AddPrompt(ctx, session, "a", graph.PromptMetadata{})
	require.NoError(t, err)
	p2, err := e.AddPrompt(ctx, session, "b", graph.PromptMetadata{})
	require.NoError(t, err)

	t.Run("get missing node", func(t *testing.T) {
		_, err := e.GetNode(ctx, ids.NewNodeID())
		require.Error(t, err)
		assert.Equal(t, errs.KindNotFound, errs.Of(err))
	})

	t.Run("batch get skips missing ids", func(t *testing.T) {
		nodes, err := e.BatchGetNodes(ctx, []ids.NodeID{p1.ID, ids.NewNodeID(), p2.ID})
		require.NoError(t, err)
		assert.Len(t, nodes, 2)
	})
}

func TestGetSessionNodesStream(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)
	for i := 0; i < 5; i++ {
		_, err := e.AddPrompt(ctx, session, "x", graph.PromptMetadata{})
		require.NoError(t, err)
	}

	var count int
	for chunk := range e.GetSessionNodes(ctx, session, 0) {
		require.NoError(t, chunk.Err)
		count += len(chunk.Nodes)
	}
	assert.Equal(t, 5, count)
}
