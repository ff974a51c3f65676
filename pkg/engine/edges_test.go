package engine

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddEdgeInstantiates(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	tmpl, err := e.CreateTemplate(ctx, session, "greet", "hi {{name}}", nil)
	require.NoError(t, err)
	p, err := e.AddPrompt(ctx, session, "hi bob", graph.PromptMetadata{})
	require.NoError(t, err)

	edge, err := e.AddEdge(ctx, graph.EdgeTypeInstantiates, p.ID, tmpl.ID, "", nil)
	require.NoError(t, err)
	assert.Equal(t, graph.EdgeTypeInstantiates, edge.Type)

	t.Run("rejects wrong target kind", func(t *testing.T) {
		_, err := e.AddEdge(ctx, graph.EdgeTypeInstantiates, p.ID, p.ID, "", nil)
		require.Error(t, err)
		assert.Equal(t, errs.KindInvalidNodeType, errs.Of(err))
	})
}

func TestAddEdgeAssignedTo(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	agent, err := e.CreateAgent(ctx, session, "assistant", "test-model", 0.7, "")
	require.NoError(t, err)
	p, err := e.AddPrompt(ctx, session, "hi", graph.PromptMetadata{})
	require.NoError(t, err)

	_, err = e.AddEdge(ctx, graph.EdgeTypeAssignedTo, p.ID, agent.ID, "", nil)
	require.NoError(t, err)

	t.Run("rejects wrong target kind", func(t *testing.T) {
		_, err := e.AddEdge(ctx, graph.EdgeTypeAssignedTo, p.ID, p.ID, "", nil)
		require.Error(t, err)
		assert.Equal(t, errs.KindInvalidNodeType, errs.Of(err))
	})
}

func TestAddEdgeFollowsRejectsCycle(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p1, err := e.AddPrompt(ctx, session, "a", graph.PromptMetadata{})
	require.NoError(t, err)
	p2, err := e.AddPrompt(ctx, session, "b", graph.PromptMetadata{})
	require.NoError(t, err)
	// AddPrompt already wired p1 -Follows-> p2. Adding p2 -Follows-> p1
	// would close a cycle and must be refused.
	_, err = e.AddEdge(ctx, graph.EdgeTypeFollows, p2.ID, p1.ID, "", nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindInvariantViolation, errs.Of(err))
}

func TestAddEdgeRespondsToUniqueness(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)
	p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
	require.NoError(t, err)

	usage := graph.TokenUsage{Total: 0}
	_, err = e.AddResponse(ctx, p.ID, "a1", usage, graph.ResponseMetadata{})
	require.NoError(t, err)

	_, err = e.AddResponse(ctx, p.ID, "a2", usage, graph.ResponseMetadata{})
	require.Error(t, err)
	assert.Equal(t, errs.KindInvariantViolation, errs.Of(err))
}

func TestGetOutgoingAndIncomingEdges(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)
	p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
	require.NoError(t, err)
	r, err := e.AddResponse(ctx, p.ID, "a", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)

	in, err := e.GetIncomingEdges(ctx, p.ID, nil)
	require.NoError(t, err)
	var sawRespondsTo bool
	for _, edge := range in {
		if edge.Type == graph.EdgeTypeRespondsTo {
			sawRespondsTo = true
			assert.Equal(t, r.ID, edge.From)
		}
	}
	assert.True(t, sawRespondsTo)
}
