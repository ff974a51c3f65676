package query

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderSessionFilter(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	s1 := newSessionForTest(t, e)
	s2 := newSessionForTest(t, e)

	addPromptForTest(t, e, s1, "a")
	addPromptForTest(t, e, s1, "b")
	addPromptForTest(t, e, s2, "c")

	nodes, err := New(e).Session(s1).Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
	for _, n := range nodes {
		assert.Equal(t, s1, n.Session())
	}
}

func TestBuilderNodeTypeFilter(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p := addPromptForTest(t, e, session, "q")
	_, err := e.AddResponse(ctx, p.ID, "a", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)

	nodes, err := New(e).Session(session).NodeType(graph.NodeTypeResponse).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, graph.NodeTypeResponse, nodes[0].Kind())
}

func TestBuilderLimitAndOffset(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	for i := 0; i < 5; i++ {
		addPromptForTest(t, e, session, "p")
	}

	nodes, err := New(e).Session(session).Limit(2).Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)

	rest, err := New(e).Session(session).Offset(2).Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, rest, 3)
}

func TestBuilderMetadataFilter(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	_, err := e.AddPrompt(ctx, session, "q1", graph.PromptMetadata{Custom: map[string]any{"topic": "billing"}})
	require.NoError(t, err)
	_, err = e.AddPrompt(ctx, session, "q2", graph.PromptMetadata{Custom: map[string]any{"topic": "support"}})
	require.NoError(t, err)

	nodes, err := New(e).Session(session).Filters(map[string]string{"topic": "billing"}).Execute(ctx)
	require.NoError(t, err)
	require.Len(t, nodes, 1)
	assert.Equal(t, "q1", nodes[0].(*graph.Prompt).Content)
}

func TestBuilderNodeTypeOnlyAcrossSessions(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	s1 := newSessionForTest(t, e)
	s2 := newSessionForTest(t, e)

	addPromptForTest(t, e, s1, "a")
	addPromptForTest(t, e, s2, "b")

	nodes, err := New(e).NodeType(graph.NodeTypePrompt).Execute(ctx)
	require.NoError(t, err)
	assert.Len(t, nodes, 2)
}
