package query

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBFSAndDFSFollowChain(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p1 := addPromptForTest(t, e, session, "p1")
	p2 := addPromptForTest(t, e, session, "p2")
	p3 := addPromptForTest(t, e, session, "p3")

	order, err := BFS(ctx, e, p1.ID)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(order), 3)
	assert.Equal(t, p1.ID, order[0])

	seen := map[string]bool{}
	for _, id := range order {
		seen[id.String()] = true
	}
	assert.True(t, seen[p2.ID.String()])
	assert.True(t, seen[p3.ID.String()])

	dfsOrder, err := DFS(ctx, e, p1.ID)
	require.NoError(t, err)
	assert.Equal(t, p1.ID, dfsOrder[0])
}

func TestConversationThreadOrdersPromptsAndResponses(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p1 := addPromptForTest(t, e, session, "p1")
	_, err := e.AddResponse(ctx, p1.ID, "r1", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)
	p2 := addPromptForTest(t, e, session, "p2")
	_, err = e.AddResponse(ctx, p2.ID, "r2", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)

	thread, err := ConversationThread(ctx, e, p2.ID)
	require.NoError(t, err)
	require.Len(t, thread, 4)
	assert.Equal(t, graph.NodeTypePrompt, thread[0].Kind())
	assert.Equal(t, graph.NodeTypeResponse, thread[1].Kind())
	assert.Equal(t, graph.NodeTypePrompt, thread[2].Kind())
	assert.Equal(t, graph.NodeTypeResponse, thread[3].Kind())
}

func TestFindResponsesProbesIndexDirectly(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p := addPromptForTest(t, e, session, "q")
	r, err := e.AddResponse(ctx, p.ID, "a", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)

	responses, err := FindResponses(ctx, e, p.ID)
	require.NoError(t, err)
	require.Len(t, responses, 1)
	assert.Equal(t, r.ID, responses[0].ID)
}
