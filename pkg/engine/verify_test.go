package engine

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyIndexesCleanOnFreshWrites(t *testing.T) {
	e := openTestEngine(t)
	ctx := context.Background()
	session := newSessionForTest(t, e)

	p, err := e.AddPrompt(ctx, session, "q", graph.PromptMetadata{})
	require.NoError(t, err)
	_, err = e.AddResponse(ctx, p.ID, "a", graph.TokenUsage{}, graph.ResponseMetadata{})
	require.NoError(t, err)
	_, err = e.AddToolInvocation(ctx, p.ID, "search", nil)
	require.NoError(t, err)

	problems, err := e.VerifyIndexes(ctx)
	require.NoError(t, err)
	assert.Empty(t, problems)
}
