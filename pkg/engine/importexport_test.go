package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// seedSession populates a session with a prompt, a response, and a tool
// invocation, exercising the PartOf/Follows/RespondsTo edges AddPrompt and
// AddResponse wire up automatically.
func seedSession(t *testing.T, ctx context.Context, e *Engine) (*graph.Session, *graph.Prompt, *graph.Response) {
	t.Helper()
	sess, err := e.CreateSession(ctx, ids.ZeroSessionID, map[string]string{"topic": "weather"})
	require.NoError(t, err)

	p, err := e.AddPrompt(ctx, sess.ID, "what's the weather?", graph.PromptMetadata{Model: "gpt-test"})
	require.NoError(t, err)

	r, err := e.AddResponse(ctx, p.ID, "sunny", graph.TokenUsage{Prompt: 3, Completion: 1, Total: 4}, graph.ResponseMetadata{Model: "gpt-test"})
	require.NoError(t, err)

	_, err = e.AddToolInvocation(ctx, p.ID, "get_weather", map[string]any{"city": "boston"})
	require.NoError(t, err)

	return sess, p, r
}

func TestExportSession_ThenImport_RoundTrip(t *testing.T) {
	ctx := context.Background()
	src := openTestEngine(t)
	sess, p, r := seedSession(t, ctx, src)

	exp, err := src.ExportSession(ctx, sess.ID)
	require.NoError(t, err)
	require.Len(t, exp.Sessions, 1)
	require.Len(t, exp.Nodes, 3) // prompt, response, tool invocation
	require.NotEmpty(t, exp.Edges)

	dst := openTestEngine(t)
	result, err := dst.Import(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionsImported)
	assert.Empty(t, result.SessionsRejected)

	gotSess, err := dst.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, sess.Metadata, gotSess.Metadata)
	assert.Equal(t, sess.Active, gotSess.Active)

	gotPrompt, err := dst.GetNode(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p, gotPrompt)

	gotResponse, err := dst.GetNode(ctx, r.ID)
	require.NoError(t, err)
	assert.Equal(t, r, gotResponse)

	// AddPrompt's O(1) chain-tail pointer must survive import so a
	// subsequent AddPrompt on the imported session appends correctly
	// rather than re-scanning for the tail.
	p2, err := dst.AddPrompt(ctx, sess.ID, "and tomorrow?", graph.PromptMetadata{})
	require.NoError(t, err)
	incoming, err := dst.GetIncomingEdges(ctx, p2.ID, edgeTypePtr(graph.EdgeTypeFollows))
	require.NoError(t, err)
	require.Len(t, incoming, 1)
	assert.Equal(t, p.ID, incoming[0].From)
}

func TestExportAll_CoversEverySession(t *testing.T) {
	ctx := context.Background()
	src := openTestEngine(t)

	sessA, _, _ := seedSession(t, ctx, src)
	sessB, err := src.CreateSession(ctx, ids.ZeroSessionID, nil)
	require.NoError(t, err)
	_, err = src.AddPrompt(ctx, sessB.ID, "second session prompt", graph.PromptMetadata{})
	require.NoError(t, err)

	exp, err := src.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, exp.Sessions, 2)

	gotIDs := map[string]bool{}
	for _, s := range exp.Sessions {
		gotIDs[s.ID.String()] = true
	}
	assert.True(t, gotIDs[sessA.ID.String()])
	assert.True(t, gotIDs[sessB.ID.String()])
}

func TestImport_RejectsConflictingSessionWithoutAbortingOthers(t *testing.T) {
	ctx := context.Background()
	src := openTestEngine(t)
	sessA, _, _ := seedSession(t, ctx, src)

	sessB, err := src.CreateSession(ctx, ids.ZeroSessionID, nil)
	require.NoError(t, err)
	_, err = src.AddPrompt(ctx, sessB.ID, "another prompt", graph.PromptMetadata{})
	require.NoError(t, err)

	exp, err := src.ExportAll(ctx)
	require.NoError(t, err)
	require.Len(t, exp.Sessions, 2)

	dst := openTestEngine(t)
	// Pre-seed the destination with sessA's id already present, so
	// importing the full two-session export must reject sessA alone.
	_, err = dst.CreateSession(ctx, sessA.ID, map[string]string{"pre-existing": "true"})
	require.NoError(t, err)

	result, err := dst.Import(ctx, exp)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionsImported)
	require.Len(t, result.SessionsRejected, 1)
	assert.Equal(t, sessA.ID, result.SessionsRejected[0])

	// sessB's nodes made it in even though sessA was rejected.
	gotB, err := dst.GetSession(ctx, sessB.ID)
	require.NoError(t, err)
	assert.Equal(t, sessB.ID, gotB.ID)

	// sessA was left exactly as it was pre-seeded, not overwritten or
	// partially merged with the conflicting import data.
	gotA, err := dst.GetSession(ctx, sessA.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"pre-existing": "true"}, gotA.Metadata)
}

func TestEncodeDecodeExportBinary_ThenImport(t *testing.T) {
	ctx := context.Background()
	src := openTestEngine(t)
	sess, p, _ := seedSession(t, ctx, src)

	exp, err := src.ExportSession(ctx, sess.ID)
	require.NoError(t, err)

	data, err := codec.EncodeExportBinary(exp)
	require.NoError(t, err)

	decoded, err := codec.DecodeExportBinary(data)
	require.NoError(t, err)

	dst := openTestEngine(t)
	result, err := dst.Import(ctx, decoded)
	require.NoError(t, err)
	assert.Equal(t, 1, result.SessionsImported)

	gotPrompt, err := dst.GetNode(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.Content, gotPrompt.(*graph.Prompt).Content)
}
