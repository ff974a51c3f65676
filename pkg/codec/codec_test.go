package codec

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

func sampleSession() *graph.Session {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &graph.Session{
		ID:        ids.NewSessionID(),
		CreatedAt: now,
		UpdatedAt: now,
		Active:    true,
		Metadata:  map[string]string{"env": "test"},
	}
}

func samplePrompt(session ids.SessionID) *graph.Prompt {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &graph.Prompt{
		ID:        ids.NewNodeID(),
		SessionID: session,
		Content:   "what is the weather today?",
		Metadata:  graph.PromptMetadata{Model: "gpt-test", Temperature: 0.2},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleResponse(session ids.SessionID, prompt ids.NodeID) *graph.Response {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &graph.Response{
		ID:         ids.NewNodeID(),
		PromptID:   prompt,
		SessionID:  session,
		Content:    "sunny",
		TokenUsage: graph.TokenUsage{Prompt: 5, Completion: 1, Total: 6},
		Metadata:   graph.ResponseMetadata{Model: "gpt-test", LatencyMS: 120},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func sampleTool(session ids.SessionID, parent ids.NodeID) *graph.ToolInvocation {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &graph.ToolInvocation{
		ID:         ids.NewNodeID(),
		SessionID:  session,
		ParentID:   parent,
		ParentKind: graph.NodeTypePrompt,
		Name:       "get_weather",
		Arguments:  map[string]any{"city": "boston"},
		Status:     graph.ToolStatusSuccess,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

func sampleTemplate(session ids.SessionID) *graph.Template {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &graph.Template{
		ID:        ids.NewNodeID(),
		SessionID: session,
		Name:      "weather-lookup",
		Body:      "What is the weather in {{city}}?",
		Variables: []graph.TemplateVariable{{Name: "city", Type: "string"}},
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

func sampleAgent(session ids.SessionID) *graph.Agent {
	now := time.Now().UTC().Truncate(time.Millisecond)
	return &graph.Agent{
		ID:          ids.NewNodeID(),
		SessionID:   session,
		Name:        "assistant",
		Model:       "gpt-test",
		Temperature: 0.5,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func TestEncodeDecodeNode_RoundTrip(t *testing.T) {
	session := ids.NewSessionID()
	prompt := samplePrompt(session)

	nodes := []graph.Node{
		prompt,
		sampleResponse(session, prompt.ID),
		sampleTool(session, prompt.ID),
		sampleTemplate(session),
		sampleAgent(session),
	}

	for _, n := range nodes {
		n := n
		t.Run(n.Kind().String(), func(t *testing.T) {
			data, err := EncodeNode(n, nil)
			require.NoError(t, err)

			decoded, extra, err := DecodeNode(data)
			require.NoError(t, err)
			assert.Nil(t, extra)
			assert.Equal(t, n, decoded)
			assert.Equal(t, n.Kind(), decoded.Kind())
			assert.Equal(t, n.NodeID(), decoded.NodeID())
			assert.Equal(t, n.Session(), decoded.Session())
		})
	}
}

func TestDecodeNode_UnknownTypeTag(t *testing.T) {
	env := envelope{Version: SchemaVersion, Type: graph.NodeType(250), Payload: json.RawMessage(`{}`)}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	_, _, err = DecodeNode(data)
	require.Error(t, err)
}

func TestDecodeNode_PreservesUnknownFields(t *testing.T) {
	session := ids.NewSessionID()
	prompt := samplePrompt(session)

	payload, err := json.Marshal(prompt)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(payload, &raw))
	raw["future_field"] = json.RawMessage(`"from a newer binary"`)
	payloadWithExtra, err := json.Marshal(raw)
	require.NoError(t, err)

	env := envelope{Version: SchemaVersion, Type: graph.NodeTypePrompt, Payload: payloadWithExtra}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	decoded, extra, err := DecodeNode(data)
	require.NoError(t, err)
	require.NotNil(t, extra)
	assert.Contains(t, extra, "future_field")
	assert.JSONEq(t, `"from a newer binary"`, string(extra["future_field"]))

	// Re-encoding with the recovered extra must carry the unknown field
	// forward rather than silently dropping it.
	reencoded, err := EncodeNode(decoded, extra)
	require.NoError(t, err)
	_, roundTripExtra, err := DecodeNode(reencoded)
	require.NoError(t, err)
	assert.Contains(t, roundTripExtra, "future_field")
}

func TestDecodeEnvelope_RejectsFutureVersion(t *testing.T) {
	env := envelope{Version: SchemaVersion + 1, Type: graph.NodeTypePrompt, Payload: json.RawMessage(`{}`)}
	data, err := json.Marshal(env)
	require.NoError(t, err)

	_, _, err = DecodeNode(data)
	require.Error(t, err)
	var verr *ErrUnknownVersion
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, SchemaVersion+1, verr.Got)
	assert.Equal(t, SchemaVersion, verr.Want)
}

func TestEncodeDecodeEdge_RoundTrip(t *testing.T) {
	edge := &graph.Edge{
		ID:         ids.NewEdgeID(),
		SessionID:  ids.NewSessionID(),
		From:       ids.NewNodeID(),
		To:         ids.NewNodeID(),
		Type:       graph.EdgeTypeFollows,
		CreatedAt:  time.Now().UTC().Truncate(time.Millisecond),
		Properties: map[string]string{"weight": "1"},
	}

	data, err := EncodeEdge(edge, nil)
	require.NoError(t, err)

	decoded, extra, err := DecodeEdge(data)
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.Equal(t, edge, decoded)
}

func TestEncodeDecodeSession_RoundTrip(t *testing.T) {
	sess := sampleSession()

	data, err := EncodeSession(sess, nil)
	require.NoError(t, err)

	decoded, extra, err := DecodeSession(data)
	require.NoError(t, err)
	assert.Nil(t, extra)
	assert.Equal(t, sess, decoded)
}

func TestUint64BigEndian_RoundTrip(t *testing.T) {
	buf := make([]byte, 8)
	PutUint64BigEndian(buf, 1234567890123)
	assert.Equal(t, uint64(1234567890123), Uint64BigEndian(buf))
}

func TestEncodeDecodeExportJSON_RoundTrip(t *testing.T) {
	session := ids.NewSessionID()
	prompt := samplePrompt(session)
	response := sampleResponse(session, prompt.ID)
	edge := &graph.Edge{
		ID:        ids.NewEdgeID(),
		SessionID: session,
		From:      prompt.ID,
		To:        response.ID,
		Type:      graph.EdgeTypeRespondsTo,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	exp := Export{
		Sessions: []*graph.Session{sampleSession()},
		Nodes:    []NodeExport{ToNodeExport(prompt), ToNodeExport(response)},
		Edges:    []*graph.Edge{edge},
	}

	data, err := EncodeExportJSON(exp)
	require.NoError(t, err)

	decoded, err := DecodeExportJSON(data)
	require.NoError(t, err)
	assert.Equal(t, exp, decoded)
}

func TestEncodeDecodeExportBinary_RoundTrip(t *testing.T) {
	session := ids.NewSessionID()
	prompt := samplePrompt(session)
	response := sampleResponse(session, prompt.ID)
	tool := sampleTool(session, prompt.ID)
	edge := &graph.Edge{
		ID:        ids.NewEdgeID(),
		SessionID: session,
		From:      prompt.ID,
		To:        response.ID,
		Type:      graph.EdgeTypeRespondsTo,
		CreatedAt: time.Now().UTC().Truncate(time.Millisecond),
	}

	exp := Export{
		Sessions: []*graph.Session{sampleSession()},
		Nodes:    []NodeExport{ToNodeExport(prompt), ToNodeExport(response), ToNodeExport(tool)},
		Edges:    []*graph.Edge{edge},
	}

	data, err := EncodeExportBinary(exp)
	require.NoError(t, err)
	assert.Equal(t, []byte(ExportMagic[:8]), data[:8], "binary export must start with the MEMGRAPH magic")

	decoded, err := DecodeExportBinary(data)
	require.NoError(t, err)
	assert.Equal(t, exp, decoded)
}

func TestDecodeExportBinary_RejectsBadMagic(t *testing.T) {
	_, err := DecodeExportBinary([]byte("not a valid export stream at all"))
	require.Error(t, err)
}

func TestDecodeExportBinary_RejectsFutureVersion(t *testing.T) {
	data, err := EncodeExportBinary(Export{})
	require.NoError(t, err)

	// Version is the two bytes immediately following the 16-byte magic.
	corrupted := append([]byte(nil), data...)
	corrupted[16] = 0xFF
	corrupted[17] = 0xFF

	_, err = DecodeExportBinary(corrupted)
	require.Error(t, err)
	var verr *ErrUnknownVersion
	require.ErrorAs(t, err, &verr)
}
