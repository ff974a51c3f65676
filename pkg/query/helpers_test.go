package query

import (
	"context"
	"testing"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/config"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/engine"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/stretchr/testify/require"
)

func openTestEngine(t *testing.T) *engine.Engine {
	t.Helper()
	e, err := engine.Open(config.Config{Path: t.TempDir(), FlushIntervalMS: -1})
	require.NoError(t, err)
	t.Cleanup(func() { _ = e.Close() })
	return e
}

func newSessionForTest(t *testing.T, e *engine.Engine) ids.SessionID {
	t.Helper()
	s, err := e.CreateSession(context.Background(), ids.ZeroSessionID, nil)
	require.NoError(t, err)
	return s.ID
}

func addPromptForTest(t *testing.T, e *engine.Engine, session ids.SessionID, content string) *graph.Prompt {
	t.Helper()
	p, err := e.AddPrompt(context.Background(), session, content, graph.PromptMetadata{})
	require.NoError(t, err)
	return p
}
