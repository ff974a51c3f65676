package cache

import (
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// Typed key helpers keep call sites from hand-formatting cache keys
// inconsistently across the engine.

func NodeKey(id ids.NodeID) string    { return "n:" + id.String() }
func EdgeKey(id ids.EdgeID) string    { return "e:" + id.String() }
func SessionKey(id ids.SessionID) string { return "s:" + id.String() }

func OutEdgesKey(node ids.NodeID, t graph.EdgeType) string {
	return "out:" + node.String() + ":" + t.String()
}

func InEdgesKey(node ids.NodeID, t graph.EdgeType) string {
	return "in:" + node.String() + ":" + t.String()
}
