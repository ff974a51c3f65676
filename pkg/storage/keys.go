package storage

import (
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// Exported wrappers around the key encoders in tree.go, for callers
// outside this package (the engine) that need to address the KV
// substrate directly without duplicating the key layout.

func NodeKey(id ids.NodeID) []byte       { return nodeKey(id) }
func EdgeKey(id ids.EdgeID) []byte       { return edgeKey(id) }
func SessionKey(id ids.SessionID) []byte { return sessionKey(id) }
func MetaKey(name string) []byte         { return metaKey(name) }

func IdxSessionNodesKey(session ids.SessionID, createdAtMillis int64, node ids.NodeID) []byte {
	return idxSessionNodesKey(session, createdAtMillis, node)
}
func IdxSessionNodesPrefix(session ids.SessionID) []byte { return idxSessionNodesPrefix(session) }

func IdxSessionEdgesKey(session ids.SessionID, createdAtMillis int64, edge ids.EdgeID) []byte {
	return idxSessionEdgesKey(session, createdAtMillis, edge)
}
func IdxSessionEdgesPrefix(session ids.SessionID) []byte { return idxSessionEdgesPrefix(session) }

func IdxNodeOutKey(node ids.NodeID, edgeType graph.EdgeType, edge ids.EdgeID) []byte {
	return idxNodeOutKey(node, edgeType, edge)
}
func IdxNodeOutPrefix(node ids.NodeID, edgeType *graph.EdgeType) []byte {
	return idxNodeOutPrefix(node, edgeType)
}

func IdxNodeInKey(node ids.NodeID, edgeType graph.EdgeType, edge ids.EdgeID) []byte {
	return idxNodeInKey(node, edgeType, edge)
}
func IdxNodeInPrefix(node ids.NodeID, edgeType *graph.EdgeType) []byte {
	return idxNodeInPrefix(node, edgeType)
}

func IdxPromptResponsesKey(prompt ids.NodeID, createdAtMillis int64, response ids.NodeID) []byte {
	return idxPromptResponsesKey(prompt, createdAtMillis, response)
}
func IdxPromptResponsesPrefix(prompt ids.NodeID) []byte { return idxPromptResponsesPrefix(prompt) }

func IdxTypeNodesKey(t graph.NodeType, createdAtMillis int64, node ids.NodeID) []byte {
	return idxTypeNodesKey(t, createdAtMillis, node)
}
func IdxTypeNodesPrefix(t graph.NodeType) []byte { return idxTypeNodesPrefix(t) }

func LastNodeID(key []byte) ids.NodeID            { return lastNodeID(key) }
func LastEdgeID(key []byte) ids.EdgeID            { return lastEdgeID(key) }
func EdgeTypeAt(key []byte, offset int) graph.EdgeType { return edgeTypeAt(key, offset) }

// MillisBE big-endian-encodes a Unix millisecond timestamp, exported for
// callers that build index keys outside this package.
func MillisBE(unixMilli int64) [8]byte { return millisBE(unixMilli) }
