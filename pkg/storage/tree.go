// Package storage implements the durable, ordered key-value substrate:
// a set of logical "trees" (nodes, edges, sessions, secondary indexes)
// multiplexed as single-byte key prefixes over one BadgerDB instance,
// plus the batch/scan/flush primitives and the async worker-pool façade
// in front of them.
package storage

import (
	"encoding/binary"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// Tree identifies one of the logical partitions of the key space.
type Tree byte

const (
	TreeNodes Tree = iota + 1
	TreeEdges
	TreeSessions
	TreeIdxSessionNodes
	TreeIdxSessionEdges
	TreeIdxNodeOutEdges
	TreeIdxNodeInEdges
	TreeIdxPromptResponses
	TreeIdxTypeNodes
	TreeMeta
)

func (t Tree) String() string {
	switch t {
	case TreeNodes:
		return "nodes"
	case TreeEdges:
		return "edges"
	case TreeSessions:
		return "sessions"
	case TreeIdxSessionNodes:
		return "idx/session->nodes"
	case TreeIdxSessionEdges:
		return "idx/session->edges"
	case TreeIdxNodeOutEdges:
		return "idx/node->out-edges"
	case TreeIdxNodeInEdges:
		return "idx/node->in-edges"
	case TreeIdxPromptResponses:
		return "idx/prompt->responses"
	case TreeIdxTypeNodes:
		return "idx/type->nodes"
	case TreeMeta:
		return "meta"
	default:
		return "unknown"
	}
}

// AllTrees enumerates every logical tree, used by Stats().
var AllTrees = []Tree{
	TreeNodes, TreeEdges, TreeSessions,
	TreeIdxSessionNodes, TreeIdxSessionEdges,
	TreeIdxNodeOutEdges, TreeIdxNodeInEdges,
	TreeIdxPromptResponses, TreeIdxTypeNodes,
	TreeMeta,
}

// millisBE writes t as 8 big-endian bytes so byte-lexicographic order
// matches chronological order.
func millisBE(unixMilli int64) [8]byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(unixMilli))
	return b
}

func appendMillis(buf []byte, unixMilli int64) []byte {
	b := millisBE(unixMilli)
	return append(buf, b[:]...)
}

// --- Primary key encoders -------------------------------------------------

func nodeKey(id ids.NodeID) []byte {
	key := make([]byte, 0, 17)
	key = append(key, byte(TreeNodes))
	return append(key, id.Bytes()...)
}

func edgeKey(id ids.EdgeID) []byte {
	key := make([]byte, 0, 17)
	key = append(key, byte(TreeEdges))
	return append(key, id.Bytes()...)
}

func sessionKey(id ids.SessionID) []byte {
	key := make([]byte, 0, 17)
	key = append(key, byte(TreeSessions))
	return append(key, id.Bytes()...)
}

func metaKey(name string) []byte {
	key := make([]byte, 0, 1+len(name))
	key = append(key, byte(TreeMeta))
	return append(key, []byte(name)...)
}

// --- Secondary index key encoders -----------------------------------------

// idxSessionNodesKey: SessionID(16) ++ createdAtMillis(8) ++ NodeID(16).
func idxSessionNodesKey(session ids.SessionID, createdAtMillis int64, node ids.NodeID) []byte {
	key := make([]byte, 0, 1+16+8+16)
	key = append(key, byte(TreeIdxSessionNodes))
	key = append(key, session.Bytes()...)
	key = appendMillis(key, createdAtMillis)
	return append(key, node.Bytes()...)
}

func idxSessionNodesPrefix(session ids.SessionID) []byte {
	key := make([]byte, 0, 1+16)
	key = append(key, byte(TreeIdxSessionNodes))
	return append(key, session.Bytes()...)
}

// idxSessionEdgesKey: SessionID(16) ++ createdAtMillis(8) ++ EdgeID(16).
func idxSessionEdgesKey(session ids.SessionID, createdAtMillis int64, edge ids.EdgeID) []byte {
	key := make([]byte, 0, 1+16+8+16)
	key = append(key, byte(TreeIdxSessionEdges))
	key = append(key, session.Bytes()...)
	key = appendMillis(key, createdAtMillis)
	return append(key, edge.Bytes()...)
}

func idxSessionEdgesPrefix(session ids.SessionID) []byte {
	key := make([]byte, 0, 1+16)
	key = append(key, byte(TreeIdxSessionEdges))
	return append(key, session.Bytes()...)
}

// idxNodeOutKey: NodeID(16) ++ EdgeType(1) ++ EdgeID(16).
func idxNodeOutKey(node ids.NodeID, edgeType graph.EdgeType, edge ids.EdgeID) []byte {
	key := make([]byte, 0, 1+16+1+16)
	key = append(key, byte(TreeIdxNodeOutEdges))
	key = append(key, node.Bytes()...)
	key = append(key, byte(edgeType))
	return append(key, edge.Bytes()...)
}

func idxNodeOutPrefix(node ids.NodeID, edgeType *graph.EdgeType) []byte {
	key := make([]byte, 0, 1+16+1)
	key = append(key, byte(TreeIdxNodeOutEdges))
	key = append(key, node.Bytes()...)
	if edgeType != nil {
		key = append(key, byte(*edgeType))
	}
	return key
}

// idxNodeInKey: NodeID(16) ++ EdgeType(1) ++ EdgeID(16).
func idxNodeInKey(node ids.NodeID, edgeType graph.EdgeType, edge ids.EdgeID) []byte {
	key := make([]byte, 0, 1+16+1+16)
	key = append(key, byte(TreeIdxNodeInEdges))
	key = append(key, node.Bytes()...)
	key = append(key, byte(edgeType))
	return append(key, edge.Bytes()...)
}

func idxNodeInPrefix(node ids.NodeID, edgeType *graph.EdgeType) []byte {
	key := make([]byte, 0, 1+16+1)
	key = append(key, byte(TreeIdxNodeInEdges))
	key = append(key, node.Bytes()...)
	if edgeType != nil {
		key = append(key, byte(*edgeType))
	}
	return key
}

// idxPromptResponsesKey: PromptID(16) ++ createdAtMillis(8) ++ NodeID(16).
func idxPromptResponsesKey(prompt ids.NodeID, createdAtMillis int64, response ids.NodeID) []byte {
	key := make([]byte, 0, 1+16+8+16)
	key = append(key, byte(TreeIdxPromptResponses))
	key = append(key, prompt.Bytes()...)
	key = appendMillis(key, createdAtMillis)
	return append(key, response.Bytes()...)
}

func idxPromptResponsesPrefix(prompt ids.NodeID) []byte {
	key := make([]byte, 0, 1+16)
	key = append(key, byte(TreeIdxPromptResponses))
	return append(key, prompt.Bytes()...)
}

// idxTypeNodesKey: NodeType(1) ++ createdAtMillis(8) ++ NodeID(16).
func idxTypeNodesKey(t graph.NodeType, createdAtMillis int64, node ids.NodeID) []byte {
	key := make([]byte, 0, 1+1+8+16)
	key = append(key, byte(TreeIdxTypeNodes))
	key = append(key, byte(t))
	key = appendMillis(key, createdAtMillis)
	return append(key, node.Bytes()...)
}

func idxTypeNodesPrefix(t graph.NodeType) []byte {
	key := make([]byte, 0, 1+1)
	key = append(key, byte(TreeIdxTypeNodes))
	return append(key, byte(t))
}

// --- Key decoders (extracting the trailing ID from an index key) ---------

func lastNodeID(key []byte) ids.NodeID {
	n, _ := ids.NodeIDFromBytes(key[len(key)-16:])
	return n
}

func lastEdgeID(key []byte) ids.EdgeID {
	e, _ := ids.EdgeIDFromBytes(key[len(key)-16:])
	return e
}

func edgeTypeAt(key []byte, offset int) graph.EdgeType {
	return graph.EdgeType(key[offset])
}
