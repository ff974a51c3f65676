package engine

import (
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// buildNodeOps encodes node and returns the ops that store it: the node
// record itself, its session->nodes index entry, and its type->nodes
// index entry.
func buildNodeOps(node graph.Node) ([]storage.Op, error) {
	data, err := codec.EncodeNode(node, nil)
	if err != nil {
		return nil, errs.IO("engine.encode_node", err)
	}
	millis := node.Created().UnixMilli()
	return []storage.Op{
		storage.PutOp(storage.TreeNodes, storage.NodeKey(node.NodeID()), data),
		storage.PutOp(storage.TreeIdxSessionNodes, storage.IdxSessionNodesKey(node.Session(), millis, node.NodeID()), []byte{}),
		storage.PutOp(storage.TreeIdxTypeNodes, storage.IdxTypeNodesKey(node.Kind(), millis, node.NodeID()), []byte{}),
	}, nil
}

// buildEdgeOps encodes edge and returns the ops that store it: the edge
// record, its session->edges index entry, its from-node out-edges index
// entry, and its to-node in-edges index entry.
func buildEdgeOps(edge *graph.Edge) ([]storage.Op, error) {
	data, err := codec.EncodeEdge(edge, nil)
	if err != nil {
		return nil, errs.IO("engine.encode_edge", err)
	}
	millis := edge.CreatedAt.UnixMilli()
	return []storage.Op{
		storage.PutOp(storage.TreeEdges, storage.EdgeKey(edge.ID), data),
		storage.PutOp(storage.TreeIdxSessionEdges, storage.IdxSessionEdgesKey(edge.SessionID, millis, edge.ID), []byte{}),
		storage.PutOp(storage.TreeIdxNodeOutEdges, storage.IdxNodeOutKey(edge.From, edge.Type, edge.ID), []byte{}),
		storage.PutOp(storage.TreeIdxNodeInEdges, storage.IdxNodeInKey(edge.To, edge.Type, edge.ID), []byte{}),
	}, nil
}

// partOfEdge builds the PartOf edge every node carries from creation:
// node -> its owning session.
func partOfEdge(node graph.Node) *graph.Edge {
	return &graph.Edge{
		ID:        ids.NewEdgeID(),
		SessionID: node.Session(),
		From:      node.NodeID(),
		To:        ids.SessionAsNode(node.Session()),
		Type:      graph.EdgeTypePartOf,
		CreatedAt: node.Created(),
	}
}
