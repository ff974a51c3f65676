package engine

import (
	"context"
	"fmt"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/cache"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/events"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// DeleteNode removes a single node, refusing if it still has any
// incident edge (incoming or outgoing). This is a deliberate strictness:
// callers that want to remove a node along with its edges must delete
// the edges first, or use DeleteSessionCascade to tear down a whole
// session at once.
func (e *Engine) DeleteNode(ctx context.Context, id ids.NodeID) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	node, err := e.GetNode(ctx, id)
	if err != nil {
		return err
	}

	return e.locks.withSession(node.Session(), func() error {
		out, err := e.store.Scan(ctx, storage.TreeIdxNodeOutEdges, storage.IdxNodeOutPrefix(id, nil), storage.Forward, 1)
		if err != nil {
			return err
		}
		if len(out) > 0 {
			return errs.InvariantViolation("engine.delete_node", fmt.Errorf("node %s still has outgoing edges", id))
		}
		in, err := e.store.Scan(ctx, storage.TreeIdxNodeInEdges, storage.IdxNodeInPrefix(id, nil), storage.Forward, 1)
		if err != nil {
			return err
		}
		if len(in) > 0 {
			return errs.InvariantViolation("engine.delete_node", fmt.Errorf("node %s still has incoming edges", id))
		}

		millis := node.Created().UnixMilli()
		ops := []storage.Op{
			storage.DeleteOp(storage.TreeNodes, storage.NodeKey(id)),
			storage.DeleteOp(storage.TreeIdxSessionNodes, storage.IdxSessionNodesKey(node.Session(), millis, id)),
			storage.DeleteOp(storage.TreeIdxTypeNodes, storage.IdxTypeNodesKey(node.Kind(), millis, id)),
		}
		if err := e.store.Batch(ctx, ops); err != nil {
			return err
		}

		e.cache.Remove(cache.NodeKey(id))
		e.cache.Bump()
		e.bus.Publish(events.Event{Kind: events.KindNodeDeleted, SessionID: node.Session(), NodeID: id, NodeType: node.Kind(), At: node.Created()})
		return nil
	})
}

// DeleteSessionCascade tears down an entire session: every node, every
// edge, every secondary index entry referencing it, and the session
// record itself. Generalizes the prefix-scan-then-delete idiom from
// single-node scope to the whole session.
func (e *Engine) DeleteSessionCascade(ctx context.Context, session ids.SessionID) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.locks.withSession(session, func() error {
		if _, err := e.getSession(ctx, session); err != nil {
			return err
		}

		nodePairs, err := e.store.Scan(ctx, storage.TreeIdxSessionNodes, storage.IdxSessionNodesPrefix(session), storage.Forward, 0)
		if err != nil {
			return err
		}
		edgePairs, err := e.store.Scan(ctx, storage.TreeIdxSessionEdges, storage.IdxSessionEdgesPrefix(session), storage.Forward, 0)
		if err != nil {
			return err
		}

		var ops []storage.Op
		for _, pair := range nodePairs {
			nodeID := storage.LastNodeID(pair.Key)
			node, err := e.GetNode(ctx, nodeID)
			if err != nil {
				return err
			}
			millis := node.Created().UnixMilli()
			ops = append(ops,
				storage.DeleteOp(storage.TreeNodes, storage.NodeKey(nodeID)),
				storage.DeleteOp(storage.TreeIdxSessionNodes, storage.IdxSessionNodesKey(session, millis, nodeID)),
				storage.DeleteOp(storage.TreeIdxTypeNodes, storage.IdxTypeNodesKey(node.Kind(), millis, nodeID)),
			)
			e.cache.Remove(cache.NodeKey(nodeID))
		}

		for _, pair := range edgePairs {
			edgeID := storage.LastEdgeID(pair.Key)
			edge, err := e.getEdgeByID(ctx, edgeID)
			if err != nil {
				return err
			}
			millis := edge.CreatedAt.UnixMilli()
			ops = append(ops,
				storage.DeleteOp(storage.TreeEdges, storage.EdgeKey(edgeID)),
				storage.DeleteOp(storage.TreeIdxSessionEdges, storage.IdxSessionEdgesKey(session, millis, edgeID)),
				storage.DeleteOp(storage.TreeIdxNodeOutEdges, storage.IdxNodeOutKey(edge.From, edge.Type, edgeID)),
				storage.DeleteOp(storage.TreeIdxNodeInEdges, storage.IdxNodeInKey(edge.To, edge.Type, edgeID)),
			)
			if edge.Type == graph.EdgeTypeRespondsTo {
				// RespondsTo's reverse lookup (prompt -> responses) has its
				// own index, keyed by the prompt (the edge's To side).
				ops = append(ops, storage.DeleteOp(storage.TreeIdxPromptResponses, storage.IdxPromptResponsesKey(edge.To, millis, edge.From)))
			}
		}

		ops = append(ops, storage.DeleteOp(storage.TreeSessions, storage.SessionKey(session)))
		ops = append(ops, storage.DeleteOp(storage.TreeMeta, storage.MetaKey(tailPromptMetaName(session.String()))))

		if err := e.store.Batch(ctx, ops); err != nil {
			return err
		}

		e.cache.Remove(cache.SessionKey(session))
		e.cache.Bump()
		return nil
	})
}
