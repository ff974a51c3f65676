package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/events"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// AddEdge creates a typed edge between two existing nodes, enforcing the
// per-type invariants below. Prefer AddPrompt/AddResponse/
// AddToolInvocation for Follows/RespondsTo/PartOf/Invokes, which build
// those edges as part of the node's creation; AddEdge is for the
// remaining edge types (Instantiates, AssignedTo, Custom) and for
// callers that already hold both endpoints.
//
// Invariants enforced:
//   - Follows: From and To must belong to the same session, and adding
//     the edge must not create a cycle in the Follows chain.
//   - RespondsTo: To must be a Prompt; a Prompt accepts at most one
//     RespondsTo edge pointing at it (the reverse check duplicates the
//     uniqueness AddResponse already gives to its own call, for callers
//     that build a RespondsTo edge directly).
//   - PartOf: To must be an existing session; a node accepts at most one
//     PartOf edge.
//   - Instantiates: From must be a Prompt, To must be a Template.
//   - AssignedTo: From must be a Prompt, To must be an Agent.
func (e *Engine) AddEdge(ctx context.Context, edgeType graph.EdgeType, from, to ids.NodeID, label string, properties map[string]string) (*graph.Edge, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}

	fromNode, err := e.GetNode(ctx, from)
	if err != nil {
		return nil, err
	}

	session := fromNode.Session()
	var out *graph.Edge
	err = e.locks.withSession(session, func() error {
		toNode, err := e.resolveEdgeTarget(ctx, edgeType, session, to)
		if err != nil {
			return err
		}

		if err := e.checkEdgeInvariants(ctx, edgeType, fromNode, toNode, from, to); err != nil {
			return err
		}

		now := time.Now().UTC()
		edge := &graph.Edge{
			ID: ids.NewEdgeID(), SessionID: session, From: from, To: to,
			Type: edgeType, Label: label, Properties: properties, CreatedAt: now,
		}
		ops, err := buildEdgeOps(edge)
		if err != nil {
			return err
		}
		if err := e.store.Batch(ctx, ops); err != nil {
			return err
		}
		e.cache.Bump()
		e.bus.Publish(events.Event{Kind: events.KindEdgeCreated, SessionID: session, EdgeID: edge.ID, EdgeType: edgeType, At: now})
		out = edge
		return nil
	})
	return out, err
}

// resolveEdgeTarget fetches the To node unless edgeType is PartOf, whose
// To side names a session rather than a node.
func (e *Engine) resolveEdgeTarget(ctx context.Context, edgeType graph.EdgeType, session ids.SessionID, to ids.NodeID) (graph.Node, error) {
	if edgeType == graph.EdgeTypePartOf {
		if _, err := e.getSession(ctx, ids.SessionID(to)); err != nil {
			return nil, err
		}
		return nil, nil
	}
	return e.GetNode(ctx, to)
}

func (e *Engine) checkEdgeInvariants(ctx context.Context, edgeType graph.EdgeType, fromNode, toNode graph.Node, from, to ids.NodeID) error {
	switch edgeType {
	case graph.EdgeTypeFollows:
		if fromNode.Session() != toNode.Session() {
			return errs.InvariantViolation("engine.add_edge", fmt.Errorf("follows edge %s -> %s crosses sessions", from, to))
		}
		if from == to {
			return errs.InvariantViolation("engine.add_edge", fmt.Errorf("follows edge %s -> %s is a self-loop", from, to))
		}
		reachable, err := e.followsReaches(ctx, to, from)
		if err != nil {
			return err
		}
		if reachable {
			return errs.InvariantViolation("engine.add_edge", fmt.Errorf("follows edge %s -> %s would create a cycle", from, to))
		}
	case graph.EdgeTypeRespondsTo:
		if toNode.Kind() != graph.NodeTypePrompt {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("respondsto target %s is a %s, not a Prompt", to, toNode.Kind()))
		}
		existing, err := e.store.Scan(ctx, storage.TreeIdxNodeInEdges, storage.IdxNodeInPrefix(to, edgeTypePtr(graph.EdgeTypeRespondsTo)), storage.Forward, 1)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errs.InvariantViolation("engine.add_edge", fmt.Errorf("prompt %s already has a response", to))
		}
	case graph.EdgeTypePartOf:
		existing, err := e.store.Scan(ctx, storage.TreeIdxNodeOutEdges, storage.IdxNodeOutPrefix(from, edgeTypePtr(graph.EdgeTypePartOf)), storage.Forward, 1)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errs.InvariantViolation("engine.add_edge", fmt.Errorf("node %s already has a PartOf edge", from))
		}
	case graph.EdgeTypeInstantiates:
		if fromNode.Kind() != graph.NodeTypePrompt {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("instantiates source %s is a %s, not a Prompt", from, fromNode.Kind()))
		}
		if toNode.Kind() != graph.NodeTypeTemplate {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("instantiates target %s is a %s, not a Template", to, toNode.Kind()))
		}
	case graph.EdgeTypeAssignedTo:
		if fromNode.Kind() != graph.NodeTypePrompt {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("assignedto source %s is a %s, not a Prompt", from, fromNode.Kind()))
		}
		if toNode.Kind() != graph.NodeTypeAgent {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("assignedto target %s is a %s, not an Agent", to, toNode.Kind()))
		}
	case graph.EdgeTypeInvokes:
		if fromNode.Kind() != graph.NodeTypePrompt && fromNode.Kind() != graph.NodeTypeResponse {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("invokes source %s is a %s, not a Prompt or Response", from, fromNode.Kind()))
		}
		if toNode.Kind() != graph.NodeTypeToolInvocation {
			return errs.InvalidNodeType("engine.add_edge", fmt.Errorf("invokes target %s is a %s, not a ToolInvocation", to, toNode.Kind()))
		}
	case graph.EdgeTypeCustom:
		// no endpoint-kind restriction
	default:
		return errs.Validation("engine.add_edge", fmt.Errorf("unknown edge type %d", edgeType))
	}
	return nil
}

// followsReaches walks the Follows chain forward from start and reports
// whether target is reachable, bounded by MaxTraversalVisited so a
// pathological chain can't hang the caller.
func (e *Engine) followsReaches(ctx context.Context, start, target ids.NodeID) (bool, error) {
	visited := 0
	cur := start
	for {
		if cur == target {
			return true, nil
		}
		visited++
		if visited > e.cfg.MaxTraversalVisited {
			return false, errs.TraversalTruncated("engine.follows_reaches", fmt.Errorf("exceeded %d visited nodes", e.cfg.MaxTraversalVisited))
		}
		next, err := e.store.Scan(ctx, storage.TreeIdxNodeOutEdges, storage.IdxNodeOutPrefix(cur, edgeTypePtr(graph.EdgeTypeFollows)), storage.Forward, 1)
		if err != nil {
			return false, err
		}
		if len(next) == 0 {
			return false, nil
		}
		edge, err := e.getEdgeByID(ctx, storage.LastEdgeID(next[0].Key))
		if err != nil {
			return false, err
		}
		cur = edge.To
	}
}

func (e *Engine) getEdgeByID(ctx context.Context, id ids.EdgeID) (*graph.Edge, error) {
	data, found, err := e.store.Get(ctx, storage.TreeEdges, storage.EdgeKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFound("engine.get_edge", fmt.Errorf("edge %s not found", id))
	}
	edge, _, err := codec.DecodeEdge(data)
	if err != nil {
		return nil, errs.Corruption("engine.get_edge", err)
	}
	return edge, nil
}

func edgeTypePtr(t graph.EdgeType) *graph.EdgeType { return &t }

// GetOutgoingEdges lists edges starting at node, optionally filtered to
// one edgeType.
func (e *Engine) GetOutgoingEdges(ctx context.Context, node ids.NodeID, edgeType *graph.EdgeType) ([]*graph.Edge, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	pairs, err := e.store.Scan(ctx, storage.TreeIdxNodeOutEdges, storage.IdxNodeOutPrefix(node, edgeType), storage.Forward, 0)
	if err != nil {
		return nil, err
	}
	return e.resolveEdges(ctx, pairs)
}

// GetIncomingEdges lists edges ending at node, optionally filtered to one
// edgeType.
func (e *Engine) GetIncomingEdges(ctx context.Context, node ids.NodeID, edgeType *graph.EdgeType) ([]*graph.Edge, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	pairs, err := e.store.Scan(ctx, storage.TreeIdxNodeInEdges, storage.IdxNodeInPrefix(node, edgeType), storage.Forward, 0)
	if err != nil {
		return nil, err
	}
	return e.resolveEdges(ctx, pairs)
}

func (e *Engine) resolveEdges(ctx context.Context, pairs []storage.Pair) ([]*graph.Edge, error) {
	out := make([]*graph.Edge, 0, len(pairs))
	for _, pair := range pairs {
		edge, err := e.getEdgeByID(ctx, storage.LastEdgeID(pair.Key))
		if err != nil {
			return nil, err
		}
		out = append(out, edge)
	}
	return out, nil
}
