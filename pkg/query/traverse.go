package query

import (
	"context"
	"fmt"
	"sort"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/engine"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/telemetry"
)

func edgeTypePtr(t graph.EdgeType) *graph.EdgeType { return &t }

// BFS walks outgoing edges of every type breadth-first from start and
// returns visited node ids in discovery order. Bounded by the engine's
// MaxTraversalVisited; exceeding it returns the partial order collected
// so far alongside a TraversalTruncated error.
func BFS(ctx context.Context, eng *engine.Engine, start ids.NodeID) ([]ids.NodeID, error) {
	max := eng.MaxTraversalVisited()
	visited := map[ids.NodeID]bool{start: true}
	order := []ids.NodeID{start}
	queue := []ids.NodeID{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		edges, err := eng.GetOutgoingEdges(ctx, cur, nil)
		if err != nil {
			telemetry.RecordTraversal(ctx, "bfs", len(order))
			return order, err
		}
		for _, edge := range edges {
			if visited[edge.To] {
				continue
			}
			if len(order) >= max {
				telemetry.RecordTraversal(ctx, "bfs", len(order))
				return order, errs.TraversalTruncated("query.bfs", fmt.Errorf("exceeded %d visited nodes", max))
			}
			visited[edge.To] = true
			order = append(order, edge.To)
			queue = append(queue, edge.To)
		}
	}
	telemetry.RecordTraversal(ctx, "bfs", len(order))
	return order, nil
}

// DFS walks outgoing edges depth-first using an explicit stack (no
// recursion) and returns visited node ids in preorder. Bounded the same
// way as BFS.
func DFS(ctx context.Context, eng *engine.Engine, start ids.NodeID) ([]ids.NodeID, error) {
	max := eng.MaxTraversalVisited()
	visited := map[ids.NodeID]bool{}
	var order []ids.NodeID
	stack := []ids.NodeID{start}

	for len(stack) > 0 {
		cur := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if visited[cur] {
			continue
		}
		if len(order) >= max {
			telemetry.RecordTraversal(ctx, "dfs", len(order))
			return order, errs.TraversalTruncated("query.dfs", fmt.Errorf("exceeded %d visited nodes", max))
		}
		visited[cur] = true
		order = append(order, cur)

		edges, err := eng.GetOutgoingEdges(ctx, cur, nil)
		if err != nil {
			telemetry.RecordTraversal(ctx, "dfs", len(order))
			return order, err
		}
		for i := len(edges) - 1; i >= 0; i-- {
			if !visited[edges[i].To] {
				stack = append(stack, edges[i].To)
			}
		}
	}
	telemetry.RecordTraversal(ctx, "dfs", len(order))
	return order, nil
}

// ConversationThread finds the root Prompt of node's Follows chain and
// returns the full chain of Prompts interleaved with their Responses,
// ordered by creation time. node may itself be a Prompt or a Response.
func ConversationThread(ctx context.Context, eng *engine.Engine, node ids.NodeID) ([]graph.Node, error) {
	start, err := eng.GetNode(ctx, node)
	if err != nil {
		return nil, err
	}
	var promptID ids.NodeID
	switch n := start.(type) {
	case *graph.Prompt:
		promptID = n.ID
	case *graph.Response:
		promptID = n.PromptID
	default:
		return nil, errs.InvalidNodeType("query.conversation_thread", fmt.Errorf("node %s is a %s, not a Prompt or Response", node, start.Kind()))
	}

	max := eng.MaxTraversalVisited()

	cur := promptID
	for visited := 0; ; visited++ {
		if visited >= max {
			return nil, errs.TraversalTruncated("query.conversation_thread", fmt.Errorf("exceeded %d visited nodes walking to root", max))
		}
		incoming, err := eng.GetIncomingEdges(ctx, cur, edgeTypePtr(graph.EdgeTypeFollows))
		if err != nil {
			return nil, err
		}
		if len(incoming) == 0 {
			break
		}
		cur = incoming[0].From
	}
	root := cur

	var out []graph.Node
	for visited := 0; ; visited++ {
		if visited >= max {
			return out, errs.TraversalTruncated("query.conversation_thread", fmt.Errorf("exceeded %d visited nodes walking the chain", max))
		}
		n, err := eng.GetNode(ctx, cur)
		if err != nil {
			return nil, err
		}
		out = append(out, n)

		responses, err := eng.GetIncomingEdges(ctx, cur, edgeTypePtr(graph.EdgeTypeRespondsTo))
		if err != nil {
			return nil, err
		}
		if len(responses) > 0 {
			resp, err := eng.GetNode(ctx, responses[0].From)
			if err != nil {
				return nil, err
			}
			out = append(out, resp)
		}

		next, err := eng.GetOutgoingEdges(ctx, cur, edgeTypePtr(graph.EdgeTypeFollows))
		if err != nil {
			return nil, err
		}
		if len(next) == 0 {
			break
		}
		cur = next[0].To
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].Created().Before(out[j].Created()) })
	telemetry.RecordTraversal(ctx, "conversation_thread", len(out))
	return out, nil
}

// FindResponses is a thin pass-through to the engine's direct
// idx/prompt->responses probe, kept here so callers doing query/
// traversal work via this package don't need to reach back into
// pkg/engine for the one operation the builder's closed option set
// doesn't cover.
func FindResponses(ctx context.Context, eng *engine.Engine, prompt ids.NodeID) ([]*graph.Response, error) {
	return eng.FindResponses(ctx, prompt)
}
