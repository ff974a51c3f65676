package engine

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/cache"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/events"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/telemetry"
)

// AddPrompt appends a new Prompt to session's chain. If the session
// already has a prompt, the new prompt gets a Follows edge from the
// previous chain tail. The chain tail is tracked in a meta pointer so
// appends are O(1) rather than requiring a scan to find it.
func (e *Engine) AddPrompt(ctx context.Context, session ids.SessionID, content string, meta graph.PromptMetadata) (*graph.Prompt, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	ctx, end := telemetry.StartOp(ctx, "add_prompt")
	var err error
	defer func() { end(err) }()

	var out *graph.Prompt
	err = e.locks.withSession(session, func() error {
		sess, err := e.getSession(ctx, session)
		if err != nil {
			return err
		}
		if !sess.Active {
			return errs.InvariantViolation("engine.add_prompt", fmt.Errorf("session %s is archived", session))
		}

		now := time.Now().UTC()
		p := &graph.Prompt{ID: ids.NewNodeID(), SessionID: session, Content: content, Metadata: meta, CreatedAt: now, UpdatedAt: now}

		ops, err := buildNodeOps(p)
		if err != nil {
			return err
		}

		part := partOfEdge(p)
		partOps, err := buildEdgeOps(part)
		if err != nil {
			return err
		}
		ops = append(ops, partOps...)

		tailKey := storage.MetaKey(tailPromptMetaName(session.String()))
		tailBytes, found, err := e.store.Get(ctx, storage.TreeMeta, tailKey)
		if err != nil {
			return err
		}

		var follows *graph.Edge
		if found {
			prevTail, err := ids.NodeIDFromBytes(tailBytes)
			if err != nil {
				return errs.Corruption("engine.add_prompt", err)
			}
			follows = &graph.Edge{
				ID:        ids.NewEdgeID(),
				SessionID: session,
				From:      prevTail,
				To:        p.ID,
				Type:      graph.EdgeTypeFollows,
				CreatedAt: now,
			}
			followsOps, err := buildEdgeOps(follows)
			if err != nil {
				return err
			}
			ops = append(ops, followsOps...)
		}

		ops = append(ops, storage.PutOp(storage.TreeMeta, tailKey, p.ID.Bytes()))

		if err := e.store.Batch(ctx, ops); err != nil {
			return err
		}

		e.cache.Put(cache.NodeKey(p.ID), p)
		e.cache.Bump()
		e.bus.Publish(events.Event{Kind: events.KindNodeCreated, SessionID: session, NodeID: p.ID, NodeType: graph.NodeTypePrompt, At: now})
		e.bus.Publish(events.Event{Kind: events.KindEdgeCreated, SessionID: session, EdgeID: part.ID, EdgeType: graph.EdgeTypePartOf, At: now})
		if follows != nil {
			e.bus.Publish(events.Event{Kind: events.KindEdgeCreated, SessionID: session, EdgeID: follows.ID, EdgeType: graph.EdgeTypeFollows, At: now})
		}
		out = p
		return nil
	})
	return out, err
}

// AddResponse appends a Response to promptID. promptID must name an
// existing Prompt in an active session; usage.Valid() must hold.
func (e *Engine) AddResponse(ctx context.Context, promptID ids.NodeID, content string, usage graph.TokenUsage, meta graph.ResponseMetadata) (*graph.Response, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	ctx, end := telemetry.StartOp(ctx, "add_response")
	var err error
	defer func() { end(err) }()

	if !usage.Valid() {
		err = errs.Validation("engine.add_response", fmt.Errorf("token usage %+v: total != prompt+completion", usage))
		return nil, err
	}

	var prompt graph.Node
	prompt, err = e.GetNode(ctx, promptID)
	if err != nil {
		return nil, err
	}
	p, ok := prompt.(*graph.Prompt)
	if !ok {
		err = errs.InvalidNodeType("engine.add_response", fmt.Errorf("node %s is not a Prompt", promptID))
		return nil, err
	}

	var out *graph.Response
	err = e.locks.withSession(p.SessionID, func() error {
		sess, err := e.getSession(ctx, p.SessionID)
		if err != nil {
			return err
		}
		if !sess.Active {
			return errs.InvariantViolation("engine.add_response", fmt.Errorf("session %s is archived", p.SessionID))
		}

		existing, err := e.store.Scan(ctx, storage.TreeIdxNodeInEdges, storage.IdxNodeInPrefix(promptID, edgeTypePtr(graph.EdgeTypeRespondsTo)), storage.Forward, 1)
		if err != nil {
			return err
		}
		if len(existing) > 0 {
			return errs.InvariantViolation("engine.add_response", fmt.Errorf("prompt %s already has a response", promptID))
		}

		now := time.Now().UTC()
		r := &graph.Response{ID: ids.NewNodeID(), PromptID: promptID, SessionID: p.SessionID, Content: content, TokenUsage: usage, Metadata: meta, CreatedAt: now, UpdatedAt: now}

		ops, err := buildNodeOps(r)
		if err != nil {
			return err
		}

		part := partOfEdge(r)
		partOps, err := buildEdgeOps(part)
		if err != nil {
			return err
		}
		ops = append(ops, partOps...)

		respondsTo := &graph.Edge{ID: ids.NewEdgeID(), SessionID: p.SessionID, From: r.ID, To: promptID, Type: graph.EdgeTypeRespondsTo, CreatedAt: now}
		respondsOps, err := buildEdgeOps(respondsTo)
		if err != nil {
			return err
		}
		ops = append(ops, respondsOps...)
		ops = append(ops, storage.PutOp(storage.TreeIdxPromptResponses, storage.IdxPromptResponsesKey(promptID, now.UnixMilli(), r.ID), []byte{}))

		if err := e.store.Batch(ctx, ops); err != nil {
			return err
		}

		e.cache.Put(cache.NodeKey(r.ID), r)
		e.cache.Bump()
		e.bus.Publish(events.Event{Kind: events.KindNodeCreated, SessionID: p.SessionID, NodeID: r.ID, NodeType: graph.NodeTypeResponse, At: now})
		e.bus.Publish(events.Event{Kind: events.KindEdgeCreated, SessionID: p.SessionID, EdgeID: respondsTo.ID, EdgeType: graph.EdgeTypeRespondsTo, At: now})
		out = r
		return nil
	})
	return out, err
}

// AddToolInvocation appends a ToolInvocation under parentID, which must
// be a Prompt or a Response. The invocation starts Pending.
func (e *Engine) AddToolInvocation(ctx context.Context, parentID ids.NodeID, name string, args map[string]any) (*graph.ToolInvocation, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	ctx, end := telemetry.StartOp(ctx, "add_tool_invocation")
	var err error
	defer func() { end(err) }()

	var parent graph.Node
	parent, err = e.GetNode(ctx, parentID)
	if err != nil {
		return nil, err
	}
	if parent.Kind() != graph.NodeTypePrompt && parent.Kind() != graph.NodeTypeResponse {
		err = errs.InvalidNodeType("engine.add_tool_invocation", fmt.Errorf("node %s is a %s, not a Prompt or Response", parentID, parent.Kind()))
		return nil, err
	}

	var out *graph.ToolInvocation
	err = e.locks.withSession(parent.Session(), func() error {
		sess, err := e.getSession(ctx, parent.Session())
		if err != nil {
			return err
		}
		if !sess.Active {
			return errs.InvariantViolation("engine.add_tool_invocation", fmt.Errorf("session %s is archived", parent.Session()))
		}

		now := time.Now().UTC()
		t := &graph.ToolInvocation{
			ID: ids.NewNodeID(), SessionID: parent.Session(), ParentID: parentID, ParentKind: parent.Kind(),
			Name: name, Arguments: args, Status: graph.ToolStatusPending, CreatedAt: now, UpdatedAt: now,
		}

		ops, err := buildNodeOps(t)
		if err != nil {
			return err
		}

		part := partOfEdge(t)
		partOps, err := buildEdgeOps(part)
		if err != nil {
			return err
		}
		ops = append(ops, partOps...)

		invokes := &graph.Edge{ID: ids.NewEdgeID(), SessionID: parent.Session(), From: parentID, To: t.ID, Type: graph.EdgeTypeInvokes, CreatedAt: now}
		invokesOps, err := buildEdgeOps(invokes)
		if err != nil {
			return err
		}
		ops = append(ops, invokesOps...)

		if err := e.store.Batch(ctx, ops); err != nil {
			return err
		}

		e.cache.Put(cache.NodeKey(t.ID), t)
		e.cache.Bump()
		e.bus.Publish(events.Event{Kind: events.KindNodeCreated, SessionID: parent.Session(), NodeID: t.ID, NodeType: graph.NodeTypeToolInvocation, At: now})
		e.bus.Publish(events.Event{Kind: events.KindEdgeCreated, SessionID: parent.Session(), EdgeID: invokes.ID, EdgeType: graph.EdgeTypeInvokes, At: now})
		out = t
		return nil
	})
	return out, err
}

// UpdateToolStatus transitions a ToolInvocation from Pending to a
// terminal status (Success or Failure). Any other starting status is
// rejected as an invalid transition.
func (e *Engine) UpdateToolStatus(ctx context.Context, toolID ids.NodeID, status graph.ToolStatus, result map[string]any) (*graph.ToolInvocation, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	ctx, end := telemetry.StartOp(ctx, "update_tool_status")
	var err error
	defer func() { end(err) }()

	var node graph.Node
	node, err = e.GetNode(ctx, toolID)
	if err != nil {
		return nil, err
	}
	t, ok := node.(*graph.ToolInvocation)
	if !ok {
		err = errs.InvalidNodeType("engine.update_tool_status", fmt.Errorf("node %s is not a ToolInvocation", toolID))
		return nil, err
	}
	if t.Status != graph.ToolStatusPending {
		err = errs.InvalidTransition("engine.update_tool_status", fmt.Errorf("tool %s is already %s", toolID, t.Status))
		return nil, err
	}
	if !status.IsTerminal() {
		err = errs.InvalidTransition("engine.update_tool_status", fmt.Errorf("%s is not a terminal status", status))
		return nil, err
	}

	updated := *t
	updated.Status = status
	updated.Result = result
	updated.UpdatedAt = time.Now().UTC()

	var data []byte
	data, err = codec.EncodeNode(&updated, nil)
	if err != nil {
		err = errs.IO("engine.update_tool_status", err)
		return nil, err
	}
	if err = e.store.Put(ctx, storage.TreeNodes, storage.NodeKey(toolID), data); err != nil {
		return nil, err
	}

	e.cache.Put(cache.NodeKey(toolID), &updated)
	e.bus.Publish(events.Event{Kind: events.KindToolStatusChanged, SessionID: t.SessionID, NodeID: toolID, ToolStatus: status, At: updated.UpdatedAt})
	return &updated, nil
}

// GetNode fetches any node variant by id.
func (e *Engine) GetNode(ctx context.Context, id ids.NodeID) (graph.Node, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	key := cache.NodeKey(id)
	if v, ok := e.cache.Get(key); ok {
		return v.(graph.Node), nil
	}

	data, found, err := e.store.Get(ctx, storage.TreeNodes, storage.NodeKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFound("engine.get_node", fmt.Errorf("node %s not found", id))
	}
	node, _, err := codec.DecodeNode(data)
	if err != nil {
		return nil, errs.Corruption("engine.get_node", err)
	}
	e.cache.Put(key, node)
	return node, nil
}

// BatchGetNodes fetches multiple nodes concurrently, bounded by the
// engine's worker pool size. Missing ids are simply omitted from the
// result rather than causing the whole call to fail, matching the
// semantics of a partial-hit batch read. Found nodes keep idList's
// relative order; because missing ids leave no hole, result positions
// do not line up with idList positions.
func (e *Engine) BatchGetNodes(ctx context.Context, idList []ids.NodeID) ([]graph.Node, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	slots := make([]graph.Node, len(idList))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.WorkerPoolSize)
	for i, id := range idList {
		i, id := i, id
		g.Go(func() error {
			n, err := e.GetNode(gctx, id)
			if err != nil {
				if errs.Is(err, errs.KindNotFound) {
					return nil
				}
				return err
			}
			slots[i] = n
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	out := make([]graph.Node, 0, len(idList))
	for _, n := range slots {
		if n != nil {
			out = append(out, n)
		}
	}
	return out, nil
}

// GetSessionNodes streams every node belonging to session, ordered by
// creation time, as bounded chunks.
func (e *Engine) GetSessionNodes(ctx context.Context, session ids.SessionID, dir storage.Direction) <-chan NodeChunk {
	out := make(chan NodeChunk)
	go func() {
		defer close(out)
		prefix := storage.IdxSessionNodesPrefix(session)
		for chunk := range e.store.Stream(ctx, storage.TreeIdxSessionNodes, prefix, dir) {
			if chunk.Err != nil {
				select {
				case out <- NodeChunk{Err: chunk.Err}:
				case <-ctx.Done():
				}
				return
			}
			nodes := make([]graph.Node, 0, len(chunk.Pairs))
			for _, pair := range chunk.Pairs {
				id := storage.LastNodeID(pair.Key)
				n, err := e.GetNode(ctx, id)
				if err != nil {
					select {
					case out <- NodeChunk{Err: err}:
					case <-ctx.Done():
					}
					return
				}
				nodes = append(nodes, n)
			}
			select {
			case out <- NodeChunk{Nodes: nodes}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// NodeChunk is one bounded batch of nodes delivered by GetSessionNodes.
type NodeChunk struct {
	Nodes []graph.Node
	Err   error
}

// FindResponses is a direct probe of idx/prompt->responses: every
// Response that answers promptID, ordered by creation time. In the
// current data model this is at most one element (AddResponse and
// AddEdge both enforce the at-most-one-response invariant), but the
// index itself does not assume uniqueness.
func (e *Engine) FindResponses(ctx context.Context, promptID ids.NodeID) ([]*graph.Response, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	pairs, err := e.store.Scan(ctx, storage.TreeIdxPromptResponses, storage.IdxPromptResponsesPrefix(promptID), storage.Forward, 0)
	if err != nil {
		return nil, err
	}
	out := make([]*graph.Response, 0, len(pairs))
	for _, pair := range pairs {
		id := storage.LastNodeID(pair.Key)
		n, err := e.GetNode(ctx, id)
		if err != nil {
			return nil, err
		}
		r, ok := n.(*graph.Response)
		if !ok {
			return nil, errs.Corruption("engine.find_responses", fmt.Errorf("indexed response %s decoded as %s", id, n.Kind()))
		}
		out = append(out, r)
	}
	return out, nil
}
