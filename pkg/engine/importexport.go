package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/cache"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/events"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// ExportSession dumps one session's header, every node it owns, and
// every edge recorded under it, in the shape codec.Export expects for
// the textual or binary interchange format.
func (e *Engine) ExportSession(ctx context.Context, session ids.SessionID) (codec.Export, error) {
	if err := e.checkOpen(); err != nil {
		return codec.Export{}, err
	}
	sess, err := e.getSession(ctx, session)
	if err != nil {
		return codec.Export{}, err
	}

	out := codec.Export{Sessions: []*graph.Session{sess}}

	nodePairs, err := e.store.Scan(ctx, storage.TreeIdxSessionNodes, storage.IdxSessionNodesPrefix(session), storage.Forward, 0)
	if err != nil {
		return codec.Export{}, err
	}
	for _, pair := range nodePairs {
		n, err := e.GetNode(ctx, storage.LastNodeID(pair.Key))
		if err != nil {
			return codec.Export{}, err
		}
		out.Nodes = append(out.Nodes, codec.ToNodeExport(n))
	}

	edgePairs, err := e.store.Scan(ctx, storage.TreeIdxSessionEdges, storage.IdxSessionEdgesPrefix(session), storage.Forward, 0)
	if err != nil {
		return codec.Export{}, err
	}
	for _, pair := range edgePairs {
		edge, err := e.getEdgeByID(ctx, storage.LastEdgeID(pair.Key))
		if err != nil {
			return codec.Export{}, err
		}
		out.Edges = append(out.Edges, edge)
	}
	return out, nil
}

// ExportAll dumps every session in the database into a single
// codec.Export. Sessions are exported concurrently, bounded by the
// engine's worker pool size, and reassembled in scan order.
func (e *Engine) ExportAll(ctx context.Context) (codec.Export, error) {
	if err := e.checkOpen(); err != nil {
		return codec.Export{}, err
	}
	sessionPairs, err := e.store.Scan(ctx, storage.TreeSessions, []byte{byte(storage.TreeSessions)}, storage.Forward, 0)
	if err != nil {
		return codec.Export{}, err
	}

	sessionIDs := make([]ids.SessionID, len(sessionPairs))
	for i, pair := range sessionPairs {
		s, _, err := codec.DecodeSession(pair.Value)
		if err != nil {
			return codec.Export{}, errs.Corruption("engine.export_all", err)
		}
		sessionIDs[i] = s.ID
	}

	parts := make([]codec.Export, len(sessionIDs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.WorkerPoolSize)
	for i, sessionID := range sessionIDs {
		i, sessionID := i, sessionID
		g.Go(func() error {
			partial, err := e.ExportSession(gctx, sessionID)
			if err != nil {
				return err
			}
			parts[i] = partial
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return codec.Export{}, err
	}

	var out codec.Export
	for _, partial := range parts {
		out.Sessions = append(out.Sessions, partial.Sessions...)
		out.Nodes = append(out.Nodes, partial.Nodes...)
		out.Edges = append(out.Edges, partial.Edges...)
	}
	return out, nil
}

// ImportResult reports the outcome of a transactional, session-scoped
// Import: how many sessions were written, and which were skipped.
type ImportResult struct {
	SessionsImported int
	SessionsRejected []ids.SessionID
}

// Import writes exp's records back into the store, one session at a
// time. Each session's header, nodes, and edges batch into a single
// atomic write; a session whose batch cannot be accepted (most commonly
// because its id already exists) is skipped and reported rather than
// aborting the rest of the import.
func (e *Engine) Import(ctx context.Context, exp codec.Export) (ImportResult, error) {
	if err := e.checkOpen(); err != nil {
		return ImportResult{}, err
	}

	nodesBySession := map[ids.SessionID][]graph.Node{}
	for _, ne := range exp.Nodes {
		n, err := ne.Node()
		if err != nil {
			return ImportResult{}, errs.Corruption("engine.import", err)
		}
		nodesBySession[n.Session()] = append(nodesBySession[n.Session()], n)
	}
	edgesBySession := map[ids.SessionID][]*graph.Edge{}
	for _, edge := range exp.Edges {
		edgesBySession[edge.SessionID] = append(edgesBySession[edge.SessionID], edge)
	}

	var result ImportResult
	for _, sess := range exp.Sessions {
		err := e.locks.withSession(sess.ID, func() error {
			return e.importSessionLocked(ctx, sess, nodesBySession[sess.ID], edgesBySession[sess.ID])
		})
		if err != nil {
			result.SessionsRejected = append(result.SessionsRejected, sess.ID)
			continue
		}
		result.SessionsImported++
	}
	return result, nil
}

func (e *Engine) importSessionLocked(ctx context.Context, sess *graph.Session, nodes []graph.Node, edges []*graph.Edge) error {
	_, found, err := e.store.Get(ctx, storage.TreeSessions, storage.SessionKey(sess.ID))
	if err != nil {
		return err
	}
	if found {
		return errs.AlreadyExists("engine.import", fmt.Errorf("session %s already exists", sess.ID))
	}

	data, err := codec.EncodeSession(sess, nil)
	if err != nil {
		return errs.IO("engine.import", err)
	}
	ops := []storage.Op{storage.PutOp(storage.TreeSessions, storage.SessionKey(sess.ID), data)}

	for _, n := range nodes {
		nodeOps, err := buildNodeOps(n)
		if err != nil {
			return err
		}
		ops = append(ops, nodeOps...)
	}
	for _, edge := range edges {
		edgeOps, err := buildEdgeOps(edge)
		if err != nil {
			return err
		}
		ops = append(ops, edgeOps...)
	}

	if tail := chainTail(nodes, edges); tail != nil {
		ops = append(ops, storage.PutOp(storage.TreeMeta, storage.MetaKey(tailPromptMetaName(sess.ID.String())), tail.Bytes()))
	}

	if err := e.store.Batch(ctx, ops); err != nil {
		return err
	}

	e.cache.Put(cache.SessionKey(sess.ID), sess)
	for _, n := range nodes {
		e.cache.Put(cache.NodeKey(n.NodeID()), n)
	}
	e.cache.Bump()
	e.bus.Publish(events.Event{Kind: events.KindSessionCreated, SessionID: sess.ID, At: sess.CreatedAt})
	return nil
}

// chainTail finds the Prompt among nodes that has no outgoing Follows
// edge in edges, i.e. the current end of the imported Follows chain, so
// AddPrompt can keep appending to it in O(1) after import. Returns nil
// if the session has no prompts.
func chainTail(nodes []graph.Node, edges []*graph.Edge) *ids.NodeID {
	hasOutgoingFollows := map[ids.NodeID]bool{}
	for _, edge := range edges {
		if edge.Type == graph.EdgeTypeFollows {
			hasOutgoingFollows[edge.From] = true
		}
	}
	for _, n := range nodes {
		if n.Kind() != graph.NodeTypePrompt {
			continue
		}
		if !hasOutgoingFollows[n.NodeID()] {
			id := n.NodeID()
			return &id
		}
	}
	return nil
}
