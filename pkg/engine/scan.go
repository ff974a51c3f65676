package engine

import (
	"context"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/cache"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// GetNodesByType streams every node of kind t, across all sessions,
// ordered by creation time, as bounded chunks. Used by the query
// builder when a type filter is set without a session filter.
func (e *Engine) GetNodesByType(ctx context.Context, t graph.NodeType, dir storage.Direction) <-chan NodeChunk {
	return e.streamIndex(ctx, storage.TreeIdxTypeNodes, storage.IdxTypeNodesPrefix(t), dir)
}

// ScanAllNodes streams every node in the database regardless of session
// or type, in primary-key (id) order rather than creation order. This is
// the query builder's fallback driving scan when neither a session nor a
// node type filter narrows the search to a secondary index.
func (e *Engine) ScanAllNodes(ctx context.Context, dir storage.Direction) <-chan NodeChunk {
	out := make(chan NodeChunk)
	go func() {
		defer close(out)
		prefix := []byte{byte(storage.TreeNodes)}
		for chunk := range e.store.Stream(ctx, storage.TreeNodes, prefix, dir) {
			if chunk.Err != nil {
				select {
				case out <- NodeChunk{Err: chunk.Err}:
				case <-ctx.Done():
				}
				return
			}
			nodes, err := e.decodeNodeChunk(chunk.Pairs)
			if err != nil {
				select {
				case out <- NodeChunk{Err: err}:
				case <-ctx.Done():
				}
				return
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

// streamIndex drives GetSessionNodes-shaped chunk streaming off of any
// secondary index tree whose keys end in a trailing NodeID, resolving
// each indexed id through GetNode (and so through the cache).
func (e *Engine) streamIndex(ctx context.Context, tree storage.Tree, prefix []byte, dir storage.Direction) <-chan NodeChunk {
	out := make(chan NodeChunk)
	go func() {
		defer close(out)
		for chunk := range e.store.Stream(ctx, tree, prefix, dir) {
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

// decodeNodeChunk decodes a chunk of primary TreeNodes pairs directly:
// the pairs already carry the encoded record, so there is no indirect id
// lookup to route through the cache, only a cache fill for later reads.
func (e *Engine) decodeNodeChunk(pairs []storage.Pair) ([]graph.Node, error) {
	nodes := make([]graph.Node, 0, len(pairs))
	for _, pair := range pairs {
		n, _, err := codec.DecodeNode(pair.Value)
		if err != nil {
			return nil, errs.Corruption("engine.scan_all_nodes", err)
		}
		e.cache.Put(cache.NodeKey(n.NodeID()), n)
		nodes = append(nodes, n)
	}
	return nodes, nil
}
