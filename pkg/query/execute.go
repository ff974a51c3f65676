package query

import (
	"context"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/engine"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// Result is one item (or terminal error) delivered by Stream.
type Result struct {
	Node graph.Node
	Err  error
}

// Stream drives the planned index scan and yields every node passing
// this Builder's filters, pull-based: the producer blocks on send until
// the caller receives. Cancelling ctx (including via Execute's internal
// cancellation once Limit is satisfied) stops the producer.
func (b *Builder) Stream(ctx context.Context) <-chan Result {
	out := make(chan Result)
	go func() {
		defer close(out)
		var chunks <-chan engine.NodeChunk
		switch b.plan() {
		case driveSessionType, driveSession:
			chunks = b.eng.GetSessionNodes(ctx, *b.session, storage.Forward)
		case driveType:
			chunks = b.eng.GetNodesByType(ctx, *b.nodeType, storage.Forward)
		default:
			chunks = b.eng.ScanAllNodes(ctx, storage.Forward)
		}
		for chunk := range chunks {
			if chunk.Err != nil {
				select {
				case out <- Result{Err: chunk.Err}:
				case <-ctx.Done():
				}
				return
			}
			for _, n := range chunk.Nodes {
				if !b.passes(n) {
					continue
				}
				select {
				case out <- Result{Node: n}:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out
}

// Execute materializes up to Limit results (after skipping Offset
// matches), then stops pulling from Stream and releases its goroutine.
func (b *Builder) Execute(ctx context.Context) ([]graph.Node, error) {
	cctx, cancel := context.WithCancel(ctx)
	defer cancel()

	out := make([]graph.Node, 0, 16)
	skipped := 0
	for res := range b.Stream(cctx) {
		if res.Err != nil {
			return nil, res.Err
		}
		if skipped < b.offset {
			skipped++
			continue
		}
		out = append(out, res.Node)
		if b.limit > 0 && len(out) >= b.limit {
			break
		}
	}
	return out, nil
}
