package query

import (
	"fmt"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
)

// passes applies every post-filter the driving index scan did not
// already enforce: node type (when the session index drove the scan),
// the time window, and metadata equality.
func (b *Builder) passes(n graph.Node) bool {
	if b.nodeType != nil && n.Kind() != *b.nodeType {
		return false
	}
	if b.session != nil && n.Session() != *b.session {
		return false
	}
	if b.after != nil && n.Created().Before(*b.after) {
		return false
	}
	if b.before != nil && !n.Created().Before(*b.before) {
		return false
	}
	if len(b.filters) > 0 && !matchesMetadata(n, b.filters) {
		return false
	}
	return true
}

// customMetadata returns the node's custom string-keyed metadata map, or
// nil if that node kind carries none.
func customMetadata(n graph.Node) map[string]any {
	switch v := n.(type) {
	case *graph.Prompt:
		return v.Metadata.Custom
	case *graph.Response:
		return v.Metadata.Custom
	default:
		return nil
	}
}

func matchesMetadata(n graph.Node, filters map[string]string) bool {
	custom := customMetadata(n)
	for k, want := range filters {
		got, ok := custom[k]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", got) != want {
			return false
		}
	}
	return true
}
