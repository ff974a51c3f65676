// Package query implements the filter/pagination builder and the graph
// traversal algorithms that run on top of an *engine.Engine: a fluent
// composer with a closed set of recognized options, a planner that
// picks the most selective available secondary index to drive the scan,
// and a pull-based streaming result iterator.
package query

import (
	"time"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/engine"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// Builder accumulates filters and pagination parameters against one
// engine, then executes or streams the result. A Builder is not safe for
// concurrent use; build and run one from a single goroutine.
type Builder struct {
	eng *engine.Engine

	session  *ids.SessionID
	nodeType *graph.NodeType
	after    *time.Time
	before   *time.Time
	limit    int
	offset   int
	filters  map[string]string
}

// New starts an empty query against eng.
func New(eng *engine.Engine) *Builder {
	return &Builder{eng: eng}
}

// Session restricts results to one session. When combined with
// NodeType, the session index still drives the scan (there is no
// combined session+type index); NodeType is applied as a post-filter.
func (b *Builder) Session(id ids.SessionID) *Builder {
	b.session = &id
	return b
}

// NodeType restricts results to one node kind. Driving index is
// idx/type->nodes unless Session is also set.
func (b *Builder) NodeType(t graph.NodeType) *Builder {
	b.nodeType = &t
	return b
}

// After restricts results to nodes created at or after ts (inclusive).
func (b *Builder) After(ts time.Time) *Builder {
	b.after = &ts
	return b
}

// Before restricts results to nodes created strictly before ts
// (exclusive), making After/Before together a half-open window.
func (b *Builder) Before(ts time.Time) *Builder {
	b.before = &ts
	return b
}

// Limit caps the number of results Execute returns. n<=0 means
// unbounded.
func (b *Builder) Limit(n int) *Builder {
	b.limit = n
	return b
}

// Offset skips k matching results before Execute starts collecting.
func (b *Builder) Offset(k int) *Builder {
	b.offset = k
	return b
}

// Filters adds metadata-equality post-filters: a node passes only if
// every key in f is present in that node's custom metadata map with an
// equal (string-compared) value. Node kinds with no custom metadata map
// (ToolInvocation, Template, Agent) never match a non-empty filter set.
func (b *Builder) Filters(f map[string]string) *Builder {
	b.filters = f
	return b
}
