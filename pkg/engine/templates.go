package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/cache"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/codec"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/events"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// CreateTemplate creates a Template node under session, at version 1.
// Templates are never mutated structurally: a body change is a new
// version via UpdateTemplate, preserving past instantiations' meaning.
func (e *Engine) CreateTemplate(ctx context.Context, session ids.SessionID, name, body string, variables []graph.TemplateVariable) (*graph.Template, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	var out *graph.Template
	err := e.locks.withSession(session, func() error {
		sess, err := e.getSession(ctx, session)
		if err != nil {
			return err
		}
		if !sess.Active {
			return errs.InvariantViolation("engine.create_template", fmt.Errorf("session %s is archived", session))
		}

		now := time.Now().UTC()
		tmpl := &graph.Template{ID: ids.NewNodeID(), SessionID: session, Name: name, Body: body, Variables: variables, Version: 1, CreatedAt: now, UpdatedAt: now}
		if err := e.putNodeWithPartOf(ctx, tmpl); err != nil {
			return err
		}
		e.bus.Publish(events.Event{Kind: events.KindNodeCreated, SessionID: session, NodeID: tmpl.ID, NodeType: graph.NodeTypeTemplate, At: now})
		out = tmpl
		return nil
	})
	return out, err
}

// UpdateTemplate bumps a Template's version with a new body, leaving the
// old version's semantics intact for any Prompt that already
// Instantiates it (instantiation only ever records the template id it
// was derived from, not a pointer that could be retargeted).
func (e *Engine) UpdateTemplate(ctx context.Context, id ids.NodeID, body string, variables []graph.TemplateVariable) (*graph.Template, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	node, err := e.GetNode(ctx, id)
	if err != nil {
		return nil, err
	}
	tmpl, ok := node.(*graph.Template)
	if !ok {
		return nil, errs.InvalidNodeType("engine.update_template", fmt.Errorf("node %s is not a Template", id))
	}

	var out *graph.Template
	err = e.locks.withSession(tmpl.SessionID, func() error {
		updated := *tmpl
		updated.Body = body
		updated.Variables = variables
		updated.Version++
		updated.UpdatedAt = time.Now().UTC()

		if err := e.putNode(ctx, &updated); err != nil {
			return err
		}
		out = &updated
		return nil
	})
	return out, err
}

// CreateAgent creates an Agent node under session.
func (e *Engine) CreateAgent(ctx context.Context, session ids.SessionID, name, model string, temperature float64, description string) (*graph.Agent, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	var out *graph.Agent
	err := e.locks.withSession(session, func() error {
		sess, err := e.getSession(ctx, session)
		if err != nil {
			return err
		}
		if !sess.Active {
			return errs.InvariantViolation("engine.create_agent", fmt.Errorf("session %s is archived", session))
		}

		now := time.Now().UTC()
		agent := &graph.Agent{ID: ids.NewNodeID(), SessionID: session, Name: name, Model: model, Temperature: temperature, Description: description, CreatedAt: now, UpdatedAt: now}
		if err := e.putNodeWithPartOf(ctx, agent); err != nil {
			return err
		}
		e.bus.Publish(events.Event{Kind: events.KindNodeCreated, SessionID: session, NodeID: agent.ID, NodeType: graph.NodeTypeAgent, At: now})
		out = agent
		return nil
	})
	return out, err
}

// putNodeWithPartOf writes node and its PartOf edge to its session in one
// batch, then caches and bumps the epoch. Callers must already hold the
// node's session lock.
func (e *Engine) putNodeWithPartOf(ctx context.Context, node graph.Node) error {
	ops, err := buildNodeOps(node)
	if err != nil {
		return err
	}
	part := partOfEdge(node)
	partOps, err := buildEdgeOps(part)
	if err != nil {
		return err
	}
	ops = append(ops, partOps...)

	if err := e.store.Batch(ctx, ops); err != nil {
		return err
	}
	e.cache.Put(cache.NodeKey(node.NodeID()), node)
	e.cache.Bump()
	return nil
}

// putNode rewrites a node's primary record in place (no index change),
// for mutable-header updates like UpdateTemplate. Callers must already
// hold the node's session lock.
func (e *Engine) putNode(ctx context.Context, node graph.Node) error {
	data, err := codec.EncodeNode(node, nil)
	if err != nil {
		return errs.IO("engine.put_node", err)
	}
	if err := e.store.Put(ctx, storage.TreeNodes, storage.NodeKey(node.NodeID()), data); err != nil {
		return err
	}
	e.cache.Put(cache.NodeKey(node.NodeID()), node)
	e.cache.Bump()
	return nil
}
