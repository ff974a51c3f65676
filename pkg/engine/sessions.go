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
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/telemetry"
)

// CreateSession creates a new, active session. If id is the zero value,
// a fresh SessionID is generated; otherwise the caller's id is used and
// rejected with KindAlreadyExists if a session with that id already
// exists.
func (e *Engine) CreateSession(ctx context.Context, id ids.SessionID, metadata map[string]string) (*graph.Session, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	ctx, end := telemetry.StartOp(ctx, "create_session")
	var err error
	defer func() { end(err) }()

	if id.IsZero() {
		id = ids.NewSessionID()
	}

	var out *graph.Session
	err = e.locks.withSession(id, func() error {
		_, found, err := e.store.Get(ctx, storage.TreeSessions, storage.SessionKey(id))
		if err != nil {
			return err
		}
		if found {
			return errs.AlreadyExists("engine.create_session", fmt.Errorf("session %s already exists", id))
		}

		now := time.Now().UTC()
		s := &graph.Session{ID: id, CreatedAt: now, UpdatedAt: now, Active: true, Metadata: metadata}
		data, err := codec.EncodeSession(s, nil)
		if err != nil {
			return errs.IO("engine.create_session", err)
		}
		if err := e.store.Put(ctx, storage.TreeSessions, storage.SessionKey(id), data); err != nil {
			return err
		}

		e.cache.Put(cache.SessionKey(id), s)
		e.bus.Publish(events.Event{Kind: events.KindSessionCreated, SessionID: id, At: now})
		out = s
		return nil
	})
	return out, err
}

// GetSession fetches a session by id.
func (e *Engine) GetSession(ctx context.Context, id ids.SessionID) (*graph.Session, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.getSession(ctx, id)
}

func (e *Engine) getSession(ctx context.Context, id ids.SessionID) (*graph.Session, error) {
	key := cache.SessionKey(id)
	if v, ok := e.cache.Get(key); ok {
		return v.(*graph.Session), nil
	}

	data, found, err := e.store.Get(ctx, storage.TreeSessions, storage.SessionKey(id))
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, errs.NotFound("engine.get_session", fmt.Errorf("session %s not found", id))
	}
	s, _, err := codec.DecodeSession(data)
	if err != nil {
		return nil, errs.Corruption("engine.get_session", err)
	}
	e.cache.Put(key, s)
	return s, nil
}

// ArchiveSession marks a session inactive without deleting any of its
// data. An archived session rejects further appends (AddPrompt,
// AddResponse, AddToolInvocation) with KindInvariantViolation. Archiving
// is idempotent: archiving an already-archived session is a no-op.
func (e *Engine) ArchiveSession(ctx context.Context, id ids.SessionID) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	ctx, end := telemetry.StartOp(ctx, "archive_session")
	var err error
	defer func() { end(err) }()

	err = e.locks.withSession(id, func() error {
		s, err := e.getSession(ctx, id)
		if err != nil {
			return err
		}
		if !s.Active {
			return nil
		}
		now := time.Now().UTC()
		archived := *s
		archived.Active = false
		archived.UpdatedAt = now

		data, err := codec.EncodeSession(&archived, nil)
		if err != nil {
			return errs.IO("engine.archive_session", err)
		}
		if err := e.store.Put(ctx, storage.TreeSessions, storage.SessionKey(id), data); err != nil {
			return err
		}

		e.cache.Put(cache.SessionKey(id), &archived)
		e.bus.Publish(events.Event{Kind: events.KindSessionArchived, SessionID: id, At: now})
		return nil
	})
	return err
}
