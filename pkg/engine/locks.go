package engine

import (
	"sync"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// sessionLocks hands out one *sync.Mutex per SessionID, created lazily,
// so mutations against one session serialize while disjoint sessions
// proceed without contention. This generalizes the single whole-database
// sync.RWMutex pattern used for a single embedded instance's top-level
// facade down to per-session granularity, since here the unit of
// serializability is the session's append chain, not the whole store.
type sessionLocks struct {
	mu    sync.Mutex
	table map[ids.SessionID]*sync.Mutex
}

func newSessionLocks() *sessionLocks {
	return &sessionLocks{table: make(map[ids.SessionID]*sync.Mutex)}
}

func (l *sessionLocks) get(session ids.SessionID) *sync.Mutex {
	l.mu.Lock()
	defer l.mu.Unlock()
	m, ok := l.table[session]
	if !ok {
		m = &sync.Mutex{}
		l.table[session] = m
	}
	return m
}

// withSession runs fn while holding the lock for session.
func (l *sessionLocks) withSession(session ids.SessionID, fn func() error) error {
	m := l.get(session)
	m.Lock()
	defer m.Unlock()
	return fn()
}
