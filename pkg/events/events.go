// Package events implements a typed, bounded-queue pub/sub bus: every
// accepted mutation publishes a typed event to zero or more
// subscribers, and a slow subscriber's queue drops the oldest pending
// event rather than ever blocking the mutating caller.
package events

import (
	"sync"
	"time"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/graph"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/ids"
)

// Kind distinguishes the closed set of event shapes the engine emits.
type Kind string

const (
	KindSessionCreated      Kind = "SessionCreated"
	KindSessionArchived     Kind = "SessionArchived"
	KindNodeCreated         Kind = "NodeCreated"
	KindNodeDeleted         Kind = "NodeDeleted"
	KindEdgeCreated         Kind = "EdgeCreated"
	KindToolStatusChanged   Kind = "ToolStatusChanged"
)

// Event is the envelope delivered to subscribers. Exactly the fields
// relevant to Kind are populated.
type Event struct {
	Kind      Kind
	SessionID ids.SessionID
	NodeID    ids.NodeID
	NodeType  graph.NodeType
	EdgeID    ids.EdgeID
	EdgeType  graph.EdgeType
	ToolStatus graph.ToolStatus
	At        time.Time
}

// Subscription is an owned handle to a bounded event queue. Callers
// receive from C; when they stop receiving, the bus drops the oldest
// queued event to make room for new ones rather than blocking the
// publisher.
type Subscription struct {
	C      <-chan Event
	bus    *Bus
	id     uint64
	ch     chan Event
}

// Close unregisters the subscription. Safe to call more than once.
func (s *Subscription) Close() {
	s.bus.unsubscribe(s.id)
}

// Bus is the shared, thread-safe event bus. Emission never blocks on a
// subscriber: each subscriber has its own bounded channel, and a full
// channel has its oldest pending event discarded to make room.
type Bus struct {
	mu        sync.RWMutex
	subs      map[uint64]chan Event
	nextID    uint64
	queueSize int
}

// NewBus creates a bus whose subscriber queues hold queueSize pending
// events before dropping the oldest.
func NewBus(queueSize int) *Bus {
	if queueSize <= 0 {
		queueSize = 1024
	}
	return &Bus{subs: make(map[uint64]chan Event), queueSize: queueSize}
}

// Subscribe registers a new bounded queue and returns a handle to it.
func (b *Bus) Subscribe() *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	id := b.nextID
	b.nextID++
	ch := make(chan Event, b.queueSize)
	b.subs[id] = ch
	return &Subscription{C: ch, bus: b, id: id, ch: ch}
}

func (b *Bus) unsubscribe(id uint64) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.subs[id]; ok {
		delete(b.subs, id)
		close(ch)
	}
}

// Publish delivers ev to every current subscriber. A subscriber whose
// queue is full has its oldest pending event dropped to make room — the
// publisher never blocks.
func (b *Bus) Publish(ev Event) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
			// Queue full: drop the oldest pending event, then retry
			// once. If the channel is being drained concurrently this
			// may simply succeed without dropping anything.
			select {
			case <-ch:
			default:
			}
			select {
			case ch <- ev:
			default:
				// Extremely contended; give up on this event for this
				// subscriber rather than block the mutating caller.
			}
		}
	}
}

// SubscriberCount reports the number of live subscriptions, for tests and
// diagnostics.
func (b *Bus) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Close unregisters and closes every subscriber channel.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for id, ch := range b.subs {
		delete(b.subs, id)
		close(ch)
	}
}
