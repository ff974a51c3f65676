// Package engine is the centerpiece: it wires the storage, cache, and
// event layers together behind a typed operation set over the closed
// session/prompt/response/tool-invocation/template/agent entity model,
// enforcing the invariants those operations carry (session-scoped
// ordering of the prompt chain, endpoint and uniqueness checks on
// edges, refusal to delete a node that still has incident edges).
package engine

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/cache"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/config"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/events"
	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/storage"
)

// Engine is the embedded graph database handle. One Engine owns one
// storage directory (or in-memory instance); callers share a single
// *Engine across goroutines.
type Engine struct {
	store *storage.AsyncStore
	cache *cache.Cache
	bus   *events.Bus
	cfg   config.Config
	locks *sessionLocks

	mu     sync.RWMutex
	closed bool

	flushStop chan struct{}
	flushWG   sync.WaitGroup
}

// Open creates or opens an Engine at cfg.Path (or in-memory, if
// cfg.InMemory is set), applying Normalized defaults to any zero-valued
// tunable.
func Open(cfg config.Config) (*Engine, error) {
	cfg = cfg.Normalized()
	if err := cfg.Validate(); err != nil {
		return nil, errs.Validation("engine.open", err)
	}

	kv, err := storage.NewBadgerStore(storage.Options{
		DataDir:                   cfg.Path,
		InMemory:                  cfg.InMemory,
		SyncWrites:                cfg.SyncWrites,
		CompressionLevel:          cfg.CompressionLevel,
		CompressionThresholdBytes: cfg.CompressionThresholdBytes,
	})
	if err != nil {
		return nil, err
	}

	// CacheSizeMB is an operator-facing memory budget; a stored entry
	// (node/edge/session plus map overhead) runs roughly 1KB once
	// decoded, so we convert the MB budget into an entry count rather
	// than exposing two separate knobs.
	cacheEntries := cfg.CacheSizeMB * 1000
	e := &Engine{
		store:     storage.NewAsyncStore(kv, cfg.WorkerPoolSize, cfg.StreamChunkSize),
		cache:     cache.New(cacheEntries),
		bus:       events.NewBus(cfg.EventBusQueueSize),
		cfg:       cfg,
		locks:     newSessionLocks(),
		flushStop: make(chan struct{}),
	}

	if cfg.FlushIntervalMS > 0 {
		e.flushWG.Add(1)
		go e.backgroundFlush(time.Duration(cfg.FlushIntervalMS) * time.Millisecond)
	}

	return e, nil
}

func (e *Engine) backgroundFlush(interval time.Duration) {
	defer e.flushWG.Done()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), interval)
			_ = e.store.Flush(ctx)
			cancel()
		case <-e.flushStop:
			return
		}
	}
}

func (e *Engine) checkOpen() error {
	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return errs.Closed("engine", nil)
	}
	return nil
}

// Flush forces every durable write accepted so far to be fsync'd.
func (e *Engine) Flush(ctx context.Context) error {
	if err := e.checkOpen(); err != nil {
		return err
	}
	return e.store.Flush(ctx)
}

// Stats reports per-tree row counts and approximate byte sizes.
func (e *Engine) Stats(ctx context.Context) (map[storage.Tree]storage.TreeStats, error) {
	if err := e.checkOpen(); err != nil {
		return nil, err
	}
	return e.store.Stats(ctx)
}

// CacheStats reports the in-process lookup cache's hit/miss counters.
func (e *Engine) CacheStats() cache.Stats {
	return e.cache.Stats()
}

// MaxTraversalVisited is the configured bound on how many nodes a single
// traversal may visit before it is truncated, for callers (pkg/query)
// implementing their own bounded graph walks over this engine.
func (e *Engine) MaxTraversalVisited() int {
	return e.cfg.MaxTraversalVisited
}

// Subscribe registers a new event subscription. Close it when done.
func (e *Engine) Subscribe() *events.Subscription {
	return e.bus.Subscribe()
}

// Close stops the background flush loop (if any), flushes, and closes
// the underlying storage. Close is idempotent.
func (e *Engine) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	if e.cfg.FlushIntervalMS > 0 {
		close(e.flushStop)
		e.flushWG.Wait()
	}
	e.bus.Close()
	return e.store.Close()
}

func tailPromptMetaName(sessionStr string) string {
	return fmt.Sprintf("tail_prompt:%s", sessionStr)
}
