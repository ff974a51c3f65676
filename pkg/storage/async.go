package storage

import (
	"context"
)

// AsyncStore presents the synchronous KV substrate as an async façade:
// short operations (get/put/batch) execute immediately on a pool
// worker; Scan is exposed both as a single bounded call and as a
// chunked, cancellable Stream for large result sets.
type AsyncStore struct {
	kv        KV
	pool      *WorkerPool
	chunkSize int
}

// NewAsyncStore wraps kv with a pool of the given width. chunkSize
// bounds how many pairs a single Stream chunk carries; values <= 0
// default to 256.
func NewAsyncStore(kv KV, poolSize, chunkSize int) *AsyncStore {
	if chunkSize <= 0 {
		chunkSize = 256
	}
	return &AsyncStore{kv: kv, pool: NewWorkerPool(poolSize), chunkSize: chunkSize}
}

func (a *AsyncStore) Get(ctx context.Context, tree Tree, key []byte) ([]byte, bool, error) {
	type result struct {
		v  []byte
		ok bool
	}
	r, err := Submit(ctx, a.pool, func() (result, error) {
		v, ok, err := a.kv.Get(tree, key)
		return result{v, ok}, err
	})
	return r.v, r.ok, err
}

func (a *AsyncStore) Put(ctx context.Context, tree Tree, key, value []byte) error {
	_, err := Submit(ctx, a.pool, func() (struct{}, error) {
		return struct{}{}, a.kv.Put(tree, key, value)
	})
	return err
}

func (a *AsyncStore) Delete(ctx context.Context, tree Tree, key []byte) error {
	_, err := Submit(ctx, a.pool, func() (struct{}, error) {
		return struct{}{}, a.kv.Delete(tree, key)
	})
	return err
}

func (a *AsyncStore) Batch(ctx context.Context, ops []Op) error {
	_, err := Submit(ctx, a.pool, func() (struct{}, error) {
		return struct{}{}, a.kv.Batch(ops)
	})
	return err
}

func (a *AsyncStore) Flush(ctx context.Context) error {
	_, err := Submit(ctx, a.pool, func() (struct{}, error) {
		return struct{}{}, a.kv.Flush()
	})
	return err
}

func (a *AsyncStore) Stats(ctx context.Context) (map[Tree]TreeStats, error) {
	return Submit(ctx, a.pool, a.kv.Stats)
}

// Scan runs a single bounded scan on a pool worker and returns once it
// completes, for callers who already know the result is small.
func (a *AsyncStore) Scan(ctx context.Context, tree Tree, prefix []byte, dir Direction, limit int) ([]Pair, error) {
	return Submit(ctx, a.pool, func() ([]Pair, error) {
		return a.kv.Scan(tree, prefix, dir, limit)
	})
}

// Chunk is one bounded batch of scan results delivered by Stream.
type Chunk struct {
	Pairs []Pair
	Err   error
}

// Stream yields prefix-scan results as bounded chunks over a channel,
// pull-driven: the producer goroutine blocks on send until the caller
// receives, so a slow consumer never causes unbounded buffering. The
// returned channel is closed after the final chunk (or an error chunk);
// it is not restartable — re-issue Stream to scan again. Cancelling ctx
// stops the producer and closes the channel without a further chunk.
func (a *AsyncStore) Stream(ctx context.Context, tree Tree, prefix []byte, dir Direction) <-chan Chunk {
	out := make(chan Chunk)
	go func() {
		defer close(out)
		// A full prefix scan is still just one Badger transaction under
		// the hood (there is no native cursor-resume in the KV
		// interface), so we fetch everything once on a worker and then
		// hand it to the consumer in chunkSize slices — this keeps the
		// consumer-facing contract pull-based and bounded even though
		// the producer-side fetch is eager.
		pairs, err := Submit(ctx, a.pool, func() ([]Pair, error) {
			return a.kv.Scan(tree, prefix, dir, 0)
		})
		if err != nil {
			select {
			case out <- Chunk{Err: err}:
			case <-ctx.Done():
			}
			return
		}
		for i := 0; i < len(pairs); i += a.chunkSize {
			end := i + a.chunkSize
			if end > len(pairs) {
				end = len(pairs)
			}
			select {
			case out <- Chunk{Pairs: pairs[i:end]}:
			case <-ctx.Done():
				return
			}
		}
	}()
	return out
}

// Close stops the worker pool and closes the underlying KV store.
func (a *AsyncStore) Close() error {
	a.pool.Close()
	return a.kv.Close()
}

// Underlying returns the wrapped synchronous KV store, for callers (like
// the engine's crash-recovery verification) that need direct,
// non-pool-dispatched access.
func (a *AsyncStore) Underlying() KV { return a.kv }
