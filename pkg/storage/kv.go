package storage

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"sync"

	"github.com/dgraph-io/badger/v4"
	"github.com/klauspost/compress/zstd"

	"github.com/LLM-Dev-Ops/memory-graph-sub001/pkg/errs"
)

// Direction controls scan order
type Direction int

const (
	Forward Direction = iota
	Reverse
)

// Pair is one (key, value) result from a scan.
type Pair struct {
	Key   []byte
	Value []byte
}

// OpKind distinguishes a Put from a Delete inside a Batch.
type OpKind int

const (
	OpPut OpKind = iota
	OpDelete
)

// Op is a single mutation inside a Batch: either a Put (Tree/Key/Value) or
// a Delete (Tree/Key).
type Op struct {
	Kind  OpKind
	Tree  Tree
	Key   []byte
	Value []byte
}

func PutOp(tree Tree, key, value []byte) Op { return Op{Kind: OpPut, Tree: tree, Key: key, Value: value} }
func DeleteOp(tree Tree, key []byte) Op     { return Op{Kind: OpDelete, Tree: tree, Key: key} }

// TreeStats reports the row count and approximate byte size of one tree.
type TreeStats struct {
	Count int64
	Bytes int64
}

// KV is the synchronous ordered key-value substrate contract.
// BadgerStore is the only implementation; it is wrapped by AsyncStore
// (async.go) to present an async façade.
type KV interface {
	Get(tree Tree, key []byte) ([]byte, bool, error)
	Put(tree Tree, key, value []byte) error
	Delete(tree Tree, key []byte) error
	Scan(tree Tree, prefix []byte, dir Direction, limit int) ([]Pair, error)
	Batch(ops []Op) error
	Flush() error
	Stats() (map[Tree]TreeStats, error)
	Close() error
}

// Options configures a BadgerStore.
type Options struct {
	// DataDir is the directory holding durable state. Required unless
	// InMemory is set.
	DataDir string

	// InMemory runs Badger in memory-only mode (used for tests).
	InMemory bool

	// SyncWrites forces fsync after every write; off by default for
	// throughput, on for callers that need the stricter durability
	// guarantee.
	SyncWrites bool

	// CompressionLevel is 0 (off) through 9 (max); applied to values
	// above CompressionThresholdBytes.
	CompressionLevel int

	// CompressionThresholdBytes is the minimum value size compression is
	// attempted on. Defaults to 256.
	CompressionThresholdBytes int

	// Logger receives Badger's internal log lines. Defaults to a logger
	// built on the standard "log" package (see DESIGN.md).
	Logger badger.Logger
}

func (o Options) threshold() int {
	if o.CompressionThresholdBytes > 0 {
		return o.CompressionThresholdBytes
	}
	return 256
}

// BadgerStore is the KV implementation backing the engine: one
// badger.DB, with logical trees multiplexed by a leading prefix byte
// instead of separate column families.
type BadgerStore struct {
	db      *badger.DB
	opts    Options
	mu      sync.RWMutex
	closed  bool
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

// NewBadgerStore opens (creating if necessary) a BadgerStore at the given
// options.
func NewBadgerStore(opts Options) (*BadgerStore, error) {
	bopts := badger.DefaultOptions(opts.DataDir)
	if opts.InMemory {
		bopts = bopts.WithInMemory(true)
	}
	bopts = bopts.WithSyncWrites(opts.SyncWrites)
	if opts.Logger != nil {
		bopts = bopts.WithLogger(opts.Logger)
	} else {
		bopts = bopts.WithLogger(stdLogAdapter{})
	}

	if !opts.InMemory {
		if err := os.MkdirAll(opts.DataDir, 0o755); err != nil {
			return nil, errs.IO("storage.open", fmt.Errorf("create data dir: %w", err))
		}
	}

	db, err := badger.Open(bopts)
	if err != nil {
		return nil, errs.IO("storage.open", err)
	}

	enc, err := zstd.NewWriter(nil, zstd.WithEncoderLevel(zstd.EncoderLevelFromZstd(opts.CompressionLevel)))
	if err != nil {
		db.Close()
		return nil, errs.IO("storage.open", fmt.Errorf("init compressor: %w", err))
	}
	dec, err := zstd.NewReader(nil)
	if err != nil {
		db.Close()
		enc.Close()
		return nil, errs.IO("storage.open", fmt.Errorf("init decompressor: %w", err))
	}

	return &BadgerStore{db: db, opts: opts, encoder: enc, decoder: dec}, nil
}

// stdLogAdapter routes Badger's logging through the standard "log"
// package rather than a third-party logger (see DESIGN.md's
// stdlib-justification entry).
type stdLogAdapter struct{}

func (stdLogAdapter) Errorf(f string, v ...interface{})   { log.Printf("storage: error: "+f, v...) }
func (stdLogAdapter) Warningf(f string, v ...interface{}) { log.Printf("storage: warn: "+f, v...) }
func (stdLogAdapter) Infof(f string, v ...interface{})    { log.Printf("storage: info: "+f, v...) }
func (stdLogAdapter) Debugf(f string, v ...interface{})   {}

func (s *BadgerStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return errs.Closed("storage", nil)
	}
	return nil
}

func (s *BadgerStore) compress(value []byte) []byte {
	if s.opts.CompressionLevel <= 0 || len(value) < s.opts.threshold() {
		return append([]byte{0}, value...) // 0 = uncompressed tag
	}
	out := s.encoder.EncodeAll(value, make([]byte, 0, len(value)))
	return append([]byte{1}, out...) // 1 = zstd-compressed tag
}

func (s *BadgerStore) decompress(stored []byte) ([]byte, error) {
	if len(stored) == 0 {
		return stored, nil
	}
	tag, body := stored[0], stored[1:]
	switch tag {
	case 0:
		return body, nil
	case 1:
		out, err := s.decoder.DecodeAll(body, nil)
		if err != nil {
			return nil, errs.Corruption("storage.decompress", err)
		}
		return out, nil
	default:
		return nil, errs.Corruption("storage.decompress", fmt.Errorf("unknown compression tag %d", tag))
	}
}

func fullKey(tree Tree, key []byte) []byte {
	_ = tree // tree byte is already the key's first byte by convention
	return key
}

// Get performs a point lookup within a tree.
func (s *BadgerStore) Get(tree Tree, key []byte) ([]byte, bool, error) {
	if err := s.checkOpen(); err != nil {
		return nil, false, err
	}
	var out []byte
	found := false
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(fullKey(tree, key))
		if err == badger.ErrKeyNotFound {
			return nil
		}
		if err != nil {
			return err
		}
		found = true
		return item.Value(func(val []byte) error {
			raw, derr := s.decompress(val)
			if derr != nil {
				return derr
			}
			out = append([]byte(nil), raw...)
			return nil
		})
	})
	if err != nil {
		if e, ok := err.(*errs.Error); ok {
			return nil, false, e
		}
		return nil, false, errs.IO("storage.get", err)
	}
	return out, found, nil
}

// Put inserts or overwrites a single key.
func (s *BadgerStore) Put(tree Tree, key, value []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(fullKey(tree, key), s.compress(value))
	})
	if err != nil {
		return errs.IO("storage.put", err)
	}
	return nil
}

// Delete removes a single key. Deleting an absent key is not an error.
func (s *BadgerStore) Delete(tree Tree, key []byte) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(fullKey(tree, key))
	})
	if err != nil {
		return errs.IO("storage.delete", err)
	}
	return nil
}

// Scan returns up to limit key/value pairs within tree whose key starts
// with prefix, in the requested direction. limit<=0 means unbounded.
func (s *BadgerStore) Scan(tree Tree, prefix []byte, dir Direction, limit int) ([]Pair, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	full := fullKey(tree, prefix)
	var out []Pair
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Reverse = dir == Reverse
		it := txn.NewIterator(opts)
		defer it.Close()

		seek := full
		if dir == Reverse {
			// Badger's reverse iteration seeks to the largest key <=
			// seek; append 0xFF bytes (more than any key in these trees
			// is long) so we start past any key under this prefix.
			seek = append(append([]byte{}, full...), bytes.Repeat([]byte{0xFF}, 64)...)
		}
		for it.Seek(seek); it.ValidForPrefix(full); it.Next() {
			if limit > 0 && len(out) >= limit {
				break
			}
			item := it.Item()
			k := append([]byte(nil), item.Key()...)
			var v []byte
			if err := item.Value(func(val []byte) error {
				raw, derr := s.decompress(val)
				if derr != nil {
					return derr
				}
				v = append([]byte(nil), raw...)
				return nil
			}); err != nil {
				return err
			}
			out = append(out, Pair{Key: k, Value: v})
		}
		return nil
	})
	if err != nil {
		if e, ok := err.(*errs.Error); ok {
			return nil, e
		}
		return nil, errs.IO("storage.scan", err)
	}
	return out, nil
}

// Batch applies every op atomically: either all become visible, or none
// do (the core atomicity contract).
func (s *BadgerStore) Batch(ops []Op) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.Update(func(txn *badger.Txn) error {
		for _, op := range ops {
			key := fullKey(op.Tree, op.Key)
			switch op.Kind {
			case OpPut:
				if err := txn.Set(key, s.compress(op.Value)); err != nil {
					return err
				}
			case OpDelete:
				if err := txn.Delete(key); err != nil {
					return err
				}
			}
		}
		return nil
	})
	if err != nil {
		if err == badger.ErrTxnTooBig {
			return errs.Validation("storage.batch", fmt.Errorf("batch exceeds single-transaction size: %w", err))
		}
		return errs.IO("storage.batch", err)
	}
	return nil
}

// Flush is the durability barrier: every write that returned success
// before Flush is durable when Flush returns.
func (s *BadgerStore) Flush() error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := s.db.Sync(); err != nil {
		return errs.IO("storage.flush", err)
	}
	return nil
}

// Stats reports per-tree counts and approximate byte sizes.
func (s *BadgerStore) Stats() (map[Tree]TreeStats, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	out := make(map[Tree]TreeStats, len(AllTrees))
	err := s.db.View(func(txn *badger.Txn) error {
		for _, tree := range AllTrees {
			opts := badger.DefaultIteratorOptions
			opts.PrefetchValues = false
			it := txn.NewIterator(opts)
			prefix := []byte{byte(tree)}
			var st TreeStats
			for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
				st.Count++
				st.Bytes += it.Item().EstimatedSize()
			}
			it.Close()
			out[tree] = st
		}
		return nil
	})
	if err != nil {
		return nil, errs.IO("storage.stats", err)
	}
	return out, nil
}

// Close releases the underlying Badger handle. Further calls to any
// method fail with errs.KindClosed.
func (s *BadgerStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	s.encoder.Close()
	s.decoder.Close()
	if err := s.db.Close(); err != nil {
		return errs.IO("storage.close", err)
	}
	return nil
}

// RunValueLogGC triggers Badger's value-log garbage collection, a
// maintenance op external callers may schedule periodically.
func (s *BadgerStore) RunValueLogGC(discardRatio float64) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	err := s.db.RunValueLogGC(discardRatio)
	if err != nil && err != badger.ErrNoRewrite {
		return errs.IO("storage.gc", err)
	}
	return nil
}

var _ KV = (*BadgerStore)(nil)

// hasPrefix reports whether b starts with prefix. Nothing in the
// repository calls it; prefix checks during scans use Badger's own
// ValidForPrefix.
func hasPrefix(b, prefix []byte) bool {
	return bytes.HasPrefix(b, prefix)
}
