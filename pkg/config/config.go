// Package config holds the engine's explicit configuration struct and
// its defaults. The engine never reads environment variables or a
// config file itself — callers build a Config however they like and
// pass it to engine.Open. The YAML loader in this package exists only
// for cmd/memgraphctl's convenience.
package config

import (
	"fmt"
)

// Config holds every tunable of an engine instance.
type Config struct {
	// Path is the on-disk data directory. Ignored when InMemory is set.
	Path string `yaml:"path"`

	// InMemory runs the storage layer without touching disk, for tests
	// and ephemeral use.
	InMemory bool `yaml:"in_memory"`

	// CacheSizeMB bounds the in-process node/edge/session cache.
	CacheSizeMB int `yaml:"cache_size_mb"`

	// FlushIntervalMS is how often a background flush runs in addition
	// to any explicit Flush call. Normalized replaces 0 with the default
	// (1000); a negative value disables the background flush.
	FlushIntervalMS int `yaml:"flush_interval_ms"`

	// CompressionLevel is 1 through 9 (max zstd compression), applied to
	// values of at least CompressionThresholdBytes. Normalized replaces 0
	// with the default (3) and Validate rejects negative values, so a
	// Config that goes through engine.Open always has compression on;
	// only storage.Options used directly can turn it off with level 0.
	CompressionLevel int `yaml:"compression_level"`

	// CompressionThresholdBytes is the minimum value size compression is
	// attempted on.
	CompressionThresholdBytes int `yaml:"compression_threshold_bytes"`

	// MaxBatchSize is the nominal bound on operations per batch commit.
	// Normalized and Validate handle it like the other tunables, but no
	// engine or storage operation checks a batch against it: batches of
	// any size are committed (or fail only on Badger's own size limit).
	MaxBatchSize int `yaml:"max_batch_size"`

	// MaxTraversalVisited bounds how many nodes a single traversal
	// (bfs/dfs/conversation-thread reconstruction) may visit before it
	// is truncated.
	MaxTraversalVisited int `yaml:"max_traversal_visited"`

	// EventBusQueueSize bounds each event subscriber's pending queue.
	EventBusQueueSize int `yaml:"event_bus_queue"`

	// WorkerPoolSize is the number of goroutines dispatching storage
	// work items.
	WorkerPoolSize int `yaml:"worker_pool_size"`

	// StreamChunkSize bounds how many pairs a single Stream chunk
	// carries.
	StreamChunkSize int `yaml:"stream_chunk_size"`

	// SyncWrites forces fsync after every write.
	SyncWrites bool `yaml:"sync_writes"`
}

// Defaults returns a Config with every tunable set to its documented
// default and Path left empty.
func Defaults() Config {
	return Config{
		CacheSizeMB:               100,
		FlushIntervalMS:           1000,
		CompressionLevel:          3,
		CompressionThresholdBytes: 256,
		MaxBatchSize:              10000,
		MaxTraversalVisited:       100000,
		EventBusQueueSize:         1024,
		WorkerPoolSize:            4,
		StreamChunkSize:           256,
	}
}

// Normalized returns c with every zero-valued tunable replaced by its
// documented default; Path, InMemory, and SyncWrites are left exactly
// as given.
func (c Config) Normalized() Config {
	d := Defaults()
	if c.CacheSizeMB == 0 {
		c.CacheSizeMB = d.CacheSizeMB
	}
	if c.FlushIntervalMS == 0 {
		c.FlushIntervalMS = d.FlushIntervalMS
	}
	if c.CompressionLevel == 0 {
		c.CompressionLevel = d.CompressionLevel
	}
	if c.CompressionThresholdBytes == 0 {
		c.CompressionThresholdBytes = d.CompressionThresholdBytes
	}
	if c.MaxBatchSize == 0 {
		c.MaxBatchSize = d.MaxBatchSize
	}
	if c.MaxTraversalVisited == 0 {
		c.MaxTraversalVisited = d.MaxTraversalVisited
	}
	if c.EventBusQueueSize == 0 {
		c.EventBusQueueSize = d.EventBusQueueSize
	}
	if c.WorkerPoolSize == 0 {
		c.WorkerPoolSize = d.WorkerPoolSize
	}
	if c.StreamChunkSize == 0 {
		c.StreamChunkSize = d.StreamChunkSize
	}
	return c
}

// Validate reports the first structurally invalid field it finds.
func (c Config) Validate() error {
	if !c.InMemory && c.Path == "" {
		return fmt.Errorf("config: Path is required unless InMemory is set")
	}
	if c.CompressionLevel < 0 || c.CompressionLevel > 9 {
		return fmt.Errorf("config: CompressionLevel must be 0-9, got %d", c.CompressionLevel)
	}
	if c.MaxBatchSize < 0 {
		return fmt.Errorf("config: MaxBatchSize must be >= 0, got %d", c.MaxBatchSize)
	}
	if c.MaxTraversalVisited < 0 {
		return fmt.Errorf("config: MaxTraversalVisited must be >= 0, got %d", c.MaxTraversalVisited)
	}
	return nil
}
