// Package kvstore is the public façade over the LSM engine: threshold-based
// memtable rotation, tombstone interpretation, and the flush-to-disk
// barrier used both internally (on rotation) and by callers that want a
// synchronous durability point.
package kvstore

import (
	"fmt"
	"sync"

	"github.com/mnohosten/lsmkv/pkg/lsm"
)

// DefaultMemtableThreshold is the number of distinct keys a live memtable
// may hold before it is rotated out for flushing (source: 10 000).
const DefaultMemtableThreshold = 10000

// Config holds façade configuration, following the common
// Config/DefaultConfig construction pattern used throughout this module.
type Config struct {
	Dir               string
	MemtableThreshold int
}

// DefaultConfig returns sensible defaults for a store rooted at dir.
func DefaultConfig(dir string) *Config {
	return &Config{
		Dir:               dir,
		MemtableThreshold: DefaultMemtableThreshold,
	}
}

// Store is the embedded key/value engine's public entry point.
type Store struct {
	mu        sync.Mutex // protects swapping the live memtable on rotation
	memtable  lsm.MemTable
	coord     *lsm.Coordinator
	threshold int
}

// Open constructs a store rooted at dir using default configuration.
func Open(dir string) (*Store, error) {
	return OpenConfig(DefaultConfig(dir))
}

// OpenConfig constructs a store from an explicit configuration. The table
// directory is created if absent, or reopened (recovering the on-disk
// table list) if it already exists.
func OpenConfig(cfg *Config) (*Store, error) {
	coord, err := lsm.NewCoordinator(cfg.Dir)
	if err != nil {
		return nil, err
	}
	threshold := cfg.MemtableThreshold
	if threshold <= 0 {
		threshold = DefaultMemtableThreshold
	}
	return &Store{
		memtable:  lsm.NewMemTable(),
		coord:     coord,
		threshold: threshold,
	}, nil
}

// Coordinator exposes the underlying LSM coordinator for callers (the
// optional HTTP front end, metrics) that want introspection or lifecycle
// events without reaching into façade internals.
func (s *Store) Coordinator() *lsm.Coordinator { return s.coord }

// Set associates value with key, replacing any prior value. When the live
// memtable grows past the rotation threshold, it is handed off for
// background flushing and a fresh memtable takes its place.
//
// The original implementation promotes oversized fields to a fatal
// abort; this store returns an error instead.
func (s *Store) Set(key, value []byte) error {
	if len(key) == 0 {
		return lsm.ErrEmptyKey
	}
	if len(key) > lsm.MaxFieldSize || len(value) > lsm.MaxFieldSize {
		return lsm.ErrOversizedField
	}

	s.mu.Lock()
	s.memtable.Set(key, value)
	rotate := s.memtable.Len() > s.threshold
	s.mu.Unlock()

	if rotate {
		s.SaveMemtable()
	}
	return nil
}

// Delete marks key as logically deleted by writing the tombstone sentinel.
func (s *Store) Delete(key []byte) error {
	return s.Set(key, lsm.Tombstone)
}

// Get consults the live memtable first, then the coordinator (pending
// flush memtable, then on-disk tables newest to oldest). A tombstone hit
// at either layer is unwrapped to "absent".
func (s *Store) Get(key []byte) ([]byte, bool, error) {
	s.mu.Lock()
	v, ok := s.memtable.Get(key)
	s.mu.Unlock()

	if ok {
		if lsm.IsTombstone(v) {
			return nil, false, nil
		}
		return v, true, nil
	}

	v, ok, err := s.coord.Get(key)
	if err != nil {
		return nil, false, fmt.Errorf("kvstore: get: %w", err)
	}
	if !ok {
		return nil, false, nil
	}
	if lsm.IsTombstone(v) {
		return nil, false, nil
	}
	return v, true, nil
}

// SaveMemtable atomically replaces the live memtable with a fresh empty
// one and hands the old one to the coordinator for background flushing.
// It is the flush-to-disk barrier primitive: called internally at the
// rotation threshold, and available to callers directly.
func (s *Store) SaveMemtable() {
	s.mu.Lock()
	old := s.memtable
	s.memtable = lsm.NewMemTable()
	s.mu.Unlock()

	s.coord.SaveMemtable(old)
}

// WaitForThreads blocks until any in-flight flush (and any compaction it
// triggered) has completed.
func (s *Store) WaitForThreads() {
	s.coord.WaitForThreads()
}

// Close performs a final save-memtable to persist unwritten data, then
// waits for that flush (and any resulting compaction) to finish. The
// engine is crash-safe only up to the last completed flush; there is no
// write-ahead log, so anything in the live memtable at crash time (as
// opposed to a clean Close) is lost.
func (s *Store) Close() error {
	s.SaveMemtable()
	s.WaitForThreads()
	return nil
}
