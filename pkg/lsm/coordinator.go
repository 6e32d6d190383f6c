package lsm

import (
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// CompactThreshold is the on-disk table count above which a merge is
// triggered after a flush commits (source uses 32).
const CompactThreshold = 32

// EventKind identifies a coordinator lifecycle notification.
type EventKind string

const (
	// EventFlush fires once a frozen memtable's SSTable is durable and
	// visible in the table list.
	EventFlush EventKind = "flush"
	// EventCompact fires once a merge has replaced its input tables.
	EventCompact EventKind = "compact"
)

// Event is published on Coordinator.Events when set. Sends are
// non-blocking, so a slow or absent listener never stalls the flush
// worker.
type Event struct {
	Kind EventKind
	Path string
}

// flushHandle is the joinable worker handle: SaveMemtable joins
// the previous handle (if any) before spawning the next, bounding
// in-flight flushes to one.
type flushHandle struct {
	done chan struct{}
	err  error
}

func (h *flushHandle) wait() error {
	<-h.done
	return h.err
}

// Coordinator owns the on-disk SSTable list, the next monotonic index,
// the pending-flush memtable slot, and the single in-flight flush/compact
// worker. Any goroutine may call Get; only the flush worker ever mutates
// the table list or clears the pending slot, and it does both together in
// one critical section so no observer ever sees a memtable cleared before
// its SSTable is visible.
type Coordinator struct {
	dir string

	tablesMu sync.RWMutex
	tables   []*SSTable

	pendingMu sync.RWMutex
	pending   MemTable

	indexMu   sync.Mutex
	nextIndex int

	flushMu sync.Mutex
	handle  *flushHandle

	// Events, if set before any write, receives a notification each time
	// a flush or compaction commits. Nil by default.
	Events chan<- Event
}

// NewCoordinator creates (or reopens) the table directory at dir. Reopening
// enumerates existing files, sorts them lexicographically, and installs
// each as an SSTable in that order; the zero-padded decimal filenames
// recover install order. Files left over from an interrupted compaction
// (the ".tmp" suffix) are abandoned artifacts and are skipped.
func NewCoordinator(dir string) (*Coordinator, error) {
	c := &Coordinator{dir: dir}

	if err := os.Mkdir(dir, 0o755); err != nil {
		if !os.IsExist(err) {
			return nil, fmt.Errorf("lsm: create table directory %s: %w", dir, err)
		}
		if err := c.loadExisting(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

func (c *Coordinator) loadExisting() error {
	entries, err := os.ReadDir(c.dir)
	if err != nil {
		return fmt.Errorf("lsm: list table directory %s: %w", c.dir, err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasSuffix(e.Name(), ".tmp") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for i, name := range names {
		c.tables = append(c.tables, &SSTable{path: filepath.Join(c.dir, name), index: i})
	}
	c.nextIndex = len(c.tables)
	return nil
}

func (c *Coordinator) generatePath() (string, int) {
	c.indexMu.Lock()
	idx := c.nextIndex
	c.nextIndex++
	c.indexMu.Unlock()
	return filepath.Join(c.dir, fmt.Sprintf("%08d.sstable", idx)), idx
}

// SaveMemtable hands m to the coordinator for background flushing. It
// first joins any prior in-flight flush, then publishes m into the
// pending slot and spawns the worker that serializes and durably writes
// it.
func (c *Coordinator) SaveMemtable(m MemTable) {
	c.WaitForThreads()

	c.pendingMu.Lock()
	c.pending = m
	c.pendingMu.Unlock()

	path, idx := c.generatePath()

	h := &flushHandle{done: make(chan struct{})}
	c.flushMu.Lock()
	c.handle = h
	c.flushMu.Unlock()

	go func() {
		defer close(h.done)
		defer func() {
			if r := recover(); r != nil {
				h.err = fmt.Errorf("lsm: flush worker panic: %v", r)
				log.Printf("%v", h.err)
			}
		}()
		c.runFlush(m, path, idx)
	}()
}

// WaitForThreads blocks until any in-flight flush (and any compaction it
// triggered) has finished. A panic inside the worker is recovered, logged,
// and not re-raised here.
func (c *Coordinator) WaitForThreads() {
	c.flushMu.Lock()
	h := c.handle
	c.handle = nil
	c.flushMu.Unlock()

	if h == nil {
		return
	}
	if err := h.wait(); err != nil {
		log.Printf("lsm: %v", err)
	}
}

// runFlush serializes m and writes it durably, then, in a single critical
// section, appends the new table to the list and clears the pending
// slot. If the write fails, neither the list nor the pending slot change,
// so observers still see the pre-flush state; the data held only in m is
// lost. The failure is logged, not propagated: there is no caller left
// to propagate it to once the flush has moved to its own goroutine.
func (c *Coordinator) runFlush(m MemTable, path string, idx int) {
	entries := m.SortedEntries()
	if err := writeSSTable(path, entries); err != nil {
		log.Printf("lsm: flush failed, pending memtable not committed: %v", err)
		return
	}

	table := &SSTable{path: path, index: idx}

	c.tablesMu.Lock()
	c.pendingMu.Lock()
	c.tables = append(c.tables, table)
	c.pending = nil
	c.pendingMu.Unlock()
	c.tablesMu.Unlock()

	c.publish(Event{Kind: EventFlush, Path: path})

	c.tablesMu.RLock()
	n := len(c.tables)
	c.tablesMu.RUnlock()

	if n > CompactThreshold {
		if err := c.compact(); err != nil {
			log.Printf("lsm: compaction failed: %v", err)
		}
	}
}

// Get consults the pending-flush memtable (if any), then the on-disk
// tables newest to oldest, returning the first hit. Tombstone
// interpretation happens one layer up, at the store façade.
func (c *Coordinator) Get(key []byte) ([]byte, bool, error) {
	c.pendingMu.RLock()
	pending := c.pending
	c.pendingMu.RUnlock()

	if pending != nil {
		if v, ok := pending.Get(key); ok {
			return v, true, nil
		}
	}

	c.tablesMu.RLock()
	tables := c.tables
	c.tablesMu.RUnlock()

	for i := len(tables) - 1; i >= 0; i-- {
		v, ok, err := tables[i].Get(key)
		if err != nil {
			return nil, false, err
		}
		if ok {
			return v, true, nil
		}
	}
	return nil, false, nil
}

// Tables returns a snapshot of the current on-disk table list, oldest
// first. Used by introspection (metrics, stats), never by the read path.
func (c *Coordinator) Tables() []*SSTable {
	c.tablesMu.RLock()
	defer c.tablesMu.RUnlock()
	out := make([]*SSTable, len(c.tables))
	copy(out, c.tables)
	return out
}

// compact snapshots the current table list and merges it into one table.
// The merge output is first written under the highest input's path plus
// ".tmp", so its install-order position is already correct: any table
// installed concurrently while the merge runs is newer and must sort
// after it, which the final re-sort by path enforces regardless of what
// was appended mid-merge.
func (c *Coordinator) compact() error {
	c.tablesMu.RLock()
	snapshot := make([]*SSTable, len(c.tables))
	copy(snapshot, c.tables)
	c.tablesMu.RUnlock()

	if len(snapshot) == 0 {
		return nil
	}

	target := snapshot[len(snapshot)-1].path
	tmpPath := target + ".tmp"

	if err := mergeTables(snapshot, tmpPath); err != nil {
		return fmt.Errorf("lsm: merge sstables: %w", err)
	}

	for _, t := range snapshot {
		if err := t.deleteFile(); err != nil {
			log.Printf("lsm: compaction: failed to remove %s: %v", t.path, err)
		}
	}
	if err := os.Rename(tmpPath, target); err != nil {
		return fmt.Errorf("lsm: install merged sstable: %w", err)
	}

	merged := &SSTable{path: target, index: snapshot[len(snapshot)-1].index}

	c.tablesMu.Lock()
	compacted := make(map[string]bool, len(snapshot))
	for _, t := range snapshot {
		compacted[t.path] = true
	}
	kept := make([]*SSTable, 0, len(c.tables)+1)
	for _, t := range c.tables {
		if !compacted[t.path] {
			kept = append(kept, t)
		}
	}
	kept = append(kept, merged)
	sort.Slice(kept, func(i, j int) bool { return kept[i].path < kept[j].path })
	c.tables = kept
	c.tablesMu.Unlock()

	c.publish(Event{Kind: EventCompact, Path: target})
	return nil
}

func (c *Coordinator) publish(e Event) {
	if c.Events == nil {
		return
	}
	select {
	case c.Events <- e:
	default:
	}
}
