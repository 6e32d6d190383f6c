package lsm

import (
	"bufio"
	"fmt"
	"os"
)

// SSTable is an immutable on-disk sorted file: a value carrying its path
// and the install-order position implied by that path (a higher index
// is a logically newer version of any key it shares with a lower one).
// Files are append-only once closed, so reads never take locks against
// writers: newer writes always land in a new file.
type SSTable struct {
	path  string
	index int
}

// Path returns the file path backing this table.
func (s *SSTable) Path() string { return s.path }

// Index returns this table's install-order position.
func (s *SSTable) Index() int { return s.index }

// Get scans the file sequentially for key. A missing file-level prefix at
// the very start (an empty or fully-consumed file) is "absent", not an
// error.
func (s *SSTable) Get(key []byte) ([]byte, bool, error) {
	f, err := os.Open(s.path)
	if err != nil {
		return nil, false, fmt.Errorf("lsm: open sstable %s: %w", s.path, err)
	}
	defer f.Close()

	return findValue(bufio.NewReader(f), key)
}

// deleteFile removes the underlying file. Used only by compaction, once
// its input tables have been fully merged into a new table.
func (s *SSTable) deleteFile() error {
	return os.Remove(s.path)
}

// writeSSTable writes entries (already sorted, no duplicate keys) to path
// as a new, closed SSTable file.
func writeSSTable(path string, entries []Entry) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("lsm: create sstable %s: %w", path, err)
	}

	w := bufio.NewWriter(f)
	for _, e := range entries {
		rec, err := serializeEntry(e.Key, e.Value)
		if err != nil {
			f.Close()
			return err
		}
		if _, err := w.Write(rec); err != nil {
			f.Close()
			return fmt.Errorf("lsm: write sstable %s: %w", path, err)
		}
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return fmt.Errorf("lsm: flush sstable %s: %w", path, err)
	}
	return f.Close()
}
